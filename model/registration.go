// Package model contains operator-authored input objects for ONU lifecycle commands.
// They are the form targets the dashboard fills in before a command is sent to the
// device directory.
package model

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	ErrSlotOutOfRange  = errors.New("onu id must be between 1 and 128")
	ErrSerialRequired  = errors.New("serial number is required")
	ErrSerialFormat    = errors.New("serial number must be 4 letters followed by 8 hex digits")
	ErrCodeRequired    = errors.New("customer code is required")
	ErrRegionRequired  = errors.New("region/description is required")
	ErrVLANRequired    = errors.New("vlan id is required")
	ErrVLANOutOfRange  = errors.New("vlan id must be between 1 and 4094")
	errUnknownFormStep = errors.New("unknown registration field")
)

// GPON serial: vendor id (4 letters) + 8 hex digits (e.g., ZTEGC8B1D2E3)
var serialPattern = regexp.MustCompile(`^[A-Za-z]{4}[0-9A-Fa-f]{8}$`)

// Registration represents a pending ONU registration on an empty slot.
// It is created when registration starts on an empty slot and discarded
// on submit success or cancel.
type Registration struct {
	// OnuID is the target slot (1..128)
	OnuID int

	// SerialNumber is the ONU serial number
	// Format: 4 letters + 8 hex digits (e.g., ZTEGC8B1D2E3)
	SerialNumber string

	// Region is the free-text description/area of the subscriber
	Region string

	// Code is the customer id the ONU is named after
	Code string

	// VlanID is the service VLAN, kept as entered
	VlanID string
}

// RegistrationField names one editable field of a Registration.
type RegistrationField int

const (
	FieldVlanID RegistrationField = iota
	FieldSerialNumber
	FieldCode
	FieldRegion
)

// RegistrationFields is the order the form presents fields in.
var RegistrationFields = []RegistrationField{FieldVlanID, FieldSerialNumber, FieldCode, FieldRegion}

// String returns the form label
func (f RegistrationField) String() string {
	switch f {
	case FieldVlanID:
		return "VLAN ID"
	case FieldSerialNumber:
		return "Serial Number"
	case FieldCode:
		return "Customer ID"
	case FieldRegion:
		return "Description/Region"
	default:
		return "unknown"
	}
}

// NewRegistration starts a registration for an empty slot.
func NewRegistration(onuID int) *Registration {
	return &Registration{OnuID: onuID}
}

// Set assigns a field value, trimming surrounding whitespace.
func (r *Registration) Set(field RegistrationField, value string) error {
	value = strings.TrimSpace(value)
	switch field {
	case FieldVlanID:
		r.VlanID = value
	case FieldSerialNumber:
		r.SerialNumber = strings.ToUpper(value)
	case FieldCode:
		r.Code = value
	case FieldRegion:
		r.Region = value
	default:
		return fmt.Errorf("%w: %d", errUnknownFormStep, field)
	}
	return nil
}

// Get returns the current value of a field
func (r *Registration) Get(field RegistrationField) string {
	switch field {
	case FieldVlanID:
		return r.VlanID
	case FieldSerialNumber:
		return r.SerialNumber
	case FieldCode:
		return r.Code
	case FieldRegion:
		return r.Region
	default:
		return ""
	}
}

// Validate checks every field is present and well formed.
// All fields are required even though they start out empty.
func (r *Registration) Validate() error {
	if r == nil {
		return errors.New("registration is nil")
	}
	if r.OnuID < 1 || r.OnuID > 128 {
		return ErrSlotOutOfRange
	}

	if _, err := r.VLAN(); err != nil {
		return err
	}

	if r.SerialNumber == "" {
		return ErrSerialRequired
	}
	if !serialPattern.MatchString(r.SerialNumber) {
		return ErrSerialFormat
	}

	if r.Code == "" {
		return ErrCodeRequired
	}
	if r.Region == "" {
		return ErrRegionRequired
	}

	return nil
}

// VLAN returns the parsed VLAN id
func (r *Registration) VLAN() (int, error) {
	if r.VlanID == "" {
		return 0, ErrVLANRequired
	}
	vlan, err := strconv.Atoi(r.VlanID)
	if err != nil || vlan < 1 || vlan > 4094 {
		return 0, ErrVLANOutOfRange
	}
	return vlan, nil
}
