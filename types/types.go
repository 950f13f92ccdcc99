//go:generate mockgen -destination=mock_directory.go -package=types github.com/nanoncore/onuwatch/types Directory

package types

import (
	"context"
	"time"
)

// Protocol represents the backend protocol used to reach the device directory
type Protocol string

const (
	ProtocolREST    Protocol = "rest"
	ProtocolSNMP    Protocol = "snmp"
	ProtocolCLI     Protocol = "cli"
	ProtocolGNMI    Protocol = "gnmi"
	ProtocolNETCONF Protocol = "netconf"
	ProtocolMock    Protocol = "mock" // For testing/simulation
)

// DirectoryConfig contains configuration for a device directory backend
type DirectoryConfig struct {
	// Name is a unique identifier for this OLT
	Name string

	// Protocol selects the backend
	Protocol Protocol

	// BaseURL is the device-management API root (REST only)
	BaseURL string

	// Address is the management IP/hostname (SNMP, CLI, gNMI)
	Address string

	// Port is the management port (if not default)
	Port int

	// Username for authentication
	Username string

	// Password for authentication
	Password string

	// TLSEnabled indicates if TLS should be used
	TLSEnabled bool

	// TLSSkipVerify skips TLS certificate verification (insecure, for testing)
	TLSSkipVerify bool

	// Timeout for a single backend call
	Timeout time.Duration

	// Metadata contains backend-specific configuration
	// (snmp_community, snmp_version, gnmi_ct_template, ...)
	Metadata map[string]string
}

// Directory is the interface every device directory backend implements.
// It abstracts the remote device-management API the dashboard polls and
// commands.
type Directory interface {
	// Snapshot returns the ONUs currently reporting on a board/PON.
	// The list is sparse and in no particular order.
	Snapshot(ctx context.Context, board, pon int) ([]Device, error)

	// Detail fetches the extended record of one ONU
	Detail(ctx context.Context, board, pon, onuID int) (*DeviceDetail, error)

	// Unactivated lists ONUs detected by the OLT but not yet registered
	Unactivated(ctx context.Context) ([]UnactivatedONU, error)

	// Register provisions an ONU into an empty slot
	Register(ctx context.Context, req *RegisterRequest) (*CommandResponse, error)

	// Reboot restarts an ONU
	Reboot(ctx context.Context, req *RebootRequest) (*CommandResponse, error)

	// Remove deletes an ONU from its slot
	Remove(ctx context.Context, req *RemoveRequest) (*CommandResponse, error)

	// HealthCheck verifies the backend is reachable
	HealthCheck(ctx context.Context) error

	// Close releases any connection held by the backend
	Close() error
}

// Device is one reporting ONU in a board/PON snapshot.
type Device struct {
	// OnuID is the slot the ONU occupies (1..128)
	OnuID int `json:"onu_id"`

	// Name is the operator-assigned ONU name
	Name string `json:"name"`

	// OnuType is the ONU model/type (e.g., "ZTE-F660")
	OnuType string `json:"onu_type"`

	// SerialNumber is the ONU serial (e.g., "ZTEGC8B1D2E3")
	SerialNumber string `json:"serial_number"`

	// RxPower is the ONU receive power in dBm, as reported (numeric string)
	RxPower string `json:"rx_power"`

	// Status is the ONU status label (Online, LOS, ...)
	Status string `json:"status"`

	// Board is the line-card number
	Board int `json:"board"`

	// PON is the PON port on the board
	PON int `json:"pon"`
}

// DeviceDetail is the extended record returned by an on-demand detail fetch.
type DeviceDetail struct {
	Device

	Description          string `json:"description"`
	TxPower              string `json:"tx_power"`
	IPAddress            string `json:"ip_address"`
	LastOnline           string `json:"last_online"`
	LastOffline          string `json:"last_offline"`
	Uptime               string `json:"uptime"`
	LastDownTimeDuration string `json:"last_down_time_duration"`
	OfflineReason        string `json:"offline_reason"`
	GponOpticalDistance  string `json:"gpon_optical_distance"`
}

// UnactivatedONU is an ONU seen by the OLT that has no slot yet.
type UnactivatedONU struct {
	// OltIndex is the PON interface where the ONU was detected
	OltIndex string `json:"olt_index"`

	// Model is the ONU model (optional)
	Model string `json:"model"`

	// SerialNumber is the ONU serial
	SerialNumber string `json:"serial_number"`

	// Status is the detection state reported by the OLT
	Status string `json:"status"`
}

// RegisterRequest is the body of a register command.
type RegisterRequest struct {
	// OltIndex is built with RegisterOLTIndex
	OltIndex     string `json:"olt_index"`
	SerialNumber string `json:"serial_number"`
	Region       string `json:"region"`
	Code         string `json:"code"`
	Onu          int    `json:"onu"`
	VlanID       string `json:"vlan_id"`

	// Board and PON are carried for backends that address the port directly
	Board int `json:"-"`
	PON   int `json:"-"`
}

// RebootRequest is the body of a reboot command.
type RebootRequest struct {
	// OltIndex is built with CommandOLTIndex
	OltIndex string `json:"olt_index"`
	Onu      int    `json:"onu"`

	Board int `json:"-"`
	PON   int `json:"-"`
}

// RemoveRequest is the body of a remove command.
type RemoveRequest struct {
	// OltIndex is built with CommandOLTIndex
	OltIndex string `json:"olt_index"`
	Onu      int    `json:"onu"`

	Board int `json:"-"`
	PON   int `json:"-"`
}

// CommandResponse is what a backend returns for a lifecycle command.
type CommandResponse struct {
	// Code is 200 on success
	Code int `json:"code"`

	// Status is the backend's short status text
	Status string `json:"status"`

	// Message carries optional detail (CLI output, backend message)
	Message string `json:"message,omitempty"`
}

// CodeOK is the only CommandResponse code that signals success.
const CodeOK = 200

// OK reports whether the backend accepted the command.
func (r *CommandResponse) OK() bool {
	return r != nil && r.Code == CodeOK
}
