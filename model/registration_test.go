package model

import (
	"errors"
	"testing"
)

func validRegistration() *Registration {
	return &Registration{
		OnuID:        12,
		SerialNumber: "ZTEGC8B1D2E3",
		Region:       "Blok C",
		Code:         "CUST-0042",
		VlanID:       "100",
	}
}

func TestRegistrationValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *Registration)
		wantErr error
	}{
		{"valid", func(r *Registration) {}, nil},
		{"slot zero", func(r *Registration) { r.OnuID = 0 }, ErrSlotOutOfRange},
		{"slot above capacity", func(r *Registration) { r.OnuID = 129 }, ErrSlotOutOfRange},
		{"missing vlan", func(r *Registration) { r.VlanID = "" }, ErrVLANRequired},
		{"vlan not a number", func(r *Registration) { r.VlanID = "abc" }, ErrVLANOutOfRange},
		{"vlan too large", func(r *Registration) { r.VlanID = "4095" }, ErrVLANOutOfRange},
		{"missing serial", func(r *Registration) { r.SerialNumber = "" }, ErrSerialRequired},
		{"short serial", func(r *Registration) { r.SerialNumber = "ZTEG1234" }, ErrSerialFormat},
		{"non hex serial", func(r *Registration) { r.SerialNumber = "ZTEGZZZZZZZZ" }, ErrSerialFormat},
		{"missing code", func(r *Registration) { r.Code = "" }, ErrCodeRequired},
		{"missing region", func(r *Registration) { r.Region = "" }, ErrRegionRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRegistration()
			tt.mutate(r)
			err := r.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Validate() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRegistrationNil(t *testing.T) {
	var r *Registration
	if err := r.Validate(); err == nil {
		t.Fatal("expected error for nil registration")
	}
}

func TestRegistrationSetGet(t *testing.T) {
	r := NewRegistration(7)

	if err := r.Set(FieldSerialNumber, "  zteg0000abcd "); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	if got := r.Get(FieldSerialNumber); got != "ZTEG0000ABCD" {
		t.Errorf("serial = %q, want upper-cased and trimmed", got)
	}

	for _, f := range []RegistrationField{FieldVlanID, FieldCode, FieldRegion} {
		if err := r.Set(f, " v "); err != nil {
			t.Fatalf("Set(%s) error: %v", f, err)
		}
		if got := r.Get(f); got != "v" {
			t.Errorf("Get(%s) = %q, want %q", f, got, "v")
		}
	}

	if err := r.Set(RegistrationField(99), "x"); err == nil {
		t.Error("expected error for unknown field")
	}
}

func TestRegistrationVLAN(t *testing.T) {
	r := validRegistration()
	vlan, err := r.VLAN()
	if err != nil || vlan != 100 {
		t.Errorf("VLAN() = %d, %v; want 100, nil", vlan, err)
	}
}
