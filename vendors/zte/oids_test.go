package zte

import "testing"

func TestPONIfIndex(t *testing.T) {
	tests := []struct {
		board, pon int
		want       int
	}{
		{1, 1, 268501248},
		{1, 2, 268501504},
		{2, 1, 268566784},
		{4, 16, 268701696},
	}

	for _, tt := range tests {
		got := PONIfIndex(tt.board, tt.pon)
		if got != tt.want {
			t.Errorf("PONIfIndex(%d, %d) = %d, want %d", tt.board, tt.pon, got, tt.want)
		}

		board, pon, err := ParsePONIfIndex(got)
		if err != nil {
			t.Fatalf("ParsePONIfIndex(%d) error: %v", got, err)
		}
		if board != tt.board || pon != tt.pon {
			t.Errorf("ParsePONIfIndex(%d) = %d/%d, want %d/%d", got, board, pon, tt.board, tt.pon)
		}
	}
}

func TestParsePONIfIndexInvalid(t *testing.T) {
	for _, ifIndex := range []int{0, 1, 268501249, 0x20010100} {
		if _, _, err := ParsePONIfIndex(ifIndex); err == nil {
			t.Errorf("ParsePONIfIndex(%d) expected error", ifIndex)
		}
	}
}

func TestInstanceOIDs(t *testing.T) {
	if got := ONUOID(OIDONUName, 1, 1, 5); got != "1.3.6.1.4.1.3902.1012.3.28.1.1.2.268501248.5" {
		t.Errorf("ONUOID() = %s", got)
	}
	if got := OpticalOID(OIDONURxPower, 1, 1, 5); got != "1.3.6.1.4.1.3902.1012.3.50.12.1.1.10.268501248.5.1" {
		t.Errorf("OpticalOID() = %s", got)
	}
	if got := PONTable(OIDONUPhaseState, 2, 3); got != "1.3.6.1.4.1.3902.1012.3.28.2.1.4.268567296" {
		t.Errorf("PONTable() = %s", got)
	}
}
