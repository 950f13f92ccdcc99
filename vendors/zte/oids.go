package zte

import "fmt"

// ZTE C3xx GPON OLT SNMP OIDs (ZXAN private MIB)
// Enterprise OID: 1.3.6.1.4.1.3902
//
// ONU tables are indexed by {ponIfIndex}.{onuID}; the optical tables add a
// trailing ".1".
const (
	OIDZTEEnterprise = "1.3.6.1.4.1.3902"

	// ONU config table (zxAnGponOnuCfgTable)
	OIDONUType        = "1.3.6.1.4.1.3902.1012.3.28.1.1.1" // ONU type name (e.g., "ZTE-F660")
	OIDONUName        = "1.3.6.1.4.1.3902.1012.3.28.1.1.2" // Operator-assigned name
	OIDONUDescription = "1.3.6.1.4.1.3902.1012.3.28.1.1.3" // Description
	OIDONUSerial      = "1.3.6.1.4.1.3902.1012.3.28.1.1.5" // Serial (4 ASCII + 4 binary bytes)

	// ONU state table (zxAnGponOnuStateTable)
	OIDONUPhaseState    = "1.3.6.1.4.1.3902.1012.3.28.2.1.4" // Phase state, see PhaseState
	OIDONULastOnline    = "1.3.6.1.4.1.3902.1012.3.28.2.1.5" // DateAndTime of last authpass
	OIDONULastOffline   = "1.3.6.1.4.1.3902.1012.3.28.2.1.6" // DateAndTime of last offline
	OIDONUOfflineReason = "1.3.6.1.4.1.3902.1012.3.28.2.1.7" // Last offline cause, see OfflineReason

	// ONU optical table, raw*0.002-30 dBm
	OIDONURxPower = "1.3.6.1.4.1.3902.1012.3.50.12.1.1.10"
	OIDONUTxPower = "1.3.6.1.4.1.3902.1012.3.50.12.1.1.14"

	// ONU distance in meters
	OIDONUDistance = "1.3.6.1.4.1.3902.1012.3.11.4.1.2"

	// Unconfigured ONU table, indexed by {ponIfIndex}.{seq}
	OIDUncfgSerial = "1.3.6.1.4.1.3902.1012.3.13.3.1.2"
	OIDUncfgType   = "1.3.6.1.4.1.3902.1012.3.13.3.1.5"
)

// GPON PON port ifIndex layout: 0x10000000 | board<<16 | pon<<8 (shelf 1)
const ponIfIndexBase = 0x10000000

// PONIfIndex returns the SNMP ifIndex of a GPON PON port.
// Board 1 PON 1 is 268501248.
func PONIfIndex(board, pon int) int {
	return ponIfIndexBase + board<<16 + pon<<8
}

// ParsePONIfIndex reverses PONIfIndex.
func ParsePONIfIndex(ifIndex int) (board, pon int, err error) {
	if ifIndex&^0x00ffff00 != ponIfIndexBase {
		return 0, 0, fmt.Errorf("not a GPON PON ifIndex: %d", ifIndex)
	}
	return (ifIndex >> 16) & 0xff, (ifIndex >> 8) & 0xff, nil
}

// ONUOID returns a per-ONU instance OID in a config or state table.
func ONUOID(base string, board, pon, onuID int) string {
	return fmt.Sprintf("%s.%d.%d", base, PONIfIndex(board, pon), onuID)
}

// OpticalOID returns a per-ONU instance OID in the optical table.
func OpticalOID(base string, board, pon, onuID int) string {
	return fmt.Sprintf("%s.%d.%d.1", base, PONIfIndex(board, pon), onuID)
}

// PONTable returns the subtree of a table restricted to one PON port.
func PONTable(base string, board, pon int) string {
	return fmt.Sprintf("%s.%d", base, PONIfIndex(board, pon))
}
