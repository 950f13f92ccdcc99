package zte

import (
	"fmt"
	"strings"
	"time"

	"github.com/nanoncore/onuwatch/slots"
)

// PhaseState is the ONU registration state machine value.
type PhaseState int

const (
	PhaseLogging    PhaseState = 1
	PhaseLOS        PhaseState = 2
	PhaseSyncMib    PhaseState = 3
	PhaseWorking    PhaseState = 4
	PhaseDyingGasp  PhaseState = 5
	PhaseAuthFailed PhaseState = 6
	PhaseOffline    PhaseState = 7
)

// Label returns the dashboard status label of a phase state.
func (p PhaseState) Label() string {
	switch p {
	case PhaseLogging:
		return slots.StatusLogging
	case PhaseLOS:
		return slots.StatusLOS
	case PhaseSyncMib:
		return slots.StatusSynchronization
	case PhaseWorking:
		return slots.StatusOnline
	case PhaseDyingGasp:
		return slots.StatusDyingGasp
	case PhaseAuthFailed:
		return slots.StatusAuthFailed
	case PhaseOffline:
		return slots.StatusOffline
	default:
		return slots.StatusUnknown
	}
}

// CLI spellings of the phase state column
var phaseStateNames = map[string]PhaseState{
	"logging":    PhaseLogging,
	"los":        PhaseLOS,
	"syncmib":    PhaseSyncMib,
	"working":    PhaseWorking,
	"dyinggasp":  PhaseDyingGasp,
	"authfailed": PhaseAuthFailed,
	"offline":    PhaseOffline,
}

// ParsePhaseState maps a CLI phase state ("working", "DyingGasp", "OffLine") to a PhaseState.
// Unrecognized values return 0, whose label is Unknown.
func ParsePhaseState(s string) PhaseState {
	key := strings.ToLower(strings.NewReplacer(" ", "", "_", "", "-", "").Replace(strings.TrimSpace(s)))
	return phaseStateNames[key]
}

// OfflineReason returns the text of a last-offline cause code.
func OfflineReason(code int64) string {
	switch code {
	case 1:
		return "Unknown"
	case 2:
		return "LOS"
	case 3:
		return "LOSi"
	case 4:
		return "LOFi"
	case 5:
		return "sfi"
	case 6:
		return "loai"
	case 7:
		return "loami"
	case 8:
		return "AuthFail"
	case 9:
		return "PowerOff"
	case 10:
		return "deactiveSucc"
	case 11:
		return "deactiveFail"
	case 12:
		return "Reboot"
	case 13:
		return "Shutdown"
	default:
		return ""
	}
}

// Raw optical reading the OLT reports when there is no measurement. It converts
// to the 101.07 dBm "not applicable" value the dashboard treats as unmeasured.
const OpticalNotApplicable = 65535

// ConvertPower turns a raw optical table value into dBm, formatted with two decimals.
func ConvertPower(raw int64) string {
	return fmt.Sprintf("%.2f", float64(raw)*0.002-30)
}

// FormatSerial renders an ONU serial. The agent returns 4 ASCII vendor bytes
// followed by 4 binary bytes; those are shown as hex ("ZTEGC8B1D2E3").
// Already printable serials are returned as is, minus a "1," prefix some
// firmware adds.
func FormatSerial(raw string) string {
	raw = strings.TrimPrefix(strings.TrimSpace(raw), "1,")
	if len(raw) == 8 && isPrintable(raw[:4]) && !isPrintable(raw[4:]) {
		return fmt.Sprintf("%s%X", raw[:4], []byte(raw[4:]))
	}
	return raw
}

func isPrintable(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 0x20 || s[i] > 0x7e {
			return false
		}
	}
	return true
}

// ParseDateAndTime decodes an SNMPv2-TC DateAndTime octet string (8 or 11 bytes).
// The zero value is returned for unset timestamps.
func ParseDateAndTime(raw string) time.Time {
	b := []byte(raw)
	if len(b) < 8 {
		return time.Time{}
	}
	year := int(b[0])<<8 | int(b[1])
	if year == 0 {
		return time.Time{}
	}

	loc := time.Local
	if len(b) >= 11 {
		offset := (int(b[9])*60 + int(b[10])) * 60
		if b[8] == '-' {
			offset = -offset
		}
		loc = time.FixedZone("", offset)
	}

	return time.Date(year, time.Month(b[2]), int(b[3]), int(b[4]), int(b[5]), int(b[6]), int(b[7])*100*int(time.Millisecond), loc)
}

// TimestampLayout is how timestamps are rendered in device details.
const TimestampLayout = "2006-01-02 15:04:05"

// FormatDuration renders a duration the way the OLT CLI does ("2d 3h 4m 5s").
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	days := total / 86400
	hours := total % 86400 / 3600
	minutes := total % 3600 / 60
	seconds := total % 60
	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
	}
	return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
}
