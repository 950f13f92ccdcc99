// Package bbf maps the Broadband Forum TR-385 xpon-onu-states tree onto the
// device directory model. The gNMI and NETCONF backends decode the tree from
// their own encodings and share the projection in this package.
package bbf

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/nanoncore/onuwatch/slots"
	"github.com/nanoncore/onuwatch/types"
)

// NSONUStates is the namespace of the xpon-onu-states container
const NSONUStates = "urn:bbf:yang:bbf-xpon-onu-states"

// ONU presence states (bbf-xpon-onu-types identities)
const (
	PresenceOnIntendedCT       = "onu-present-and-on-intended-channel-termination"
	PresenceInDiscovery        = "onu-present-and-in-discovery"
	PresenceVANIKnownCTUnknown = "onu-present-and-v-ani-known-but-intended-ct-unknown"
	PresenceUnclaimed          = "onu-present-and-no-v-ani-known-and-unclaimed"
	PresenceUnexpected         = "onu-present-and-unexpected"
	PresenceEmergencyStopped   = "onu-present-and-emergency-stopped"
	PresenceNotPresent         = "onu-not-present"
	PresenceNotPresentVANI     = "onu-not-present-with-v-ani"
)

// DefaultCTTemplate names the channel termination of a board/PON
const DefaultCTTemplate CTTemplate = "CT_{board}/{pon}"

// PresenceLabel maps a presence state to a dashboard status label.
func PresenceLabel(presence string) string {
	switch StripModule(presence) {
	case PresenceOnIntendedCT:
		return slots.StatusOnline
	case PresenceInDiscovery:
		return slots.StatusLogging
	case PresenceVANIKnownCTUnknown:
		return slots.StatusSynchronization
	case PresenceEmergencyStopped:
		return slots.StatusAuthFailed
	case PresenceNotPresent, PresenceNotPresentVANI:
		return slots.StatusOffline
	default:
		return slots.StatusUnknown
	}
}

// Unclaimed reports whether an ONU was detected but has no slot yet
func Unclaimed(presence string) bool {
	switch StripModule(presence) {
	case PresenceUnclaimed, PresenceUnexpected:
		return true
	}
	return false
}

// StripModule drops a YANG module prefix ("bbf-xpon-onu-types:onu-not-present").
func StripModule(s string) string {
	if i := strings.LastIndex(s, ":"); i >= 0 {
		return s[i+1:]
	}
	return s
}

// ONUState is one decoded onu-state list entry.
type ONUState struct {
	SerialNumber       string
	OnuID              int
	ChannelTermination string
	Presence           string
	VANI               string
	EquipmentID        string
	RxPower            string
	TxPower            string
	LastChange         string
}

// NormalizeSerial removes the separators some OLTs put in detected-serial-number
func NormalizeSerial(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), ":", "")
}

// CTTemplate names channel terminations from a board and PON, e.g. "CT_{board}/{pon}".
type CTTemplate string

// Format returns the channel termination of a board/PON
func (t CTTemplate) Format(board, pon int) string {
	return strings.NewReplacer("{board}", strconv.Itoa(board), "{pon}", strconv.Itoa(pon)).Replace(string(t))
}

// Parse reverses Format
func (t CTTemplate) Parse(name string) (board, pon int, ok bool) {
	pattern := regexp.QuoteMeta(string(t))
	pattern = strings.Replace(pattern, regexp.QuoteMeta("{board}"), `(?P<board>\d+)`, 1)
	pattern = strings.Replace(pattern, regexp.QuoteMeta("{pon}"), `(?P<pon>\d+)`, 1)
	re, err := regexp.Compile("^" + pattern + "$")
	if err != nil {
		return 0, 0, false
	}
	m := re.FindStringSubmatch(name)
	if m == nil {
		return 0, 0, false
	}
	for i, group := range re.SubexpNames() {
		switch group {
		case "board":
			board, _ = strconv.Atoi(m[i])
		case "pon":
			pon, _ = strconv.Atoi(m[i])
		}
	}
	return board, pon, true
}

// FormatPower renders a decimal dBm leaf with two decimals. Values that do not
// parse are returned unchanged.
func FormatPower(s string) string {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return s
	}
	return fmt.Sprintf("%.2f", v)
}

func device(s ONUState, board, pon int) types.Device {
	return types.Device{
		OnuID:        s.OnuID,
		Name:         s.VANI,
		OnuType:      s.EquipmentID,
		SerialNumber: s.SerialNumber,
		RxPower:      FormatPower(s.RxPower),
		Status:       PresenceLabel(s.Presence),
		Board:        board,
		PON:          pon,
	}
}

// Devices returns the claimed ONUs with an onu-id on the board/PON channel
// termination, ordered by onu-id.
func Devices(states []ONUState, ct CTTemplate, board, pon int) []types.Device {
	name := ct.Format(board, pon)
	var devices []types.Device
	for _, s := range states {
		if s.ChannelTermination != name || s.OnuID <= 0 || Unclaimed(s.Presence) {
			continue
		}
		devices = append(devices, device(s, board, pon))
	}
	sort.Slice(devices, func(i, j int) bool { return devices[i].OnuID < devices[j].OnuID })
	return devices
}

// Detail returns the state of one ONU. The last state change is reported as
// last online or last offline depending on presence.
func Detail(states []ONUState, ct CTTemplate, board, pon, onuID int) (*types.DeviceDetail, error) {
	name := ct.Format(board, pon)
	for _, s := range states {
		if s.ChannelTermination != name || s.OnuID != onuID {
			continue
		}
		detail := &types.DeviceDetail{
			Device:      device(s, board, pon),
			Description: s.VANI,
			TxPower:     FormatPower(s.TxPower),
		}
		if detail.Status == slots.StatusOnline {
			detail.LastOnline = s.LastChange
		} else {
			detail.LastOffline = s.LastChange
		}
		return detail, nil
	}
	return nil, fmt.Errorf("ONU %d not found on %s", onuID, name)
}

// Unactivated lists detected ONUs no v-ani claims, ordered by serial. The
// index is the command index of the channel termination when it parses.
func Unactivated(states []ONUState, ct CTTemplate) []types.UnactivatedONU {
	var onus []types.UnactivatedONU
	for _, s := range states {
		if !Unclaimed(s.Presence) {
			continue
		}
		index := s.ChannelTermination
		if board, pon, ok := ct.Parse(s.ChannelTermination); ok {
			index = types.CommandOLTIndex(board, pon)
		}
		onus = append(onus, types.UnactivatedONU{
			OltIndex:     index,
			Model:        s.EquipmentID,
			SerialNumber: s.SerialNumber,
			Status:       StripModule(s.Presence),
		})
	}
	sort.Slice(onus, func(i, j int) bool { return onus[i].SerialNumber < onus[j].SerialNumber })
	return onus
}
