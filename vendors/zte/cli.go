package zte

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/nanoncore/onuwatch/types"
	"github.com/nanoncore/onuwatch/vendors/common"
)

// Show commands

// ShowStateCommand lists the phase state of every ONU on a PON port.
func ShowStateCommand(board, pon int) string {
	return "show gpon onu state " + types.CommandOLTIndex(board, pon)
}

// ShowBaseInfoCommand lists type and serial of every ONU on a PON port.
func ShowBaseInfoCommand(board, pon int) string {
	return "show gpon onu baseinfo " + types.CommandOLTIndex(board, pon)
}

// ShowRxPowerCommand lists the ONU receive power of every ONU on a PON port.
func ShowRxPowerCommand(board, pon int) string {
	return "show pon power onu-rx " + types.CommandOLTIndex(board, pon)
}

// ShowDetailCommand shows the detail-info of one ONU.
func ShowDetailCommand(board, pon, onuID int) string {
	return "show gpon onu detail-info " + types.ONUInterface(board, pon, onuID)
}

// ShowAttenuationCommand shows both directions of the optical budget of one ONU.
func ShowAttenuationCommand(board, pon, onuID int) string {
	return "show pon power attenuation " + types.ONUInterface(board, pon, onuID)
}

// ShowUncfgCommand lists ONUs seen on any PON port but not configured.
const ShowUncfgCommand = "show gpon onu uncfg"

// Configuration commands

// RegisterOptions holds the site-specific parts of an ONU registration.
type RegisterOptions struct {
	// OnuType is the ONU type profile name (e.g., "ALL", "ZTE-F660")
	OnuType string

	// TcontProfile is the upstream bandwidth profile
	TcontProfile string
}

// RebootCommands builds the sequence that restarts one ONU.
func RebootCommands(board, pon, onuID int) []string {
	return []string{
		"configure terminal",
		"pon-onu-mng " + types.ONUInterface(board, pon, onuID),
		"reboot",
		"end",
	}
}

// RemoveCommands builds the sequence that deletes one ONU from its PON port.
func RemoveCommands(board, pon, onuID int) []string {
	return []string{
		"configure terminal",
		"interface " + types.CommandOLTIndex(board, pon),
		fmt.Sprintf("no onu %d", onuID),
		"end",
	}
}

// RegisterCommands builds the sequence that authorizes an ONU by serial, names it
// after the customer code and maps the service VLAN.
func RegisterCommands(req *types.RegisterRequest, vlan int, opts RegisterOptions) []string {
	onuIf := types.ONUInterface(req.Board, req.PON, req.Onu)
	return []string{
		"configure terminal",
		"interface " + types.CommandOLTIndex(req.Board, req.PON),
		fmt.Sprintf("onu %d type %s sn %s", req.Onu, opts.OnuType, req.SerialNumber),
		"exit",
		"interface " + onuIf,
		"name " + cliWord(req.Code),
		"description " + cliWord(req.Region),
		fmt.Sprintf("tcont 1 profile %s", opts.TcontProfile),
		"gemport 1 tcont 1",
		fmt.Sprintf("service-port 1 vport 1 user-vlan %d vlan %d", vlan, vlan),
		"exit",
		"pon-onu-mng " + onuIf,
		fmt.Sprintf("service 1 gemport 1 vlan %d", vlan),
		"end",
	}
}

// ZXAN arguments cannot contain spaces
func cliWord(s string) string {
	return strings.Join(strings.Fields(s), "_")
}

// CheckOutput returns the first error line of a command's output, if any.
func CheckOutput(output string) error {
	for _, line := range strings.Split(common.StripANSI(output), "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "%Error") ||
			strings.HasPrefix(line, "%Code") ||
			strings.Contains(line, "Invalid input") {
			return fmt.Errorf("device rejected command: %s", line)
		}
	}
	return nil
}

// Parsers

// StateEntry is one row of "show gpon onu state".
type StateEntry struct {
	OnuID      int
	AdminState string
	Phase      PhaseState
	PhaseText  string
}

// ParseStateOutput parses "show gpon onu state".
func ParseStateOutput(output string) []StateEntry {
	var entries []StateEntry
	for _, row := range common.ParseTable(output, "OnuIndex") {
		_, _, onuID, err := types.ParseONUIndex(row["OnuIndex"])
		if err != nil || onuID == 0 {
			continue
		}
		entries = append(entries, StateEntry{
			OnuID:      onuID,
			AdminState: row["Admin State"],
			Phase:      ParsePhaseState(row["Phase State"]),
			PhaseText:  row["Phase State"],
		})
	}
	return entries
}

// BaseInfoEntry is one row of "show gpon onu baseinfo".
type BaseInfoEntry struct {
	OnuID        int
	Name         string
	OnuType      string
	SerialNumber string
}

// ParseBaseInfoOutput parses "show gpon onu baseinfo". The Name column only
// exists on newer firmware.
func ParseBaseInfoOutput(output string) []BaseInfoEntry {
	var entries []BaseInfoEntry
	for _, row := range common.ParseTable(output, "OnuIndex") {
		_, _, onuID, err := types.ParseONUIndex(row["OnuIndex"])
		if err != nil || onuID == 0 {
			continue
		}
		serial := row["AuthInfo"]
		if _, after, ok := strings.Cut(serial, ":"); ok {
			serial = after
		}
		entries = append(entries, BaseInfoEntry{
			OnuID:        onuID,
			Name:         row["Name"],
			OnuType:      row["Type"],
			SerialNumber: serial,
		})
	}
	return entries
}

// "-21.325(dbm)"
var dbmPattern = regexp.MustCompile(`(-?\d+(?:\.\d+)?)\s*\(dbm\)`)

// ParseRxPowerOutput parses "show pon power onu-rx" into onu id -> dBm text.
// ONUs without a reading are reported as the not-applicable value.
func ParseRxPowerOutput(output string) map[int]string {
	power := make(map[int]string)
	for _, row := range common.ParseTable(output, "Onu") {
		_, _, onuID, err := types.ParseONUIndex(row["Onu"])
		if err != nil || onuID == 0 {
			continue
		}
		power[onuID] = parseDBM(row["Rx power"])
	}
	return power
}

func parseDBM(s string) string {
	m := dbmPattern.FindStringSubmatch(strings.ToLower(s))
	if m == nil {
		return ConvertPower(OpticalNotApplicable)
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return ConvertPower(OpticalNotApplicable)
	}
	return fmt.Sprintf("%.2f", v)
}

var (
	attenuationDown = regexp.MustCompile(`(?im)^\s*down\s+Tx\s*:\s*(\S+)\s+Rx\s*:\s*(\S+)`)
	attenuationUp   = regexp.MustCompile(`(?im)^\s*up\s+Rx\s*:\s*(\S+)\s+Tx\s*:\s*(\S+)`)
)

// ParseAttenuationOutput returns the ONU receive and transmit power from
// "show pon power attenuation".
func ParseAttenuationOutput(output string) (rx, tx string) {
	rx = ConvertPower(OpticalNotApplicable)
	tx = ConvertPower(OpticalNotApplicable)
	if m := attenuationDown.FindStringSubmatch(output); m != nil {
		rx = parseDBM(m[2])
	}
	if m := attenuationUp.FindStringSubmatch(output); m != nil {
		tx = parseDBM(m[2])
	}
	return rx, tx
}

// "   1   2024-01-01 10:00:00    2024-01-01 09:00:00    DyingGasp"
var historyRow = regexp.MustCompile(`^\s*\d+\s+(\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2})\s+(\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2})\s*(\S*)`)

const zeroTimestamp = "0000-00-00 00:00:00"

// ParseDetailOutput parses "show gpon onu detail-info" into a device detail.
// The authpass history row with the latest authpass time supplies last online,
// last offline and offline reason.
func ParseDetailOutput(output string, board, pon, onuID int) *types.DeviceDetail {
	kv := common.ParseKeyValues(output)

	detail := &types.DeviceDetail{
		Device: types.Device{
			OnuID:        onuID,
			Name:         kv["Name"],
			OnuType:      kv["Type"],
			SerialNumber: kv["Serial number"],
			Status:       ParsePhaseState(kv["Phase state"]).Label(),
			Board:        board,
			PON:          pon,
		},
		Description:         kv["Description"],
		Uptime:              kv["Online Duration"],
		GponOpticalDistance: kv["ONU Distance"],
	}

	type authpass struct{ online, offline, cause string }
	var history []authpass
	for _, line := range strings.Split(strings.ReplaceAll(output, "\r", ""), "\n") {
		if m := historyRow.FindStringSubmatch(line); m != nil && m[1] != zeroTimestamp {
			history = append(history, authpass{online: m[1], offline: m[2], cause: m[3]})
		}
	}
	if len(history) > 0 {
		sort.SliceStable(history, func(i, j int) bool { return history[i].online > history[j].online })
		latest := history[0]
		detail.LastOnline = latest.online
		if latest.offline != zeroTimestamp {
			detail.LastOffline = latest.offline
			detail.OfflineReason = latest.cause
		} else if len(history) > 1 && history[1].offline != zeroTimestamp {
			// still online: the previous session holds the last drop
			detail.LastOffline = history[1].offline
			detail.OfflineReason = history[1].cause
		}
	}

	return detail
}

// ParseUncfgOutput parses "show gpon onu uncfg". Older firmware prints
// OltIndex/Model/SN columns instead of OnuIndex/Sn/State.
func ParseUncfgOutput(output string) []types.UnactivatedONU {
	rows := common.ParseTable(output, "OnuIndex")
	if len(rows) == 0 {
		rows = common.ParseTable(output, "OltIndex")
	}

	var onus []types.UnactivatedONU
	for _, row := range rows {
		index := row["OnuIndex"]
		if index == "" {
			index = row["OltIndex"]
		}
		board, pon, _, err := types.ParseONUIndex(index)
		if err != nil {
			continue
		}
		serial := row["Sn"]
		if serial == "" {
			serial = row["SN"]
		}
		onus = append(onus, types.UnactivatedONU{
			OltIndex:     types.CommandOLTIndex(board, pon),
			Model:        row["Model"],
			SerialNumber: serial,
			Status:       row["State"],
		})
	}
	return onus
}
