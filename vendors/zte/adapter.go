// Package zte adapts ZTE ZXAN (C300/C320) OLTs to the device directory. Reads
// come from the SNMP private MIB when an SNMP executor is available and from
// the CLI otherwise; lifecycle commands always go through the CLI.
package zte

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/nanoncore/onuwatch/types"
	"github.com/nanoncore/onuwatch/vendors/common"
)

// Adapter implements types.Directory for ZTE OLTs
type Adapter struct {
	config      *types.DirectoryConfig
	cliExecutor types.CLIExecutor
	snmpExec    types.SNMPExecutor
	transports  []types.Transport
	registerOpt RegisterOptions

	now func() time.Time
}

// NewAdapter creates a ZTE adapter over the given executors. Either may be nil,
// but not both. Executors that are also transports are health-checked and
// closed with the adapter.
func NewAdapter(config *types.DirectoryConfig, cliExecutor types.CLIExecutor, snmpExec types.SNMPExecutor) (*Adapter, error) {
	if cliExecutor == nil && snmpExec == nil {
		return nil, fmt.Errorf("zte adapter needs a CLI or SNMP executor")
	}
	if config == nil {
		config = &types.DirectoryConfig{}
	}

	a := &Adapter{
		config:      config,
		cliExecutor: cliExecutor,
		snmpExec:    snmpExec,
		registerOpt: RegisterOptions{
			OnuType:      common.MetadataStringWithDefault(config.Metadata, "ALL", "zte_onu_type"),
			TcontProfile: common.MetadataStringWithDefault(config.Metadata, "default", "zte_tcont_profile"),
		},
		now: time.Now,
	}
	for _, e := range []interface{}{cliExecutor, snmpExec} {
		if t, ok := e.(types.Transport); ok && t != nil {
			a.transports = append(a.transports, t)
		}
	}
	return a, nil
}

// Snapshot returns the ONUs configured on a PON port
func (a *Adapter) Snapshot(ctx context.Context, board, pon int) ([]types.Device, error) {
	if a.snmpExec != nil {
		return a.snmpSnapshot(ctx, board, pon)
	}
	return a.cliSnapshot(ctx, board, pon)
}

// Detail returns the extended record of one ONU
func (a *Adapter) Detail(ctx context.Context, board, pon, onuID int) (*types.DeviceDetail, error) {
	if a.snmpExec != nil {
		return a.snmpDetail(ctx, board, pon, onuID)
	}
	return a.cliDetail(ctx, board, pon, onuID)
}

// Unactivated lists ONUs waiting for registration
func (a *Adapter) Unactivated(ctx context.Context) ([]types.UnactivatedONU, error) {
	if a.cliExecutor != nil {
		output, err := a.cliExecutor.ExecCommand(ctx, ShowUncfgCommand)
		if err != nil {
			return nil, fmt.Errorf("failed to list unconfigured ONUs: %w", err)
		}
		return ParseUncfgOutput(output), nil
	}
	return a.snmpUnactivated(ctx)
}

// Register authorizes an ONU and provisions its service VLAN
func (a *Adapter) Register(ctx context.Context, req *types.RegisterRequest) (*types.CommandResponse, error) {
	if a.cliExecutor == nil {
		return nil, fmt.Errorf("register over SNMP: %w", types.ErrUnsupported)
	}
	vlan, err := strconv.Atoi(strings.TrimSpace(req.VlanID))
	if err != nil {
		return nil, &types.CommandError{
			Code:    types.ErrCodeInvalidInput,
			Message: fmt.Sprintf("invalid vlan id %q", req.VlanID),
			OnuID:   req.Onu,
			Err:     err,
		}
	}
	return a.runCommands(ctx, RegisterCommands(req, vlan, a.registerOpt))
}

// Reboot restarts an ONU
func (a *Adapter) Reboot(ctx context.Context, req *types.RebootRequest) (*types.CommandResponse, error) {
	if a.cliExecutor == nil {
		return nil, fmt.Errorf("reboot over SNMP: %w", types.ErrUnsupported)
	}
	return a.runCommands(ctx, RebootCommands(req.Board, req.PON, req.Onu))
}

// Remove deletes an ONU from its PON port
func (a *Adapter) Remove(ctx context.Context, req *types.RemoveRequest) (*types.CommandResponse, error) {
	if a.cliExecutor == nil {
		return nil, fmt.Errorf("remove over SNMP: %w", types.ErrUnsupported)
	}
	return a.runCommands(ctx, RemoveCommands(req.Board, req.PON, req.Onu))
}

// runCommands executes a configuration sequence. A device-side rejection is a
// non-200 response; a session failure is an error.
func (a *Adapter) runCommands(ctx context.Context, commands []string) (*types.CommandResponse, error) {
	outputs, err := a.cliExecutor.ExecCommands(ctx, commands)
	if err != nil {
		// leave config mode so the next command starts at the exec prompt
		_, _ = a.cliExecutor.ExecCommand(ctx, "end")
		return nil, err
	}

	for i, out := range outputs {
		if err := CheckOutput(out); err != nil {
			_, _ = a.cliExecutor.ExecCommand(ctx, "end")
			return &types.CommandResponse{
				Code:    500,
				Status:  err.Error(),
				Message: fmt.Sprintf("command %q", commands[i]),
			}, nil
		}
	}

	return &types.CommandResponse{
		Code:    types.CodeOK,
		Status:  "OK",
		Message: strings.TrimSpace(strings.Join(outputs, "\n")),
	}, nil
}

// HealthCheck checks every transport the adapter uses
func (a *Adapter) HealthCheck(ctx context.Context) error {
	for _, t := range a.transports {
		if err := t.HealthCheck(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Close closes every transport the adapter uses
func (a *Adapter) Close() error {
	var errs []error
	for _, t := range a.transports {
		if err := t.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// CLI reads

func (a *Adapter) cliSnapshot(ctx context.Context, board, pon int) ([]types.Device, error) {
	outputs, err := a.cliExecutor.ExecCommands(ctx, []string{
		ShowStateCommand(board, pon),
		ShowBaseInfoCommand(board, pon),
		ShowRxPowerCommand(board, pon),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read PON %d/%d: %w", board, pon, err)
	}

	base := make(map[int]BaseInfoEntry)
	for _, b := range ParseBaseInfoOutput(outputs[1]) {
		base[b.OnuID] = b
	}
	rx := ParseRxPowerOutput(outputs[2])

	var devices []types.Device
	for _, s := range ParseStateOutput(outputs[0]) {
		info := base[s.OnuID]
		power, ok := rx[s.OnuID]
		if !ok {
			power = ConvertPower(OpticalNotApplicable)
		}
		devices = append(devices, types.Device{
			OnuID:        s.OnuID,
			Name:         info.Name,
			OnuType:      info.OnuType,
			SerialNumber: info.SerialNumber,
			RxPower:      power,
			Status:       s.Phase.Label(),
			Board:        board,
			PON:          pon,
		})
	}
	return devices, nil
}

func (a *Adapter) cliDetail(ctx context.Context, board, pon, onuID int) (*types.DeviceDetail, error) {
	outputs, err := a.cliExecutor.ExecCommands(ctx, []string{
		ShowDetailCommand(board, pon, onuID),
		ShowAttenuationCommand(board, pon, onuID),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read ONU %s: %w", types.ONUInterface(board, pon, onuID), err)
	}
	if err := CheckOutput(outputs[0]); err != nil {
		return nil, err
	}

	detail := ParseDetailOutput(outputs[0], board, pon, onuID)
	detail.RxPower, detail.TxPower = ParseAttenuationOutput(outputs[1])
	return detail, nil
}

// SNMP reads

func (a *Adapter) snmpSnapshot(ctx context.Context, board, pon int) ([]types.Device, error) {
	names, err := a.snmpExec.WalkSNMP(ctx, PONTable(OIDONUName, board, pon))
	if err != nil {
		return nil, fmt.Errorf("failed to walk ONU names: %w", err)
	}

	columns := map[string]map[string]interface{}{}
	for _, base := range []string{OIDONUType, OIDONUSerial, OIDONUPhaseState, OIDONURxPower} {
		values, err := a.snmpExec.WalkSNMP(ctx, PONTable(base, board, pon))
		if err != nil {
			return nil, fmt.Errorf("failed to walk %s: %w", base, err)
		}
		columns[base] = values
	}

	devices := make([]types.Device, 0, len(names))
	for index, value := range names {
		onuID, err := strconv.Atoi(index)
		if err != nil {
			continue
		}
		name, _ := common.ParseStringSNMPValue(value)
		onuType, _ := common.ParseStringSNMPValue(columns[OIDONUType][index])
		serial, _ := common.ParseStringSNMPValue(columns[OIDONUSerial][index])
		phase, _ := common.ParseIntSNMPValue(columns[OIDONUPhaseState][index])

		rx := ConvertPower(OpticalNotApplicable)
		if raw, ok := common.ParseIntSNMPValue(columns[OIDONURxPower][index+".1"]); ok {
			rx = ConvertPower(raw)
		}

		devices = append(devices, types.Device{
			OnuID:        onuID,
			Name:         name,
			OnuType:      onuType,
			SerialNumber: FormatSerial(serial),
			RxPower:      rx,
			Status:       PhaseState(phase).Label(),
			Board:        board,
			PON:          pon,
		})
	}

	sort.Slice(devices, func(i, j int) bool { return devices[i].OnuID < devices[j].OnuID })
	return devices, nil
}

func (a *Adapter) snmpDetail(ctx context.Context, board, pon, onuID int) (*types.DeviceDetail, error) {
	oids := map[string]string{
		"name":     ONUOID(OIDONUName, board, pon, onuID),
		"type":     ONUOID(OIDONUType, board, pon, onuID),
		"desc":     ONUOID(OIDONUDescription, board, pon, onuID),
		"serial":   ONUOID(OIDONUSerial, board, pon, onuID),
		"phase":    ONUOID(OIDONUPhaseState, board, pon, onuID),
		"online":   ONUOID(OIDONULastOnline, board, pon, onuID),
		"offline":  ONUOID(OIDONULastOffline, board, pon, onuID),
		"reason":   ONUOID(OIDONUOfflineReason, board, pon, onuID),
		"distance": ONUOID(OIDONUDistance, board, pon, onuID),
		"rx":       OpticalOID(OIDONURxPower, board, pon, onuID),
		"tx":       OpticalOID(OIDONUTxPower, board, pon, onuID),
	}
	list := make([]string, 0, len(oids))
	for _, oid := range oids {
		list = append(list, oid)
	}

	results, err := a.snmpExec.BulkGetSNMP(ctx, list)
	if err != nil {
		return nil, fmt.Errorf("failed to read ONU %d: %w", onuID, err)
	}

	str := func(key string) string {
		v, _ := common.GetSNMPResult(results, oids[key])
		s, _ := common.ParseStringSNMPValue(v)
		return s
	}
	num := func(key string) (int64, bool) {
		v, _ := common.GetSNMPResult(results, oids[key])
		return common.ParseIntSNMPValue(v)
	}

	if _, ok := common.GetSNMPResult(results, oids["name"]); !ok {
		return nil, fmt.Errorf("ONU %s not found", types.ONUInterface(board, pon, onuID))
	}

	phase, _ := num("phase")
	detail := &types.DeviceDetail{
		Device: types.Device{
			OnuID:        onuID,
			Name:         str("name"),
			OnuType:      str("type"),
			SerialNumber: FormatSerial(str("serial")),
			RxPower:      ConvertPower(OpticalNotApplicable),
			Status:       PhaseState(phase).Label(),
			Board:        board,
			PON:          pon,
		},
		Description: str("desc"),
		TxPower:     ConvertPower(OpticalNotApplicable),
	}
	if raw, ok := num("rx"); ok {
		detail.RxPower = ConvertPower(raw)
	}
	if raw, ok := num("tx"); ok {
		detail.TxPower = ConvertPower(raw)
	}
	if reason, ok := num("reason"); ok {
		detail.OfflineReason = OfflineReason(reason)
	}
	if meters, ok := num("distance"); ok && meters >= 0 {
		detail.GponOpticalDistance = fmt.Sprintf("%dm", meters)
	}

	lastOnline := ParseDateAndTime(str("online"))
	lastOffline := ParseDateAndTime(str("offline"))
	if !lastOnline.IsZero() {
		detail.LastOnline = lastOnline.Format(TimestampLayout)
		if PhaseState(phase) == PhaseWorking {
			detail.Uptime = FormatDuration(a.now().Sub(lastOnline))
		}
	}
	if !lastOffline.IsZero() {
		detail.LastOffline = lastOffline.Format(TimestampLayout)
		if lastOnline.After(lastOffline) {
			detail.LastDownTimeDuration = FormatDuration(lastOnline.Sub(lastOffline))
		}
	}

	return detail, nil
}

func (a *Adapter) snmpUnactivated(ctx context.Context) ([]types.UnactivatedONU, error) {
	serials, err := a.snmpExec.WalkSNMP(ctx, OIDUncfgSerial)
	if err != nil {
		return nil, fmt.Errorf("failed to walk unconfigured ONUs: %w", err)
	}
	models, err := a.snmpExec.WalkSNMP(ctx, OIDUncfgType)
	if err != nil {
		models = nil
	}

	var onus []types.UnactivatedONU
	for index, value := range serials {
		parts, err := common.ParseSNMPIndex(index)
		if err != nil || len(parts) < 1 {
			continue
		}
		board, pon, err := ParsePONIfIndex(parts[0])
		if err != nil {
			continue
		}
		serial, _ := common.ParseStringSNMPValue(value)
		model, _ := common.ParseStringSNMPValue(models[index])
		onus = append(onus, types.UnactivatedONU{
			OltIndex:     types.CommandOLTIndex(board, pon),
			Model:        model,
			SerialNumber: FormatSerial(serial),
			Status:       "unknown",
		})
	}

	sort.Slice(onus, func(i, j int) bool {
		if onus[i].OltIndex != onus[j].OltIndex {
			return onus[i].OltIndex < onus[j].OltIndex
		}
		return onus[i].SerialNumber < onus[j].SerialNumber
	})
	return onus, nil
}

var _ types.Directory = (*Adapter)(nil)
