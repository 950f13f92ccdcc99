package gnmi

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/nanoncore/onuwatch/types"
	"github.com/nanoncore/onuwatch/vendors/bbf"
)

// BBF TR-385 operational ONU state
const (
	PathONUStates = "/bbf-xpon-onu-states:xpon-onu-states/onu-state"
)

// ParseONUStates decodes the JSON_IETF value of an onu-state Get. The value may
// be the list itself or any container above it.
func ParseONUStates(value interface{}) []bbf.ONUState {
	var out []bbf.ONUState
	for _, entry := range onuStateEntries(value) {
		s := bbf.ONUState{
			SerialNumber:       bbf.NormalizeSerial(leafString(entry, "detected-serial-number")),
			ChannelTermination: leafString(entry, "channel-termination-ref"),
			Presence:           bbf.StripModule(leafString(entry, "onu-presence-state")),
			VANI:               leafString(entry, "v-ani-ref"),
			EquipmentID:        leafString(entry, "equipment-id"),
			LastChange:         leafString(entry, "onu-state-last-change"),
		}
		if id, err := strconv.Atoi(leafString(entry, "onu-id")); err == nil {
			s.OnuID = id
		}
		if optical, ok := leaf(entry, "optical-info").(map[string]interface{}); ok {
			s.RxPower = leafString(optical, "rx-power")
			s.TxPower = leafString(optical, "tx-power")
		}
		out = append(out, s)
	}
	return out
}

func onuStateEntries(v interface{}) []map[string]interface{} {
	switch t := v.(type) {
	case []interface{}:
		var entries []map[string]interface{}
		for _, item := range t {
			if m, ok := item.(map[string]interface{}); ok {
				entries = append(entries, m)
			}
		}
		return entries
	case map[string]interface{}:
		for k, child := range t {
			name := bbf.StripModule(k)
			if name == "onu-state" || name == "xpon-onu-states" {
				return onuStateEntries(child)
			}
		}
		// a single list entry
		if _, ok := leaf(t, "detected-serial-number").(string); ok {
			return []map[string]interface{}{t}
		}
	}
	return nil
}

// leaf looks a child up by name, ignoring module prefixes
func leaf(m map[string]interface{}, name string) interface{} {
	if v, ok := m[name]; ok {
		return v
	}
	for k, v := range m {
		if bbf.StripModule(k) == name {
			return v
		}
	}
	return nil
}

// leafString renders a scalar leaf; JSON_IETF sends 64-bit numbers and
// decimals as strings and smaller numbers as JSON numbers
func leafString(m map[string]interface{}, name string) string {
	switch v := leaf(m, name).(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// ChannelTermination names the channel termination of a board/PON.
func (d *Driver) ChannelTermination(board, pon int) string {
	return d.ct.Format(board, pon)
}

func (d *Driver) onuStates(ctx context.Context) ([]bbf.ONUState, error) {
	result, err := d.Get(ctx, []string{PathONUStates})
	if err != nil {
		return nil, fmt.Errorf("failed to read ONU states: %w", err)
	}
	var states []bbf.ONUState
	for _, v := range result {
		states = append(states, ParseONUStates(v)...)
	}
	return states, nil
}

// Snapshot returns the ONUs with an onu-id on the board/PON channel termination
func (d *Driver) Snapshot(ctx context.Context, board, pon int) ([]types.Device, error) {
	states, err := d.onuStates(ctx)
	if err != nil {
		return nil, err
	}
	return bbf.Devices(states, d.ct, board, pon), nil
}

// Detail returns the state of one ONU
func (d *Driver) Detail(ctx context.Context, board, pon, onuID int) (*types.DeviceDetail, error) {
	states, err := d.onuStates(ctx)
	if err != nil {
		return nil, err
	}
	return bbf.Detail(states, d.ct, board, pon, onuID)
}

// Unactivated lists detected ONUs no v-ani claims
func (d *Driver) Unactivated(ctx context.Context) ([]types.UnactivatedONU, error) {
	states, err := d.onuStates(ctx)
	if err != nil {
		return nil, err
	}
	return bbf.Unactivated(states, d.ct), nil
}

// Register is not available over gNMI
func (d *Driver) Register(ctx context.Context, req *types.RegisterRequest) (*types.CommandResponse, error) {
	return nil, fmt.Errorf("register over gNMI: %w", types.ErrUnsupported)
}

// Reboot is not available over gNMI
func (d *Driver) Reboot(ctx context.Context, req *types.RebootRequest) (*types.CommandResponse, error) {
	return nil, fmt.Errorf("reboot over gNMI: %w", types.ErrUnsupported)
}

// Remove is not available over gNMI
func (d *Driver) Remove(ctx context.Context, req *types.RemoveRequest) (*types.CommandResponse, error) {
	return nil, fmt.Errorf("remove over gNMI: %w", types.ErrUnsupported)
}

var _ types.Directory = (*Driver)(nil)
