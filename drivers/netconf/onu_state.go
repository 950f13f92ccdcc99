package netconf

import (
	"context"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"github.com/nanoncore/onuwatch/types"
	"github.com/nanoncore/onuwatch/vendors/bbf"
)

// FilterONUStates selects the BBF TR-385 operational ONU state tree
var FilterONUStates = fmt.Sprintf(`<xpon-onu-states xmlns="%s"/>`, bbf.NSONUStates)

type onuStateReply struct {
	XMLName xml.Name      `xml:"rpc-reply"`
	States  []onuStateXML `xml:"data>xpon-onu-states>onu-state"`
}

type onuStateXML struct {
	SerialNumber       string `xml:"detected-serial-number"`
	OnuID              string `xml:"onu-id"`
	ChannelTermination string `xml:"channel-termination-ref"`
	Presence           string `xml:"onu-presence-state"`
	VANI               string `xml:"v-ani-ref"`
	EquipmentID        string `xml:"equipment-id"`
	LastChange         string `xml:"onu-state-last-change"`
	RxPower            string `xml:"optical-info>rx-power"`
	TxPower            string `xml:"optical-info>tx-power"`
}

// ParseONUStates decodes the rpc-reply of an xpon-onu-states get
func ParseONUStates(reply []byte) ([]bbf.ONUState, error) {
	var r onuStateReply
	if err := xml.Unmarshal(reply, &r); err != nil {
		return nil, fmt.Errorf("invalid onu-state reply: %w", err)
	}

	states := make([]bbf.ONUState, 0, len(r.States))
	for _, x := range r.States {
		s := bbf.ONUState{
			SerialNumber:       bbf.NormalizeSerial(x.SerialNumber),
			ChannelTermination: strings.TrimSpace(x.ChannelTermination),
			Presence:           bbf.StripModule(strings.TrimSpace(x.Presence)),
			VANI:               strings.TrimSpace(x.VANI),
			EquipmentID:        strings.TrimSpace(x.EquipmentID),
			LastChange:         strings.TrimSpace(x.LastChange),
			RxPower:            strings.TrimSpace(x.RxPower),
			TxPower:            strings.TrimSpace(x.TxPower),
		}
		if id, err := strconv.Atoi(strings.TrimSpace(x.OnuID)); err == nil {
			s.OnuID = id
		}
		states = append(states, s)
	}
	return states, nil
}

// ChannelTermination names the channel termination of a board/PON.
func (d *Driver) ChannelTermination(board, pon int) string {
	return d.ct.Format(board, pon)
}

func (d *Driver) onuStates(ctx context.Context) ([]bbf.ONUState, error) {
	reply, err := d.Get(ctx, FilterONUStates)
	if err != nil {
		return nil, fmt.Errorf("failed to read ONU states: %w", err)
	}
	return ParseONUStates(reply)
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

// Register is not available over NETCONF
func (d *Driver) Register(ctx context.Context, req *types.RegisterRequest) (*types.CommandResponse, error) {
	return nil, fmt.Errorf("register over NETCONF: %w", types.ErrUnsupported)
}

// Reboot is not available over NETCONF
func (d *Driver) Reboot(ctx context.Context, req *types.RebootRequest) (*types.CommandResponse, error) {
	return nil, fmt.Errorf("reboot over NETCONF: %w", types.ErrUnsupported)
}

// Remove is not available over NETCONF
func (d *Driver) Remove(ctx context.Context, req *types.RemoveRequest) (*types.CommandResponse, error) {
	return nil, fmt.Errorf("remove over NETCONF: %w", types.ErrUnsupported)
}

var _ types.Directory = (*Driver)(nil)
