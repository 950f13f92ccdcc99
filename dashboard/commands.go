package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/nanoncore/onuwatch/logger"
	"github.com/nanoncore/onuwatch/model"
	"github.com/nanoncore/onuwatch/types"
)

// ErrRebootInFlight is returned when a reboot is requested while another one
// has not completed.
var ErrRebootInFlight = errors.New("a reboot is already in progress")

// Commands issues lifecycle commands and on-demand fetches against a directory.
// Its methods block and are meant to run off the rendering loop.
type Commands struct {
	dir     types.Directory
	timeout time.Duration
	log     zerolog.Logger

	rebooting atomic.Bool
}

// NewCommands creates a command issuer. timeout bounds each backend call; zero means none.
func NewCommands(dir types.Directory, timeout time.Duration, log logger.Logger) *Commands {
	if log == nil {
		log = logger.NewTestLogger()
	}
	return &Commands{
		dir:     dir,
		timeout: timeout,
		log:     log.WithComponent("commands"),
	}
}

func (c *Commands) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

// Snapshot fetches the devices for a ticket.
func (c *Commands) Snapshot(ctx context.Context, ticket FetchTicket) ([]types.Device, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	devices, err := c.dir.Snapshot(ctx, ticket.Board, ticket.PON)
	if err != nil {
		return nil, fmt.Errorf("snapshot board %d pon %d: %w", ticket.Board, ticket.PON, err)
	}
	return devices, nil
}

// Detail fetches the extended record of one ONU. Failures are logged and
// returned; the caller drops them.
func (c *Commands) Detail(ctx context.Context, ticket DetailTicket) (*types.DeviceDetail, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	detail, err := c.dir.Detail(ctx, ticket.Board, ticket.PON, ticket.OnuID)
	if err != nil {
		c.log.Warn().Err(err).
			Int("board", ticket.Board).
			Int("pon", ticket.PON).
			Int("onu_id", ticket.OnuID).
			Msg("Detail fetch failed")
		return nil, fmt.Errorf("detail onu %d: %w", ticket.OnuID, err)
	}
	return detail, nil
}

// Unactivated lists detected but unregistered ONUs.
func (c *Commands) Unactivated(ctx context.Context) ([]types.UnactivatedONU, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	onus, err := c.dir.Unactivated(ctx)
	if err != nil {
		c.log.Warn().Err(err).Msg("Unactivated ONU fetch failed")
		return nil, fmt.Errorf("unactivated onus: %w", err)
	}
	return onus, nil
}

// Reboot restarts one ONU. Only one reboot runs at a time; a concurrent call
// fails with ErrRebootInFlight without reaching the backend.
func (c *Commands) Reboot(ctx context.Context, board, pon, onuID int) (*types.CommandResponse, error) {
	if !c.rebooting.CompareAndSwap(false, true) {
		return nil, &types.CommandError{
			Code:    types.ErrCodeBusy,
			Message: "reboot rejected",
			Action:  "Wait for the running reboot to finish",
			OnuID:   onuID,
			Err:     ErrRebootInFlight,
		}
	}
	defer c.rebooting.Store(false)

	req := &types.RebootRequest{
		OltIndex: types.CommandOLTIndex(board, pon),
		Onu:      onuID,
		Board:    board,
		PON:      pon,
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	c.log.Info().Str("olt_index", req.OltIndex).Int("onu_id", onuID).Msg("Rebooting ONU")
	resp, err := c.dir.Reboot(ctx, req)
	return c.result(types.ErrCodeRebootFailed, "reboot", onuID, resp, err)
}

// RebootInFlight reports whether a reboot is running.
func (c *Commands) RebootInFlight() bool {
	return c.rebooting.Load()
}

// Register provisions an ONU into an empty slot.
func (c *Commands) Register(ctx context.Context, board, pon int, reg *model.Registration) (*types.CommandResponse, error) {
	if err := reg.Validate(); err != nil {
		onuID := 0
		if reg != nil {
			onuID = reg.OnuID
		}
		return nil, &types.CommandError{
			Code:    types.ErrCodeInvalidInput,
			Message: "registration rejected",
			Action:  "Correct the highlighted field and submit again",
			OnuID:   onuID,
			Err:     err,
		}
	}

	req := &types.RegisterRequest{
		OltIndex:     types.RegisterOLTIndex(board, pon),
		SerialNumber: reg.SerialNumber,
		Region:       reg.Region,
		Code:         reg.Code,
		Onu:          reg.OnuID,
		VlanID:       reg.VlanID,
		Board:        board,
		PON:          pon,
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	c.log.Info().
		Str("olt_index", req.OltIndex).
		Int("onu_id", req.Onu).
		Str("serial_number", req.SerialNumber).
		Msg("Registering ONU")
	resp, err := c.dir.Register(ctx, req)
	return c.result(types.ErrCodeRegisterFailed, "register", reg.OnuID, resp, err)
}

// Remove deletes an ONU from its slot.
func (c *Commands) Remove(ctx context.Context, board, pon, onuID int) (*types.CommandResponse, error) {
	req := &types.RemoveRequest{
		OltIndex: types.CommandOLTIndex(board, pon),
		Onu:      onuID,
		Board:    board,
		PON:      pon,
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	c.log.Info().Str("olt_index", req.OltIndex).Int("onu_id", onuID).Msg("Removing ONU")
	resp, err := c.dir.Remove(ctx, req)
	return c.result(types.ErrCodeRemoveFailed, "remove", onuID, resp, err)
}

// result normalizes a backend reply into success or a *types.CommandError.
func (c *Commands) result(code, op string, onuID int, resp *types.CommandResponse, err error) (*types.CommandResponse, error) {
	if err != nil {
		cmdErr, ok := types.AsCommandError(err)
		switch {
		case ok:
			if cmdErr.OnuID == 0 {
				cmdErr.OnuID = onuID
			}
		case errors.Is(err, types.ErrUnsupported):
			cmdErr = &types.CommandError{
				Code:    types.ErrCodeUnsupported,
				Message: op + " is not available on this backend",
				Action:  "Use the rest or cli backend for lifecycle commands",
				OnuID:   onuID,
				Err:     err,
			}
		default:
			cmdErr = &types.CommandError{
				Code:    types.ErrCodeTransport,
				Message: op + " request failed",
				Action:  "Check connectivity to the device directory",
				OnuID:   onuID,
				Err:     err,
			}
		}
		c.log.Error().Err(cmdErr).Int("onu_id", onuID).Msgf("ONU %s failed", op)
		return nil, cmdErr
	}

	if !resp.OK() {
		cmdErr := &types.CommandError{
			Code:    code,
			Message: fmt.Sprintf("%s rejected by backend", op),
			OnuID:   onuID,
		}
		if resp != nil {
			cmdErr.Message = fmt.Sprintf("%s rejected by backend (code %d)", op, resp.Code)
			cmdErr.Raw = resp.Status
		}
		c.log.Error().Err(cmdErr).Int("onu_id", onuID).Msgf("ONU %s failed", op)
		return resp, cmdErr
	}

	c.log.Info().Int("onu_id", onuID).Str("status", resp.Status).Msgf("ONU %s succeeded", op)
	return resp, nil
}
