package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nanoncore/onuwatch/dashboard"
	"github.com/nanoncore/onuwatch/model"
	"github.com/nanoncore/onuwatch/types"
)

// Command operations reported back in commandMsg.
const (
	opRegister = "register"
	opReboot   = "reboot"
	opRemove   = "remove"
)

type snapshotMsg struct {
	ticket  dashboard.FetchTicket
	devices []types.Device
	err     error
}

type detailMsg struct {
	ticket dashboard.DetailTicket
	detail *types.DeviceDetail
	err    error
}

type unactivatedMsg struct {
	onus []types.UnactivatedONU
	err  error
}

type commandMsg struct {
	op    string
	onuID int
	resp  *types.CommandResponse
	err   error
}

type pollMsg time.Time

// Boundary calls run on tea's command goroutines. They are never cancelled
// once issued; the Commands timeout bounds them.

func fetchSnapshot(cmds *dashboard.Commands, ticket dashboard.FetchTicket) tea.Cmd {
	return func() tea.Msg {
		devices, err := cmds.Snapshot(context.Background(), ticket)
		return snapshotMsg{ticket: ticket, devices: devices, err: err}
	}
}

func fetchDetail(cmds *dashboard.Commands, ticket dashboard.DetailTicket) tea.Cmd {
	return func() tea.Msg {
		detail, err := cmds.Detail(context.Background(), ticket)
		return detailMsg{ticket: ticket, detail: detail, err: err}
	}
}

func fetchUnactivated(cmds *dashboard.Commands) tea.Cmd {
	return func() tea.Msg {
		onus, err := cmds.Unactivated(context.Background())
		return unactivatedMsg{onus: onus, err: err}
	}
}

func rebootONU(cmds *dashboard.Commands, board, pon, onuID int) tea.Cmd {
	return func() tea.Msg {
		resp, err := cmds.Reboot(context.Background(), board, pon, onuID)
		return commandMsg{op: opReboot, onuID: onuID, resp: resp, err: err}
	}
}

func removeONU(cmds *dashboard.Commands, board, pon, onuID int) tea.Cmd {
	return func() tea.Msg {
		resp, err := cmds.Remove(context.Background(), board, pon, onuID)
		return commandMsg{op: opRemove, onuID: onuID, resp: resp, err: err}
	}
}

func registerONU(cmds *dashboard.Commands, board, pon int, reg *model.Registration) tea.Cmd {
	return func() tea.Msg {
		resp, err := cmds.Register(context.Background(), board, pon, reg)
		return commandMsg{op: opRegister, onuID: reg.OnuID, resp: resp, err: err}
	}
}

func poll(interval time.Duration) tea.Cmd {
	if interval <= 0 {
		return nil
	}
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return pollMsg(t)
	})
}
