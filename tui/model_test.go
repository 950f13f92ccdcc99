package tui

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/nanoncore/onuwatch/dashboard"
	"github.com/nanoncore/onuwatch/model"
	"github.com/nanoncore/onuwatch/slots"
	"github.com/nanoncore/onuwatch/types"
)

func fixtureDevices() []types.Device {
	return []types.Device{
		{OnuID: 1, Name: "CUST-0001", OnuType: "ZTE-F660", SerialNumber: "ZTEGC0000001", RxPower: "-18.50", Status: slots.StatusOnline, Board: 1, PON: 1},
		{OnuID: 3, Name: "CUST-0003", OnuType: "ZTE-F609", SerialNumber: "ZTEGC0000003", RxPower: "-27.10", Status: slots.StatusLOS, Board: 1, PON: 1},
		{OnuID: 5, Name: "CUST-0005", OnuType: "ZTE-F660", SerialNumber: "ZTEGC0000005", RxPower: "-22.00", Status: slots.StatusOnline, Board: 1, PON: 1},
	}
}

func newTestModel(t *testing.T) (*Model, *types.MockDirectory) {
	t.Helper()

	ctrl := gomock.NewController(t)
	dir := types.NewMockDirectory(ctrl)

	vm, err := dashboard.NewViewModel(dashboard.DefaultOptions(), nil)
	require.NoError(t, err)

	cmds := dashboard.NewCommands(dir, time.Second, nil)
	return New(vm, cmds, Config{Title: "olt-test", PollInterval: time.Minute}, nil), dir
}

// load applies devices as the answer to the initial fetch.
func load(t *testing.T, m *Model, devices []types.Device) {
	t.Helper()
	m.Update(snapshotMsg{ticket: m.initial, devices: devices})
	require.False(t, m.vm.Loading())
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m *Model, keys ...string) tea.Cmd {
	var cmd tea.Cmd
	for _, k := range keys {
		_, cmd = m.Update(key(k))
	}
	return cmd
}

func TestInitialFetch(t *testing.T) {
	m, dir := newTestModel(t)
	require.True(t, m.vm.Loading())

	dir.EXPECT().Snapshot(gomock.Any(), 1, 1).Return(fixtureDevices(), nil)

	msg := fetchSnapshot(m.cmds, m.initial)()
	m.Update(msg)

	assert.False(t, m.vm.Loading())
	assert.Len(t, m.vm.Rows(), slots.Capacity)
	assert.Equal(t, dashboard.Counts{Occupied: 3, Online: 2, Weak: 1, Empty: 125}, m.vm.Counts())
}

func TestSnapshotFailureShowsEmptyPON(t *testing.T) {
	m, _ := newTestModel(t)

	m.Update(snapshotMsg{ticket: m.initial, err: errors.New("connection refused")})

	assert.False(t, m.vm.Loading())
	assert.Nil(t, m.notice, "fetch failures never block the operator")
	assert.Equal(t, slots.Capacity, m.vm.Counts().Empty)
}

func TestStaleSnapshotIsDropped(t *testing.T) {
	m, dir := newTestModel(t)
	stale := m.initial

	cmd := press(m, "b")
	require.NotNil(t, cmd)
	assert.Equal(t, 2, m.vm.State().Board)

	m.Update(snapshotMsg{ticket: stale, devices: fixtureDevices()})
	assert.True(t, m.vm.Loading(), "an old fetch must not finish the new one")
	assert.Zero(t, m.vm.Counts().Occupied)

	dir.EXPECT().Snapshot(gomock.Any(), 2, 1).Return(nil, nil)
	m.Update(cmd())
	assert.False(t, m.vm.Loading())
}

func TestBoardAndPONCycling(t *testing.T) {
	m, _ := newTestModel(t)
	load(t, m, nil)

	press(m, "B")
	assert.Equal(t, 4, m.vm.State().Board, "board wraps to the last one")

	press(m, "b")
	assert.Equal(t, 1, m.vm.State().Board)

	press(m, "p", "p")
	assert.Equal(t, 3, m.vm.State().PON)

	press(m, "P", "P", "P")
	assert.Equal(t, 20, m.vm.State().PON)
	assert.True(t, m.vm.Loading())
}

func TestWrap(t *testing.T) {
	tests := []struct {
		value, delta, n, want int
	}{
		{1, 1, 4, 2},
		{4, 1, 4, 1},
		{1, -1, 4, 4},
		{3, -1, 20, 2},
		{1, 1, 1, 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, wrap(tt.value, tt.delta, tt.n), "wrap(%d, %d, %d)", tt.value, tt.delta, tt.n)
	}
}

func TestStatusFilterCycle(t *testing.T) {
	m, _ := newTestModel(t)
	load(t, m, fixtureDevices())

	press(m, "s")
	assert.Equal(t, slots.StatusOnline, m.vm.State().StatusFilter)
	rows := m.vm.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, 1, rows[0].SlotID)
	assert.Equal(t, 5, rows[1].SlotID)

	filters := slots.StatusFilters()
	for i := 1; i < len(filters); i++ {
		press(m, "s")
	}
	assert.Equal(t, slots.FilterAll, m.vm.State().StatusFilter, "cycling returns to All")
}

func TestSearch(t *testing.T) {
	m, _ := newTestModel(t)
	load(t, m, fixtureDevices())

	press(m, "/")
	require.Equal(t, modeSearch, m.mode)

	press(m, "c0000003")
	assert.Equal(t, "c0000003", m.vm.State().Search)
	rows := m.vm.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, 3, rows[0].SlotID)

	press(m, "q")
	assert.Equal(t, modeSearch, m.mode, "q is text while searching")

	press(m, "enter")
	assert.Equal(t, modeTable, m.mode)
	assert.Equal(t, "c0000003q", m.vm.State().Search)

	press(m, "esc")
	assert.Empty(t, m.vm.State().Search)
	assert.Len(t, m.vm.Rows(), slots.Capacity)
}

func TestDetail(t *testing.T) {
	m, dir := newTestModel(t)
	load(t, m, fixtureDevices())

	cmd := press(m, "enter")
	require.NotNil(t, cmd)
	require.Equal(t, modeDetail, m.mode)
	assert.Contains(t, m.View(), "Loading detail for ONU 1")

	detail := &types.DeviceDetail{
		Device:      fixtureDevices()[0],
		TxPower:     "2.31",
		Description: "Blok C",
		Uptime:      "3 days",
	}
	dir.EXPECT().Detail(gomock.Any(), 1, 1, 1).Return(detail, nil)
	m.Update(cmd())

	require.NotNil(t, m.vm.Detail())
	view := m.View()
	assert.Contains(t, view, "ZTEGC0000001")
	assert.Contains(t, view, "gpon-onu_1/1/1:1")
	assert.Contains(t, view, "Blok C")

	press(m, "esc")
	assert.Equal(t, modeTable, m.mode)
	assert.Nil(t, m.vm.Detail())
}

func TestDetailFailure(t *testing.T) {
	m, dir := newTestModel(t)
	load(t, m, fixtureDevices())

	cmd := press(m, "enter")
	dir.EXPECT().Detail(gomock.Any(), 1, 1, 1).Return(nil, errors.New("timeout"))
	m.Update(cmd())

	assert.Nil(t, m.vm.Detail())
	assert.Nil(t, m.notice)
	assert.Contains(t, m.View(), "Detail unavailable for ONU 1")
}

func TestDetailResponseAfterCloseIsDropped(t *testing.T) {
	m, dir := newTestModel(t)
	load(t, m, fixtureDevices())

	cmd := press(m, "enter")
	press(m, "esc")

	dir.EXPECT().Detail(gomock.Any(), 1, 1, 1).Return(&types.DeviceDetail{Device: fixtureDevices()[0]}, nil)
	m.Update(cmd())

	assert.Nil(t, m.vm.Detail())
	assert.Equal(t, modeTable, m.mode)
}

func TestRegister(t *testing.T) {
	m, dir := newTestModel(t)
	load(t, m, fixtureDevices())

	press(m, "down")
	cmd := press(m, "enter")
	require.NotNil(t, cmd)
	require.Equal(t, modeRegister, m.mode)
	require.NotNil(t, m.form)
	assert.Equal(t, 2, m.form.onuID)
	assert.Equal(t, "gpon-olt_1/1/1", m.form.oltIndex)

	press(m, "100", "tab", "ZTEGC8B1D2E3", "tab", "CUST-0002", "tab", "Blok A")
	cmd = press(m, "enter")
	require.NotNil(t, cmd)
	assert.True(t, m.form.submitting)

	dir.EXPECT().Register(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req *types.RegisterRequest) (*types.CommandResponse, error) {
			assert.Equal(t, "gpon-olt_1/1/1", req.OltIndex)
			assert.Equal(t, 2, req.Onu)
			assert.Equal(t, "100", req.VlanID)
			assert.Equal(t, "ZTEGC8B1D2E3", req.SerialNumber)
			assert.Equal(t, "CUST-0002", req.Code)
			assert.Equal(t, "Blok A", req.Region)
			return &types.CommandResponse{Code: types.CodeOK, Status: "success"}, nil
		})

	_, next := m.Update(cmd())
	assert.Nil(t, m.form)
	assert.Equal(t, modeTable, m.mode)
	assert.Equal(t, "ONU 2 registered", m.status)
	assert.True(t, m.vm.Loading(), "a successful command refreshes the PON")
	assert.NotNil(t, next)
}

func TestRegisterValidationStaysLocal(t *testing.T) {
	m, _ := newTestModel(t)
	load(t, m, fixtureDevices())

	press(m, "down", "enter")
	cmd := press(m, "ctrl+s")

	assert.Nil(t, cmd, "an invalid form never reaches the backend")
	require.NotNil(t, m.form)
	assert.ErrorIs(t, m.form.err, model.ErrVLANRequired)
	assert.Contains(t, m.View(), model.ErrVLANRequired.Error())

	press(m, "esc")
	assert.Nil(t, m.form)
	assert.Equal(t, modeTable, m.mode)
}

func TestRegisterFailureBlocksUntilDismissed(t *testing.T) {
	m, dir := newTestModel(t)
	load(t, m, fixtureDevices())

	press(m, "down", "enter")
	press(m, "200", "tab", "ZTEGC8B1D2E3", "tab", "CUST-0002", "tab", "Blok A")
	cmd := press(m, "enter")

	dir.EXPECT().Register(gomock.Any(), gomock.Any()).
		Return(&types.CommandResponse{Code: 500, Status: "onu already exists"}, nil)
	m.Update(cmd())

	require.NotNil(t, m.notice)
	cmdErr, ok := types.AsCommandError(m.notice)
	require.True(t, ok)
	assert.Equal(t, types.ErrCodeRegisterFailed, cmdErr.Code)
	assert.Contains(t, m.View(), types.ErrCodeRegisterFailed)

	press(m, "q", "x", "tab")
	assert.NotNil(t, m.notice, "only dismiss keys clear the notice")

	press(m, "enter")
	assert.Nil(t, m.notice)
	assert.Equal(t, modeRegister, m.mode, "the form stays open for another attempt")
	assert.False(t, m.form.submitting)
}

func TestRebootGuard(t *testing.T) {
	m, dir := newTestModel(t)
	load(t, m, fixtureDevices())

	release := make(chan struct{})
	dir.EXPECT().Reboot(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req *types.RebootRequest) (*types.CommandResponse, error) {
			<-release
			assert.Equal(t, "gpon-olt_1/1/1", req.OltIndex)
			assert.Equal(t, 1, req.Onu)
			return &types.CommandResponse{Code: types.CodeOK, Status: "success"}, nil
		}).Times(1)

	first := press(m, "R")
	require.NotNil(t, first)
	assert.Equal(t, 1, m.rebootingID)
	assert.Contains(t, m.View(), "rebooting")

	done := make(chan tea.Msg, 1)
	go func() { done <- first() }()
	require.Eventually(t, m.cmds.RebootInFlight, time.Second, 5*time.Millisecond)

	press(m, "down", "down")
	second := press(m, "R")
	m.Update(second())

	cmdErr, ok := types.AsCommandError(m.notice)
	require.True(t, ok)
	assert.Equal(t, types.ErrCodeBusy, cmdErr.Code)
	assert.ErrorIs(t, m.notice, dashboard.ErrRebootInFlight)
	assert.Equal(t, 1, m.rebootingID, "a rejected reboot leaves the running one marked")

	press(m, "enter")
	close(release)
	m.Update(<-done)

	assert.Nil(t, m.notice)
	assert.Zero(t, m.rebootingID)
	assert.Equal(t, "ONU 1 reboot accepted", m.status)
}

func TestRebootEmptySlot(t *testing.T) {
	m, _ := newTestModel(t)
	load(t, m, fixtureDevices())

	cmd := press(m, "down", "R")
	assert.Nil(t, cmd)
	assert.Equal(t, "Slot 2 is empty", m.status)
}

func TestRemoveConfirmation(t *testing.T) {
	m, dir := newTestModel(t)
	load(t, m, fixtureDevices())

	press(m, "x")
	require.Equal(t, modeConfirmRemove, m.mode)
	assert.Contains(t, m.View(), "Remove ONU 1")

	cmd := press(m, "n")
	assert.Nil(t, cmd)
	assert.Equal(t, modeTable, m.mode)

	press(m, "x")
	cmd = press(m, "y")
	require.NotNil(t, cmd)

	dir.EXPECT().Remove(gomock.Any(), &types.RemoveRequest{
		OltIndex: "gpon-olt_1/1/1",
		Onu:      1,
		Board:    1,
		PON:      1,
	}).Return(&types.CommandResponse{Code: types.CodeOK, Status: "success"}, nil)

	m.Update(cmd())
	assert.Equal(t, "ONU 1 removed", m.status)
	assert.True(t, m.vm.Loading())
}

func TestRemoveTransportFailure(t *testing.T) {
	m, dir := newTestModel(t)
	load(t, m, fixtureDevices())

	cmd := press(m, "x", "y")
	dir.EXPECT().Remove(gomock.Any(), gomock.Any()).Return(nil, errors.New("connection reset"))
	_, next := m.Update(cmd())

	assert.Nil(t, next, "failed commands are not retried")
	cmdErr, ok := types.AsCommandError(m.notice)
	require.True(t, ok)
	assert.Equal(t, types.ErrCodeTransport, cmdErr.Code)
	assert.False(t, m.vm.Loading())
}

func TestUnactivatedPrefillsRegistration(t *testing.T) {
	m, dir := newTestModel(t)
	load(t, m, fixtureDevices())

	cmd := press(m, "u")
	require.Equal(t, modeUnactivated, m.mode)
	assert.Contains(t, m.View(), "Loading")

	dir.EXPECT().Unactivated(gomock.Any()).Return([]types.UnactivatedONU{
		{OltIndex: "gpon-olt_1/1/1", Model: "F660", SerialNumber: "ZTEGAABBCCDD", Status: "unknown"},
		{OltIndex: "gpon-olt_1/1/2", Model: "F609", SerialNumber: "ZTEG11223344", Status: "unknown"},
	}, nil)
	m.Update(cmd())
	assert.Contains(t, m.View(), "ZTEG11223344")

	press(m, "down", "enter")
	require.Equal(t, modeRegister, m.mode)
	assert.Equal(t, 2, m.form.onuID, "first empty slot")
	assert.Equal(t, "ZTEG11223344", m.form.inputs[1].Value())
}

func TestUnactivatedFailure(t *testing.T) {
	m, dir := newTestModel(t)
	load(t, m, nil)

	cmd := press(m, "u")
	dir.EXPECT().Unactivated(gomock.Any()).Return(nil, errors.New("unsupported"))
	m.Update(cmd())

	assert.Nil(t, m.notice)
	assert.Contains(t, m.View(), "Could not load unactivated ONUs")

	press(m, "esc")
	assert.Equal(t, modeTable, m.mode)
}

func TestPoll(t *testing.T) {
	m, _ := newTestModel(t)

	_, cmd := m.Update(pollMsg(time.Now()))
	assert.NotNil(t, cmd, "the poll timer is rearmed")
	assert.True(t, m.vm.ApplySnapshot(m.initial, nil, nil), "a poll does not supersede a fetch in flight")

	m.Update(pollMsg(time.Now()))
	assert.True(t, m.vm.Loading())
	assert.False(t, m.vm.ApplySnapshot(m.initial, nil, nil))
}

func TestScrolling(t *testing.T) {
	m, _ := newTestModel(t)
	load(t, m, fixtureDevices())

	m.Update(tea.WindowSizeMsg{Width: 120, Height: 20})
	page := m.pageSize()
	assert.Equal(t, 20-chromeLines, page)

	press(m, "G")
	assert.Equal(t, slots.Capacity-1, m.cursor)
	assert.Equal(t, slots.Capacity-page, m.offset)

	press(m, "g")
	assert.Zero(t, m.cursor)
	assert.Zero(t, m.offset)
}

func TestView(t *testing.T) {
	m, _ := newTestModel(t)
	load(t, m, fixtureDevices())

	view := m.View()
	assert.Contains(t, view, "olt-test")
	assert.Contains(t, view, "Board 1/4")
	assert.Contains(t, view, "PON 1/20")
	assert.Contains(t, view, "gpon-olt_1/1/1")
	assert.Contains(t, view, "CUST-0003")
	assert.Contains(t, view, slots.StatusEmpty)
	assert.Contains(t, view, "-27.10")
}

func TestQuit(t *testing.T) {
	m, _ := newTestModel(t)

	cmd := press(m, "q")
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())

	press(m, "/")
	cmd = press(m, "ctrl+c")
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestCell(t *testing.T) {
	assert.Equal(t, "abc  ", cell("abc", 5))
	assert.Equal(t, "abcd…", cell("abcdefgh", 5))
	assert.Equal(t, "a", truncate("abc", 1))
	assert.Equal(t, placeholder, orPlaceholder("  "))
}
