// Package tui renders the ONU slot dashboard in the terminal with bubbletea.
// All view state lives in a dashboard.ViewModel owned by the Update loop;
// directory calls run as tea commands and report back as messages.
package tui

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/nanoncore/onuwatch/dashboard"
	"github.com/nanoncore/onuwatch/logger"
	"github.com/nanoncore/onuwatch/slots"
	"github.com/nanoncore/onuwatch/types"
)

type mode int

const (
	modeTable mode = iota
	modeSearch
	modeDetail
	modeRegister
	modeConfirmRemove
	modeUnactivated
)

const (
	defaultPageSize = 20
	minPageSize     = 3
	chromeLines     = 9
)

// Config tunes the dashboard program.
type Config struct {
	// Title is shown in the header (typically the OLT name)
	Title string

	// PollInterval is the auto-refresh period; zero disables polling
	PollInterval time.Duration
}

// Model is the bubbletea model of the dashboard.
type Model struct {
	vm     *dashboard.ViewModel
	cmds   *dashboard.Commands
	cfg    Config
	log    zerolog.Logger
	styles styles

	mode          mode
	cursor        int
	offset        int
	width, height int

	search  textinput.Model
	spinner spinner.Model

	initial dashboard.FetchTicket

	detailTicket dashboard.DetailTicket
	detailFailed bool

	form     *registerForm
	removeID int

	unactivated        []types.UnactivatedONU
	unactivatedLoading bool
	unactivatedFailed  bool
	unactivatedCursor  int

	rebootingID int

	// notice is a failed command waiting to be acknowledged
	notice error
	status string
}

// New creates the dashboard model and starts the first snapshot fetch for
// the view's current selection.
func New(vm *dashboard.ViewModel, cmds *dashboard.Commands, cfg Config, log logger.Logger) *Model {
	if log == nil {
		log = logger.NewTestLogger()
	}

	si := textinput.New()
	si.Placeholder = "name or serial"
	si.Prompt = "/ "
	si.Width = 30
	si.PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(draculaCyan))
	si.TextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(draculaForeground))
	si.PlaceholderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(draculaComment))

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(draculaPink))

	return &Model{
		vm:      vm,
		cmds:    cmds,
		cfg:     cfg,
		log:     log.WithComponent("tui"),
		styles:  newStyles(),
		search:  si,
		spinner: sp,
		initial: vm.Refresh(),
	}
}

// Init starts the first fetch, the spinner and the poll timer.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		fetchSnapshot(m.cmds, m.initial),
		poll(m.cfg.PollInterval),
	)
}

// Update applies one message to the model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.clampCursor()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case pollMsg:
		return m, m.handlePoll()

	case snapshotMsg:
		if m.vm.ApplySnapshot(msg.ticket, msg.devices, msg.err) {
			m.clampCursor()
		}
		return m, nil

	case detailMsg:
		m.handleDetail(msg)
		return m, nil

	case unactivatedMsg:
		m.unactivatedLoading = false
		m.unactivatedFailed = msg.err != nil
		m.unactivated = msg.onus
		m.unactivatedCursor = 0
		return m, nil

	case commandMsg:
		return m, m.handleCommand(msg)

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	return m, m.updateInputs(msg)
}

// updateInputs forwards non-key messages (cursor blink) to the focused input.
func (m *Model) updateInputs(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch m.mode {
	case modeSearch:
		m.search, cmd = m.search.Update(msg)
	case modeRegister:
		if m.form != nil {
			cmd = m.form.update(msg)
		}
	}
	return cmd
}

func (m *Model) handlePoll() tea.Cmd {
	next := poll(m.cfg.PollInterval)
	if m.vm.Loading() {
		return next
	}
	return tea.Batch(m.refresh(), next)
}

func (m *Model) refresh() tea.Cmd {
	return fetchSnapshot(m.cmds, m.vm.Refresh())
}

func (m *Model) handleDetail(msg detailMsg) {
	if m.vm.ShowDetail(msg.ticket, msg.detail, msg.err) {
		m.detailFailed = false
		return
	}
	if msg.ticket == m.detailTicket && m.mode == modeDetail {
		m.detailFailed = true
	}
}

func (m *Model) handleCommand(msg commandMsg) tea.Cmd {
	if msg.op == opReboot && !errors.Is(msg.err, dashboard.ErrRebootInFlight) && m.rebootingID == msg.onuID {
		m.rebootingID = 0
	}

	if msg.err != nil {
		m.log.Debug().Err(msg.err).Str("op", msg.op).Int("onu_id", msg.onuID).Msg("Showing command failure")
		m.notice = msg.err
		m.status = ""
		if msg.op == opRegister && m.form != nil {
			m.form.submitting = false
		}
		return nil
	}

	switch msg.op {
	case opRegister:
		m.form = nil
		if m.mode == modeRegister {
			m.mode = modeTable
		}
		m.status = fmt.Sprintf("ONU %d registered", msg.onuID)
	case opReboot:
		m.status = fmt.Sprintf("ONU %d reboot accepted", msg.onuID)
	case opRemove:
		m.status = fmt.Sprintf("ONU %d removed", msg.onuID)
	}
	return m.refresh()
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}

	// A failed command blocks every other key until acknowledged.
	if m.notice != nil {
		switch msg.String() {
		case "enter", "esc", " ":
			m.notice = nil
		}
		return m, nil
	}

	switch m.mode {
	case modeSearch:
		return m, m.handleSearchKey(msg)
	case modeRegister:
		return m, m.handleFormKey(msg)
	case modeConfirmRemove:
		return m, m.handleConfirmKey(msg)
	case modeDetail:
		return m, m.handleDetailKey(msg)
	case modeUnactivated:
		return m, m.handleUnactivatedKey(msg)
	default:
		return m.handleTableKey(msg)
	}
}

func (m *Model) handleTableKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "up", "k":
		m.moveCursor(-1)
	case "down", "j":
		m.moveCursor(1)
	case "pgup":
		m.moveCursor(-m.pageSize())
	case "pgdown":
		m.moveCursor(m.pageSize())
	case "home", "g":
		m.moveCursor(-len(m.vm.Rows()))
	case "end", "G":
		m.moveCursor(len(m.vm.Rows()))
	case "/":
		m.mode = modeSearch
		return m, m.search.Focus()
	case "esc":
		if m.search.Value() != "" {
			m.search.SetValue("")
			m.vm.SetSearch("")
			m.clampCursor()
		}
	case "s":
		m.cycleStatusFilter()
	case "b":
		return m, m.cycleBoard(1)
	case "B":
		return m, m.cycleBoard(-1)
	case "p":
		return m, m.cyclePON(1)
	case "P":
		return m, m.cyclePON(-1)
	case "r":
		m.status = ""
		return m, m.refresh()
	case "enter":
		return m, m.openSelected()
	case "R":
		if row, ok := m.selectedRow(); ok {
			return m, m.reboot(row)
		}
	case "x":
		if row, ok := m.selectedRow(); ok {
			m.confirmRemove(row)
		}
	case "u":
		return m, m.openUnactivated()
	}
	return m, nil
}

func (m *Model) handleSearchKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "enter":
		m.search.Blur()
		m.mode = modeTable
		return nil
	case "esc":
		m.search.SetValue("")
		m.search.Blur()
		m.vm.SetSearch("")
		m.mode = modeTable
		m.clampCursor()
		return nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.vm.SetSearch(m.search.Value())
	m.cursor, m.offset = 0, 0
	return cmd
}

func (m *Model) handleFormKey(msg tea.KeyMsg) tea.Cmd {
	f := m.form
	if f == nil {
		m.mode = modeTable
		return nil
	}

	switch msg.String() {
	case "esc":
		m.form = nil
		m.mode = modeTable
		return nil
	case "tab", "down":
		return f.move(1)
	case "shift+tab", "up":
		return f.move(-1)
	case "ctrl+s":
		return m.submitRegistration()
	case "enter":
		if !f.last() {
			return f.move(1)
		}
		return m.submitRegistration()
	}
	return f.update(msg)
}

func (m *Model) submitRegistration() tea.Cmd {
	f := m.form
	if f.submitting {
		return nil
	}
	reg, err := f.registration()
	if err != nil {
		f.err = err
		return nil
	}
	f.submitting = true
	state := m.vm.State()
	m.status = fmt.Sprintf("Registering ONU %d", reg.OnuID)
	return registerONU(m.cmds, state.Board, state.PON, reg)
}

func (m *Model) handleConfirmKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "y", "Y", "enter":
		onuID := m.removeID
		m.removeID = 0
		m.mode = modeTable
		state := m.vm.State()
		m.status = fmt.Sprintf("Removing ONU %d", onuID)
		return removeONU(m.cmds, state.Board, state.PON, onuID)
	case "n", "N", "esc", "q":
		m.removeID = 0
		m.mode = modeTable
	}
	return nil
}

func (m *Model) handleDetailKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc", "enter", "q":
		m.closeDetail()
	case "R":
		if row, ok := m.vm.Row(m.detailTicket.OnuID); ok {
			return m.reboot(row)
		}
	case "x":
		if row, ok := m.vm.Row(m.detailTicket.OnuID); ok {
			m.closeDetail()
			m.confirmRemove(row)
		}
	}
	return nil
}

func (m *Model) closeDetail() {
	m.vm.DismissDetail()
	m.detailFailed = false
	m.mode = modeTable
}

func (m *Model) handleUnactivatedKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc", "q", "u":
		m.mode = modeTable
	case "up", "k":
		if m.unactivatedCursor > 0 {
			m.unactivatedCursor--
		}
	case "down", "j":
		if m.unactivatedCursor < len(m.unactivated)-1 {
			m.unactivatedCursor++
		}
	case "r":
		return m.openUnactivated()
	case "enter":
		if m.unactivatedCursor < len(m.unactivated) {
			return m.registerDetected(m.unactivated[m.unactivatedCursor])
		}
	}
	return nil
}

// registerDetected opens the registration form for a detected ONU on the
// selected empty slot, or the first empty slot of the PON.
func (m *Model) registerDetected(onu types.UnactivatedONU) tea.Cmd {
	slotID := 0
	if row, ok := m.selectedRow(); ok && !row.Occupied {
		slotID = row.SlotID
	} else {
		for _, row := range m.vm.AllRows() {
			if !row.Occupied {
				slotID = row.SlotID
				break
			}
		}
	}
	if slotID == 0 {
		m.status = "No empty slot on this PON"
		m.mode = modeTable
		return nil
	}
	return m.startRegistration(slotID, onu.SerialNumber)
}

func (m *Model) openSelected() tea.Cmd {
	row, ok := m.selectedRow()
	if !ok {
		return nil
	}
	if !row.Occupied {
		return m.startRegistration(row.SlotID, "")
	}

	m.detailTicket = m.vm.RequestDetail(row.SlotID)
	m.detailFailed = false
	m.mode = modeDetail
	return fetchDetail(m.cmds, m.detailTicket)
}

func (m *Model) startRegistration(slotID int, serial string) tea.Cmd {
	state := m.vm.State()
	m.form = newRegisterForm(slotID, types.RegisterOLTIndex(state.Board, state.PON), serial)
	m.mode = modeRegister
	return textinput.Blink
}

func (m *Model) reboot(row slots.Row) tea.Cmd {
	if !row.Occupied {
		m.status = fmt.Sprintf("Slot %d is empty", row.SlotID)
		return nil
	}
	if m.rebootingID == 0 {
		m.rebootingID = row.SlotID
	}
	state := m.vm.State()
	m.status = fmt.Sprintf("Rebooting ONU %d", row.SlotID)
	return rebootONU(m.cmds, state.Board, state.PON, row.SlotID)
}

func (m *Model) confirmRemove(row slots.Row) {
	if !row.Occupied {
		m.status = fmt.Sprintf("Slot %d is empty", row.SlotID)
		return
	}
	m.removeID = row.SlotID
	m.mode = modeConfirmRemove
}

func (m *Model) openUnactivated() tea.Cmd {
	m.mode = modeUnactivated
	m.unactivatedLoading = true
	m.unactivatedFailed = false
	return fetchUnactivated(m.cmds)
}

func (m *Model) cycleStatusFilter() {
	filters := slots.StatusFilters()
	current := m.vm.State().StatusFilter
	next := filters[0]
	for i, f := range filters {
		if f == current {
			next = filters[(i+1)%len(filters)]
			break
		}
	}
	if err := m.vm.SetStatusFilter(next); err != nil {
		m.log.Warn().Err(err).Msg("Status filter rejected")
		return
	}
	m.cursor, m.offset = 0, 0
}

func (m *Model) cycleBoard(delta int) tea.Cmd {
	n := m.vm.Options().BoardCount
	next := wrap(m.vm.State().Board, delta, n)
	ticket, err := m.vm.SetBoard(next)
	if err != nil {
		m.status = err.Error()
		return nil
	}
	m.log.Debug().Int("board", ticket.Board).Int("pon", ticket.PON).Msg("Board selected")
	m.cursor, m.offset = 0, 0
	return fetchSnapshot(m.cmds, ticket)
}

func (m *Model) cyclePON(delta int) tea.Cmd {
	n := m.vm.Options().PONCount
	next := wrap(m.vm.State().PON, delta, n)
	ticket, err := m.vm.SetPON(next)
	if err != nil {
		m.status = err.Error()
		return nil
	}
	m.log.Debug().Int("board", ticket.Board).Int("pon", ticket.PON).Msg("PON selected")
	m.cursor, m.offset = 0, 0
	return fetchSnapshot(m.cmds, ticket)
}

// wrap steps a 1-based value by delta within 1..n.
func wrap(value, delta, n int) int {
	return ((value-1+delta)%n+n)%n + 1
}

func (m *Model) selectedRow() (slots.Row, bool) {
	rows := m.vm.Rows()
	if m.cursor < 0 || m.cursor >= len(rows) {
		return slots.Row{}, false
	}
	return rows[m.cursor], true
}

func (m *Model) pageSize() int {
	if m.height == 0 {
		return defaultPageSize
	}
	return max(m.height-chromeLines, minPageSize)
}

func (m *Model) moveCursor(delta int) {
	m.cursor += delta
	m.clampCursor()
}

// clampCursor keeps the cursor on a visible row and scrolls to it.
func (m *Model) clampCursor() {
	n := len(m.vm.Rows())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}

	page := m.pageSize()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+page {
		m.offset = m.cursor - page + 1
	}
	if m.offset > max(n-page, 0) {
		m.offset = max(n-page, 0)
	}
}
