package tui

import (
	"fmt"
	"strings"

	"github.com/nanoncore/onuwatch/model"
	"github.com/nanoncore/onuwatch/slots"
	"github.com/nanoncore/onuwatch/types"
)

// Column widths of the slot table.
const (
	colID     = 4
	colName   = 20
	colType   = 12
	colSerial = 14
	colRx     = 9
	colStatus = 16
)

const placeholder = "-"

// View renders the dashboard.
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")

	switch {
	case m.notice != nil:
		b.WriteString(m.renderNotice())
	case m.mode == modeDetail:
		b.WriteString(m.renderDetail())
	case m.mode == modeRegister:
		b.WriteString(m.renderForm())
	case m.mode == modeConfirmRemove:
		b.WriteString(m.renderConfirm())
	case m.mode == modeUnactivated:
		b.WriteString(m.renderUnactivated())
	default:
		b.WriteString(m.renderTable())
	}

	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m *Model) renderHeader() string {
	state := m.vm.State()
	counts := m.vm.Counts()

	title := "onuwatch"
	if m.cfg.Title != "" {
		title += "  " + m.cfg.Title
	}
	line1 := m.styles.title.Render(title)
	if m.vm.Loading() {
		line1 += "  " + m.spinner.View() + m.styles.help.Render(" loading")
	}

	line2 := fmt.Sprintf("Board %d/%d  PON %d/%d  %s",
		state.Board, m.vm.Options().BoardCount,
		state.PON, m.vm.Options().PONCount,
		m.styles.help.Render(types.RegisterOLTIndex(state.Board, state.PON)))

	line3 := fmt.Sprintf("%s %d/%d   %s %d   %s %d   %s %d",
		m.styles.header.Render("occupied"), counts.Occupied, m.vm.Options().Capacity,
		m.styles.success.Render("online"), counts.Online,
		m.styles.error.Render("weak"), counts.Weak,
		m.styles.help.Render("empty"), counts.Empty)

	filter := fmt.Sprintf("Status: %s", m.styles.hint.Render(state.StatusFilter))
	if m.mode == modeSearch {
		filter += "   " + m.search.View()
	} else if state.Search != "" {
		filter += fmt.Sprintf("   Search: %s", m.styles.hint.Render(state.Search))
	}

	return strings.Join([]string{line1, line2, line3, filter}, "\n")
}

func (m *Model) renderTable() string {
	rows := m.vm.Rows()

	var b strings.Builder
	b.WriteString(m.styles.header.Render(fmt.Sprintf("  %*s  %s %s %s %*s  %s",
		colID, "ID",
		cell("Name", colName), cell("Type", colType), cell("Serial", colSerial),
		colRx, "RX", cell("Status", colStatus))))
	b.WriteString("\n")

	if len(rows) == 0 {
		b.WriteString(m.styles.muted.Render("  no slot matches the current filter"))
		b.WriteString("\n")
		return b.String()
	}

	end := min(m.offset+m.pageSize(), len(rows))
	for i := m.offset; i < end; i++ {
		b.WriteString(m.renderRow(rows[i], i == m.cursor))
		b.WriteString("\n")
	}
	if len(rows) > end-m.offset {
		b.WriteString(m.styles.help.Render(fmt.Sprintf("  %d-%d of %d", m.offset+1, end, len(rows))))
		b.WriteString("\n")
	}
	return b.String()
}

func (m *Model) renderRow(row slots.Row, selected bool) string {
	marker := "  "
	id := fmt.Sprintf("%*d", colID, row.SlotID)
	if selected {
		marker = m.styles.title.Render("> ")
		id = m.styles.selected.Render(id)
	}

	status := m.styles.statusStyle(row).Render(cell(row.DisplayStatus, colStatus))

	if !row.Occupied {
		empty := fmt.Sprintf("%s %s %s %*s",
			cell(placeholder, colName), cell(placeholder, colType), cell(placeholder, colSerial),
			colRx, placeholder)
		return fmt.Sprintf("%s%s  %s  %s", marker, id, m.styles.muted.Render(empty), status)
	}

	d := row.Device
	rx := m.styles.tierStyle(d.RxPower).Render(fmt.Sprintf("%*s", colRx, truncate(d.RxPower, colRx)))
	line := fmt.Sprintf("%s%s  %s %s %s %s  %s",
		marker, id,
		cell(orPlaceholder(d.Name), colName),
		cell(orPlaceholder(d.OnuType), colType),
		cell(orPlaceholder(d.SerialNumber), colSerial),
		rx, status)
	if row.SlotID == m.rebootingID {
		line += m.styles.hint.Render(" rebooting")
	}
	return line
}

func (m *Model) renderDetail() string {
	id := m.detailTicket.OnuID
	d := m.vm.Detail()
	if d == nil {
		if m.detailFailed {
			return m.styles.overlay.Render(m.styles.error.Render(fmt.Sprintf("Detail unavailable for ONU %d", id)))
		}
		return m.styles.overlay.Render(fmt.Sprintf("%s Loading detail for ONU %d", m.spinner.View(), id))
	}

	t := m.detailTicket
	fields := []struct{ label, value string }{
		{"Interface", types.ONUInterface(t.Board, t.PON, id)},
		{"Name", d.Name},
		{"Type", d.OnuType},
		{"Serial", d.SerialNumber},
		{"Status", d.Status},
		{"RX power", d.RxPower},
		{"TX power", d.TxPower},
		{"Description", d.Description},
		{"IP address", d.IPAddress},
		{"Last online", d.LastOnline},
		{"Last offline", d.LastOffline},
		{"Uptime", d.Uptime},
		{"Last down", d.LastDownTimeDuration},
		{"Offline reason", d.OfflineReason},
		{"Distance", d.GponOpticalDistance},
	}

	var b strings.Builder
	b.WriteString(m.styles.title.Render(fmt.Sprintf("ONU %d", id)))
	b.WriteString("\n\n")
	for _, f := range fields {
		value := orPlaceholder(f.value)
		switch f.label {
		case "RX power":
			value = m.styles.tierStyle(f.value).Render(value)
		case "Status":
			value = m.styles.status[slots.StyleFor(f.value)].Render(value)
		}
		b.WriteString(fmt.Sprintf("%s %s\n", m.styles.help.Render(cell(f.label, 15)), value))
	}
	return m.styles.overlay.Render(strings.TrimRight(b.String(), "\n"))
}

func (m *Model) renderForm() string {
	f := m.form
	if f == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.styles.title.Render(fmt.Sprintf("Register ONU %d", f.onuID)))
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("%s %s\n", m.styles.help.Render(cell("OLT index", 20)), f.oltIndex))
	for i, field := range model.RegistrationFields {
		label := cell(field.String(), 20)
		if i == f.focus {
			label = m.styles.hint.Render(label)
		} else {
			label = m.styles.help.Render(label)
		}
		b.WriteString(fmt.Sprintf("%s %s\n", label, f.inputs[i].View()))
	}

	switch {
	case f.submitting:
		b.WriteString("\n" + m.spinner.View() + " Submitting")
	case f.err != nil:
		b.WriteString("\n" + m.styles.error.Render(f.err.Error()))
	}
	return m.styles.overlay.Render(strings.TrimRight(b.String(), "\n"))
}

func (m *Model) renderConfirm() string {
	state := m.vm.State()
	msg := fmt.Sprintf("Remove ONU %d from %s?",
		m.removeID, types.ONUInterface(state.Board, state.PON, m.removeID))
	return m.styles.overlay.Render(m.styles.error.Render(msg) + "\n\n" + m.styles.help.Render("y confirm  n cancel"))
}

func (m *Model) renderUnactivated() string {
	var b strings.Builder
	b.WriteString(m.styles.title.Render("Unactivated ONUs"))
	b.WriteString("\n\n")

	switch {
	case m.unactivatedLoading:
		b.WriteString(m.spinner.View() + " Loading")
	case m.unactivatedFailed:
		b.WriteString(m.styles.error.Render("Could not load unactivated ONUs"))
	case len(m.unactivated) == 0:
		b.WriteString(m.styles.muted.Render("No unactivated ONU detected"))
	default:
		b.WriteString(m.styles.header.Render(fmt.Sprintf("  %s %s %s %s",
			cell("OLT index", 18), cell("Model", 12), cell("Serial", 14), "Status")))
		b.WriteString("\n")
		for i, onu := range m.unactivated {
			marker := "  "
			if i == m.unactivatedCursor {
				marker = m.styles.title.Render("> ")
			}
			b.WriteString(fmt.Sprintf("%s%s %s %s %s\n", marker,
				cell(onu.OltIndex, 18), cell(orPlaceholder(onu.Model), 12),
				cell(onu.SerialNumber, 14), orPlaceholder(onu.Status)))
		}
	}
	return m.styles.overlay.Render(strings.TrimRight(b.String(), "\n"))
}

func (m *Model) renderNotice() string {
	var b strings.Builder
	if cmdErr, ok := types.AsCommandError(m.notice); ok {
		b.WriteString(m.styles.error.Render(fmt.Sprintf("%s  %s", cmdErr.Code, cmdErr.Message)))
		if cmdErr.OnuID != 0 {
			b.WriteString(fmt.Sprintf("\nONU %d", cmdErr.OnuID))
		}
		if cmdErr.Err != nil {
			b.WriteString("\n" + cmdErr.Err.Error())
		}
		if cmdErr.Raw != "" {
			b.WriteString("\n" + m.styles.help.Render(cmdErr.Raw))
		}
		if cmdErr.Action != "" {
			b.WriteString("\n\n" + m.styles.hint.Render(cmdErr.Action))
		}
	} else {
		b.WriteString(m.styles.error.Render(m.notice.Error()))
	}
	b.WriteString("\n\n" + m.styles.help.Render("enter to dismiss"))
	return m.styles.notice.Render(b.String())
}

func (m *Model) renderFooter() string {
	var help string
	switch {
	case m.notice != nil:
		help = "enter dismiss"
	case m.mode == modeSearch:
		help = "enter apply  esc clear"
	case m.mode == modeDetail:
		help = "R reboot  x remove  esc close"
	case m.mode == modeRegister:
		help = "tab next field  enter submit on last field  ctrl+s submit  esc cancel"
	case m.mode == modeConfirmRemove:
		help = "y confirm  n cancel"
	case m.mode == modeUnactivated:
		help = "enter register on empty slot  r reload  esc close"
	default:
		help = "/ search  s status  b/B board  p/P pon  r refresh  enter detail/register  R reboot  x remove  u unactivated  q quit"
	}

	out := m.styles.help.Render(help)
	if m.status != "" {
		out = m.styles.success.Render(m.status) + "\n" + out
	}
	return out
}

func orPlaceholder(s string) string {
	if strings.TrimSpace(s) == "" {
		return placeholder
	}
	return s
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width <= 1 {
		return string(r[:width])
	}
	return string(r[:width-1]) + "…"
}

// cell truncates s to width runes and pads it to exactly width.
func cell(s string, width int) string {
	s = truncate(s, width)
	if n := len([]rune(s)); n < width {
		s += strings.Repeat(" ", width-n)
	}
	return s
}
