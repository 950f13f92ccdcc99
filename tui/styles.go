package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nanoncore/onuwatch/slots"
)

// Dracula theme colors.
const (
	draculaForeground = "#F8F8F2"
	draculaCyan       = "#8BE9FD"
	draculaGreen      = "#50FA7B"
	draculaOrange     = "#FFB86C"
	draculaPink       = "#FF79C6"
	draculaPurple     = "#BD93F9"
	draculaRed        = "#FF5555"
	draculaYellow     = "#F1FA8C"
	draculaComment    = "#6272A4"
	draculaSelection  = "#44475A"
)

type styles struct {
	title, header, help, hint, success, error, selected, muted, overlay, notice lipgloss.Style

	status map[slots.Category]lipgloss.Style
	tier   map[slots.Tier]lipgloss.Style
}

func fg(color string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color))
}

func newStyles() styles {
	return styles{
		title: fg(draculaPink).Bold(true),
		header: fg(draculaPurple).
			Bold(true),
		help:    fg(draculaComment),
		hint:    fg(draculaOrange),
		success: fg(draculaGreen),
		error: fg(draculaRed).
			Bold(true),
		selected: lipgloss.NewStyle().
			Background(lipgloss.Color(draculaSelection)),
		muted: fg(draculaComment).Italic(true),
		overlay: lipgloss.NewStyle().
			Padding(1, 2).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(draculaPurple)).
			Foreground(lipgloss.Color(draculaForeground)),
		notice: lipgloss.NewStyle().
			Padding(1, 2).
			Border(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color(draculaRed)).
			Foreground(lipgloss.Color(draculaForeground)),

		status: map[slots.Category]lipgloss.Style{
			slots.CategoryOnline:          fg(draculaGreen),
			slots.CategoryOffline:         fg(draculaComment),
			slots.CategoryLOS:             fg(draculaRed).Bold(true),
			slots.CategoryLogging:         fg(draculaCyan),
			slots.CategorySynchronization: fg(draculaPurple),
			slots.CategoryDyingGasp:       fg(draculaOrange),
			slots.CategoryAuthFailed:      fg(draculaPink),
			slots.CategoryUnknown:         fg(draculaYellow),
			slots.CategoryEmpty:           fg(draculaComment).Italic(true),
		},
		tier: map[slots.Tier]lipgloss.Style{
			slots.TierUnmeasured: fg(draculaComment),
			slots.TierWeak:       fg(draculaRed).Bold(true),
			slots.TierNominal:    fg(draculaYellow),
			slots.TierStrong:     fg(draculaGreen),
		},
	}
}

// statusStyle returns the style of a row's status badge.
func (s styles) statusStyle(row slots.Row) lipgloss.Style {
	if st, ok := s.status[slots.StyleForRow(row)]; ok {
		return st
	}
	return s.status[slots.CategoryUnknown]
}

func (s styles) tierStyle(raw string) lipgloss.Style {
	return s.tier[slots.Classify(raw)]
}
