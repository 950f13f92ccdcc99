package tui

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nanoncore/onuwatch/model"
)

const formInputWidth = 32

// registerForm edits a model.Registration for one empty slot.
type registerForm struct {
	onuID    int
	oltIndex string

	inputs []textinput.Model
	focus  int

	err        error
	submitting bool
}

func newRegisterForm(onuID int, oltIndex, serial string) *registerForm {
	f := &registerForm{
		onuID:    onuID,
		oltIndex: oltIndex,
		inputs:   make([]textinput.Model, len(model.RegistrationFields)),
	}

	for i, field := range model.RegistrationFields {
		in := textinput.New()
		in.Placeholder = field.String()
		in.Width = formInputWidth
		in.Prompt = "> "
		in.PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(draculaCyan))
		in.TextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(draculaForeground))
		in.PlaceholderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(draculaComment))
		switch field {
		case model.FieldVlanID:
			in.CharLimit = 4
		case model.FieldSerialNumber:
			in.CharLimit = 12
			in.SetValue(serial)
		}
		f.inputs[i] = in
	}
	f.inputs[0].Focus()
	return f
}

// move shifts focus by delta, wrapping around.
func (f *registerForm) move(delta int) tea.Cmd {
	f.inputs[f.focus].Blur()
	n := len(f.inputs)
	f.focus = ((f.focus+delta)%n + n) % n
	return f.inputs[f.focus].Focus()
}

func (f *registerForm) last() bool {
	return f.focus == len(f.inputs)-1
}

func (f *registerForm) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	f.err = nil
	return cmd
}

// registration collects the inputs and validates them.
func (f *registerForm) registration() (*model.Registration, error) {
	reg := model.NewRegistration(f.onuID)
	for i, field := range model.RegistrationFields {
		if err := reg.Set(field, f.inputs[i].Value()); err != nil {
			return nil, err
		}
	}
	if err := reg.Validate(); err != nil {
		return nil, err
	}
	return reg, nil
}
