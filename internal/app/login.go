package app

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/usagedeck/usage-dashboard-tui/internal/ui/styles"
)

const (
	loginFieldEmail = iota
	loginFieldPassword
	loginFieldCount
)

// loginModel is the sign-in gate shown before any dashboard data is
// fetched. It collects admin credentials and reports submissions upward
// through SignInResultMsg handling in the root model.
type loginModel struct {
	inputs     []textinput.Model
	focus      int
	submitting bool
	errMsg     string
}

func newLoginModel() loginModel {
	email := textinput.New()
	email.Placeholder = "admin@example.com"
	email.Prompt = "Email    > "
	email.CharLimit = 128
	email.Focus()

	password := textinput.New()
	password.Placeholder = "password"
	password.Prompt = "Password > "
	password.CharLimit = 128
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	return loginModel{
		inputs: []textinput.Model{email, password},
	}
}

// Update handles key input while the gate is showing. It returns a sign-in
// command when the form is submitted with both fields filled.
func (l loginModel) Update(msg tea.Msg, submit func(email, password string) tea.Cmd) (loginModel, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "tab", "shift+tab", "up", "down":
			l.cycleFocus(keyMsg.String() == "shift+tab" || keyMsg.String() == "up")
			return l, nil

		case "enter":
			if l.submitting {
				return l, nil
			}
			email := strings.TrimSpace(l.inputs[loginFieldEmail].Value())
			password := l.inputs[loginFieldPassword].Value()
			if email == "" || password == "" {
				l.errMsg = "email and password are required"
				return l, nil
			}
			l.submitting = true
			l.errMsg = ""
			return l, submit(email, password)
		}
	}

	var cmd tea.Cmd
	l.inputs[l.focus], cmd = l.inputs[l.focus].Update(msg)
	return l, cmd
}

func (l *loginModel) cycleFocus(backward bool) {
	l.inputs[l.focus].Blur()
	if backward {
		l.focus = (l.focus - 1 + loginFieldCount) % loginFieldCount
	} else {
		l.focus = (l.focus + 1) % loginFieldCount
	}
	l.inputs[l.focus].Focus()
}

// fail records a failed attempt and re-enables the form.
func (l *loginModel) fail(message string) {
	l.submitting = false
	l.errMsg = message
	l.inputs[loginFieldPassword].SetValue("")
}

// View renders the centered sign-in card.
func (l loginModel) View(width, height int, spinnerView string) string {
	var lines []string

	lines = append(lines, styles.TitleStyle.Render("UsageDeck"))
	lines = append(lines, styles.HelpStyle.Render("Admin sign-in required"))
	lines = append(lines, "")

	for i, input := range l.inputs {
		border := styles.BlurredBorderStyle
		if i == l.focus {
			border = styles.FocusedBorderStyle
		}
		lines = append(lines, border.Render(input.View()))
	}

	lines = append(lines, "")
	switch {
	case l.submitting:
		lines = append(lines, spinnerView+" "+styles.HelpStyle.Render("Signing in..."))
	case l.errMsg != "":
		lines = append(lines, styles.ErrorTextStyle.Render(l.errMsg))
	default:
		lines = append(lines, styles.HelpStyle.Render("enter to sign in, ctrl+c to quit"))
	}

	card := styles.CardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
	return styles.CenterBoth(card, width, height)
}
