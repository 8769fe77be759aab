// Package users provides the per-user usage and approval tab.
package users

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/usagedeck/usage-dashboard-tui/internal/app"
	"github.com/usagedeck/usage-dashboard-tui/internal/models"
	"github.com/usagedeck/usage-dashboard-tui/internal/ui/components"
)

// keyMap defines the key bindings specific to the users tab.
type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	Approve key.Binding
	Pending key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "previous user"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "next user"),
		),
		Approve: key.NewBinding(
			key.WithKeys("a", "enter"),
			key.WithHelp("a", "approve user"),
		),
		Pending: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "toggle pending only"),
		),
	}
}

// row joins a user profile with its usage record for display.
type row struct {
	User  models.AppUser
	Usage *models.UserUsageRecord
}

// Model represents the users tab state.
type Model struct {
	state    *app.State
	width    int
	height   int
	keys     keyMap
	viewport viewport.Model
	spinner  components.LoadingSpinner

	selectedIndex int
	pendingOnly   bool
}

// New creates a new users model.
func New(state *app.State) *Model {
	return &Model{
		state:    state,
		keys:     defaultKeyMap(),
		viewport: viewport.New(0, 0),
		spinner:  components.NewSpinner("Loading users..."),
	}
}

// Init initializes the users tab.
func (m *Model) Init() tea.Cmd {
	return m.spinner.Tick()
}

// rows joins the current profiles and usage records, applying the
// pending-only filter. Profiles without a usage record still appear.
func (m *Model) rows() []row {
	users := m.state.Users()
	records := m.state.Records()

	byUser := make(map[string]*models.UserUsageRecord, len(records))
	for i := range records {
		byUser[records[i].UserID] = &records[i]
	}

	var rows []row
	for _, u := range users {
		if m.pendingOnly && u.IsApproved {
			continue
		}
		rows = append(rows, row{User: u, Usage: byUser[u.UserID]})
	}
	return rows
}

// Update handles messages for the users tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	default:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) (app.Tab, tea.Cmd) {
	rows := m.rows()

	switch {
	case key.Matches(msg, m.keys.Up):
		if m.selectedIndex > 0 {
			m.selectedIndex--
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.selectedIndex < len(rows)-1 {
			m.selectedIndex++
		}
		return m, nil

	case key.Matches(msg, m.keys.Pending):
		m.pendingOnly = !m.pendingOnly
		m.selectedIndex = 0
		return m, nil

	case key.Matches(msg, m.keys.Approve):
		if m.selectedIndex < len(rows) {
			selected := rows[m.selectedIndex].User
			if !selected.IsApproved {
				return m, func() tea.Msg {
					return app.ApproveUserMsg{UserID: selected.UserID}
				}
			}
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// SetSize sets the available size for the users tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{
		m.keys.Approve,
		m.keys.Pending,
		m.keys.Up,
		m.keys.Down,
	}
}
