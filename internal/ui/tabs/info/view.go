package info

import (
	"fmt"
	"runtime"

	"github.com/charmbracelet/lipgloss"

	"github.com/usagedeck/usage-dashboard-tui/internal/config"
	"github.com/usagedeck/usage-dashboard-tui/internal/ui/components"
	"github.com/usagedeck/usage-dashboard-tui/internal/ui/styles"
	"github.com/usagedeck/usage-dashboard-tui/internal/version"
)

// View renders the info tab.
func (m *Model) View() string {
	var sections []string

	sections = append(sections, m.renderTitle())
	sections = append(sections, m.renderSessionCard())
	sections = append(sections, m.renderConfigCard())
	sections = append(sections, m.renderAboutCard())

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)

	m.viewport.SetContent(content)

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

func (m *Model) renderTitle() string {
	title := styles.TitleStyle.Render("Info")
	subtitle := styles.HelpStyle.Render("Session, configuration and application information")

	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")
}

func (m *Model) cardWidth() int {
	cardWidth := m.width - 6
	if cardWidth < 50 {
		cardWidth = 50
	}
	if cardWidth > 80 {
		cardWidth = 80
	}
	return cardWidth
}

// renderSessionCard renders the signed-in admin and data freshness.
func (m *Model) renderSessionCard() string {
	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("Session"))
	rows = append(rows, "")

	rows = append(rows, m.renderInfoRow("Admin", m.services.AdminEmail()))
	rows = append(rows, m.renderInfoRow("Last Refresh", components.FormatRelativeTime(m.state.FetchedAt())))
	rows = append(rows, m.renderInfoRow("Users", fmt.Sprintf("%d", m.state.UserCount())))
	rows = append(rows, m.renderInfoRow("Pending", fmt.Sprintf("%d", m.state.PendingCount())))

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

// renderConfigCard renders the active configuration.
func (m *Model) renderConfigCard() string {
	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("Configuration"))
	rows = append(rows, "")

	if m.config != nil {
		rows = append(rows, m.renderInfoRow("Backend", m.config.StoreBackend))
		switch m.config.StoreBackend {
		case config.BackendFirestore:
			rows = append(rows, m.renderInfoRow("Project", m.config.FirebaseProjectID))
		case config.BackendSQLite:
			rows = append(rows, m.renderInfoRow("Database", m.config.DatabasePath))
		}
		rows = append(rows, m.renderInfoRow("Log File", m.config.LogPath))
		rows = append(rows, m.renderInfoRow("Refresh Every", m.config.RefreshInterval.String()))
	} else {
		rows = append(rows, styles.HelpStyle.Render("Configuration not loaded"))
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

func (m *Model) renderInfoRow(label, value string) string {
	labelStyle := lipgloss.NewStyle().
		Width(18).
		Foreground(styles.TextMuted)

	valueStyle := lipgloss.NewStyle().
		Foreground(styles.TextPrimary)

	return labelStyle.Render(label+":") + " " + valueStyle.Render(value)
}

// renderAboutCard renders the about/version information card.
func (m *Model) renderAboutCard() string {
	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("About UsageDeck"))
	rows = append(rows, "")

	rows = append(rows, m.renderInfoRow("Version", version.GetVersion()))
	rows = append(rows, m.renderInfoRow("Build Date", version.GetDate()))
	rows = append(rows, m.renderInfoRow("Git Commit", version.GetCommit()))
	rows = append(rows, m.renderInfoRow("Go Version", runtime.Version()))
	rows = append(rows, m.renderInfoRow("Platform", fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)))

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}
