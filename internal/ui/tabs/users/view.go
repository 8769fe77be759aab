package users

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/usagedeck/usage-dashboard-tui/internal/models"
	"github.com/usagedeck/usage-dashboard-tui/internal/ui/components"
	"github.com/usagedeck/usage-dashboard-tui/internal/ui/styles"
)

const maxCardWidth = 110

// View renders the users tab.
func (m *Model) View() string {
	if m.state.IsInitialLoading() {
		return components.RenderSpinnerCentered(m.spinner, m.width, m.height)
	}

	rows := m.rows()
	if m.selectedIndex >= len(rows) && len(rows) > 0 {
		m.selectedIndex = len(rows) - 1
	}

	var sections []string
	sections = append(sections, m.renderTitle())
	sections = append(sections, m.renderUserList(rows))
	if len(rows) > 0 && m.selectedIndex < len(rows) {
		sections = append(sections, m.renderDetail(rows[m.selectedIndex]))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)

	m.viewport.SetContent(content)

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

func (m *Model) renderTitle() string {
	title := styles.TitleStyle.Render("Users")

	pending := m.state.PendingCount()
	subtitle := fmt.Sprintf("%d users", m.state.UserCount())
	if pending > 0 {
		subtitle += ", " + styles.PendingStyle.Render(fmt.Sprintf("%d awaiting approval", pending))
	}
	if m.pendingOnly {
		subtitle += styles.InfoTextStyle.Render("  [pending only]")
	}

	return lipgloss.JoinVertical(lipgloss.Left, title, styles.HelpStyle.Render(subtitle), "")
}

func (m *Model) cardWidth() int {
	w := m.width - 6
	if w < 60 {
		w = 60
	}
	if w > maxCardWidth {
		w = maxCardWidth
	}
	return w
}

func (m *Model) renderUserList(rows []row) string {
	var lines []string
	lines = append(lines, styles.CardTitleStyle.Render("Accounts"))

	if len(rows) == 0 {
		if m.pendingOnly {
			lines = append(lines, styles.HelpStyle.Render("No pending users"))
		} else {
			lines = append(lines, styles.HelpStyle.Render("No users found"))
		}
		return styles.CardStyle.Width(m.cardWidth()).Render(
			lipgloss.JoinVertical(lipgloss.Left, lines...),
		)
	}

	header := fmt.Sprintf("   %-30s %-10s %10s %10s %12s  %s",
		"User", "Status", "Calls", "Tokens", "Cost", "Last Active")
	lines = append(lines, styles.TableHeaderStyle.Render(header))

	for i, r := range rows {
		lines = append(lines, m.renderUserRow(r, i == m.selectedIndex))
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, lines...),
	)
}

func (m *Model) renderUserRow(r row, selected bool) string {
	prefix := "  "
	if selected {
		prefix = styles.FocusedStyle.Render("▸ ")
	}

	name := r.User.Email
	if name == "" {
		name = r.User.Username
	}
	if name == "" {
		name = r.User.UserID
	}
	if len(name) > 30 {
		name = name[:27] + "..."
	}

	calls, tokens, cost, lastActive := "-", "-", "-", "-"
	if r.Usage != nil {
		calls = components.FormatCount(r.Usage.TotalCalls)
		tokens = components.FormatTokens(r.Usage.TotalTokens)
		cost = components.FormatCost(r.Usage.TotalCostUSD)
		lastActive = components.FormatRelativeTime(r.Usage.LastUpdated)
	}

	line := fmt.Sprintf("%-30s %-10s %10s %10s %12s  %s",
		name, styles.ApprovalBadge(r.User.IsApproved), calls, tokens, cost, lastActive)

	if selected {
		return prefix + styles.TableSelectedStyle.Render(line)
	}
	return prefix + line
}

// renderDetail renders the selected user's profile and recent activity.
func (m *Model) renderDetail(r row) string {
	var lines []string
	lines = append(lines, styles.CardTitleStyle.Render("Details"))

	lines = append(lines, detailRow("User ID", r.User.UserID))
	if r.User.Email != "" {
		lines = append(lines, detailRow("Email", r.User.Email))
	}
	if r.User.Username != "" {
		lines = append(lines, detailRow("Username", r.User.Username))
	}
	lines = append(lines, detailRow("Status", styles.ApprovalBadge(r.User.IsApproved)))
	lines = append(lines, detailRow("Joined", components.FormatTimestamp(r.User.CreatedAt)))

	if !r.User.IsApproved {
		lines = append(lines, "")
		lines = append(lines, styles.InfoTextStyle.Render("Press 'a' to approve this user"))
	}

	lines = append(lines, "")
	lines = append(lines, m.renderRecentActivity(r.Usage)...)

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, lines...),
	)
}

func (m *Model) renderRecentActivity(record *models.UserUsageRecord) []string {
	var lines []string
	lines = append(lines, styles.SubTitleStyle.Render("Recent Activity"))

	if record == nil || len(record.RecentUsage) == 0 {
		lines = append(lines, styles.HelpStyle.Render("No recorded activity"))
		return lines
	}

	header := fmt.Sprintf("  %-17s %-26s %8s %10s %12s",
		"When", "Model", "Calls", "Tokens", "Cost")
	lines = append(lines, styles.TableHeaderStyle.Render(header))

	for _, e := range record.RecentForDisplay() {
		model := e.Model
		if len(model) > 26 {
			model = model[:23] + "..."
		}
		lines = append(lines, fmt.Sprintf("  %-17s %-26s %8s %10s %12s",
			components.FormatTimestamp(e.Timestamp),
			model,
			components.FormatCount(e.Calls),
			components.FormatTokens(e.TotalTokens),
			components.FormatCost(e.CostUSD),
		))
	}

	return lines
}

func detailRow(label, value string) string {
	labelStyle := lipgloss.NewStyle().
		Width(12).
		Foreground(styles.TextMuted)

	return labelStyle.Render(label+":") + " " + value
}
