package overview

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/usagedeck/usage-dashboard-tui/internal/models"
	"github.com/usagedeck/usage-dashboard-tui/internal/ui/components"
	"github.com/usagedeck/usage-dashboard-tui/internal/ui/styles"
	"github.com/usagedeck/usage-dashboard-tui/internal/usage"
)

const (
	chartHeight   = 8
	maxModelBars  = 8
	maxCardWidth  = 100
	modelNameCap  = 24
	topUsersShown = usage.DefaultTopUsers
)

// View renders the overview tab.
func (m *Model) View() string {
	if m.state.IsInitialLoading() {
		return components.RenderSpinnerCentered(m.spinner, m.width, m.height)
	}

	records := m.state.Records()

	var sections []string
	sections = append(sections, m.renderTitle())
	sections = append(sections, m.renderStatCards(records))
	sections = append(sections, m.renderDailyCostChart(records))
	sections = append(sections, m.renderModelChart(records))
	sections = append(sections, m.renderTopUsers(records))

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)

	m.viewport.SetContent(content)

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

func (m *Model) renderTitle() string {
	title := styles.TitleStyle.Render("Usage Overview")
	subtitle := styles.HelpStyle.Render(
		fmt.Sprintf("API usage across all users, updated %s",
			components.FormatRelativeTime(m.state.FetchedAt())))

	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")
}

func (m *Model) cardWidth() int {
	w := m.width - 6
	if w < 40 {
		w = 40
	}
	if w > maxCardWidth {
		w = maxCardWidth
	}
	return w
}

// renderStatCards renders the aggregate totals.
func (m *Model) renderStatCards(records []models.UserUsageRecord) string {
	agg := usage.Aggregate(records)

	stat := func(value, label string) string {
		return lipgloss.JoinVertical(lipgloss.Left,
			styles.StatValueStyle.Render(value),
			styles.StatLabelStyle.Render(label),
		)
	}

	row1 := lipgloss.JoinHorizontal(lipgloss.Top,
		styles.CardStyle.Render(stat(components.FormatCost(agg.TotalCostUSD), "Total Cost")),
		styles.CardStyle.Render(stat(components.FormatCount(agg.TotalCalls), "API Calls")),
		styles.CardStyle.Render(stat(components.FormatTokens(agg.TotalTokens), "Tokens")),
		styles.CardStyle.Render(stat(components.FormatCount(int64(agg.UserCount)), "Users")),
	)

	row2 := lipgloss.JoinHorizontal(lipgloss.Top,
		styles.CardStyle.Render(stat(components.FormatCost(agg.AverageCostPerUser), "Avg Cost / User")),
		styles.CardStyle.Render(stat(components.FormatCost(agg.AverageCostPerCall), "Avg Cost / Call")),
		styles.CardStyle.Render(stat(
			components.FormatTokens(agg.TotalInputTokens)+" / "+components.FormatTokens(agg.TotalOutputTokens),
			"Input / Output Tokens")),
	)

	return lipgloss.JoinVertical(lipgloss.Left, row1, row2)
}

// renderDailyCostChart renders the trailing-window daily cost line chart.
func (m *Model) renderDailyCostChart(records []models.UserUsageRecord) string {
	byDate := usage.ByDate(records, time.Now())

	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render(
		fmt.Sprintf("Daily Cost (last %d days)", usage.DateWindowDays)))

	if len(byDate) == 0 {
		rows = append(rows, styles.HelpStyle.Render("No recent activity"))
	} else {
		costs := make([]float64, len(byDate))
		calls := make([]float64, len(byDate))
		for i, d := range byDate {
			costs[i] = d.CostUSD
			calls[i] = float64(d.Calls)
		}
		caption := fmt.Sprintf("%s to %s", byDate[0].Date, byDate[len(byDate)-1].Date)
		rows = append(rows, components.RenderLineChart(costs, m.cardWidth()-12, chartHeight, caption))
		rows = append(rows, "")

		spark := lipgloss.NewStyle().Foreground(styles.Secondary).
			Render(components.RenderSparkline(calls, m.cardWidth()-16))
		rows = append(rows, styles.HelpStyle.Render("Calls  ")+spark)
		rows = append(rows, components.RenderLegend([]components.LegendItem{
			{Label: "Cost (USD)", Color: styles.Primary},
			{Label: "API calls", Color: styles.Secondary},
		}))
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

// renderModelChart renders per-model cost as a horizontal bar chart.
func (m *Model) renderModelChart(records []models.UserUsageRecord) string {
	byModel := usage.ByModel(records)

	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("Cost by Model"))

	if len(byModel) == 0 {
		rows = append(rows, styles.HelpStyle.Render("No recent activity"))
	} else {
		if len(byModel) > maxModelBars {
			byModel = byModel[:maxModelBars]
		}
		values := make([]float64, len(byModel))
		labels := make([]string, len(byModel))
		for i, mu := range byModel {
			values[i] = mu.CostUSD
			labels[i] = truncateModel(mu.Model)
		}
		rows = append(rows, components.RenderBarChart(values, labels, m.cardWidth()-8, components.FormatCost))
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

// renderTopUsers renders the highest-spending users.
func (m *Model) renderTopUsers(records []models.UserUsageRecord) string {
	top := usage.TopUsersByCost(records, topUsersShown)

	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render(
		fmt.Sprintf("Top %d Users by Cost", topUsersShown)))

	if len(top) == 0 {
		rows = append(rows, styles.HelpStyle.Render("No usage recorded"))
		return styles.CardStyle.Width(m.cardWidth()).Render(
			lipgloss.JoinVertical(lipgloss.Left, rows...),
		)
	}

	header := fmt.Sprintf("  %-3s %-28s %12s %10s %10s", "#", "User", "Cost", "Calls", "Tokens")
	rows = append(rows, styles.TableHeaderStyle.Render(header))

	for i, r := range top {
		line := fmt.Sprintf("  %-3d %-28s %12s %10s %10s",
			i+1,
			truncateUser(r.UserID),
			components.FormatCost(r.TotalCostUSD),
			components.FormatCount(r.TotalCalls),
			components.FormatTokens(r.TotalTokens),
		)
		rows = append(rows, styles.TableCellStyle.Render(line))
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

func truncateModel(name string) string {
	if len(name) > modelNameCap {
		return name[:modelNameCap-3] + "..."
	}
	return name
}

func truncateUser(id string) string {
	if len(id) > 28 {
		return id[:25] + "..."
	}
	return id
}
