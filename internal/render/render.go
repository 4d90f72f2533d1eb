// Package render formats reports for the terminal
package render

import (
	"fmt"
	"sort"
	"strings"

	"menuops/internal/dashboard"
	"menuops/internal/models"

	"github.com/charmbracelet/lipgloss"
)

var (
	docStyle = lipgloss.NewStyle().Margin(1, 2)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#0a84ff")).
			Padding(0, 1)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#30d158")).
			Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#ff453a")).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#71717a"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#fca5a5"))
)

// Dashboard renders the checklist and completeness
func Dashboard(snap dashboard.Snapshot) string {
	var b strings.Builder
	title := "Dashboard"
	if snap.MenuName != "" {
		title += " · " + snap.MenuName
	}
	b.WriteString(titleStyle.Render(title) + "\n\n")

	if snap.Error != "" {
		b.WriteString(errorStyle.Render("Refresh failed: "+snap.Error) + "\n")
		return docStyle.Render(b.String())
	}

	badge := infoStyle
	if snap.Completeness == 100 {
		badge = successStyle
	}
	b.WriteString(badge.Render(fmt.Sprintf("%.0f%% complete", snap.Completeness)))
	b.WriteString(dimStyle.Render(fmt.Sprintf("  %d/%d items linked", snap.LinkedCount, snap.ItemCount)) + "\n\n")

	for _, c := range snap.Checklist {
		mark := "✗"
		if c.Passed {
			mark = "✓"
		}
		line := fmt.Sprintf("%s %s", mark, c.Label)
		if c.Detail != "" {
			line += dimStyle.Render(" (" + c.Detail + ")")
		}
		b.WriteString(line + "\n")
	}
	if len(snap.Warnings) > 0 {
		b.WriteString("\n" + Warnings(snap.Warnings))
	}
	return docStyle.Render(b.String())
}

// PrepPlan renders the station task lists and the shopping list
func PrepPlan(plan *models.PrepPlan) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Prep plan") + "\n")

	stations := make([]string, 0, len(plan.Stations))
	for name := range plan.Stations {
		stations = append(stations, name)
	}
	sort.Strings(stations)
	for _, name := range stations {
		b.WriteString("\n" + headerStyle.Render(name) + "\n")
		for _, task := range plan.Stations[name].Tasks {
			fmt.Fprintf(&b, "  [P%d] %s ×%.2f (%d covers)\n", task.Priority, task.ItemName, task.ScaleFactor, task.Covers)
			for _, ing := range task.Ingredients {
				if ing.Quantity == nil {
					fmt.Fprintf(&b, "      %s %s\n", ing.Name, dimStyle.Render(ing.Raw))
					continue
				}
				fmt.Fprintf(&b, "      %s %g %s\n", ing.Name, *ing.Quantity, ing.Unit)
			}
		}
	}

	b.WriteString("\n" + headerStyle.Render("Shopping list") + "\n")
	for _, s := range plan.Shopping {
		fmt.Fprintf(&b, "  %-24s %10.2f %s\n", s.Name, s.Quantity, s.Unit)
	}
	if len(plan.Warnings) > 0 {
		b.WriteString("\n" + Warnings(plan.Warnings))
	}
	return docStyle.Render(b.String())
}

// Briefing renders the FOH sheet
func Briefing(sheet *models.FOHBriefing) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("FOH briefing") + "\n")
	for _, d := range sheet.Dishes {
		name := d.Name
		if d.IsSignature {
			name += " ★"
		}
		if d.IsNew {
			name += " (new)"
		}
		b.WriteString("\n" + headerStyle.Render(name) + "\n")
		for _, p := range d.TalkingPoints {
			b.WriteString("  • " + p + "\n")
		}
		for _, p := range d.SuggestedPoints {
			b.WriteString(dimStyle.Render("  ? "+p) + "\n")
		}
		if len(d.Allergens) > 0 {
			b.WriteString("  allergens: " + strings.Join(d.Allergens, ", ") + "\n")
		}
	}
	if len(sheet.AllergenSummary) > 0 {
		b.WriteString("\n" + headerStyle.Render("Allergens") + "\n")
		for _, tc := range sheet.AllergenSummary {
			fmt.Fprintf(&b, "  %s: %d\n", tc.Tag, tc.Count)
		}
	}
	if len(sheet.Warnings) > 0 {
		b.WriteString("\n" + Warnings(sheet.Warnings))
	}
	return docStyle.Render(b.String())
}

// Warnings renders a warning list
func Warnings(warnings []models.Warning) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("Warnings (%d)", len(warnings))) + "\n")
	for _, w := range warnings {
		b.WriteString(warnStyle.Render(fmt.Sprintf("  ! [%s] %s", w.Type, w.Message)) + "\n")
	}
	return b.String()
}
