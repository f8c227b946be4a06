package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"tariff-dashboard/internal/aggregator"
	"tariff-dashboard/internal/tariff"
)

const trendBarWidth = 30

type styles struct {
	title   lipgloss.Style
	section lipgloss.Style
	label   lipgloss.Style
	muted   lipgloss.Style
	success lipgloss.Style
	warning lipgloss.Style
	failure lipgloss.Style
	card    lipgloss.Style
	value   lipgloss.Style
	bar     lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		title:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		section: r.NewStyle().Bold(true).Foreground(lipgloss.Color("245")).MarginTop(1),
		label:   r.NewStyle().Foreground(lipgloss.Color("244")),
		muted:   r.NewStyle().Foreground(lipgloss.Color("8")),
		success: r.NewStyle().Foreground(lipgloss.Color("82")),
		warning: r.NewStyle().Foreground(lipgloss.Color("208")),
		failure: r.NewStyle().Foreground(lipgloss.Color("196")),
		card: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 2),
		value: r.NewStyle().Bold(true),
		bar:   r.NewStyle().Foreground(lipgloss.Color("75")),
	}
}

// state colours a tariff state
func (s styles) state(st tariff.State) string {
	switch st {
	case tariff.StateActive:
		return s.success.Render(string(st))
	case tariff.StateExpired:
		return s.failure.Render(string(st))
	default:
		return s.muted.Render(string(st))
	}
}

// severity colours an alert severity tag
func (s styles) severity(sev string) string {
	tag := "[" + sev + "]"
	switch sev {
	case aggregator.SeverityCritical:
		return s.failure.Render(tag)
	case aggregator.SeverityWarning:
		return s.warning.Render(tag)
	default:
		return s.muted.Render(tag)
	}
}

// PrintDashboard renders a dashboard snapshot
func (f *OutputFormatter) PrintDashboard(snap *aggregator.Snapshot) error {
	if f.quiet {
		fmt.Fprintln(f.out, snap.ID)
		return nil
	}

	switch f.format {
	case "json":
		return f.printJSON(snap)
	case "table":
		fmt.Fprintln(f.out, f.RenderDashboard(snap))
		return nil
	default:
		return fmt.Errorf("unsupported format: %s", f.format)
	}
}

// RenderDashboard lays out a snapshot as styled text
func (f *OutputFormatter) RenderDashboard(snap *aggregator.Snapshot) string {
	s := f.styles
	var b strings.Builder

	b.WriteString(s.title.Render("Tariff dashboard"))
	b.WriteString(s.muted.Render(fmt.Sprintf("  generated %s  snapshot %s",
		snap.GeneratedAt.Local().Format("2006-01-02 15:04"), shortID(snap.ID))))
	b.WriteString("\n")

	cards := []string{
		f.card("Total", fmt.Sprint(snap.Resumen.Total)),
		f.card("Active", fmt.Sprint(snap.Resumen.Active)),
		f.card("Expired", fmt.Sprint(snap.Resumen.Expired)),
		f.card("Other", fmt.Sprint(snap.Resumen.Other)),
		f.card("Avg all-in", snap.Promedios[aggregator.FieldAllIn].StringFixed(2)),
		f.card("MoM all-in", formatVariation(snap.Variation.AvgAllIn)),
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cards...))
	b.WriteString("\n")

	b.WriteString(s.section.Render("Averages (active tariffs)"))
	b.WriteString("\n")
	for _, field := range aggregator.DashboardFields {
		fmt.Fprintf(&b, "  %-16s %s\n", s.label.Render(string(field)), snap.Promedios[field].StringFixed(2))
	}

	f.renderGroups(&b, "By equipment", snap.ByEquipment)
	f.renderGroups(&b, "Top forwarders", snap.TopForwarders)
	f.renderGroups(&b, "Top carriers", snap.TopCarriers)
	f.renderGroups(&b, "Top routes", snap.TopRoutes)
	f.renderGroups(&b, "Top countries", snap.TopCountries)
	f.renderTrend(&b, snap.MonthlyTrend)

	b.WriteString(s.section.Render("Alerts"))
	b.WriteString("\n")
	if len(snap.Alerts) == 0 {
		b.WriteString(s.muted.Render("  none"))
		b.WriteString("\n")
	}
	for _, a := range snap.Alerts {
		fmt.Fprintf(&b, "  %s %s\n", s.severity(a.Severity), a.Message)
		if !a.Filter.IsZero() {
			fmt.Fprintf(&b, "    %s\n", s.muted.Render("list --where '"+a.Filter.Values().Encode()+"'"))
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

func (f *OutputFormatter) card(label, value string) string {
	return f.styles.card.Render(f.styles.label.Render(label) + "\n" + f.styles.value.Render(value))
}

func (f *OutputFormatter) renderGroups(b *strings.Builder, title string, groups []aggregator.GroupSummary) {
	s := f.styles
	b.WriteString(s.section.Render(title))
	b.WriteString("\n")
	if len(groups) == 0 {
		b.WriteString(s.muted.Render("  no active tariffs"))
		b.WriteString("\n")
		return
	}

	width := 0
	for _, g := range groups {
		if n := len([]rune(g.Label)); n > width {
			width = n
		}
	}
	if width > 40 {
		width = 40
	}

	for i, g := range groups {
		fmt.Fprintf(b, "  %d. %-*s %5d  %12s\n", i+1, width, truncate(g.Label, width), g.Count, g.AvgAllIn.StringFixed(2))
	}
}

func (f *OutputFormatter) renderTrend(b *strings.Builder, trend []aggregator.GroupSummary) {
	s := f.styles
	b.WriteString(s.section.Render("Monthly trend"))
	b.WriteString("\n")
	if len(trend) == 0 {
		b.WriteString(s.muted.Render("  no dated tariffs"))
		b.WriteString("\n")
		return
	}

	peak := 0
	for _, g := range trend {
		if g.Count > peak {
			peak = g.Count
		}
	}

	for _, g := range trend {
		n := scaleBar(g.Count, peak, trendBarWidth)
		bar := strings.Repeat("█", n) + strings.Repeat(" ", trendBarWidth-n)
		fmt.Fprintf(b, "  %s %s %4d  %12s\n",
			g.Label, s.bar.Render(bar), g.Count, g.AvgAllIn.StringFixed(2))
	}
}

// scaleBar maps count onto [0, width], keeping non-zero counts visible
func scaleBar(count, peak, width int) int {
	if count <= 0 || peak <= 0 {
		return 0
	}
	n := count * width / peak
	if n == 0 {
		n = 1
	}
	return n
}

// formatVariation renders a percentage change, or "n/a" without prior data
func formatVariation(v decimal.NullDecimal) string {
	if !v.Valid {
		return "n/a"
	}
	sign := ""
	if v.Decimal.IsPositive() {
		sign = "+"
	}
	return sign + v.Decimal.StringFixed(1) + "%"
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
