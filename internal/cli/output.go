package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"cloud.google.com/go/civil"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"

	"tariff-dashboard/internal/aggregator"
	"tariff-dashboard/internal/database"
	"tariff-dashboard/internal/tariff"
)

// OutputFormatter handles different output formats
type OutputFormatter struct {
	format   string
	quiet    bool
	useColor bool
	out      io.Writer
	errOut   io.Writer
	styles   styles
}

// NewOutputFormatter creates a new output formatter
func NewOutputFormatter(format string, quiet bool) *OutputFormatter {
	return NewOutputFormatterWithColor(format, quiet, false)
}

// NewOutputFormatterWithColor creates a formatter writing to stdout. Colour is
// used only when noColor is false and stdout is a terminal.
func NewOutputFormatterWithColor(format string, quiet bool, noColor bool) *OutputFormatter {
	useColor := !noColor && isatty.IsTerminal(os.Stdout.Fd())
	return newOutputFormatter(format, quiet, useColor, os.Stdout, os.Stderr)
}

func newOutputFormatter(format string, quiet, useColor bool, out, errOut io.Writer) *OutputFormatter {
	renderer := lipgloss.NewRenderer(out)
	if !useColor {
		renderer.SetColorProfile(termenv.Ascii)
	}
	return &OutputFormatter{
		format:   format,
		quiet:    quiet,
		useColor: useColor,
		out:      out,
		errOut:   errOut,
		styles:   newStyles(renderer),
	}
}

// UseColor reports whether output is styled
func (f *OutputFormatter) UseColor() bool {
	return f.useColor
}

// PrintTariffs prints a list of tariffs
func (f *OutputFormatter) PrintTariffs(records []tariff.Record) error {
	if f.quiet {
		for _, r := range records {
			fmt.Fprintf(f.out, "%d\n", r.ID)
		}
		return nil
	}

	switch f.format {
	case "json":
		return f.printJSON(records)
	case "table":
		return f.printTariffsTable(records)
	default:
		return fmt.Errorf("unsupported format: %s", f.format)
	}
}

// PrintTariff prints a single tariff
func (f *OutputFormatter) PrintTariff(record *tariff.Record) error {
	if f.quiet {
		fmt.Fprintf(f.out, "%d\n", record.ID)
		return nil
	}

	switch f.format {
	case "json":
		return f.printJSON(record)
	case "table":
		return f.printTariffDetails(record)
	default:
		return fmt.Errorf("unsupported format: %s", f.format)
	}
}

// PrintGroups prints a ranking or trend. Each row carries the filter that
// lists its tariffs.
func (f *OutputFormatter) PrintGroups(groups []aggregator.GroupSummary) error {
	if f.quiet {
		for _, g := range groups {
			fmt.Fprintln(f.out, g.Label)
		}
		return nil
	}

	switch f.format {
	case "json":
		return f.printJSON(groups)
	case "table":
		if len(groups) == 0 {
			fmt.Fprintln(f.out, "No groups found.")
			return nil
		}
		w := tabwriter.NewWriter(f.out, 0, 0, 2, ' ', 0)
		defer w.Flush()

		fmt.Fprintln(w, "GROUP\tCOUNT\tAVG ALL-IN\tFILTER")
		for _, g := range groups {
			fmt.Fprintf(w, "%s\t%d\t%s\t%s\n",
				truncate(g.Label, 40), g.Count, g.AvgAllIn.StringFixed(2), g.Key.Values().Encode())
		}
		return nil
	default:
		return fmt.Errorf("unsupported format: %s", f.format)
	}
}

// PrintStateGroups prints per-state counts and averages
func (f *OutputFormatter) PrintStateGroups(groups []database.StateGroup) error {
	if f.quiet {
		for _, g := range groups {
			fmt.Fprintf(f.out, "%s %d\n", g.State, g.Count)
		}
		return nil
	}

	switch f.format {
	case "json":
		return f.printJSON(groups)
	case "table":
		w := tabwriter.NewWriter(f.out, 0, 0, 2, ' ', 0)
		defer w.Flush()

		fmt.Fprintln(w, "STATE\tCOUNT\tAVG ALL-IN")
		for _, g := range groups {
			avg := "-"
			if g.AvgAllIn.Valid {
				avg = g.AvgAllIn.Decimal.StringFixed(2)
			}
			fmt.Fprintf(w, "%s\t%d\t%s\n", g.State, g.Count, avg)
		}
		return nil
	default:
		return fmt.Errorf("unsupported format: %s", f.format)
	}
}

// PrintPartners prints forwarders and carriers
func (f *OutputFormatter) PrintPartners(partners []database.Partner) error {
	if f.quiet {
		for _, p := range partners {
			fmt.Fprintf(f.out, "%d\n", p.ID)
		}
		return nil
	}

	switch f.format {
	case "json":
		return f.printJSON(partners)
	case "table":
		if len(partners) == 0 {
			fmt.Fprintln(f.out, "No partners found.")
			return nil
		}
		w := tabwriter.NewWriter(f.out, 0, 0, 2, ' ', 0)
		defer w.Flush()

		fmt.Fprintln(w, "ID\tKIND\tNAME")
		for _, p := range partners {
			fmt.Fprintf(w, "%d\t%s\t%s\n", p.ID, p.Kind, p.Name)
		}
		return nil
	default:
		return fmt.Errorf("unsupported format: %s", f.format)
	}
}

// PrintEquipment prints the equipment codes
func (f *OutputFormatter) PrintEquipment(options []EquipmentOption) error {
	if f.quiet {
		for _, o := range options {
			fmt.Fprintln(f.out, o.Code)
		}
		return nil
	}

	switch f.format {
	case "json":
		return f.printJSON(options)
	case "table":
		w := tabwriter.NewWriter(f.out, 0, 0, 2, ' ', 0)
		defer w.Flush()

		fmt.Fprintln(w, "CODE\tDESCRIPTION")
		for _, o := range options {
			fmt.Fprintf(w, "%s\t%s\n", o.Code, o.Label)
		}
		return nil
	default:
		return fmt.Errorf("unsupported format: %s", f.format)
	}
}

// PrintSuccess prints a success message
func (f *OutputFormatter) PrintSuccess(message string) {
	if !f.quiet {
		fmt.Fprintln(f.out, f.styles.success.Render("✓ "+message))
	}
}

// PrintError prints an error message
func (f *OutputFormatter) PrintError(err error) {
	if !f.quiet {
		fmt.Fprintln(f.errOut, f.styles.failure.Render(fmt.Sprintf("✗ Error: %v", err)))
	}
}

// PrintInfo prints an informational message
func (f *OutputFormatter) PrintInfo(message string) {
	if !f.quiet {
		fmt.Fprintln(f.out, f.styles.muted.Render("ℹ "+message))
	}
}

func (f *OutputFormatter) printJSON(v interface{}) error {
	enc := json.NewEncoder(f.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printTariffsTable prints tariffs in table format
func (f *OutputFormatter) printTariffsTable(records []tariff.Record) error {
	if len(records) == 0 {
		fmt.Fprintln(f.out, "No tariffs found.")
		return nil
	}

	w := tabwriter.NewWriter(f.out, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "ID\tFORWARDER\tCARRIER\tROUTE\tEQUIPO\tALL-IN\tVALID UNTIL\tSTATE")
	for _, r := range records {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID,
			truncate(r.ForwarderName, 20),
			truncate(r.NavieraName, 15),
			r.Route(),
			r.Equipo,
			FormatAmount(r.AllIn),
			FormatDate(r.VigenciaFin),
			r.State)
	}

	return nil
}

// printTariffDetails prints a single tariff as labelled lines
func (f *OutputFormatter) printTariffDetails(r *tariff.Record) error {
	label := f.styles.label.Render
	fmt.Fprintf(f.out, "%s %d\n", label("Tariff ID:"), r.ID)
	fmt.Fprintf(f.out, "%s %s\n", label("Name:"), r.Name)
	fmt.Fprintf(f.out, "%s %s\n", label("State:"), f.styles.state(r.State))
	fmt.Fprintf(f.out, "%s %s (%d)\n", label("Forwarder:"), r.ForwarderName, r.ForwarderID)
	if r.NavieraID != 0 {
		fmt.Fprintf(f.out, "%s %s (%d)\n", label("Carrier:"), r.NavieraName, r.NavieraID)
	}
	fmt.Fprintf(f.out, "%s %s\n", label("Route:"), r.Route())
	if r.CountryID != "" {
		fmt.Fprintf(f.out, "%s %s\n", label("Country:"), r.CountryID)
	}
	fmt.Fprintf(f.out, "%s %s (%s)\n", label("Equipment:"), r.Equipo, r.Equipo.Label())
	fmt.Fprintf(f.out, "%s %s\n", label("Ocean freight:"), FormatAmount(r.OceanFreight))
	fmt.Fprintf(f.out, "%s %s\n", label("AMS/IMO:"), FormatAmount(r.AmsImo))
	fmt.Fprintf(f.out, "%s %s\n", label("Release/insurance:"), FormatAmount(r.LibSeguro))
	fmt.Fprintf(f.out, "%s %s\n", label("All-in:"), FormatAmount(r.AllIn))
	fmt.Fprintf(f.out, "%s %s\n", label("Transit days:"), FormatAmount(r.TransitTime))
	fmt.Fprintf(f.out, "%s %s\n", label("Free days:"), FormatAmount(r.Demoras))
	fmt.Fprintf(f.out, "%s %s\n", label("Tariff date:"), FormatDate(r.FechaTarifa))
	fmt.Fprintf(f.out, "%s %s\n", label("Valid until:"), FormatDate(r.VigenciaFin))
	if !r.CreatedAt.IsZero() {
		fmt.Fprintf(f.out, "%s %s\n", label("Created:"), r.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}

// truncate truncates a string to the specified length
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// FormatAmount renders a nullable amount with two decimals, or "-" for null
func FormatAmount(a tariff.Amount) string {
	if a.IsNull() {
		return "-"
	}
	return a.Decimal.StringFixed(2)
}

// FormatDate renders an optional date, or "-" when unset
func FormatDate(d *civil.Date) string {
	if d == nil {
		return "-"
	}
	return d.String()
}
