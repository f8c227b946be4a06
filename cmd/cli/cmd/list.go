package cmd

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	"tariff-dashboard/internal/tariff"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List tariffs matching a filter",
	Long: `List the tariffs matching the given filter flags. Every dashboard group
prints its filter in query form, which --where accepts directly:

  tariffs list --where 'equipo=40hc&state=active'

Flags given alongside --where override the matching parameters.`,
	RunE: runList,
}

var (
	listForwarder   int64
	listNaviera     int64
	listPOL         string
	listPOD         string
	listEquipo      string
	listCountry     string
	listAnio        int
	listMes         int
	listState       string
	listWhere       string
	listFields      string
	listInteractive bool
)

func init() {
	rootCmd.AddCommand(listCmd)

	addFilterFlags(listCmd, true)
	listCmd.Flags().StringVar(&listFields, "fields", "", "Comma separated columns for the interactive table")
	listCmd.Flags().BoolVarP(&listInteractive, "interactive", "i", false, "Browse results interactively")
}

func runList(cmd *cobra.Command, args []string) error {
	filter, err := buildListFilter(cmd)
	if err != nil {
		return err
	}

	cfg, formatter, client, err := initializeClient(cmd)
	if err != nil {
		return err
	}

	records, err := client.ListTariffs(filter)
	if err != nil {
		formatter.PrintError(err)
		return err
	}

	interactive := shouldUseInteractiveMode(cfg, listInteractive)
	if cmd.Flags().Changed("interactive") && !listInteractive {
		interactive = false
	}
	if interactive && len(records) > 0 {
		return runTariffBrowser(records, filter, client, listFields, cfg)
	}

	return formatter.PrintTariffs(records)
}

// addFilterFlags registers the tariff filter flags read by buildListFilter
func addFilterFlags(cmd *cobra.Command, withState bool) {
	flags := cmd.Flags()
	flags.Int64Var(&listForwarder, "forwarder", 0, "Forwarder ID")
	flags.Int64Var(&listNaviera, "naviera", 0, "Carrier (naviera) ID")
	flags.StringVar(&listPOL, "pol", "", "Port of loading code")
	flags.StringVar(&listPOD, "pod", "", "Port of discharge code")
	flags.StringVar(&listEquipo, "equipo", "", "Equipment code (see 'tariffs equipment')")
	flags.StringVar(&listCountry, "country", "", "Destination country code")
	flags.IntVar(&listAnio, "anio", 0, "Tariff year")
	flags.IntVar(&listMes, "mes", 0, "Tariff month (1-12)")
	if withState {
		flags.StringVar(&listState, "state", "", "Tariff state (active, expired)")
	}
	flags.StringVarP(&listWhere, "where", "w", "", "Filter in query form, as printed by the dashboard")
}

// buildListFilter parses --where and then applies the individual flags the
// user actually set
func buildListFilter(cmd *cobra.Command) (tariff.Filter, error) {
	values := url.Values{}
	if listWhere != "" {
		parsed, err := url.ParseQuery(listWhere)
		if err != nil {
			return tariff.Filter{}, fmt.Errorf("invalid --where: %w", err)
		}
		values = parsed
	}

	flags := cmd.Flags()
	set := func(flag, param, value string) {
		if flags.Changed(flag) {
			values.Set(param, value)
		}
	}
	set("forwarder", "forwarder_id", strconv.FormatInt(listForwarder, 10))
	set("naviera", "naviera_id", strconv.FormatInt(listNaviera, 10))
	set("pol", "pol", listPOL)
	set("pod", "pod", listPOD)
	set("equipo", "equipo", listEquipo)
	set("country", "country", listCountry)
	set("anio", "anio", strconv.Itoa(listAnio))
	set("mes", "mes", strconv.Itoa(listMes))
	set("state", "state", listState)

	return tariff.ParseFilter(values)
}
