package cmd

import (
	"github.com/spf13/cobra"

	cliapi "tariff-dashboard/internal/cli"
)

var dashboardCmd = &cobra.Command{
	Use:     "dashboard",
	Aliases: []string{"dash", "d"},
	Short:   "Show the tariff dashboard",
	Long: `Show the aggregated dashboard: totals by state, global averages, tariffs by
equipment, top forwarders, carriers, routes and countries, the monthly trend
of active tariffs, month-over-month variation and alerts.

Every group prints the filter that lists its tariffs. With --interactive the
groups are browsable and enter opens the matching tariffs.`,
	RunE: runDashboard,
}

var (
	dashboardRefresh     bool
	dashboardInteractive bool
	dashboardFields      string
)

func init() {
	rootCmd.AddCommand(dashboardCmd)

	dashboardCmd.Flags().BoolVarP(&dashboardRefresh, "refresh", "r", false, "Rebuild the snapshot instead of using the cached one")
	dashboardCmd.Flags().BoolVarP(&dashboardInteractive, "interactive", "i", false, "Browse dashboard groups and drill into their tariffs")
	dashboardCmd.Flags().StringVar(&dashboardFields, "fields", "", "Comma separated columns for the drill-down tariff table")
}

func runDashboard(cmd *cobra.Command, args []string) error {
	cfg, formatter, client, err := initializeClient(cmd)
	if err != nil {
		return err
	}

	var spinner *cliapi.ProgressSpinner
	if cfg.Format == "table" && !cfg.Quiet {
		spinner = cliapi.NewProgressSpinner("Building dashboard", cfg.NoColor)
		spinner.Start()
	}

	snap, err := client.GetDashboard(dashboardRefresh)
	if spinner != nil {
		spinner.Stop()
	}
	if err != nil {
		formatter.PrintError(err)
		return err
	}

	if dashboardInteractive {
		return runDashboardBrowser(snap, client, dashboardFields, cfg)
	}

	return formatter.PrintDashboard(snap)
}
