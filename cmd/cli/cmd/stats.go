package cmd

import (
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show tariff counts per state",
	Long:  `Show the number of tariffs and their average all-in per state, computed by the database.`,
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	_, formatter, client, err := initializeClient(cmd)
	if err != nil {
		return err
	}

	groups, err := client.GetTariffStats()
	if err != nil {
		formatter.PrintError(err)
		return err
	}

	return formatter.PrintStateGroups(groups)
}
