package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// topDimensions lists the groupings the server accepts
var topDimensions = []string{"forwarder", "carrier", "route", "equipment", "country", "period"}

var topCmd = &cobra.Command{
	Use:   "top <dimension>",
	Short: "Rank active tariffs by a dimension",
	Long: `Rank active tariffs by forwarder, carrier, route, equipment, country or
period. Groups are ordered by tariff count; "period" returns the monthly trend
in chronological order instead. The list filter flags and --where narrow the
tariffs before grouping.`,
	Example: `  tariffs top forwarder -n 10
  tariffs top route --equipo 40hc
  tariffs top period --where 'country=CL'`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: topDimensions,
	RunE:      runTop,
}

var topN int

func init() {
	rootCmd.AddCommand(topCmd)

	topCmd.Flags().IntVarP(&topN, "limit", "n", 0, "Number of groups (server default when 0, negative for all)")
	addFilterFlags(topCmd, false)
}

func runTop(cmd *cobra.Command, args []string) error {
	dimension := strings.ToLower(args[0])
	if !isTopDimension(dimension) {
		return fmt.Errorf("unknown dimension %q (must be one of: %s)", args[0], strings.Join(topDimensions, ", "))
	}

	filter, err := buildListFilter(cmd)
	if err != nil {
		return err
	}

	_, formatter, client, err := initializeClient(cmd)
	if err != nil {
		return err
	}

	groups, err := client.GetTopGroups(dimension, topN, filter)
	if err != nil {
		formatter.PrintError(err)
		return err
	}

	return formatter.PrintGroups(groups)
}

func isTopDimension(s string) bool {
	for _, d := range topDimensions {
		if d == s {
			return true
		}
	}
	return false
}
