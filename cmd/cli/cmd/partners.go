package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"tariff-dashboard/internal/database"
)

var partnersCmd = &cobra.Command{
	Use:   "partners",
	Short: "List forwarders and carriers",
	Long:  `List the forwarders and carriers (navieras) known to the catalog, with the IDs the filter flags expect.`,
	Args:  cobra.NoArgs,
	RunE:  runPartners,
}

var partnersKind string

func init() {
	rootCmd.AddCommand(partnersCmd)

	partnersCmd.Flags().StringVarP(&partnersKind, "kind", "k", "", "Only list one kind (forwarder, naviera)")
}

func runPartners(cmd *cobra.Command, args []string) error {
	kind, err := parsePartnerKind(partnersKind)
	if err != nil {
		return err
	}

	_, formatter, client, err := initializeClient(cmd)
	if err != nil {
		return err
	}

	partners, err := client.GetPartners(kind)
	if err != nil {
		formatter.PrintError(err)
		return err
	}

	return formatter.PrintPartners(partners)
}

func parsePartnerKind(s string) (database.PartnerKind, error) {
	switch s {
	case "":
		return "", nil
	case "forwarder", "forwarders":
		return database.PartnerForwarder, nil
	case "naviera", "navieras", "carrier", "carriers":
		return database.PartnerNaviera, nil
	}
	return "", fmt.Errorf("invalid kind %q (must be forwarder or naviera)", s)
}
