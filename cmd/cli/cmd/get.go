package cmd

import (
	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get <tariff-id>",
	Short: "Get tariff details by ID",
	Long:  `Get detailed information about a specific tariff by its ID.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runGet,
}

func init() {
	rootCmd.AddCommand(getCmd)
}

func runGet(cmd *cobra.Command, args []string) error {
	id, err := validateAndParseID(args[0])
	if err != nil {
		return err
	}

	_, formatter, client, err := initializeClient(cmd)
	if err != nil {
		return err
	}

	record, err := client.GetTariff(id)
	if err != nil {
		formatter.PrintError(err)
		return err
	}

	return formatter.PrintTariff(record)
}
