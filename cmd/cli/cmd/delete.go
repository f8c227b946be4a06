package cmd

import (
	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:     "delete <tariff-id>",
	Aliases: []string{"del", "rm"},
	Short:   "Delete a tariff",
	Long:    `Delete a tariff from the catalog. The dashboard is rebuilt on its next request.`,
	Args:    cobra.ExactArgs(1),
	RunE:    runDelete,
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}

func runDelete(cmd *cobra.Command, args []string) error {
	id, err := validateAndParseID(args[0])
	if err != nil {
		return err
	}

	cfg, formatter, client, err := initializeClient(cmd)
	if err != nil {
		return err
	}

	if err := client.DeleteTariff(id); err != nil {
		formatter.PrintError(err)
		return err
	}

	if !cfg.Quiet {
		formatter.PrintSuccess("Tariff deleted successfully")
	}

	return nil
}
