package cmd

import (
	"github.com/spf13/cobra"
)

var equipmentCmd = &cobra.Command{
	Use:     "equipment",
	Aliases: []string{"equipo"},
	Short:   "List equipment codes",
	Long:    `List the container equipment codes accepted by --equipo and their display names.`,
	Args:    cobra.NoArgs,
	RunE:    runEquipment,
}

func init() {
	rootCmd.AddCommand(equipmentCmd)
}

func runEquipment(cmd *cobra.Command, args []string) error {
	_, formatter, client, err := initializeClient(cmd)
	if err != nil {
		return err
	}

	options, err := client.GetEquipment()
	if err != nil {
		formatter.PrintError(err)
		return err
	}

	return formatter.PrintEquipment(options)
}
