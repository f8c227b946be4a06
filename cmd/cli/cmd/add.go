package cmd

import (
	"fmt"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/spf13/cobra"

	"tariff-dashboard/internal/tariff"
)

var addCmd = &cobra.Command{
	Use:     "add",
	Aliases: []string{"a", "create"},
	Short:   "Add a new tariff",
	Long: `Add a tariff to the catalog. The forwarder and carrier may be given by ID
or by name; unknown names are registered. The all-in total defaults to ocean
freight plus AMS/IMO plus release/insurance, and the state is derived from the
validity end date.`,
	Example: `  tariffs add --forwarder "Acme Logistics" --naviera Maersk --pol CNSHA --pod CLSAI \
    --equipo 40hc --ocean-freight 1850 --ams-imo 35 --lib-seguro 120 \
    --fecha 2026-10-01 --vigencia 2026-10-31`,
	RunE: runAdd,
}

var (
	addForwarderID  int64
	addForwarder    string
	addNavieraID    int64
	addNaviera      string
	addPOL          string
	addPOD          string
	addCountry      string
	addEquipo       string
	addOceanFreight string
	addAmsImo       string
	addLibSeguro    string
	addAllIn        string
	addTransit      string
	addDemoras      string
	addFecha        string
	addVigencia     string
)

func init() {
	rootCmd.AddCommand(addCmd)

	addCmd.Flags().Int64Var(&addForwarderID, "forwarder-id", 0, "Forwarder ID")
	addCmd.Flags().StringVar(&addForwarder, "forwarder", "", "Forwarder name")
	addCmd.Flags().Int64Var(&addNavieraID, "naviera-id", 0, "Carrier (naviera) ID")
	addCmd.Flags().StringVar(&addNaviera, "naviera", "", "Carrier (naviera) name")
	addCmd.Flags().StringVar(&addPOL, "pol", "", "Port of loading code (required)")
	addCmd.Flags().StringVar(&addPOD, "pod", "", "Port of discharge code (required)")
	addCmd.Flags().StringVar(&addCountry, "country", "", "Destination country code")
	addCmd.Flags().StringVarP(&addEquipo, "equipo", "e", "", "Equipment code (default 40hc)")
	addCmd.Flags().StringVar(&addOceanFreight, "ocean-freight", "", "Ocean freight amount")
	addCmd.Flags().StringVar(&addAmsImo, "ams-imo", "", "AMS/IMO surcharge")
	addCmd.Flags().StringVar(&addLibSeguro, "lib-seguro", "", "Release and insurance surcharge")
	addCmd.Flags().StringVar(&addAllIn, "all-in", "", "All-in total (computed when omitted)")
	addCmd.Flags().StringVar(&addTransit, "transit", "", "Transit time in days")
	addCmd.Flags().StringVar(&addDemoras, "demoras", "", "Free demurrage days")
	addCmd.Flags().StringVar(&addFecha, "fecha", "", "Tariff date (YYYY-MM-DD)")
	addCmd.Flags().StringVar(&addVigencia, "vigencia", "", "Validity end date (YYYY-MM-DD)")

	addCmd.MarkFlagRequired("pol")
	addCmd.MarkFlagRequired("pod")
	addCmd.MarkFlagsMutuallyExclusive("forwarder-id", "forwarder")
	addCmd.MarkFlagsMutuallyExclusive("naviera-id", "naviera")
	addCmd.MarkFlagsOneRequired("forwarder-id", "forwarder")
}

func runAdd(cmd *cobra.Command, args []string) error {
	record, err := buildTariffRecord()
	if err != nil {
		return err
	}

	cfg, formatter, client, err := initializeClient(cmd)
	if err != nil {
		return err
	}

	created, err := client.CreateTariff(record)
	if err != nil {
		formatter.PrintError(err)
		return err
	}

	if !cfg.Quiet {
		formatter.PrintSuccess("Tariff added successfully")
	}
	return formatter.PrintTariff(created)
}

// buildTariffRecord turns the add flags into a record. Amounts are strict
// here: a typo on the command line is an error rather than a null.
func buildTariffRecord() (*tariff.Record, error) {
	record := &tariff.Record{
		ForwarderID:   addForwarderID,
		ForwarderName: strings.TrimSpace(addForwarder),
		NavieraID:     addNavieraID,
		NavieraName:   strings.TrimSpace(addNaviera),
		POL:           strings.ToUpper(strings.TrimSpace(addPOL)),
		POD:           strings.ToUpper(strings.TrimSpace(addPOD)),
		CountryID:     strings.ToUpper(strings.TrimSpace(addCountry)),
		Equipo:        tariff.Equipment(strings.ToLower(strings.TrimSpace(addEquipo))),
	}

	if record.Equipo != "" && !record.Equipo.IsValid() {
		return nil, fmt.Errorf("unknown equipment code %q (see 'tariffs equipment')", addEquipo)
	}

	amounts := []struct {
		flag  string
		value string
		dest  *tariff.Amount
	}{
		{"ocean-freight", addOceanFreight, &record.OceanFreight},
		{"ams-imo", addAmsImo, &record.AmsImo},
		{"lib-seguro", addLibSeguro, &record.LibSeguro},
		{"all-in", addAllIn, &record.AllIn},
		{"transit", addTransit, &record.TransitTime},
		{"demoras", addDemoras, &record.Demoras},
	}
	for _, a := range amounts {
		if strings.TrimSpace(a.value) == "" {
			continue
		}
		amount := tariff.ParseAmount(a.value)
		if amount.IsNull() {
			return nil, fmt.Errorf("invalid --%s %q: must be a number", a.flag, a.value)
		}
		*a.dest = amount
	}

	var err error
	if record.FechaTarifa, err = parseDateFlag("fecha", addFecha); err != nil {
		return nil, err
	}
	if record.VigenciaFin, err = parseDateFlag("vigencia", addVigencia); err != nil {
		return nil, err
	}

	return record, nil
}

func parseDateFlag(flag, value string) (*civil.Date, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	d, err := civil.ParseDate(strings.TrimSpace(value))
	if err != nil {
		return nil, fmt.Errorf("invalid --%s %q: expected YYYY-MM-DD", flag, value)
	}
	return &d, nil
}
