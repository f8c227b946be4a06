package cmd

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	cliapi "tariff-dashboard/internal/cli"
	"tariff-dashboard/internal/tariff"
)

// defaultFields represents the default fields to display in the table
var defaultFields = []string{"id", "forwarder", "carrier", "route", "equipo", "all_in", "valid_until", "state"}

// availableFields maps field names to their display names
var availableFields = map[string]string{
	"id":            "ID",
	"name":          "NAME",
	"forwarder":     "FORWARDER",
	"carrier":       "CARRIER",
	"route":         "ROUTE",
	"country":       "COUNTRY",
	"equipo":        "EQUIPO",
	"ocean_freight": "OCEAN FREIGHT",
	"ams_imo":       "AMS/IMO",
	"lib_seguro":    "LIB/SEGURO",
	"all_in":        "ALL-IN",
	"transit_time":  "TRANSIT",
	"demoras":       "FREE DAYS",
	"period":        "PERIOD",
	"valid_until":   "VALID UNTIL",
	"state":         "STATE",
}

// parseFields parses the fields flag and returns a slice of field names
func parseFields(fieldsFlag string) []string {
	if fieldsFlag == "" {
		return defaultFields
	}

	fields := strings.Split(fieldsFlag, ",")
	result := make([]string, 0, len(fields))

	for _, field := range fields {
		trimmed := strings.ToLower(strings.TrimSpace(field))
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

// validateFields validates that all provided fields are valid
func validateFields(fields []string) error {
	var invalid []string

	for _, field := range fields {
		if _, exists := availableFields[field]; !exists {
			invalid = append(invalid, field)
		}
	}

	if len(invalid) > 0 {
		return fmt.Errorf("invalid field(s): %s. Available fields: %s",
			strings.Join(invalid, ", "),
			strings.Join(getAvailableFieldNames(), ", "))
	}

	return nil
}

// getFieldDisplayName returns the display name for a field
func getFieldDisplayName(field string) string {
	if displayName, exists := availableFields[field]; exists {
		return displayName
	}
	return field
}

// getAvailableFieldNames returns all available field names in sorted order
func getAvailableFieldNames() []string {
	names := make([]string, 0, len(availableFields))
	for name := range availableFields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// getFieldValue returns the display value for a specific field of a tariff
func getFieldValue(r tariff.Record, field string) string {
	switch field {
	case "id":
		return strconv.FormatInt(r.ID, 10)
	case "name":
		return r.Name
	case "forwarder":
		return r.ForwarderName
	case "carrier":
		return r.NavieraName
	case "route":
		return r.Route()
	case "country":
		return r.CountryID
	case "equipo":
		return string(r.Equipo)
	case "ocean_freight":
		return cliapi.FormatAmount(r.OceanFreight)
	case "ams_imo":
		return cliapi.FormatAmount(r.AmsImo)
	case "lib_seguro":
		return cliapi.FormatAmount(r.LibSeguro)
	case "all_in":
		return cliapi.FormatAmount(r.AllIn)
	case "transit_time":
		return cliapi.FormatAmount(r.TransitTime)
	case "demoras":
		return cliapi.FormatAmount(r.Demoras)
	case "period":
		if p, ok := r.Period(); ok {
			return p.String()
		}
		return "-"
	case "valid_until":
		return cliapi.FormatDate(r.VigenciaFin)
	case "state":
		return string(r.State)
	default:
		return ""
	}
}
