package aggregator

import (
	"strconv"
	"strings"

	"tariff-dashboard/internal/tariff"
)

// ByForwarder groups by forwarding company
func ByForwarder(r tariff.Record) (tariff.Filter, string, bool) {
	if r.ForwarderID == 0 {
		return tariff.Filter{}, "", false
	}
	return tariff.Filter{ForwarderID: r.ForwarderID}, partnerLabel(r.ForwarderName, r.ForwarderID), true
}

// ByCarrier groups by shipping line (naviera)
func ByCarrier(r tariff.Record) (tariff.Filter, string, bool) {
	if r.NavieraID == 0 {
		return tariff.Filter{}, "", false
	}
	return tariff.Filter{NavieraID: r.NavieraID}, partnerLabel(r.NavieraName, r.NavieraID), true
}

// ByRoute groups by port pair. Port codes compare case-insensitively.
func ByRoute(r tariff.Record) (tariff.Filter, string, bool) {
	pol := strings.ToUpper(strings.TrimSpace(r.POL))
	pod := strings.ToUpper(strings.TrimSpace(r.POD))
	if pol == "" || pod == "" {
		return tariff.Filter{}, "", false
	}
	return tariff.Filter{POL: pol, POD: pod}, pol + " → " + pod, true
}

// ByEquipment groups by container type
func ByEquipment(r tariff.Record) (tariff.Filter, string, bool) {
	if r.Equipo == "" {
		return tariff.Filter{}, "", false
	}
	return tariff.Filter{Equipo: r.Equipo}, r.Equipo.Label(), true
}

// ByCountry groups by destination country
func ByCountry(r tariff.Record) (tariff.Filter, string, bool) {
	country := strings.ToUpper(strings.TrimSpace(r.CountryID))
	if country == "" {
		return tariff.Filter{}, "", false
	}
	return tariff.Filter{CountryID: country}, country, true
}

// ByPeriod groups by tariff month
func ByPeriod(r tariff.Record) (tariff.Filter, string, bool) {
	p, ok := r.Period()
	if !ok {
		return tariff.Filter{}, "", false
	}
	return tariff.Filter{Anio: p.Year, Mes: p.Month}, p.String(), true
}

func partnerLabel(name string, id int64) string {
	if name != "" {
		return name
	}
	return "#" + strconv.FormatInt(id, 10)
}
