// Package tariff defines the freight tariff catalog model shared by the store,
// the aggregator and the API.
package tariff

import (
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// State is the validity state of a tariff
type State string

const (
	StateActive  State = "active"
	StateExpired State = "expired"
)

// IsActive reports whether the tariff is currently valid
func (s State) IsActive() bool {
	return s == StateActive
}

// StateAt derives the state of a tariff valid until validUntil, as seen on today.
// A tariff without a validity end never expires.
func StateAt(validUntil *civil.Date, today civil.Date) State {
	if validUntil != nil && validUntil.Before(today) {
		return StateExpired
	}
	return StateActive
}

// Record is one priced freight lane offer
type Record struct {
	ID            int64       `json:"id"`
	Name          string      `json:"name"`
	State         State       `json:"state"`
	ForwarderID   int64       `json:"forwarder_id"`
	ForwarderName string      `json:"forwarder_name,omitempty"`
	NavieraID     int64       `json:"naviera_id,omitempty"`
	NavieraName   string      `json:"naviera_name,omitempty"`
	POL           string      `json:"pol_id"`
	POD           string      `json:"pod_id"`
	CountryID     string      `json:"country_id,omitempty"`
	Equipo        Equipment   `json:"equipo"`
	OceanFreight  Amount      `json:"ocean_freight"`
	AmsImo        Amount      `json:"ams_imo"`
	LibSeguro     Amount      `json:"lib_seguro"`
	AllIn         Amount      `json:"all_in"`
	TransitTime   Amount      `json:"transit_time"`
	Demoras       Amount      `json:"demoras"`
	VigenciaFin   *civil.Date `json:"vigencia_fin,omitempty"`
	FechaTarifa   *civil.Date `json:"fecha_tarifa,omitempty"`
	Anio          int         `json:"anio,omitempty"`
	Mes           int         `json:"mes,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
}

// Period returns the record's year/month. Explicit anio/mes wins over the
// tariff date.
func (r Record) Period() (Period, bool) {
	p := Period{Year: r.Anio, Month: r.Mes}
	if p.IsValid() {
		return p, true
	}
	if r.FechaTarifa != nil && r.FechaTarifa.IsValid() {
		return PeriodOf(*r.FechaTarifa), true
	}
	return Period{}, false
}

// Route returns the "POL-POD" lane label
func (r Record) Route() string {
	return r.POL + "-" + r.POD
}

// Normalize fills the computed fields: all-in total, period, state and reference name.
// Values already present are kept, except the name which is always recomputed.
// Port and country codes are trimmed and upper-cased so they match the keys
// the dashboard groups by.
func (r *Record) Normalize(today civil.Date) {
	r.POL = normalizeCode(r.POL)
	r.POD = normalizeCode(r.POD)
	r.CountryID = normalizeCode(r.CountryID)

	if r.AllIn.IsNull() {
		r.AllIn = Sum(r.OceanFreight, r.AmsImo, r.LibSeguro)
	}

	explicit := Period{Year: r.Anio, Month: r.Mes}
	if !explicit.IsValid() && r.FechaTarifa != nil && r.FechaTarifa.IsValid() {
		r.Anio = r.FechaTarifa.Year
		r.Mes = int(r.FechaTarifa.Month)
	}

	if r.State == "" {
		r.State = StateAt(r.VigenciaFin, today)
	}

	if r.Equipo == "" {
		r.Equipo = DefaultEquipment
	}

	r.Name = r.referenceName()
}

func normalizeCode(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func (r Record) referenceName() string {
	period := ""
	if r.FechaTarifa != nil && r.FechaTarifa.IsValid() {
		period = fmt.Sprintf("%04d-%02d", r.FechaTarifa.Year, int(r.FechaTarifa.Month))
	}
	return fmt.Sprintf("%s | %s-%s (%s)", r.ForwarderName, r.POL, r.POD, period)
}
