// Package aggregator turns a flat collection of tariff records into the
// grouped statistics shown on the tariff dashboard.
//
// Every function here is pure: it only reads its input, never fails on empty
// input and is safe to call from concurrent goroutines. Results are rebuilt
// from scratch on every call.
package aggregator

import (
	"sort"

	"github.com/shopspring/decimal"

	"tariff-dashboard/internal/tariff"
)

// averagePlaces is the rounding applied to averages and percentages
const averagePlaces = 2

// DefaultMonths is the trend window used when none is requested
const DefaultMonths = 12

var hundred = decimal.NewFromInt(100)

// Field names a numeric tariff attribute that can be averaged
type Field string

const (
	FieldAllIn        Field = "all_in"
	FieldOceanFreight Field = "ocean_freight"
	FieldAmsImo       Field = "ams_imo"
	FieldLibSeguro    Field = "lib_seguro"
	FieldTransitTime  Field = "transit_time"
	FieldDemoras      Field = "demoras"
)

// DashboardFields are the averages reported in a snapshot
var DashboardFields = []Field{
	FieldAllIn, FieldOceanFreight, FieldAmsImo, FieldTransitTime, FieldDemoras,
}

// Value extracts the field from r. Unknown fields are always null.
func (f Field) Value(r tariff.Record) tariff.Amount {
	switch f {
	case FieldAllIn:
		return r.AllIn
	case FieldOceanFreight:
		return r.OceanFreight
	case FieldAmsImo:
		return r.AmsImo
	case FieldLibSeguro:
		return r.LibSeguro
	case FieldTransitTime:
		return r.TransitTime
	case FieldDemoras:
		return r.Demoras
	default:
		return tariff.Amount{}
	}
}

// Totals counts records by state
type Totals struct {
	Total   int `json:"total"`
	Active  int `json:"active"`
	Expired int `json:"expired"`
	Other   int `json:"other"`
}

// GroupSummary is one row of a grouped ranking
type GroupSummary struct {
	Key      tariff.Filter   `json:"key"`
	Label    string          `json:"label"`
	Count    int             `json:"count"`
	AvgAllIn decimal.Decimal `json:"avg_all_in"`
}

// SummarizeTotals counts records by state
func SummarizeTotals(records []tariff.Record) Totals {
	totals := Totals{Total: len(records)}
	for _, r := range records {
		switch r.State {
		case tariff.StateActive:
			totals.Active++
		case tariff.StateExpired:
			totals.Expired++
		default:
			totals.Other++
		}
	}
	return totals
}

// mean accumulates a running average over non-null values
type mean struct {
	sum decimal.Decimal
	n   int64
}

func (m *mean) add(a tariff.Amount) {
	if a.IsNull() {
		return
	}
	m.sum = m.sum.Add(a.Decimal)
	m.n++
}

func (m mean) value() decimal.Decimal {
	if m.n == 0 {
		return decimal.Zero
	}
	return m.sum.Div(decimal.NewFromInt(m.n)).Round(averagePlaces)
}

// SummarizeAverages averages each field over active records where it is set.
// Fields with no values average to zero.
func SummarizeAverages(records []tariff.Record, fields []Field) map[Field]decimal.Decimal {
	means := make(map[Field]*mean, len(fields))
	for _, f := range fields {
		means[f] = &mean{}
	}

	for _, r := range records {
		if !r.State.IsActive() {
			continue
		}
		for f, m := range means {
			m.add(f.Value(r))
		}
	}

	out := make(map[Field]decimal.Decimal, len(fields))
	for f, m := range means {
		out[f] = m.value()
	}
	return out
}

// KeyFunc extracts the grouping key of a record. ok is false when the record
// has no value for the dimension; such records are left out of the ranking.
type KeyFunc func(r tariff.Record) (key tariff.Filter, label string, ok bool)

// TieBreak orders two groups with equal counts; it reports whether a ranks first.
// A nil TieBreak keeps first-seen order.
type TieBreak func(a, b GroupSummary) bool

// CheapestFirst ranks the lower average all-in price first
func CheapestFirst(a, b GroupSummary) bool {
	return a.AvgAllIn.LessThan(b.AvgAllIn)
}

type group struct {
	key   tariff.Filter
	label string
	count int
	price mean
}

// groupActive buckets active records by key in first-seen order
func groupActive(records []tariff.Record, key KeyFunc) []*group {
	index := make(map[tariff.Filter]*group)
	var ordered []*group

	for _, r := range records {
		if !r.State.IsActive() {
			continue
		}
		k, label, ok := key(r)
		if !ok {
			continue
		}
		g, exists := index[k]
		if !exists {
			g = &group{key: k, label: label}
			index[k] = g
			ordered = append(ordered, g)
		}
		g.count++
		g.price.add(r.AllIn)
	}
	return ordered
}

// summary pins the key to active tariffs so it lists exactly the counted records
func (g *group) summary() GroupSummary {
	key := g.key
	key.State = tariff.StateActive
	return GroupSummary{
		Key:      key,
		Label:    g.label,
		Count:    g.count,
		AvgAllIn: g.price.value(),
	}
}

// TopByDimension groups active records by key and ranks the groups by count,
// descending. n limits the result; n == 0 returns nothing and n < 0 returns
// every group.
func TopByDimension(records []tariff.Record, key KeyFunc, n int, tieBreak TieBreak) []GroupSummary {
	if n == 0 {
		return []GroupSummary{}
	}

	groups := groupActive(records, key)
	out := make([]GroupSummary, len(groups))
	for i, g := range groups {
		out[i] = g.summary()
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		if tieBreak != nil {
			return tieBreak(out[i], out[j])
		}
		return false
	})

	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// MonthlyTrend groups active records by period in ascending order, keeping the
// most recent months periods. months <= 0 uses DefaultMonths.
func MonthlyTrend(records []tariff.Record, months int) []GroupSummary {
	if months <= 0 {
		months = DefaultMonths
	}

	trend := fullTrend(records)
	if len(trend) > months {
		trend = trend[len(trend)-months:]
	}
	return trend
}

func fullTrend(records []tariff.Record) []GroupSummary {
	groups := groupActive(records, ByPeriod)
	out := make([]GroupSummary, len(groups))
	for i, g := range groups {
		out[i] = g.summary()
	}

	sort.Slice(out, func(i, j int) bool {
		a := tariff.Period{Year: out[i].Key.Anio, Month: out[i].Key.Mes}
		b := tariff.Period{Year: out[j].Key.Anio, Month: out[j].Key.Mes}
		return a.Before(b)
	})
	return out
}

// PeriodOverPeriodVariation returns (current - previous) / previous * 100.
// The result is invalid (the "no prior data" value) when previous is zero.
func PeriodOverPeriodVariation(current, previous decimal.Decimal) decimal.NullDecimal {
	if previous.IsZero() {
		return decimal.NullDecimal{}
	}
	pct := current.Sub(previous).Div(previous).Mul(hundred).Round(averagePlaces)
	return decimal.NewNullDecimal(pct)
}
