package aggregator

import (
	"time"

	"github.com/shopspring/decimal"

	"tariff-dashboard/internal/tariff"
)

// Variation compares the current month with the one before it
type Variation struct {
	Current  tariff.Period       `json:"current"`
	Previous tariff.Period       `json:"previous"`
	Count    decimal.NullDecimal `json:"count"`
	AvgAllIn decimal.NullDecimal `json:"avg_all_in"`
}

// MonthOverMonth computes the variation between the period containing now and
// the preceding one. A side without data counts as zero.
func MonthOverMonth(records []tariff.Record, now time.Time) Variation {
	current := tariff.PeriodAt(now)
	previous := current.Prev()

	var cur, prev GroupSummary
	for _, g := range fullTrend(records) {
		switch (tariff.Period{Year: g.Key.Anio, Month: g.Key.Mes}) {
		case current:
			cur = g
		case previous:
			prev = g
		}
	}

	return Variation{
		Current:  current,
		Previous: previous,
		Count:    PeriodOverPeriodVariation(decimal.NewFromInt(int64(cur.Count)), decimal.NewFromInt(int64(prev.Count))),
		AvgAllIn: PeriodOverPeriodVariation(cur.AvgAllIn, prev.AvgAllIn),
	}
}

// Options controls snapshot construction
type Options struct {
	Now    time.Time
	TopN   int
	Months int
	Alerts AlertOptions
}

// DefaultOptions returns the dashboard defaults: top 5 rankings, a 12 month
// trend, expiry alerts one week ahead and price alerts above 10%.
func DefaultOptions(now time.Time) Options {
	return Options{
		Now:    now,
		TopN:   5,
		Months: DefaultMonths,
		Alerts: AlertOptions{
			ExpiringWithinDays: 7,
			PriceIncreasePct:   decimal.NewFromInt(10),
		},
	}
}

// Snapshot is the full dashboard state at one point in time. Snapshots are
// never modified after publication; a refresh produces a new one.
type Snapshot struct {
	ID            string                    `json:"id"`
	GeneratedAt   time.Time                 `json:"generated_at"`
	Resumen       Totals                    `json:"resumen"`
	Promedios     map[Field]decimal.Decimal `json:"promedios"`
	ByEquipment   []GroupSummary            `json:"by_equipment"`
	TopForwarders []GroupSummary            `json:"top_forwarders"`
	TopCarriers   []GroupSummary            `json:"top_carriers"`
	TopRoutes     []GroupSummary            `json:"top_routes"`
	TopCountries  []GroupSummary            `json:"top_countries"`
	MonthlyTrend  []GroupSummary            `json:"monthly_trend"`
	Variation     Variation                 `json:"variation"`
	Alerts        []Alert                   `json:"alerts"`
}

// Build aggregates records into a snapshot. The ID is left for the caller to assign.
func Build(records []tariff.Record, opts Options) *Snapshot {
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}

	totals := SummarizeTotals(records)
	variation := MonthOverMonth(records, opts.Now)

	return &Snapshot{
		GeneratedAt:   opts.Now,
		Resumen:       totals,
		Promedios:     SummarizeAverages(records, DashboardFields),
		ByEquipment:   TopByDimension(records, ByEquipment, -1, nil),
		TopForwarders: TopByDimension(records, ByForwarder, opts.TopN, CheapestFirst),
		TopCarriers:   TopByDimension(records, ByCarrier, opts.TopN, CheapestFirst),
		TopRoutes:     TopByDimension(records, ByRoute, opts.TopN, nil),
		TopCountries:  TopByDimension(records, ByCountry, opts.TopN, nil),
		MonthlyTrend:  MonthlyTrend(records, opts.Months),
		Variation:     variation,
		Alerts:        Alerts(records, totals, variation, opts.Now, opts.Alerts),
	}
}
