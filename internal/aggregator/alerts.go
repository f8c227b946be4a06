package aggregator

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"tariff-dashboard/internal/tariff"
)

// Alert kinds
const (
	AlertExpiringSoon    = "expiring_soon"
	AlertPriceIncrease   = "price_increase"
	AlertNoActiveTariffs = "no_active_tariffs"
)

// Alert severities
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Alert is a condition worth surfacing on the dashboard
type Alert struct {
	Kind     string        `json:"kind"`
	Severity string        `json:"severity"`
	Message  string        `json:"message"`
	Count    int           `json:"count,omitempty"`
	Filter   tariff.Filter `json:"filter"`
}

// AlertOptions tunes alert thresholds. Zero values disable the matching alert.
type AlertOptions struct {
	ExpiringWithinDays int
	PriceIncreasePct   decimal.Decimal
}

// ExpiringWithin counts active tariffs whose validity ends between today and
// today+days inclusive
func ExpiringWithin(records []tariff.Record, today civil.Date, days int) int {
	if days <= 0 {
		return 0
	}
	limit := today.AddDays(days)
	count := 0
	for _, r := range records {
		if !r.State.IsActive() || r.VigenciaFin == nil {
			continue
		}
		end := *r.VigenciaFin
		if end.Before(today) || end.After(limit) {
			continue
		}
		count++
	}
	return count
}

// Alerts evaluates alert conditions against a record set and its variation
func Alerts(records []tariff.Record, totals Totals, variation Variation, now time.Time, opts AlertOptions) []Alert {
	alerts := []Alert{}

	if totals.Total > 0 && totals.Active == 0 {
		alerts = append(alerts, Alert{
			Kind:     AlertNoActiveTariffs,
			Severity: SeverityCritical,
			Message:  fmt.Sprintf("None of the %d tariffs in the catalog is currently valid", totals.Total),
			Filter:   tariff.Filter{State: tariff.StateExpired},
		})
	}

	if n := ExpiringWithin(records, civil.DateOf(now), opts.ExpiringWithinDays); n > 0 {
		alerts = append(alerts, Alert{
			Kind:     AlertExpiringSoon,
			Severity: SeverityWarning,
			Message:  fmt.Sprintf("%d tariffs expire within %d days", n, opts.ExpiringWithinDays),
			Count:    n,
			Filter:   tariff.Filter{State: tariff.StateActive},
		})
	}

	if opts.PriceIncreasePct.IsPositive() && variation.AvgAllIn.Valid &&
		variation.AvgAllIn.Decimal.GreaterThanOrEqual(opts.PriceIncreasePct) {
		alerts = append(alerts, Alert{
			Kind:     AlertPriceIncrease,
			Severity: SeverityInfo,
			Message: fmt.Sprintf("Average all-in price rose %s%% from %s to %s",
				variation.AvgAllIn.Decimal.StringFixed(averagePlaces), variation.Previous, variation.Current),
			Filter: tariff.Filter{Anio: variation.Current.Year, Mes: variation.Current.Month},
		})
	}

	return alerts
}
