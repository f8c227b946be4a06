package tariff

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"
)

// Period is a calendar month (anio/mes)
type Period struct {
	Year  int `json:"anio"`
	Month int `json:"mes"`
}

// PeriodOf returns the period containing d
func PeriodOf(d civil.Date) Period {
	return Period{Year: d.Year, Month: int(d.Month)}
}

// PeriodAt returns the period containing t
func PeriodAt(t time.Time) Period {
	return PeriodOf(civil.DateOf(t))
}

// IsValid reports whether p names a real month
func (p Period) IsValid() bool {
	return p.Year > 0 && p.Month >= 1 && p.Month <= 12
}

// Before reports whether p is strictly earlier than o
func (p Period) Before(o Period) bool {
	if p.Year != o.Year {
		return p.Year < o.Year
	}
	return p.Month < o.Month
}

// Prev returns the preceding month
func (p Period) Prev() Period {
	if p.Month <= 1 {
		return Period{Year: p.Year - 1, Month: 12}
	}
	return Period{Year: p.Year, Month: p.Month - 1}
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}
