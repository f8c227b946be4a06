package tariff

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount is a nullable numeric tariff field (money, days).
//
// Decoding is lenient: JSON null, false (the value the catalog backend sends for
// empty numeric fields), empty strings and anything that does not parse as a
// number all decode to a null Amount instead of failing the whole record.
type Amount struct {
	decimal.NullDecimal
}

// NewAmount returns a valid Amount holding d
func NewAmount(d decimal.Decimal) Amount {
	return Amount{decimal.NewNullDecimal(d)}
}

// AmountFromFloat returns a valid Amount holding f
func AmountFromFloat(f float64) Amount {
	return NewAmount(decimal.NewFromFloat(f))
}

// ParseAmount parses s, returning a null Amount when s is not numeric
func ParseAmount(s string) Amount {
	s = strings.TrimSpace(s)
	if s == "" {
		return Amount{}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}
	}
	return NewAmount(d)
}

// IsNull reports whether the amount carries no value
func (a Amount) IsNull() bool {
	return !a.Valid
}

// UnmarshalJSON implements json.Unmarshaler. It never returns an error.
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0, bytes.Equal(data, []byte("null")), bytes.Equal(data, []byte("false")), bytes.Equal(data, []byte("true")):
		*a = Amount{}
		return nil
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			*a = Amount{}
			return nil
		}
		*a = ParseAmount(s)
		return nil
	default:
		*a = ParseAmount(string(data))
		return nil
	}
}

// Sum adds the valid amounts. The result is null only when every input is null.
func Sum(amounts ...Amount) Amount {
	total := decimal.Zero
	seen := false
	for _, a := range amounts {
		if !a.Valid {
			continue
		}
		total = total.Add(a.Decimal)
		seen = true
	}
	if !seen {
		return Amount{}
	}
	return NewAmount(total)
}
