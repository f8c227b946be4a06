package tariff

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Filter selects tariffs. Zero-valued fields are ignored.
//
// Filter is comparable so it doubles as the grouping key of dashboard
// summaries: a group's key is exactly the filter that lists its tariffs.
type Filter struct {
	ForwarderID int64     `json:"forwarder_id,omitempty"`
	NavieraID   int64     `json:"naviera_id,omitempty"`
	POL         string    `json:"pol_id,omitempty"`
	POD         string    `json:"pod_id,omitempty"`
	Equipo      Equipment `json:"equipo,omitempty"`
	CountryID   string    `json:"country_id,omitempty"`
	Anio        int       `json:"anio,omitempty"`
	Mes         int       `json:"mes,omitempty"`
	State       State     `json:"state,omitempty"`
}

// IsZero reports whether the filter matches everything
func (f Filter) IsZero() bool {
	return f == Filter{}
}

// Matches reports whether r satisfies every set field of f
func (f Filter) Matches(r Record) bool {
	if f.ForwarderID != 0 && r.ForwarderID != f.ForwarderID {
		return false
	}
	if f.NavieraID != 0 && r.NavieraID != f.NavieraID {
		return false
	}
	if f.POL != "" && !strings.EqualFold(r.POL, f.POL) {
		return false
	}
	if f.POD != "" && !strings.EqualFold(r.POD, f.POD) {
		return false
	}
	if f.Equipo != "" && r.Equipo != f.Equipo {
		return false
	}
	if f.CountryID != "" && !strings.EqualFold(r.CountryID, f.CountryID) {
		return false
	}
	if f.Anio != 0 || f.Mes != 0 {
		p, ok := r.Period()
		if !ok {
			return false
		}
		if f.Anio != 0 && p.Year != f.Anio {
			return false
		}
		if f.Mes != 0 && p.Month != f.Mes {
			return false
		}
	}
	if f.State != "" && r.State != f.State {
		return false
	}
	return true
}

// Values encodes the filter as URL query parameters
func (f Filter) Values() url.Values {
	v := url.Values{}
	if f.ForwarderID != 0 {
		v.Set("forwarder_id", strconv.FormatInt(f.ForwarderID, 10))
	}
	if f.NavieraID != 0 {
		v.Set("naviera_id", strconv.FormatInt(f.NavieraID, 10))
	}
	if f.POL != "" {
		v.Set("pol", f.POL)
	}
	if f.POD != "" {
		v.Set("pod", f.POD)
	}
	if f.Equipo != "" {
		v.Set("equipo", string(f.Equipo))
	}
	if f.CountryID != "" {
		v.Set("country", f.CountryID)
	}
	if f.Anio != 0 {
		v.Set("anio", strconv.Itoa(f.Anio))
	}
	if f.Mes != 0 {
		v.Set("mes", strconv.Itoa(f.Mes))
	}
	if f.State != "" {
		v.Set("state", string(f.State))
	}
	return v
}

// ParseFilter decodes query parameters produced by Filter.Values
func ParseFilter(v url.Values) (Filter, error) {
	var f Filter
	var err error

	if f.ForwarderID, err = parseID(v, "forwarder_id"); err != nil {
		return Filter{}, err
	}
	if f.NavieraID, err = parseID(v, "naviera_id"); err != nil {
		return Filter{}, err
	}

	f.POL = strings.TrimSpace(v.Get("pol"))
	f.POD = strings.TrimSpace(v.Get("pod"))
	f.CountryID = strings.TrimSpace(v.Get("country"))

	if equipo := strings.TrimSpace(v.Get("equipo")); equipo != "" {
		f.Equipo = Equipment(strings.ToLower(equipo))
		if !f.Equipo.IsValid() {
			return Filter{}, fmt.Errorf("unknown equipment code: %s", equipo)
		}
	}

	if anio := v.Get("anio"); anio != "" {
		if f.Anio, err = strconv.Atoi(anio); err != nil || f.Anio <= 0 {
			return Filter{}, fmt.Errorf("invalid anio: %s", anio)
		}
	}
	if mes := v.Get("mes"); mes != "" {
		if f.Mes, err = strconv.Atoi(mes); err != nil || f.Mes < 1 || f.Mes > 12 {
			return Filter{}, fmt.Errorf("invalid mes: %s", mes)
		}
	}

	if state := strings.TrimSpace(v.Get("state")); state != "" {
		f.State = State(state)
	}

	return f, nil
}

func parseID(v url.Values, key string) (int64, error) {
	raw := strings.TrimSpace(v.Get(key))
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s: %s", key, raw)
	}
	return id, nil
}
