package tariff

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilter_ValuesRoundTrip(t *testing.T) {
	f := Filter{ForwarderID: 7, POL: "CNSHA", POD: "MXZLO", Equipo: Equipment40HC, Anio: 2025, Mes: 3, State: StateActive}

	parsed, err := ParseFilter(f.Values())
	require.NoError(t, err)
	assert.Equal(t, f, parsed)
}

func TestParseFilter_Errors(t *testing.T) {
	tests := map[string]url.Values{
		"BadForwarder": {"forwarder_id": {"abc"}},
		"NegativeID":   {"naviera_id": {"-2"}},
		"BadEquipment": {"equipo": {"99ft"}},
		"BadMonth":     {"mes": {"13"}},
		"BadYear":      {"anio": {"x"}},
	}
	for name, values := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseFilter(values)
			assert.Error(t, err)
		})
	}
}

func TestFilter_Matches(t *testing.T) {
	r := Record{ForwarderID: 7, NavieraID: 9, POL: "CNSHA", POD: "MXZLO", CountryID: "mx", Equipo: Equipment40HC, Anio: 2025, Mes: 3, State: StateActive}

	assert.True(t, Filter{}.Matches(r))
	assert.True(t, Filter{POL: "cnsha", POD: "mxzlo"}.Matches(r))
	assert.True(t, Filter{CountryID: "MX", Anio: 2025}.Matches(r))
	assert.False(t, Filter{ForwarderID: 8}.Matches(r))
	assert.False(t, Filter{Mes: 4}.Matches(r))
	assert.False(t, Filter{State: StateExpired}.Matches(r))
	assert.False(t, Filter{Anio: 2025}.Matches(Record{}))
	assert.True(t, Filter{}.IsZero())
}
