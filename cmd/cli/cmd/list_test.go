package cmd

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cliapi "tariff-dashboard/internal/cli"
	"tariff-dashboard/internal/tariff"
)

func TestShouldUseInteractiveMode(t *testing.T) {
	tests := []struct {
		name         string
		config       *cliapi.Config
		explicitFlag bool
		isTerminal   bool
		ci           bool
		expected     bool
		description  string
	}{
		{
			name:         "explicit flag true",
			config:       &cliapi.Config{Format: "table"},
			explicitFlag: true,
			expected:     true,
			description:  "Should use interactive mode when explicitly requested",
		},
		{
			name:        "auto detected",
			config:      &cliapi.Config{Format: "table"},
			isTerminal:  true,
			expected:    true,
			description: "Should use interactive mode when conditions are met",
		},
		{
			name:        "json format",
			config:      &cliapi.Config{Format: "json"},
			isTerminal:  true,
			expected:    false,
			description: "Should not use interactive mode with json format",
		},
		{
			name:        "quiet mode",
			config:      &cliapi.Config{Format: "table", Quiet: true},
			isTerminal:  true,
			expected:    false,
			description: "Should not use interactive mode in quiet mode",
		},
		{
			name:        "not a terminal",
			config:      &cliapi.Config{Format: "table"},
			expected:    false,
			description: "Should not use interactive mode when not a terminal",
		},
		{
			name:        "CI environment",
			config:      &cliapi.Config{Format: "table"},
			isTerminal:  true,
			ci:          true,
			expected:    false,
			description: "Should not use interactive mode in CI environment",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			origIsTerminal := isTerminalFunc
			isTerminalFunc = func() bool {
				return tt.isTerminal
			}
			defer func() {
				isTerminalFunc = origIsTerminal
			}()

			if tt.ci {
				t.Setenv("CI", "true")
			} else {
				t.Setenv("CI", "")
			}

			result := shouldUseInteractiveMode(tt.config, tt.explicitFlag)
			if result != tt.expected {
				t.Errorf("shouldUseInteractiveMode() = %v, expected %v for %s", result, tt.expected, tt.description)
			}
		})
	}
}

func TestValidateAndParseID(t *testing.T) {
	tests := []struct {
		input   string
		want    int64
		wantErr string
	}{
		{"42", 42, ""},
		{"", 0, "ID cannot be empty"},
		{"  ", 0, "ID cannot be empty"},
		{"abc", 0, "invalid ID 'abc': must be a positive integer"},
		{"0", 0, "invalid ID '0': must be a positive integer"},
		{"-3", 0, "invalid ID '-3': must be a positive integer"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			id, err := validateAndParseID(tt.input)
			if tt.wantErr != "" {
				assert.EqualError(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, id)
		})
	}
}

// parseFilterArgs runs buildListFilter against a fresh command carrying the
// list flags
func parseFilterArgs(t *testing.T, args ...string) (tariff.Filter, error) {
	t.Helper()
	cmd := &cobra.Command{Use: "list"}
	addFilterFlags(cmd, true)
	require.NoError(t, cmd.Flags().Parse(args))
	return buildListFilter(cmd)
}

func TestBuildListFilter(t *testing.T) {
	t.Run("no flags", func(t *testing.T) {
		f, err := parseFilterArgs(t)
		require.NoError(t, err)
		assert.True(t, f.IsZero())
	})

	t.Run("individual flags", func(t *testing.T) {
		f, err := parseFilterArgs(t, "--forwarder", "3", "--pol", "CNSHA", "--equipo", "40HC", "--mes", "10", "--state", "active")
		require.NoError(t, err)
		assert.Equal(t, tariff.Filter{
			ForwarderID: 3,
			POL:         "CNSHA",
			Equipo:      tariff.Equipment40HC,
			Mes:         10,
			State:       tariff.StateActive,
		}, f)
	})

	t.Run("where round trips a group filter", func(t *testing.T) {
		key := tariff.Filter{NavieraID: 7, POL: "CNSHA", POD: "CLSAI", State: tariff.StateActive}
		f, err := parseFilterArgs(t, "--where", key.Values().Encode())
		require.NoError(t, err)
		assert.Equal(t, key, f)
	})

	t.Run("flags override where", func(t *testing.T) {
		f, err := parseFilterArgs(t, "-w", "country=CL&anio=2025", "--anio", "2026")
		require.NoError(t, err)
		assert.Equal(t, "CL", f.CountryID)
		assert.Equal(t, 2026, f.Anio)
	})

	t.Run("invalid where", func(t *testing.T) {
		_, err := parseFilterArgs(t, "--where", "mes=%zz")
		assert.ErrorContains(t, err, "invalid --where")
	})

	t.Run("invalid values", func(t *testing.T) {
		_, err := parseFilterArgs(t, "--equipo", "99ft")
		assert.ErrorContains(t, err, "unknown equipment code")

		_, err = parseFilterArgs(t, "--mes", "13")
		assert.ErrorContains(t, err, "invalid mes")
	})
}

func TestParsePartnerKind(t *testing.T) {
	kind, err := parsePartnerKind("")
	require.NoError(t, err)
	assert.Empty(t, kind)

	kind, err = parsePartnerKind("carriers")
	require.NoError(t, err)
	assert.Equal(t, "naviera", string(kind))

	kind, err = parsePartnerKind("forwarder")
	require.NoError(t, err)
	assert.Equal(t, "forwarder", string(kind))

	_, err = parsePartnerKind("broker")
	assert.Error(t, err)
}

func TestIsTopDimension(t *testing.T) {
	for _, d := range topDimensions {
		assert.True(t, isTopDimension(d), d)
	}
	assert.False(t, isTopDimension("state"))
}
