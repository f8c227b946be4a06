package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_Subcommands(t *testing.T) {
	for _, name := range []string{"dashboard", "list", "top", "stats", "partners", "equipment", "get", "add", "delete"} {
		t.Run(name, func(t *testing.T) {
			cmd, _, err := rootCmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, cmd.Name())
		})
	}
}

func TestRootCommand_Completion(t *testing.T) {
	// cobra registers its completion command on first execution
	rootCmd.InitDefaultCompletionCmd()

	cmd, _, err := rootCmd.Find([]string{"completion", "zsh"})
	require.NoError(t, err)
	assert.Equal(t, "zsh", cmd.Name())
}
