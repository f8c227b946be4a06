package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"

	cliapi "tariff-dashboard/internal/cli"
)

// validateAndParseID validates that the argument is a non-empty, valid integer ID
func validateAndParseID(arg string) (int64, error) {
	if strings.TrimSpace(arg) == "" {
		return 0, fmt.Errorf("ID cannot be empty")
	}

	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid ID '%s': must be a positive integer", arg)
	}

	if id <= 0 {
		return 0, fmt.Errorf("invalid ID '%d': must be a positive integer", id)
	}

	return id, nil
}

// isTerminalFunc is swapped out in tests
var isTerminalFunc = func() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

// shouldUseInteractiveMode decides whether to start the interactive browser.
// An explicit request always wins; otherwise it needs table output on a
// terminal outside CI.
func shouldUseInteractiveMode(cfg *cliapi.Config, explicit bool) bool {
	if explicit {
		return true
	}
	if cfg.Format != "table" || cfg.Quiet {
		return false
	}
	if os.Getenv("CI") != "" {
		return false
	}
	return isTerminalFunc()
}
