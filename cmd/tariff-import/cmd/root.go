// Copyright 2024 Package Tracking System
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"tariff-dashboard/internal/api"
	"tariff-dashboard/internal/config"
	"tariff-dashboard/internal/importer"
)

const (
	// Version information
	Version   = "1.0.0"
	BuildDate = "development"
)

var (
	envFile     string
	serverURL   string
	dryRun      bool
	stopOnError bool
	retryCount  int
	retryDelay  time.Duration
	logLevel    string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "tariff-import <file>",
	Short: "Bulk load tariffs into the tariff dashboard",
	Long: `Tariff Import v1.0.0

Reads tariffs from a YAML or JSON file (or stdin with "-") and creates them
through the dashboard API. Each tariff is validated locally first; rows that
fail are reported with their line number and the rest are still imported
unless --stop-on-error is given. Server errors are retried with backoff.

FILE FORMAT:
    tariffs:
      - forwarder: Acme Logistics     # or forwarder_id
        naviera: Maersk               # or naviera_id
        pol: CNSHA
        pod: CLSAI
        country: CL
        equipo: 40hc
        ocean_freight: 1850
        ams_imo: 35
        lib_seguro: 120
        transit_time: 32
        demoras: 14
        fecha_tarifa: 2026-10-01
        vigencia_fin: 2026-10-31

    all_in defaults to ocean_freight + ams_imo + lib_seguro. Amounts that are
    not numbers are imported as empty.

CONFIGURATION:
    The server address comes from --server, TARIFF_CLI_SERVER_URL or the cli
    config file used by the tariffs CLI.

EXAMPLES:
    tariff-import rates-october.yaml
    tariff-import --dry-run rates-october.yaml
    cat rates.json | tariff-import --server http://tariffs.internal:8080 -`,
	Version:       Version,
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runImport,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := fang.Execute(context.Background(), rootCmd); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().StringVar(&envFile, "env-file", ".env", "environment file loaded before configuration")
	rootCmd.Flags().StringVarP(&serverURL, "server", "s", "", "API server address (overrides configuration)")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "only validate the file, don't create tariffs")
	rootCmd.Flags().BoolVar(&stopOnError, "stop-on-error", false, "stop at the first tariff that fails")
	rootCmd.Flags().IntVar(&retryCount, "retries", 3, "retries per tariff on server errors")
	rootCmd.Flags().DurationVar(&retryDelay, "retry-delay", time.Second, "initial delay between retries")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
}

// runImport is the main execution function for the importer
func runImport(cmd *cobra.Command, args []string) error {
	if err := config.LoadEnvFile(envFile); err != nil {
		return fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	cliCfg, err := config.LoadCLIConfig()
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	if serverURL != "" {
		cliCfg.ServerURL = strings.TrimSuffix(serverURL, "/")
		if err := cliCfg.Validate(); err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}
	}

	level, err := config.ParseLogLevel(logLevel)
	if err != nil {
		return err
	}

	// Initialize structured logger
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: level,
	}))

	rows, err := readRows(args[0], cmd.InOrStdin())
	if err != nil {
		return err
	}

	logger.Info("Import file parsed",
		"file", args[0],
		"tariffs", len(rows),
		"dry_run", dryRun)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var creator importer.TariffCreator
	if !dryRun {
		apiClient := api.NewClient(&api.ClientConfig{
			BaseURL:       cliCfg.ServerURL,
			Timeout:       cliCfg.RequestTimeout,
			RetryCount:    retryCount,
			RetryDelay:    retryDelay,
			UserAgent:     "tariff-import/" + Version,
			BackoffFactor: 2.0,
		})

		if err := apiClient.HealthCheck(ctx); err != nil {
			logger.Error("API health check failed", "error", err, "url", cliCfg.ServerURL)
			return fmt.Errorf("API health check failed: %w", err)
		}
		logger.Info("API client initialized successfully", "url", cliCfg.ServerURL)
		creator = apiClient
	}

	imp := importer.New(creator, importer.Config{
		DryRun:      dryRun,
		StopOnError: stopOnError,
	}, logger)

	result, err := imp.Run(ctx, rows)
	printSummary(cmd.OutOrStdout(), result)
	if err != nil {
		return err
	}
	if len(result.Errors) > 0 {
		return fmt.Errorf("%d of %d tariffs failed", len(result.Errors), result.Total)
	}

	return nil
}

// readRows parses path, or stdin when path is "-"
func readRows(path string, stdin io.Reader) ([]importer.Row, error) {
	if path == "-" {
		return importer.Parse(stdin)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open import file: %w", err)
	}
	defer f.Close()

	return importer.Parse(f)
}

func printSummary(w io.Writer, result importer.Result) {
	fmt.Fprintf(w, "Tariffs: %d  Created: %d  Validated only: %d  Failed: %d\n",
		result.Total, result.Created, result.Skipped, len(result.Errors))
	for _, rowErr := range result.Errors {
		fmt.Fprintf(w, "  %s\n", rowErr.Error())
	}
}
