package importer

import (
	"context"
	"fmt"
	"log/slog"

	"tariff-dashboard/internal/tariff"
)

// TariffCreator creates one tariff
type TariffCreator interface {
	CreateTariff(ctx context.Context, record *tariff.Record) (*tariff.Record, error)
}

// Config controls an import run
type Config struct {
	DryRun      bool
	StopOnError bool
}

// RowError is a row that could not be imported
type RowError struct {
	Line int
	Err  error
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

// Result summarises an import run
type Result struct {
	Total   int
	Created int
	Skipped int
	Errors  []RowError
}

// Importer loads parsed rows into the catalog
type Importer struct {
	creator TariffCreator
	config  Config
	logger  *slog.Logger
}

// New creates an importer. creator is not called in dry-run mode and may be nil there.
func New(creator TariffCreator, config Config, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{creator: creator, config: config, logger: logger}
}

// Run creates every row in order. Rows that fail validation or creation are
// collected in the result; with StopOnError the first failure ends the run.
// A cancelled context stops the run and is returned as the error.
func (i *Importer) Run(ctx context.Context, rows []Row) (Result, error) {
	result := Result{Total: len(rows)}

	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		record, err := row.Record()
		if err == nil && !i.config.DryRun {
			var created *tariff.Record
			created, err = i.creator.CreateTariff(ctx, record)
			if err == nil {
				i.logger.Info("Tariff imported", "line", row.Line, "id", created.ID, "name", created.Name)
			}
		}

		if err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			i.logger.Warn("Failed to import tariff", "line", row.Line, "error", err)
			result.Errors = append(result.Errors, RowError{Line: row.Line, Err: err})
			if i.config.StopOnError {
				return result, RowError{Line: row.Line, Err: err}
			}
			continue
		}

		if i.config.DryRun {
			i.logger.Info("Dry run: tariff validated", "line", row.Line, "route", record.Route(), "equipo", record.Equipo)
			result.Skipped++
			continue
		}
		result.Created++
	}

	return result, nil
}
