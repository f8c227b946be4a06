package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"tariff-dashboard/internal/aggregator"
	"tariff-dashboard/internal/tariff"
)

const tariffColumns = `t.id, t.name, t.state, t.forwarder_id, f.name, t.naviera_id, n.name,
	t.pol, t.pod, t.country_id, t.equipo, t.ocean_freight, t.ams_imo, t.lib_seguro,
	t.all_in, t.transit_time, t.demoras, t.vigencia_fin, t.fecha_tarifa, t.anio, t.mes,
	t.created_at`

const tariffFrom = ` FROM tariffs t
	LEFT JOIN partners f ON f.id = t.forwarder_id
	LEFT JOIN partners n ON n.id = t.naviera_id`

// ErrUnknownPartner is returned when a tariff references a partner ID that does not exist
var ErrUnknownPartner = errors.New("unknown partner")

// TariffStore handles database operations for tariffs
type TariffStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewTariffStore(db *sql.DB) *TariffStore {
	return &TariffStore{db: db, now: time.Now}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTariff(row rowScanner) (tariff.Record, error) {
	var (
		r                        tariff.Record
		forwarderID, navieraID   sql.NullInt64
		forwarderName, naviera   sql.NullString
		vigenciaFin, fechaTarifa sql.NullString
	)

	err := row.Scan(&r.ID, &r.Name, &r.State, &forwarderID, &forwarderName, &navieraID, &naviera,
		&r.POL, &r.POD, &r.CountryID, &r.Equipo, &r.OceanFreight, &r.AmsImo, &r.LibSeguro,
		&r.AllIn, &r.TransitTime, &r.Demoras, &vigenciaFin, &fechaTarifa, &r.Anio, &r.Mes,
		&r.CreatedAt)
	if err != nil {
		return tariff.Record{}, err
	}

	r.ForwarderID = forwarderID.Int64
	r.ForwarderName = forwarderName.String
	r.NavieraID = navieraID.Int64
	r.NavieraName = naviera.String
	r.VigenciaFin = parseDate(vigenciaFin)
	r.FechaTarifa = parseDate(fechaTarifa)

	return r, nil
}

// parseDate reads an ISO date column. Unparseable values are treated as missing.
func parseDate(s sql.NullString) *civil.Date {
	if !s.Valid || s.String == "" {
		return nil
	}
	d, err := civil.ParseDate(s.String)
	if err != nil {
		return nil
	}
	return &d
}

func dateValue(d *civil.Date) any {
	if d == nil || !d.IsValid() {
		return nil
	}
	return d.String()
}

func nullID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}

// GetByID returns a tariff by ID
func (s *TariffStore) GetByID(ctx context.Context, id int64) (*tariff.Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+tariffColumns+tariffFrom+` WHERE t.id = ?`, id)
	r, err := scanTariff(row)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// List returns the tariffs matching filter, oldest first
func (s *TariffStore) List(ctx context.Context, filter tariff.Filter) ([]tariff.Record, error) {
	where, args := filterClause(filter)
	query := `SELECT ` + tariffColumns + tariffFrom + where + ` ORDER BY t.id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tariffs: %w", err)
	}
	defer rows.Close()

	records := []tariff.Record{}
	for rows.Next() {
		r, err := scanTariff(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tariff: %w", err)
		}
		records = append(records, r)
	}

	return records, rows.Err()
}

func filterClause(f tariff.Filter) (string, []any) {
	var conds []string
	var args []any

	add := func(cond string, arg any) {
		conds = append(conds, cond)
		args = append(args, arg)
	}

	if f.ForwarderID != 0 {
		add("t.forwarder_id = ?", f.ForwarderID)
	}
	if f.NavieraID != 0 {
		add("t.naviera_id = ?", f.NavieraID)
	}
	if f.POL != "" {
		add("UPPER(TRIM(t.pol)) = UPPER(TRIM(?))", f.POL)
	}
	if f.POD != "" {
		add("UPPER(TRIM(t.pod)) = UPPER(TRIM(?))", f.POD)
	}
	if f.Equipo != "" {
		add("t.equipo = ?", string(f.Equipo))
	}
	if f.CountryID != "" {
		add("UPPER(TRIM(t.country_id)) = UPPER(TRIM(?))", f.CountryID)
	}
	if f.Anio != 0 {
		add("t.anio = ?", f.Anio)
	}
	if f.Mes != 0 {
		add("t.mes = ?", f.Mes)
	}
	if f.State != "" {
		add("t.state = ?", string(f.State))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// Create normalizes and inserts a tariff. Partners given only by name are
// created on the fly.
func (s *TariffStore) Create(ctx context.Context, r *tariff.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := resolvePartner(ctx, tx, &r.ForwarderID, &r.ForwarderName, PartnerForwarder); err != nil {
		return err
	}
	if err := resolvePartner(ctx, tx, &r.NavieraID, &r.NavieraName, PartnerNaviera); err != nil {
		return err
	}

	r.Normalize(civil.DateOf(s.now()))

	result, err := tx.ExecContext(ctx, `INSERT INTO tariffs (name, state, forwarder_id, naviera_id,
			pol, pod, country_id, equipo, ocean_freight, ams_imo, lib_seguro, all_in,
			transit_time, demoras, vigencia_fin, fecha_tarifa, anio, mes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Name, string(r.State), nullID(r.ForwarderID), nullID(r.NavieraID),
		r.POL, r.POD, r.CountryID, string(r.Equipo), r.OceanFreight, r.AmsImo, r.LibSeguro, r.AllIn,
		r.TransitTime, r.Demoras, dateValue(r.VigenciaFin), dateValue(r.FechaTarifa), r.Anio, r.Mes)
	if err != nil {
		return fmt.Errorf("failed to insert tariff: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit tariff: %w", err)
	}

	created, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	*r = *created
	return nil
}

// resolvePartner fills in the ID from the name or the name from the ID
func resolvePartner(ctx context.Context, tx *sql.Tx, id *int64, name *string, kind PartnerKind) error {
	switch {
	case *id != 0:
		err := tx.QueryRowContext(ctx, `SELECT name FROM partners WHERE id = ? AND kind = ?`, *id, kind).Scan(name)
		if err == sql.ErrNoRows {
			return fmt.Errorf("%w: %s %d", ErrUnknownPartner, kind, *id)
		}
		return err
	case strings.TrimSpace(*name) != "":
		*name = strings.TrimSpace(*name)
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO partners (name, kind) VALUES (?, ?) ON CONFLICT(name, kind) DO NOTHING`,
			*name, kind); err != nil {
			return fmt.Errorf("failed to create %s: %w", kind, err)
		}
		return tx.QueryRowContext(ctx, `SELECT id FROM partners WHERE name = ? AND kind = ?`, *name, kind).Scan(id)
	}
	return nil
}

// Delete deletes a tariff by ID
func (s *TariffStore) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM tariffs WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return sql.ErrNoRows
	}

	return nil
}

// ExpireLapsed marks active tariffs whose validity ended before today as
// expired and returns how many rows changed
func (s *TariffStore) ExpireLapsed(ctx context.Context, today civil.Date) (int64, error) {
	result, err := s.db.ExecContext(ctx, `UPDATE tariffs SET state = ?
		WHERE state = ? AND vigencia_fin IS NOT NULL AND vigencia_fin < ?`,
		string(tariff.StateExpired), string(tariff.StateActive), today.String())
	if err != nil {
		return 0, fmt.Errorf("failed to expire tariffs: %w", err)
	}
	return result.RowsAffected()
}

// GetStats counts tariffs per state on the database side
func (s *TariffStore) GetStats(ctx context.Context) (aggregator.Totals, error) {
	var totals aggregator.Totals

	rows, err := s.db.QueryContext(ctx, `SELECT state, COUNT(*) FROM tariffs GROUP BY state`)
	if err != nil {
		return totals, err
	}
	defer rows.Close()

	for rows.Next() {
		var state tariff.State
		var count int
		if err := rows.Scan(&state, &count); err != nil {
			return totals, err
		}
		totals.Total += count
		switch state {
		case tariff.StateActive:
			totals.Active += count
		case tariff.StateExpired:
			totals.Expired += count
		default:
			totals.Other += count
		}
	}

	return totals, rows.Err()
}

// StateGroup is the per-state count and average all-in computed by SQLite
type StateGroup struct {
	State    tariff.State        `json:"state"`
	Count    int                 `json:"count"`
	AvgAllIn decimal.NullDecimal `json:"avg_all_in"`
}

// GroupByState counts tariffs and averages their all-in price per state.
// Tariffs without an all-in price count but do not weigh on the average.
func (s *TariffStore) GroupByState(ctx context.Context) ([]StateGroup, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT state, COUNT(*), AVG(CAST(all_in AS REAL))
		FROM tariffs GROUP BY state ORDER BY state`)
	if err != nil {
		return nil, fmt.Errorf("failed to group tariffs: %w", err)
	}
	defer rows.Close()

	groups := []StateGroup{}
	for rows.Next() {
		var g StateGroup
		var avg sql.NullFloat64
		if err := rows.Scan(&g.State, &g.Count, &avg); err != nil {
			return nil, err
		}
		if avg.Valid {
			g.AvgAllIn = decimal.NewNullDecimal(decimal.NewFromFloat(avg.Float64).Round(2))
		}
		groups = append(groups, g)
	}

	return groups, rows.Err()
}
