package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// PartnerKind distinguishes forwarders from shipping lines
type PartnerKind string

const (
	PartnerForwarder PartnerKind = "forwarder"
	PartnerNaviera   PartnerKind = "naviera"
)

// Partner is a forwarder or carrier referenced by tariffs
type Partner struct {
	ID   int64       `json:"id"`
	Name string      `json:"name"`
	Kind PartnerKind `json:"kind"`
}

// PartnerStore handles database operations for partners
type PartnerStore struct {
	db *sql.DB
}

func NewPartnerStore(db *sql.DB) *PartnerStore {
	return &PartnerStore{db: db}
}

// Upsert returns the ID of the partner with the given name and kind, creating it if needed
func (p *PartnerStore) Upsert(ctx context.Context, name string, kind PartnerKind) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, fmt.Errorf("partner name is required")
	}

	_, err := p.db.ExecContext(ctx,
		`INSERT INTO partners (name, kind) VALUES (?, ?) ON CONFLICT(name, kind) DO NOTHING`,
		name, kind)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert partner: %w", err)
	}

	var id int64
	err = p.db.QueryRowContext(ctx,
		`SELECT id FROM partners WHERE name = ? AND kind = ?`, name, kind).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to look up partner: %w", err)
	}
	return id, nil
}

// GetByID returns a partner by ID
func (p *PartnerStore) GetByID(ctx context.Context, id int64) (*Partner, error) {
	var partner Partner
	err := p.db.QueryRowContext(ctx,
		`SELECT id, name, kind FROM partners WHERE id = ?`, id).
		Scan(&partner.ID, &partner.Name, &partner.Kind)
	if err != nil {
		return nil, err
	}
	return &partner, nil
}

// GetAll returns all partners of the given kind, or every partner when kind is empty
func (p *PartnerStore) GetAll(ctx context.Context, kind PartnerKind) ([]Partner, error) {
	query := `SELECT id, name, kind FROM partners`
	var args []any
	if kind != "" {
		query += ` WHERE kind = ?`
		args = append(args, kind)
	}
	query += ` ORDER BY kind, name`

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	partners := []Partner{}
	for rows.Next() {
		var partner Partner
		if err := rows.Scan(&partner.ID, &partner.Name, &partner.Kind); err != nil {
			return nil, err
		}
		partners = append(partners, partner)
	}

	return partners, rows.Err()
}
