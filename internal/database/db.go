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

package database

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the sql.DB connection and provides access to stores
type DB struct {
	*sql.DB
	Tariffs       *TariffStore
	Partners      *PartnerStore
	SnapshotCache *SnapshotCacheStore
}

// Open opens a database connection and initializes stores
func Open(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Enable foreign key constraints in SQLite
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	database := &DB{
		DB:            db,
		Tariffs:       NewTariffStore(db),
		Partners:      NewPartnerStore(db),
		SnapshotCache: NewSnapshotCacheStore(db),
	}

	if err := database.migrate(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return database, nil
}

// migrate creates the database schema
func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS partners (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		kind TEXT NOT NULL,
		UNIQUE(name, kind)
	);

	CREATE TABLE IF NOT EXISTS tariffs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		state TEXT NOT NULL DEFAULT 'active',
		forwarder_id INTEGER REFERENCES partners(id) ON DELETE RESTRICT,
		naviera_id INTEGER REFERENCES partners(id) ON DELETE SET NULL,
		pol TEXT NOT NULL,
		pod TEXT NOT NULL,
		country_id TEXT NOT NULL DEFAULT '',
		equipo TEXT NOT NULL DEFAULT '20',
		ocean_freight TEXT,
		ams_imo TEXT,
		lib_seguro TEXT,
		all_in TEXT,
		vigencia_fin TEXT,
		fecha_tarifa TEXT,
		anio INTEGER NOT NULL DEFAULT 0,
		mes INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS snapshot_cache (
		cache_key TEXT PRIMARY KEY,
		snapshot_id TEXT NOT NULL,
		payload TEXT NOT NULL,
		cached_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		expires_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_tariffs_state ON tariffs(state);
	CREATE INDEX IF NOT EXISTS idx_tariffs_route ON tariffs(pol, pod);
	CREATE INDEX IF NOT EXISTS idx_tariffs_period ON tariffs(anio, mes);
	CREATE INDEX IF NOT EXISTS idx_tariffs_vigencia ON tariffs(state, vigencia_fin);
	CREATE INDEX IF NOT EXISTS idx_snapshot_cache_expires ON snapshot_cache(expires_at);
	`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return db.migrateDetentionFields()
}

// migrateDetentionFields adds transit time and detention columns to databases
// created before they were tracked
func (db *DB) migrateDetentionFields() error {
	var columnExists int
	err := db.QueryRow(`
		SELECT COUNT(*)
		FROM pragma_table_info('tariffs')
		WHERE name = 'transit_time'
	`).Scan(&columnExists)
	if err != nil {
		return fmt.Errorf("failed to check transit_time column existence: %w", err)
	}

	if columnExists == 0 {
		alterQueries := []string{
			"ALTER TABLE tariffs ADD COLUMN transit_time TEXT",
			"ALTER TABLE tariffs ADD COLUMN demoras TEXT",
		}

		for _, query := range alterQueries {
			if _, err := db.Exec(query); err != nil {
				return fmt.Errorf("failed to execute migration query '%s': %w", query, err)
			}
		}
	}

	return nil
}

// IsHealthy checks if the database connection is healthy
func (db *DB) IsHealthy() error {
	return db.Ping()
}
