package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"tariff-dashboard/internal/aggregator"
)

// SnapshotCacheStore persists dashboard snapshots so a restart does not
// force a full rebuild
type SnapshotCacheStore struct {
	db *sql.DB
}

// NewSnapshotCacheStore creates a new snapshot cache store
func NewSnapshotCacheStore(db *sql.DB) *SnapshotCacheStore {
	return &SnapshotCacheStore{db: db}
}

// Get retrieves the snapshot cached under key. A miss or an expired entry
// returns nil without error.
func (s *SnapshotCacheStore) Get(ctx context.Context, key string) (*aggregator.Snapshot, error) {
	var payload string
	var expiresAt time.Time

	err := s.db.QueryRowContext(ctx,
		`SELECT payload, expires_at FROM snapshot_cache WHERE cache_key = ?`, key).
		Scan(&payload, &expiresAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get cached snapshot: %w", err)
	}

	if time.Now().After(expiresAt) {
		if err := s.Delete(ctx, key); err != nil {
			return nil, err
		}
		return nil, nil
	}

	var snapshot aggregator.Snapshot
	if err := json.Unmarshal([]byte(payload), &snapshot); err != nil {
		return nil, fmt.Errorf("failed to deserialize cached snapshot: %w", err)
	}

	return &snapshot, nil
}

// Set stores snapshot under key with the given TTL, replacing any previous entry
func (s *SnapshotCacheStore) Set(ctx context.Context, key string, snapshot *aggregator.Snapshot, ttl time.Duration) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to serialize snapshot: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO snapshot_cache (cache_key, snapshot_id, payload, cached_at, expires_at)
		 VALUES (?, ?, ?, ?, ?)`,
		key, snapshot.ID, string(payload), time.Now(), time.Now().Add(ttl))
	if err != nil {
		return fmt.Errorf("failed to cache snapshot: %w", err)
	}

	return nil
}

// Delete removes the entry cached under key
func (s *SnapshotCacheStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM snapshot_cache WHERE cache_key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete cached snapshot: %w", err)
	}
	return nil
}

// DeleteExpired removes all expired entries and returns how many were removed
func (s *SnapshotCacheStore) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM snapshot_cache WHERE expires_at <= ?`, time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired snapshots: %w", err)
	}
	return result.RowsAffected()
}

// LoadAll loads every non-expired snapshot, keyed by cache key.
// Entries that fail to decode are skipped.
func (s *SnapshotCacheStore) LoadAll(ctx context.Context) (map[string]*aggregator.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT cache_key, payload FROM snapshot_cache WHERE expires_at > ?`, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to load cached snapshots: %w", err)
	}
	defer rows.Close()

	snapshots := make(map[string]*aggregator.Snapshot)
	for rows.Next() {
		var key, payload string
		if err := rows.Scan(&key, &payload); err != nil {
			return nil, fmt.Errorf("failed to scan cached snapshot: %w", err)
		}

		var snapshot aggregator.Snapshot
		if err := json.Unmarshal([]byte(payload), &snapshot); err != nil {
			slog.Warn("Skipping undecodable cached snapshot", "key", key, "error", err)
			continue
		}
		snapshots[key] = &snapshot
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cached snapshots: %w", err)
	}

	return snapshots, nil
}

// GetStats returns the total and expired entry counts
func (s *SnapshotCacheStore) GetStats(ctx context.Context) (int, int, error) {
	var total, expired int

	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM snapshot_cache").Scan(&total); err != nil {
		return 0, 0, fmt.Errorf("failed to count cached snapshots: %w", err)
	}

	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM snapshot_cache WHERE expires_at <= ?", time.Now()).Scan(&expired)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count expired snapshots: %w", err)
	}

	return total, expired, nil
}
