// Package postgres provides Postgres-backed persistence implementations.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/datalode/assetscout/internal/asset"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// AssetStoreConfig controls the Postgres connection pool used for asset rows.
type AssetStoreConfig struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type execCloser interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Close()
}

// AssetStore writes extracted asset rows into Postgres. It is a
// write-through archive; job bookkeeping lives in the job store.
type AssetStore struct {
	pool  execCloser
	table string
}

// NewAssetStore creates a Postgres-backed AssetStore using the provided config.
func NewAssetStore(ctx context.Context, cfg AssetStoreConfig) (*AssetStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database.dsn is required")
	}
	table := cfg.Table
	if table == "" {
		table = "assets"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &AssetStore{
		pool:  pool,
		table: table,
	}, nil
}

// NewAssetStoreWithPool constructs a store from an existing pool (primarily for testing).
func NewAssetStoreWithPool(pool execCloser, table string) (*AssetStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = "assets"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &AssetStore{pool: pool, table: table}, nil
}

// Close releases the underlying pool resources.
func (s *AssetStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// StoreAsset inserts an asset row into Postgres. The extraction result is
// stored as JSONB so downstream consumers can query individual fields.
func (s *AssetStore) StoreAsset(ctx context.Context, record asset.AssetRecord) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("asset store is not configured")
	}
	if record.JobID == "" {
		return fmt.Errorf("record job id is required")
	}
	resultJSON, err := json.Marshal(record.Result)
	if err != nil {
		return fmt.Errorf("marshal extraction result: %w", err)
	}
	query := fmt.Sprintf(`
INSERT INTO %s (
	job_uuid,
	asset_url,
	fetched_at,
	duration_ms,
	status_code,
	used_renderer,
	content_hash,
	blob_location,
	result
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9
)`, s.table)

	args := []any{
		record.JobID,
		record.URL,
		record.FetchedAt,
		record.DurationMs,
		record.StatusCode,
		record.UsedRenderer,
		record.ContentHash,
		record.BlobURI,
		resultJSON,
	}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert asset: %w", err)
	}
	return nil
}
