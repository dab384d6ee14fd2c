// Copyright 2025 Certen Protocol
//
// Optional Postgres-backed archive for chain snapshots. Grounded on the
// teacher's pkg/database/client.go connection-pool setup (sql.Open("postgres",
// ...), SetMaxOpenConns/SetMaxIdleConns, PingContext on connect) narrowed to
// the single export/import surface the ledger core needs: it stores and
// retrieves whole chain snapshots, not per-table repositories.

package snapshotstore

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/certen/evidence-ledger/internal/chainledger"
)

// Store archives full chain snapshots (see chainledger/snapshot.go for the
// wire format) to Postgres, keyed by chain id and sequence.
type Store struct {
	db     *sql.DB
	logger *log.Logger
}

// Config holds connection settings for Open.
type Config struct {
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
	Logger       *log.Logger
}

// Open connects to Postgres and ensures the snapshot table exists.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("snapshotstore: DSN must not be empty")
	}
	if cfg.MaxOpenConns <= 0 {
		cfg.MaxOpenConns = 10
	}
	if cfg.MaxIdleConns <= 0 {
		cfg.MaxIdleConns = 2
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(log.Writer(), "[SnapshotStore] ", log.LstdFlags)
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("snapshotstore: open: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("snapshotstore: ping: %w", err)
	}

	store := &Store{db: db, logger: cfg.Logger}
	if err := store.ensureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	cfg.Logger.Printf("connected (max_open=%d, max_idle=%d)", cfg.MaxOpenConns, cfg.MaxIdleConns)
	return store, nil
}

func (s *Store) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS ledger_snapshots (
	chain_id     TEXT NOT NULL,
	sequence     BIGINT NOT NULL,
	genesis_hash TEXT NOT NULL,
	difficulty   INT NOT NULL,
	document     JSONB NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (chain_id, sequence)
)`
	_, err := s.db.ExecContext(ctx, ddl)
	if err != nil {
		return fmt.Errorf("snapshotstore: ensure schema: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put archives a snapshot document under (chainID, sequence). sequence is
// caller-assigned (e.g. a monotonically increasing export counter) so a
// chain's export history can be replayed in order.
func (s *Store) Put(ctx context.Context, chainID string, sequence int64, snap *chainledger.Snapshot, document []byte) error {
	const q = `
INSERT INTO ledger_snapshots (chain_id, sequence, genesis_hash, difficulty, document)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (chain_id, sequence) DO UPDATE
SET genesis_hash = EXCLUDED.genesis_hash, difficulty = EXCLUDED.difficulty, document = EXCLUDED.document`
	_, err := s.db.ExecContext(ctx, q, chainID, sequence, snap.GenesisHash, snap.Difficulty, document)
	if err != nil {
		return fmt.Errorf("snapshotstore: put: %w", err)
	}
	return nil
}

// Latest retrieves the highest-sequence snapshot document for chainID.
func (s *Store) Latest(ctx context.Context, chainID string) ([]byte, int64, error) {
	const q = `
SELECT document, sequence FROM ledger_snapshots
WHERE chain_id = $1
ORDER BY sequence DESC
LIMIT 1`
	var document []byte
	var sequence int64
	err := s.db.QueryRowContext(ctx, q, chainID).Scan(&document, &sequence)
	if err == sql.ErrNoRows {
		return nil, 0, fmt.Errorf("snapshotstore: no snapshot archived for chain %s", chainID)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("snapshotstore: latest: %w", err)
	}
	return document, sequence, nil
}
