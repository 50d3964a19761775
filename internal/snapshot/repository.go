// Package snapshot persists ranked listings for later comparison.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/bondmaster/backend/internal/aggregator"
	"github.com/wonny/bondmaster/backend/internal/contracts"
	"github.com/wonny/bondmaster/backend/internal/scoring"
)

// Origin of a snapshot
const (
	SourceAPI       = "api"
	SourceScheduler = "scheduler"
	SourceCLI       = "cli"
)

// Summary is a snapshot without its bond list
type Summary struct {
	ID         int64     `json:"id"`
	FetchedAt  time.Time `json:"fetchedAt"`
	Source     string    `json:"source"`
	Sort       string    `json:"sort"`
	ConfigHash string    `json:"configHash"`
	BondCount  int       `json:"bondCount"`
	Pages      int       `json:"pages"`
}

// Snapshot is one stored ranking
type Snapshot struct {
	Summary
	Config scoring.Config   `json:"config"`
	Bonds  []contracts.Bond `json:"bonds"`
}

// FromResult builds a snapshot of an aggregation result
func FromResult(res *aggregator.Result, source string) *Snapshot {
	return &Snapshot{
		Summary: Summary{
			FetchedAt:  res.FetchedAt,
			Source:     source,
			Sort:       string(res.Sort),
			ConfigHash: res.ConfigHash,
			BondCount:  len(res.Bonds),
			Pages:      res.Pages,
		},
		Config: res.Config,
		Bonds:  res.Bonds,
	}
}

// Saver stores snapshots
type Saver interface {
	Save(ctx context.Context, s *Snapshot) (int64, error)
}

// Repository handles snapshot persistence
// ⭐ SSOT: 랭킹 스냅샷 저장/조회는 여기서만
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new snapshot repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const schemaDDL = `
	CREATE SCHEMA IF NOT EXISTS bondmaster;
	CREATE TABLE IF NOT EXISTS bondmaster.ranking_snapshots (
		id          BIGSERIAL PRIMARY KEY,
		fetched_at  TIMESTAMPTZ NOT NULL,
		source      TEXT NOT NULL,
		sort        TEXT NOT NULL,
		config_hash TEXT NOT NULL,
		config      JSONB NOT NULL,
		bond_count  INTEGER NOT NULL,
		pages       INTEGER NOT NULL,
		bonds       JSONB NOT NULL
	);
	CREATE INDEX IF NOT EXISTS ranking_snapshots_fetched_at_idx
		ON bondmaster.ranking_snapshots (fetched_at DESC);
`

// EnsureSchema creates the snapshot table when missing
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schemaDDL); err != nil {
		return fmt.Errorf("failed to create snapshot schema: %w", err)
	}
	return nil
}

// Save inserts a snapshot and returns its id
func (r *Repository) Save(ctx context.Context, s *Snapshot) (int64, error) {
	configJSON, err := json.Marshal(s.Config)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal config: %w", err)
	}
	bondsJSON, err := json.Marshal(s.Bonds)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal bonds: %w", err)
	}

	query := `
		INSERT INTO bondmaster.ranking_snapshots (
			fetched_at, source, sort, config_hash, config, bond_count, pages, bonds
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	var id int64
	err = r.pool.QueryRow(ctx, query,
		s.FetchedAt, s.Source, s.Sort, s.ConfigHash, configJSON,
		len(s.Bonds), s.Pages, bondsJSON,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to save snapshot: %w", err)
	}

	s.ID = id
	s.BondCount = len(s.Bonds)
	return id, nil
}

// List returns the most recent snapshots, newest first
func (r *Repository) List(ctx context.Context, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, fetched_at, source, sort, config_hash, bond_count, pages
		FROM bondmaster.ranking_snapshots
		ORDER BY fetched_at DESC, id DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	summaries := make([]Summary, 0)
	for rows.Next() {
		var s Summary
		if err := rows.Scan(&s.ID, &s.FetchedAt, &s.Source, &s.Sort, &s.ConfigHash, &s.BondCount, &s.Pages); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		summaries = append(summaries, s)
	}

	return summaries, rows.Err()
}

// Get loads one snapshot with its bonds. nil, nil when it does not exist.
func (r *Repository) Get(ctx context.Context, id int64) (*Snapshot, error) {
	return r.queryOne(ctx, `
		SELECT id, fetched_at, source, sort, config_hash, bond_count, pages, config, bonds
		FROM bondmaster.ranking_snapshots
		WHERE id = $1
	`, id)
}

// Latest loads the newest snapshot. nil, nil when the table is empty.
func (r *Repository) Latest(ctx context.Context) (*Snapshot, error) {
	return r.queryOne(ctx, `
		SELECT id, fetched_at, source, sort, config_hash, bond_count, pages, config, bonds
		FROM bondmaster.ranking_snapshots
		ORDER BY fetched_at DESC, id DESC
		LIMIT 1
	`)
}

func (r *Repository) queryOne(ctx context.Context, query string, args ...interface{}) (*Snapshot, error) {
	var s Snapshot
	var configJSON, bondsJSON []byte

	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&s.ID, &s.FetchedAt, &s.Source, &s.Sort, &s.ConfigHash, &s.BondCount, &s.Pages,
		&configJSON, &bondsJSON,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}

	s.Config = scoring.NormalizeJSON(configJSON)
	if err := json.Unmarshal(bondsJSON, &s.Bonds); err != nil {
		return nil, fmt.Errorf("failed to unmarshal bonds: %w", err)
	}

	return &s, nil
}

// Prune deletes snapshots fetched before cutoff and returns how many were removed
func (r *Repository) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM bondmaster.ranking_snapshots WHERE fetched_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune snapshots: %w", err)
	}
	return tag.RowsAffected(), nil
}
