// Package store publishes the reference dataset to PostgreSQL and reads it
// back. Publishing replaces the whole dataset in one transaction, so readers
// see either the previous build or the new one, never a mix.
package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/krazybird78/travel-plug-checker/internal/config"
	"github.com/krazybird78/travel-plug-checker/internal/core"
)

//go:embed schema.sql
var schemaSQL string

// ErrNoBuild is returned when nothing has been published yet.
var ErrNoBuild = errors.New("no dataset build published")

const (
	insertBuildSQL = `INSERT INTO dataset_builds (id, source, countries) VALUES ($1, $2, $3)`

	insertProfileSQL = `INSERT INTO country_profiles
	(name, code, frequencies, plugs, voltages, position, build_id)
	VALUES ($1, $2, $3, $4, $5, $6, $7)`

	selectProfilesSQL = `SELECT name, code, frequencies, plugs, voltages
	FROM country_profiles ORDER BY position`

	selectLatestBuildSQL = `SELECT id, source, countries, created_at
	FROM dataset_builds ORDER BY created_at DESC LIMIT 1`
)

// Build describes one published dataset.
type Build struct {
	ID        uuid.UUID
	Source    string
	Countries int
	CreatedAt time.Time
}

// Store reads and writes country profiles in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// Connect opens a connection pool using cfg and verifies it with a ping.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// New wraps an open pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// EnsureSchema creates the tables if they don't exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// Publish replaces every stored profile with profiles and records the build.
// Profiles are stored in the given order. Nothing changes if any step fails.
func (s *Store) Publish(ctx context.Context, profiles []core.Profile, source string) (uuid.UUID, error) {
	buildID := uuid.New()
	pgID := pgtype.UUID{Bytes: buildID, Valid: true}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return uuid.Nil, fmt.Errorf("begin publish: %w", err)
	}
	defer tx.Rollback(ctx) // No-op after commit

	if _, err := tx.Exec(ctx, `DELETE FROM country_profiles`); err != nil {
		return uuid.Nil, fmt.Errorf("clear profiles: %w", err)
	}

	if _, err := tx.Exec(ctx, insertBuildSQL, pgID, source, len(profiles)); err != nil {
		return uuid.Nil, fmt.Errorf("record build: %w", err)
	}

	batch := &pgx.Batch{}
	for i, p := range profiles {
		batch.Queue(insertProfileSQL, profileArgs(p, i, pgID)...)
	}

	br := tx.SendBatch(ctx, batch)
	for i := range profiles {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return uuid.Nil, fmt.Errorf("insert profile %q: %w", profiles[i].Name, err)
		}
	}
	if err := br.Close(); err != nil {
		return uuid.Nil, fmt.Errorf("close batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return uuid.Nil, fmt.Errorf("commit publish: %w", err)
	}

	slog.Info("dataset published", "build_id", buildID, "countries", len(profiles), "source", source)
	return buildID, nil
}

// Profiles returns the stored profiles in published order.
func (s *Store) Profiles(ctx context.Context) ([]core.Profile, error) {
	rows, err := s.pool.Query(ctx, selectProfilesSQL)
	if err != nil {
		return nil, fmt.Errorf("query profiles: %w", err)
	}

	profiles, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (core.Profile, error) {
		var p core.Profile
		err := row.Scan(&p.Name, &p.Code, &p.Frequencies, &p.Plugs, &p.Voltages)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan profiles: %w", err)
	}

	return profiles, nil
}

// LatestBuild returns the most recently published build.
func (s *Store) LatestBuild(ctx context.Context) (Build, error) {
	var (
		id        pgtype.UUID
		b         Build
		createdAt pgtype.Timestamptz
	)

	err := s.pool.QueryRow(ctx, selectLatestBuildSQL).Scan(&id, &b.Source, &b.Countries, &createdAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Build{}, ErrNoBuild
	}
	if err != nil {
		return Build{}, fmt.Errorf("query latest build: %w", err)
	}

	b.ID = uuid.UUID(id.Bytes)
	b.CreatedAt = createdAt.Time
	return b, nil
}

// profileArgs returns the insert arguments for p. Empty sets are stored as
// empty arrays rather than NULL.
func profileArgs(p core.Profile, position int, buildID pgtype.UUID) []any {
	return []any{
		p.Name,
		p.Code,
		orEmpty(p.Frequencies),
		orEmpty(p.Plugs),
		orEmpty(p.Voltages),
		position,
		buildID,
	}
}

func orEmpty(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
