// Package postgres writes a run's output tables to PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/okian/grapple/internal/domain/types"
	"github.com/okian/grapple/pkg/logger"
)

// ErrSchemaMismatch means a table's rows do not match the declared columns.
var ErrSchemaMismatch = errors.New("table columns do not match schema")

// Sink writes full recomputes. Every write replaces the previous run.
type Sink struct {
	pool   *pgxpool.Pool
	logger logger.Logger
}

// Option applies a configuration option to the Sink.
type Option func(*Sink)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Sink) {
		if l != nil {
			s.logger = l
		}
	}
}

// Open connects to databaseURL and checks the connection.
func Open(ctx context.Context, databaseURL string, opts ...Option) (*Sink, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}
	cfg.MaxConns = 4
	cfg.MaxConnLifetime = time.Hour
	cfg.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Sink{pool: pool, logger: logger.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	s.logger.Info(ctx, "connected to database", logger.String("host", cfg.ConnConfig.Host))
	return s, nil
}

// EnsureSchema creates missing tables.
func (s *Sink) EnsureSchema(ctx context.Context) error {
	for _, stmt := range DDL() {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// WriteRun truncates every output table and copies the new rows in one
// transaction, so readers see either the previous or the new run.
func (s *Sink) WriteRun(ctx context.Context, tables types.Tables) error {
	all := tables.All()
	if err := checkColumns(all); err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, t := range all {
		if _, err := tx.Exec(ctx, "TRUNCATE "+pgx.Identifier{t.Name}.Sanitize()); err != nil {
			return fmt.Errorf("truncate %s: %w", t.Name, err)
		}
		n, err := tx.CopyFrom(ctx, pgx.Identifier{t.Name}, t.Columns, pgx.CopyFromRows(t.Rows))
		if err != nil {
			return fmt.Errorf("copy %s: %w", t.Name, err)
		}
		s.logger.Debug(ctx, "table written", logger.String("table", t.Name), logger.Int64("rows", n))
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.logger.Info(ctx, "run written to database", logger.Int("matches", len(tables.Matches)))
	return nil
}

// Close releases the pool.
func (s *Sink) Close() {
	s.pool.Close()
}

func checkColumns(all []types.Table) error {
	for _, t := range all {
		i := slices.IndexFunc(schema, func(st table) bool { return st.name == t.Name })
		if i < 0 || !slices.Equal(schema[i].columnNames(), t.Columns) {
			return fmt.Errorf("%w: %s", ErrSchemaMismatch, t.Name)
		}
	}
	return nil
}
