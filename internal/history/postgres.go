package history

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // Register pgx driver with database/sql
	"github.com/pressly/goose/v3"

	"github.com/JonMunkholm/oesreport/internal/logging"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// Migrate applies the embedded report_runs migrations to the database at dsn.
func Migrate(dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("open database for migrations: %w", err)
	}
	defer db.Close()

	goose.SetBaseFS(embedMigrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	slog.Info("running history migrations")
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// PoolOptions tunes the connection pool. Zero values keep pgx defaults.
type PoolOptions struct {
	MaxConns        int32
	MinConns        int32
	MaxConnIdleTime time.Duration
}

// Connect opens a pgx pool and verifies the connection.
func Connect(ctx context.Context, dsn string, opts PoolOptions) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if opts.MaxConns > 0 {
		cfg.MaxConns = opts.MaxConns
	}
	if opts.MinConns > 0 {
		cfg.MinConns = opts.MinConns
	}
	if opts.MaxConnIdleTime > 0 {
		cfg.MaxConnIdleTime = opts.MaxConnIdleTime
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(pingCtx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// PostgresStore stores runs in the report_runs table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore wraps an open pool. Run Migrate first.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const insertRun = `
INSERT INTO report_runs
    (id, file_name, digest, row_count, sections, diagnostics, format, started_at, duration_ms, client_ip, user_agent)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

func (p *PostgresStore) Record(ctx context.Context, run Run) error {
	if run.ID == "" {
		return ErrInvalidRun
	}
	_, err := p.pool.Exec(ctx, insertRun,
		run.ID, run.FileName, run.Digest,
		run.Rows, run.Sections, run.Diagnostics,
		run.Format, run.StartedAt, run.Duration.Milliseconds(),
		run.ClientIP, run.UserAgent,
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", run.ID, err)
	}
	logging.FromContext(ctx).Debug("run recorded", "store", "postgres")
	return nil
}

const selectRecent = `
SELECT id::text, file_name, digest, row_count, sections, diagnostics, format, started_at, duration_ms, client_ip, user_agent
FROM report_runs
ORDER BY started_at DESC
LIMIT $1`

func (p *PostgresStore) Recent(ctx context.Context, limit int) ([]Run, error) {
	rows, err := p.pool.Query(ctx, selectRecent, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}

	runs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Run, error) {
		var r Run
		var ms int64
		err := row.Scan(&r.ID, &r.FileName, &r.Digest, &r.Rows, &r.Sections, &r.Diagnostics,
			&r.Format, &r.StartedAt, &ms, &r.ClientIP, &r.UserAgent)
		r.Duration = time.Duration(ms) * time.Millisecond
		return r, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan runs: %w", err)
	}
	return runs, nil
}

func (p *PostgresStore) Prune(ctx context.Context, before time.Time) (int64, error) {
	tag, err := p.pool.Exec(ctx, `DELETE FROM report_runs WHERE started_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	return tag.RowsAffected(), nil
}
