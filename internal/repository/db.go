package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/joseph-ayodele/certificates-processor/internal/common"
)

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

type Config struct {
	// DSN selects the backend: postgres:// or postgresql:// URLs use pgx, anything else is a
	// SQLite file path.
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	DialTimeout     time.Duration
}

// DB is the run-history database behind database/sql.
type DB struct {
	SQL     *sql.DB
	Dialect string
	pool    *pgxpool.Pool
	logger  *slog.Logger
}

func isPostgres(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

// Open connects to the configured backend and creates the history tables when missing.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, common.NewAppError(common.CodeConfig, "history dsn is empty", common.ErrInvalidInput)
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 3 * time.Second
	}

	var db *DB
	if isPostgres(cfg.DSN) {
		logger.Info("repository.connect", "dialect", DialectPostgres)
		pc, err := pgxpool.ParseConfig(cfg.DSN)
		if err != nil {
			logger.Error("repository.connect.failed", "error", err)
			return nil, fmt.Errorf("%w: %w", common.ErrDatabase, err)
		}
		if cfg.MaxConns > 0 {
			pc.MaxConns = cfg.MaxConns
		}
		pc.MinConns = cfg.MinConns
		if cfg.MaxConnLifetime > 0 {
			pc.MaxConnLifetime = cfg.MaxConnLifetime
		}
		if cfg.MaxConnIdleTime > 0 {
			pc.MaxConnIdleTime = cfg.MaxConnIdleTime
		}
		pc.ConnConfig.RuntimeParams["application_name"] = "certificates-processor"

		dialCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
		pool, err := pgxpool.NewWithConfig(dialCtx, pc)
		if err != nil {
			logger.Error("repository.connect.failed", "error", err)
			return nil, fmt.Errorf("%w: %w", common.ErrDatabase, err)
		}
		// Wrap pool as *sql.DB so both backends share one code path.
		db = &DB{SQL: stdlib.OpenDBFromPool(pool), Dialect: DialectPostgres, pool: pool, logger: logger}
	} else {
		logger.Info("repository.connect", "dialect", DialectSQLite, "path", cfg.DSN)
		sqldb, err := sql.Open("sqlite", cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", common.ErrDatabase, err)
		}
		// single writer
		sqldb.SetMaxOpenConns(1)
		db = &DB{SQL: sqldb, Dialect: DialectSQLite, logger: logger}
	}

	if err := db.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	logger.Info("repository.connect.ok", "dialect", db.Dialect)
	return db, nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		folder TEXT NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT,
		total_files INTEGER NOT NULL DEFAULT 0,
		processed INTEGER NOT NULL DEFAULT 0,
		duplicates INTEGER NOT NULL DEFAULT 0,
		errors INTEGER NOT NULL DEFAULT 0,
		already_processed INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS outcomes (
		run_id TEXT NOT NULL REFERENCES runs(id),
		seq INTEGER NOT NULL,
		file TEXT NOT NULL,
		category TEXT NOT NULL,
		final_name TEXT,
		owner TEXT,
		kind TEXT,
		detail TEXT,
		identification TEXT,
		issue_date TEXT,
		expiration_date TEXT,
		created_at TEXT NOT NULL,
		PRIMARY KEY (run_id, seq)
	)`,
	`CREATE INDEX IF NOT EXISTS outcomes_identification_idx ON outcomes (identification)`,
}

func (db *DB) migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := db.SQL.ExecContext(ctx, stmt); err != nil {
			db.logger.Error("repository.migrate.failed", "error", err)
			return fmt.Errorf("%w: migrate: %w", common.ErrDatabase, err)
		}
	}
	return nil
}

// rebind rewrites '?' placeholders as $1, $2... for Postgres.
func (db *DB) rebind(query string) string {
	if db.Dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// HealthCheck pings the database to catch DSN issues early.
func (db *DB) HealthCheck(ctx context.Context, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := db.SQL.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: ping: %w", common.ErrDatabase, err)
	}
	db.logger.Debug("repository.ping.ok", "dialect", db.Dialect)
	return nil
}

// Close closes the database connections gracefully.
func (db *DB) Close() {
	if err := db.SQL.Close(); err != nil {
		db.logger.Error("repository.close.failed", "error", err)
	}
	if db.pool != nil {
		db.pool.Close()
	}
}
