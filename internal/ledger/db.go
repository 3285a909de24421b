package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/joseph-ayodele/hocr-report/internal/common"
)

// Dialect selects placeholder style and DDL.
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

type Config struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	DialTimeout     time.Duration
}

// Store records what each run produced.
type Store struct {
	db      *sql.DB
	pool    *pgxpool.Pool // nil for sqlite
	dialect Dialect
	logger  *slog.Logger
}

// DialectFor picks the driver from the DSN: postgres URLs go to pgx, everything else to sqlite.
func DialectFor(dsn string) Dialect {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return Postgres
	}
	return SQLite
}

// Open connects to the ledger database described by cfg.DSN.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, ledgerErr("open", fmt.Errorf("%w: empty DSN", common.ErrInvalidInput))
	}

	dialect := DialectFor(cfg.DSN)
	logger.Info("ledger.open", "dialect", dialect)

	if dialect == SQLite {
		db, err := sql.Open("sqlite", sqlitePath(cfg.DSN))
		if err != nil {
			logger.Error("ledger.open.failed", "error", err)
			return nil, ledgerErr("open sqlite", err)
		}
		// one writer; avoids SQLITE_BUSY between pooled connections
		db.SetMaxOpenConns(1)
		return &Store{db: db, dialect: SQLite, logger: logger}, nil
	}

	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		logger.Error("ledger.open.failed", "error", err)
		return nil, ledgerErr("parse dsn", err)
	}
	if cfg.MaxConns > 0 {
		pc.MaxConns = cfg.MaxConns
	}
	pc.MinConns = cfg.MinConns
	if cfg.MaxConnLifetime > 0 {
		pc.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pc.ConnConfig.RuntimeParams["application_name"] = "hocr-report"

	dialCtx := ctx
	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}
	pool, err := pgxpool.NewWithConfig(dialCtx, pc)
	if err != nil {
		logger.Error("ledger.open.failed", "error", err)
		return nil, ledgerErr("connect", err)
	}

	// Wrap pool as *sql.DB so both dialects share one code path.
	return &Store{db: stdlib.OpenDBFromPool(pool), pool: pool, dialect: Postgres, logger: logger}, nil
}

func sqlitePath(dsn string) string {
	dsn = strings.TrimPrefix(dsn, "sqlite://")
	return strings.TrimPrefix(dsn, "sqlite:")
}

// Dialect reports which backend the store talks to.
func (s *Store) Dialect() Dialect { return s.dialect }

// Close closes the database connections gracefully
func (s *Store) Close() {
	if err := s.db.Close(); err != nil {
		s.logger.Error("ledger.close.failed", "error", err)
	}
	if s.pool != nil {
		s.pool.Close()
	}
}

// HealthCheck pings the database.
func (s *Store) HealthCheck(ctx context.Context, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := s.db.PingContext(ctx); err != nil {
		return ledgerErr("ping", err)
	}
	s.logger.Debug("ledger.ping.ok")
	return nil
}

// bind rewrites ? placeholders into $n for postgres.
func (s *Store) bind(query string) string {
	if s.dialect != Postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func ledgerErr(msg string, err error) error {
	return common.NewAppError(common.CodeLedger, msg, fmt.Errorf("%w: %v", common.ErrLedger, err))
}
