// Package sqlstore persists negotiations and campaign history through
// database/sql, for SQLite files and MySQL servers.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/Rrens/parley/internal/config"
)

// Dialect names a supported database/sql driver
type Dialect string

const (
	DialectSQLite Dialect = "sqlite"
	DialectMySQL  Dialect = "mysql"
)

// Store owns the connection; repositories are views over it
type Store struct {
	db      *sql.DB
	dialect Dialect
}

// Open connects to the configured local database and creates the schema
func Open(ctx context.Context, cfg config.LocalConfig) (*Store, error) {
	dialect := Dialect(cfg.Driver)
	var dsn string

	switch dialect {
	case DialectSQLite:
		if dir := filepath.Dir(cfg.DSN); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create database directory: %w", err)
			}
		}
		dsn = cfg.DSN
		if !strings.Contains(dsn, "?") {
			dsn += "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
		}
	case DialectMySQL:
		dsn = cfg.DSN
	default:
		return nil, fmt.Errorf("unsupported driver %q", cfg.Driver)
	}

	db, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if dialect == DialectSQLite {
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &Store{db: db, dialect: dialect}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return s, nil
}

// Negotiations returns the negotiation repository
func (s *Store) Negotiations() *NegotiationRepository {
	return &NegotiationRepository{s: s}
}

// History returns the campaign history repository
func (s *Store) History() *HistoryRepository {
	return &HistoryRepository{s: s}
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies database connectivity
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) initSchema(ctx context.Context) error {
	for _, stmt := range schema(s.dialect) {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

func schema(d Dialect) []string {
	id := "TEXT"
	text := "TEXT"
	if d == DialectMySQL {
		id = "VARCHAR(64)"
		text = "VARCHAR(2000)"
	}
	return []string{
		`CREATE TABLE IF NOT EXISTS negotiations (
			id ` + id + ` PRIMARY KEY,
			campaign_id ` + id + ` NOT NULL,
			created_by ` + id + `,
			name VARCHAR(255) NOT NULL,
			description ` + text + ` NOT NULL,
			npc_name VARCHAR(255) NOT NULL,
			status VARCHAR(20) NOT NULL,
			interest INTEGER NOT NULL,
			patience INTEGER NOT NULL,
			patience_cap INTEGER NOT NULL,
			opening_interest INTEGER NOT NULL,
			opening_patience INTEGER NOT NULL,
			motivations ` + text + ` NOT NULL,
			pitfalls ` + text + ` NOT NULL,
			outcome VARCHAR(20),
			created_at BIGINT NOT NULL,
			updated_at BIGINT NOT NULL,
			completed_at BIGINT,
			version INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS negotiation_arguments (
			id ` + id + ` PRIMARY KEY,
			negotiation_id ` + id + ` NOT NULL,
			seq INTEGER NOT NULL,
			tier INTEGER NOT NULL,
			description ` + text + ` NOT NULL,
			motivation_type VARCHAR(50),
			interest_change INTEGER NOT NULL,
			patience_change INTEGER NOT NULL,
			created_at BIGINT NOT NULL,
			UNIQUE (negotiation_id, seq)
		)`,
		`CREATE TABLE IF NOT EXISTS campaign_history (
			id ` + id + ` PRIMARY KEY,
			campaign_id ` + id + ` NOT NULL,
			negotiation_id ` + id + ` NOT NULL UNIQUE,
			name VARCHAR(255) NOT NULL,
			npc_name VARCHAR(255) NOT NULL,
			description ` + text + ` NOT NULL,
			outcome VARCHAR(20) NOT NULL,
			final_interest INTEGER NOT NULL,
			final_patience INTEGER NOT NULL,
			argument_count INTEGER NOT NULL,
			revealed_traits ` + text + ` NOT NULL,
			occurred_at BIGINT NOT NULL
		)`,
	}
}

func (s *Store) insertIgnore() string {
	if s.dialect == DialectMySQL {
		return "INSERT IGNORE"
	}
	return "INSERT OR IGNORE"
}

func toUnix(t time.Time) int64 {
	return t.UnixNano()
}

func fromUnix(n int64) time.Time {
	return time.Unix(0, n).UTC()
}

func nullableUnix(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: toUnix(*t), Valid: true}
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// isUniqueViolation reports a duplicate key from either driver
func isUniqueViolation(err error) bool {
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		case sqlite3.SQLITE_CONSTRAINT:
			return strings.Contains(liteErr.Error(), "UNIQUE")
		}
		return false
	}
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == 1062
}
