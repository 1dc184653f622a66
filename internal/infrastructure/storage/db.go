package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"
)

// Config holds connection parameters for a single Postgres database.
type Config struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	Debug           bool
}

// NewDB opens a pgdriver-backed *bun.DB against cfg.DSN.
func NewDB(cfg *Config) (*bun.DB, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("storage: DSN is required")
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.DSN)))
	sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqldb.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	db := bun.NewDB(sqldb, pgdialect.New())
	if cfg.Debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("storage: ping failed: %w", err)
	}

	return db, nil
}

// Close releases the underlying connection pool.
func Close(db *bun.DB) error {
	if db == nil {
		return nil
	}
	return db.Close()
}

// Store bundles the three logical databases the platform is split across
// (spec §6's "Persisted-state layout"): prompts/groups live independently of
// user accounts, which live independently of evaluation/billing records.
// Cross-store references (PromptID, UserID, EvaluationID) are carried as
// plain values with no foreign key, enforced only at the application layer.
type Store struct {
	PromptsDB *bun.DB
	UsersDB   *bun.DB
	EvalsDB   *bun.DB
}

// NewStore opens all three logical databases. When the DSNs are identical
// (a common single-instance deployment) the three handles point at the same
// Postgres instance but remain logically separate schemas.
func NewStore(promptsCfg, usersCfg, evalsCfg *Config) (*Store, error) {
	promptsDB, err := NewDB(promptsCfg)
	if err != nil {
		return nil, fmt.Errorf("storage: prompts db: %w", err)
	}

	usersDB, err := NewDB(usersCfg)
	if err != nil {
		return nil, fmt.Errorf("storage: users db: %w", err)
	}

	evalsDB, err := NewDB(evalsCfg)
	if err != nil {
		return nil, fmt.Errorf("storage: evals db: %w", err)
	}

	return &Store{PromptsDB: promptsDB, UsersDB: usersDB, EvalsDB: evalsDB}, nil
}

// Close releases all three connection pools.
func (s *Store) Close() error {
	var firstErr error
	for _, db := range []*bun.DB{s.PromptsDB, s.UsersDB, s.EvalsDB} {
		if err := Close(db); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
