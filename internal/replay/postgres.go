package replay

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// PostgresSink mirrors every accepted tick's action entries to a Postgres
// table, for durable replay across process restarts. It is an optional
// Sink wired into ActionLog only when replay.enabled is set.
type PostgresSink struct {
	pool *pgxpool.Pool
}

// NewPostgresSink connects to dsn, applies pending migrations, and returns
// a ready Sink.
func NewPostgresSink(ctx context.Context, dsn string) (*PostgresSink, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("replay: parse dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("replay: connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("replay: ping: %w", err)
	}

	if err := runMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresSink{pool: pool}, nil
}

func runMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	goose.SetLogger(goose.NopLogger())
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("replay: set dialect: %w", err)
	}

	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("replay: run migrations: %w", err)
	}
	return nil
}

// WriteTick inserts every entry for tick in a single transaction.
func (s *PostgresSink) WriteTick(tick uint64, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	ctx := context.Background()
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("replay: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, e := range entries {
		payload, err := json.Marshal(e.Payload)
		if err != nil {
			return fmt.Errorf("replay: marshal payload: %w", err)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO action_log (tick, actor_id, kind, target_id, payload)
			 VALUES ($1, $2, $3, $4, $5)`,
			int64(e.Tick), int64(e.ActorID), e.Kind.String(), int64(e.Target), payload,
		); err != nil {
			return fmt.Errorf("replay: insert: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// Close releases the underlying connection pool.
func (s *PostgresSink) Close() {
	s.pool.Close()
}
