//go:build integration

package containers

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

// schema is the full DDL the stores expect. Tests apply it once per
// container; deployments apply the equivalent DDL out of band.
const schema = `
CREATE TABLE IF NOT EXISTS raffle_rounds (
	epoch         BIGINT PRIMARY KEY,
	winner        TEXT NOT NULL,
	entrants      INT NOT NULL,
	pool_at_close BIGINT NOT NULL,
	winner_share  BIGINT NOT NULL,
	fee_share     BIGINT NOT NULL,
	drawn_at      TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS raffle_outbox (
	id           UUID PRIMARY KEY,
	event_id     UUID NOT NULL,
	event_kind   TEXT NOT NULL,
	payload      JSONB NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL,
	published_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS raffle_outbox_unpublished_idx
	ON raffle_outbox (created_at)
	WHERE published_at IS NULL;

CREATE TABLE IF NOT EXISTS raffle_events (
	id          UUID PRIMARY KEY,
	kind        TEXT NOT NULL,
	category    TEXT NOT NULL,
	epoch       BIGINT NOT NULL,
	actor       TEXT NOT NULL DEFAULT '',
	subjects    TEXT[] NOT NULL DEFAULT '{}',
	slot        INT NOT NULL,
	amount      BIGINT NOT NULL,
	transfer_id UUID,
	request_id  TEXT NOT NULL DEFAULT '',
	occurred_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS raffle_events_epoch_idx
	ON raffle_events (epoch);
`

// PostgresContainer wraps a testcontainers PostgreSQL instance. It exposes
// both drivers in use: Pool for the pgx stores and DB for the database/sql
// ones.
type PostgresContainer struct {
	Container testcontainers.Container
	DSN       string
	Pool      *pgxpool.Pool
	DB        *sql.DB
}

// NewPostgresContainer starts a PostgreSQL container and applies the schema.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("tombola_test"),
		tcpostgres.WithUsername("tombola"),
		tcpostgres.WithPassword("tombola"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get postgres connection string: %v", err)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to open pgx pool: %v", err)
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		pool.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to open database/sql handle: %v", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to apply schema: %v", err)
	}

	// Container is shared across suites and reaped by Ryuk; no t.Cleanup.

	return &PostgresContainer{
		Container: container,
		DSN:       dsn,
		Pool:      pool,
		DB:        db,
	}
}

// TruncateTables empties the named tables. Use between tests for isolation.
func (p *PostgresContainer) TruncateTables(ctx context.Context, tables ...string) error {
	if len(tables) == 0 {
		return nil
	}
	query := fmt.Sprintf("TRUNCATE TABLE %s CASCADE", strings.Join(tables, ", "))
	if _, err := p.Pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("truncate tables: %w", err)
	}
	return nil
}
