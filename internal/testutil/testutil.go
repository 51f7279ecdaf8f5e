// Package testutil starts throwaway PostgreSQL instances for repository tests.
package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestDB manages a testcontainers PostgreSQL instance.
type TestDB struct {
	Container testcontainers.Container
	DB        *sqlx.DB
	DSN       string
}

// NewTestDB starts postgres and connects with sqlx. The test is skipped when
// no container runtime is reachable.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()

	container, err := tcPostgres.Run(ctx,
		"postgres:15-alpine",
		tcPostgres.WithDatabase("test_films"),
		tcPostgres.WithUsername("test"),
		tcPostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	tdb := &TestDB{Container: container}
	t.Cleanup(tdb.Cleanup)

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}
	tdb.DSN = dsn

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		t.Fatalf("failed to connect to database: %v", err)
	}
	tdb.DB = db
	return tdb
}

// Cleanup closes the pool and terminates the container.
func (tdb *TestDB) Cleanup() {
	if tdb.DB != nil {
		_ = tdb.DB.Close()
	}
	if tdb.Container != nil {
		_ = tdb.Container.Terminate(context.Background())
	}
}

// Truncate clears tables for test isolation.
func (tdb *TestDB) Truncate(t *testing.T, tables ...string) {
	t.Helper()
	for _, table := range tables {
		if _, err := tdb.DB.Exec(fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)); err != nil {
			t.Logf("warning: failed to truncate %s: %v", table, err)
		}
	}
}
