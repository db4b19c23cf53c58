// Package pgtest starts a disposable PostgreSQL for repository integration tests.
package pgtest

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"docvault/internal/repository/postgres"
)

const testPrefix = "test_"

// Start runs postgres:16-alpine, applies the schema and returns a repository
// config. The test is skipped under -short or when Docker is unavailable.
func Start(t *testing.T) *postgres.RepositoryConfig {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "docvault",
				"POSTGRES_PASSWORD": "docvault",
				"POSTGRES_DB":       "docvault",
			},
			WaitingFor: wait.ForAll(
				wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
				wait.ForListeningPort("5432/tcp"),
			).WithDeadline(90 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Skipf("docker unavailable: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("terminate postgres: %v", err)
		}
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("container port: %v", err)
	}

	url := fmt.Sprintf("postgres://docvault:docvault@%s:%s/docvault?sslmode=disable", host, port.Port())
	pool, err := postgres.CreateConnectionPool(ctx, url)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)

	tables := postgres.NewTableNames(testPrefix)
	if err := postgres.ApplySchema(ctx, pool, tables, testPrefix); err != nil {
		t.Fatalf("apply schema: %v", err)
	}

	return &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: slog.Default(),
	}
}

// Exec runs raw SQL for fixtures
func Exec(t *testing.T, cfg *postgres.RepositoryConfig, sql string, args ...any) {
	t.Helper()
	if _, err := cfg.Pool.Exec(context.Background(), sql, args...); err != nil {
		t.Fatalf("exec fixture: %v", err)
	}
}
