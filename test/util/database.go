// Package util provides test utilities for database-backed integration
// tests, following the teacher's test/util approach: a shared testcontainer
// for local development, CI env vars for CI, and a fresh database per test
// for isolation.
package util

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/agentmesh/coordinator/pkg/store"
)

var (
	sharedAdmin   store.Config
	containerOnce sync.Once
	containerErr  error
)

// SetupTestStore creates an isolated database in the shared test Postgres
// instance and returns a *store.Client pointed at it, with migrations
// already applied.
func SetupTestStore(t *testing.T) *store.Client {
	t.Helper()
	ctx := context.Background()

	admin := getOrCreateSharedDatabase(t)
	dbName := generateDatabaseName(t)

	adminDB, err := sql.Open("pgx", admin.DSN())
	require.NoError(t, err)
	_, err = adminDB.ExecContext(ctx, fmt.Sprintf("CREATE DATABASE %s", dbName))
	require.NoError(t, err)
	_ = adminDB.Close()

	cfg := admin
	cfg.Database = dbName

	client, err := store.NewClient(ctx, cfg)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = client.Close()
		raw, err := sql.Open("pgx", admin.DSN())
		if err == nil {
			_, _ = raw.ExecContext(context.Background(), fmt.Sprintf("DROP DATABASE IF EXISTS %s", dbName))
			_ = raw.Close()
		}
	})

	return client
}

func getOrCreateSharedDatabase(t *testing.T) store.Config {
	t.Helper()
	if host := os.Getenv("CI_POSTGRES_HOST"); host != "" {
		port, _ := strconv.Atoi(os.Getenv("CI_POSTGRES_PORT"))
		cfg := store.DefaultConfig()
		cfg.Host = host
		cfg.Port = port
		cfg.User = os.Getenv("CI_POSTGRES_USER")
		cfg.Password = os.Getenv("CI_POSTGRES_PASSWORD")
		cfg.Database = os.Getenv("CI_POSTGRES_DB")
		return cfg
	}

	containerOnce.Do(func() {
		ctx := context.Background()
		pgContainer, err := postgres.Run(ctx,
			"postgres:17-alpine",
			postgres.WithDatabase("test"),
			postgres.WithUsername("test"),
			postgres.WithPassword("test"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(30*time.Second)),
		)
		if err != nil {
			containerErr = fmt.Errorf("start postgres container: %w", err)
			return
		}
		host, err := pgContainer.Host(ctx)
		if err != nil {
			containerErr = fmt.Errorf("container host: %w", err)
			return
		}
		mappedPort, err := pgContainer.MappedPort(ctx, "5432/tcp")
		if err != nil {
			containerErr = fmt.Errorf("container port: %w", err)
			return
		}
		cfg := store.DefaultConfig()
		cfg.Host = host
		cfg.Port = mappedPort.Int()
		cfg.User = "test"
		cfg.Password = "test"
		cfg.Database = "test"
		sharedAdmin = cfg
	})

	require.NoError(t, containerErr, "failed to set up shared test container")
	return sharedAdmin
}

func generateDatabaseName(t *testing.T) string {
	t.Helper()
	name := strings.ToLower(t.Name())
	name = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		return '_'
	}, name)
	if len(name) > 40 {
		name = name[:40]
	}
	randomBytes := make([]byte, 4)
	_, err := rand.Read(randomBytes)
	require.NoError(t, err)
	return fmt.Sprintf("test_%s_%s", name, hex.EncodeToString(randomBytes))
}
