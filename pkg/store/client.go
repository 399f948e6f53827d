// Package store implements the coordinator's PostgreSQL-backed persistence
// layer: agent records, the dependency graph's durable mirror, custom
// instructions and their effectiveness tracking, learning patterns, network
// event history, and the durable work queue.
//
// The teacher repository generates this layer with entgo.io/ent; that
// codegen step cannot run here, so this package is hand-written against
// database/sql via jackc/pgx/v5, using jmoiron/sqlx for struct scanning —
// the same direct-SQL style used elsewhere in the reference pack. See
// DESIGN.md for the full rationale.
package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"

	_ "github.com/jackc/pgx/v5/stdlib"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Config holds connection parameters for the PostgreSQL backend.
type Config struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DefaultConfig returns connection pool sizing defaults; callers still must
// supply Host/User/Password/Database.
func DefaultConfig() Config {
	return Config{
		SSLMode:         "disable",
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Hour,
		ConnMaxIdleTime: 10 * time.Minute,
	}
}

// DSN renders the connection string NewClient opens, exported so test
// harnesses can open their own administrative connections against the same
// instance (e.g. to create and drop a per-test database).
func (c Config) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode)
}

// Client wraps a connection pool and exposes the repository methods used by
// the coordinator and learning engine.
type Client struct {
	db *sqlx.DB
}

// NewClient opens a connection pool, pings it, and runs pending migrations.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	sqlDB, err := sql.Open("pgx", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("store: open connection: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}

	db := sqlx.NewDb(sqlDB, "pgx")

	if err := runMigrations(db.DB); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: run migrations: %w", err)
	}

	return &Client{db: db}, nil
}

// DB returns the underlying *sqlx.DB for callers that need raw access (test
// harnesses, health checks).
func (c *Client) DB() *sqlx.DB {
	return c.db
}

// Close releases the connection pool.
func (c *Client) Close() error {
	return c.db.Close()
}

// runMigrations applies every pending embedded migration. Only the source
// driver is closed afterward — closing migrate's *migrate.Migrate would
// close the shared *sql.DB connection out from under the rest of Client.
func runMigrations(db *sql.DB) error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("migration source: %w", err)
	}

	dbDriver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", dbDriver)
	if err != nil {
		return fmt.Errorf("migration init: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("migration up: %w", err)
	}

	return sourceDriver.Close()
}
