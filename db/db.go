// Package db provides database connectivity and migration functionality for the
// recipebox application. It establishes the pgx connection pool and applies SQL
// migrations on startup so the schema (users, tags, ingredients, recipes and
// their join tables) is always in the state the services expect.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	// File source driver for golang-migrate, imported for its side effect of
	// registering itself.
	_ "github.com/golang-migrate/migrate/v4/source/file"
	// Postgres database driver for golang-migrate. migrate's postgres driver
	// speaks lib/pq DSNs, which is why lib/pq is a dependency even though the
	// application itself runs on pgx.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/recipebox-go/apperror"
	"github.com/user/recipebox-go/config"
)

// NewPool establishes a connection pool to PostgreSQL using the provided
// configuration. The pool is pinged before being returned so a bad DSN or an
// unreachable database fails at startup rather than on the first request.
func NewPool(cfg *config.DatabaseConfig) (*pgxpool.Pool, error) {
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.DBName,
	)

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, apperror.NewDatabaseError(fmt.Sprintf("error parsing DSN for database %s", cfg.DBName), err)
	}

	poolConfig.MaxConns = int32(cfg.MaxSize)
	poolConfig.MaxConnIdleTime = 10 * time.Minute
	poolConfig.MaxConnLifetime = 30 * time.Minute

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, apperror.NewDatabaseError(fmt.Sprintf("error creating pgxpool for database %s", cfg.DBName), err)
	}

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer pingCancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, apperror.NewDatabaseError(fmt.Sprintf("error connecting to the database %s", cfg.DBName), err)
	}

	return pool, nil
}

// migrationDSN constructs a DSN string suitable for golang-migrate's postgres
// driver (lib/pq format).
func migrationDSN(cfg *config.DatabaseConfig) string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.DBName,
	)
}

// RunMigrations applies any pending database migrations from the configured
// migrations directory. migrate.ErrNoChange is not an error: it simply means
// the schema is already current.
func RunMigrations(cfg *config.DatabaseConfig) error {
	if cfg.MigrationsPath == "" {
		return nil
	}

	m, err := migrate.New("file://"+cfg.MigrationsPath, migrationDSN(cfg))
	if err != nil {
		return apperror.NewMigrationError("failed to create migrator", err)
	}
	defer func() {
		// Close returns separate errors for the source and the database
		// handle; neither should mask a successful migration run.
		srcErr, dbErr := m.Close()
		if srcErr != nil {
			fmt.Printf("warning: error closing migration source: %v\n", srcErr)
		}
		if dbErr != nil {
			fmt.Printf("warning: error closing migration database instance: %v\n", dbErr)
		}
	}()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return apperror.NewMigrationError("failed to run migrations", err)
	}

	return nil
}
