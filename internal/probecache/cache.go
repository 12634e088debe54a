// Package probecache persists probed durations in SQLite, keyed by path,
// size and modification time, so unchanged recordings are not re-probed.
package probecache

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Cache is a SQLite-backed duration store.
type Cache struct {
	conn   *sql.DB
	logger zerolog.Logger

	hits   atomic.Int64
	misses atomic.Int64
}

// Stats reports lookup counters since Open.
type Stats struct {
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
	Entries int64 `json:"entries"`
}

// Key identifies one version of a file on disk.
type Key struct {
	Path    string
	Size    int64
	MtimeNs int64
}

// Open creates or opens the cache database at path and applies migrations.
func Open(path string, logger zerolog.Logger) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping cache: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to execute %s: %w", pragma, err)
		}
	}

	c := &Cache{
		conn:   conn,
		logger: logger.With().Str("component", "probecache").Logger(),
	}

	if err := c.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return c, nil
}

func (c *Cache) Close() error {
	return c.conn.Close()
}

func (c *Cache) migrate() error {
	migrations, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("failed to read migrations: %w", err)
	}

	for _, m := range migrations {
		if m.IsDir() {
			continue
		}

		name := m.Name()
		if c.isMigrationApplied(name) {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", name, err)
		}

		if _, err := c.conn.Exec(string(content)); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", name, err)
		}

		if _, err := c.conn.Exec("INSERT INTO _migrations (name) VALUES (?)", name); err != nil {
			return fmt.Errorf("failed to record migration %s: %w", name, err)
		}

		c.logger.Debug().Str("name", name).Msg("applied migration")
	}

	return nil
}

func (c *Cache) isMigrationApplied(name string) bool {
	var exists int
	err := c.conn.QueryRow("SELECT 1 FROM sqlite_master WHERE type='table' AND name='_migrations'").Scan(&exists)
	if err != nil {
		return false
	}

	var applied int
	err = c.conn.QueryRow("SELECT 1 FROM _migrations WHERE name = ?", name).Scan(&applied)
	return err == nil && applied == 1
}

// Get returns the cached duration for k. A row for the same path with a
// different size or mtime counts as a miss.
func (c *Cache) Get(ctx context.Context, k Key) (float64, bool, error) {
	var dur float64
	err := c.conn.QueryRowContext(ctx,
		`SELECT duration FROM probe_cache WHERE path = ? AND size = ? AND mtime_ns = ?`,
		k.Path, k.Size, k.MtimeNs,
	).Scan(&dur)
	if errors.Is(err, sql.ErrNoRows) {
		c.misses.Add(1)
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("cache lookup %s: %w", k.Path, err)
	}
	c.hits.Add(1)
	return dur, true, nil
}

// Put stores duration for k, replacing any older version of the path.
func (c *Cache) Put(ctx context.Context, k Key, duration float64) error {
	_, err := c.conn.ExecContext(ctx,
		`INSERT INTO probe_cache (path, size, mtime_ns, duration, probed_at)
		 VALUES (?, ?, ?, ?, datetime('now'))
		 ON CONFLICT(path) DO UPDATE SET
		   size = excluded.size,
		   mtime_ns = excluded.mtime_ns,
		   duration = excluded.duration,
		   probed_at = excluded.probed_at`,
		k.Path, k.Size, k.MtimeNs, duration,
	)
	if err != nil {
		return fmt.Errorf("cache store %s: %w", k.Path, err)
	}
	return nil
}

// Stats returns hit/miss counters and the number of stored entries.
func (c *Cache) Stats(ctx context.Context) (Stats, error) {
	s := Stats{Hits: c.hits.Load(), Misses: c.misses.Load()}
	if err := c.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM probe_cache`).Scan(&s.Entries); err != nil {
		return s, fmt.Errorf("count cache entries: %w", err)
	}
	return s, nil
}

// Purge removes every cached entry and returns how many were deleted.
func (c *Cache) Purge(ctx context.Context) (int64, error) {
	res, err := c.conn.ExecContext(ctx, `DELETE FROM probe_cache`)
	if err != nil {
		return 0, fmt.Errorf("purge cache: %w", err)
	}
	n, _ := res.RowsAffected()
	c.logger.Info().Int64("entries", n).Msg("cache purged")
	return n, nil
}
