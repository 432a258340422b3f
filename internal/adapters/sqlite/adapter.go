// Package sqlite provides a SQLite-backed implementation of the tag store port.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/mattn/go-sqlite3" // Import the driver anonymously

	"github.com/ewilliams-labs/moodmatch/internal/core/ports"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Adapter implements ports.TagStore. Rows older than the TTL read as misses
// and are overwritten on the next Set.
type Adapter struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

var _ ports.TagStore = (*Adapter)(nil)

// NewAdapter opens the database at storagePath and applies pending migrations.
func NewAdapter(storagePath string, ttl time.Duration) (*Adapter, error) {
	db, err := sql.Open("sqlite3", storagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}
	// A single connection keeps ":memory:" databases alive and serializes writers.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite db: %w", err)
	}

	adapter := &Adapter{db: db, ttl: ttl, now: time.Now}
	if err := adapter.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return adapter, nil
}

// Close ensures the DB connection is closed gracefully
func (a *Adapter) Close() error {
	return a.db.Close()
}

func (a *Adapter) Get(ctx context.Context, artistName string) ([]string, bool, error) {
	row := a.db.QueryRowContext(ctx, "SELECT tags, fetched_at FROM artist_tags WHERE artist = ?", artistName)

	var raw string
	var fetchedAt int64
	if err := row.Scan(&raw, &fetchedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to load artist tags: %w", err)
	}

	if a.ttl > 0 && a.now().Sub(time.Unix(fetchedAt, 0)) >= a.ttl {
		return nil, false, nil
	}

	tags := []string{}
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return nil, false, fmt.Errorf("failed to decode artist tags: %w", err)
	}
	return tags, true, nil
}

func (a *Adapter) Set(ctx context.Context, artistName string, tags []string) error {
	if tags == nil {
		tags = []string{}
	}
	raw, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("failed to encode artist tags: %w", err)
	}

	_, err = a.db.ExecContext(ctx, `
		INSERT INTO artist_tags (artist, tags, fetched_at) VALUES (?, ?, ?)
		ON CONFLICT(artist) DO UPDATE SET tags = excluded.tags, fetched_at = excluded.fetched_at
	`, artistName, string(raw), a.now().Unix())
	if err != nil {
		return fmt.Errorf("failed to save artist tags: %w", err)
	}
	return nil
}

// Prune deletes rows older than the TTL and reports how many went.
func (a *Adapter) Prune(ctx context.Context) (int64, error) {
	if a.ttl <= 0 {
		return 0, nil
	}
	cutoff := a.now().Add(-a.ttl).Unix()
	res, err := a.db.ExecContext(ctx, "DELETE FROM artist_tags WHERE fetched_at <= ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune artist tags: %w", err)
	}
	return res.RowsAffected()
}

// migrate applies the embedded migrations. The migrate instance is not
// closed since that would close the shared *sql.DB.
func (a *Adapter) migrate() error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	driver, err := migratesqlite.WithInstance(a.db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}
