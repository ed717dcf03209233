// Package local is the durable on-device cache: three named slots, each
// holding one JSON-serialized entity collection in a SQLite file. It is the
// store of record when the remote store is unreachable at startup, and the
// unconditional backup target for every successful mutation otherwise.
package local

import (
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Slot names for the three entity collections.
const (
	SlotCustomers = "customers"
	SlotExpenses  = "expenses"
	SlotTiers     = "tiers"
)

// ErrCorrupt marks a slot whose stored payload no longer parses. Callers
// fall back to their default collection instead of failing the session.
var ErrCorrupt = errors.New("local cache slot is corrupt")

// Cache is a SQLite-backed key-value store of JSON collection snapshots.
type Cache struct {
	db *sql.DB
}

// Open opens (or creates) the cache file and runs its migrations.
func Open(path string) (*Cache, error) {
	const op = "storage.local.Open"

	db, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Cache{db: db}, nil
}

func runMigrations(db *sql.DB) error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}

// Read unmarshals the named slot into dest. It returns false when the slot
// has never been written; a stored-but-unparsable payload returns ErrCorrupt
// so the caller can substitute its default.
func (c *Cache) Read(slot string, dest any) (bool, error) {
	const op = "storage.local.Read"

	var payload []byte
	err := c.db.QueryRow(`SELECT payload FROM app_cache WHERE slot = ?`, slot).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if err := json.Unmarshal(payload, dest); err != nil {
		return false, fmt.Errorf("%s: %w: %v", op, ErrCorrupt, err)
	}
	return true, nil
}

// Write marshals value and upserts it into the named slot.
func (c *Cache) Write(slot string, value any) error {
	const op = "storage.local.Write"

	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	_, err = c.db.Exec(`
		INSERT INTO app_cache (slot, payload, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (slot) DO UPDATE SET
		    payload = excluded.payload,
		    updated_at = CURRENT_TIMESTAMP`,
		slot, payload)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Close closes the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}
