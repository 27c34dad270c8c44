package internal

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite"
)

const createKVTableSQL = `
CREATE TABLE IF NOT EXISTS kv (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
)`

const upsertSlotSQL = "INSERT INTO kv (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value"

// OpenDatabase opens (creating if needed) the SQLite key/value store at path
func OpenDatabase(path string) (*sql.DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	if err := EnsureSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// EnsureSchema creates the kv table if it does not exist
func EnsureSchema(db *sql.DB) error {
	if _, err := db.Exec(createKVTableSQL); err != nil {
		return fmt.Errorf("failed to create kv table: %w", err)
	}
	return nil
}

// GetSlot reads a slot. ok is false when the slot has never been written.
func GetSlot(db *sql.DB, key string) (value string, ok bool, err error) {
	row := db.QueryRow("SELECT value FROM kv WHERE key = ?", key)
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, &StorageError{Slot: key, Op: "read", Err: err}
	}
	return value, true, nil
}

// SetSlot writes a slot, replacing any previous value
func SetSlot(db *sql.DB, key, value string) error {
	_, err := db.Exec(upsertSlotSQL, key, value)
	if err != nil {
		return &StorageError{Slot: key, Op: "write", Err: err}
	}
	return nil
}

// SetSlots writes every slot in values in one transaction: either all of
// them change or none do.
func SetSlots(db *sql.DB, values map[string]string) (err error) {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	tx, err := db.Begin()
	if err != nil {
		return &StorageError{Slot: strings.Join(keys, ","), Op: "write", Err: err}
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, key := range keys {
		if _, err := tx.Exec(upsertSlotSQL, key, values[key]); err != nil {
			return &StorageError{Slot: key, Op: "write", Err: err}
		}
	}
	if err := tx.Commit(); err != nil {
		return &StorageError{Slot: strings.Join(keys, ","), Op: "commit", Err: err}
	}
	return nil
}

// DeleteSlot removes a slot. Removing a missing slot is not an error.
func DeleteSlot(db *sql.DB, key string) error {
	if _, err := db.Exec("DELETE FROM kv WHERE key = ?", key); err != nil {
		return &StorageError{Slot: key, Op: "delete", Err: err}
	}
	return nil
}

// ListSlots returns all slot keys, sorted
func ListSlots(db *sql.DB) ([]string, error) {
	rows, err := db.Query("SELECT key FROM kv ORDER BY key")
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		keys = append(keys, key)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return keys, nil
}
