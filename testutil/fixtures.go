package testutil

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

// SavedSessionsJSON is the slot payload seeded by CreateTestDB and
// CreateSQLiteFixture: two records, oldest first.
const SavedSessionsJSON = `[` +
	`{"id":"stress-relief","title":"Stress Relief","date":"2024-01-01T00:00:00Z","duration":"0.17","audioUrl":"blob:3b1f0d8e-6f0a-4c1e-9b8a-1f2e3d4c5b6a"},` +
	`{"id":"sleep","title":"Better Sleep","date":"2024-01-02T21:30:00Z","duration":"0.17","audioUrl":"file:///tmp/hypnojourney/sleep.mp3"}` +
	`]`

// FakeMP3 is a small payload with an ID3 header, enough for handlers that
// only move bytes around.
var FakeMP3 = append([]byte("ID3\x04\x00\x00\x00\x00\x00\x00"), make([]byte, 2048)...)

// CreateSQLiteFixture creates a store database file with sample data
func CreateSQLiteFixture(t *testing.T, dbPath string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		t.Fatalf("Failed to create fixture directory: %v", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer func() { _ = db.Close() }()

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`
	if _, err := db.Exec(createTableSQL); err != nil {
		t.Fatalf("Failed to create table: %v", err)
	}

	insertSQL := "INSERT INTO kv (key, value) VALUES (?, ?)"
	for _, kv := range [][2]string{
		{"saved_sessions_schema", "1"},
		{"saved_sessions", SavedSessionsJSON},
		{"language", "en"},
	} {
		if _, err := db.Exec(insertSQL, kv[0], kv[1]); err != nil {
			t.Fatalf("Failed to insert %s: %v", kv[0], err)
		}
	}
}

// CreateAudioFixture writes FakeMP3 to path and returns the path
func CreateAudioFixture(t *testing.T, path string) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create audio directory: %v", err)
	}
	if err := os.WriteFile(path, FakeMP3, 0644); err != nil {
		t.Fatalf("Failed to write audio fixture: %v", err)
	}
	return path
}
