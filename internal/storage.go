package internal

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/bytedance/sonic"
)

// Storage slot keys
const (
	SlotSavedSessions = "saved_sessions"
	SlotSchemaVersion = "saved_sessions_schema"
	SlotLanguage      = "language"
)

// SchemaVersion is the layout of the saved_sessions slot this build writes.
const SchemaVersion = 1

// ErrUnsupportedSchema is returned when the store was written by a newer,
// incompatible build.
var ErrUnsupportedSchema = errors.New("unsupported saved sessions schema")

// Slots is the string key/value surface the session store persists through.
type Slots interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
	// SetAll writes several slots atomically.
	SetAll(values map[string]string) error
	Delete(key string) error
}

// SQLiteSlots stores slots in the kv table of a SQLite database
type SQLiteSlots struct {
	db *sql.DB
}

// NewSQLiteSlots creates slots backed by db
func NewSQLiteSlots(db *sql.DB) *SQLiteSlots {
	return &SQLiteSlots{db: db}
}

func (s *SQLiteSlots) Get(key string) (string, bool, error) {
	return GetSlot(s.db, key)
}

func (s *SQLiteSlots) Set(key, value string) error {
	return SetSlot(s.db, key, value)
}

func (s *SQLiteSlots) SetAll(values map[string]string) error {
	return SetSlots(s.db, values)
}

func (s *SQLiteSlots) Delete(key string) error {
	return DeleteSlot(s.db, key)
}

// SessionStore keeps saved session records as one JSON array in one slot.
// Writes are whole-array replacements; the last writer wins.
type SessionStore struct {
	slots Slots
	mu    sync.Mutex
}

// NewSessionStore creates a store over slots
func NewSessionStore(slots Slots) *SessionStore {
	return &SessionStore{slots: slots}
}

// List returns all records in insertion order
func (s *SessionStore) List() ([]SavedSessionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Get looks up a record by id
func (s *SessionStore) Get(id string) (SavedSessionRecord, bool, error) {
	records, err := s.List()
	if err != nil {
		return SavedSessionRecord{}, false, err
	}
	for _, r := range records {
		if r.ID == id {
			return r, true, nil
		}
	}
	return SavedSessionRecord{}, false, nil
}

// Save inserts record, or replaces the record with the same id in place.
func (s *SessionStore) Save(record SavedSessionRecord) (SavedSessionRecord, error) {
	if record.ID == "" {
		return SavedSessionRecord{}, fmt.Errorf("saved session record has no id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return SavedSessionRecord{}, err
	}

	replaced := false
	for i := range records {
		if records[i].ID == record.ID {
			records[i] = record
			replaced = true
			break
		}
	}
	if !replaced {
		records = append(records, record)
	}

	if err := s.store(records); err != nil {
		return SavedSessionRecord{}, err
	}
	LogDebug("Saved session %s (replaced=%v, total=%d)", record.ID, replaced, len(records))
	return record, nil
}

// Delete removes the record with id. Deleting a missing id is a no-op.
func (s *SessionStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return err
	}

	kept := records[:0]
	for _, r := range records {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	if len(kept) == len(records) {
		LogDebug("Delete %s: no such session", id)
		return nil
	}
	return s.store(kept)
}

// SchemaVersion reports the stored schema version. A store that holds
// sessions but no version slot predates versioning and is read as version 1;
// an empty store reports 0.
func (s *SessionStore) SchemaVersion() (int, error) {
	raw, ok, err := s.slots.Get(SlotSchemaVersion)
	if err != nil {
		return 0, err
	}
	if !ok {
		if _, hasData, err := s.slots.Get(SlotSavedSessions); err != nil {
			return 0, err
		} else if hasData {
			return SchemaVersion, nil
		}
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &ParseError{Source: "store", Key: SlotSchemaVersion, Err: err}
	}
	return v, nil
}

// Language returns the persisted UI language, English when unset or invalid.
func (s *SessionStore) Language() Language {
	raw, ok, err := s.slots.Get(SlotLanguage)
	if err != nil {
		LogWarn("Failed to read language: %v", err)
		return LanguageEnglish
	}
	if !ok {
		return LanguageEnglish
	}
	lang, err := ParseLanguage(raw)
	if err != nil {
		LogDebug("Ignoring stored language %q: %v", raw, err)
		return LanguageEnglish
	}
	return lang
}

// SetLanguage persists the UI language
func (s *SessionStore) SetLanguage(lang Language) error {
	return s.slots.Set(SlotLanguage, string(lang))
}

func (s *SessionStore) load() ([]SavedSessionRecord, error) {
	version, err := s.SchemaVersion()
	if err != nil {
		return nil, err
	}
	if version > SchemaVersion {
		return nil, &StorageError{
			Slot: SlotSavedSessions,
			Op:   "read",
			Err:  fmt.Errorf("%w: version %d, this build reads %d", ErrUnsupportedSchema, version, SchemaVersion),
		}
	}

	raw, ok, err := s.slots.Get(SlotSavedSessions)
	if err != nil {
		return nil, err
	}
	if !ok || raw == "" {
		return []SavedSessionRecord{}, nil
	}

	var records []SavedSessionRecord
	if err := sonic.UnmarshalString(raw, &records); err != nil {
		return nil, &ParseError{Source: "store", Key: SlotSavedSessions, Err: err}
	}
	if records == nil {
		records = []SavedSessionRecord{}
	}
	return records, nil
}

func (s *SessionStore) store(records []SavedSessionRecord) error {
	data, err := sonic.MarshalString(records)
	if err != nil {
		return &StorageError{Slot: SlotSavedSessions, Op: "encode", Err: err}
	}
	return s.slots.SetAll(map[string]string{
		SlotSavedSessions: data,
		SlotSchemaVersion: strconv.Itoa(SchemaVersion),
	})
}
