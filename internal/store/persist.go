package store

import (
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/mattn/go-sqlite3"

	"thumbcast/internal/domain"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// stateRecordName keys the single durable record in app_state.
const stateRecordName = "studio"

// PersistedState is the durable slice of AppState: sticky selections plus
// the user's own rounds. Fields are pointers/slices so older records that
// predate a field unmarshal cleanly.
type PersistedState struct {
	Selections *Selections     `json:"selections,omitempty"`
	UserRounds []*domain.Round `json:"userRounds,omitempty"`
}

// Persister loads and saves the durable record.
type Persister interface {
	Load() (PersistedState, bool, error)
	Save(PersistedState) error
}

// SQLitePersister keeps the record as one JSON row in sqlite.
type SQLitePersister struct {
	db *sql.DB
}

// Open opens sqlite with sensible defaults.
func Open(path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1) // sqlite
	db.SetConnMaxLifetime(0)
	return db, nil
}

// RunMigrations applies the embedded migrations to db.
func RunMigrations(db *sql.DB) error {
	src, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return fmt.Errorf("migration source: %w", err)
	}
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		return err
	}
	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// NewSQLitePersister wraps an already-opened, migrated database.
func NewSQLitePersister(db *sql.DB) *SQLitePersister {
	return &SQLitePersister{db: db}
}

func (p *SQLitePersister) Load() (PersistedState, bool, error) {
	var raw []byte
	err := p.db.QueryRow(
		`SELECT data FROM app_state WHERE name = ?`, stateRecordName,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return PersistedState{}, false, nil
	}
	if err != nil {
		return PersistedState{}, false, fmt.Errorf("load state: %w", err)
	}

	var rec PersistedState
	if err := json.Unmarshal(raw, &rec); err != nil {
		return PersistedState{}, false, fmt.Errorf("decode state: %w", err)
	}
	return rec, true, nil
}

func (p *SQLitePersister) Save(rec PersistedState) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	_, err = p.db.Exec(
		`INSERT INTO app_state (name, data, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		stateRecordName, raw, time.Now().UTC().Truncate(time.Second),
	)
	if err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}
