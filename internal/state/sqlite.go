package state

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// SQLitePersister stores blobs in a single key-value table. The database
// lives at ~/.velo/data.db alongside the config file.
type SQLitePersister struct {
	db *sql.DB
}

// OpenSQLite opens the blob database, creating the file and schema if
// necessary.
func OpenSQLite() (*SQLitePersister, error) {
	path, err := dbPath()
	if err != nil {
		return nil, fmt.Errorf("getting db path: %w", err)
	}
	return OpenSQLiteAt(path)
}

// OpenSQLiteAt opens the blob database at an explicit path.
func OpenSQLiteAt(path string) (*SQLitePersister, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	schema := `CREATE TABLE IF NOT EXISTS documents (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL,
		updated_at TEXT DEFAULT CURRENT_TIMESTAMP
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &SQLitePersister{db: db}, nil
}

func (p *SQLitePersister) Load(key string) ([]byte, error) {
	var data []byte
	err := p.db.QueryRow(`SELECT value FROM documents WHERE key = ?`, key).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, ErrNoDocument
	}
	if err != nil {
		return nil, fmt.Errorf("loading %q: %w", key, err)
	}
	return data, nil
}

func (p *SQLitePersister) Save(key string, data []byte) error {
	_, err := p.db.Exec(`
		INSERT INTO documents (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		key, data)
	if err != nil {
		return fmt.Errorf("saving %q: %w", key, err)
	}
	return nil
}

func (p *SQLitePersister) Close() error {
	return p.db.Close()
}

// dbPath returns the path to the SQLite database file.
func dbPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".velo", "data.db"), nil
}
