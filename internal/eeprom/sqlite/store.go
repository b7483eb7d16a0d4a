// internal/eeprom/sqlite/store.go
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/tamzrod/thermostat/internal/eeprom"
	_ "modernc.org/sqlite"
)

// Store keeps the EEPROM image in one SQLite row.
// Writes go to an in-memory copy; Commit replaces the row in a transaction.
type Store struct {
	db    *sql.DB
	image []byte
	dirty bool
}

const schema = `
CREATE TABLE IF NOT EXISTS eeprom_image (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	data BLOB NOT NULL,
	updated_at TEXT DEFAULT (datetime('now'))
);`

// Open opens or creates the database at path and loads the image.
// A missing image reads as erased flash. An image of a different size is
// truncated or padded with erased bytes.
func Open(path string, size int) (*Store, error) {
	if size <= 0 {
		return nil, errors.New("eeprom sqlite: size must be > 0")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("eeprom sqlite: schema: %w", err)
	}

	image := make([]byte, size)
	for i := range image {
		image[i] = 0xFF
	}

	var data []byte
	err = db.QueryRow(`SELECT data FROM eeprom_image WHERE id = 1`).Scan(&data)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// fresh database
	case err != nil:
		db.Close()
		return nil, fmt.Errorf("eeprom sqlite: load: %w", err)
	default:
		copy(image, data)
	}

	return &Store{db: db, image: image}, nil
}

func (s *Store) Size() int { return len(s.image) }

func (s *Store) Get(off int) (byte, error) {
	if err := eeprom.CheckRange(s, off); err != nil {
		return 0, err
	}
	return s.image[off], nil
}

func (s *Store) Put(off int, b byte) error {
	if err := eeprom.CheckRange(s, off); err != nil {
		return err
	}
	if s.image[off] != b {
		s.image[off] = b
		s.dirty = true
	}
	return nil
}

// Commit writes the image back if anything changed since the last commit.
func (s *Store) Commit() error {
	if !s.dirty {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO eeprom_image (id, data, updated_at) VALUES (1, ?, datetime('now'))
		 ON CONFLICT(id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		s.image,
	); err != nil {
		return fmt.Errorf("eeprom sqlite: save: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	s.dirty = false
	return nil
}

// Close releases the database. Uncommitted writes are lost.
func (s *Store) Close() error {
	return s.db.Close()
}
