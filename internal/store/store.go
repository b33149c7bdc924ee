// Package store keeps a price catalog in SQLite so it can be swapped in for the
// built-in list.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/RentalNBDAC/PI-Budget-Calculator/internal/catalog"
	"github.com/RentalNBDAC/PI-Budget-Calculator/internal/model"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite" // register sqlite driver
)

const metaExportedAt = "exported_at"

// Store is a SQLite-backed catalog.
type Store struct {
	db *sql.DB
}

// Info describes the stored catalog.
type Info struct {
	Records    int
	ExportedAt time.Time
}

// Open opens or creates the catalog database at the given path.
func Open(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating store dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)")
	if err != nil {
		return nil, fmt.Errorf("opening catalog db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Store{db: db}, nil
}

// OpenExisting opens the catalog database at the given path. Unlike Open it
// never creates one.
func OpenExisting(dbPath string) (*Store, error) {
	if _, err := os.Stat(dbPath); err != nil {
		return nil, fmt.Errorf("catalog db %s: %w", dbPath, err)
	}
	return Open(dbPath)
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// ReplaceAll swaps the stored catalog for records in one transaction,
// preserving their order.
func (s *Store) ReplaceAll(records []model.PriceRecord) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec("DELETE FROM items"); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`INSERT INTO items (position, location, unit, name, price)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	for i, r := range records {
		if _, err := stmt.Exec(i, r.Location, r.Unit, r.Name, r.Price.String()); err != nil {
			return fmt.Errorf("inserting %q: %w", r.Name, err)
		}
	}

	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := tx.Exec(`INSERT OR REPLACE INTO catalog_meta (key, value) VALUES (?, ?)`,
		metaExportedAt, now); err != nil {
		return err
	}

	return tx.Commit()
}

// Records reads all stored records in catalog order.
func (s *Store) Records() ([]model.PriceRecord, error) {
	rows, err := s.db.Query(`SELECT location, unit, name, price FROM items ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var records []model.PriceRecord
	for rows.Next() {
		var r model.PriceRecord
		var price string
		if err := rows.Scan(&r.Location, &r.Unit, &r.Name, &price); err != nil {
			return nil, err
		}
		r.Price, err = decimal.NewFromString(price)
		if err != nil {
			return nil, fmt.Errorf("item %q: bad price %q: %w", r.Name, price, err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Catalog loads the stored records into a read-only catalog.
func (s *Store) Catalog() (*catalog.Catalog, error) {
	records, err := s.Records()
	if err != nil {
		return nil, err
	}
	return catalog.New(records), nil
}

// Info returns the record count and last export time.
func (s *Store) Info() (Info, error) {
	var info Info
	if err := s.db.QueryRow("SELECT COUNT(*) FROM items").Scan(&info.Records); err != nil {
		return info, err
	}

	var ts string
	err := s.db.QueryRow("SELECT value FROM catalog_meta WHERE key = ?", metaExportedAt).Scan(&ts)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return info, nil
	case err != nil:
		return info, err
	}
	info.ExportedAt, _ = time.Parse(time.RFC3339, ts)
	return info, nil
}
