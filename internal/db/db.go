package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

const searchLimit = 10

// DB wraps a database connection
type DB struct {
	*sql.DB
}

// Place is a city that can be handed to the weather provider
type Place struct {
	Name       string  `json:"name"`
	Country    string  `json:"country"`
	Admin1     string  `json:"admin1,omitempty"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	Population int64   `json:"population"`
	ASCIIName  string  `json:"-"`
}

// Label is the "Name, CC" form the provider accepts as a city query
func (p Place) Label() string {
	if p.Country == "" {
		return p.Name
	}
	return p.Name + ", " + p.Country
}

// NewDB opens (and if needed creates) the SQLite place index at path
func NewDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	// Verify connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{db}, nil
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
CREATE TABLE IF NOT EXISTS places (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	name       TEXT NOT NULL,
	ascii_name TEXT NOT NULL DEFAULT '',
	country    TEXT NOT NULL DEFAULT '',
	admin1     TEXT NOT NULL DEFAULT '',
	latitude   REAL NOT NULL,
	longitude  REAL NOT NULL,
	population INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_places_name ON places (name COLLATE NOCASE);
CREATE INDEX IF NOT EXISTS idx_places_ascii_name ON places (ascii_name COLLATE NOCASE);
`)
	return err
}

// sanitizeSearchTerm drops LIKE wildcards and the escape character so user
// input is only ever matched literally.
func sanitizeSearchTerm(term string) string {
	var b strings.Builder
	for _, r := range term {
		switch r {
		case '%', '_', '\\':
			continue
		}
		b.WriteRune(r)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// SearchPlaces returns places whose name starts with query, most populous first
func (d *DB) SearchPlaces(query string) ([]Place, error) {
	if d == nil || d.DB == nil {
		return nil, errors.New("database not initialized")
	}

	term := sanitizeSearchTerm(query)
	if term == "" {
		return nil, nil
	}
	pattern := term + "%"

	rows, err := d.Query(`
SELECT name, ascii_name, country, admin1, latitude, longitude, population
FROM places
WHERE name LIKE ? OR ascii_name LIKE ?
ORDER BY population DESC, name ASC
LIMIT ?`, pattern, pattern, searchLimit)
	if err != nil {
		return nil, fmt.Errorf("search places %q: %w", query, err)
	}
	defer rows.Close()

	var places []Place
	for rows.Next() {
		var p Place
		if err := rows.Scan(&p.Name, &p.ASCIIName, &p.Country, &p.Admin1, &p.Latitude, &p.Longitude, &p.Population); err != nil {
			return nil, fmt.Errorf("scan place: %w", err)
		}
		places = append(places, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("search places %q: %w", query, err)
	}
	return places, nil
}

const insertPlace = `INSERT INTO places (name, ascii_name, country, admin1, latitude, longitude, population) VALUES (?, ?, ?, ?, ?, ?, ?)`

func insertAll(stmt *sql.Stmt, places []Place) (int, error) {
	count := 0
	for _, p := range places {
		if _, err := stmt.Exec(p.Name, p.ASCIIName, p.Country, p.Admin1, p.Latitude, p.Longitude, p.Population); err != nil {
			return count, fmt.Errorf("insert %s: %w", p.Label(), err)
		}
		count++
	}
	return count, nil
}

// InsertPlaces bulk-loads places in a single transaction and returns the
// number of rows written.
func (d *DB) InsertPlaces(places []Place) (int, error) {
	if d == nil || d.DB == nil {
		return 0, errors.New("database not initialized")
	}

	tx, err := d.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(insertPlace)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	count, err := insertAll(stmt, places)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return count, nil
}

// PlaceImport replaces the whole index inside one transaction. Readers keep
// seeing the previous rows until Commit.
type PlaceImport struct {
	tx    *sql.Tx
	stmt  *sql.Stmt
	count int
}

// BeginImport empties the index within a new transaction. The caller must
// Commit or Rollback.
func (d *DB) BeginImport() (*PlaceImport, error) {
	if d == nil || d.DB == nil {
		return nil, errors.New("database not initialized")
	}

	tx, err := d.Begin()
	if err != nil {
		return nil, err
	}
	if _, err := tx.Exec(`DELETE FROM places`); err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("clear places: %w", err)
	}
	stmt, err := tx.Prepare(insertPlace)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	return &PlaceImport{tx: tx, stmt: stmt}, nil
}

// InsertPlaces adds a batch to the pending import
func (pi *PlaceImport) InsertPlaces(places []Place) (int, error) {
	n, err := insertAll(pi.stmt, places)
	pi.count += n
	return n, err
}

// Count is the number of rows inserted so far
func (pi *PlaceImport) Count() int { return pi.count }

// Commit publishes the imported rows
func (pi *PlaceImport) Commit() error {
	pi.stmt.Close()
	return pi.tx.Commit()
}

// Rollback abandons the import and leaves the previous index in place. It
// is a no-op after Commit.
func (pi *PlaceImport) Rollback() error {
	pi.stmt.Close()
	if err := pi.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return err
	}
	return nil
}
