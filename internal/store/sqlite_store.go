package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/machofv/geolocation-api/internal/models"
	"github.com/mattn/go-sqlite3"
)

// geolocation table. The unique index on ip_address is what turns a
// concurrent duplicate insert into a constraint violation instead of a
// silent second row.
const (
	sqliteSchema = `
	CREATE TABLE IF NOT EXISTS geolocation (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ip_address TEXT NOT NULL,
		country TEXT,
		region TEXT,
		city TEXT,
		zip INTEGER,
		latitude REAL,
		longitude REAL
	)`

	sqliteIPIndex = `
	CREATE UNIQUE INDEX IF NOT EXISTS idx_geolocation_ip_address
	ON geolocation (ip_address)`
)

// sqliteColumns is the fixed column order used by every statement builder.
// Only these code-controlled names are ever interpolated into SQL text;
// values always travel as bound parameters.
const sqliteColumns = "id, ip_address, country, region, city, zip, latitude, longitude"

// SQLiteStore implements Store on a file-backed SQLite database using
// database/sql. This is the primary backend: the datastore path comes from
// configuration and the schema is created on first open.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if necessary) the SQLite database at path
// and ensures the schema exists.
//
// Parameters:
//   - path: filesystem path to the database file (directories are created)
//
// Returns:
//   - *SQLiteStore: pointer to the created store
//   - error: any error from opening, pinging, or migrating the database
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create datastore directory: %w", err)
		}
	}

	// _busy_timeout makes concurrent writers wait instead of failing with
	// SQLITE_BUSY immediately.
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// initSchema creates the geolocation table and its unique ip index
func (s *SQLiteStore) initSchema() error {
	if _, err := s.db.Exec(sqliteSchema); err != nil {
		return fmt.Errorf("failed to create geolocation table: %w", err)
	}
	if _, err := s.db.Exec(sqliteIPIndex); err != nil {
		return fmt.Errorf("failed to create ip_address index: %w", err)
	}
	return nil
}

// Reset drops and recreates the geolocation table. Used by the bootstrap
// command only; it is deliberately not part of the Store interface.
func (s *SQLiteStore) Reset(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DROP TABLE IF EXISTS geolocation"); err != nil {
		return fmt.Errorf("failed to drop geolocation table: %w", err)
	}
	return s.initSchema()
}

// Count returns the number of stored records.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM geolocation").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return n, nil
}

// FindByIP returns all rows stored for the exact ip_address.
// Implements the Store interface method.
func (s *SQLiteStore) FindByIP(ctx context.Context, ip string) ([]models.Record, error) {
	query := "SELECT " + sqliteColumns + " FROM geolocation WHERE ip_address = ?"

	rows, err := s.db.QueryContext(ctx, query, ip)
	if err != nil {
		return nil, fmt.Errorf("failed to query records by ip: %w", err)
	}
	defer rows.Close()

	records, err := scanRecords(rows)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrNotFound
	}

	return records, nil
}

// Search builds one equality condition per supplied filter, ANDed together
// in declaration order, and caps the result at filters.Limit rows.
//
// The statement text only ever contains the fixed column names above; every
// value, including the limit, is a bound parameter.
func (s *SQLiteStore) Search(ctx context.Context, filters models.RecordFilters) ([]models.Record, error) {
	conditions := make([]string, 0, 7)
	args := make([]interface{}, 0, 8)

	for _, fc := range filterColumns(filters) {
		conditions = append(conditions, fc.column+" = ?")
		args = append(args, fc.value)
	}

	query := "SELECT " + sqliteColumns + " FROM geolocation"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " LIMIT ?"
	args = append(args, filters.Limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search records: %w", err)
	}
	defer rows.Close()

	records, err := scanRecords(rows)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrNotFound
	}

	return records, nil
}

// Create inserts a new record. A unique-index violation on ip_address is
// reported as ErrDuplicate; this is the single source of truth for conflict
// detection, so there is no separate existence check to race against.
func (s *SQLiteStore) Create(ctx context.Context, rec models.Record) error {
	query := `
	INSERT INTO geolocation (ip_address, country, region, city, zip, latitude, longitude)
	VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		rec.IPAddress, rec.Country, rec.Region, rec.City,
		rec.ZipCode, rec.Latitude, rec.Longitude,
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to insert record: %w", err)
	}

	return nil
}

// Update applies the supplied fields to the row with the given ip_address.
// One "column = ?" assignment per supplied field, values bound in declaration
// order, the target ip appended as the final WHERE parameter. Zero affected
// rows means the ip does not exist.
func (s *SQLiteStore) Update(ctx context.Context, ip string, updates models.RecordUpdates) (*models.Record, error) {
	assignments := make([]string, 0, 6)
	args := make([]interface{}, 0, 7)

	for _, uc := range updateColumns(updates) {
		assignments = append(assignments, uc.column+" = ?")
		args = append(args, uc.value)
	}
	args = append(args, ip)

	query := "UPDATE geolocation SET " + strings.Join(assignments, ", ") + " WHERE ip_address = ?"

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update record: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return nil, ErrNotFound
	}

	// Re-read so the caller gets the row exactly as stored.
	records, err := s.FindByIP(ctx, ip)
	if err != nil {
		return nil, err
	}
	return &records[0], nil
}

// Close closes the database connection.
// Should be called when the application shuts down.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// columnValue pairs a fixed column name with the bound value for it
type columnValue struct {
	column string
	value  interface{}
}

// filterColumns maps the supplied filters onto (column, value) pairs in the
// fixed declaration order. The zip_code field maps to the storage column zip.
func filterColumns(f models.RecordFilters) []columnValue {
	pairs := make([]columnValue, 0, 7)
	if f.IP != nil {
		pairs = append(pairs, columnValue{"ip_address", *f.IP})
	}
	if f.Country != nil {
		pairs = append(pairs, columnValue{"country", *f.Country})
	}
	if f.Region != nil {
		pairs = append(pairs, columnValue{"region", *f.Region})
	}
	if f.City != nil {
		pairs = append(pairs, columnValue{"city", *f.City})
	}
	if f.ZipCode != nil {
		pairs = append(pairs, columnValue{"zip", *f.ZipCode})
	}
	if f.Latitude != nil {
		pairs = append(pairs, columnValue{"latitude", *f.Latitude})
	}
	if f.Longitude != nil {
		pairs = append(pairs, columnValue{"longitude", *f.Longitude})
	}
	return pairs
}

// updateColumns maps the supplied update fields onto (column, value) pairs,
// same renames and ordering as filterColumns minus the immutable ip_address.
func updateColumns(u models.RecordUpdates) []columnValue {
	pairs := make([]columnValue, 0, 6)
	if u.Country != nil {
		pairs = append(pairs, columnValue{"country", *u.Country})
	}
	if u.Region != nil {
		pairs = append(pairs, columnValue{"region", *u.Region})
	}
	if u.City != nil {
		pairs = append(pairs, columnValue{"city", *u.City})
	}
	if u.ZipCode != nil {
		pairs = append(pairs, columnValue{"zip", *u.ZipCode})
	}
	if u.Latitude != nil {
		pairs = append(pairs, columnValue{"latitude", *u.Latitude})
	}
	if u.Longitude != nil {
		pairs = append(pairs, columnValue{"longitude", *u.Longitude})
	}
	return pairs
}

// scanRecords maps raw rows onto Records. Optional columns are scanned
// through sql.Null* so NULLs from hand-inserted rows come back as zero
// values instead of scan errors; zip→zip_code is the one field rename.
func scanRecords(rows *sql.Rows) ([]models.Record, error) {
	var records []models.Record

	for rows.Next() {
		var (
			rec                   models.Record
			country, region, city sql.NullString
			zip                   sql.NullInt64
			latitude, longitude   sql.NullFloat64
		)

		err := rows.Scan(&rec.ID, &rec.IPAddress, &country, &region, &city, &zip, &latitude, &longitude)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}

		rec.Country = country.String
		rec.Region = region.String
		rec.City = city.String
		rec.ZipCode = int(zip.Int64)
		rec.Latitude = latitude.Float64
		rec.Longitude = longitude.Float64

		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate records: %w", err)
	}

	return records, nil
}
