package store

import (
	"context"
	"errors"

	"github.com/machofv/geolocation-api/internal/models"
)

// Sentinel errors returned by every Store implementation. Callers match them
// with errors.Is rather than comparing message strings.
var (
	// ErrNotFound means no stored row matched the lookup, search, or update target.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate means a record with the same ip_address already exists.
	// The SQLite backend surfaces it straight from the unique index, so it is
	// reliable even under concurrent writers.
	ErrDuplicate = errors.New("record already exists")
)

// Store defines the persistence operations for geolocation records.
// Implementations: SQLite (database/sql, file-backed) and MySQL (GORM).
type Store interface {
	// FindByIP returns every record stored for an exact ip_address match.
	// Returns ErrNotFound when there are none.
	FindByIP(ctx context.Context, ip string) ([]models.Record, error)

	// Search returns records matching all supplied filters (AND semantics),
	// capped at filters.Limit rows. Returns ErrNotFound when nothing matches.
	// An all-nil filter set is the caller's responsibility to reject.
	Search(ctx context.Context, filters models.RecordFilters) ([]models.Record, error)

	// Create inserts a new record. Returns ErrDuplicate when a record with
	// the same ip_address already exists.
	Create(ctx context.Context, rec models.Record) error

	// Update applies the supplied fields to the record with the given
	// ip_address and returns the row as stored afterwards. Returns
	// ErrNotFound when no such record exists.
	Update(ctx context.Context, ip string, updates models.RecordUpdates) (*models.Record, error)

	// Close releases the underlying connections.
	Close() error
}
