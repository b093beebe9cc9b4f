package store

import (
	"context"

	"github.com/machofv/geolocation-api/internal/models"
)

// MockStore is a test double for the Store interface. It keeps records in a
// slice and implements the real CRUD semantics (duplicate detection, filter
// matching, partial updates) so handler and service tests can run whole
// scenarios against it, while still allowing forced errors per method.
type MockStore struct {
	// Records holds the mock data
	Records []models.Record

	// Track method calls for verification in tests
	FindByIPCalls []string
	SearchCalls   []models.RecordFilters
	CreateCalls   []models.Record
	UpdateCalls   []string
	CloseCalled   bool

	// Control behavior for error scenarios
	FindByIPError error
	SearchError   error
	CreateError   error
	UpdateError   error
	CloseError    error

	nextID int64
}

// NewMockStore creates a mock store pre-populated with sample records
func NewMockStore() *MockStore {
	s := NewEmptyMockStore()
	s.Records = []models.Record{
		{
			ID:        1,
			IPAddress: "8.8.8.8",
			Country:   "United States",
			Region:    "California",
			City:      "Mountain View",
			ZipCode:   94043,
			Latitude:  37.4223,
			Longitude: -122.085,
		},
		{
			ID:        2,
			IPAddress: "134.201.250.155",
			Country:   "United States",
			Region:    "California",
			City:      "Los Angeles",
			ZipCode:   90013,
			Latitude:  34.0655,
			Longitude: -118.2405,
		},
	}
	s.nextID = 3
	return s
}

// NewEmptyMockStore creates a mock store with no data
// Useful for testing "not found" scenarios
func NewEmptyMockStore() *MockStore {
	return &MockStore{
		Records:       []models.Record{},
		FindByIPCalls: []string{},
		SearchCalls:   []models.RecordFilters{},
		CreateCalls:   []models.Record{},
		UpdateCalls:   []string{},
		nextID:        1,
	}
}

// FindByIP implements the Store interface
func (m *MockStore) FindByIP(ctx context.Context, ip string) ([]models.Record, error) {
	m.FindByIPCalls = append(m.FindByIPCalls, ip)

	if m.FindByIPError != nil {
		return nil, m.FindByIPError
	}

	var matches []models.Record
	for _, rec := range m.Records {
		if rec.IPAddress == ip {
			matches = append(matches, rec)
		}
	}
	if len(matches) == 0 {
		return nil, ErrNotFound
	}

	return matches, nil
}

// Search implements the Store interface with real AND-filter semantics
func (m *MockStore) Search(ctx context.Context, filters models.RecordFilters) ([]models.Record, error) {
	m.SearchCalls = append(m.SearchCalls, filters)

	if m.SearchError != nil {
		return nil, m.SearchError
	}

	var matches []models.Record
	for _, rec := range m.Records {
		if matchesFilters(rec, filters) {
			matches = append(matches, rec)
		}
		if filters.Limit > 0 && len(matches) == filters.Limit {
			break
		}
	}
	if len(matches) == 0 {
		return nil, ErrNotFound
	}

	return matches, nil
}

// Create implements the Store interface with duplicate detection
func (m *MockStore) Create(ctx context.Context, rec models.Record) error {
	m.CreateCalls = append(m.CreateCalls, rec)

	if m.CreateError != nil {
		return m.CreateError
	}

	for _, existing := range m.Records {
		if existing.IPAddress == rec.IPAddress {
			return ErrDuplicate
		}
	}

	rec.ID = m.nextID
	m.nextID++
	m.Records = append(m.Records, rec)

	return nil
}

// Update implements the Store interface with partial-update semantics
func (m *MockStore) Update(ctx context.Context, ip string, updates models.RecordUpdates) (*models.Record, error) {
	m.UpdateCalls = append(m.UpdateCalls, ip)

	if m.UpdateError != nil {
		return nil, m.UpdateError
	}

	for i := range m.Records {
		if m.Records[i].IPAddress != ip {
			continue
		}
		if updates.Country != nil {
			m.Records[i].Country = *updates.Country
		}
		if updates.Region != nil {
			m.Records[i].Region = *updates.Region
		}
		if updates.City != nil {
			m.Records[i].City = *updates.City
		}
		if updates.ZipCode != nil {
			m.Records[i].ZipCode = *updates.ZipCode
		}
		if updates.Latitude != nil {
			m.Records[i].Latitude = *updates.Latitude
		}
		if updates.Longitude != nil {
			m.Records[i].Longitude = *updates.Longitude
		}
		updated := m.Records[i]
		return &updated, nil
	}

	return nil, ErrNotFound
}

// Close implements the Store interface
func (m *MockStore) Close() error {
	m.CloseCalled = true
	return m.CloseError
}

// matchesFilters applies the same equality-AND semantics as the SQL backends
func matchesFilters(rec models.Record, f models.RecordFilters) bool {
	if f.IP != nil && rec.IPAddress != *f.IP {
		return false
	}
	if f.Country != nil && rec.Country != *f.Country {
		return false
	}
	if f.Region != nil && rec.Region != *f.Region {
		return false
	}
	if f.City != nil && rec.City != *f.City {
		return false
	}
	if f.ZipCode != nil && rec.ZipCode != *f.ZipCode {
		return false
	}
	if f.Latitude != nil && rec.Latitude != *f.Latitude {
		return false
	}
	if f.Longitude != nil && rec.Longitude != *f.Longitude {
		return false
	}
	return true
}
