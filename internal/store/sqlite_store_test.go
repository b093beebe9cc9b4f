package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/machofv/geolocation-api/internal/models"
)

func floatPtr(f float64) *float64 { return &f }
func intPtr(i int) *int           { return &i }
func strPtr(s string) *string     { return &s }

// newTestSQLiteStore opens a store on a fresh database file under t.TempDir
func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create sqlite store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func katowiceRecord() models.Record {
	return models.Record{
		IPAddress: "1.2.3.4",
		Country:   "Poland",
		Region:    "Silesia",
		City:      "Katowice",
		ZipCode:   40514,
		Latitude:  34.04,
		Longitude: -118.02,
	}
}

// TestSQLiteStore_CreateAndFindByIP tests the insert/lookup round trip
func TestSQLiteStore_CreateAndFindByIP(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	if err := s.Create(ctx, katowiceRecord()); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	records, err := s.FindByIP(ctx, "1.2.3.4")
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}

	got := records[0]
	want := katowiceRecord()
	if got.IPAddress != want.IPAddress || got.Country != want.Country ||
		got.Region != want.Region || got.City != want.City {
		t.Errorf("string fields mismatch: got %+v", got)
	}
	if got.ZipCode != want.ZipCode {
		t.Errorf("expected zip_code %d, got %d", want.ZipCode, got.ZipCode)
	}
	if got.Latitude != want.Latitude || got.Longitude != want.Longitude {
		t.Errorf("coordinates mismatch: got %f/%f", got.Latitude, got.Longitude)
	}
	if got.ID == 0 {
		t.Error("expected an auto-assigned id")
	}
}

// TestSQLiteStore_FindByIP_NotFound tests lookup on an empty table
func TestSQLiteStore_FindByIP_NotFound(t *testing.T) {
	s := newTestSQLiteStore(t)

	_, err := s.FindByIP(context.Background(), "9.9.9.9")

	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

// TestSQLiteStore_Create_Duplicate tests the unique index on ip_address
func TestSQLiteStore_Create_Duplicate(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	if err := s.Create(ctx, katowiceRecord()); err != nil {
		t.Fatalf("first create failed: %v", err)
	}

	// Same ip, different attributes - the index must still reject it
	dup := katowiceRecord()
	dup.City = "Krakow"
	err := s.Create(ctx, dup)

	if !errors.Is(err, ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}

	// The first row must be intact
	records, err := s.FindByIP(ctx, "1.2.3.4")
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if len(records) != 1 || records[0].City != "Katowice" {
		t.Errorf("expected the original row untouched, got %+v", records)
	}
}

// TestSQLiteStore_Search tests filter combinations against seeded rows
func TestSQLiteStore_Search(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	seed := []models.Record{
		{IPAddress: "1.2.3.4", Country: "Poland", Region: "Silesia", City: "Katowice", ZipCode: 40514, Latitude: 34.04, Longitude: -118.02},
		{IPAddress: "5.6.7.8", Country: "Poland", Region: "Mazovia", City: "Warsaw", ZipCode: 1001, Latitude: 52.23, Longitude: 21.01},
		{IPAddress: "8.8.8.8", Country: "United States", Region: "California", City: "Mountain View", ZipCode: 94043, Latitude: 37.42, Longitude: -122.08},
	}
	for _, rec := range seed {
		if err := s.Create(ctx, rec); err != nil {
			t.Fatalf("seed insert failed: %v", err)
		}
	}

	tests := []struct {
		name        string
		filters     models.RecordFilters
		expectedIPs []string
	}{
		{
			name:        "by country",
			filters:     models.RecordFilters{Country: strPtr("Poland"), Limit: 10},
			expectedIPs: []string{"1.2.3.4", "5.6.7.8"},
		},
		{
			name:        "by country and region",
			filters:     models.RecordFilters{Country: strPtr("Poland"), Region: strPtr("Silesia"), Limit: 10},
			expectedIPs: []string{"1.2.3.4"},
		},
		{
			name:        "by zip",
			filters:     models.RecordFilters{ZipCode: intPtr(94043), Limit: 10},
			expectedIPs: []string{"8.8.8.8"},
		},
		{
			name:        "by coordinates",
			filters:     models.RecordFilters{Latitude: floatPtr(52.23), Longitude: floatPtr(21.01), Limit: 10},
			expectedIPs: []string{"5.6.7.8"},
		},
		{
			name:        "by ip filter",
			filters:     models.RecordFilters{IP: strPtr("1.2.3.4"), Limit: 10},
			expectedIPs: []string{"1.2.3.4"},
		},
		{
			name:        "limit caps results",
			filters:     models.RecordFilters{Country: strPtr("Poland"), Limit: 1},
			expectedIPs: []string{"1.2.3.4"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := s.Search(ctx, tt.filters)
			if err != nil {
				t.Fatalf("search failed: %v", err)
			}
			if len(records) != len(tt.expectedIPs) {
				t.Fatalf("expected %d records, got %d", len(tt.expectedIPs), len(records))
			}
			for i, ip := range tt.expectedIPs {
				if records[i].IPAddress != ip {
					t.Errorf("expected record %d to be %s, got %s", i, ip, records[i].IPAddress)
				}
			}
		})
	}
}

// TestSQLiteStore_Search_NoMatch tests a filter matching zero rows
func TestSQLiteStore_Search_NoMatch(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	if err := s.Create(ctx, katowiceRecord()); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	_, err := s.Search(ctx, models.RecordFilters{Country: strPtr("Germany"), Limit: 10})

	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

// TestSQLiteStore_Update tests partial updates leave other fields alone
func TestSQLiteStore_Update(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	if err := s.Create(ctx, katowiceRecord()); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	updated, err := s.Update(ctx, "1.2.3.4", models.RecordUpdates{
		City:    strPtr("Krakow"),
		ZipCode: intPtr(30001),
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}

	if updated.City != "Krakow" || updated.ZipCode != 30001 {
		t.Errorf("expected updated fields applied, got %+v", updated)
	}
	if updated.Country != "Poland" || updated.Region != "Silesia" {
		t.Errorf("expected untouched fields preserved, got %+v", updated)
	}
	if updated.Latitude != 34.04 || updated.Longitude != -118.02 {
		t.Errorf("expected coordinates preserved, got %+v", updated)
	}

	// The change must be visible through a fresh read
	records, err := s.FindByIP(ctx, "1.2.3.4")
	if err != nil {
		t.Fatalf("re-read failed: %v", err)
	}
	if records[0].City != "Krakow" {
		t.Errorf("expected persisted city 'Krakow', got %q", records[0].City)
	}
}

// TestSQLiteStore_Update_NotFound tests updating a missing ip
func TestSQLiteStore_Update_NotFound(t *testing.T) {
	s := newTestSQLiteStore(t)

	_, err := s.Update(context.Background(), "9.9.9.9", models.RecordUpdates{
		City: strPtr("Nowhere"),
	})

	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

// TestSQLiteStore_Reset tests the bootstrap-only table rebuild
func TestSQLiteStore_Reset(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	if err := s.Create(ctx, katowiceRecord()); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if err := s.Reset(ctx); err != nil {
		t.Fatalf("reset failed: %v", err)
	}

	count, err := s.Count(ctx)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 0 {
		t.Errorf("expected empty table after reset, got %d rows", count)
	}

	// The schema must still be usable
	if err := s.Create(ctx, katowiceRecord()); err != nil {
		t.Errorf("create after reset failed: %v", err)
	}
}

// TestSQLiteStore_Count tests the row counter
func TestSQLiteStore_Count(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	count, err := s.Count(ctx)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 0 {
		t.Errorf("expected 0 rows, got %d", count)
	}

	if err := s.Create(ctx, katowiceRecord()); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	count, err = s.Count(ctx)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 row, got %d", count)
	}
}

// TestSQLiteStore_Persistence tests that data survives reopening the file
func TestSQLiteStore_Persistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "persist.db")
	ctx := context.Background()

	s, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	if err := s.Create(ctx, katowiceRecord()); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	reopened, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("failed to reopen store: %v", err)
	}
	defer reopened.Close()

	records, err := reopened.FindByIP(ctx, "1.2.3.4")
	if err != nil {
		t.Fatalf("find after reopen failed: %v", err)
	}
	if len(records) != 1 || records[0].City != "Katowice" {
		t.Errorf("expected persisted record, got %+v", records)
	}
}

// TestSQLiteStore_NullColumns tests scanning rows with NULL optional columns
func TestSQLiteStore_NullColumns(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	// Hand-inserted row with only the required column set
	_, err := s.db.ExecContext(ctx, "INSERT INTO geolocation (ip_address) VALUES (?)", "5.5.5.5")
	if err != nil {
		t.Fatalf("raw insert failed: %v", err)
	}

	records, err := s.FindByIP(ctx, "5.5.5.5")
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	got := records[0]
	if got.Country != "" || got.Region != "" || got.City != "" {
		t.Errorf("expected empty strings for NULL text columns, got %+v", got)
	}
	if got.ZipCode != 0 || got.Latitude != 0 || got.Longitude != 0 {
		t.Errorf("expected zero values for NULL numeric columns, got %+v", got)
	}
}
