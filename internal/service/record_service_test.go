package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/machofv/geolocation-api/internal/models"
	"github.com/machofv/geolocation-api/internal/store"
)

func floatPtr(f float64) *float64 { return &f }
func intPtr(i int) *int           { return &i }
func strPtr(s string) *string     { return &s }

func validInput() models.RecordInput {
	return models.RecordInput{
		IP:        "1.2.3.4",
		Country:   "poland",
		Region:    "silesia",
		City:      "katowice",
		ZipCode:   40514,
		Latitude:  floatPtr(34.04),
		Longitude: floatPtr(-118.02),
	}
}

// TestRecordService_Lookup_Success tests successful lookups
func TestRecordService_Lookup_Success(t *testing.T) {
	mockStore := store.NewMockStore()
	svc := NewRecordService(mockStore, nil, nil)

	records, err := svc.Lookup(context.Background(), "8.8.8.8")

	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].City != "Mountain View" {
		t.Errorf("expected city 'Mountain View', got %q", records[0].City)
	}

	if len(mockStore.FindByIPCalls) != 1 || mockStore.FindByIPCalls[0] != "8.8.8.8" {
		t.Errorf("expected one store call with '8.8.8.8', got %v", mockStore.FindByIPCalls)
	}
}

// TestRecordService_Lookup_InvalidLength tests the 7-45 character bound
func TestRecordService_Lookup_InvalidLength(t *testing.T) {
	tests := []struct {
		name string
		ip   string
	}{
		{"empty", ""},
		{"too short", "1.2.3"},
		{"six characters", "1.2.34"},
		{"too long", "0000:0000:0000:0000:0000:ffff:255.255.255.2555"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockStore := store.NewMockStore()
			svc := NewRecordService(mockStore, nil, nil)

			records, err := svc.Lookup(context.Background(), tt.ip)

			if !errors.Is(err, ErrValidation) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
			if records != nil {
				t.Error("expected nil records for invalid ip")
			}
			// Validation failures must never reach the store
			if len(mockStore.FindByIPCalls) != 0 {
				t.Errorf("expected no store calls, got %d", len(mockStore.FindByIPCalls))
			}
		})
	}
}

// TestRecordService_Lookup_NotFound tests the not-found passthrough
func TestRecordService_Lookup_NotFound(t *testing.T) {
	mockStore := store.NewEmptyMockStore()
	svc := NewRecordService(mockStore, nil, nil)

	_, err := svc.Lookup(context.Background(), "9.9.9.9")

	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

// TestRecordService_Search_NoFilters tests rejection of unfiltered searches
func TestRecordService_Search_NoFilters(t *testing.T) {
	tests := []struct {
		name    string
		filters models.RecordFilters
	}{
		{"nothing supplied", models.RecordFilters{}},
		{"only a limit", models.RecordFilters{Limit: 50}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockStore := store.NewMockStore()
			svc := NewRecordService(mockStore, nil, nil)

			_, err := svc.Search(context.Background(), tt.filters)

			if !errors.Is(err, ErrNoFilters) {
				t.Errorf("expected ErrNoFilters, got %v", err)
			}
			if len(mockStore.SearchCalls) != 0 {
				t.Error("expected the store not to be called")
			}
		})
	}
}

// TestRecordService_Search_DefaultLimit tests the fallback limit of 10
func TestRecordService_Search_DefaultLimit(t *testing.T) {
	mockStore := store.NewMockStore()
	svc := NewRecordService(mockStore, nil, nil)

	_, err := svc.Search(context.Background(), models.RecordFilters{
		Country: strPtr("United States"),
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(mockStore.SearchCalls) != 1 {
		t.Fatalf("expected 1 store call, got %d", len(mockStore.SearchCalls))
	}
	if mockStore.SearchCalls[0].Limit != DefaultSearchLimit {
		t.Errorf("expected default limit %d, got %d", DefaultSearchLimit, mockStore.SearchCalls[0].Limit)
	}
}

// TestRecordService_Search_InvalidParameters tests limit and zip bounds
func TestRecordService_Search_InvalidParameters(t *testing.T) {
	tests := []struct {
		name    string
		filters models.RecordFilters
	}{
		{"negative limit", models.RecordFilters{Country: strPtr("Poland"), Limit: -1}},
		{"negative zip", models.RecordFilters{ZipCode: intPtr(-5)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockStore := store.NewMockStore()
			svc := NewRecordService(mockStore, nil, nil)

			_, err := svc.Search(context.Background(), tt.filters)

			if !errors.Is(err, ErrValidation) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
		})
	}
}

// TestRecordService_Search_NotFound tests no-match searches
func TestRecordService_Search_NotFound(t *testing.T) {
	mockStore := store.NewMockStore()
	svc := NewRecordService(mockStore, nil, nil)

	_, err := svc.Search(context.Background(), models.RecordFilters{
		Country: strPtr("Germany"),
	})

	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

// TestRecordService_Create_Success tests a valid create with sanitization
func TestRecordService_Create_Success(t *testing.T) {
	mockStore := store.NewEmptyMockStore()
	svc := NewRecordService(mockStore, nil, nil)

	added, err := svc.Create(context.Background(), validInput())

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if added.Country != "Poland" || added.Region != "Silesia" || added.City != "Katowice" {
		t.Errorf("expected sanitized fields, got %q/%q/%q", added.Country, added.Region, added.City)
	}

	if len(mockStore.CreateCalls) != 1 {
		t.Fatalf("expected 1 store call, got %d", len(mockStore.CreateCalls))
	}
	stored := mockStore.CreateCalls[0]
	if stored.Country != "Poland" {
		t.Errorf("expected the sanitized country to be stored, got %q", stored.Country)
	}
	if stored.ZipCode != 40514 {
		t.Errorf("expected zip_code 40514, got %d", stored.ZipCode)
	}
}

// TestRecordService_Create_Duplicate tests conflict detection
func TestRecordService_Create_Duplicate(t *testing.T) {
	mockStore := store.NewEmptyMockStore()
	svc := NewRecordService(mockStore, nil, nil)

	if _, err := svc.Create(context.Background(), validInput()); err != nil {
		t.Fatalf("first create failed: %v", err)
	}

	_, err := svc.Create(context.Background(), validInput())
	if !errors.Is(err, store.ErrDuplicate) {
		t.Errorf("expected ErrDuplicate on second create, got %v", err)
	}
}

// TestRecordService_Create_Invalid tests validation rejections
func TestRecordService_Create_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.RecordInput)
	}{
		{"ip too short", func(in *models.RecordInput) { in.IP = "1.2.3" }},
		{"missing country", func(in *models.RecordInput) { in.Country = "" }},
		{"whitespace-only city", func(in *models.RecordInput) { in.City = "   " }},
		{"zero zip", func(in *models.RecordInput) { in.ZipCode = 0 }},
		{"negative zip", func(in *models.RecordInput) { in.ZipCode = -1 }},
		{"missing latitude", func(in *models.RecordInput) { in.Latitude = nil }},
		{"missing longitude", func(in *models.RecordInput) { in.Longitude = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockStore := store.NewEmptyMockStore()
			svc := NewRecordService(mockStore, nil, nil)

			input := validInput()
			tt.mutate(&input)

			_, err := svc.Create(context.Background(), input)

			if !errors.Is(err, ErrValidation) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
			if len(mockStore.CreateCalls) != 0 {
				t.Error("expected the store not to be called for invalid input")
			}
		})
	}
}

// TestRecordService_Update_Success tests a partial update
func TestRecordService_Update_Success(t *testing.T) {
	mockStore := store.NewMockStore()
	svc := NewRecordService(mockStore, nil, nil)

	record, err := svc.Update(context.Background(), "8.8.8.8", models.RecordUpdates{
		City: strPtr("Palo Alto"),
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record.City != "Palo Alto" {
		t.Errorf("expected updated city 'Palo Alto', got %q", record.City)
	}
	// Other fields untouched
	if record.Country != "United States" || record.ZipCode != 94043 {
		t.Errorf("expected other fields unchanged, got country=%q zip=%d", record.Country, record.ZipCode)
	}
}

// TestRecordService_Update_NoFields tests rejection of empty updates
func TestRecordService_Update_NoFields(t *testing.T) {
	mockStore := store.NewMockStore()
	svc := NewRecordService(mockStore, nil, nil)

	_, err := svc.Update(context.Background(), "8.8.8.8", models.RecordUpdates{})

	if !errors.Is(err, ErrNoFields) {
		t.Errorf("expected ErrNoFields, got %v", err)
	}
	if len(mockStore.UpdateCalls) != 0 {
		t.Error("expected the store not to be called")
	}
}

// TestRecordService_Update_NotFound tests updating a missing ip
func TestRecordService_Update_NotFound(t *testing.T) {
	mockStore := store.NewEmptyMockStore()
	svc := NewRecordService(mockStore, nil, nil)

	_, err := svc.Update(context.Background(), "9.9.9.9", models.RecordUpdates{
		City: strPtr("Nowhere"),
	})

	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

// TestRecordService_StoreError tests that unknown store errors pass through
// untouched so the handler maps them to a generic 500
func TestRecordService_StoreError(t *testing.T) {
	mockStore := store.NewMockStore()
	mockStore.FindByIPError = fmt.Errorf("database connection failed")
	svc := NewRecordService(mockStore, nil, nil)

	_, err := svc.Lookup(context.Background(), "8.8.8.8")

	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if errors.Is(err, store.ErrNotFound) || errors.Is(err, ErrValidation) {
		t.Errorf("store error must not match taxonomy sentinels, got %v", err)
	}
}

// TestRecordService_Close tests resource cleanup delegation
func TestRecordService_Close(t *testing.T) {
	mockStore := store.NewMockStore()
	svc := NewRecordService(mockStore, nil, nil)

	if err := svc.Close(); err != nil {
		t.Errorf("unexpected error on close: %v", err)
	}
	if !mockStore.CloseCalled {
		t.Error("expected the store to be closed")
	}
}
