package models

import "testing"

func floatPtr(f float64) *float64 { return &f }
func intPtr(i int) *int           { return &i }
func strPtr(s string) *string     { return &s }

// TestRecordInput_Sanitized tests trimming and title-casing of string fields
func TestRecordInput_Sanitized(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"lowercase", "poland", "Poland"},
		{"uppercase", "POLAND", "Poland"},
		{"mixed case", "pOlAnD", "Poland"},
		{"surrounding spaces", "  poland  ", "Poland"},
		{"multiple words", "united states", "United States"},
		{"already clean", "Poland", "Poland"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := RecordInput{Country: tt.input}
			got := input.Sanitized().Country
			if got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

// TestRecordInput_Sanitized_IP tests that the sanitizer is harmless on IPs
func TestRecordInput_Sanitized_IP(t *testing.T) {
	tests := []struct {
		name     string
		ip       string
		expected string
	}{
		{"ipv4 passes through", "1.2.3.4", "1.2.3.4"},
		{"ipv4 trimmed", " 1.2.3.4 ", "1.2.3.4"},
		{"ipv6 hex letters capitalized", "2001:db8::1", "2001:Db8::1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := RecordInput{IP: tt.ip}
			got := input.Sanitized().IP
			if got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

// TestRecordInput_Sanitized_AllFields verifies every string field is touched
func TestRecordInput_Sanitized_AllFields(t *testing.T) {
	input := RecordInput{
		IP:        " 1.2.3.4 ",
		Country:   "poland",
		Region:    "silesia",
		City:      "katowice",
		ZipCode:   40514,
		Latitude:  floatPtr(34.04),
		Longitude: floatPtr(-118.02),
	}

	got := input.Sanitized()

	if got.IP != "1.2.3.4" {
		t.Errorf("expected trimmed ip, got %q", got.IP)
	}
	if got.Country != "Poland" || got.Region != "Silesia" || got.City != "Katowice" {
		t.Errorf("expected title-cased fields, got %q/%q/%q", got.Country, got.Region, got.City)
	}
	// Numeric fields untouched
	if got.ZipCode != 40514 || *got.Latitude != 34.04 || *got.Longitude != -118.02 {
		t.Error("numeric fields must not be modified by sanitization")
	}
}

// TestRecordInput_ToRecord tests the input-to-record conversion
func TestRecordInput_ToRecord(t *testing.T) {
	input := RecordInput{
		IP:        "1.2.3.4",
		Country:   "Poland",
		Region:    "Silesia",
		City:      "Katowice",
		ZipCode:   40514,
		Latitude:  floatPtr(34.04),
		Longitude: floatPtr(-118.02),
	}

	rec := input.ToRecord()

	if rec.IPAddress != "1.2.3.4" {
		t.Errorf("expected ip_address '1.2.3.4', got %q", rec.IPAddress)
	}
	if rec.ZipCode != 40514 {
		t.Errorf("expected zip_code 40514, got %d", rec.ZipCode)
	}
	if rec.Latitude != 34.04 || rec.Longitude != -118.02 {
		t.Errorf("expected coordinates 34.04/-118.02, got %f/%f", rec.Latitude, rec.Longitude)
	}
}

// TestRecordFilters_Empty tests the no-filter detection
func TestRecordFilters_Empty(t *testing.T) {
	tests := []struct {
		name     string
		filters  RecordFilters
		expected bool
	}{
		{"no filters", RecordFilters{}, true},
		{"limit only", RecordFilters{Limit: 50}, true},
		{"ip filter", RecordFilters{IP: strPtr("1.2.3.4")}, false},
		{"country filter", RecordFilters{Country: strPtr("Poland")}, false},
		{"zip filter", RecordFilters{ZipCode: intPtr(40514)}, false},
		{"latitude filter", RecordFilters{Latitude: floatPtr(0)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filters.Empty(); got != tt.expected {
				t.Errorf("expected Empty()=%v, got %v", tt.expected, got)
			}
		})
	}
}

// TestRecordUpdates_Empty tests the no-field detection
func TestRecordUpdates_Empty(t *testing.T) {
	if !(RecordUpdates{}).Empty() {
		t.Error("expected empty updates to report Empty()=true")
	}
	if (RecordUpdates{City: strPtr("Krakow")}).Empty() {
		t.Error("expected updates with a city to report Empty()=false")
	}
	if (RecordUpdates{Longitude: floatPtr(0)}).Empty() {
		t.Error("a zero coordinate is still a supplied field")
	}
}
