package models

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Record represents one stored geolocation entry
// JSON tags define the response shape; the surrogate key stays internal
type Record struct {
	ID        int64   `json:"-"`          // Storage row id (never exposed)
	IPAddress string  `json:"ip_address"` // IPv4 or IPv6 address
	Country   string  `json:"country"`    // Country where the address is located
	Region    string  `json:"region"`     // Region within the country
	City      string  `json:"city"`       // City name
	ZipCode   int     `json:"zip_code"`   // ZIP postal code (column "zip" in storage)
	Latitude  float64 `json:"latitude"`   // North-south coordinate
	Longitude float64 `json:"longitude"`  // West-east coordinate
}

// RecordInput is the create-request body. All fields are required; string
// fields are sanitized (trim + title-case) before validation and persistence.
// Latitude/longitude are pointers so that a missing field can be told apart
// from a legitimate 0.0 coordinate.
type RecordInput struct {
	IP        string   `json:"ip" validate:"required,min=7,max=45"`
	Country   string   `json:"country" validate:"required,min=1,max=100"`
	Region    string   `json:"region" validate:"required,min=1,max=100"`
	City      string   `json:"city" validate:"required,min=1,max=100"`
	ZipCode   int      `json:"zip_code" validate:"required,gte=1"`
	Latitude  *float64 `json:"latitude" validate:"required"`
	Longitude *float64 `json:"longitude" validate:"required"`
}

// Sanitized returns a copy with the string fields trimmed and title-cased.
// Digits and punctuation are unaffected, so IPv4 addresses pass through
// unchanged; IPv6 hex groups get their letters capitalized, matching how the
// sanitizer has always treated the ip field.
func (in RecordInput) Sanitized() RecordInput {
	out := in
	out.IP = sanitizeString(in.IP)
	out.Country = sanitizeString(in.Country)
	out.Region = sanitizeString(in.Region)
	out.City = sanitizeString(in.City)
	return out
}

// ToRecord converts validated input into a storable Record.
func (in RecordInput) ToRecord() Record {
	rec := Record{
		IPAddress: in.IP,
		Country:   in.Country,
		Region:    in.Region,
		City:      in.City,
		ZipCode:   in.ZipCode,
	}
	if in.Latitude != nil {
		rec.Latitude = *in.Latitude
	}
	if in.Longitude != nil {
		rec.Longitude = *in.Longitude
	}
	return rec
}

// sanitizeString trims surrounding whitespace and title-cases each word
func sanitizeString(s string) string {
	return cases.Title(language.English).String(strings.TrimSpace(s))
}

// RecordFilters is the sparse filter set for the search endpoint.
// Nil means "not supplied"; every present filter becomes one equality
// condition, ANDed together in declaration order.
type RecordFilters struct {
	IP        *string
	Country   *string
	Region    *string
	City      *string
	ZipCode   *int
	Latitude  *float64
	Longitude *float64
	Limit     int
}

// Empty reports whether no filter field was supplied (limit does not count).
func (f RecordFilters) Empty() bool {
	return f.IP == nil && f.Country == nil && f.Region == nil && f.City == nil &&
		f.ZipCode == nil && f.Latitude == nil && f.Longitude == nil
}

// RecordUpdates is the sparse field set for the partial-update endpoint.
// The target ip_address is not updatable and is passed separately.
type RecordUpdates struct {
	Country   *string
	Region    *string
	City      *string
	ZipCode   *int
	Latitude  *float64
	Longitude *float64
}

// Empty reports whether no update field was supplied.
func (u RecordUpdates) Empty() bool {
	return u.Country == nil && u.Region == nil && u.City == nil &&
		u.ZipCode == nil && u.Latitude == nil && u.Longitude == nil
}

// ResultResponse wraps read results: {"result": [Record...]}
type ResultResponse struct {
	Result []Record `json:"result"`
}

// AddedResponse wraps the create response: {"added": RecordInput}
type AddedResponse struct {
	Added RecordInput `json:"added"`
}

// UpdatedResponse wraps the update response: {"updated": Record}
type UpdatedResponse struct {
	Updated Record `json:"updated"`
}

// MessageResponse is the greeting/liveness payload
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is the standard error response format
type ErrorResponse struct {
	Error string `json:"error"` // Error message
}
