package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"
	"github.com/machofv/geolocation-api/internal/logger"
	"github.com/machofv/geolocation-api/internal/metrics"
	"github.com/machofv/geolocation-api/internal/models"
	"github.com/machofv/geolocation-api/internal/store"
)

// DefaultSearchLimit caps filtered searches when the caller does not pass one
const DefaultSearchLimit = 10

// Errors the service can return in addition to the store sentinels.
// Handlers match them with errors.Is to pick the HTTP status.
var (
	// ErrValidation wraps every input-validation failure; the wrapped
	// message is safe to show to the caller.
	ErrValidation = errors.New("validation failed")

	// ErrNoFilters means a filtered search was requested with no filter at
	// all. An unfiltered full-table scan is not allowed on this endpoint.
	ErrNoFilters = errors.New("at least one filtering parameter must be provided")

	// ErrNoFields means an update was requested with nothing to update.
	ErrNoFields = errors.New("no fields to update were provided")
)

// RecordService handles business logic for geolocation records
// This is the service layer - it sits between handlers and stores
//
// Responsibilities:
//   - Validate and sanitize input
//   - Call the store
//   - Translate store errors into the error taxonomy
type RecordService struct {
	store     store.Store
	validator *validator.Validate
	metrics   *metrics.Metrics
	logger    *logger.Logger
}

// NewRecordService creates a new record service
//
// Parameters:
//   - store: any implementation of the Store interface
//   - m: metrics collector (optional, can be nil)
//   - log: logger (optional, can be nil)
//
// Returns:
//   - *RecordService: pointer to the created service
func NewRecordService(store store.Store, m *metrics.Metrics, log *logger.Logger) *RecordService {
	if log == nil {
		log = logger.NewDefault()
	}
	return &RecordService{
		store:     store,
		validator: validator.New(),
		metrics:   m,
		logger:    log.WithComponent("RecordService"),
	}
}

// Lookup returns every record stored for the exact ip_address.
//
// The ip must be 7-45 characters long: shortest dotted IPv4 ("1.2.3.4")
// through the longest IPv4-mapped IPv6 textual form.
func (s *RecordService) Lookup(ctx context.Context, ip string) ([]models.Record, error) {
	if err := s.validator.Var(ip, "required,min=7,max=45"); err != nil {
		s.logger.Warn().Str("ip", ip).Msg("Invalid ip path parameter")
		s.countValidationError("lookup")
		return nil, fmt.Errorf("%w: ip must be between 7 and 45 characters", ErrValidation)
	}

	s.logger.Debug().Str("ip", ip).Msg("Looking up records by ip")
	records, err := s.store.FindByIP(ctx, ip)
	if err != nil {
		s.countOperation("lookup", err)
		if errors.Is(err, store.ErrNotFound) {
			s.logger.Debug().Str("ip", ip).Msg("No records for ip")
		} else {
			s.logger.Error().Err(err).Str("ip", ip).Msg("Store error during lookup")
		}
		return nil, err
	}

	s.logger.Info().Str("ip", ip).Int("records", len(records)).Msg("Lookup successful")
	s.countOperation("lookup", nil)
	return records, nil
}

// Search returns records matching all supplied filters.
//
// At least one filter must be present; a zero limit falls back to
// DefaultSearchLimit.
func (s *RecordService) Search(ctx context.Context, filters models.RecordFilters) ([]models.Record, error) {
	if filters.Empty() {
		s.logger.Warn().Msg("Filtered search requested with no filters")
		s.countValidationError("search")
		return nil, ErrNoFilters
	}
	if filters.Limit == 0 {
		filters.Limit = DefaultSearchLimit
	}
	if filters.Limit < 1 {
		s.countValidationError("search")
		return nil, fmt.Errorf("%w: limit must be at least 1", ErrValidation)
	}
	if filters.ZipCode != nil && *filters.ZipCode < 0 {
		s.countValidationError("search")
		return nil, fmt.Errorf("%w: zip_code must not be negative", ErrValidation)
	}

	records, err := s.store.Search(ctx, filters)
	if err != nil {
		s.countOperation("search", err)
		if !errors.Is(err, store.ErrNotFound) {
			s.logger.Error().Err(err).Msg("Store error during search")
		}
		return nil, err
	}

	s.logger.Info().Int("records", len(records)).Int("limit", filters.Limit).Msg("Search successful")
	s.countOperation("search", nil)
	return records, nil
}

// Create sanitizes and validates the input, then inserts it as a new record.
// The returned input carries the sanitized field values the caller should see
// echoed back. A duplicate ip_address surfaces as store.ErrDuplicate.
func (s *RecordService) Create(ctx context.Context, input models.RecordInput) (models.RecordInput, error) {
	input = input.Sanitized()

	if err := s.validator.Struct(input); err != nil {
		s.logger.Warn().Err(err).Str("ip", input.IP).Msg("Invalid record input")
		s.countValidationError("create")
		return input, fmt.Errorf("%w: %s", ErrValidation, validationMessage(err))
	}
	if !isFinite(input.Latitude) || !isFinite(input.Longitude) {
		s.countValidationError("create")
		return input, fmt.Errorf("%w: coordinates must be finite numbers", ErrValidation)
	}

	if err := s.store.Create(ctx, input.ToRecord()); err != nil {
		s.countOperation("create", err)
		if errors.Is(err, store.ErrDuplicate) {
			s.logger.Warn().Str("ip", input.IP).Msg("Duplicate ip on create")
		} else {
			s.logger.Error().Err(err).Str("ip", input.IP).Msg("Store error during create")
		}
		return input, err
	}

	s.logger.Info().Str("ip", input.IP).Str("country", input.Country).Msg("Record created")
	s.countOperation("create", nil)
	return input, nil
}

// Update applies the supplied fields to the record with the given ip_address
// and returns the row as stored afterwards. The ip itself is not updatable.
func (s *RecordService) Update(ctx context.Context, ip string, updates models.RecordUpdates) (*models.Record, error) {
	if err := s.validator.Var(ip, "required,min=7,max=45"); err != nil {
		s.countValidationError("update")
		return nil, fmt.Errorf("%w: ip must be between 7 and 45 characters", ErrValidation)
	}
	if updates.Empty() {
		s.logger.Warn().Str("ip", ip).Msg("Update requested with no fields")
		s.countValidationError("update")
		return nil, ErrNoFields
	}
	if updates.ZipCode != nil && *updates.ZipCode < 0 {
		s.countValidationError("update")
		return nil, fmt.Errorf("%w: zip_code must not be negative", ErrValidation)
	}

	record, err := s.store.Update(ctx, ip, updates)
	if err != nil {
		s.countOperation("update", err)
		if errors.Is(err, store.ErrNotFound) {
			s.logger.Debug().Str("ip", ip).Msg("No record to update")
		} else {
			s.logger.Error().Err(err).Str("ip", ip).Msg("Store error during update")
		}
		return nil, err
	}

	s.logger.Info().Str("ip", ip).Msg("Record updated")
	s.countOperation("update", nil)
	return record, nil
}

// Close cleans up resources
// This will close the underlying store (database connections, etc.)
func (s *RecordService) Close() error {
	return s.store.Close()
}

// countOperation records the outcome of one store-backed operation
func (s *RecordService) countOperation(operation string, err error) {
	if s.metrics == nil {
		return
	}
	result := "success"
	switch {
	case err == nil:
	case errors.Is(err, store.ErrNotFound):
		result = "not_found"
	case errors.Is(err, store.ErrDuplicate):
		result = "conflict"
	default:
		result = "error"
	}
	s.metrics.RecordOperationsTotal.WithLabelValues(operation, result).Inc()
}

// countValidationError records one request rejected before touching the store
func (s *RecordService) countValidationError(operation string) {
	if s.metrics == nil {
		return
	}
	s.metrics.ValidationErrorsTotal.WithLabelValues(operation).Inc()
	s.metrics.RecordOperationsTotal.WithLabelValues(operation, "bad_request").Inc()
}

// validationMessage turns validator errors into a short caller-facing message
// without leaking struct internals
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		field := verrs[0]
		return fmt.Sprintf("field %q failed on the %q constraint", field.Field(), field.Tag())
	}
	return "invalid input"
}

// isFinite reports whether the pointed-to float is a usable coordinate.
// A nil pointer is caught by the required tag before this runs.
func isFinite(f *float64) bool {
	if f == nil {
		return false
	}
	return !math.IsNaN(*f) && !math.IsInf(*f, 0)
}
