package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/machofv/geolocation-api/internal/models"
	"github.com/machofv/geolocation-api/internal/service"
	"github.com/machofv/geolocation-api/internal/store"
)

// greetingMessage is the root-endpoint liveness payload
const greetingMessage = "Greetings from machofv's geolocation API!"

// RecordHandler handles HTTP requests for geolocation records
// This is the handler layer - it deals with HTTP concerns only
//
// Responsibilities:
//   - Parse HTTP requests (path/query parameters, JSON bodies)
//   - Call service methods
//   - Format HTTP responses (JSON)
//   - Map service errors onto status codes
//   - NO business logic (that's in the service layer)
type RecordHandler struct {
	service *service.RecordService
}

// NewRecordHandler creates a new record handler with the given service
func NewRecordHandler(service *service.RecordService) *RecordHandler {
	return &RecordHandler{
		service: service,
	}
}

// Index handles GET /
// @Summary      Greeting
// @Description  Basic liveness greeting
// @Tags         Records
// @Produce      json
// @Success      200  {object}  models.MessageResponse
// @Router       / [get]
func (h *RecordHandler) Index(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, models.MessageResponse{Message: greetingMessage})
}

// GetByIP handles GET /ips/{ip}
// @Summary      Get records for an IP address
// @Description  Exact-match lookup of every stored record for the given IP
// @Tags         Records
// @Produce      json
// @Param        ip   path       string  true  "IP address (IPv4 or IPv6)"  example(1.2.3.4)
// @Success      200  {object}   models.ResultResponse
// @Failure      400  {object}   models.ErrorResponse  "Invalid ip length"
// @Failure      404  {object}   models.ErrorResponse  "No records for ip"
// @Failure      429  {object}   models.ErrorResponse  "Rate limit exceeded"
// @Failure      500  {object}   models.ErrorResponse  "Internal server error"
// @Router       /ips/{ip} [get]
func (h *RecordHandler) GetByIP(w http.ResponseWriter, r *http.Request) {
	ip := chi.URLParam(r, "ip")

	records, err := h.service.Lookup(r.Context(), ip)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, models.ResultResponse{Result: records})
}

// Search handles GET /ips/
// @Summary      Search records by filters
// @Description  Returns records matching every supplied filter (AND semantics). At least one filter is required.
// @Tags         Records
// @Produce      json
// @Param        ip         query      string   false  "Filter by IP address"
// @Param        country    query      string   false  "Filter by country"
// @Param        region     query      string   false  "Filter by region"
// @Param        city       query      string   false  "Filter by city"
// @Param        zip_code   query      integer  false  "Filter by ZIP postal code"
// @Param        latitude   query      number   false  "Filter by latitude"
// @Param        longitude  query      number   false  "Filter by longitude"
// @Param        limit      query      integer  false  "Maximum records to return"  default(10)
// @Success      200  {object}   models.ResultResponse
// @Failure      400  {object}   models.ErrorResponse  "No filter supplied"
// @Failure      404  {object}   models.ErrorResponse  "No matching records"
// @Failure      429  {object}   models.ErrorResponse  "Rate limit exceeded"
// @Failure      500  {object}   models.ErrorResponse  "Internal server error"
// @Router       /ips/ [get]
func (h *RecordHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filters := models.RecordFilters{
		IP:      queryString(query, "ip"),
		Country: queryString(query, "country"),
		Region:  queryString(query, "region"),
		City:    queryString(query, "city"),
	}

	var err error
	if filters.ZipCode, err = queryInt(query, "zip_code"); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid 'zip_code' query parameter")
		return
	}
	if filters.Latitude, err = queryFloat(query, "latitude"); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid 'latitude' query parameter")
		return
	}
	if filters.Longitude, err = queryFloat(query, "longitude"); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid 'longitude' query parameter")
		return
	}

	limit, err := queryInt(query, "limit")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid 'limit' query parameter")
		return
	}
	if limit != nil {
		filters.Limit = *limit
	}

	records, err := h.service.Search(r.Context(), filters)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, models.ResultResponse{Result: records})
}

// Create handles POST /
// @Summary      Add a new record
// @Description  Stores a new geolocation record. String fields are trimmed and title-cased before persistence.
// @Tags         Records
// @Accept       json
// @Produce      json
// @Param        record  body       models.RecordInput  true  "Record to add"
// @Success      200  {object}   models.AddedResponse
// @Failure      400  {object}   models.ErrorResponse  "Validation failed"
// @Failure      409  {object}   models.ErrorResponse  "Address already exists"
// @Failure      429  {object}   models.ErrorResponse  "Rate limit exceeded"
// @Failure      500  {object}   models.ErrorResponse  "Internal server error"
// @Router       / [post]
func (h *RecordHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input models.RecordInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	added, err := h.service.Create(r.Context(), input)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, models.AddedResponse{Added: added})
}

// Update handles PUT /ips/{ip}
// @Summary      Update a record
// @Description  Applies the supplied query-parameter fields to the record with the given IP. The IP itself is not updatable.
// @Tags         Records
// @Produce      json
// @Param        ip         path       string   true   "IP address of the record to update"
// @Param        country    query      string   false  "New country"
// @Param        region     query      string   false  "New region"
// @Param        city       query      string   false  "New city"
// @Param        zip_code   query      integer  false  "New ZIP postal code"
// @Param        latitude   query      number   false  "New latitude"
// @Param        longitude  query      number   false  "New longitude"
// @Success      200  {object}   models.UpdatedResponse
// @Failure      400  {object}   models.ErrorResponse  "No field supplied"
// @Failure      404  {object}   models.ErrorResponse  "No record for ip"
// @Failure      429  {object}   models.ErrorResponse  "Rate limit exceeded"
// @Failure      500  {object}   models.ErrorResponse  "Internal server error"
// @Router       /ips/{ip} [put]
func (h *RecordHandler) Update(w http.ResponseWriter, r *http.Request) {
	ip := chi.URLParam(r, "ip")
	query := r.URL.Query()

	updates := models.RecordUpdates{
		Country: queryString(query, "country"),
		Region:  queryString(query, "region"),
		City:    queryString(query, "city"),
	}

	var err error
	if updates.ZipCode, err = queryInt(query, "zip_code"); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid 'zip_code' query parameter")
		return
	}
	if updates.Latitude, err = queryFloat(query, "latitude"); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid 'latitude' query parameter")
		return
	}
	if updates.Longitude, err = queryFloat(query, "longitude"); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid 'longitude' query parameter")
		return
	}

	record, err := h.service.Update(r.Context(), ip, updates)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, models.UpdatedResponse{Updated: *record})
}

// respondServiceError maps service/store errors onto HTTP status codes.
// Anything outside the known taxonomy becomes a generic 500; the cause is
// already logged inside the service and must not reach the caller.
func (h *RecordHandler) respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrNoFilters),
		errors.Is(err, service.ErrNoFields):
		h.respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrNotFound):
		h.respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrDuplicate):
		h.respondError(w, http.StatusConflict, err.Error())
	default:
		h.respondError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// respondJSON writes a JSON response with the given status code
func (h *RecordHandler) respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// If encoding fails, we can't change the status code since headers are already sent
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// respondError writes an error response with consistent formatting
func (h *RecordHandler) respondError(w http.ResponseWriter, statusCode int, message string) {
	h.respondJSON(w, statusCode, models.ErrorResponse{Error: message})
}

// queryString returns the named query parameter, or nil when absent/empty
func queryString(query map[string][]string, name string) *string {
	values, ok := query[name]
	if !ok || len(values) == 0 || values[0] == "" {
		return nil
	}
	return &values[0]
}

// queryInt parses the named query parameter as an integer; nil when absent
func queryInt(query map[string][]string, name string) (*int, error) {
	raw := queryString(query, name)
	if raw == nil {
		return nil, nil
	}
	value, err := strconv.Atoi(*raw)
	if err != nil {
		return nil, err
	}
	return &value, nil
}

// queryFloat parses the named query parameter as a float; nil when absent
func queryFloat(query map[string][]string, name string) (*float64, error) {
	raw := queryString(query, name)
	if raw == nil {
		return nil, nil
	}
	value, err := strconv.ParseFloat(*raw, 64)
	if err != nil {
		return nil, err
	}
	return &value, nil
}
