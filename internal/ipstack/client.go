package ipstack

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/machofv/geolocation-api/internal/logger"
	"github.com/machofv/geolocation-api/internal/models"
)

// ErrAccessKeyRequired is returned when the client is built without an API key
var ErrAccessKeyRequired = errors.New("ipstack access key is required")

// apiResponse mirrors the ipstack JSON payload. A failed request still comes
// back as HTTP 200 with the error envelope populated, so both shapes live in
// one struct. The zip arrives as a string and is coerced afterwards.
type apiResponse struct {
	Error struct {
		Code int    `json:"code"`
		Type string `json:"type"`
		Info string `json:"info"`
	} `json:"error"`
	IP          string  `json:"ip"`
	CountryName string  `json:"country_name"`
	RegionName  string  `json:"region_name"`
	City        string  `json:"city"`
	Zip         string  `json:"zip"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
}

// Result is one successful lookup: the record ready for storage plus the raw
// response body for the ingestion backup file.
type Result struct {
	Record models.Record
	Raw    []byte
}

// Client is a minimal ipstack API client used by the offline ingestion
// command. Lookups are a single GET with no retries; the caller decides what
// a failure means.
type Client struct {
	httpClient *http.Client
	baseURL    string
	accessKey  string
	logger     *logger.Logger
}

// NewClient creates an ipstack client
//
// Parameters:
//   - baseURL: API base URL, e.g. "http://api.ipstack.com/"
//   - accessKey: API access key (required)
//   - log: logger (optional, can be nil)
func NewClient(baseURL, accessKey string, log *logger.Logger) (*Client, error) {
	if accessKey == "" {
		return nil, ErrAccessKeyRequired
	}
	if log == nil {
		log = logger.NewDefault()
	}
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    baseURL,
		accessKey:  accessKey,
		logger:     log.WithComponent("ipstack"),
	}, nil
}

// Lookup fetches geolocation data for one IP address.
func (c *Client) Lookup(ctx context.Context, ip string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.buildURL(ip), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var payload apiResponse
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	// ipstack reports API-level failures inside a 200 response
	if payload.Error.Code != 0 {
		return nil, fmt.Errorf("api error: code=%d, type=%s, info=%s",
			payload.Error.Code, payload.Error.Type, payload.Error.Info)
	}

	zip := 0
	if payload.Zip != "" {
		zip, err = strconv.Atoi(payload.Zip)
		if err != nil {
			c.logger.Warn().Str("ip", ip).Str("zip", payload.Zip).Msg("Unparseable zip, storing 0")
			zip = 0
		}
	}

	return &Result{
		Record: models.Record{
			IPAddress: payload.IP,
			Country:   payload.CountryName,
			Region:    payload.RegionName,
			City:      payload.City,
			ZipCode:   zip,
			Latitude:  payload.Latitude,
			Longitude: payload.Longitude,
		},
		Raw: raw,
	}, nil
}

// buildURL assembles {base_url}{ip}?access_key={key}
func (c *Client) buildURL(ip string) string {
	query := url.Values{}
	query.Set("access_key", c.accessKey)

	return strings.TrimSuffix(c.baseURL, "/") + "/" + ip + "?" + query.Encode()
}
