package external

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"biosentinel/internal/types"

	gocache "github.com/patrickmn/go-cache"
)

// gbifAPIBase is the default GBIF REST API base URL.
// Overridable in tests via GBIFClientConfig.BaseURL.
const gbifAPIBase = "https://api.gbif.org/v1"

const (
	// historicalFetchLimit caps the historical occurrence query. The value
	// is read only for its record count, so a small page is enough.
	historicalFetchLimit = 100

	// fallbackHistoricalAverage is returned when the historical query
	// fails or comes back empty. It keeps the trend ratio denominator
	// meaningful for species with thin GBIF coverage.
	fallbackHistoricalAverage = 4

	defaultGBIFCacheTTL = 10 * time.Minute
)

// GBIFClientConfig holds the configuration for creating a GBIFClient.
type GBIFClientConfig struct {
	BaseURL     string // Override for testing; defaults to gbifAPIBase
	CacheTTL    time.Duration
	HistoryDays int
	Logger      *slog.Logger
	Clock       types.Clock
}

// Occurrence is a single GBIF occurrence record. Only the fields the risk
// pipeline and the species search proxy care about are decoded; the rest
// of the (large) GBIF payload is discarded.
type Occurrence struct {
	Key              int64   `json:"key"`
	ScientificName   string  `json:"scientificName"`
	DecimalLatitude  float64 `json:"decimalLatitude"`
	DecimalLongitude float64 `json:"decimalLongitude"`
	EventDate        string  `json:"eventDate,omitempty"`
	Country          string  `json:"country,omitempty"`
}

// occurrenceSearchResponse is the envelope returned by
// GET /occurrence/search.
type occurrenceSearchResponse struct {
	Count   int64        `json:"count"`
	Results []Occurrence `json:"results"`
}

// GBIFClient fetches species occurrence data from the GBIF occurrence
// API through BaseClient. The two read paths used by the risk scorer
// (recent window and historical baseline) fail soft: any upstream
// failure degrades to an empty result or the fallback average rather
// than an error, so a GBIF outage never blocks classification.
type GBIFClient struct {
	base        *BaseClient
	baseURL     string
	cache       *gocache.Cache
	historyDays int
	logger      *slog.Logger
	clock       types.Clock
}

// NewGBIFClient creates a GBIFClient. The httpClient timeout bounds every
// call (30 seconds in production); there are no retries.
func NewGBIFClient(httpClient *http.Client, cfg GBIFClientConfig) *GBIFClient {
	base := NewBaseClient(httpClient, "gbif", "BioSentinel/1.0")
	return NewGBIFClientWithBase(base, cfg)
}

// NewGBIFClientWithBase creates a GBIFClient with a pre-configured
// BaseClient. This is useful for testing when you want to control the
// breaker configuration.
func NewGBIFClientWithBase(base *BaseClient, cfg GBIFClientConfig) *GBIFClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = gbifAPIBase
	}

	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = defaultGBIFCacheTTL
	}

	historyDays := cfg.HistoryDays
	if historyDays <= 0 {
		historyDays = 90
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	clock := cfg.Clock
	if clock == nil {
		clock = types.RealClock{}
	}

	return &GBIFClient{
		base:        base,
		baseURL:     trimTrailingSlash(baseURL),
		cache:       gocache.New(ttl, 2*ttl),
		historyDays: historyDays,
		logger:      logger,
		clock:       clock,
	}
}

// RecentOccurrences returns occurrence records for the species around the
// given point. Results are cached per (species, point, radius, limit) for
// the configured TTL. On any upstream failure it logs and returns nil;
// callers treat that as zero recent sightings.
func (c *GBIFClient) RecentOccurrences(ctx context.Context, species string, lat, lon float64, radiusKm, limit int) []Occurrence {
	if radiusKm <= 0 {
		radiusKm = types.DefaultSearchRadiusKm
	}
	if limit <= 0 {
		limit = types.DefaultOccurrenceLimit
	}

	cacheKey := fmt.Sprintf("recent|%s|%.4f|%.4f|%d|%d", species, lat, lon, radiusKm, limit)
	if cached, ok := c.cache.Get(cacheKey); ok {
		return cached.([]Occurrence)
	}

	params := url.Values{}
	params.Set("scientificName", species)
	params.Set("decimalLatitude", formatCoord(lat))
	params.Set("decimalLongitude", formatCoord(lon))
	params.Set("radius", strconv.Itoa(radiusKm))
	params.Set("limit", strconv.Itoa(limit))

	results, err := c.searchOccurrences(ctx, params)
	if err != nil {
		c.logger.WarnContext(ctx, "GBIF occurrence fetch failed; treating as zero sightings",
			"species", species,
			"error", err,
		)
		return nil
	}

	c.cache.Set(cacheKey, results, gocache.DefaultExpiration)
	return results
}

// HistoricalAverage returns the occurrence count for the species around
// the given point before the historical cutoff (now minus the configured
// history window, 90 days by default). On upstream failure OR an empty
// history it returns the fallback average; a zero denominator would make
// every thinly-observed species look like a surge.
func (c *GBIFClient) HistoricalAverage(ctx context.Context, species string, lat, lon float64, radiusKm int) int {
	if radiusKm <= 0 {
		radiusKm = types.DefaultSearchRadiusKm
	}

	toDate := c.clock.Now().AddDate(0, 0, -c.historyDays).Format("2006-01-02")

	cacheKey := fmt.Sprintf("hist|%s|%.4f|%.4f|%d|%s", species, lat, lon, radiusKm, toDate)
	if cached, ok := c.cache.Get(cacheKey); ok {
		return cached.(int)
	}

	params := url.Values{}
	params.Set("scientificName", species)
	params.Set("decimalLatitude", formatCoord(lat))
	params.Set("decimalLongitude", formatCoord(lon))
	params.Set("radius", strconv.Itoa(radiusKm))
	params.Set("limit", strconv.Itoa(historicalFetchLimit))
	params.Set("toDate", toDate)

	results, err := c.searchOccurrences(ctx, params)
	if err != nil {
		c.logger.WarnContext(ctx, "GBIF historical fetch failed; using fallback average",
			"species", species,
			"error", err,
		)
		return fallbackHistoricalAverage
	}

	avg := len(results)
	if avg == 0 {
		avg = fallbackHistoricalAverage
	}

	c.cache.Set(cacheKey, avg, gocache.DefaultExpiration)
	return avg
}

// SearchSpecies proxies GET /species/search for the species lookup
// endpoint and returns the raw GBIF payload. Unlike the occurrence
// paths this surfaces upstream failures to the caller, since the result
// is shown directly to a user rather than folded into a risk score.
func (c *GBIFClient) SearchSpecies(ctx context.Context, query string, limit int) (json.RawMessage, error) {
	if limit <= 0 {
		limit = 20
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(limit))

	reqURL := fmt.Sprintf("%s/species/search?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, types.NewAppError(
			types.ErrCodeInternalUnexpected,
			"failed to create GBIF species search request",
			err,
		)
	}

	resp, err := c.base.Do(req)
	if err != nil {
		return nil, types.NewAppError(
			types.ErrCodeUpstreamOccurrence,
			"GBIF species search failed",
			err,
		)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, c.handleErrorResponse(resp, "SearchSpecies")
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, types.NewAppError(
			types.ErrCodeInternalUnexpected,
			"failed to read GBIF species search response",
			err,
		)
	}

	return json.RawMessage(payload), nil
}

// searchOccurrences performs a single GET /occurrence/search call and
// decodes the results page.
func (c *GBIFClient) searchOccurrences(ctx context.Context, params url.Values) ([]Occurrence, error) {
	reqURL := fmt.Sprintf("%s/occurrence/search?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, types.NewAppError(
			types.ErrCodeInternalUnexpected,
			"failed to create GBIF occurrence request",
			err,
		)
	}

	resp, err := c.base.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, c.handleErrorResponse(resp, "searchOccurrences")
	}

	var page occurrenceSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, types.NewAppError(
			types.ErrCodeUpstreamOccurrence,
			"failed to decode GBIF occurrence response",
			err,
		)
	}

	return page.Results, nil
}

// handleErrorResponse reads and logs the error body from a non-2xx
// response, then returns an appropriate AppError.
func (c *GBIFClient) handleErrorResponse(resp *http.Response, operation string) *types.AppError {
	bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	c.logger.Error("GBIF API error",
		"operation", operation,
		"status_code", resp.StatusCode,
		"response_body", string(bodyBytes),
	)

	return types.NewAppError(
		types.ErrCodeUpstreamOccurrence,
		fmt.Sprintf("GBIF returned %d", resp.StatusCode),
		fmt.Errorf("GBIF %s returned %d: %s", operation, resp.StatusCode, bodyBytes),
	)
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func trimTrailingSlash(s string) string {
	for len(s) > 0 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}
	return s
}
