package external

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"biosentinel/internal/types"
)

// firmsAPIBase is the default NASA FIRMS region API base URL.
// Overridable in tests via FIRMSClientConfig.BaseURL.
const firmsAPIBase = "https://firms.modaps.eosdis.nasa.gov/api/region"

// firmsWorldRegion is the region used for AOI queries; hotspots are
// filtered to the bounding box client-side.
const firmsWorldRegion = "world"

// FIRMSClientConfig holds the configuration for creating a FIRMSClient.
type FIRMSClientConfig struct {
	APIKey  types.SecretString
	BaseURL string // Override for testing; defaults to firmsAPIBase
	Logger  *slog.Logger
}

// firmsResponse is the hotspot feed envelope returned by the region API.
type firmsResponse struct {
	Hotspots []types.Hotspot `json:"hotspots"`
}

// FIRMSClient fetches active-fire hotspot data from the NASA FIRMS VIIRS
// feed through BaseClient. All fetches fail soft: any upstream failure
// degrades to an empty hotspot set rather than an error, so a FIRMS
// outage reads as "no detected fires" downstream.
type FIRMSClient struct {
	base    *BaseClient
	baseURL string
	apiKey  types.SecretString
	logger  *slog.Logger
}

// NewFIRMSClient creates a FIRMSClient. The httpClient timeout bounds
// every call (30 seconds in production); there are no retries.
func NewFIRMSClient(httpClient *http.Client, cfg FIRMSClientConfig) *FIRMSClient {
	base := NewBaseClient(httpClient, "firms", "BioSentinel/1.0")
	return NewFIRMSClientWithBase(base, cfg)
}

// NewFIRMSClientWithBase creates a FIRMSClient with a pre-configured
// BaseClient.
func NewFIRMSClientWithBase(base *BaseClient, cfg FIRMSClientConfig) *FIRMSClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = firmsAPIBase
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &FIRMSClient{
		base:    base,
		baseURL: trimTrailingSlash(baseURL),
		apiKey:  cfg.APIKey,
		logger:  logger,
	}
}

// FetchRegion returns the near-real-time VIIRS hotspot feed for a named
// FIRMS region over the given day window. On any upstream failure it
// logs and returns an empty feed.
func (c *FIRMSClient) FetchRegion(ctx context.Context, region string, days int) *types.FireData {
	if days <= 0 {
		days = 1
	}

	data, err := c.fetchFeed(ctx, region, days)
	if err != nil {
		c.logger.WarnContext(ctx, "FIRMS fetch failed; treating as no detected fires",
			"region", region,
			"error", err,
		)
		return &types.FireData{}
	}

	return data
}

// FetchAOI returns the hotspots inside the bounding box, filtered from
// the world feed. On any upstream failure it logs and returns an empty
// feed.
func (c *FIRMSClient) FetchAOI(ctx context.Context, aoi types.AOI, days int) *types.FireData {
	if days <= 0 {
		days = 1
	}

	data, err := c.fetchFeed(ctx, firmsWorldRegion, days)
	if err != nil {
		c.logger.WarnContext(ctx, "FIRMS AOI fetch failed; treating as no detected fires",
			"min_lat", aoi.MinLat,
			"max_lat", aoi.MaxLat,
			"error", err,
		)
		return &types.FireData{}
	}

	filtered := make([]types.Hotspot, 0, len(data.Hotspots))
	for _, h := range data.Hotspots {
		if aoi.Contains(h.Latitude, h.Longitude) {
			filtered = append(filtered, h)
		}
	}

	return &types.FireData{Hotspots: filtered}
}

// fetchFeed performs a single GET {base}/{region}/VIIRS/{days}/1 call
// and decodes the hotspot envelope.
func (c *FIRMSClient) fetchFeed(ctx context.Context, region string, days int) (*types.FireData, error) {
	params := url.Values{}
	params.Set("day", "nrt")
	params.Set("geotiff", "false")
	params.Set("key", c.apiKey.Unmask())

	reqURL := fmt.Sprintf("%s/%s/VIIRS/%d/1?%s", c.baseURL, url.PathEscape(region), days, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, types.NewAppError(
			types.ErrCodeInternalUnexpected,
			"failed to create FIRMS request",
			err,
		)
	}

	resp, err := c.base.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, types.NewAppError(
			types.ErrCodeUpstreamHotspot,
			fmt.Sprintf("FIRMS returned %d", resp.StatusCode),
			fmt.Errorf("FIRMS %s feed returned %d: %s", region, resp.StatusCode, bodyBytes),
		)
	}

	var feed firmsResponse
	if err := json.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, types.NewAppError(
			types.ErrCodeUpstreamHotspot,
			"failed to decode FIRMS response",
			err,
		)
	}

	if feed.Hotspots == nil {
		feed.Hotspots = []types.Hotspot{}
	}

	return &types.FireData{Hotspots: feed.Hotspots}, nil
}
