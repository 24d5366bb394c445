package external

import (
	"context"
	"net/http"
	"testing"

	"biosentinel/internal/types"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFIRMSClient(t *testing.T) *FIRMSClient {
	t.Helper()

	httpClient := &http.Client{}
	httpmock.ActivateNonDefault(httpClient)
	t.Cleanup(httpmock.DeactivateAndReset)

	return NewFIRMSClient(httpClient, FIRMSClientConfig{
		BaseURL: "https://firms.test/api/region",
		APIKey:  types.SecretString("DEMO_KEY"),
	})
}

func TestFetchRegionReturnsHotspots(t *testing.T) {
	client := newTestFIRMSClient(t)

	httpmock.RegisterResponder(http.MethodGet, "https://firms.test/api/region/africa/VIIRS/1/1",
		func(req *http.Request) (*http.Response, error) {
			q := req.URL.Query()
			assert.Equal(t, "nrt", q.Get("day"))
			assert.Equal(t, "DEMO_KEY", q.Get("key"))

			return httpmock.NewJsonResponse(http.StatusOK, map[string]any{
				"hotspots": []map[string]any{
					{"latitude": -1.2, "longitude": 36.8, "brightness": 330.5},
					{"latitude": -2.5, "longitude": 34.1, "brightness": 312.0},
				},
			})
		})

	data := client.FetchRegion(context.Background(), "africa", 1)
	require.NotNil(t, data)
	require.Len(t, data.Hotspots, 2)
	assert.InDelta(t, 330.5, data.Hotspots[0].Brightness, 0.001)
}

func TestFetchRegionFailsSoftOnUpstreamError(t *testing.T) {
	client := newTestFIRMSClient(t)

	httpmock.RegisterResponder(http.MethodGet, "https://firms.test/api/region/africa/VIIRS/1/1",
		httpmock.NewStringResponder(http.StatusInternalServerError, "boom"))

	data := client.FetchRegion(context.Background(), "africa", 1)
	require.NotNil(t, data)
	assert.Empty(t, data.Hotspots)
}

func TestFetchAOIFiltersToBoundingBox(t *testing.T) {
	client := newTestFIRMSClient(t)

	httpmock.RegisterResponder(http.MethodGet, "https://firms.test/api/region/world/VIIRS/1/1",
		httpmock.NewJsonResponderOrPanic(http.StatusOK, map[string]any{
			"hotspots": []map[string]any{
				{"latitude": 5.0, "longitude": 10.0, "brightness": 340},
				{"latitude": 5.5, "longitude": 10.5, "brightness": 325},
				{"latitude": 40.0, "longitude": -3.0, "brightness": 310},
			},
		}))

	aoi := types.AOI{MinLat: 4, MaxLat: 6, MinLon: 9, MaxLon: 11}
	data := client.FetchAOI(context.Background(), aoi, 1)
	require.NotNil(t, data)
	require.Len(t, data.Hotspots, 2)
	for _, h := range data.Hotspots {
		assert.True(t, aoi.Contains(h.Latitude, h.Longitude))
	}
}

func TestFetchAOIFailsSoftOnUpstreamError(t *testing.T) {
	client := newTestFIRMSClient(t)

	httpmock.RegisterResponder(http.MethodGet, "https://firms.test/api/region/world/VIIRS/1/1",
		httpmock.NewErrorResponder(assert.AnError))

	data := client.FetchAOI(context.Background(), types.AOI{MinLat: 0, MaxLat: 1, MinLon: 0, MaxLon: 1}, 1)
	require.NotNil(t, data)
	assert.Empty(t, data.Hotspots)
}
