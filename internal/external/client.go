// Package external provides the anti-corruption layer between BioSentinel
// domain logic and the upstream biodiversity data providers (GBIF, NASA
// FIRMS). All outbound HTTP calls are routed through the BaseClient, which
// enforces consistent resilience patterns: circuit breaking, trace
// propagation, and error mapping.
//
// Provider calls are deliberately single-attempt. The risk pipeline is
// designed to degrade to documented defaults when a provider is slow or
// down, so retrying would only delay the fallback; the request timeout on
// the *http.Client is the sole bound on each call.
package external

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"biosentinel/internal/types"

	"github.com/sony/gobreaker/v2"
)

// BaseClient wraps an *http.Client and a circuit breaker to enforce
// consistent resilience patterns on all outbound HTTP calls. Provider
// clients (GBIF, FIRMS) embed BaseClient to inherit this behavior.
type BaseClient struct {
	client    *http.Client
	breaker   *gobreaker.CircuitBreaker[*http.Response]
	userAgent string
}

// NewBaseClient creates a BaseClient with the given http client, circuit
// breaker settings name, and user agent string.
func NewBaseClient(httpClient *http.Client, breakerName, userAgent string) *BaseClient {
	cb := gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil
		},
	})

	return &BaseClient{
		client:    httpClient,
		breaker:   cb,
		userAgent: userAgent,
	}
}

// NewBaseClientWithBreaker creates a BaseClient with a caller-provided
// circuit breaker. This is useful for testing or when sharing a breaker
// across clients.
func NewBaseClientWithBreaker(
	httpClient *http.Client,
	breaker *gobreaker.CircuitBreaker[*http.Response],
	userAgent string,
) *BaseClient {
	return &BaseClient{
		client:    httpClient,
		breaker:   breaker,
		userAgent: userAgent,
	}
}

// Do executes the HTTP request with:
//  1. Trace ID injection (X-B3-TraceId from context)
//  2. User-Agent header injection
//  3. Circuit breaker wrapping
//  4. Error mapping to types.AppError
//
// The request is attempted exactly once. On success (2xx/3xx/4xx other
// than 429), Do returns the response as-is and the caller is responsible
// for closing the response body. On a network failure, 429, 5xx, or an
// open circuit breaker, Do returns a types.AppError with the appropriate
// upstream error code.
func (c *BaseClient) Do(req *http.Request) (*http.Response, error) {
	if traceID := types.GetRequestID(req.Context()); traceID != "" {
		req.Header.Set("X-B3-TraceId", traceID)
	}

	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.breaker.Execute(func() (*http.Response, error) {
		r, doErr := c.client.Do(req)
		if doErr != nil {
			return nil, doErr
		}
		// 5xx and 429 count as failures for the circuit breaker.
		if r.StatusCode >= 500 {
			return r, fmt.Errorf("upstream returned %d", r.StatusCode)
		}
		if r.StatusCode == http.StatusTooManyRequests {
			return r, fmt.Errorf("upstream returned 429")
		}
		return r, nil
	})

	if err == nil {
		return resp, nil
	}

	// Drain the failed response body, if any, before mapping the error.
	if resp != nil {
		resp.Body.Close()
	}

	return nil, c.mapError(resp, err)
}

// mapError translates HTTP-level failures into domain-level AppErrors.
func (c *BaseClient) mapError(resp *http.Response, err error) *types.AppError {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return types.NewAppError(
			types.ErrCodeUpstreamRateLimited,
			"circuit breaker is open; upstream service unavailable",
			err,
		)
	}

	if resp != nil {
		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			return types.NewAppError(
				types.ErrCodeUpstreamRateLimited,
				"upstream rate limit exceeded",
				err,
			)
		case resp.StatusCode >= 500:
			return types.NewAppError(
				types.ErrCodeUpstreamUnavailable,
				fmt.Sprintf("upstream returned %d", resp.StatusCode),
				err,
			)
		}
	}

	// Generic upstream failure (network error, DNS failure, timeout).
	return types.NewAppError(
		types.ErrCodeUpstreamUnavailable,
		"upstream request failed",
		err,
	)
}
