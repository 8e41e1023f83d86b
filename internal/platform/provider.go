// Package platform provides normalizing market-data clients for the
// supported prediction-market platforms. Each client turns platform API
// responses into the canonical Event shape; everything downstream is
// platform-agnostic.
package platform

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rewired-gh/arbscan/internal/models"
)

// MarketDataProvider is the capability the scanner depends on. FeeRate is
// constant per provider instance.
type MarketDataProvider interface {
	// GetEvents fetches open events resolving within maxResolutionDays,
	// normalized and capped at limit.
	GetEvents(ctx context.Context, limit, maxResolutionDays int) ([]models.Event, error)
	// FeeRate returns the platform's proportional trading fee (0.002 = 0.2%).
	FeeRate() float64
	// Name returns the platform identifier used in logs and alerts.
	Name() string
}

// Options configures a provider's HTTP behavior.
type Options struct {
	BaseURL        string
	Timeout        time.Duration
	MaxRetries     int
	RetryDelayBase time.Duration
	APIKey         string
}

// New constructs a provider by platform kind.
func New(kind string, opts Options) (MarketDataProvider, error) {
	switch kind {
	case "polymarket":
		return NewPolymarket(opts), nil
	case "manifold":
		return NewManifold(opts), nil
	}
	return nil, fmt.Errorf("unknown platform kind: %q", kind)
}

// doRequest performs an HTTP GET with linear-backoff retry on transport
// errors and 5xx responses.
func doRequest(ctx context.Context, client *http.Client, urlStr string, header http.Header, maxRetries int, retryDelayBase time.Duration) (*http.Response, error) {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelayBase <= 0 {
		retryDelayBase = time.Second
	}

	var lastErr error
	for i := 0; i < maxRetries; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		for k, vs := range header {
			for _, v := range vs {
				req.Header.Set(k, v)
			}
		}

		resp, err := client.Do(req)
		if err != nil {
			lastErr = err
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(retryDelayBase * time.Duration(i+1)):
			}
			continue
		}

		if resp.StatusCode >= 500 {
			resp.Body.Close()
			lastErr = fmt.Errorf("server error: %d", resp.StatusCode)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(retryDelayBase * time.Duration(i+1)):
			}
			continue
		}
		if resp.StatusCode >= 400 {
			resp.Body.Close()
			return nil, fmt.Errorf("request failed: %d", resp.StatusCode)
		}

		return resp, nil
	}
	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}
