package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rewired-gh/arbscan/internal/models"
)

const (
	manifoldName    = "manifold"
	manifoldFeeRate = 0.0
	manifoldSite    = "https://manifold.markets/"

	// The search-markets endpoint caps limit at 1000.
	manifoldMaxLimit = 1000
)

// Manifold normalizes binary contracts from the Manifold Markets API. Each
// contract becomes a single-market event; YES price is the current
// probability, NO price its complement. CPMM slippage is not modeled, which
// is why the fee rate is zero.
type Manifold struct {
	baseURL        string
	apiKey         string
	httpClient     *http.Client
	maxRetries     int
	retryDelayBase time.Duration
}

type manifoldMarket struct {
	ID              string   `json:"id"`
	Question        string   `json:"question"`
	CloseTime       int64    `json:"closeTime"` // unix millis
	IsResolved      bool     `json:"isResolved"`
	Probability     *float64 `json:"probability"`
	CreatorUsername string   `json:"creatorUsername"`
	Slug            string   `json:"slug"`
}

// NewManifold creates a Manifold provider. The API key is optional; market
// data is readable without authentication.
func NewManifold(opts Options) *Manifold {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = "https://api.manifold.markets/v0"
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Manifold{
		baseURL:        baseURL,
		apiKey:         opts.APIKey,
		httpClient:     &http.Client{Timeout: timeout},
		maxRetries:     opts.MaxRetries,
		retryDelayBase: opts.RetryDelayBase,
	}
}

func (m *Manifold) Name() string { return manifoldName }

func (m *Manifold) FeeRate() float64 { return manifoldFeeRate }

// GetEvents fetches open binary contracts closing within maxResolutionDays.
func (m *Manifold) GetEvents(ctx context.Context, limit, maxResolutionDays int) ([]models.Event, error) {
	cutoff := time.Now().UTC().Add(time.Duration(maxResolutionDays) * 24 * time.Hour)

	if limit > manifoldMaxLimit {
		limit = manifoldMaxLimit
	}
	u, err := url.Parse(m.baseURL + "/search-markets")
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	q := u.Query()
	q.Set("limit", strconv.Itoa(limit))
	q.Set("sort", "close-date")
	q.Set("filter", "open")
	q.Set("contractType", "BINARY")
	q.Set("term", "")
	u.RawQuery = q.Encode()

	var header http.Header
	if m.apiKey != "" {
		header = http.Header{"Authorization": []string{"Key " + m.apiKey}}
	}

	resp, err := doRequest(ctx, m.httpClient, u.String(), header, m.maxRetries, m.retryDelayBase)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch markets: %w", err)
	}
	defer resp.Body.Close()

	var rawMarkets []manifoldMarket
	if err := json.NewDecoder(resp.Body).Decode(&rawMarkets); err != nil {
		return nil, fmt.Errorf("failed to decode markets: %w", err)
	}

	var events []models.Event
	for _, raw := range rawMarkets {
		if raw.CloseTime == 0 || raw.IsResolved {
			continue
		}
		closeDate := time.UnixMilli(raw.CloseTime).UTC()
		if closeDate.After(cutoff) {
			continue
		}

		probability := 0.5
		if raw.Probability != nil {
			probability = *raw.Probability
		}

		eventURL := ""
		if raw.CreatorUsername != "" && raw.Slug != "" {
			eventURL = manifoldSite + raw.CreatorUsername + "/" + raw.Slug
		} else if raw.ID != "" {
			eventURL = manifoldSite + raw.ID
		}

		events = append(events, models.Event{
			ID:      raw.ID,
			Title:   raw.Question,
			EndDate: closeDate,
			Source:  manifoldName,
			URL:     eventURL,
			Markets: []models.Market{{
				ID:       raw.ID,
				Question: raw.Question,
				YesPrice: models.Float64Ptr(probability),
				NoPrice:  models.Float64Ptr(1.0 - probability),
			}},
		})
	}
	return events, nil
}
