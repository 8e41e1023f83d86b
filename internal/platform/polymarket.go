package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rewired-gh/arbscan/internal/logger"
	"github.com/rewired-gh/arbscan/internal/models"
)

const (
	polymarketName    = "polymarket"
	polymarketFeeRate = 0.002
	polymarketSite    = "https://polymarket.com/event/"
)

// Polymarket normalizes events from the Polymarket Gamma API.
type Polymarket struct {
	baseURL        string
	httpClient     *http.Client
	maxRetries     int
	retryDelayBase time.Duration
}

// polymarketEvent mirrors the Gamma API event shape.
type polymarketEvent struct {
	ID      string             `json:"id"`
	Slug    string             `json:"slug"`
	Title   string             `json:"title"`
	EndDate string             `json:"endDate"`
	Markets []polymarketMarket `json:"markets"`
}

// polymarketMarket carries the per-market trading flags and quotes.
// Outcomes and OutcomePrices are JSON-encoded strings in the raw API,
// e.g. "[\"Yes\", \"No\"]" and "[\"0.75\", \"0.25\"]".
type polymarketMarket struct {
	ID              string `json:"id"`
	Slug            string `json:"slug"`
	Question        string `json:"question"`
	Outcomes        string `json:"outcomes"`
	OutcomePrices   string `json:"outcomePrices"`
	EnableOrderBook bool   `json:"enableOrderBook"`
	Closed          bool   `json:"closed"`
	AcceptingOrders *bool  `json:"acceptingOrders"`
}

// NewPolymarket creates a Polymarket provider.
func NewPolymarket(opts Options) *Polymarket {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = "https://gamma-api.polymarket.com"
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Polymarket{
		baseURL:        baseURL,
		httpClient:     &http.Client{Timeout: timeout},
		maxRetries:     opts.MaxRetries,
		retryDelayBase: opts.RetryDelayBase,
	}
}

func (p *Polymarket) Name() string { return polymarketName }

func (p *Polymarket) FeeRate() float64 { return polymarketFeeRate }

// GetEvents fetches open events and normalizes the ones resolving within
// maxResolutionDays. Events with a missing or unparsable end date, no
// tradeable market, or no usable quotes are dropped individually.
func (p *Polymarket) GetEvents(ctx context.Context, limit, maxResolutionDays int) ([]models.Event, error) {
	cutoff := time.Now().UTC().Add(time.Duration(maxResolutionDays) * 24 * time.Hour)

	u, err := url.Parse(p.baseURL + "/events")
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	q := u.Query()
	q.Set("closed", "false")
	q.Set("limit", strconv.Itoa(limit))
	u.RawQuery = q.Encode()

	resp, err := doRequest(ctx, p.httpClient, u.String(), nil, p.maxRetries, p.retryDelayBase)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch events: %w", err)
	}
	defer resp.Body.Close()

	var rawEvents []polymarketEvent
	if err := json.NewDecoder(resp.Body).Decode(&rawEvents); err != nil {
		return nil, fmt.Errorf("failed to decode events: %w", err)
	}

	var events []models.Event
	for _, raw := range rawEvents {
		if raw.EndDate == "" {
			continue
		}
		endDate, err := time.Parse(time.RFC3339, raw.EndDate)
		if err != nil {
			logger.Debug("Skipping polymarket event %s: bad endDate %q", raw.ID, raw.EndDate)
			continue
		}
		if endDate.After(cutoff) {
			continue
		}

		var markets []models.Market
		for _, m := range raw.Markets {
			if !m.EnableOrderBook || m.Closed {
				continue
			}
			if m.AcceptingOrders != nil && !*m.AcceptingOrders {
				continue
			}
			yes, no, ok := parseOutcomePrices(m.Outcomes, m.OutcomePrices)
			if !ok {
				continue
			}
			id := m.ID
			if id == "" {
				id = m.Slug
			}
			markets = append(markets, models.Market{
				ID:       id,
				Question: m.Question,
				YesPrice: yes,
				NoPrice:  no,
			})
		}
		if len(markets) == 0 {
			continue
		}

		id := raw.ID
		if id == "" {
			id = raw.Slug
		}
		eventURL := ""
		if raw.Slug != "" {
			eventURL = polymarketSite + raw.Slug
		}
		events = append(events, models.Event{
			ID:      id,
			Title:   raw.Title,
			EndDate: endDate,
			Source:  polymarketName,
			URL:     eventURL,
			Markets: markets,
		})
	}
	return events, nil
}

// parseOutcomePrices extracts YES and NO quotes from the doubly-encoded
// outcome arrays. A missing NO quote is inferred as 1-YES; a missing YES
// quote makes the market unusable.
func parseOutcomePrices(outcomesJSON, pricesJSON string) (yes, no *float64, ok bool) {
	var outcomes []string
	if err := json.Unmarshal([]byte(outcomesJSON), &outcomes); err != nil {
		return nil, nil, false
	}
	var prices []string
	if err := json.Unmarshal([]byte(pricesJSON), &prices); err != nil {
		return nil, nil, false
	}

	for i, outcome := range outcomes {
		if i >= len(prices) {
			break
		}
		price, err := strconv.ParseFloat(prices[i], 64)
		if err != nil {
			continue
		}
		switch outcome {
		case "Yes":
			yes = models.Float64Ptr(price)
		case "No":
			no = models.Float64Ptr(price)
		}
	}

	if yes == nil {
		return nil, nil, false
	}
	if no == nil {
		no = models.Float64Ptr(1.0 - *yes)
	}
	return yes, no, true
}
