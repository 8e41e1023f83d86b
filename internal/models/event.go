// Package models defines the core domain entities: events, markets,
// matched pairs, and arbitrage opportunities.
package models

import (
	"errors"
	"time"
)

// Event represents a prediction event normalized from one source platform.
// Events are immutable once fetched and scoped to a single scan cycle.
type Event struct {
	ID      string    `json:"id"`
	Title   string    `json:"title"`
	EndDate time.Time `json:"end_date"`
	Source  string    `json:"source"`
	URL     string    `json:"url,omitempty"`
	Markets []Market  `json:"markets"`
}

// Market is a single binary market under an event. Prices are the cost in
// [0,1] of acquiring one share of the outcome; nil means the upstream quote
// was unavailable.
type Market struct {
	ID       string   `json:"id"`
	Question string   `json:"question"`
	YesPrice *float64 `json:"yes_price"`
	NoPrice  *float64 `json:"no_price"`
}

// Validate checks event field constraints.
func (e *Event) Validate() error {
	if e.ID == "" {
		return errors.New("event ID must not be empty")
	}
	if e.Title == "" {
		return errors.New("event title must not be empty")
	}
	if e.EndDate.IsZero() {
		return errors.New("event end date must not be zero")
	}
	if e.Source == "" {
		return errors.New("event source must not be empty")
	}
	for i := range e.Markets {
		if err := e.Markets[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks market field constraints.
func (m *Market) Validate() error {
	if m.ID == "" {
		return errors.New("market ID must not be empty")
	}
	if m.YesPrice != nil && (*m.YesPrice < 0.0 || *m.YesPrice > 1.0) {
		return errors.New("yes price must be between 0.0 and 1.0")
	}
	if m.NoPrice != nil && (*m.NoPrice < 0.0 || *m.NoPrice > 1.0) {
		return errors.New("no price must be between 0.0 and 1.0")
	}
	return nil
}

// Float64Ptr returns a pointer to v. Convenience for building markets.
func Float64Ptr(v float64) *float64 {
	return &v
}
