package currency

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

// RateSource fetches a reference-relative rate table.
type RateSource interface {
	Fetch(ctx context.Context) (map[string]float64, error)
}

// HTTPRateSource pulls rates from an exchange-rate endpoint that responds
// with {"base": "...", "rates": {code: rate, ...}}.
type HTTPRateSource struct {
	url    string
	client *http.Client
}

func NewHTTPRateSource(url string, timeout time.Duration) *HTTPRateSource {
	return &HTTPRateSource{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

type rateResponse struct {
	Base  string             `json:"base"`
	Rates map[string]float64 `json:"rates"`
}

func (s *HTTPRateSource) Fetch(ctx context.Context) (map[string]float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build rates request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rates request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rates endpoint returned status %d", resp.StatusCode)
	}

	var body rateResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode rates response: %w", err)
	}
	if len(body.Rates) == 0 {
		return nil, fmt.Errorf("rates endpoint returned an empty table")
	}

	return body.Rates, nil
}

// LoadRates fetches the remote rate table once, retrying transient failures,
// and installs it in the store. On failure the store keeps serving the
// built-in fallback table; the error is logged, never propagated, so a dead
// rate provider cannot block the storefront.
func (s *Store) LoadRates(ctx context.Context, src RateSource) {
	var rates map[string]float64

	backoff := retry.WithMaxRetries(2, retry.NewConstant(500*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		fetched, err := src.Fetch(ctx)
		if err != nil {
			return retry.RetryableError(err)
		}
		rates = fetched
		return nil
	})
	if err != nil {
		s.logger.Warn("Exchange-rate fetch failed, using fallback table", zap.Error(err))
		return
	}

	s.setRates(rates)
	s.logger.Info("Exchange rates loaded", zap.Int("codes", len(rates)))
}

// FallbackRates is the static reference-relative table used when the remote
// provider is unreachable.
func FallbackRates() map[string]float64 {
	return map[string]float64{
		"USD": 1.0,
		"EUR": 0.85,
		"GBP": 0.73,
		"JPY": 110.0,
		"CAD": 1.25,
		"AUD": 1.35,
		"RUB": 75.0,
		"CNY": 6.45,
		"GEL": 2.65,
		"INR": 74.5,
		"TRY": 8.5,
	}
}

func fallbackCurrencies() []Currency {
	return []Currency{
		{Code: "USD", Name: "US Dollar", Symbol: "$", Rate: 1.0},
		{Code: "EUR", Name: "Euro", Symbol: "€", Rate: 0.85},
		{Code: "GBP", Name: "British Pound", Symbol: "£", Rate: 0.73},
		{Code: "JPY", Name: "Japanese Yen", Symbol: "¥", Rate: 110.0},
		{Code: "CAD", Name: "Canadian Dollar", Symbol: "CA$", Rate: 1.25},
		{Code: "AUD", Name: "Australian Dollar", Symbol: "A$", Rate: 1.35},
		{Code: "RUB", Name: "Russian Ruble", Symbol: "₽", Rate: 75.0},
		{Code: "CNY", Name: "Chinese Yuan", Symbol: "¥", Rate: 6.45},
		{Code: "GEL", Name: "Georgian Lari", Symbol: "₾", Rate: 2.65},
		{Code: "INR", Name: "Indian Rupee", Symbol: "₹", Rate: 74.5},
		{Code: "TRY", Name: "Turkish Lira", Symbol: "₺", Rate: 8.5},
	}
}
