package currency

import (
	"errors"
	"math"
	"sort"
	"sync"

	"go.uber.org/zap"
)

var ErrUnknownCurrency = errors.New("unknown currency code")

// Currency is a display currency with its conversion rate relative to the
// reference currency (reference rate is always 1.0).
type Currency struct {
	Code   string  `json:"code"`
	Name   string  `json:"name"`
	Symbol string  `json:"symbol"`
	Rate   float64 `json:"rate"`
}

// Subscriber receives the new active currency after a switch. Dispatch is
// synchronous and happens in subscription order.
type Subscriber func(Currency)

type subscription struct {
	id int
	fn Subscriber
}

// Store holds the rate table and the single active display currency, and
// notifies subscribers when the active currency changes. It replaces the
// usual global currency singleton: consumers receive the store explicitly
// and register callbacks they must release on teardown.
type Store struct {
	mu        sync.Mutex
	reference string
	rates     map[string]float64
	available []Currency
	active    Currency
	subs      []subscription
	nextSubID int
	logger    *zap.Logger
}

// NewStore creates a Store seeded with the built-in fallback rate table.
// The reference currency becomes active with rate 1.0.
func NewStore(reference string, logger *zap.Logger) *Store {
	s := &Store{
		reference: reference,
		rates:     FallbackRates(),
		available: fallbackCurrencies(),
		logger:    logger,
	}
	s.active = Currency{Code: reference, Name: reference, Symbol: reference, Rate: 1.0}
	for _, c := range s.available {
		if c.Code == reference {
			s.active = c
			break
		}
	}
	return s
}

// Reference returns the code prices are stored in.
func (s *Store) Reference() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reference
}

// Currencies lists the selectable currencies with their current rates,
// sorted by code.
func (s *Store) Currencies() []Currency {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Currency, len(s.available))
	copy(out, s.available)
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// Active returns the currently selected display currency.
func (s *Store) Active() Currency {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// SetActive switches the display currency and notifies subscribers in
// subscription order. Switching to the already-active code is a no-op.
func (s *Store) SetActive(code string) error {
	s.mu.Lock()
	var next *Currency
	for _, c := range s.available {
		if c.Code == code {
			cc := c
			next = &cc
			break
		}
	}
	if next == nil {
		s.mu.Unlock()
		return ErrUnknownCurrency
	}
	if next.Code == s.active.Code {
		s.mu.Unlock()
		return nil
	}
	if r, ok := s.rates[next.Code]; ok {
		next.Rate = r
	}
	s.active = *next
	subs := make([]subscription, len(s.subs))
	copy(subs, s.subs)
	active := s.active
	s.mu.Unlock()

	for _, sub := range subs {
		sub.fn(active)
	}
	return nil
}

// Subscribe registers a callback for active-currency changes and returns the
// function that unregisters it. Callers must unsubscribe on teardown so the
// registry does not leak handlers.
func (s *Store) Subscribe(fn Subscriber) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSubID
	s.nextSubID++
	s.subs = append(s.subs, subscription{id: id, fn: fn})

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

// Rate returns the reference-relative multiplier for a code, or 1.0 when the
// code is absent from the table.
func (s *Store) Rate(code string) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rateLocked(code)
}

func (s *Store) rateLocked(code string) float64 {
	if r, ok := s.rates[code]; ok && r > 0 {
		return r
	}
	return 1.0
}

// Convert re-expresses an amount from one currency to another through the
// reference currency. Codes missing from the rate table convert with an
// identity rate instead of failing.
func (s *Store) Convert(amount float64, from, to string) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	refAmount := amount / s.rateLocked(from)
	return refAmount * s.rateLocked(to)
}

// setRates replaces the table and refreshes the rates carried by the
// available currencies and the active currency.
func (s *Store) setRates(rates map[string]float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	merged := FallbackRates()
	for code, r := range rates {
		if r > 0 {
			merged[code] = r
		}
	}
	s.rates = merged

	for i := range s.available {
		if r, ok := s.rates[s.available[i].Code]; ok {
			s.available[i].Rate = r
		}
	}
	if r, ok := s.rates[s.active.Code]; ok {
		s.active.Rate = r
	}
}

// Round2 rounds a monetary amount to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
