package currency

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"go.uber.org/zap"
)

func newTestStore() *Store {
	return NewStore("USD", zap.NewNop())
}

func TestConvertThroughReference(t *testing.T) {
	store := newTestStore()

	tests := []struct {
		name   string
		amount float64
		from   string
		to     string
		want   float64
	}{
		{"identity", 100, "USD", "USD", 100},
		{"reference to eur", 100, "USD", "EUR", 85},
		{"eur to reference", 85, "EUR", "USD", 100},
		{"cross rate eur to gbp", 100, "EUR", "GBP", 100 / 0.85 * 0.73},
		{"zero amount", 0, "USD", "JPY", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := store.Convert(tt.amount, tt.from, tt.to)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Convert(%v, %s, %s) = %v, want %v", tt.amount, tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestConvertUnknownCodeUsesIdentityRate(t *testing.T) {
	store := newTestStore()

	if got := store.Convert(100, "XXX", "USD"); got != 100 {
		t.Errorf("unknown source code should use rate 1.0, got %v", got)
	}
	if got := store.Convert(100, "USD", "XXX"); got != 100 {
		t.Errorf("unknown target code should use rate 1.0, got %v", got)
	}
}

func TestProperty_ConvertRoundTripsWithinRounding(t *testing.T) {
	store := newTestStore()
	codes := []string{"USD", "EUR", "GBP", "JPY", "CAD", "AUD", "RUB", "CNY", "GEL", "INR", "TRY"}

	properties := gopter.NewProperties(nil)

	properties.Property("converting there and back recovers the amount within a cent", prop.ForAll(
		func(amount float64, fromIdx, toIdx int) bool {
			from := codes[fromIdx%len(codes)]
			to := codes[toIdx%len(codes)]

			roundTrip := store.Convert(store.Convert(amount, from, to), to, from)
			if math.Abs(roundTrip-amount) > 0.01 {
				t.Logf("FAIL: %v %s->%s->%s = %v", amount, from, to, from, roundTrip)
				return false
			}
			return true
		},
		gen.Float64Range(0, 100_000), // amount
		gen.IntRange(0, 10),          // from index
		gen.IntRange(0, 10),          // to index
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestSetActiveNotifiesSubscribersInOrder(t *testing.T) {
	store := newTestStore()

	var order []string
	unsubA := store.Subscribe(func(c Currency) { order = append(order, "a:"+c.Code) })
	defer unsubA()
	unsubB := store.Subscribe(func(c Currency) { order = append(order, "b:"+c.Code) })
	defer unsubB()

	if err := store.SetActive("EUR"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(order) != 2 || order[0] != "a:EUR" || order[1] != "b:EUR" {
		t.Errorf("expected dispatch in subscription order, got %v", order)
	}
	if store.Active().Code != "EUR" {
		t.Errorf("expected active EUR, got %s", store.Active().Code)
	}
}

func TestSetActiveSameCodeIsNoOp(t *testing.T) {
	store := newTestStore()

	calls := 0
	unsub := store.Subscribe(func(Currency) { calls++ })
	defer unsub()

	if err := store.SetActive("USD"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 0 {
		t.Errorf("re-selecting the active code must not notify, got %d calls", calls)
	}
}

func TestSetActiveUnknownCode(t *testing.T) {
	store := newTestStore()

	if err := store.SetActive("XXX"); err != ErrUnknownCurrency {
		t.Fatalf("expected ErrUnknownCurrency, got %v", err)
	}
	if store.Active().Code != "USD" {
		t.Errorf("failed switch must not move the active currency, got %s", store.Active().Code)
	}
}

func TestUnsubscribeStopsNotifications(t *testing.T) {
	store := newTestStore()

	calls := 0
	unsub := store.Subscribe(func(Currency) { calls++ })

	if err := store.SetActive("EUR"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	unsub()
	if err := store.SetActive("GBP"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if calls != 1 {
		t.Errorf("expected exactly one notification, got %d", calls)
	}
}

func TestCurrenciesSortedByCode(t *testing.T) {
	store := newTestStore()

	currencies := store.Currencies()
	if len(currencies) != 11 {
		t.Fatalf("expected 11 currencies, got %d", len(currencies))
	}
	for i := 1; i < len(currencies); i++ {
		if currencies[i-1].Code >= currencies[i].Code {
			t.Fatalf("currencies not sorted: %s before %s", currencies[i-1].Code, currencies[i].Code)
		}
	}
}

func TestSetRatesMergesOverFallback(t *testing.T) {
	store := newTestStore()

	store.setRates(map[string]float64{"EUR": 0.9, "ZZZ": 0, "NOK": 10.5})

	if got := store.Rate("EUR"); got != 0.9 {
		t.Errorf("expected refreshed EUR rate 0.9, got %v", got)
	}
	// Codes the remote table omits keep their fallback values.
	if got := store.Rate("GBP"); got != 0.73 {
		t.Errorf("expected fallback GBP rate 0.73, got %v", got)
	}
	// Non-positive remote rates are ignored.
	if got := store.Rate("ZZZ"); got != 1.0 {
		t.Errorf("expected identity rate for rejected code, got %v", got)
	}
	if got := store.Rate("NOK"); got != 10.5 {
		t.Errorf("expected new NOK rate 10.5, got %v", got)
	}
}

func TestRound2(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{58.8235, 58.82},
		{58.8295, 58.83},
		{0.004, 0},
		{-1.006, -1.01},
		{100, 100},
	}
	for _, tt := range tests {
		if got := Round2(tt.in); got != tt.want {
			t.Errorf("Round2(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
