package transport

import (
	"context"
	"testing"
	"time"

	"voltmart/internal/currency"
	"voltmart/internal/domain"
	"voltmart/internal/listing"

	"go.uber.org/zap"
)

type stubSource struct {
	products []domain.Product
}

func (s *stubSource) ProductsByCategory(ctx context.Context, category string) ([]domain.Product, error) {
	return s.products, nil
}

func (s *stubSource) BrandsByCategory(ctx context.Context, category string) ([]string, error) {
	return nil, nil
}

func newStubSession(t *testing.T) *listing.Session {
	t.Helper()
	rating := 3.0
	source := &stubSource{products: []domain.Product{
		{ID: 1, Name: "Laptop", Category: "laptops", Price: 100, AverageRating: &rating},
	}}
	store := currency.NewStore("USD", zap.NewNop())
	session := listing.NewSession(source, store, 15, zap.NewNop())
	if err := session.SelectCategory(context.Background(), "laptops"); err != nil {
		t.Fatalf("failed to load category: %v", err)
	}
	return session
}

func TestRegistryAddGetRemove(t *testing.T) {
	registry := NewSessionRegistry(time.Minute)
	session := newStubSession(t)

	registry.Add(session)

	got, ok := registry.Get(session.ID())
	if !ok || got != session {
		t.Fatal("expected to retrieve the registered session")
	}

	registry.Remove(session.ID())
	if _, ok := registry.Get(session.ID()); ok {
		t.Error("expected session to be removed")
	}
}

func TestRegistrySweepExpiresIdleSessions(t *testing.T) {
	registry := NewSessionRegistry(time.Minute)

	idle := newStubSession(t)
	active := newStubSession(t)
	registry.Add(idle)
	registry.Add(active)

	// Touching a session refreshes its idle timer against the sweep clock.
	time.Sleep(10 * time.Millisecond)
	registry.Get(active.ID())

	registry.sweep(time.Now().Add(time.Minute + 5*time.Millisecond))

	if _, ok := registry.Get(idle.ID()); ok {
		t.Error("expected idle session to be swept")
	}
	if _, ok := registry.Get(active.ID()); !ok {
		t.Error("expected recently touched session to survive")
	}
}

func TestBroadcastRatingUpdatePatchesAllSessions(t *testing.T) {
	registry := NewSessionRegistry(time.Minute)

	first := newStubSession(t)
	second := newStubSession(t)
	registry.Add(first)
	registry.Add(second)

	registry.BroadcastRatingUpdate(1, domain.RatingSummary{
		ProductID:     1,
		AverageRating: 4.6,
		RatingCount:   12,
	})

	for _, session := range []*listing.Session{first, second} {
		view := session.View()
		if len(view.Page.Items) != 1 {
			t.Fatalf("expected one product, got %d", len(view.Page.Items))
		}
		product := view.Page.Items[0]
		if product.AverageRating == nil || *product.AverageRating != 4.6 {
			t.Errorf("expected patched rating 4.6, got %v", product.AverageRating)
		}
		if product.RatingCount != 12 {
			t.Errorf("expected patched count 12, got %d", product.RatingCount)
		}
	}
}
