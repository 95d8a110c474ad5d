package cart

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"voltmart/internal/catalog"
	"voltmart/internal/domain"

	"go.uber.org/zap"
)

// fakeUpstream is a minimal in-memory rendition of the backend cart and
// order endpoints, enough to drive the service through real HTTP.
type fakeUpstream struct {
	mu     sync.Mutex
	nextID int64
	lines  map[int64]*domain.CartItem
	orders []domain.Order
}

func newFakeUpstream() *fakeUpstream {
	return &fakeUpstream{nextID: 1, lines: make(map[int64]*domain.CartItem)}
}

func (f *fakeUpstream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/cart/user/"):
		items := make([]domain.CartItem, 0, len(f.lines))
		for _, line := range f.lines {
			items = append(items, *line)
		}
		json.NewEncoder(w).Encode(items)

	case r.Method == http.MethodPost && r.URL.Path == "/cart":
		var item domain.CartItem
		json.NewDecoder(r.Body).Decode(&item)
		item.ID = f.nextID
		f.nextID++
		f.lines[item.ID] = &item
		json.NewEncoder(w).Encode(item)

	case r.Method == http.MethodPut && strings.HasSuffix(r.URL.Path, "/quantity"):
		var quantity int
		json.NewDecoder(r.Body).Decode(&quantity)
		for _, line := range f.lines {
			if strings.Contains(r.URL.Path, "/cart/") {
				line.Quantity = quantity
			}
		}
		w.WriteHeader(http.StatusOK)

	case r.Method == http.MethodDelete && strings.HasPrefix(r.URL.Path, "/cart/"):
		for id := range f.lines {
			delete(f.lines, id)
		}
		w.WriteHeader(http.StatusOK)

	case r.Method == http.MethodPost && r.URL.Path == "/order":
		var req catalog.OrderRequest
		json.NewDecoder(r.Body).Decode(&req)
		order := domain.Order{ID: int64(len(f.orders) + 100), UserID: req.UserID, Email: req.Email}
		f.orders = append(f.orders, order)
		json.NewEncoder(w).Encode(order)

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newTestService(t *testing.T) (*Service, *fakeUpstream) {
	t.Helper()
	upstream := newFakeUpstream()
	server := httptest.NewServer(upstream)
	t.Cleanup(server.Close)

	client := catalog.NewClient(server.URL, 5*time.Second, zap.NewNop())
	return NewService(client, zap.NewNop()), upstream
}

func laptop(stock int) *domain.Product {
	return &domain.Product{
		ID:       1,
		Name:     "Laptop",
		Price:    999.99,
		Quantity: stock,
		Category: "laptops",
	}
}

func TestAddNewLine(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	if err := service.Add(ctx, 5, laptop(10), 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	items := service.Items(5)
	if len(items) != 1 || items[0].Quantity != 2 || items[0].ProductID != 1 {
		t.Errorf("unexpected items: %+v", items)
	}
	if got := service.Count(5); got != 2 {
		t.Errorf("expected count 2, got %d", got)
	}
}

func TestAddMergesExistingLine(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()
	product := laptop(10)

	if err := service.Add(ctx, 5, product, 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := service.Add(ctx, 5, product, 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	items := service.Items(5)
	if len(items) != 1 {
		t.Fatalf("expected one merged line, got %d", len(items))
	}
	if items[0].Quantity != 5 {
		t.Errorf("expected merged quantity 5, got %d", items[0].Quantity)
	}
}

func TestAddRejectsOverStock(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()
	product := laptop(3)

	if err := service.Add(ctx, 5, product, 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := service.Add(ctx, 5, product, 2); !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}

	// The rejected add must not change the cart.
	if got := service.Count(5); got != 2 {
		t.Errorf("expected count 2 after rejection, got %d", got)
	}
}

func TestUpdateQuantityClampsToStock(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	if err := service.Add(ctx, 5, laptop(4), 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := service.UpdateQuantity(ctx, 5, 1, 99); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	items := service.Items(5)
	if items[0].Quantity != 4 {
		t.Errorf("expected quantity clamped to 4, got %d", items[0].Quantity)
	}
}

func TestUpdateQuantityZeroRemoves(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	if err := service.Add(ctx, 5, laptop(10), 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := service.UpdateQuantity(ctx, 5, 1, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := len(service.Items(5)); got != 0 {
		t.Errorf("expected empty cart, got %d lines", got)
	}
}

func TestUpdateUnknownItem(t *testing.T) {
	service, _ := newTestService(t)

	err := service.UpdateQuantity(context.Background(), 5, 42, 1)
	if !errors.Is(err, ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got %v", err)
	}
}

func TestTotal(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	discounted := 50.0
	product := &domain.Product{ID: 2, Name: "Mouse", Price: 80, DiscountedPrice: &discounted, Quantity: 10}

	if err := service.Add(ctx, 5, product, 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The discounted price is what the line carries.
	if got := service.Total(5); got != 100 {
		t.Errorf("expected total 100, got %v", got)
	}
}

func TestCheckoutClearsCartAndNotifies(t *testing.T) {
	service, upstream := newTestService(t)
	ctx := context.Background()

	var notified [][]domain.CartItem
	unsub := service.Subscribe(func(userID int64, items []domain.CartItem) {
		notified = append(notified, items)
	})
	defer unsub()

	if err := service.Add(ctx, 5, laptop(10), 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	order, err := service.Checkout(ctx, 5, "sam@example.com", "Berlin", "standard")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.ID == 0 {
		t.Error("expected an assigned order id")
	}

	if got := len(service.Items(5)); got != 0 {
		t.Errorf("checkout should clear the cart, got %d lines", got)
	}

	upstream.mu.Lock()
	orderCount := len(upstream.orders)
	upstream.mu.Unlock()
	if orderCount != 1 {
		t.Errorf("expected one submitted order, got %d", orderCount)
	}

	// One notification for the add, one for the cleared cart.
	if len(notified) != 2 || len(notified[1]) != 0 {
		t.Errorf("unexpected notifications: %d", len(notified))
	}
}

func TestCheckoutEmptyCart(t *testing.T) {
	service, _ := newTestService(t)

	_, err := service.Checkout(context.Background(), 5, "sam@example.com", "Berlin", "standard")
	if !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("expected ErrEmptyCart, got %v", err)
	}
}

func TestLoadFailureKeepsSnapshot(t *testing.T) {
	upstream := newFakeUpstream()
	server := httptest.NewServer(upstream)
	client := catalog.NewClient(server.URL, 2*time.Second, zap.NewNop())
	service := NewService(client, zap.NewNop())

	if err := service.Add(context.Background(), 5, laptop(10), 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	server.Close()
	if _, err := service.Load(context.Background(), 5); err == nil {
		t.Fatal("expected an error with the upstream down")
	}

	// The previous snapshot still serves.
	if got := service.Count(5); got != 2 {
		t.Errorf("expected snapshot to survive the failed refresh, got count %d", got)
	}
}
