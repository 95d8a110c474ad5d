package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"voltmart/internal/catalog"
	"voltmart/internal/domain"

	"go.uber.org/zap"
)

var (
	ErrInsufficientStock = errors.New("requested quantity exceeds available stock")
	ErrItemNotFound      = errors.New("cart item not found")
	ErrEmptyCart         = errors.New("cart is empty")
)

// Subscriber is notified with a user's cart after every change, in
// subscription order.
type Subscriber func(userID int64, items []domain.CartItem)

type subscription struct {
	id int
	fn Subscriber
}

// Service keeps a per-user snapshot of the server-backed cart and pushes
// every mutation upstream before applying it locally. Quantities never
// exceed the product's available stock.
type Service struct {
	mu        sync.Mutex
	client    *catalog.Client
	logger    *zap.Logger
	items     map[int64][]domain.CartItem
	subs      []subscription
	nextSubID int
}

func NewService(client *catalog.Client, logger *zap.Logger) *Service {
	return &Service{
		client: client,
		logger: logger,
		items:  make(map[int64][]domain.CartItem),
	}
}

// Subscribe registers a change listener and returns its release function.
func (s *Service) Subscribe(fn Subscriber) (unsubscribe func()) {
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

// Load refreshes the snapshot from upstream. On failure the previous
// snapshot is kept and the error surfaced.
func (s *Service) Load(ctx context.Context, userID int64) ([]domain.CartItem, error) {
	items, err := s.client.CartItems(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	s.mu.Lock()
	s.items[userID] = items
	snapshot := s.snapshotLocked(userID)
	s.mu.Unlock()

	return snapshot, nil
}

// Items returns the current snapshot without hitting upstream.
func (s *Service) Items(userID int64) []domain.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(userID)
}

// Add puts a product into the cart, merging with an existing line. The
// resulting quantity is validated against the product's available stock
// before the upstream write.
func (s *Service) Add(ctx context.Context, userID int64, product *domain.Product, quantity int) error {
	if quantity <= 0 {
		quantity = 1
	}

	s.mu.Lock()
	existing := s.findLocked(userID, product.ID)
	var current int
	if existing != nil {
		current = existing.Quantity
	}
	s.mu.Unlock()

	if current+quantity > product.Quantity {
		return ErrInsufficientStock
	}

	if existing != nil {
		if err := s.client.UpdateCartQuantity(ctx, existing.ID, current+quantity); err != nil {
			return err
		}
		s.mu.Lock()
		if item := s.findLocked(userID, product.ID); item != nil {
			item.Quantity = current + quantity
		}
		s.mu.Unlock()
		s.notify(userID)
		return nil
	}

	var image string
	if len(product.Images) > 0 {
		image = product.Images[0]
	}
	created, err := s.client.AddCartItem(ctx, &domain.CartItem{
		UserID:            userID,
		ProductID:         product.ID,
		Name:              product.Name,
		Price:             product.EffectivePrice(),
		Quantity:          quantity,
		Image:             image,
		QuantityAvailable: product.Quantity,
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.items[userID] = append(s.items[userID], *created)
	s.mu.Unlock()
	s.notify(userID)
	return nil
}

// UpdateQuantity sets a line's quantity, clamped to the available stock.
// Zero or negative removes the line.
func (s *Service) UpdateQuantity(ctx context.Context, userID, productID int64, quantity int) error {
	if quantity <= 0 {
		return s.Remove(ctx, userID, productID)
	}

	s.mu.Lock()
	item := s.findLocked(userID, productID)
	if item == nil {
		s.mu.Unlock()
		return ErrItemNotFound
	}
	if item.QuantityAvailable > 0 && quantity > item.QuantityAvailable {
		quantity = item.QuantityAvailable
	}
	cartLineID := item.ID
	s.mu.Unlock()

	if err := s.client.UpdateCartQuantity(ctx, cartLineID, quantity); err != nil {
		return err
	}

	s.mu.Lock()
	if item := s.findLocked(userID, productID); item != nil {
		item.Quantity = quantity
	}
	s.mu.Unlock()
	s.notify(userID)
	return nil
}

// Remove deletes a line from the cart.
func (s *Service) Remove(ctx context.Context, userID, productID int64) error {
	s.mu.Lock()
	item := s.findLocked(userID, productID)
	if item == nil {
		s.mu.Unlock()
		return ErrItemNotFound
	}
	cartLineID := item.ID
	s.mu.Unlock()

	if err := s.client.DeleteCartItem(ctx, cartLineID); err != nil {
		return err
	}

	s.mu.Lock()
	lines := s.items[userID]
	for i := range lines {
		if lines[i].ProductID == productID {
			s.items[userID] = append(lines[:i], lines[i+1:]...)
			break
		}
	}
	s.mu.Unlock()
	s.notify(userID)
	return nil
}

// Count is the total quantity across all lines.
func (s *Service) Count(userID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int
	for _, item := range s.items[userID] {
		count += item.Quantity
	}
	return count
}

// Total is the cart value in the reference currency.
func (s *Service) Total(userID int64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	var total float64
	for _, item := range s.items[userID] {
		total += item.Price * float64(item.Quantity)
	}
	return total
}

// Checkout submits the cart as an order and clears the snapshot on success.
// The payment form on the storefront is cosmetic; no payment data reaches
// this path.
func (s *Service) Checkout(ctx context.Context, userID int64, email, location, deliveryType string) (*domain.Order, error) {
	s.mu.Lock()
	lines := s.snapshotLocked(userID)
	s.mu.Unlock()

	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	items := make([]domain.OrderItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, domain.OrderItem{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			Price:     line.Price,
		})
	}

	order, err := s.client.SubmitOrder(ctx, &catalog.OrderRequest{
		UserID:       userID,
		Email:        email,
		Location:     location,
		DeliveryType: deliveryType,
		Items:        items,
	})
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	delete(s.items, userID)
	s.mu.Unlock()
	s.notify(userID)

	s.logger.Info("Order submitted",
		zap.Int64("user_id", userID),
		zap.Int64("order_id", order.ID),
		zap.Int("lines", len(items)),
	)
	return order, nil
}

func (s *Service) findLocked(userID, productID int64) *domain.CartItem {
	lines := s.items[userID]
	for i := range lines {
		if lines[i].ProductID == productID {
			return &lines[i]
		}
	}
	return nil
}

func (s *Service) snapshotLocked(userID int64) []domain.CartItem {
	lines := s.items[userID]
	out := make([]domain.CartItem, len(lines))
	copy(out, lines)
	return out
}

func (s *Service) notify(userID int64) {
	s.mu.Lock()
	subs := make([]subscription, len(s.subs))
	copy(subs, s.subs)
	snapshot := s.snapshotLocked(userID)
	s.mu.Unlock()

	for _, sub := range subs {
		sub.fn(userID, snapshot)
	}
}
