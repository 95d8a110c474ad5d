package catalog

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"voltmart/internal/domain"

	"github.com/google/uuid"
)

// OrderRequest is the checkout payload forwarded upstream. The idempotency
// key lets a retried submit be deduplicated server-side.
type OrderRequest struct {
	UserID         int64              `json:"userId"`
	Email          string             `json:"email"`
	Location       string             `json:"location"`
	DeliveryType   string             `json:"deliveryType"`
	Items          []domain.OrderItem `json:"orderItems"`
	IdempotencyKey string             `json:"idempotencyKey"`
}

// SubmitOrder places an order.
func (c *Client) SubmitOrder(ctx context.Context, req *OrderRequest) (*domain.Order, error) {
	if req == nil || req.UserID <= 0 || len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: order requires a user and at least one item", ErrBadRequest)
	}
	if req.IdempotencyKey == "" {
		req.IdempotencyKey = uuid.NewString()
	}
	var order domain.Order
	if err := c.do(ctx, http.MethodPost, "/order", req, &order); err != nil {
		return nil, fmt.Errorf("failed to submit order: %w", err)
	}
	return &order, nil
}

// OrdersByUser lists a user's order history.
func (c *Client) OrdersByUser(ctx context.Context, userID int64) ([]domain.Order, error) {
	if userID <= 0 {
		return nil, ErrInvalidID
	}
	var orders []domain.Order
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/order/user/%d", userID), nil, &orders); err != nil {
		return nil, fmt.Errorf("failed to list orders for user %d: %w", userID, err)
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	return orders, nil
}

// OrderByID fetches a single order.
func (c *Client) OrderByID(ctx context.Context, orderID int64) (*domain.Order, error) {
	if orderID <= 0 {
		return nil, ErrInvalidID
	}
	var order domain.Order
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/order/%d", orderID), nil, &order); err != nil {
		return nil, fmt.Errorf("failed to fetch order %d: %w", orderID, err)
	}
	return &order, nil
}

// AllOrders lists every order; admin analytics aggregate over this.
func (c *Client) AllOrders(ctx context.Context) ([]domain.Order, error) {
	var orders []domain.Order
	if err := c.do(ctx, http.MethodGet, "/order", nil, &orders); err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	return orders, nil
}

// OrdersByDateRange lists orders placed within [start, end].
func (c *Client) OrdersByDateRange(ctx context.Context, start, end time.Time) ([]domain.Order, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("%w: end precedes start", ErrBadRequest)
	}
	var orders []domain.Order
	path := fmt.Sprintf("/order/date-range?start=%s&end=%s",
		url.QueryEscape(start.Format(time.RFC3339)),
		url.QueryEscape(end.Format(time.RFC3339)))
	if err := c.do(ctx, http.MethodGet, path, nil, &orders); err != nil {
		return nil, fmt.Errorf("failed to list orders by date range: %w", err)
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	return orders, nil
}

// UpdateDeliveryType changes how an order will be delivered.
func (c *Client) UpdateDeliveryType(ctx context.Context, orderID int64, deliveryType string) error {
	if orderID <= 0 {
		return ErrInvalidID
	}
	if deliveryType == "" {
		return fmt.Errorf("%w: delivery type is required", ErrBadRequest)
	}
	path := fmt.Sprintf("/order/%d/delivery-type", orderID)
	if err := c.do(ctx, http.MethodPut, path, deliveryType, nil); err != nil {
		return fmt.Errorf("failed to update delivery type for order %d: %w", orderID, err)
	}
	return nil
}

// DeleteOrder cancels an order.
func (c *Client) DeleteOrder(ctx context.Context, orderID int64) error {
	if orderID <= 0 {
		return ErrInvalidID
	}
	if err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/order/%d", orderID), nil, nil); err != nil {
		return fmt.Errorf("failed to delete order %d: %w", orderID, err)
	}
	return nil
}

// CartItems fetches a user's server-side cart.
func (c *Client) CartItems(ctx context.Context, userID int64) ([]domain.CartItem, error) {
	if userID <= 0 {
		return nil, ErrInvalidID
	}
	var items []domain.CartItem
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/cart/user/%d", userID), nil, &items); err != nil {
		return nil, fmt.Errorf("failed to load cart for user %d: %w", userID, err)
	}
	if items == nil {
		items = []domain.CartItem{}
	}
	return items, nil
}

// AddCartItem creates a cart line and returns it with its assigned id.
func (c *Client) AddCartItem(ctx context.Context, item *domain.CartItem) (*domain.CartItem, error) {
	if item == nil || item.ProductID <= 0 || item.Quantity <= 0 {
		return nil, fmt.Errorf("%w: cart item requires a product and positive quantity", ErrBadRequest)
	}
	var created domain.CartItem
	if err := c.do(ctx, http.MethodPost, "/cart", item, &created); err != nil {
		return nil, fmt.Errorf("failed to add cart item: %w", err)
	}
	return &created, nil
}

// UpdateCartQuantity sets the quantity on an existing cart line.
func (c *Client) UpdateCartQuantity(ctx context.Context, cartItemID int64, quantity int) error {
	if cartItemID <= 0 {
		return ErrInvalidID
	}
	if quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive", ErrBadRequest)
	}
	path := fmt.Sprintf("/cart/%d/quantity", cartItemID)
	if err := c.do(ctx, http.MethodPut, path, quantity, nil); err != nil {
		return fmt.Errorf("failed to update quantity on cart item %d: %w", cartItemID, err)
	}
	return nil
}

// DeleteCartItem removes a cart line.
func (c *Client) DeleteCartItem(ctx context.Context, cartItemID int64) error {
	if cartItemID <= 0 {
		return ErrInvalidID
	}
	if err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/cart/%d", cartItemID), nil, nil); err != nil {
		return fmt.Errorf("failed to delete cart item %d: %w", cartItemID, err)
	}
	return nil
}
