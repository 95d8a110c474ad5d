package domain

import "time"

// CartItem is a line in a user's server-backed cart. ID is the cart line id
// assigned upstream; ProductID references the catalog product.
type CartItem struct {
	ID                int64      `json:"id"`
	UserID            int64      `json:"userId,omitempty"`
	ProductID         int64      `json:"productId"`
	Name              string     `json:"name"`
	Price             float64    `json:"price"`
	Quantity          int        `json:"quantity"`
	Image             string     `json:"image,omitempty"`
	QuantityAvailable int        `json:"quantityAvailable,omitempty"`
	AddedAt           *time.Time `json:"addedAt,omitempty"`
}

// Order is a placed order as echoed back by the upstream order API.
type Order struct {
	ID           int64      `json:"id"`
	UserID       int64      `json:"userId"`
	OrderDate    time.Time  `json:"orderDate"`
	TotalPrice   float64    `json:"totalPrice"`
	DeliveryType string     `json:"deliveryType"`
	DeliveryDate *time.Time `json:"deliveryDate,omitempty"`
	Email        string     `json:"email"`
	Location     string     `json:"location"`
	Items        []OrderItem `json:"orderItems"`
}

// OrderItem is a product line within an order.
type OrderItem struct {
	ID        int64    `json:"id"`
	ProductID int64    `json:"productId"`
	Quantity  int      `json:"quantity"`
	Price     float64  `json:"price"`
	Product   *Product `json:"product,omitempty"`
}

// OrderStatus is the coarse delivery progress of an order.
type OrderStatus int

const (
	StatusOrdered OrderStatus = iota + 1
	StatusInTransit
	StatusDelivered
)

func (s OrderStatus) String() string {
	switch s {
	case StatusOrdered:
		return "Ordered"
	case StatusInTransit:
		return "In Transit"
	case StatusDelivered:
		return "Delivered"
	default:
		return "Unknown"
	}
}

// Status derives the delivery progress from the order and delivery dates,
// compared at day granularity against now.
func (o *Order) Status(now time.Time) OrderStatus {
	if o.DeliveryDate == nil {
		return StatusOrdered
	}
	today := truncateDay(now)
	orderDay := truncateDay(o.OrderDate)
	deliveryDay := truncateDay(*o.DeliveryDate)

	if !today.Before(deliveryDay) {
		return StatusDelivered
	}
	if today.After(orderDay) {
		return StatusInTransit
	}
	return StatusOrdered
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
