package transport

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"voltmart/internal/catalog"
	"voltmart/internal/domain"
	"voltmart/internal/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// OrderView is an order annotated with its derived delivery status.
type OrderView struct {
	domain.Order
	Status string `json:"status"`
}

// OrdersHandler exposes the authenticated user's order history.
type OrdersHandler struct {
	client *catalog.Client
	logger *zap.Logger
}

// NewOrdersHandler creates a new OrdersHandler.
func NewOrdersHandler(client *catalog.Client, logger *zap.Logger) *OrdersHandler {
	return &OrdersHandler{client: client, logger: logger}
}

// RegisterRoutes registers all order routes. Every route requires auth.
func (h *OrdersHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/orders", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/", h.ListOrders)
		r.Get("/{orderID}", h.GetOrder)
	})
}

// ListOrders returns the user's orders, newest first as the upstream
// returns them, each with its delivery status.
func (h *OrdersHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	orders, err := h.client.OrdersByUser(upstreamContext(r), userID)
	if err != nil {
		h.logger.Error("Order history lookup failed", zap.Int64("user_id", userID), zap.Error(err))
		middleware.RespondWithError(w, http.StatusBadGateway, "failed to load orders")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, orderViews(orders, time.Now()))
}

// GetOrder returns one of the user's orders. Requesting another user's
// order yields not found.
func (h *OrdersHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	orderID, err := strconv.ParseInt(chi.URLParam(r, "orderID"), 10, 64)
	if err != nil || orderID <= 0 {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	order, err := h.client.OrderByID(upstreamContext(r), orderID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "order not found")
			return
		}
		middleware.RespondWithError(w, http.StatusBadGateway, "failed to load order")
		return
	}
	if order.UserID != userID {
		middleware.RespondWithError(w, http.StatusNotFound, "order not found")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, orderView(*order, time.Now()))
}

func orderView(o domain.Order, now time.Time) OrderView {
	return OrderView{Order: o, Status: o.Status(now).String()}
}

func orderViews(orders []domain.Order, now time.Time) []OrderView {
	views := make([]OrderView, 0, len(orders))
	for _, o := range orders {
		views = append(views, orderView(o, now))
	}
	return views
}
