package transport

import (
	"errors"
	"net/http"
	"strconv"

	"voltmart/internal/cart"
	"voltmart/internal/catalog"
	"voltmart/internal/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// AddCartItemRequest adds a product to the cart.
type AddCartItemRequest struct {
	ProductID int64 `json:"productId" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"required,gt=0"`
}

// UpdateCartItemRequest changes the quantity of a cart line. Zero or a
// negative quantity removes the line.
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

// CheckoutRequest submits the cart as an order.
type CheckoutRequest struct {
	Email        string `json:"email" validate:"required,email"`
	Location     string `json:"location" validate:"required"`
	DeliveryType string `json:"deliveryType" validate:"required,oneof=standard express"`
}

// CartSummary is the cart state returned after every mutation.
type CartSummary struct {
	Items []cartItemView `json:"items"`
	Count int            `json:"count"`
	Total float64        `json:"total"`
}

type cartItemView struct {
	ProductID int64   `json:"productId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	Available int     `json:"quantityAvailable"`
}

// CartHandler exposes the authenticated user's cart.
type CartHandler struct {
	carts  *cart.Service
	client *catalog.Client
	logger *zap.Logger
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(carts *cart.Service, client *catalog.Client, logger *zap.Logger) *CartHandler {
	return &CartHandler{
		carts:  carts,
		client: client,
		logger: logger,
	}
}

// RegisterRoutes registers all cart routes. Every route requires auth.
func (h *CartHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/cart", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/", h.GetCart)
		r.Post("/items", h.AddItem)
		r.Put("/items/{productID}", h.UpdateItem)
		r.Delete("/items/{productID}", h.RemoveItem)
		r.Post("/checkout", h.Checkout)
	})
}

// GetCart loads the user's cart from upstream and returns the snapshot.
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if _, err := h.carts.Load(upstreamContext(r), userID); err != nil {
		// The prior snapshot still renders; log and serve it.
		h.logger.Warn("Cart refresh failed", zap.Int64("user_id", userID), zap.Error(err))
	}

	h.respondCart(w, userID)
}

// AddItem fetches the product for its stock ceiling and adds it to the cart.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req AddCartItemRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx := upstreamContext(r)
	product, err := h.client.ProductByID(ctx, req.ProductID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
			return
		}
		middleware.RespondWithError(w, http.StatusBadGateway, "failed to load product")
		return
	}

	if err := h.carts.Add(ctx, userID, product, req.Quantity); err != nil {
		if errors.Is(err, cart.ErrInsufficientStock) {
			middleware.RespondWithError(w, http.StatusConflict, "not enough stock")
			return
		}
		h.logger.Error("Cart add failed",
			zap.Int64("user_id", userID),
			zap.Int64("product_id", req.ProductID),
			zap.Error(err))
		middleware.RespondWithError(w, http.StatusBadGateway, "failed to add item")
		return
	}

	h.respondCart(w, userID)
}

// UpdateItem changes a line quantity; zero or less removes the line.
func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	productID, ok2 := cartProductID(w, r)
	if !ok2 {
		return
	}

	var req UpdateCartItemRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.carts.UpdateQuantity(upstreamContext(r), userID, productID, req.Quantity); err != nil {
		if errors.Is(err, cart.ErrItemNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "item not in cart")
			return
		}
		middleware.RespondWithError(w, http.StatusBadGateway, "failed to update item")
		return
	}

	h.respondCart(w, userID)
}

// RemoveItem drops a line from the cart.
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	productID, ok2 := cartProductID(w, r)
	if !ok2 {
		return
	}

	if err := h.carts.Remove(upstreamContext(r), userID, productID); err != nil {
		if errors.Is(err, cart.ErrItemNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "item not in cart")
			return
		}
		middleware.RespondWithError(w, http.StatusBadGateway, "failed to remove item")
		return
	}

	h.respondCart(w, userID)
}

// Checkout submits the cart as an order and clears it on success.
func (h *CartHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req CheckoutRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := h.carts.Checkout(upstreamContext(r), userID, req.Email, req.Location, req.DeliveryType)
	if err != nil {
		if errors.Is(err, cart.ErrEmptyCart) {
			middleware.RespondWithError(w, http.StatusBadRequest, "cart is empty")
			return
		}
		h.logger.Error("Checkout failed", zap.Int64("user_id", userID), zap.Error(err))
		middleware.RespondWithError(w, http.StatusBadGateway, "failed to submit order")
		return
	}

	h.logger.Info("Order submitted",
		zap.Int64("user_id", userID),
		zap.Int64("order_id", order.ID))
	middleware.RespondWithJSON(w, http.StatusCreated, order)
}

func (h *CartHandler) respondCart(w http.ResponseWriter, userID int64) {
	items := h.carts.Items(userID)
	views := make([]cartItemView, 0, len(items))
	for _, item := range items {
		views = append(views, cartItemView{
			ProductID: item.ProductID,
			Name:      item.Name,
			Price:     item.Price,
			Quantity:  item.Quantity,
			Available: item.QuantityAvailable,
		})
	}

	middleware.RespondWithJSON(w, http.StatusOK, CartSummary{
		Items: views,
		Count: h.carts.Count(userID),
		Total: h.carts.Total(userID),
	})
}

func cartProductID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil || id <= 0 {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return 0, false
	}
	return id, true
}
