package transport

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"voltmart/internal/analytics"
	"voltmart/internal/catalog"
	"voltmart/internal/domain"
	"voltmart/internal/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ProductRequest creates or updates a catalog product.
type ProductRequest struct {
	Name        string   `json:"name" validate:"required"`
	Brand       string   `json:"brand"`
	Price       float64  `json:"price" validate:"required,gt=0"`
	Category    string   `json:"category" validate:"required"`
	SubCategory string   `json:"subCategory"`
	Quantity    int      `json:"quantity" validate:"gte=0"`
	Warranty    string   `json:"warranty"`
	Images      []string `json:"images"`
}

// DiscountRequest applies a percentage discount to a product.
type DiscountRequest struct {
	Percentage float64 `json:"percentage" validate:"required,gt=0,lte=100"`
}

// BulkUpdateRequest replaces fields on multiple products at once.
type BulkUpdateRequest struct {
	Products []domain.Product `json:"products" validate:"required,min=1"`
}

// DeliveryTypeRequest changes an order's delivery type.
type DeliveryTypeRequest struct {
	DeliveryType string `json:"deliveryType" validate:"required,oneof=standard express"`
}

// AdminHandler is the control panel surface: product management, order
// management, and the analytics widgets. Every route requires the admin
// role.
type AdminHandler struct {
	client *catalog.Client
	logger *zap.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(client *catalog.Client, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{client: client, logger: logger}
}

// RegisterRoutes registers all admin routes behind auth plus the admin gate.
func (h *AdminHandler) RegisterRoutes(r chi.Router, authMiddleware, adminMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/admin", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Use(adminMiddleware)

		r.Route("/products", func(r chi.Router) {
			r.Post("/", h.CreateProduct)
			r.Put("/bulk", h.BulkUpdate)
			r.Put("/{productID}", h.UpdateProduct)
			r.Delete("/{productID}", h.DeleteProduct)
			r.Post("/{productID}/discount", h.ApplyDiscount)
			r.Delete("/{productID}/discount", h.RemoveDiscount)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", h.ListOrders)
			r.Put("/{orderID}/delivery", h.UpdateDeliveryType)
			r.Delete("/{orderID}", h.DeleteOrder)
		})

		r.Route("/analytics", func(r chi.Router) {
			r.Get("/popularity", h.Popularity)
			r.Get("/countries", h.TopCountries)
			r.Get("/income", h.IncomeTrend)
			r.Get("/trending", h.Trending)
		})
	})
}

// CreateProduct adds a product to the catalog.
func (h *AdminHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	product, err := h.client.CreateProduct(upstreamContext(r), &domain.Product{
		Name:        req.Name,
		Brand:       req.Brand,
		Price:       req.Price,
		Category:    req.Category,
		SubCategory: req.SubCategory,
		Quantity:    req.Quantity,
		Warranty:    req.Warranty,
		Images:      req.Images,
	})
	if err != nil {
		if errors.Is(err, catalog.ErrBadRequest) {
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid product")
			return
		}
		h.logger.Error("Product create failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusBadGateway, "failed to create product")
		return
	}

	h.logger.Info("Product created",
		zap.Int64("product_id", product.ID),
		zap.String("name", product.Name))
	middleware.RespondWithJSON(w, http.StatusCreated, product)
}

// UpdateProduct replaces a product's editable fields.
func (h *AdminHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}

	var req ProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	product, err := h.client.UpdateProduct(upstreamContext(r), id, &domain.Product{
		Name:        req.Name,
		Brand:       req.Brand,
		Price:       req.Price,
		Category:    req.Category,
		SubCategory: req.SubCategory,
		Quantity:    req.Quantity,
		Warranty:    req.Warranty,
		Images:      req.Images,
	})
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
			return
		}
		middleware.RespondWithError(w, http.StatusBadGateway, "failed to update product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// BulkUpdate pushes a batch of product updates upstream.
func (h *AdminHandler) BulkUpdate(w http.ResponseWriter, r *http.Request) {
	var req BulkUpdateRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.client.BulkUpdateProducts(upstreamContext(r), req.Products); err != nil {
		h.logger.Error("Bulk update failed", zap.Int("count", len(req.Products)), zap.Error(err))
		middleware.RespondWithError(w, http.StatusBadGateway, "failed to update products")
		return
	}

	h.logger.Info("Products bulk updated", zap.Int("count", len(req.Products)))
	middleware.RespondWithJSON(w, http.StatusOK, map[string]int{"updated": len(req.Products)})
}

// DeleteProduct removes a product from the catalog.
func (h *AdminHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}

	if err := h.client.DeleteProduct(upstreamContext(r), id); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
			return
		}
		middleware.RespondWithError(w, http.StatusBadGateway, "failed to delete product")
		return
	}

	h.logger.Info("Product deleted", zap.Int64("product_id", id))
	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "product deleted"})
}

// ApplyDiscount sets a percentage discount. The upstream computes and
// stores the discounted price; the gateway never derives it locally.
func (h *AdminHandler) ApplyDiscount(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}

	var req DiscountRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.client.ApplyDiscount(upstreamContext(r), id, req.Percentage); err != nil {
		switch {
		case errors.Is(err, catalog.ErrInvalidDiscount):
			middleware.RespondWithError(w, http.StatusBadRequest, "discount must be between 1 and 100")
		case errors.Is(err, catalog.ErrNotFound):
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
		default:
			middleware.RespondWithError(w, http.StatusBadGateway, "failed to apply discount")
		}
		return
	}

	h.logger.Info("Discount applied",
		zap.Int64("product_id", id),
		zap.Float64("percentage", req.Percentage))
	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "discount applied"})
}

// RemoveDiscount clears a product's discount.
func (h *AdminHandler) RemoveDiscount(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}

	if err := h.client.RemoveDiscount(upstreamContext(r), id); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
			return
		}
		middleware.RespondWithError(w, http.StatusBadGateway, "failed to remove discount")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "discount removed"})
}

// ListOrders returns all orders, optionally constrained by a start/end
// RFC 3339 date range.
func (h *AdminHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.loadOrders(w, r)
	if err != nil {
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, orderViews(orders, time.Now()))
}

// UpdateDeliveryType changes an order's delivery type.
func (h *AdminHandler) UpdateDeliveryType(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.ParseInt(chi.URLParam(r, "orderID"), 10, 64)
	if err != nil || orderID <= 0 {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	var req DeliveryTypeRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.client.UpdateDeliveryType(upstreamContext(r), orderID, req.DeliveryType); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "order not found")
			return
		}
		middleware.RespondWithError(w, http.StatusBadGateway, "failed to update delivery type")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "delivery type updated"})
}

// DeleteOrder removes an order.
func (h *AdminHandler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.ParseInt(chi.URLParam(r, "orderID"), 10, 64)
	if err != nil || orderID <= 0 {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	if err := h.client.DeleteOrder(upstreamContext(r), orderID); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "order not found")
			return
		}
		middleware.RespondWithError(w, http.StatusBadGateway, "failed to delete order")
		return
	}

	h.logger.Info("Order deleted", zap.Int64("order_id", orderID))
	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "order deleted"})
}

// Popularity returns per-product order rollups, most ordered first.
func (h *AdminHandler) Popularity(w http.ResponseWriter, r *http.Request) {
	orders, err := h.loadOrders(w, r)
	if err != nil {
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, analytics.Popularity(orders))
}

// TopCountries returns revenue share by delivery location.
func (h *AdminHandler) TopCountries(w http.ResponseWriter, r *http.Request) {
	orders, err := h.loadOrders(w, r)
	if err != nil {
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, analytics.TopCountries(orders))
}

// IncomeTrend returns monthly revenue buckets over the requested window.
func (h *AdminHandler) IncomeTrend(w http.ResponseWriter, r *http.Request) {
	months := queryInt(r, "months", 12)
	if months <= 0 {
		middleware.RespondWithError(w, http.StatusBadRequest, "months must be positive")
		return
	}

	orders, err := h.loadOrders(w, r)
	if err != nil {
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, analytics.IncomeTrend(orders, months, time.Now()))
}

// Trending returns the most ordered products within the recent window.
func (h *AdminHandler) Trending(w http.ResponseWriter, r *http.Request) {
	days := queryInt(r, "days", 7)
	limit := queryInt(r, "limit", 10)
	if days <= 0 || limit <= 0 {
		middleware.RespondWithError(w, http.StatusBadRequest, "days and limit must be positive")
		return
	}

	orders, err := h.loadOrders(w, r)
	if err != nil {
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, analytics.Trending(orders, days, limit, time.Now()))
}

// loadOrders fetches all orders, or the start/end range when both query
// parameters parse as RFC 3339. It writes the error response itself.
func (h *AdminHandler) loadOrders(w http.ResponseWriter, r *http.Request) ([]domain.Order, error) {
	ctx := upstreamContext(r)

	startRaw := r.URL.Query().Get("start")
	endRaw := r.URL.Query().Get("end")
	if startRaw != "" && endRaw != "" {
		start, err := time.Parse(time.RFC3339, startRaw)
		if err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid start date")
			return nil, err
		}
		end, err := time.Parse(time.RFC3339, endRaw)
		if err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid end date")
			return nil, err
		}
		orders, err := h.client.OrdersByDateRange(ctx, start, end)
		if err != nil {
			h.logger.Error("Order range lookup failed", zap.Error(err))
			middleware.RespondWithError(w, http.StatusBadGateway, "failed to load orders")
			return nil, err
		}
		return orders, nil
	}

	orders, err := h.client.AllOrders(ctx)
	if err != nil {
		h.logger.Error("Order lookup failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusBadGateway, "failed to load orders")
		return nil, err
	}
	return orders, nil
}
