package transport

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"voltmart/internal/catalog"
	"voltmart/internal/currency"
	"voltmart/internal/domain"
	"voltmart/internal/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ProductView is a product together with its price re-expressed in the
// active display currency. Stored prices stay in the reference currency.
type ProductView struct {
	domain.Product
	DisplayCurrency        string   `json:"displayCurrency"`
	DisplayPrice           float64  `json:"displayPrice"`
	DisplayDiscountedPrice *float64 `json:"displayDiscountedPrice,omitempty"`
}

// RatingRequest submits a 1-5 star rating.
type RatingRequest struct {
	Rating int `json:"rating" validate:"required,min=1,max=5"`
}

// ReviewRequest posts a product review.
type ReviewRequest struct {
	ProductID int64  `json:"productId" validate:"required,gt=0"`
	Content   string `json:"content" validate:"required"`
}

// CatalogHandler exposes the product catalog read surface plus the rating
// and review writes that flow back through the upstream API.
type CatalogHandler struct {
	client     *catalog.Client
	currencies *currency.Store
	registry   *SessionRegistry
	logger     *zap.Logger
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(client *catalog.Client, currencies *currency.Store, registry *SessionRegistry, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{
		client:     client,
		currencies: currencies,
		registry:   registry,
		logger:     logger,
	}
}

// RegisterRoutes registers all catalog routes.
func (h *CatalogHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", h.ListProducts)
		r.Get("/new", h.NewlyAdded)
		r.Get("/search", h.Search)
		r.Get("/{productID}", h.GetProduct)
		r.Get("/{productID}/rating", h.GetRating)
		r.Get("/{productID}/reviews", h.ListReviews)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Post("/{productID}/rating", h.SubmitRating)
			r.Post("/{productID}/click", h.TrackClick)
			r.Post("/reviews", h.PostReview)
		})
	})
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/api/recommendations", h.Recommendations)
	})
}

// ListProducts returns the full catalog, or one category when the category
// query parameter is set.
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	var (
		products []domain.Product
		err      error
	)
	if category := r.URL.Query().Get("category"); category != "" {
		products, err = h.client.ProductsByCategory(r.Context(), category)
	} else {
		products, err = h.client.Products(r.Context())
	}
	if err != nil {
		h.logger.Error("Product listing failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusBadGateway, "failed to load products")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, h.viewAll(products))
}

// NewlyAdded returns products created within the recent window.
func (h *CatalogHandler) NewlyAdded(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 10)
	days := queryInt(r, "days", 30)

	products, err := h.client.NewlyAdded(r.Context(), limit, days)
	if err != nil {
		if errors.Is(err, catalog.ErrBadRequest) {
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid limit or days")
			return
		}
		h.logger.Error("Newly added lookup failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusBadGateway, "failed to load new products")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, h.viewAll(products))
}

// Search proxies the upstream name search for the suggestion box and the
// search-result page.
func (h *CatalogHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	limit := queryInt(r, "limit", 6)

	products, err := h.client.SearchProducts(r.Context(), query, limit)
	if err != nil {
		h.logger.Error("Product search failed",
			zap.String("query", query),
			zap.Error(err))
		middleware.RespondWithError(w, http.StatusBadGateway, "failed to search products")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, h.viewAll(products))
}

// GetProduct returns one product with display pricing.
func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}

	product, err := h.client.ProductByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
			return
		}
		h.logger.Error("Product lookup failed", zap.Int64("product_id", id), zap.Error(err))
		middleware.RespondWithError(w, http.StatusBadGateway, "failed to load product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, h.view(*product))
}

// GetRating returns the aggregate rating for a product.
func (h *CatalogHandler) GetRating(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}

	summary, err := h.client.AverageRating(r.Context(), id)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
			return
		}
		middleware.RespondWithError(w, http.StatusBadGateway, "failed to load rating")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, summary)
}

// SubmitRating records a rating upstream, then re-fetches the aggregate and
// pushes it into every live listing session. The returned summary is the
// server's recomputed value, never a local estimate.
func (h *CatalogHandler) SubmitRating(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}

	var req RatingRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	summary, err := h.client.SubmitRating(h.upstreamCtx(r), id, req.Rating)
	if err != nil {
		switch {
		case errors.Is(err, catalog.ErrBadRequest):
			middleware.RespondWithError(w, http.StatusBadRequest, "rating must be between 1 and 5")
		case errors.Is(err, catalog.ErrNotFound):
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
		case errors.Is(err, catalog.ErrUnauthorized):
			middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		default:
			h.logger.Error("Rating submit failed", zap.Int64("product_id", id), zap.Error(err))
			middleware.RespondWithError(w, http.StatusBadGateway, "failed to submit rating")
		}
		return
	}

	h.registry.BroadcastRatingUpdate(id, *summary)

	h.logger.Info("Rating submitted",
		zap.Int64("product_id", id),
		zap.Int("rating", req.Rating),
		zap.Float64("average", summary.AverageRating))
	middleware.RespondWithJSON(w, http.StatusOK, summary)
}

// ListReviews returns the reviews for a product.
func (h *CatalogHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}

	reviews, err := h.client.ReviewsByProduct(r.Context(), id)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadGateway, "failed to load reviews")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, reviews)
}

// PostReview forwards a review to the upstream API.
func (h *CatalogHandler) PostReview(w http.ResponseWriter, r *http.Request) {
	var req ReviewRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	userID, _ := middleware.GetUserID(r.Context())
	review, err := h.client.PostReview(h.upstreamCtx(r), &domain.Review{
		ProductID: req.ProductID,
		UserID:    userID,
		Content:   req.Content,
	})
	if err != nil {
		if errors.Is(err, catalog.ErrUnauthorized) {
			middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		middleware.RespondWithError(w, http.StatusBadGateway, "failed to post review")
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, review)
}

// TrackClick records a product click for the recommendation engine. Failures
// are swallowed upstream already; the endpoint always acknowledges.
func (h *CatalogHandler) TrackClick(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}

	userID, _ := middleware.GetUserID(r.Context())
	subCategory := r.URL.Query().Get("subCategory")
	_ = h.client.TrackClick(h.upstreamCtx(r), id, userID, subCategory)

	middleware.RespondWithJSON(w, http.StatusAccepted, map[string]string{"message": "click recorded"})
}

// Recommendations returns personalized products for the authenticated user.
func (h *CatalogHandler) Recommendations(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	limit := queryInt(r, "limit", 10)
	products, err := h.client.Recommendations(h.upstreamCtx(r), userID, limit)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadGateway, "failed to load recommendations")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, h.viewAll(products))
}

func (h *CatalogHandler) view(p domain.Product) ProductView {
	active := h.currencies.Active()
	reference := h.currencies.Reference()

	v := ProductView{
		Product:         p,
		DisplayCurrency: active.Code,
		DisplayPrice:    currency.Round2(h.currencies.Convert(p.Price, reference, active.Code)),
	}
	if p.DiscountedPrice != nil {
		converted := currency.Round2(h.currencies.Convert(*p.DiscountedPrice, reference, active.Code))
		v.DisplayDiscountedPrice = &converted
	}
	return v
}

func (h *CatalogHandler) viewAll(products []domain.Product) []ProductView {
	views := make([]ProductView, 0, len(products))
	for _, p := range products {
		views = append(views, h.view(p))
	}
	return views
}

// upstreamCtx forwards the caller's bearer token to the upstream API.
func (h *CatalogHandler) upstreamCtx(r *http.Request) context.Context {
	return upstreamContext(r)
}

func productID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil || id <= 0 {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return 0, false
	}
	return id, true
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
