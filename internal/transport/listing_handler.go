package transport

import (
	"errors"
	"net/http"

	"voltmart/internal/catalog"
	"voltmart/internal/currency"
	"voltmart/internal/listing"
	"voltmart/internal/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// OpenSessionRequest starts a listing session on a category.
type OpenSessionRequest struct {
	Category string `json:"category" validate:"required"`
}

// TopFilterRequest carries the top-bar controls. Absent fields leave the
// current selection untouched.
type TopFilterRequest struct {
	Sort        *string  `json:"sort"`
	SubCategory *string  `json:"subCategory"`
	MinPrice    *float64 `json:"minPrice"`
	MaxPrice    *float64 `json:"maxPrice"`
	MinRating   *float64 `json:"minRating"`
	ClearPrice  bool     `json:"clearPrice"`
}

// SideFilterRequest carries the side-panel controls.
type SideFilterRequest struct {
	MinPrice *float64 `json:"minPrice"`
	MaxPrice *float64 `json:"maxPrice"`
	Brands   []string `json:"brands"`
}

// PageRequest navigates pagination. Action is one of first, prev, next,
// last, or goto; goto requires Page.
type PageRequest struct {
	Action string `json:"action" validate:"required,oneof=first prev next last goto"`
	Page   int    `json:"page"`
}

// ListingHandler exposes listing sessions over HTTP. Each session holds the
// product snapshot and filter state for one storefront listing page.
type ListingHandler struct {
	registry   *SessionRegistry
	client     *catalog.Client
	currencies *currency.Store
	pageSize   int
	logger     *zap.Logger
}

// NewListingHandler creates a new ListingHandler.
func NewListingHandler(registry *SessionRegistry, client *catalog.Client, currencies *currency.Store, pageSize int, logger *zap.Logger) *ListingHandler {
	return &ListingHandler{
		registry:   registry,
		client:     client,
		currencies: currencies,
		pageSize:   pageSize,
		logger:     logger,
	}
}

// RegisterRoutes registers all listing routes.
func (h *ListingHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/listing", func(r chi.Router) {
		r.Post("/", h.OpenSession)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", h.GetView)
			r.Delete("/", h.CloseSession)
			r.Put("/category", h.SelectCategory)
			r.Put("/filter/top", h.ApplyTopFilter)
			r.Put("/filter/side", h.ApplySideFilter)
			r.Delete("/filters", h.ClearFilters)
			r.Delete("/filters/side", h.ClearSideFilters)
			r.Post("/page", h.Navigate)
		})
	})
}

// OpenSession creates a session, loads the requested category, and returns
// the first view.
func (h *ListingHandler) OpenSession(w http.ResponseWriter, r *http.Request) {
	var req OpenSessionRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session := listing.NewSession(h.client, h.currencies, h.pageSize, h.logger)
	if err := session.SelectCategory(r.Context(), req.Category); err != nil {
		h.logger.Warn("Category load failed on session open",
			zap.String("category", req.Category),
			zap.Error(err))
		if errors.Is(err, catalog.ErrEmptyCategory) {
			session.Close()
			middleware.RespondWithError(w, http.StatusBadRequest, "category must not be empty")
			return
		}
		// The session opens with an empty snapshot; the client can retry
		// the category without re-opening.
	}
	h.registry.Add(session)

	h.logger.Info("Listing session opened",
		zap.String("session_id", session.ID()),
		zap.String("category", req.Category))
	middleware.RespondWithJSON(w, http.StatusCreated, session.View())
}

// GetView returns the current view of a session.
func (h *ListingHandler) GetView(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, session.View())
}

// CloseSession releases a session.
func (h *ListingHandler) CloseSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	h.registry.Remove(id)
	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "session closed"})
}

// SelectCategory navigates a session to a different category.
func (h *ListingHandler) SelectCategory(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	var req OpenSessionRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := session.SelectCategory(r.Context(), req.Category); err != nil {
		h.logger.Warn("Category load failed",
			zap.String("session_id", session.ID()),
			zap.String("category", req.Category),
			zap.Error(err))
		if errors.Is(err, catalog.ErrEmptyCategory) {
			middleware.RespondWithError(w, http.StatusBadRequest, "category must not be empty")
			return
		}
		middleware.RespondWithError(w, http.StatusBadGateway, "failed to load category")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, session.View())
}

// ApplyTopFilter merges a top-bar update into the session.
func (h *ListingHandler) ApplyTopFilter(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	var req TopFilterRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := session.ApplyTopFilter(listing.TopFilter{
		Sort:        req.Sort,
		SubCategory: req.SubCategory,
		MinPrice:    req.MinPrice,
		MaxPrice:    req.MaxPrice,
		MinRating:   req.MinRating,
		ClearPrice:  req.ClearPrice,
	})
	if err != nil {
		if errors.Is(err, listing.ErrInvalidPriceRange) {
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid price range")
			return
		}
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to apply filter")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, session.View())
}

// ApplySideFilter merges a side-panel update into the session.
func (h *ListingHandler) ApplySideFilter(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	var req SideFilterRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := session.ApplySideFilter(listing.SideFilter{
		MinPrice: req.MinPrice,
		MaxPrice: req.MaxPrice,
		Brands:   req.Brands,
	})
	if err != nil {
		if errors.Is(err, listing.ErrInvalidPriceRange) {
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid price range")
			return
		}
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to apply filter")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, session.View())
}

// ClearFilters resets every facet of a session.
func (h *ListingHandler) ClearFilters(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	session.ClearFilters()
	middleware.RespondWithJSON(w, http.StatusOK, session.View())
}

// ClearSideFilters resets only the side panel of a session.
func (h *ListingHandler) ClearSideFilters(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	session.ClearSideFilters()
	middleware.RespondWithJSON(w, http.StatusOK, session.View())
}

// Navigate moves pagination. A request that lands while a transition is
// still in flight, or targets a page outside the range, leaves the view
// unchanged and reports moved=false.
func (h *ListingHandler) Navigate(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	var req PageRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var (
		view  listing.View
		moved bool
	)
	switch req.Action {
	case "first":
		view, moved = session.FirstPage()
	case "prev":
		view, moved = session.PrevPage()
	case "next":
		view, moved = session.NextPage()
	case "last":
		view, moved = session.LastPage()
	case "goto":
		view, moved = session.GoToPage(req.Page)
	}

	// The view is the rendered response, so the transition completes here.
	if moved {
		session.FinishTransition()
	}

	middleware.RespondWithJSON(w, http.StatusOK, struct {
		Moved bool         `json:"moved"`
		View  listing.View `json:"view"`
	}{Moved: moved, View: view})
}

func (h *ListingHandler) session(w http.ResponseWriter, r *http.Request) (*listing.Session, bool) {
	id := chi.URLParam(r, "sessionID")
	session, ok := h.registry.Get(id)
	if !ok {
		middleware.RespondWithError(w, http.StatusNotFound, "listing session not found")
		return nil, false
	}
	return session, true
}
