package transport

import (
	"net/http"
	"strconv"

	"voltmart/internal/clientstate"
	"voltmart/internal/domain"
	"voltmart/internal/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// FavoriteRequest adds or toggles a product in the favorites list. The full
// product is stored so the list renders without a catalog round trip.
type FavoriteRequest struct {
	Product domain.Product `json:"product" validate:"required"`
}

// ToggleResponse reports whether the product is a favorite after the call.
type ToggleResponse struct {
	ProductID int64 `json:"productId"`
	Favorite  bool  `json:"favorite"`
}

// FavoritesHandler exposes the per-client favorites list. Favorites are
// keyed by the X-Client-ID header, so they survive without an account.
type FavoritesHandler struct {
	state  *clientstate.Store
	logger *zap.Logger
}

// NewFavoritesHandler creates a new FavoritesHandler.
func NewFavoritesHandler(state *clientstate.Store, logger *zap.Logger) *FavoritesHandler {
	return &FavoritesHandler{state: state, logger: logger}
}

// RegisterRoutes registers all favorites routes.
func (h *FavoritesHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/favorites", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Add)
		r.Post("/toggle", h.Toggle)
		r.Delete("/{productID}", h.Remove)
	})
}

// List returns the client's favorites.
func (h *FavoritesHandler) List(w http.ResponseWriter, r *http.Request) {
	clientID, ok := h.clientID(w, r)
	if !ok {
		return
	}

	favorites, err := h.state.Favorites(r.Context(), clientID)
	if err != nil {
		h.logger.Error("Favorites lookup failed", zap.String("client_id", clientID), zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to load favorites")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, favorites)
}

// Add stores a product in the favorites list. Adding a product that is
// already present is a no-op.
func (h *FavoritesHandler) Add(w http.ResponseWriter, r *http.Request) {
	clientID, ok := h.clientID(w, r)
	if !ok {
		return
	}

	var req FavoriteRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Product.ID <= 0 {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	changed, err := h.state.AddFavorite(r.Context(), clientID, req.Product)
	if err != nil {
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to save favorite")
		return
	}

	status := http.StatusOK
	if changed {
		status = http.StatusCreated
	}
	middleware.RespondWithJSON(w, status, ToggleResponse{ProductID: req.Product.ID, Favorite: true})
}

// Toggle flips a product's favorite state.
func (h *FavoritesHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	clientID, ok := h.clientID(w, r)
	if !ok {
		return
	}

	var req FavoriteRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Product.ID <= 0 {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	favorite, err := h.state.ToggleFavorite(r.Context(), clientID, req.Product)
	if err != nil {
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to toggle favorite")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, ToggleResponse{ProductID: req.Product.ID, Favorite: favorite})
}

// Remove drops a product from the favorites list. Removing an absent
// product succeeds.
func (h *FavoritesHandler) Remove(w http.ResponseWriter, r *http.Request) {
	clientID, ok := h.clientID(w, r)
	if !ok {
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil || id <= 0 {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	if err := h.state.RemoveFavorite(r.Context(), clientID, id); err != nil {
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to remove favorite")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, ToggleResponse{ProductID: id, Favorite: false})
}

func (h *FavoritesHandler) clientID(w http.ResponseWriter, r *http.Request) (string, bool) {
	clientID := r.Header.Get(clientIDHeader)
	if clientID == "" {
		middleware.RespondWithError(w, http.StatusBadRequest, "missing X-Client-ID header")
		return "", false
	}
	return clientID, true
}
