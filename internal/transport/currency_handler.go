package transport

import (
	"errors"
	"net/http"

	"voltmart/internal/clientstate"
	"voltmart/internal/currency"
	"voltmart/internal/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// clientIDHeader identifies the browser installation for per-client state.
const clientIDHeader = "X-Client-ID"

// SwitchCurrencyRequest selects the display currency.
type SwitchCurrencyRequest struct {
	Code string `json:"code" validate:"required,len=3"`
}

// ConvertRequest converts an amount between two currencies.
type ConvertRequest struct {
	Amount float64 `json:"amount" validate:"gte=0"`
	From   string  `json:"from" validate:"required,len=3"`
	To     string  `json:"to" validate:"required,len=3"`
}

// ConvertResponse is the rounded conversion result.
type ConvertResponse struct {
	Amount    float64 `json:"amount"`
	From      string  `json:"from"`
	To        string  `json:"to"`
	Converted float64 `json:"converted"`
}

// CurrencyHandler exposes the display-currency store over HTTP and persists
// each client's last selection.
type CurrencyHandler struct {
	store  *currency.Store
	state  *clientstate.Store
	logger *zap.Logger
}

// NewCurrencyHandler creates a new CurrencyHandler.
func NewCurrencyHandler(store *currency.Store, state *clientstate.Store, logger *zap.Logger) *CurrencyHandler {
	return &CurrencyHandler{
		store:  store,
		state:  state,
		logger: logger,
	}
}

// RegisterRoutes registers all currency routes.
func (h *CurrencyHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/currencies", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/active", h.Active)
		r.Put("/active", h.Switch)
		r.Post("/convert", h.Convert)
	})
}

// List returns the available currencies.
func (h *CurrencyHandler) List(w http.ResponseWriter, r *http.Request) {
	middleware.RespondWithJSON(w, http.StatusOK, h.store.Currencies())
}

// Active returns the active display currency. When the client has a
// persisted selection that differs from the live one, the persisted code is
// applied first so a returning client resumes where it left off.
func (h *CurrencyHandler) Active(w http.ResponseWriter, r *http.Request) {
	if clientID := r.Header.Get(clientIDHeader); clientID != "" {
		code, err := h.state.ActiveCurrency(r.Context(), clientID)
		if err != nil {
			h.logger.Warn("Persisted currency lookup failed",
				zap.String("client_id", clientID),
				zap.Error(err))
		} else if code != "" && code != h.store.Active().Code {
			if err := h.store.SetActive(code); err != nil {
				h.logger.Warn("Persisted currency no longer available",
					zap.String("code", code))
			}
		}
	}

	middleware.RespondWithJSON(w, http.StatusOK, h.store.Active())
}

// Switch changes the active display currency and persists the choice for
// the requesting client.
func (h *CurrencyHandler) Switch(w http.ResponseWriter, r *http.Request) {
	var req SwitchCurrencyRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.store.SetActive(req.Code); err != nil {
		if errors.Is(err, currency.ErrUnknownCurrency) {
			middleware.RespondWithError(w, http.StatusBadRequest, "unknown currency code")
			return
		}
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to switch currency")
		return
	}

	if clientID := r.Header.Get(clientIDHeader); clientID != "" {
		if err := h.state.SetActiveCurrency(r.Context(), clientID, req.Code); err != nil {
			// Persistence is best effort; the switch itself already took.
			h.logger.Warn("Failed to persist currency selection",
				zap.String("client_id", clientID),
				zap.Error(err))
		}
	}

	h.logger.Info("Display currency switched", zap.String("code", req.Code))
	middleware.RespondWithJSON(w, http.StatusOK, h.store.Active())
}

// Convert converts an amount between two currency codes using the loaded
// rate table.
func (h *CurrencyHandler) Convert(w http.ResponseWriter, r *http.Request) {
	var req ConvertRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	converted := currency.Round2(h.store.Convert(req.Amount, req.From, req.To))
	middleware.RespondWithJSON(w, http.StatusOK, ConvertResponse{
		Amount:    req.Amount,
		From:      req.From,
		To:        req.To,
		Converted: converted,
	})
}
