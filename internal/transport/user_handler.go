package transport

import (
	"errors"
	"net/http"

	"voltmart/internal/catalog"
	"voltmart/internal/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// RegisterUserRequest represents the registration request payload.
type RegisterUserRequest struct {
	Name     string `json:"name" validate:"required"`
	LastName string `json:"lastName" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Address  string `json:"address"`
}

// LoginUserRequest represents the login request payload.
type LoginUserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ForgotPasswordRequest asks the upstream to email a reset link.
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest redeems an emailed reset token.
type ResetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	NewPassword string `json:"newPassword" validate:"required,min=8"`
}

// UserHandler proxies account operations to the upstream API. The gateway
// never stores credentials; the upstream issues the tokens the auth
// middleware later verifies.
type UserHandler struct {
	client *catalog.Client
	logger *zap.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(client *catalog.Client, logger *zap.Logger) *UserHandler {
	return &UserHandler{client: client, logger: logger}
}

// RegisterRoutes registers all user routes.
func (h *UserHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/users", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.Post("/forgot-password", h.ForgotPassword)
		r.Post("/reset-password", h.ResetPassword)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Get("/profile", h.GetProfile)
		})
	})
}

// Register forwards a registration to the upstream API.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterUserRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Registration validation failed", zap.Error(err))
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.client.RegisterUser(r.Context(), &catalog.RegisterRequest{
		Name:     req.Name,
		LastName: req.LastName,
		Email:    req.Email,
		Password: req.Password,
		Address:  req.Address,
	})
	if err != nil {
		if errors.Is(err, catalog.ErrBadRequest) {
			middleware.RespondWithError(w, http.StatusConflict, "user with this email already exists")
			return
		}
		h.logger.Error("Registration failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusBadGateway, "failed to register user")
		return
	}

	h.logger.Info("User registered", zap.Int64("user_id", user.ID))
	middleware.RespondWithJSON(w, http.StatusCreated, user)
}

// Login forwards credentials to the upstream API and returns its token.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginUserRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Login validation failed", zap.Error(err))
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.client.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, catalog.ErrUnauthorized) {
			middleware.RespondWithError(w, http.StatusUnauthorized, "invalid email or password")
			return
		}
		h.logger.Error("Login failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusBadGateway, "failed to login")
		return
	}

	h.logger.Info("User logged in", zap.Int64("user_id", result.User.ID))
	middleware.RespondWithJSON(w, http.StatusOK, result)
}

// ForgotPassword forwards a reset-link request to the upstream API. The
// response never reveals whether the email has an account.
func (h *UserHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.client.RequestPasswordReset(r.Context(), req.Email); err != nil {
		if !errors.Is(err, catalog.ErrNotFound) {
			h.logger.Error("Password reset request failed", zap.Error(err))
			middleware.RespondWithError(w, http.StatusBadGateway, "failed to request password reset")
			return
		}
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{
		"message": "if the email is registered, a reset link has been sent",
	})
}

// ResetPassword forwards a new password plus the emailed token upstream.
func (h *UserHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.client.ResetPassword(r.Context(), req.Token, req.Email, req.NewPassword); err != nil {
		if errors.Is(err, catalog.ErrBadRequest) || errors.Is(err, catalog.ErrUnauthorized) {
			middleware.RespondWithError(w, http.StatusBadRequest, "reset token is invalid or expired")
			return
		}
		h.logger.Error("Password reset failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusBadGateway, "failed to reset password")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "password reset successfully"})
}

// GetProfile returns the authenticated user's upstream account record.
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	user, err := h.client.UserByID(upstreamContext(r), userID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "user not found")
			return
		}
		h.logger.Error("Profile lookup failed", zap.Int64("user_id", userID), zap.Error(err))
		middleware.RespondWithError(w, http.StatusBadGateway, "failed to load profile")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, user)
}
