package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"voltmart/internal/cart"
	"voltmart/internal/catalog"
	"voltmart/internal/clientstate"
	"voltmart/internal/config"
	"voltmart/internal/currency"
	custommiddleware "voltmart/internal/middleware"
	"voltmart/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const sessionTTL = 30 * time.Minute

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	redis  *redis.Client
}

func NewServer(ctx context.Context, cfg *config.Config, logger *zap.Logger, rdb *redis.Client, currencies *currency.Store) *Server {
	// Create router
	router := chi.NewRouter()

	// Add basic middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(custommiddleware.CORSMiddleware(cfg.Server.AllowedOrigins, cfg.Server.Env == "development"))
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(custommiddleware.RateLimitMiddleware(rdb, custommiddleware.RateLimitConfig{
		RequestsPerWindow: 300,
		Window:            time.Minute,
		KeyPrefix:         "ratelimit",
	}, logger))

	// Health check endpoint
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Upstream client and stores
	client := catalog.NewClient(cfg.Upstream.BaseURL, cfg.Upstream.ClientTimeout, logger)
	state := clientstate.NewStore(rdb, logger)
	carts := cart.NewService(client, logger)

	registry := transport.NewSessionRegistry(sessionTTL)
	registry.StartJanitor(ctx, 5*time.Minute)

	// Initialize handlers
	listingHandler := transport.NewListingHandler(registry, client, currencies, cfg.Listing.PageSize, logger)
	currencyHandler := transport.NewCurrencyHandler(currencies, state, logger)
	catalogHandler := transport.NewCatalogHandler(client, currencies, registry, logger)
	favoritesHandler := transport.NewFavoritesHandler(state, logger)
	cartHandler := transport.NewCartHandler(carts, client, logger)
	ordersHandler := transport.NewOrdersHandler(client, logger)
	userHandler := transport.NewUserHandler(client, logger)
	adminHandler := transport.NewAdminHandler(client, logger)

	// Auth middleware verifies tokens issued by the upstream API
	authMiddleware := custommiddleware.AuthMiddleware(cfg.JWT.Secret, logger)
	adminMiddleware := custommiddleware.RequireAdmin(logger)

	// Register routes
	listingHandler.RegisterRoutes(router)
	currencyHandler.RegisterRoutes(router)
	catalogHandler.RegisterRoutes(router, authMiddleware)
	favoritesHandler.RegisterRoutes(router)
	cartHandler.RegisterRoutes(router, authMiddleware)
	ordersHandler.RegisterRoutes(router, authMiddleware)
	userHandler.RegisterRoutes(router, authMiddleware)
	adminHandler.RegisterRoutes(router, authMiddleware, adminMiddleware)

	server := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config: cfg,
		logger: logger,
		redis:  rdb,
	}

	return server
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close redis connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
