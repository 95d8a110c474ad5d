package clientstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"voltmart/internal/domain"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Store persists the client state the browser kept in local storage: the
// selected display currency and the favorited products, both as JSON keyed
// by client id. Corrupt entries are treated as absent instead of failing a
// page load.
type Store struct {
	rdb    *redis.Client
	logger *zap.Logger
}

func NewStore(rdb *redis.Client, logger *zap.Logger) *Store {
	return &Store{rdb: rdb, logger: logger}
}

func currencyKey(clientID string) string {
	return "clientstate:currency:" + clientID
}

func favoritesKey(clientID string) string {
	return "clientstate:favorites:" + clientID
}

// ActiveCurrency returns the persisted display-currency code, or "" when
// none was stored.
func (s *Store) ActiveCurrency(ctx context.Context, clientID string) (string, error) {
	code, err := s.rdb.Get(ctx, currencyKey(clientID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load currency selection: %w", err)
	}
	return code, nil
}

// SetActiveCurrency persists the display-currency selection.
func (s *Store) SetActiveCurrency(ctx context.Context, clientID, code string) error {
	if err := s.rdb.Set(ctx, currencyKey(clientID), code, 0).Err(); err != nil {
		return fmt.Errorf("failed to persist currency selection: %w", err)
	}
	return nil
}

// Favorites loads the favorited products. An unparseable entry is logged
// and dropped, never propagated.
func (s *Store) Favorites(ctx context.Context, clientID string) ([]domain.Product, error) {
	raw, err := s.rdb.Get(ctx, favoritesKey(clientID)).Result()
	if errors.Is(err, redis.Nil) {
		return []domain.Product{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load favorites: %w", err)
	}

	var favorites []domain.Product
	if err := json.Unmarshal([]byte(raw), &favorites); err != nil {
		s.logger.Warn("Ignoring corrupt favorites entry",
			zap.String("client_id", clientID),
			zap.Error(err),
		)
		return []domain.Product{}, nil
	}
	return favorites, nil
}

// IsFavorite reports whether a product is in the client's favorites.
func (s *Store) IsFavorite(ctx context.Context, clientID string, productID int64) (bool, error) {
	favorites, err := s.Favorites(ctx, clientID)
	if err != nil {
		return false, err
	}
	for _, f := range favorites {
		if f.ID == productID {
			return true, nil
		}
	}
	return false, nil
}

// AddFavorite appends a product to the favorites unless already present.
// It reports whether the list changed.
func (s *Store) AddFavorite(ctx context.Context, clientID string, product domain.Product) (bool, error) {
	favorites, err := s.Favorites(ctx, clientID)
	if err != nil {
		return false, err
	}
	for _, f := range favorites {
		if f.ID == product.ID {
			return false, nil
		}
	}
	favorites = append(favorites, product)
	return true, s.save(ctx, clientID, favorites)
}

// RemoveFavorite deletes a product from the favorites. Removing an absent
// product is a no-op.
func (s *Store) RemoveFavorite(ctx context.Context, clientID string, productID int64) error {
	favorites, err := s.Favorites(ctx, clientID)
	if err != nil {
		return err
	}
	kept := favorites[:0]
	for _, f := range favorites {
		if f.ID != productID {
			kept = append(kept, f)
		}
	}
	return s.save(ctx, clientID, kept)
}

// ToggleFavorite flips membership and reports whether the product is a
// favorite afterwards.
func (s *Store) ToggleFavorite(ctx context.Context, clientID string, product domain.Product) (bool, error) {
	isFav, err := s.IsFavorite(ctx, clientID, product.ID)
	if err != nil {
		return false, err
	}
	if isFav {
		return false, s.RemoveFavorite(ctx, clientID, product.ID)
	}
	_, err = s.AddFavorite(ctx, clientID, product)
	return true, err
}

func (s *Store) save(ctx context.Context, clientID string, favorites []domain.Product) error {
	payload, err := json.Marshal(favorites)
	if err != nil {
		return fmt.Errorf("failed to encode favorites: %w", err)
	}
	if err := s.rdb.Set(ctx, favoritesKey(clientID), payload, 0).Err(); err != nil {
		return fmt.Errorf("failed to persist favorites: %w", err)
	}
	return nil
}
