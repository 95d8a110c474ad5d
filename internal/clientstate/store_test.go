package clientstate

import (
	"context"
	"testing"

	"voltmart/internal/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewStore(rdb, zap.NewNop()), mr
}

func TestActiveCurrencyRoundTrip(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	code, err := store.ActiveCurrency(ctx, "client-1")
	require.NoError(t, err)
	assert.Empty(t, code, "no selection before the first switch")

	require.NoError(t, store.SetActiveCurrency(ctx, "client-1", "EUR"))

	code, err = store.ActiveCurrency(ctx, "client-1")
	require.NoError(t, err)
	assert.Equal(t, "EUR", code)

	// Another client's selection is independent.
	code, err = store.ActiveCurrency(ctx, "client-2")
	require.NoError(t, err)
	assert.Empty(t, code)
}

func TestFavoritesAddAndRemove(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	changed, err := store.AddFavorite(ctx, "client-1", domain.Product{ID: 1, Name: "Laptop"})
	require.NoError(t, err)
	assert.True(t, changed, "first add changes the list")

	// Duplicate adds are no-ops.
	changed, err = store.AddFavorite(ctx, "client-1", domain.Product{ID: 1, Name: "Laptop"})
	require.NoError(t, err)
	assert.False(t, changed, "duplicate add leaves the list unchanged")

	favorites, err := store.Favorites(ctx, "client-1")
	require.NoError(t, err)
	require.Len(t, favorites, 1)
	assert.Equal(t, "Laptop", favorites[0].Name)

	require.NoError(t, store.RemoveFavorite(ctx, "client-1", 1))
	// Removing an absent product succeeds.
	require.NoError(t, store.RemoveFavorite(ctx, "client-1", 99))

	favorites, err = store.Favorites(ctx, "client-1")
	require.NoError(t, err)
	assert.Empty(t, favorites)
}

func TestToggleFavorite(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	product := domain.Product{ID: 7, Name: "Phone"}

	fav, err := store.ToggleFavorite(ctx, "client-1", product)
	require.NoError(t, err)
	assert.True(t, fav, "first toggle favorites the product")

	fav, err = store.ToggleFavorite(ctx, "client-1", product)
	require.NoError(t, err)
	assert.False(t, fav, "second toggle unfavorites it")

	isFav, err := store.IsFavorite(ctx, "client-1", 7)
	require.NoError(t, err)
	assert.False(t, isFav)
}

func TestCorruptFavoritesTreatedAsEmpty(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	mr.Set("clientstate:favorites:client-1", "{not json")

	favorites, err := store.Favorites(ctx, "client-1")
	require.NoError(t, err, "corrupt entry must not fail")
	assert.Empty(t, favorites)

	// A subsequent add overwrites the corrupt entry.
	_, err = store.AddFavorite(ctx, "client-1", domain.Product{ID: 2})
	require.NoError(t, err)

	favorites, err = store.Favorites(ctx, "client-1")
	require.NoError(t, err)
	require.Len(t, favorites, 1)
	assert.Equal(t, int64(2), favorites[0].ID)
}

func TestRedisOutageSurfacesError(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()
	mr.Close()

	_, err := store.ActiveCurrency(ctx, "client-1")
	assert.Error(t, err)
	_, err = store.Favorites(ctx, "client-1")
	assert.Error(t, err)
}
