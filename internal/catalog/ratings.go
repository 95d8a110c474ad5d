package catalog

import (
	"context"
	"fmt"
	"net/http"

	"voltmart/internal/domain"
)

type ratingRequest struct {
	ProductID int64 `json:"productId"`
	Rating    int   `json:"rating"`
}

type ratingResponse struct {
	ID        int64 `json:"id"`
	ProductID int64 `json:"productId"`
	UserID    int64 `json:"userId"`
	Value     int   `json:"value"`
}

// SubmitRating records a star rating and then re-fetches the product's
// aggregate. The submit response echoes a value, but the server-computed
// average is treated as authoritative, so the aggregate read happens after
// every write.
func (c *Client) SubmitRating(ctx context.Context, productID int64, rating int) (*domain.RatingSummary, error) {
	if productID <= 0 {
		return nil, ErrInvalidID
	}
	if rating < 1 || rating > 5 {
		return nil, fmt.Errorf("%w: rating must be between 1 and 5", ErrBadRequest)
	}

	var resp ratingResponse
	if err := c.do(ctx, http.MethodPost, "/rating", ratingRequest{ProductID: productID, Rating: rating}, &resp); err != nil {
		return nil, fmt.Errorf("failed to submit rating for product %d: %w", productID, err)
	}

	summary, err := c.AverageRating(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("rating saved but aggregate re-fetch failed for product %d: %w", productID, err)
	}
	return summary, nil
}

// AverageRating fetches the authoritative rating aggregate for a product.
func (c *Client) AverageRating(ctx context.Context, productID int64) (*domain.RatingSummary, error) {
	if productID <= 0 {
		return nil, ErrInvalidID
	}
	var summary domain.RatingSummary
	path := fmt.Sprintf("/rating/average/%d", productID)
	if err := c.do(ctx, http.MethodGet, path, nil, &summary); err != nil {
		return nil, fmt.Errorf("failed to fetch rating aggregate for product %d: %w", productID, err)
	}
	summary.ProductID = productID
	return &summary, nil
}

// ReviewsByProduct lists the review comments on a product.
func (c *Client) ReviewsByProduct(ctx context.Context, productID int64) ([]domain.Review, error) {
	if productID <= 0 {
		return nil, ErrInvalidID
	}
	var reviews []domain.Review
	path := fmt.Sprintf("/comments/product/%d", productID)
	if err := c.do(ctx, http.MethodGet, path, nil, &reviews); err != nil {
		return nil, fmt.Errorf("failed to list reviews for product %d: %w", productID, err)
	}
	if reviews == nil {
		reviews = []domain.Review{}
	}
	return reviews, nil
}

// PostReview submits a review comment.
func (c *Client) PostReview(ctx context.Context, review *domain.Review) (*domain.Review, error) {
	if review == nil || review.ProductID <= 0 || review.Content == "" {
		return nil, fmt.Errorf("%w: review requires a product and content", ErrBadRequest)
	}
	var created domain.Review
	if err := c.do(ctx, http.MethodPost, "/comments", review, &created); err != nil {
		return nil, fmt.Errorf("failed to post review: %w", err)
	}
	return &created, nil
}

type clickRequest struct {
	ProductID   int64  `json:"productId"`
	UserID      int64  `json:"userId"`
	SubCategory string `json:"subCategory,omitempty"`
}

// TrackClick records a product click for the recommendation engine. Clicks
// are best-effort; callers usually log and drop the error.
func (c *Client) TrackClick(ctx context.Context, productID, userID int64, subCategory string) error {
	if productID <= 0 || userID <= 0 {
		return ErrInvalidID
	}
	req := clickRequest{ProductID: productID, UserID: userID, SubCategory: subCategory}
	if err := c.do(ctx, http.MethodPost, "/click", req, nil); err != nil {
		return fmt.Errorf("failed to track click on product %d: %w", productID, err)
	}
	return nil
}

// Recommendations lists products the upstream recommends for a user, based
// on accumulated click statistics.
func (c *Client) Recommendations(ctx context.Context, userID int64, limit int) ([]domain.Product, error) {
	if userID <= 0 {
		return nil, ErrInvalidID
	}
	if limit <= 0 {
		limit = 20
	}
	var products []domain.Product
	path := fmt.Sprintf("/click/recommendations/%d?limit=%d", userID, limit)
	if err := c.do(ctx, http.MethodGet, path, nil, &products); err != nil {
		return nil, fmt.Errorf("failed to fetch recommendations for user %d: %w", userID, err)
	}
	return normalizeAll(products), nil
}
