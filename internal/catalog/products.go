package catalog

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"voltmart/internal/domain"
)

// Products fetches the full catalog.
func (c *Client) Products(ctx context.Context) ([]domain.Product, error) {
	var products []domain.Product
	if err := c.do(ctx, http.MethodGet, "/products", nil, &products); err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return normalizeAll(products), nil
}

// ProductByID fetches a single product and normalizes its optional fields.
func (c *Client) ProductByID(ctx context.Context, id int64) (*domain.Product, error) {
	if id <= 0 {
		return nil, ErrInvalidID
	}
	var product domain.Product
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/products/%d", id), nil, &product); err != nil {
		return nil, fmt.Errorf("failed to fetch product %d: %w", id, err)
	}
	normalize(&product)
	return &product, nil
}

// ProductsByCategory fetches the read-only snapshot a listing page reduces.
func (c *Client) ProductsByCategory(ctx context.Context, category string) ([]domain.Product, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, ErrEmptyCategory
	}
	var products []domain.Product
	path := "/products/by-category/" + url.PathEscape(category)
	if err := c.do(ctx, http.MethodGet, path, nil, &products); err != nil {
		return nil, fmt.Errorf("failed to list products for category %q: %w", category, err)
	}
	return normalizeAll(products), nil
}

// BrandsByCategory fetches the brand names available within a category.
func (c *Client) BrandsByCategory(ctx context.Context, category string) ([]string, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, ErrEmptyCategory
	}
	var brands []string
	path := "/products/brands/by-category/" + url.PathEscape(category)
	if err := c.do(ctx, http.MethodGet, path, nil, &brands); err != nil {
		return nil, fmt.Errorf("failed to list brands for category %q: %w", category, err)
	}
	if brands == nil {
		brands = []string{}
	}
	return brands, nil
}

// SearchProducts queries the upstream name search. An empty query returns an
// empty result without a request, matching the suggestion-box behavior where
// clearing the input clears the results. Limit defaults to 6 suggestions.
func (c *Client) SearchProducts(ctx context.Context, query string, limit int) ([]domain.Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.Product{}, nil
	}
	if limit <= 0 {
		limit = 6
	}
	var products []domain.Product
	path := fmt.Sprintf("/Search?query=%s&limit=%d", url.QueryEscape(query), limit)
	if err := c.do(ctx, http.MethodGet, path, nil, &products); err != nil {
		return nil, fmt.Errorf("failed to search products for %q: %w", query, err)
	}
	return normalizeAll(products), nil
}

// NewlyAdded fetches recently created products for the home-page carousel.
func (c *Client) NewlyAdded(ctx context.Context, maxProducts, daysBack int) ([]domain.Product, error) {
	if maxProducts <= 0 {
		return nil, fmt.Errorf("%w: maxProducts must be positive", ErrBadRequest)
	}
	if daysBack <= 0 {
		return nil, fmt.Errorf("%w: daysBack must be positive", ErrBadRequest)
	}
	var products []domain.Product
	path := fmt.Sprintf("/products/newly-added?maxProducts=%d&daysBack=%d", maxProducts, daysBack)
	if err := c.do(ctx, http.MethodGet, path, nil, &products); err != nil {
		return nil, fmt.Errorf("failed to list newly added products: %w", err)
	}
	return normalizeAll(products), nil
}

// CreateProduct adds a catalog entry through the admin API. The category is
// lower-cased and trimmed so listing-side comparisons stay consistent.
func (c *Client) CreateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	if product == nil || product.Name == "" || product.Price <= 0 || product.Category == "" {
		return nil, fmt.Errorf("%w: missing required product fields", ErrBadRequest)
	}
	payload := *product
	payload.Category = strings.ToLower(strings.TrimSpace(payload.Category))
	if payload.Images == nil {
		payload.Images = []string{}
	}

	var created domain.Product
	if err := c.do(ctx, http.MethodPost, "/products", payload, &created); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	normalize(&created)
	return &created, nil
}

// UpdateProduct replaces a catalog entry.
func (c *Client) UpdateProduct(ctx context.Context, id int64, product *domain.Product) (*domain.Product, error) {
	if id <= 0 {
		return nil, ErrInvalidID
	}
	if product == nil {
		return nil, fmt.Errorf("%w: product data is required", ErrBadRequest)
	}
	payload := *product
	payload.ID = id
	payload.Category = strings.ToLower(strings.TrimSpace(payload.Category))
	if payload.Images == nil {
		payload.Images = []string{}
	}

	var updated domain.Product
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/products/%d", id), payload, &updated); err != nil {
		return nil, fmt.Errorf("failed to update product %d: %w", id, err)
	}
	normalize(&updated)
	return &updated, nil
}

// BulkUpdateProducts updates several catalog entries in one call.
func (c *Client) BulkUpdateProducts(ctx context.Context, products []domain.Product) error {
	if len(products) == 0 {
		return fmt.Errorf("%w: products are required", ErrBadRequest)
	}
	if err := c.do(ctx, http.MethodPut, "/products/bulk-update", products, nil); err != nil {
		return fmt.Errorf("failed to bulk update products: %w", err)
	}
	return nil
}

// ApplyDiscount sets a product discount. The percentage is validated before
// anything is sent; the upstream discountedPrice stays the price source of
// truth.
func (c *Client) ApplyDiscount(ctx context.Context, id int64, percentage float64) error {
	if id <= 0 {
		return ErrInvalidID
	}
	if percentage < 1 || percentage > 100 {
		return ErrInvalidDiscount
	}
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/products/%d/discount", id), percentage, nil); err != nil {
		return fmt.Errorf("failed to apply discount to product %d: %w", id, err)
	}
	return nil
}

// RemoveDiscount clears a product discount.
func (c *Client) RemoveDiscount(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrInvalidID
	}
	if err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/products/%d/discount", id), nil, nil); err != nil {
		return fmt.Errorf("failed to remove discount from product %d: %w", id, err)
	}
	return nil
}

// DeleteProduct removes a catalog entry.
func (c *Client) DeleteProduct(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrInvalidID
	}
	if err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/products/%d", id), nil, nil); err != nil {
		return fmt.Errorf("failed to delete product %d: %w", id, err)
	}
	return nil
}

// normalize fills the optional fields listing logic relies on: images are
// never nil and the aggregate rating falls back to the legacy field.
func normalize(p *domain.Product) {
	if p.Images == nil {
		p.Images = []string{}
	}
	if p.AverageRating == nil && p.Rating != nil {
		r := *p.Rating
		p.AverageRating = &r
	}
}

func normalizeAll(products []domain.Product) []domain.Product {
	if products == nil {
		return []domain.Product{}
	}
	for i := range products {
		normalize(&products[i])
	}
	return products
}
