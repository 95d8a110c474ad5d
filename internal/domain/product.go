package domain

import (
	"math"
	"time"
)

// Product is a read-only snapshot of a catalog product as served by the
// upstream API. Prices are always denominated in the reference currency
// (USD); presentation in other currencies is a display concern.
type Product struct {
	ID                 int64      `json:"id"`
	Name               string     `json:"name"`
	Brand              string     `json:"brand"`
	Price              float64    `json:"price"`
	DiscountedPrice    *float64   `json:"discountedPrice,omitempty"`
	DiscountPercentage *float64   `json:"discountPercentage,omitempty"`
	Category           string     `json:"category"`
	SubCategory        string     `json:"subCategory"`
	Quantity           int        `json:"quantity"`
	Warranty           string     `json:"warranty"`
	Images             []string   `json:"images"`
	CreatedAt          *time.Time `json:"createdAt,omitempty"`
	Rating             *float64   `json:"rating,omitempty"`
	AverageRating      *float64   `json:"averageRating,omitempty"`
	RatingCount        int        `json:"ratingCount"`
}

// EffectiveRating resolves the rating used for filtering and sorting:
// averageRating when present, the legacy rating field otherwise, zero when
// the product has never been rated.
func (p *Product) EffectiveRating() float64 {
	if p.AverageRating != nil {
		return *p.AverageRating
	}
	if p.Rating != nil {
		return *p.Rating
	}
	return 0
}

// DiscountActive reports whether the product carries an active discount:
// a discounted price is present and strictly below the list price.
func (p *Product) DiscountActive() bool {
	return p.DiscountedPrice != nil && *p.DiscountedPrice < p.Price
}

// EffectivePrice is the price a buyer pays: the discounted price while a
// discount is active, the list price otherwise.
func (p *Product) EffectivePrice() float64 {
	if p.DiscountActive() {
		return *p.DiscountedPrice
	}
	return p.Price
}

// DiscountPercent recomputes the discount percentage from the list and
// discounted prices. The stored DiscountPercentage field is display-only
// and never authoritative.
func (p *Product) DiscountPercent() float64 {
	if !p.DiscountActive() || p.Price == 0 {
		return 0
	}
	return math.Round((1-*p.DiscountedPrice/p.Price)*10000) / 100
}
