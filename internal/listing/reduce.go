package listing

import (
	"sort"
	"strings"

	"voltmart/internal/domain"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Reduce narrows and orders a category's product snapshot according to the
// filter state. Stages run in a fixed order: category, sub-category, price
// bounds (reference currency), brand membership, minimum rating, and finally
// the sort. The output is always a subset of the input; items are never
// copied or fabricated.
func Reduce(products []domain.Product, f *FilterState) []domain.Product {
	if len(products) == 0 {
		return []domain.Product{}
	}

	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if !matches(&p, f) {
			continue
		}
		out = append(out, p)
	}

	sortProducts(out, f.Sort)
	return out
}

func matches(p *domain.Product, f *FilterState) bool {
	if f.Category != All && !equalFold(p.Category, f.Category) {
		return false
	}
	if f.SubCategory != All && !equalFold(p.SubCategory, f.SubCategory) {
		return false
	}
	if f.MinPrice != nil && p.Price < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && p.Price > *f.MaxPrice {
		return false
	}
	if f.BrandCount() > 0 && !f.HasBrand(p.Brand) {
		return false
	}
	if f.MinRating != nil && p.EffectiveRating() < *f.MinRating {
		return false
	}
	return true
}

func equalFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// sortProducts orders in place, stably, so equal elements keep the order the
// upstream snapshot delivered them in.
func sortProducts(products []domain.Product, key SortKey) {
	switch key {
	case SortPriceLow:
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].Price < products[j].Price
		})
	case SortPriceHigh:
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].Price > products[j].Price
		})
	case SortNameAsc:
		c := collate.New(language.English, collate.IgnoreCase)
		sort.SliceStable(products, func(i, j int) bool {
			return c.CompareString(products[i].Name, products[j].Name) < 0
		})
	case SortNameDesc:
		c := collate.New(language.English, collate.IgnoreCase)
		sort.SliceStable(products, func(i, j int) bool {
			return c.CompareString(products[i].Name, products[j].Name) > 0
		})
	case SortRatingHigh:
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].EffectiveRating() > products[j].EffectiveRating()
		})
	case SortRatingLow:
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].EffectiveRating() < products[j].EffectiveRating()
		})
	case SortNewest:
		sort.SliceStable(products, func(i, j int) bool {
			// Missing timestamps compare equal, preserving snapshot order
			if products[i].CreatedAt == nil || products[j].CreatedAt == nil {
				return false
			}
			return products[i].CreatedAt.After(*products[j].CreatedAt)
		})
	case SortOldest:
		sort.SliceStable(products, func(i, j int) bool {
			if products[i].CreatedAt == nil || products[j].CreatedAt == nil {
				return false
			}
			return products[i].CreatedAt.Before(*products[j].CreatedAt)
		})
	default:
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].ID < products[j].ID
		})
	}
}
