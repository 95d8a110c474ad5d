package listing

import (
	"errors"
	"sort"
	"strings"
)

var ErrInvalidPriceRange = errors.New("invalid price range")

// SortKey selects the ordering applied as the final reduction stage.
type SortKey string

const (
	SortDefault    SortKey = "default"
	SortPriceLow   SortKey = "price-low"
	SortPriceHigh  SortKey = "price-high"
	SortNameAsc    SortKey = "name-asc"
	SortNameDesc   SortKey = "name-desc"
	SortRatingHigh SortKey = "rating-high"
	SortRatingLow  SortKey = "rating-low"
	SortNewest     SortKey = "newest"
	SortOldest     SortKey = "oldest"
)

// ParseSortKey maps a raw string to a known sort key. Anything outside the
// known set behaves as the default ordering.
func ParseSortKey(raw string) SortKey {
	switch k := SortKey(strings.TrimSpace(raw)); k {
	case SortPriceLow, SortPriceHigh, SortNameAsc, SortNameDesc,
		SortRatingHigh, SortRatingLow, SortNewest, SortOldest:
		return k
	default:
		return SortDefault
	}
}

// All matches every value of a facet.
const All = "all"

// FilterState is the selection a listing page reduces its product snapshot
// with. Price bounds are kept in the reference currency regardless of the
// display currency the user typed them in. Brand membership is
// case-insensitive and trimmed.
//
// The top bar and the side panel both write the price bounds; they are the
// same logical field and the last writer wins.
type FilterState struct {
	Sort        SortKey
	Category    string
	SubCategory string
	MinPrice    *float64
	MaxPrice    *float64
	MinRating   *float64

	brands map[string]struct{}
}

// NewFilterState creates a cleared filter scoped to a category.
func NewFilterState(category string) *FilterState {
	return &FilterState{
		Sort:        SortDefault,
		Category:    category,
		SubCategory: All,
		brands:      make(map[string]struct{}),
	}
}

// SetCategory navigates to another category: the sub-category selection
// resets to "all" and the brand selection is cleared, since brands are
// scoped to the active category.
func (f *FilterState) SetCategory(category string) {
	f.Category = category
	f.SubCategory = All
	f.brands = make(map[string]struct{})
}

// SetPriceBounds validates and installs reference-currency price bounds.
// Nil clears a bound. Invalid input is rejected before any mutation.
func (f *FilterState) SetPriceBounds(min, max *float64) error {
	if min != nil && *min < 0 {
		return ErrInvalidPriceRange
	}
	if max != nil && *max < 0 {
		return ErrInvalidPriceRange
	}
	if min != nil && max != nil && *min > *max {
		return ErrInvalidPriceRange
	}
	f.MinPrice = min
	f.MaxPrice = max
	return nil
}

// SetBrands replaces the brand selection. Names are trimmed and compared
// case-insensitively; duplicates collapse. An empty selection means no brand
// filtering, not "match nothing".
func (f *FilterState) SetBrands(brands []string) {
	next := make(map[string]struct{}, len(brands))
	for _, b := range brands {
		if key := normalizeBrand(b); key != "" {
			next[key] = struct{}{}
		}
	}
	f.brands = next
}

// ToggleBrand adds or removes a single brand from the selection.
func (f *FilterState) ToggleBrand(brand string) {
	key := normalizeBrand(brand)
	if key == "" {
		return
	}
	if _, ok := f.brands[key]; ok {
		delete(f.brands, key)
	} else {
		f.brands[key] = struct{}{}
	}
}

// ClearBrands deselects every brand.
func (f *FilterState) ClearBrands() {
	f.brands = make(map[string]struct{})
}

// HasBrand reports membership for a product brand.
func (f *FilterState) HasBrand(brand string) bool {
	_, ok := f.brands[normalizeBrand(brand)]
	return ok
}

// BrandCount is the number of distinct selected brands.
func (f *FilterState) BrandCount() int {
	return len(f.brands)
}

// SelectedBrands returns the normalized selection, sorted for stable output.
func (f *FilterState) SelectedBrands() []string {
	out := make([]string, 0, len(f.brands))
	for b := range f.brands {
		out = append(out, b)
	}
	sort.Strings(out)
	return out
}

// Reset clears everything except the category scope.
func (f *FilterState) Reset() {
	f.Sort = SortDefault
	f.SubCategory = All
	f.MinPrice = nil
	f.MaxPrice = nil
	f.MinRating = nil
	f.brands = make(map[string]struct{})
}

// Active reports whether any facet deviates from the cleared state.
func (f *FilterState) Active() bool {
	return f.Sort != SortDefault ||
		f.SubCategory != All ||
		f.MinPrice != nil ||
		f.MaxPrice != nil ||
		f.MinRating != nil ||
		len(f.brands) > 0
}

func normalizeBrand(b string) string {
	return strings.ToLower(strings.TrimSpace(b))
}
