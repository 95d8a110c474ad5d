package listing

import (
	"context"
	"fmt"
	"sync"

	"voltmart/internal/currency"
	"voltmart/internal/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// ProductSource supplies category snapshots and category-scoped brand lists,
// normally backed by the upstream catalog API.
type ProductSource interface {
	ProductsByCategory(ctx context.Context, category string) ([]domain.Product, error)
	BrandsByCategory(ctx context.Context, category string) ([]string, error)
}

// TopFilter is a partial update from the top-bar controls. Nil Sort,
// SubCategory, and MinRating leave the current selection untouched. The
// price bounds are replaced as a pair whenever either bound (or ClearPrice)
// is present; they arrive in the display currency.
type TopFilter struct {
	Sort        *string
	SubCategory *string
	MinPrice    *float64
	MaxPrice    *float64
	MinRating   *float64
	ClearPrice  bool
}

// SideFilter is a partial update from the side panel: price bounds in the
// display currency plus the brand multi-select. The price bounds are the
// same logical field the top bar writes; whichever update arrives last wins.
type SideFilter struct {
	MinPrice *float64
	MaxPrice *float64
	Brands   []string
}

// View is everything a listing page renders for its current state.
type View struct {
	SessionID       string            `json:"sessionId"`
	Category        string            `json:"category"`
	SubCategory     string            `json:"subCategory"`
	Sort            SortKey           `json:"sort"`
	Brands          []string          `json:"availableBrands"`
	SelectedBrands  []string          `json:"selectedBrands"`
	MinRating       *float64          `json:"minRating,omitempty"`
	DisplayCurrency currency.Currency `json:"displayCurrency"`
	DisplayMinPrice *float64          `json:"minPrice,omitempty"`
	DisplayMaxPrice *float64          `json:"maxPrice,omitempty"`
	TotalProducts   int               `json:"totalProducts"`
	FilteredCount   int               `json:"filteredCount"`
	Page            Page              `json:"page"`
}

// Session owns the client state of one listing page: the fetched product
// snapshot, the filter state, pagination, and the display-currency view of
// the price bounds. It subscribes to the currency store so entered bounds
// follow currency switches, and guards brand fetches with a request
// generation so a stale response for a previous category is discarded.
type Session struct {
	mu          sync.Mutex
	id          string
	source      ProductSource
	currencies  *currency.Store
	unsubscribe func()
	logger      *zap.Logger
	pageSize    int

	category      string
	products      []domain.Product
	brands        []string
	brandsLoading bool
	filter        *FilterState
	page          int
	generation    uint64

	// single in-flight guard for page transitions
	transitioning bool

	displayCode string
	displayMin  *float64
	displayMax  *float64
}

// NewSession creates a listing session and registers it with the currency
// store. Callers must Close the session so the subscription is released.
func NewSession(source ProductSource, currencies *currency.Store, pageSize int, logger *zap.Logger) *Session {
	s := &Session{
		id:          uuid.NewString(),
		source:      source,
		currencies:  currencies,
		logger:      logger,
		pageSize:    pageSize,
		filter:      NewFilterState(All),
		page:        1,
		displayCode: currencies.Active().Code,
	}
	s.unsubscribe = currencies.Subscribe(s.onCurrencyChange)
	return s
}

// ID returns the session identifier handed to the client.
func (s *Session) ID() string {
	return s.id
}

// Close releases the currency subscription.
func (s *Session) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
}

// SelectCategory navigates to a category: the product snapshot is re-fetched,
// sub-category and brand selections reset, and the category's brand list is
// loaded in the background. A fetch failure resets the snapshot to empty and
// surfaces the error; the session stays usable.
func (s *Session) SelectCategory(ctx context.Context, category string) error {
	products, err := s.source.ProductsByCategory(ctx, category)

	s.mu.Lock()
	s.category = category
	s.filter.SetCategory(category)
	s.page = 1
	s.generation++
	gen := s.generation
	s.brands = nil
	s.brandsLoading = true
	if err != nil {
		s.products = nil
		s.brandsLoading = false
		s.mu.Unlock()
		return fmt.Errorf("failed to load products for category %q: %w", category, err)
	}
	s.products = products
	s.mu.Unlock()

	// Brand list loads without blocking the listing; the generation check
	// discards the result if the user navigated away meanwhile.
	go s.loadBrands(context.WithoutCancel(ctx), category, gen)
	return nil
}

func (s *Session) loadBrands(ctx context.Context, category string, gen uint64) {
	brands, err := s.source.BrandsByCategory(ctx, category)

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		s.logger.Debug("Discarding stale brand response",
			zap.String("category", category),
			zap.Uint64("generation", gen),
		)
		return
	}
	s.brandsLoading = false
	if err != nil {
		s.logger.Warn("Brand fetch failed", zap.String("category", category), zap.Error(err))
		s.brands = deriveBrands(s.products)
		return
	}
	s.brands = brands
}

// ApplyTopFilter merges a top-bar update into the filter state and resets to
// the first page. Price bounds are converted from the display currency into
// the reference currency before they take effect.
func (s *Session) ApplyTopFilter(f TopFilter) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if f.Sort != nil {
		s.filter.Sort = ParseSortKey(*f.Sort)
	}
	if f.SubCategory != nil {
		s.filter.SubCategory = *f.SubCategory
	}
	if f.MinRating != nil {
		s.filter.MinRating = f.MinRating
	}
	if f.ClearPrice {
		s.filter.MinPrice, s.filter.MaxPrice = nil, nil
		s.displayMin, s.displayMax = nil, nil
	} else if f.MinPrice != nil || f.MaxPrice != nil {
		if err := s.setDisplayBoundsLocked(f.MinPrice, f.MaxPrice); err != nil {
			return err
		}
	}
	s.page = 1
	return nil
}

// ApplySideFilter merges a side-panel update: price bounds (last writer
// wins over the top bar) and the brand selection.
func (s *Session) ApplySideFilter(f SideFilter) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.setDisplayBoundsLocked(f.MinPrice, f.MaxPrice); err != nil {
		return err
	}
	s.filter.SetBrands(f.Brands)
	s.page = 1
	return nil
}

// setDisplayBoundsLocked validates display-currency bounds and installs both
// the display view and the reference-currency filter semantics.
func (s *Session) setDisplayBoundsLocked(min, max *float64) error {
	ref := s.currencies.Reference()

	var refMin, refMax *float64
	if min != nil {
		v := currency.Round2(s.currencies.Convert(*min, s.displayCode, ref))
		refMin = &v
	}
	if max != nil {
		v := currency.Round2(s.currencies.Convert(*max, s.displayCode, ref))
		refMax = &v
	}
	if err := s.filter.SetPriceBounds(refMin, refMax); err != nil {
		return err
	}
	s.displayMin = min
	s.displayMax = max
	return nil
}

// onCurrencyChange re-expresses the entered bounds in the new display
// currency by converting the authoritative reference-currency bounds,
// rounded to two decimals. Filter semantics do not move.
func (s *Session) onCurrencyChange(c currency.Currency) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ref := s.currencies.Reference()
	s.displayCode = c.Code
	if s.filter.MinPrice != nil {
		v := currency.Round2(s.currencies.Convert(*s.filter.MinPrice, ref, c.Code))
		s.displayMin = &v
	}
	if s.filter.MaxPrice != nil {
		v := currency.Round2(s.currencies.Convert(*s.filter.MaxPrice, ref, c.Code))
		s.displayMax = &v
	}
}

// ClearFilters resets every facet and returns to the first page.
func (s *Session) ClearFilters() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.filter.Reset()
	s.displayMin, s.displayMax = nil, nil
	s.page = 1
}

// ClearSideFilters resets only the side panel: price bounds and brands.
func (s *Session) ClearSideFilters() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.filter.MinPrice, s.filter.MaxPrice = nil, nil
	s.filter.ClearBrands()
	s.displayMin, s.displayMax = nil, nil
	s.page = 1
}

// View reduces the snapshot with the current filter and paginates it.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

func (s *Session) viewLocked() View {
	reduced := Reduce(s.products, s.filter)
	page := Paginate(reduced, s.page, s.pageSize)
	s.page = page.Number

	brands := s.brands
	if brands == nil && !s.brandsLoading {
		brands = deriveBrands(s.products)
	}

	return View{
		SessionID:       s.id,
		Category:        s.category,
		SubCategory:     s.filter.SubCategory,
		Sort:            s.filter.Sort,
		Brands:          brands,
		SelectedBrands:  s.filter.SelectedBrands(),
		MinRating:       s.filter.MinRating,
		DisplayCurrency: s.currencies.Active(),
		DisplayMinPrice: s.displayMin,
		DisplayMaxPrice: s.displayMax,
		TotalProducts:   len(s.products),
		FilteredCount:   len(reduced),
		Page:            page,
	}
}

// GoToPage moves to a page. It is a no-op when the target is outside
// [1, totalPages], already current, or while a previous transition is still
// in flight; FinishTransition releases the guard once the view has been
// rendered.
func (s *Session) GoToPage(target int) (View, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reduced := Reduce(s.products, s.filter)
	totalPages := Paginate(reduced, 1, s.pageSize).TotalPages

	if s.transitioning || target < 1 || target > totalPages || target == s.page {
		return s.viewLocked(), false
	}

	s.transitioning = true
	s.page = target
	return s.viewLocked(), true
}

// NextPage advances one page when possible.
func (s *Session) NextPage() (View, bool) {
	s.mu.Lock()
	target := s.page + 1
	s.mu.Unlock()
	return s.GoToPage(target)
}

// PrevPage steps back one page when possible.
func (s *Session) PrevPage() (View, bool) {
	s.mu.Lock()
	target := s.page - 1
	s.mu.Unlock()
	return s.GoToPage(target)
}

// FirstPage jumps to page one.
func (s *Session) FirstPage() (View, bool) {
	return s.GoToPage(1)
}

// LastPage jumps to the final page of the current reduction.
func (s *Session) LastPage() (View, bool) {
	s.mu.Lock()
	reduced := Reduce(s.products, s.filter)
	target := Paginate(reduced, 1, s.pageSize).TotalPages
	s.mu.Unlock()
	return s.GoToPage(target)
}

// FinishTransition releases the navigation guard.
func (s *Session) FinishTransition() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transitioning = false
}

// ApplyRatingUpdate patches the snapshot copy of a product after a rating
// write so the listing reflects the authoritative aggregate without a full
// category re-fetch.
func (s *Session) ApplyRatingUpdate(productID int64, summary domain.RatingSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.products {
		if s.products[i].ID == productID {
			avg := summary.AverageRating
			s.products[i].AverageRating = &avg
			s.products[i].RatingCount = summary.RatingCount
			return
		}
	}
}

// deriveBrands extracts the distinct trimmed brands from a snapshot, used as
// fallback when the brand endpoint fails.
func deriveBrands(products []domain.Product) []string {
	seen := make(map[string]string)
	for _, p := range products {
		b := normalizeBrand(p.Brand)
		if b == "" {
			continue
		}
		if _, ok := seen[b]; !ok {
			seen[b] = p.Brand
		}
	}
	out := make([]string, 0, len(seen))
	for _, original := range seen {
		out = append(out, original)
	}
	sortBrands(out)
	return out
}

func sortBrands(brands []string) {
	c := collate.New(language.English, collate.IgnoreCase)
	c.SortStrings(brands)
}
