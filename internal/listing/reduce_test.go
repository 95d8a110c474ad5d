package listing

import (
	"fmt"
	"reflect"
	"sort"
	"testing"
	"time"

	"voltmart/internal/domain"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func floatPtr(v float64) *float64 { return &v }

// genProducts generates snapshots whose fields cover every reduction stage.
func genProducts() gopter.Gen {
	return gen.SliceOf(gen.Struct(reflect.TypeOf(domain.Product{}), map[string]gopter.Gen{
		"ID":       gen.Int64Range(1, 10_000),
		"Name":     gen.RegexMatch(`[A-Za-z0-9 ]{1,30}`),
		"Price":    gen.Float64Range(1, 5000),
		"Category": gen.OneConstOf("laptops", "phones", "audio"),
		"Brand":    gen.OneConstOf("Sony", "Asus", "Dell", "Apple", ""),
	}))
}

func TestProperty_ReduceReturnsSubset(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("every reduced product comes from the input snapshot", prop.ForAll(
		func(products []domain.Product, minPrice float64, maxPrice float64) bool {
			f := NewFilterState("laptops")
			lo, hi := minPrice, maxPrice
			if lo > hi {
				lo, hi = hi, lo
			}
			if err := f.SetPriceBounds(&lo, &hi); err != nil {
				t.Logf("FAIL: unexpected bounds error: %v", err)
				return false
			}

			out := Reduce(products, f)
			if len(out) > len(products) {
				t.Logf("FAIL: output larger than input: %d > %d", len(out), len(products))
				return false
			}

			byID := make(map[int64]domain.Product, len(products))
			for _, p := range products {
				byID[p.ID] = p
			}
			for _, p := range out {
				if _, ok := byID[p.ID]; !ok {
					t.Logf("FAIL: product %d not present in input", p.ID)
					return false
				}
			}
			return true
		},
		genProducts(),
		gen.Float64Range(0, 2500),  // one price bound
		gen.Float64Range(0, 2500),  // the other price bound
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestProperty_ReduceHonorsEveryPredicate(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("every surviving product satisfies the active filter", prop.ForAll(
		func(products []domain.Product, minRating float64) bool {
			f := NewFilterState("phones")
			f.SetBrands([]string{"sony", "DELL"})
			f.MinRating = floatPtr(minRating)

			for _, p := range Reduce(products, f) {
				if p.Category != "phones" {
					t.Logf("FAIL: category leak: %q", p.Category)
					return false
				}
				if !f.HasBrand(p.Brand) {
					t.Logf("FAIL: brand leak: %q", p.Brand)
					return false
				}
				if p.EffectiveRating() < minRating {
					t.Logf("FAIL: rating leak: %f < %f", p.EffectiveRating(), minRating)
					return false
				}
			}
			return true
		},
		genProducts(),
		gen.Float64Range(0, 5), // minimum rating
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestProperty_ReduceIsIdempotent(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("reducing an already reduced list changes nothing", prop.ForAll(
		func(products []domain.Product) bool {
			f := NewFilterState(All)
			f.Sort = SortPriceLow

			once := Reduce(products, f)
			twice := Reduce(once, f)
			if len(once) != len(twice) {
				t.Logf("FAIL: length changed: %d vs %d", len(once), len(twice))
				return false
			}
			for i := range once {
				if once[i].ID != twice[i].ID {
					t.Logf("FAIL: order changed at %d", i)
					return false
				}
			}
			return true
		},
		genProducts(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestReduceSortOrders(t *testing.T) {
	now := time.Now()
	older := now.Add(-48 * time.Hour)

	products := []domain.Product{
		{ID: 3, Name: "beta", Price: 30, Rating: floatPtr(2), CreatedAt: &older},
		{ID: 1, Name: "Alpha", Price: 10, AverageRating: floatPtr(4.5), CreatedAt: &now},
		{ID: 2, Name: "gamma", Price: 20},
	}

	tests := []struct {
		sort SortKey
		want []int64
	}{
		{SortDefault, []int64{1, 2, 3}},
		{SortPriceLow, []int64{1, 2, 3}},
		{SortPriceHigh, []int64{3, 2, 1}},
		{SortNameAsc, []int64{1, 3, 2}},
		{SortNameDesc, []int64{2, 3, 1}},
		{SortRatingHigh, []int64{1, 3, 2}},
		{SortRatingLow, []int64{2, 3, 1}},
		{SortNewest, []int64{1, 3, 2}},
		{SortOldest, []int64{3, 1, 2}},
	}

	for _, tt := range tests {
		t.Run(string(tt.sort), func(t *testing.T) {
			f := NewFilterState(All)
			f.Sort = tt.sort

			out := Reduce(products, f)
			if len(out) != len(tt.want) {
				t.Fatalf("expected %d products, got %d", len(tt.want), len(out))
			}
			for i, id := range tt.want {
				if out[i].ID != id {
					t.Errorf("position %d: expected id %d, got %d", i, id, out[i].ID)
				}
			}
		})
	}
}

func TestReduceMissingTimestampsKeepSnapshotOrder(t *testing.T) {
	products := []domain.Product{
		{ID: 9, Name: "first"},
		{ID: 4, Name: "second"},
		{ID: 7, Name: "third"},
	}

	f := NewFilterState(All)
	f.Sort = SortNewest

	out := Reduce(products, f)
	for i, want := range []int64{9, 4, 7} {
		if out[i].ID != want {
			t.Fatalf("position %d: expected id %d, got %d", i, want, out[i].ID)
		}
	}
}

func TestReduceEmptyFilterKeepsEverything(t *testing.T) {
	products := make([]domain.Product, 10)
	for i := range products {
		products[i] = domain.Product{ID: int64(10 - i), Name: fmt.Sprintf("p%d", i), Price: float64(i)}
	}

	out := Reduce(products, NewFilterState(All))
	if len(out) != len(products) {
		t.Fatalf("expected %d products, got %d", len(products), len(out))
	}
	if !sort.SliceIsSorted(out, func(i, j int) bool { return out[i].ID < out[j].ID }) {
		t.Error("default sort should order by ascending id")
	}
}

func TestReducePriceBoundsAreInclusive(t *testing.T) {
	products := []domain.Product{
		{ID: 1, Price: 99.99},
		{ID: 2, Price: 100},
		{ID: 3, Price: 200},
		{ID: 4, Price: 200.01},
	}

	f := NewFilterState(All)
	if err := f.SetPriceBounds(floatPtr(100), floatPtr(200)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := Reduce(products, f)
	if len(out) != 2 {
		t.Fatalf("expected 2 products, got %d", len(out))
	}
	if out[0].ID != 2 || out[1].ID != 3 {
		t.Errorf("expected boundary products 2 and 3, got %d and %d", out[0].ID, out[1].ID)
	}
}
