package analytics

import (
	"sort"
	"time"

	"voltmart/internal/domain"
)

// ProductPopularity aggregates how often a product was ordered. It backs the
// popularity chart widgets on the control panel.
type ProductPopularity struct {
	ProductID     int64     `json:"productId"`
	TotalOrders   int       `json:"totalOrders"`
	TotalQuantity int       `json:"totalQuantity"`
	LastOrderDate time.Time `json:"lastOrderDate"`
}

// CountryStat is per-country order volume with its revenue share.
type CountryStat struct {
	Country    string  `json:"country"`
	OrderCount int     `json:"orderCount"`
	Revenue    float64 `json:"totalRevenue"`
	Percentage float64 `json:"percentage"`
}

// IncomePoint is one bucket of the income trend chart.
type IncomePoint struct {
	Month   string  `json:"month"`
	Revenue float64 `json:"revenue"`
	Orders  int     `json:"orders"`
}

// Popularity rolls orders up into per-product statistics, sorted by order
// count descending. Products never ordered do not appear.
func Popularity(orders []domain.Order) []ProductPopularity {
	type acc struct {
		orders   int
		quantity int
		last     time.Time
	}
	byProduct := make(map[int64]*acc)

	for _, order := range orders {
		for _, item := range order.Items {
			a, ok := byProduct[item.ProductID]
			if !ok {
				a = &acc{}
				byProduct[item.ProductID] = a
			}
			a.orders++
			qty := item.Quantity
			if qty < 1 {
				qty = 1
			}
			a.quantity += qty
			if order.OrderDate.After(a.last) {
				a.last = order.OrderDate
			}
		}
	}

	stats := make([]ProductPopularity, 0, len(byProduct))
	for id, a := range byProduct {
		stats = append(stats, ProductPopularity{
			ProductID:     id,
			TotalOrders:   a.orders,
			TotalQuantity: a.quantity,
			LastOrderDate: a.last,
		})
	}
	sort.SliceStable(stats, func(i, j int) bool {
		if stats[i].TotalOrders != stats[j].TotalOrders {
			return stats[i].TotalOrders > stats[j].TotalOrders
		}
		return stats[i].ProductID < stats[j].ProductID
	})
	return stats
}

// TopCountries groups orders by delivery country and computes each
// country's share of total revenue, sorted by order count descending.
func TopCountries(orders []domain.Order) []CountryStat {
	type acc struct {
		count   int
		revenue float64
	}
	byCountry := make(map[string]*acc)
	var totalRevenue float64

	for _, order := range orders {
		if order.Location == "" {
			continue
		}
		a, ok := byCountry[order.Location]
		if !ok {
			a = &acc{}
			byCountry[order.Location] = a
		}
		a.count++
		a.revenue += order.TotalPrice
		totalRevenue += order.TotalPrice
	}

	stats := make([]CountryStat, 0, len(byCountry))
	for country, a := range byCountry {
		pct := 0.0
		if totalRevenue > 0 {
			pct = a.revenue / totalRevenue * 100
		}
		stats = append(stats, CountryStat{
			Country:    country,
			OrderCount: a.count,
			Revenue:    a.revenue,
			Percentage: pct,
		})
	}
	sort.SliceStable(stats, func(i, j int) bool {
		if stats[i].OrderCount != stats[j].OrderCount {
			return stats[i].OrderCount > stats[j].OrderCount
		}
		return stats[i].Country < stats[j].Country
	})
	return stats
}

// IncomeTrend buckets order revenue by calendar month over the trailing
// window, oldest bucket first. Empty months are emitted with zero revenue so
// the chart axis stays continuous.
func IncomeTrend(orders []domain.Order, months int, now time.Time) []IncomePoint {
	if months <= 0 {
		months = 6
	}

	// Anchor on the first of the month; stepping months from a day past the
	// 28th normalizes into the wrong month and skews the axis.
	base := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	buckets := make([]IncomePoint, months)
	index := make(map[string]int, months)
	for i := 0; i < months; i++ {
		m := base.AddDate(0, i-months+1, 0)
		key := m.Format("2006-01")
		buckets[i] = IncomePoint{Month: key}
		index[key] = i
	}

	for _, order := range orders {
		key := order.OrderDate.Format("2006-01")
		if i, ok := index[key]; ok {
			buckets[i].Revenue += order.TotalPrice
			buckets[i].Orders++
		}
	}
	return buckets
}

// Trending filters popularity to orders placed within the trailing window
// and caps the result.
func Trending(orders []domain.Order, days, limit int, now time.Time) []ProductPopularity {
	if days <= 0 {
		days = 30
	}
	if limit <= 0 {
		limit = 10
	}
	cutoff := now.AddDate(0, 0, -days)

	recent := make([]domain.Order, 0, len(orders))
	for _, order := range orders {
		if !order.OrderDate.Before(cutoff) {
			recent = append(recent, order)
		}
	}

	stats := Popularity(recent)
	if len(stats) > limit {
		stats = stats[:limit]
	}
	return stats
}
