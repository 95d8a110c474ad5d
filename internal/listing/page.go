package listing

import "voltmart/internal/domain"

// maxVisiblePages caps the page-number window shown by navigation controls.
const maxVisiblePages = 5

// Page is one pagination slice plus the navigation metadata a listing view
// renders around it.
type Page struct {
	Items      []domain.Product `json:"items"`
	Number     int              `json:"page"`
	Size       int              `json:"pageSize"`
	TotalItems int              `json:"totalItems"`
	TotalPages int              `json:"totalPages"`
	Window     []int            `json:"visiblePages"`
}

// Paginate slices the reduced product list. The requested page is clamped
// into [1, totalPages]; when the list is empty the result is page 1 with an
// empty slice.
func Paginate(items []domain.Product, page, size int) Page {
	if size < 1 {
		size = 1
	}

	totalItems := len(items)
	totalPages := (totalItems + size - 1) / size

	if page > totalPages {
		page = totalPages
	}
	if page < 1 {
		page = 1
	}

	start := (page - 1) * size
	end := start + size
	if start > totalItems {
		start = totalItems
	}
	if end > totalItems {
		end = totalItems
	}

	return Page{
		Items:      items[start:end],
		Number:     page,
		Size:       size,
		TotalItems: totalItems,
		TotalPages: totalPages,
		Window:     PageWindow(page, totalPages),
	}
}

// PageWindow computes the visible page numbers: at most five, all of them
// when few enough, otherwise a window centered on the current page and
// shifted back into range at either edge.
func PageWindow(current, totalPages int) []int {
	if totalPages <= 0 {
		return []int{}
	}

	if totalPages <= maxVisiblePages {
		window := make([]int, 0, totalPages)
		for i := 1; i <= totalPages; i++ {
			window = append(window, i)
		}
		return window
	}

	start := current - maxVisiblePages/2
	if start < 1 {
		start = 1
	}
	end := start + maxVisiblePages - 1
	if end > totalPages {
		end = totalPages
		start = end - maxVisiblePages + 1
	}

	window := make([]int, 0, maxVisiblePages)
	for i := start; i <= end; i++ {
		window = append(window, i)
	}
	return window
}
