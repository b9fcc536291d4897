package domain

// PageBounds returns the half-open [start, end) window for a 1-based page,
// clamped to total items.
func PageBounds(total, page, pageSize int) (int, int) {
	if page < 1 || pageSize < 1 || total <= 0 {
		return 0, 0
	}

	// Past the last page. Must precede the multiplication, which
	// overflows for huge page numbers.
	if page-1 >= TotalPages(total, pageSize) {
		return total, total
	}

	start := (page - 1) * pageSize

	end := total
	if pageSize < total-start {
		end = start + pageSize
	}

	return start, end
}

// Paginate returns the items on the given 1-based page.
// The result is never nil so it serializes as [] rather than null.
func Paginate[T any](items []T, page, pageSize int) []T {
	start, end := PageBounds(len(items), page, pageSize)

	out := make([]T, end-start)
	copy(out, items[start:end])

	return out
}

// TotalPages returns ceil(count / pageSize).
func TotalPages(count, pageSize int) int {
	if count <= 0 || pageSize <= 0 {
		return 0
	}

	pages := count / pageSize
	if count%pageSize != 0 {
		pages++
	}

	return pages
}
