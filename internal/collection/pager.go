package collection

// Page is one window over a sorted collection.
type Page[T any] struct {
	Items      []T
	TotalPages int
}

// Paginate returns items[pageIndex*pageSize : pageIndex*pageSize+pageSize]
// clamped to bounds. Out of range pages are empty rather than an error.
func Paginate[T any](items []T, pageIndex, pageSize int) Page[T] {
	if pageSize <= 0 {
		return Page[T]{Items: []T{}}
	}
	page := Page[T]{Items: []T{}, TotalPages: TotalPages(len(items), pageSize)}
	if pageIndex < 0 {
		return page
	}
	start := pageIndex * pageSize
	if start >= len(items) || start/pageSize != pageIndex {
		return page
	}
	end := min(start+pageSize, len(items))
	page.Items = items[start:end:end]
	return page
}

// TotalPages returns ceil(total/pageSize), or 0 when there is nothing to show.
func TotalPages(total, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}
