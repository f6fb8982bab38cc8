package collection

import (
	"errors"
	"maps"
	"strings"
)

var (
	// ErrInvalidPageSize is returned for a non-positive page size.
	ErrInvalidPageSize = errors.New("collection: page size must be positive")
	// ErrInvalidPage is returned for a negative page index.
	ErrInvalidPage = errors.New("collection: page index must not be negative")
	// ErrInvalidDirection is returned for an unknown sort direction.
	ErrInvalidDirection = errors.New("collection: unknown sort direction")
	// ErrInvalidSortKey is returned when a view is sorted by an undeclared key.
	ErrInvalidSortKey = errors.New("collection: unknown sort key")
	// ErrInvalidFilter is returned when a view is filtered on an undeclared field.
	ErrInvalidFilter = errors.New("collection: unknown filter")
)

// DefaultPageSize is used when a schema does not declare its own.
const DefaultPageSize = 10

// State is the user-controlled view over a collection. States are values: every
// setter returns a new State and leaves the receiver untouched.
type State struct {
	Query     string            `json:"query"`
	Filters   map[string]string `json:"filters,omitempty"`
	SortKey   string            `json:"sort_key,omitempty"`
	SortDir   Direction         `json:"sort_dir"`
	PageIndex int               `json:"page_index"`
	PageSize  int               `json:"page_size"`
}

// NewState returns the initial state for a schema: no query, no filters, the
// schema's default sort, first page.
func NewState[T any](schema Schema[T]) State {
	size := schema.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	dir := schema.DefaultDir
	if !dir.Valid() {
		dir = Ascending
	}
	return State{SortKey: schema.DefaultSort, SortDir: dir, PageSize: size}
}

// WithQuery sets the search text and returns to the first page.
func (s State) WithQuery(query string) State {
	next := s.clone()
	next.Query = strings.TrimSpace(query)
	next.PageIndex = 0
	return next
}

// WithFilter sets an equality filter and returns to the first page. FilterAll or
// an empty value removes the constraint.
func (s State) WithFilter(name, value string) State {
	next := s.clone()
	value = strings.TrimSpace(value)
	if value == "" || strings.EqualFold(value, FilterAll) {
		delete(next.Filters, name)
	} else {
		if next.Filters == nil {
			next.Filters = make(map[string]string)
		}
		next.Filters[name] = value
	}
	next.PageIndex = 0
	return next
}

// WithSort sorts by key in direction dir.
func (s State) WithSort(key string, dir Direction) (State, error) {
	if !dir.Valid() {
		return s, ErrInvalidDirection
	}
	next := s.clone()
	next.SortKey = key
	next.SortDir = dir
	return next, nil
}

// ToggleSort mirrors a click on a column header: the active column flips its
// direction, any other column becomes the ascending sort.
func (s State) ToggleSort(key string) State {
	next := s.clone()
	if next.SortKey == key {
		next.SortDir = next.SortDir.Flip()
		return next
	}
	next.SortKey = key
	next.SortDir = Ascending
	return next
}

// WithPage moves to the zero-based page index.
func (s State) WithPage(index int) (State, error) {
	if index < 0 {
		return s, ErrInvalidPage
	}
	next := s.clone()
	next.PageIndex = index
	return next, nil
}

// WithPageSize changes the page size and always returns to the first page.
func (s State) WithPageSize(size int) (State, error) {
	if size <= 0 {
		return s, ErrInvalidPageSize
	}
	next := s.clone()
	next.PageSize = size
	next.PageIndex = 0
	return next, nil
}

func (s State) clone() State {
	s.Filters = maps.Clone(s.Filters)
	return s
}
