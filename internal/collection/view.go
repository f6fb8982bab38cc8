package collection

import (
	"context"
	"fmt"
	"strings"
)

// Schema declares how one record type can be searched, filtered and sorted.
type Schema[T any] struct {
	// Search lists the fields the free-text query is matched against.
	Search []Field[T]
	// Filters maps a filter name to the field it constrains.
	Filters map[string]Field[T]
	// Sorts maps a sort key to its ordering.
	Sorts       map[string]Key[T]
	DefaultSort string
	DefaultDir  Direction
	PageSize    int
}

// Validate checks that state only references declared filters and sort keys.
func (s Schema[T]) Validate(state State) error {
	if state.PageSize <= 0 {
		return ErrInvalidPageSize
	}
	if state.PageIndex < 0 {
		return ErrInvalidPage
	}
	if state.SortDir != "" && !state.SortDir.Valid() {
		return ErrInvalidDirection
	}
	if state.SortKey != "" {
		if _, ok := s.Sorts[state.SortKey]; !ok {
			return fmt.Errorf("%w: %s", ErrInvalidSortKey, state.SortKey)
		}
	}
	for name := range state.Filters {
		if _, ok := s.Filters[name]; !ok {
			return fmt.Errorf("%w: %s", ErrInvalidFilter, name)
		}
	}
	return nil
}

// Predicate combines the text query with every active equality filter.
// Filters the schema does not declare are ignored.
func (s Schema[T]) Predicate(state State) Predicate[T] {
	preds := []Predicate[T]{TextPredicate(state.Query, s.Search...)}
	for name, value := range state.Filters {
		if field, ok := s.Filters[name]; ok {
			preds = append(preds, Equals(field, value))
		}
	}
	return All(preds...)
}

// Comparator returns the ordering for state, or nil when the sort key is unset
// or undeclared, in which case source order is kept.
func (s Schema[T]) Comparator(state State) func(a, b T) int {
	key, ok := s.Sorts[state.SortKey]
	if !ok {
		return nil
	}
	return Comparator(key, state.SortDir)
}

// Result is the rendered view: the visible page plus the counts needed by the
// pagination controls.
type Result[T any] struct {
	Items      []T `json:"items"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
	PageIndex  int `json:"page_index"`
	PageSize   int `json:"page_size"`
}

// Apply filters then sorts source. The returned slice is always a new slice.
func Apply[T any](source []T, schema Schema[T], state State) []T {
	matched := Filter(source, schema.Predicate(state))
	if cmpFn := schema.Comparator(state); cmpFn != nil {
		return Sort(matched, cmpFn)
	}
	return matched
}

// Compute runs the full filter, sort and paginate pipeline.
func Compute[T any](source []T, schema Schema[T], state State) Result[T] {
	matched := Apply(source, schema, state)
	page := Paginate(matched, state.PageIndex, state.PageSize)
	return Result[T]{
		Items:      page.Items,
		Total:      len(matched),
		TotalPages: page.TotalPages,
		PageIndex:  state.PageIndex,
		PageSize:   state.PageSize,
	}
}

// CountBy groups records by a field and counts each group. Keys are lower-cased.
func CountBy[T any](items []T, field Field[T]) map[string]int {
	counts := make(map[string]int)
	for _, item := range items {
		counts[strings.ToLower(field(item))]++
	}
	return counts
}

// Source loads the full collection a view is computed over.
type Source[T any] interface {
	Fetch(ctx context.Context) ([]T, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc[T any] func(ctx context.Context) ([]T, error)

// Fetch calls f.
func (f SourceFunc[T]) Fetch(ctx context.Context) ([]T, error) {
	return f(ctx)
}

// View owns the state of one list and recomputes its result on every change.
// A View belongs to a single caller and is not safe for concurrent use.
type View[T any] struct {
	schema Schema[T]
	source []T
	state  State
	result Result[T]
}

// NewView creates a view over source with the schema's initial state.
func NewView[T any](schema Schema[T], source []T) *View[T] {
	v := &View[T]{schema: schema, source: source, state: NewState(schema)}
	v.recompute()
	return v
}

// Load replaces the source with a freshly fetched collection. On error the view
// keeps its current collection and result.
func (v *View[T]) Load(ctx context.Context, src Source[T]) error {
	items, err := src.Fetch(ctx)
	if err != nil {
		return err
	}
	v.Replace(items)
	return nil
}

// Replace swaps the source collection. The last replacement wins.
func (v *View[T]) Replace(source []T) {
	v.source = source
	v.recompute()
}

// State returns the current state.
func (v *View[T]) State() State { return v.state.clone() }

// Result returns the current visible page and counts.
func (v *View[T]) Result() Result[T] { return v.result }

// SetState replaces the whole state after validating it against the schema.
func (v *View[T]) SetState(state State) error {
	if err := v.schema.Validate(state); err != nil {
		return err
	}
	v.state = state.clone()
	v.recompute()
	return nil
}

// SetQuery replaces the search query.
func (v *View[T]) SetQuery(query string) {
	v.state = v.state.WithQuery(query)
	v.recompute()
}

// SetFilter sets a declared filter. FilterAll or "" clears it.
func (v *View[T]) SetFilter(name, value string) error {
	if _, ok := v.schema.Filters[name]; !ok {
		return fmt.Errorf("%w: %s", ErrInvalidFilter, name)
	}
	v.state = v.state.WithFilter(name, value)
	v.recompute()
	return nil
}

// SetSort orders the view by a declared sort key.
func (v *View[T]) SetSort(key string, dir Direction) error {
	if _, ok := v.schema.Sorts[key]; !ok {
		return fmt.Errorf("%w: %s", ErrInvalidSortKey, key)
	}
	next, err := v.state.WithSort(key, dir)
	if err != nil {
		return err
	}
	v.state = next
	v.recompute()
	return nil
}

// ToggleSort flips the direction of key, or sorts by it ascending.
func (v *View[T]) ToggleSort(key string) error {
	if _, ok := v.schema.Sorts[key]; !ok {
		return fmt.Errorf("%w: %s", ErrInvalidSortKey, key)
	}
	v.state = v.state.ToggleSort(key)
	v.recompute()
	return nil
}

// SetPage moves to the zero-based page index.
func (v *View[T]) SetPage(index int) error {
	next, err := v.state.WithPage(index)
	if err != nil {
		return err
	}
	v.state = next
	v.recompute()
	return nil
}

// SetPageSize changes the page size and returns to the first page.
func (v *View[T]) SetPageSize(size int) error {
	next, err := v.state.WithPageSize(size)
	if err != nil {
		return err
	}
	v.state = next
	v.recompute()
	return nil
}

func (v *View[T]) recompute() {
	v.result = Compute(v.source, v.schema, v.state)
}
