package collection

import "strings"

// FilterAll is the sentinel filter value meaning "no constraint".
const FilterAll = "all"

// All combines predicates with logical AND. Nil predicates are skipped and an
// empty set matches everything.
func All[T any](preds ...Predicate[T]) Predicate[T] {
	active := make([]Predicate[T], 0, len(preds))
	for _, p := range preds {
		if p != nil {
			active = append(active, p)
		}
	}
	return func(record T) bool {
		for _, p := range active {
			if !p(record) {
				return false
			}
		}
		return true
	}
}

// Equals matches records whose field equals value, ignoring case. It returns nil
// for FilterAll or an empty value so the constraint drops out of All.
func Equals[T any](field Field[T], value string) Predicate[T] {
	value = strings.TrimSpace(value)
	if field == nil || value == "" || strings.EqualFold(value, FilterAll) {
		return nil
	}
	return func(record T) bool {
		return strings.EqualFold(field(record), value)
	}
}

// Filter returns the records matching pred in their original order. The result
// never aliases items.
func Filter[T any](items []T, pred Predicate[T]) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if pred == nil || pred(item) {
			out = append(out, item)
		}
	}
	return out
}
