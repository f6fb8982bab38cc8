package collection

import (
	"strings"
	"sync"

	"golang.org/x/text/cases"
)

// Predicate reports whether a record is part of the view.
type Predicate[T any] func(T) bool

// Field extracts a string value from a record. Missing values are returned as "".
type Field[T any] func(T) string

// TextPredicate matches records where the lower-cased query is a substring of
// at least one lower-cased field. An empty query matches everything.
func TextPredicate[T any](query string, fields ...Field[T]) Predicate[T] {
	if query == "" {
		return func(T) bool { return true }
	}
	needle := strings.ToLower(query)
	return func(record T) bool {
		for _, field := range fields {
			if field == nil {
				continue
			}
			if strings.Contains(strings.ToLower(field(record)), needle) {
				return true
			}
		}
		return false
	}
}

// Casers carry transform state, so each goroutine borrows its own.
var folders = sync.Pool{
	New: func() any {
		c := cases.Fold()
		return &c
	},
}

// fold returns the case-folded form of s for ordering.
func fold(s string) string {
	if s == "" {
		return ""
	}
	c := folders.Get().(*cases.Caser)
	defer folders.Put(c)
	return c.String(s)
}
