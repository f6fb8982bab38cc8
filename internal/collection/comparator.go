package collection

import (
	"cmp"
	"slices"
	"strings"
	"time"
)

// Direction is the sort order of a view.
type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// Valid reports whether d is a known direction.
func (d Direction) Valid() bool {
	return d == Ascending || d == Descending
}

// Flip returns the opposite direction.
func (d Direction) Flip() Direction {
	if d == Descending {
		return Ascending
	}
	return Descending
}

// Key is a three-way ordering over records for one sortable column.
type Key[T any] struct {
	compare func(a, b T) int
}

// Compare returns a negative number when a sorts before b, zero when they tie
// and a positive number otherwise. A zero Key ties everything.
func (k Key[T]) Compare(a, b T) int {
	if k.compare == nil {
		return 0
	}
	return k.compare(a, b)
}

// StringKey orders by a string field, ignoring case.
func StringKey[T any](field Field[T]) Key[T] {
	return Key[T]{compare: func(a, b T) int {
		return strings.Compare(fold(field(a)), fold(field(b)))
	}}
}

// OrdinalKey orders by a string field using byte-wise comparison.
func OrdinalKey[T any](field Field[T]) Key[T] {
	return Key[T]{compare: func(a, b T) int {
		return strings.Compare(field(a), field(b))
	}}
}

// NumberKey orders by a numeric field.
func NumberKey[T any, N cmp.Ordered](field func(T) N) Key[T] {
	return Key[T]{compare: func(a, b T) int {
		return cmp.Compare(field(a), field(b))
	}}
}

// TimeKey orders by a timestamp field.
func TimeKey[T any](field func(T) time.Time) Key[T] {
	return Key[T]{compare: func(a, b T) int {
		return field(a).Compare(field(b))
	}}
}

// BoolKey orders false before true.
func BoolKey[T any](field func(T) bool) Key[T] {
	return Key[T]{compare: func(a, b T) int {
		x, y := field(a), field(b)
		switch {
		case x == y:
			return 0
		case !x:
			return -1
		default:
			return 1
		}
	}}
}

// Comparator builds the ordering function for key in the given direction.
// Descending inverts the sign only, so ties stay ties.
func Comparator[T any](key Key[T], dir Direction) func(a, b T) int {
	if dir == Descending {
		return func(a, b T) int { return -key.Compare(a, b) }
	}
	return key.Compare
}

// Sort returns a stably sorted copy of items.
func Sort[T any](items []T, cmpFn func(a, b T) int) []T {
	out := slices.Clone(items)
	if cmpFn == nil {
		return out
	}
	slices.SortStableFunc(out, cmpFn)
	return out
}
