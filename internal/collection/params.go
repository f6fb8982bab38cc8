package collection

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidParams wraps every list parameter that fails validation.
var ErrInvalidParams = errors.New("collection: invalid list parameters")

var validate = validator.New()

// ListParams are the raw query parameters of a list endpoint. Page is 1-based
// on the wire and converted to a zero-based index.
type ListParams struct {
	Query    string `validate:"max=200"`
	Sort     string `validate:"omitempty,max=64"`
	Dir      string `validate:"omitempty,oneof=asc desc"`
	Page     int    `validate:"gte=1"`
	PageSize int    `validate:"gte=1"`
}

// ParamLimits bounds what a client may ask for.
type ParamLimits struct {
	DefaultPageSize int
	MaxPageSize     int
}

// ParseParams builds a State for schema from URL query values. Every parameter
// is validated here so the pipeline only ever sees a valid State.
func ParseParams[T any](values url.Values, schema Schema[T], limits ParamLimits) (State, error) {
	state := NewState(schema)
	if limits.DefaultPageSize > 0 && schema.PageSize <= 0 {
		state.PageSize = limits.DefaultPageSize
	}

	params := ListParams{
		Query:    values.Get("q"),
		Sort:     values.Get("sort"),
		Dir:      values.Get("dir"),
		Page:     1,
		PageSize: state.PageSize,
	}
	if raw := values.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return State{}, fmt.Errorf("%w: page: %v", ErrInvalidParams, err)
		}
		params.Page = n
	}
	if raw := values.Get("page_size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return State{}, fmt.Errorf("%w: page_size: %v", ErrInvalidParams, err)
		}
		if n <= 0 {
			return State{}, fmt.Errorf("%w: %w", ErrInvalidParams, ErrInvalidPageSize)
		}
		params.PageSize = n
	}
	if err := validate.Struct(params); err != nil {
		return State{}, fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	if limits.MaxPageSize > 0 && params.PageSize > limits.MaxPageSize {
		return State{}, fmt.Errorf("%w: page_size exceeds %d", ErrInvalidParams, limits.MaxPageSize)
	}

	state = state.WithQuery(params.Query)
	for name := range schema.Filters {
		if value := values.Get(name); value != "" {
			state = state.WithFilter(name, value)
		}
	}
	if params.Sort != "" {
		if _, ok := schema.Sorts[params.Sort]; !ok {
			return State{}, fmt.Errorf("%w: %w: %s", ErrInvalidParams, ErrInvalidSortKey, params.Sort)
		}
		dir := Direction(params.Dir)
		if dir == "" {
			dir = Ascending
		}
		next, err := state.WithSort(params.Sort, dir)
		if err != nil {
			return State{}, fmt.Errorf("%w: %w", ErrInvalidParams, err)
		}
		state = next
	} else if params.Dir != "" {
		state.SortDir = Direction(params.Dir)
	}

	var err error
	if state, err = state.WithPageSize(params.PageSize); err != nil {
		return State{}, fmt.Errorf("%w: %w", ErrInvalidParams, err)
	}
	if state, err = state.WithPage(params.Page - 1); err != nil {
		return State{}, fmt.Errorf("%w: %w", ErrInvalidParams, err)
	}
	return state, nil
}
