// Package listing serves collection views over HTTP: it parses list parameters,
// loads the source collection and writes the computed page as JSON or CSV.
package listing

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/nocdesk/nocdesk/internal/collection"
	"github.com/nocdesk/nocdesk/internal/platform/httpx"
)

// Loader returns the full collection a view is computed over.
type Loader[T any] func(ctx context.Context) ([]T, error)

// Endpoint binds one collection schema to its loader.
type Endpoint[T any] struct {
	Name   string
	Schema collection.Schema[T]
	Load   Loader[T]
	Limits collection.ParamLimits
	Logger *slog.Logger
	// Columns drive the CSV export. Export is disabled when empty.
	Columns []Column[T]
}

// Response is the JSON body of a list endpoint. Page is 1-based.
type Response[T any] struct {
	Items      []T               `json:"items"`
	Total      int               `json:"total"`
	TotalPages int               `json:"total_pages"`
	Page       int               `json:"page"`
	PageSize   int               `json:"page_size"`
	Query      string            `json:"query,omitempty"`
	Filters    map[string]string `json:"filters,omitempty"`
	Sort       string            `json:"sort,omitempty"`
	Dir        string            `json:"dir,omitempty"`
}

// NewResponse wraps a computed result together with the state that produced it.
func NewResponse[T any](res collection.Result[T], state collection.State) Response[T] {
	return Response[T]{
		Items:      res.Items,
		Total:      res.Total,
		TotalPages: res.TotalPages,
		Page:       res.PageIndex + 1,
		PageSize:   res.PageSize,
		Query:      state.Query,
		Filters:    state.Filters,
		Sort:       state.SortKey,
		Dir:        string(state.SortDir),
	}
}

// ServeList handles GET requests for the paginated view.
func (e Endpoint[T]) ServeList(w http.ResponseWriter, r *http.Request) {
	state, items, ok := e.prepare(w, r)
	if !ok {
		return
	}
	res := collection.Compute(items, e.Schema, state)
	httpx.JSON(w, http.StatusOK, NewResponse(res, state))
}

// ServeExport streams every matching record, filtered and sorted but not
// paginated, as CSV.
func (e Endpoint[T]) ServeExport(w http.ResponseWriter, r *http.Request) {
	if len(e.Columns) == 0 {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "export not available")
		return
	}
	state, items, ok := e.prepare(w, r)
	if !ok {
		return
	}
	matched := collection.Apply(items, e.Schema, state)
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+e.Name+`.csv"`)
	if err := WriteCSV(w, e.Columns, matched); err != nil {
		e.logger().Error("csv export", slog.String("collection", e.Name), slog.Any("error", err))
	}
}

func (e Endpoint[T]) prepare(w http.ResponseWriter, r *http.Request) (collection.State, []T, bool) {
	state, err := collection.ParseParams(r.URL.Query(), e.Schema, e.Limits)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid List Parameters", err.Error())
		return collection.State{}, nil, false
	}
	items, err := e.Load(r.Context())
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return collection.State{}, nil, false
		}
		e.logger().Error("load collection", slog.String("collection", e.Name), slog.Any("error", err))
		httpx.RespondError(w, err)
		return collection.State{}, nil, false
	}
	return state, items, true
}

func (e Endpoint[T]) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}
