package collection

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseParams(t *testing.T) {
	values := url.Values{}
	values.Set("q", "  ana ")
	values.Set("status", "active")
	values.Set("sort", "score")
	values.Set("dir", "desc")
	values.Set("page", "3")
	values.Set("page_size", "5")
	values.Set("unrelated", "x")

	state, err := ParseParams(values, rowSchema(), ParamLimits{MaxPageSize: 100})
	require.NoError(t, err)
	assert.Equal(t, "ana", state.Query)
	assert.Equal(t, map[string]string{"status": "active"}, state.Filters)
	assert.Equal(t, "score", state.SortKey)
	assert.Equal(t, Descending, state.SortDir)
	assert.Equal(t, 2, state.PageIndex)
	assert.Equal(t, 5, state.PageSize)
}

func TestParseParamsDefaults(t *testing.T) {
	state, err := ParseParams(url.Values{}, rowSchema(), ParamLimits{})
	require.NoError(t, err)
	assert.Equal(t, "name", state.SortKey)
	assert.Equal(t, Ascending, state.SortDir)
	assert.Zero(t, state.PageIndex)
	assert.Equal(t, 10, state.PageSize)

	schema := rowSchema()
	schema.PageSize = 0
	state, err = ParseParams(url.Values{}, schema, ParamLimits{DefaultPageSize: 25})
	require.NoError(t, err)
	assert.Equal(t, 25, state.PageSize)
}

func TestParseParamsRejectsInvalid(t *testing.T) {
	cases := map[string]url.Values{
		"zero page size":     {"page_size": {"0"}},
		"negative page size": {"page_size": {"-3"}},
		"page size too big":  {"page_size": {"500"}},
		"page zero":          {"page": {"0"}},
		"page not a number":  {"page": {"two"}},
		"unknown sort":       {"sort": {"color"}},
		"bad direction":      {"sort": {"name"}, "dir": {"up"}},
	}
	for name, values := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseParams(values, rowSchema(), ParamLimits{MaxPageSize: 100})
			assert.ErrorIs(t, err, ErrInvalidParams)
		})
	}

	_, err := ParseParams(url.Values{"page_size": {"0"}}, rowSchema(), ParamLimits{})
	assert.ErrorIs(t, err, ErrInvalidPageSize)
}
