package customers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nocdesk/nocdesk/internal/collection"
	"github.com/nocdesk/nocdesk/internal/platform/httpx"
)

func sampleCustomers() []Customer {
	day := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return []Customer{
		{ID: "c-1", Name: "Ana Souza", Email: "ana@example.net", Plan: "fiber-300", Status: "active", DeviceCount: 2, CreatedAt: day},
		{ID: "c-2", Name: "Bo Lima", Email: "bo@example.net", Plan: "fiber-100", Status: "suspended", DeviceCount: 1, CreatedAt: day.AddDate(0, 1, 0)},
		{ID: "c-3", Name: "Cal Reis", Email: "cal@example.net", Plan: "fiber-300", Status: "active", DeviceCount: 0, CreatedAt: day.AddDate(0, 2, 0)},
	}
}

func newService() *Service {
	src := collection.SourceFunc[Customer](func(context.Context) ([]Customer, error) {
		return sampleCustomers(), nil
	})
	return NewService(src, nil)
}

func TestCustomerView(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	state := collection.NewState(Schema()).WithFilter("plan", "fiber-300")
	state, err := state.WithSort("created_at", collection.Descending)
	require.NoError(t, err)
	res, err := svc.List(ctx, state)
	require.NoError(t, err)
	require.Equal(t, 2, res.Total)
	assert.Equal(t, "c-3", res.Items[0].ID)

	res, err = svc.List(ctx, collection.NewState(Schema()).WithQuery("BO@"))
	require.NoError(t, err)
	require.Equal(t, 1, res.Total)
	assert.Equal(t, "c-2", res.Items[0].ID)

	res, err = svc.List(ctx, collection.NewState(Schema()).WithFilter("status", "all"))
	require.NoError(t, err)
	assert.Equal(t, 3, res.Total)
	assert.Equal(t, 1, res.TotalPages)
}

func TestCustomerLookup(t *testing.T) {
	svc := newService()
	c, err := svc.Get(context.Background(), "c-1")
	require.NoError(t, err)
	assert.Equal(t, "Ana Souza", c.Name)

	_, err = svc.Get(context.Background(), "c-9")
	assert.ErrorIs(t, err, httpx.ErrNotFound)

	counts, err := svc.StatusCounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, counts["active"])
	assert.Equal(t, 1, counts["suspended"])
}
