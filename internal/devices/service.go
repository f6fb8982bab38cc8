package devices

import (
	"context"
	"fmt"

	"github.com/nocdesk/nocdesk/internal/collection"
	"github.com/nocdesk/nocdesk/internal/gateway"
	"github.com/nocdesk/nocdesk/internal/platform/cache"
	"github.com/nocdesk/nocdesk/internal/platform/httpx"
)

// CollectionName is the cache name of the device inventory.
const CollectionName = "devices"

// GatewaySource reads the device inventory from the API gateway.
func GatewaySource(c *gateway.Client) collection.Source[Device] {
	return collection.SourceFunc[Device](func(ctx context.Context) ([]Device, error) {
		return gateway.List[Device](ctx, c, "devices.list", "/devices")
	})
}

// Service serves device views over the cached inventory.
type Service struct {
	source collection.Source[Device]
	cache  *cache.Collections
}

// NewService constructs the service. cache may be nil.
func NewService(source collection.Source[Device], cache *cache.Collections) *Service {
	return &Service{source: source, cache: cache}
}

// All returns the full inventory.
func (s *Service) All(ctx context.Context) ([]Device, error) {
	return cache.Load(ctx, s.cache, CollectionName, s.source.Fetch)
}

// List computes one page of the device view.
func (s *Service) List(ctx context.Context, state collection.State) (collection.Result[Device], error) {
	items, err := s.All(ctx)
	if err != nil {
		return collection.Result[Device]{}, err
	}
	return collection.Compute(items, Schema(), state), nil
}

// Get returns a single device by ID.
func (s *Service) Get(ctx context.Context, id string) (*Device, error) {
	items, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].ID == id {
			d := items[i]
			return &d, nil
		}
	}
	return nil, fmt.Errorf("devices: %s: %w", id, httpx.ErrNotFound)
}

// StatusCounts groups the inventory by status.
func (s *Service) StatusCounts(ctx context.Context) (map[string]int, error) {
	items, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	return collection.CountBy(items, status), nil
}

// Invalidate drops the cached inventory so the next read refetches it.
func (s *Service) Invalidate(ctx context.Context) error {
	return s.cache.Bump(ctx, CollectionName)
}
