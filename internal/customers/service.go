package customers

import (
	"context"
	"fmt"

	"github.com/nocdesk/nocdesk/internal/collection"
	"github.com/nocdesk/nocdesk/internal/gateway"
	"github.com/nocdesk/nocdesk/internal/platform/cache"
	"github.com/nocdesk/nocdesk/internal/platform/httpx"
)

const CollectionName = "customers"

// GatewaySource reads customer accounts from the API gateway.
func GatewaySource(c *gateway.Client) collection.Source[Customer] {
	return collection.SourceFunc[Customer](func(ctx context.Context) ([]Customer, error) {
		return gateway.List[Customer](ctx, c, "customers.list", "/customers")
	})
}

type Service struct {
	source collection.Source[Customer]
	cache  *cache.Collections
}

func NewService(source collection.Source[Customer], cache *cache.Collections) *Service {
	return &Service{source: source, cache: cache}
}

func (s *Service) All(ctx context.Context) ([]Customer, error) {
	return cache.Load(ctx, s.cache, CollectionName, s.source.Fetch)
}

func (s *Service) List(ctx context.Context, state collection.State) (collection.Result[Customer], error) {
	items, err := s.All(ctx)
	if err != nil {
		return collection.Result[Customer]{}, err
	}
	return collection.Compute(items, Schema(), state), nil
}

func (s *Service) Get(ctx context.Context, id string) (*Customer, error) {
	items, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].ID == id {
			c := items[i]
			return &c, nil
		}
	}
	return nil, fmt.Errorf("customers: %s: %w", id, httpx.ErrNotFound)
}

func (s *Service) StatusCounts(ctx context.Context) (map[string]int, error) {
	items, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	return collection.CountBy(items, status), nil
}

func (s *Service) Invalidate(ctx context.Context) error {
	return s.cache.Bump(ctx, CollectionName)
}
