package provisioning

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-playground/validator/v10"

	"github.com/nocdesk/nocdesk/internal/collection"
	"github.com/nocdesk/nocdesk/internal/gateway"
	"github.com/nocdesk/nocdesk/internal/platform/cache"
	"github.com/nocdesk/nocdesk/internal/platform/httpx"
	"github.com/nocdesk/nocdesk/internal/shared"
)

const (
	CollectionName = "onus_pending"
	idemModule     = "onu.authorize"
)

// Mutator sends writes to the gateway.
type Mutator interface {
	Mutate(ctx context.Context, op, method, path, key string, body, out any) error
}

// Claimer guards an operation with an idempotency key.
type Claimer interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key, module string) error
}

// Invalidator drops a cached collection that an authorization changes.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// Auditor records operator actions.
type Auditor interface {
	Track(ctx context.Context, log shared.AuditLog)
}

// GatewaySource reads ONUs awaiting authorization from the API gateway.
func GatewaySource(c *gateway.Client) collection.Source[PendingONU] {
	return collection.SourceFunc[PendingONU](func(ctx context.Context) ([]PendingONU, error) {
		return gateway.List[PendingONU](ctx, c, "onus.pending", "/onus/pending")
	})
}

// Service lists pending ONUs and authorizes them.
type Service struct {
	source   collection.Source[PendingONU]
	cache    *cache.Collections
	mutator  Mutator
	claims   Claimer
	related  []Invalidator
	audit    Auditor
	validate *validator.Validate
	logger   *slog.Logger
}

// ServiceConfig collects the service dependencies. Claims, Related and Audit are optional.
type ServiceConfig struct {
	Source  collection.Source[PendingONU]
	Cache   *cache.Collections
	Mutator Mutator
	Claims  Claimer
	Related []Invalidator
	Audit   Auditor
	Logger  *slog.Logger
}

func NewService(cfg ServiceConfig) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		source:   cfg.Source,
		cache:    cfg.Cache,
		mutator:  cfg.Mutator,
		claims:   cfg.Claims,
		related:  cfg.Related,
		audit:    cfg.Audit,
		validate: validator.New(),
		logger:   logger,
	}
}

func (s *Service) All(ctx context.Context) ([]PendingONU, error) {
	return cache.Load(ctx, s.cache, CollectionName, s.source.Fetch)
}

func (s *Service) List(ctx context.Context, state collection.State) (collection.Result[PendingONU], error) {
	items, err := s.All(ctx)
	if err != nil {
		return collection.Result[PendingONU]{}, err
	}
	return collection.Compute(items, Schema(), state), nil
}

// PendingCount returns how many ONUs still wait for authorization.
func (s *Service) PendingCount(ctx context.Context) (int, error) {
	items, err := s.All(ctx)
	if err != nil {
		return 0, err
	}
	return collection.CountBy(items, status)[StatusPending], nil
}

// Authorize provisions a pending ONU. A non-empty key makes the call
// idempotent: replaying the same key fails with a conflict instead of
// provisioning twice.
func (s *Service) Authorize(ctx context.Context, serial string, req AuthorizeRequest, key string) (*PendingONU, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("provisioning: %v: %w", err, httpx.ErrValidation)
	}
	onu, err := s.find(ctx, serial)
	if err != nil {
		return nil, err
	}
	if onu.Status == StatusAuthorized {
		return nil, fmt.Errorf("provisioning: onu %s already authorized: %w", serial, httpx.ErrConflict)
	}

	if key != "" && s.claims != nil {
		if err := s.claims.CheckAndInsert(ctx, key, idemModule); err != nil {
			return nil, err
		}
	}

	var updated PendingONU
	path := "/onus/" + url.PathEscape(serial) + "/authorize"
	if err := s.mutator.Mutate(ctx, "onus.authorize", http.MethodPost, path, key, req, &updated); err != nil {
		if key != "" && s.claims != nil {
			if delErr := s.claims.Delete(context.WithoutCancel(ctx), key, idemModule); delErr != nil {
				s.logger.Warn("release idempotency key", slog.String("serial", serial), slog.Any("error", delErr))
			}
		}
		return nil, err
	}
	s.logger.Info("onu authorized", slog.String("serial", serial), slog.String("profile", req.Profile), slog.String("customer_id", req.CustomerID))

	if s.audit != nil {
		s.audit.Track(ctx, shared.AuditLog{
			Action:   "onu.authorize",
			Entity:   "onu",
			EntityID: serial,
			Meta:     map[string]any{"profile": req.Profile, "customer_id": req.CustomerID, "olt_id": onu.OLTID},
		})
	}

	s.invalidate(ctx)
	return &updated, nil
}

func (s *Service) find(ctx context.Context, serial string) (*PendingONU, error) {
	items, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].Serial == serial {
			onu := items[i]
			return &onu, nil
		}
	}
	return nil, fmt.Errorf("provisioning: onu %s: %w", serial, httpx.ErrNotFound)
}

// Invalidate drops the cached pending list.
func (s *Service) Invalidate(ctx context.Context) error {
	return s.cache.Bump(ctx, CollectionName)
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.Invalidate(ctx); err != nil {
		s.logger.Warn("invalidate pending onus", slog.Any("error", err))
	}
	for _, inv := range s.related {
		if err := inv.Invalidate(ctx); err != nil {
			s.logger.Warn("invalidate related collection", slog.Any("error", err))
		}
	}
}
