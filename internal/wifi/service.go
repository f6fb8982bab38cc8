package wifi

import (
	"context"
	"errors"
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

const CollectionName = "wifi"

var errPasswordRequired = errors.New("password is required unless security is open")

// Mutator sends writes to the gateway.
type Mutator interface {
	Mutate(ctx context.Context, op, method, path, key string, body, out any) error
}

// Auditor records operator actions.
type Auditor interface {
	Track(ctx context.Context, log shared.AuditLog)
}

// GatewaySource reads WiFi profiles from the API gateway.
func GatewaySource(c *gateway.Client) collection.Source[Profile] {
	return collection.SourceFunc[Profile](func(ctx context.Context) ([]Profile, error) {
		return gateway.List[Profile](ctx, c, "wifi.list", "/wifi")
	})
}

// Service lists WiFi profiles and pushes configuration changes.
type Service struct {
	source   collection.Source[Profile]
	cache    *cache.Collections
	mutator  Mutator
	audit    Auditor
	validate *validator.Validate
	logger   *slog.Logger
}

// NewService constructs the service. cache and audit may be nil.
func NewService(source collection.Source[Profile], cache *cache.Collections, mutator Mutator, audit Auditor, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{source: source, cache: cache, mutator: mutator, audit: audit, validate: validator.New(), logger: logger}
}

func (s *Service) All(ctx context.Context) ([]Profile, error) {
	return cache.Load(ctx, s.cache, CollectionName, s.source.Fetch)
}

func (s *Service) List(ctx context.Context, state collection.State) (collection.Result[Profile], error) {
	items, err := s.All(ctx)
	if err != nil {
		return collection.Result[Profile]{}, err
	}
	return collection.Compute(items, Schema(), state), nil
}

// Get returns the profile of one device.
func (s *Service) Get(ctx context.Context, deviceID string) (*Profile, error) {
	items, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].DeviceID == deviceID {
			p := items[i]
			return &p, nil
		}
	}
	return nil, fmt.Errorf("wifi: device %s: %w", deviceID, httpx.ErrNotFound)
}

// Update applies patch to the device profile and sends only the fields that
// actually change. When nothing changes no request is made and the current
// profile is returned.
func (s *Service) Update(ctx context.Context, deviceID string, patch Patch) (*Profile, error) {
	if err := s.validate.Struct(patch); err != nil {
		return nil, fmt.Errorf("wifi: %v: %w", err, httpx.ErrValidation)
	}
	current, err := s.Get(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	desired := patch.ApplyTo(*current)
	if err := s.check(desired); err != nil {
		return nil, err
	}

	diff := Diff(*current, desired)
	if diff.Empty() {
		return current, nil
	}

	var updated Profile
	path := "/wifi/" + url.PathEscape(deviceID)
	if err := s.mutator.Mutate(ctx, "wifi.update", http.MethodPatch, path, "", diff, &updated); err != nil {
		return nil, err
	}
	s.logger.Info("wifi profile updated", slog.String("device_id", deviceID), slog.String("ssid", updated.SSID))
	if s.audit != nil {
		s.audit.Track(ctx, shared.AuditLog{Action: "wifi.update", Entity: "wifi", EntityID: deviceID, Meta: map[string]any{"fields": diff.Fields()}})
	}

	if err := s.Invalidate(ctx); err != nil {
		s.logger.Warn("invalidate wifi profiles", slog.Any("error", err))
	}
	return &updated, nil
}

func (s *Service) check(p Profile) error {
	if err := s.validate.Struct(p); err != nil {
		return fmt.Errorf("wifi: %v: %w", err, httpx.ErrValidation)
	}
	if p.Security != SecurityOpen && p.Password == "" {
		return fmt.Errorf("wifi: %w: %w", errPasswordRequired, httpx.ErrValidation)
	}
	return nil
}

func (s *Service) Invalidate(ctx context.Context) error {
	return s.cache.Bump(ctx, CollectionName)
}
