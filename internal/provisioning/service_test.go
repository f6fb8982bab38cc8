package provisioning

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nocdesk/nocdesk/internal/collection"
	"github.com/nocdesk/nocdesk/internal/platform/httpx"
	"github.com/nocdesk/nocdesk/internal/shared"
)

type mockMutator struct {
	calls []string
	keys  []string
	err   error
}

func (m *mockMutator) Mutate(_ context.Context, op, method, path, key string, body, out any) error {
	m.calls = append(m.calls, method+" "+path)
	m.keys = append(m.keys, key)
	if m.err != nil {
		return m.err
	}
	if onu, ok := out.(*PendingONU); ok {
		onu.Serial = strings.TrimSuffix(strings.TrimPrefix(path, "/onus/"), "/authorize")
		onu.Status = StatusAuthorized
	}
	return nil
}

type mockClaims struct {
	claimed map[string]bool
	deleted []string
}

func (m *mockClaims) CheckAndInsert(_ context.Context, key, module string) error {
	if m.claimed[key] {
		return httpx.ErrConflict
	}
	m.claimed[key] = true
	return nil
}

func (m *mockClaims) Delete(_ context.Context, key, module string) error {
	delete(m.claimed, key)
	m.deleted = append(m.deleted, key)
	return nil
}

type countingInvalidator struct{ n int }

func (c *countingInvalidator) Invalidate(context.Context) error {
	c.n++
	return nil
}

func pendingONUs() []PendingONU {
	t0 := time.Date(2026, 10, 10, 8, 0, 0, 0, time.UTC)
	return []PendingONU{
		{Serial: "ZTEG0001", OLTID: "olt-1", OLTName: "Central", PONPort: "0/1/1", Model: "F660", Status: StatusPending, DetectedAt: t0},
		{Serial: "ZTEG0002", OLTID: "olt-1", OLTName: "Central", PONPort: "0/1/2", Model: "F660", Status: StatusFailed, DetectedAt: t0.Add(time.Hour)},
		{Serial: "HWTC0003", OLTID: "olt-2", OLTName: "Norte", PONPort: "0/2/1", Model: "HG8245", Status: StatusAuthorized, DetectedAt: t0.Add(2 * time.Hour)},
	}
}

func newTestService(m *mockMutator, claims Claimer, related ...Invalidator) *Service {
	return NewService(ServiceConfig{
		Source:  collection.SourceFunc[PendingONU](func(context.Context) ([]PendingONU, error) { return pendingONUs(), nil }),
		Mutator: m,
		Claims:  claims,
		Related: related,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func TestPendingView(t *testing.T) {
	svc := newTestService(&mockMutator{}, nil)
	res, err := svc.List(context.Background(), collection.NewState(Schema()))
	require.NoError(t, err)
	assert.Equal(t, "HWTC0003", res.Items[0].Serial, "newest first by default")

	res, err = svc.List(context.Background(), collection.NewState(Schema()).WithFilter("olt", "olt-1").WithFilter("status", "pending"))
	require.NoError(t, err)
	require.Equal(t, 1, res.Total)
	assert.Equal(t, "ZTEG0001", res.Items[0].Serial)

	n, err := svc.PendingCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestAuthorize(t *testing.T) {
	m := &mockMutator{}
	claims := &mockClaims{claimed: map[string]bool{}}
	devices := &countingInvalidator{}
	svc := newTestService(m, claims, devices)
	req := AuthorizeRequest{Profile: "fiber-300", CustomerID: "c-1", VLAN: 100}

	onu, err := svc.Authorize(context.Background(), "ZTEG0001", req, "k-1")
	require.NoError(t, err)
	assert.Equal(t, StatusAuthorized, onu.Status)
	assert.Equal(t, []string{"POST /onus/ZTEG0001/authorize"}, m.calls)
	assert.Equal(t, []string{"k-1"}, m.keys)
	assert.Equal(t, 1, devices.n)

	_, err = svc.Authorize(context.Background(), "ZTEG0001", req, "k-1")
	assert.ErrorIs(t, err, httpx.ErrConflict)
	assert.Len(t, m.calls, 1)
}

func TestAuthorizeRejects(t *testing.T) {
	m := &mockMutator{}
	svc := newTestService(m, nil)
	ctx := context.Background()

	_, err := svc.Authorize(ctx, "ZTEG0001", AuthorizeRequest{CustomerID: "c-1"}, "")
	assert.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.Authorize(ctx, "ZTEG0001", AuthorizeRequest{Profile: "p", CustomerID: "c", VLAN: 5000}, "")
	assert.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.Authorize(ctx, "NOPE", AuthorizeRequest{Profile: "p", CustomerID: "c"}, "")
	assert.ErrorIs(t, err, httpx.ErrNotFound)

	_, err = svc.Authorize(ctx, "HWTC0003", AuthorizeRequest{Profile: "p", CustomerID: "c"}, "")
	assert.ErrorIs(t, err, httpx.ErrConflict)
	assert.Empty(t, m.calls)
}

func TestAuthorizeReleasesKeyOnFailure(t *testing.T) {
	m := &mockMutator{err: errors.New("gateway down")}
	claims := &mockClaims{claimed: map[string]bool{}}
	svc := newTestService(m, claims)

	_, err := svc.Authorize(context.Background(), "ZTEG0002", AuthorizeRequest{Profile: "p", CustomerID: "c"}, "k-2")
	assert.Error(t, err)
	assert.Equal(t, []string{"k-2"}, claims.deleted)
	assert.False(t, claims.claimed["k-2"])
}

func TestAuthorizeHandler(t *testing.T) {
	m := &mockMutator{}
	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), newTestService(m, nil), collection.ParamLimits{})
	r := chi.NewRouter()
	r.Route("/onus", h.MountRoutes)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/onus/ZTEG0001/authorize", strings.NewReader(`{"profile":"fiber-300","customer_id":"c-1"}`))
	req.Header.Set("Idempotency-Key", "abc")
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []string{"abc"}, m.keys)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/onus/ZTEG0001/authorize", strings.NewReader(`{"profile":""}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/onus/pending?status=failed", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total":1`)
}

type auditTrail struct{ logs []shared.AuditLog }

func (a *auditTrail) Track(_ context.Context, log shared.AuditLog) { a.logs = append(a.logs, log) }

func TestAuthorizeAudited(t *testing.T) {
	trail := &auditTrail{}
	svc := NewService(ServiceConfig{
		Source:  collection.SourceFunc[PendingONU](func(context.Context) ([]PendingONU, error) { return pendingONUs(), nil }),
		Mutator: &mockMutator{},
		Audit:   trail,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	_, err := svc.Authorize(context.Background(), "ZTEG0002", AuthorizeRequest{Profile: "fiber-100", CustomerID: "c-9"}, "")
	require.NoError(t, err)
	require.Len(t, trail.logs, 1)
	assert.Equal(t, "onu.authorize", trail.logs[0].Action)
	assert.Equal(t, "ZTEG0002", trail.logs[0].EntityID)
	assert.Equal(t, "olt-1", trail.logs[0].Meta["olt_id"])
}
