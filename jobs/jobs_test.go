package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jobmetrics "github.com/nocdesk/nocdesk/internal/jobs"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestTaskPayloads(t *testing.T) {
	task, err := NewRefreshTask("devices", "wifi")
	require.NoError(t, err)
	assert.Equal(t, TaskCollectionsRefresh, task.Type())
	assert.JSONEq(t, `{"collections":["devices","wifi"]}`, string(task.Payload()))

	task, err = NewRefreshTask()
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(task.Payload()))

	task, err = NewPurgeTask(0)
	require.NoError(t, err)
	var payload PurgePayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.Equal(t, DefaultAlertRetentionDays, payload.OlderThanDays)
}

type refreshLog struct {
	invalidated []string
	warmed      []string
}

func (l *refreshLog) refresher(name string, n int, err error) Refresher {
	return Refresher{
		Name: name,
		Invalidate: func(context.Context) error {
			l.invalidated = append(l.invalidated, name)
			return nil
		},
		Warm: func(context.Context) (int, error) {
			l.warmed = append(l.warmed, name)
			return n, err
		},
	}
}

func TestRefreshJob(t *testing.T) {
	log := &refreshLog{}
	job := NewRefreshJob([]Refresher{
		log.refresher("customers", 3, nil),
		log.refresher("devices", 5, nil),
		log.refresher("wifi", 2, nil),
	}, discardLogger(), jobmetrics.NewMetrics(prometheus.NewRegistry()))

	task, err := NewRefreshTask("devices")
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	assert.Equal(t, []string{"devices"}, log.invalidated)
	assert.Equal(t, []string{"devices"}, log.warmed)

	task, err = NewRefreshTask()
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	assert.Equal(t, []string{"devices", "customers", "devices", "wifi"}, log.warmed)
}

func TestRefreshJobContinuesAfterFailure(t *testing.T) {
	log := &refreshLog{}
	boom := errors.New("gateway timeout")
	job := NewRefreshJob([]Refresher{
		log.refresher("customers", 0, boom),
		log.refresher("devices", 5, nil),
	}, discardLogger(), jobmetrics.NewMetrics(prometheus.NewRegistry()))

	err := job.Handle(context.Background(), asynq.NewTask(TaskCollectionsRefresh, nil))
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "customers")
	assert.Equal(t, []string{"customers", "devices"}, log.warmed)
}

func TestRefreshJobBadPayload(t *testing.T) {
	job := NewRefreshJob(nil, discardLogger(), nil)
	err := job.Handle(context.Background(), asynq.NewTask(TaskCollectionsRefresh, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestWarmFunc(t *testing.T) {
	warm := WarmFunc(func(context.Context) ([]string, error) { return []string{"a", "b"}, nil })
	n, err := warm(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

type fakePurger struct {
	olderThan time.Duration
	deleted   int64
	err       error
}

func (f *fakePurger) PurgeResolved(_ context.Context, olderThan time.Duration) (int64, error) {
	f.olderThan = olderThan
	return f.deleted, f.err
}

type fakeCleaner struct{ calls []time.Duration }

func (f *fakeCleaner) Cleanup(_ context.Context, olderThan time.Duration) error {
	f.calls = append(f.calls, olderThan)
	return nil
}

func TestPurgeJob(t *testing.T) {
	purger := &fakePurger{deleted: 4}
	keys := &fakeCleaner{}
	job := NewPurgeJob(purger, keys, discardLogger(), jobmetrics.NewMetrics(prometheus.NewRegistry()))

	task, err := NewPurgeTask(7)
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	assert.Equal(t, 7*24*time.Hour, purger.olderThan)

	require.NoError(t, job.Handle(context.Background(), asynq.NewTask(TaskAlertsPurge, nil)))
	assert.Equal(t, 30*24*time.Hour, purger.olderThan)
	assert.Equal(t, []time.Duration{idempotencyKeyTTL, idempotencyKeyTTL}, keys.calls)

	err = job.Handle(context.Background(), asynq.NewTask(TaskAlertsPurge, []byte(`{"older_than_days":-1}`)))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	purger.err = errors.New("db down")
	assert.Error(t, job.Handle(context.Background(), task))
}

type fakeInspector struct {
	info *asynq.QueueInfo
	err  error
}

func (f fakeInspector) GetQueueInfo(string) (*asynq.QueueInfo, error) { return f.info, f.err }

func TestHealthHandler(t *testing.T) {
	serve := func(h *Handler) *httptest.ResponseRecorder {
		r := chi.NewRouter()
		h.MountRoutes(r)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		return rec
	}

	rec := serve(NewHandler(nil, discardLogger()))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"queue":"default","pending":0,"active":0,"retry":0,"failed":0}`, rec.Body.String())

	rec = serve(NewHandler(fakeInspector{info: &asynq.QueueInfo{Queue: "default", Pending: 3, Active: 1}}, discardLogger()))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"queue":"default","pending":3,"active":1,"retry":0,"failed":0}`, rec.Body.String())

	rec = serve(NewHandler(fakeInspector{err: errors.New("redis down")}, discardLogger()))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRedisConnOpt(t *testing.T) {
	opt, err := RedisConnOpt("127.0.0.1:6379")
	require.NoError(t, err)
	assert.Equal(t, asynq.RedisClientOpt{Addr: "127.0.0.1:6379"}, opt)

	opt, err = RedisConnOpt("redis://:pw@cache.internal:6380/3")
	require.NoError(t, err)
	client, ok := opt.(asynq.RedisClientOpt)
	require.True(t, ok)
	assert.Equal(t, "cache.internal:6380", client.Addr)
	assert.Equal(t, "pw", client.Password)
	assert.Equal(t, 3, client.DB)

	_, err = RedisConnOpt("memcached://cache.internal:11211")
	assert.Error(t, err)
}

type recordingEnqueuer struct {
	tasks  []*asynq.Task
	closed bool
}

func (r *recordingEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	r.tasks = append(r.tasks, task)
	return &asynq.TaskInfo{ID: "id-" + task.Type(), Type: task.Type(), Queue: QueueDefault}, nil
}

func (r *recordingEnqueuer) Close() error {
	r.closed = true
	return nil
}

func TestClientEnqueue(t *testing.T) {
	enq := &recordingEnqueuer{}
	client := NewClientWith(enq)

	info, err := client.EnqueueRefresh(context.Background(), "alerts")
	require.NoError(t, err)
	assert.Equal(t, TaskCollectionsRefresh, info.Type)

	_, err = client.EnqueuePurge(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, enq.tasks, 2)
	assert.JSONEq(t, `{"collections":["alerts"]}`, string(enq.tasks[0].Payload()))
	assert.JSONEq(t, `{"older_than_days":30}`, string(enq.tasks[1].Payload()))

	require.NoError(t, client.Close())
	assert.True(t, enq.closed)
}
