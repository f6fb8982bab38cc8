package shared

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type argsExec struct {
	args [][]any
}

func (a *argsExec) Exec(_ context.Context, _ string, args ...any) (pgconn.CommandTag, error) {
	a.args = append(a.args, args)
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func TestAuditRecord(t *testing.T) {
	exec := &argsExec{}
	audit := NewAuditLogger(exec, nil)
	at := time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC)

	ctx := ContextWithActor(context.Background(), "ops.rita")
	require.NoError(t, audit.Record(ctx, AuditLog{Action: "alert.ack", Entity: "alert", EntityID: "a1", At: at}))
	require.Len(t, exec.args, 1)
	assert.Equal(t, "ops.rita", exec.args[0][0])
	assert.Equal(t, []byte(`{}`), exec.args[0][4])
	assert.Equal(t, at, exec.args[0][5])

	require.NoError(t, audit.Record(context.Background(), AuditLog{Action: "wifi.update", Entity: "wifi", EntityID: "cpe-1", Meta: map[string]any{"fields": 2}}))
	assert.Equal(t, AnonymousActor, exec.args[1][0])
	assert.Equal(t, []byte(`{"fields":2}`), exec.args[1][4])

	assert.Error(t, audit.Record(ctx, AuditLog{Action: "alert.ack"}))
}

func TestAuditNil(t *testing.T) {
	var audit *AuditLogger
	assert.Error(t, audit.Record(context.Background(), AuditLog{Action: "a", Entity: "b", EntityID: "c"}))
	audit.Track(context.Background(), AuditLog{})
}

func TestActorFromContext(t *testing.T) {
	assert.Equal(t, AnonymousActor, ActorFromContext(context.Background()))
	assert.Equal(t, AnonymousActor, ActorFromContext(ContextWithActor(context.Background(), "")))
	assert.Equal(t, "noc", ActorFromContext(ContextWithActor(context.Background(), "noc")))
}
