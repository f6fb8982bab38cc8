package shared

import "context"

// AnonymousActor is recorded when a request names no operator.
const AnonymousActor = "anonymous"

type actorContextKey struct{}

// ContextWithActor stores the operator acting on the request.
func ContextWithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext returns the operator, or AnonymousActor.
func ActorFromContext(ctx context.Context) string {
	if actor, ok := ctx.Value(actorContextKey{}).(string); ok && actor != "" {
		return actor
	}
	return AnonymousActor
}
