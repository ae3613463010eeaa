// Package actorctx carries the authenticated user's id on a plain
// context.Context, so layers below the HTTP handlers (logging, storage)
// can tag their work without importing gin.
package actorctx

import "context"

type ctxKey struct{}

func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, userID)
}

func UserIDFrom(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ctxKey{}).(string)

	return v, ok && v != ""
}
