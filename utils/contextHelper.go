package utils

import (
	"context"

	"github.com/mmdatafocus/distribution_backend/appctx"
)

// Session and tracing values placed on the request context by the gin
// middlewares and read back by models, workflow and logging.

func GetTokenFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, appctx.ContextKeyToken)
}

func SetTokenInContext(ctx context.Context, token string) context.Context {
	return appctx.Set(ctx, appctx.ContextKeyToken, token)
}

func GetCorrelationIdFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, appctx.ContextKeyCorrelationId)
}

func SetCorrelationIdInContext(ctx context.Context, correlationId string) context.Context {
	return appctx.Set(ctx, appctx.ContextKeyCorrelationId, correlationId)
}

// GetCurrentUser returns the session user placed on ctx by the session middleware.
func GetCurrentUser(ctx context.Context) (appctx.CurrentUser, bool) {
	return appctx.UserFrom(ctx)
}

func SetCurrentUser(ctx context.Context, u appctx.CurrentUser) context.Context {
	return appctx.WithUser(ctx, u)
}
