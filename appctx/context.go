package appctx

import "context"

// ContextKey types every value this service stores on a request context.
// It lives below config and utils so both can read it.
type ContextKey string

func (c ContextKey) String() string { return string(c) }

const (
	ContextKeyToken         ContextKey = "Token"
	ContextKeyCorrelationId ContextKey = "CorrelationId"
	contextKeyUser          ContextKey = "CurrentUser"
)

// Value returns the T stored under key, if any.
func Value[T any](ctx context.Context, key ContextKey) (T, bool) {
	v, ok := ctx.Value(key).(T)
	return v, ok
}

func GetString(ctx context.Context, key ContextKey) (string, bool) {
	return Value[string](ctx, key)
}

func Set(ctx context.Context, key ContextKey, value any) context.Context {
	return context.WithValue(ctx, key, value)
}
