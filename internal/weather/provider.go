package weather

import (
	"context"
)

// Provider abstracts the upstream forecast source.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, loc Location) (Report, error)
}

type forcedKey struct{}

// WithForced marks ctx as carrying a user-initiated fetch. Providers let such
// fetches through even while their circuit breaker is open.
func WithForced(ctx context.Context) context.Context {
	return context.WithValue(ctx, forcedKey{}, true)
}

// IsForced reports whether ctx was marked by WithForced.
func IsForced(ctx context.Context) bool {
	forced, _ := ctx.Value(forcedKey{}).(bool)
	return forced
}
