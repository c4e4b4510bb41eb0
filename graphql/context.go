package graphql

import (
	"context"

	catalogService "launcher.GO/service/catalog"
)

// Context keys for resolver injection (avoids circular imports).
type contextKey string

const CtxKeyService contextKey = "catalogService"

// WithService attaches the registry service so extension resolvers can reach it.
func WithService(ctx context.Context, svc *catalogService.Service) context.Context {
	return context.WithValue(ctx, CtxKeyService, svc)
}

// ServiceFromContext returns the registry service for the current request, or nil.
func ServiceFromContext(ctx context.Context) *catalogService.Service {
	if svc, ok := ctx.Value(CtxKeyService).(*catalogService.Service); ok {
		return svc
	}
	return nil
}
