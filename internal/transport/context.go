package transport

import (
	"context"
	"net/http"

	"voltmart/internal/catalog"
	"voltmart/internal/middleware"
)

// upstreamContext forwards the caller's bearer token, when present, so
// upstream calls carry the user's identity.
func upstreamContext(r *http.Request) context.Context {
	ctx := r.Context()
	if token, ok := middleware.GetRawToken(ctx); ok {
		return catalog.WithToken(ctx, token)
	}
	return ctx
}
