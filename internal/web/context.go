package web

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/namematch/internal/core"
	mw "github.com/JonMunkholm/namematch/internal/web/middleware"
)

// WithRequestMetadata adds the client IP and User-Agent recorded in the
// audit trail.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	ctx = core.ContextWithIPAddress(ctx, mw.ClientIP(r))
	ctx = core.ContextWithUserAgent(ctx, r.UserAgent())
	return ctx
}
