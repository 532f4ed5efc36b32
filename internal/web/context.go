package web

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/oesreport/internal/core"
	"github.com/JonMunkholm/oesreport/internal/web/middleware"
)

// WithRequestMetadata adds the client IP and User-Agent to ctx so the run
// history records who generated a report.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	ctx = core.ContextWithIPAddress(ctx, middleware.ClientIP(r)) // after TrustedRealIP
	ctx = core.ContextWithUserAgent(ctx, r.UserAgent())
	return ctx
}
