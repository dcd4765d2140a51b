package web

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/sheetdocs/internal/core"
)

// withRequestMetadata adds the client IP and User-Agent to ctx so that
// mutation logs name their caller.
func withRequestMetadata(r *http.Request) context.Context {
	ctx := core.ContextWithIPAddress(r.Context(), r.RemoteAddr) // resolved by TrustedRealIP
	return core.ContextWithUserAgent(ctx, r.Header.Get("User-Agent"))
}
