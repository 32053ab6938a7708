package middleware

import (
	"bytes"
	"crypto/subtle"
	"strings"

	"github.com/valyala/fasthttp"

	"fieldtrend/internal/config"
)

// InternalAuth guards internal-only endpoints (the aggregation trigger)
// with the configured bearer token. With no token configured the endpoint
// is disabled entirely.
func InternalAuth(cfg *config.Config) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			if cfg.InternalAPIKey == "" {
				ctx.SetStatusCode(fasthttp.StatusForbidden)
				ctx.SetBodyString("internal endpoints disabled")
				return
			}

			auth := ctx.Request.Header.Peek("Authorization")
			const prefix = "Bearer "
			if !bytes.HasPrefix(auth, []byte(prefix)) {
				ctx.SetStatusCode(fasthttp.StatusUnauthorized)
				ctx.SetBodyString("missing bearer token")
				return
			}

			token := strings.TrimSpace(string(auth[len(prefix):]))
			if subtle.ConstantTimeCompare([]byte(token), []byte(cfg.InternalAPIKey)) != 1 {
				ctx.SetStatusCode(fasthttp.StatusForbidden)
				ctx.SetBodyString("invalid token")
				return
			}

			next(ctx)
		}
	}
}
