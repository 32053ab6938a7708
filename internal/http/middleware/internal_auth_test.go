package middleware

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/valyala/fasthttp"

	"fieldtrend/internal/config"
)

func callInternal(cfg *config.Config, authHeader string) (*fasthttp.RequestCtx, bool) {
	called := false
	handler := InternalAuth(cfg)(func(ctx *fasthttp.RequestCtx) {
		called = true
		ctx.SetStatusCode(fasthttp.StatusOK)
	})

	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod(fasthttp.MethodPost)
	ctx.Request.SetRequestURI("/internal/aggregates/update")
	if authHeader != "" {
		ctx.Request.Header.Set("Authorization", authHeader)
	}
	handler(ctx)
	return ctx, called
}

func TestInternalAuthAcceptsConfiguredToken(t *testing.T) {
	cfg := &config.Config{InternalAPIKey: "hunter2"}

	ctx, called := callInternal(cfg, "Bearer hunter2")
	assert.True(t, called)
	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
}

func TestInternalAuthRejectsWrongToken(t *testing.T) {
	cfg := &config.Config{InternalAPIKey: "hunter2"}

	ctx, called := callInternal(cfg, "Bearer nope")
	assert.False(t, called)
	assert.Equal(t, fasthttp.StatusForbidden, ctx.Response.StatusCode())
}

func TestInternalAuthRejectsMissingHeader(t *testing.T) {
	cfg := &config.Config{InternalAPIKey: "hunter2"}

	ctx, called := callInternal(cfg, "")
	assert.False(t, called)
	assert.Equal(t, fasthttp.StatusUnauthorized, ctx.Response.StatusCode())
}

func TestInternalAuthDisabledWithoutKey(t *testing.T) {
	cfg := &config.Config{}

	ctx, called := callInternal(cfg, "Bearer anything")
	assert.False(t, called)
	assert.Equal(t, fasthttp.StatusForbidden, ctx.Response.StatusCode())
}
