// Package fasthttpawaittree registers a fresh await-tree for every request
// handled by a fasthttp.RequestHandler.
package fasthttpawaittree

import (
	"context"

	"github.com/valyala/fasthttp"

	"github.com/awaittree/awaittree-go"
)

const userValueKey = "awaittree.context"

// Wrap returns a fasthttp.RequestHandler that registers a root span named
// after the request's method and path in reg and stores its Context in the
// RequestCtx's user values before calling next. fasthttp.RequestCtx already
// implements context.Context, so it is used directly as the parent passed to
// awaittree.Instrument; next receives that original RequestCtx, which does
// not carry the tree binding, so the Context is reachable only through
// GetContext.
func Wrap(reg *awaittree.Registry, cfg awaittree.Config, next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		key := string(ctx.Method()) + " " + string(ctx.Path())
		span := awaittree.Spanf("%s %s", ctx.Method(), ctx.Path())
		handle := awaittree.Register(reg, key, span, cfg)

		awaittree.Instrument(context.Context(ctx), handle, func(context.Context) {
			ctx.SetUserValue(userValueKey, handle.Context())
			next(ctx)
		})
	}
}

// GetContext returns the await-tree Context installed by Wrap for ctx, if
// any.
func GetContext(ctx *fasthttp.RequestCtx) (*awaittree.Context, bool) {
	tc, ok := ctx.UserValue(userValueKey).(*awaittree.Context)
	return tc, ok
}

// DebugHandler serves the live await-tree for the request that hit it.
func DebugHandler(ctx *fasthttp.RequestCtx) {
	tc, ok := GetContext(ctx)
	if !ok {
		ctx.SetStatusCode(404)
		return
	}
	ctx.SetBodyString(tc.Snapshot().String())
}
