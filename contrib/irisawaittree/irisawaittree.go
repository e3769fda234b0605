// Package irisawaittree registers a fresh await-tree for every request
// handled by an iris.Application.
package irisawaittree

import (
	"context"
	"net/http"

	"github.com/kataras/iris"

	"github.com/awaittree/awaittree-go"
)

const contextKey = "awaittree.context"

// New returns an iris.Handler that registers a root span named after the
// request's method and path in reg and installs it as the request's
// ambient Context.
func New(reg *awaittree.Registry, cfg awaittree.Config) iris.Handler {
	return func(ctx iris.Context) {
		req := ctx.Request()
		key := req.Method + " " + ctx.Path()
		span := awaittree.Spanf("%s %s", req.Method, ctx.Path())
		handle := awaittree.Register(reg, key, span, cfg)

		awaittree.Instrument(req.Context(), handle, func(c context.Context) {
			ctx.ResetRequest(req.WithContext(c))
			ctx.Values().Set(contextKey, handle.Context())
			ctx.Next()
		})
	}
}

// GetContext returns the await-tree Context installed by New for the
// current request, if any.
func GetContext(ctx iris.Context) (*awaittree.Context, bool) {
	tc, ok := ctx.Values().Get(contextKey).(*awaittree.Context)
	return tc, ok
}

// DebugHandler serves the live await-tree for the request that hit it.
func DebugHandler(ctx iris.Context) {
	tc, ok := GetContext(ctx)
	if !ok {
		ctx.StatusCode(http.StatusNotFound)
		return
	}
	ctx.WriteString(tc.Snapshot().String())
}
