// Package martiniawaittree registers a fresh await-tree for every request
// handled by a martini.ClassicMartini, using martini's own dependency
// injection to hand the Context to downstream handlers.
package martiniawaittree

import (
	"context"
	"net/http"

	"github.com/go-martini/martini"

	"github.com/awaittree/awaittree-go"
)

// New returns a martini.Handler that registers a root span named after the
// request's method and path in reg, installs it as the request's ambient
// Context, and maps the resulting *awaittree.Context into martini's
// injector so handlers can take it as a plain argument.
func New(reg *awaittree.Registry, cfg awaittree.Config) martini.Handler {
	return func(res http.ResponseWriter, req *http.Request, c martini.Context) {
		key := req.Method + " " + req.URL.Path
		span := awaittree.Spanf("%s %s", req.Method, req.URL.Path)
		handle := awaittree.Register(reg, key, span, cfg)

		awaittree.Instrument(req.Context(), handle, func(ctx context.Context) {
			c.Map(req.WithContext(ctx))
			c.Map(handle.Context())
			c.Next()
		})
	}
}

// DebugHandler serves the live await-tree for the request that hit it. Mount
// it behind New so the *awaittree.Context injection has already happened.
func DebugHandler(tc *awaittree.Context) string {
	return tc.Snapshot().String()
}
