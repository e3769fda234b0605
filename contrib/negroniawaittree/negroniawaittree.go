// Package negroniawaittree registers a fresh await-tree for every request
// passing through a negroni.Negroni chain.
package negroniawaittree

import (
	"context"
	"net/http"

	"github.com/urfave/negroni"

	"github.com/awaittree/awaittree-go"
)

type contextKey struct{}

// New returns a negroni.Handler that registers a root span named after the
// request's method and path in reg and installs it as the request's
// ambient Context before calling the next handler in the chain.
func New(reg *awaittree.Registry, cfg awaittree.Config) negroni.Handler {
	return negroni.HandlerFunc(func(w http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
		key := r.Method + " " + r.URL.Path
		span := awaittree.Spanf("%s %s", r.Method, r.URL.Path)
		handle := awaittree.Register(reg, key, span, cfg)

		awaittree.Instrument(r.Context(), handle, func(ctx context.Context) {
			ctx = context.WithValue(ctx, contextKey{}, handle.Context())
			next(w, r.WithContext(ctx))
		})
	})
}

// GetContext returns the await-tree Context installed by New for r, if any.
func GetContext(r *http.Request) (*awaittree.Context, bool) {
	tc, ok := r.Context().Value(contextKey{}).(*awaittree.Context)
	return tc, ok
}

// DebugHandler serves the live await-tree for the request that hit it.
func DebugHandler(w http.ResponseWriter, r *http.Request) {
	tc, ok := GetContext(r)
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.Write([]byte(tc.Snapshot().String()))
}
