// Package echoawaittree registers a fresh await-tree for every request
// handled by an echo.Echo instance.
package echoawaittree

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/awaittree/awaittree-go"
)

const contextKey = "awaittree.context"

// New returns an echo.MiddlewareFunc that registers a root span named after
// the request's method and path in reg and installs it as the request's
// ambient Context.
func New(reg *awaittree.Registry, cfg awaittree.Config) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			key := req.Method + " " + c.Path()
			span := awaittree.Spanf("%s %s", req.Method, c.Path())
			handle := awaittree.Register(reg, key, span, cfg)

			var err error
			awaittree.Instrument(req.Context(), handle, func(ctx context.Context) {
				c.SetRequest(req.WithContext(ctx))
				c.Set(contextKey, handle.Context())
				err = next(c)
			})
			return err
		}
	}
}

// GetContext returns the await-tree Context installed by New for the
// current request, if any.
func GetContext(c echo.Context) (*awaittree.Context, bool) {
	tc, ok := c.Get(contextKey).(*awaittree.Context)
	return tc, ok
}

// DebugHandler serves the live await-tree for the request that hit it.
func DebugHandler(c echo.Context) error {
	tc, ok := GetContext(c)
	if !ok {
		return c.NoContent(http.StatusNotFound)
	}
	return c.String(http.StatusOK, tc.Snapshot().String())
}
