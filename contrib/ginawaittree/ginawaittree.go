// Package ginawaittree registers a fresh await-tree for every request
// handled by a gin.Engine, the same per-request-hub pattern sentrygin uses
// for error capture, adapted here to tree registration.
package ginawaittree

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/awaittree/awaittree-go"
)

const contextKey = "awaittree.context"

// New returns a gin.HandlerFunc that registers a root span named after the
// request's method and path in reg, installs it as the request's ambient
// Context via awaittree.Instrument, and stores it in the gin.Context so
// downstream handlers can retrieve it with GetContext.
func New(reg *awaittree.Registry, cfg awaittree.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.Request.Method + " " + c.FullPath()
		span := awaittree.Spanf("%s %s", c.Request.Method, c.FullPath())
		handle := awaittree.Register(reg, key, span, cfg)

		awaittree.Instrument(c.Request.Context(), handle, func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Set(contextKey, handle.Context())
			c.Next()
		})
	}
}

// GetContext returns the await-tree Context installed by New for the
// current request, if any.
func GetContext(c *gin.Context) (*awaittree.Context, bool) {
	v, ok := c.Get(contextKey)
	if !ok {
		return nil, false
	}
	tc, ok := v.(*awaittree.Context)
	return tc, ok
}

// DebugHandler serves the live await-tree for the request that hit it,
// rendered with Tree.String(), or 404 if no tree is installed. Mount it on
// whatever debug route an operator wants to curl.
func DebugHandler(c *gin.Context) {
	tc, ok := GetContext(c)
	if !ok {
		c.Status(http.StatusNotFound)
		return
	}
	c.String(http.StatusOK, tc.Snapshot().String())
}
