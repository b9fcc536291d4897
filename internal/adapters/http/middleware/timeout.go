package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
)

// SimpleTimeout returns middleware that sets a server-side deadline on the
// request context without attempting to abort on timeout.
//
// Handlers detach from client cancellation but keep this deadline, so it acts
// as a ceiling above the per-call upstream timeouts.
func SimpleTimeout(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// Detach returns a context that survives client disconnects but keeps the
// parent's values and deadline, if any.
func Detach(parent context.Context) (context.Context, context.CancelFunc) {
	ctx := context.WithoutCancel(parent)

	if deadline, ok := parent.Deadline(); ok {
		return context.WithDeadline(ctx, deadline)
	}

	return ctx, func() {}
}
