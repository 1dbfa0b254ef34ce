// Package middleware provides HTTP middleware components.
package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"branchpos/internal/core/apperror"
	"branchpos/pkg/logger"
)

// Recovery turns a handler panic into a 500. It sits outside Tenancy, so by
// the time the panic arrives here the scope has already reset its session and
// released its connection.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}

			logger.Error(c.Request.Context(), "panic recovered",
				"panic", rec,
				"route", c.FullPath(),
				"stack", string(debug.Stack()),
			)

			// ErrorHandler was unwound by the panic, so the response is written here.
			if c.Writer.Written() {
				c.Abort()
				return
			}
			writeError(c, apperror.NewInternal(fmt.Errorf("panic: %v", rec)))
		}()
		c.Next()
	}
}
