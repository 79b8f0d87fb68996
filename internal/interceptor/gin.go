package interceptor

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
)

// Gin returns a gin middleware that routes panics, and the last error a
// handler attached with c.Error, to h. Register it with engine.Use so it
// also covers NoRoute handlers.
//
// An error attached after the response was written is left to gin. When h
// cannot write the response, its error is attached to the context.
func Gin(h ExceptionHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			exc := recover()
			if exc == nil {
				return
			}
			if exc == http.ErrAbortHandler { //nolint:errorlint // sentinel compared as net/http does
				panic(exc)
			}

			c.Request = withRecoveredStack(c.Request, debug.Stack())
			respond(c, h, exc)
		}()

		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		respond(c, h, c.Errors.Last().Err)
	}
}

func respond(c *gin.Context, h ExceptionHandler, exc any) {
	if err := h.HandleException(c.Writer, c.Request, exc); err != nil {
		_ = c.Error(err)
	}
	c.Abort()
}
