package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Rwanda-Social-Security-Board/rsssb.newrelic.github/internal/httperr"
)

// HelloMessage is the body served on the root path.
const HelloMessage = "Hello World!"

func (s *Server) registerRoutes() {
	s.engine.GET(RootPath, hello)
	s.engine.GET(HealthzPath, healthz)
	s.engine.GET(ReadyzPath, s.readyz)

	if s.metrics != nil && s.config.MetricsPath != "" {
		s.engine.GET(s.config.MetricsPath, gin.WrapH(s.metrics.Handler()))
	}

	s.engine.NoRoute(notFound)
}

func hello(c *gin.Context) {
	c.String(http.StatusOK, HelloMessage)
}

func healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) readyz(c *gin.Context) {
	if !s.ready.Load() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// notFound hands unknown routes to the exception interceptor.
func notFound(c *gin.Context) {
	_ = c.Error(httperr.Errorf(http.StatusNotFound, "Cannot %s %s", c.Request.Method, c.Request.URL.Path))
}
