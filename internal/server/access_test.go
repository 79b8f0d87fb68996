package server

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Rwanda-Social-Security-Board/rsssb.newrelic.github/internal/interceptor"
	"github.com/Rwanda-Social-Security-Board/rsssb.newrelic.github/internal/observability"
)

func TestAccessLog(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	logger := observability.NewLoggerWithCore(core)

	cfg := DefaultConfig()
	cfg.AccessLog = true
	s := New(cfg, interceptor.New(logger, nil), logger)
	s.Engine().GET("/divide", func(*gin.Context) {
		panic(errors.New("divide by zero"))
	})

	do(s, http.MethodGet, "/?token=abc&page=2", nil)
	do(s, http.MethodGet, "/healthz", nil)
	do(s, http.MethodGet, "/divide", nil)

	access := logs.FilterMessage("request completed").All()
	require.Len(t, access, 2, "probe paths are not logged")

	assert.Equal(t, zapcore.InfoLevel, access[0].Level)
	assert.Equal(t, "token=[REDACTED]&page=2", access[0].ContextMap()["query"])
	assert.NotEmpty(t, access[0].ContextMap()["request_id"])

	assert.Equal(t, zapcore.WarnLevel, access[1].Level)
	assert.Equal(t, int64(http.StatusInternalServerError), access[1].ContextMap()["status"])

	errorsLogged := logs.FilterLevelExact(zapcore.ErrorLevel).All()
	require.Len(t, errorsLogged, 1, "only the interceptor logs at error level")
	assert.Equal(t, "divide by zero", errorsLogged[0].Message)
}

func TestRedactQueryParams(t *testing.T) {
	t.Parallel()

	sensitive := map[string]bool{"password": true}

	assert.Equal(t, "user=a&PASSWORD=[REDACTED]", redactQueryParams("user=a&PASSWORD=x", sensitive))
	assert.Equal(t, "flag&x=1", redactQueryParams("flag&x=1", sensitive))
}

func TestAccessLog_NilLogger(t *testing.T) {
	t.Parallel()

	engine := gin.New()
	engine.Use(AccessLog(AccessLogConfig{}))
	engine.GET("/", hello)

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
