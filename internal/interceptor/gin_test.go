package interceptor

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rwanda-Social-Security-Board/rsssb.newrelic.github/internal/httperr"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newGinEngine(h ExceptionHandler) *gin.Engine {
	engine := gin.New()
	engine.Use(Gin(h))

	engine.GET("/ok", func(c *gin.Context) {
		c.String(http.StatusOK, "Hello World!")
	})
	engine.GET("/divide", func(*gin.Context) {
		panic(errors.New("divide by zero"))
	})
	engine.GET("/string", func(*gin.Context) {
		panic("boom")
	})
	engine.GET("/users/:id", func(c *gin.Context) {
		_ = c.Error(httperr.NotFound(""))
	})
	engine.GET("/written", func(c *gin.Context) {
		c.String(http.StatusAccepted, "accepted")
		_ = c.Error(errors.New("late"))
	})
	engine.NoRoute(func(c *gin.Context) {
		_ = c.Error(httperr.Errorf(http.StatusNotFound, "Cannot %s %s", c.Request.Method, c.Request.URL.Path))
	})
	return engine
}

func TestGin(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path       string
		wantCode   int
		wantBody   string
		wantNotice bool
	}{
		{"/ok", http.StatusOK, "Hello World!", false},
		{"/divide", http.StatusInternalServerError, `{"statusCode":500,"message":"divide by zero"}`, true},
		{"/string", http.StatusInternalServerError, `{"statusCode":500,"message":"Unexpected error"}`, true},
		{"/users/7", http.StatusNotFound, `{"statusCode":404,"message":"Not Found"}`, true},
		{"/nowhere", http.StatusNotFound, `{"statusCode":404,"message":"Cannot GET /nowhere"}`, true},
		{"/written", http.StatusAccepted, "accepted", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()

			notifier := &fakeNotifier{}
			engine := newGinEngine(New(nil, notifier))

			rec := httptest.NewRecorder()
			engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantBody, rec.Body.String())

			notices := notifier.all()
			if tt.wantNotice {
				require.Len(t, notices, 1)
				assert.Equal(t, tt.path, notices[0].path)
			} else {
				assert.Empty(t, notices)
			}
		})
	}
}

func TestGin_HandlerFailureIsAttached(t *testing.T) {
	t.Parallel()

	writeErr := errors.New("client went away")
	h := ExceptionHandlerFunc(func(http.ResponseWriter, *http.Request, any) error {
		return writeErr
	})

	var attached []error
	engine := gin.New()
	engine.Use(func(c *gin.Context) {
		c.Next()
		for _, e := range c.Errors {
			attached = append(attached, e.Err)
		}
	})
	engine.Use(Gin(h))
	engine.GET("/", func(*gin.Context) {
		panic("boom")
	})

	engine.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Contains(t, attached, writeErr)
}
