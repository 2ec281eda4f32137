package middleware

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/stretchr/testify/assert"
)

func TestLogger_TagsRequestsWithIDAndIdentity(t *testing.T) {
	tests := []struct {
		name         string
		identity     string
		wantIdentity bool
	}{
		{"identified", "alice", true},
		{"anonymous", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			e := echo.New()
			e.Use(echomw.RequestID())
			e.GET("/", func(c echo.Context) error {
				FromContext(c.Request().Context()).Info("handled")
				return c.NoContent(http.StatusOK)
			}, asIdentity(tt.identity), Logger(slog.New(slog.NewJSONHandler(&buf, nil))))

			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

			assert.Contains(t, buf.String(), `"request_id":"`+rec.Header().Get(echo.HeaderXRequestID)+`"`)
			if tt.wantIdentity {
				assert.Contains(t, buf.String(), `"identity":"alice"`)
			} else {
				assert.NotContains(t, buf.String(), `"identity"`)
			}
		})
	}
}

func TestFromContext(t *testing.T) {
	assert.Same(t, slog.Default(), FromContext(context.Background()))

	custom := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	assert.Same(t, custom, FromContext(WithLogger(context.Background(), custom)))
}
