package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/harvest-market-backend/internal/identity"
	"github.com/shinyyama/harvest-market-backend/internal/reqctx"
	"github.com/shinyyama/harvest-market-backend/internal/repository"
	"github.com/stretchr/testify/require"
)

type stubResolver map[string]identity.Actor

func (s stubResolver) Resolve(_ context.Context, uid string) (identity.Actor, error) {
	switch uid {
	case "down":
		return nil, repository.ErrDBNotReady
	case "broken":
		return nil, errors.New("boom")
	}
	a, ok := s[uid]
	if !ok {
		return nil, identity.ErrUnknownUser
	}
	return a, nil
}

func TestDevRequireAuth(t *testing.T) {
	mw := NewDevAuthMiddleware(stubResolver{"v1": identity.Vendor{ID: 7, VendorID: 2}})

	tests := []struct {
		name   string
		uid    string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"unknown user", "nobody", http.StatusUnauthorized},
		{"database starting", "down", http.StatusServiceUnavailable},
		{"resolver failure", "broken", http.StatusInternalServerError},
		{"known vendor", "v1", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.uid != "" {
				req.Header.Set(DevUIDHeader, tt.uid)
			}
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			var seen identity.Actor
			var ctxUser uint64
			h := mw.RequireAuth(func(c echo.Context) error {
				seen, _ = ActorFrom(c)
				ctxUser = reqctx.UserID(c.Request().Context())
				return c.NoContent(http.StatusOK)
			})
			require.NoError(t, h(c))
			require.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusOK {
				require.Equal(t, identity.Vendor{ID: 7, VendorID: 2}, seen)
				require.EqualValues(t, 7, ctxUser)
			}
		})
	}
}

func TestRequestIDPropagatesToContext(t *testing.T) {
	e := echo.New()
	e.Use(RequestID())
	var rid string
	e.GET("/", func(c echo.Context) error {
		rid = reqctx.RID(c.Request().Context())
		return c.NoContent(http.StatusOK)
	})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NotEmpty(t, rid)
	require.Equal(t, rid, rec.Header().Get(echo.HeaderXRequestID))
}
