package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/fleet-backoffice/internal/logger"
	"github.com/iliyamo/fleet-backoffice/internal/repository"
	"github.com/iliyamo/fleet-backoffice/internal/service"
)

func TestStatusFor(t *testing.T) {
	t.Parallel()
	cases := []struct {
		cause error
		want  int
	}{
		{service.ErrValidation, http.StatusBadRequest},
		{service.ErrDuplicate, http.StatusBadRequest},
		{service.ErrNotFound, http.StatusNotFound},
		{service.ErrConflict, http.StatusConflict},
		{service.ErrUnauthorized, http.StatusUnauthorized},
		{service.ErrForbidden, http.StatusForbidden},
		{fmt.Errorf("wrapped: %w", service.ErrConflict), http.StatusConflict},
		{service.ErrMenuCycle, http.StatusInternalServerError},
		{nil, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, statusFor(tc.cause), "%v", tc.cause)
	}
}

func TestErrorHandler(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name string
		err  error
		code int
		body string
	}{
		{"http error", echo.NewHTTPError(http.StatusTeapot, "short and stout"), http.StatusTeapot, `["short and stout"]`},
		{"not found", echo.ErrNotFound, http.StatusNotFound, `["Not Found"]`},
		{"persistence", &repository.PersistenceError{Op: "insert trips", Err: errors.New("constraint")}, http.StatusInternalServerError, `["Internal server error."]`},
		{"timeout", fmt.Errorf("select: %w", context.DeadlineExceeded), http.StatusServiceUnavailable, `["Request timed out."]`},
		{"menu cycle", service.ErrMenuCycle, http.StatusInternalServerError, `["Internal server error."]`},
	}
	h := ErrorHandler(logger.NewNop())
	e := echo.New()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			rec := httptest.NewRecorder()
			h(tc.err, e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec))
			require.Equal(t, tc.code, rec.Code)
			require.JSONEq(t, `{"success":false,"data":null,"errors":`+tc.body+`}`, rec.Body.String())
		})
	}
}
