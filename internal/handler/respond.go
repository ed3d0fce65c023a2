// Package handler exposes the services over echo. Every response uses the
// {success, data, errors} envelope of service.Result.
package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/fleet-backoffice/internal/logger"
	"github.com/iliyamo/fleet-backoffice/internal/repository"
	"github.com/iliyamo/fleet-backoffice/internal/service"
)

const (
	requestTimeout = 5 * time.Second
	invalidBody    = "Request body is invalid."
)

// envelope is the failure body for errors raised outside a service.
type envelope struct {
	Success bool     `json:"success"`
	Data    any      `json:"data"`
	Errors  []string `json:"errors"`
}

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// statusFor maps a service sentinel to its HTTP status.
func statusFor(cause error) int {
	switch {
	case errors.Is(cause, service.ErrValidation), errors.Is(cause, service.ErrDuplicate):
		return http.StatusBadRequest
	case errors.Is(cause, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(cause, service.ErrConflict):
		return http.StatusConflict
	case errors.Is(cause, service.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(cause, service.ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// respond writes res with status on success and with the status of its
// cause otherwise. err goes to the HTTP error handler untouched.
func respond[T any](c echo.Context, status int, res service.Result[T], err error) error {
	if err != nil {
		return err
	}
	if !res.Success {
		return c.JSON(statusFor(res.Cause()), res)
	}
	return c.JSON(status, res)
}

func badRequest(c echo.Context, msgs ...string) error {
	return c.JSON(http.StatusBadRequest, envelope{Errors: msgs})
}

// pathID parses the :name route parameter as a UUID.
func pathID(c echo.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.FromString(c.Param(name))
	return id, err == nil
}

func invalidID(c echo.Context) error {
	return badRequest(c, "Identifier is not a valid UUID.")
}

// queryID parses an optional UUID query parameter. A present but malformed
// value reports ok=false.
func queryID(c echo.Context, name string) (*uuid.UUID, bool) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, true
	}
	id, err := uuid.FromString(raw)
	if err != nil {
		return nil, false
	}
	return &id, true
}

// ErrorHandler renders errors that escaped the handlers. Store failures
// and anything unexpected become a generic 500 and are logged.
func ErrorHandler(log logger.ILogger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		status := http.StatusInternalServerError
		msg := "Internal server error."
		var he *echo.HTTPError
		switch {
		case errors.As(err, &he):
			status = he.Code
			msg = http.StatusText(he.Code)
			if s, ok := he.Message.(string); ok {
				msg = s
			}
		case errors.Is(err, context.DeadlineExceeded):
			status = http.StatusServiceUnavailable
			msg = "Request timed out."
		case repository.IsPersistence(err):
			log.Error("store rejected change set", logger.String("path", c.Path()), logger.Error(err))
		default:
			log.Error("unhandled error", logger.String("path", c.Path()), logger.Error(err))
		}
		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, envelope{Errors: []string{msg}})
		}
		if err != nil {
			log.Warning("error response not written", logger.Error(err))
		}
	}
}
