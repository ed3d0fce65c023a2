package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/fleet-backoffice/internal/logger"
	"github.com/iliyamo/fleet-backoffice/internal/queue"
)

var audited = map[string]bool{
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodPatch:  true,
	http.MethodDelete: true,
}

// Audit publishes one queue.AuditEvent per mutating request once the
// response is written. A failed publish is logged and never changes the
// response.
func Audit(pub queue.Publisher, log logger.ILogger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if !audited[req.Method] {
				return next(c)
			}
			start := time.Now()
			if err := next(c); err != nil {
				c.Error(err)
			}

			ev := queue.AuditEvent{
				Method:     req.Method,
				Path:       req.URL.Path,
				StatusCode: c.Response().Status,
				DurationMs: time.Since(start).Milliseconds(),
				RemoteIP:   c.RealIP(),
				OccurredAt: start.UTC(),
			}
			if id, ok := IdentityFrom(c); ok {
				ev.UserID = id.UserID.String()
				ev.Username = id.Username
			}
			if err := pub.Publish(context.WithoutCancel(req.Context()), queue.AuditQueue, ev); err != nil {
				log.Warning("audit publish failed", logger.String("path", ev.Path), logger.Error(err))
			}
			return nil
		}
	}
}
