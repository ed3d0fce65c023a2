// Package router wires handlers and middleware onto an echo instance.
package router

import (
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/fleet-backoffice/internal/handler"
	"github.com/iliyamo/fleet-backoffice/internal/logger"
	"github.com/iliyamo/fleet-backoffice/internal/middleware"
	"github.com/iliyamo/fleet-backoffice/internal/model"
	"github.com/iliyamo/fleet-backoffice/internal/service"
	"github.com/iliyamo/fleet-backoffice/internal/utils"
)

// Handlers collects everything the routes need. RateLimit, MenuCache,
// MenuPurge and AuditTrail may be nil.
type Handlers struct {
	Auth          *handler.AuthHandler
	Access        *handler.AccessHandler
	Users         *handler.CRUDHandler[service.UserInput, service.UserView]
	Vehicles      *handler.CRUDHandler[service.VehicleInput, *model.Vehicle]
	Drivers       *handler.CRUDHandler[service.DriverInput, *model.Driver]
	Customers     *handler.CRUDHandler[service.CustomerInput, *model.Customer]
	Organizations *handler.CRUDHandler[service.OrganizationInput, *model.Organization]
	Operations    *handler.OperationsHandler
	Mobile        *handler.MobileHandler
	Audit         *handler.AuditHandler
	Health        echo.HandlerFunc

	Tokens      utils.TokenSettings
	Permissions middleware.PermissionChecker
	RateLimit   echo.MiddlewareFunc
	MenuCache   echo.MiddlewareFunc
	MenuPurge   echo.MiddlewareFunc
	AuditTrail  echo.MiddlewareFunc
}

// New builds the echo instance with the global middleware and every route.
func New(h Handlers, corsOrigins []string, log logger.ILogger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handler.ErrorHandler(log)

	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{AllowOrigins: corsOrigins}))
	e.Use(requestLogger(log))
	e.Use(echomw.BodyLimit("25M"))
	if h.AuditTrail != nil {
		e.Use(h.AuditTrail)
	}

	e.GET("/healthz", h.Health)

	registerAuth(e, h)
	api := e.Group("/api", middleware.JWTAuth(h.Tokens))
	registerAdmin(api, h)
	registerMasterData(api, h)
	registerOperations(api, h)
	registerMobile(api, h)
	return e
}

// requestLogger writes one line per request through the application logger.
func requestLogger(log logger.ILogger) echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			fields := []logger.Field{
				logger.String("method", v.Method),
				logger.String("uri", v.URI),
				logger.Int("status", v.Status),
				logger.Duration("latency", v.Latency.Round(time.Microsecond)),
				logger.String("remote_ip", v.RemoteIP),
				logger.String("request_id", v.RequestID),
			}
			if v.Error != nil {
				log.Warning("request failed", append(fields, logger.Error(v.Error))...)
				return nil
			}
			log.Info("request", fields...)
			return nil
		},
	})
}

// optional skips nil middleware.
func optional(mws ...echo.MiddlewareFunc) []echo.MiddlewareFunc {
	out := make([]echo.MiddlewareFunc, 0, len(mws))
	for _, mw := range mws {
		if mw != nil {
			out = append(out, mw)
		}
	}
	return out
}

func registerAuth(e *echo.Echo, h Handlers) {
	login := optional(h.RateLimit)
	e.POST("/api/auth-local/login", h.Auth.Login, login...)
	e.POST("/api/Auth/login", h.Auth.Login, login...)
	e.POST("/api/auth/refresh", h.Auth.Refresh, login...)
	e.POST("/api/auth/logout", h.Auth.Logout)
	e.GET("/api/me", h.Auth.Me, middleware.JWTAuth(h.Tokens))
}
