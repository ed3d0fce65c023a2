package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/fleet-backoffice/internal/middleware"
	"github.com/iliyamo/fleet-backoffice/internal/model"
)

// registerMobile mounts the driver app. Staff may call it on behalf of a
// driver with ?driverId=.
func registerMobile(api *echo.Group, h Handlers) {
	g := api.Group("/mobile/driver",
		middleware.RequireRole(model.RoleDriver, model.RoleDispatcher, model.RoleAdmin),
		middleware.RequirePermission(h.Permissions, model.PermMobileDriver),
	)
	g.GET("/trips", h.Mobile.Trips)
	g.POST("/trip/:id/start", h.Mobile.StartTrip)
	g.POST("/trip/:id/complete", h.Mobile.CompleteTrip)
	g.POST("/job/:id/pod", h.Mobile.POD)
	g.POST("/location", h.Mobile.Location)
}
