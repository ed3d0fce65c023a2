package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/fleet-backoffice/internal/middleware"
	"github.com/iliyamo/fleet-backoffice/internal/model"
)

type crudRoutes interface {
	List(c echo.Context) error
	Get(c echo.Context) error
	Create(c echo.Context) error
	Update(c echo.Context) error
	Delete(c echo.Context) error
}

func registerMasterData(api *echo.Group, h Handlers) {
	for _, r := range []struct {
		path         string
		h            crudRoutes
		view, manage string
	}{
		{"/vehicles", h.Vehicles, model.PermVehiclesView, model.PermVehiclesManage},
		{"/drivers", h.Drivers, model.PermDriversView, model.PermDriversManage},
		{"/customers", h.Customers, model.PermCustomersView, model.PermCustomersManage},
		{"/organizations", h.Organizations, model.PermOrganizationsView, model.PermOrganizationsManage},
	} {
		view := middleware.RequirePermission(h.Permissions, r.view)
		manage := middleware.RequirePermission(h.Permissions, r.manage)
		g := api.Group(r.path)
		g.GET("", r.h.List, view)
		g.GET("/:id", r.h.Get, view)
		g.POST("", r.h.Create, manage)
		g.PUT("/:id", r.h.Update, manage)
		g.DELETE("/:id", r.h.Delete, manage)
	}
}
