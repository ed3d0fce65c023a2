package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/fleet-backoffice/internal/middleware"
	"github.com/iliyamo/fleet-backoffice/internal/model"
)

// registerAdmin mounts user, role, permission, menu and audit routes. User
// administration also requires the ADMIN role.
func registerAdmin(api *echo.Group, h Handlers) {
	perm := func(code string) echo.MiddlewareFunc { return middleware.RequirePermission(h.Permissions, code) }
	// routes that change someone's navigation drop the cached menu trees
	purging := func(code string) []echo.MiddlewareFunc { return optional(perm(code), h.MenuPurge) }

	users := api.Group("/users", middleware.RequireRole(model.RoleAdmin))
	users.GET("", h.Users.List, perm(model.PermUsersView))
	users.GET("/:id", h.Users.Get, perm(model.PermUsersView))
	users.POST("", h.Users.Create, perm(model.PermUsersManage))
	users.PUT("/:id", h.Users.Update, purging(model.PermUsersManage)...)
	users.DELETE("/:id", h.Users.Delete, perm(model.PermUsersManage))

	api.GET("/roles", h.Access.ListRoles, perm(model.PermRolesView))
	api.PUT("/roles/:id/permissions", h.Access.AssignPermissions, purging(model.PermRolesManage)...)
	api.PUT("/roles/:id/menus", h.Access.AssignMenus, purging(model.PermRolesManage)...)
	api.GET("/permissions", h.Access.ListPermissions, perm(model.PermRolesView))

	// every signed-in user may read their own navigation
	api.GET("/menus/my", h.Access.MyMenus, optional(h.MenuCache)...)
	api.GET("/menus", h.Access.ListMenus, perm(model.PermMenusManage))
	api.POST("/menus", h.Access.CreateMenu, purging(model.PermMenusManage)...)
	api.PUT("/menus/:id", h.Access.UpdateMenu, purging(model.PermMenusManage)...)

	api.GET("/audit", h.Audit.Recent, perm(model.PermAuditView))
}
