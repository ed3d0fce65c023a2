package handler

import (
	"net/http"

	"github.com/gofrs/uuid/v5"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/fleet-backoffice/internal/middleware"
	"github.com/iliyamo/fleet-backoffice/internal/service"
)

// AccessHandler serves roles, the permission catalogue and menus.
type AccessHandler struct {
	Roles       *service.RoleService
	Permissions *service.PermissionService
	Menus       *service.MenuService
}

func NewAccessHandler(roles *service.RoleService, perms *service.PermissionService, menus *service.MenuService) *AccessHandler {
	if roles == nil || perms == nil || menus == nil {
		panic("nil service passed to NewAccessHandler")
	}
	return &AccessHandler{Roles: roles, Permissions: perms, Menus: menus}
}

type permissionsReq struct {
	Permissions []string `json:"permissions"`
}

type menusReq struct {
	MenuIDs []uuid.UUID `json:"menuIds"`
}

func (h *AccessHandler) ListRoles(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	res, err := h.Roles.List(ctx)
	return respond(c, http.StatusOK, res, err)
}

// AssignPermissions replaces the role's permission set with the given codes.
func (h *AccessHandler) AssignPermissions(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return invalidID(c)
	}
	var req permissionsReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, invalidBody)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	res, err := h.Roles.AssignPermissions(ctx, id, req.Permissions)
	return respond(c, http.StatusOK, res, err)
}

// AssignMenus replaces the role's menu set.
func (h *AccessHandler) AssignMenus(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return invalidID(c)
	}
	var req menusReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, invalidBody)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	res, err := h.Roles.AssignMenus(ctx, id, req.MenuIDs)
	return respond(c, http.StatusOK, res, err)
}

func (h *AccessHandler) ListPermissions(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	res, err := h.Permissions.Grouped(ctx)
	return respond(c, http.StatusOK, res, err)
}

// MyMenus returns the menu tree of the caller. A cycle in the stored
// hierarchy surfaces as a 500.
func (h *AccessHandler) MyMenus(c echo.Context) error {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return echo.ErrUnauthorized
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	tree, err := h.Menus.MenuTree(ctx, id.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, envelope{Success: true, Data: tree, Errors: []string{}})
}

func (h *AccessHandler) ListMenus(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	res, err := h.Menus.List(ctx)
	return respond(c, http.StatusOK, res, err)
}

func (h *AccessHandler) CreateMenu(c echo.Context) error {
	var in service.MenuInput
	if err := c.Bind(&in); err != nil {
		return badRequest(c, invalidBody)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	res, err := h.Menus.Create(ctx, in)
	return respond(c, http.StatusCreated, res, err)
}

func (h *AccessHandler) UpdateMenu(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return invalidID(c)
	}
	var in service.MenuInput
	if err := c.Bind(&in); err != nil {
		return badRequest(c, invalidBody)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	res, err := h.Menus.Update(ctx, id, in)
	return respond(c, http.StatusOK, res, err)
}
