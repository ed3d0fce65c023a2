package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/fleet-backoffice/internal/middleware"
	"github.com/iliyamo/fleet-backoffice/internal/service"
)

// AuthHandler serves login, token rotation and the caller's profile.
type AuthHandler struct {
	Auth *service.AuthService
}

func NewAuthHandler(a *service.AuthService) *AuthHandler {
	if a == nil {
		panic("nil service passed to NewAuthHandler")
	}
	return &AuthHandler{Auth: a}
}

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshReq struct {
	RefreshToken string `json:"refreshToken"`
}

// Login answers both /api/auth-local/login and /api/Auth/login.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, invalidBody)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	res, err := h.Auth.Login(ctx, req.Username, req.Password)
	return respond(c, http.StatusOK, res, err)
}

// Refresh exchanges a refresh token for a new pair. The old token is
// revoked.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, invalidBody)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	res, err := h.Auth.Refresh(ctx, req.RefreshToken)
	return respond(c, http.StatusOK, res, err)
}

func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, invalidBody)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	res, err := h.Auth.Logout(ctx, req.RefreshToken)
	return respond(c, http.StatusOK, res, err)
}

// Me returns the authenticated user with roles and permission codes.
func (h *AuthHandler) Me(c echo.Context) error {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return echo.ErrUnauthorized
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	res, err := h.Auth.Me(ctx, id.UserID)
	return respond(c, http.StatusOK, res, err)
}
