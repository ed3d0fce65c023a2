package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cast"

	"github.com/iliyamo/fleet-backoffice/internal/service"
)

type AuditHandler struct {
	Audit *service.AuditService
}

func NewAuditHandler(a *service.AuditService) *AuditHandler {
	if a == nil {
		panic("nil service passed to NewAuditHandler")
	}
	return &AuditHandler{Audit: a}
}

// Recent lists the newest audit entries; ?limit= defaults to the maximum.
func (h *AuditHandler) Recent(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	res, err := h.Audit.Recent(ctx, cast.ToInt(c.QueryParam("limit")))
	return respond(c, http.StatusOK, res, err)
}
