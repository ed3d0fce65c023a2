package handler

import (
	"context"
	"net/http"

	"github.com/gofrs/uuid/v5"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/fleet-backoffice/internal/service"
)

// crudService is the method set shared by the master data services.
type crudService[In, Out any] interface {
	List(ctx context.Context) (service.Result[[]Out], error)
	Get(ctx context.Context, id uuid.UUID) (service.Result[Out], error)
	Create(ctx context.Context, in In) (service.Result[Out], error)
	Update(ctx context.Context, id uuid.UUID, in In) (service.Result[Out], error)
	Delete(ctx context.Context, id uuid.UUID) (service.Result[bool], error)
}

// CRUDHandler serves list/get/create/update/delete for one resource.
type CRUDHandler[In, Out any] struct {
	svc crudService[In, Out]
}

func NewCRUDHandler[In, Out any](svc crudService[In, Out]) *CRUDHandler[In, Out] {
	if svc == nil {
		panic("nil service passed to NewCRUDHandler")
	}
	return &CRUDHandler[In, Out]{svc: svc}
}

func (h *CRUDHandler[In, Out]) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	res, err := h.svc.List(ctx)
	return respond(c, http.StatusOK, res, err)
}

func (h *CRUDHandler[In, Out]) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return invalidID(c)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	res, err := h.svc.Get(ctx, id)
	return respond(c, http.StatusOK, res, err)
}

func (h *CRUDHandler[In, Out]) Create(c echo.Context) error {
	var in In
	if err := c.Bind(&in); err != nil {
		return badRequest(c, invalidBody)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	res, err := h.svc.Create(ctx, in)
	return respond(c, http.StatusCreated, res, err)
}

func (h *CRUDHandler[In, Out]) Update(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return invalidID(c)
	}
	var in In
	if err := c.Bind(&in); err != nil {
		return badRequest(c, invalidBody)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	res, err := h.svc.Update(ctx, id, in)
	return respond(c, http.StatusOK, res, err)
}

func (h *CRUDHandler[In, Out]) Delete(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return invalidID(c)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	res, err := h.svc.Delete(ctx, id)
	return respond(c, http.StatusOK, res, err)
}
