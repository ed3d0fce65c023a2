package handler

import (
	"context"
	"net/http"

	"github.com/gofrs/uuid/v5"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/fleet-backoffice/internal/middleware"
	"github.com/iliyamo/fleet-backoffice/internal/model"
	"github.com/iliyamo/fleet-backoffice/internal/service"
)

// OperationsHandler serves jobs, trips, job requests and invoices.
type OperationsHandler struct {
	Jobs     *service.JobService
	Trips    *service.TripService
	Requests *service.JobRequestService
	Invoices *service.InvoiceService
}

func NewOperationsHandler(jobs *service.JobService, trips *service.TripService, requests *service.JobRequestService, invoices *service.InvoiceService) *OperationsHandler {
	if jobs == nil || trips == nil || requests == nil || invoices == nil {
		panic("nil service passed to NewOperationsHandler")
	}
	return &OperationsHandler{Jobs: jobs, Trips: trips, Requests: requests, Invoices: invoices}
}

type statusReq struct {
	Status string `json:"status"`
}

type reasonReq struct {
	Reason string `json:"reason"`
}

// ---- Jobs ----

// ListJobs accepts an optional ?status= filter.
func (h *OperationsHandler) ListJobs(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	res, err := h.Jobs.List(ctx, c.QueryParam("status"))
	return respond(c, http.StatusOK, res, err)
}

func (h *OperationsHandler) GetJob(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return invalidID(c)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	res, err := h.Jobs.Get(ctx, id)
	return respond(c, http.StatusOK, res, err)
}

func (h *OperationsHandler) CreateJob(c echo.Context) error {
	var in service.JobInput
	if err := c.Bind(&in); err != nil {
		return badRequest(c, invalidBody)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	res, err := h.Jobs.Create(ctx, in)
	return respond(c, http.StatusCreated, res, err)
}

func (h *OperationsHandler) ChangeJobStatus(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return invalidID(c)
	}
	var req statusReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, invalidBody)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	res, err := h.Jobs.ChangeStatus(ctx, id, model.JobStatus(req.Status))
	return respond(c, http.StatusOK, res, err)
}

// ---- Trips ----

func (h *OperationsHandler) ListTrips(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	res, err := h.Trips.List(ctx, c.QueryParam("status"))
	return respond(c, http.StatusOK, res, err)
}

func (h *OperationsHandler) GetTrip(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return invalidID(c)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	res, err := h.Trips.Get(ctx, id)
	return respond(c, http.StatusOK, res, err)
}

func (h *OperationsHandler) CreateTrip(c echo.Context) error {
	var in service.TripInput
	if err := c.Bind(&in); err != nil {
		return badRequest(c, invalidBody)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	res, err := h.Trips.Create(ctx, in)
	return respond(c, http.StatusCreated, res, err)
}

// TripsByDriver lists the trips of the driver in the path.
func (h *OperationsHandler) TripsByDriver(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return invalidID(c)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	res, err := h.Trips.ListByDriver(ctx, id)
	return respond(c, http.StatusOK, res, err)
}

func (h *OperationsHandler) StartTrip(c echo.Context) error {
	return h.advanceTrip(c, h.Trips.Start)
}

func (h *OperationsHandler) CompleteTrip(c echo.Context) error {
	return h.advanceTrip(c, h.Trips.Complete)
}

type tripMove func(ctx context.Context, id uuid.UUID, at service.GeoPoint) (service.Result[*model.Trip], error)

func (h *OperationsHandler) advanceTrip(c echo.Context, move tripMove) error {
	id, ok := pathID(c, "id")
	if !ok {
		return invalidID(c)
	}
	var at service.GeoPoint
	if err := c.Bind(&at); err != nil {
		return badRequest(c, invalidBody)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	res, err := move(ctx, id, at)
	return respond(c, http.StatusOK, res, err)
}

func (h *OperationsHandler) CancelTrip(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return invalidID(c)
	}
	var req reasonReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, invalidBody)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	res, err := h.Trips.Cancel(ctx, id, req.Reason)
	return respond(c, http.StatusOK, res, err)
}

// ---- Job requests ----

// ListRequests filters by ?customerId= and ?status=. Callers holding only
// the CUSTOMER role see their own customer's requests whatever they pass.
func (h *OperationsHandler) ListRequests(c echo.Context) error {
	customerID, ok := queryID(c, "customerId")
	if !ok {
		return invalidID(c)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if id, found := middleware.IdentityFrom(c); found && portalOnly(id.Roles) {
		res, err := h.Requests.ListForUser(ctx, id.UserID, c.QueryParam("status"))
		return respond(c, http.StatusOK, res, err)
	}
	res, err := h.Requests.List(ctx, customerID, c.QueryParam("status"))
	return respond(c, http.StatusOK, res, err)
}

// SubmitRequest files a request. Portal users always submit for their own
// customer.
func (h *OperationsHandler) SubmitRequest(c echo.Context) error {
	var in service.JobRequestInput
	if err := c.Bind(&in); err != nil {
		return badRequest(c, invalidBody)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if id, found := middleware.IdentityFrom(c); found && portalOnly(id.Roles) {
		res, err := h.Requests.SubmitForUser(ctx, id.UserID, in)
		return respond(c, http.StatusCreated, res, err)
	}
	res, err := h.Requests.Submit(ctx, in)
	return respond(c, http.StatusCreated, res, err)
}

func (h *OperationsHandler) RejectRequest(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return invalidID(c)
	}
	var req reasonReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, invalidBody)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	res, err := h.Requests.Reject(ctx, id, req.Reason)
	return respond(c, http.StatusOK, res, err)
}

// ConvertRequest turns a submitted request into a job on a planned trip.
func (h *OperationsHandler) ConvertRequest(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return invalidID(c)
	}
	var in service.ConvertInput
	if err := c.Bind(&in); err != nil {
		return badRequest(c, invalidBody)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	res, err := h.Requests.Convert(ctx, id, in)
	return respond(c, http.StatusCreated, res, err)
}

// ---- Invoices ----

func (h *OperationsHandler) CreateInvoice(c echo.Context) error {
	var in service.InvoiceInput
	if err := c.Bind(&in); err != nil {
		return badRequest(c, invalidBody)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	res, err := h.Invoices.Create(ctx, in)
	return respond(c, http.StatusCreated, res, err)
}

func (h *OperationsHandler) GetInvoice(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return invalidID(c)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	res, err := h.Invoices.Get(ctx, id)
	return respond(c, http.StatusOK, res, err)
}

func (h *OperationsHandler) TripInvoices(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return invalidID(c)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	res, err := h.Invoices.ListByTrip(ctx, id)
	return respond(c, http.StatusOK, res, err)
}

// MoveInvoice handles /invoices/:id/issue, /pay and /void.
func (h *OperationsHandler) MoveInvoice(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return invalidID(c)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	var (
		res service.Result[*model.Invoice]
		err error
	)
	switch c.Param("action") {
	case "issue":
		res, err = h.Invoices.Issue(ctx, id)
	case "pay":
		res, err = h.Invoices.Pay(ctx, id)
	case "void":
		res, err = h.Invoices.Void(ctx, id)
	default:
		return echo.ErrNotFound
	}
	return respond(c, http.StatusOK, res, err)
}

// portalOnly reports a caller whose only access comes from the CUSTOMER
// role.
func portalOnly(roles []string) bool {
	for _, r := range roles {
		if r != model.RoleCustomer {
			return false
		}
	}
	return len(roles) > 0
}
