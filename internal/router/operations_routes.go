package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/fleet-backoffice/internal/middleware"
	"github.com/iliyamo/fleet-backoffice/internal/model"
)

func registerOperations(api *echo.Group, h Handlers) {
	perm := func(code string) echo.MiddlewareFunc { return middleware.RequirePermission(h.Permissions, code) }
	o := h.Operations

	// ---- Jobs ----
	api.GET("/jobs", o.ListJobs, perm(model.PermJobsView))
	api.GET("/jobs/:id", o.GetJob, perm(model.PermJobsView))
	api.POST("/jobs", o.CreateJob, perm(model.PermJobsManage))
	api.PUT("/jobs/:id/status", o.ChangeJobStatus, perm(model.PermJobsManage))

	// ---- Trips ----
	api.GET("/trips", o.ListTrips, perm(model.PermTripsView))
	api.GET("/trips/:id", o.GetTrip, perm(model.PermTripsView))
	api.GET("/drivers/:id/trips", o.TripsByDriver, perm(model.PermTripsView))
	api.POST("/trips", o.CreateTrip, perm(model.PermTripsManage))
	api.POST("/trips/:id/start", o.StartTrip, perm(model.PermTripsManage))
	api.POST("/trips/:id/complete", o.CompleteTrip, perm(model.PermTripsManage))
	api.POST("/trips/:id/cancel", o.CancelTrip, perm(model.PermTripsManage))

	// ---- Job requests ----
	api.GET("/job-requests", o.ListRequests, perm(model.PermJobRequestsView))
	api.POST("/job-requests", o.SubmitRequest, perm(model.PermJobRequestsSubmit))
	api.POST("/job-requests/:id/reject", o.RejectRequest, perm(model.PermJobRequestsManage))
	api.POST("/job-requests/:id/convert", o.ConvertRequest, perm(model.PermJobRequestsManage))

	// ---- Invoices ----
	api.GET("/trips/:id/invoices", o.TripInvoices, perm(model.PermInvoicesView))
	api.GET("/invoices/:id", o.GetInvoice, perm(model.PermInvoicesView))
	api.POST("/invoices", o.CreateInvoice, perm(model.PermInvoicesManage))
	api.POST("/invoices/:id/:action", o.MoveInvoice, perm(model.PermInvoicesManage))
}
