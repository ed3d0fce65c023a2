package service

import (
	"context"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/gofrs/uuid/v5"

	"github.com/iliyamo/fleet-backoffice/internal/model"
	"github.com/iliyamo/fleet-backoffice/internal/repository"
)

type JobRequestService struct {
	Deps
}

func NewJobRequestService(d Deps) *JobRequestService { return &JobRequestService{Deps: d} }

type JobRequestInput struct {
	CustomerID      uuid.UUID `json:"customerId"`
	PickupAddress   string    `json:"pickupAddress"`
	DeliveryAddress string    `json:"deliveryAddress"`
	RequestedDate   time.Time `json:"requestedDate"`
	WeightKg        float64   `json:"weightKg"`
	VolumeM3        float64   `json:"volumeM3"`
	Notes           string    `json:"notes"`
}

// ConvertInput names the vehicle and driver of the trip a request becomes.
type ConvertInput struct {
	VehicleID    uuid.UUID  `json:"vehicleId"`
	DriverID     uuid.UUID  `json:"driverId"`
	PlannedStart *time.Time `json:"plannedStart"`
}

// Conversion is the outcome of Convert.
type Conversion struct {
	Request *model.JobRequest `json:"request"`
	Job     *model.Job        `json:"job"`
	Trip    *model.Trip       `json:"trip"`
}

func (in *JobRequestInput) validate() violations {
	var v violations
	if in.CustomerID == uuid.Nil {
		v.add("Customer is required.")
	}
	v.required(in.PickupAddress, "Pickup address")
	v.required(in.DeliveryAddress, "Delivery address")
	if in.RequestedDate.IsZero() {
		v.add("Requested date is required.")
	}
	v.nonNegative(in.WeightKg, "Weight")
	v.nonNegative(in.VolumeM3, "Volume")
	return v
}

// List returns requests, newest first. A non-nil customerID limits the list
// to that customer's requests.
func (s *JobRequestService) List(ctx context.Context, customerID *uuid.UUID, status string) (Result[[]*model.JobRequest], error) {
	repo := repository.Repo[model.JobRequest](s.Store.UnitOfWork(ctx))
	q := repo.Query().OrderBy("created_on DESC")
	if customerID != nil {
		q = q.Where(sq.Eq{"customer_id": *customerID})
	}
	if status != "" {
		q = q.Where(sq.Eq{"status": status})
	}
	items, err := repo.Select(ctx, q)
	if err != nil {
		return Result[[]*model.JobRequest]{}, err
	}
	return ok(nonNil(items)), nil
}

// Submit records a request on behalf of a customer.
func (s *JobRequestService) Submit(ctx context.Context, in JobRequestInput) (Result[*model.JobRequest], error) {
	if v := in.validate(); !v.empty() {
		return fail[*model.JobRequest](ErrValidation, v...), nil
	}
	uow := s.Store.UnitOfWork(ctx)
	c, err := repository.Repo[model.Customer](uow).GetByID(ctx, in.CustomerID)
	if err != nil {
		return Result[*model.JobRequest]{}, err
	}
	if c == nil || !c.IsActive {
		return fail[*model.JobRequest](ErrValidation, "Customer not found."), nil
	}
	req := &model.JobRequest{
		RequestNumber:   newReference("REQ", s.now()),
		CustomerID:      in.CustomerID,
		PickupAddress:   strings.TrimSpace(in.PickupAddress),
		DeliveryAddress: strings.TrimSpace(in.DeliveryAddress),
		RequestedDate:   in.RequestedDate.UTC(),
		WeightKg:        in.WeightKg,
		VolumeM3:        in.VolumeM3,
		Notes:           strings.TrimSpace(in.Notes),
		Status:          model.RequestSubmitted,
	}
	repository.Repo[model.JobRequest](uow).Add(req)
	if _, err := uow.SaveChanges(ctx); err != nil {
		return Result[*model.JobRequest]{}, err
	}
	return ok(req), nil
}

// SubmitForUser submits on behalf of the customer linked to a portal user.
// The customer in the payload is ignored.
func (s *JobRequestService) SubmitForUser(ctx context.Context, userID uuid.UUID, in JobRequestInput) (Result[*model.JobRequest], error) {
	customerID, err := s.customerOf(ctx, userID)
	if err != nil {
		return Result[*model.JobRequest]{}, err
	}
	if customerID == nil {
		return fail[*model.JobRequest](ErrForbidden, notLinked), nil
	}
	in.CustomerID = *customerID
	return s.Submit(ctx, in)
}

// ListForUser lists the requests of the customer linked to a portal user.
func (s *JobRequestService) ListForUser(ctx context.Context, userID uuid.UUID, status string) (Result[[]*model.JobRequest], error) {
	customerID, err := s.customerOf(ctx, userID)
	if err != nil {
		return Result[[]*model.JobRequest]{}, err
	}
	if customerID == nil {
		return fail[[]*model.JobRequest](ErrForbidden, notLinked), nil
	}
	return s.List(ctx, customerID, status)
}

const notLinked = "User is not linked to a customer."

func (s *JobRequestService) customerOf(ctx context.Context, userID uuid.UUID) (*uuid.UUID, error) {
	u, err := repository.Repo[model.User](s.Store.UnitOfWork(ctx)).GetByID(ctx, userID)
	if err != nil || u == nil {
		return nil, err
	}
	return u.CustomerID, nil
}

func (s *JobRequestService) Reject(ctx context.Context, id uuid.UUID, reason string) (Result[*model.JobRequest], error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return fail[*model.JobRequest](ErrValidation, "Rejection reason is required."), nil
	}
	uow := s.Store.UnitOfWork(ctx)
	repo := repository.Repo[model.JobRequest](uow)
	req, err := repo.GetByID(ctx, id)
	if err != nil {
		return Result[*model.JobRequest]{}, err
	}
	if req == nil {
		return notFound[*model.JobRequest]("Job request"), nil
	}
	if r, ok := transitionFailed[*model.JobRequest](req.Status.Transition(model.RequestRejected)); ok {
		return r, nil
	}
	req.Status = model.RequestRejected
	req.RejectionReason = &reason
	repo.Update(req)
	if _, err := uow.SaveChanges(ctx); err != nil {
		return Result[*model.JobRequest]{}, err
	}
	return ok(req), nil
}

// Convert turns a submitted request into a Planned job on a new Planned
// trip and marks the request Converted. Nothing is written unless all of it
// is.
func (s *JobRequestService) Convert(ctx context.Context, id uuid.UUID, in ConvertInput) (Result[Conversion], error) {
	uow := s.Store.UnitOfWork(ctx)
	requests := repository.Repo[model.JobRequest](uow)
	req, err := requests.GetByID(ctx, id)
	if err != nil {
		return Result[Conversion]{}, err
	}
	if req == nil {
		return notFound[Conversion]("Job request"), nil
	}
	if r, ok := transitionFailed[Conversion](req.Status.Transition(model.RequestConverted)); ok {
		return r, nil
	}

	var v violations
	vehicle, err := repository.Repo[model.Vehicle](uow).GetByID(ctx, in.VehicleID)
	if err != nil {
		return Result[Conversion]{}, err
	}
	if vehicle == nil || !vehicle.IsActive {
		v.add("Vehicle not found or inactive.")
	}
	driver, err := repository.Repo[model.Driver](uow).GetByID(ctx, in.DriverID)
	if err != nil {
		return Result[Conversion]{}, err
	}
	if driver == nil || !driver.IsActive {
		v.add("Driver not found or inactive.")
	}
	if !v.empty() {
		return fail[Conversion](ErrValidation, v...), nil
	}

	now := s.now()
	customerID := req.CustomerID
	job := &model.Job{
		Reference:       newReference("JOB", now),
		CustomerID:      &customerID,
		PickupAddress:   req.PickupAddress,
		DeliveryAddress: req.DeliveryAddress,
		WeightKg:        req.WeightKg,
		VolumeM3:        req.VolumeM3,
		Status:          model.JobPlanned,
	}
	job.ID = model.NewID()
	repository.Repo[model.Job](uow).Add(job)

	planned := in.PlannedStart
	if planned == nil {
		d := req.RequestedDate
		planned = &d
	}
	trip := &model.Trip{
		Reference:    newReference("TRP", now),
		VehicleID:    in.VehicleID,
		DriverID:     in.DriverID,
		CustomerID:   &customerID,
		Status:       model.TripPlanned,
		PlannedStart: planned,
		Notes:        req.Notes,
	}
	trip.ID = model.NewID()
	stageTrip(uow, trip, []*model.Job{job}, nil)

	req.Status = model.RequestConverted
	req.TripID = &trip.ID
	requests.Update(req)

	if _, err := uow.SaveChanges(ctx); err != nil {
		return Result[Conversion]{}, err
	}
	return ok(Conversion{Request: req, Job: job, Trip: trip}), nil
}
