package service

import (
	"context"
	"errors"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/gofrs/uuid/v5"

	"github.com/iliyamo/fleet-backoffice/internal/model"
	"github.com/iliyamo/fleet-backoffice/internal/repository"
)

type JobService struct {
	Deps
}

func NewJobService(d Deps) *JobService { return &JobService{Deps: d} }

type JobInput struct {
	Reference         string     `json:"reference"`
	CustomerID        *uuid.UUID `json:"customerId"`
	PickupAddress     string     `json:"pickupAddress"`
	DeliveryAddress   string     `json:"deliveryAddress"`
	PickupLatitude    *float64   `json:"pickupLatitude"`
	PickupLongitude   *float64   `json:"pickupLongitude"`
	DeliveryLatitude  *float64   `json:"deliveryLatitude"`
	DeliveryLongitude *float64   `json:"deliveryLongitude"`
	WindowStart       *time.Time `json:"windowStart"`
	WindowEnd         *time.Time `json:"windowEnd"`
	WeightKg          float64    `json:"weightKg"`
	VolumeM3          float64    `json:"volumeM3"`
}

func (in *JobInput) validate() violations {
	in.Reference = normalizeKey(in.Reference)
	var v violations
	v.required(in.PickupAddress, "Pickup address")
	v.required(in.DeliveryAddress, "Delivery address")
	v.coordinates(in.PickupLatitude, in.PickupLongitude, "Pickup")
	v.coordinates(in.DeliveryLatitude, in.DeliveryLongitude, "Delivery")
	if in.WindowStart != nil && in.WindowEnd != nil && in.WindowEnd.Before(*in.WindowStart) {
		v.add("Delivery window end must not be before its start.")
	}
	v.nonNegative(in.WeightKg, "Weight")
	v.nonNegative(in.VolumeM3, "Volume")
	return v
}

// newReference builds a human readable reference such as JOB-20240131-1A2B3C.
func newReference(prefix string, at time.Time) string {
	id := strings.ToUpper(strings.ReplaceAll(model.NewID().String(), "-", ""))
	return prefix + "-" + at.Format("20060102") + "-" + id[:6]
}

// List returns jobs, newest first, optionally restricted to one status.
func (s *JobService) List(ctx context.Context, status string) (Result[[]*model.Job], error) {
	repo := repository.Repo[model.Job](s.Store.UnitOfWork(ctx))
	q := repo.Query().OrderBy("created_on DESC")
	if status != "" {
		st := model.JobStatus(status)
		if !st.Valid() {
			return fail[[]*model.Job](ErrValidation, "Unknown job status '"+status+"'."), nil
		}
		q = q.Where(sq.Eq{"status": st})
	}
	items, err := repo.Select(ctx, q)
	if err != nil {
		return Result[[]*model.Job]{}, err
	}
	return ok(nonNil(items)), nil
}

func (s *JobService) Get(ctx context.Context, id uuid.UUID) (Result[*model.Job], error) {
	j, err := repository.Repo[model.Job](s.Store.UnitOfWork(ctx)).GetByID(ctx, id)
	if err != nil {
		return Result[*model.Job]{}, err
	}
	if j == nil {
		return notFound[*model.Job]("Job"), nil
	}
	return ok(j), nil
}

// Create registers a new job in status Received.
func (s *JobService) Create(ctx context.Context, in JobInput) (Result[*model.Job], error) {
	if v := in.validate(); !v.empty() {
		return fail[*model.Job](ErrValidation, v...), nil
	}
	uow := s.Store.UnitOfWork(ctx)
	repo := repository.Repo[model.Job](uow)

	if in.Reference == "" {
		in.Reference = newReference("JOB", s.now())
	}
	taken, err := repo.Exists(ctx, sq.Eq{"reference": in.Reference})
	if err != nil {
		return Result[*model.Job]{}, err
	}
	if taken {
		return fail[*model.Job](ErrDuplicate, "Job reference '"+in.Reference+"' already exists."), nil
	}
	if in.CustomerID != nil {
		c, err := repository.Repo[model.Customer](uow).GetByID(ctx, *in.CustomerID)
		if err != nil {
			return Result[*model.Job]{}, err
		}
		if c == nil || !c.IsActive {
			return fail[*model.Job](ErrValidation, "Customer not found."), nil
		}
	}

	job := &model.Job{
		Reference:         in.Reference,
		CustomerID:        in.CustomerID,
		PickupAddress:     strings.TrimSpace(in.PickupAddress),
		DeliveryAddress:   strings.TrimSpace(in.DeliveryAddress),
		PickupLatitude:    in.PickupLatitude,
		PickupLongitude:   in.PickupLongitude,
		DeliveryLatitude:  in.DeliveryLatitude,
		DeliveryLongitude: in.DeliveryLongitude,
		WindowStart:       in.WindowStart,
		WindowEnd:         in.WindowEnd,
		WeightKg:          in.WeightKg,
		VolumeM3:          in.VolumeM3,
		Status:            model.JobReceived,
	}
	repo.Add(job)
	if _, err := uow.SaveChanges(ctx); err != nil {
		return Result[*model.Job]{}, err
	}
	return ok(job), nil
}

// ChangeStatus moves a job along its transition table. Moving to Delivered
// stamps DeliveredOn.
func (s *JobService) ChangeStatus(ctx context.Context, id uuid.UUID, to model.JobStatus) (Result[*model.Job], error) {
	if !to.Valid() {
		return fail[*model.Job](ErrValidation, "Unknown job status '"+string(to)+"'."), nil
	}
	uow := s.Store.UnitOfWork(ctx)
	repo := repository.Repo[model.Job](uow)
	job, err := repo.GetByID(ctx, id)
	if err != nil {
		return Result[*model.Job]{}, err
	}
	if job == nil {
		return notFound[*model.Job]("Job"), nil
	}
	if r, ok := transitionFailed[*model.Job](job.Status.Transition(to)); ok {
		return r, nil
	}
	job.Status = to
	if to == model.JobDelivered {
		now := s.now()
		job.DeliveredOn = &now
	}
	repo.Update(job)
	if _, err := uow.SaveChanges(ctx); err != nil {
		return Result[*model.Job]{}, err
	}
	return ok(job), nil
}

// transitionFailed turns a rejected status change into a conflict result.
func transitionFailed[T any](err error) (Result[T], bool) {
	if err == nil {
		return Result[T]{}, false
	}
	if errors.Is(err, model.ErrInvalidTransition) {
		return fail[T](ErrConflict, "Status change not allowed ("+strings.TrimPrefix(err.Error(), model.ErrInvalidTransition.Error()+": ")+")."), true
	}
	return fail[T](ErrConflict, err.Error()), true
}
