package service

import (
	"context"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/gofrs/uuid/v5"

	"github.com/iliyamo/fleet-backoffice/internal/model"
	"github.com/iliyamo/fleet-backoffice/internal/queue"
	"github.com/iliyamo/fleet-backoffice/internal/repository"
)

type TripService struct {
	Deps
}

func NewTripService(d Deps) *TripService { return &TripService{Deps: d} }

type PackageInput struct {
	JobID       *uuid.UUID `json:"jobId"`
	Barcode     string     `json:"barcode"`
	Description string     `json:"description"`
	WeightKg    float64    `json:"weightKg"`
	Quantity    int        `json:"quantity"`
}

// TripInput creates a Planned trip. JobIDs are visited in order; the
// position becomes the stop sequence starting at 1.
type TripInput struct {
	Reference      string         `json:"reference"`
	VehicleID      uuid.UUID      `json:"vehicleId"`
	DriverID       uuid.UUID      `json:"driverId"`
	OrganizationID *uuid.UUID     `json:"organizationId"`
	CustomerID     *uuid.UUID     `json:"customerId"`
	PlannedStart   *time.Time     `json:"plannedStart"`
	Notes          string         `json:"notes"`
	JobIDs         []uuid.UUID    `json:"jobIds"`
	Packages       []PackageInput `json:"packages"`
}

// GeoPoint is the position reported by the driver app on start and
// complete. A zero Timestamp means "now".
type GeoPoint struct {
	Latitude  *float64  `json:"latitude"`
	Longitude *float64  `json:"longitude"`
	Timestamp time.Time `json:"timestamp"`
	Note      string    `json:"note"`
}

func (p GeoPoint) validate() violations {
	var v violations
	v.coordinates(p.Latitude, p.Longitude, "Position")
	return v
}

// TripStop is one job on a trip in delivery order.
type TripStop struct {
	Sequence   int              `json:"sequence"`
	StopStatus model.StopStatus `json:"stopStatus"`
	Job        *model.Job       `json:"job"`
}

// TripDetail is a trip with its vehicle, driver, stops and packages.
type TripDetail struct {
	*model.Trip
	Vehicle  *model.Vehicle   `json:"vehicle,omitempty"`
	Driver   *model.Driver    `json:"driver,omitempty"`
	Stops    []TripStop       `json:"stops"`
	Packages []*model.Package `json:"packages"`
}

func (in *TripInput) validate() violations {
	in.Reference = normalizeKey(in.Reference)
	var v violations
	if in.VehicleID == uuid.Nil {
		v.add("Vehicle is required.")
	}
	if in.DriverID == uuid.Nil {
		v.add("Driver is required.")
	}
	seen := make(map[uuid.UUID]bool, len(in.JobIDs))
	for _, id := range in.JobIDs {
		if seen[id] {
			v.add("Job %s is listed more than once.", id)
		}
		seen[id] = true
	}
	for i, p := range in.Packages {
		if strings.TrimSpace(p.Barcode) == "" {
			v.add("Package %d: barcode is required.", i+1)
		}
		if p.Quantity < 1 {
			v.add("Package %d: quantity must be at least 1.", i+1)
		}
		if p.WeightKg < 0 {
			v.add("Package %d: weight must not be negative.", i+1)
		}
		if p.JobID != nil && !seen[*p.JobID] {
			v.add("Package %d: job is not on this trip.", i+1)
		}
	}
	return v
}

func (s *TripService) List(ctx context.Context, status string) (Result[[]*model.Trip], error) {
	repo := repository.Repo[model.Trip](s.Store.UnitOfWork(ctx))
	q := repo.Query().OrderBy("created_on DESC")
	if status != "" {
		q = q.Where(sq.Eq{"status": status})
	}
	items, err := repo.Select(ctx, q)
	if err != nil {
		return Result[[]*model.Trip]{}, err
	}
	return ok(nonNil(items)), nil
}

// Create stages the trip, its stops and packages and moves every Validated
// job to Planned, all in one save.
func (s *TripService) Create(ctx context.Context, in TripInput) (Result[TripDetail], error) {
	if v := in.validate(); !v.empty() {
		return fail[TripDetail](ErrValidation, v...), nil
	}
	uow := s.Store.UnitOfWork(ctx)

	var v violations
	vehicle, err := repository.Repo[model.Vehicle](uow).GetByID(ctx, in.VehicleID)
	if err != nil {
		return Result[TripDetail]{}, err
	}
	if vehicle == nil || !vehicle.IsActive {
		v.add("Vehicle not found or inactive.")
	}
	driver, err := repository.Repo[model.Driver](uow).GetByID(ctx, in.DriverID)
	if err != nil {
		return Result[TripDetail]{}, err
	}
	if driver == nil || !driver.IsActive {
		v.add("Driver not found or inactive.")
	}
	if in.OrganizationID != nil {
		o, err := repository.Repo[model.Organization](uow).GetByID(ctx, *in.OrganizationID)
		if err != nil {
			return Result[TripDetail]{}, err
		}
		if o == nil {
			v.add("Organization not found.")
		}
	}

	jobs, err := s.plannableJobs(ctx, uow, in.JobIDs, &v)
	if err != nil {
		return Result[TripDetail]{}, err
	}
	if !v.empty() {
		return fail[TripDetail](ErrValidation, v...), nil
	}

	if in.Reference == "" {
		in.Reference = newReference("TRP", s.now())
	}
	taken, err := repository.Repo[model.Trip](uow).Exists(ctx, sq.Eq{"reference": in.Reference})
	if err != nil {
		return Result[TripDetail]{}, err
	}
	if taken {
		return fail[TripDetail](ErrDuplicate, "Trip reference '"+in.Reference+"' already exists."), nil
	}

	trip := &model.Trip{
		Reference:      in.Reference,
		VehicleID:      in.VehicleID,
		DriverID:       in.DriverID,
		OrganizationID: in.OrganizationID,
		CustomerID:     in.CustomerID,
		Status:         model.TripPlanned,
		PlannedStart:   in.PlannedStart,
		Notes:          strings.TrimSpace(in.Notes),
	}
	trip.ID = model.NewID()
	detail := stageTrip(uow, trip, jobs, in.Packages)
	detail.Vehicle, detail.Driver = vehicle, driver

	if _, err := uow.SaveChanges(ctx); err != nil {
		return Result[TripDetail]{}, err
	}
	return ok(detail), nil
}

// plannableJobs loads ids in order. Each must be Validated, or Planned and
// not on a trip that is still live. Problems are added to v.
func (s *TripService) plannableJobs(ctx context.Context, uow *repository.UnitOfWork, ids []uuid.UUID, v *violations) ([]*model.Job, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	found, err := repository.Repo[model.Job](uow).Find(ctx, sq.Eq{"id": ids})
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*model.Job, len(found))
	for _, j := range found {
		byID[j.ID] = j
	}
	linked, err := repository.Repo[model.TripJob](uow).Find(ctx, sq.Eq{"job_id": ids})
	if err != nil {
		return nil, err
	}
	tripIDs := make([]uuid.UUID, 0, len(linked))
	for _, l := range linked {
		tripIDs = append(tripIDs, l.TripID)
	}
	// stops on cancelled trips do not hold the job
	live := make(map[uuid.UUID]bool, len(tripIDs))
	if len(tripIDs) > 0 {
		trips, err := repository.Repo[model.Trip](uow).Find(ctx, sq.Eq{"id": tripIDs})
		if err != nil {
			return nil, err
		}
		for _, t := range trips {
			live[t.ID] = t.Status != model.TripCancelled
		}
	}
	onTrip := make(map[uuid.UUID]bool, len(linked))
	for _, l := range linked {
		if live[l.TripID] {
			onTrip[l.JobID] = true
		}
	}

	jobs := make([]*model.Job, 0, len(ids))
	for _, id := range ids {
		j := byID[id]
		switch {
		case j == nil:
			v.add("Job %s not found.", id)
		case onTrip[id]:
			v.add("Job %s is already on a trip.", j.Reference)
		case j.Status != model.JobValidated && j.Status != model.JobPlanned:
			v.add("Job %s must be Validated before planning (is %s).", j.Reference, j.Status)
		default:
			jobs = append(jobs, j)
		}
	}
	return jobs, nil
}

// stageTrip adds trip, one stop per job and the packages to uow. Validated
// jobs are moved to Planned.
func stageTrip(uow *repository.UnitOfWork, trip *model.Trip, jobs []*model.Job, packages []PackageInput) TripDetail {
	repository.Repo[model.Trip](uow).Add(trip)

	detail := TripDetail{Trip: trip, Stops: make([]TripStop, 0, len(jobs)), Packages: []*model.Package{}}
	jobRepo := repository.Repo[model.Job](uow)
	stops := repository.Repo[model.TripJob](uow)
	for i, j := range jobs {
		if j.Status == model.JobValidated {
			j.Status = model.JobPlanned
			jobRepo.Update(j)
		}
		stop := &model.TripJob{TripID: trip.ID, JobID: j.ID, Sequence: i + 1, StopStatus: model.StopPending}
		stops.Add(stop)
		detail.Stops = append(detail.Stops, TripStop{Sequence: stop.Sequence, StopStatus: stop.StopStatus, Job: j})
	}

	pkgRepo := repository.Repo[model.Package](uow)
	for _, p := range packages {
		pkg := &model.Package{
			TripID:      trip.ID,
			JobID:       p.JobID,
			Barcode:     strings.TrimSpace(p.Barcode),
			Description: strings.TrimSpace(p.Description),
			WeightKg:    p.WeightKg,
			Quantity:    p.Quantity,
		}
		pkgRepo.Add(pkg)
		detail.Packages = append(detail.Packages, pkg)
	}
	return detail
}

func (s *TripService) Get(ctx context.Context, id uuid.UUID) (Result[TripDetail], error) {
	uow := s.Store.UnitOfWork(ctx)
	trip, err := repository.Repo[model.Trip](uow).GetByID(ctx, id)
	if err != nil {
		return Result[TripDetail]{}, err
	}
	if trip == nil {
		return notFound[TripDetail]("Trip"), nil
	}
	d, err := loadDetail(ctx, uow, trip)
	if err != nil {
		return Result[TripDetail]{}, err
	}
	return ok(d), nil
}

// ListByDriver returns the driver's trips with nested stops and packages,
// most recent first.
func (s *TripService) ListByDriver(ctx context.Context, driverID uuid.UUID) (Result[[]TripDetail], error) {
	uow := s.Store.UnitOfWork(ctx)
	driver, err := repository.Repo[model.Driver](uow).GetByID(ctx, driverID)
	if err != nil {
		return Result[[]TripDetail]{}, err
	}
	if driver == nil {
		return notFound[[]TripDetail]("Driver"), nil
	}
	repo := repository.Repo[model.Trip](uow)
	trips, err := repo.Select(ctx, repo.Query().Where(sq.Eq{"driver_id": driverID}).OrderBy("created_on DESC"))
	if err != nil {
		return Result[[]TripDetail]{}, err
	}
	out := make([]TripDetail, 0, len(trips))
	for _, t := range trips {
		d, err := loadDetail(ctx, uow, t)
		if err != nil {
			return Result[[]TripDetail]{}, err
		}
		d.Driver = driver
		out = append(out, d)
	}
	return ok(out), nil
}

func loadDetail(ctx context.Context, uow *repository.UnitOfWork, trip *model.Trip) (TripDetail, error) {
	d := TripDetail{Trip: trip, Stops: []TripStop{}, Packages: []*model.Package{}}
	var err error
	if d.Vehicle, err = repository.Repo[model.Vehicle](uow).GetByID(ctx, trip.VehicleID); err != nil {
		return d, err
	}
	if d.Driver, err = repository.Repo[model.Driver](uow).GetByID(ctx, trip.DriverID); err != nil {
		return d, err
	}

	stopRepo := repository.Repo[model.TripJob](uow)
	stops, err := stopRepo.Select(ctx, stopRepo.Query().Where(sq.Eq{"trip_id": trip.ID}).OrderBy("sequence_no"))
	if err != nil {
		return d, err
	}
	if len(stops) > 0 {
		ids := make([]uuid.UUID, len(stops))
		for i, st := range stops {
			ids[i] = st.JobID
		}
		jobs, err := repository.Repo[model.Job](uow).Find(ctx, sq.Eq{"id": ids})
		if err != nil {
			return d, err
		}
		byID := make(map[uuid.UUID]*model.Job, len(jobs))
		for _, j := range jobs {
			byID[j.ID] = j
		}
		for _, st := range stops {
			d.Stops = append(d.Stops, TripStop{Sequence: st.Sequence, StopStatus: st.StopStatus, Job: byID[st.JobID]})
		}
	}

	pkgRepo := repository.Repo[model.Package](uow)
	pkgs, err := pkgRepo.Select(ctx, pkgRepo.Query().Where(sq.Eq{"trip_id": trip.ID}).OrderBy("barcode"))
	if err != nil {
		return d, err
	}
	d.Packages = nonNil(pkgs)
	return d, nil
}

// Start moves a Planned trip to InProgress and every Planned job on it to
// InTransit. Jobs in any other status are left alone.
func (s *TripService) Start(ctx context.Context, id uuid.UUID, at GeoPoint) (Result[*model.Trip], error) {
	return s.advance(ctx, id, uuid.Nil, model.TripInProgress, at)
}

// Complete closes the trip. Planned and InProgress trips may complete;
// Completed and Cancelled trips are refused.
func (s *TripService) Complete(ctx context.Context, id uuid.UUID, at GeoPoint) (Result[*model.Trip], error) {
	return s.advance(ctx, id, uuid.Nil, model.TripCompleted, at)
}

// Cancel stops a trip that has not finished. Its jobs keep their status and
// may be put on a new trip.
func (s *TripService) Cancel(ctx context.Context, id uuid.UUID, reason string) (Result[*model.Trip], error) {
	return s.advance(ctx, id, uuid.Nil, model.TripCancelled, GeoPoint{Note: reason})
}

// advance applies a status change. A non-nil driverID restricts the change
// to trips assigned to that driver.
func (s *TripService) advance(ctx context.Context, id, driverID uuid.UUID, to model.TripStatus, at GeoPoint) (Result[*model.Trip], error) {
	if v := at.validate(); !v.empty() {
		return fail[*model.Trip](ErrValidation, v...), nil
	}
	uow := s.Store.UnitOfWork(ctx)
	trips := repository.Repo[model.Trip](uow)
	trip, err := trips.GetByID(ctx, id)
	if err != nil {
		return Result[*model.Trip]{}, err
	}
	if trip == nil {
		return notFound[*model.Trip]("Trip"), nil
	}
	if driverID != uuid.Nil && trip.DriverID != driverID {
		return fail[*model.Trip](ErrForbidden, "Trip is not assigned to this driver."), nil
	}
	from := trip.Status
	if r, ok := transitionFailed[*model.Trip](from.Transition(to)); ok {
		return r, nil
	}

	when := at.Timestamp.UTC()
	if at.Timestamp.IsZero() {
		when = s.now()
	}
	trip.Status = to
	switch to {
	case model.TripInProgress:
		trip.StartTime = &when
		trip.StartLatitude, trip.StartLongitude = at.Latitude, at.Longitude
		if err := cascadeInTransit(ctx, uow, trip.ID); err != nil {
			return Result[*model.Trip]{}, err
		}
	case model.TripCompleted:
		trip.EndTime = &when
		trip.EndLatitude, trip.EndLongitude = at.Latitude, at.Longitude
	}
	if note := strings.TrimSpace(at.Note); note != "" {
		trip.Notes = strings.TrimSpace(trip.Notes + "\n" + note)
	}
	trips.Update(trip)

	if _, err := uow.SaveChanges(ctx); err != nil {
		return Result[*model.Trip]{}, err
	}
	s.publish(ctx, queue.TripStatusQueue, queue.TripStatusChanged{
		TripID:     trip.ID,
		Reference:  trip.Reference,
		DriverID:   trip.DriverID,
		VehicleID:  trip.VehicleID,
		From:       string(from),
		To:         string(to),
		Actor:      uow.Actor(),
		OccurredAt: when,
	})
	return ok(trip), nil
}

func cascadeInTransit(ctx context.Context, uow *repository.UnitOfWork, tripID uuid.UUID) error {
	stops, err := repository.Repo[model.TripJob](uow).Find(ctx, sq.Eq{"trip_id": tripID})
	if err != nil || len(stops) == 0 {
		return err
	}
	ids := make([]uuid.UUID, len(stops))
	for i, st := range stops {
		ids[i] = st.JobID
	}
	jobs := repository.Repo[model.Job](uow)
	planned, err := jobs.Find(ctx, sq.Eq{"id": ids, "status": model.JobPlanned})
	if err != nil {
		return err
	}
	for _, j := range planned {
		j.Status = model.JobInTransit
		jobs.Update(j)
	}
	return nil
}
