package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/gofrs/uuid/v5"

	"github.com/iliyamo/fleet-backoffice/internal/filestore"
	"github.com/iliyamo/fleet-backoffice/internal/logger"
	"github.com/iliyamo/fleet-backoffice/internal/model"
	"github.com/iliyamo/fleet-backoffice/internal/queue"
	"github.com/iliyamo/fleet-backoffice/internal/repository"
)

// MobileService backs the driver app.
type MobileService struct {
	Deps
	Trips *TripService
	Files filestore.Store
}

func NewMobileService(d Deps, trips *TripService, files filestore.Store) *MobileService {
	return &MobileService{Deps: d, Trips: trips, Files: files}
}

// Upload is one file of a multipart POD submission.
type Upload struct {
	Filename string
	Content  io.Reader
}

// POD is a proof of delivery captured by the driver.
type POD struct {
	Latitude  *float64
	Longitude *float64
	Note      string
	Image     *Upload
	Signature *Upload
}

// LocationUpdate is a periodic position report.
type LocationUpdate struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Timestamp time.Time `json:"timestamp"`
}

func (s *MobileService) TripsForDriver(ctx context.Context, driverID uuid.UUID) (Result[[]TripDetail], error) {
	return s.Trips.ListByDriver(ctx, driverID)
}

// StartTrip starts a trip assigned to driverID.
func (s *MobileService) StartTrip(ctx context.Context, driverID, tripID uuid.UUID, at GeoPoint) (Result[*model.Trip], error) {
	return s.Trips.advance(ctx, tripID, driverID, model.TripInProgress, at)
}

// CompleteTrip completes a trip assigned to driverID.
func (s *MobileService) CompleteTrip(ctx context.Context, driverID, tripID uuid.UUID, at GeoPoint) (Result[*model.Trip], error) {
	return s.Trips.advance(ctx, tripID, driverID, model.TripCompleted, at)
}

// RecordPOD stores the uploaded files, marks the job Delivered with the POD
// paths and position, and marks its stop Delivered. Files are removed again
// if the database save fails. A non-nil driverID must own the job's trip.
func (s *MobileService) RecordPOD(ctx context.Context, driverID, jobID uuid.UUID, pod POD) (Result[*model.Job], error) {
	var v violations
	v.coordinates(pod.Latitude, pod.Longitude, "Position")
	if !v.empty() {
		return fail[*model.Job](ErrValidation, v...), nil
	}

	uow := s.Store.UnitOfWork(ctx)
	jobs := repository.Repo[model.Job](uow)
	job, err := jobs.GetByID(ctx, jobID)
	if err != nil {
		return Result[*model.Job]{}, err
	}
	if job == nil {
		return notFound[*model.Job]("Job"), nil
	}
	if r, ok := transitionFailed[*model.Job](job.Status.Transition(model.JobDelivered)); ok {
		return r, nil
	}

	stopRepo := repository.Repo[model.TripJob](uow)
	stops, err := stopRepo.Find(ctx, sq.Eq{"job_id": jobID})
	if err != nil {
		return Result[*model.Job]{}, err
	}
	var stop *model.TripJob
	var trip *model.Trip
	for _, st := range stops {
		t, err := repository.Repo[model.Trip](uow).GetByID(ctx, st.TripID)
		if err != nil {
			return Result[*model.Job]{}, err
		}
		if t != nil && t.Status != model.TripCancelled {
			stop, trip = st, t
			break
		}
	}
	if driverID != uuid.Nil && (trip == nil || trip.DriverID != driverID) {
		return fail[*model.Job](ErrForbidden, "Job is not on a trip assigned to this driver."), nil
	}

	var saved []string
	cleanup := func() {
		for _, p := range saved {
			if err := s.Files.Remove(p); err != nil {
				s.logger().Warning("pod file not removed", logger.String("path", p), logger.Error(err))
			}
		}
	}
	folder := "pod/" + jobID.String()
	for _, up := range []struct {
		file *Upload
		dest **string
	}{
		{pod.Image, &job.PODImagePath},
		{pod.Signature, &job.PODSignaturePath},
	} {
		if up.file == nil {
			continue
		}
		p, err := s.Files.Save(ctx, folder, up.file.Filename, up.file.Content)
		if err != nil {
			cleanup()
			if errors.Is(err, filestore.ErrTooLarge) {
				return fail[*model.Job](ErrValidation, "File "+up.file.Filename+" exceeds the upload limit."), nil
			}
			return Result[*model.Job]{}, err
		}
		saved = append(saved, p)
		*up.dest = &p
	}

	now := s.now()
	job.Status = model.JobDelivered
	job.DeliveredOn = &now
	job.PODLatitude, job.PODLongitude = pod.Latitude, pod.Longitude
	if note := strings.TrimSpace(pod.Note); note != "" {
		job.PODNote = &note
	}
	jobs.Update(job)
	if stop != nil && stop.StopStatus.CanTransition(model.StopDelivered) {
		stop.StopStatus = model.StopDelivered
		stopRepo.Update(stop)
	}

	if _, err := uow.SaveChanges(ctx); err != nil {
		cleanup()
		return Result[*model.Job]{}, err
	}

	event := queue.JobDelivered{
		JobID:         job.ID,
		Reference:     job.Reference,
		Latitude:      job.PODLatitude,
		Longitude:     job.PODLongitude,
		ImagePath:     job.PODImagePath,
		SignaturePath: job.PODSignaturePath,
		DeliveredAt:   now,
	}
	if trip != nil {
		event.TripID = &trip.ID
	}
	s.publish(ctx, queue.JobDeliveredQueue, event)
	return ok(job), nil
}

// UpdateLocation writes the position onto the vehicle of the driver's
// InProgress trip.
func (s *MobileService) UpdateLocation(ctx context.Context, driverID uuid.UUID, loc LocationUpdate) (Result[*model.Vehicle], error) {
	if !ValidLatLng(loc.Latitude, loc.Longitude) {
		return fail[*model.Vehicle](ErrValidation, "Position coordinates are out of range."), nil
	}
	uow := s.Store.UnitOfWork(ctx)
	trips := repository.Repo[model.Trip](uow)
	active, err := trips.Select(ctx, trips.Query().
		Where(sq.Eq{"driver_id": driverID, "status": model.TripInProgress}).
		OrderBy("start_time DESC").
		Limit(1))
	if err != nil {
		return Result[*model.Vehicle]{}, err
	}
	if len(active) == 0 {
		return notFound[*model.Vehicle]("Active trip"), nil
	}

	vehicles := repository.Repo[model.Vehicle](uow)
	vehicle, err := vehicles.GetByID(ctx, active[0].VehicleID)
	if err != nil {
		return Result[*model.Vehicle]{}, err
	}
	if vehicle == nil {
		return notFound[*model.Vehicle]("Vehicle"), nil
	}
	at := loc.Timestamp.UTC()
	if loc.Timestamp.IsZero() {
		at = s.now()
	}
	lat, lng := loc.Latitude, loc.Longitude
	vehicle.Latitude, vehicle.Longitude = &lat, &lng
	vehicle.LocationUpdatedOn = &at
	vehicles.Update(vehicle)
	if _, err := uow.SaveChanges(ctx); err != nil {
		return Result[*model.Vehicle]{}, err
	}
	return ok(vehicle), nil
}
