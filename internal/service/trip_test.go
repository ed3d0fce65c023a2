package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/iliyamo/fleet-backoffice/internal/mocks"
	"github.com/iliyamo/fleet-backoffice/internal/model"
	"github.com/iliyamo/fleet-backoffice/internal/queue"
	"github.com/iliyamo/fleet-backoffice/internal/service"
)

func ptr[T any](v T) *T { return &v }

type tripSetup struct {
	f       *fixture
	svc     *service.TripService
	vehicle *model.Vehicle
	driver  *model.Driver
}

func newTripSetup(t *testing.T, pub queue.Publisher) *tripSetup {
	f := newFixture(t, pub)
	return &tripSetup{
		f:       f,
		svc:     service.NewTripService(f.deps),
		vehicle: f.vehicle(t, "XB1234K"),
		driver:  f.driver(t, "T7654321Z", nil),
	}
}

func (s *tripSetup) create(t *testing.T, jobs ...*model.Job) service.TripDetail {
	t.Helper()
	in := service.TripInput{VehicleID: s.vehicle.ID, DriverID: s.driver.ID}
	for _, j := range jobs {
		in.JobIDs = append(in.JobIDs, j.ID)
	}
	res, err := s.svc.Create(context.Background(), in)
	require.NoError(t, err)
	require.True(t, res.Success, res.Errors)
	return res.Data
}

func TestTripCreatePlansJobsInOrder(t *testing.T) {
	t.Parallel()
	s := newTripSetup(t, nil)
	j1 := s.f.job(t, "J-1", model.JobValidated)
	j2 := s.f.job(t, "J-2", model.JobValidated)

	res, err := s.svc.Create(context.Background(), service.TripInput{
		VehicleID: s.vehicle.ID,
		DriverID:  s.driver.ID,
		JobIDs:    []uuid.UUID{j2.ID, j1.ID},
		Packages:  []service.PackageInput{{JobID: &j1.ID, Barcode: "PKG-001", Quantity: 2, WeightKg: 4.5}},
	})
	require.NoError(t, err)
	require.True(t, res.Success, res.Errors)
	require.Equal(t, model.TripPlanned, res.Data.Status)
	require.NotEmpty(t, res.Data.Reference)

	detail, err := s.svc.Get(context.Background(), res.Data.ID)
	require.NoError(t, err)
	require.Len(t, detail.Data.Stops, 2)
	require.Equal(t, "J-2", detail.Data.Stops[0].Job.Reference)
	require.Equal(t, 1, detail.Data.Stops[0].Sequence)
	require.Equal(t, "J-1", detail.Data.Stops[1].Job.Reference)
	require.Equal(t, model.StopPending, detail.Data.Stops[1].StopStatus)
	for _, st := range detail.Data.Stops {
		require.Equal(t, model.JobPlanned, st.Job.Status)
	}
	require.Len(t, detail.Data.Packages, 1)
	require.Equal(t, s.vehicle.ID, detail.Data.Vehicle.ID)
}

func TestTripCreateRejectsUnplannableInput(t *testing.T) {
	t.Parallel()
	s := newTripSetup(t, nil)
	received := s.f.job(t, "J-NEW", model.JobReceived)

	res, err := s.svc.Create(context.Background(), service.TripInput{
		VehicleID: uuid.Must(uuid.NewV4()),
		DriverID:  s.driver.ID,
		JobIDs:    []uuid.UUID{received.ID},
	})
	require.NoError(t, err)
	require.ErrorIs(t, res.Err(), service.ErrValidation)
	require.Contains(t, res.Errors, "Vehicle not found or inactive.")
	require.Contains(t, res.Errors, "Job J-NEW must be Validated before planning (is Received).")

	list, err := s.svc.List(context.Background(), "")
	require.NoError(t, err)
	require.Empty(t, list.Data)
}

func TestTripStartCascadesOnlyPlannedJobs(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	pub := mocks.NewMockPublisher(ctrl)
	s := newTripSetup(t, pub)

	planned := s.f.job(t, "J-P", model.JobValidated)
	other := s.f.job(t, "J-C", model.JobValidated)
	trip := s.create(t, planned, other)

	jobs := service.NewJobService(s.f.deps)
	cancelled, err := jobs.ChangeStatus(context.Background(), other.ID, model.JobCancelled)
	require.NoError(t, err)
	require.True(t, cancelled.Success, cancelled.Errors)

	pub.EXPECT().
		Publish(gomock.Any(), queue.TripStatusQueue, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, event any) error {
			ev := event.(queue.TripStatusChanged)
			require.Equal(t, trip.ID, ev.TripID)
			require.Equal(t, "Planned", ev.From)
			require.Equal(t, "InProgress", ev.To)
			return nil
		})

	at := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	res, err := s.svc.Start(context.Background(), trip.ID, service.GeoPoint{Latitude: ptr(1.3), Longitude: ptr(103.8), Timestamp: at})
	require.NoError(t, err)
	require.True(t, res.Success, res.Errors)
	require.Equal(t, model.TripInProgress, res.Data.Status)
	require.True(t, res.Data.StartTime.Equal(at))

	require.Equal(t, model.JobInTransit, get[model.Job](t, s.f, planned.ID).Status)
	require.Equal(t, model.JobCancelled, get[model.Job](t, s.f, other.ID).Status)
	stored := get[model.Trip](t, s.f, trip.ID)
	require.Equal(t, model.TripInProgress, stored.Status)
	require.InDelta(t, 1.3, *stored.StartLatitude, 1e-9)
}

func TestTripCompleteFollowsTransitionTable(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	pub := mocks.NewMockPublisher(ctrl)
	s := newTripSetup(t, pub)
	ctx := context.Background()

	pub.EXPECT().Publish(gomock.Any(), queue.TripStatusQueue, gomock.Any()).Return(nil).Times(3)

	// Planned trips may complete directly.
	direct := s.create(t)
	res, err := s.svc.Complete(ctx, direct.ID, service.GeoPoint{})
	require.NoError(t, err)
	require.True(t, res.Success, res.Errors)
	require.Equal(t, model.TripCompleted, res.Data.Status)
	require.NotNil(t, res.Data.EndTime)
	require.True(t, res.Data.EndTime.Equal(testNow))

	again, err := s.svc.Complete(ctx, direct.ID, service.GeoPoint{})
	require.NoError(t, err)
	require.ErrorIs(t, again.Err(), service.ErrConflict)

	cancelled := s.create(t)
	c, err := s.svc.Cancel(ctx, cancelled.ID, "vehicle breakdown")
	require.NoError(t, err)
	require.True(t, c.Success, c.Errors)
	require.Equal(t, "vehicle breakdown", c.Data.Notes)

	late, err := s.svc.Complete(ctx, cancelled.ID, service.GeoPoint{})
	require.NoError(t, err)
	require.ErrorIs(t, late.Err(), service.ErrConflict)
	require.Equal(t, model.TripCancelled, get[model.Trip](t, s.f, cancelled.ID).Status)

	started := s.create(t)
	_, err = s.svc.Start(ctx, started.ID, service.GeoPoint{})
	require.NoError(t, err)
	restart, err := s.svc.Start(ctx, started.ID, service.GeoPoint{})
	require.NoError(t, err)
	require.ErrorIs(t, restart.Err(), service.ErrConflict)
}

func TestTripPublishFailureDoesNotFailRequest(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	pub := mocks.NewMockPublisher(ctrl)
	s := newTripSetup(t, pub)

	pub.EXPECT().Publish(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("broker down"))

	trip := s.create(t)
	res, err := s.svc.Start(context.Background(), trip.ID, service.GeoPoint{})
	require.NoError(t, err)
	require.True(t, res.Success)
}

func TestTripStartRejectsBadPosition(t *testing.T) {
	t.Parallel()
	s := newTripSetup(t, nil)
	trip := s.create(t)

	res, err := s.svc.Start(context.Background(), trip.ID, service.GeoPoint{Latitude: ptr(95.0), Longitude: ptr(10.0)})
	require.NoError(t, err)
	require.ErrorIs(t, res.Err(), service.ErrValidation)
	require.Equal(t, model.TripPlanned, get[model.Trip](t, s.f, trip.ID).Status)
}

func TestJobStatusTransitions(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)
	svc := service.NewJobService(f.deps)
	ctx := context.Background()

	created, err := svc.Create(ctx, service.JobInput{PickupAddress: "A", DeliveryAddress: "B", WeightKg: 10})
	require.NoError(t, err)
	require.True(t, created.Success, created.Errors)
	require.Equal(t, model.JobReceived, created.Data.Status)

	skip, err := svc.ChangeStatus(ctx, created.Data.ID, model.JobDelivered)
	require.NoError(t, err)
	require.ErrorIs(t, skip.Err(), service.ErrConflict)

	valid, err := svc.ChangeStatus(ctx, created.Data.ID, model.JobValidated)
	require.NoError(t, err)
	require.True(t, valid.Success)

	bogus, err := svc.ChangeStatus(ctx, created.Data.ID, model.JobStatus("Lost"))
	require.NoError(t, err)
	require.ErrorIs(t, bogus.Err(), service.ErrValidation)

	list, err := svc.List(ctx, "Validated")
	require.NoError(t, err)
	require.Len(t, list.Data, 1)
}

func TestJobCreateValidation(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)
	start := time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC)
	res, err := service.NewJobService(f.deps).Create(context.Background(), service.JobInput{
		PickupLatitude: ptr(1.3),
		WindowStart:    &start,
		WindowEnd:      ptr(start.Add(-time.Hour)),
		WeightKg:       -1,
	})
	require.NoError(t, err)
	require.Equal(t, []string{
		"Pickup address is required.",
		"Delivery address is required.",
		"Pickup needs both latitude and longitude.",
		"Delivery window end must not be before its start.",
		"Weight must not be negative.",
	}, res.Errors)
}

func TestTripCancelReleasesJobsForReplanning(t *testing.T) {
	t.Parallel()
	s := newTripSetup(t, nil)
	ctx := context.Background()
	job := s.f.job(t, "J-R", model.JobValidated)

	first := s.create(t, job)
	dup, err := s.svc.Create(ctx, service.TripInput{VehicleID: s.vehicle.ID, DriverID: s.driver.ID, JobIDs: []uuid.UUID{job.ID}})
	require.NoError(t, err)
	require.ErrorIs(t, dup.Err(), service.ErrValidation)
	require.Contains(t, dup.Errors, "Job J-R is already on a trip.")

	c, err := s.svc.Cancel(ctx, first.ID, "customer closed")
	require.NoError(t, err)
	require.True(t, c.Success, c.Errors)
	require.Equal(t, model.JobPlanned, get[model.Job](t, s.f, job.ID).Status)

	second := s.create(t, job)
	require.NotEqual(t, first.ID, second.ID)

	detail, err := s.svc.Get(ctx, second.ID)
	require.NoError(t, err)
	require.Len(t, detail.Data.Stops, 1)
	require.Equal(t, job.ID, detail.Data.Stops[0].Job.ID)
}
