package service_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/iliyamo/fleet-backoffice/internal/filestore"
	"github.com/iliyamo/fleet-backoffice/internal/mocks"
	"github.com/iliyamo/fleet-backoffice/internal/model"
	"github.com/iliyamo/fleet-backoffice/internal/queue"
	"github.com/iliyamo/fleet-backoffice/internal/service"
)

type mobileSetup struct {
	*tripSetup
	mobile *service.MobileService
	root   string
}

func newMobileSetup(t *testing.T, pub queue.Publisher) *mobileSetup {
	s := newTripSetup(t, pub)
	root := t.TempDir()
	files, err := filestore.NewLocal(root, 0)
	require.NoError(t, err)
	return &mobileSetup{tripSetup: s, mobile: service.NewMobileService(s.f.deps, s.svc, files), root: root}
}

func TestMobileTripsAreScopedToDriver(t *testing.T) {
	t.Parallel()
	m := newMobileSetup(t, nil)
	ctx := context.Background()
	job := m.f.job(t, "J-M1", model.JobValidated)
	trip := m.create(t, job)

	list, err := m.mobile.TripsForDriver(ctx, m.driver.ID)
	require.NoError(t, err)
	require.Len(t, list.Data, 1)
	require.Len(t, list.Data[0].Stops, 1)

	other := m.f.driver(t, "F7654321Q", nil)
	res, err := m.mobile.StartTrip(ctx, other.ID, trip.ID, service.GeoPoint{})
	require.NoError(t, err)
	require.ErrorIs(t, res.Err(), service.ErrForbidden)

	missing, err := m.mobile.TripsForDriver(ctx, uuid.Must(uuid.NewV4()))
	require.NoError(t, err)
	require.ErrorIs(t, missing.Err(), service.ErrNotFound)
}

func TestMobileProofOfDelivery(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	pub := mocks.NewMockPublisher(ctrl)
	m := newMobileSetup(t, pub)
	ctx := context.Background()

	job := m.f.job(t, "J-POD", model.JobValidated)
	trip := m.create(t, job)

	gomock.InOrder(
		pub.EXPECT().Publish(gomock.Any(), queue.TripStatusQueue, gomock.Any()).Return(nil),
		pub.EXPECT().Publish(gomock.Any(), queue.JobDeliveredQueue, gomock.Any()).
			DoAndReturn(func(_ context.Context, _ string, event any) error {
				ev := event.(queue.JobDelivered)
				require.Equal(t, job.ID, ev.JobID)
				require.Equal(t, trip.ID, *ev.TripID)
				return nil
			}),
	)

	started, err := m.mobile.StartTrip(ctx, m.driver.ID, trip.ID, service.GeoPoint{})
	require.NoError(t, err)
	require.True(t, started.Success, started.Errors)

	res, err := m.mobile.RecordPOD(ctx, m.driver.ID, job.ID, service.POD{
		Latitude:  ptr(1.35),
		Longitude: ptr(103.9),
		Note:      "left with security",
		Image:     &service.Upload{Filename: "door.jpg", Content: strings.NewReader("jpeg")},
	})
	require.NoError(t, err)
	require.True(t, res.Success, res.Errors)

	stored := get[model.Job](t, m.f, job.ID)
	require.Equal(t, model.JobDelivered, stored.Status)
	require.NotNil(t, stored.DeliveredOn)
	require.NotNil(t, stored.PODImagePath)
	require.Nil(t, stored.PODSignaturePath)
	require.InDelta(t, 1.35, *stored.PODLatitude, 1e-9)
	require.Equal(t, "left with security", *stored.PODNote)

	data, err := os.ReadFile(filepath.Join(m.root, filepath.FromSlash(*stored.PODImagePath)))
	require.NoError(t, err)
	require.Equal(t, "jpeg", string(data))

	detail, err := m.svc.Get(ctx, trip.ID)
	require.NoError(t, err)
	require.Equal(t, model.StopDelivered, detail.Data.Stops[0].StopStatus)
}

func TestMobileProofOfDeliveryRequiresInTransitJob(t *testing.T) {
	t.Parallel()
	m := newMobileSetup(t, nil)
	job := m.f.job(t, "J-EARLY", model.JobValidated)
	m.create(t, job)

	res, err := m.mobile.RecordPOD(context.Background(), m.driver.ID, job.ID, service.POD{})
	require.NoError(t, err)
	require.ErrorIs(t, res.Err(), service.ErrConflict)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestMobileProofOfDeliveryUploadFailureKeepsJob(t *testing.T) {
	t.Parallel()
	m := newMobileSetup(t, nil)
	ctx := context.Background()
	job := m.f.job(t, "J-FAIL", model.JobValidated)
	trip := m.create(t, job)
	_, err := m.mobile.StartTrip(ctx, m.driver.ID, trip.ID, service.GeoPoint{})
	require.NoError(t, err)

	_, err = m.mobile.RecordPOD(ctx, m.driver.ID, job.ID, service.POD{
		Image:     &service.Upload{Filename: "a.jpg", Content: strings.NewReader("ok")},
		Signature: &service.Upload{Filename: "b.png", Content: io.Reader(failingReader{})},
	})
	require.Error(t, err)
	require.Equal(t, model.JobInTransit, get[model.Job](t, m.f, job.ID).Status)

	entries, err := os.ReadDir(filepath.Join(m.root, "pod", job.ID.String()))
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestMobileLocationNeedsActiveTrip(t *testing.T) {
	t.Parallel()
	m := newMobileSetup(t, nil)
	ctx := context.Background()
	trip := m.create(t)

	none, err := m.mobile.UpdateLocation(ctx, m.driver.ID, service.LocationUpdate{Latitude: 1.29, Longitude: 103.85})
	require.NoError(t, err)
	require.ErrorIs(t, none.Err(), service.ErrNotFound)

	_, err = m.mobile.StartTrip(ctx, m.driver.ID, trip.ID, service.GeoPoint{})
	require.NoError(t, err)

	res, err := m.mobile.UpdateLocation(ctx, m.driver.ID, service.LocationUpdate{Latitude: 1.29, Longitude: 103.85})
	require.NoError(t, err)
	require.True(t, res.Success, res.Errors)

	v := get[model.Vehicle](t, m.f, m.vehicle.ID)
	require.InDelta(t, 1.29, *v.Latitude, 1e-9)
	require.InDelta(t, 103.85, *v.Longitude, 1e-9)
	require.True(t, v.LocationUpdatedOn.Equal(testNow))

	bad, err := m.mobile.UpdateLocation(ctx, m.driver.ID, service.LocationUpdate{Latitude: 91, Longitude: 0})
	require.NoError(t, err)
	require.ErrorIs(t, bad.Err(), service.ErrValidation)
}

func TestMobileProofOfDeliveryOversizedFileIsRejected(t *testing.T) {
	t.Parallel()
	s := newTripSetup(t, nil)
	ctx := context.Background()
	root := t.TempDir()
	files, err := filestore.NewLocal(root, 10)
	require.NoError(t, err)
	mobile := service.NewMobileService(s.f.deps, s.svc, files)

	job := s.f.job(t, "J-BIG", model.JobValidated)
	trip := s.create(t, job)
	_, err = mobile.StartTrip(ctx, s.driver.ID, trip.ID, service.GeoPoint{})
	require.NoError(t, err)

	res, err := mobile.RecordPOD(ctx, s.driver.ID, job.ID, service.POD{
		Image:     &service.Upload{Filename: "small.jpg", Content: strings.NewReader("tiny")},
		Signature: &service.Upload{Filename: "big.png", Content: strings.NewReader(strings.Repeat("x", 100))},
	})
	require.NoError(t, err)
	require.ErrorIs(t, res.Err(), service.ErrValidation)
	require.Equal(t, []string{"File big.png exceeds the upload limit."}, res.Errors)
	require.Equal(t, model.JobInTransit, get[model.Job](t, s.f, job.ID).Status)

	entries, err := os.ReadDir(filepath.Join(root, "pod", job.ID.String()))
	require.NoError(t, err)
	require.Empty(t, entries)
}
