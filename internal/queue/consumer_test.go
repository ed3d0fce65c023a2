package queue_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/fleet-backoffice/internal/database/dbtest"
	"github.com/iliyamo/fleet-backoffice/internal/model"
	"github.com/iliyamo/fleet-backoffice/internal/queue"
	"github.com/iliyamo/fleet-backoffice/internal/repository"
)

func TestAuditSinkStoresEvents(t *testing.T) {
	t.Parallel()
	db := dbtest.New(t)
	sink := queue.AuditSink{Store: db}
	ctx := context.Background()

	at := time.Date(2024, 5, 1, 8, 30, 0, 0, time.FixedZone("SGT", 8*3600))
	body, err := json.Marshal(queue.AuditEvent{
		UserID:     "7f1c",
		Username:   "dispatch1",
		Method:     "POST",
		Path:       "/api/trips",
		StatusCode: 201,
		DurationMs: 12,
		RemoteIP:   "10.0.0.7",
		OccurredAt: at,
	})
	require.NoError(t, err)
	require.NoError(t, sink.Handle(ctx, body))

	logs, err := repository.Repo[model.AuditLog](db.UnitOfWork(ctx)).GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	got := logs[0]
	require.Equal(t, "dispatch1", got.Username)
	require.Equal(t, "/api/trips", got.Path)
	require.Equal(t, 201, got.StatusCode)
	require.Equal(t, repository.SystemActor, got.CreatedBy)
	require.True(t, at.Equal(got.OccurredOn))
}

func TestAuditSinkRejectsPoisonMessages(t *testing.T) {
	t.Parallel()
	db := dbtest.New(t)
	sink := queue.AuditSink{Store: db}
	ctx := context.Background()

	require.Error(t, sink.Handle(ctx, []byte("{not json")))
	require.Error(t, sink.Handle(ctx, []byte(`{"method":"POST"}`)))

	logs, err := repository.Repo[model.AuditLog](db.UnitOfWork(ctx)).GetAll(ctx)
	require.NoError(t, err)
	require.Empty(t, logs)
}

func TestNopPublisher(t *testing.T) {
	t.Parallel()
	var p queue.Publisher = queue.NopPublisher{}
	require.NoError(t, p.Publish(context.Background(), queue.TripStatusQueue, queue.TripStatusChanged{}))
}
