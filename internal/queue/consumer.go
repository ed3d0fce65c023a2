package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/fleet-backoffice/internal/logger"
	"github.com/iliyamo/fleet-backoffice/internal/model"
	"github.com/iliyamo/fleet-backoffice/internal/repository"
)

// AuditSink stores audit events as AuditLog rows.
type AuditSink struct {
	Store repository.Factory
}

// Handle decodes one message body and persists it. A body that does not
// decode, or lacks method and path, is reported as an error so the caller
// can drop it.
func (s AuditSink) Handle(ctx context.Context, body []byte) error {
	var ev AuditEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.Method == "" || ev.Path == "" {
		return errors.New("audit event without method or path")
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	uow := s.Store.UnitOfWork(repository.ContextWithActor(ctx, repository.SystemActor))
	repository.Repo[model.AuditLog](uow).Add(&model.AuditLog{
		UserID:     ev.UserID,
		Username:   ev.Username,
		Method:     ev.Method,
		Path:       ev.Path,
		StatusCode: ev.StatusCode,
		DurationMs: ev.DurationMs,
		RemoteIP:   ev.RemoteIP,
		OccurredOn: ev.OccurredAt.UTC(),
	})
	_, err := uow.SaveChanges(ctx)
	return err
}

// StartAuditConsumer connects to RabbitMQ, declares the audit queue and
// stores every delivery through sink. It reconnects with exponential
// backoff (capped at 30s) until ctx is cancelled, which is the only way it
// returns.
func StartAuditConsumer(ctx context.Context, url string, sink AuditSink, log logger.ILogger) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Warning("audit-consumer: failed to dial broker", logger.Error(err), logger.Duration("retry_in", backoff))
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = consumeLoop(ctx, conn, sink, log)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Warning("audit-consumer: consume loop ended, reconnecting", logger.Error(err))
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, sink AuditSink, log logger.ILogger) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Warning("audit-consumer: set QoS failed", logger.Error(err))
	}
	if _, err := ch.QueueDeclare(AuditQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(AuditQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := sink.Handle(ctx, d.Body); err != nil {
				log.Error("audit-consumer: handle message failed", logger.Error(err))
				// reject without requeue to avoid a hot loop on poison messages
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
