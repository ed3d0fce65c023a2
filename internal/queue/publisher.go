package queue

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/fleet-backoffice/internal/logger"
)

//go:generate go run go.uber.org/mock/mockgen@latest -source=publisher.go -destination=../mocks/publisher.go -package=mocks

// Publisher delivers an event as JSON to the named durable queue.
type Publisher interface {
	Publish(ctx context.Context, queue string, event any) error
}

// NopPublisher drops every event. It is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, any) error { return nil }

// RabbitPublisher keeps one connection and channel open and reopens them
// after a failure. Messages are persistent and go through the default
// exchange with the queue name as routing key.
type RabbitPublisher struct {
	url string
	log logger.ILogger

	mu       sync.Mutex
	conn     *amqp.Connection
	ch       *amqp.Channel
	declared map[string]bool
}

func NewRabbitPublisher(url string, log logger.ILogger) *RabbitPublisher {
	return &RabbitPublisher{url: url, log: log, declared: make(map[string]bool)}
}

// Publish retries once on a fresh channel when the first attempt fails.
func (p *RabbitPublisher) Publish(ctx context.Context, queue string, event any) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	for attempt := 0; attempt < 2; attempt++ {
		if err = p.publishLocked(ctx, queue, msg); err == nil {
			return nil
		}
		p.log.Warning("rabbitmq: publish failed", logger.String("queue", queue), logger.Error(err))
		p.resetLocked()
	}
	return err
}

func (p *RabbitPublisher) publishLocked(ctx context.Context, queue string, msg amqp.Publishing) error {
	if p.ch == nil || p.ch.IsClosed() {
		if err := p.openLocked(); err != nil {
			return err
		}
	}
	if !p.declared[queue] {
		if _, err := p.ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
			return err
		}
		p.declared[queue] = true
	}
	return p.ch.PublishWithContext(ctx, "", queue, false, false, msg)
}

func (p *RabbitPublisher) openLocked() error {
	if p.conn == nil || p.conn.IsClosed() {
		conn, err := amqp.Dial(p.url)
		if err != nil {
			return err
		}
		p.conn = conn
	}
	ch, err := p.conn.Channel()
	if err != nil {
		return err
	}
	p.ch = ch
	p.declared = make(map[string]bool)
	return nil
}

func (p *RabbitPublisher) resetLocked() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}

// Close releases the connection. Publish after Close reconnects.
func (p *RabbitPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var err error
	if p.ch != nil {
		err = p.ch.Close()
	}
	if p.conn != nil {
		err = errors.Join(err, p.conn.Close())
	}
	p.ch, p.conn = nil, nil
	return err
}
