// Package queue carries domain events to RabbitMQ and consumes the audit
// stream back into the database.
package queue

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// Durable queues declared by both publisher and consumer.
const (
	TripStatusQueue   = "fleet.trip.status"
	JobDeliveredQueue = "fleet.job.delivered"
	AuditQueue        = "fleet.audit"
)

// TripStatusChanged is published after a trip status change commits.
type TripStatusChanged struct {
	TripID     uuid.UUID `json:"trip_id"`
	Reference  string    `json:"reference"`
	DriverID   uuid.UUID `json:"driver_id"`
	VehicleID  uuid.UUID `json:"vehicle_id"`
	From       string    `json:"from"`
	To         string    `json:"to"`
	Actor      string    `json:"actor"`
	OccurredAt time.Time `json:"occurred_at"`
}

// JobDelivered is published once proof of delivery is stored.
type JobDelivered struct {
	JobID         uuid.UUID  `json:"job_id"`
	Reference     string     `json:"reference"`
	TripID        *uuid.UUID `json:"trip_id,omitempty"`
	Latitude      *float64   `json:"latitude,omitempty"`
	Longitude     *float64   `json:"longitude,omitempty"`
	ImagePath     *string    `json:"image_path,omitempty"`
	SignaturePath *string    `json:"signature_path,omitempty"`
	DeliveredAt   time.Time  `json:"delivered_at"`
}

// AuditEvent describes one mutating HTTP request.
type AuditEvent struct {
	UserID     string    `json:"user_id"`
	Username   string    `json:"username"`
	Method     string    `json:"method"`
	Path       string    `json:"path"`
	StatusCode int       `json:"status_code"`
	DurationMs int64     `json:"duration_ms"`
	RemoteIP   string    `json:"remote_ip"`
	OccurredAt time.Time `json:"occurred_at"`
}
