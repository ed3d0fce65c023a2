package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// Job is a single shipment: one pickup, one drop. POD fields stay nil until
// the driver app records a delivery.
type Job struct {
	Base
	Reference         string     `json:"reference"`
	CustomerID        *uuid.UUID `json:"customerId,omitempty"`
	PickupAddress     string     `json:"pickupAddress"`
	DeliveryAddress   string     `json:"deliveryAddress"`
	PickupLatitude    *float64   `json:"pickupLatitude,omitempty"`
	PickupLongitude   *float64   `json:"pickupLongitude,omitempty"`
	DeliveryLatitude  *float64   `json:"deliveryLatitude,omitempty"`
	DeliveryLongitude *float64   `json:"deliveryLongitude,omitempty"`
	WindowStart       *time.Time `json:"windowStart,omitempty"`
	WindowEnd         *time.Time `json:"windowEnd,omitempty"`
	WeightKg          float64    `json:"weightKg"`
	VolumeM3          float64    `json:"volumeM3"`
	Status            JobStatus  `json:"status"`
	DeliveredOn       *time.Time `json:"deliveredOn,omitempty"`
	PODImagePath      *string    `json:"podImagePath,omitempty"`
	PODSignaturePath  *string    `json:"podSignaturePath,omitempty"`
	PODLatitude       *float64   `json:"podLatitude,omitempty"`
	PODLongitude      *float64   `json:"podLongitude,omitempty"`
	PODNote           *string    `json:"podNote,omitempty"`
}

func (*Job) TableName() string { return "jobs" }

func (*Job) Columns() []string {
	return withBase("reference", "customer_id", "pickup_address", "delivery_address",
		"pickup_latitude", "pickup_longitude", "delivery_latitude", "delivery_longitude",
		"window_start", "window_end", "weight_kg", "volume_m3", "status", "delivered_on",
		"pod_image_path", "pod_signature_path", "pod_latitude", "pod_longitude", "pod_note")
}

func (j *Job) Values() []any {
	return append(j.baseValues(), j.Reference, j.CustomerID, j.PickupAddress, j.DeliveryAddress,
		j.PickupLatitude, j.PickupLongitude, j.DeliveryLatitude, j.DeliveryLongitude,
		j.WindowStart, j.WindowEnd, j.WeightKg, j.VolumeM3, j.Status, j.DeliveredOn,
		j.PODImagePath, j.PODSignaturePath, j.PODLatitude, j.PODLongitude, j.PODNote)
}

func (j *Job) ScanDest() []any {
	return append(j.baseDest(), &j.Reference, &j.CustomerID, &j.PickupAddress, &j.DeliveryAddress,
		&j.PickupLatitude, &j.PickupLongitude, &j.DeliveryLatitude, &j.DeliveryLongitude,
		&j.WindowStart, &j.WindowEnd, &j.WeightKg, &j.VolumeM3, &j.Status, &j.DeliveredOn,
		&j.PODImagePath, &j.PODSignaturePath, &j.PODLatitude, &j.PODLongitude, &j.PODNote)
}

// JobRequest is submitted by a customer and later converted into a job on
// a trip, or rejected.
type JobRequest struct {
	Base
	RequestNumber   string           `json:"requestNumber"`
	CustomerID      uuid.UUID        `json:"customerId"`
	PickupAddress   string           `json:"pickupAddress"`
	DeliveryAddress string           `json:"deliveryAddress"`
	RequestedDate   time.Time        `json:"requestedDate"`
	WeightKg        float64          `json:"weightKg"`
	VolumeM3        float64          `json:"volumeM3"`
	Notes           string           `json:"notes"`
	Status          JobRequestStatus `json:"status"`
	TripID          *uuid.UUID       `json:"tripId,omitempty"`
	RejectionReason *string          `json:"rejectionReason,omitempty"`
}

func (*JobRequest) TableName() string { return "job_requests" }

func (*JobRequest) Columns() []string {
	return withBase("request_number", "customer_id", "pickup_address", "delivery_address", "requested_date",
		"weight_kg", "volume_m3", "notes", "status", "trip_id", "rejection_reason")
}

func (r *JobRequest) Values() []any {
	return append(r.baseValues(), r.RequestNumber, r.CustomerID, r.PickupAddress, r.DeliveryAddress, r.RequestedDate,
		r.WeightKg, r.VolumeM3, r.Notes, r.Status, r.TripID, r.RejectionReason)
}

func (r *JobRequest) ScanDest() []any {
	return append(r.baseDest(), &r.RequestNumber, &r.CustomerID, &r.PickupAddress, &r.DeliveryAddress, &r.RequestedDate,
		&r.WeightKg, &r.VolumeM3, &r.Notes, &r.Status, &r.TripID, &r.RejectionReason)
}
