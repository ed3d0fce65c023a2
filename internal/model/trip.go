package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// Trip is a manifest: one vehicle and one driver covering an ordered list of
// jobs.
type Trip struct {
	Base
	Reference      string     `json:"reference"`
	VehicleID      uuid.UUID  `json:"vehicleId"`
	DriverID       uuid.UUID  `json:"driverId"`
	OrganizationID *uuid.UUID `json:"organizationId,omitempty"`
	CustomerID     *uuid.UUID `json:"customerId,omitempty"`
	Status         TripStatus `json:"status"`
	PlannedStart   *time.Time `json:"plannedStart,omitempty"`
	StartTime      *time.Time `json:"startTime,omitempty"`
	EndTime        *time.Time `json:"endTime,omitempty"`
	StartLatitude  *float64   `json:"startLatitude,omitempty"`
	StartLongitude *float64   `json:"startLongitude,omitempty"`
	EndLatitude    *float64   `json:"endLatitude,omitempty"`
	EndLongitude   *float64   `json:"endLongitude,omitempty"`
	Notes          string     `json:"notes"`
}

func (*Trip) TableName() string { return "trips" }

func (*Trip) Columns() []string {
	return withBase("reference", "vehicle_id", "driver_id", "organization_id", "customer_id", "status",
		"planned_start", "start_time", "end_time", "start_latitude", "start_longitude",
		"end_latitude", "end_longitude", "notes")
}

func (t *Trip) Values() []any {
	return append(t.baseValues(), t.Reference, t.VehicleID, t.DriverID, t.OrganizationID, t.CustomerID, t.Status,
		t.PlannedStart, t.StartTime, t.EndTime, t.StartLatitude, t.StartLongitude,
		t.EndLatitude, t.EndLongitude, t.Notes)
}

func (t *Trip) ScanDest() []any {
	return append(t.baseDest(), &t.Reference, &t.VehicleID, &t.DriverID, &t.OrganizationID, &t.CustomerID, &t.Status,
		&t.PlannedStart, &t.StartTime, &t.EndTime, &t.StartLatitude, &t.StartLongitude,
		&t.EndLatitude, &t.EndLongitude, &t.Notes)
}

// TripJob places a job on a trip at a delivery sequence.
type TripJob struct {
	TripID     uuid.UUID  `json:"tripId"`
	JobID      uuid.UUID  `json:"jobId"`
	Sequence   int        `json:"sequence"`
	StopStatus StopStatus `json:"stopStatus"`
}

func (*TripJob) TableName() string { return "trip_jobs" }
func (*TripJob) Columns() []string {
	return []string{"trip_id", "job_id", "sequence_no", "stop_status"}
}
func (*TripJob) KeyColumns() []string { return []string{"trip_id", "job_id"} }
func (tj *TripJob) KeyValues() []any  { return []any{tj.TripID, tj.JobID} }
func (tj *TripJob) Values() []any     { return []any{tj.TripID, tj.JobID, tj.Sequence, tj.StopStatus} }
func (tj *TripJob) ScanDest() []any {
	return []any{&tj.TripID, &tj.JobID, &tj.Sequence, &tj.StopStatus}
}

// Package is a handling unit carried on a trip, optionally tied to a job.
type Package struct {
	Base
	TripID      uuid.UUID  `json:"tripId"`
	JobID       *uuid.UUID `json:"jobId,omitempty"`
	Barcode     string     `json:"barcode"`
	Description string     `json:"description"`
	WeightKg    float64    `json:"weightKg"`
	Quantity    int        `json:"quantity"`
}

func (*Package) TableName() string { return "packages" }

func (*Package) Columns() []string {
	return withBase("trip_id", "job_id", "barcode", "description", "weight_kg", "quantity")
}

func (p *Package) Values() []any {
	return append(p.baseValues(), p.TripID, p.JobID, p.Barcode, p.Description, p.WeightKg, p.Quantity)
}

func (p *Package) ScanDest() []any {
	return append(p.baseDest(), &p.TripID, &p.JobID, &p.Barcode, &p.Description, &p.WeightKg, &p.Quantity)
}
