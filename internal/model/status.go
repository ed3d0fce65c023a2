package model

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition is returned when a status change is not in the
// transition table of its enumeration.
var ErrInvalidTransition = errors.New("invalid status transition")

// JobStatus is the lifecycle of a shipment.
type JobStatus string

const (
	JobReceived  JobStatus = "Received"
	JobValidated JobStatus = "Validated"
	JobPlanned   JobStatus = "Planned"
	JobInTransit JobStatus = "InTransit"
	JobArrived   JobStatus = "Arrived"
	JobDelivered JobStatus = "Delivered"
	JobVerified  JobStatus = "Verified"
	JobCancelled JobStatus = "Cancelled"
)

var jobTransitions = map[JobStatus][]JobStatus{
	JobReceived:  {JobValidated, JobCancelled},
	JobValidated: {JobPlanned, JobCancelled},
	JobPlanned:   {JobInTransit, JobCancelled},
	JobInTransit: {JobArrived, JobDelivered, JobCancelled},
	JobArrived:   {JobDelivered, JobCancelled},
	JobDelivered: {JobVerified},
}

// TripStatus is the lifecycle of a manifest.
type TripStatus string

const (
	TripPlanned    TripStatus = "Planned"
	TripInProgress TripStatus = "InProgress"
	TripCompleted  TripStatus = "Completed"
	TripCancelled  TripStatus = "Cancelled"
)

var tripTransitions = map[TripStatus][]TripStatus{
	TripPlanned:    {TripInProgress, TripCompleted, TripCancelled},
	TripInProgress: {TripCompleted, TripCancelled},
}

// StopStatus is the per-stop state of a job on a trip.
type StopStatus string

const (
	StopPending   StopStatus = "Pending"
	StopArrived   StopStatus = "Arrived"
	StopDelivered StopStatus = "Delivered"
	StopSkipped   StopStatus = "Skipped"
)

var stopTransitions = map[StopStatus][]StopStatus{
	StopPending: {StopArrived, StopDelivered, StopSkipped},
	StopArrived: {StopDelivered, StopSkipped},
}

// JobRequestStatus is the lifecycle of a customer submitted request.
type JobRequestStatus string

const (
	RequestSubmitted JobRequestStatus = "Submitted"
	RequestConverted JobRequestStatus = "Converted"
	RequestRejected  JobRequestStatus = "Rejected"
)

var requestTransitions = map[JobRequestStatus][]JobRequestStatus{
	RequestSubmitted: {RequestConverted, RequestRejected},
}

// InvoiceStatus is the billing state of an invoice.
type InvoiceStatus string

const (
	InvoiceDraft  InvoiceStatus = "Draft"
	InvoiceIssued InvoiceStatus = "Issued"
	InvoicePaid   InvoiceStatus = "Paid"
	InvoiceVoid   InvoiceStatus = "Void"
)

var invoiceTransitions = map[InvoiceStatus][]InvoiceStatus{
	InvoiceDraft:  {InvoiceIssued, InvoiceVoid},
	InvoiceIssued: {InvoicePaid, InvoiceVoid},
}

type status interface {
	~string
}

func allowed[S status](table map[S][]S, from, to S) bool {
	for _, next := range table[from] {
		if next == to {
			return true
		}
	}
	return false
}

func transitionErr[S status](from, to S) error {
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, string(from), string(to))
}

func (s JobStatus) CanTransition(to JobStatus) bool { return allowed(jobTransitions, s, to) }

// Transition returns an error wrapping ErrInvalidTransition when to is not a
// successor of s.
func (s JobStatus) Transition(to JobStatus) error {
	if !s.CanTransition(to) {
		return transitionErr(s, to)
	}
	return nil
}

func (s JobStatus) Valid() bool {
	switch s {
	case JobReceived, JobValidated, JobPlanned, JobInTransit, JobArrived, JobDelivered, JobVerified, JobCancelled:
		return true
	}
	return false
}

func (s TripStatus) CanTransition(to TripStatus) bool { return allowed(tripTransitions, s, to) }

func (s TripStatus) Transition(to TripStatus) error {
	if !s.CanTransition(to) {
		return transitionErr(s, to)
	}
	return nil
}

func (s StopStatus) CanTransition(to StopStatus) bool { return allowed(stopTransitions, s, to) }

func (s JobRequestStatus) Transition(to JobRequestStatus) error {
	if !allowed(requestTransitions, s, to) {
		return transitionErr(s, to)
	}
	return nil
}

func (s InvoiceStatus) Transition(to InvoiceStatus) error {
	if !allowed(invoiceTransitions, s, to) {
		return transitionErr(s, to)
	}
	return nil
}
