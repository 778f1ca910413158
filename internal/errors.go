package models

import "errors"

var (
	ErrTripNotFound        = errors.New("trip not found")
	ErrBookingNotFound     = errors.New("booking not found")
	ErrInvalidUUID         = errors.New("invalid uuid")
	ErrInvalidParticipants = errors.New("participants must be at least 1")
)

var (
	// ErrCapacityExceeded: the requested party does not fit in the
	// trip's remaining capacity. Not retryable with the same size.
	ErrCapacityExceeded = errors.New("capacity exceeded")
	// ErrBusy: the per-trip lock could not be acquired within the
	// bounded retry budget. Retryable.
	ErrBusy             = errors.New("trip busy, try again")
	ErrAlreadyCancelled = errors.New("already cancelled")
	ErrTripCancelled    = errors.New("trip cancelled")
	ErrTripExists       = errors.New("open trip already exists for this date and slot")
)

var (
	ErrDuplicateApplication         = errors.New("application already exists for this trip")
	ErrTripNotAcceptingApplications = errors.New("trip is not accepting applications")
	ErrNotApproved                  = errors.New("participant has no approved application for this trip")
	ErrApprovalNotFound             = errors.New("approval request not found")
	ErrApprovalAlreadyDecided       = errors.New("approval request already decided")
)
