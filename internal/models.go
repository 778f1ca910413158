package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TripStatus string

const (
	TripForming   TripStatus = "FORMING"
	TripConfirmed TripStatus = "CONFIRMED"
	TripCancelled TripStatus = "CANCELLED"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "PENDING"
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingCancelled BookingStatus = "CANCELLED"
)

type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "PENDING"
	ApprovalApproved ApprovalStatus = "APPROVED"
	ApprovalRejected ApprovalStatus = "REJECTED"
)

// TimeSlot is one of the fixed daily departure windows.
type TimeSlot string

const (
	SlotEarlyMorning TimeSlot = "EARLY_MORNING"
	SlotMorning      TimeSlot = "MORNING"
	SlotAfternoon    TimeSlot = "AFTERNOON"
	SlotSunset       TimeSlot = "SUNSET"
)

func ValidTimeSlot(s TimeSlot) bool {
	switch s {
	case SlotEarlyMorning, SlotMorning, SlotAfternoon, SlotSunset:
		return true
	}
	return false
}

type ContactInfo struct {
	Name  string `json:"name" validate:"required,min=2,max=100"`
	Phone string `json:"phone" validate:"required,phone"`
	Email string `json:"email,omitempty" validate:"omitempty,email"`
}

type Booking struct {
	ID           uuid.UUID     `json:"id"`
	TripID       uuid.UUID     `json:"trip_id"`
	Participants int           `json:"participants"`
	Contact      ContactInfo   `json:"contact"`
	Status       BookingStatus `json:"status"`
	CancelReason string        `json:"cancel_reason,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// Trip owns its bookings; Bookings is kept in insertion order.
// Version is bumped on every committed mutation and carried in emitted
// events so consumers can derive idempotency keys.
type Trip struct {
	ID              uuid.UUID       `json:"id"`
	Date            time.Time       `json:"date"`
	TimeSlot        TimeSlot        `json:"time_slot"`
	MaxParticipants int             `json:"max_participants"`
	MinRequired     int             `json:"min_required"`
	PricePerPerson  decimal.Decimal `json:"price_per_person"`
	Status          TripStatus      `json:"status"`
	Version         int             `json:"version"`
	Bookings        []Booking       `json:"bookings,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

type ApprovalRequest struct {
	ID            uuid.UUID      `json:"id"`
	TripID        uuid.UUID      `json:"trip_id"`
	ParticipantID uuid.UUID      `json:"participant_id"`
	Status        ApprovalStatus `json:"status"`
	Message       string         `json:"message,omitempty"`
	// BookingID is set once an APPROVED request has been consumed by a
	// booking; an approval authorizes exactly one booking.
	BookingID *uuid.UUID `json:"booking_id,omitempty"`
	DecidedBy *uuid.UUID `json:"decided_by,omitempty"`
	DecidedAt *time.Time `json:"decided_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func (a *ApprovalRequest) Decided() bool {
	return a.Status == ApprovalApproved || a.Status == ApprovalRejected
}

// ParticipantProfile is the read-only reputation input to the approval
// gate, fetched from the profile directory.
type ParticipantProfile struct {
	ParticipantID  uuid.UUID `json:"participant_id"`
	CompletedTrips int       `json:"completed_trips"`
	Reliability    float64   `json:"reliability"`
	Rating         float64   `json:"rating"`
	TotalReviews   int       `json:"total_reviews"`
	IsActive       bool      `json:"is_active"`
}

type TripSnapshot struct {
	TripID             uuid.UUID  `json:"trip_id"`
	Status             TripStatus `json:"status"`
	ActiveParticipants int        `json:"active_participants"`
	RemainingCapacity  int        `json:"remaining_capacity"`
	Version            int        `json:"version"`
}

type EventType string

const (
	EventTripConfirmed     EventType = "trip_confirmed"
	EventTripReopened      EventType = "trip_reopened"
	EventTripCancelled     EventType = "trip_cancelled"
	EventParticipantJoined EventType = "participant_joined"
	EventParticipantLeft   EventType = "participant_left"
)

// TransitionEvent describes the single transition-table row that fired
// for a committed mutation. Version is the trip version after commit.
type TransitionEvent struct {
	Type      EventType  `json:"type"`
	TripID    uuid.UUID  `json:"trip_id"`
	BookingID *uuid.UUID `json:"booking_id,omitempty"`
	Version   int        `json:"version"`
	Reason    string     `json:"reason,omitempty"`
	At        time.Time  `json:"at"`
}

type BookingRequest struct {
	TripID          *uuid.UUID      `json:"trip_id,omitempty"`
	Date            time.Time       `json:"date" validate:"required_without=TripID,omitempty,future_date"`
	TimeSlot        TimeSlot        `json:"time_slot" validate:"required_without=TripID,omitempty,time_slot"`
	MaxParticipants int             `json:"max_participants" validate:"omitempty,min=1,gtefield=MinRequired"`
	MinRequired     int             `json:"min_required" validate:"omitempty,min=1"`
	PricePerPerson  decimal.Decimal `json:"price_per_person"`
	Participants    int             `json:"participants" validate:"required,min=1"`
	ParticipantID   uuid.UUID       `json:"participant_id" validate:"required"`
	Contact         ContactInfo     `json:"contact" validate:"required"`
}

type ApplicationRequest struct {
	ParticipantID uuid.UUID `json:"participant_id" validate:"required"`
	Message       string    `json:"message" validate:"max=500"`
}

type DecisionRequest struct {
	Decision   ApprovalStatus `json:"decision" validate:"required,oneof=APPROVED REJECTED"`
	OperatorID uuid.UUID      `json:"operator_id" validate:"required"`
}

type CancelRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}
