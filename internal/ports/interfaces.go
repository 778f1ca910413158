package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	models "github.com/oceandrift/fishcrew/internal"
)

// TripStore is the transactional persistence boundary for trips and
// their bookings. Mutate serializes all capacity-affecting work for a
// single trip: it loads the trip row under an exclusive lock, runs fn
// against the locked snapshot and persists fn's changes to the trip and
// its bookings in the same transaction. Lock contention surfaces as
// models.ErrBusy after a bounded number of retries. Mutations on
// different trips never block each other.
type TripStore interface {
	CreateTrip(ctx context.Context, trip *models.Trip) error
	GetTrip(ctx context.Context, id uuid.UUID) (*models.Trip, error)
	FindOpenTrip(ctx context.Context, date time.Time, slot models.TimeSlot) (*models.Trip, error)
	FindTripByBooking(ctx context.Context, bookingID uuid.UUID) (uuid.UUID, error)
	Mutate(ctx context.Context, tripID uuid.UUID, fn func(trip *models.Trip) error) (*models.Trip, error)
}

type ApprovalStore interface {
	CreateApproval(ctx context.Context, approval *models.ApprovalRequest) error
	GetApproval(ctx context.Context, id uuid.UUID) (*models.ApprovalRequest, error)
	GetApprovalFor(ctx context.Context, tripID, participantID uuid.UUID) (*models.ApprovalRequest, error)
	UpdateApproval(ctx context.Context, approval *models.ApprovalRequest) error
	// ConsumeApproval atomically claims the APPROVED, not yet consumed
	// request for (tripID, participantID) on behalf of bookingID.
	// Returns models.ErrNotApproved when there is nothing to claim.
	ConsumeApproval(ctx context.Context, tripID, participantID, bookingID uuid.UUID) (*models.ApprovalRequest, error)
	// ReleaseApproval undoes a claim whose booking did not commit.
	ReleaseApproval(ctx context.Context, approvalID uuid.UUID) error
}

// NotificationFanout receives transition events strictly after the
// owning transaction commits. Delivery is fire-and-forget; an emit
// failure must never affect the committed booking.
type NotificationFanout interface {
	Emit(ctx context.Context, event models.TransitionEvent) error
}

// ProfileDirectory is the read-only reputation lookup backing the
// approval gate.
type ProfileDirectory interface {
	GetProfile(ctx context.Context, participantID uuid.UUID) (*models.ParticipantProfile, error)
}

// SnapshotCache is the read-side cache for trip snapshots served to
// polling UIs. A miss or cache failure falls through to the store.
type SnapshotCache interface {
	Get(ctx context.Context, tripID uuid.UUID) (*models.TripSnapshot, error)
	Set(ctx context.Context, snapshot models.TripSnapshot) error
	Invalidate(ctx context.Context, tripID uuid.UUID) error
}

type BookingService interface {
	CreateBooking(ctx context.Context, req *models.BookingRequest) (*models.Booking, error)
	CancelBooking(ctx context.Context, bookingID uuid.UUID, reason string) (*models.Booking, error)
	CancelTrip(ctx context.Context, tripID uuid.UUID, reason string) (*models.Trip, error)
	GetTripSnapshot(ctx context.Context, tripID uuid.UUID) (*models.TripSnapshot, error)
	ListTripBookings(ctx context.Context, tripID uuid.UUID) ([]models.Booking, error)
}

type ApprovalService interface {
	RequiresApproval(profile *models.ParticipantProfile) bool
	SubmitApplication(ctx context.Context, tripID, participantID uuid.UUID, message string) (*models.ApprovalRequest, error)
	Decide(ctx context.Context, approvalID uuid.UUID, decision models.ApprovalStatus, operatorID uuid.UUID) (*models.ApprovalRequest, error)
}
