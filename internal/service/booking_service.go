package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	models "github.com/oceandrift/fishcrew/internal"
	"github.com/oceandrift/fishcrew/internal/ledger"
	"github.com/oceandrift/fishcrew/internal/ports"
	"go.uber.org/zap"
)

// Config holds the engine policy knobs.
type Config struct {
	// ReopenOnConfirmedCancel reverts a CONFIRMED trip to FORMING when a
	// cancellation drops it below quorum. When false the trip stays
	// CONFIRMED and only a participant_left event fires.
	ReopenOnConfirmedCancel bool
	DefaultMaxParticipants  int
	DefaultMinRequired      int
}

type bookingService struct {
	trips     ports.TripStore
	approvals ports.ApprovalStore
	profiles  ports.ProfileDirectory
	fanout    ports.NotificationFanout
	cache     ports.SnapshotCache
	gate      ports.ApprovalService
	cfg       Config
	logger    *zap.Logger
	now       func() time.Time
}

func NewBookingService(
	trips ports.TripStore,
	approvals ports.ApprovalStore,
	profiles ports.ProfileDirectory,
	fanout ports.NotificationFanout,
	cache ports.SnapshotCache,
	gate ports.ApprovalService,
	cfg Config,
	logger *zap.Logger,
) *bookingService {
	if cfg.DefaultMaxParticipants == 0 {
		cfg.DefaultMaxParticipants = 8
	}
	if cfg.DefaultMinRequired == 0 {
		cfg.DefaultMinRequired = 6
	}
	return &bookingService{
		trips:     trips,
		approvals: approvals,
		profiles:  profiles,
		fanout:    fanout,
		cache:     cache,
		gate:      gate,
		cfg:       cfg,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *bookingService) CreateBooking(ctx context.Context, req *models.BookingRequest) (*models.Booking, error) {
	// The capacity arithmetic assumes positive party sizes; enforce it
	// here so the invariant does not depend on the transport layer.
	if req.Participants < 1 {
		return nil, models.ErrInvalidParticipants
	}

	tripID, created, err := s.resolveTrip(ctx, req)
	if err != nil {
		return nil, err
	}

	bookingID := uuid.New()

	claimed, err := s.claimApprovalIfRequired(ctx, tripID, req.ParticipantID, bookingID)
	if err != nil {
		if created {
			s.discardEmptyTrip(ctx, tripID)
		}
		return nil, err
	}

	var (
		booking *models.Booking
		event   models.TransitionEvent
	)
	trip, err := s.trips.Mutate(ctx, tripID, func(trip *models.Trip) error {
		switch trip.Status {
		case models.TripCancelled:
			return models.ErrTripCancelled
		case models.TripForming, models.TripConfirmed:
		default:
			return fmt.Errorf("unexpected trip status %s", trip.Status)
		}

		// Authoritative capacity check, re-evaluated under the lock.
		if !ledger.CanAccept(trip, req.Participants) {
			return models.ErrCapacityExceeded
		}

		now := s.now()
		b := models.Booking{
			ID:           bookingID,
			TripID:       trip.ID,
			Participants: req.Participants,
			Contact:      req.Contact,
			Status:       models.BookingPending,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		trip.Bookings = append(trip.Bookings, b)

		prev := trip.Status
		if ledger.HasQuorum(trip) {
			trip.Status = models.TripConfirmed
			confirmActive(trip, now)
		}

		booking = &trip.Bookings[len(trip.Bookings)-1]
		if prev == models.TripForming && trip.Status == models.TripConfirmed {
			event = models.TransitionEvent{Type: models.EventTripConfirmed, TripID: trip.ID, BookingID: &bookingID, At: now}
		} else {
			event = models.TransitionEvent{Type: models.EventParticipantJoined, TripID: trip.ID, BookingID: &bookingID, At: now}
		}
		return nil
	})
	if err != nil {
		if claimed != nil {
			s.releaseApproval(ctx, claimed.ID)
		}
		if created {
			s.discardEmptyTrip(ctx, tripID)
		}
		return nil, err
	}

	s.afterCommit(ctx, trip, event)
	out := *booking
	return &out, nil
}

func (s *bookingService) CancelBooking(ctx context.Context, bookingID uuid.UUID, reason string) (*models.Booking, error) {
	tripID, err := s.trips.FindTripByBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	var (
		booking *models.Booking
		event   models.TransitionEvent
	)
	trip, err := s.trips.Mutate(ctx, tripID, func(trip *models.Trip) error {
		b := findBooking(trip, bookingID)
		if b == nil {
			return models.ErrBookingNotFound
		}
		if b.Status == models.BookingCancelled {
			return models.ErrAlreadyCancelled
		}

		now := s.now()
		b.Status = models.BookingCancelled
		b.CancelReason = reason
		b.UpdatedAt = now

		event = models.TransitionEvent{Type: models.EventParticipantLeft, TripID: trip.ID, BookingID: &bookingID, Reason: reason, At: now}
		if trip.Status == models.TripConfirmed && !ledger.HasQuorum(trip) && s.cfg.ReopenOnConfirmedCancel {
			trip.Status = models.TripForming
			reopenActive(trip, now)
			event.Type = models.EventTripReopened
		}

		booking = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, trip, event)
	out := *booking
	return &out, nil
}

func (s *bookingService) CancelTrip(ctx context.Context, tripID uuid.UUID, reason string) (*models.Trip, error) {
	var event models.TransitionEvent
	trip, err := s.trips.Mutate(ctx, tripID, func(trip *models.Trip) error {
		if trip.Status == models.TripCancelled {
			return models.ErrAlreadyCancelled
		}
		now := s.now()
		trip.Status = models.TripCancelled
		for i := range trip.Bookings {
			if trip.Bookings[i].Status == models.BookingCancelled {
				continue
			}
			trip.Bookings[i].Status = models.BookingCancelled
			trip.Bookings[i].CancelReason = reason
			trip.Bookings[i].UpdatedAt = now
		}
		event = models.TransitionEvent{Type: models.EventTripCancelled, TripID: trip.ID, Reason: reason, At: now}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, trip, event)
	return trip, nil
}

func (s *bookingService) GetTripSnapshot(ctx context.Context, tripID uuid.UUID) (*models.TripSnapshot, error) {
	if snap, err := s.cache.Get(ctx, tripID); err == nil && snap != nil {
		return snap, nil
	}

	trip, err := s.trips.GetTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	snap := ledger.Snapshot(trip)
	if err := s.cache.Set(ctx, snap); err != nil {
		s.logger.Warn("snapshot cache set failed", zap.String("trip_id", tripID.String()), zap.Error(err))
	}
	return &snap, nil
}

func (s *bookingService) ListTripBookings(ctx context.Context, tripID uuid.UUID) ([]models.Booking, error) {
	trip, err := s.trips.GetTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	return trip.Bookings, nil
}

// resolveTrip returns the target trip id, creating a FORMING trip for
// the date and slot when no open trip exists yet. created reports
// whether this call inserted the trip; the caller must discard it if
// the booking that motivated it does not commit.
func (s *bookingService) resolveTrip(ctx context.Context, req *models.BookingRequest) (uuid.UUID, bool, error) {
	if req.TripID != nil {
		return *req.TripID, false, nil
	}

	trip, err := s.trips.FindOpenTrip(ctx, req.Date, req.TimeSlot)
	if err == nil {
		return trip.ID, false, nil
	}
	if !errors.Is(err, models.ErrTripNotFound) {
		return uuid.Nil, false, fmt.Errorf("finding open trip: %w", err)
	}

	maxP := req.MaxParticipants
	if maxP == 0 {
		maxP = s.cfg.DefaultMaxParticipants
	}
	minR := req.MinRequired
	if minR == 0 {
		minR = s.cfg.DefaultMinRequired
	}
	if maxP < minR {
		return uuid.Nil, false, fmt.Errorf("max participants %d below quorum %d", maxP, minR)
	}

	now := s.now()
	trip = &models.Trip{
		ID:              uuid.New(),
		Date:            req.Date,
		TimeSlot:        req.TimeSlot,
		MaxParticipants: maxP,
		MinRequired:     minR,
		PricePerPerson:  req.PricePerPerson,
		Status:          models.TripForming,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	err = s.trips.CreateTrip(ctx, trip)
	if errors.Is(err, models.ErrTripExists) {
		// Lost the creation race; the winner's trip is the open one.
		existing, ferr := s.trips.FindOpenTrip(ctx, req.Date, req.TimeSlot)
		if ferr != nil {
			return uuid.Nil, false, fmt.Errorf("finding open trip after create race: %w", ferr)
		}
		return existing.ID, false, nil
	}
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("creating trip: %w", err)
	}
	return trip.ID, true, nil
}

// errTripInUse aborts discardEmptyTrip's mutation when the trip picked
// up bookings between the failed first booking and the cleanup.
var errTripInUse = errors.New("trip in use")

// discardEmptyTrip cancels a trip that was created for a first booking
// which did not commit, freeing the date/slot for a fresh trip. The
// cancel only applies while the trip is still FORMING with no bookings,
// so a racing booking that landed in the meantime keeps it alive.
func (s *bookingService) discardEmptyTrip(ctx context.Context, tripID uuid.UUID) {
	_, err := s.trips.Mutate(ctx, tripID, func(trip *models.Trip) error {
		if trip.Status != models.TripForming || len(trip.Bookings) > 0 {
			return errTripInUse
		}
		trip.Status = models.TripCancelled
		return nil
	})
	if errors.Is(err, errTripInUse) {
		return
	}
	if err != nil {
		s.logger.Warn("discarding empty trip failed", zap.String("trip_id", tripID.String()), zap.Error(err))
		return
	}
	if err := s.cache.Invalidate(ctx, tripID); err != nil {
		s.logger.Warn("snapshot cache invalidation failed", zap.String("trip_id", tripID.String()), zap.Error(err))
	}
}

// claimApprovalIfRequired enforces the approval gate for low-trust
// participants. The claim is taken before the booking transaction and
// released if the transaction does not commit.
func (s *bookingService) claimApprovalIfRequired(ctx context.Context, tripID, participantID, bookingID uuid.UUID) (*models.ApprovalRequest, error) {
	profile, err := s.profiles.GetProfile(ctx, participantID)
	if err != nil {
		return nil, fmt.Errorf("fetching participant profile: %w", err)
	}
	if !s.gate.RequiresApproval(profile) {
		return nil, nil
	}
	claimed, err := s.approvals.ConsumeApproval(ctx, tripID, participantID, bookingID)
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

func (s *bookingService) releaseApproval(ctx context.Context, approvalID uuid.UUID) {
	if err := s.approvals.ReleaseApproval(ctx, approvalID); err != nil {
		s.logger.Error("releasing approval claim failed", zap.String("approval_id", approvalID.String()), zap.Error(err))
	}
}

// afterCommit runs the post-commit side effects: cache invalidation and
// the single transition event. Both are best effort.
func (s *bookingService) afterCommit(ctx context.Context, trip *models.Trip, event models.TransitionEvent) {
	if err := s.cache.Invalidate(ctx, trip.ID); err != nil {
		s.logger.Warn("snapshot cache invalidation failed", zap.String("trip_id", trip.ID.String()), zap.Error(err))
	}

	event.Version = trip.Version
	if err := s.fanout.Emit(ctx, event); err != nil {
		s.logger.Error("event emit failed",
			zap.String("trip_id", trip.ID.String()),
			zap.String("event", string(event.Type)),
			zap.Error(err))
	}
}

func findBooking(trip *models.Trip, id uuid.UUID) *models.Booking {
	for i := range trip.Bookings {
		if trip.Bookings[i].ID == id {
			return &trip.Bookings[i]
		}
	}
	return nil
}

// confirmActive flips every active booking to CONFIRMED when the trip
// reaches quorum.
func confirmActive(trip *models.Trip, now time.Time) {
	for i := range trip.Bookings {
		if trip.Bookings[i].Status == models.BookingPending {
			trip.Bookings[i].Status = models.BookingConfirmed
			trip.Bookings[i].UpdatedAt = now
		}
	}
}

// reopenActive reverts remaining active bookings to PENDING when the
// trip drops back to FORMING.
func reopenActive(trip *models.Trip, now time.Time) {
	for i := range trip.Bookings {
		if trip.Bookings[i].Status == models.BookingConfirmed {
			trip.Bookings[i].Status = models.BookingPending
			trip.Bookings[i].UpdatedAt = now
		}
	}
}
