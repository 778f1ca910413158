package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	models "github.com/oceandrift/fishcrew/internal"
	"github.com/oceandrift/fishcrew/internal/ledger"
	"github.com/oceandrift/fishcrew/internal/ports"
	"go.uber.org/zap"
)

const (
	// Reputation thresholds below which a participant must apply for
	// captain approval before booking.
	minReliability   = 0.7
	minRating        = 3.5
	ratedReviewFloor = 3
)

type approvalService struct {
	approvals ports.ApprovalStore
	trips     ports.TripStore
	logger    *zap.Logger
	now       func() time.Time
}

func NewApprovalService(approvals ports.ApprovalStore, trips ports.TripStore, logger *zap.Logger) *approvalService {
	return &approvalService{
		approvals: approvals,
		trips:     trips,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// RequiresApproval reports whether the participant must go through
// captain screening instead of booking directly.
func (s *approvalService) RequiresApproval(profile *models.ParticipantProfile) bool {
	if profile == nil {
		return true
	}
	if !profile.IsActive {
		return true
	}
	if profile.CompletedTrips == 0 {
		return true
	}
	if profile.Reliability < minReliability {
		return true
	}
	if profile.TotalReviews >= ratedReviewFloor && profile.Rating < minRating {
		return true
	}
	return false
}

func (s *approvalService) SubmitApplication(ctx context.Context, tripID, participantID uuid.UUID, message string) (*models.ApprovalRequest, error) {
	trip, err := s.trips.GetTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}

	// Best-effort pre-check against the current snapshot; the booking
	// transaction still runs the authoritative one.
	if trip.Status != models.TripForming || !ledger.CanAccept(trip, 1) {
		return nil, models.ErrTripNotAcceptingApplications
	}

	approval := &models.ApprovalRequest{
		ID:            uuid.New(),
		TripID:        tripID,
		ParticipantID: participantID,
		Status:        models.ApprovalPending,
		Message:       message,
		CreatedAt:     s.now(),
	}
	if err := s.approvals.CreateApproval(ctx, approval); err != nil {
		return nil, err
	}

	s.logger.Info("application submitted",
		zap.String("trip_id", tripID.String()),
		zap.String("participant_id", participantID.String()))
	return approval, nil
}

func (s *approvalService) Decide(ctx context.Context, approvalID uuid.UUID, decision models.ApprovalStatus, operatorID uuid.UUID) (*models.ApprovalRequest, error) {
	if decision != models.ApprovalApproved && decision != models.ApprovalRejected {
		return nil, fmt.Errorf("invalid decision %q", decision)
	}

	approval, err := s.approvals.GetApproval(ctx, approvalID)
	if err != nil {
		return nil, err
	}
	if approval.Decided() {
		return nil, models.ErrApprovalAlreadyDecided
	}

	now := s.now()
	approval.Status = decision
	approval.DecidedBy = &operatorID
	approval.DecidedAt = &now
	if err := s.approvals.UpdateApproval(ctx, approval); err != nil {
		return nil, err
	}

	s.logger.Info("application decided",
		zap.String("approval_id", approvalID.String()),
		zap.String("decision", string(decision)),
		zap.String("operator_id", operatorID.String()))
	return approval, nil
}
