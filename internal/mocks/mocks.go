// Package mocks holds shared testify mocks for the engine's ports.
package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	models "github.com/oceandrift/fishcrew/internal"
)

type MockTripStore struct {
	mock.Mock
}

func (m *MockTripStore) CreateTrip(ctx context.Context, trip *models.Trip) error {
	args := m.Called(ctx, trip)
	return args.Error(0)
}

func (m *MockTripStore) GetTrip(ctx context.Context, id uuid.UUID) (*models.Trip, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Trip), args.Error(1)
}

func (m *MockTripStore) FindOpenTrip(ctx context.Context, date time.Time, slot models.TimeSlot) (*models.Trip, error) {
	args := m.Called(ctx, date, slot)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Trip), args.Error(1)
}

func (m *MockTripStore) FindTripByBooking(ctx context.Context, bookingID uuid.UUID) (uuid.UUID, error) {
	args := m.Called(ctx, bookingID)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockTripStore) Mutate(ctx context.Context, tripID uuid.UUID, fn func(trip *models.Trip) error) (*models.Trip, error) {
	args := m.Called(ctx, tripID, fn)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Trip), args.Error(1)
}

type MockApprovalStore struct {
	mock.Mock
}

func (m *MockApprovalStore) CreateApproval(ctx context.Context, approval *models.ApprovalRequest) error {
	args := m.Called(ctx, approval)
	return args.Error(0)
}

func (m *MockApprovalStore) GetApproval(ctx context.Context, id uuid.UUID) (*models.ApprovalRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ApprovalRequest), args.Error(1)
}

func (m *MockApprovalStore) GetApprovalFor(ctx context.Context, tripID, participantID uuid.UUID) (*models.ApprovalRequest, error) {
	args := m.Called(ctx, tripID, participantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ApprovalRequest), args.Error(1)
}

func (m *MockApprovalStore) UpdateApproval(ctx context.Context, approval *models.ApprovalRequest) error {
	args := m.Called(ctx, approval)
	return args.Error(0)
}

func (m *MockApprovalStore) ConsumeApproval(ctx context.Context, tripID, participantID, bookingID uuid.UUID) (*models.ApprovalRequest, error) {
	args := m.Called(ctx, tripID, participantID, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ApprovalRequest), args.Error(1)
}

func (m *MockApprovalStore) ReleaseApproval(ctx context.Context, approvalID uuid.UUID) error {
	args := m.Called(ctx, approvalID)
	return args.Error(0)
}

type MockProfileDirectory struct {
	mock.Mock
}

func (m *MockProfileDirectory) GetProfile(ctx context.Context, participantID uuid.UUID) (*models.ParticipantProfile, error) {
	args := m.Called(ctx, participantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ParticipantProfile), args.Error(1)
}

type MockNotificationFanout struct {
	mock.Mock
}

func (m *MockNotificationFanout) Emit(ctx context.Context, event models.TransitionEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

type MockBookingService struct {
	mock.Mock
}

func (m *MockBookingService) CreateBooking(ctx context.Context, req *models.BookingRequest) (*models.Booking, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

func (m *MockBookingService) CancelBooking(ctx context.Context, bookingID uuid.UUID, reason string) (*models.Booking, error) {
	args := m.Called(ctx, bookingID, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

func (m *MockBookingService) CancelTrip(ctx context.Context, tripID uuid.UUID, reason string) (*models.Trip, error) {
	args := m.Called(ctx, tripID, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Trip), args.Error(1)
}

func (m *MockBookingService) GetTripSnapshot(ctx context.Context, tripID uuid.UUID) (*models.TripSnapshot, error) {
	args := m.Called(ctx, tripID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TripSnapshot), args.Error(1)
}

func (m *MockBookingService) ListTripBookings(ctx context.Context, tripID uuid.UUID) ([]models.Booking, error) {
	args := m.Called(ctx, tripID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Booking), args.Error(1)
}

type MockApprovalService struct {
	mock.Mock
}

func (m *MockApprovalService) RequiresApproval(profile *models.ParticipantProfile) bool {
	args := m.Called(profile)
	return args.Bool(0)
}

func (m *MockApprovalService) SubmitApplication(ctx context.Context, tripID, participantID uuid.UUID, message string) (*models.ApprovalRequest, error) {
	args := m.Called(ctx, tripID, participantID, message)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ApprovalRequest), args.Error(1)
}

func (m *MockApprovalService) Decide(ctx context.Context, approvalID uuid.UUID, decision models.ApprovalStatus, operatorID uuid.UUID) (*models.ApprovalRequest, error) {
	args := m.Called(ctx, approvalID, decision, operatorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ApprovalRequest), args.Error(1)
}

type MockSnapshotCache struct {
	mock.Mock
}

func (m *MockSnapshotCache) Get(ctx context.Context, tripID uuid.UUID) (*models.TripSnapshot, error) {
	args := m.Called(ctx, tripID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TripSnapshot), args.Error(1)
}

func (m *MockSnapshotCache) Set(ctx context.Context, snapshot models.TripSnapshot) error {
	args := m.Called(ctx, snapshot)
	return args.Error(0)
}

func (m *MockSnapshotCache) Invalidate(ctx context.Context, tripID uuid.UUID) error {
	args := m.Called(ctx, tripID)
	return args.Error(0)
}
