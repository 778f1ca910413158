package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	models "github.com/oceandrift/fishcrew/internal"
	"github.com/oceandrift/fishcrew/internal/mocks"
	"github.com/oceandrift/fishcrew/internal/service"
)

func TestRequiresApproval(t *testing.T) {
	svc := service.NewApprovalService(new(mocks.MockApprovalStore), newFakeTripStore(), zap.NewNop())

	base := models.ParticipantProfile{
		CompletedTrips: 10,
		Reliability:    0.9,
		Rating:         4.2,
		TotalReviews:   8,
		IsActive:       true,
	}

	tests := []struct {
		name   string
		mutate func(p *models.ParticipantProfile)
		want   bool
	}{
		{"experienced and reliable", func(p *models.ParticipantProfile) {}, false},
		{"no completed trips", func(p *models.ParticipantProfile) { p.CompletedTrips = 0 }, true},
		{"low reliability", func(p *models.ParticipantProfile) { p.Reliability = 0.5 }, true},
		{"poorly rated with enough reviews", func(p *models.ParticipantProfile) { p.Rating = 2.9; p.TotalReviews = 5 }, true},
		{"poor rating but too few reviews", func(p *models.ParticipantProfile) { p.Rating = 2.9; p.TotalReviews = 2 }, false},
		{"inactive", func(p *models.ParticipantProfile) { p.IsActive = false }, true},
		{"nil profile", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.mutate == nil {
				assert.True(t, svc.RequiresApproval(nil))
				return
			}
			profile := base
			tt.mutate(&profile)
			assert.Equal(t, tt.want, svc.RequiresApproval(&profile))
		})
	}
}

func TestSubmitApplication(t *testing.T) {
	t.Run("accepted on forming trip with room", func(t *testing.T) {
		store := new(mocks.MockApprovalStore)
		trips := newFakeTripStore()
		svc := service.NewApprovalService(store, trips, zap.NewNop())

		trip := &models.Trip{
			ID:              uuid.New(),
			Date:            time.Now().AddDate(0, 0, 7),
			TimeSlot:        models.SlotMorning,
			MaxParticipants: 8,
			MinRequired:     6,
			Status:          models.TripForming,
		}
		trips.trips[trip.ID] = trip

		store.On("CreateApproval", mock.Anything, mock.AnythingOfType("*models.ApprovalRequest")).Return(nil)

		participantID := uuid.New()
		approval, err := svc.SubmitApplication(context.Background(), trip.ID, participantID, "first time out, keen to learn")
		require.NoError(t, err)
		assert.Equal(t, models.ApprovalPending, approval.Status)
		assert.Equal(t, trip.ID, approval.TripID)
		assert.Equal(t, participantID, approval.ParticipantID)
		store.AssertExpectations(t)
	})

	t.Run("rejected when trip confirmed", func(t *testing.T) {
		store := new(mocks.MockApprovalStore)
		trips := newFakeTripStore()
		svc := service.NewApprovalService(store, trips, zap.NewNop())

		trip := &models.Trip{ID: uuid.New(), MaxParticipants: 8, MinRequired: 2, Status: models.TripConfirmed}
		trips.trips[trip.ID] = trip

		_, err := svc.SubmitApplication(context.Background(), trip.ID, uuid.New(), "")
		assert.ErrorIs(t, err, models.ErrTripNotAcceptingApplications)
	})

	t.Run("rejected when trip full", func(t *testing.T) {
		store := new(mocks.MockApprovalStore)
		trips := newFakeTripStore()
		svc := service.NewApprovalService(store, trips, zap.NewNop())

		trip := &models.Trip{ID: uuid.New(), MaxParticipants: 4, MinRequired: 6, Status: models.TripForming,
			Bookings: []models.Booking{{ID: uuid.New(), Participants: 4, Status: models.BookingPending}}}
		trips.trips[trip.ID] = trip

		_, err := svc.SubmitApplication(context.Background(), trip.ID, uuid.New(), "")
		assert.ErrorIs(t, err, models.ErrTripNotAcceptingApplications)
	})

	t.Run("duplicate application", func(t *testing.T) {
		store := new(mocks.MockApprovalStore)
		trips := newFakeTripStore()
		svc := service.NewApprovalService(store, trips, zap.NewNop())

		trip := &models.Trip{ID: uuid.New(), MaxParticipants: 8, MinRequired: 6, Status: models.TripForming}
		trips.trips[trip.ID] = trip

		store.On("CreateApproval", mock.Anything, mock.Anything).Return(models.ErrDuplicateApplication)

		_, err := svc.SubmitApplication(context.Background(), trip.ID, uuid.New(), "")
		assert.ErrorIs(t, err, models.ErrDuplicateApplication)
	})

	t.Run("unknown trip", func(t *testing.T) {
		store := new(mocks.MockApprovalStore)
		svc := service.NewApprovalService(store, newFakeTripStore(), zap.NewNop())

		_, err := svc.SubmitApplication(context.Background(), uuid.New(), uuid.New(), "")
		assert.ErrorIs(t, err, models.ErrTripNotFound)
	})
}

func TestDecide(t *testing.T) {
	t.Run("approve", func(t *testing.T) {
		store := new(mocks.MockApprovalStore)
		svc := service.NewApprovalService(store, newFakeTripStore(), zap.NewNop())

		pending := &models.ApprovalRequest{
			ID:            uuid.New(),
			TripID:        uuid.New(),
			ParticipantID: uuid.New(),
			Status:        models.ApprovalPending,
		}
		operatorID := uuid.New()

		store.On("GetApproval", mock.Anything, pending.ID).Return(pending, nil)
		store.On("UpdateApproval", mock.Anything, mock.AnythingOfType("*models.ApprovalRequest")).Return(nil)

		decided, err := svc.Decide(context.Background(), pending.ID, models.ApprovalApproved, operatorID)
		require.NoError(t, err)
		assert.Equal(t, models.ApprovalApproved, decided.Status)
		require.NotNil(t, decided.DecidedBy)
		assert.Equal(t, operatorID, *decided.DecidedBy)
		assert.NotNil(t, decided.DecidedAt)
	})

	t.Run("already decided", func(t *testing.T) {
		store := new(mocks.MockApprovalStore)
		svc := service.NewApprovalService(store, newFakeTripStore(), zap.NewNop())

		done := &models.ApprovalRequest{ID: uuid.New(), Status: models.ApprovalRejected}
		store.On("GetApproval", mock.Anything, done.ID).Return(done, nil)

		_, err := svc.Decide(context.Background(), done.ID, models.ApprovalApproved, uuid.New())
		assert.ErrorIs(t, err, models.ErrApprovalAlreadyDecided)
	})

	t.Run("invalid decision", func(t *testing.T) {
		store := new(mocks.MockApprovalStore)
		svc := service.NewApprovalService(store, newFakeTripStore(), zap.NewNop())

		_, err := svc.Decide(context.Background(), uuid.New(), models.ApprovalPending, uuid.New())
		assert.Error(t, err)
	})
}
