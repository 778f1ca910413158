package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	models "github.com/oceandrift/fishcrew/internal"
	"github.com/oceandrift/fishcrew/internal/api"
	"github.com/oceandrift/fishcrew/internal/mocks"
)

func newTestServer() (*mocks.MockBookingService, *mocks.MockApprovalService, http.Handler) {
	bookings := new(mocks.MockBookingService)
	approvals := new(mocks.MockApprovalService)
	return bookings, approvals, api.NewRouter(bookings, approvals)
}

func doJSON(t *testing.T, router http.Handler, method, target string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func validBookingRequest() *models.BookingRequest {
	return &models.BookingRequest{
		Date:           time.Now().AddDate(0, 0, 7).Truncate(24 * time.Hour),
		TimeSlot:       models.SlotSunset,
		Participants:   2,
		ParticipantID:  uuid.New(),
		PricePerPerson: decimal.NewFromInt(95),
		Contact: models.ContactInfo{
			Name:  "Rui Tavares",
			Phone: "+351962223344",
		},
	}
}

func TestCreateBookingHandler(t *testing.T) {
	tests := []struct {
		name         string
		request      *models.BookingRequest
		setupMock    func(*mocks.MockBookingService)
		expectedCode int
	}{
		{
			name:    "created",
			request: validBookingRequest(),
			setupMock: func(m *mocks.MockBookingService) {
				m.On("CreateBooking", mock.Anything, mock.AnythingOfType("*models.BookingRequest")).
					Return(&models.Booking{
						ID:           uuid.New(),
						TripID:       uuid.New(),
						Participants: 2,
						Status:       models.BookingPending,
					}, nil)
			},
			expectedCode: http.StatusCreated,
		},
		{
			name: "missing participants fails validation",
			request: func() *models.BookingRequest {
				req := validBookingRequest()
				req.Participants = 0
				return req
			}(),
			setupMock:    func(m *mocks.MockBookingService) {},
			expectedCode: http.StatusBadRequest,
		},
		{
			name: "quorum above capacity fails validation",
			request: func() *models.BookingRequest {
				req := validBookingRequest()
				req.MaxParticipants = 4
				req.MinRequired = 6
				return req
			}(),
			setupMock:    func(m *mocks.MockBookingService) {},
			expectedCode: http.StatusBadRequest,
		},
		{
			name: "past date fails validation",
			request: func() *models.BookingRequest {
				req := validBookingRequest()
				req.Date = time.Now().AddDate(0, 0, -1)
				return req
			}(),
			setupMock:    func(m *mocks.MockBookingService) {},
			expectedCode: http.StatusBadRequest,
		},
		{
			name:    "non-positive party rejected by the engine",
			request: validBookingRequest(),
			setupMock: func(m *mocks.MockBookingService) {
				m.On("CreateBooking", mock.Anything, mock.AnythingOfType("*models.BookingRequest")).
					Return(nil, models.ErrInvalidParticipants)
			},
			expectedCode: http.StatusBadRequest,
		},
		{
			name:    "capacity exceeded",
			request: validBookingRequest(),
			setupMock: func(m *mocks.MockBookingService) {
				m.On("CreateBooking", mock.Anything, mock.AnythingOfType("*models.BookingRequest")).
					Return(nil, models.ErrCapacityExceeded)
			},
			expectedCode: http.StatusConflict,
		},
		{
			name:    "approval required but not granted",
			request: validBookingRequest(),
			setupMock: func(m *mocks.MockBookingService) {
				m.On("CreateBooking", mock.Anything, mock.AnythingOfType("*models.BookingRequest")).
					Return(nil, models.ErrNotApproved)
			},
			expectedCode: http.StatusForbidden,
		},
		{
			name:    "trip lock contended",
			request: validBookingRequest(),
			setupMock: func(m *mocks.MockBookingService) {
				m.On("CreateBooking", mock.Anything, mock.AnythingOfType("*models.BookingRequest")).
					Return(nil, models.ErrBusy)
			},
			expectedCode: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bookings, _, router := newTestServer()
			tt.setupMock(bookings)

			rec := doJSON(t, router, http.MethodPost, "/v1/bookings", tt.request)

			assert.Equal(t, tt.expectedCode, rec.Code)
			bookings.AssertExpectations(t)
		})
	}
}

func TestCreateBookingHandlerRejectsNonJSON(t *testing.T) {
	_, _, router := newTestServer()

	req := httptest.NewRequest(http.MethodPost, "/v1/bookings", bytes.NewBufferString("date=tomorrow"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestCancelBookingHandler(t *testing.T) {
	bookingID := uuid.New()

	tests := []struct {
		name         string
		target       string
		setupMock    func(*mocks.MockBookingService)
		expectedCode int
	}{
		{
			name:   "cancelled",
			target: "/v1/bookings/" + bookingID.String(),
			setupMock: func(m *mocks.MockBookingService) {
				m.On("CancelBooking", mock.Anything, bookingID, "").
					Return(&models.Booking{ID: bookingID, Status: models.BookingCancelled}, nil)
			},
			expectedCode: http.StatusOK,
		},
		{
			name:         "malformed id",
			target:       "/v1/bookings/not-a-uuid",
			setupMock:    func(m *mocks.MockBookingService) {},
			expectedCode: http.StatusBadRequest,
		},
		{
			name:   "unknown booking",
			target: "/v1/bookings/" + bookingID.String(),
			setupMock: func(m *mocks.MockBookingService) {
				m.On("CancelBooking", mock.Anything, bookingID, "").
					Return(nil, models.ErrBookingNotFound)
			},
			expectedCode: http.StatusNotFound,
		},
		{
			name:   "already cancelled",
			target: "/v1/bookings/" + bookingID.String(),
			setupMock: func(m *mocks.MockBookingService) {
				m.On("CancelBooking", mock.Anything, bookingID, "").
					Return(nil, models.ErrAlreadyCancelled)
			},
			expectedCode: http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bookings, _, router := newTestServer()
			tt.setupMock(bookings)

			rec := doJSON(t, router, http.MethodDelete, tt.target, nil)

			assert.Equal(t, tt.expectedCode, rec.Code)
			bookings.AssertExpectations(t)
		})
	}
}

func TestCancelTripHandler(t *testing.T) {
	tripID := uuid.New()
	bookings, _, router := newTestServer()
	bookings.On("CancelTrip", mock.Anything, tripID, "storm warning").
		Return(&models.Trip{ID: tripID, Status: models.TripCancelled}, nil)

	rec := doJSON(t, router, http.MethodPost, "/v1/trips/"+tripID.String()+"/cancel",
		models.CancelRequest{Reason: "storm warning"})

	assert.Equal(t, http.StatusOK, rec.Code)

	var trip models.Trip
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &trip))
	assert.Equal(t, models.TripCancelled, trip.Status)
	bookings.AssertExpectations(t)
}

func TestTripSnapshotHandler(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		tripID := uuid.New()
		bookings, _, router := newTestServer()
		bookings.On("GetTripSnapshot", mock.Anything, tripID).
			Return(&models.TripSnapshot{
				TripID:             tripID,
				Status:             models.TripForming,
				ActiveParticipants: 4,
				RemainingCapacity:  4,
				Version:            7,
			}, nil)

		rec := doJSON(t, router, http.MethodGet, "/v1/trips/"+tripID.String(), nil)

		require.Equal(t, http.StatusOK, rec.Code)
		var snap models.TripSnapshot
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
		assert.Equal(t, 4, snap.RemainingCapacity)
		assert.Equal(t, 7, snap.Version)
	})

	t.Run("unknown trip", func(t *testing.T) {
		tripID := uuid.New()
		bookings, _, router := newTestServer()
		bookings.On("GetTripSnapshot", mock.Anything, tripID).
			Return(nil, models.ErrTripNotFound)

		rec := doJSON(t, router, http.MethodGet, "/v1/trips/"+tripID.String(), nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestTripBookingsHandler(t *testing.T) {
	tripID := uuid.New()
	bookings, _, router := newTestServer()
	bookings.On("ListTripBookings", mock.Anything, tripID).
		Return([]models.Booking{
			{ID: uuid.New(), TripID: tripID, Participants: 3, Status: models.BookingConfirmed},
			{ID: uuid.New(), TripID: tripID, Participants: 2, Status: models.BookingPending},
		}, nil)

	rec := doJSON(t, router, http.MethodGet, "/v1/trips/"+tripID.String()+"/bookings", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var payload struct {
		Bookings []models.Booking `json:"bookings"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Len(t, payload.Bookings, 2)
	bookings.AssertExpectations(t)
}

func TestSubmitApplicationHandler(t *testing.T) {
	tripID := uuid.New()
	participantID := uuid.New()

	tests := []struct {
		name         string
		request      models.ApplicationRequest
		setupMock    func(*mocks.MockApprovalService)
		expectedCode int
	}{
		{
			name:    "accepted",
			request: models.ApplicationRequest{ParticipantID: participantID, Message: "keen to join"},
			setupMock: func(m *mocks.MockApprovalService) {
				m.On("SubmitApplication", mock.Anything, tripID, participantID, "keen to join").
					Return(&models.ApprovalRequest{
						ID:            uuid.New(),
						TripID:        tripID,
						ParticipantID: participantID,
						Status:        models.ApprovalPending,
					}, nil)
			},
			expectedCode: http.StatusCreated,
		},
		{
			name:         "missing participant fails validation",
			request:      models.ApplicationRequest{Message: "no id"},
			setupMock:    func(m *mocks.MockApprovalService) {},
			expectedCode: http.StatusBadRequest,
		},
		{
			name:    "duplicate application",
			request: models.ApplicationRequest{ParticipantID: participantID},
			setupMock: func(m *mocks.MockApprovalService) {
				m.On("SubmitApplication", mock.Anything, tripID, participantID, "").
					Return(nil, models.ErrDuplicateApplication)
			},
			expectedCode: http.StatusConflict,
		},
		{
			name:    "trip no longer accepting",
			request: models.ApplicationRequest{ParticipantID: participantID},
			setupMock: func(m *mocks.MockApprovalService) {
				m.On("SubmitApplication", mock.Anything, tripID, participantID, "").
					Return(nil, models.ErrTripNotAcceptingApplications)
			},
			expectedCode: http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, approvals, router := newTestServer()
			tt.setupMock(approvals)

			rec := doJSON(t, router, http.MethodPost, "/v1/trips/"+tripID.String()+"/applications", tt.request)

			assert.Equal(t, tt.expectedCode, rec.Code)
			approvals.AssertExpectations(t)
		})
	}
}

func TestDecideHandler(t *testing.T) {
	approvalID := uuid.New()
	operatorID := uuid.New()

	tests := []struct {
		name         string
		request      models.DecisionRequest
		setupMock    func(*mocks.MockApprovalService)
		expectedCode int
	}{
		{
			name:    "approved",
			request: models.DecisionRequest{Decision: models.ApprovalApproved, OperatorID: operatorID},
			setupMock: func(m *mocks.MockApprovalService) {
				m.On("Decide", mock.Anything, approvalID, models.ApprovalApproved, operatorID).
					Return(&models.ApprovalRequest{ID: approvalID, Status: models.ApprovalApproved}, nil)
			},
			expectedCode: http.StatusOK,
		},
		{
			name:         "unknown decision fails validation",
			request:      models.DecisionRequest{Decision: "MAYBE", OperatorID: operatorID},
			setupMock:    func(m *mocks.MockApprovalService) {},
			expectedCode: http.StatusBadRequest,
		},
		{
			name:    "already decided",
			request: models.DecisionRequest{Decision: models.ApprovalRejected, OperatorID: operatorID},
			setupMock: func(m *mocks.MockApprovalService) {
				m.On("Decide", mock.Anything, approvalID, models.ApprovalRejected, operatorID).
					Return(nil, models.ErrApprovalAlreadyDecided)
			},
			expectedCode: http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, approvals, router := newTestServer()
			tt.setupMock(approvals)

			rec := doJSON(t, router, http.MethodPost, "/v1/applications/"+approvalID.String()+"/decision", tt.request)

			assert.Equal(t, tt.expectedCode, rec.Code)
			approvals.AssertExpectations(t)
		})
	}
}

func TestHealthEndpoint(t *testing.T) {
	_, _, router := newTestServer()

	rec := doJSON(t, router, http.MethodGet, "/v1/health", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "fishcrew-engine")
}
