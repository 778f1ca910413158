package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	models "github.com/oceandrift/fishcrew/internal"
	"github.com/oceandrift/fishcrew/internal/ports"
	"github.com/oceandrift/fishcrew/internal/utils"
	"github.com/oceandrift/fishcrew/internal/validator"
	"github.com/oceandrift/fishcrew/pkg/health"
)

// NewRouter wires the engine's HTTP surface.
func NewRouter(bookings ports.BookingService, approvals ports.ApprovalService) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/health", health.HealthGet())

		r.With(middleware.AllowContentType("application/json")).Group(func(r chi.Router) {
			r.Post("/bookings", CreateBookingHandler(bookings))
			r.Delete("/bookings/{id}", CancelBookingHandler(bookings))
			r.Post("/trips/{id}/cancel", CancelTripHandler(bookings))
			r.Post("/trips/{id}/applications", SubmitApplicationHandler(approvals))
			r.Post("/applications/{id}/decision", DecideHandler(approvals))
		})

		r.Get("/trips/{id}", TripSnapshotHandler(bookings))
		r.Get("/trips/{id}/bookings", TripBookingsHandler(bookings))
	})

	return r
}

func CreateBookingHandler(service ports.BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.BookingRequest
		if err := utils.JsonDecodeBody(r, &req); err != nil {
			ae := utils.NewBadRequest("error json decoding body")
			utils.RenderResponse(r, w, ae.StatusCode, ae)
			return
		}

		v := validator.NewCustomValidator()
		if err := v.Validate(req); err != nil {
			ae := utils.NewBadRequest(err.Error())
			utils.RenderResponse(r, w, ae.StatusCode, ae)
			return
		}

		booking, err := service.CreateBooking(r.Context(), &req)
		if err != nil {
			ae := getApiError(err)
			utils.RenderResponse(r, w, ae.StatusCode, ae)
			return
		}
		utils.RenderResponse(r, w, http.StatusCreated, booking)
	}
}

func CancelBookingHandler(service ports.BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathUUID(w, r, "id")
		if !ok {
			return
		}

		var req models.CancelRequest
		if r.ContentLength > 0 {
			if err := utils.JsonDecodeBody(r, &req); err != nil {
				ae := utils.NewBadRequest("error json decoding body")
				utils.RenderResponse(r, w, ae.StatusCode, ae)
				return
			}
		}

		booking, err := service.CancelBooking(r.Context(), id, req.Reason)
		if err != nil {
			ae := getApiError(err)
			utils.RenderResponse(r, w, ae.StatusCode, ae)
			return
		}
		utils.RenderResponse(r, w, http.StatusOK, booking)
	}
}

func CancelTripHandler(service ports.BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathUUID(w, r, "id")
		if !ok {
			return
		}

		var req models.CancelRequest
		if r.ContentLength > 0 {
			if err := utils.JsonDecodeBody(r, &req); err != nil {
				ae := utils.NewBadRequest("error json decoding body")
				utils.RenderResponse(r, w, ae.StatusCode, ae)
				return
			}
		}

		trip, err := service.CancelTrip(r.Context(), id, req.Reason)
		if err != nil {
			ae := getApiError(err)
			utils.RenderResponse(r, w, ae.StatusCode, ae)
			return
		}
		utils.RenderResponse(r, w, http.StatusOK, trip)
	}
}

func TripSnapshotHandler(service ports.BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathUUID(w, r, "id")
		if !ok {
			return
		}

		snap, err := service.GetTripSnapshot(r.Context(), id)
		if err != nil {
			ae := getApiError(err)
			utils.RenderResponse(r, w, ae.StatusCode, ae)
			return
		}
		utils.RenderResponse(r, w, http.StatusOK, snap)
	}
}

func TripBookingsHandler(service ports.BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathUUID(w, r, "id")
		if !ok {
			return
		}

		bookings, err := service.ListTripBookings(r.Context(), id)
		if err != nil {
			ae := getApiError(err)
			utils.RenderResponse(r, w, ae.StatusCode, ae)
			return
		}
		utils.RenderResponse(r, w, http.StatusOK, map[string]interface{}{"bookings": bookings})
	}
}

func SubmitApplicationHandler(service ports.ApprovalService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tripID, ok := pathUUID(w, r, "id")
		if !ok {
			return
		}

		var req models.ApplicationRequest
		if err := utils.JsonDecodeBody(r, &req); err != nil {
			ae := utils.NewBadRequest("error json decoding body")
			utils.RenderResponse(r, w, ae.StatusCode, ae)
			return
		}

		v := validator.NewCustomValidator()
		if err := v.Validate(req); err != nil {
			ae := utils.NewBadRequest(err.Error())
			utils.RenderResponse(r, w, ae.StatusCode, ae)
			return
		}

		approval, err := service.SubmitApplication(r.Context(), tripID, req.ParticipantID, req.Message)
		if err != nil {
			ae := getApiError(err)
			utils.RenderResponse(r, w, ae.StatusCode, ae)
			return
		}
		utils.RenderResponse(r, w, http.StatusCreated, approval)
	}
}

func DecideHandler(service ports.ApprovalService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		approvalID, ok := pathUUID(w, r, "id")
		if !ok {
			return
		}

		var req models.DecisionRequest
		if err := utils.JsonDecodeBody(r, &req); err != nil {
			ae := utils.NewBadRequest("error json decoding body")
			utils.RenderResponse(r, w, ae.StatusCode, ae)
			return
		}

		v := validator.NewCustomValidator()
		if err := v.Validate(req); err != nil {
			ae := utils.NewBadRequest(err.Error())
			utils.RenderResponse(r, w, ae.StatusCode, ae)
			return
		}

		approval, err := service.Decide(r.Context(), approvalID, req.Decision, req.OperatorID)
		if err != nil {
			ae := getApiError(err)
			utils.RenderResponse(r, w, ae.StatusCode, ae)
			return
		}
		utils.RenderResponse(r, w, http.StatusOK, approval)
	}
}

func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		ae := utils.NewBadRequest(models.ErrInvalidUUID.Error())
		utils.RenderResponse(r, w, ae.StatusCode, ae)
		return uuid.Nil, false
	}
	return id, true
}

func getApiError(err error) utils.ApiError {
	switch {
	case errors.Is(err, models.ErrTripNotFound),
		errors.Is(err, models.ErrBookingNotFound),
		errors.Is(err, models.ErrApprovalNotFound):
		return utils.NewNotFound(err.Error())
	case errors.Is(err, models.ErrInvalidUUID),
		errors.Is(err, models.ErrInvalidParticipants):
		return utils.NewBadRequest(err.Error())
	case errors.Is(err, models.ErrCapacityExceeded),
		errors.Is(err, models.ErrAlreadyCancelled),
		errors.Is(err, models.ErrTripCancelled),
		errors.Is(err, models.ErrTripExists),
		errors.Is(err, models.ErrDuplicateApplication),
		errors.Is(err, models.ErrTripNotAcceptingApplications),
		errors.Is(err, models.ErrApprovalAlreadyDecided):
		return utils.NewConflict(err.Error())
	case errors.Is(err, models.ErrNotApproved):
		return utils.NewForbidden(err.Error())
	case errors.Is(err, models.ErrBusy):
		// Retryable: the per-trip lock stayed contended.
		return utils.NewServiceUnavailable(err.Error())
	default:
		return utils.NewInternalServerError(err.Error())
	}
}
