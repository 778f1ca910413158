// Package ledger is the single authority for trip capacity arithmetic.
// All functions are pure reads of a trip snapshot; they are safe to
// call against a stale snapshot for display, but capacity decisions
// must re-evaluate them inside the booking transaction.
package ledger

import (
	models "github.com/oceandrift/fishcrew/internal"
)

// ActiveParticipants sums participants across non-cancelled bookings.
func ActiveParticipants(trip *models.Trip) int {
	total := 0
	for i := range trip.Bookings {
		switch trip.Bookings[i].Status {
		case models.BookingPending, models.BookingConfirmed:
			total += trip.Bookings[i].Participants
		}
	}
	return total
}

func RemainingCapacity(trip *models.Trip) int {
	remaining := trip.MaxParticipants - ActiveParticipants(trip)
	if remaining < 0 {
		return 0
	}
	return remaining
}

func HasQuorum(trip *models.Trip) bool {
	return ActiveParticipants(trip) >= trip.MinRequired
}

func CanAccept(trip *models.Trip, requested int) bool {
	return RemainingCapacity(trip) >= requested
}

func Snapshot(trip *models.Trip) models.TripSnapshot {
	return models.TripSnapshot{
		TripID:             trip.ID,
		Status:             trip.Status,
		ActiveParticipants: ActiveParticipants(trip),
		RemainingCapacity:  RemainingCapacity(trip),
		Version:            trip.Version,
	}
}
