package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	models "github.com/oceandrift/fishcrew/internal"
)

const (
	pgUniqueViolation  = "23505"
	pgLockNotAvailable = "55P03"
)

type DBConn interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
}

type TripRepository struct {
	db          DBConn
	lockRetries int
	lockBackoff time.Duration
}

type TripRepositoryOption func(*TripRepository)

func WithLockRetries(n int) TripRepositoryOption {
	return func(r *TripRepository) { r.lockRetries = n }
}

func WithLockBackoff(d time.Duration) TripRepositoryOption {
	return func(r *TripRepository) { r.lockBackoff = d }
}

func NewTripRepository(db DBConn, opts ...TripRepositoryOption) *TripRepository {
	r := &TripRepository{
		db:          db,
		lockRetries: 3,
		lockBackoff: 50 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *TripRepository) CreateTrip(ctx context.Context, trip *models.Trip) error {
	query := `
        INSERT INTO trips (id, date, time_slot, max_participants, min_required, price_per_person, status, version, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
    `
	_, err := r.db.Exec(ctx, query,
		trip.ID, trip.Date, trip.TimeSlot, trip.MaxParticipants, trip.MinRequired,
		trip.PricePerPerson, trip.Status, trip.Version, trip.CreatedAt, trip.UpdatedAt)
	if isUniqueViolation(err) {
		return models.ErrTripExists
	}
	return err
}

func (r *TripRepository) GetTrip(ctx context.Context, id uuid.UUID) (*models.Trip, error) {
	query := `
        SELECT id, date, time_slot, max_participants, min_required, price_per_person, status, version, created_at, updated_at
        FROM trips
        WHERE id = $1
    `
	trip, err := r.scanTrip(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}
	trip.Bookings, err = r.tripBookings(ctx, r.db, id)
	if err != nil {
		return nil, err
	}
	return trip, nil
}

// FindOpenTrip returns the non-cancelled trip for a date and slot.
// Bookings are not loaded; callers needing capacity use GetTrip or
// Mutate.
func (r *TripRepository) FindOpenTrip(ctx context.Context, date time.Time, slot models.TimeSlot) (*models.Trip, error) {
	query := `
        SELECT id, date, time_slot, max_participants, min_required, price_per_person, status, version, created_at, updated_at
        FROM trips
        WHERE date = $1 AND time_slot = $2 AND status <> $3
    `
	return r.scanTrip(r.db.QueryRow(ctx, query, date, slot, models.TripCancelled))
}

func (r *TripRepository) FindTripByBooking(ctx context.Context, bookingID uuid.UUID) (uuid.UUID, error) {
	var tripID uuid.UUID
	err := r.db.QueryRow(ctx, `SELECT trip_id FROM bookings WHERE id = $1`, bookingID).Scan(&tripID)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, models.ErrBookingNotFound
	}
	if err != nil {
		return uuid.Nil, err
	}
	return tripID, nil
}

// Mutate runs fn against the trip row locked FOR UPDATE and persists
// the resulting trip and booking state in the same transaction. The
// NOWAIT lock maps contention to ErrBusy, retried up to lockRetries
// times with backoff before surfacing to the caller.
func (r *TripRepository) Mutate(ctx context.Context, tripID uuid.UUID, fn func(trip *models.Trip) error) (*models.Trip, error) {
	for attempt := 0; ; attempt++ {
		trip, err := r.mutateOnce(ctx, tripID, fn)
		if !errors.Is(err, models.ErrBusy) {
			return trip, err
		}
		if attempt >= r.lockRetries {
			return nil, models.ErrBusy
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(r.lockBackoff):
		}
	}
}

func (r *TripRepository) mutateOnce(ctx context.Context, tripID uuid.UUID, fn func(trip *models.Trip) error) (*models.Trip, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	lockQuery := `
        SELECT id, date, time_slot, max_participants, min_required, price_per_person, status, version, created_at, updated_at
        FROM trips
        WHERE id = $1
        FOR UPDATE NOWAIT
    `
	trip, err := r.scanTrip(tx.QueryRow(ctx, lockQuery, tripID))
	if err != nil {
		return nil, err
	}
	trip.Bookings, err = r.tripBookings(ctx, tx, tripID)
	if err != nil {
		return nil, err
	}

	if err := fn(trip); err != nil {
		return nil, err
	}

	trip.Version++
	trip.UpdatedAt = time.Now().UTC()
	updateQuery := `
        UPDATE trips
        SET status = $2, version = $3, updated_at = $4
        WHERE id = $1
    `
	if _, err := tx.Exec(ctx, updateQuery, trip.ID, trip.Status, trip.Version, trip.UpdatedAt); err != nil {
		return nil, err
	}

	upsertQuery := `
        INSERT INTO bookings (id, trip_id, participants, contact_name, contact_phone, contact_email, status, cancel_reason, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        ON CONFLICT (id) DO UPDATE
        SET status = EXCLUDED.status, cancel_reason = EXCLUDED.cancel_reason, updated_at = EXCLUDED.updated_at
    `
	for i := range trip.Bookings {
		b := &trip.Bookings[i]
		if _, err := tx.Exec(ctx, upsertQuery,
			b.ID, b.TripID, b.Participants, b.Contact.Name, b.Contact.Phone, b.Contact.Email,
			b.Status, b.CancelReason, b.CreatedAt, b.UpdatedAt); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return trip, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *TripRepository) scanTrip(row rowScanner) (*models.Trip, error) {
	var trip models.Trip
	err := row.Scan(
		&trip.ID, &trip.Date, &trip.TimeSlot, &trip.MaxParticipants, &trip.MinRequired,
		&trip.PricePerPerson, &trip.Status, &trip.Version, &trip.CreatedAt, &trip.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrTripNotFound
	}
	if isLockNotAvailable(err) {
		return nil, models.ErrBusy
	}
	if err != nil {
		return nil, err
	}
	return &trip, nil
}

type querier interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}

// tripBookings loads a trip's bookings in insertion order.
func (r *TripRepository) tripBookings(ctx context.Context, q querier, tripID uuid.UUID) ([]models.Booking, error) {
	query := `
        SELECT id, trip_id, participants, contact_name, contact_phone, contact_email, status, cancel_reason, created_at, updated_at
        FROM bookings
        WHERE trip_id = $1
        ORDER BY created_at, id
    `
	rows, err := q.Query(ctx, query, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []models.Booking
	for rows.Next() {
		var b models.Booking
		err := rows.Scan(
			&b.ID, &b.TripID, &b.Participants, &b.Contact.Name, &b.Contact.Phone, &b.Contact.Email,
			&b.Status, &b.CancelReason, &b.CreatedAt, &b.UpdatedAt)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

func isLockNotAvailable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgLockNotAvailable
}
