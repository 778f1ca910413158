package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	models "github.com/oceandrift/fishcrew/internal"
)

type ApprovalRepository struct {
	db DBConn
}

func NewApprovalRepository(db DBConn) *ApprovalRepository {
	return &ApprovalRepository{db: db}
}

func (r *ApprovalRepository) CreateApproval(ctx context.Context, approval *models.ApprovalRequest) error {
	query := `
        INSERT INTO approval_requests (id, trip_id, participant_id, status, message, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `
	_, err := r.db.Exec(ctx, query,
		approval.ID, approval.TripID, approval.ParticipantID, approval.Status, approval.Message, approval.CreatedAt)
	if isUniqueViolation(err) {
		return models.ErrDuplicateApplication
	}
	return err
}

func (r *ApprovalRepository) GetApproval(ctx context.Context, id uuid.UUID) (*models.ApprovalRequest, error) {
	query := approvalSelect + ` WHERE id = $1`
	return r.scanApproval(r.db.QueryRow(ctx, query, id))
}

func (r *ApprovalRepository) GetApprovalFor(ctx context.Context, tripID, participantID uuid.UUID) (*models.ApprovalRequest, error) {
	query := approvalSelect + `
        WHERE trip_id = $1 AND participant_id = $2 AND status IN ($3, $4)
    `
	return r.scanApproval(r.db.QueryRow(ctx, query, tripID, participantID, models.ApprovalPending, models.ApprovalApproved))
}

func (r *ApprovalRepository) UpdateApproval(ctx context.Context, approval *models.ApprovalRequest) error {
	query := `
        UPDATE approval_requests
        SET status = $2, booking_id = $3, decided_by = $4, decided_at = $5
        WHERE id = $1
    `
	tag, err := r.db.Exec(ctx, query,
		approval.ID, approval.Status, approval.BookingID, approval.DecidedBy, approval.DecidedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrApprovalNotFound
	}
	return nil
}

// ConsumeApproval claims the one unconsumed APPROVED request for the
// participant on the trip. The conditional update makes the claim
// atomic, so two racing bookings cannot spend the same approval.
func (r *ApprovalRepository) ConsumeApproval(ctx context.Context, tripID, participantID, bookingID uuid.UUID) (*models.ApprovalRequest, error) {
	query := `
        UPDATE approval_requests
        SET booking_id = $3
        WHERE trip_id = $1 AND participant_id = $2 AND status = $4 AND booking_id IS NULL
        RETURNING id, trip_id, participant_id, status, message, booking_id, decided_by, decided_at, created_at
    `
	approval, err := r.scanApproval(r.db.QueryRow(ctx, query, tripID, participantID, bookingID, models.ApprovalApproved))
	if errors.Is(err, models.ErrApprovalNotFound) {
		return nil, models.ErrNotApproved
	}
	return approval, err
}

func (r *ApprovalRepository) ReleaseApproval(ctx context.Context, approvalID uuid.UUID) error {
	_, err := r.db.Exec(ctx, `UPDATE approval_requests SET booking_id = NULL WHERE id = $1`, approvalID)
	return err
}

const approvalSelect = `
        SELECT id, trip_id, participant_id, status, message, booking_id, decided_by, decided_at, created_at
        FROM approval_requests`

func (r *ApprovalRepository) scanApproval(row rowScanner) (*models.ApprovalRequest, error) {
	var a models.ApprovalRequest
	err := row.Scan(
		&a.ID, &a.TripID, &a.ParticipantID, &a.Status, &a.Message,
		&a.BookingID, &a.DecidedBy, &a.DecidedAt, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrApprovalNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}
