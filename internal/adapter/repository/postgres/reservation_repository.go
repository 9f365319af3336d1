package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/wanderstay/booking-engine/internal/core/domain"
	"github.com/wanderstay/booking-engine/internal/core/ports"
)

const reservationColumns = `id, resource_id, requester_id, owner_id, check_in, check_out,
	guest_count, total_price, status, payment_status, special_requests, created_at, updated_at`

type ReservationRepository struct {
	db *sql.DB
}

func NewReservationRepository(db *sql.DB) *ReservationRepository {
	return &ReservationRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReservation(row rowScanner) (*domain.Reservation, error) {
	var res domain.Reservation
	err := row.Scan(
		&res.ID,
		&res.ResourceID,
		&res.RequesterID,
		&res.OwnerID,
		&res.CheckIn,
		&res.CheckOut,
		&res.GuestCount,
		&res.TotalPrice,
		&res.Status,
		&res.PaymentStatus,
		&res.SpecialRequests,
		&res.CreatedAt,
		&res.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *ReservationRepository) FindConflicts(ctx context.Context, resourceID uuid.UUID, stay domain.StayRange) ([]domain.Reservation, error) {
	query := `
	SELECT ` + reservationColumns + `
	FROM reservations
	WHERE resource_id = $1
	  AND status IN ('pending', 'confirmed')
	  AND check_in < $3 AND $2 < check_out
	ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, resourceID, stay.CheckIn, stay.CheckOut)
	if err != nil {
		return nil, fmt.Errorf("query conflicts: %w", err)
	}
	defer rows.Close()

	var conflicts []domain.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan conflict: %w", err)
		}
		conflicts = append(conflicts, *res)
	}
	return conflicts, rows.Err()
}

// Admit commits a new reservation only if its stay is still free. Writers for
// the same property queue on the property row lock, so the overlap re-check
// below always sees every previously committed reservation. The exclusion
// constraint on the table is a second line of defense; tripping it is still
// reported as a conflict, never as a generic failure.
func (r *ReservationRepository) Admit(ctx context.Context, draft *domain.Reservation) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin admit: %w", err)
	}

	defer tx.Rollback()

	var propertyID uuid.UUID
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM properties WHERE id = $1 FOR UPDATE`,
		draft.ResourceID,
	).Scan(&propertyID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("lock property row: %w", err)
	}

	rows, err := tx.QueryContext(ctx, `
	SELECT id FROM reservations
	WHERE resource_id = $1
	  AND status IN ('pending', 'confirmed')
	  AND check_in < $3 AND $2 < check_out
	`, draft.ResourceID, draft.CheckIn, draft.CheckOut)
	if err != nil {
		return fmt.Errorf("re-check conflicts: %w", err)
	}

	var clashes []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return fmt.Errorf("scan clash: %w", err)
		}
		clashes = append(clashes, id)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("read clashes: %w", err)
	}
	rows.Close()

	if len(clashes) > 0 {
		return &domain.ConflictError{ResourceID: draft.ResourceID, ConflictingIDs: clashes}
	}

	now := time.Now().UTC()
	draft.ID = uuid.New()
	draft.Status = domain.StatusPending
	draft.PaymentStatus = domain.PaymentPending
	draft.CreatedAt = now
	draft.UpdatedAt = now

	_, err = tx.ExecContext(ctx, `
	INSERT INTO reservations (`+reservationColumns+`)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`,
		draft.ID, draft.ResourceID, draft.RequesterID, draft.OwnerID,
		draft.CheckIn, draft.CheckOut, draft.GuestCount, draft.TotalPrice,
		draft.Status, draft.PaymentStatus, draft.SpecialRequests,
		draft.CreatedAt, draft.UpdatedAt,
	)
	if err != nil {
		if isExclusionViolation(err) {
			return &domain.ConflictError{ResourceID: draft.ResourceID}
		}
		return fmt.Errorf("insert reservation: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit admit: %w", err)
	}
	return nil
}

func isExclusionViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23P01"
}

func (r *ReservationRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Reservation, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE id = $1`, id)

	res, err := scanReservation(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get reservation: %w", err)
	}
	return res, nil
}

func (r *ReservationRepository) List(ctx context.Context, filter ports.ReservationFilter) ([]domain.Reservation, error) {
	var conds []string
	var args []any

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.ResourceID != nil {
		conds = append(conds, "resource_id = "+arg(*filter.ResourceID))
	}
	if filter.RequesterID != nil {
		conds = append(conds, "requester_id = "+arg(*filter.RequesterID))
	}
	if filter.OwnerID != nil {
		conds = append(conds, "owner_id = "+arg(*filter.OwnerID))
	}
	if filter.ActiveOnly {
		conds = append(conds, "status IN ('pending', 'confirmed')")
	}
	if filter.Overlapping != nil {
		conds = append(conds, "check_in < "+arg(filter.Overlapping.CheckOut))
		conds = append(conds, arg(filter.Overlapping.CheckIn)+" < check_out")
	}

	query := `SELECT ` + reservationColumns + ` FROM reservations`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	defer rows.Close()

	var out []domain.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		out = append(out, *res)
	}
	return out, rows.Err()
}

// Transition applies mutate under a row lock so racing transitions on the
// same reservation serialize; the loser validates against the winner's state.
func (r *ReservationRepository) Transition(ctx context.Context, id uuid.UUID, mutate func(*domain.Reservation) error) (*domain.Reservation, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transition: %w", err)
	}

	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE id = $1 FOR UPDATE`, id)

	res, err := scanReservation(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("lock reservation row: %w", err)
	}

	if err := mutate(res); err != nil {
		return nil, err
	}
	res.UpdatedAt = time.Now().UTC()

	_, err = tx.ExecContext(ctx, `
	UPDATE reservations
	SET status = $1, payment_status = $2, updated_at = $3
	WHERE id = $4
	`, res.Status, res.PaymentStatus, res.UpdatedAt, res.ID)
	if err != nil {
		return nil, fmt.Errorf("persist transition: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transition: %w", err)
	}
	return res, nil
}

func (r *ReservationRepository) DueForCompletion(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT id FROM reservations
	WHERE status = 'confirmed' AND check_out <= $1
	LIMIT 100
	`, now)
	if err != nil {
		return nil, fmt.Errorf("query due reservations: %w", err)
	}

	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan due id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
