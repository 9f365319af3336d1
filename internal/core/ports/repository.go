package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/wanderstay/booking-engine/internal/core/domain"
)

// ReservationFilter enumerates the supported list predicates. Results are
// always ordered by creation time, newest first; callers depend on it.
type ReservationFilter struct {
	ResourceID  *uuid.UUID
	RequesterID *uuid.UUID
	OwnerID     *uuid.UUID
	Overlapping *domain.StayRange
	ActiveOnly  bool
}

type ReservationRepository interface {
	// FindConflicts returns the active reservations whose stay overlaps the
	// given range. Read-only. An empty result is not a green light: only
	// Admit's own re-check inside the critical section is authoritative.
	FindConflicts(ctx context.Context, resourceID uuid.UUID, stay domain.StayRange) ([]domain.Reservation, error)

	// Admit is the sole path that brings a reservation into existence. It
	// re-verifies the no-overlap invariant while holding the resource's write
	// lock, and on success fills in ID, Status, PaymentStatus, CreatedAt and
	// UpdatedAt on the draft. A clash returns *domain.ConflictError and
	// persists nothing.
	Admit(ctx context.Context, draft *domain.Reservation) error

	GetByID(ctx context.Context, id uuid.UUID) (*domain.Reservation, error)

	List(ctx context.Context, filter ReservationFilter) ([]domain.Reservation, error)

	// Transition loads the reservation, applies mutate while holding its
	// record lock and persists the result. Racing transitions serialize, so
	// the loser validates against the state the winner actually persisted.
	// If mutate returns an error the record is left unchanged.
	Transition(ctx context.Context, id uuid.UUID, mutate func(*domain.Reservation) error) (*domain.Reservation, error)

	// DueForCompletion lists confirmed reservations whose check-out has
	// passed as of now.
	DueForCompletion(ctx context.Context, now time.Time) ([]uuid.UUID, error)
}

// PropertyCatalog is the listings collaborator. The engine only reads the
// projection it needs to admit bookings.
type PropertyCatalog interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Property, error)
}
