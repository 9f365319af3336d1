// Package memory holds an in-process implementation of the reservation store.
// It honors the same contract as the postgres adapter and backs the service
// and concurrency tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wanderstay/booking-engine/internal/core/domain"
	"github.com/wanderstay/booking-engine/internal/core/ports"
)

type ReservationRepository struct {
	mu    sync.RWMutex
	byID  map[uuid.UUID]*domain.Reservation
	all   []*domain.Reservation // insertion order == creation order
	locks map[uuid.UUID]*sync.Mutex
}

func NewReservationRepository() *ReservationRepository {
	return &ReservationRepository{
		byID:  make(map[uuid.UUID]*domain.Reservation),
		locks: make(map[uuid.UUID]*sync.Mutex),
	}
}

// resourceLock returns the admit/transition critical section for a resource.
// Locks are per resource so bookings against distinct properties never
// contend with each other.
func (r *ReservationRepository) resourceLock(resourceID uuid.UUID) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.locks[resourceID]
	if !ok {
		l = &sync.Mutex{}
		r.locks[resourceID] = l
	}
	return l
}

func (r *ReservationRepository) FindConflicts(ctx context.Context, resourceID uuid.UUID, stay domain.StayRange) ([]domain.Reservation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var conflicts []domain.Reservation
	for _, existing := range r.all {
		if existing.ResourceID != resourceID || !existing.Active() {
			continue
		}
		if existing.Stay().Overlaps(stay) {
			conflicts = append(conflicts, *existing)
		}
	}
	return conflicts, nil
}

func (r *ReservationRepository) Admit(ctx context.Context, draft *domain.Reservation) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	lock := r.resourceLock(draft.ResourceID)
	lock.Lock()
	defer lock.Unlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	var clashes []uuid.UUID
	for _, existing := range r.all {
		if existing.ResourceID != draft.ResourceID || !existing.Active() {
			continue
		}
		if existing.Stay().Overlaps(draft.Stay()) {
			clashes = append(clashes, existing.ID)
		}
	}
	if len(clashes) > 0 {
		return &domain.ConflictError{ResourceID: draft.ResourceID, ConflictingIDs: clashes}
	}

	now := time.Now().UTC()
	draft.ID = uuid.New()
	draft.Status = domain.StatusPending
	draft.PaymentStatus = domain.PaymentPending
	draft.CreatedAt = now
	draft.UpdatedAt = now

	stored := *draft
	r.byID[stored.ID] = &stored
	r.all = append(r.all, &stored)
	return nil
}

func (r *ReservationRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Reservation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := *stored
	return &out, nil
}

func matches(res *domain.Reservation, filter ports.ReservationFilter) bool {
	if filter.ResourceID != nil && res.ResourceID != *filter.ResourceID {
		return false
	}
	if filter.RequesterID != nil && res.RequesterID != *filter.RequesterID {
		return false
	}
	if filter.OwnerID != nil && res.OwnerID != *filter.OwnerID {
		return false
	}
	if filter.ActiveOnly && !res.Active() {
		return false
	}
	if filter.Overlapping != nil && !res.Stay().Overlaps(*filter.Overlapping) {
		return false
	}
	return true
}

func (r *ReservationRepository) List(ctx context.Context, filter ports.ReservationFilter) ([]domain.Reservation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	// Walk newest-first; insertion order is creation order.
	var out []domain.Reservation
	for i := len(r.all) - 1; i >= 0; i-- {
		if matches(r.all[i], filter) {
			out = append(out, *r.all[i])
		}
	}
	return out, nil
}

func (r *ReservationRepository) Transition(ctx context.Context, id uuid.UUID, mutate func(*domain.Reservation) error) (*domain.Reservation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	stored, ok := r.byID[id]
	r.mu.RUnlock()
	if !ok {
		return nil, domain.ErrNotFound
	}

	lock := r.resourceLock(stored.ResourceID)
	lock.Lock()
	defer lock.Unlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	work := *stored
	if err := mutate(&work); err != nil {
		return nil, err
	}
	work.UpdatedAt = time.Now().UTC()
	*stored = work

	out := work
	return &out, nil
}

func (r *ReservationRepository) DueForCompletion(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var ids []uuid.UUID
	for _, res := range r.all {
		if res.Status == domain.StatusConfirmed && !now.Before(res.CheckOut) {
			ids = append(ids, res.ID)
		}
	}
	return ids, nil
}
