package services

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/wanderstay/booking-engine/internal/core/domain"
	"github.com/wanderstay/booking-engine/internal/core/ports"
)

const resourceCacheTTL = 30 * time.Second

// ReservationService serves reads and drives lifecycle transitions.
type ReservationService struct {
	reservations ports.ReservationRepository
	cache        *redis.Client
}

func NewReservationService(reservations ports.ReservationRepository, cache *redis.Client) *ReservationService {
	return &ReservationService{reservations: reservations, cache: cache}
}

func (s *ReservationService) Get(ctx context.Context, id string) (*domain.Reservation, error) {
	rid, err := uuid.Parse(id)
	if err != nil {
		return nil, domain.ErrNotFound
	}
	return s.reservations.GetByID(ctx, rid)
}

// ListByResource reads through the per-resource cache. Entries are dropped on
// every write for that resource, so a hit is at most TTL-stale.
func (s *ReservationService) ListByResource(ctx context.Context, resourceID string) ([]domain.Reservation, error) {
	id, err := uuid.Parse(resourceID)
	if err != nil {
		return nil, domain.ErrNotFound
	}

	if s.cache != nil {
		if data, err := s.cache.Get(ctx, resourceCacheKey(id)).Bytes(); err == nil {
			var cached []domain.Reservation
			if json.Unmarshal(data, &cached) == nil {
				return cached, nil
			}
		}
	}

	out, err := s.reservations.List(ctx, ports.ReservationFilter{ResourceID: &id})
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(out); err == nil {
			if err := s.cache.Set(ctx, resourceCacheKey(id), data, resourceCacheTTL).Err(); err != nil {
				log.Printf("Failed to cache reservations for resource %s: %v", id, err)
			}
		}
	}
	return out, nil
}

func (s *ReservationService) ListByRequester(ctx context.Context, requesterID string) ([]domain.Reservation, error) {
	id, err := uuid.Parse(requesterID)
	if err != nil {
		return nil, domain.ErrNotFound
	}
	return s.reservations.List(ctx, ports.ReservationFilter{RequesterID: &id})
}

func (s *ReservationService) ListByOwner(ctx context.Context, ownerID string) ([]domain.Reservation, error) {
	id, err := uuid.Parse(ownerID)
	if err != nil {
		return nil, domain.ErrNotFound
	}
	return s.reservations.List(ctx, ports.ReservationFilter{OwnerID: &id})
}

// ChangeStatus validates and applies a status transition on behalf of actor.
// Validation runs inside the store's record lock, so two racing transitions
// cannot both succeed against the same starting state.
func (s *ReservationService) ChangeStatus(ctx context.Context, id string, next domain.Status, actor domain.Actor) (*domain.Reservation, error) {
	rid, err := uuid.Parse(id)
	if err != nil {
		return nil, domain.ErrNotFound
	}

	updated, err := s.reservations.Transition(ctx, rid, func(r *domain.Reservation) error {
		if err := domain.ValidateStatusChange(r, next, actor, time.Now().UTC()); err != nil {
			return err
		}
		r.Status = next
		return nil
	})
	if err != nil {
		return nil, err
	}

	invalidateResourceCache(ctx, s.cache, updated.ResourceID)
	return updated, nil
}

// ChangePayment applies a payment-status transition. Callers are the payment
// processor integration, not guests or hosts.
func (s *ReservationService) ChangePayment(ctx context.Context, id string, next domain.PaymentStatus) (*domain.Reservation, error) {
	rid, err := uuid.Parse(id)
	if err != nil {
		return nil, domain.ErrNotFound
	}

	updated, err := s.reservations.Transition(ctx, rid, func(r *domain.Reservation) error {
		if err := domain.ValidatePaymentChange(r.PaymentStatus, next); err != nil {
			return err
		}
		r.PaymentStatus = next
		return nil
	})
	if err != nil {
		return nil, err
	}

	invalidateResourceCache(ctx, s.cache, updated.ResourceID)
	return updated, nil
}

// RunCompletionWorker marks confirmed stays completed once their check-out
// has passed.
func (s *ReservationService) RunCompletionWorker(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Printf("Completion worker started: checking elapsed stays every %s...", interval)

	for {
		select {
		case <-ctx.Done():
			log.Println("Completion worker stopped.")
			return
		case <-ticker.C:
			s.CompleteElapsedStays(ctx)
		}
	}
}

// CompleteElapsedStays runs one completion sweep. Exposed so operators can
// trigger a sweep outside the ticker.
func (s *ReservationService) CompleteElapsedStays(ctx context.Context) {
	now := time.Now().UTC()

	ids, err := s.reservations.DueForCompletion(ctx, now)
	if err != nil {
		log.Printf("Error fetching stays due for completion: %v", err)
		return
	}
	if len(ids) == 0 {
		return
	}

	log.Printf("Found %d stay(s) past check-out. Completing...", len(ids))

	for _, id := range ids {
		updated, err := s.reservations.Transition(ctx, id, func(r *domain.Reservation) error {
			if err := domain.ValidateStatusChange(r, domain.StatusCompleted, domain.SystemActor(), now); err != nil {
				return err
			}
			r.Status = domain.StatusCompleted
			return nil
		})
		if err != nil {
			// A guest may have cancelled between the sweep query and the lock.
			if !errors.Is(err, domain.ErrInvalidTransition) {
				log.Printf("Failed to complete reservation %s: %v", id, err)
			}
			continue
		}
		invalidateResourceCache(ctx, s.cache, updated.ResourceID)
	}
}
