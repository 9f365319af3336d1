package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/wanderstay/booking-engine/internal/core/domain"
	"github.com/wanderstay/booking-engine/internal/core/ports"
)

// BookStayRequest carries a guest's booking attempt. RequesterID comes from
// the identity layer and is trusted as given.
type BookStayRequest struct {
	ResourceID      string    `json:"resourceId"`
	RequesterID     string    `json:"requesterId"`
	CheckIn         time.Time `json:"checkIn"`
	CheckOut        time.Time `json:"checkOut"`
	GuestCount      int       `json:"guestCount"`
	SpecialRequests string    `json:"specialRequests"`
}

type BookingService struct {
	catalog      ports.PropertyCatalog
	reservations ports.ReservationRepository
	cache        *redis.Client
	pricing      domain.PricingConfig
}

func NewBookingService(
	catalog ports.PropertyCatalog,
	reservations ports.ReservationRepository,
	cache *redis.Client,
	pricing domain.PricingConfig,
) *BookingService {
	return &BookingService{
		catalog:      catalog,
		reservations: reservations,
		cache:        cache,
		pricing:      pricing,
	}
}

func resourceCacheKey(resourceID uuid.UUID) string {
	return fmt.Sprintf("reservations:resource:%s", resourceID)
}

func invalidateResourceCache(ctx context.Context, cache *redis.Client, resourceID uuid.UUID) {
	if cache == nil {
		return
	}
	if err := cache.Del(ctx, resourceCacheKey(resourceID)).Err(); err != nil {
		log.Printf("Failed to invalidate cache for resource %s: %v", resourceID, err)
	}
}

// Book runs a booking attempt end to end: load the listing, validate guest
// count and dates, price the stay and ask the store to admit the reservation.
// The store's own conflict re-check is authoritative; by the time it commits,
// any earlier availability read may already be stale.
func (s *BookingService) Book(ctx context.Context, req BookStayRequest) (*domain.Reservation, error) {
	resourceID, err := uuid.Parse(req.ResourceID)
	if err != nil {
		return nil, domain.ErrNotFound
	}

	requesterID, err := uuid.Parse(req.RequesterID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid requester id", domain.ErrInvalidDraft)
	}

	property, err := s.catalog.GetByID(ctx, resourceID)
	if err != nil {
		return nil, err
	}
	if !property.Bookable() {
		// An unlisted property is indistinguishable from a missing one.
		return nil, domain.ErrNotFound
	}

	if req.GuestCount > property.Capacity {
		return nil, domain.ErrCapacityExceeded
	}

	stay := domain.StayRange{CheckIn: req.CheckIn, CheckOut: req.CheckOut}
	if err := stay.Validate(); err != nil {
		return nil, err
	}

	quote, err := domain.PriceStay(property.NightlyRate, stay, s.pricing)
	if err != nil {
		return nil, err
	}

	draft := &domain.Reservation{
		ResourceID:      resourceID,
		RequesterID:     requesterID,
		OwnerID:         property.OwnerID, // fixed at booking time, never re-resolved
		CheckIn:         req.CheckIn,
		CheckOut:        req.CheckOut,
		GuestCount:      req.GuestCount,
		TotalPrice:      quote.Total,
		SpecialRequests: req.SpecialRequests,
	}
	if err := domain.ValidateDraft(draft); err != nil {
		return nil, err
	}

	if err := s.reservations.Admit(ctx, draft); err != nil {
		return nil, err
	}

	invalidateResourceCache(ctx, s.cache, resourceID)
	return draft, nil
}

// CheckAvailability is a read-only pre-check for calendar UIs. It may be
// stale by the time Book runs, which is why Book never relies on it.
func (s *BookingService) CheckAvailability(ctx context.Context, resourceID string, stay domain.StayRange) (bool, error) {
	id, err := uuid.Parse(resourceID)
	if err != nil {
		return false, domain.ErrNotFound
	}
	if err := stay.Validate(); err != nil {
		return false, err
	}

	conflicts, err := s.reservations.FindConflicts(ctx, id, stay)
	if err != nil {
		return false, err
	}
	return len(conflicts) == 0, nil
}

// QuoteStay prices a stay without reserving anything.
func (s *BookingService) QuoteStay(ctx context.Context, resourceID string, stay domain.StayRange) (*domain.Quote, error) {
	id, err := uuid.Parse(resourceID)
	if err != nil {
		return nil, domain.ErrNotFound
	}

	property, err := s.catalog.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !property.Bookable() {
		return nil, domain.ErrNotFound
	}

	quote, err := domain.PriceStay(property.NightlyRate, stay, s.pricing)
	if err != nil {
		return nil, err
	}
	return &quote, nil
}
