package services_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wanderstay/booking-engine/internal/adapter/repository/memory"
	"github.com/wanderstay/booking-engine/internal/core/domain"
	"github.com/wanderstay/booking-engine/internal/core/ports"
	"github.com/wanderstay/booking-engine/internal/core/ports/mocks"
	"github.com/wanderstay/booking-engine/internal/core/services"
)

func admitStay(t *testing.T, repo *memory.ReservationRepository, resourceID, requesterID, ownerID uuid.UUID, stay domain.StayRange) *domain.Reservation {
	t.Helper()

	draft := &domain.Reservation{
		ResourceID:  resourceID,
		RequesterID: requesterID,
		OwnerID:     ownerID,
		CheckIn:     stay.CheckIn,
		CheckOut:    stay.CheckOut,
		GuestCount:  2,
		TotalPrice:  380,
	}
	require.NoError(t, repo.Admit(context.Background(), draft))
	return draft
}

func TestGetReservation(t *testing.T) {
	repo := memory.NewReservationRepository()
	service := services.NewReservationService(repo, nil)

	ctx := context.Background()
	res := admitStay(t, repo, uuid.New(), uuid.New(), uuid.New(),
		domain.StayRange{CheckIn: date(2024, 6, 1), CheckOut: date(2024, 6, 4)})

	got, err := service.Get(ctx, res.ID.String())
	require.NoError(t, err)
	assert.Equal(t, res.ID, got.ID)

	_, err = service.Get(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = service.Get(ctx, uuid.New().String())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListByResource_CacheHit(t *testing.T) {
	// Repo mock gets no expectations: a cache hit must never reach the store.
	mockRepo := mocks.NewReservationRepository(t)
	db, mockRedis := redismock.NewClientMock()

	service := services.NewReservationService(mockRepo, db)

	ctx := context.Background()
	resourceID := uuid.New()
	cached := []domain.Reservation{{
		ID:          uuid.New(),
		ResourceID:  resourceID,
		RequesterID: uuid.New(),
		OwnerID:     uuid.New(),
		CheckIn:     date(2024, 6, 1),
		CheckOut:    date(2024, 6, 4),
		GuestCount:  2,
		TotalPrice:  380,
		Status:      domain.StatusPending,
	}}
	data, err := json.Marshal(cached)
	require.NoError(t, err)

	cacheKey := "reservations:resource:" + resourceID.String()
	mockRedis.ExpectGet(cacheKey).SetVal(string(data))

	got, err := service.ListByResource(ctx, resourceID.String())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, cached[0].ID, got[0].ID)

	if err := mockRedis.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestListByResource_CacheMissFallsThrough(t *testing.T) {
	repo := memory.NewReservationRepository()
	db, mockRedis := redismock.NewClientMock()

	service := services.NewReservationService(repo, db)

	ctx := context.Background()
	resourceID := uuid.New()
	admitStay(t, repo, resourceID, uuid.New(), uuid.New(),
		domain.StayRange{CheckIn: date(2024, 6, 1), CheckOut: date(2024, 6, 4)})

	stored, err := repo.List(ctx, ports.ReservationFilter{ResourceID: &resourceID})
	require.NoError(t, err)
	data, err := json.Marshal(stored)
	require.NoError(t, err)

	cacheKey := "reservations:resource:" + resourceID.String()
	mockRedis.ExpectGet(cacheKey).RedisNil()
	mockRedis.ExpectSet(cacheKey, data, 30*time.Second).SetVal("OK")

	got, err := service.ListByResource(ctx, resourceID.String())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, stored[0].ID, got[0].ID)

	if err := mockRedis.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestChangeStatus(t *testing.T) {
	repo := memory.NewReservationRepository()
	service := services.NewReservationService(repo, nil)

	ctx := context.Background()
	guestID := uuid.New()
	ownerID := uuid.New()
	res := admitStay(t, repo, uuid.New(), guestID, ownerID,
		domain.StayRange{CheckIn: date(2030, 6, 1), CheckOut: date(2030, 6, 4)})

	// A stranger cannot confirm.
	_, err := service.ChangeStatus(ctx, res.ID.String(), domain.StatusConfirmed, domain.Actor{ID: uuid.New()})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	updated, err := service.ChangeStatus(ctx, res.ID.String(), domain.StatusConfirmed, domain.Actor{ID: ownerID})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, updated.Status)

	// The guest can still walk away from a confirmed stay.
	updated, err = service.ChangeStatus(ctx, res.ID.String(), domain.StatusCancelled, domain.Actor{ID: guestID})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, updated.Status)

	// Cancelled is terminal.
	_, err = service.ChangeStatus(ctx, res.ID.String(), domain.StatusConfirmed, domain.Actor{ID: ownerID})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = service.ChangeStatus(ctx, uuid.New().String(), domain.StatusCancelled, domain.Actor{ID: guestID})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestChangePayment(t *testing.T) {
	repo := memory.NewReservationRepository()
	service := services.NewReservationService(repo, nil)

	ctx := context.Background()
	res := admitStay(t, repo, uuid.New(), uuid.New(), uuid.New(),
		domain.StayRange{CheckIn: date(2030, 6, 1), CheckOut: date(2030, 6, 4)})

	// A refund needs a payment first.
	_, err := service.ChangePayment(ctx, res.ID.String(), domain.PaymentRefunded)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	updated, err := service.ChangePayment(ctx, res.ID.String(), domain.PaymentPaid)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentPaid, updated.PaymentStatus)

	updated, err = service.ChangePayment(ctx, res.ID.String(), domain.PaymentRefunded)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentRefunded, updated.PaymentStatus)

	_, err = service.ChangePayment(ctx, res.ID.String(), domain.PaymentPaid)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestCompleteElapsedStays(t *testing.T) {
	repo := memory.NewReservationRepository()
	service := services.NewReservationService(repo, nil)

	ctx := context.Background()
	ownerID := uuid.New()

	// Confirmed with a check-out long past: eligible.
	elapsed := admitStay(t, repo, uuid.New(), uuid.New(), ownerID,
		domain.StayRange{CheckIn: date(2024, 6, 1), CheckOut: date(2024, 6, 4)})
	_, err := service.ChangeStatus(ctx, elapsed.ID.String(), domain.StatusConfirmed, domain.Actor{ID: ownerID})
	require.NoError(t, err)

	// Still pending: the sweep must leave it alone.
	pending := admitStay(t, repo, uuid.New(), uuid.New(), ownerID,
		domain.StayRange{CheckIn: date(2024, 6, 1), CheckOut: date(2024, 6, 4)})

	// Confirmed but in the future: not due yet.
	future := admitStay(t, repo, uuid.New(), uuid.New(), ownerID,
		domain.StayRange{CheckIn: date(2030, 6, 1), CheckOut: date(2030, 6, 4)})
	_, err = service.ChangeStatus(ctx, future.ID.String(), domain.StatusConfirmed, domain.Actor{ID: ownerID})
	require.NoError(t, err)

	service.CompleteElapsedStays(ctx)

	got, err := repo.GetByID(ctx, elapsed.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, got.Status)

	got, err = repo.GetByID(ctx, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, got.Status)

	got, err = repo.GetByID(ctx, future.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, got.Status)
}
