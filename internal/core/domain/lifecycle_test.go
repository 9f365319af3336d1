package domain_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/wanderstay/booking-engine/internal/core/domain"
)

func sampleReservation(status domain.Status) *domain.Reservation {
	return &domain.Reservation{
		ID:          uuid.New(),
		ResourceID:  uuid.New(),
		RequesterID: uuid.MustParse("11111111-1111-1111-1111-111111111111"),
		OwnerID:     uuid.MustParse("22222222-2222-2222-2222-222222222222"),
		CheckIn:     date(2024, 6, 1),
		CheckOut:    date(2024, 6, 5),
		GuestCount:  2,
		Status:      status,
	}
}

func TestValidateStatusChange(t *testing.T) {
	guest := domain.Actor{ID: uuid.MustParse("11111111-1111-1111-1111-111111111111")}
	host := domain.Actor{ID: uuid.MustParse("22222222-2222-2222-2222-222222222222")}
	stranger := domain.Actor{ID: uuid.New()}
	system := domain.SystemActor()
	afterCheckout := date(2024, 6, 6)
	beforeCheckout := date(2024, 6, 3)

	tests := []struct {
		name    string
		from    domain.Status
		to      domain.Status
		actor   domain.Actor
		now     time.Time
		wantErr error
	}{
		{"host confirms pending", domain.StatusPending, domain.StatusConfirmed, host, beforeCheckout, nil},
		{"guest cannot confirm", domain.StatusPending, domain.StatusConfirmed, guest, beforeCheckout, domain.ErrForbidden},
		{"system cannot confirm", domain.StatusPending, domain.StatusConfirmed, system, beforeCheckout, domain.ErrForbidden},
		{"guest cancels pending", domain.StatusPending, domain.StatusCancelled, guest, beforeCheckout, nil},
		{"host cancels pending", domain.StatusPending, domain.StatusCancelled, host, beforeCheckout, nil},
		{"stranger cannot cancel", domain.StatusPending, domain.StatusCancelled, stranger, beforeCheckout, domain.ErrForbidden},
		{"guest cancels confirmed", domain.StatusConfirmed, domain.StatusCancelled, guest, beforeCheckout, nil},
		{"system completes after checkout", domain.StatusConfirmed, domain.StatusCompleted, system, afterCheckout, nil},
		{"system cannot complete early", domain.StatusConfirmed, domain.StatusCompleted, system, beforeCheckout, domain.ErrInvalidTransition},
		{"host cannot complete", domain.StatusConfirmed, domain.StatusCompleted, host, afterCheckout, domain.ErrForbidden},
		{"cancelled cannot confirm", domain.StatusCancelled, domain.StatusConfirmed, host, beforeCheckout, domain.ErrInvalidTransition},
		{"cancelled cannot complete", domain.StatusCancelled, domain.StatusCompleted, system, afterCheckout, domain.ErrInvalidTransition},
		{"completed cannot cancel", domain.StatusCompleted, domain.StatusCancelled, host, afterCheckout, domain.ErrInvalidTransition},
		{"pending cannot complete", domain.StatusPending, domain.StatusCompleted, system, afterCheckout, domain.ErrInvalidTransition},
		{"no self transition", domain.StatusPending, domain.StatusPending, host, beforeCheckout, domain.ErrInvalidTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := sampleReservation(tt.from)
			err := domain.ValidateStatusChange(res, tt.to, tt.actor, tt.now)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePaymentChange(t *testing.T) {
	assert.NoError(t, domain.ValidatePaymentChange(domain.PaymentPending, domain.PaymentPaid))
	assert.NoError(t, domain.ValidatePaymentChange(domain.PaymentPaid, domain.PaymentRefunded))

	assert.ErrorIs(t, domain.ValidatePaymentChange(domain.PaymentPending, domain.PaymentRefunded), domain.ErrInvalidTransition)
	assert.ErrorIs(t, domain.ValidatePaymentChange(domain.PaymentPaid, domain.PaymentPending), domain.ErrInvalidTransition)
	assert.ErrorIs(t, domain.ValidatePaymentChange(domain.PaymentRefunded, domain.PaymentPaid), domain.ErrInvalidTransition)
	assert.ErrorIs(t, domain.ValidatePaymentChange(domain.PaymentRefunded, domain.PaymentRefunded), domain.ErrInvalidTransition)
}

func TestValidateDraft(t *testing.T) {
	valid := sampleReservation(domain.StatusPending)
	assert.NoError(t, domain.ValidateDraft(valid))

	noGuests := sampleReservation(domain.StatusPending)
	noGuests.GuestCount = 0
	assert.ErrorIs(t, domain.ValidateDraft(noGuests), domain.ErrInvalidDraft)

	negativePrice := sampleReservation(domain.StatusPending)
	negativePrice.TotalPrice = -1
	assert.ErrorIs(t, domain.ValidateDraft(negativePrice), domain.ErrInvalidDraft)

	longRequests := sampleReservation(domain.StatusPending)
	for len(longRequests.SpecialRequests) <= 500 {
		longRequests.SpecialRequests += "please bring extra towels "
	}
	assert.ErrorIs(t, domain.ValidateDraft(longRequests), domain.ErrInvalidDraft)

	badStay := sampleReservation(domain.StatusPending)
	badStay.CheckOut = badStay.CheckIn
	assert.ErrorIs(t, domain.ValidateDraft(badStay), domain.ErrInvalidStayRange)
}
