package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

const maxSpecialRequestsLen = 500

// Reservation is the stored booking record. Field names and the status /
// paymentStatus value sets are a wire contract with the rest of the platform.
type Reservation struct {
	ID              uuid.UUID     `json:"id"`
	ResourceID      uuid.UUID     `json:"resourceId"`
	RequesterID     uuid.UUID     `json:"requesterId"`
	OwnerID         uuid.UUID     `json:"ownerId"`
	CheckIn         time.Time     `json:"checkIn"`
	CheckOut        time.Time     `json:"checkOut"`
	GuestCount      int           `json:"guestCount"`
	TotalPrice      int64         `json:"totalPrice"`
	Status          Status        `json:"status"`
	PaymentStatus   PaymentStatus `json:"paymentStatus"`
	SpecialRequests string        `json:"specialRequests,omitempty"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
}

func (r *Reservation) Stay() StayRange {
	return StayRange{CheckIn: r.CheckIn, CheckOut: r.CheckOut}
}

// Active reservations block the calendar. Cancelled and completed ones free it.
func (r *Reservation) Active() bool {
	return r.Status == StatusPending || r.Status == StatusConfirmed
}

// ValidateDraft checks a candidate record as a whole before it is admitted.
func ValidateDraft(r *Reservation) error {
	if err := r.Stay().Validate(); err != nil {
		return err
	}
	if r.ResourceID == uuid.Nil {
		return fmt.Errorf("%w: missing resource id", ErrInvalidDraft)
	}
	if r.RequesterID == uuid.Nil {
		return fmt.Errorf("%w: missing requester id", ErrInvalidDraft)
	}
	if r.GuestCount < 1 {
		return fmt.Errorf("%w: guest count must be at least 1", ErrInvalidDraft)
	}
	if r.TotalPrice < 0 {
		return fmt.Errorf("%w: total price cannot be negative", ErrInvalidDraft)
	}
	if len(r.SpecialRequests) > maxSpecialRequestsLen {
		return fmt.Errorf("%w: special requests cannot exceed %d characters", ErrInvalidDraft, maxSpecialRequestsLen)
	}
	return nil
}
