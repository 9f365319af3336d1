package domain

import (
	"time"

	"github.com/google/uuid"
)

// Actor identifies who is requesting a transition. System is set for
// platform-triggered transitions such as stay completion.
type Actor struct {
	ID     uuid.UUID
	System bool
}

func SystemActor() Actor {
	return Actor{System: true}
}

// ValidateStatusChange enforces the status machine and who may drive it:
//
//	pending   → confirmed   owner
//	pending   → cancelled   requester or owner
//	confirmed → cancelled   requester or owner
//	confirmed → completed   system, once check-out has passed
//
// cancelled and completed are terminal. An illegal edge returns
// ErrInvalidTransition; a legal edge with the wrong actor returns ErrForbidden.
func ValidateStatusChange(r *Reservation, next Status, actor Actor, now time.Time) error {
	switch {
	case r.Status == StatusPending && next == StatusConfirmed:
		if !actor.System && actor.ID == r.OwnerID {
			return nil
		}
		return ErrForbidden

	case r.Active() && next == StatusCancelled:
		if !actor.System && (actor.ID == r.RequesterID || actor.ID == r.OwnerID) {
			return nil
		}
		return ErrForbidden

	case r.Status == StatusConfirmed && next == StatusCompleted:
		if !actor.System {
			return ErrForbidden
		}
		if now.Before(r.CheckOut) {
			return ErrInvalidTransition
		}
		return nil

	default:
		return ErrInvalidTransition
	}
}

// ValidatePaymentChange enforces the payment machine: pending → paid and
// paid → refunded. Payment transitions are driven by the payment processor,
// never directly by guests or hosts.
func ValidatePaymentChange(current, next PaymentStatus) error {
	switch {
	case current == PaymentPending && next == PaymentPaid:
		return nil
	case current == PaymentPaid && next == PaymentRefunded:
		return nil
	default:
		return ErrInvalidTransition
	}
}
