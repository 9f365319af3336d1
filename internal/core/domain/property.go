package domain

import "github.com/google/uuid"

// Property is the catalog projection the engine needs to admit a booking.
// The full listing record (photos, location, amenities) lives outside this
// core and is joined in by the presentation layer.
type Property struct {
	ID          uuid.UUID `json:"id"`
	OwnerID     uuid.UUID `json:"ownerId"`
	Capacity    int       `json:"capacity"`
	NightlyRate int64     `json:"nightlyRate"`
	IsActive    bool      `json:"isActive"`
}

// Bookable reports whether new reservations may be admitted for the property.
func (p *Property) Bookable() bool {
	return p.IsActive
}
