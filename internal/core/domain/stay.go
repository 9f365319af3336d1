package domain

import (
	"math"
	"time"
)

// StayRange is a half-open occupancy window [CheckIn, CheckOut).
type StayRange struct {
	CheckIn  time.Time `json:"checkIn"`
	CheckOut time.Time `json:"checkOut"`
}

// Validate rejects zero-night and inverted ranges.
func (s StayRange) Validate() error {
	if !s.CheckOut.After(s.CheckIn) {
		return ErrInvalidStayRange
	}
	return nil
}

// Overlaps reports whether two half-open ranges share any instant. A stay
// ending exactly when another begins does not overlap: same-day turnover.
func (s StayRange) Overlaps(other StayRange) bool {
	return s.CheckIn.Before(other.CheckOut) && other.CheckIn.Before(s.CheckOut)
}

// Nights counts billable nights. Any partial day charges a full night.
func (s StayRange) Nights() int {
	hours := s.CheckOut.Sub(s.CheckIn).Hours()
	return int(math.Ceil(hours / 24))
}
