package domain

import (
	"fmt"
	"math"
)

// Platform fee defaults. The cleaning fee is flat per stay; the service fee
// rate applies to the nightly subtotal.
const (
	DefaultCleaningFee    int64   = 50
	DefaultServiceFeeRate float64 = 0.10
)

type PricingConfig struct {
	CleaningFee    int64
	ServiceFeeRate float64
}

func DefaultPricing() PricingConfig {
	return PricingConfig{
		CleaningFee:    DefaultCleaningFee,
		ServiceFeeRate: DefaultServiceFeeRate,
	}
}

// Quote breaks a stay's price down the way it is presented at checkout.
type Quote struct {
	Nights      int   `json:"nights"`
	Subtotal    int64 `json:"subtotal"`
	CleaningFee int64 `json:"cleaningFee"`
	ServiceFee  int64 `json:"serviceFee"`
	Total       int64 `json:"total"`
}

// PriceStay computes the total for a stay at the given nightly rate. The
// service fee rounds to the nearest whole unit, ties away from zero.
func PriceStay(nightlyRate int64, stay StayRange, cfg PricingConfig) (Quote, error) {
	if nightlyRate < 0 {
		return Quote{}, fmt.Errorf("%w: nightly rate cannot be negative", ErrInvalidDraft)
	}
	nights := stay.Nights()
	if nights <= 0 {
		return Quote{}, ErrInvalidStayRange
	}

	subtotal := int64(nights) * nightlyRate
	serviceFee := int64(math.Round(float64(subtotal) * cfg.ServiceFeeRate))

	return Quote{
		Nights:      nights,
		Subtotal:    subtotal,
		CleaningFee: cfg.CleaningFee,
		ServiceFee:  serviceFee,
		Total:       subtotal + cfg.CleaningFee + serviceFee,
	}, nil
}
