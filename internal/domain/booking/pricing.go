package booking

import (
	"fmt"
	"math"

	"github.com/agrirent/service-booking/internal/common/domain"
)

// PricingUnit is the dimension a booking's cost is measured in.
type PricingUnit string

const (
	UnitDay  PricingUnit = "day"
	UnitHour PricingUnit = "hour"
	UnitAcre PricingUnit = "acre"
)

// IsValid returns true if the unit is recognized.
func (u PricingUnit) IsValid() bool {
	switch u {
	case UnitDay, UnitHour, UnitAcre:
		return true
	}
	return false
}

// ParsePricingUnit converts a string to a PricingUnit. An empty string means day.
func ParsePricingUnit(s string) (PricingUnit, error) {
	if s == "" {
		return UnitDay, nil
	}
	u := PricingUnit(s)
	if !u.IsValid() {
		return "", fmt.Errorf("invalid pricing unit: %s", s)
	}
	return u, nil
}

// PricingStrategy defines the interface for calculating booking prices.
type PricingStrategy interface {
	// Calculate returns the quantities and cost for the given parameters.
	Calculate(params PricingParams) (Quote, error)
}

// PricingParams holds the inputs for price calculation.
type PricingParams struct {
	Unit   PricingUnit
	Rate   float64
	Period DateRange
	Usage  *float64
}

// Quote is the result of pricing a booking request. Usage, Rate and TotalCost
// are at the two-decimal scale they are stored with.
type Quote struct {
	TotalDays int
	Usage     float64
	Rate      float64
	TotalCost float64
}

// Stored amounts are NUMERIC(10,2) for usage and NUMERIC(12,2) for money.
const (
	maxUsageHundredths = 99_999_999_99
	maxCostHundredths  = 9_999_999_999_99
)

func toHundredths(v float64) int64 { return int64(math.Round(v * 100)) }

func fromHundredths(n int64) float64 { return float64(n) / 100 }

// StandardPricingStrategy implements rate times quantity pricing.
type StandardPricingStrategy struct{}

// NewStandardPricingStrategy creates a new StandardPricingStrategy.
func NewStandardPricingStrategy() *StandardPricingStrategy {
	return &StandardPricingStrategy{}
}

// Calculate computes the cost of a booking.
//
// Pricing formula:
//   - day:  usage is the number of days and cost = totalDays * rate
//   - hour, acre: usage is supplied by the caller and cost = usage * rate
//
// Usage and rate are rounded to hundredths before multiplying and the cost is
// rounded to hundredths, so a stored booking reloads with the same figures.
// Usage that rounds to zero is rejected.
func (s *StandardPricingStrategy) Calculate(params PricingParams) (Quote, error) {
	if params.Rate < 0 {
		return Quote{}, domain.NewValidationError("rate cannot be negative")
	}

	totalDays := params.Period.TotalDays()

	var usage int64
	switch params.Unit {
	case UnitDay:
		usage = int64(totalDays) * 100
	case UnitHour, UnitAcre:
		if params.Usage == nil || *params.Usage <= 0 {
			return Quote{}, domain.NewValidationError(fmt.Sprintf("please provide usage in %ss", params.Unit))
		}
		if *params.Usage > fromHundredths(maxUsageHundredths) {
			return Quote{}, domain.NewValidationError(fmt.Sprintf("usage cannot exceed %.2f %ss", fromHundredths(maxUsageHundredths), params.Unit))
		}
		usage = toHundredths(*params.Usage)
		if usage == 0 {
			return Quote{}, domain.NewValidationError(fmt.Sprintf("usage must be at least 0.01 %ss", params.Unit))
		}
	default:
		return Quote{}, domain.NewValidationError(fmt.Sprintf("unknown pricing unit: %s", params.Unit))
	}

	if params.Rate > fromHundredths(maxCostHundredths) {
		return Quote{}, domain.NewValidationError("rate is too large")
	}
	rate := toHundredths(params.Rate)
	if rate > 0 && usage > (math.MaxInt64-50)/rate {
		return Quote{}, domain.NewValidationError("booking total is too large")
	}
	cost := (usage*rate + 50) / 100
	if cost > maxCostHundredths {
		return Quote{}, domain.NewValidationError("booking total is too large")
	}

	return Quote{
		TotalDays: totalDays,
		Usage:     fromHundredths(usage),
		Rate:      fromHundredths(rate),
		TotalCost: fromHundredths(cost),
	}, nil
}
