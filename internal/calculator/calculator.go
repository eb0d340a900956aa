package calculator

import (
	"math"

	"github.com/shopspring/decimal"
)

type greedyCalculator struct{}

// New creates a Calculator that fills the heaviest plates first.
func New() Calculator {
	return &greedyCalculator{}
}

func (c *greedyCalculator) Calculate(target float64, mode Mode) (Result, error) {
	if mode != ModeTotal && mode != ModeBarbell {
		return Result{}, ErrInvalidMode
	}
	return Decompose(target, mode.BarWeight())
}

// Decompose splits target into standard plates, largest first. A zero
// barWeight decomposes the whole target; a positive barWeight removes the bar
// and halves the rest so the plates are loaded symmetrically. A target lighter
// than the bar yields an empty bar rather than an error.
//
// Without a bar the remainder is rounded to one decimal place after each
// denomination. Per-side remainders are never rounded up, so a loaded bar
// does not exceed the target.
func Decompose(target, barWeight float64) (Result, error) {
	if !isFinite(target) {
		return Result{}, invalidWeight("please enter a valid number")
	}
	if target <= 0 {
		return Result{}, invalidWeight("the weight must be a positive number")
	}
	if target > MaxWeight {
		return Result{}, invalidWeight(tooHeavyReason)
	}
	if !isFinite(barWeight) || barWeight < 0 {
		return Result{}, ErrInvalidBarWeight
	}

	remaining := target
	if barWeight > 0 {
		remaining = (target - barWeight) / 2
	}

	plates := make([]PlateCount, 0, len(plateSet))
	totalPlates := 0
	for _, weight := range plateSet {
		count := 0
		if remaining >= weight {
			count = int(math.Floor(remaining / weight))
			remaining -= float64(count) * weight
			if barWeight == 0 {
				remaining = roundTenth(remaining)
			}
		}
		plates = append(plates, PlateCount{Weight: weight, Count: count})
		totalPlates += count
	}

	result := Result{
		Plates:       plates,
		BarWeight:    barWeight,
		TargetWeight: target,
		TotalPlates:  totalPlates,
	}
	if barWeight > 0 {
		result.AchievedWeight = barWeight + 2*result.PlateWeight()
	} else {
		result.AchievedWeight = result.PlateWeight()
	}
	result.ExactMatch = math.Abs(result.AchievedWeight-target) < exactTolerance

	return result, nil
}

// roundTenth rounds v to one decimal place, absorbing binary floating point
// residue left by repeated subtraction.
func roundTenth(v float64) float64 {
	rounded, _ := decimal.NewFromFloat(v).Round(1).Float64()
	return rounded
}
