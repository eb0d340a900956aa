package calculator

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseWeight converts user input into a target weight. The input must be a
// positive number no heavier than MaxWeight; a fractional part, when present,
// must be a single digit that is either 0 or 5.
func ParseWeight(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, invalidWeight("please enter a valid number")
	}

	value, err := decimal.NewFromString(s)
	if err != nil {
		return 0, invalidWeight("please enter a valid number")
	}
	if value.Sign() <= 0 {
		return 0, invalidWeight("the weight must be a positive number")
	}
	if value.GreaterThan(decimal.NewFromFloat(MaxWeight)) {
		return 0, invalidWeight(tooHeavyReason)
	}

	if idx := strings.IndexByte(s, '.'); idx >= 0 {
		fraction := s[idx+1:]
		if len(fraction) != 1 {
			return 0, invalidWeight("please enter exactly one decimal place (e.g., 5.0 or 5.5)")
		}
		if fraction != "0" && fraction != "5" {
			return 0, invalidWeight("decimal place must be .0 or .5 (e.g., 5.0 or 5.5)")
		}
	}

	weight, _ := value.Float64()
	if !isFinite(weight) {
		return 0, invalidWeight("please enter a valid number")
	}
	return weight, nil
}

// ParseMode maps a mode name to a Mode, ignoring case and surrounding space.
func ParseMode(raw string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(raw))) {
	case ModeTotal:
		return ModeTotal, nil
	case ModeBarbell:
		return ModeBarbell, nil
	default:
		return "", ErrInvalidMode
	}
}
