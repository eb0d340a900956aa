package calculator

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	// ErrInvalidWeight is returned when a target weight is not a positive number.
	ErrInvalidWeight = errors.New("invalid weight")
	// ErrInvalidBarWeight is returned when the bar weight is negative or not finite.
	ErrInvalidBarWeight = errors.New("bar weight must be a non-negative number")
	// ErrInvalidMode is returned for an unknown calculation mode.
	ErrInvalidMode = errors.New("mode must be one of: total, barbell")
)

// InputError carries a human readable reason for rejecting a weight. It
// matches ErrInvalidWeight with errors.Is.
type InputError struct {
	Reason string
}

func (e *InputError) Error() string {
	return "invalid weight: " + e.Reason
}

func (e *InputError) Is(target error) bool {
	return target == ErrInvalidWeight
}

var tooHeavyReason = fmt.Sprintf("the weight must not exceed %s lbs", strconv.FormatFloat(MaxWeight, 'f', -1, 64))

func invalidWeight(reason string) error {
	return &InputError{Reason: reason}
}
