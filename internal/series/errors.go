package series

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is matched by every InvalidInputError.
var ErrInvalidInput = errors.New("invalid input")

// InvalidInputError reports input sequences rejected at call entry.
type InvalidInputError struct {
	Indicator string
	Reason    string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("%s: invalid input: %s", e.Indicator, e.Reason)
}

func (e *InvalidInputError) Unwrap() error { return ErrInvalidInput }

// Validate checks that all inputs are non-empty and share the same length.
func Validate(indicator string, inputs ...[]float64) error {
	if len(inputs) == 0 {
		return &InvalidInputError{Indicator: indicator, Reason: "no input sequences"}
	}
	n := len(inputs[0])
	if n == 0 {
		return &InvalidInputError{Indicator: indicator, Reason: "empty sequence"}
	}
	for i, in := range inputs[1:] {
		if len(in) != n {
			return &InvalidInputError{
				Indicator: indicator,
				Reason:    fmt.Sprintf("sequence %d has length %d, expected %d", i+1, len(in), n),
			}
		}
	}
	return nil
}
