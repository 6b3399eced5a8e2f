// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package rc

import (
	"errors"
	"fmt"
)

// ErrOutOfRange is wrapped by every RangeError
var ErrOutOfRange = errors.New("value out of range")

// RangeError reports a setter argument outside its legal range.
// The setter leaves its previous value in place.
type RangeError struct {
	Param string
	Value int
	Min   int
	Max   int
}

// Error implements the error interface
func (e *RangeError) Error() string {
	return fmt.Sprintf("%s = %d out of range [%d, %d]", e.Param, e.Value, e.Min, e.Max)
}

// Unwrap makes RangeError match ErrOutOfRange with errors.Is
func (e *RangeError) Unwrap() error {
	return ErrOutOfRange
}

// checkRange returns a *RangeError when v is outside [min, max]
func checkRange(param string, v, min, max int) error {
	if v < min || v > max {
		return &RangeError{Param: param, Value: v, Min: min, Max: max}
	}
	return nil
}
