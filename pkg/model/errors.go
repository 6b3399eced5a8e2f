// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package model

import "fmt"

// ConfigError reports a model setting that could not be applied
type ConfigError struct {
	Field string
	Err   error
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

// Unwrap returns the underlying error, often an *rc.RangeError
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// fieldErr wraps err for field, or returns nil
func fieldErr(field string, err error) error {
	if err == nil {
		return nil
	}
	return &ConfigError{Field: field, Err: err}
}
