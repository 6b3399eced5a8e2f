// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package link

import (
	"fmt"

	"github.com/Thermoquad/zenith/pkg/rc"
)

// AnomalyType classifies a problem found in a received frame
type AnomalyType int

const (
	AnomalyLengthMismatch AnomalyType = iota
	AnomalyMissingField
	AnomalyPulseRange
	AnomalyNormalizedRange
	AnomalyInvalidValue
	AnomalyCRCError
	AnomalyDecodeError
)

var anomalyNames = [...]string{
	"LENGTH_MISMATCH", "MISSING_FIELD", "PULSE_RANGE", "NORMALIZED_RANGE",
	"INVALID_VALUE", "CRC_ERROR", "DECODE_ERROR",
}

func (a AnomalyType) String() string {
	if a >= 0 && int(a) < len(anomalyNames) {
		return anomalyNames[a]
	}
	return fmt.Sprintf("ANOMALY(%d)", int(a))
}

// ValidationError describes one anomaly in a frame
type ValidationError struct {
	Type    AnomalyType
	Message string
	Details map[string]interface{}
}

// Error implements the error interface
func (v *ValidationError) Error() string {
	return v.Message
}

// ValidateFrame checks a decoded frame against the value ranges of its
// message type. An empty result means the frame is sane.
func ValidateFrame(f *Frame) []ValidationError {
	if f.length != 0 && int(f.length) != len(f.payload) {
		return []ValidationError{{
			Type:    AnomalyLengthMismatch,
			Message: fmt.Sprintf("declared length %d, payload %d bytes", f.length, len(f.payload)),
			Details: map[string]interface{}{"length": f.length, "payload": len(f.payload)},
		}}
	}
	if err := f.ParseError(); err != nil {
		return []ValidationError{{
			Type:    AnomalyDecodeError,
			Message: err.Error(),
		}}
	}

	switch f.Type() {
	case MsgChannels:
		return validateChannels(f)
	case MsgInputs:
		return validateInputs(f)
	case MsgSwitches:
		return validateSwitches(f)
	case MsgTimer:
		return validateTimer(f)
	case MsgTelemetry, MsgPong, MsgSelectProfile:
		return validateScalars(f)
	}
	return nil
}

func missing(msgType uint8, what string) []ValidationError {
	return []ValidationError{{
		Type:    AnomalyMissingField,
		Message: fmt.Sprintf("%s without %s", MessageName(msgType), what),
	}}
}

func validateChannels(f *Frame) []ValidationError {
	vals, ok := FieldInts(f.Fields(), 0)
	if !ok {
		return missing(MsgChannels, "pulse array")
	}
	errs := []ValidationError{}
	if len(vals) > rc.MaxChannels {
		errs = append(errs, ValidationError{
			Type:    AnomalyLengthMismatch,
			Message: fmt.Sprintf("%d channels (max %d)", len(vals), rc.MaxChannels),
			Details: map[string]interface{}{"count": len(vals), "max": rc.MaxChannels},
		})
	}
	for i, us := range vals {
		if us < rc.MicrosMin || us > rc.MicrosMax {
			errs = append(errs, ValidationError{
				Type:    AnomalyPulseRange,
				Message: fmt.Sprintf("CH%d pulse %dus outside %d-%dus", i+1, us, rc.MicrosMin, rc.MicrosMax),
				Details: map[string]interface{}{"channel": i + 1, "value": us},
			})
		}
	}
	return errs
}

func validateInputs(f *Frame) []ValidationError {
	vals, ok := FieldInts(f.Fields(), 0)
	if !ok {
		return missing(MsgInputs, "value array")
	}
	errs := []ValidationError{}
	if len(vals) != int(rc.InputCount) {
		errs = append(errs, ValidationError{
			Type:    AnomalyLengthMismatch,
			Message: fmt.Sprintf("%d inputs, expected %d", len(vals), rc.InputCount),
			Details: map[string]interface{}{"count": len(vals), "expected": int(rc.InputCount)},
		})
	}
	for i, v := range vals {
		if v == rc.OutMin || v == rc.OutMax {
			continue
		}
		if v < rc.Normal140Min || v > rc.Normal140Max {
			errs = append(errs, ValidationError{
				Type:    AnomalyNormalizedRange,
				Message: fmt.Sprintf("%s = %d outside %d..%d", rc.Input(i), v, rc.Normal140Min, rc.Normal140Max),
				Details: map[string]interface{}{"input": i, "value": v},
			})
		}
	}
	return errs
}

func validateSwitches(f *Frame) []ValidationError {
	vals, ok := FieldInts(f.Fields(), 0)
	if !ok {
		return missing(MsgSwitches, "state array")
	}
	errs := []ValidationError{}
	if len(vals) != int(rc.SwitchCount) {
		errs = append(errs, ValidationError{
			Type:    AnomalyLengthMismatch,
			Message: fmt.Sprintf("%d switches, expected %d", len(vals), rc.SwitchCount),
			Details: map[string]interface{}{"count": len(vals), "expected": int(rc.SwitchCount)},
		})
	}
	for i, v := range vals {
		if v < 0 || v >= int64(rc.SwitchStateCount) {
			errs = append(errs, ValidationError{
				Type:    AnomalyInvalidValue,
				Message: fmt.Sprintf("switch %d state %d unknown", i, v),
				Details: map[string]interface{}{"switch": i, "state": v},
			})
		}
	}
	return errs
}

func validateTimer(f *Frame) []ValidationError {
	if _, err := Timer(f); err != nil {
		return missing(MsgTimer, "seconds, target or running flag")
	}
	target, _ := FieldUint(f.Fields(), 1)
	if target < 1 || target > 18000 {
		return []ValidationError{{
			Type:    AnomalyInvalidValue,
			Message: fmt.Sprintf("timer target %ds outside 1-18000s", target),
			Details: map[string]interface{}{"target": target},
		}}
	}
	return nil
}

func validateScalars(f *Frame) []ValidationError {
	var err error
	switch f.Type() {
	case MsgTelemetry:
		_, err = TelemetryOf(f)
	case MsgPong:
		_, err = Uptime(f)
	case MsgSelectProfile:
		_, err = Profile(f)
	}
	if err != nil {
		return []ValidationError{{Type: AnomalyInvalidValue, Message: err.Error()}}
	}
	return nil
}
