// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package rc

// Timing maps servo pulse widths to normalized values. Center and Travel are
// in microseconds; Travel never exceeds Center.
type Timing struct {
	center uint16
	travel uint16
}

// DefaultTiming returns the 1500 +/- 700 us mapping
func DefaultTiming() Timing {
	return Timing{center: DefaultCenter, travel: DefaultTravel}
}

// FutabaTiming returns the 1520 +/- 600 us mapping
func FutabaTiming() Timing {
	return Timing{center: 1520, travel: 600}
}

// JRTiming returns the 1500 +/- 600 us mapping
func JRTiming() Timing {
	return Timing{center: 1500, travel: 600}
}

// NewTiming validates and returns a custom mapping
func NewTiming(center, travel uint16) (Timing, error) {
	t := Timing{center: center}
	if err := t.SetTravel(travel); err != nil {
		return DefaultTiming(), err
	}
	return t, nil
}

// Center returns the pulse width of a centered servo
func (t Timing) Center() uint16 { return t.center }

// Travel returns the pulse width delta at full deflection
func (t Timing) Travel() uint16 { return t.travel }

// SetCenter sets the center pulse width. It must not drop below travel.
func (t *Timing) SetCenter(center uint16) error {
	if err := checkRange("center", int(center), int(t.travel), 0xFFFF-int(t.travel)); err != nil {
		return err
	}
	t.center = center
	return nil
}

// SetTravel sets the full-deflection delta. It must not exceed center.
func (t *Timing) SetTravel(travel uint16) error {
	if err := checkRange("travel", int(travel), 0, int(t.center)); err != nil {
		return err
	}
	t.travel = travel
	return nil
}

// MicrosToNormalized converts a pulse width to [-256, 256], saturating at
// center +/- travel.
func (t Timing) MicrosToNormalized(us uint16) int16 {
	center := int32(t.center)
	travel := int32(t.travel)
	v := int32(us)

	if v >= center+travel {
		return NormalMax
	}
	if v <= center-travel {
		return NormalMin
	}
	return int16((v - center) * 256 / travel)
}

// NormalizedToMicros converts [-256, 256] to a pulse width. The conversion is
// monotonic and exact at both ends, but it does not round-trip with
// MicrosToNormalized in between.
func (t Timing) NormalizedToMicros(n int16) uint16 {
	v := int32(ClampNormalized(n)) + 256
	return uint16(int32(t.center) - int32(t.travel) + v*2*int32(t.travel)/512)
}

// RangeToNormalized maps [0, rng] to [-256, 256]
func RangeToNormalized(value, rng uint16) int16 {
	if value >= rng {
		return NormalMax
	}
	if value == 0 {
		return NormalMin
	}
	return int16(int32(value)*512/int32(rng) - 256)
}

// NormalizedToRange maps [-256, 256] to [0, rng]
func NormalizedToRange(n int16, rng uint16) uint16 {
	v := int32(ClampNormalized(n)) + 256
	return uint16(v * int32(rng) / 512)
}

// ClampNormalized limits v to [-256, 256]
func ClampNormalized(v int16) int16 {
	return clamp(v, NormalMin, NormalMax)
}

// Clamp140 limits v to [-358, 358]
func Clamp140(v int16) int16 {
	return clamp(v, Normal140Min, Normal140Max)
}

func clamp(v, lo, hi int16) int16 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// clamp32 narrows a wide intermediate into [lo, hi]
func clamp32(v int32, lo, hi int16) int16 {
	if v < int32(lo) {
		return lo
	}
	if v > int32(hi) {
		return hi
	}
	return int16(v)
}

// Mix scales value by rate percent. The magnitude is |value|*|rate|/100 and
// the sign is negative when exactly one of the arguments is negative.
func Mix(value int16, rate int8) int16 {
	neg := (value < 0) != (rate < 0)
	v := int32(value)
	if v < 0 {
		v = -v
	}
	r := int32(rate)
	if r < 0 {
		r = -r
	}
	out := v * r / 100
	if neg {
		out = -out
	}
	return int16(out)
}

// abs16 returns |v| for values in the extended normalized range
func abs16(v int16) int16 {
	if v < 0 {
		return -v
	}
	return v
}
