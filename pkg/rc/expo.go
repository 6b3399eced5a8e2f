// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package rc

// Interior points of the expo curves, sampled every 16 steps over [0, 256].
// The negative curve is tabulated on its own, not derived from the positive one.
var (
	expoPositive = [15]int16{0, 1, 2, 4, 8, 14, 21, 32, 46, 63, 83, 108, 137, 171, 210}
	expoNegative = [15]int16{101, 128, 147, 161, 174, 185, 194, 203, 211, 219, 226, 232, 239, 245, 251}
)

// Expo bends the response of an input: positive expo softens the center,
// negative expo sharpens it. The ends of the range stay fixed.
type Expo struct {
	bus  *SignalBus
	port InputPort
	expo int8
}

// NewExpo returns an identity expo modifying index
func NewExpo(bus *SignalBus, index Input) *Expo {
	return &Expo{bus: bus, port: InputPort{index: index}}
}

// SetExpo sets the amount of expo, [-100, 100]
func (e *Expo) SetExpo(expo int8) error {
	if err := checkRange("expo", int(expo), RateMin, RateMax); err != nil {
		return err
	}
	e.expo = expo
	return nil
}

// Expo returns the amount of expo
func (e *Expo) Expo() int8 { return e.expo }

// SetIndex selects the input to modify
func (e *Expo) SetIndex(i Input) error { return e.port.set("expo input", i) }

// Index returns the input being modified
func (e *Expo) Index() Input { return e.port.index }

// Process applies expo to a value in [-256, 256]
func (e *Expo) Process(v int16) int16 {
	if e.expo == 0 {
		return v
	}
	v = ClampNormalized(v)

	neg := v < 0
	if neg {
		v = -v
	}

	table := &expoPositive
	amount := int32(e.expo)
	if amount < 0 {
		table = &expoNegative
		amount = -amount
	}

	idx := int(v >> 4)
	rem := int32(v & 15)
	low := expoPoint(table, idx)
	high := expoPoint(table, idx+1)
	curved := (low*(16-rem) + high*rem) >> 4

	out := int16((int32(v)*(100-amount) + curved*amount) / 100)
	if neg {
		return -out
	}
	return out
}

// expoPoint returns point idx of a curve whose ends are 0 and 256
func expoPoint(table *[15]int16, idx int) int32 {
	switch {
	case idx <= 0:
		return 0
	case idx > len(table):
		return NormalMax
	}
	return int32(table[idx-1])
}

// Apply runs expo on the configured input
func (e *Expo) Apply() {
	if !e.port.Connected() {
		return
	}
	e.port.write(e.bus, e.Process(e.port.read(e.bus)))
}
