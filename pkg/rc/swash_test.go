// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package rc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSwashplateMix(t *testing.T) {
	// a = 100, e = 50, p = 20 with all throws at 100%
	tests := []struct {
		kind SwashType
		want map[Output]int16
	}{
		{SwashH1, map[Output]int16{OutputAIL1: 100, OutputELE1: 50, OutputPIT: 20}},
		{SwashH2, map[Output]int16{OutputAIL1: 120, OutputELE1: 50, OutputPIT: -80}},
		{SwashHE3, map[Output]int16{OutputAIL1: 120, OutputELE1: 70, OutputPIT: -80}},
		{SwashHR3, map[Output]int16{OutputAIL1: 95, OutputELE1: 70, OutputPIT: -105}},
		{SwashHN3, map[Output]int16{OutputAIL1: 120, OutputELE1: 20, OutputPIT: -80}},
		{SwashH3, map[Output]int16{OutputAIL1: 70, OutputELE1: 70, OutputPIT: -130}},
		{SwashH4, map[Output]int16{OutputAIL1: 120, OutputELE1: 70, OutputELE2: -30, OutputPIT: -80}},
		{SwashH4X, map[Output]int16{OutputAIL1: 95, OutputELE1: -5, OutputELE2: 45, OutputPIT: -55}},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			bus := NewSignalBus(DefaultTiming())
			s := NewSwashplate(bus)
			require.NoError(t, s.SetType(tt.kind))
			require.NoError(t, s.SetAileronMix(100))
			require.NoError(t, s.SetElevatorMix(100))
			require.NoError(t, s.SetPitchMix(100))

			s.Mix(100, 50, 20)
			for out, want := range tt.want {
				if got := bus.Output(out); got != want {
					t.Errorf("%s = %d, want %d", out, got, want)
				}
			}
		})
	}
}

func TestSwashplateDefaultsToZeroThrow(t *testing.T) {
	bus := NewSignalBus(DefaultTiming())
	s := NewSwashplate(bus)
	bus.SetInput(InputAIL, 200)
	bus.SetInput(InputPIT, 200)

	s.Apply()

	assert.Equal(t, SwashH1, s.Type())
	assert.Equal(t, int16(0), bus.Output(OutputAIL1))
	assert.Equal(t, int16(0), bus.Output(OutputPIT))
}

func TestSwashplateSetters(t *testing.T) {
	s := NewSwashplate(nil)
	assert.ErrorIs(t, s.SetType(SwashTypeCount), ErrOutOfRange)
	assert.ErrorIs(t, s.SetPitchMix(-101), ErrOutOfRange)
	assert.Equal(t, int8(0), s.PitchMix())
}

func TestParseSwashType(t *testing.T) {
	for k := SwashH1; k < SwashTypeCount; k++ {
		got, err := ParseSwashType(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}
	_, err := ParseSwashType("H5")
	assert.Error(t, err)
}

// ============================================================
// Swash to throttle
// ============================================================

func TestSwashToThrottleMix(t *testing.T) {
	m, err := NewSwashToThrottleMix(nil, 50, 0)
	require.NoError(t, err)

	tests := []struct {
		name          string
		thr, ail, ele int16
		want          int16
	}{
		{"no cyclic", 0, 0, 0, 0},
		{"right aileron", 0, 200, 0, 100},
		{"left aileron also adds", 0, -200, 0, 100},
		{"half throttle weight", 128, 200, 0, 178},
		{"full throttle", 256, 200, 0, 256},
		{"elevator share is zero", 0, 0, 200, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, m.Process(tt.thr, tt.ail, tt.ele))
		})
	}
}

func TestSwashToThrottleMixApply(t *testing.T) {
	bus := NewSignalBus(DefaultTiming())
	m, err := NewSwashToThrottleMix(bus, 0, 100)
	require.NoError(t, err)

	bus.SetInput(InputTHR, -128)
	bus.SetInput(InputELE, 64)
	m.Apply()

	// scale 128: 64 * 128 / 256 = 32
	assert.Equal(t, int16(-96), bus.Input(InputTHR))
}

func TestSwashToThrottleMixRejectsShares(t *testing.T) {
	_, err := NewSwashToThrottleMix(nil, 101, 0)
	assert.ErrorIs(t, err, ErrOutOfRange)

	m, err := NewSwashToThrottleMix(nil, 10, 20)
	require.NoError(t, err)
	assert.Error(t, m.SetElevatorMix(200))
	assert.Equal(t, uint8(20), m.ElevatorMix())
	assert.Equal(t, uint8(10), m.AileronMix())
}
