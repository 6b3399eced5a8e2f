// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package rc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func newPlane(t *testing.T) (*SignalBus, *PlaneModel) {
	t.Helper()
	bus := NewSignalBus(DefaultTiming())
	return bus, NewPlaneModel(bus)
}

// ============================================================
// Tailed
// ============================================================

func TestPlaneSingleAileronPassesThrough(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		bus := NewSignalBus(DefaultTiming())
		p := NewPlaneModel(bus)
		require.NoError(rt, p.SetAileronDifferential(rapid.Int8Range(RateMin, RateMax).Draw(rt, "diff")))

		ail := rapid.Int16Range(Normal140Min, Normal140Max).Draw(rt, "ail")
		ele := rapid.Int16Range(Normal140Min, Normal140Max).Draw(rt, "ele")
		rud := rapid.Int16Range(Normal140Min, Normal140Max).Draw(rt, "rud")
		p.Mix(ail, ele, rud, 0, 0)

		assert.Equal(rt, ail, bus.Output(OutputAIL1))
		assert.Equal(rt, ele, bus.Output(OutputELE1))
		assert.Equal(rt, rud, bus.Output(OutputRUD1))
		assert.Equal(rt, int16(0), bus.Output(OutputAIL2))
	})
}

func TestPlaneAileronCounts(t *testing.T) {
	bus, p := newPlane(t)
	require.NoError(t, p.SetAileronCount(Ailerons4))
	require.NoError(t, p.SetAileronDifferential(50))

	p.Mix(200, 0, 0, 0, 0)

	tests := []struct {
		out  Output
		want int16
	}{
		{OutputAIL1, 200},
		{OutputAIL2, -100},
		{OutputAIL3, 200},
		{OutputAIL4, -100},
	}
	for _, tt := range tests {
		if got := bus.Output(tt.out); got != tt.want {
			t.Errorf("%s = %d, want %d", tt.out, got, tt.want)
		}
	}

	assert.Error(t, p.SetAileronCount(3))
	assert.Equal(t, Ailerons4, p.AileronCount())
}

func TestPlaneVTail(t *testing.T) {
	bus, p := newPlane(t)
	require.NoError(t, p.SetTailType(TailVTail))
	require.NoError(t, p.SetVTailRudderMix(100))
	require.NoError(t, p.SetVTailElevatorMix(50))

	p.Mix(0, 200, 100, 0, 0)

	assert.Equal(t, int16(200), bus.Output(OutputELE1), "rud + ele")
	assert.Equal(t, int16(200), bus.Output(OutputRUD2), "rud + ele")
	assert.Equal(t, int16(0), bus.Output(OutputRUD1), "rud - ele")
	assert.Equal(t, int16(0), bus.Output(OutputELE2), "rud - ele")
}

func TestPlaneAilevator(t *testing.T) {
	bus, p := newPlane(t)
	require.NoError(t, p.SetTailType(TailAilevator))
	require.NoError(t, p.SetAilevatorMix(50))
	require.NoError(t, p.SetAilevatorDifferential(-50))

	p.Mix(200, 20, 30, 0, 0)

	// a = 100; diff -50 halves the positive side
	assert.Equal(t, int16(20+50), bus.Output(OutputELE1))
	assert.Equal(t, int16(20-100), bus.Output(OutputELE2))
	assert.Equal(t, int16(30), bus.Output(OutputRUD1))
}

// ============================================================
// Tailless
// ============================================================

func TestPlaneTaillessElevons(t *testing.T) {
	bus, p := newPlane(t)
	require.NoError(t, p.SetWingType(WingTailless))
	require.NoError(t, p.SetAileronCount(Ailerons2))
	require.NoError(t, p.SetElevonAileronMix(100))
	require.NoError(t, p.SetElevonElevatorMix(100))

	p.Mix(256, 0, 0, 0, 0)
	assert.Equal(t, int16(256), bus.Output(OutputAIL1))
	assert.Equal(t, int16(-256), bus.Output(OutputAIL2))

	p.Mix(0, 100, 0, 0, 0)
	assert.Equal(t, int16(100), bus.Output(OutputAIL1))
	assert.Equal(t, int16(100), bus.Output(OutputAIL2))
}

func TestPlaneTaillessSingleAileronDrivesTwo(t *testing.T) {
	bus, p := newPlane(t)
	require.NoError(t, p.SetWingType(WingTailless))
	require.NoError(t, p.SetAileronDifferential(100))

	// default elevon mixes are 50%
	p.Mix(200, 100, 0, 0, 0)

	// a = 100, e = 50; AIL2 side is cut to nothing by full differential
	assert.Equal(t, int16(150), bus.Output(OutputAIL1))
	assert.Equal(t, int16(50), bus.Output(OutputAIL2))
	assert.Equal(t, int16(0), bus.Output(OutputAIL3))
}

func TestPlaneWinglets(t *testing.T) {
	bus, p := newPlane(t)
	require.NoError(t, p.SetWingType(WingTailless))
	require.NoError(t, p.SetRudderType(RudderWinglet))
	require.NoError(t, p.SetWingletDifferential(100))

	p.Mix(0, 0, 100, 0, 0)
	assert.Equal(t, int16(100), bus.Output(OutputRUD1))
	assert.Equal(t, int16(0), bus.Output(OutputRUD2))

	p.Mix(0, 0, -100, 0, 0)
	assert.Equal(t, int16(0), bus.Output(OutputRUD1))
	assert.Equal(t, int16(-100), bus.Output(OutputRUD2))
}

func TestPlaneNoRudder(t *testing.T) {
	bus, p := newPlane(t)
	require.NoError(t, p.SetWingType(WingTailless))
	require.NoError(t, p.SetRudderType(RudderNone))

	bus.SetOutput(OutputRUD1, 42)
	p.Mix(0, 0, 100, 0, 0)
	assert.Equal(t, int16(42), bus.Output(OutputRUD1))
}

// ============================================================
// Flaps and brakes
// ============================================================

func TestPlaneFlapsAndBrakes(t *testing.T) {
	tests := []struct {
		flaps  FlapCount
		brakes BrakeCount
		want   map[Output]int16
	}{
		{Flaps0, Brakes0, map[Output]int16{OutputFLP1: 0, OutputBRK1: 0}},
		{Flaps1, Brakes1, map[Output]int16{OutputFLP1: 10, OutputFLP2: 0, OutputBRK1: 20, OutputBRK2: 0}},
		{Flaps2, Brakes2, map[Output]int16{OutputFLP1: 10, OutputFLP2: 10, OutputFLP3: 0, OutputBRK1: 20, OutputBRK2: 20}},
		{Flaps4, Brakes0, map[Output]int16{OutputFLP1: 10, OutputFLP2: 10, OutputFLP3: 20, OutputFLP4: 20, OutputBRK1: 0}},
	}

	for _, tt := range tests {
		bus, p := newPlane(t)
		require.NoError(t, p.SetFlapCount(tt.flaps))
		require.NoError(t, p.SetBrakeCount(tt.brakes))

		p.Mix(0, 0, 0, 10, 20)
		for out, want := range tt.want {
			if got := bus.Output(out); got != want {
				t.Errorf("flaps %d brakes %d: %s = %d, want %d", tt.flaps, tt.brakes, out, got, want)
			}
		}
	}
}

func TestPlaneApplyReadsInputs(t *testing.T) {
	bus, p := newPlane(t)
	bus.SetInput(InputAIL, 11)
	bus.SetInput(InputELE, 22)
	bus.SetInput(InputRUD, 33)

	p.Apply()

	assert.Equal(t, int16(11), bus.Output(OutputAIL1))
	assert.Equal(t, int16(22), bus.Output(OutputELE1))
	assert.Equal(t, int16(33), bus.Output(OutputRUD1))
}

// ============================================================
// Differential
// ============================================================

func TestApplyDiff(t *testing.T) {
	tests := []struct {
		in   int16
		diff int8
		want int16
	}{
		{100, 0, 100},
		{0, 50, 0},
		{100, 50, 100},
		{-100, -50, -100},
		{-100, 50, -50},
		{100, -50, 50},
		{100, -100, 0},
		{-200, 25, -150},
	}
	for _, tt := range tests {
		if got := ApplyDiff(tt.in, tt.diff); got != tt.want {
			t.Errorf("ApplyDiff(%d, %d) = %d, want %d", tt.in, tt.diff, got, tt.want)
		}
	}
}

func TestApplyDiffNeverAmplifies(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		v := rapid.Int16Range(Normal140Min, Normal140Max).Draw(t, "v")
		d := rapid.Int8Range(RateMin, RateMax).Draw(t, "diff")

		got := ApplyDiff(v, d)
		assert.LessOrEqual(t, abs16(got), abs16(v))
		if got != 0 {
			assert.Equal(t, v < 0, got < 0, "sign preserved")
		}
	})
}
