// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package rc

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePin struct {
	v   int
	err error
}

func (p *fakePin) Value() (int, error) { return p.v, p.err }

var errPin = errors.New("line released")

// ============================================================
// Pin switches
// ============================================================

func TestBiStateSwitch(t *testing.T) {
	tests := []struct {
		name     string
		pin      fakePin
		reversed bool
		want     SwitchState
	}{
		{"high", fakePin{v: 1}, false, SwitchUp},
		{"low", fakePin{v: 0}, false, SwitchDown},
		{"high reversed", fakePin{v: 1}, true, SwitchDown},
		{"low reversed", fakePin{v: 0}, true, SwitchUp},
		{"read error", fakePin{err: errPin}, false, SwitchDisconnected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus := NewSignalBus(DefaultTiming())
			s := NewBiStateSwitch(bus, &tt.pin, SwitchA, false, tt.reversed)
			assert.Equal(t, tt.want, s.Read())
			assert.Equal(t, tt.want, bus.SwitchState(SwitchA))
			assert.Equal(t, SwitchTypeBiState, bus.SwitchType(SwitchA))
		})
	}
}

func TestBiStateSwitchMomentary(t *testing.T) {
	bus := NewSignalBus(DefaultTiming())
	NewBiStateSwitch(bus, &fakePin{}, SwitchF, true, false)
	assert.Equal(t, SwitchTypeMomentary, bus.SwitchType(SwitchF))
}

func TestTriStateSwitch(t *testing.T) {
	tests := []struct {
		name     string
		up, down int
		reversed bool
		want     SwitchState
	}{
		{"up", 1, 0, false, SwitchUp},
		{"down", 0, 1, false, SwitchDown},
		{"both low", 0, 0, false, SwitchCenter},
		{"both high", 1, 1, false, SwitchCenter},
		{"up reversed", 1, 0, true, SwitchDown},
		{"down reversed", 0, 1, true, SwitchUp},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus := NewSignalBus(DefaultTiming())
			s := NewTriStateSwitch(bus, &fakePin{v: tt.up}, &fakePin{v: tt.down}, SwitchB, tt.reversed)
			s.Apply()
			assert.Equal(t, tt.want, bus.SwitchState(SwitchB))
		})
	}
}

func TestTriStateSwitchPinError(t *testing.T) {
	bus := NewSignalBus(DefaultTiming())
	s := NewTriStateSwitch(bus, &fakePin{v: 1}, &fakePin{err: errPin}, SwitchB, false)
	assert.Equal(t, SwitchDisconnected, s.Read())
}

// ============================================================
// InputSwitch
// ============================================================

func TestInputSwitchHysteresis(t *testing.T) {
	bus := NewSignalBus(DefaultTiming())
	s := NewInputSwitch(bus, InputTHR, SwitchC)
	s.SetDeadBand(10)

	steps := []struct {
		value int16
		want  SwitchState
	}{
		{0, SwitchDisconnected}, // nothing to hold yet
		{20, SwitchUp},
		{5, SwitchUp},
		{-5, SwitchUp},
		{-20, SwitchDown},
		{8, SwitchDown},
		{10, SwitchUp},
	}
	for i, st := range steps {
		if got := s.ReadValue(st.value); got != st.want {
			t.Errorf("step %d: ReadValue(%d) = %s, want %s", i, st.value, got, st.want)
		}
	}
}

func TestInputSwitchModes(t *testing.T) {
	tests := []struct {
		name        string
		mark, mark2 int16
		mirrored    bool
		ranged      bool
		reversed    bool
		in          []int16
		want        []SwitchState
	}{
		{
			name: "reversed",
			mark: 0, mark2: -1, reversed: true,
			in:   []int16{20, -20},
			want: []SwitchState{SwitchDown, SwitchUp},
		},
		{
			name: "mirrored",
			mark: 100, mark2: -1, mirrored: true,
			in:   []int16{150, -150, 50, -50},
			want: []SwitchState{SwitchUp, SwitchUp, SwitchDown, SwitchDown},
		},
		{
			name: "ranged",
			mark: 100, mark2: -50, ranged: true,
			in:   []int16{0, 150, -100, 100, -50},
			want: []SwitchState{SwitchUp, SwitchDown, SwitchDown, SwitchUp, SwitchUp},
		},
		{
			name: "ranged mirrored",
			mark: 200, mark2: 100, ranged: true, mirrored: true,
			in:   []int16{150, -150, 0, 250},
			want: []SwitchState{SwitchUp, SwitchUp, SwitchDown, SwitchDown},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus := NewSignalBus(DefaultTiming())
			s := NewInputSwitch(bus, InputTHR, SwitchC)
			require.NoError(t, s.SetMark(tt.mark))
			require.NoError(t, s.SetMark2(tt.mark2))
			s.SetMirrored(tt.mirrored)
			s.SetRanged(tt.ranged)
			s.SetReversed(tt.reversed)

			for i, v := range tt.in {
				assert.Equal(t, tt.want[i], s.ReadValue(v), "value %d", v)
			}
		})
	}
}

func TestInputSwitchMarkOrdering(t *testing.T) {
	s := NewInputSwitch(NewSignalBus(DefaultTiming()), InputTHR, SwitchC)
	require.NoError(t, s.SetMark(0))
	require.NoError(t, s.SetMark2(100))

	assert.Equal(t, int16(100), s.Mark())
	assert.Equal(t, int16(0), s.Mark2())

	assert.ErrorIs(t, s.SetMark(300), ErrOutOfRange)
}

func TestInputSwitchRead(t *testing.T) {
	bus := NewSignalBus(DefaultTiming())
	s := NewInputSwitch(bus, InputTHR, SwitchC)
	bus.SetInput(InputTHR, 100)

	s.Apply()
	assert.Equal(t, SwitchUp, bus.SwitchState(SwitchC))
	assert.Equal(t, SwitchTypeBiState, bus.SwitchType(SwitchC))

	require.NoError(t, s.SetSource(InputNone))
	assert.Equal(t, SwitchDisconnected, s.Read())
}

// ============================================================
// AnalogSwitch
// ============================================================

func TestAnalogSwitchSlides(t *testing.T) {
	bus := NewSignalBus(DefaultTiming())
	clock := NewManualClock(time.Unix(0, 0))
	a := NewAnalogSwitch(bus, clock, SwitchA, InputFLP)
	setSwitch(bus, SwitchA, SwitchDown)

	require.NoError(t, a.SetDuration(1000))
	assert.Equal(t, int16(-256), bus.Input(InputFLP), "first position is taken at once")

	setSwitch(bus, SwitchA, SwitchUp)
	steps := []struct {
		advance time.Duration
		state   SwitchState
		want    int16
	}{
		{0, SwitchUp, -256},
		{500 * time.Millisecond, SwitchUp, 0},
		{250 * time.Millisecond, SwitchUp, 128},
		{time.Second, SwitchUp, 256},
		{250 * time.Millisecond, SwitchCenter, 128},
		{time.Second, SwitchCenter, 0},
	}
	for i, st := range steps {
		clock.Advance(st.advance)
		setSwitch(bus, SwitchA, st.state)
		a.Apply()
		if got := bus.Input(InputFLP); got != st.want {
			t.Errorf("step %d: FLP = %d, want %d", i, got, st.want)
		}
	}
}

func TestAnalogSwitchInstant(t *testing.T) {
	bus := NewSignalBus(DefaultTiming())
	a := NewAnalogSwitch(bus, NewManualClock(time.Unix(0, 0)), SwitchA, InputFLP)

	assert.Equal(t, int16(0), a.Update(SwitchCenter))
	assert.Equal(t, int16(256), a.Update(SwitchUp))
	assert.Equal(t, int16(-256), a.Update(SwitchDown))
	assert.Equal(t, int16(0), a.Update(SwitchDisconnected))

	assert.ErrorIs(t, a.SetDuration(10001), ErrOutOfRange)
	assert.Equal(t, uint16(0), a.Duration())
}

// ============================================================
// SwitchToggler
// ============================================================

func TestSwitchTogglerProcess(t *testing.T) {
	tg := NewSwitchToggler(nil, SwitchDown, SwitchA)

	steps := []struct {
		in, want SwitchState
	}{
		{SwitchUp, SwitchDown},
		{SwitchDown, SwitchUp},
		{SwitchDown, SwitchUp},
		{SwitchUp, SwitchUp},
		{SwitchDown, SwitchDown},
	}
	for i, st := range steps {
		if got := tg.Process(st.in); got != st.want {
			t.Errorf("step %d: Process(%s) = %s, want %s", i, st.in, got, st.want)
		}
	}
}

func TestSwitchTogglerApply(t *testing.T) {
	bus := NewSignalBus(DefaultTiming())
	bus.SetSwitchType(SwitchG, SwitchTypeMomentary)
	tg := NewSwitchToggler(bus, SwitchUp, SwitchG)

	press := func(state SwitchState) SwitchState {
		bus.SetSwitchState(SwitchG, state)
		tg.Apply()
		return bus.SwitchState(SwitchG)
	}

	assert.Equal(t, SwitchUp, press(SwitchUp))
	assert.Equal(t, SwitchUp, press(SwitchDown))
	assert.Equal(t, SwitchDown, press(SwitchUp))

	require.NoError(t, tg.SetToggleState(SwitchCenter))
	assert.Equal(t, SwitchCenter, tg.ToggleState())
	assert.Error(t, tg.SetToggleState(SwitchStateCount))
}
