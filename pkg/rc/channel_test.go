// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package rc

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannelProcess(t *testing.T) {
	tests := []struct {
		name     string
		epMin    uint8
		epMax    uint8
		subtrim  int8
		reversed bool
		in       int16
		want     uint16
	}{
		{"center", 100, 100, 0, false, 0, 1500},
		{"default endpoint", 100, 100, 0, false, 256, 1997},
		{"default endpoint negative", 100, 100, 0, false, -256, 1002},
		{"full endpoint", 140, 140, 0, false, 256, 2200},
		{"extended range clamps", 140, 140, 0, false, 358, 2200},
		{"reversed", 140, 140, 0, true, 128, 1150},
		{"subtrim", 140, 140, 20, false, 108, 1850},
		{"low endpoint", 70, 140, 0, false, -256, 1150},
		{"max sentinel", 10, 10, 0, false, OutMax, 2200},
		{"min sentinel", 10, 10, 0, true, OutMin, 800},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus := NewSignalBus(DefaultTiming())
			c := NewChannel(bus, NewManualClock(time.Unix(0, 0)), OutputAIL1, 3)
			require.NoError(t, c.SetEndPointMin(tt.epMin))
			require.NoError(t, c.SetEndPointMax(tt.epMax))
			require.NoError(t, c.SetSubtrim(tt.subtrim))
			c.SetReverse(tt.reversed)

			assert.Equal(t, tt.want, c.Process(tt.in))
			assert.Equal(t, tt.want, bus.OutputChannel(3))
		})
	}
}

func TestChannelApplyReadsSource(t *testing.T) {
	bus := NewSignalBus(DefaultTiming())
	c := NewChannel(bus, nil, OutputTHR1, 0)
	require.NoError(t, c.SetEndPointMax(140))

	bus.SetOutput(OutputTHR1, 128)
	c.Apply()
	assert.Equal(t, uint16(1850), bus.OutputChannel(0))

	bus.SetOutput(OutputTHR1, OutMin)
	c.Apply()
	assert.Equal(t, uint16(800), bus.OutputChannel(0))
}

func TestChannelSlew(t *testing.T) {
	bus := NewSignalBus(DefaultTiming())
	clock := NewManualClock(time.Unix(0, 0))
	c := NewChannel(bus, clock, OutputAIL1, 0)
	require.NoError(t, c.SetEndPointMin(140))
	require.NoError(t, c.SetEndPointMax(140))
	// full travel in one second
	require.NoError(t, c.SetSpeed(10))

	assert.Equal(t, uint16(1500), c.Process(0), "first position is taken at once")

	steps := []struct {
		advance time.Duration
		in      int16
		want    uint16
	}{
		{0, 256, 1500},
		{250 * time.Millisecond, 256, 1850},
		{250 * time.Millisecond, 256, 2200},
		{250 * time.Millisecond, 256, 2200},
		{125 * time.Millisecond, 0, 2025},
	}
	for i, st := range steps {
		clock.Advance(st.advance)
		if got := c.Process(st.in); got != st.want {
			t.Errorf("step %d: Process(%d) = %d, want %d", i, st.in, got, st.want)
		}
	}
}

func TestChannelSetters(t *testing.T) {
	c := NewChannel(NewSignalBus(DefaultTiming()), nil, OutputAIL1, 0)

	assert.ErrorIs(t, c.SetEndPointMax(141), ErrOutOfRange)
	assert.ErrorIs(t, c.SetSubtrim(-101), ErrOutOfRange)
	assert.ErrorIs(t, c.SetSpeed(101), ErrOutOfRange)
	assert.ErrorIs(t, c.SetDestination(MaxChannels), ErrOutOfRange)

	assert.Equal(t, uint8(100), c.EndPointMax())
	assert.Equal(t, uint8(0), c.Speed())
	assert.Equal(t, OutputChannel(0), c.Destination())
}
