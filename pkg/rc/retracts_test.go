// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package rc

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestRetractsSequence(t *testing.T) {
	bus := NewSignalBus(DefaultTiming())
	clock := NewManualClock(time.Unix(0, 0))
	r := NewRetracts(bus, clock, RetractsDual, SwitchNone, SwitchDown)

	r.Update()
	assert.True(t, r.IsDown())
	assert.True(t, r.DoorsAreOpen())
	assert.True(t, r.GearIsLowered())
	assert.Equal(t, int16(-256), bus.Output(OutputGEAR))
	assert.Equal(t, int16(-256), bus.Output(OutputDOOR))

	r.Up()
	steps := []struct {
		advance     time.Duration
		gear, doors int16
		up, down    bool
	}{
		{50 * time.Millisecond, 0, -256, false, false},
		{100 * time.Millisecond, 256, 0, false, false},
		{100 * time.Millisecond, 256, 256, true, false},
		{time.Second, 256, 256, true, false},
	}
	for i, st := range steps {
		clock.Advance(st.advance)
		r.Update()
		assert.Equal(t, st.gear, bus.Output(OutputGEAR), "step %d gear", i)
		assert.Equal(t, st.doors, bus.Output(OutputDOOR), "step %d doors", i)
		assert.Equal(t, st.up, r.IsUp(), "step %d up", i)
		assert.Equal(t, st.down, r.IsDown(), "step %d down", i)
	}
	assert.True(t, r.GearIsRaised())
	assert.True(t, r.DoorsAreClosed())

	r.Down()
	clock.Advance(50 * time.Millisecond)
	r.Update()
	assert.Equal(t, int32(150), r.Time())
	assert.Equal(t, int16(0), bus.Output(OutputDOOR))
	assert.Equal(t, int16(256), bus.Output(OutputGEAR))

	clock.Advance(time.Second)
	r.Update()
	assert.True(t, r.IsDown())
	assert.Equal(t, int16(-256), bus.Output(OutputGEAR))
}

func TestRetractsPartialMoves(t *testing.T) {
	clock := NewManualClock(time.Unix(0, 0))
	r := NewRetracts(NewSignalBus(DefaultTiming()), clock, RetractsDual, SwitchNone, SwitchDown)

	r.RaiseGear()
	clock.Advance(time.Second)
	r.Update()
	assert.Equal(t, int32(100), r.Time())
	assert.True(t, r.GearIsRaised())
	assert.True(t, r.DoorsAreOpen())

	r.CloseDoors()
	clock.Advance(time.Second)
	r.Update()
	assert.True(t, r.IsUp())

	r.OpenDoors()
	clock.Advance(time.Second)
	r.Update()
	assert.True(t, r.IsDown())

	r.LowerGear()
	assert.True(t, r.GearIsLowered())
}

func TestRetractsSingleServo(t *testing.T) {
	bus := NewSignalBus(DefaultTiming())
	clock := NewManualClock(time.Unix(0, 0))
	r := NewRetracts(bus, clock, RetractsSingle, SwitchNone, SwitchDown)

	r.Up()
	clock.Advance(150 * time.Millisecond)
	r.Update()

	// gear 256, doors 0
	assert.Equal(t, int16(128), bus.Output(OutputGEAR))
	assert.Equal(t, int16(128), bus.Output(OutputDOOR))
}

func TestRetractsFollowSwitch(t *testing.T) {
	bus := NewSignalBus(DefaultTiming())
	clock := NewManualClock(time.Unix(0, 0))
	r := NewRetracts(bus, clock, RetractsNoDoor, SwitchE, SwitchDown)
	bus.SetOutput(OutputDOOR, 99)

	setSwitch(bus, SwitchE, SwitchUp)
	clock.Advance(time.Second)
	r.Update()
	assert.True(t, r.IsUp())
	assert.Equal(t, int16(256), bus.Output(OutputGEAR))
	assert.Equal(t, int16(99), bus.Output(OutputDOOR), "no door servo")

	setSwitch(bus, SwitchE, SwitchDown)
	clock.Advance(time.Second)
	r.Apply()
	assert.True(t, r.IsDown())
}

func TestRetractsTimeline(t *testing.T) {
	tests := []struct {
		name                  string
		gear, doors           uint16
		delay                 int16
		gearStart, doorsStart int32
		gearEnd, doorsEnd     int32
	}{
		{"default", 100, 100, 0, 0, 100, 100, 200},
		{"delayed doors", 100, 200, 50, 0, 150, 100, 350},
		{"overlap", 300, 100, -150, 0, 200, 300, 300},
		{"doors before gear end", 100, 100, -300, 0, 0, 100, 100},
		{"shifted", 100, 300, -500, 200, 0, 300, 300},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRetracts(nil, NewManualClock(time.Unix(0, 0)), RetractsDual, SwitchNone, SwitchDown)
			require.NoError(t, r.SetGearSpeed(tt.gear))
			require.NoError(t, r.SetDoorsSpeed(tt.doors))
			require.NoError(t, r.SetDelay(tt.delay))

			assert.Equal(t, tt.gearStart, r.gearStart)
			assert.Equal(t, tt.gearEnd, r.gearEnd)
			assert.Equal(t, tt.doorsStart, r.doorsStart)
			assert.Equal(t, tt.doorsEnd, r.doorsEnd)
		})
	}
}

func TestRetractsNeverUpAndDown(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		bus := NewSignalBus(DefaultTiming())
		clock := NewManualClock(time.Unix(0, 0))
		r := NewRetracts(bus, clock, RetractsDual, SwitchNone, SwitchDown)

		gear := rapid.Uint16Range(0, 10000).Draw(t, "gear")
		doors := rapid.Uint16Range(0, 10000).Draw(t, "doors")
		if gear == 0 && doors == 0 {
			doors = 1
		}
		require.NoError(t, r.SetGearSpeed(gear))
		require.NoError(t, r.SetDoorsSpeed(doors))
		require.NoError(t, r.SetDelay(rapid.Int16Range(-10000, 10000).Draw(t, "delay")))

		steps := rapid.IntRange(1, 40).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			if rapid.Bool().Draw(t, "up") {
				r.Up()
			} else {
				r.Down()
			}
			clock.Advance(time.Duration(rapid.IntRange(0, 5000).Draw(t, "ms")) * time.Millisecond)
			r.Update()
			if r.IsUp() && r.IsDown() {
				t.Fatalf("up and down at time %d", r.Time())
			}
			assert.GreaterOrEqual(t, r.Time(), int32(0))
		}
	})
}

func TestRetractsSetters(t *testing.T) {
	r := NewRetracts(nil, nil, RetractsNoDoor, SwitchNone, SwitchDown)
	assert.ErrorIs(t, r.SetGearSpeed(10001), ErrOutOfRange)
	assert.ErrorIs(t, r.SetDelay(-10001), ErrOutOfRange)
	assert.ErrorIs(t, r.SetType(RetractsDual+1), ErrOutOfRange)
	assert.Equal(t, uint16(100), r.GearSpeed())
	assert.Equal(t, RetractsNoDoor, r.Type())
}
