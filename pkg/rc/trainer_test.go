// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package rc

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================
// Trainer
// ============================================================

func TestTrainerBlend(t *testing.T) {
	tr := NewTrainer(nil, SwitchA, SwitchUp, 0)
	assert.Equal(t, int16(100), tr.Blend(100, 256, true), "disabled trainer passes the teacher")

	tr.SetEnabled(true)
	assert.Equal(t, int16(256), tr.Blend(100, 256, true))
	assert.Equal(t, int16(100), tr.Blend(100, 256, false))

	require.NoError(t, tr.SetStudentRate(50))
	require.NoError(t, tr.SetTeacherRate(50))
	assert.Equal(t, int16(178), tr.Blend(100, 256, true))

	assert.ErrorIs(t, tr.SetTeacherRate(101), ErrOutOfRange)
	assert.Equal(t, uint8(50), tr.TeacherRate())
}

func TestTrainerUpdate(t *testing.T) {
	bus := NewSignalBus(DefaultTiming())
	tr := NewTrainer(bus, SwitchA, SwitchUp, 2)
	tr.SetEnabled(true)
	require.NoError(t, tr.SetInputDestination(InputAIL))

	bus.SetInputChannel(2, 2200)
	bus.SetInput(InputAIL, 100)

	setSwitch(bus, SwitchA, SwitchDown)
	tr.Apply()
	assert.Equal(t, int16(100), bus.Input(InputAIL), "switch not in trainer position")

	setSwitch(bus, SwitchA, SwitchUp)
	tr.Update(false)
	assert.Equal(t, int16(100), bus.Input(InputAIL), "student signal lost")

	tr.Apply()
	assert.Equal(t, int16(256), bus.Input(InputAIL))
}

func TestTrainerDestinationsAreExclusive(t *testing.T) {
	bus := NewSignalBus(DefaultTiming())
	tr := NewTrainer(bus, SwitchA, SwitchDisconnected, 0)
	tr.SetEnabled(true)
	setSwitch(bus, SwitchA, SwitchCenter)

	require.NoError(t, tr.SetInputDestination(InputELE))
	require.NoError(t, tr.SetOutputDestination(OutputELE1))
	assert.Equal(t, InputNone, tr.InputDestination())
	assert.Equal(t, OutputELE1, tr.OutputDestination())

	bus.SetInputChannel(0, 800)
	tr.Apply()
	assert.Equal(t, int16(-256), bus.Output(OutputELE1))
	assert.Equal(t, int16(0), bus.Input(InputELE))

	require.NoError(t, tr.SetInputDestination(InputELE))
	assert.Equal(t, OutputNone, tr.OutputDestination())
	assert.Error(t, tr.SetOutputDestination(OutputCount))
	assert.Equal(t, InputELE, tr.InputDestination())
}

// ============================================================
// FlycamOne
// ============================================================

func TestFlycamRecording(t *testing.T) {
	bus := NewSignalBus(DefaultTiming())
	clock := NewManualClock(time.Unix(100, 0))
	f := NewFlycamOne(bus, clock, OutputFLP4)

	assert.Equal(t, int16(-256), f.Update())
	require.True(t, f.StartRecording())
	assert.False(t, f.StartRecording(), "busy")

	steps := []struct {
		advance   time.Duration
		want      int16
		busy      bool
		recording bool
	}{
		{0, 256, true, false},
		{249 * time.Millisecond, 256, true, false},
		{time.Millisecond, -256, true, true},
		{249 * time.Millisecond, -256, true, true},
		{time.Millisecond, -256, false, true},
	}
	for i, st := range steps {
		clock.Advance(st.advance)
		assert.Equal(t, st.want, f.Update(), "step %d value", i)
		assert.Equal(t, st.busy, f.Busy(), "step %d busy", i)
		assert.Equal(t, st.recording, f.Recording(), "step %d recording", i)
	}
	assert.Equal(t, int16(-256), bus.Output(OutputFLP4))

	assert.False(t, f.SetCamMode(CamPhoto), "no mode change while recording")
	assert.True(t, f.StopRecording())
}

func TestFlycamCamModeTwice(t *testing.T) {
	clock := NewManualClock(time.Unix(100, 0))
	f := NewFlycamOne(NewSignalBus(DefaultTiming()), clock, OutputFLP4)

	require.True(t, f.SetCamMode(CamPhoto))
	assert.False(t, f.SetSensorMode(SensorFlipped), "busy")

	f.Update()
	clock.Advance(FlycamCamModeTime * time.Millisecond)
	f.Update()
	assert.Equal(t, CamSerial, f.CamMode())

	clock.Advance(FlycamCoolDownTime * time.Millisecond)
	f.Update()
	assert.True(t, f.Busy(), "second pulse pending")

	assert.Equal(t, int16(256), f.Update())
	clock.Advance(FlycamCamModeTime * time.Millisecond)
	f.Update()
	assert.Equal(t, CamPhoto, f.CamMode())

	clock.Advance(FlycamCoolDownTime * time.Millisecond)
	f.Update()
	assert.False(t, f.Busy())

	assert.False(t, f.StartRecording(), "no video in photo mode")
	assert.True(t, f.TakePhoto())
}

func TestFlycamSensorMode(t *testing.T) {
	clock := NewManualClock(time.Unix(100, 0))
	f := NewFlycamOne(NewSignalBus(DefaultTiming()), clock, OutputNone)

	assert.True(t, f.SetSensorMode(SensorNormal), "already normal")
	assert.False(t, f.Busy())

	require.True(t, f.SetSensorMode(SensorFlipped))
	f.Update()
	clock.Advance(FlycamSensorModeTime * time.Millisecond)
	f.Update()
	assert.Equal(t, SensorFlipped, f.SensorMode())
}

// ============================================================
// FlightTimer
// ============================================================

type beep struct {
	on, off time.Duration
	repeat  int
}

type recordingBeeper struct {
	beeps []beep
}

func (r *recordingBeeper) Beep(on, off time.Duration, repeat int) {
	r.beeps = append(r.beeps, beep{on, off, repeat})
}

func TestFlightTimerCues(t *testing.T) {
	clock := NewManualClock(time.Unix(0, 0))
	beeper := &recordingBeeper{}
	ft := NewFlightTimer(nil, clock, beeper, SwitchNone, SwitchUp)
	require.NoError(t, ft.SetTarget(5))

	for i := 0; i < 6; i++ {
		clock.Advance(time.Second)
		ft.Update(true)
	}

	double := beep{timerShortBeep, timerShortBeep, 1}
	long := beep{timerTargetBeep, 0, 0}
	assert.Equal(t, []beep{double, double, double, double, long}, beeper.beeps)
	assert.Equal(t, int32(6), ft.Time())
}

func TestFlightTimerMinuteBeep(t *testing.T) {
	clock := NewManualClock(time.Unix(0, 0))
	beeper := &recordingBeeper{}
	ft := NewFlightTimer(nil, clock, beeper, SwitchNone, SwitchUp)
	require.NoError(t, ft.SetTarget(600))

	clock.Advance(time.Minute)
	ft.Update(true)

	assert.Equal(t, []beep{{timerShortBeep, 0, 0}}, beeper.beeps)
	assert.Equal(t, int32(60), ft.Elapsed())
}

func TestFlightTimerCountsOnlyActiveTime(t *testing.T) {
	bus := NewSignalBus(DefaultTiming())
	clock := NewManualClock(time.Unix(0, 0))
	ft := NewFlightTimer(bus, clock, nil, SwitchH, SwitchDown)
	require.NoError(t, ft.SetTarget(300))
	ft.SetDirection(false)

	setSwitch(bus, SwitchH, SwitchUp)
	clock.Advance(5 * time.Second)
	ft.Apply()
	assert.Equal(t, int32(0), ft.Elapsed())
	assert.False(t, ft.Running())

	setSwitch(bus, SwitchH, SwitchDown)
	clock.Advance(1500 * time.Millisecond)
	ft.Apply()
	clock.Advance(500 * time.Millisecond)
	ft.Apply()
	assert.Equal(t, int32(2), ft.Elapsed())
	assert.Equal(t, int32(298), ft.Time())
	assert.True(t, ft.Running())

	ft.Reset()
	assert.Equal(t, int32(300), ft.Time())
	assert.ErrorIs(t, ft.SetTarget(0), ErrOutOfRange)
}
