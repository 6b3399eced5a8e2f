// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package rc

import "time"

// Beeper plays the audible cues of the flight timer. on and off are the
// tone and pause lengths; repeat is the number of extra beeps.
type Beeper interface {
	Beep(on, off time.Duration, repeat int)
}

// Flight timer cues
const (
	timerTargetBeep = 100 * time.Millisecond
	timerShortBeep  = 10 * time.Millisecond
	timerCountdown  = 10 // seconds before the target with double beeps
)

// FlightTimer counts flight time while its switch gate is open. It beeps
// long at the target, a double beep each second of the last ten before it,
// and short every full minute.
type FlightTimer struct {
	gate   SwitchGate
	bus    *SignalBus
	timer  ticker
	beeper Beeper

	seconds int32
	millis  int32
	target  int32
	up      bool
	running bool
}

// NewFlightTimer returns a counting-up timer running while s reads state.
// beeper may be nil.
func NewFlightTimer(bus *SignalBus, clock Clock, beeper Beeper, s Switch, state SwitchState) *FlightTimer {
	return &FlightTimer{
		gate:   SwitchGate{source: s, active: state},
		bus:    bus,
		timer:  newTicker(clock),
		beeper: beeper,
		target: 1,
		up:     true,
	}
}

// SetTarget sets the flight time in seconds, [1, 18000], and resets the timer
func (t *FlightTimer) SetTarget(seconds uint16) error {
	if err := checkRange("timer target", int(seconds), 1, 18000); err != nil {
		return err
	}
	t.target = int32(seconds)
	t.Reset()
	return nil
}

// Target returns the flight time in seconds
func (t *FlightTimer) Target() uint16 { return uint16(t.target) }

// SetDirection selects counting up (true) or down, and resets the timer
func (t *FlightTimer) SetDirection(up bool) {
	t.up = up
	t.Reset()
}

// Direction reports whether the timer counts up
func (t *FlightTimer) Direction() bool { return t.up }

// SetSwitch changes the switch that runs the timer
func (t *FlightTimer) SetSwitch(s Switch, state SwitchState) error { return t.gate.set(s, state) }

// Time returns the displayed time in seconds. Counting down goes negative
// past the target.
func (t *FlightTimer) Time() int32 {
	if t.up {
		return t.seconds
	}
	return t.target - t.seconds
}

// Elapsed returns the flown time in seconds
func (t *FlightTimer) Elapsed() int32 { return t.seconds }

// Reset clears the flown time
func (t *FlightTimer) Reset() {
	t.seconds = 0
	t.millis = 0
	t.timer.reset()
}

// Update accumulates time while active. Time spent inactive is not counted.
func (t *FlightTimer) Update(active bool) {
	delta := t.timer.elapsed()
	t.running = active
	if !active {
		return
	}
	t.millis += delta
	for t.millis >= 1000 {
		t.millis -= 1000
		t.seconds++
		t.cue()
	}
}

// Apply updates the timer from its switch gate
func (t *FlightTimer) Apply() { t.Update(t.gate.Active(t.bus)) }

// Running reports whether the last update counted time
func (t *FlightTimer) Running() bool { return t.running }

// Gate returns the switch gate
func (t *FlightTimer) Gate() SwitchGate { return t.gate }

func (t *FlightTimer) cue() {
	if t.beeper == nil {
		return
	}
	switch {
	case t.seconds == t.target:
		t.beeper.Beep(timerTargetBeep, 0, 0)
	case t.seconds < t.target && t.target-t.seconds <= timerCountdown:
		t.beeper.Beep(timerShortBeep, timerShortBeep, 1)
	case t.seconds%60 == 0:
		t.beeper.Beep(timerShortBeep, 0, 0)
	}
}
