// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package scenario

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/Thermoquad/zenith/pkg/rc"
)

// Knob is an analog reader whose value is set by a scenario
type Knob struct {
	raw uint16
}

// Read implements rc.AnalogReader
func (k *Knob) Read() (uint16, error) { return k.raw, nil }

// Set stores the next reading
func (k *Knob) Set(raw uint16) { k.raw = raw }

// Knobs holds one Knob per analog input of a scenario
type Knobs map[rc.Input]*Knob

// NewKnobs returns centered knobs for every analog input s uses
func NewKnobs(s *Scenario) Knobs {
	k := make(Knobs)
	for _, in := range s.AnalogInputs() {
		k[in] = &Knob{raw: MaxADC / 2}
	}
	return k
}

// Readers returns the knobs as analog readers, for model.Options
func (k Knobs) Readers() map[rc.Input]rc.AnalogReader {
	m := make(map[rc.Input]rc.AnalogReader, len(k))
	for in, knob := range k {
		m[in] = knob
	}
	return m
}

// Tick is the state after one pipeline pass
type Tick struct {
	Time     time.Duration
	Step     int // index of the step applied on this tick, or -1
	Snapshot rc.Snapshot
}

// Mismatch is a failed expectation
type Mismatch struct {
	Step  int
	At    time.Duration
	Field string
	Got   int
	Want  int
}

func (m Mismatch) Error() string {
	return fmt.Sprintf("step %d at %s: %s = %d, want %d", m.Step, m.At, m.Field, m.Got, m.Want)
}

// Player drives a pipeline through a scenario
type Player struct {
	s     *Scenario
	p     *rc.Pipeline
	clock *rc.ManualClock
	knobs Knobs
	log   *log.Logger
}

// NewPlayer returns a player for s. The pipeline must have been built on
// clock, with knobs as its analog readers.
func NewPlayer(s *Scenario, p *rc.Pipeline, clock *rc.ManualClock, knobs Knobs, logger *log.Logger) *Player {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Player{s: s, p: p, clock: clock, knobs: knobs, log: logger}
}

// Run plays the scenario one period at a time until the last step has been
// applied. fn, if not nil, sees every tick; an error from fn stops the run.
func (pl *Player) Run(ctx context.Context, fn func(Tick) error) ([]Mismatch, error) {
	var (
		mismatches []Mismatch
		now        time.Duration
		next       int
	)
	bus := pl.p.Bus()
	pl.warnUnconnected(bus)

	for {
		if err := ctx.Err(); err != nil {
			return mismatches, err
		}

		applied := -1
		for next < len(pl.s.Steps) && pl.s.Steps[next].At <= now {
			pl.apply(bus, &pl.s.Steps[next])
			applied = next
			next++
		}

		pl.p.Run()

		if applied >= 0 {
			if exp := pl.s.Steps[applied].Expect; exp != nil {
				mismatches = append(mismatches, check(bus, exp, applied, now)...)
			}
			pl.log.Debug("step", "index", applied, "at", now)
		}
		if fn != nil {
			if err := fn(Tick{Time: now, Step: applied, Snapshot: bus.Snapshot()}); err != nil {
				return mismatches, err
			}
		}
		if next >= len(pl.s.Steps) {
			return mismatches, nil
		}

		now += pl.s.Period
		pl.clock.Advance(pl.s.Period)
	}
}

func (pl *Player) apply(bus *rc.SignalBus, st *Step) {
	for _, c := range st.channels {
		bus.SetInputChannel(c.ch, c.us)
	}
	for _, s := range st.switches {
		bus.SetSwitchState(s.sw, s.state)
	}
	for _, a := range st.analog {
		if k, ok := pl.knobs[a.in]; ok {
			k.Set(a.raw)
		}
	}
}

func (pl *Player) warnUnconnected(bus *rc.SignalBus) {
	warned := make(map[rc.Switch]bool)
	for _, st := range pl.s.Steps {
		for _, s := range st.switches {
			if bus.SwitchType(s.sw) == rc.SwitchTypeDisconnected && !warned[s.sw] {
				warned[s.sw] = true
				pl.log.Warn("scenario sets a switch the model does not declare", "switch", s.sw)
			}
		}
	}
}

func check(bus *rc.SignalBus, e *Expect, step int, at time.Duration) []Mismatch {
	var out []Mismatch
	miss := func(field string, got, want int) {
		d := got - want
		if d < 0 {
			d = -d
		}
		if d > e.Tolerance {
			out = append(out, Mismatch{Step: step, At: at, Field: field, Got: got, Want: want})
		}
	}
	for _, c := range e.channels {
		ch := rc.OutputChannel(c.ch)
		miss(ch.String(), int(bus.OutputChannel(ch)), int(c.us))
	}
	for _, i := range e.inputs {
		miss(i.in.String(), int(bus.Input(i.in)), int(i.v))
	}
	for _, o := range e.outputs {
		miss(o.out.String(), int(bus.Output(o.out)), int(o.v))
	}
	return out
}
