// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package rc

// Engine drives a throttle output from the THR input with an idle floor,
// a throttle cut switch and an optional rudder to throttle mix.
type Engine struct {
	ThrottleMixBase

	bus    *SignalBus
	src    InputPort
	dst    OutputPort
	cut    SwitchGate
	idle   int16
	rudMix int8
}

// NewEngine returns an engine writing destination, cut while s reads state
func NewEngine(bus *SignalBus, destination Output, s Switch, state SwitchState) *Engine {
	return &Engine{
		bus:  bus,
		src:  InputPort{index: InputTHR},
		dst:  OutputPort{index: destination},
		cut:  SwitchGate{source: s, active: state},
		idle: NormalMin,
	}
}

// SetRudderMix sets the rudder to throttle mix for both directions, [-100, 100]
func (e *Engine) SetRudderMix(v int8) error {
	if err := e.SetPosMix(v); err != nil {
		return err
	}
	e.negMix = v
	e.rudMix = v
	return nil
}

// RudderMix returns the rudder to throttle mix
func (e *Engine) RudderMix() int8 { return e.rudMix }

// SetIdle sets the lowest throttle while not cut, [-256, 256]
func (e *Engine) SetIdle(v int16) error {
	if err := checkRange("idle", int(v), NormalMin, NormalMax); err != nil {
		return err
	}
	e.idle = v
	return nil
}

// Idle returns the lowest throttle while not cut
func (e *Engine) Idle() int16 { return e.idle }

// SetCutSwitch changes the throttle cut switch
func (e *Engine) SetCutSwitch(s Switch, state SwitchState) error { return e.cut.set(s, state) }

// CutSwitch returns the throttle cut gate
func (e *Engine) CutSwitch() SwitchGate { return e.cut }

// SetDestination selects the output to write
func (e *Engine) SetDestination(o Output) error { return e.dst.set("engine destination", o) }

// Destination returns the output being written
func (e *Engine) Destination() Output { return e.dst.index }

// Process returns the engine throttle. A cut engine returns -256 whatever
// the idle setting.
func (e *Engine) Process(thr, rud int16, cut bool) int16 {
	if cut {
		return NormalMin
	}
	v := e.ApplyThrottleMix(rud, thr)
	if v < e.idle {
		return e.idle
	}
	return v
}

// Apply writes the engine throttle output
func (e *Engine) Apply() {
	b := e.bus
	e.dst.write(b, e.Process(e.src.read(b), b.Input(InputRUD), e.cut.Active(b)))
}

// Governor sets a head speed governor from a three position switch. Each
// position maps to a rate in [0, 100] percent; 50 is neutral. Throttle hold
// overrides the switch.
type Governor struct {
	bus  *SignalBus
	gate SwitchGate
	dst  OutputPort
	hold SwitchGate

	rates         [3]uint8 // by SwitchUp, SwitchCenter, SwitchDown
	holdDirection bool
}

// NewGovernor returns a governor reading s and writing destination, with
// rates down 0, center 50 and up 100.
func NewGovernor(bus *SignalBus, s Switch, destination Output) *Governor {
	g := &Governor{
		bus:  bus,
		gate: SwitchGate{source: s, active: SwitchDisconnected},
		dst:  OutputPort{index: destination},
		hold: SwitchGate{source: SwitchNone, active: SwitchDown},
	}
	g.rates[SwitchDown] = 0
	g.rates[SwitchCenter] = 50
	g.rates[SwitchUp] = 100
	return g
}

func (g *Governor) setRate(state SwitchState, v uint8) error {
	if err := checkRange("governor "+state.String()+" rate", int(v), 0, 100); err != nil {
		return err
	}
	g.rates[state] = v
	return nil
}

// SetDownRate sets the rate for the down position, [0, 100]
func (g *Governor) SetDownRate(v uint8) error { return g.setRate(SwitchDown, v) }

// DownRate returns the rate for the down position
func (g *Governor) DownRate() uint8 { return g.rates[SwitchDown] }

// SetCenterRate sets the rate for the center position, [0, 100]
func (g *Governor) SetCenterRate(v uint8) error { return g.setRate(SwitchCenter, v) }

// CenterRate returns the rate for the center position
func (g *Governor) CenterRate() uint8 { return g.rates[SwitchCenter] }

// SetUpRate sets the rate for the up position, [0, 100]
func (g *Governor) SetUpRate(v uint8) error { return g.setRate(SwitchUp, v) }

// UpRate returns the rate for the up position
func (g *Governor) UpRate() uint8 { return g.rates[SwitchUp] }

// SetHoldDirection selects OutMax (true) or OutMin (false) during hold
func (g *Governor) SetHoldDirection(positive bool) { g.holdDirection = positive }

// HoldDirection reports whether hold forces OutMax
func (g *Governor) HoldDirection() bool { return g.holdDirection }

// SetHold follows the switch of a throttle hold stage
func (g *Governor) SetHold(h *ThrottleHold) {
	g.hold = h.Gate()
}

// DisableHold stops following throttle hold
func (g *Governor) DisableHold() {
	g.hold.source = SwitchNone
}

// Process returns the governor output for a switch state
func (g *Governor) Process(state SwitchState, hold bool) int16 {
	if hold {
		if g.holdDirection {
			return OutMax
		}
		return OutMin
	}
	if state >= SwitchDisconnected {
		return 0
	}
	rate := (int8(g.rates[state]) - 50) * 2
	return Mix(NormalMax, rate)
}

// Apply writes the governor output. A governor without a switch writes nothing.
func (g *Governor) Apply() {
	if g.gate.source == SwitchNone {
		return
	}
	g.dst.write(g.bus, g.Process(g.bus.SwitchState(g.gate.source), g.hold.Active(g.bus)))
}
