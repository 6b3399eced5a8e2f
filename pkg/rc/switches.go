// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package rc

// DigitalPin is a two level hardware input. *gpiocdev.Line satisfies it.
type DigitalPin interface {
	Value() (int, error)
}

// BiStateSwitch reads a two position (or momentary) switch from one pin
type BiStateSwitch struct {
	bus      *SignalBus
	port     SwitchPort
	pin      DigitalPin
	reversed bool
}

// NewBiStateSwitch returns a switch reading pin into destination
func NewBiStateSwitch(bus *SignalBus, pin DigitalPin, destination Switch, momentary, reversed bool) *BiStateSwitch {
	kind := SwitchTypeBiState
	if momentary {
		kind = SwitchTypeMomentary
	}
	s := &BiStateSwitch{bus: bus, pin: pin, reversed: reversed, port: SwitchPort{index: SwitchNone, kind: kind}}
	_ = s.port.set(bus, "switch", destination)
	return s
}

// SetReverse flips the switch direction
func (s *BiStateSwitch) SetReverse(reversed bool) { s.reversed = reversed }

// Reversed reports whether the switch direction is flipped
func (s *BiStateSwitch) Reversed() bool { return s.reversed }

// Destination returns the switch being written
func (s *BiStateSwitch) Destination() Switch { return s.port.index }

// Read samples the pin and stores the state. A pin read error reports
// Disconnected.
func (s *BiStateSwitch) Read() SwitchState {
	v, err := s.pin.Value()
	if err != nil {
		return s.port.write(s.bus, SwitchDisconnected)
	}
	high := v != 0
	if high == s.reversed {
		return s.port.write(s.bus, SwitchDown)
	}
	return s.port.write(s.bus, SwitchUp)
}

// Apply reads the switch
func (s *BiStateSwitch) Apply() { s.Read() }

// TriStateSwitch reads a three position switch from an up and a down pin
type TriStateSwitch struct {
	bus      *SignalBus
	port     SwitchPort
	up       DigitalPin
	down     DigitalPin
	reversed bool
}

// NewTriStateSwitch returns a switch reading up and down into destination
func NewTriStateSwitch(bus *SignalBus, up, down DigitalPin, destination Switch, reversed bool) *TriStateSwitch {
	s := &TriStateSwitch{bus: bus, up: up, down: down, reversed: reversed, port: SwitchPort{index: SwitchNone, kind: SwitchTypeTriState}}
	_ = s.port.set(bus, "switch", destination)
	return s
}

// SetReverse flips the switch direction
func (s *TriStateSwitch) SetReverse(reversed bool) { s.reversed = reversed }

// Reversed reports whether the switch direction is flipped
func (s *TriStateSwitch) Reversed() bool { return s.reversed }

// Destination returns the switch being written
func (s *TriStateSwitch) Destination() Switch { return s.port.index }

// Read samples both pins and stores the state. Equal pins mean center.
func (s *TriStateSwitch) Read() SwitchState {
	u, err := s.up.Value()
	if err != nil {
		return s.port.write(s.bus, SwitchDisconnected)
	}
	d, err := s.down.Value()
	if err != nil {
		return s.port.write(s.bus, SwitchDisconnected)
	}
	up, down := u != 0, d != 0
	switch {
	case up == down:
		return s.port.write(s.bus, SwitchCenter)
	case up == s.reversed:
		return s.port.write(s.bus, SwitchDown)
	default:
		return s.port.write(s.bus, SwitchUp)
	}
}

// Apply reads the switch
func (s *TriStateSwitch) Apply() { s.Read() }

// InputSwitch derives a switch from an analog input crossing a mark.
//
// In normal mode the switch goes up at mark+deadband and down below
// mark-deadband; values in between keep the previous state. Mirrored mode
// tests |value| instead. Ranged mode is up while the value lies between the
// second mark and the first.
type InputSwitch struct {
	bus  *SignalBus
	src  InputPort
	port SwitchPort

	mark     int16
	mark2    int16
	deadband uint8
	reversed bool
	mirrored bool
	ranged   bool
}

// NewInputSwitch returns a bi-state switch driven by source
func NewInputSwitch(bus *SignalBus, source Input, destination Switch) *InputSwitch {
	s := &InputSwitch{
		bus:   bus,
		src:   InputPort{index: source},
		port:  SwitchPort{index: SwitchNone, kind: SwitchTypeBiState},
		mark2: -1,
	}
	_ = s.port.set(bus, "switch", destination)
	return s
}

// SetSource selects the input to read
func (s *InputSwitch) SetSource(i Input) error { return s.src.set("input switch source", i) }

// Source returns the input being read
func (s *InputSwitch) Source() Input { return s.src.index }

// SetDestination selects the switch to write
func (s *InputSwitch) SetDestination(sw Switch) error {
	return s.port.set(s.bus, "input switch destination", sw)
}

// Destination returns the switch being written
func (s *InputSwitch) Destination() Switch { return s.port.index }

// SetMark sets the switching point, [-256, 256]
func (s *InputSwitch) SetMark(mark int16) error {
	if err := checkRange("mark", int(mark), NormalMin, NormalMax); err != nil {
		return err
	}
	s.mark = mark
	return nil
}

// Mark returns the switching point
func (s *InputSwitch) Mark() int16 { return s.mark }

// SetMark2 sets the second mark used in ranged mode, [-256, 256]. If it lies
// above the first mark the two are swapped so that mark2 <= mark.
func (s *InputSwitch) SetMark2(mark int16) error {
	if err := checkRange("mark 2", int(mark), NormalMin, NormalMax); err != nil {
		return err
	}
	if mark > s.mark {
		s.mark2 = s.mark
		s.mark = mark
	} else {
		s.mark2 = mark
	}
	return nil
}

// Mark2 returns the second mark
func (s *InputSwitch) Mark2() int16 { return s.mark2 }

// SetDeadBand sets the hysteresis around the mark
func (s *InputSwitch) SetDeadBand(band uint8) { s.deadband = band }

// DeadBand returns the hysteresis around the mark
func (s *InputSwitch) DeadBand() uint8 { return s.deadband }

// SetReversed flips the switch direction
func (s *InputSwitch) SetReversed(reversed bool) { s.reversed = reversed }

// Reversed reports whether the switch direction is flipped
func (s *InputSwitch) Reversed() bool { return s.reversed }

// SetMirrored makes the switch react to the magnitude of the input
func (s *InputSwitch) SetMirrored(mirrored bool) { s.mirrored = mirrored }

// Mirrored reports whether the switch reacts to the magnitude of the input
func (s *InputSwitch) Mirrored() bool { return s.mirrored }

// SetRanged switches between mark-crossing and range-window modes
func (s *InputSwitch) SetRanged(ranged bool) { s.ranged = ranged }

// Ranged reports whether range-window mode is on
func (s *InputSwitch) Ranged() bool { return s.ranged }

// ReadValue derives and stores the switch state for value
func (s *InputSwitch) ReadValue(value int16) SwitchState {
	prev := s.bus.SwitchState(s.port.index)
	v := int32(value)
	mark, mark2, dead := int32(s.mark), int32(s.mark2), int32(s.deadband)

	if s.ranged {
		in := v <= mark && v >= mark2
		if s.mirrored {
			in = in || (v >= -mark && v <= -mark2)
		}
		return s.write(in)
	}

	if s.mirrored {
		if v >= mark+dead || v <= -(mark+dead) {
			return s.write(true)
		}
		if v <= mark-dead && v >= -(mark-dead) {
			return s.write(false)
		}
	} else {
		if v >= mark+dead {
			return s.write(true)
		}
		if v < mark-dead {
			return s.write(false)
		}
	}
	return s.port.write(s.bus, prev)
}

// Read derives the switch state from the source input
func (s *InputSwitch) Read() SwitchState {
	if !s.src.Connected() {
		return s.port.write(s.bus, SwitchDisconnected)
	}
	return s.ReadValue(s.src.read(s.bus))
}

// Apply reads the switch
func (s *InputSwitch) Apply() { s.Read() }

func (s *InputSwitch) write(up bool) SwitchState {
	if up == s.reversed {
		return s.port.write(s.bus, SwitchDown)
	}
	return s.port.write(s.bus, SwitchUp)
}

// AnalogSwitch turns a switch into an input that slides between -256 (down),
// 0 (center) and 256 (up) over a configurable duration.
type AnalogSwitch struct {
	bus   *SignalBus
	gate  SwitchGate
	dst   InputPort
	timer ticker

	duration uint16
	time     int32
	settled  bool
}

// NewAnalogSwitch returns an instant analog switch reading source into destination
func NewAnalogSwitch(bus *SignalBus, clock Clock, source Switch, destination Input) *AnalogSwitch {
	return &AnalogSwitch{
		bus:   bus,
		gate:  SwitchGate{source: source, active: SwitchDisconnected},
		dst:   InputPort{index: destination},
		timer: newTicker(clock),
	}
}

// SetDuration sets the time in ms to travel from down to up, [0, 10000].
// The position jumps to the current switch state.
func (a *AnalogSwitch) SetDuration(ms uint16) error {
	if err := checkRange("analog switch duration", int(ms), 0, 10000); err != nil {
		return err
	}
	a.duration = ms
	a.settled = false
	a.Apply()
	return nil
}

// Duration returns the travel time in ms
func (a *AnalogSwitch) Duration() uint16 { return a.duration }

// SetSource selects the switch to follow
func (a *AnalogSwitch) SetSource(s Switch) error { return a.gate.set(s, SwitchDisconnected) }

// Source returns the switch being followed
func (a *AnalogSwitch) Source() Switch { return a.gate.source }

// Destination returns the input being written
func (a *AnalogSwitch) Destination() Input { return a.dst.index }

// Update moves toward the position of state and writes the result
func (a *AnalogSwitch) Update(state SwitchState) int16 {
	var target int32
	var instant int16
	switch state {
	case SwitchUp:
		target, instant = int32(a.duration), NormalMax
	case SwitchCenter:
		target, instant = int32(a.duration/2), 0
	case SwitchDown:
		target, instant = 0, NormalMin
	default:
		return a.dst.write(a.bus, 0)
	}

	delta := a.timer.elapsed()
	if a.duration == 0 || !a.settled {
		a.time = target
		a.settled = true
		return a.dst.write(a.bus, instant)
	}

	if a.time < target {
		a.time += delta
		if a.time > target {
			a.time = target
		}
	} else {
		a.time -= delta
		if a.time < target {
			a.time = target
		}
	}
	return a.dst.write(a.bus, RangeToNormalized(uint16(a.time), a.duration))
}

// Apply follows the source switch
func (a *AnalogSwitch) Apply() {
	a.Update(a.bus.SwitchState(a.gate.source))
}

// SwitchToggler turns a momentary switch into a latching one: every time the
// switch enters the toggle state the output flips between Up and Down.
type SwitchToggler struct {
	bus    *SignalBus
	index  Switch
	toggle SwitchState
	last   SwitchState
	state  SwitchState
}

// NewSwitchToggler returns a toggler rewriting index in place
func NewSwitchToggler(bus *SignalBus, toggle SwitchState, index Switch) *SwitchToggler {
	return &SwitchToggler{bus: bus, index: index, toggle: toggle, last: toggle, state: toggle}
}

// SetToggleState sets the state that triggers a flip and resets the toggler
func (t *SwitchToggler) SetToggleState(state SwitchState) error {
	if state >= SwitchStateCount {
		return &RangeError{Param: "toggle state", Value: int(state), Min: 0, Max: int(SwitchStateCount) - 1}
	}
	t.toggle, t.last, t.state = state, state, state
	return nil
}

// ToggleState returns the state that triggers a flip
func (t *SwitchToggler) ToggleState() SwitchState { return t.toggle }

// Process feeds one switch reading and returns the latched state
func (t *SwitchToggler) Process(state SwitchState) SwitchState {
	if state != t.last {
		t.last = state
		if state == t.toggle {
			if t.state == SwitchUp {
				t.state = SwitchDown
			} else {
				t.state = SwitchUp
			}
		}
	}
	return t.state
}

// Apply replaces the switch reading with the latched state
func (t *SwitchToggler) Apply() {
	if t.index < 0 || t.index >= SwitchCount {
		return
	}
	t.bus.SetSwitchState(t.index, t.Process(t.bus.SwitchState(t.index)))
}
