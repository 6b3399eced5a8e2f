// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package rc

// DualRates scales an input by a percentage in [0, 140]
type DualRates struct {
	bus  *SignalBus
	port InputPort
	rate uint8
}

// NewDualRates returns a 100% rate modifying index
func NewDualRates(bus *SignalBus, index Input) *DualRates {
	return &DualRates{bus: bus, port: InputPort{index: index}, rate: 100}
}

// SetRate sets the rate, [0, 140]
func (d *DualRates) SetRate(rate uint8) error {
	if err := checkRange("dual rate", int(rate), 0, 140); err != nil {
		return err
	}
	d.rate = rate
	return nil
}

// Rate returns the rate
func (d *DualRates) Rate() uint8 { return d.rate }

// SetIndex selects the input to modify
func (d *DualRates) SetIndex(i Input) error { return d.port.set("dual rates input", i) }

// Index returns the input being modified
func (d *DualRates) Index() Input { return d.port.index }

// Process scales v by the rate
func (d *DualRates) Process(v int16) int16 {
	out := int32(abs16(v)) * int32(d.rate) / 100
	if v < 0 {
		out = -out
	}
	return clamp32(out, Normal140Min, Normal140Max)
}

// Apply scales the configured input
func (d *DualRates) Apply() {
	if !d.port.Connected() {
		return
	}
	d.port.write(d.bus, d.Process(d.port.read(d.bus)))
}

// Offset adds a fixed trim to an input while its switch gate is open. An
// offset without a switch applies unconditionally.
type Offset struct {
	bus    *SignalBus
	port   InputPort
	gate   SwitchGate
	offset int8
}

// NewOffset returns a zero offset modifying index
func NewOffset(bus *SignalBus, index Input) *Offset {
	return &Offset{
		bus:  bus,
		port: InputPort{index: index},
		gate: SwitchGate{source: SwitchNone, active: SwitchUp},
	}
}

// SetOffset sets the offset, [-100, 100]
func (o *Offset) SetOffset(offset int8) error {
	if err := checkRange("offset", int(offset), RateMin, RateMax); err != nil {
		return err
	}
	o.offset = offset
	return nil
}

// Offset returns the offset
func (o *Offset) Offset() int8 { return o.offset }

// SetIndex selects the input to modify
func (o *Offset) SetIndex(i Input) error { return o.port.set("offset input", i) }

// Index returns the input being modified
func (o *Offset) Index() Input { return o.port.index }

// SetSwitch gates the offset on a switch state
func (o *Offset) SetSwitch(s Switch, state SwitchState) error { return o.gate.set(s, state) }

// Gate returns the switch gate
func (o *Offset) Gate() SwitchGate { return o.gate }

// Process adds the offset to v
func (o *Offset) Process(v int16) int16 {
	return clamp32(int32(v)+int32(o.offset), NormalMin, NormalMax)
}

// Apply offsets the configured input when enabled
func (o *Offset) Apply() {
	if !o.port.Connected() {
		return
	}
	if o.gate.source != SwitchNone && !o.gate.Active(o.bus) {
		return
	}
	o.port.write(o.bus, o.Process(o.port.read(o.bus)))
}

// ThrottleHold forces the throttle input to a fixed value while its switch
// gate is open.
type ThrottleHold struct {
	bus      *SignalBus
	port     InputPort
	gate     SwitchGate
	throttle int16
}

// NewThrottleHold returns a hold at -256 gated on s reading state
func NewThrottleHold(bus *SignalBus, s Switch, state SwitchState) *ThrottleHold {
	return &ThrottleHold{
		bus:      bus,
		port:     InputPort{index: InputTHR},
		gate:     SwitchGate{source: s, active: state},
		throttle: NormalMin,
	}
}

// SetThrottle sets the held throttle, [-256, 256]
func (h *ThrottleHold) SetThrottle(v int16) error {
	if err := checkRange("hold throttle", int(v), NormalMin, NormalMax); err != nil {
		return err
	}
	h.throttle = v
	return nil
}

// Throttle returns the held throttle
func (h *ThrottleHold) Throttle() int16 { return h.throttle }

// SetSwitch changes the gating switch
func (h *ThrottleHold) SetSwitch(s Switch, state SwitchState) error { return h.gate.set(s, state) }

// Gate returns the switch gate
func (h *ThrottleHold) Gate() SwitchGate { return h.gate }

// Process returns the held throttle when enabled, throttle otherwise
func (h *ThrottleHold) Process(enabled bool, throttle int16) int16 {
	if enabled {
		return h.throttle
	}
	return throttle
}

// Active reports whether the hold is engaged
func (h *ThrottleHold) Active() bool {
	return h.gate.Active(h.bus)
}

// Apply holds the throttle input when the gate is open
func (h *ThrottleHold) Apply() {
	h.port.write(h.bus, h.Process(h.Active(), h.port.read(h.bus)))
}
