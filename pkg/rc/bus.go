// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package rc

// SignalBus holds the value stores shared by the stages of a pipeline.
//
// Indices are value identities. Writes to a None (or otherwise invalid) index
// are dropped and reads from one return the zero value, so a stage whose port
// is unconnected needs no special casing.
type SignalBus struct {
	timing Timing

	inputs         [InputCount]int16
	outputs        [OutputCount]int16
	inputChannels  [MaxChannels]uint16
	outputChannels [MaxChannels]uint16
	switchStates   [SwitchCount]SwitchState
	switchTypes    [SwitchCount]SwitchType
}

// NewSignalBus returns a bus using the given pulse width mapping. Channels
// start centered and every switch starts Disconnected.
func NewSignalBus(timing Timing) *SignalBus {
	b := &SignalBus{timing: timing}
	for i := range b.inputChannels {
		b.inputChannels[i] = timing.center
		b.outputChannels[i] = timing.center
	}
	for i := range b.switchStates {
		b.switchStates[i] = SwitchDisconnected
	}
	return b
}

// Timing returns the pulse width mapping of the bus
func (b *SignalBus) Timing() Timing {
	return b.timing
}

// SetTiming replaces the pulse width mapping
func (b *SignalBus) SetTiming(t Timing) {
	b.timing = t
}

// MicrosToNormalized converts with the bus timing
func (b *SignalBus) MicrosToNormalized(us uint16) int16 {
	return b.timing.MicrosToNormalized(us)
}

// NormalizedToMicros converts with the bus timing
func (b *SignalBus) NormalizedToMicros(n int16) uint16 {
	return b.timing.NormalizedToMicros(n)
}

// Input returns the value of an input, 0 for InputNone
func (b *SignalBus) Input(i Input) int16 {
	if i < 0 || i >= InputCount {
		return 0
	}
	return b.inputs[i]
}

// SetInput stores an input value in the extended range
func (b *SignalBus) SetInput(i Input, v int16) {
	if i < 0 || i >= InputCount {
		return
	}
	b.inputs[i] = Clamp140(v)
}

// Output returns the value of an output, 0 for OutputNone
func (b *SignalBus) Output(o Output) int16 {
	if o < 0 || o >= OutputCount {
		return 0
	}
	return b.outputs[o]
}

// SetOutput stores an output value. OutMax and OutMin are kept as is, all
// other values are limited to the extended range.
func (b *SignalBus) SetOutput(o Output, v int16) {
	if o < 0 || o >= OutputCount {
		return
	}
	if v != OutMax && v != OutMin {
		v = Clamp140(v)
	}
	b.outputs[o] = v
}

// InputChannel returns a received pulse width, or the center pulse width for
// InputChannelNone.
func (b *SignalBus) InputChannel(c InputChannel) uint16 {
	if c < 0 || c >= MaxChannels {
		return b.timing.center
	}
	return b.inputChannels[c]
}

// SetInputChannel stores a received pulse width
func (b *SignalBus) SetInputChannel(c InputChannel, us uint16) {
	if c < 0 || c >= MaxChannels {
		return
	}
	b.inputChannels[c] = us
}

// OutputChannel returns a pulse width to transmit
func (b *SignalBus) OutputChannel(c OutputChannel) uint16 {
	if c < 0 || c >= MaxChannels {
		return b.timing.center
	}
	return b.outputChannels[c]
}

// SetOutputChannel stores a pulse width to transmit
func (b *SignalBus) SetOutputChannel(c OutputChannel, us uint16) {
	if c < 0 || c >= MaxChannels {
		return
	}
	b.outputChannels[c] = us
}

// SwitchState returns the state of a switch. A switch of type Disconnected
// always reads Disconnected.
func (b *SignalBus) SwitchState(s Switch) SwitchState {
	if s < 0 || s >= SwitchCount || b.switchTypes[s] == SwitchTypeDisconnected {
		return SwitchDisconnected
	}
	return b.switchStates[s]
}

// SetSwitchState stores the state of a switch
func (b *SignalBus) SetSwitchState(s Switch, state SwitchState) {
	if s < 0 || s >= SwitchCount || state >= SwitchStateCount {
		return
	}
	b.switchStates[s] = state
}

// SwitchType returns the type of a switch
func (b *SignalBus) SwitchType(s Switch) SwitchType {
	if s < 0 || s >= SwitchCount {
		return SwitchTypeDisconnected
	}
	return b.switchTypes[s]
}

// SetSwitchType stores the type of a switch
func (b *SignalBus) SetSwitchType(s Switch, t SwitchType) {
	if s < 0 || s >= SwitchCount || t >= SwitchTypeCount {
		return
	}
	b.switchTypes[s] = t
}
