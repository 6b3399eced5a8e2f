// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package rc

// InputChannelToInput converts a received pulse width into an input
type InputChannelToInput struct {
	bus *SignalBus
	src InputChannelPort
	dst InputPort
}

// NewInputChannelToInput returns a pipe from source to destination
func NewInputChannelToInput(bus *SignalBus, source InputChannel, destination Input) *InputChannelToInput {
	return &InputChannelToInput{bus: bus, src: InputChannelPort{index: source}, dst: InputPort{index: destination}}
}

// Apply copies the converted value
func (p *InputChannelToInput) Apply() {
	if !p.src.Connected() {
		return
	}
	p.dst.write(p.bus, p.bus.MicrosToNormalized(p.bus.InputChannel(p.src.index)))
}

// InputToOutput copies an input into an output
type InputToOutput struct {
	bus *SignalBus
	src InputPort
	dst OutputPort
}

// NewInputToOutput returns a pipe from source to destination
func NewInputToOutput(bus *SignalBus, source Input, destination Output) *InputToOutput {
	return &InputToOutput{bus: bus, src: InputPort{index: source}, dst: OutputPort{index: destination}}
}

// Apply copies the value
func (p *InputToOutput) Apply() {
	if !p.src.Connected() {
		return
	}
	p.dst.write(p.bus, p.src.read(p.bus))
}

// OutputToOutputChannel converts an output to a pulse width without any
// endpoint, trim or reverse handling. Channel does the full conversion.
type OutputToOutputChannel struct {
	bus *SignalBus
	src OutputPort
	dst OutputChannelPort
}

// NewOutputToOutputChannel returns a pipe from source to destination
func NewOutputToOutputChannel(bus *SignalBus, source Output, destination OutputChannel) *OutputToOutputChannel {
	return &OutputToOutputChannel{bus: bus, src: OutputPort{index: source}, dst: OutputChannelPort{index: destination}}
}

// Apply copies the converted value
func (p *OutputToOutputChannel) Apply() {
	if !p.src.Connected() {
		return
	}
	p.bus.SetOutputChannel(p.dst.index, p.bus.NormalizedToMicros(sentinelToNormalized(p.src.read(p.bus))))
}

// sentinelToNormalized maps OutMax and OutMin onto the normalized extremes
func sentinelToNormalized(v int16) int16 {
	switch v {
	case OutMax:
		return NormalMax
	case OutMin:
		return NormalMin
	}
	return v
}

// InputToInputMix mixes one input into another. Without a source only the
// offset is applied.
type InputToInputMix struct {
	MixBase

	bus *SignalBus
	src InputPort
	dst InputPort
}

// NewInputToInputMix returns a mix of source into destination
func NewInputToInputMix(bus *SignalBus, mix MixBase, source, destination Input) *InputToInputMix {
	return &InputToInputMix{MixBase: mix, bus: bus, src: InputPort{index: source}, dst: InputPort{index: destination}}
}

// Source returns the master input
func (m *InputToInputMix) Source() Input { return m.src.index }

// Destination returns the slave input
func (m *InputToInputMix) Destination() Input { return m.dst.index }

// Apply mixes the master into the slave
func (m *InputToInputMix) Apply() {
	if !m.dst.Connected() {
		return
	}
	slave := m.dst.read(m.bus)
	if m.src.Connected() {
		m.dst.write(m.bus, m.ApplyMix(m.src.read(m.bus), slave))
		return
	}
	m.dst.write(m.bus, m.ApplyOffsetMix(slave))
}

// OutputToOutputMix mixes one output into another. Without a source only the
// offset is applied.
type OutputToOutputMix struct {
	MixBase

	bus *SignalBus
	src OutputPort
	dst OutputPort
}

// NewOutputToOutputMix returns a mix of source into destination
func NewOutputToOutputMix(bus *SignalBus, mix MixBase, source, destination Output) *OutputToOutputMix {
	return &OutputToOutputMix{MixBase: mix, bus: bus, src: OutputPort{index: source}, dst: OutputPort{index: destination}}
}

// Source returns the master output
func (m *OutputToOutputMix) Source() Output { return m.src.index }

// Destination returns the slave output
func (m *OutputToOutputMix) Destination() Output { return m.dst.index }

// Apply mixes the master into the slave
func (m *OutputToOutputMix) Apply() {
	if !m.dst.Connected() {
		return
	}
	slave := m.dst.read(m.bus)
	if m.src.Connected() {
		m.dst.write(m.bus, m.ApplyMix(m.src.read(m.bus), slave))
		return
	}
	m.dst.write(m.bus, m.ApplyOffsetMix(slave))
}
