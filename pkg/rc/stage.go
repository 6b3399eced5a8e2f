// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package rc

import "fmt"

// Stage is one step of an update pass. Apply reads the bus, transforms, and
// writes the result back to the bus.
type Stage interface {
	Apply()
}

// StageFunc adapts a function to the Stage interface
type StageFunc func()

// Apply calls f
func (f StageFunc) Apply() { f() }

type namedStage struct {
	name  string
	stage Stage
}

// Pipeline is an ordered list of stages sharing one bus. Stages only see
// values written by stages that come before them in the list.
type Pipeline struct {
	bus    *SignalBus
	stages []namedStage
}

// NewPipeline returns an empty pipeline over bus
func NewPipeline(bus *SignalBus) *Pipeline {
	return &Pipeline{bus: bus}
}

// Bus returns the bus the pipeline runs on
func (p *Pipeline) Bus() *SignalBus {
	return p.bus
}

// Add appends a stage and returns the pipeline for chaining
func (p *Pipeline) Add(name string, s Stage) *Pipeline {
	p.stages = append(p.stages, namedStage{name: name, stage: s})
	return p
}

// Len returns the number of stages
func (p *Pipeline) Len() int {
	return len(p.stages)
}

// Names returns the stage names in execution order
func (p *Pipeline) Names() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.name
	}
	return names
}

// Stage returns the stage registered under name
func (p *Pipeline) Stage(name string) (Stage, bool) {
	for _, s := range p.stages {
		if s.name == name {
			return s.stage, true
		}
	}
	return nil, false
}

// Run executes one update pass
func (p *Pipeline) Run() {
	for _, s := range p.stages {
		s.stage.Apply()
	}
}

// ============================================================================
// Ports
// ============================================================================

// InputPort addresses one slot of the input store
type InputPort struct {
	index Input
}

// Index returns the connected input
func (p InputPort) Index() Input { return p.index }

// Connected reports whether the port points at a real input
func (p InputPort) Connected() bool { return p.index != InputNone }

func (p *InputPort) set(param string, i Input) error {
	if i != InputNone && (i < 0 || i >= InputCount) {
		return &RangeError{Param: param, Value: int(i), Min: -1, Max: int(InputCount) - 1}
	}
	p.index = i
	return nil
}

func (p InputPort) read(b *SignalBus) int16 { return b.Input(p.index) }

func (p InputPort) write(b *SignalBus, v int16) int16 {
	b.SetInput(p.index, v)
	return v
}

// OutputPort addresses one slot of the output store
type OutputPort struct {
	index Output
}

// Index returns the connected output
func (p OutputPort) Index() Output { return p.index }

// Connected reports whether the port points at a real output
func (p OutputPort) Connected() bool { return p.index != OutputNone }

func (p *OutputPort) set(param string, o Output) error {
	if o != OutputNone && (o < 0 || o >= OutputCount) {
		return &RangeError{Param: param, Value: int(o), Min: -1, Max: int(OutputCount) - 1}
	}
	p.index = o
	return nil
}

func (p OutputPort) read(b *SignalBus) int16 { return b.Output(p.index) }

func (p OutputPort) write(b *SignalBus, v int16) int16 {
	b.SetOutput(p.index, v)
	return v
}

// InputChannelPort addresses one received channel
type InputChannelPort struct {
	index InputChannel
}

// Index returns the connected channel
func (p InputChannelPort) Index() InputChannel { return p.index }

// Connected reports whether the port points at a real channel
func (p InputChannelPort) Connected() bool { return p.index != InputChannelNone }

func (p *InputChannelPort) set(param string, c InputChannel) error {
	if c != InputChannelNone && (c < 0 || c >= MaxChannels) {
		return &RangeError{Param: param, Value: int(c), Min: -1, Max: MaxChannels - 1}
	}
	p.index = c
	return nil
}

// OutputChannelPort addresses one transmitted channel
type OutputChannelPort struct {
	index OutputChannel
}

// Index returns the connected channel
func (p OutputChannelPort) Index() OutputChannel { return p.index }

// Connected reports whether the port points at a real channel
func (p OutputChannelPort) Connected() bool { return p.index != OutputChannelNone }

func (p *OutputChannelPort) set(param string, c OutputChannel) error {
	if c != OutputChannelNone && (c < 0 || c >= MaxChannels) {
		return &RangeError{Param: param, Value: int(c), Min: -1, Max: MaxChannels - 1}
	}
	p.index = c
	return nil
}

// SwitchPort is a switch written by a stage. Connecting it stamps the
// port's switch type onto the bus.
type SwitchPort struct {
	index Switch
	kind  SwitchType
}

// Index returns the connected switch
func (p SwitchPort) Index() Switch { return p.index }

// Type returns the switch type the port reports
func (p SwitchPort) Type() SwitchType { return p.kind }

func (p *SwitchPort) set(b *SignalBus, param string, s Switch) error {
	if err := validSwitch(param, s); err != nil {
		return err
	}
	p.index = s
	b.SetSwitchType(s, p.kind)
	return nil
}

func (p *SwitchPort) setType(b *SignalBus, t SwitchType) {
	p.kind = t
	b.SetSwitchType(p.index, t)
}

func (p SwitchPort) write(b *SignalBus, state SwitchState) SwitchState {
	b.SetSwitchState(p.index, state)
	return state
}

// SwitchGate enables a stage while a switch is in a given state
type SwitchGate struct {
	source Switch
	active SwitchState
}

// Source returns the gating switch
func (g SwitchGate) Source() Switch { return g.source }

// ActiveState returns the state that opens the gate
func (g SwitchGate) ActiveState() SwitchState { return g.active }

// Active reports whether the gate is open. An unconnected gate is closed;
// an active state of Disconnected opens the gate whatever the switch reads.
func (g SwitchGate) Active(b *SignalBus) bool {
	return g.source != SwitchNone &&
		(g.active == SwitchDisconnected || b.SwitchState(g.source) == g.active)
}

// NewSwitchGate returns a gate open while s reads state. SwitchNone gives
// a gate that never opens.
func NewSwitchGate(s Switch, state SwitchState) (SwitchGate, error) {
	g := SwitchGate{source: SwitchNone}
	err := g.set(s, state)
	return g, err
}

func (g *SwitchGate) set(s Switch, state SwitchState) error {
	if err := validSwitch("switch", s); err != nil {
		return err
	}
	if state >= SwitchStateCount {
		return &RangeError{Param: "switch state", Value: int(state), Min: 0, Max: int(SwitchStateCount) - 1}
	}
	g.source = s
	g.active = state
	return nil
}

func validSwitch(param string, s Switch) error {
	if s != SwitchNone && (s < 0 || s >= SwitchCount) {
		return &RangeError{Param: param, Value: int(s), Min: -1, Max: int(SwitchCount) - 1}
	}
	return nil
}

// String renders a gate as "A=Up"
func (g SwitchGate) String() string {
	if g.source == SwitchNone {
		return "none"
	}
	return fmt.Sprintf("%s=%s", g.source, g.active)
}
