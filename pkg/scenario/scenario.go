// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package scenario replays scripted stick, switch and ADC inputs through a
// pipeline on a manual clock.
//
// A scenario file is YAML:
//
//	name: takeoff
//	period: 20ms
//	steps:
//	  - at: 0s
//	    channels: {3: 1100}
//	    switches: {A: Up}
//	  - at: 2s
//	    channels: {3: 1900}
//	    analog: {AIL: 1023}
//	    expect:
//	      channels: {3: 1900}
//	      tolerance: 2
//
// Channel numbers are one based. Values persist until a later step changes
// them.
package scenario

import (
	"cmp"
	"fmt"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Thermoquad/zenith/pkg/rc"
)

// DefaultPeriod is the update period when a scenario gives none
const DefaultPeriod = 20 * time.Millisecond

// MaxADC is the largest raw analog reading
const MaxADC = 1023

// Scenario is a timed list of input changes
type Scenario struct {
	Name   string        `yaml:"name"`
	Period time.Duration `yaml:"period"`
	Steps  []Step        `yaml:"steps"`
}

// Step sets inputs at a point in time and optionally checks the result of
// the first pipeline pass after it.
type Step struct {
	At       time.Duration     `yaml:"at"`
	Channels map[int]uint16    `yaml:"channels"`
	Switches map[string]string `yaml:"switches"`
	Analog   map[string]uint16 `yaml:"analog"`
	Expect   *Expect           `yaml:"expect"`

	channels []channelValue
	switches []switchValue
	analog   []analogValue
}

// Expect lists bus values a step must produce
type Expect struct {
	Channels  map[int]uint16   `yaml:"channels"`
	Inputs    map[string]int16 `yaml:"inputs"`
	Outputs   map[string]int16 `yaml:"outputs"`
	Tolerance int              `yaml:"tolerance"`

	channels []channelValue
	inputs   []inputValue
	outputs  []outputValue
}

type channelValue struct {
	ch rc.InputChannel
	us uint16
}

type switchValue struct {
	sw    rc.Switch
	state rc.SwitchState
}

type analogValue struct {
	in  rc.Input
	raw uint16
}

type inputValue struct {
	in rc.Input
	v  int16
}

type outputValue struct {
	out rc.Output
	v   int16
}

// Parse decodes and validates a scenario
func Parse(data []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode scenario: %w", err)
	}
	if err := s.compile(); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadFile reads a scenario file
func LoadFile(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Duration returns the time of the last step
func (s *Scenario) Duration() time.Duration {
	if len(s.Steps) == 0 {
		return 0
	}
	return s.Steps[len(s.Steps)-1].At
}

// AnalogInputs returns the inputs driven by analog values, in first use order
func (s *Scenario) AnalogInputs() []rc.Input {
	var ins []rc.Input
	seen := make(map[rc.Input]bool)
	for _, st := range s.Steps {
		for _, a := range st.analog {
			if !seen[a.in] {
				seen[a.in] = true
				ins = append(ins, a.in)
			}
		}
	}
	return ins
}

func (s *Scenario) compile() error {
	if s.Period == 0 {
		s.Period = DefaultPeriod
	}
	if s.Period < 0 {
		return fmt.Errorf("period %s must be positive", s.Period)
	}
	var last time.Duration
	for i := range s.Steps {
		st := &s.Steps[i]
		if st.At < last {
			return fmt.Errorf("step %d: at %s before previous step at %s", i, st.At, last)
		}
		last = st.At
		if err := st.compile(); err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
	}
	return nil
}

func (st *Step) compile() error {
	var err error
	if st.channels, err = channels(st.Channels, true); err != nil {
		return err
	}
	for name, state := range st.Switches {
		sw, err := rc.ParseSwitch(name)
		if err != nil {
			return err
		}
		if sw == rc.SwitchNone {
			return fmt.Errorf("switch required")
		}
		ss, err := rc.ParseSwitchState(state)
		if err != nil {
			return fmt.Errorf("switch %s: %w", name, err)
		}
		st.switches = append(st.switches, switchValue{sw, ss})
	}
	slices.SortFunc(st.switches, func(a, b switchValue) int { return cmp.Compare(a.sw, b.sw) })
	for name, raw := range st.Analog {
		in, err := parseInput(name)
		if err != nil {
			return err
		}
		if raw > MaxADC {
			return fmt.Errorf("analog %s = %d above %d", name, raw, MaxADC)
		}
		st.analog = append(st.analog, analogValue{in, raw})
	}
	slices.SortFunc(st.analog, func(a, b analogValue) int { return cmp.Compare(a.in, b.in) })
	if st.Expect != nil {
		return st.Expect.compile()
	}
	return nil
}

func (e *Expect) compile() error {
	var err error
	if e.Tolerance < 0 {
		return fmt.Errorf("tolerance %d must not be negative", e.Tolerance)
	}
	if e.channels, err = channels(e.Channels, false); err != nil {
		return err
	}
	for name, v := range e.Inputs {
		in, err := parseInput(name)
		if err != nil {
			return err
		}
		e.inputs = append(e.inputs, inputValue{in, v})
	}
	slices.SortFunc(e.inputs, func(a, b inputValue) int { return cmp.Compare(a.in, b.in) })
	for name, v := range e.Outputs {
		out, err := rc.ParseOutput(name)
		if err != nil {
			return err
		}
		if out == rc.OutputNone {
			return fmt.Errorf("output required")
		}
		e.outputs = append(e.outputs, outputValue{out, v})
	}
	slices.SortFunc(e.outputs, func(a, b outputValue) int { return cmp.Compare(a.out, b.out) })
	return nil
}

func channels(m map[int]uint16, limit bool) ([]channelValue, error) {
	var out []channelValue
	for n, us := range m {
		if n < 1 || n > rc.MaxChannels {
			return nil, fmt.Errorf("channel %d out of range [1, %d]", n, rc.MaxChannels)
		}
		if limit && (us < rc.MicrosMin || us > rc.MicrosMax) {
			return nil, fmt.Errorf("channel %d = %d us out of range [%d, %d]", n, us, rc.MicrosMin, rc.MicrosMax)
		}
		out = append(out, channelValue{rc.InputChannel(n - 1), us})
	}
	slices.SortFunc(out, func(a, b channelValue) int { return cmp.Compare(a.ch, b.ch) })
	return out, nil
}

func parseInput(name string) (rc.Input, error) {
	in, err := rc.ParseInput(name)
	if err != nil {
		return in, err
	}
	if in == rc.InputNone {
		return in, fmt.Errorf("input required")
	}
	return in, nil
}
