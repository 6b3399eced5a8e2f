// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package rc

import "fmt"

// SwashType is the servo geometry of a helicopter swashplate
type SwashType uint8

const (
	SwashH1  SwashType = iota // one servo per axis, mixing done mechanically
	SwashH2                   // two servos, 180 degrees apart
	SwashHE3                  // three servos, 120 degrees, elevator in front
	SwashHR3                  // three servos, 120 degrees, elevator in the rear
	SwashHN3                  // three servos, 120 degrees, rotated
	SwashH3                   // three servos, 140 degrees
	SwashH4                   // four servos, 90 degrees
	SwashH4X                  // four servos, 90 degrees, rotated 45 degrees

	SwashTypeCount
)

var swashNames = [SwashTypeCount]string{"H1", "H2", "HE3", "HR3", "HN3", "H3", "H4", "H4X"}

func (t SwashType) String() string {
	if t < SwashTypeCount {
		return swashNames[t]
	}
	return fmt.Sprintf("SwashType(%d)", uint8(t))
}

// ParseSwashType returns the swash type named s ("H1", "HE3", ...)
func ParseSwashType(s string) (SwashType, error) {
	for i, name := range swashNames {
		if name == s {
			return SwashType(i), nil
		}
	}
	return SwashH1, fmt.Errorf("unknown swash type %q", s)
}

// Swashplate mixes aileron, elevator and pitch into the swash servo outputs
// AIL1, ELE1, PIT and (four servo types) ELE2.
type Swashplate struct {
	bus  *SignalBus
	kind SwashType

	ailMix int8
	eleMix int8
	pitMix int8
}

// NewSwashplate returns an H1 swashplate with all mixes at 0
func NewSwashplate(bus *SignalBus) *Swashplate {
	return &Swashplate{bus: bus}
}

// SetType selects the swash geometry
func (s *Swashplate) SetType(t SwashType) error {
	if t >= SwashTypeCount {
		return &RangeError{Param: "swash type", Value: int(t), Min: 0, Max: int(SwashTypeCount) - 1}
	}
	s.kind = t
	return nil
}

// Type returns the swash geometry
func (s *Swashplate) Type() SwashType { return s.kind }

// SetAileronMix sets the aileron throw, [-100, 100]
func (s *Swashplate) SetAileronMix(v int8) error { return setRate(&s.ailMix, "swash aileron mix", v) }

// AileronMix returns the aileron throw
func (s *Swashplate) AileronMix() int8 { return s.ailMix }

// SetElevatorMix sets the elevator throw, [-100, 100]
func (s *Swashplate) SetElevatorMix(v int8) error { return setRate(&s.eleMix, "swash elevator mix", v) }

// ElevatorMix returns the elevator throw
func (s *Swashplate) ElevatorMix() int8 { return s.eleMix }

// SetPitchMix sets the pitch throw, [-100, 100]
func (s *Swashplate) SetPitchMix(v int8) error { return setRate(&s.pitMix, "swash pitch mix", v) }

// PitchMix returns the pitch throw
func (s *Swashplate) PitchMix() int8 { return s.pitMix }

// Mix writes the servo outputs for the given axis values
func (s *Swashplate) Mix(ail, ele, pit int16) {
	a := Mix(Clamp140(ail), s.ailMix)
	e := Mix(Clamp140(ele), s.eleMix)
	p := Mix(Clamp140(pit), s.pitMix)
	b := s.bus

	switch s.kind {
	case SwashH2:
		b.SetOutput(OutputELE1, e)
		b.SetOutput(OutputAIL1, a+p)
		b.SetOutput(OutputPIT, -a+p)
	case SwashHE3:
		b.SetOutput(OutputELE1, e+p)
		b.SetOutput(OutputAIL1, a+p)
		b.SetOutput(OutputPIT, -a+p)
	case SwashHR3:
		b.SetOutput(OutputELE1, e+p)
		b.SetOutput(OutputAIL1, a+p-(e>>1))
		b.SetOutput(OutputPIT, -a+p-(e>>1))
	case SwashHN3:
		b.SetOutput(OutputELE1, e+p-(a>>1))
		b.SetOutput(OutputAIL1, a+p)
		b.SetOutput(OutputPIT, -e+p-(a>>1))
	case SwashH3:
		b.SetOutput(OutputELE1, e+p)
		b.SetOutput(OutputAIL1, -e+a+p)
		b.SetOutput(OutputPIT, -e-a+p)
	case SwashH4:
		b.SetOutput(OutputELE1, e+p)
		b.SetOutput(OutputELE2, -e+p)
		b.SetOutput(OutputAIL1, a+p)
		b.SetOutput(OutputPIT, -a+p)
	case SwashH4X:
		b.SetOutput(OutputELE1, (e>>1)-(a>>1)+p)
		b.SetOutput(OutputELE2, -(e>>1)+(a>>1)+p)
		b.SetOutput(OutputAIL1, (e>>1)+(a>>1)+p)
		b.SetOutput(OutputPIT, -(e>>1)-(a>>1)+p)
	default:
		b.SetOutput(OutputAIL1, a)
		b.SetOutput(OutputELE1, e)
		b.SetOutput(OutputPIT, p)
	}
}

// Apply mixes the AIL, ELE and PIT inputs
func (s *Swashplate) Apply() {
	s.Mix(s.bus.Input(InputAIL), s.bus.Input(InputELE), s.bus.Input(InputPIT))
}

// SwashToThrottleMix adds throttle when cyclic is applied, to hold head
// speed under load. Either direction of cyclic adds throttle.
type SwashToThrottleMix struct {
	ThrottleMixBase

	bus    *SignalBus
	ailMix uint8
	eleMix uint8
}

// NewSwashToThrottleMix returns a mix with the given aileron and elevator shares
func NewSwashToThrottleMix(bus *SignalBus, ail, ele uint8) (*SwashToThrottleMix, error) {
	m := &SwashToThrottleMix{
		ThrottleMixBase: ThrottleMixBase{MixBase{posMix: 100, negMix: -100}},
		bus:             bus,
	}
	if err := m.SetAileronMix(ail); err != nil {
		return nil, err
	}
	if err := m.SetElevatorMix(ele); err != nil {
		return nil, err
	}
	return m, nil
}

// SetAileronMix sets the aileron share, [0, 100]
func (m *SwashToThrottleMix) SetAileronMix(v uint8) error {
	if err := checkRange("aileron to throttle mix", int(v), 0, 100); err != nil {
		return err
	}
	m.ailMix = v
	return nil
}

// AileronMix returns the aileron share
func (m *SwashToThrottleMix) AileronMix() uint8 { return m.ailMix }

// SetElevatorMix sets the elevator share, [0, 100]
func (m *SwashToThrottleMix) SetElevatorMix(v uint8) error {
	if err := checkRange("elevator to throttle mix", int(v), 0, 100); err != nil {
		return err
	}
	m.eleMix = v
	return nil
}

// ElevatorMix returns the elevator share
func (m *SwashToThrottleMix) ElevatorMix() uint8 { return m.eleMix }

// Process returns the throttle with the cyclic contribution added
func (m *SwashToThrottleMix) Process(thr, ail, ele int16) int16 {
	master := clamp32(int32(Mix(ail, int8(m.ailMix)))+int32(Mix(ele, int8(m.eleMix))), Normal140Min, Normal140Max)
	return m.ApplyThrottleMix(master, thr)
}

// Apply mixes AIL and ELE into the THR input
func (m *SwashToThrottleMix) Apply() {
	b := m.bus
	b.SetInput(InputTHR, m.Process(b.Input(InputTHR), b.Input(InputAIL), b.Input(InputELE)))
}
