// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package rc

import "fmt"

// WingType selects between tailed airframes and flying wings
type WingType uint8

const (
	WingTailed   WingType = iota // Separate elevator, uses at least AIL1
	WingTailless                 // Elevons, uses at least AIL1+AIL2
)

// TailType selects the tail layout of a tailed airframe
type TailType uint8

const (
	TailNormal    TailType = iota // ELE1 and RUD1
	TailVTail                     // Ruddervators on ELE1+RUD2 and RUD1+ELE2
	TailAilevator                 // ELE1+ELE2 mixed with aileron, RUD1
)

// RudderType selects the rudder layout of a flying wing
type RudderType uint8

const (
	RudderNone    RudderType = iota
	RudderNormal                // RUD1
	RudderWinglet               // RUD1+RUD2 on the wing tips
)

// AileronCount is the number of aileron servos
type AileronCount uint8

const (
	Ailerons1 AileronCount = 1
	Ailerons2 AileronCount = 2
	Ailerons4 AileronCount = 4
)

// FlapCount is the number of flap servos
type FlapCount uint8

const (
	Flaps0 FlapCount = 0
	Flaps1 FlapCount = 1
	Flaps2 FlapCount = 2
	Flaps4 FlapCount = 4 // camber pair plus brake pair
)

// BrakeCount is the number of airbrake servos
type BrakeCount uint8

const (
	Brakes0 BrakeCount = 0
	Brakes1 BrakeCount = 1
	Brakes2 BrakeCount = 2
)

// PlaneModel fans the five plane axes out to the surface outputs of the
// configured airframe.
type PlaneModel struct {
	bus *SignalBus

	wing     WingType
	tail     TailType
	rudder   RudderType
	ailerons AileronCount
	flaps    FlapCount
	brakes   BrakeCount

	ailDiff       int8
	wingletDiff   int8
	elevonAil     int8
	elevonEle     int8
	ailevator     int8
	ailevatorDiff int8
	vtailEle      int8
	vtailRud      int8
}

// NewPlaneModel returns a tailed, single aileron plane with a normal tail
func NewPlaneModel(bus *SignalBus) *PlaneModel {
	return &PlaneModel{
		bus:       bus,
		wing:      WingTailed,
		tail:      TailNormal,
		rudder:    RudderNormal,
		ailerons:  Ailerons1,
		flaps:     Flaps0,
		brakes:    Brakes0,
		elevonAil: 50,
		elevonEle: 50,
		ailevator: 50,
		vtailEle:  50,
		vtailRud:  50,
	}
}

// SetWingType selects the wing layout
func (p *PlaneModel) SetWingType(t WingType) error {
	if t > WingTailless {
		return &RangeError{Param: "wing type", Value: int(t), Min: 0, Max: int(WingTailless)}
	}
	p.wing = t
	return nil
}

// WingType returns the wing layout
func (p *PlaneModel) WingType() WingType { return p.wing }

// SetTailType selects the tail layout, only used by tailed wings
func (p *PlaneModel) SetTailType(t TailType) error {
	if t > TailAilevator {
		return &RangeError{Param: "tail type", Value: int(t), Min: 0, Max: int(TailAilevator)}
	}
	p.tail = t
	return nil
}

// TailType returns the tail layout
func (p *PlaneModel) TailType() TailType { return p.tail }

// SetRudderType selects the rudder layout, only used by tailless wings
func (p *PlaneModel) SetRudderType(t RudderType) error {
	if t > RudderWinglet {
		return &RangeError{Param: "rudder type", Value: int(t), Min: 0, Max: int(RudderWinglet)}
	}
	p.rudder = t
	return nil
}

// RudderType returns the rudder layout
func (p *PlaneModel) RudderType() RudderType { return p.rudder }

// SetAileronCount sets the number of aileron servos: 1, 2 or 4
func (p *PlaneModel) SetAileronCount(n AileronCount) error {
	switch n {
	case Ailerons1, Ailerons2, Ailerons4:
		p.ailerons = n
		return nil
	}
	return fmt.Errorf("aileron count %d: %w", n, ErrOutOfRange)
}

// AileronCount returns the number of aileron servos
func (p *PlaneModel) AileronCount() AileronCount { return p.ailerons }

// SetFlapCount sets the number of flap servos: 0, 1, 2 or 4
func (p *PlaneModel) SetFlapCount(n FlapCount) error {
	switch n {
	case Flaps0, Flaps1, Flaps2, Flaps4:
		p.flaps = n
		return nil
	}
	return fmt.Errorf("flap count %d: %w", n, ErrOutOfRange)
}

// FlapCount returns the number of flap servos
func (p *PlaneModel) FlapCount() FlapCount { return p.flaps }

// SetBrakeCount sets the number of airbrake servos: 0, 1 or 2
func (p *PlaneModel) SetBrakeCount(n BrakeCount) error {
	if n > Brakes2 {
		return &RangeError{Param: "brake count", Value: int(n), Min: 0, Max: int(Brakes2)}
	}
	p.brakes = n
	return nil
}

// BrakeCount returns the number of airbrake servos
func (p *PlaneModel) BrakeCount() BrakeCount { return p.brakes }

func setRate(dst *int8, param string, v int8) error {
	if err := checkRange(param, int(v), RateMin, RateMax); err != nil {
		return err
	}
	*dst = v
	return nil
}

// SetAileronDifferential reduces down-going aileron travel, [-100, 100]
func (p *PlaneModel) SetAileronDifferential(v int8) error {
	return setRate(&p.ailDiff, "aileron differential", v)
}

// AileronDifferential returns the aileron differential
func (p *PlaneModel) AileronDifferential() int8 { return p.ailDiff }

// SetWingletDifferential sets the winglet rudder differential, [-100, 100]
func (p *PlaneModel) SetWingletDifferential(v int8) error {
	return setRate(&p.wingletDiff, "winglet differential", v)
}

// WingletDifferential returns the winglet rudder differential
func (p *PlaneModel) WingletDifferential() int8 { return p.wingletDiff }

// SetElevonAileronMix sets the aileron share of the elevons, [-100, 100]
func (p *PlaneModel) SetElevonAileronMix(v int8) error {
	return setRate(&p.elevonAil, "elevon aileron mix", v)
}

// ElevonAileronMix returns the aileron share of the elevons
func (p *PlaneModel) ElevonAileronMix() int8 { return p.elevonAil }

// SetElevonElevatorMix sets the elevator share of the elevons, [-100, 100]
func (p *PlaneModel) SetElevonElevatorMix(v int8) error {
	return setRate(&p.elevonEle, "elevon elevator mix", v)
}

// ElevonElevatorMix returns the elevator share of the elevons
func (p *PlaneModel) ElevonElevatorMix() int8 { return p.elevonEle }

// SetAilevatorMix sets the aileron share of the ailevators, [-100, 100]
func (p *PlaneModel) SetAilevatorMix(v int8) error {
	return setRate(&p.ailevator, "ailevator mix", v)
}

// AilevatorMix returns the aileron share of the ailevators
func (p *PlaneModel) AilevatorMix() int8 { return p.ailevator }

// SetAilevatorDifferential sets the ailevator differential, [-100, 100]
func (p *PlaneModel) SetAilevatorDifferential(v int8) error {
	return setRate(&p.ailevatorDiff, "ailevator differential", v)
}

// AilevatorDifferential returns the ailevator differential
func (p *PlaneModel) AilevatorDifferential() int8 { return p.ailevatorDiff }

// SetVTailElevatorMix sets the elevator share of a V-tail, [-100, 100]
func (p *PlaneModel) SetVTailElevatorMix(v int8) error {
	return setRate(&p.vtailEle, "v-tail elevator mix", v)
}

// VTailElevatorMix returns the elevator share of a V-tail
func (p *PlaneModel) VTailElevatorMix() int8 { return p.vtailEle }

// SetVTailRudderMix sets the rudder share of a V-tail, [-100, 100]
func (p *PlaneModel) SetVTailRudderMix(v int8) error {
	return setRate(&p.vtailRud, "v-tail rudder mix", v)
}

// VTailRudderMix returns the rudder share of a V-tail
func (p *PlaneModel) VTailRudderMix() int8 { return p.vtailRud }

// Mix writes the surface outputs for the given axis values
func (p *PlaneModel) Mix(ail, ele, rud, flp, brk int16) {
	ail, ele, rud = Clamp140(ail), Clamp140(ele), Clamp140(rud)
	flp, brk = Clamp140(flp), Clamp140(brk)
	b := p.bus

	switch p.wing {
	case WingTailless:
		a := Mix(ail, p.elevonAil)
		e := Mix(ele, p.elevonEle)
		if p.ailerons == Ailerons4 {
			b.SetOutput(OutputAIL4, applyDiff(-a, p.ailDiff)+e)
			b.SetOutput(OutputAIL3, applyDiff(a, p.ailDiff)+e)
		}
		// a single servo cannot fly a flying wing, it is driven as two
		b.SetOutput(OutputAIL2, applyDiff(-a, p.ailDiff)+e)
		b.SetOutput(OutputAIL1, applyDiff(a, p.ailDiff)+e)
		p.mixRudder(rud)

	default:
		switch p.ailerons {
		case Ailerons4:
			b.SetOutput(OutputAIL4, applyDiff(-ail, p.ailDiff))
			b.SetOutput(OutputAIL3, applyDiff(ail, p.ailDiff))
			fallthrough
		case Ailerons2:
			b.SetOutput(OutputAIL2, applyDiff(-ail, p.ailDiff))
			b.SetOutput(OutputAIL1, applyDiff(ail, p.ailDiff))
		default:
			// no differential with a single aileron servo
			b.SetOutput(OutputAIL1, ail)
		}
		p.mixTail(ail, ele, rud)
	}

	p.mixFlaps(flp, brk)
	p.mixBrakes(brk)
}

// Apply mixes the AIL, ELE, RUD, FLP and BRK inputs
func (p *PlaneModel) Apply() {
	b := p.bus
	p.Mix(b.Input(InputAIL), b.Input(InputELE), b.Input(InputRUD), b.Input(InputFLP), b.Input(InputBRK))
}

func (p *PlaneModel) mixTail(ail, ele, rud int16) {
	b := p.bus
	switch p.tail {
	case TailVTail:
		r := Mix(rud, p.vtailRud)
		e := Mix(ele, p.vtailEle)
		b.SetOutput(OutputELE1, r+e)
		b.SetOutput(OutputRUD2, r+e)
		b.SetOutput(OutputRUD1, r-e)
		b.SetOutput(OutputELE2, r-e)
	case TailAilevator:
		a := Mix(ail, p.ailevator)
		b.SetOutput(OutputELE1, ele+applyDiff(a, p.ailevatorDiff))
		b.SetOutput(OutputELE2, ele+applyDiff(-a, p.ailevatorDiff))
		b.SetOutput(OutputRUD1, rud)
	default:
		b.SetOutput(OutputELE1, ele)
		b.SetOutput(OutputRUD1, rud)
	}
}

func (p *PlaneModel) mixRudder(rud int16) {
	switch p.rudder {
	case RudderNone:
	case RudderWinglet:
		p.bus.SetOutput(OutputRUD1, applyDiff(rud, p.wingletDiff))
		p.bus.SetOutput(OutputRUD2, applyDiff(rud, -p.wingletDiff))
	default:
		p.bus.SetOutput(OutputRUD1, rud)
	}
}

func (p *PlaneModel) mixFlaps(flp, brk int16) {
	b := p.bus
	switch p.flaps {
	case Flaps4:
		b.SetOutput(OutputFLP4, brk)
		b.SetOutput(OutputFLP3, brk)
		fallthrough
	case Flaps2:
		b.SetOutput(OutputFLP2, flp)
		fallthrough
	case Flaps1:
		b.SetOutput(OutputFLP1, flp)
	}
}

func (p *PlaneModel) mixBrakes(brk int16) {
	switch p.brakes {
	case Brakes2:
		p.bus.SetOutput(OutputBRK2, brk)
		fallthrough
	case Brakes1:
		p.bus.SetOutput(OutputBRK1, brk)
	}
}

// ApplyDiff applies differential to one side of a surface pair. Deflection
// in the direction of diff passes unchanged, deflection against it is cut
// by |diff| percent. It never amplifies.
func ApplyDiff(v int16, diff int8) int16 {
	return applyDiff(v, diff)
}

func applyDiff(v int16, diff int8) int16 {
	if diff == 0 || v == 0 {
		return v
	}
	if (v < 0) == (diff < 0) {
		return v
	}
	d := int16(diff)
	if d < 0 {
		d = -d
	}
	return Mix(v, int8(100-d))
}
