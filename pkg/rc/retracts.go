// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package rc

// RetractsType is the servo layout of a retractable gear
type RetractsType uint8

const (
	RetractsNoDoor RetractsType = iota // gear servo only
	RetractsSingle                     // gear and doors share one servo
	RetractsDual                       // separate gear and door servos
)

// Retracts sequences landing gear and gear doors along a timeline in ms.
//
// Time 0 is gear down with doors open. Moving up the gear retracts first
// (gearStart to gearEnd) and the doors close after the configured delay
// (doorsStart to doorsEnd). Moving down replays the timeline in reverse.
type Retracts struct {
	bus   *SignalBus
	gate  SwitchGate
	timer ticker

	kind       RetractsType
	doorsSpeed uint16
	gearSpeed  uint16
	delay      int16

	time   int32
	moveTo int32

	gearStart  int32
	gearEnd    int32
	doorsStart int32
	doorsEnd   int32
}

// NewRetracts returns retracts of the given type with 100 ms door and gear
// travel. The gear goes down while s reads state; a retracts without a
// switch is driven by Up and Down only.
func NewRetracts(bus *SignalBus, clock Clock, kind RetractsType, s Switch, state SwitchState) *Retracts {
	r := &Retracts{
		bus:        bus,
		gate:       SwitchGate{source: s, active: state},
		timer:      newTicker(clock),
		kind:       kind,
		doorsSpeed: 100,
		gearSpeed:  100,
	}
	r.updateTimeline()
	return r
}

// SetType selects the servo layout
func (r *Retracts) SetType(t RetractsType) error {
	if t > RetractsDual {
		return &RangeError{Param: "retracts type", Value: int(t), Min: 0, Max: int(RetractsDual)}
	}
	r.kind = t
	return nil
}

// Type returns the servo layout
func (r *Retracts) Type() RetractsType { return r.kind }

// SetSwitch changes the gear down switch
func (r *Retracts) SetSwitch(s Switch, state SwitchState) error { return r.gate.set(s, state) }

// SetDoorsSpeed sets the door travel time in ms, [0, 10000]
func (r *Retracts) SetDoorsSpeed(ms uint16) error {
	if err := checkRange("doors speed", int(ms), 0, 10000); err != nil {
		return err
	}
	r.doorsSpeed = ms
	r.updateTimeline()
	return nil
}

// DoorsSpeed returns the door travel time in ms
func (r *Retracts) DoorsSpeed() uint16 { return r.doorsSpeed }

// SetGearSpeed sets the gear travel time in ms, [0, 10000]
func (r *Retracts) SetGearSpeed(ms uint16) error {
	if err := checkRange("gear speed", int(ms), 0, 10000); err != nil {
		return err
	}
	r.gearSpeed = ms
	r.updateTimeline()
	return nil
}

// GearSpeed returns the gear travel time in ms
func (r *Retracts) GearSpeed() uint16 { return r.gearSpeed }

// SetDelay sets the time in ms between the gear finishing and the doors
// starting, [-10000, 10000]. Negative delays overlap the two.
func (r *Retracts) SetDelay(ms int16) error {
	if err := checkRange("retracts delay", int(ms), -10000, 10000); err != nil {
		return err
	}
	r.delay = ms
	r.updateTimeline()
	return nil
}

// Delay returns the gear to doors delay in ms
func (r *Retracts) Delay() int16 { return r.delay }

// Time returns the current position on the timeline
func (r *Retracts) Time() int32 { return r.time }

// Down moves to the start of the timeline
func (r *Retracts) Down() { r.moveTo = 0 }

// Up moves to the end of the timeline
func (r *Retracts) Up() { r.moveTo = max(r.doorsEnd, r.gearEnd) }

// OpenDoors moves to where the doors are fully open
func (r *Retracts) OpenDoors() { r.moveTo = min(r.doorsStart, r.gearStart) }

// CloseDoors moves to where the doors are fully closed
func (r *Retracts) CloseDoors() { r.moveTo = r.doorsEnd }

// LowerGear moves to where the gear is fully lowered
func (r *Retracts) LowerGear() { r.moveTo = r.gearStart }

// RaiseGear moves to where the gear is fully raised
func (r *Retracts) RaiseGear() { r.moveTo = r.gearEnd }

// IsUp reports whether gear and doors are fully up
func (r *Retracts) IsUp() bool { return r.time >= max(r.doorsEnd, r.gearEnd) }

// IsDown reports whether gear and doors are fully down
func (r *Retracts) IsDown() bool { return r.time <= min(r.doorsStart, r.gearStart) }

// DoorsAreOpen reports whether the doors are fully open
func (r *Retracts) DoorsAreOpen() bool { return r.time <= r.doorsStart }

// DoorsAreClosed reports whether the doors are fully closed
func (r *Retracts) DoorsAreClosed() bool { return r.time >= r.doorsEnd }

// GearIsLowered reports whether the gear is fully down
func (r *Retracts) GearIsLowered() bool { return r.time <= r.gearStart }

// GearIsRaised reports whether the gear is fully up
func (r *Retracts) GearIsRaised() bool { return r.time >= r.gearEnd }

// Update follows the switch, moves along the timeline by the elapsed time
// and writes the GEAR and DOOR outputs.
func (r *Retracts) Update() {
	if r.gate.source != SwitchNone {
		if r.gate.Active(r.bus) {
			r.Down()
		} else {
			r.Up()
		}
	}

	delta := r.timer.elapsed()
	if r.moveTo > r.time {
		r.time = min(r.time+delta, r.moveTo)
	} else if r.moveTo < r.time {
		r.time = max(r.time-delta, r.moveTo, 0)
	}

	doorsTime := clampTime(r.time-r.doorsStart, int32(r.doorsSpeed))
	gearTime := clampTime(r.time-r.gearStart, int32(r.gearSpeed))
	gear := RangeToNormalized(gearTime, r.gearSpeed)
	doors := RangeToNormalized(doorsTime, r.doorsSpeed)

	switch r.kind {
	case RetractsSingle:
		v := int16((int32(gear) + int32(doors)) / 2)
		r.bus.SetOutput(OutputGEAR, v)
		r.bus.SetOutput(OutputDOOR, v)
	case RetractsDual:
		r.bus.SetOutput(OutputGEAR, gear)
		r.bus.SetOutput(OutputDOOR, doors)
	default:
		r.bus.SetOutput(OutputGEAR, gear)
	}
}

// Apply updates the retracts
func (r *Retracts) Apply() { r.Update() }

func clampTime(t, limit int32) uint16 {
	if t < 0 {
		return 0
	}
	if t > limit {
		return uint16(limit)
	}
	return uint16(t)
}

func (r *Retracts) updateTimeline() {
	r.gearStart = 0
	r.gearEnd = r.gearStart + int32(r.gearSpeed)
	r.doorsStart = r.gearEnd + int32(r.delay)
	r.doorsEnd = r.doorsStart + int32(r.doorsSpeed)

	// doors may not finish before the gear
	if r.doorsEnd < r.gearEnd {
		r.doorsEnd = r.gearEnd
		r.doorsStart = r.doorsEnd - int32(r.doorsSpeed)
	}

	// keep the timeline non-negative
	if r.doorsStart < 0 {
		shift := -r.doorsStart
		r.doorsStart += shift
		r.gearStart += shift
		r.doorsEnd += shift
		r.gearEnd += shift
	}
}
