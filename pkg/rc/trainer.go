// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package rc

// Trainer blends a student transmitter, received on an input channel, into
// one input or output of the teacher.
type Trainer struct {
	bus  *SignalBus
	gate SwitchGate
	src  InputChannelPort

	input  InputPort
	output OutputPort

	enabled     bool
	studentRate uint8
	teacherRate uint8
}

// NewTrainer returns a disabled trainer reading channel, active while s
// reads state. It has no destination until one is set.
func NewTrainer(bus *SignalBus, s Switch, state SwitchState, channel InputChannel) *Trainer {
	return &Trainer{
		bus:         bus,
		gate:        SwitchGate{source: s, active: state},
		src:         InputChannelPort{index: channel},
		input:       InputPort{index: InputNone},
		output:      OutputPort{index: OutputNone},
		studentRate: 100,
	}
}

// SetEnabled turns the trainer on or off
func (t *Trainer) SetEnabled(enabled bool) { t.enabled = enabled }

// Enabled reports whether the trainer is on
func (t *Trainer) Enabled() bool { return t.enabled }

// SetInputDestination blends into an input, replacing any output destination
func (t *Trainer) SetInputDestination(i Input) error {
	if err := t.input.set("trainer input", i); err != nil {
		return err
	}
	t.output.index = OutputNone
	return nil
}

// InputDestination returns the input blended into, or InputNone
func (t *Trainer) InputDestination() Input { return t.input.index }

// SetOutputDestination blends into an output, replacing any input destination
func (t *Trainer) SetOutputDestination(o Output) error {
	if err := t.output.set("trainer output", o); err != nil {
		return err
	}
	t.input.index = InputNone
	return nil
}

// OutputDestination returns the output blended into, or OutputNone
func (t *Trainer) OutputDestination() Output { return t.output.index }

// SetStudentRate sets the student share, [0, 100]
func (t *Trainer) SetStudentRate(v uint8) error {
	if err := checkRange("student rate", int(v), 0, 100); err != nil {
		return err
	}
	t.studentRate = v
	return nil
}

// StudentRate returns the student share
func (t *Trainer) StudentRate() uint8 { return t.studentRate }

// SetTeacherRate sets the teacher share, [0, 100]
func (t *Trainer) SetTeacherRate(v uint8) error {
	if err := checkRange("teacher rate", int(v), 0, 100); err != nil {
		return err
	}
	t.teacherRate = v
	return nil
}

// TeacherRate returns the teacher share
func (t *Trainer) TeacherRate() uint8 { return t.teacherRate }

// Blend returns the mixed value when enabled and active, the teacher value
// otherwise.
func (t *Trainer) Blend(teacher, student int16, active bool) int16 {
	if t.enabled && active {
		return clamp32(int32(Mix(student, int8(t.studentRate)))+int32(Mix(teacher, int8(t.teacherRate))),
			Normal140Min, Normal140Max)
	}
	return teacher
}

// Update blends the student channel in. valid reports whether the student
// signal is present.
func (t *Trainer) Update(valid bool) {
	if !valid || !t.gate.Active(t.bus) || !t.src.Connected() {
		return
	}
	b := t.bus
	student := b.MicrosToNormalized(b.InputChannel(t.src.index))
	if t.input.Connected() {
		t.input.write(b, t.Blend(t.input.read(b), student, valid))
	}
	if t.output.Connected() {
		t.output.write(b, t.Blend(t.output.read(b), student, valid))
	}
}

// Apply blends assuming the student signal is present. Callers that track
// signal loss call Update instead.
func (t *Trainer) Apply() { t.Update(true) }
