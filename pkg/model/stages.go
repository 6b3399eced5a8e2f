// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package model

import (
	"fmt"
	"strings"

	"github.com/Thermoquad/zenith/pkg/rc"
)

// Stage types accepted in a model file. Input stages run before the
// airframe mixer, output stages after it.
//
//	expo           input, expo
//	dualrates      input, rate
//	curve          input, target, points, trims
//	offset         input, offset, switch, state
//	throttle_hold  throttle, switch, state
//	input_switch   input, switch, mark, mark2, deadband, reversed, mirrored, ranged
//	analog_switch  switch, target, duration
//	toggler        switch, state
//	input_mix      input, target, pos, neg, offset
//	trainer        channel, input or output, switch, state, student_rate, teacher_rate
//	pipe           input, output
//	engine         output, switch, state, idle, rudder_mix
//	governor       output, switch, up_rate, center_rate, down_rate, hold, hold_positive
//	retracts       kind, switch, state, gear_speed, doors_speed, delay
//	gyro           output, kind, mode, gain
//	output_mix     output, target, pos, neg, offset
//	swash_throttle ail, ele
const (
	StageExpo          = "expo"
	StageDualRates     = "dualrates"
	StageCurve         = "curve"
	StageOffset        = "offset"
	StageThrottleHold  = "throttle_hold"
	StageInputSwitch   = "input_switch"
	StageAnalogSwitch  = "analog_switch"
	StageToggler       = "toggler"
	StageInputMix      = "input_mix"
	StageTrainer       = "trainer"
	StagePipe          = "pipe"
	StageEngine        = "engine"
	StageGovernor      = "governor"
	StageRetracts      = "retracts"
	StageGyro          = "gyro"
	StageOutputMix     = "output_mix"
	StageSwashThrottle = "swash_throttle"
)

// MaxFlightModes is the number of flight modes a three position switch selects
const MaxFlightModes = 3

func outputPhase(sc *StageConfig) bool {
	switch sc.Type {
	case StagePipe, StageEngine, StageGovernor, StageRetracts, StageGyro,
		StageOutputMix, StageSwashThrottle:
		return true
	case StageTrainer:
		return sc.Output != ""
	}
	return false
}

// stageName returns the configured name, or type:detail
func stageName(sc *StageConfig) (string, bool) {
	if sc.Name != "" {
		return sc.Name, true
	}
	detail := sc.Input
	if detail == "" {
		detail = sc.Output
	}
	if detail == "" {
		detail = sc.Switch
	}
	if detail == "" {
		return sc.Type, false
	}
	return sc.Type + ":" + detail, false
}

func (b *builder) stage(i int) {
	if b.failed() {
		return
	}
	sc := &b.cfg.Stages[i]
	field := fmt.Sprintf("stages[%d]", i)
	f := func(name string) string { return field + "." + name }

	var s rc.Stage
	switch sc.Type {
	case StageExpo:
		e := rc.NewExpo(b.bus, b.requiredInput(f("input"), sc.Input))
		b.fail(f("expo"), e.SetExpo(b.i8(f("expo"), sc.Expo)))
		s = e

	case StageDualRates:
		d := rc.NewDualRates(b.bus, b.requiredInput(f("input"), sc.Input))
		if sc.Rate != nil {
			b.fail(f("rate"), d.SetRate(b.u8(f("rate"), *sc.Rate)))
		}
		s = d

	case StageCurve:
		src := b.requiredInput(f("input"), sc.Input)
		dst := src
		if sc.Target != "" {
			dst = b.input(f("target"), sc.Target)
		}
		c := rc.NewCurve(b.bus, src, dst)
		b.curve(f, c, sc)
		s = c

	case StageOffset:
		o := rc.NewOffset(b.bus, b.requiredInput(f("input"), sc.Input))
		b.fail(f("offset"), o.SetOffset(b.i8(f("offset"), sc.Offset)))
		if sc.Switch != "" {
			sw := b.switchOf(f("switch"), sc.Switch)
			b.fail(f("switch"), o.SetSwitch(sw, b.state(f("state"), sc.State, rc.SwitchDisconnected)))
		}
		s = o

	case StageThrottleHold:
		sw := b.requiredSwitch(f("switch"), sc.Switch)
		h := rc.NewThrottleHold(b.bus, sw, b.state(f("state"), sc.State, rc.SwitchDown))
		if sc.Throttle != nil {
			b.fail(f("throttle"), h.SetThrottle(b.i16(f("throttle"), *sc.Throttle)))
		}
		s = h

	case StageInputSwitch:
		is := rc.NewInputSwitch(b.bus, b.requiredInput(f("input"), sc.Input), b.requiredSwitch(f("switch"), sc.Switch))
		b.fail(f("mark"), is.SetMark(b.i16(f("mark"), sc.Mark)))
		if sc.Mark2 != nil {
			b.fail(f("mark2"), is.SetMark2(b.i16(f("mark2"), *sc.Mark2)))
		}
		is.SetDeadBand(b.u8(f("deadband"), sc.DeadBand))
		is.SetReversed(sc.Reversed)
		is.SetMirrored(sc.Mirrored)
		is.SetRanged(sc.Ranged)
		s = is

	case StageAnalogSwitch:
		sw := b.requiredSwitch(f("switch"), sc.Switch)
		a := rc.NewAnalogSwitch(b.bus, b.opts.Clock, sw, b.requiredInput(f("target"), sc.Target))
		b.fail(f("duration"), a.SetDuration(b.u16(f("duration"), sc.Duration)))
		s = a

	case StageToggler:
		sw := b.requiredSwitch(f("switch"), sc.Switch)
		s = rc.NewSwitchToggler(b.bus, b.state(f("state"), sc.State, rc.SwitchDown), sw)

	case StageInputMix:
		m := b.mixBase(f, sc)
		s = rc.NewInputToInputMix(b.bus, m, b.requiredInput(f("input"), sc.Input), b.requiredInput(f("target"), sc.Target))

	case StageOutputMix:
		m := b.mixBase(f, sc)
		s = rc.NewOutputToOutputMix(b.bus, m, b.requiredOutput(f("output"), sc.Output), b.requiredOutput(f("target"), sc.Target))

	case StageTrainer:
		s = b.trainer(f, sc)

	case StagePipe:
		s = rc.NewInputToOutput(b.bus, b.requiredInput(f("input"), sc.Input), b.requiredOutput(f("output"), sc.Output))

	case StageEngine:
		sw, state := rc.SwitchNone, rc.SwitchDown
		if sc.Switch != "" {
			sw = b.switchOf(f("switch"), sc.Switch)
			state = b.state(f("state"), sc.State, rc.SwitchDown)
		}
		e := rc.NewEngine(b.bus, b.requiredOutput(f("output"), sc.Output), sw, state)
		if sc.Idle != nil {
			b.fail(f("idle"), e.SetIdle(b.i16(f("idle"), *sc.Idle)))
		}
		b.fail(f("rudder_mix"), e.SetRudderMix(b.i8(f("rudder_mix"), sc.RudderMix)))
		s = e

	case StageGovernor:
		s = b.governor(f, sc)

	case StageRetracts:
		s = b.retracts(f, sc)

	case StageGyro:
		s = b.gyro(f, sc)

	case StageSwashThrottle:
		m, err := rc.NewSwashToThrottleMix(b.bus, b.u8(f("ail"), sc.Ail), b.u8(f("ele"), sc.Ele))
		if b.fail(field, err) {
			return
		}
		s = m

	default:
		b.fail(f("type"), fmt.Errorf("unknown stage type %q", sc.Type))
		return
	}

	name, explicit := stageName(sc)
	b.add(field, name, explicit, s)
}

func (b *builder) requiredInput(field, name string) rc.Input {
	in := b.input(field, name)
	if !b.failed() && in == rc.InputNone {
		b.fail(field, fmt.Errorf("input required"))
	}
	return in
}

func (b *builder) requiredOutput(field, name string) rc.Output {
	o := b.output(field, name)
	if !b.failed() && o == rc.OutputNone {
		b.fail(field, fmt.Errorf("output required"))
	}
	return o
}

func (b *builder) requiredSwitch(field, name string) rc.Switch {
	sw := b.switchOf(field, name)
	if !b.failed() && sw == rc.SwitchNone {
		b.fail(field, fmt.Errorf("switch required"))
	}
	return sw
}

func (b *builder) curve(f func(string) string, c *rc.Curve, sc *StageConfig) {
	if len(sc.Points) > 0 {
		if len(sc.Points) != rc.CurvePoints {
			b.fail(f("points"), fmt.Errorf("%d points, want %d", len(sc.Points), rc.CurvePoints))
			return
		}
		var pts [rc.CurvePoints]int16
		for i, v := range sc.Points {
			pts[i] = b.i16(f(fmt.Sprintf("points[%d]", i)), v)
		}
		b.fail(f("points"), c.SetPoints(pts))
	}
	if len(sc.Trims) > 0 {
		if len(sc.Trims) != 3 {
			b.fail(f("trims"), fmt.Errorf("%d trims, want low, center and high", len(sc.Trims)))
			return
		}
		b.fail(f("trims"), c.SetTrims(b.i8(f("trims[0]"), sc.Trims[0]), b.i8(f("trims[1]"), sc.Trims[1]), b.i8(f("trims[2]"), sc.Trims[2])))
	}
}

func (b *builder) mixBase(f func(string) string, sc *StageConfig) rc.MixBase {
	m, err := rc.NewMixBase(b.i8(f("pos"), sc.Pos), b.i8(f("neg"), sc.Neg), b.i16(f("offset"), sc.Offset))
	b.fail(f("mix"), err)
	return m
}

func (b *builder) trainer(f func(string) string, sc *StageConfig) rc.Stage {
	ch := b.ranged(f("channel"), sc.Channel, 0, rc.MaxChannels-1)
	sw := b.requiredSwitch(f("switch"), sc.Switch)
	t := rc.NewTrainer(b.bus, sw, b.state(f("state"), sc.State, rc.SwitchUp), rc.InputChannel(ch))
	t.SetEnabled(true)
	switch {
	case sc.Input != "" && sc.Output != "":
		b.fail(f("output"), fmt.Errorf("trainer takes an input or an output, not both"))
	case sc.Input != "":
		b.fail(f("input"), t.SetInputDestination(b.requiredInput(f("input"), sc.Input)))
	case sc.Output != "":
		b.fail(f("output"), t.SetOutputDestination(b.requiredOutput(f("output"), sc.Output)))
	default:
		b.fail(f("input"), fmt.Errorf("trainer needs an input or an output"))
	}
	if sc.StudentRate != nil {
		b.fail(f("student_rate"), t.SetStudentRate(b.u8(f("student_rate"), *sc.StudentRate)))
	}
	if sc.TeacherRate != nil {
		b.fail(f("teacher_rate"), t.SetTeacherRate(b.u8(f("teacher_rate"), *sc.TeacherRate)))
	}
	return t
}

func (b *builder) governor(f func(string) string, sc *StageConfig) rc.Stage {
	g := rc.NewGovernor(b.bus, b.requiredSwitch(f("switch"), sc.Switch), b.requiredOutput(f("output"), sc.Output))
	rates := []struct {
		name string
		v    *int
		set  func(uint8) error
	}{
		{"up_rate", sc.UpRate, g.SetUpRate},
		{"center_rate", sc.CenterRate, g.SetCenterRate},
		{"down_rate", sc.DownRate, g.SetDownRate},
	}
	for _, r := range rates {
		if r.v != nil {
			b.fail(f(r.name), r.set(b.u8(f(r.name), *r.v)))
		}
	}
	if sc.Hold != "" && !b.failed() {
		st, ok := b.p.Stage(sc.Hold)
		hold, isHold := st.(*rc.ThrottleHold)
		if !ok || !isHold {
			b.fail(f("hold"), fmt.Errorf("no throttle_hold stage named %q", sc.Hold))
		} else {
			g.SetHold(hold)
			g.SetHoldDirection(sc.HoldPositive)
		}
	}
	return g
}

func (b *builder) retracts(f func(string) string, sc *StageConfig) rc.Stage {
	var kind rc.RetractsType
	switch strings.ToLower(sc.Kind) {
	case "", "nodoor":
		kind = rc.RetractsNoDoor
	case "single":
		kind = rc.RetractsSingle
	case "dual":
		kind = rc.RetractsDual
	default:
		b.fail(f("kind"), fmt.Errorf("unknown retracts kind %q", sc.Kind))
	}
	sw := b.requiredSwitch(f("switch"), sc.Switch)
	r := rc.NewRetracts(b.bus, b.opts.Clock, kind, sw, b.state(f("state"), sc.State, rc.SwitchDown))
	if sc.GearSpeed != nil {
		b.fail(f("gear_speed"), r.SetGearSpeed(b.u16(f("gear_speed"), *sc.GearSpeed)))
	}
	if sc.DoorsSpeed != nil {
		b.fail(f("doors_speed"), r.SetDoorsSpeed(b.u16(f("doors_speed"), *sc.DoorsSpeed)))
	}
	b.fail(f("delay"), r.SetDelay(b.i16(f("delay"), sc.Delay)))
	return r
}

func (b *builder) gyro(f func(string) string, sc *StageConfig) rc.Stage {
	g := rc.NewGyro(b.bus, b.requiredOutput(f("output"), sc.Output))
	switch strings.ToLower(sc.Kind) {
	case "", "normal":
	case "avcs":
		b.fail(f("kind"), g.SetType(rc.GyroAVCS))
	default:
		b.fail(f("kind"), fmt.Errorf("unknown gyro kind %q", sc.Kind))
	}
	switch strings.ToLower(sc.Mode) {
	case "", "normal":
	case "avcs":
		b.fail(f("mode"), g.SetMode(rc.GyroModeAVCS))
	default:
		b.fail(f("mode"), fmt.Errorf("unknown gyro mode %q", sc.Mode))
	}
	b.fail(f("gain"), g.SetGain(b.u8(f("gain"), sc.Gain)))
	return g
}

// ============================================================
// Flight modes
// ============================================================

// flightModes adds per-mode expo and dual rates for the primary axes. The
// mode follows the flight mode switch: Up is mode 1, Center mode 2, Down
// mode 3. Lists shorter than the mode count repeat their last value.
func (b *builder) flightModes() {
	if b.failed() {
		return
	}
	p := b.cfg.Profile
	axes := []struct {
		in    rc.Input
		name  string
		expo  []int
		rates []int
	}{
		{rc.InputAIL, "ail", p.AilExpo, p.AilRate},
		{rc.InputELE, "ele", p.EleExpo, p.EleRate},
		{rc.InputRUD, "rud", p.RudExpo, p.RudRate},
	}

	sw := rc.SwitchNone
	if p.FlightMode != "" {
		sw = b.switchOf("profile.flight_mode_switch", p.FlightMode)
	}

	type named struct {
		name  string
		stage rc.Stage
	}
	var (
		apply  []func(mode int)
		stages []named
	)
	for _, ax := range axes {
		if len(ax.expo) > 0 {
			vals := b.modeValues("profile."+ax.name+"_expo", ax.expo, func(field string, v int) error {
				return rc.NewExpo(nil, rc.InputNone).SetExpo(b.i8(field, v))
			})
			e := rc.NewExpo(b.bus, ax.in)
			apply = append(apply, func(mode int) { _ = e.SetExpo(int8(pick(vals, mode))) })
			stages = append(stages, named{"expo:" + ax.in.String(), e})
		}
		if len(ax.rates) > 0 {
			vals := b.modeValues("profile."+ax.name+"_rate", ax.rates, func(field string, v int) error {
				return rc.NewDualRates(nil, rc.InputNone).SetRate(b.u8(field, v))
			})
			d := rc.NewDualRates(b.bus, ax.in)
			apply = append(apply, func(mode int) { _ = d.SetRate(uint8(pick(vals, mode))) })
			stages = append(stages, named{"dualrates:" + ax.in.String(), d})
		}
	}
	if b.failed() || len(apply) == 0 {
		return
	}

	b.add("profile", "flight_mode", false, rc.StageFunc(func() {
		mode := flightMode(b.bus, sw)
		for _, fn := range apply {
			fn(mode)
		}
	}))
	for _, st := range stages {
		b.add("profile", st.name, false, st.stage)
	}
}

// modeValues validates every entry of a per-mode list
func (b *builder) modeValues(field string, vals []int, check func(string, int) error) []int {
	if len(vals) > MaxFlightModes {
		b.fail(field, fmt.Errorf("%d modes, at most %d", len(vals), MaxFlightModes))
		return nil
	}
	for i, v := range vals {
		f := fmt.Sprintf("%s[%d]", field, i)
		if err := check(f, v); err != nil {
			b.fail(f, err)
		}
	}
	return vals
}

// flightMode returns the zero based mode selected by sw
func flightMode(bus *rc.SignalBus, sw rc.Switch) int {
	if sw == rc.SwitchNone {
		return 0
	}
	switch bus.SwitchState(sw) {
	case rc.SwitchCenter:
		return 1
	case rc.SwitchDown:
		return 2
	}
	return 0
}

func pick(vals []int, mode int) int {
	if mode >= len(vals) {
		mode = len(vals) - 1
	}
	return vals[mode]
}
