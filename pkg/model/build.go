// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package model

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/Thermoquad/zenith/pkg/frsky"
	"github.com/Thermoquad/zenith/pkg/rc"
)

// defaultChannelOrder is used when a model names neither inputs nor channels
const defaultChannelOrder = "AETR"

// Options carries the runtime collaborators of a model
type Options struct {
	Clock  rc.Clock
	Logger *log.Logger
	Beeper rc.Beeper

	// Analog maps stick axes to ADC readers. Axes without a reader are
	// fed from the matching input channel.
	Analog map[rc.Input]rc.AnalogReader
}

// Model is a configured pipeline plus the components callers drive or
// inspect directly.
type Model struct {
	Config     *Config
	Pipeline   *rc.Pipeline
	Timer      *rc.FlightTimer // nil without a profile timer
	Pins       map[rc.Input]*rc.AIPin
	Thresholds frsky.Thresholds
}

// Build wires cfg into a pipeline over bus. The stage order is fixed:
// analog pins and input channels, flight mode rates, input stages, the
// airframe, output stages, channels, and the flight timer.
func Build(cfg *Config, bus *rc.SignalBus, opts Options) (*Model, error) {
	if opts.Clock == nil {
		opts.Clock = rc.SystemClock{}
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.Beeper == nil {
		opts.Beeper = logBeeper{opts.Logger}
	}

	b := &builder{
		cfg:   cfg,
		bus:   bus,
		opts:  opts,
		log:   opts.Logger,
		p:     rc.NewPipeline(bus),
		names: make(map[string]int),
		model: &Model{Config: cfg, Pins: make(map[rc.Input]*rc.AIPin)},
	}
	b.model.Pipeline = b.p

	b.timing()
	b.switchTypes()
	b.analogPins()
	b.inputChannels()
	b.flightModes()
	for i := range cfg.Stages {
		if !outputPhase(&cfg.Stages[i]) {
			b.stage(i)
		}
	}
	b.airframe()
	for i := range cfg.Stages {
		if outputPhase(&cfg.Stages[i]) {
			b.stage(i)
		}
	}
	b.channels()
	b.flightTimer()
	b.thresholds()

	if b.err != nil {
		return nil, b.err
	}
	b.log.Debug("model built", "name", cfg.Name, "stages", b.p.Len())
	return b.model, nil
}

// builder records the first error and turns later calls into no-ops
type builder struct {
	cfg   *Config
	bus   *rc.SignalBus
	opts  Options
	log   *log.Logger
	p     *rc.Pipeline
	model *Model
	names map[string]int
	err   error
}

func (b *builder) fail(field string, err error) bool {
	if err == nil {
		return false
	}
	if b.err == nil {
		b.err = fieldErr(field, err)
	}
	return true
}

func (b *builder) failed() bool { return b.err != nil }

// add appends s under name. An explicit name must be unique; generated
// names get a #n suffix on collision.
func (b *builder) add(field, name string, explicit bool, s rc.Stage) {
	if b.failed() {
		return
	}
	if n, ok := b.names[name]; ok {
		if explicit {
			b.fail(field, fmt.Errorf("duplicate stage name %q", name))
			return
		}
		b.names[name] = n + 1
		name = fmt.Sprintf("%s#%d", name, n+1)
	}
	b.names[name] = 1
	b.p.Add(name, s)
	b.log.Debug("stage", "name", name, "type", fmt.Sprintf("%T", s))
}

// ============================================================
// Value conversion
// ============================================================

func (b *builder) ranged(field string, v, lo, hi int) int {
	if v < lo || v > hi {
		b.fail(field, &rc.RangeError{Param: field, Value: v, Min: lo, Max: hi})
		return 0
	}
	return v
}

func (b *builder) i8(field string, v int) int8 {
	return int8(b.ranged(field, v, math.MinInt8, math.MaxInt8))
}

func (b *builder) u8(field string, v int) uint8 {
	return uint8(b.ranged(field, v, 0, math.MaxUint8))
}

func (b *builder) i16(field string, v int) int16 {
	return int16(b.ranged(field, v, math.MinInt16, math.MaxInt16))
}

func (b *builder) u16(field string, v int) uint16 {
	return uint16(b.ranged(field, v, 0, math.MaxUint16))
}

func (b *builder) input(field, s string) rc.Input {
	i, err := rc.ParseInput(s)
	b.fail(field, err)
	return i
}

func (b *builder) output(field, s string) rc.Output {
	o, err := rc.ParseOutput(s)
	b.fail(field, err)
	return o
}

func (b *builder) switchOf(field, s string) rc.Switch {
	sw, err := rc.ParseSwitch(s)
	b.fail(field, err)
	return sw
}

// state parses a switch state name, or returns def for ""
func (b *builder) state(field, s string, def rc.SwitchState) rc.SwitchState {
	if s == "" {
		return def
	}
	st, err := rc.ParseSwitchState(s)
	b.fail(field, err)
	return st
}

// gate parses "H=Down" into a switch and state. A bare switch name gates on
// any connected state.
func (b *builder) gate(field, s string) (rc.Switch, rc.SwitchState) {
	name, state, found := strings.Cut(s, "=")
	sw := b.switchOf(field, strings.TrimSpace(name))
	if !found {
		return sw, rc.SwitchDisconnected
	}
	return sw, b.state(field, strings.TrimSpace(state), rc.SwitchDisconnected)
}

// ============================================================
// Bus setup
// ============================================================

func (b *builder) timing() {
	t := b.cfg.Timing
	var timing rc.Timing
	switch strings.ToLower(t.Preset) {
	case "futaba":
		timing = rc.FutabaTiming()
	case "jr":
		timing = rc.JRTiming()
	case "", "default":
		timing = rc.DefaultTiming()
		if t.Center != 0 || t.Travel != 0 {
			center, travel := timing.Center(), timing.Travel()
			if t.Center != 0 {
				center = b.u16("timing.center", t.Center)
			}
			if t.Travel != 0 {
				travel = b.u16("timing.travel", t.Travel)
			}
			if b.failed() {
				return
			}
			var err error
			timing, err = rc.NewTiming(center, travel)
			if b.fail("timing", err) {
				return
			}
		}
	default:
		b.fail("timing.preset", fmt.Errorf("unknown preset %q", t.Preset))
		return
	}
	b.bus.SetTiming(timing)
}

func (b *builder) switchTypes() {
	for i, sc := range b.cfg.Switches {
		field := fmt.Sprintf("switches[%d]", i)
		sw := b.switchOf(field+".switch", sc.Switch)
		if b.failed() {
			return
		}
		if sw == rc.SwitchNone {
			b.fail(field+".switch", fmt.Errorf("switch required"))
			return
		}
		var t rc.SwitchType
		switch strings.ToLower(sc.Type) {
		case "bistate", "":
			t = rc.SwitchTypeBiState
		case "tristate":
			t = rc.SwitchTypeTriState
		case "momentary":
			t = rc.SwitchTypeMomentary
		default:
			b.fail(field+".type", fmt.Errorf("unknown switch type %q", sc.Type))
			return
		}
		b.bus.SetSwitchType(sw, t)
	}
}

func (b *builder) analogPins() {
	for i, ac := range b.cfg.Device.Analog {
		field := fmt.Sprintf("device.analog[%d]", i)
		in := b.input(field+".input", ac.Input)
		lo := b.u16(field+".min", ac.Min)
		mid := b.u16(field+".mid", ac.Mid)
		hi := b.u16(field+".max", ac.Max)
		trim := b.i8(field+".trim", ac.Trim)
		if !b.failed() && in == rc.InputNone {
			b.fail(field+".input", fmt.Errorf("input required"))
		}
		if b.failed() {
			return
		}
		reader, ok := b.opts.Analog[in]
		if !ok {
			b.log.Debug("no reader for analog axis", "input", in)
			continue
		}
		pin := rc.NewAIPin(b.bus, reader, in)
		if ac.Min != 0 || ac.Mid != 0 || ac.Max != 0 {
			if b.fail(field, pin.SetCalibration(lo, mid, hi)) {
				return
			}
		}
		if b.fail(field+".trim", pin.SetTrim(trim)) {
			return
		}
		pin.SetReverse(ac.Reverse)
		b.model.Pins[in] = pin
		b.add(field, "analog:"+in.String(), false, pin)
	}
}

// letterInputs maps channel order letters to stick inputs
var letterInputs = map[rune]rc.Input{
	'A': rc.InputAIL,
	'E': rc.InputELE,
	'T': rc.InputTHR,
	'R': rc.InputRUD,
	'F': rc.InputFLP,
	'B': rc.InputBRK,
	'P': rc.InputPIT,
}

// letterOutputs maps channel order letters to mixer outputs
var letterOutputs = map[rune]rc.Output{
	'A': rc.OutputAIL1,
	'E': rc.OutputELE1,
	'T': rc.OutputTHR1,
	'R': rc.OutputRUD1,
	'F': rc.OutputFLP1,
	'B': rc.OutputBRK1,
	'P': rc.OutputPIT,
	'G': rc.OutputGEAR,
	'D': rc.OutputDOOR,
	'Y': rc.OutputGYR1,
	'V': rc.OutputGOV,
}

func (b *builder) channelOrder() string {
	if b.cfg.Profile.ChannelOrder != "" {
		return strings.ToUpper(b.cfg.Profile.ChannelOrder)
	}
	return defaultChannelOrder
}

func (b *builder) inputChannels() {
	var inputs []rc.Input
	if len(b.cfg.Inputs) > 0 {
		for i, name := range b.cfg.Inputs {
			inputs = append(inputs, b.input(fmt.Sprintf("inputs[%d]", i), name))
		}
	} else {
		for _, r := range b.channelOrder() {
			in, ok := letterInputs[r]
			if !ok {
				in = rc.InputNone
			}
			inputs = append(inputs, in)
		}
	}
	if len(inputs) > rc.MaxChannels {
		b.fail("inputs", fmt.Errorf("%d inputs, at most %d", len(inputs), rc.MaxChannels))
	}
	if b.failed() {
		return
	}
	for ch, in := range inputs {
		if in == rc.InputNone {
			continue
		}
		if _, analog := b.model.Pins[in]; analog {
			continue
		}
		src := rc.InputChannel(ch)
		b.add("inputs", fmt.Sprintf("input:%s", in), false, rc.NewInputChannelToInput(b.bus, src, in))
	}
}

// ============================================================
// Airframe
// ============================================================

func (b *builder) airframe() {
	if b.failed() {
		return
	}
	a := b.cfg.Airframe
	switch strings.ToLower(a.Type) {
	case "":
	case "plane":
		b.plane(a)
	case "swash", "heli":
		b.swash(a)
	default:
		b.fail("airframe.type", fmt.Errorf("unknown airframe %q", a.Type))
	}
}

func (b *builder) plane(a AirframeConfig) {
	p := rc.NewPlaneModel(b.bus)

	switch strings.ToLower(a.Wing) {
	case "", "tailed":
		b.fail("airframe.wing", p.SetWingType(rc.WingTailed))
	case "tailless", "flying_wing":
		b.fail("airframe.wing", p.SetWingType(rc.WingTailless))
	default:
		b.fail("airframe.wing", fmt.Errorf("unknown wing %q", a.Wing))
	}
	switch strings.ToLower(a.Tail) {
	case "", "normal":
		b.fail("airframe.tail", p.SetTailType(rc.TailNormal))
	case "vtail":
		b.fail("airframe.tail", p.SetTailType(rc.TailVTail))
	case "ailevator":
		b.fail("airframe.tail", p.SetTailType(rc.TailAilevator))
	default:
		b.fail("airframe.tail", fmt.Errorf("unknown tail %q", a.Tail))
	}
	switch strings.ToLower(a.Rudder) {
	case "", "normal":
		b.fail("airframe.rudder", p.SetRudderType(rc.RudderNormal))
	case "none":
		b.fail("airframe.rudder", p.SetRudderType(rc.RudderNone))
	case "winglet":
		b.fail("airframe.rudder", p.SetRudderType(rc.RudderWinglet))
	default:
		b.fail("airframe.rudder", fmt.Errorf("unknown rudder %q", a.Rudder))
	}

	ailerons := a.Ailerons
	if ailerons == 0 {
		ailerons = 1
	}
	b.fail("airframe.ailerons", p.SetAileronCount(rc.AileronCount(b.u8("airframe.ailerons", ailerons))))
	b.fail("airframe.flaps", p.SetFlapCount(rc.FlapCount(b.u8("airframe.flaps", a.Flaps))))
	b.fail("airframe.brakes", p.SetBrakeCount(rc.BrakeCount(b.u8("airframe.brakes", a.Brakes))))

	b.fail("airframe.aileron_diff", p.SetAileronDifferential(b.i8("airframe.aileron_diff", a.AileronDiff)))
	b.fail("airframe.winglet_diff", p.SetWingletDifferential(b.i8("airframe.winglet_diff", a.WingletDiff)))
	b.fail("airframe.ailevator_diff", p.SetAilevatorDifferential(b.i8("airframe.ailevator_diff", a.AilevatorDiff)))
	optional := []struct {
		field string
		v     *int
		set   func(int8) error
	}{
		{"airframe.elevon_aileron", a.ElevonAil, p.SetElevonAileronMix},
		{"airframe.elevon_elevator", a.ElevonEle, p.SetElevonElevatorMix},
		{"airframe.ailevator", a.Ailevator, p.SetAilevatorMix},
		{"airframe.vtail_elevator", a.VTailEle, p.SetVTailElevatorMix},
		{"airframe.vtail_rudder", a.VTailRud, p.SetVTailRudderMix},
	}
	for _, o := range optional {
		if o.v != nil {
			b.fail(o.field, o.set(b.i8(o.field, *o.v)))
		}
	}

	b.add("airframe", "airframe:plane", false, p)
}

func (b *builder) swash(a AirframeConfig) {
	s := rc.NewSwashplate(b.bus)
	if a.Swash != "" {
		t, err := rc.ParseSwashType(strings.ToUpper(a.Swash))
		if b.fail("airframe.swash", err) {
			return
		}
		b.fail("airframe.swash", s.SetType(t))
	}
	if a.SwashAil != 0 {
		b.fail("airframe.swash_aileron", s.SetAileronMix(b.i8("airframe.swash_aileron", a.SwashAil)))
	}
	if a.SwashEle != 0 {
		b.fail("airframe.swash_elevator", s.SetElevatorMix(b.i8("airframe.swash_elevator", a.SwashEle)))
	}
	if a.SwashPit != 0 {
		b.fail("airframe.swash_pitch", s.SetPitchMix(b.i8("airframe.swash_pitch", a.SwashPit)))
	}
	b.add("airframe", "airframe:swash", false, s)
}

// ============================================================
// Channels
// ============================================================

func (b *builder) channels() {
	if b.failed() {
		return
	}
	list := b.cfg.Channels
	if len(list) == 0 {
		for _, r := range b.channelOrder() {
			if o, ok := letterOutputs[r]; ok {
				list = append(list, ChannelConfig{Output: o.String()})
			} else {
				list = append(list, ChannelConfig{})
			}
		}
	}
	if len(list) > rc.MaxChannels {
		b.fail("channels", fmt.Errorf("%d channels, at most %d", len(list), rc.MaxChannels))
		return
	}

	for i, cc := range list {
		field := fmt.Sprintf("channels[%d]", i)
		src := b.output(field+".output", cc.Output)
		if b.failed() {
			return
		}
		if src == rc.OutputNone {
			continue
		}
		c := rc.NewChannel(b.bus, b.opts.Clock, src, rc.OutputChannel(i))
		c.SetReverse(cc.Reverse)
		b.fail(field+".subtrim", c.SetSubtrim(b.i8(field+".subtrim", cc.Subtrim)))
		if cc.EPMin != nil {
			b.fail(field+".ep_min", c.SetEndPointMin(b.u8(field+".ep_min", *cc.EPMin)))
		}
		if cc.EPMax != nil {
			b.fail(field+".ep_max", c.SetEndPointMax(b.u8(field+".ep_max", *cc.EPMax)))
		}
		b.fail(field+".speed", c.SetSpeed(b.u8(field+".speed", cc.Speed)))
		b.add(field, fmt.Sprintf("channel:%s", rc.OutputChannel(i)), false, c)
	}
}

// ============================================================
// Flight timer and telemetry
// ============================================================

// throttleTrigger maps a throttle percent onto the normalized range
func throttleTrigger(percent int) int16 {
	return int16(rc.NormalMin + percent*(rc.NormalMax-rc.NormalMin)/100)
}

func (b *builder) flightTimer() {
	if b.failed() || b.cfg.Profile.Timer == 0 {
		return
	}
	target := b.u16("profile.timer", b.cfg.Profile.Timer)
	pct := b.ranged("device.flight_timer_throttle", b.cfg.Device.TimerThrottle, 0, 100)
	sw, state := rc.SwitchNone, rc.SwitchUp
	if b.cfg.Profile.TimerSwitch != "" {
		sw, state = b.gate("profile.timer_switch", b.cfg.Profile.TimerSwitch)
	}
	if b.failed() {
		return
	}

	ft := rc.NewFlightTimer(b.bus, b.opts.Clock, b.opts.Beeper, sw, state)
	if b.fail("profile.timer", ft.SetTarget(target)) {
		return
	}
	ft.SetDirection(false)

	trigger := throttleTrigger(pct)
	gated := sw != rc.SwitchNone
	b.add("profile.timer", "timer", false, rc.StageFunc(func() {
		active := pct == 0 || b.bus.Input(rc.InputTHR) >= trigger
		if gated {
			active = active && ft.Gate().Active(b.bus)
		}
		ft.Update(active)
	}))
	b.model.Timer = ft
}

func (b *builder) thresholds() {
	if b.failed() {
		return
	}
	t := frsky.DefaultThresholds()
	tc := b.cfg.Device.Telemetry
	set := func(dst *uint8, field string, v int) {
		if v != 0 {
			*dst = b.u8("device.telemetry."+field, v)
		}
	}
	set(&t.CellCount, "cell_count", tc.CellCount)
	set(&t.VoltOrange, "volt_orange", tc.VoltOrange)
	set(&t.VoltRed, "volt_red", tc.VoltRed)
	set(&t.RSSIOrange, "rssi_orange", tc.RSSIOrange)
	set(&t.RSSIRed, "rssi_red", tc.RSSIRed)
	if tc.CheckInterval != 0 {
		t.CheckInterval = time.Duration(b.ranged("device.telemetry.check_interval", tc.CheckInterval, 1, 3600)) * time.Second
	}
	b.model.Thresholds = t
}

// logBeeper turns timer cues into debug log lines
type logBeeper struct {
	log *log.Logger
}

func (l logBeeper) Beep(on, off time.Duration, repeat int) {
	l.log.Debug("beep", "on", on, "off", off, "repeat", repeat)
}
