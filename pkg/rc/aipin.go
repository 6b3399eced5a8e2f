// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package rc

import (
	"errors"
	"fmt"
)

// Raw analog sample range
const (
	AnalogMin = 0
	AnalogMax = 1023
)

// AnalogReader samples a 10 bit analog input
type AnalogReader interface {
	Read() (uint16, error)
}

// AIPin converts a calibrated analog stick axis into an input
type AIPin struct {
	bus    *SignalBus
	reader AnalogReader
	dst    InputPort

	reversed bool
	trim     int8
	center   uint16
	min      uint16
	max      uint16
}

// NewAIPin returns an uncalibrated axis (0, 511, 1023) writing destination
func NewAIPin(bus *SignalBus, reader AnalogReader, destination Input) *AIPin {
	return &AIPin{
		bus:    bus,
		reader: reader,
		dst:    InputPort{index: destination},
		center: 511,
		min:    AnalogMin,
		max:    AnalogMax,
	}
}

// Reader returns the analog source
func (p *AIPin) Reader() AnalogReader { return p.reader }

// SetDestination selects the input to write
func (p *AIPin) SetDestination(i Input) error { return p.dst.set("analog destination", i) }

// Destination returns the input being written
func (p *AIPin) Destination() Input { return p.dst.index }

// SetReverse flips the axis
func (p *AIPin) SetReverse(reversed bool) { p.reversed = reversed }

// Reversed reports whether the axis is flipped
func (p *AIPin) Reversed() bool { return p.reversed }

// SetTrim shifts the raw reading, [-100, 100]
func (p *AIPin) SetTrim(trim int8) error {
	if err := checkRange("analog trim", int(trim), RateMin, RateMax); err != nil {
		return err
	}
	p.trim = trim
	return nil
}

// Trim returns the raw reading shift
func (p *AIPin) Trim() int8 { return p.trim }

// SetCalibration sets the raw readings at the minimum, center and maximum
// positions, each in [0, 1023].
func (p *AIPin) SetCalibration(min, center, max uint16) error {
	for _, v := range []uint16{min, center, max} {
		if err := checkRange("analog calibration", int(v), AnalogMin, AnalogMax); err != nil {
			return err
		}
	}
	if min > center || center > max {
		return fmt.Errorf("analog calibration %d/%d/%d not ordered: %w", min, center, max, ErrOutOfRange)
	}
	p.min, p.center, p.max = min, center, max
	return nil
}

// Calibration returns the minimum, center and maximum raw readings
func (p *AIPin) Calibration() (min, center, max uint16) {
	return p.min, p.center, p.max
}

// Convert maps a raw reading to [-256, 256]
func (p *AIPin) Convert(raw uint16) int16 {
	r := int32(raw)
	if p.reversed {
		r = AnalogMax - r
	}
	r += int32(p.trim)

	lo, mid, hi := int32(p.min), int32(p.center), int32(p.max)
	if r <= lo {
		return NormalMin
	}
	if r >= hi {
		return NormalMax
	}

	dist, span := r-mid, hi-mid
	if r < mid {
		dist, span = mid-r, mid-lo
	}
	if dist == 0 || span == 0 {
		return 0
	}
	out := clamp32(dist*256/span, 0, NormalMax)
	if r < mid {
		return -out
	}
	return out
}

// Read samples the reader and writes the input. A failed read leaves the
// input unchanged.
func (p *AIPin) Read() (int16, error) {
	raw, err := p.reader.Read()
	if err != nil {
		return p.dst.read(p.bus), err
	}
	return p.dst.write(p.bus, p.Convert(raw)), nil
}

// Apply reads the axis
func (p *AIPin) Apply() { _, _ = p.Read() }

// Calibration limits
const (
	CalibrationMinimumBand   = 256  // raw counts between min and max
	CalibrationMinimumCenter = 16   // raw counts around the center
	CalibrationCenterTime    = 3000 // ms the stick must rest at center
)

// ErrCalibrationActive is returned when reconfiguring a running calibrator
var ErrCalibrationActive = errors.New("calibration in progress")

// AIPinCalibrator finds the min, center and max of an analog axis. The
// user moves the stick to both ends, then lets it rest at the center until
// IsDone reports true.
type AIPinCalibrator struct {
	pin   *AIPin
	clock Clock

	active  bool
	min     uint16
	max     uint16
	center  uint16
	started bool
	start   int64 // ms
}

// NewAIPinCalibrator returns an idle calibrator for pin
func NewAIPinCalibrator(pin *AIPin, clock Clock) *AIPinCalibrator {
	if clock == nil {
		clock = SystemClock{}
	}
	return &AIPinCalibrator{pin: pin, clock: clock}
}

// SetAIPin selects the axis to calibrate
func (c *AIPinCalibrator) SetAIPin(pin *AIPin) error {
	if c.active {
		return ErrCalibrationActive
	}
	c.pin = pin
	return nil
}

// AIPin returns the axis being calibrated
func (c *AIPinCalibrator) AIPin() *AIPin { return c.pin }

// Active reports whether a calibration is running
func (c *AIPinCalibrator) Active() bool { return c.active }

// Start begins a calibration
func (c *AIPinCalibrator) Start() error {
	if c.active {
		return ErrCalibrationActive
	}
	if c.pin == nil {
		return errors.New("no analog pin to calibrate")
	}
	c.min, c.max, c.center = AnalogMax, AnalogMin, 0
	c.started = false
	c.active = true
	return nil
}

// Update takes one sample
func (c *AIPinCalibrator) Update() error {
	if !c.active {
		return nil
	}
	raw, err := c.pin.reader.Read()
	if err != nil {
		return err
	}
	c.min = min(c.min, raw)
	c.max = max(c.max, raw)

	if !c.started {
		c.center = uint16((uint32(c.min) + uint32(c.max)) / 2)
		c.start = c.clock.Now().UnixMilli()
		c.started = true
	}

	r, mid := int32(raw), int32(c.center)
	if c.min < c.max && c.max-c.min >= CalibrationMinimumBand &&
		r < mid+CalibrationMinimumCenter && r > mid-CalibrationMinimumCenter {
		c.center = uint16((uint32(c.center)*3 + uint32(raw)) / 4)
	} else {
		c.started = false
	}
	return nil
}

// Values returns the current min, center and max estimates
func (c *AIPinCalibrator) Values() (min, center, max uint16) {
	return c.min, c.center, c.max
}

// IsDone reports whether the stick has rested at the center long enough
func (c *AIPinCalibrator) IsDone() bool {
	return c.active && c.started && c.clock.Now().UnixMilli()-c.start >= CalibrationCenterTime
}

// Stop ends the calibration, applying the result to the pin when done
func (c *AIPinCalibrator) Stop() error {
	defer func() { c.active = false }()
	if c.IsDone() {
		return c.pin.SetCalibration(c.min, c.center, c.max)
	}
	return nil
}

// GimbalMode is the stick layout of a transmitter
type GimbalMode uint8

const (
	GimbalMode1 GimbalMode = iota + 1 // elevator and rudder left, throttle and aileron right
	GimbalMode2                       // throttle and rudder left
	GimbalMode3                       // elevator and aileron left
	GimbalMode4                       // throttle and aileron left
)

// Gimbal is a two axis stick. The stick mode and side decide which inputs
// its axes drive.
type Gimbal struct {
	hor  *AIPin
	ver  *AIPin
	left bool
	mode GimbalMode
}

// NewGimbal returns a gimbal reading the given axes
func NewGimbal(bus *SignalBus, horizontal, vertical AnalogReader, left bool, mode GimbalMode) *Gimbal {
	g := &Gimbal{
		hor:  NewAIPin(bus, horizontal, InputNone),
		ver:  NewAIPin(bus, vertical, InputNone),
		left: left,
		mode: mode,
	}
	g.updateLayout()
	return g
}

// SetLeft selects the left (true) or right stick
func (g *Gimbal) SetLeft(left bool) {
	g.left = left
	g.updateLayout()
}

// Left reports whether this is the left stick
func (g *Gimbal) Left() bool { return g.left }

// SetMode selects the stick mode, 1 to 4
func (g *Gimbal) SetMode(m GimbalMode) error {
	if m < GimbalMode1 || m > GimbalMode4 {
		return &RangeError{Param: "gimbal mode", Value: int(m), Min: int(GimbalMode1), Max: int(GimbalMode4)}
	}
	g.mode = m
	g.updateLayout()
	return nil
}

// Mode returns the stick mode
func (g *Gimbal) Mode() GimbalMode { return g.mode }

// Horizontal returns the horizontal axis
func (g *Gimbal) Horizontal() *AIPin { return g.hor }

// Vertical returns the vertical axis
func (g *Gimbal) Vertical() *AIPin { return g.ver }

// Read samples both axes
func (g *Gimbal) Read() error {
	_, herr := g.hor.Read()
	_, verr := g.ver.Read()
	return errors.Join(herr, verr)
}

// Apply reads both axes
func (g *Gimbal) Apply() { _ = g.Read() }

func (g *Gimbal) updateLayout() {
	rudderLeft := g.mode == GimbalMode1 || g.mode == GimbalMode2
	elevatorLeft := g.mode == GimbalMode1 || g.mode == GimbalMode3

	if g.left == rudderLeft {
		g.hor.dst.index = InputRUD
	} else {
		g.hor.dst.index = InputAIL
	}
	if g.left == elevatorLeft {
		g.ver.dst.index = InputELE
	} else {
		g.ver.dst.index = InputTHR
	}
}
