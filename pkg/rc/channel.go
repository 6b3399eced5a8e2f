// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package rc

// Channel is the last stage for a servo: it takes an output, applies subtrim,
// endpoints, reverse and servo speed, and writes a pulse width.
type Channel struct {
	bus   *SignalBus
	src   OutputPort
	dst   OutputChannelPort
	timer ticker

	reversed bool
	epMin    uint8
	epMax    uint8
	subtrim  int8
	speed    uint8

	last    int16
	started bool
}

// NewChannel returns a channel with 100% endpoints and no slew limit
func NewChannel(bus *SignalBus, clock Clock, source Output, destination OutputChannel) *Channel {
	return &Channel{
		bus:   bus,
		src:   OutputPort{index: source},
		dst:   OutputChannelPort{index: destination},
		timer: newTicker(clock),
		epMin: 100,
		epMax: 100,
	}
}

// SetSource selects the output to read
func (c *Channel) SetSource(o Output) error { return c.src.set("channel source", o) }

// Source returns the output being read
func (c *Channel) Source() Output { return c.src.index }

// SetDestination selects the channel to write
func (c *Channel) SetDestination(ch OutputChannel) error { return c.dst.set("channel destination", ch) }

// Destination returns the channel being written
func (c *Channel) Destination() OutputChannel { return c.dst.index }

// SetReverse flips the servo direction
func (c *Channel) SetReverse(reversed bool) { c.reversed = reversed }

// Reversed reports whether the servo direction is flipped
func (c *Channel) Reversed() bool { return c.reversed }

// SetSubtrim sets the center shift, [-100, 100]
func (c *Channel) SetSubtrim(trim int8) error {
	if err := checkRange("subtrim", int(trim), RateMin, RateMax); err != nil {
		return err
	}
	c.subtrim = trim
	return nil
}

// Subtrim returns the center shift
func (c *Channel) Subtrim() int8 { return c.subtrim }

// SetEndPointMin sets the negative travel limit, [0, 140]
func (c *Channel) SetEndPointMin(ep uint8) error {
	if err := checkRange("endpoint min", int(ep), 0, 140); err != nil {
		return err
	}
	c.epMin = ep
	return nil
}

// EndPointMin returns the negative travel limit
func (c *Channel) EndPointMin() uint8 { return c.epMin }

// SetEndPointMax sets the positive travel limit, [0, 140]
func (c *Channel) SetEndPointMax(ep uint8) error {
	if err := checkRange("endpoint max", int(ep), 0, 140); err != nil {
		return err
	}
	c.epMax = ep
	return nil
}

// EndPointMax returns the positive travel limit
func (c *Channel) EndPointMax() uint8 { return c.epMax }

// SetSpeed sets the servo slew time, [0, 100]; speed s moves full travel in
// s*100 ms. Zero disables slew limiting.
func (c *Channel) SetSpeed(speed uint8) error {
	if err := checkRange("speed", int(speed), 0, 100); err != nil {
		return err
	}
	c.speed = speed
	c.timer.reset()
	return nil
}

// Speed returns the servo slew time
func (c *Channel) Speed() uint8 { return c.speed }

// Process converts an output value into a pulse width and stores it
func (c *Channel) Process(v int16) uint16 {
	switch v {
	case OutMax:
		return c.write(c.bus.NormalizedToMicros(NormalMax))
	case OutMin:
		return c.write(c.bus.NormalizedToMicros(NormalMin))
	}

	x := int32(Clamp140(v)) + int32(c.subtrim)
	ep := c.epMin
	if x > 0 {
		ep = c.epMax
	}
	mag := x
	if mag < 0 {
		mag = -mag
	}
	mag = mag * int32(ep) / 140
	if mag > NormalMax {
		mag = NormalMax
	}
	if x < 0 {
		mag = -mag
	}
	if c.reversed {
		mag = -mag
	}
	return c.write(c.bus.NormalizedToMicros(c.slew(int16(mag))))
}

// Apply converts the source output
func (c *Channel) Apply() {
	c.Process(c.src.read(c.bus))
}

func (c *Channel) write(us uint16) uint16 {
	c.bus.SetOutputChannel(c.dst.index, us)
	return us
}

// slew limits how far the servo moves per update. Full travel (512) takes
// speed*100 ms.
func (c *Channel) slew(target int16) int16 {
	if c.speed == 0 || target == c.last || !c.started {
		c.last = target
		c.started = true
		c.timer.reset()
		return target
	}

	travel := c.timer.peek() * 128 / (int32(c.speed) * 25)
	if travel == 0 {
		// not enough time for a single step yet, keep accumulating
		return c.last
	}
	c.timer.reset()

	diff := int32(target) - int32(c.last)
	switch {
	case diff < 0 && -diff <= travel, diff > 0 && diff <= travel:
		c.last = target
	case diff < 0:
		c.last -= int16(travel)
	default:
		c.last += int16(travel)
	}
	return c.last
}
