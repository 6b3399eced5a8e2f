// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package rc

// CurvePoints is the number of points of a Curve
const CurvePoints = 9

// Factory curve shapes
var (
	CurveLinear     = [CurvePoints]int16{-256, -192, -128, -64, 0, 64, 128, 192, 256}
	CurveHalfLinear = [CurvePoints]int16{0, 32, 64, 96, 128, 160, 192, 224, 256}
	CurveV          = [CurvePoints]int16{256, 192, 128, 64, 0, 64, 128, 192, 256}
)

// Curve is a nine point piecewise linear transfer function over [-256, 256]
// with low, center and high trims. Each trim bends the points nearest to it
// and fades out linearly over four points.
type Curve struct {
	bus *SignalBus
	src InputPort
	dst InputPort

	points     [CurvePoints]int16
	lowTrim    int8
	centerTrim int8
	highTrim   int8
}

// NewCurve returns a linear curve reading source and writing destination
func NewCurve(bus *SignalBus, source, destination Input) *Curve {
	return &Curve{
		bus:    bus,
		src:    InputPort{index: source},
		dst:    InputPort{index: destination},
		points: CurveLinear,
	}
}

// SetSource selects the input the curve reads
func (c *Curve) SetSource(i Input) error { return c.src.set("curve source", i) }

// Source returns the input the curve reads
func (c *Curve) Source() Input { return c.src.index }

// SetDestination selects the input the curve writes
func (c *Curve) SetDestination(i Input) error { return c.dst.set("curve destination", i) }

// Destination returns the input the curve writes
func (c *Curve) Destination() Input { return c.dst.index }

// SetPoints replaces every point of the curve
func (c *Curve) SetPoints(points [CurvePoints]int16) error {
	for _, p := range points {
		if err := checkRange("curve point", int(p), NormalMin, NormalMax); err != nil {
			return err
		}
	}
	c.points = points
	return nil
}

// SetPoint changes a single point, [-256, 256]
func (c *Curve) SetPoint(idx int, value int16) error {
	if err := checkRange("curve point index", idx, 0, CurvePoints-1); err != nil {
		return err
	}
	if err := checkRange("curve point", int(value), NormalMin, NormalMax); err != nil {
		return err
	}
	c.points[idx] = value
	return nil
}

// Point returns an untrimmed point
func (c *Curve) Point(idx int) int16 {
	if idx < 0 || idx >= CurvePoints {
		return 0
	}
	return c.points[idx]
}

// Points returns the untrimmed points
func (c *Curve) Points() [CurvePoints]int16 { return c.points }

// SetLowTrim sets the trim of the low end, [-100, 100]
func (c *Curve) SetLowTrim(trim int8) error {
	if err := checkRange("low trim", int(trim), RateMin, RateMax); err != nil {
		return err
	}
	c.lowTrim = trim
	return nil
}

// LowTrim returns the trim of the low end
func (c *Curve) LowTrim() int8 { return c.lowTrim }

// SetCenterTrim sets the trim of the center, [-100, 100]
func (c *Curve) SetCenterTrim(trim int8) error {
	if err := checkRange("center trim", int(trim), RateMin, RateMax); err != nil {
		return err
	}
	c.centerTrim = trim
	return nil
}

// CenterTrim returns the trim of the center
func (c *Curve) CenterTrim() int8 { return c.centerTrim }

// SetHighTrim sets the trim of the high end, [-100, 100]
func (c *Curve) SetHighTrim(trim int8) error {
	if err := checkRange("high trim", int(trim), RateMin, RateMax); err != nil {
		return err
	}
	c.highTrim = trim
	return nil
}

// HighTrim returns the trim of the high end
func (c *Curve) HighTrim() int8 { return c.highTrim }

// SetTrims sets all three trims at once
func (c *Curve) SetTrims(low, center, high int8) error {
	for _, t := range []int8{low, center, high} {
		if err := checkRange("trim", int(t), RateMin, RateMax); err != nil {
			return err
		}
	}
	c.lowTrim, c.centerTrim, c.highTrim = low, center, high
	return nil
}

// PointWithTrim returns point idx with the trims applied
func (c *Curve) PointWithTrim(idx int) int16 {
	if idx > CurvePoints-1 {
		idx = CurvePoints - 1
	}
	if idx < 0 {
		idx = 0
	}
	i := int32(idx)
	p := int32(c.points[idx])
	if idx < 4 {
		p += int32(c.lowTrim) * (4 - i) / 4
		p += int32(c.centerTrim) * i / 4
	} else {
		p += int32(c.highTrim) * (i - 4) / 4
		p += int32(c.centerTrim) * (8 - i) / 4
	}
	return clamp32(p, NormalMin, NormalMax)
}

// Process maps a value in [-256, 256] through the curve
func (c *Curve) Process(v int16) int16 {
	x := int32(ClampNormalized(v)) + 256
	idx := int(x >> 6)
	rem := x & 63
	low := int32(c.PointWithTrim(idx))
	high := int32(c.PointWithTrim(idx + 1))
	return int16((low*(64-rem) + high*rem) >> 6)
}

// Apply reads the source input and writes the curved value to the destination
func (c *Curve) Apply() {
	if !c.src.Connected() {
		return
	}
	c.dst.write(c.bus, c.Process(c.src.read(c.bus)))
}
