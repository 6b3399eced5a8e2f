// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package rc

// GyroType selects how a gyro reads its gain channel
type GyroType uint8

const (
	GyroNormal GyroType = iota // gain around the channel center
	GyroAVCS                   // sign selects heading hold (AVCS) or rate mode
)

// GyroMode is the flight mode of an AVCS gyro
type GyroMode uint8

const (
	GyroModeNormal GyroMode = iota
	GyroModeAVCS
)

// Gyro writes a gyro gain channel
type Gyro struct {
	bus  *SignalBus
	dst  OutputPort
	kind GyroType
	mode GyroMode
	gain uint8
}

// NewGyro returns a normal gyro at gain 0 writing destination
func NewGyro(bus *SignalBus, destination Output) *Gyro {
	return &Gyro{bus: bus, dst: OutputPort{index: destination}}
}

// SetType selects the gyro type
func (g *Gyro) SetType(t GyroType) error {
	if t > GyroAVCS {
		return &RangeError{Param: "gyro type", Value: int(t), Min: 0, Max: int(GyroAVCS)}
	}
	g.kind = t
	return nil
}

// Type returns the gyro type
func (g *Gyro) Type() GyroType { return g.kind }

// SetMode selects the flight mode of an AVCS gyro
func (g *Gyro) SetMode(m GyroMode) error {
	if m > GyroModeAVCS {
		return &RangeError{Param: "gyro mode", Value: int(m), Min: 0, Max: int(GyroModeAVCS)}
	}
	g.mode = m
	return nil
}

// Mode returns the flight mode of an AVCS gyro
func (g *Gyro) Mode() GyroMode { return g.mode }

// SetGain sets the gain, [0, 100]
func (g *Gyro) SetGain(gain uint8) error {
	if err := checkRange("gyro gain", int(gain), 0, 100); err != nil {
		return err
	}
	g.gain = gain
	return nil
}

// Gain returns the gain
func (g *Gyro) Gain() uint8 { return g.gain }

// Value returns the gain channel value
func (g *Gyro) Value() int16 {
	v := int32(g.gain)
	if g.kind == GyroAVCS {
		if g.mode == GyroModeNormal {
			v = -v
		}
		return int16(v * 256 / 100)
	}
	return int16((v - 50) * 512 / 100)
}

// Apply writes the gain channel
func (g *Gyro) Apply() {
	g.dst.write(g.bus, g.Value())
}
