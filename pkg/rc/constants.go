// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package rc implements the signal pipeline of a radio-control transmitter.
//
// Stick, switch and trainer samples enter a SignalBus as normalized integers,
// an ordered Pipeline of stages transforms and mixes them, and the result is
// drained from the bus as per-channel servo pulse widths. All arithmetic is
// fixed-point integer math.
package rc

// Normalized value limits
const (
	NormalMin = -256
	NormalMax = 256

	// Extended range used where dual-rates or mixing can exceed full deflection
	Normal140Min = -358
	Normal140Max = 358
)

// Output sentinels: force an absolute extreme and ignore endpoint limiting
const (
	OutMax = 32767
	OutMin = -32768
)

// Servo pulse width defaults, in microseconds
const (
	DefaultCenter = 1500
	DefaultTravel = 700

	MicrosMin = 750
	MicrosMax = 2250
)

// Mix percentage limits
const (
	RateMin = -100
	RateMax = 100
)

// MaxChannels is the number of input and output channels carried by a bus
const MaxChannels = 18
