// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package frsky

import (
	"time"

	"github.com/Thermoquad/zenith/pkg/rc"
)

// Level is an alarm severity
type Level int

const (
	LevelOK Level = iota
	LevelOrange
	LevelRed
)

func (l Level) String() string {
	switch l {
	case LevelOK:
		return "ok"
	case LevelOrange:
		return "orange"
	case LevelRed:
		return "red"
	}
	return "unknown"
}

// Thresholds are the warning levels of the transmitter battery and the
// downlink signal
type Thresholds struct {
	CellCount     uint8
	VoltOrange    uint8 // volts
	VoltRed       uint8 // volts
	RSSIOrange    uint8 // percent
	RSSIRed       uint8 // percent
	CheckInterval time.Duration
}

// DefaultThresholds returns the levels for a 4-cell pack
func DefaultThresholds() Thresholds {
	return Thresholds{
		CellCount:     4,
		VoltOrange:    12,
		VoltRed:       11,
		RSSIOrange:    40,
		RSSIRed:       30,
		CheckInterval: 10 * time.Second,
	}
}

// RSSIPercent scales a raw RSSI byte to percent
func RSSIPercent(raw uint8) uint8 {
	return uint8(uint16(raw) * 100 / 255)
}

// RSSILevel grades a raw RSSI byte
func (t Thresholds) RSSILevel(raw uint8) Level {
	p := RSSIPercent(raw)
	switch {
	case p <= t.RSSIRed:
		return LevelRed
	case p <= t.RSSIOrange:
		return LevelOrange
	}
	return LevelOK
}

// DecivoltsFromADC converts a 10-bit reading of the 0-15V divider to
// tenths of a volt
func DecivoltsFromADC(raw uint16) uint16 {
	if raw > 1023 {
		raw = 1023
	}
	return uint16(uint32(raw) * 150 / 1023)
}

// VoltageLevel grades the transmitter battery voltage, in tenths of a volt
func (t Thresholds) VoltageLevel(decivolts uint16) Level {
	switch {
	case decivolts <= uint16(t.VoltRed)*10:
		return LevelRed
	case decivolts <= uint16(t.VoltOrange)*10:
		return LevelOrange
	}
	return LevelOK
}

// Monitor tracks the latest frame and whether the downlink is alive
type Monitor struct {
	dec        *Decoder
	clock      rc.Clock
	thresholds Thresholds

	last     Frame
	lastSeen time.Time
	seen     bool
}

// NewMonitor returns a monitor that has not seen a frame yet
func NewMonitor(clock rc.Clock, t Thresholds) *Monitor {
	if clock == nil {
		clock = rc.SystemClock{}
	}
	return &Monitor{dec: NewDecoder(), clock: clock, thresholds: t}
}

// Write feeds raw telemetry bytes. It never fails, so a Monitor can sit
// behind an io.Writer.
func (m *Monitor) Write(p []byte) (int, error) {
	frames := m.dec.Decode(p)
	if len(frames) > 0 {
		m.last = frames[len(frames)-1]
		m.lastSeen = m.clock.Now()
		m.seen = true
	}
	return len(p), nil
}

// Last returns the most recent frame
func (m *Monitor) Last() Frame { return m.last }

// Alive reports whether a frame arrived within the check interval
func (m *Monitor) Alive() bool {
	return m.seen && m.clock.Now().Sub(m.lastSeen) <= m.thresholds.CheckInterval
}

// RSSILevel grades the receiver side RSSI. A dead link is red.
func (m *Monitor) RSSILevel() Level {
	if !m.Alive() {
		return LevelRed
	}
	return m.thresholds.RSSILevel(m.last.RSSIRx)
}
