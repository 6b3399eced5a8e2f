// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package link

import (
	"fmt"

	"github.com/Thermoquad/zenith/pkg/rc"
)

// Message builders create frames ready for Encode. Readers undo them and
// fail on frames of another type or with missing fields.

// TimerStatus is the flight timer as carried by MsgTimer
type TimerStatus struct {
	Seconds int32
	Target  uint16
	Running bool
}

// Telemetry is the downlink summary carried by MsgTelemetry
type Telemetry struct {
	A1   uint8
	A2   uint8
	RSSI uint8
}

// NewChannelsFrame creates a CHANNELS frame with the first count output
// channel pulse widths of the snapshot.
func NewChannelsFrame(address uint64, snap rc.Snapshot, count int) *Frame {
	count = min(max(count, 0), rc.MaxChannels)
	us := make([]uint64, count)
	for i := range us {
		us[i] = uint64(snap.OutputChannels[i])
	}
	return NewFrame(address, MsgChannels, map[int]interface{}{0: us})
}

// NewInputsFrame creates an INPUTS frame with the normalized Input store
func NewInputsFrame(address uint64, snap rc.Snapshot) *Frame {
	vals := make([]int64, len(snap.Inputs))
	for i, v := range snap.Inputs {
		vals[i] = int64(v)
	}
	return NewFrame(address, MsgInputs, map[int]interface{}{0: vals})
}

// NewSwitchesFrame creates a SWITCHES frame with one state per switch
func NewSwitchesFrame(address uint64, snap rc.Snapshot) *Frame {
	states := make([]uint64, len(snap.Switches))
	for i, s := range snap.Switches {
		states[i] = uint64(s)
	}
	return NewFrame(address, MsgSwitches, map[int]interface{}{0: states})
}

// NewTimerFrame creates a TIMER frame
func NewTimerFrame(address uint64, st TimerStatus) *Frame {
	return NewFrame(address, MsgTimer, map[int]interface{}{
		0: int64(st.Seconds),
		1: uint64(st.Target),
		2: st.Running,
	})
}

// NewTelemetryFrame creates a TELEMETRY frame
func NewTelemetryFrame(address uint64, t Telemetry) *Frame {
	return NewFrame(address, MsgTelemetry, map[int]interface{}{
		0: uint64(t.A1),
		1: uint64(t.A2),
		2: uint64(t.RSSI),
	})
}

// NewPing creates a PING frame. The peer answers with PONG.
func NewPing(address uint64) *Frame {
	return NewFrame(address, MsgPing, nil)
}

// NewPong creates a PONG frame carrying the sender uptime in milliseconds
func NewPong(address uint64, uptimeMs uint64) *Frame {
	return NewFrame(address, MsgPong, map[int]interface{}{0: uptimeMs})
}

// NewSelectProfile creates a SELECT_PROFILE frame
func NewSelectProfile(address uint64, profile uint8) *Frame {
	return NewFrame(address, MsgSelectProfile, map[int]interface{}{0: uint64(profile)})
}

func expectType(f *Frame, msgType uint8) error {
	if err := f.ParseError(); err != nil {
		return err
	}
	if f.Type() != msgType {
		return fmt.Errorf("expected %s, got %s", MessageName(msgType), MessageName(f.Type()))
	}
	return nil
}

// Channels reads the pulse widths of a CHANNELS frame
func Channels(f *Frame) ([]uint16, error) {
	if err := expectType(f, MsgChannels); err != nil {
		return nil, err
	}
	vals, ok := FieldInts(f.Fields(), 0)
	if !ok {
		return nil, fmt.Errorf("CHANNELS: missing pulse array")
	}
	if len(vals) > rc.MaxChannels {
		return nil, fmt.Errorf("CHANNELS: %d channels (max %d)", len(vals), rc.MaxChannels)
	}
	out := make([]uint16, len(vals))
	for i, v := range vals {
		if v < 0 || v > 0xFFFF {
			return nil, fmt.Errorf("CHANNELS: channel %d pulse %d out of range", i+1, v)
		}
		out[i] = uint16(v)
	}
	return out, nil
}

// Inputs reads the normalized values of an INPUTS frame
func Inputs(f *Frame) ([]int16, error) {
	if err := expectType(f, MsgInputs); err != nil {
		return nil, err
	}
	vals, ok := FieldInts(f.Fields(), 0)
	if !ok {
		return nil, fmt.Errorf("INPUTS: missing value array")
	}
	out := make([]int16, len(vals))
	for i, v := range vals {
		if v < rc.OutMin || v > rc.OutMax {
			return nil, fmt.Errorf("INPUTS: value %d does not fit int16", v)
		}
		out[i] = int16(v)
	}
	return out, nil
}

// Switches reads the states of a SWITCHES frame
func Switches(f *Frame) ([]rc.SwitchState, error) {
	if err := expectType(f, MsgSwitches); err != nil {
		return nil, err
	}
	vals, ok := FieldInts(f.Fields(), 0)
	if !ok {
		return nil, fmt.Errorf("SWITCHES: missing state array")
	}
	out := make([]rc.SwitchState, len(vals))
	for i, v := range vals {
		if v < 0 || v >= int64(rc.SwitchStateCount) {
			return nil, fmt.Errorf("SWITCHES: switch %c state %d unknown", 'A'+i, v)
		}
		out[i] = rc.SwitchState(v)
	}
	return out, nil
}

// Timer reads a TIMER frame
func Timer(f *Frame) (TimerStatus, error) {
	if err := expectType(f, MsgTimer); err != nil {
		return TimerStatus{}, err
	}
	m := f.Fields()
	secs, ok1 := FieldInt(m, 0)
	target, ok2 := FieldUint(m, 1)
	running, ok3 := FieldBool(m, 2)
	if !ok1 || !ok2 || !ok3 {
		return TimerStatus{}, fmt.Errorf("TIMER: missing fields")
	}
	return TimerStatus{Seconds: int32(secs), Target: uint16(target), Running: running}, nil
}

// TelemetryOf reads a TELEMETRY frame
func TelemetryOf(f *Frame) (Telemetry, error) {
	if err := expectType(f, MsgTelemetry); err != nil {
		return Telemetry{}, err
	}
	m := f.Fields()
	var vals [3]uint8
	for k := range vals {
		v, ok := FieldUint(m, k)
		if !ok || v > 0xFF {
			return Telemetry{}, fmt.Errorf("TELEMETRY: field %d missing or out of range", k)
		}
		vals[k] = uint8(v)
	}
	return Telemetry{A1: vals[0], A2: vals[1], RSSI: vals[2]}, nil
}

// Uptime reads the uptime of a PONG frame
func Uptime(f *Frame) (uint64, error) {
	if err := expectType(f, MsgPong); err != nil {
		return 0, err
	}
	v, ok := FieldUint(f.Fields(), 0)
	if !ok {
		return 0, fmt.Errorf("PONG: missing uptime")
	}
	return v, nil
}

// Profile reads the profile id of a SELECT_PROFILE frame
func Profile(f *Frame) (uint8, error) {
	if err := expectType(f, MsgSelectProfile); err != nil {
		return 0, err
	}
	v, ok := FieldUint(f.Fields(), 0)
	if !ok || v > 0xFF {
		return 0, fmt.Errorf("SELECT_PROFILE: missing or invalid profile id")
	}
	return uint8(v), nil
}
