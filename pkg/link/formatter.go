// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package link

import (
	"fmt"
	"strings"
	"time"

	"github.com/Thermoquad/zenith/pkg/rc"
)

// FormatFrame renders a frame as a header line plus one line of fields
func FormatFrame(f *Frame) string {
	header := fmt.Sprintf("[%s] %s (0x%02X) addr=%016X len=%d\n",
		f.Timestamp().Format("15:04:05.000"), MessageName(f.Type()), f.Type(), f.Address(), f.Length())
	if err := f.ParseError(); err != nil {
		return header + fmt.Sprintf("  (undecodable: %v)\n", err)
	}
	return header + FormatFields(f)
}

// MessageName returns the display name of a message type
func MessageName(msgType uint8) string {
	switch msgType {
	case MsgChannels:
		return "CHANNELS"
	case MsgInputs:
		return "INPUTS"
	case MsgSwitches:
		return "SWITCHES"
	case MsgTimer:
		return "TIMER"
	case MsgTelemetry:
		return "TELEMETRY"
	case MsgPing:
		return "PING"
	case MsgPong:
		return "PONG"
	case MsgSelectProfile:
		return "SELECT_PROFILE"
	default:
		return "UNKNOWN"
	}
}

// FormatFields renders the fields of a frame by message type
func FormatFields(f *Frame) string {
	switch f.Type() {
	case MsgPing:
		return "  (no payload)\n"

	case MsgChannels:
		us, err := Channels(f)
		if err != nil {
			return fmt.Sprintf("  (%v)\n", err)
		}
		parts := make([]string, len(us))
		for i, v := range us {
			parts[i] = fmt.Sprintf("CH%d=%d", i+1, v)
		}
		return "  " + strings.Join(parts, " ") + "\n"

	case MsgInputs:
		vals, err := Inputs(f)
		if err != nil {
			return fmt.Sprintf("  (%v)\n", err)
		}
		parts := make([]string, len(vals))
		for i, v := range vals {
			parts[i] = fmt.Sprintf("%s=%s", rc.Input(i), formatNormalized(v))
		}
		return "  " + strings.Join(parts, " ") + "\n"

	case MsgSwitches:
		states, err := Switches(f)
		if err != nil {
			return fmt.Sprintf("  (%v)\n", err)
		}
		parts := make([]string, 0, len(states))
		for i, s := range states {
			if s == rc.SwitchDisconnected {
				continue
			}
			parts = append(parts, fmt.Sprintf("%s=%s", rc.Switch(i), s))
		}
		if len(parts) == 0 {
			return "  (no switches connected)\n"
		}
		return "  " + strings.Join(parts, " ") + "\n"

	case MsgTimer:
		st, err := Timer(f)
		if err != nil {
			return fmt.Sprintf("  (%v)\n", err)
		}
		state := "stopped"
		if st.Running {
			state = "running"
		}
		return fmt.Sprintf("  Timer: %s of %s, %s\n", formatClock(st.Seconds), formatClock(int32(st.Target)), state)

	case MsgTelemetry:
		t, err := TelemetryOf(f)
		if err != nil {
			return fmt.Sprintf("  (%v)\n", err)
		}
		return fmt.Sprintf("  A1=%d A2=%d RSSI=%d\n", t.A1, t.A2, t.RSSI)

	case MsgPong:
		up, err := Uptime(f)
		if err != nil {
			return fmt.Sprintf("  (%v)\n", err)
		}
		return fmt.Sprintf("  Uptime: %s\n", time.Duration(up)*time.Millisecond)

	case MsgSelectProfile:
		id, err := Profile(f)
		if err != nil {
			return fmt.Sprintf("  (%v)\n", err)
		}
		return fmt.Sprintf("  Profile: %d\n", id)
	}
	return fmt.Sprintf("  %v\n", f.Fields())
}

// formatNormalized shows sentinels by name
func formatNormalized(v int16) string {
	switch v {
	case rc.OutMax:
		return "MAX"
	case rc.OutMin:
		return "MIN"
	}
	return fmt.Sprintf("%d", v)
}

// formatClock renders seconds as m:ss, with a sign for negative values
func formatClock(secs int32) string {
	sign := ""
	if secs < 0 {
		sign = "-"
		secs = -secs
	}
	return fmt.Sprintf("%s%d:%02d", sign, secs/60, secs%60)
}
