// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package rc

import "fmt"

// Input indexes the stick and control values of a bus
type Input int8

const (
	InputAIL Input = iota // Aileron
	InputELE              // Elevator
	InputTHR              // Throttle
	InputRUD              // Rudder
	InputFLP              // Flaps
	InputBRK              // Airbrake
	InputPIT              // Pitch

	InputCount
	InputNone Input = -1 // Not connected
)

var inputNames = [InputCount]string{"AIL", "ELE", "THR", "RUD", "FLP", "BRK", "PIT"}

func (i Input) String() string {
	if i >= 0 && i < InputCount {
		return inputNames[i]
	}
	return "None"
}

// Output indexes the per-surface values produced by the mixers
type Output int8

const (
	OutputAIL1 Output = iota
	OutputAIL2
	OutputAIL3
	OutputAIL4
	OutputELE1
	OutputELE2
	OutputRUD1
	OutputRUD2
	OutputFLP1
	OutputFLP2
	OutputFLP3
	OutputFLP4
	OutputBRK1
	OutputBRK2
	OutputTHR1
	OutputTHR2
	OutputTHR3
	OutputTHR4
	OutputPIT
	OutputGYR1
	OutputGYR2
	OutputGYR3
	OutputGEAR
	OutputDOOR
	OutputGOV

	OutputCount
	OutputNone Output = -1
)

var outputNames = [OutputCount]string{
	"AIL1", "AIL2", "AIL3", "AIL4",
	"ELE1", "ELE2",
	"RUD1", "RUD2",
	"FLP1", "FLP2", "FLP3", "FLP4",
	"BRK1", "BRK2",
	"THR1", "THR2", "THR3", "THR4",
	"PIT",
	"GYR1", "GYR2", "GYR3",
	"GEAR", "DOOR", "GOV",
}

func (o Output) String() string {
	if o >= 0 && o < OutputCount {
		return outputNames[o]
	}
	return "None"
}

// InputChannel indexes received pulse widths (trainer port, PPM in).
// Channels are zero based; InputChannel(0) is channel 1.
type InputChannel int8

// InputChannelNone marks an unconnected input channel
const InputChannelNone InputChannel = -1

func (c InputChannel) String() string {
	if c >= 0 && c < MaxChannels {
		return fmt.Sprintf("CH%d", int(c)+1)
	}
	return "None"
}

// OutputChannel indexes transmitted pulse widths.
// Channels are zero based; OutputChannel(0) is channel 1.
type OutputChannel int8

// OutputChannelNone marks an unconnected output channel
const OutputChannelNone OutputChannel = -1

func (c OutputChannel) String() string {
	if c >= 0 && c < MaxChannels {
		return fmt.Sprintf("CH%d", int(c)+1)
	}
	return "None"
}

// Switch indexes the switch store
type Switch int8

const (
	SwitchA Switch = iota
	SwitchB
	SwitchC
	SwitchD
	SwitchE
	SwitchF
	SwitchG
	SwitchH

	SwitchCount
	SwitchNone Switch = -1
)

func (s Switch) String() string {
	if s >= 0 && s < SwitchCount {
		return string(rune('A' + s))
	}
	return "None"
}

// SwitchState is the position of a switch
type SwitchState uint8

const (
	SwitchUp SwitchState = iota
	SwitchCenter
	SwitchDown
	SwitchDisconnected

	SwitchStateCount
)

var switchStateNames = [SwitchStateCount]string{"Up", "Center", "Down", "Disconnected"}

func (s SwitchState) String() string {
	if s < SwitchStateCount {
		return switchStateNames[s]
	}
	return fmt.Sprintf("SwitchState(%d)", uint8(s))
}

// SwitchType is the physical kind of a switch
type SwitchType uint8

const (
	SwitchTypeDisconnected SwitchType = iota
	SwitchTypeBiState
	SwitchTypeTriState
	SwitchTypeMomentary

	SwitchTypeCount
)

var switchTypeNames = [SwitchTypeCount]string{"Disconnected", "BiState", "TriState", "Momentary"}

func (t SwitchType) String() string {
	if t < SwitchTypeCount {
		return switchTypeNames[t]
	}
	return fmt.Sprintf("SwitchType(%d)", uint8(t))
}

// ParseInput returns the Input named s ("AIL", "THR", ...). "None" and the
// empty string map to InputNone.
func ParseInput(s string) (Input, error) {
	if s == "" || s == "None" {
		return InputNone, nil
	}
	for i, name := range inputNames {
		if name == s {
			return Input(i), nil
		}
	}
	return InputNone, fmt.Errorf("unknown input %q", s)
}

// ParseOutput returns the Output named s ("AIL1", "GEAR", ...)
func ParseOutput(s string) (Output, error) {
	if s == "" || s == "None" {
		return OutputNone, nil
	}
	for i, name := range outputNames {
		if name == s {
			return Output(i), nil
		}
	}
	return OutputNone, fmt.Errorf("unknown output %q", s)
}

// ParseSwitch returns the Switch named s ("A" through "H")
func ParseSwitch(s string) (Switch, error) {
	if s == "" || s == "None" {
		return SwitchNone, nil
	}
	if len(s) == 1 && s[0] >= 'A' && s[0] < 'A'+byte(SwitchCount) {
		return Switch(s[0] - 'A'), nil
	}
	return SwitchNone, fmt.Errorf("unknown switch %q", s)
}

// ParseSwitchState returns the SwitchState named s ("Up", "Center", "Down", "Disconnected")
func ParseSwitchState(s string) (SwitchState, error) {
	for i, name := range switchStateNames {
		if name == s {
			return SwitchState(i), nil
		}
	}
	return SwitchDisconnected, fmt.Errorf("unknown switch state %q", s)
}
