// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package rc

// Snapshot is a copy of the bus stores taken between update passes
type Snapshot struct {
	Inputs         [InputCount]int16
	Outputs        [OutputCount]int16
	InputChannels  [MaxChannels]uint16
	OutputChannels [MaxChannels]uint16
	Switches       [SwitchCount]SwitchState
}

// Snapshot copies the current stores. Switch states are read through the
// switch types, so unconnected switches report Disconnected.
func (b *SignalBus) Snapshot() Snapshot {
	s := Snapshot{
		Inputs:         b.inputs,
		Outputs:        b.outputs,
		InputChannels:  b.inputChannels,
		OutputChannels: b.outputChannels,
	}
	for i := range s.Switches {
		s.Switches[i] = b.SwitchState(Switch(i))
	}
	return s
}
