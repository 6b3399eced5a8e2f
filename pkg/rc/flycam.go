// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package rc

// CamMode is the operating mode of a FlyCamOne camera
type CamMode uint8

const (
	CamVideo CamMode = iota
	CamSerial
	CamPhoto
)

// SensorMode is the image orientation of a FlyCamOne camera
type SensorMode uint8

const (
	SensorNormal SensorMode = iota
	SensorFlipped
)

type flycamCommand uint8

const (
	flycamIdle flycamCommand = iota
	flycamChangeCamMode
	flycamChangeCamModeTwice
	flycamChangeSensorMode
	flycamStartStop
)

// Pulse lengths in ms the camera needs to recognize a command
const (
	FlycamCamModeTime    = 3250
	FlycamSensorModeTime = 10250
	FlycamStartStopTime  = 250
	FlycamCoolDownTime   = 250
)

// FlycamOne drives a FlyCamOne camera through its single control channel.
// Commands are long high pulses followed by a low cool down; changing the
// camera mode by two steps runs two pulses back to back.
type FlycamOne struct {
	bus   *SignalBus
	dst   OutputPort
	clock Clock

	camMode    CamMode
	sensorMode SensorMode
	recording  bool

	command  flycamCommand
	start    int64 // ms
	duration int64
	coolDown bool
	value    int16
}

// NewFlycamOne returns an idle camera in video mode writing destination
func NewFlycamOne(bus *SignalBus, clock Clock, destination Output) *FlycamOne {
	if clock == nil {
		clock = SystemClock{}
	}
	return &FlycamOne{
		bus:   bus,
		dst:   OutputPort{index: destination},
		clock: clock,
		value: NormalMin,
	}
}

// SetCamMode starts switching to mode. It returns false while busy or recording.
func (f *FlycamOne) SetCamMode(mode CamMode) bool {
	if mode > CamPhoto || f.Busy() || f.recording {
		return false
	}
	if f.camMode == mode {
		return true
	}
	if nextCamMode(f.camMode) == mode {
		f.setCommand(flycamChangeCamMode)
	} else {
		f.setCommand(flycamChangeCamModeTwice)
	}
	return true
}

// CamMode returns the camera mode
func (f *FlycamOne) CamMode() CamMode { return f.camMode }

// SetSensorMode starts switching to mode. It returns false while busy or recording.
func (f *FlycamOne) SetSensorMode(mode SensorMode) bool {
	if mode > SensorFlipped || f.Busy() || f.recording {
		return false
	}
	if f.sensorMode != mode {
		f.setCommand(flycamChangeSensorMode)
	}
	return true
}

// SensorMode returns the sensor mode
func (f *FlycamOne) SensorMode() SensorMode { return f.sensorMode }

// StartRecording starts a video. Not available in photo mode.
func (f *FlycamOne) StartRecording() bool {
	if f.Busy() || f.recording || f.camMode == CamPhoto {
		return false
	}
	f.setCommand(flycamStartStop)
	return true
}

// StopRecording stops a video
func (f *FlycamOne) StopRecording() bool {
	if f.Busy() || !f.recording || f.camMode == CamPhoto {
		return false
	}
	f.setCommand(flycamStartStop)
	return true
}

// Recording reports whether a video is being recorded
func (f *FlycamOne) Recording() bool { return f.recording }

// TakePhoto takes a picture. Only available in photo mode.
func (f *FlycamOne) TakePhoto() bool {
	if f.Busy() || f.camMode != CamPhoto {
		return false
	}
	f.setCommand(flycamStartStop)
	return true
}

// Busy reports whether a command is in progress
func (f *FlycamOne) Busy() bool { return f.command != flycamIdle }

// Update advances the running command and writes the control output
func (f *FlycamOne) Update() int16 {
	if f.Busy() {
		now := f.clock.Now().UnixMilli()
		if f.value == NormalMin && !f.coolDown {
			f.value = NormalMax
			f.start = now
		} else if delta := now - f.start; delta >= f.duration {
			switch {
			case !f.coolDown:
				f.value = NormalMin
				f.complete()
				f.coolDown = true
			case delta >= f.duration+FlycamCoolDownTime:
				if f.command == flycamChangeCamModeTwice {
					f.command = flycamChangeCamMode
					f.start += delta
				} else {
					f.command = flycamIdle
				}
				f.coolDown = false
			}
		}
	}
	return f.dst.write(f.bus, f.value)
}

// Apply updates the camera
func (f *FlycamOne) Apply() { f.Update() }

func (f *FlycamOne) setCommand(c flycamCommand) {
	switch c {
	case flycamChangeCamMode, flycamChangeCamModeTwice:
		f.duration = FlycamCamModeTime
	case flycamChangeSensorMode:
		f.duration = FlycamSensorModeTime
	case flycamStartStop:
		f.duration = FlycamStartStopTime
	default:
		f.duration = 0
		f.command = flycamIdle
		return
	}
	f.command = c
}

func (f *FlycamOne) complete() {
	switch f.command {
	case flycamChangeCamMode, flycamChangeCamModeTwice:
		f.camMode = nextCamMode(f.camMode)
	case flycamChangeSensorMode:
		if f.sensorMode == SensorNormal {
			f.sensorMode = SensorFlipped
		} else {
			f.sensorMode = SensorNormal
		}
	case flycamStartStop:
		if f.camMode != CamPhoto {
			f.recording = !f.recording
		}
	}
}

func nextCamMode(m CamMode) CamMode {
	switch m {
	case CamVideo:
		return CamSerial
	case CamSerial:
		return CamPhoto
	default:
		return CamVideo
	}
}
