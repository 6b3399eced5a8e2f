// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package model loads a model description and wires it into a signal
// pipeline.
package model

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/hcl"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix marks environment variables that override model settings.
// ZENITH_TIMING_CENTER sets timing.center.
const EnvPrefix = "ZENITH_"

// Config is a complete model description
type Config struct {
	Name     string          `koanf:"name"`
	Timing   TimingConfig    `koanf:"timing"`
	Profile  ProfileConfig   `koanf:"profile"`
	Device   DeviceConfig    `koanf:"device"`
	Airframe AirframeConfig  `koanf:"airframe"`
	Inputs   []string        `koanf:"inputs"`
	Switches []SwitchConfig  `koanf:"switches"`
	Stages   []StageConfig   `koanf:"stages"`
	Channels []ChannelConfig `koanf:"channels"`
}

// TimingConfig selects the servo pulse mapping. A preset wins over
// center and travel.
type TimingConfig struct {
	Preset string `koanf:"preset"` // "", "futaba" or "jr"
	Center int    `koanf:"center"`
	Travel int    `koanf:"travel"`
}

// ProfileConfig holds the per-model settings that change between flights:
// expo and dual rates per flight mode, the timer and the channel order.
type ProfileConfig struct {
	ID           int    `koanf:"id"`
	FlightMode   string `koanf:"flight_mode_switch"`
	AilExpo      []int  `koanf:"ail_expo"`
	EleExpo      []int  `koanf:"ele_expo"`
	RudExpo      []int  `koanf:"rud_expo"`
	AilRate      []int  `koanf:"ail_rate"`
	EleRate      []int  `koanf:"ele_rate"`
	RudRate      []int  `koanf:"rud_rate"`
	Timer        int    `koanf:"timer"`
	TimerSwitch  string `koanf:"timer_switch"`
	ChannelOrder string `koanf:"channel_order"`
}

// DeviceConfig holds the transmitter hardware settings
type DeviceConfig struct {
	TimerThrottle int             `koanf:"flight_timer_throttle"` // percent
	Analog        []AnalogConfig  `koanf:"analog"`
	Telemetry     TelemetryConfig `koanf:"telemetry"`
}

// AnalogConfig calibrates one stick axis
type AnalogConfig struct {
	Input   string `koanf:"input"`
	Min     int    `koanf:"min"`
	Mid     int    `koanf:"mid"`
	Max     int    `koanf:"max"`
	Trim    int    `koanf:"trim"`
	Reverse bool   `koanf:"reverse"`
}

// TelemetryConfig holds the downlink alarm levels
type TelemetryConfig struct {
	CellCount     int `koanf:"cell_count"`
	VoltOrange    int `koanf:"volt_orange"`
	VoltRed       int `koanf:"volt_red"`
	RSSIOrange    int `koanf:"rssi_orange"`
	RSSIRed       int `koanf:"rssi_red"`
	CheckInterval int `koanf:"check_interval"` // seconds
}

// AirframeConfig describes a fixed wing ("plane") or a helicopter head
// ("swash"). Enumerations are given by name.
type AirframeConfig struct {
	Type string `koanf:"type"`

	Wing          string `koanf:"wing"`
	Tail          string `koanf:"tail"`
	Rudder        string `koanf:"rudder"`
	Ailerons      int    `koanf:"ailerons"`
	Flaps         int    `koanf:"flaps"`
	Brakes        int    `koanf:"brakes"`
	AileronDiff   int    `koanf:"aileron_diff"`
	WingletDiff   int    `koanf:"winglet_diff"`
	ElevonAil     *int   `koanf:"elevon_aileron"`
	ElevonEle     *int   `koanf:"elevon_elevator"`
	Ailevator     *int   `koanf:"ailevator"`
	AilevatorDiff int    `koanf:"ailevator_diff"`
	VTailEle      *int   `koanf:"vtail_elevator"`
	VTailRud      *int   `koanf:"vtail_rudder"`

	Swash    string `koanf:"swash"`
	SwashAil int    `koanf:"swash_aileron"`
	SwashEle int    `koanf:"swash_elevator"`
	SwashPit int    `koanf:"swash_pitch"`
}

// SwitchConfig declares a physical switch
type SwitchConfig struct {
	Switch string `koanf:"switch"`
	Type   string `koanf:"type"` // bistate, tristate, momentary
}

// StageConfig is one extra pipeline stage. Which fields apply depends on
// Type, see stages.go.
type StageConfig struct {
	Type   string `koanf:"type"`
	Name   string `koanf:"name"`
	Input  string `koanf:"input"`
	Output string `koanf:"output"`
	Target string `koanf:"target"`
	Switch string `koanf:"switch"`
	State  string `koanf:"state"`

	Expo     int   `koanf:"expo"`
	Rate     *int  `koanf:"rate"`
	Offset   int   `koanf:"offset"`
	Throttle *int  `koanf:"throttle"`
	Points   []int `koanf:"points"`
	Trims    []int `koanf:"trims"`
	Pos      int   `koanf:"pos"`
	Neg      int   `koanf:"neg"`

	Mark     int  `koanf:"mark"`
	Mark2    *int `koanf:"mark2"`
	DeadBand int  `koanf:"deadband"`
	Reversed bool `koanf:"reversed"`
	Mirrored bool `koanf:"mirrored"`
	Ranged   bool `koanf:"ranged"`
	Duration int  `koanf:"duration"`

	Channel      int    `koanf:"channel"`
	StudentRate  *int   `koanf:"student_rate"`
	TeacherRate  *int   `koanf:"teacher_rate"`
	Idle         *int   `koanf:"idle"`
	RudderMix    int    `koanf:"rudder_mix"`
	UpRate       *int   `koanf:"up_rate"`
	CenterRate   *int   `koanf:"center_rate"`
	DownRate     *int   `koanf:"down_rate"`
	Hold         string `koanf:"hold"`
	HoldPositive bool   `koanf:"hold_positive"`
	Kind         string `koanf:"kind"`
	Mode         string `koanf:"mode"`
	Gain         int    `koanf:"gain"`
	GearSpeed    *int   `koanf:"gear_speed"`
	DoorsSpeed   *int   `koanf:"doors_speed"`
	Delay        int    `koanf:"delay"`
	Ail          int    `koanf:"ail"`
	Ele          int    `koanf:"ele"`
}

// ChannelConfig maps an output to a transmitted channel
type ChannelConfig struct {
	Output  string `koanf:"output"`
	Reverse bool   `koanf:"reverse"`
	Subtrim int    `koanf:"subtrim"`
	EPMin   *int   `koanf:"ep_min"`
	EPMax   *int   `koanf:"ep_max"`
	Speed   int    `koanf:"speed"`
}

// Load reads an HCL model file and applies ZENITH_ environment overrides.
// An empty path loads from the environment only.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		if err := k.Load(file.Provider(path), hcl.Parser(true)); err != nil {
			return nil, fmt.Errorf("read model %s: %w", path, err)
		}
	}
	if err := k.Load(env.Provider(".", env.Opt{
		Prefix:        EnvPrefix,
		TransformFunc: envKey,
	}), nil); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}
	return cfg, nil
}

// envKey maps ZENITH_TIMING_CENTER to timing.center. Only the first
// underscore separates the section.
func envKey(k, v string) (string, any) {
	key := strings.ToLower(strings.TrimPrefix(k, EnvPrefix))
	return strings.Replace(key, "_", ".", 1), v
}
