// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package scenario

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Thermoquad/zenith/pkg/model"
	"github.com/Thermoquad/zenith/pkg/rc"
)

const basic = `
name: basic
period: 50ms
steps:
  - at: 0s
    channels: {1: 1500}
    expect:
      channels: {1: 1500}
  - at: 100ms
    channels: {1: 2200}
    switches: {A: Down}
    expect:
      channels: {1: 1997}
      inputs: {AIL: 256}
      outputs: {AIL1: 256}
`

func aileronPipeline(clock rc.Clock) *rc.Pipeline {
	bus := rc.NewSignalBus(rc.DefaultTiming())
	bus.SetSwitchType(rc.SwitchA, rc.SwitchTypeBiState)
	p := rc.NewPipeline(bus)
	p.Add("input", rc.NewInputChannelToInput(bus, 0, rc.InputAIL))
	p.Add("pipe", rc.NewInputToOutput(bus, rc.InputAIL, rc.OutputAIL1))
	p.Add("channel", rc.NewChannel(bus, clock, rc.OutputAIL1, 0))
	return p
}

func TestParse(t *testing.T) {
	s, err := Parse([]byte(basic))
	require.NoError(t, err)

	assert.Equal(t, "basic", s.Name)
	assert.Equal(t, 50*time.Millisecond, s.Period)
	require.Len(t, s.Steps, 2)
	assert.Equal(t, 100*time.Millisecond, s.Steps[1].At)
	assert.Equal(t, map[int]uint16{1: 2200}, s.Steps[1].Channels)
	assert.Equal(t, []switchValue{{rc.SwitchA, rc.SwitchDown}}, s.Steps[1].switches)
	assert.Equal(t, 100*time.Millisecond, s.Duration())
}

func TestParseDefaults(t *testing.T) {
	s, err := Parse([]byte("steps: [{at: 1s, analog: {THR: 100, AIL: 5}}]"))
	require.NoError(t, err)
	assert.Equal(t, DefaultPeriod, s.Period)
	assert.Equal(t, []rc.Input{rc.InputAIL, rc.InputTHR}, s.AnalogInputs())
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"not yaml", "steps: [at"},
		{"numeric duration", "steps: [{at: 5}]"},
		{"negative period", "period: -1s"},
		{"steps out of order", "steps: [{at: 2s}, {at: 1s}]"},
		{"channel zero", "steps: [{at: 0s, channels: {0: 1500}}]"},
		{"channel above max", "steps: [{at: 0s, channels: {19: 1500}}]"},
		{"pulse too short", "steps: [{at: 0s, channels: {1: 600}}]"},
		{"unknown switch", "steps: [{at: 0s, switches: {Z: Up}}]"},
		{"unknown state", "steps: [{at: 0s, switches: {A: Middle}}]"},
		{"unknown analog input", "steps: [{at: 0s, analog: {YAW: 10}}]"},
		{"analog above range", "steps: [{at: 0s, analog: {AIL: 1024}}]"},
		{"unknown output", "steps: [{at: 0s, expect: {outputs: {AIL9: 0}}}]"},
		{"negative tolerance", "steps: [{at: 0s, expect: {tolerance: -1}}]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile("testdata/nope.yaml")
	assert.Error(t, err)
}

// ============================================================
// Player
// ============================================================

func TestPlayerRun(t *testing.T) {
	s, err := Parse([]byte(basic))
	require.NoError(t, err)

	clock := rc.NewManualClock(time.Unix(0, 0))
	p := aileronPipeline(clock)

	var ticks []Tick
	mismatches, err := NewPlayer(s, p, clock, nil, nil).Run(context.Background(), func(tk Tick) error {
		ticks = append(ticks, tk)
		return nil
	})
	require.NoError(t, err)
	assert.Empty(t, mismatches)

	require.Len(t, ticks, 3)
	assert.Equal(t, []int{0, -1, 1}, []int{ticks[0].Step, ticks[1].Step, ticks[2].Step})
	assert.Equal(t, 100*time.Millisecond, ticks[2].Time)
	assert.Equal(t, uint16(1997), ticks[2].Snapshot.OutputChannels[0])
	assert.Equal(t, rc.SwitchDown, ticks[2].Snapshot.Switches[rc.SwitchA])
	assert.Equal(t, time.Unix(0, 0).Add(100*time.Millisecond), clock.Now())
}

func TestPlayerMismatch(t *testing.T) {
	s, err := Parse([]byte(`
steps:
  - at: 0s
    channels: {1: 2200}
    expect:
      channels: {1: 2000}
      tolerance: 2
  - at: 20ms
    expect:
      channels: {1: 1999}
      tolerance: 2
`))
	require.NoError(t, err)

	clock := rc.NewManualClock(time.Unix(0, 0))
	mismatches, err := NewPlayer(s, aileronPipeline(clock), clock, nil, nil).Run(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, mismatches, 1)
	assert.Equal(t, Mismatch{Step: 0, At: 0, Field: "CH1", Got: 1997, Want: 2000}, mismatches[0])
	assert.Equal(t, "step 0 at 0s: CH1 = 1997, want 2000", mismatches[0].Error())
}

func TestPlayerStops(t *testing.T) {
	s, err := Parse([]byte("steps: [{at: 0s}, {at: 1s}]"))
	require.NoError(t, err)
	clock := rc.NewManualClock(time.Unix(0, 0))

	stop := errors.New("stop")
	n := 0
	_, err = NewPlayer(s, aileronPipeline(clock), clock, nil, nil).Run(context.Background(), func(Tick) error {
		n++
		if n == 3 {
			return stop
		}
		return nil
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 3, n)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewPlayer(s, aileronPipeline(clock), clock, nil, nil).Run(ctx, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPlayerWithModel(t *testing.T) {
	s, err := Parse([]byte(`
period: 100ms
steps:
  - at: 0s
    analog: {AIL: 1023}
    switches: {C: Up}
    expect:
      outputs: {AIL1: 128}
  - at: 200ms
    switches: {C: Center}
    expect:
      outputs: {AIL1: 256}
  - at: 300ms
    analog: {AIL: 511}
    expect:
      outputs: {AIL1: 0}
`))
	require.NoError(t, err)

	cfg := &model.Config{
		Profile: model.ProfileConfig{
			FlightMode: "C",
			AilRate:    []int{50, 100},
		},
		Device: model.DeviceConfig{
			Analog: []model.AnalogConfig{{Input: "AIL"}},
		},
		Airframe: model.AirframeConfig{Type: "plane"},
		Switches: []model.SwitchConfig{{Switch: "C", Type: "tristate"}},
	}
	knobs := NewKnobs(s)
	require.Contains(t, knobs, rc.InputAIL)

	clock := rc.NewManualClock(time.Unix(0, 0))
	bus := rc.NewSignalBus(rc.DefaultTiming())
	m, err := model.Build(cfg, bus, model.Options{Clock: clock, Analog: knobs.Readers()})
	require.NoError(t, err)

	mismatches, err := NewPlayer(s, m.Pipeline, clock, knobs, nil).Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, mismatches)
}

func TestKnob(t *testing.T) {
	k := &Knob{}
	k.Set(700)
	v, err := k.Read()
	require.NoError(t, err)
	assert.Equal(t, uint16(700), v)
}
