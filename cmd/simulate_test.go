// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Thermoquad/zenith/pkg/model"
	"github.com/Thermoquad/zenith/pkg/scenario"
)

func TestSimulate(t *testing.T) {
	cfg := &model.Config{
		Name:     "trainer",
		Profile:  model.ProfileConfig{Timer: 120},
		Airframe: model.AirframeConfig{Type: "plane"},
	}
	sc, err := scenario.Parse([]byte(`
name: roll
period: 100ms
steps:
  - at: 0s
    channels: {1: 2200}
    expect:
      channels: {1: 1997}
  - at: 1s
    channels: {1: 800}
    expect:
      channels: {1: 1040}
`))
	require.NoError(t, err)

	var out bytes.Buffer
	mismatches, err := simulate(context.Background(), &out, cfg, sc)
	require.NoError(t, err)
	require.Len(t, mismatches, 1, "second step expects the wrong pulse")
	assert.Equal(t, "CH1", mismatches[0].Field)
	assert.Equal(t, 1, mismatches[0].Step)

	text := out.String()
	assert.Contains(t, text, "Model: trainer  Scenario: roll")
	assert.Contains(t, text, "timer")
	assert.Contains(t, text, "1997")
	assert.Contains(t, text, "2:00")
	assert.Contains(t, text, "1002")
}
