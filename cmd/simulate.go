// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/Thermoquad/zenith/pkg/model"
	"github.com/Thermoquad/zenith/pkg/rc"
	"github.com/Thermoquad/zenith/pkg/scenario"
)

var (
	scenarioPath string
	simChannels  int
	simEveryTick bool
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Replay a scenario through a model on a simulated clock",
	Long: `Run the model's pipeline against a scripted scenario and print the
output channels.

The clock only advances by the scenario period, so timers, slow servos and
retract sequences behave exactly as on the transmitter but finish
instantly. One table row is printed per scenario step (every pass with
--every-tick). Expectations in the scenario are checked; any mismatch makes
the command fail.

Example:
  zenith simulate --model glider.hcl --scenario launch.yaml`,
	RunE: runSimulate,
}

func init() {
	rootCmd.AddCommand(simulateCmd)
	simulateCmd.Flags().StringVarP(&scenarioPath, "scenario", "s", "", "Scenario file (YAML)")
	simulateCmd.Flags().IntVarP(&simChannels, "channels", "c", 8, "Number of output channels to show")
	simulateCmd.Flags().BoolVar(&simEveryTick, "every-tick", false, "Print every pipeline pass, not just steps")
	simulateCmd.MarkFlagRequired("scenario")
}

func runSimulate(cmd *cobra.Command, args []string) error {
	if modelPath == "" {
		return errors.New("--model is required")
	}
	cfg, err := model.Load(modelPath)
	if err != nil {
		return err
	}
	sc, err := scenario.LoadFile(scenarioPath)
	if err != nil {
		return err
	}

	mismatches, err := simulate(cmd.Context(), cmd.OutOrStdout(), cfg, sc)
	if err != nil {
		return err
	}
	for _, mm := range mismatches {
		fmt.Fprintf(cmd.ErrOrStderr(), "FAIL %v\n", mm)
	}
	if len(mismatches) > 0 {
		return fmt.Errorf("%d expectation(s) failed", len(mismatches))
	}
	return nil
}

// simulate plays sc through a model built from cfg and writes the channel
// table to w
func simulate(ctx context.Context, w io.Writer, cfg *model.Config, sc *scenario.Scenario) ([]scenario.Mismatch, error) {
	clock := rc.NewManualClock(time.Unix(0, 0))
	knobs := scenario.NewKnobs(sc)
	bus := rc.NewSignalBus(rc.DefaultTiming())
	m, err := model.Build(cfg, bus, model.Options{Clock: clock, Logger: logger, Analog: knobs.Readers()})
	if err != nil {
		return nil, err
	}

	count := min(max(simChannels, 1), rc.MaxChannels)
	headers := []string{"time", "step"}
	for i := range count {
		headers = append(headers, fmt.Sprintf("CH%d", i+1))
	}
	if m.Timer != nil {
		headers = append(headers, "timer")
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(headerStyle).
		Headers(headers...)

	player := scenario.NewPlayer(sc, m.Pipeline, clock, knobs, logger)
	mismatches, err := player.Run(ctx, func(tk scenario.Tick) error {
		if tk.Step < 0 && !simEveryTick {
			return nil
		}
		step := ""
		if tk.Step >= 0 {
			step = strconv.Itoa(tk.Step)
		}
		row := []string{tk.Time.String(), step}
		for _, us := range tk.Snapshot.OutputChannels[:count] {
			row = append(row, strconv.Itoa(int(us)))
		}
		if m.Timer != nil {
			row = append(row, formatClock(m.Timer.Time()))
		}
		t.Row(row...)
		return nil
	})
	if err != nil {
		return mismatches, err
	}

	name := cfg.Name
	if name == "" {
		name = modelPath
	}
	fmt.Fprintf(w, "Model: %s  Scenario: %s  (%d stages, period %s)\n", name, sc.Name, m.Pipeline.Len(), sc.Period)
	fmt.Fprintln(w, t.String())
	return mismatches, nil
}
