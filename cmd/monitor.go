// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/Thermoquad/zenith/pkg/frsky"
	"github.com/Thermoquad/zenith/pkg/link"
	"github.com/Thermoquad/zenith/pkg/model"
	"github.com/Thermoquad/zenith/pkg/rc"
)

var (
	showAll       bool
	statsInterval int
	useTUI        bool
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Watch a transmitter link and track frame errors",
	Long: `Decode link frames and show channels, switches, timer and telemetry.

Every frame is validated:
  - CRC errors and decode failures
  - Pulse widths outside the servo range
  - Normalized values outside the extended range
  - Unknown switch states and missing fields

By default only errors are logged. Use --show-all to log valid frames too.
With --model, telemetry alarms use the model's thresholds.

The TUI reconnects when the connection drops. Text mode prints errors as
they happen and a statistics summary every --stats-interval seconds.`,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
	monitorCmd.Flags().BoolVar(&showAll, "show-all", false, "Show all frames (not just errors)")
	monitorCmd.Flags().IntVar(&statsInterval, "stats-interval", 10, "Statistics update interval (seconds)")
	monitorCmd.Flags().BoolVar(&useTUI, "tui", true, "Use terminal UI (false for text mode)")
}

func runMonitor(cmd *cobra.Command, args []string) error {
	thresholds, err := monitorThresholds()
	if err != nil {
		return err
	}

	conn, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}

	if useTUI {
		return runMonitorTUI(conn, connInfo, thresholds)
	}
	return runMonitorText(conn, connInfo)
}

// monitorThresholds returns the telemetry alarm levels of --model, or the
// defaults when no model is given
func monitorThresholds() (frsky.Thresholds, error) {
	if modelPath == "" {
		return frsky.DefaultThresholds(), nil
	}
	cfg, err := model.Load(modelPath)
	if err != nil {
		return frsky.Thresholds{}, err
	}
	m, err := model.Build(cfg, rc.NewSignalBus(rc.DefaultTiming()), model.Options{Logger: logger})
	if err != nil {
		return frsky.Thresholds{}, err
	}
	return m.Thresholds, nil
}

func runMonitorTUI(conn Connection, connInfo string, thresholds frsky.Thresholds) error {
	r := newLinkReader(conn, connInfo, true)
	p := tea.NewProgram(newMonitorModel(connInfo, showAll, thresholds))

	r.Start()
	go forwardBatches(r.Events(), p, 50*time.Millisecond)

	_, err := p.Run()
	r.Stop()
	if err != nil {
		return fmt.Errorf("TUI error: %v", err)
	}
	return nil
}

// forwardBatches collects link events and hands them to the TUI at a fixed
// rate so a fast link does not flood the program with messages
func forwardBatches(events <-chan linkEvent, p *tea.Program, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	var batch linkBatchMsg
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				if len(batch) > 0 {
					p.Send(batch)
				}
				return
			}
			batch = append(batch, ev)
		case <-ticker.C:
			if len(batch) > 0 {
				p.Send(batch)
				batch = nil
			}
		}
	}
}

func runMonitorText(conn Connection, connInfo string) error {
	fmt.Printf("Zenith - Link Monitor\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Statistics interval: %d seconds\n", statsInterval)
	if showAll {
		fmt.Printf("Mode: All frames\n")
	} else {
		fmt.Printf("Mode: Errors only\n")
	}
	fmt.Printf("Press Ctrl+C to exit\n\n")

	r := newLinkReader(conn, connInfo, false)
	r.Start()
	defer r.Stop()

	stats := link.NewStatistics()
	statsTicker := time.NewTicker(time.Duration(statsInterval) * time.Second)
	defer statsTicker.Stop()

	for {
		select {
		case ev, ok := <-r.Events():
			if !ok || ev.lost {
				fmt.Println()
				fmt.Print(stats.String())
				return nil
			}
			printEvent(stats, ev)

		case <-statsTicker.C:
			fmt.Println()
			fmt.Print(stats.String())
			fmt.Println()
		}
	}
}

func printEvent(stats *link.Statistics, ev linkEvent) {
	switch {
	case ev.synced:
		if ev.skipped > 0 {
			fmt.Printf("[SYNC] Synchronized after skipping %d invalid bytes\n\n", ev.skipped)
		} else {
			fmt.Printf("[SYNC] Synchronized\n\n")
		}

	case ev.err != nil:
		stats.Update(nil, ev.err, nil)
		fmt.Printf("[%s] \033[1;31mDECODE ERROR:\033[0m %v\n\n", time.Now().Format("15:04:05.000"), ev.err)

	case ev.frame != nil:
		stats.Update(ev.frame, nil, ev.anomalies)
		f := ev.frame
		if len(ev.anomalies) > 0 {
			fmt.Printf("[%s] \033[1;33mVALIDATION ERROR:\033[0m %s (0x%02X)\n",
				f.Timestamp().Format("15:04:05.000"), link.MessageName(f.Type()), f.Type())
			for i, a := range ev.anomalies {
				fmt.Printf("  Issue %d: %s: %s\n", i+1, a.Type, a.Message)
			}
			fmt.Printf("  >>> FRAME REJECTED <<<\n\n")
			return
		}
		if showAll || f.Type() == link.MsgPong {
			fmt.Print(link.FormatFrame(f))
		}
	}
}
