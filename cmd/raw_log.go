// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/zenith/pkg/link"
)

var rawLogHex bool

var rawLogCmd = &cobra.Command{
	Use:     "raw-log",
	Aliases: []string{"raw_log"},
	Short:   "Display link frames as they arrive",
	Long: `Continuously decode and display link frames as they arrive.

Each frame is shown with timestamp, message type, address and decoded
fields. With --hex the received bytes are dumped as well, including the
noise between frames.

Supports both serial and WebSocket connections.`,
	RunE: runRawLog,
}

func init() {
	rootCmd.AddCommand(rawLogCmd)
	rawLogCmd.Flags().BoolVar(&rawLogHex, "hex", false, "Hex dump every received chunk")
}

func runRawLog(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}
	defer conn.Close()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Zenith - Raw Link Log\n")
	fmt.Fprintf(out, "Connection: %s\n", connInfo)
	fmt.Fprintf(out, "Press Ctrl+C to exit\n\n")

	decoder := link.NewDecoder()
	buf := make([]byte, link.MaxFrameSize)

	for {
		n, err := conn.Read(buf)
		if err != nil {
			if errors.Is(err, ErrConnectionClosed) {
				logger.Info("connection closed")
				return nil
			}
			logger.Error("read", "err", err)
			continue
		}
		if n == 0 {
			continue
		}
		if rawLogHex {
			fmt.Fprint(out, hex.Dump(buf[:n]))
		}

		frames, errs := decoder.Decode(buf[:n])
		for _, err := range errs {
			fmt.Fprintf(out, "[ERROR] %v\n", err)
		}
		for _, f := range frames {
			fmt.Fprint(out, link.FormatFrame(f))
		}
	}
}
