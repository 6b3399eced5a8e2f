// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/zenith/pkg/link"
)

var (
	pingTimeout int
	pingAddress uint64
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Send PING and wait for a PONG",
	Long: `Send a PING frame and wait for the PONG answer until timeout.

Frames other than PONG are ignored, as are bytes that do not decode. The
peer uptime carried in the PONG is printed.

Exit codes:
  0 - PONG received before timeout
  1 - Timeout reached without a PONG
  2 - Connection error`,
	RunE: runPing,
}

func init() {
	rootCmd.AddCommand(pingCmd)
	pingCmd.Flags().IntVar(&pingTimeout, "timeout", 5, "Timeout in seconds to wait for a PONG")
	pingCmd.Flags().Uint64Var(&pingAddress, "address", link.AddressBroadcast, "Destination address")
}

func runPing(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}

	r := newLinkReader(conn, connInfo, false)
	r.Start()
	defer r.Stop()

	fmt.Printf("Zenith - Ping\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Timeout: %d seconds\n\n", pingTimeout)

	sent := time.Now()
	if err := r.Send(link.NewPing(pingAddress)); err != nil {
		fmt.Fprintf(os.Stderr, "Write error: %v\n", err)
		os.Exit(2)
	}

	code, msg := awaitPong(r.Events(), time.After(time.Duration(pingTimeout)*time.Second), sent)
	if code == 0 {
		fmt.Print(msg)
	} else {
		fmt.Fprint(os.Stderr, msg)
	}
	r.Stop()
	os.Exit(code)
	return nil
}

// awaitPong returns the exit code and message for the first PONG, a lost
// connection or the timeout, whichever comes first.
func awaitPong(events <-chan linkEvent, timeout <-chan time.Time, sent time.Time) (int, string) {
	for {
		select {
		case ev, ok := <-events:
			if !ok || ev.lost {
				return 2, "Connection lost\n"
			}
			if ev.frame == nil || ev.frame.Type() != link.MsgPong {
				continue
			}
			uptime, err := link.Uptime(ev.frame)
			if err != nil {
				logger.Debug("bad pong", "err", err)
				continue
			}
			return 0, fmt.Sprintf("PONG from %016X in %s\n  Uptime: %s\n",
				ev.frame.Address(), time.Since(sent).Round(time.Millisecond), formatUptime(uptime))

		case <-timeout:
			return 1, "TIMEOUT: No PONG received\n"
		}
	}
}
