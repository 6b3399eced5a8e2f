// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad
//
// Zenith - RC transmitter mixer
//
// Runs a model's stick-to-servo mixing pipeline, replays scenarios against
// it and streams the result over the transmitter link.

package main

import (
	"os"

	"github.com/Thermoquad/zenith/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
