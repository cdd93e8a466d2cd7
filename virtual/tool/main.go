// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package main

import (
	"fmt"
	"os"
	"runtime/pprof"
	"strings"

	"github.com/urfave/cli/v2"
)

// Run using
//  go run ./virtual/tool <command> <flags>

var cpuProfileFlag = cli.StringFlag{
	Name:  "cpuprofile",
	Usage: "sets the target file for storing CPU profiles to, disabled if empty",
	Value: "",
}

func main() {
	app := &cli.App{
		Name:      "tool",
		Usage:     "virtual tree toolbox",
		Copyright: "(c) 2024 Fantom Foundation",
		Flags: []cli.Flag{
			&cpuProfileFlag,
		},
		Commands: []*cli.Command{
			&Fill,
			&Info,
			&Root,
			&Reconnect,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func addCpuProfiling(action cli.ActionFunc) cli.ActionFunc {
	return func(context *cli.Context) error {
		fileName := context.String(cpuProfileFlag.Name)
		if strings.TrimSpace(fileName) != "" {
			if err := startCpuProfiler(fileName); err != nil {
				return err
			}
			defer pprof.StopCPUProfile()
		}
		return action(context)
	}
}

func startCpuProfiler(filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("could not create CPU profile: %s", err)
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		return fmt.Errorf("could not start CPU profile: %s", err)
	}
	return nil
}
