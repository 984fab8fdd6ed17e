// Copyright (c) 2025-2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/choria-io/fisk"

	"github.com/choria-io/extractvpk/metrics"
)

var (
	ctx       context.Context
	debug     bool
	info      bool
	logFormat string
	Version   = "development"
)

func main() {
	app := fisk.New("extractvpk", "Extracts files from Valve Pak archives")
	app.Version(Version)
	app.Author("https://choria.io")

	app.Flag("debug", "Enable debug logging").UnNegatableBoolVar(&debug)
	app.Flag("info", "Enable info logging").UnNegatableBoolVar(&info)
	app.Flag("log-format", "Log format to use").PlaceHolder("text|json").EnumVar(&logFormat, "text", "json")

	registerExtractCommand(app)
	registerListCommand(app)
	registerApplyCommand(app)
	registerFactsCommand(app)
	registerSessionCommand(app)

	metrics.RegisterMetrics()

	ctx, _ = signal.NotifyContext(context.Background(), os.Interrupt)

	app.MustParseWithUsage(os.Args[1:])
}
