// Copyright (c) 2025-2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/SladkyCitron/slogcolor"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/writer"
	"github.com/spf13/afero"
	"golang.org/x/term"

	"github.com/choria-io/extractvpk/config"
	"github.com/choria-io/extractvpk/manager"
	"github.com/choria-io/extractvpk/model"
)

func loadConfig() (*config.Config, error) {
	return config.Load(afero.NewOsFs(), newLogger(""))
}

func newManager(cfg *config.Config, reportDir string, verify bool) (*manager.Manager, model.Logger, error) {
	logger := newLogger(cfg.LogFormat)
	out := newOutputLogger(cfg.LogFormat)

	opts := []manager.Option{
		manager.WithVerify(verify || cfg.Verify),
	}

	if reportDir == "" {
		reportDir = cfg.ReportDir
	}

	if reportDir != "" {
		opts = append(opts, manager.WithSessionDirectory(reportDir))
	}

	mgr, err := manager.NewManager(logger, out, opts...)
	if err != nil {
		return nil, nil, err
	}

	return mgr, out, nil
}

func format(cfgFormat string) string {
	if logFormat != "" {
		return logFormat
	}

	return cfgFormat
}

func newOutputLogger(cfgFormat string) model.Logger {
	return outputLogger(format(cfgFormat), debug, os.Stdout, os.Stderr, term.IsTerminal(int(os.Stdout.Fd())))
}

// outputLogger reports progress to stdout and errors to stderr
func outputLogger(format string, debug bool, stdout io.Writer, stderr io.Writer, color bool) model.Logger {
	level := slog.LevelInfo
	llevel := logrus.InfoLevel
	if debug {
		level, llevel = slog.LevelDebug, logrus.DebugLevel
	}

	handler := func(w io.Writer) slog.Handler {
		if color {
			return slogcolor.NewHandler(w, &slogcolor.Options{Level: level})
		}

		return slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	}

	if format == "json" {
		return newLogrusLogger(stdout, stderr, llevel)
	}

	return manager.NewSplitSlogLogger(slog.New(handler(stdout)), slog.New(handler(stderr)))
}

func newLogger(cfgFormat string) model.Logger {
	var level slog.Level
	var llevel logrus.Level

	switch {
	case debug:
		level, llevel = slog.LevelDebug, logrus.DebugLevel
	case info:
		level, llevel = slog.LevelInfo, logrus.InfoLevel
	default:
		level, llevel = slog.LevelWarn, logrus.WarnLevel
	}

	if format(cfgFormat) == "json" {
		return newLogrusLogger(os.Stderr, os.Stderr, llevel)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	return manager.NewSlogLogger(logger)
}

// newLogrusLogger writes json lines, errors go to errs and everything else to out
func newLogrusLogger(out io.Writer, errs io.Writer, level logrus.Level) model.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	log.SetLevel(level)
	log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	log.AddHook(&writer.Hook{Writer: errs, LogLevels: []logrus.Level{logrus.PanicLevel, logrus.FatalLevel, logrus.ErrorLevel}})
	log.AddHook(&writer.Hook{Writer: out, LogLevels: []logrus.Level{logrus.WarnLevel, logrus.InfoLevel, logrus.DebugLevel, logrus.TraceLevel}})

	return manager.NewLogrusLogger(logrus.NewEntry(log))
}

func printSummary(title string, summary *model.SessionSummary) {
	fmt.Println()
	fmt.Println(title)
	fmt.Println()
	if summary.TotalDuration > 0 {
		fmt.Printf("          Run Time: %v\n", summary.TotalDuration.Round(time.Millisecond))
	}
	fmt.Printf("        Total Runs: %d\n", summary.TotalRuns)
	fmt.Printf("     Complete Runs: %d\n", summary.CompleteRuns)
	fmt.Printf("  Runs With Errors: %d\n", summary.PartialRuns)
	fmt.Printf("       Failed Runs: %d\n", summary.FailedRuns)
	fmt.Printf("   Extracted Files: %d\n", summary.ExtractedFiles)
	fmt.Printf("      Entry Errors: %d\n", summary.EntryErrors)
	fmt.Printf("     Bytes Written: %d\n", summary.BytesWritten)
}
