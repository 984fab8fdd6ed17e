// Copyright (c) 2025, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package model

import (
	"context"

	"github.com/spf13/afero"
)

type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	With(args ...any) Logger
}

// Extractor performs a single validated extraction run
type Extractor interface {
	Extract(ctx context.Context, req ExtractRequest, log Logger) (Outcome, *ExtractResult, error)
	Logger(args ...any) (Logger, error)
	SessionStore() SessionStore
	Filesystem() afero.Fs
}

// NopLogger discards every message, it stands in when callers do not supply a logger
type NopLogger struct{}

func (NopLogger) Debug(string, ...any) {}
func (NopLogger) Info(string, ...any)  {}
func (NopLogger) Warn(string, ...any)  {}
func (NopLogger) Error(string, ...any) {}
func (l NopLogger) With(...any) Logger { return l }
