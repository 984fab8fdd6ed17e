// Copyright (c) 2025-2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package manager

import (
	"log/slog"

	"github.com/choria-io/extractvpk/model"
)

var _ model.Logger = (*SlogLogger)(nil)

// SlogLogger logs extraction progress through slog, errors can be sent to a separate logger
type SlogLogger struct {
	log    *slog.Logger
	errors *slog.Logger
}

func (s *SlogLogger) Debug(msg string, args ...any) {
	s.log.Debug(msg, args...)
}

func (s *SlogLogger) Info(msg string, args ...any) {
	s.log.Info(msg, args...)
}

func (s *SlogLogger) Warn(msg string, args ...any) {
	s.log.Warn(msg, args...)
}

// Error logs to the error logger when one is set
func (s *SlogLogger) Error(msg string, args ...any) {
	s.errors.Error(msg, args...)
}

func (s *SlogLogger) With(args ...any) model.Logger {
	return &SlogLogger{log: s.log.With(args...), errors: s.errors.With(args...)}
}

// NewSlogLogger logs every level to log
func NewSlogLogger(log *slog.Logger) *SlogLogger {
	return &SlogLogger{log: log, errors: log}
}

// NewSplitSlogLogger logs errors to errors and everything else to log, typically stdout and stderr
func NewSplitSlogLogger(log *slog.Logger, errors *slog.Logger) *SlogLogger {
	return &SlogLogger{log: log, errors: errors}
}
