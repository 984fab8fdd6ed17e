// Copyright (c) 2025-2025, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package model

import (
	"fmt"
	"time"

	"github.com/segmentio/ksuid"
)

type SessionEvent interface {
	SessionEventID() string
	String() string
}

type SessionStore interface {
	StartSession(jobs int) error
	StopSession(destroy bool) (*SessionSummary, error)
	RecordEvent(SessionEvent) error
	EventsForJob(name string) ([]ExtractionEvent, error)
	AllEvents() ([]SessionEvent, error)
}

const ExtractionEventProtocol = "io.choria.extractvpk.v1.extraction.event"
const SessionStartEventProtocol = "io.choria.extractvpk.v1.session.start"

// ExtractionEvent records the result of a single extraction run
type ExtractionEvent struct {
	Protocol  string         `json:"protocol" yaml:"protocol"`
	EventID   string         `json:"event_id" yaml:"event_id"`
	TimeStamp time.Time      `json:"timestamp" yaml:"timestamp"`
	Job       string         `json:"job" yaml:"job"`
	Archive   string         `json:"archive" yaml:"archive"`
	Output    string         `json:"output" yaml:"output"`
	Outcome   Outcome        `json:"outcome" yaml:"outcome"`
	Result    *ExtractResult `json:"result,omitempty" yaml:"result,omitempty"`
	Error     string         `json:"error,omitempty" yaml:"error,omitempty"`
}

type SessionStartEvent struct {
	Protocol  string    `json:"protocol" yaml:"protocol"`
	EventID   string    `json:"event_id" yaml:"event_id"`
	TimeStamp time.Time `json:"timestamp" yaml:"timestamp"`
	Jobs      int       `json:"jobs" yaml:"jobs"`
}

func NewSessionStartEvent(jobs int) *SessionStartEvent {
	return &SessionStartEvent{
		Protocol:  SessionStartEventProtocol,
		EventID:   ksuid.New().String(),
		TimeStamp: time.Now().UTC(),
		Jobs:      jobs,
	}
}

// NewExtractionEvent creates an event for a run, outcome and archive details are taken from res when set
func NewExtractionEvent(job string, req ExtractRequest, outcome Outcome, res *ExtractResult, err error) *ExtractionEvent {
	e := &ExtractionEvent{
		Protocol:  ExtractionEventProtocol,
		EventID:   ksuid.New().String(),
		TimeStamp: time.Now().UTC(),
		Job:       job,
		Archive:   req.Archive,
		Output:    req.Output,
		Outcome:   outcome,
		Result:    res,
	}

	if err != nil {
		e.Error = err.Error()
		e.Outcome = OutcomeFailed
	}

	return e
}

func (t *SessionStartEvent) SessionEventID() string { return t.EventID }
func (t *SessionStartEvent) String() string {
	return fmt.Sprintf("session %s started %s with %d jobs", t.EventID, t.TimeStamp.Format(time.RFC3339), t.Jobs)
}

func (t *ExtractionEvent) SessionEventID() string { return t.EventID }

// LogStatus logs the event at a level matching its outcome
func (t *ExtractionEvent) LogStatus(log Logger) {
	args := []any{"archive", t.Archive, "output", t.Output}

	if t.Result != nil {
		args = append(args,
			"extracted", t.Result.Extracted,
			"expected", t.Result.Expected,
			"runtime", t.Result.Duration.Truncate(time.Millisecond),
		)
	}

	switch {
	case t.Error != "":
		log.Error(fmt.Sprintf("%s failed", t.Job), append(args, "error", t.Error)...)
	case t.Outcome == OutcomeFailed:
		log.Error(fmt.Sprintf("%s failed", t.Job), args...)
	case t.Outcome == OutcomeCompleteWithErrors:
		log.Warn(fmt.Sprintf("%s completed with errors", t.Job), args...)
	default:
		log.Info(fmt.Sprintf("%s complete", t.Job), args...)
	}
}

func (t *ExtractionEvent) String() string {
	switch {
	case t.Error != "":
		return fmt.Sprintf("%s %s archive=%s output=%s error=%s", t.Job, t.Outcome, t.Archive, t.Output, t.Error)
	case t.Result != nil:
		return fmt.Sprintf("%s %s archive=%s output=%s extracted=%d/%d runtime=%v", t.Job, t.Outcome, t.Archive, t.Output, t.Result.Extracted, t.Result.Expected, t.Result.Duration)
	default:
		return fmt.Sprintf("%s %s archive=%s output=%s", t.Job, t.Outcome, t.Archive, t.Output)
	}
}

// SessionSummary provides a statistical summary of a set of extraction runs
type SessionSummary struct {
	StartTime       time.Time     `json:"start_time" yaml:"start_time"`
	EndTime         time.Time     `json:"end_time" yaml:"end_time"`
	TotalDuration   time.Duration `json:"total_duration" yaml:"total_duration"`
	TotalRuns       int           `json:"total_runs" yaml:"total_runs"`
	CompleteRuns    int           `json:"complete_runs" yaml:"complete_runs"`
	PartialRuns     int           `json:"partial_runs" yaml:"partial_runs"`
	FailedRuns      int           `json:"failed_runs" yaml:"failed_runs"`
	ExtractedFiles  int           `json:"extracted_files" yaml:"extracted_files"`
	EntryErrors     int           `json:"entry_errors" yaml:"entry_errors"`
	BytesWritten    int64         `json:"bytes_written" yaml:"bytes_written"`
	TotalErrors     int           `json:"total_errors" yaml:"total_errors"`
}

// BuildSessionSummary creates a summary report from all events in a session
func BuildSessionSummary(events []SessionEvent) *SessionSummary {
	summary := &SessionSummary{}
	var totalTime time.Duration

	for _, event := range events {
		if startEvent, ok := event.(*SessionStartEvent); ok {
			summary.StartTime = startEvent.TimeStamp
			continue
		}

		ev, ok := event.(*ExtractionEvent)
		if !ok {
			continue
		}

		summary.TotalRuns++

		if ev.TimeStamp.After(summary.EndTime) {
			summary.EndTime = ev.TimeStamp
		}

		if ev.Result != nil {
			totalTime += ev.Result.Duration
			summary.ExtractedFiles += ev.Result.Extracted
			summary.EntryErrors += ev.Result.EntryErrors
			summary.BytesWritten += ev.Result.BytesWritten
		}

		switch {
		case ev.Error != "" || ev.Outcome == OutcomeFailed:
			summary.FailedRuns++
			summary.TotalErrors++
		case ev.Outcome == OutcomeCompleteWithErrors:
			summary.PartialRuns++
		default:
			summary.CompleteRuns++
		}
	}

	if !summary.StartTime.IsZero() && !summary.EndTime.IsZero() {
		summary.TotalDuration = summary.EndTime.Sub(summary.StartTime)
	} else {
		summary.TotalDuration = totalTime
	}

	return summary
}

// String returns a human-readable summary of the session
func (s *SessionSummary) String() string {
	return fmt.Sprintf("Session: %d runs, %d complete, %d with errors, %d failed, %d files extracted, duration=%v",
		s.TotalRuns, s.CompleteRuns, s.PartialRuns, s.FailedRuns, s.ExtractedFiles, s.TotalDuration)
}
