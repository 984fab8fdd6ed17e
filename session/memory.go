// Copyright (c) 2025-2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/choria-io/extractvpk/model"
)

// MemorySessionStore keeps the extraction runs of a single invocation, it is used when no report directory is set
type MemorySessionStore struct {
	start  time.Time
	jobs   int
	events []model.SessionEvent
	log    model.Logger
	mu     sync.Mutex
}

// NewMemorySessionStore creates an empty in-memory session store
func NewMemorySessionStore(logger model.Logger) (*MemorySessionStore, error) {
	logger.Debug("Creating new session store", "store", "memory")

	return &MemorySessionStore{
		log:    logger,
		events: make([]model.SessionEvent, 0),
	}, nil
}

// StartSession drops previously recorded runs and starts a session expecting a number of jobs
func (s *MemorySessionStore) StartSession(jobs int) error {
	start := model.NewSessionStartEvent(jobs)

	s.mu.Lock()
	s.start = start.TimeStamp
	s.jobs = jobs
	s.events = []model.SessionEvent{start}
	s.mu.Unlock()

	s.log.Info("Starting extraction session", "jobs", jobs, "store", "memory")

	return nil
}

// RecordEvent adds the result of a run to the session
func (s *MemorySessionStore) RecordEvent(event model.SessionEvent) error {
	if event == nil {
		return fmt.Errorf("cannot record a nil event")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	updateMetrics(event)

	s.events = append(s.events, event)

	return nil
}

// StopSession summarizes the recorded runs, destroy discards them afterwards
func (s *MemorySessionStore) StopSession(destroy bool) (*model.SessionSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	summary := model.BuildSessionSummary(s.events)

	s.log.Info("Extraction session complete", "jobs", s.jobs, "runs", summary.TotalRuns, "failed", summary.FailedRuns, "partial", summary.PartialRuns)

	if destroy {
		s.events = make([]model.SessionEvent, 0)
		s.jobs = 0
	}

	return summary, nil
}

// EventsForJob returns the runs of a job in the order they were recorded
func (s *MemorySessionStore) EventsForJob(name string) ([]model.ExtractionEvent, error) {
	allEvents, err := s.AllEvents()
	if err != nil {
		return nil, err
	}

	return filterEvents(allEvents, name)
}

// AllEvents returns a copy of every recorded event including the session start
func (s *MemorySessionStore) AllEvents() ([]model.SessionEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]model.SessionEvent(nil), s.events...), nil
}
