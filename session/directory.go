// Copyright (c) 2025, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/segmentio/ksuid"
	"github.com/spf13/afero"

	iu "github.com/choria-io/extractvpk/internal/util"
	"github.com/choria-io/extractvpk/model"
)

// DirectorySessionStore stores extraction events in a directory of files, one file per event
type DirectorySessionStore struct {
	fs        afero.Fs
	directory string
	log       model.Logger
	out       model.Logger
	mu        sync.Mutex
}

// NewDirectorySessionStore creates a new directory of files based session store with the provided loggers
func NewDirectorySessionStore(fs afero.Fs, directory string, logger model.Logger, writer model.Logger) (*DirectorySessionStore, error) {
	if directory == "" {
		return nil, fmt.Errorf("session directory path cannot be empty")
	}

	if fs == nil {
		fs = afero.NewOsFs()
	}

	absDir, err := filepath.Abs(filepath.Clean(directory))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve directory path: %w", err)
	}

	logger.Info("Creating new session store")

	return &DirectorySessionStore{
		fs:        fs,
		out:       writer,
		log:       logger,
		directory: absDir,
	}, nil
}

// Directory is the absolute path events are stored in
func (s *DirectorySessionStore) Directory() string {
	return s.directory
}

func (s *DirectorySessionStore) StartSession(jobs int) error {
	s.log.Info("Creating new session record", "jobs", jobs, "store", "directory")

	s.mu.Lock()
	err := s.fs.MkdirAll(s.directory, 0755)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	return s.RecordEvent(model.NewSessionStartEvent(jobs))
}

// EventsForJob returns all events for a given job, the events are sorted in time order with latest event at the end
func (s *DirectorySessionStore) EventsForJob(name string) ([]model.ExtractionEvent, error) {
	allEvents, err := s.AllEvents()
	if err != nil {
		return nil, err
	}

	return filterEvents(allEvents, name)
}

func (s *DirectorySessionStore) RecordEvent(event model.SessionEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	updateMetrics(event)

	// ksuids are base62 and cannot hold path separators
	_, err := ksuid.Parse(event.SessionEventID())
	if err != nil {
		return fmt.Errorf("invalid event ID: %w", err)
	}

	if !iu.IsDirectory(s.fs, s.directory) {
		return fmt.Errorf("%w: %s", model.ErrSessionStoreMissing, s.directory)
	}

	data, err := json.MarshalIndent(event, "", "  ")
	if err != nil {
		return err
	}

	filename := filepath.Join(s.directory, event.SessionEventID()+".event")
	s.log.Debug("Recording event", "filename", filename)

	return afero.WriteFile(s.fs, filename, data, 0644)
}

func (s *DirectorySessionStore) StopSession(destroy bool) (*model.SessionSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	events, err := s.allEventsUnlocked()
	if err != nil {
		return nil, err
	}

	summary := model.BuildSessionSummary(events)

	if destroy && iu.IsDirectory(s.fs, s.directory) {
		err = s.fs.RemoveAll(s.directory)
		if err != nil {
			s.log.Error("Failed to remove session directory", "error", err)
		}
	}

	return summary, nil
}

// AllEvents returns all events in the session sorted by time order (oldest first)
func (s *DirectorySessionStore) AllEvents() ([]model.SessionEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.allEventsUnlocked()
}

func (s *DirectorySessionStore) allEventsUnlocked() ([]model.SessionEvent, error) {
	var events []model.SessionEvent

	if !iu.IsDirectory(s.fs, s.directory) {
		return events, nil
	}

	entries, err := afero.ReadDir(s.fs, s.directory)
	if err != nil {
		return nil, fmt.Errorf("failed to read session directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".event") {
			continue
		}

		filename := filepath.Join(s.directory, entry.Name())
		data, err := afero.ReadFile(s.fs, filename)
		if err != nil {
			s.log.Error("Failed to read event file", "filename", filename, "error", err)
			continue
		}

		var eventType struct {
			Protocol string `json:"protocol"`
		}
		err = json.Unmarshal(data, &eventType)
		if err != nil {
			s.log.Error("Failed to parse event type", "filename", filename, "error", err)
			continue
		}

		var event model.SessionEvent
		switch eventType.Protocol {
		case model.SessionStartEventProtocol:
			var startEvent model.SessionStartEvent
			err = json.Unmarshal(data, &startEvent)
			if err != nil {
				s.log.Error("Failed to parse session start event", "filename", filename, "error", err)
				continue
			}
			event = &startEvent

		case model.ExtractionEventProtocol:
			var exEvent model.ExtractionEvent
			err = json.Unmarshal(data, &exEvent)
			if err != nil {
				s.log.Error("Failed to parse extraction event", "filename", filename, "error", err)
				continue
			}
			event = &exEvent

		default:
			s.log.Warn("Unknown event protocol", "filename", filename, "protocol", eventType.Protocol)
			continue
		}

		events = append(events, event)
	}

	// ksuids are k-sortable so this gives time order
	sort.Slice(events, func(i, j int) bool {
		return events[i].SessionEventID() < events[j].SessionEventID()
	})

	return events, nil
}
