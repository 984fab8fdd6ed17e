// Copyright (c) 2025, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package manager

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"

	"github.com/choria-io/extractvpk/archive/valve"
	"github.com/choria-io/extractvpk/extractor"
	"github.com/choria-io/extractvpk/filter"
	iu "github.com/choria-io/extractvpk/internal/util"
	"github.com/choria-io/extractvpk/model"
	"github.com/choria-io/extractvpk/session"
)

var _ model.Extractor = (*Manager)(nil)

// Manager validates extraction requests, builds their filters and runs them, recording every run in a session
type Manager struct {
	fs         afero.Fs
	opener     model.ArchiveOpener
	verify     bool
	session    model.SessionStore
	log        model.Logger
	userLogger model.Logger

	mu sync.Mutex
}

// NewManager creates a new Manager with the provided loggers, by default it reads VPK files from the local disk
func NewManager(log model.Logger, userLogger model.Logger, opts ...Option) (*Manager, error) {
	mgr := &Manager{
		log:        log,
		userLogger: userLogger,
		fs:         afero.NewOsFs(),
		opener:     valve.New(),
	}

	for _, opt := range opts {
		err := opt(mgr)
		if err != nil {
			return nil, err
		}
	}

	if mgr.session == nil {
		sessionLog, err := mgr.Logger("session", "memory")
		if err != nil {
			return nil, err
		}

		mgr.session, err = session.NewMemorySessionStore(sessionLog)
		if err != nil {
			return nil, err
		}
	}

	return mgr, nil
}

// Run extracts archivePath into outputDir and is true only when the extraction was complete.
//
// Missing archives, uncreatable outputs and invalid patterns are returned as errors before any extraction starts.
func (m *Manager) Run(ctx context.Context, archivePath string, outputDir string, include []string, exclude []string, flatten bool, log model.Logger) (bool, error) {
	outcome, _, err := m.Extract(ctx, model.ExtractRequest{
		Archive: archivePath,
		Output:  outputDir,
		Include: include,
		Exclude: exclude,
		Flatten: flatten,
	}, log)
	if err != nil {
		return false, err
	}

	return outcome.Success(), nil
}

// Extract performs a single extraction and records it in the session store
func (m *Manager) Extract(ctx context.Context, req model.ExtractRequest, log model.Logger) (model.Outcome, *model.ExtractResult, error) {
	f, err := m.prepare(req)
	if err != nil {
		m.recordEvent(model.NewExtractionEvent(m.runName(req), req, model.OutcomeFailed, nil, err))
		return model.OutcomeFailed, nil, err
	}

	outcome, res := m.engine(req).Extract(ctx, req.Archive, req.Output, f, log)

	m.recordEvent(model.NewExtractionEvent(m.runName(req), req, outcome, res, nil))

	return outcome, res, nil
}

// List returns the entries of the archive admitted by the request filters without extracting anything
func (m *Manager) List(req model.ExtractRequest) ([]model.ArchiveEntry, error) {
	if !iu.IsRegularFile(m.fs, req.Archive) {
		return nil, fmt.Errorf("%w: %s", model.ErrArchiveNotFound, req.Archive)
	}

	f, err := filter.New(req.Include, req.Exclude, filter.WithExpression(req.Expression))
	if err != nil {
		return nil, err
	}

	return m.engine(req).List(req.Archive, f)
}

// SessionStore is the store runs are recorded in
func (m *Manager) SessionStore() model.SessionStore {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.session
}

// Filesystem is the filesystem archives are read from and extracted to
func (m *Manager) Filesystem() afero.Fs {
	return m.fs
}

// Logger creates a new logger with the provided key-value pairs added to the context
func (m *Manager) Logger(args ...any) (model.Logger, error) {
	if len(args)%2 != 0 {
		return nil, fmt.Errorf("invalid logger arguments, must be key value pairs")
	}

	return m.log.With(args...), nil
}

func (m *Manager) prepare(req model.ExtractRequest) (filter.Filter, error) {
	if req.Archive == "" || !iu.IsRegularFile(m.fs, req.Archive) {
		return filter.Filter{}, fmt.Errorf("%w: %s", model.ErrArchiveNotFound, req.Archive)
	}

	if req.Output == "" {
		return filter.Filter{}, fmt.Errorf("%w: output directory is required", model.ErrOutputNotCreatable)
	}

	err := m.fs.MkdirAll(req.Output, 0755)
	if err != nil {
		return filter.Filter{}, fmt.Errorf("%w: %s: %w", model.ErrOutputNotCreatable, req.Output, err)
	}

	return filter.New(req.Include, req.Exclude, filter.WithExpression(req.Expression))
}

func (m *Manager) engine(req model.ExtractRequest) *extractor.Engine {
	return extractor.New(m.fs, m.opener, extractor.WithFlatten(req.Flatten), extractor.WithVerify(req.Verify || m.verify))
}

func (m *Manager) runName(req model.ExtractRequest) string {
	if req.Name != "" {
		return req.Name
	}

	return filepath.Base(req.Archive)
}

func (m *Manager) recordEvent(event *model.ExtractionEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session == nil {
		return
	}

	err := m.session.RecordEvent(event)
	if err != nil {
		m.log.Error("Could not record extraction event", "job", event.Job, "error", err)
	}
}
