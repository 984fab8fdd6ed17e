// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package extractor walks an archive and writes admissible entries to an output directory
package extractor

import (
	"context"
	"fmt"
	"hash/crc32"
	"maps"
	"path"
	"path/filepath"
	"slices"
	"time"

	"github.com/segmentio/ksuid"
	"github.com/spf13/afero"

	"github.com/choria-io/extractvpk/filter"
	"github.com/choria-io/extractvpk/internal/util"
	"github.com/choria-io/extractvpk/metrics"
	"github.com/choria-io/extractvpk/model"
)

// Engine extracts archives onto a filesystem, an Engine holds no per run state and is safe for concurrent use
type Engine struct {
	fs      afero.Fs
	opener  model.ArchiveOpener
	flatten bool
	verify  bool
}

// Option configures an Engine
type Option func(*Engine)

// WithFlatten writes every entry directly into the output directory
func WithFlatten(flatten bool) Option {
	return func(e *Engine) { e.flatten = flatten }
}

// WithVerify enables integrity verification of entry data
func WithVerify(verify bool) Option {
	return func(e *Engine) { e.verify = verify }
}

// New creates an engine writing to fs and reading archives using opener
func New(fs afero.Fs, opener model.ArchiveOpener, opts ...Option) *Engine {
	e := &Engine{fs: fs, opener: opener}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Extract writes the entries of the archive at archivePath accepted by f into outputDir.
//
// Faults are never returned, they are logged and reported as model.OutcomeFailed.
// A nil filter admits every entry and a nil logger discards messages.
func (e *Engine) Extract(ctx context.Context, archivePath string, outputDir string, f model.FileFilter, log model.Logger) (outcome model.Outcome, res *model.ExtractResult) {
	if log == nil {
		log = model.NopLogger{}
	}
	if f == nil {
		f = filter.AllowAll
	}

	start := time.Now()
	res = &model.ExtractResult{
		RunID:   ksuid.New().String(),
		Archive: archivePath,
		Output:  outputDir,
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error("Extraction failed unexpectedly", "error", r)
			res.Errors = append(res.Errors, fmt.Sprintf("unexpected failure: %v", r))
			outcome = model.OutcomeFailed
		}

		res.Outcome = outcome
		res.Duration = time.Since(start)
		updateMetrics(res)
	}()

	var err error
	outcome, err = e.extract(ctx, archivePath, outputDir, f, log, res)
	if err != nil {
		log.Error("Extraction failed", "error", err)
		res.Errors = append(res.Errors, err.Error())
		outcome = model.OutcomeFailed
	}

	return outcome, res
}

// List opens the archive and returns the entries accepted by f without writing anything
func (e *Engine) List(archivePath string, f model.FileFilter) ([]model.ArchiveEntry, error) {
	if f == nil {
		f = filter.AllowAll
	}

	archive, err := e.opener.Open(archivePath)
	if err != nil {
		return nil, fmt.Errorf("could not open archive: %w", err)
	}
	defer archive.Close()

	var res []model.ArchiveEntry
	for _, entry := range orderedEntries(archive.Entries()) {
		if f.PassesFilter(entry.FullPath()) {
			res = append(res, entry)
		}
	}

	return res, nil
}

func (e *Engine) extract(ctx context.Context, archivePath string, outputDir string, f model.FileFilter, log model.Logger, res *model.ExtractResult) (model.Outcome, error) {
	outcome := model.OutcomeComplete
	outputDir = util.NormalizePath(outputDir)

	err := e.fs.MkdirAll(outputDir, 0755)
	if err != nil {
		return model.OutcomeFailed, fmt.Errorf("%w: %s: %w", model.ErrOutputNotCreatable, outputDir, err)
	}

	archive, err := e.opener.Open(archivePath)
	if err != nil {
		return model.OutcomeFailed, fmt.Errorf("could not open archive: %w", err)
	}
	defer archive.Close()

	entries := orderedEntries(archive.Entries())

	for _, entry := range entries {
		if f.PassesFilter(entry.FullPath()) {
			res.Expected++
		}
	}

	log.Debug("Found admissible entries", "expected", res.Expected, "entries", len(entries))

	for _, entry := range entries {
		if !f.PassesFilter(entry.FullPath()) {
			continue
		}

		err = ctx.Err()
		if err != nil {
			return model.OutcomeFailed, fmt.Errorf("extraction interrupted: %w", err)
		}

		target, err := e.entryTarget(outputDir, entry)
		if err != nil {
			log.Error("Could not extract entry", "entry", entry.FullPath(), "error", err)
			res.EntryErrors++
			res.Errors = append(res.Errors, err.Error())
			outcome = model.OutcomeCompleteWithErrors
			continue
		}

		if !e.flatten {
			err = e.fs.MkdirAll(filepath.Dir(target), 0755)
			if err != nil {
				return model.OutcomeFailed, fmt.Errorf("could not create directory for %s: %w", target, err)
			}
		}

		log.Info(fmt.Sprintf("Extracting %s", target))

		data, err := archive.ReadEntry(entry, e.verify)
		if err != nil {
			return model.OutcomeFailed, fmt.Errorf("could not read %s: %w", entry.FullPath(), err)
		}

		if e.verify {
			ce, ok := entry.(model.ChecksummedEntry)
			if ok && crc32.ChecksumIEEE(data) != ce.CRC32() {
				return model.OutcomeFailed, fmt.Errorf("%w: %s", model.ErrChecksumMismatch, entry.FullPath())
			}
		}

		err = afero.WriteFile(e.fs, target, data, 0644)
		if err != nil {
			return model.OutcomeFailed, fmt.Errorf("could not write %s: %w", target, err)
		}

		res.Extracted++
		res.BytesWritten += int64(len(data))
	}

	if res.Expected > 0 && res.Extracted == 0 {
		log.Error("No admissible entries could be extracted", "expected", res.Expected)
		res.Errors = append(res.Errors, fmt.Sprintf("none of %d admissible entries were extracted", res.Expected))
		return model.OutcomeFailed, nil
	}

	return outcome, nil
}

// entryTarget computes the normalized output file path for entry
func (e *Engine) entryTarget(outputDir string, entry model.ArchiveEntry) (string, error) {
	dir, ok := util.EntryDirectory(entry.FullPath())
	if !ok {
		return "", fmt.Errorf("%w: %q", model.ErrEntryDirectory, entry.FullPath())
	}

	root := util.NormalizePath(outputDir)

	var target string
	if e.flatten {
		// archive directories are discarded so only the file name can escape
		target = util.NormalizePath(filepath.Join(outputDir, path.Base(util.NormalizePath(entry.FileName()))))
	} else {
		if !util.IsWithin(root, util.NormalizePath(filepath.Join(outputDir, dir))) {
			return "", fmt.Errorf("%w: %q", model.ErrEntryEscapesOutput, entry.FullPath())
		}

		target = util.NormalizePath(filepath.Join(outputDir, util.NormalizePath(entry.FullPath())))
	}

	if !util.IsWithin(root, target) || filepath.Clean(target) == filepath.Clean(root) {
		return "", fmt.Errorf("%w: %q", model.ErrEntryEscapesOutput, entry.FullPath())
	}

	return target, nil
}

// orderedEntries flattens the extension groups in a stable order
func orderedEntries(groups map[string][]model.ArchiveEntry) []model.ArchiveEntry {
	var res []model.ArchiveEntry
	for _, ext := range slices.Sorted(maps.Keys(groups)) {
		res = append(res, groups[ext]...)
	}

	return res
}

func updateMetrics(res *model.ExtractResult) {
	archive := filepath.Base(res.Archive)

	metrics.ExtractTime.WithLabelValues(archive).Observe(res.Duration.Seconds())
	metrics.ExtractOutcomeCount.WithLabelValues(archive, res.Outcome.String()).Inc()
	metrics.ExtractedFilesCount.WithLabelValues(archive).Add(float64(res.Extracted))
	metrics.EntryErrorCount.WithLabelValues(archive).Add(float64(res.EntryErrors))
	metrics.BytesWrittenCount.WithLabelValues(archive).Add(float64(res.BytesWritten))
}
