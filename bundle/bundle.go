// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package bundle stages the VPK archives held in addon bundles so they can be extracted individually
package bundle

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bodgit/sevenzip"
	"github.com/nwaples/rardecode"
	"github.com/spf13/afero"

	iu "github.com/choria-io/extractvpk/internal/util"
	"github.com/choria-io/extractvpk/model"
)

// Stager copies VPK members out of bundles into temporary directories
type Stager struct {
	fs  afero.Fs
	log model.Logger
}

// Staged is a set of VPK archives copied out of a bundle
type Staged struct {
	// Dir is the temporary directory holding the archives
	Dir string
	// Archives are the paths of the staged archives sorted by name
	Archives []string

	fs afero.Fs
}

type member struct {
	name string
	open func() (io.ReadCloser, error)
}

// IsBundle determines if file is a supported bundle based on its extension
func IsBundle(file string) bool {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".zip", ".7z", ".rar":
		return true
	default:
		return false
	}
}

// New creates a stager using fs for reading bundles and writing staged archives
func New(fs afero.Fs, log model.Logger) *Stager {
	if log == nil {
		log = model.NopLogger{}
	}

	return &Stager{fs: fs, log: log}
}

// Stage copies every .vpk member of the bundle at file into a new temporary directory, callers must call Cleanup on the result
func (s *Stager) Stage(file string) (*Staged, error) {
	f, err := s.fs.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}

	dir, err := afero.TempDir(s.fs, "", "extractvpk-bundle-")
	if err != nil {
		return nil, err
	}

	staged := &Staged{Dir: dir, fs: s.fs}

	switch strings.ToLower(filepath.Ext(file)) {
	case ".zip":
		err = s.stageZip(staged, f, stat.Size())
	case ".7z":
		err = s.stageSevenZip(staged, f, stat.Size())
	case ".rar":
		err = s.stageRar(staged, f)
	default:
		err = fmt.Errorf("%w: %s", model.ErrUnsupportedBundle, filepath.Ext(file))
	}
	if err != nil {
		staged.Cleanup()
		return nil, fmt.Errorf("could not stage %s: %w", file, err)
	}

	if len(staged.Archives) == 0 {
		staged.Cleanup()
		return nil, fmt.Errorf("%w: %s", model.ErrNoArchivesInBundle, file)
	}

	slices.Sort(staged.Archives)

	s.log.Debug("Staged bundle", "bundle", file, "archives", len(staged.Archives), "dir", dir)

	return staged, nil
}

// Cleanup removes the staging directory
func (s *Staged) Cleanup() error {
	if s.Dir == "" {
		return nil
	}

	return s.fs.RemoveAll(s.Dir)
}

func (s *Stager) stageZip(staged *Staged, r io.ReaderAt, size int64) error {
	zr, err := zip.NewReader(r, size)
	if err != nil && !errors.Is(err, zip.ErrInsecurePath) {
		return err
	}

	for _, zf := range zr.File {
		if zf.FileInfo().IsDir() {
			continue
		}

		err = s.stageMember(staged, member{name: zf.Name, open: zf.Open})
		if err != nil {
			return err
		}
	}

	return nil
}

func (s *Stager) stageSevenZip(staged *Staged, r io.ReaderAt, size int64) error {
	zr, err := sevenzip.NewReader(r, size)
	if err != nil {
		return err
	}

	for _, zf := range zr.File {
		if zf.FileInfo().IsDir() {
			continue
		}

		err = s.stageMember(staged, member{name: zf.Name, open: zf.Open})
		if err != nil {
			return err
		}
	}

	return nil
}

func (s *Stager) stageRar(staged *Staged, r io.Reader) error {
	rr, err := rardecode.NewReader(r, "")
	if err != nil {
		return err
	}

	for {
		hdr, err := rr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		if hdr.IsDir {
			continue
		}

		err = s.stageMember(staged, member{name: hdr.Name, open: func() (io.ReadCloser, error) { return io.NopCloser(rr), nil }})
		if err != nil {
			return err
		}
	}
}

// stageMember copies a .vpk member into the staging directory keeping its relative path, other members are skipped
func (s *Stager) stageMember(staged *Staged, m member) error {
	name := strings.TrimPrefix(iu.NormalizePath(m.name), "/")
	if !strings.EqualFold(path.Ext(name), ".vpk") {
		return nil
	}

	if !iu.IsWithin(".", name) {
		s.log.Warn("Skipping bundle member outside the bundle root", "member", m.name)
		return nil
	}

	target := filepath.Join(staged.Dir, filepath.FromSlash(name))
	err := s.fs.MkdirAll(filepath.Dir(target), 0700)
	if err != nil {
		return err
	}

	src, err := m.open()
	if err != nil {
		return fmt.Errorf("could not open member %s: %w", m.name, err)
	}
	defer src.Close()

	dst, err := s.fs.Create(target)
	if err != nil {
		return err
	}

	_, err = io.Copy(dst, src)
	if err != nil {
		dst.Close()
		return fmt.Errorf("could not copy member %s: %w", m.name, err)
	}

	err = dst.Close()
	if err != nil {
		return err
	}

	staged.Archives = append(staged.Archives, target)

	return nil
}
