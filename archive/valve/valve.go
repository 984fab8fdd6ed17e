// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package valve opens VPK archives using git.lubar.me/ben/valve
package valve

import (
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"git.lubar.me/ben/valve/vpk"

	"github.com/choria-io/extractvpk/model"
)

// Opener opens single file VPK archives from disk
type Opener struct{}

// New creates a VPK opener
func New() *Opener {
	return &Opener{}
}

// File is a file inside a VPK archive
type File struct {
	file *vpk.File
	name string
	ext  string
}

// FullPath is the entry path with the root marker removed
func (e *File) FullPath() string  { return e.name }
func (e *File) FileName() string  { return path.Base(e.name) }
func (e *File) Extension() string { return e.ext }

// Size is unknown until the entry is read and reported as -1
func (e *File) Size() int64 { return -1 }

// Archive is an opened VPK archive, it holds the underlying file open until Close
type Archive struct {
	opener    *vpk.Opener
	entries   map[string][]model.ArchiveEntry
	checksums map[string]uint32
	sumsErr   error
}

// Open reads the directory tree of the archive at file
func (o *Opener) Open(file string) (model.Archive, error) {
	opener := vpk.Single(file)

	archive, err := opener.ReadArchive()
	if err != nil {
		opener.Close()
		return nil, fmt.Errorf("could not read archive %s: %w", file, err)
	}

	a := &Archive{
		opener:  opener,
		entries: make(map[string][]model.ArchiveEntry),
	}

	// only needed when verifying so failures are reported by ReadEntry
	a.checksums, a.sumsErr = checksumsFromFile(file)

	for i := range archive.Files {
		f := &archive.Files[i]
		name := entryName(f.Name())
		ext := strings.TrimPrefix(strings.ToLower(path.Ext(name)), ".")

		a.entries[ext] = append(a.entries[ext], &File{file: f, name: name, ext: ext})
	}

	return a, nil
}

// entryName removes the " /" marker VPK directories use for root level files
func entryName(name string) string {
	name = strings.TrimPrefix(name, " /")
	return strings.TrimPrefix(name, "/")
}

func (a *Archive) Entries() map[string][]model.ArchiveEntry {
	return a.entries
}

func checksumsFromFile(file string) (map[string]uint32, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return readChecksums(f)
}

// ReadEntry reads the entry data, when verify is set the data is compared with the CRC32 stored in the directory tree
func (a *Archive) ReadEntry(entry model.ArchiveEntry, verify bool) ([]byte, error) {
	e, ok := entry.(*File)
	if !ok {
		return nil, fmt.Errorf("unsupported entry type %T", entry)
	}

	r, err := e.file.Open(a.opener)
	if err != nil {
		return nil, fmt.Errorf("could not open %s: %w", e.name, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("could not read %s: %w", e.name, err)
	}

	if verify {
		if a.sumsErr != nil {
			return nil, fmt.Errorf("could not read checksums for %s: %w", e.name, a.sumsErr)
		}

		err = verifyChecksum(e.name, data, a.checksums)
		if err != nil {
			return nil, err
		}
	}

	return data, nil
}

func (a *Archive) Close() error {
	a.opener.Close()
	return nil
}
