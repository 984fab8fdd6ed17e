// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package memory is an in-memory archive used to embed content and to test extraction without VPK files
package memory

import (
	"fmt"
	"hash/crc32"
	"os"
	"path"
	"strings"
	"sync"

	"github.com/choria-io/extractvpk/model"
)

// File is a file held in memory, it implements model.ChecksummedEntry
type File struct {
	path     string
	data     []byte
	checksum uint32
}

func (e *File) FullPath() string { return e.path }
func (e *File) FileName() string { return path.Base(e.path) }
func (e *File) Size() int64      { return int64(len(e.data)) }
func (e *File) CRC32() uint32    { return e.checksum }

func (e *File) Extension() string {
	return strings.TrimPrefix(strings.ToLower(path.Ext(e.path)), ".")
}

// Archive is an in-memory model.Archive
type Archive struct {
	entries  map[string][]model.ArchiveEntry
	readErrs map[string]error
	panics   map[string]bool
	reads    int
	closes   int
	mu       sync.Mutex
}

// NewArchive creates an empty archive
func NewArchive() *Archive {
	return &Archive{
		entries:  make(map[string][]model.ArchiveEntry),
		readErrs: make(map[string]error),
		panics:   make(map[string]bool),
	}
}

// Add stores data at path with a matching checksum
func (a *Archive) Add(path string, data []byte) *Archive {
	return a.AddWithChecksum(path, data, crc32.ChecksumIEEE(data))
}

// AddWithChecksum stores data at path recording checksum as the stored CRC32, used to simulate corruption
func (a *Archive) AddWithChecksum(path string, data []byte, checksum uint32) *Archive {
	a.mu.Lock()
	defer a.mu.Unlock()

	e := &File{path: path, data: append([]byte(nil), data...), checksum: checksum}
	a.entries[e.Extension()] = append(a.entries[e.Extension()], e)

	return a
}

// FailRead makes reads of the entry at path fail with err
func (a *Archive) FailRead(path string, err error) *Archive {
	a.mu.Lock()
	a.readErrs[path] = err
	a.mu.Unlock()

	return a
}

// PanicOnRead makes reads of the entry at path panic
func (a *Archive) PanicOnRead(path string) *Archive {
	a.mu.Lock()
	a.panics[path] = true
	a.mu.Unlock()

	return a
}

// Entries returns a copy of the entry groups keyed by lower case extension
func (a *Archive) Entries() map[string][]model.ArchiveEntry {
	a.mu.Lock()
	defer a.mu.Unlock()

	res := make(map[string][]model.ArchiveEntry, len(a.entries))
	for k, v := range a.entries {
		res[k] = append([]model.ArchiveEntry(nil), v...)
	}

	return res
}

// ReadEntry returns a copy of the entry data, integrity is checked by callers through CRC32
func (a *Archive) ReadEntry(entry model.ArchiveEntry, _ bool) ([]byte, error) {
	e, ok := entry.(*File)
	if !ok {
		return nil, fmt.Errorf("unsupported entry type %T", entry)
	}

	a.mu.Lock()
	a.reads++
	err := a.readErrs[e.path]
	panics := a.panics[e.path]
	a.mu.Unlock()

	if panics {
		panic(fmt.Sprintf("simulated read failure for %s", e.path))
	}

	if err != nil {
		return nil, err
	}

	return append([]byte(nil), e.data...), nil
}

// Close records the close, the archive stays readable
func (a *Archive) Close() error {
	a.mu.Lock()
	a.closes++
	a.mu.Unlock()

	return nil
}

// Reads is the number of ReadEntry calls made
func (a *Archive) Reads() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.reads
}

// Closes is the number of Close calls made
func (a *Archive) Closes() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.closes
}

// Opener serves registered in-memory archives by path
type Opener struct {
	archives map[string]*Archive
	errs     map[string]error
	mu       sync.Mutex
}

// NewOpener creates an opener without any archives
func NewOpener() *Opener {
	return &Opener{
		archives: make(map[string]*Archive),
		errs:     make(map[string]error),
	}
}

// Register serves a for path
func (o *Opener) Register(path string, a *Archive) *Opener {
	o.mu.Lock()
	o.archives[path] = a
	o.mu.Unlock()

	return o
}

// FailOpen makes opening path fail with err
func (o *Opener) FailOpen(path string, err error) *Opener {
	o.mu.Lock()
	o.errs[path] = err
	o.mu.Unlock()

	return o
}

func (o *Opener) Open(path string) (model.Archive, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err, ok := o.errs[path]; ok {
		return nil, err
	}

	a, ok := o.archives[path]
	if !ok {
		return nil, fmt.Errorf("could not open archive %s: %w", path, os.ErrNotExist)
	}

	return a, nil
}
