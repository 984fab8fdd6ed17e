// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package model

// ArchiveEntry is a single file record inside a VPK archive
type ArchiveEntry interface {
	// FullPath is the logical path of the entry including its directory, always using / separators
	FullPath() string
	// FileName is the bare file name of the entry
	FileName() string
	// Extension is the file type the archive groups the entry under, without the leading dot
	Extension() string
	// Size is the uncompressed size of the entry in bytes
	Size() int64
}

// ChecksummedEntry is implemented by entries that expose the CRC32 stored in the archive directory
type ChecksummedEntry interface {
	ArchiveEntry
	CRC32() uint32
}

// Archive is an opened and parsed archive
type Archive interface {
	// Entries returns all entries grouped by extension
	Entries() map[string][]ArchiveEntry
	// ReadEntry materializes the bytes of an entry, verify requests integrity verification where supported
	ReadEntry(entry ArchiveEntry, verify bool) ([]byte, error)
	// Close releases the archive and any open file handles
	Close() error
}

// ArchiveOpener opens and parses archives
type ArchiveOpener interface {
	Open(path string) (Archive, error)
}

// FileFilter decides if an archive entry is admissible for extraction
type FileFilter interface {
	PassesFilter(path string) bool
}
