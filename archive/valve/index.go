// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package valve

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"strings"

	"github.com/choria-io/extractvpk/model"
)

const (
	signature       = 0x55aa1234
	embeddedArchive = 0x7fff
	entryTerminator = 0xffff
)

type header struct {
	Signature uint32
	Version   uint32
	TreeSize  uint32
}

type directoryEntry struct {
	CRC          uint32
	PreloadBytes uint16
	ArchiveIndex uint16
	EntryOffset  uint32
	EntryLength  uint32
	Terminator   uint16
}

// readChecksums reads the CRC32 stored for every file in a VPK directory tree keyed by lower case entry name
func readChecksums(r io.Reader) (map[string]uint32, error) {
	br := bufio.NewReader(r)

	var hdr header
	err := binary.Read(br, binary.LittleEndian, &hdr)
	if err != nil {
		return nil, fmt.Errorf("could not read header: %w", err)
	}

	if hdr.Signature != signature {
		return nil, fmt.Errorf("invalid signature %#x", hdr.Signature)
	}

	switch hdr.Version {
	case 1:
	case 2:
		// data, archive md5, other md5 and signature section sizes
		_, err = br.Discard(16)
		if err != nil {
			return nil, fmt.Errorf("could not read header: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported version %d", hdr.Version)
	}

	res := make(map[string]uint32)

	for {
		ext, err := readString(br)
		if err != nil {
			return nil, err
		}
		if ext == "" {
			return res, nil
		}

		for {
			dir, err := readString(br)
			if err != nil {
				return nil, err
			}
			if dir == "" {
				break
			}

			for {
				name, err := readString(br)
				if err != nil {
					return nil, err
				}
				if name == "" {
					break
				}

				var entry directoryEntry
				err = binary.Read(br, binary.LittleEndian, &entry)
				if err != nil {
					return nil, fmt.Errorf("could not read entry %s: %w", name, err)
				}

				if entry.Terminator != entryTerminator {
					return nil, fmt.Errorf("corrupt entry %s", name)
				}

				_, err = br.Discard(int(entry.PreloadBytes))
				if err != nil {
					return nil, fmt.Errorf("could not read entry %s: %w", name, err)
				}

				res[strings.ToLower(treeName(dir, name, ext))] = entry.CRC
			}
		}
	}
}

// treeName joins the parts of a directory tree entry, a single space marks an empty part
func treeName(dir string, name string, ext string) string {
	file := name
	if ext != " " {
		file = name + "." + ext
	}

	if dir == " " {
		return file
	}

	return dir + "/" + file
}

func readString(br *bufio.Reader) (string, error) {
	s, err := br.ReadString(0)
	if err != nil {
		return "", fmt.Errorf("could not read directory tree: %w", err)
	}

	return strings.TrimSuffix(s, "\x00"), nil
}

// verifyChecksum compares data with the CRC32 stored for name
func verifyChecksum(name string, data []byte, sums map[string]uint32) error {
	expected, ok := sums[strings.ToLower(name)]
	if !ok {
		return fmt.Errorf("%w: %s: no stored checksum", model.ErrChecksumMismatch, name)
	}

	actual := crc32.ChecksumIEEE(data)
	if actual != expected {
		return fmt.Errorf("%w: %s: expected %08x got %08x", model.ErrChecksumMismatch, name, expected, actual)
	}

	return nil
}
