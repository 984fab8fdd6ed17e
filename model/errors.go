// Copyright (c) 2025, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package model

import (
	"errors"
)

var (
	ErrArchiveNotFound     = errors.New("archive not found")
	ErrInvalidPattern      = errors.New("invalid filter pattern")
	ErrOutputNotCreatable  = errors.New("output directory could not be created")
	ErrEntryDirectory      = errors.New("could not determine entry directory")
	ErrEntryEscapesOutput  = errors.New("entry path escapes the output directory")
	ErrChecksumMismatch    = errors.New("checksum mismatch")
	ErrNoArchivesInBundle  = errors.New("bundle does not contain any vpk archives")
	ErrUnsupportedBundle   = errors.New("unsupported bundle type")
	ErrInvalidJob          = errors.New("invalid job")
	ErrDuplicateJobName    = errors.New("duplicate job name")
	ErrDownloadFailed      = errors.New("download failed")
	ErrSessionStoreMissing = errors.New("session store does not exist")
)
