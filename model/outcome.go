// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package model

import (
	"fmt"
	"time"
)

// Outcome is the terminal state of a single extraction run
type Outcome int

const (
	// OutcomeComplete indicates every admissible entry was extracted, or none were admissible
	OutcomeComplete Outcome = iota
	// OutcomeCompleteWithErrors indicates the run finished but some entries could not be placed
	OutcomeCompleteWithErrors
	// OutcomeFailed indicates a fatal error or that no admissible entry could be extracted
	OutcomeFailed
)

var outcomeNames = map[Outcome]string{
	OutcomeComplete:           "complete",
	OutcomeCompleteWithErrors: "complete_with_errors",
	OutcomeFailed:             "failed",
}

func (o Outcome) String() string {
	name, ok := outcomeNames[o]
	if !ok {
		return fmt.Sprintf("unknown(%d)", int(o))
	}

	return name
}

// Success is true only for OutcomeComplete
func (o Outcome) Success() bool {
	return o == OutcomeComplete
}

func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

func (o *Outcome) UnmarshalText(text []byte) error {
	for k, v := range outcomeNames {
		if v == string(text) {
			*o = k
			return nil
		}
	}

	return fmt.Errorf("unknown outcome %q", text)
}

// ExtractRequest describes one extraction run, it is constructed once and passed by value
type ExtractRequest struct {
	// Name identifies the run in session records, the archive file name is used when empty
	Name string
	// Archive is the path to the VPK directory file
	Archive string
	// Output is the destination directory
	Output string
	// Include are patterns an entry must match at least one of, empty means no restriction
	Include []string
	// Exclude are patterns that reject an entry, empty means no restriction
	Exclude []string
	// Expression is an optional boolean expression over the entry path
	Expression string
	// Flatten writes every entry directly into Output discarding archive directories
	Flatten bool
	// Verify requests integrity verification of entry data
	Verify bool
}

// ExtractResult holds the counters gathered during an extraction run
type ExtractResult struct {
	RunID        string        `json:"run_id" yaml:"run_id"`
	Archive      string        `json:"archive" yaml:"archive"`
	Output       string        `json:"output" yaml:"output"`
	Outcome      Outcome       `json:"outcome" yaml:"outcome"`
	Expected     int           `json:"expected" yaml:"expected"`
	Extracted    int           `json:"extracted" yaml:"extracted"`
	EntryErrors  int           `json:"entry_errors" yaml:"entry_errors"`
	BytesWritten int64         `json:"bytes_written" yaml:"bytes_written"`
	Duration     time.Duration `json:"duration" yaml:"duration"`
	Errors       []string      `json:"errors,omitempty" yaml:"errors,omitempty"`
}
