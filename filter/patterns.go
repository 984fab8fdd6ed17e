// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package filter

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/choria-io/extractvpk/model"
)

// PatternSet is a compiled, immutable list of case-insensitive regular expressions
type PatternSet struct {
	sources  []string
	patterns []*regexp.Regexp
}

// NewPatternSet compiles patterns, any invalid pattern fails the whole set
func NewPatternSet(patterns []string) (PatternSet, error) {
	set := PatternSet{
		sources:  make([]string, 0, len(patterns)),
		patterns: make([]*regexp.Regexp, 0, len(patterns)),
	}

	for _, p := range patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return PatternSet{}, fmt.Errorf("%w: %q: %w", model.ErrInvalidPattern, p, err)
		}

		set.sources = append(set.sources, p)
		set.patterns = append(set.patterns, re)
	}

	return set, nil
}

// Empty is true when the set holds no patterns and so imposes no constraint
func (s PatternSet) Empty() bool {
	return len(s.patterns) == 0
}

// Patterns returns the source patterns the set was compiled from
func (s PatternSet) Patterns() []string {
	return append([]string(nil), s.sources...)
}

// Matches is true when any pattern matches p, an empty set matches nothing
func (s PatternSet) Matches(p string) bool {
	for _, re := range s.patterns {
		if re.MatchString(p) {
			return true
		}
	}

	return false
}

// PassesFilter admits everything when empty, otherwise p must match at least one pattern
func (s PatternSet) PassesFilter(p string) bool {
	return s.Empty() || s.Matches(p)
}

func (s PatternSet) String() string {
	return strings.Join(s.sources, ", ")
}
