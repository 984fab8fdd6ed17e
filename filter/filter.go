// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package filter decides which archive entries are admissible for extraction
package filter

import (
	"strings"

	"github.com/choria-io/extractvpk/model"
)

// Filter combines an exclude and an include PatternSet with an optional Expression.
//
// The value is immutable once built and safe to share between goroutines.
type Filter struct {
	exclude    PatternSet
	include    PatternSet
	expression *Expression
}

// Option configures a Filter
type Option func(*Filter) error

// WithExpression adds a boolean expression over path, name, dir and ext that must hold for admitted entries
func WithExpression(src string) Option {
	return func(f *Filter) error {
		if strings.TrimSpace(src) == "" {
			return nil
		}

		e, err := NewExpression(src)
		if err != nil {
			return err
		}

		f.expression = e

		return nil
	}
}

// New compiles include and exclude patterns into a Filter, invalid patterns fail immediately
func New(include []string, exclude []string, opts ...Option) (Filter, error) {
	var err error
	f := Filter{}

	f.exclude, err = NewPatternSet(exclude)
	if err != nil {
		return Filter{}, err
	}

	f.include, err = NewPatternSet(include)
	if err != nil {
		return Filter{}, err
	}

	for _, opt := range opts {
		err = opt(&f)
		if err != nil {
			return Filter{}, err
		}
	}

	return f, nil
}

// PassesFilter rejects p when it matches an exclude pattern, when includes are set but none match or when the expression is false
func (f Filter) PassesFilter(p string) bool {
	if !f.exclude.Empty() && f.exclude.Matches(p) {
		return false
	}

	if !f.include.Empty() && !f.include.Matches(p) {
		return false
	}

	if f.expression != nil && !f.expression.Evaluate(p) {
		return false
	}

	return true
}

// Include returns the include patterns
func (f Filter) Include() PatternSet { return f.include }

// Exclude returns the exclude patterns
func (f Filter) Exclude() PatternSet { return f.exclude }

// Expression returns the expression source, empty when not set
func (f Filter) Expression() string {
	if f.expression == nil {
		return ""
	}

	return f.expression.String()
}

type constantFilter bool

func (c constantFilter) PassesFilter(string) bool { return bool(c) }

var (
	// AllowAll admits every entry
	AllowAll model.FileFilter = constantFilter(true)
	// DenyAll rejects every entry
	DenyAll model.FileFilter = constantFilter(false)
)
