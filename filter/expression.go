// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package filter

import (
	"fmt"
	"path"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/choria-io/extractvpk/internal/util"
	"github.com/choria-io/extractvpk/model"
)

// Expression is a compiled boolean expression evaluated against the facets of an entry path
type Expression struct {
	source  string
	program *vm.Program
}

type entryEnv struct {
	Path string `expr:"path"`
	Name string `expr:"name"`
	Dir  string `expr:"dir"`
	Ext  string `expr:"ext"`
}

func newEntryEnv(p string) entryEnv {
	n := util.NormalizePath(p)
	dir, _ := util.EntryDirectory(p)
	name := path.Base(n)

	return entryEnv{
		Path: n,
		Name: name,
		Dir:  dir,
		Ext:  strings.TrimPrefix(path.Ext(name), "."),
	}
}

// NewExpression compiles src, it must evaluate to a boolean
func NewExpression(src string) (*Expression, error) {
	program, err := expr.Compile(src, expr.Env(entryEnv{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("%w: expression %q: %w", model.ErrInvalidPattern, src, err)
	}

	return &Expression{source: src, program: program}, nil
}

// Evaluate runs the expression for path p, errors during evaluation reject p
func (e *Expression) Evaluate(p string) bool {
	res, err := expr.Run(e.program, newEntryEnv(p))
	if err != nil {
		return false
	}

	ok, _ := res.(bool)

	return ok
}

func (e *Expression) String() string {
	return e.source
}
