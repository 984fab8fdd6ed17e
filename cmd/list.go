// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/choria-io/fisk"

	"github.com/choria-io/extractvpk/model"
)

type listCommand struct {
	input      string
	include    []string
	exclude    []string
	where      string
	jsonFormat bool
}

type listEntry struct {
	Path      string `json:"path"`
	Extension string `json:"extension"`
	Size      int64  `json:"size,omitempty"`
}

func registerListCommand(app *fisk.Application) {
	cmd := &listCommand{}

	list := app.Command("list", "Lists files in a VPK archive that would be extracted").Alias("ls").Action(cmd.listAction)
	list.Flag("input", "VPK archive to list").Short('i').Required().PlaceHolder("FILE").ExistingFileVar(&cmd.input)
	list.Flag("extract", "Only list files matching this case insensitive pattern").Short('e').PlaceHolder("PATTERN").StringsVar(&cmd.include)
	list.Flag("exclude", "Skip files matching this case insensitive pattern").Short('x').PlaceHolder("PATTERN").StringsVar(&cmd.exclude)
	list.Flag("where", "Only list files matching an expression over path, name, dir and ext").PlaceHolder("EXPR").StringVar(&cmd.where)
	list.Flag("json", "Produce JSON output").UnNegatableBoolVar(&cmd.jsonFormat)
}

func (c *listCommand) listAction(_ *fisk.ParseContext) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	mgr, _, err := newManager(cfg, "", false)
	if err != nil {
		return err
	}

	entries, err := mgr.List(model.ExtractRequest{
		Archive:    c.input,
		Include:    c.include,
		Exclude:    c.exclude,
		Expression: c.where,
	})
	if err != nil {
		return err
	}

	slices.SortFunc(entries, func(a, b model.ArchiveEntry) int {
		return strings.Compare(a.FullPath(), b.FullPath())
	})

	if c.jsonFormat {
		res := make([]listEntry, 0, len(entries))
		for _, e := range entries {
			le := listEntry{Path: e.FullPath(), Extension: e.Extension()}
			if e.Size() > 0 {
				le.Size = e.Size()
			}
			res = append(res, le)
		}

		j, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return err
		}

		fmt.Println(string(j))

		return nil
	}

	for _, e := range entries {
		fmt.Println(e.FullPath())
	}

	return nil
}
