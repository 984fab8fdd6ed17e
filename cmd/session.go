// Copyright (c) 2025-2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"

	"github.com/choria-io/fisk"
	"github.com/spf13/afero"

	iu "github.com/choria-io/extractvpk/internal/util"
	"github.com/choria-io/extractvpk/model"
	"github.com/choria-io/extractvpk/session"
)

type sessionCmd struct {
	directory string
	events    bool
	destroy   bool
}

func registerSessionCommand(app *fisk.Application) {
	cmd := &sessionCmd{}

	sess := app.Command("session", "Inspect recorded extraction reports")

	report := sess.Command("report", "Summarize the extractions recorded in a report directory").Action(cmd.reportAction)
	report.Arg("directory", "The report directory").Envar("EXTRACTVPK_REPORT_DIR").Required().StringVar(&cmd.directory)
	report.Flag("events", "Show every recorded event").UnNegatableBoolVar(&cmd.events)
	report.Flag("destroy", "Remove the report directory after reporting").UnNegatableBoolVar(&cmd.destroy)
}

func (c *sessionCmd) reportAction(_ *fisk.ParseContext) error {
	fs := afero.NewOsFs()

	store, err := session.NewDirectorySessionStore(fs, c.directory, newLogger(""), newOutputLogger(""))
	if err != nil {
		return err
	}

	if !iu.IsDirectory(fs, store.Directory()) {
		return fmt.Errorf("%w: %s", model.ErrSessionStoreMissing, store.Directory())
	}

	if c.events {
		events, err := store.AllEvents()
		if err != nil {
			return err
		}

		for _, event := range events {
			fmt.Println(event.String())
		}
	}

	summary, err := store.StopSession(c.destroy)
	if err != nil {
		return err
	}

	printSummary("Session Summary", summary)

	return nil
}
