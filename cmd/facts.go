// Copyright (c) 2025-2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/choria-io/fisk"
	"github.com/goccy/go-yaml"
	"github.com/spf13/afero"
	"github.com/tidwall/gjson"

	"github.com/choria-io/extractvpk/internal/facts"
)

type factsCommand struct {
	yamlFormat bool
	query      string
}

func registerFactsCommand(app *fisk.Application) {
	cmd := &factsCommand{}

	f := app.Command("facts", "Shows the facts available to job file templates").Action(cmd.factsAction)
	f.Arg("query", "Query to execute").StringVar(&cmd.query)
	f.Flag("yaml", "Output facts in YAML format").UnNegatableBoolVar(&cmd.yamlFormat)
}

func (c *factsCommand) factsAction(_ *fisk.ParseContext) error {
	sf, err := facts.StandardFacts(ctx, afero.NewOsFs(), newLogger(""))
	if err != nil {
		return err
	}

	fj, err := json.Marshal(sf)
	if err != nil {
		return err
	}

	if c.query != "" {
		res := gjson.GetBytes(fj, c.query)
		fj = []byte(res.Raw)
	}

	if c.yamlFormat {
		y, err := yaml.JSONToYAML(fj)
		if err != nil {
			return err
		}

		fmt.Println(string(y))
		return nil
	}

	j := bytes.NewBuffer([]byte{})
	err = json.Indent(j, fj, "", "  ")
	if err != nil {
		return err
	}

	fmt.Println(j.String())

	return nil
}
