// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"path/filepath"

	"github.com/choria-io/fisk"
	"github.com/hymkor/trash-go"

	"github.com/choria-io/extractvpk/bundle"
	"github.com/choria-io/extractvpk/fetch"
	iu "github.com/choria-io/extractvpk/internal/util"
	"github.com/choria-io/extractvpk/metrics"
	"github.com/choria-io/extractvpk/model"
)

type extractCommand struct {
	input       string
	output      string
	include     []string
	exclude     []string
	where       string
	noPath      bool
	verify      bool
	url         string
	hdr         map[string]string
	username    string
	password    string
	checksum    string
	reportDir   string
	metricsFile string
	clean       bool
}

func registerExtractCommand(app *fisk.Application) {
	cmd := &extractCommand{}

	extract := app.Command("extract", "Extracts files from a VPK archive or addon bundle").Alias("x").Default().Action(cmd.extractAction)
	extract.Flag("input", "VPK archive or addon bundle to extract").Short('i').Required().PlaceHolder("FILE").StringVar(&cmd.input)
	extract.Flag("output", "Directory to extract to").Short('o').Required().PlaceHolder("DIR").StringVar(&cmd.output)
	extract.Flag("extract", "Only extract files matching this case insensitive pattern").Short('e').PlaceHolder("PATTERN").StringsVar(&cmd.include)
	extract.Flag("exclude", "Skip files matching this case insensitive pattern").Short('x').PlaceHolder("PATTERN").StringsVar(&cmd.exclude)
	extract.Flag("where", "Only extract files matching an expression over path, name, dir and ext").PlaceHolder("EXPR").StringVar(&cmd.where)
	extract.Flag("no-path", "Extract all files into the output directory without their archive directories").Short('n').UnNegatableBoolVar(&cmd.noPath)
	extract.Flag("verify", "Verify file checksums stored in the archive").UnNegatableBoolVar(&cmd.verify)
	extract.Flag("url", "Download the archive from this URL into the input path first").PlaceHolder("URL").StringVar(&cmd.url)
	extract.Flag("header", "Add headers to the HTTP requests").Short('H').PlaceHolder("K:V").StringMapVar(&cmd.hdr)
	extract.Flag("username", "HTTP username to use for authentication").PlaceHolder("USER").StringVar(&cmd.username)
	extract.Flag("password", "HTTP password to use for authentication").PlaceHolder("PASS").Envar("HTTP_PASSWORD").StringVar(&cmd.password)
	extract.Flag("checksum", "Hex encoded sha256 checksum of the input").PlaceHolder("SHA256SUM").StringVar(&cmd.checksum)
	extract.Flag("report-dir", "Records the extraction report in this directory").PlaceHolder("DIR").StringVar(&cmd.reportDir)
	extract.Flag("metrics-file", "Writes Prometheus metrics to this file").PlaceHolder("FILE").StringVar(&cmd.metricsFile)
	extract.Flag("clean", "Moves an existing output directory to the trash before extracting").UnNegatableBoolVar(&cmd.clean)
}

func (c *extractCommand) extractAction(_ *fisk.ParseContext) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	mgr, out, err := newManager(cfg, c.reportDir, c.verify)
	if err != nil {
		return err
	}

	log, err := mgr.Logger("component", "extract")
	if err != nil {
		return err
	}

	fs := mgr.Filesystem()

	if c.url != "" {
		_, err = fetch.New(fs, log).Download(ctx, fetch.Request{
			Url:         c.url,
			Destination: c.input,
			Checksum:    c.checksum,
			Username:    c.username,
			Password:    c.password,
			Headers:     c.hdr,
		})
		if err != nil {
			return err
		}
	} else if c.checksum != "" {
		err = iu.Sha256VerifyFile(fs, c.input, c.checksum)
		if err != nil {
			return err
		}
	}

	if c.clean && iu.IsDirectory(fs, c.output) {
		log.Info("Removing previous output", "output", c.output)
		err = trash.Throw(c.output)
		if err != nil {
			return fmt.Errorf("could not clean %s: %w", c.output, err)
		}
	}

	archives := []string{c.input}
	if bundle.IsBundle(c.input) {
		staged, err := bundle.New(fs, log).Stage(c.input)
		if err != nil {
			return err
		}
		defer staged.Cleanup()

		archives = staged.Archives
	}

	session := mgr.SessionStore()
	err = session.StartSession(len(archives))
	if err != nil {
		return err
	}

	complete := true

	for _, archive := range archives {
		req := model.ExtractRequest{
			Name:       filepath.Base(archive),
			Archive:    archive,
			Output:     c.output,
			Include:    c.include,
			Exclude:    c.exclude,
			Expression: c.where,
			Flatten:    c.noPath || cfg.Flatten,
			Verify:     c.verify,
		}

		outcome, res, err := mgr.Extract(ctx, req, out)
		if err != nil {
			return err
		}

		model.NewExtractionEvent(req.Name, req, outcome, res, nil).LogStatus(out)

		if !outcome.Success() {
			complete = false
		}
	}

	summary, err := session.StopSession(false)
	if err != nil {
		return err
	}

	if len(archives) > 1 {
		printSummary("Extraction Summary", summary)
	}

	metricsFile := c.metricsFile
	if metricsFile == "" {
		metricsFile = cfg.MetricsFile
	}

	err = metrics.WriteTextfile(metricsFile, nil)
	if err != nil {
		return err
	}

	if !complete {
		return fmt.Errorf("extraction of %s did not complete", c.input)
	}

	return nil
}
