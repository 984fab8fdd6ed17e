// Copyright (c) 2025-2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"

	"github.com/choria-io/fisk"

	"github.com/choria-io/extractvpk/internal/facts"
	"github.com/choria-io/extractvpk/jobs"
	"github.com/choria-io/extractvpk/metrics"
	"github.com/choria-io/extractvpk/templates"
)

type applyCommand struct {
	jobFile     string
	renderOnly  bool
	report      bool
	concurrency int
	reportDir   string
	metricsFile string
	monitorPort int
}

func registerApplyCommand(app *fisk.Application) {
	cmd := &applyCommand{}

	apply := app.Command("apply", "Runs the extractions described in a job file").Action(cmd.applyAction)
	apply.Arg("jobs", "Path to the job file to apply").Required().ExistingFileVar(&cmd.jobFile)
	apply.Flag("render", "Do not extract, only render the resolved job file").UnNegatableBoolVar(&cmd.renderOnly)
	apply.Flag("report", "Show a summary report").Default("true").BoolVar(&cmd.report)
	apply.Flag("concurrency", "How many outputs to extract at the same time").PlaceHolder("N").IntVar(&cmd.concurrency)
	apply.Flag("report-dir", "Records extraction reports in this directory").PlaceHolder("DIR").StringVar(&cmd.reportDir)
	apply.Flag("metrics-file", "Writes Prometheus metrics to this file").PlaceHolder("FILE").StringVar(&cmd.metricsFile)
	apply.Flag("monitor-port", "Serves Prometheus metrics on this port while running").PlaceHolder("PORT").IntVar(&cmd.monitorPort)
}

func (c *applyCommand) applyAction(_ *fisk.ParseContext) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	mgr, out, err := newManager(cfg, c.reportDir, false)
	if err != nil {
		return err
	}

	log, err := mgr.Logger("component", "apply")
	if err != nil {
		return err
	}

	metrics.ListenAndServe(c.monitorPort, log)

	f, err := facts.StandardFacts(ctx, mgr.Filesystem(), log)
	if err != nil {
		return err
	}

	jf, err := jobs.ParseFile(mgr.Filesystem(), c.jobFile, templates.NewEnv(f, cfg.Data))
	if err != nil {
		return err
	}

	if c.renderOnly {
		resolved, err := jf.ToYaml()
		if err != nil {
			return err
		}

		fmt.Println(string(resolved))

		return nil
	}

	concurrency := c.concurrency
	if concurrency == 0 {
		concurrency = cfg.Concurrency
	}

	runner, err := jobs.NewRunner(mgr, out, jobs.WithConcurrency(concurrency))
	if err != nil {
		return err
	}

	summary, err := runner.Execute(ctx, jf)
	if err != nil {
		return err
	}

	if c.report {
		printSummary("Job File Run Summary", summary)
	}

	metricsFile := c.metricsFile
	if metricsFile == "" {
		metricsFile = cfg.MetricsFile
	}

	err = metrics.WriteTextfile(metricsFile, nil)
	if err != nil {
		return err
	}

	if summary.FailedRuns > 0 || summary.PartialRuns > 0 {
		return fmt.Errorf("%d of %d runs did not complete", summary.FailedRuns+summary.PartialRuns, summary.TotalRuns)
	}

	return nil
}
