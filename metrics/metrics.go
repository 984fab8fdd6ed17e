// Copyright (c) 2025-2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/choria-io/extractvpk/model"
)

var (
	NameSpace = "choria"
	Subsystem = "extractvpk"

	// ExtractTime is a summary of the time taken to extract an archive
	ExtractTime = prometheus.NewSummaryVec(prometheus.SummaryOpts{
		Name: prometheus.BuildFQName(NameSpace, Subsystem, "extract_duration_seconds"),
		Help: "Time taken to extract an archive",
	}, []string{"archive"})

	// ExtractOutcomeCount counts extraction runs by outcome
	ExtractOutcomeCount = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: prometheus.BuildFQName(NameSpace, Subsystem, "extract_outcome_count"),
		Help: "How many extraction runs ended in a certain outcome",
	}, []string{"archive", "outcome"})

	// ExtractedFilesCount counts files written to disk
	ExtractedFilesCount = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: prometheus.BuildFQName(NameSpace, Subsystem, "extracted_files_count"),
		Help: "How many files were extracted",
	}, []string{"archive"})

	// EntryErrorCount counts entries that could not be placed
	EntryErrorCount = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: prometheus.BuildFQName(NameSpace, Subsystem, "entry_error_count"),
		Help: "How many archive entries could not be extracted",
	}, []string{"archive"})

	// BytesWrittenCount counts bytes written to extracted files
	BytesWrittenCount = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: prometheus.BuildFQName(NameSpace, Subsystem, "bytes_written_count"),
		Help: "How many bytes were written to extracted files",
	}, []string{"archive"})

	// JobRunCount counts job runs recorded in sessions by outcome
	JobRunCount = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: prometheus.BuildFQName(NameSpace, Subsystem, "job_run_count"),
		Help: "How many job runs ended in a certain outcome",
	}, []string{"job", "outcome"})

	// JobFileApplyTime is a summary of the time taken to apply an entire job file
	JobFileApplyTime = prometheus.NewSummaryVec(prometheus.SummaryOpts{
		Name: prometheus.BuildFQName(NameSpace, Subsystem, "job_file_apply_duration_seconds"),
		Help: "Time taken to apply an entire job file",
	}, []string{"file"})

	// DownloadTime is a summary of the time taken to download archives
	DownloadTime = prometheus.NewSummaryVec(prometheus.SummaryOpts{
		Name: prometheus.BuildFQName(NameSpace, Subsystem, "download_duration_seconds"),
		Help: "Time taken to download an archive",
	}, []string{"archive"})

	// DownloadFailureCount counts failed downloads
	DownloadFailureCount = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: prometheus.BuildFQName(NameSpace, Subsystem, "download_error_count"),
		Help: "How many archive downloads failed",
	}, []string{"archive"})

	// FactGatherTime is a summary of the time taken to gather facts
	FactGatherTime = prometheus.NewSummaryVec(prometheus.SummaryOpts{
		Name: prometheus.BuildFQName(NameSpace, Subsystem, "facts_gather_duration_seconds"),
		Help: "Time taken to gather facts",
	}, []string{})
)

func RegisterMetrics() {
	prometheus.MustRegister(ExtractTime)
	prometheus.MustRegister(ExtractOutcomeCount)
	prometheus.MustRegister(ExtractedFilesCount)
	prometheus.MustRegister(EntryErrorCount)
	prometheus.MustRegister(BytesWrittenCount)
	prometheus.MustRegister(JobRunCount)
	prometheus.MustRegister(JobFileApplyTime)
	prometheus.MustRegister(DownloadTime)
	prometheus.MustRegister(DownloadFailureCount)
	prometheus.MustRegister(FactGatherTime)
}

// WriteTextfile writes all metrics gathered by g to file in the node exporter textfile format
func WriteTextfile(file string, g prometheus.Gatherer) error {
	if file == "" {
		return nil
	}

	if g == nil {
		g = prometheus.DefaultGatherer
	}

	err := prometheus.WriteToTextfile(file, g)
	if err != nil {
		return fmt.Errorf("could not write metrics to %s: %w", file, err)
	}

	return nil
}

func ListenAndServe(port int, log model.Logger) {
	if port <= 0 {
		return
	}

	go func() {
		log.Info("Starting monitoring server", "port", port)
		http.Handle("/metrics", promhttp.Handler())
		err := http.ListenAndServe(fmt.Sprintf(":%d", port), nil)
		if err != nil {
			log.Error("HTTP Listener failed", "error", err)
		}
	}()
}
