// Copyright (c) 2025, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"github.com/choria-io/extractvpk/metrics"
	"github.com/choria-io/extractvpk/model"
)

func updateMetrics(event model.SessionEvent) {
	e, ok := event.(*model.ExtractionEvent)
	if !ok {
		return
	}

	metrics.JobRunCount.WithLabelValues(e.Job, e.Outcome.String()).Inc()
}

func filterEvents(allEvents []model.SessionEvent, job string) ([]model.ExtractionEvent, error) {
	var filtered []model.ExtractionEvent
	for _, event := range allEvents {
		// SessionStartEvents are not tied to a job
		ev, ok := event.(*model.ExtractionEvent)
		if !ok {
			continue
		}

		if ev.Job == job {
			filtered = append(filtered, *ev)
		}
	}

	return filtered, nil
}
