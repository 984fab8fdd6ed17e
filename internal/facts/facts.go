// Copyright (c) 2025-2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package facts gathers information about the host that job files can reference in templates
package facts

import (
	"context"
	"encoding/json"
	"path/filepath"

	"github.com/goccy/go-yaml"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/spf13/afero"

	"github.com/choria-io/extractvpk/config"
	iu "github.com/choria-io/extractvpk/internal/util"
	"github.com/choria-io/extractvpk/metrics"
	"github.com/choria-io/extractvpk/model"
)

// StandardFacts returns host facts merged with the contents of facts.json and facts.yaml in the system and user config directories
func StandardFacts(ctx context.Context, fs afero.Fs, log model.Logger) (map[string]any, error) {
	timer := prometheus.NewTimer(metrics.FactGatherTime.WithLabelValues())
	defer timer.ObserveDuration()

	sf := standardFacts(ctx)

	for _, dir := range config.Directories() {
		sf = mergeFactsFiles(fs, dir, sf, log)
	}

	return sf, nil
}

func mergeFactsFiles(fs afero.Fs, dir string, sf map[string]any, log model.Logger) map[string]any {
	for _, file := range []string{"facts.json", "facts.yaml"} {
		path := filepath.Join(dir, file)
		if !iu.FileExists(fs, path) {
			continue
		}

		log.Debug("Reading facts", "file", path)
		fb, err := afero.ReadFile(fs, path)
		if err != nil {
			log.Error("Failed to read facts file", "file", path, "error", err)
			continue
		}

		var f map[string]any
		if filepath.Ext(file) == ".json" {
			err = json.Unmarshal(fb, &f)
		} else {
			err = yaml.Unmarshal(fb, &f)
		}
		if err != nil {
			log.Error("Failed to unmarshal facts file", "file", path, "error", err)
			continue
		}

		sf = iu.DeepMergeMap(sf, f)
	}

	return sf
}

func standardFacts(ctx context.Context) map[string]any {
	hostFacts := map[string]any{
		"info": map[string]any{},
	}
	memoryFacts := map[string]any{
		"virtual": map[string]any{},
	}
	cpuFacts := map[string]any{
		"count": 0,
	}
	partitionFacts := map[string]any{
		"usage": []any{},
	}

	hostInfo, err := host.InfoWithContext(ctx)
	if err == nil {
		hostFacts["info"] = hostInfo
	}

	virtual, err := mem.VirtualMemoryWithContext(ctx)
	if err == nil {
		memoryFacts["virtual"] = virtual
	}

	count, err := cpu.CountsWithContext(ctx, true)
	if err == nil {
		cpuFacts["count"] = count
	}

	parts, err := disk.PartitionsWithContext(ctx, false)
	if err == nil {
		usages := []*disk.UsageStat{}

		for _, part := range parts {
			u, err := disk.UsageWithContext(ctx, part.Mountpoint)
			if err != nil {
				continue
			}
			usages = append(usages, u)
		}

		partitionFacts["usage"] = usages
	}

	return normalize(map[string]any{
		"host":      hostFacts,
		"memory":    memoryFacts,
		"cpu":       cpuFacts,
		"partition": partitionFacts,
	})
}

// normalize round trips facts through JSON so structs become plain maps that merge and template like user facts
func normalize(f map[string]any) map[string]any {
	j, err := json.Marshal(f)
	if err != nil {
		return f
	}

	var res map[string]any
	err = json.Unmarshal(j, &res)
	if err != nil {
		return f
	}

	return res
}
