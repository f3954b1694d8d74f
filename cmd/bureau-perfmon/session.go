// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/bureau-foundation/perfmon/lib/config"
	"github.com/bureau-foundation/perfmon/lib/eventtable"
	"github.com/bureau-foundation/perfmon/lib/hwinfo"
	"github.com/bureau-foundation/perfmon/lib/perfmon"
	"github.com/bureau-foundation/perfmon/lib/record"
)

// session is everything resolved from configuration before sampling
// starts.
type session struct {
	table      *eventtable.Table
	placements []perfmon.Placement
	groups     []*perfmon.EventSet
	header     record.Header
}

// buildSession resolves the measured CPUs and event groups.
func buildSession(cfg *config.Config, topology []hwinfo.CPU, stamp string, logger *slog.Logger) (*session, error) {
	placements, err := selectPlacements(topology, cfg.CPUs)
	if err != nil {
		return nil, err
	}

	table := eventtable.Zen()
	if cfg.EventsFile != "" {
		if err := table.LoadFile(cfg.EventsFile); err != nil {
			return nil, err
		}
	}

	interval, err := cfg.IntervalDuration()
	if err != nil {
		return nil, err
	}

	result := &session{
		table:      table,
		placements: placements,
		header: record.Header{
			Version:     stamp,
			Interval:    int64(interval),
			RotateAfter: cfg.RotateAfter,
		},
	}
	for _, placement := range placements {
		result.header.CPUs = append(result.header.CPUs, placement.CPU)
	}

	for _, groupConfig := range cfg.Groups {
		set, err := table.ParseGroup(groupConfig.Name, groupConfig.Events)
		if err != nil {
			return nil, err
		}
		described, err := record.DescribeGroup(set)
		if err != nil {
			return nil, err
		}
		result.groups = append(result.groups, set)
		result.header.Groups = append(result.header.Groups, described)
		logger.Info("event group",
			"group", set.Name,
			"events", len(set.Events),
			"classes", set.Active.String(),
			"fingerprint", described.Fingerprint.String(),
		)
	}
	return result, nil
}

// selectPlacements maps probed CPUs to arena placements in ascending CPU
// order, keeping only the requested CPUs when any are listed.
func selectPlacements(topology []hwinfo.CPU, requested []int) ([]perfmon.Placement, error) {
	if len(topology) == 0 {
		return nil, fmt.Errorf("no online CPUs found")
	}
	byID := make(map[int]hwinfo.CPU, len(topology))
	for _, cpu := range topology {
		byID[cpu.ID] = cpu
	}

	selected := topology
	if len(requested) > 0 {
		selected = make([]hwinfo.CPU, 0, len(requested))
		for _, id := range slices.Sorted(slices.Values(requested)) {
			cpu, ok := byID[id]
			if !ok {
				return nil, fmt.Errorf("cpu %d is not online", id)
			}
			selected = append(selected, cpu)
		}
	}

	placements := make([]perfmon.Placement, 0, len(selected))
	for _, cpu := range selected {
		placements = append(placements, perfmon.Placement{
			CPU:    cpu.ID,
			Socket: cpu.Package,
			Tile:   cpu.L3,
		})
	}
	return placements, nil
}
