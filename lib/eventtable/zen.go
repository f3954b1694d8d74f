// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package eventtable

import (
	"fmt"

	"github.com/bureau-foundation/perfmon/lib/perfmon"
)

// Family 17h register bases. Control and counter registers interleave:
// control at base+2i, counter at base+2i+1.
const (
	zenCoreBase   = 0xC0010200
	zenL3Base     = 0xC0010230
	zenFabricBase = 0xC0010240

	zenCoreCounters   = 6
	zenL3Counters     = 6
	zenFabricCounters = 4

	// zenCounterWidth is the architectural width of every Family 17h
	// performance counter.
	zenCounterWidth = 48
)

// zenCounters returns the Family 17h counter registers.
func zenCounters() []Counter {
	var counters []Counter
	add := func(prefix string, base uint32, count int, class perfmon.ClassKind) {
		for i := 0; i < count; i++ {
			name := fmt.Sprintf("%s%d", prefix, i)
			counters = append(counters, Counter{
				Class: class,
				Handle: perfmon.RegisterHandle{
					Name:    name,
					Config:  base + uint32(2*i),
					Counter: base + uint32(2*i) + 1,
					Width:   zenCounterWidth,
				},
			})
		}
	}
	add("PMC", zenCoreBase, zenCoreCounters, perfmon.ClassPerCore)
	add("CPMC", zenL3Base, zenL3Counters, perfmon.ClassCacheTile)
	add("DFC", zenFabricBase, zenFabricCounters, perfmon.ClassUncore)
	return counters
}

var (
	onCore   = perfmon.ClassSetOf(perfmon.ClassPerCore)
	onL3     = perfmon.ClassSetOf(perfmon.ClassCacheTile)
	onFabric = perfmon.ClassSetOf(perfmon.ClassUncore)
)

// zenEvents lists the built-in Family 17h events.
func zenEvents() []Definition {
	return []Definition{
		// Core.
		{Name: "RETIRED_INSTRUCTIONS", ID: 0xC0, Classes: onCore},
		{Name: "CPU_CLOCKS_UNHALTED", ID: 0x76, Classes: onCore},
		{Name: "RETIRED_UOPS", ID: 0xC1, Classes: onCore},
		{Name: "RETIRED_BRANCH_INSTR", ID: 0xC2, Classes: onCore},
		{Name: "RETIRED_MISP_BRANCH_INSTR", ID: 0xC3, Classes: onCore},
		{Name: "RETIRED_TAKEN_BRANCH_INSTR", ID: 0xC4, Classes: onCore},
		{Name: "DATA_CACHE_ACCESSES", ID: 0x40, Classes: onCore},
		{Name: "L1_DTLB_MISS", ID: 0x45, Umask: 0xFF, Classes: onCore},
		{Name: "L2_CACHE_MISS_FROM_DC_MISS", ID: 0x64, Umask: 0x08, Classes: onCore},
		{Name: "RETIRED_SSE_AVX_FLOPS_ALL", ID: 0x03, Umask: 0xFF, Classes: onCore},

		// L3 cache tile.
		{Name: "L3_ACCESS", ID: 0x04, Umask: 0xFF, Classes: onL3},
		{Name: "L3_MISS", ID: 0x06, Umask: 0x01, Classes: onL3},

		// Data fabric. Channels 4-7 need event ids wider than a byte.
		{Name: "DRAM_CHANNEL_0", ID: 0x007, Umask: 0x38, Classes: onFabric},
		{Name: "DRAM_CHANNEL_1", ID: 0x047, Umask: 0x38, Classes: onFabric},
		{Name: "DRAM_CHANNEL_2", ID: 0x087, Umask: 0x38, Classes: onFabric},
		{Name: "DRAM_CHANNEL_3", ID: 0x0C7, Umask: 0x38, Classes: onFabric},
		{Name: "DRAM_CHANNEL_4", ID: 0x107, Umask: 0x38, Classes: onFabric},
		{Name: "DRAM_CHANNEL_5", ID: 0x147, Umask: 0x38, Classes: onFabric},
		{Name: "DRAM_CHANNEL_6", ID: 0x187, Umask: 0x38, Classes: onFabric},
		{Name: "DRAM_CHANNEL_7", ID: 0x1C7, Umask: 0x38, Classes: onFabric},
	}
}

// Zen returns a table with the built-in Family 17h counters and events.
func Zen() *Table {
	table := newTable()
	for _, counter := range zenCounters() {
		table.counters[counter.Handle.Name] = counter
	}
	for _, definition := range zenEvents() {
		table.events[definition.Name] = definition
	}
	return table
}
