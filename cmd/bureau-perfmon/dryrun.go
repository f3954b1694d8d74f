// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/bureau-foundation/perfmon/lib/eventtable"
	"github.com/bureau-foundation/perfmon/lib/msr"
)

// dryRunStep is how much a simulated counter advances per read.
const dryRunStep = 1000

// newDryRunAccess returns an in-memory register file whose counter
// registers advance on every read, so --dry-run produces moving numbers
// without touching hardware.
func newDryRunAccess(table *eventtable.Table) *msr.Memory {
	counters := make(map[uint32]bool)
	for _, counter := range table.Counters() {
		counters[counter.Handle.Counter] = true
	}

	type location struct {
		cpu      int
		register uint32
	}
	reads := make(map[location]uint64)

	memory := msr.NewMemory()
	memory.OnRead(func(cpu int, register uint32, value uint64) uint64 {
		if !counters[register] {
			return value
		}
		key := location{cpu, register}
		reads[key]++
		return value + reads[key]*dryRunStep*uint64(cpu+1)
	})
	return memory
}
