// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package perfmon

import (
	"fmt"
	"log/slog"
)

// RegisterAccess performs raw model-specific register I/O on a logical
// CPU. Implementations report failure through the returned error; the
// driver passes such errors back to its caller unchanged.
type RegisterAccess interface {
	Read(cpu int, register uint32) (uint64, error)
	Write(cpu int, register uint32, value uint64) error
}

// RegisterHandle locates the register pair backing one hardware counter.
type RegisterHandle struct {
	// Name is the counter name, e.g. "PMC0" or "CPMC2".
	Name string

	// Config is the address of the configuration (control) register.
	Config uint32

	// Counter is the address of the counter register.
	Counter uint32

	// Width is the architectural counter width in bits. The counter
	// register may be wider; excess bits are discarded on read.
	Width uint
}

// Event is one monitored event bound to a counter.
type Event struct {
	Name       string
	Handle     RegisterHandle
	Class      RegisterClass
	Descriptor EventDescriptor
}

// EventSet is a group of events programmed together. Active selects
// which register classes the lifecycle operations touch; events of
// other classes are skipped.
type EventSet struct {
	Name   string
	Events []Event
	Active ClassSet
}

// Driver holds the state shared by every unit's agent. It is safe for
// concurrent use; the agents it returns are not.
type Driver struct {
	access    RegisterAccess
	arena     *UnitArena
	ownership *OwnershipTable
	logger    *slog.Logger
}

// NewDriver returns a driver over access for the units in arena. The
// ownership table is shared by reference with every agent; pass a fresh
// table per test for isolation. A nil logger discards register traces.
func NewDriver(access RegisterAccess, arena *UnitArena, ownership *OwnershipTable, logger *slog.Logger) *Driver {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Driver{
		access:    access,
		arena:     arena,
		ownership: ownership,
		logger:    logger,
	}
}

// Ownership returns the driver's ownership table.
func (d *Driver) Ownership() *OwnershipTable { return d.ownership }

// Arena returns the driver's unit arena.
func (d *Driver) Arena() *UnitArena { return d.arena }

// Init prepares unit for counting. It races for ownership of the unit's
// socket and cache tile; whichever unit gets there first keeps the slot.
// The returned agent must only be used from one goroutine.
func (d *Driver) Init(index UnitIndex) (*Agent, error) {
	unit, err := d.arena.Unit(index)
	if err != nil {
		return nil, err
	}
	ownsSocket := d.ownership.Acquire(ScopeSocket, unit.Socket, unit.Index)
	ownsTile := d.ownership.Acquire(ScopeCacheTile, unit.Tile, unit.Index)

	logger := d.logger.With("cpu", unit.CPU)
	logger.Debug("unit initialized",
		"socket", unit.Socket,
		"socket_owner", ownsSocket,
		"tile", unit.Tile,
		"tile_owner", ownsTile,
	)

	return &Agent{
		driver:      d,
		unit:        unit,
		logger:      logger,
		configCache: make(map[uint32]uint64),
		counters:    make(map[*EventSet][]CounterState),
	}, nil
}

func hex(value uint64) string { return fmt.Sprintf("0x%X", value) }
