// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package perfmon

import (
	"errors"
	"fmt"
)

// ErrUnitOutOfRange is returned when a UnitIndex does not name a unit
// in the arena.
var ErrUnitOutOfRange = errors.New("perfmon: unit index out of range")

// UnitIndex is a dense index assigned to an execution unit when the
// arena is built. Indices run from 0 to Len()-1 and are unrelated to
// the operating system's CPU numbering.
type UnitIndex int

// Unit is one hardware thread together with the shared resources it
// sits on. The mapping is fixed for the lifetime of the process.
type Unit struct {
	Index UnitIndex

	// CPU is the operating system's logical CPU number. Register
	// access is addressed by this number.
	CPU int

	// Socket is a dense socket index (0..sockets-1).
	Socket int

	// Tile is a dense cache-tile index (0..tiles-1), unique across
	// sockets.
	Tile int
}

// Placement describes where a logical CPU sits, with topology ids as the
// kernel reports them. Socket and tile ids need not be dense.
type Placement struct {
	CPU    int
	Socket int
	Tile   int
}

// UnitArena owns every Unit known to the driver. Socket and tile ids
// from the topology are renumbered densely so ownership slots can be
// plain slices.
type UnitArena struct {
	units   []Unit
	sockets int
	tiles   int
}

// NewUnitArena builds an arena from topology placements. Units are
// indexed in the order given. Duplicate CPUs are rejected.
func NewUnitArena(placements []Placement) (*UnitArena, error) {
	arena := &UnitArena{units: make([]Unit, 0, len(placements))}

	socketIndex := make(map[int]int)
	type tileKey struct{ socket, tile int }
	tileIndex := make(map[tileKey]int)
	seen := make(map[int]struct{})

	for _, placement := range placements {
		if _, duplicate := seen[placement.CPU]; duplicate {
			return nil, fmt.Errorf("perfmon: cpu %d listed twice", placement.CPU)
		}
		seen[placement.CPU] = struct{}{}

		socket, ok := socketIndex[placement.Socket]
		if !ok {
			socket = len(socketIndex)
			socketIndex[placement.Socket] = socket
		}
		key := tileKey{placement.Socket, placement.Tile}
		tile, ok := tileIndex[key]
		if !ok {
			tile = len(tileIndex)
			tileIndex[key] = tile
		}

		arena.units = append(arena.units, Unit{
			Index:  UnitIndex(len(arena.units)),
			CPU:    placement.CPU,
			Socket: socket,
			Tile:   tile,
		})
	}

	arena.sockets = len(socketIndex)
	arena.tiles = len(tileIndex)
	return arena, nil
}

// Len returns the number of units.
func (a *UnitArena) Len() int { return len(a.units) }

// Sockets returns the number of distinct sockets.
func (a *UnitArena) Sockets() int { return a.sockets }

// Tiles returns the number of distinct cache tiles.
func (a *UnitArena) Tiles() int { return a.tiles }

// Unit returns the unit at index.
func (a *UnitArena) Unit(index UnitIndex) (Unit, error) {
	if index < 0 || int(index) >= len(a.units) {
		return Unit{}, fmt.Errorf("%w: %d (have %d units)", ErrUnitOutOfRange, index, len(a.units))
	}
	return a.units[index], nil
}

// Units returns a copy of all units in index order.
func (a *UnitArena) Units() []Unit {
	units := make([]Unit, len(a.units))
	copy(units, a.units)
	return units
}

// scopeID returns the slot id of the given scope for unit.
func (u Unit) scopeID(scope Scope) int {
	if scope == ScopeCacheTile {
		return u.Tile
	}
	return u.Socket
}
