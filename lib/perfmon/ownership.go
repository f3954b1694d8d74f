// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package perfmon

import (
	"fmt"
	"sync/atomic"
)

// Scope identifies a kind of shared hardware resource.
type Scope uint8

const (
	// ScopeSocket covers registers shared by every core of a socket
	// (the data-fabric counters).
	ScopeSocket Scope = iota + 1

	// ScopeCacheTile covers registers shared by the cores of one L3
	// cache tile.
	ScopeCacheTile
)

// String returns the scope name.
func (s Scope) String() string {
	switch s {
	case ScopeSocket:
		return "socket"
	case ScopeCacheTile:
		return "cache-tile"
	default:
		return fmt.Sprintf("scope(%d)", uint8(s))
	}
}

// OwnershipTable records which unit may write the shared registers of
// each socket and cache tile. A slot is written at most once. There is
// no release: ownership lasts until the table is dropped.
//
// All methods are safe for concurrent use.
type OwnershipTable struct {
	sockets []atomic.Int64
	tiles   []atomic.Int64
}

// NewOwnershipTable returns a table with no owners for the given number
// of sockets and cache tiles.
func NewOwnershipTable(sockets, tiles int) *OwnershipTable {
	return &OwnershipTable{
		sockets: make([]atomic.Int64, sockets),
		tiles:   make([]atomic.Int64, tiles),
	}
}

// slot returns the slot for (scope, id), or nil when out of range.
// Slots store unit+1 so the zero value means unowned.
func (t *OwnershipTable) slot(scope Scope, id int) *atomic.Int64 {
	var slots []atomic.Int64
	switch scope {
	case ScopeSocket:
		slots = t.sockets
	case ScopeCacheTile:
		slots = t.tiles
	}
	if id < 0 || id >= len(slots) {
		return nil
	}
	return &slots[id]
}

// Acquire makes unit the owner of (scope, id) if the slot is unowned.
// If another unit already owns it nothing changes. Acquire never blocks.
// It returns true when unit is the owner after the call.
func (t *OwnershipTable) Acquire(scope Scope, id int, unit UnitIndex) bool {
	slot := t.slot(scope, id)
	if slot == nil {
		return false
	}
	if slot.CompareAndSwap(0, int64(unit)+1) {
		return true
	}
	return slot.Load() == int64(unit)+1
}

// IsOwner reports whether unit owns (scope, id).
func (t *OwnershipTable) IsOwner(scope Scope, id int, unit UnitIndex) bool {
	slot := t.slot(scope, id)
	if slot == nil {
		return false
	}
	return slot.Load() == int64(unit)+1
}

// Owner returns the owner of (scope, id). The boolean is false while
// the slot is unowned or the id is out of range.
func (t *OwnershipTable) Owner(scope Scope, id int) (UnitIndex, bool) {
	slot := t.slot(scope, id)
	if slot == nil {
		return 0, false
	}
	value := slot.Load()
	if value == 0 {
		return 0, false
	}
	return UnitIndex(value - 1), true
}
