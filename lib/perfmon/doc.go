// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package perfmon programs the performance-monitoring counters of AMD
// Family 17h (Zen) processors through model-specific registers.
//
// Three register classes exist on Zen: per-core PMCs, the socket-wide
// data-fabric counters ([SharedUncore]), and the L3 cache counters shared
// by every core of a cache tile ([SharedCacheTile]). Per-core registers
// are private to the core that touches them. Shared registers physically
// belong to several cores at once, so exactly one execution unit per
// socket and per tile is allowed to write them.
//
// # Ownership
//
// An [OwnershipTable] holds one slot per socket and per cache tile. The
// first unit to [OwnershipTable.Acquire] a slot keeps it for the rest of
// the process; later calls are no-ops. Every unit calls the lifecycle
// operations uniformly and the calls of non-owners on shared classes
// succeed without touching hardware. Once the acquire race settles, the
// shared registers have a single writer and no lock is needed.
//
// # Lifecycle
//
// A [Driver] holds the collaborators shared by all units: the register
// transport, the ownership table, and the unit arena. [Driver.Init]
// returns an [Agent] for one unit. The agent drives every event of an
// [EventSet] through
//
//	Uninitialized → Configured → Started → (Sample)* → Stopped → Uninitialized
//
// via [Agent.Setup], [Agent.Start], [Agent.Sample], [Agent.Stop], and
// [Agent.Finalize]. Only events whose class is in the set's active
// [ClassSet] are touched; an external multiplexer chooses which sets are
// active at a given time.
//
// # Overflow
//
// Counters are finite-width and wrap. Each read is compared against the
// previous width-masked value; a decrease counts one overflow. This is
// comparison-based detection between two samples, not interrupt handling.
//
// Register I/O errors are returned to the caller unmodified. The package
// never retries and never logs failures; register traffic is logged at
// debug level when a logger is supplied.
package perfmon
