// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// bureau-perfmon samples AMD Family 17h hardware performance counters on
// every selected CPU and writes the readings as a CBOR sample stream.
//
// Each CPU runs its own worker. At startup the workers claim their
// socket's data-fabric counters and their L3 tile's cache counters in
// CPU order; the lowest CPU of each socket and tile becomes the owner
// and is the only one that programs and reads those shared registers.
// Other CPUs record the events as skipped.
//
// Configured event groups are multiplexed onto the counters: a group
// collects rotate_after samples, is stopped, and the next group is
// programmed. On SIGINT, SIGTERM, or when --duration elapses every
// worker stops its counters and clears every register it programmed.
//
// Registers are accessed through /dev/cpu/N/msr, which needs the msr
// kernel module and CAP_SYS_RAWIO. --dry-run substitutes simulated
// registers for testing configurations on any machine.
//
// Usage:
//
//	bureau-perfmon [--config perfmon.yaml] [--cpus 0-7] [--duration 30s] [-o samples.cbor]
package main
