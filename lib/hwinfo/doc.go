// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package hwinfo probes the processor and its topology from /proc and
// /sys on Linux for bureau-perfmon.
//
// # Processor identity
//
// [ProbeProcessor] reads vendor, family, and model name from
// /proc/cpuinfo so the caller can refuse to program counters on a
// processor whose register layout it does not know. [Processor.IsZen]
// accepts AMD Family 17h.
//
// # Topology
//
// [ProbeTopology] lists online logical CPUs with the socket and L3
// cache they belong to. The socket is topology/physical_package_id.
// The cache tile is cache/index3/id; kernels without that file fall
// back to the lowest CPU in cache/index3/shared_cpu_list, and machines
// without an L3 entry fall back to the socket. The result feeds
// perfmon.NewUnitArena.
//
// Probing never fails: missing or unreadable files produce fewer CPUs
// or zero-valued fields. A container without /sys yields an empty
// topology, which the caller reports.
//
// # Sysfs helpers
//
// [ReadSysfsString], [ReadSysfsInt], and [ParseCPUList] parse the
// single-value and CPU-list files the kernel exposes.
package hwinfo
