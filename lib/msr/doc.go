// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package msr reads and writes x86 model-specific registers.
//
// [Device] goes through the Linux msr driver: each logical CPU exposes
// /dev/cpu/N/msr, and an 8-byte pread or pwrite at offset R accesses
// register R on that CPU. The driver needs CAP_SYS_RAWIO and the msr
// kernel module loaded. Nonexistent registers fail with EIO.
//
// [Memory] is an in-memory register file with the same contract. Tests
// use it to count register traffic and inject failures; bureau-perfmon
// uses it for --dry-run.
//
// Both types satisfy perfmon.RegisterAccess.
package msr
