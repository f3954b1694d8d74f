// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package eventtable maps event and counter names to the descriptors and
// register handles lib/perfmon programs.
//
// [Zen] returns the built-in table for AMD Family 17h: six core PMCs
// (PMC0–PMC5), six L3 counters (CPMC0–CPMC5), and four data-fabric
// counters (DFC0–DFC3), together with the common events for each. Extra
// events are merged from a JSONC file with [Table.LoadFile]:
//
//	{
//	    // L2 misses caused by data cache misses.
//	    "events": [
//	        {"name": "L2_DC_MISS", "id": "0x64", "umask": "0x08", "counters": ["pmc"]},
//	    ],
//	}
//
// Event strings name an event, the counter it runs on, and options:
//
//	RETIRED_INSTRUCTIONS:PMC0
//	CPU_CLOCKS_UNHALTED:PMC1:KERNEL:THRESHOLD=2
//	L3_ACCESS:CPMC0:TID=0x3:NID=0x1
//
// [Table.ParseGroup] turns a list of event strings into a
// perfmon.EventSet whose active classes are the classes of its counters.
package eventtable
