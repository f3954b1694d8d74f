// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package hwinfo

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
)

// ReadSysfsString reads a single-line sysfs file and returns its
// trimmed content. Returns "" on any error.
func ReadSysfsString(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// ReadSysfsInt reads a decimal integer from a sysfs file. The boolean
// is false when the file is missing or does not hold an integer, which
// lets callers tell "0" apart from "absent".
func ReadSysfsInt(path string) (int, bool) {
	value := ReadSysfsString(path)
	if value == "" {
		return 0, false
	}
	result, err := strconv.Atoi(value)
	if err != nil {
		return 0, false
	}
	return result, true
}

// MaxCPUs is the kernel's largest NR_CPUS. CPU numbers at or above it
// are rejected.
const MaxCPUs = 8192

// ParseCPUList parses the kernel's CPU list format ("0-3,8,10-11") into
// a sorted, de-duplicated slice. An empty string yields an empty list.
func ParseCPUList(list string) ([]int, error) {
	list = strings.TrimSpace(list)
	if list == "" {
		return nil, nil
	}

	seen := make(map[int]struct{})
	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		low, high, isRange := strings.Cut(part, "-")
		first, err := strconv.Atoi(low)
		if err != nil || first < 0 {
			return nil, fmt.Errorf("invalid cpu list entry %q", part)
		}
		last := first
		if isRange {
			last, err = strconv.Atoi(high)
			if err != nil || last < first {
				return nil, fmt.Errorf("invalid cpu range %q", part)
			}
		}
		if last >= MaxCPUs {
			return nil, fmt.Errorf("cpu list entry %q exceeds the %d CPU limit", part, MaxCPUs)
		}
		for cpu := first; cpu <= last; cpu++ {
			seen[cpu] = struct{}{}
		}
	}

	cpus := make([]int, 0, len(seen))
	for cpu := range seen {
		cpus = append(cpus, cpu)
	}
	sort.Ints(cpus)
	return cpus, nil
}
