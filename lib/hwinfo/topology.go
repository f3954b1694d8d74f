// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package hwinfo

import (
	"bufio"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// CPU is one online logical CPU and the shared resources it sits on.
type CPU struct {
	// ID is the logical CPU number (the N in cpuN).
	ID int

	// Package is the physical socket id.
	Package int

	// Core is the core id within the package.
	Core int

	// L3 identifies the L3 cache (cache tile) the CPU uses. Its meaning
	// depends on L3Source, which is the same for every CPU returned by
	// one probe.
	L3 int

	// L3Source records where L3 was read from.
	L3Source L3Source
}

// L3Source names the sysfs attribute an L3 id came from. Ids from
// different sources are not comparable.
type L3Source int

const (
	// L3FromCacheID is cache/index3/id.
	L3FromCacheID L3Source = iota
	// L3FromSharedList is the lowest CPU in cache/index3/shared_cpu_list.
	L3FromSharedList
	// L3FromPackage is the physical package id; one tile per socket.
	L3FromPackage
)

func (s L3Source) String() string {
	switch s {
	case L3FromCacheID:
		return "cache-id"
	case L3FromSharedList:
		return "shared-cpu-list"
	case L3FromPackage:
		return "package"
	default:
		return "unknown"
	}
}

// Processor identifies the CPU model from /proc/cpuinfo.
type Processor struct {
	Vendor string
	Family int
	Model  int
	Name   string
}

// zenFamily is AMD Family 17h.
const zenFamily = 0x17

// IsZen reports whether the processor is an AMD Family 17h part.
func (p Processor) IsZen() bool {
	return p.Vendor == "AuthenticAMD" && p.Family == zenFamily
}

// ProbeProcessor reads the first processor block of /proc/cpuinfo.
func ProbeProcessor() Processor {
	return probeProcessorFrom("/proc")
}

// probeProcessorFrom is the testable implementation of ProbeProcessor.
func probeProcessorFrom(procRoot string) Processor {
	var processor Processor

	file, err := os.Open(filepath.Join(procRoot, "cpuinfo"))
	if err != nil {
		return processor
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		// A blank line ends the first processor's block.
		if strings.TrimSpace(line) == "" && processor.Vendor != "" {
			break
		}
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.TrimSpace(key) {
		case "vendor_id":
			processor.Vendor = value
		case "cpu family":
			processor.Family, _ = strconv.Atoi(value)
		case "model":
			processor.Model, _ = strconv.Atoi(value)
		case "model name":
			processor.Name = value
		}
	}
	return processor
}

// ProbeTopology lists the online CPUs of the running system, sorted by
// CPU number.
func ProbeTopology() []CPU {
	return ProbeTopologyAt("/sys")
}

// ProbeTopologyAt is ProbeTopology against the sysfs tree mounted at
// sysRoot.
func ProbeTopologyAt(sysRoot string) []CPU {
	cpuBase := filepath.Join(sysRoot, "devices/system/cpu")
	entries, err := os.ReadDir(cpuBase)
	if err != nil {
		return nil
	}

	var cpus []CPU
	for _, entry := range entries {
		id, ok := cpuDirectoryNumber(entry.Name())
		if !ok {
			continue
		}
		cpuDir := filepath.Join(cpuBase, entry.Name())

		// cpu0 usually has no online file because it cannot be offlined.
		if online := ReadSysfsString(filepath.Join(cpuDir, "online")); online == "0" {
			continue
		}

		packageID, ok := ReadSysfsInt(filepath.Join(cpuDir, "topology/physical_package_id"))
		if !ok {
			// Offline CPUs have no topology directory.
			continue
		}
		coreID, _ := ReadSysfsInt(filepath.Join(cpuDir, "topology/core_id"))

		l3, source := readL3ID(cpuDir, packageID)
		cpus = append(cpus, CPU{
			ID:       id,
			Package:  packageID,
			Core:     coreID,
			L3:       l3,
			L3Source: source,
		})
	}

	sort.Slice(cpus, func(i, j int) bool { return cpus[i].ID < cpus[j].ID })
	unifyL3Sources(cpus)
	return cpus
}

// readL3ID returns the id of the L3 cache used by the CPU at cpuDir and
// the attribute it came from.
func readL3ID(cpuDir string, packageID int) (int, L3Source) {
	cacheDir := filepath.Join(cpuDir, "cache/index3")
	if id, ok := ReadSysfsInt(filepath.Join(cacheDir, "id")); ok {
		return id, L3FromCacheID
	}
	shared, err := ParseCPUList(ReadSysfsString(filepath.Join(cacheDir, "shared_cpu_list")))
	if err == nil && len(shared) > 0 {
		return shared[0], L3FromSharedList
	}
	return packageID, L3FromPackage
}

// unifyL3Sources falls back to package ids for every CPU when the CPUs
// did not all read their L3 id from the same attribute. Mixing sources
// could give two CPUs on one cache different ids, or CPUs on different
// caches the same id.
func unifyL3Sources(cpus []CPU) {
	for i := range cpus {
		if cpus[i].L3Source == cpus[0].L3Source {
			continue
		}
		for j := range cpus {
			cpus[j].L3 = cpus[j].Package
			cpus[j].L3Source = L3FromPackage
		}
		return
	}
}

// cpuDirectoryNumber returns N for a "cpuN" directory name.
// Skips cpufreq, cpuidle, and similar entries.
func cpuDirectoryNumber(name string) (int, bool) {
	suffix, found := strings.CutPrefix(name, "cpu")
	if !found || suffix == "" || suffix[0] < '0' || suffix[0] > '9' {
		return 0, false
	}
	number, err := strconv.Atoi(suffix)
	if err != nil {
		return 0, false
	}
	return number, true
}
