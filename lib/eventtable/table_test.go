// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package eventtable

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bureau-foundation/perfmon/lib/perfmon"
)

func TestZenCounters(t *testing.T) {
	table := Zen()
	tests := []struct {
		name    string
		class   perfmon.ClassKind
		config  uint32
		counter uint32
	}{
		{"PMC0", perfmon.ClassPerCore, 0xC0010200, 0xC0010201},
		{"PMC5", perfmon.ClassPerCore, 0xC001020A, 0xC001020B},
		{"CPMC0", perfmon.ClassCacheTile, 0xC0010230, 0xC0010231},
		{"CPMC5", perfmon.ClassCacheTile, 0xC001023A, 0xC001023B},
		{"DFC0", perfmon.ClassUncore, 0xC0010240, 0xC0010241},
		{"DFC3", perfmon.ClassUncore, 0xC0010246, 0xC0010247},
	}
	for _, test := range tests {
		counter, err := table.Counter(test.name)
		if err != nil {
			t.Errorf("Counter(%s): %v", test.name, err)
			continue
		}
		if counter.Class != test.class || counter.Handle.Config != test.config ||
			counter.Handle.Counter != test.counter || counter.Handle.Width != 48 {
			t.Errorf("Counter(%s) = %+v", test.name, counter)
		}
	}
	if got := len(table.Counters()); got != 16 {
		t.Errorf("len(Counters()) = %d, want 16", got)
	}
	if _, err := table.Counter("PMC6"); !errors.Is(err, ErrUnknownCounter) {
		t.Errorf("Counter(PMC6) error = %v, want ErrUnknownCounter", err)
	}
}

func TestCountersSortedByClassAndAddress(t *testing.T) {
	counters := Zen().Counters()
	for i := 1; i < len(counters); i++ {
		previous, current := counters[i-1], counters[i]
		if previous.Class > current.Class ||
			(previous.Class == current.Class && previous.Handle.Config >= current.Handle.Config) {
			t.Fatalf("counters out of order at %d: %s before %s", i, previous.Handle.Name, current.Handle.Name)
		}
	}
}

func TestEventLookupIsCaseInsensitive(t *testing.T) {
	table := Zen()
	definition, err := table.Event("retired_instructions")
	if err != nil {
		t.Fatalf("Event: %v", err)
	}
	if definition.ID != 0xC0 || !definition.Classes.Contains(perfmon.ClassPerCore) {
		t.Errorf("definition = %+v", definition)
	}
	if _, err := table.Event("NO_SUCH_EVENT"); !errors.Is(err, ErrUnknownEvent) {
		t.Errorf("error = %v, want ErrUnknownEvent", err)
	}
}

func TestEventsSorted(t *testing.T) {
	events := Zen().Events()
	if len(events) == 0 {
		t.Fatal("no built-in events")
	}
	for i := 1; i < len(events); i++ {
		if events[i-1].Name >= events[i].Name {
			t.Fatalf("events out of order: %s before %s", events[i-1].Name, events[i].Name)
		}
	}
}

func TestLoadFileMergesJSONC(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonc")
	content := `{
	// Events missing from the built-in table.
	"events": [
		{"name": "l2_dc_miss", "id": "0x64", "umask": "0x08", "counters": ["pmc"]},
		{"name": "L3_MISS", "id": "0x06", "umask": "0x03", "counters": ["cache"]}, // override
		{"name": "DRAM_CHANNEL_8", "id": "0x207", "counters": ["uncore"]},
	],
}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	table := Zen()
	if err := table.LoadFile(path); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	added, err := table.Event("L2_DC_MISS")
	if err != nil {
		t.Fatalf("Event(L2_DC_MISS): %v", err)
	}
	if added.ID != 0x64 || added.Umask != 0x08 || added.Classes != perfmon.ClassSetOf(perfmon.ClassPerCore) {
		t.Errorf("L2_DC_MISS = %+v", added)
	}
	if overridden, _ := table.Event("L3_MISS"); overridden.Umask != 0x03 {
		t.Errorf("L3_MISS umask = %#x, want override 0x03", overridden.Umask)
	}
	if wide, _ := table.Event("DRAM_CHANNEL_8"); wide.ID != 0x207 || wide.Umask != 0 {
		t.Errorf("DRAM_CHANNEL_8 = %+v", wide)
	}
}

func TestLoadFileErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"syntax", `{"events": [`, "parsing"},
		{"missing name", `{"events": [{"id": "0x1", "counters": ["pmc"]}]}`, "missing name"},
		{"bad id", `{"events": [{"name": "X", "id": "zz", "counters": ["pmc"]}]}`, "invalid id"},
		{"id too wide", `{"events": [{"name": "X", "id": "0x10000", "counters": ["pmc"]}]}`, "invalid id"},
		{"bad umask", `{"events": [{"name": "X", "id": "1", "umask": "0x100", "counters": ["pmc"]}]}`, "invalid umask"},
		{"bad class", `{"events": [{"name": "X", "id": "1", "counters": ["gpu"]}]}`, "unknown counter class"},
		{"no counters", `{"events": [{"name": "X", "id": "1"}]}`, "no counters"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "events.jsonc")
			if err := os.WriteFile(path, []byte(test.content), 0644); err != nil {
				t.Fatal(err)
			}
			err := Zen().LoadFile(path)
			if err == nil || !strings.Contains(err.Error(), test.want) {
				t.Errorf("LoadFile error = %v, want it to mention %q", err, test.want)
			}
		})
	}

	if err := Zen().LoadFile(filepath.Join(t.TempDir(), "missing.jsonc")); err == nil {
		t.Error("LoadFile of a missing file succeeded")
	}
}

func TestAddRejectsIncompleteDefinitions(t *testing.T) {
	table := Zen()
	if err := table.Add(Definition{ID: 1, Classes: onCore}); err == nil {
		t.Error("Add accepted a nameless definition")
	}
	if err := table.Add(Definition{Name: "X", ID: 1}); err == nil {
		t.Error("Add accepted a definition without classes")
	}
}
