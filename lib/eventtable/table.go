// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package eventtable

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/tidwall/jsonc"

	"github.com/bureau-foundation/perfmon/lib/perfmon"
)

var (
	// ErrUnknownEvent is returned for event names not in the table.
	ErrUnknownEvent = errors.New("unknown event")

	// ErrUnknownCounter is returned for counter names not in the table.
	ErrUnknownCounter = errors.New("unknown counter")
)

// Definition describes one hardware event.
type Definition struct {
	Name  string
	ID    uint16
	Umask uint8

	// Classes lists the register classes whose counters can count
	// this event.
	Classes perfmon.ClassSet
}

// Counter is one hardware counter and the class it belongs to.
type Counter struct {
	Class  perfmon.ClassKind
	Handle perfmon.RegisterHandle
}

// Table maps names to events and counters. Lookups are case-insensitive.
// A Table is not safe for concurrent mutation; build it fully before
// sharing it.
type Table struct {
	events   map[string]Definition
	counters map[string]Counter
}

func newTable() *Table {
	return &Table{
		events:   make(map[string]Definition),
		counters: make(map[string]Counter),
	}
}

// Event returns the definition named name.
func (t *Table) Event(name string) (Definition, error) {
	definition, ok := t.events[strings.ToUpper(name)]
	if !ok {
		return Definition{}, fmt.Errorf("%w: %s", ErrUnknownEvent, name)
	}
	return definition, nil
}

// Counter returns the counter named name.
func (t *Table) Counter(name string) (Counter, error) {
	counter, ok := t.counters[strings.ToUpper(name)]
	if !ok {
		return Counter{}, fmt.Errorf("%w: %s", ErrUnknownCounter, name)
	}
	return counter, nil
}

// Events returns every definition sorted by name.
func (t *Table) Events() []Definition {
	definitions := make([]Definition, 0, len(t.events))
	for _, definition := range t.events {
		definitions = append(definitions, definition)
	}
	sort.Slice(definitions, func(i, j int) bool { return definitions[i].Name < definitions[j].Name })
	return definitions
}

// Counters returns every counter sorted by class, then configuration
// register address.
func (t *Table) Counters() []Counter {
	counters := make([]Counter, 0, len(t.counters))
	for _, counter := range t.counters {
		counters = append(counters, counter)
	}
	sort.Slice(counters, func(i, j int) bool {
		if counters[i].Class != counters[j].Class {
			return counters[i].Class < counters[j].Class
		}
		return counters[i].Handle.Config < counters[j].Handle.Config
	})
	return counters
}

// Add inserts definitions, replacing built-in events of the same name.
func (t *Table) Add(definitions ...Definition) error {
	for _, definition := range definitions {
		if definition.Name == "" {
			return fmt.Errorf("event definition without a name")
		}
		if definition.Classes == 0 {
			return fmt.Errorf("event %s: no counter classes", definition.Name)
		}
		definition.Name = strings.ToUpper(definition.Name)
		t.events[definition.Name] = definition
	}
	return nil
}

// eventFile is the JSONC layout accepted by LoadFile. Numeric fields are
// strings so the file can use hex.
type eventFile struct {
	Events []struct {
		Name     string   `json:"name"`
		ID       string   `json:"id"`
		Umask    string   `json:"umask"`
		Counters []string `json:"counters"`
	} `json:"events"`
}

// LoadFile merges event definitions from a JSONC file. Comments and
// trailing commas are allowed.
func (t *Table) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading event file: %w", err)
	}
	definitions, err := parseEventFile(data)
	if err != nil {
		return fmt.Errorf("event file %s: %w", path, err)
	}
	return t.Add(definitions...)
}

func parseEventFile(data []byte) ([]Definition, error) {
	var file eventFile
	if err := json.Unmarshal(jsonc.ToJSON(data), &file); err != nil {
		return nil, fmt.Errorf("parsing: %w", err)
	}

	definitions := make([]Definition, 0, len(file.Events))
	for i, entry := range file.Events {
		if entry.Name == "" {
			return nil, fmt.Errorf("event %d: missing name", i)
		}
		id, err := strconv.ParseUint(entry.ID, 0, 16)
		if err != nil {
			return nil, fmt.Errorf("event %s: invalid id %q", entry.Name, entry.ID)
		}
		var umask uint64
		if entry.Umask != "" {
			umask, err = strconv.ParseUint(entry.Umask, 0, 8)
			if err != nil {
				return nil, fmt.Errorf("event %s: invalid umask %q", entry.Name, entry.Umask)
			}
		}
		var classes perfmon.ClassSet
		for _, name := range entry.Counters {
			kind, err := parseClassName(name)
			if err != nil {
				return nil, fmt.Errorf("event %s: %w", entry.Name, err)
			}
			classes = classes.With(kind)
		}
		if classes == 0 {
			return nil, fmt.Errorf("event %s: no counters listed", entry.Name)
		}
		definitions = append(definitions, Definition{
			Name:    entry.Name,
			ID:      uint16(id),
			Umask:   uint8(umask),
			Classes: classes,
		})
	}
	return definitions, nil
}

func parseClassName(name string) (perfmon.ClassKind, error) {
	for _, kind := range []perfmon.ClassKind{perfmon.ClassPerCore, perfmon.ClassUncore, perfmon.ClassCacheTile} {
		if strings.EqualFold(name, kind.String()) {
			return kind, nil
		}
	}
	return 0, fmt.Errorf("unknown counter class %q (want pmc, cache, or uncore)", name)
}
