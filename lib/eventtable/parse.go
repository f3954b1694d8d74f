// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package eventtable

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bureau-foundation/perfmon/lib/perfmon"
)

// optionSpec describes how an option is written in an event string.
type optionSpec struct {
	kind     perfmon.OptionKind
	hasValue bool
	maximum  uint64
	classes  perfmon.ClassSet
}

var optionSpecs = map[string]optionSpec{
	"EDGEDETECT": {kind: perfmon.OptionEdgeDetect, classes: onCore},
	"KERNEL":     {kind: perfmon.OptionCountKernel, classes: onCore},
	"INVERT":     {kind: perfmon.OptionInvert, classes: onCore | onL3},
	"THRESHOLD":  {kind: perfmon.OptionThreshold, hasValue: true, maximum: 0xFF, classes: onCore | onL3},
	"TID":        {kind: perfmon.OptionThreadFilter, hasValue: true, maximum: 0xF, classes: onL3},
	"NID":        {kind: perfmon.OptionNodeFilter, hasValue: true, maximum: 0xF, classes: onL3},
}

// Parse resolves an event string of the form EVENT:COUNTER[:OPTION[=VALUE]]...
// into an event bound to its counter. Options the counter's class cannot
// encode are rejected. Thresholds of 4 and above are accepted and then
// dropped by the encoder, matching the hardware's counter-mask range.
func (t *Table) Parse(text string) (perfmon.Event, error) {
	fields := strings.Split(strings.TrimSpace(text), ":")
	if len(fields) < 2 || fields[0] == "" || fields[1] == "" {
		return perfmon.Event{}, fmt.Errorf("event %q: want EVENT:COUNTER[:OPTION...]", text)
	}

	definition, err := t.Event(fields[0])
	if err != nil {
		return perfmon.Event{}, err
	}
	counter, err := t.Counter(fields[1])
	if err != nil {
		return perfmon.Event{}, err
	}
	if !definition.Classes.Contains(counter.Class) {
		return perfmon.Event{}, fmt.Errorf("event %s cannot run on %s counter %s (supports %s)",
			definition.Name, counter.Class, counter.Handle.Name, definition.Classes)
	}
	class, err := perfmon.ClassOf(counter.Class)
	if err != nil {
		return perfmon.Event{}, err
	}

	options, err := parseOptions(fields[2:], counter)
	if err != nil {
		return perfmon.Event{}, fmt.Errorf("event %s on %s: %w", definition.Name, counter.Handle.Name, err)
	}

	return perfmon.Event{
		Name:   definition.Name,
		Handle: counter.Handle,
		Class:  class,
		Descriptor: perfmon.EventDescriptor{
			ID:      definition.ID,
			Umask:   definition.Umask,
			Options: options,
		},
	}, nil
}

func parseOptions(fields []string, counter Counter) ([]perfmon.Option, error) {
	var options []perfmon.Option
	for _, field := range fields {
		name, rawValue, hasValue := strings.Cut(field, "=")
		name = strings.ToUpper(strings.TrimSpace(name))
		spec, ok := optionSpecs[name]
		if !ok {
			return nil, fmt.Errorf("unknown option %q", name)
		}
		if !spec.classes.Contains(counter.Class) {
			return nil, fmt.Errorf("option %s is not supported on %s counters", name, counter.Class)
		}
		option := perfmon.Option{Kind: spec.kind}
		switch {
		case spec.hasValue && !hasValue:
			return nil, fmt.Errorf("option %s requires a value", name)
		case !spec.hasValue && hasValue:
			return nil, fmt.Errorf("option %s takes no value", name)
		case spec.hasValue:
			value, err := strconv.ParseUint(strings.TrimSpace(rawValue), 0, 64)
			if err != nil {
				return nil, fmt.Errorf("option %s: invalid value %q", name, rawValue)
			}
			if value > spec.maximum {
				return nil, fmt.Errorf("option %s: value %#x exceeds %#x", name, value, spec.maximum)
			}
			option.Value = value
		}
		options = append(options, option)
	}
	return options, nil
}

// ParseGroup parses a named group of event strings into an event set.
// Each counter may appear once. The set's active classes are the
// classes of its counters.
func (t *Table) ParseGroup(name string, texts []string) (*perfmon.EventSet, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("group %s: no events", name)
	}
	set := &perfmon.EventSet{Name: name}
	used := make(map[string]string)
	for _, text := range texts {
		event, err := t.Parse(text)
		if err != nil {
			return nil, fmt.Errorf("group %s: %w", name, err)
		}
		if previous, taken := used[event.Handle.Name]; taken {
			return nil, fmt.Errorf("group %s: counter %s used by both %s and %s",
				name, event.Handle.Name, previous, event.Name)
		}
		used[event.Handle.Name] = event.Name
		set.Events = append(set.Events, event)
		set.Active = set.Active.With(event.Class.Kind())
	}
	return set, nil
}
