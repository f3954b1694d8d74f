// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package eventtable

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/bureau-foundation/perfmon/lib/perfmon"
)

func TestParse(t *testing.T) {
	table := Zen()
	tests := []struct {
		text    string
		name    string
		counter string
		class   perfmon.ClassKind
		id      uint16
		umask   uint8
		options []perfmon.Option
	}{
		{
			text: "RETIRED_INSTRUCTIONS:PMC0", name: "RETIRED_INSTRUCTIONS", counter: "PMC0",
			class: perfmon.ClassPerCore, id: 0xC0,
		},
		{
			text: "cpu_clocks_unhalted:pmc1:KERNEL:threshold=2:EDGEDETECT", name: "CPU_CLOCKS_UNHALTED", counter: "PMC1",
			class: perfmon.ClassPerCore, id: 0x76,
			options: []perfmon.Option{
				{Kind: perfmon.OptionCountKernel},
				{Kind: perfmon.OptionThreshold, Value: 2},
				{Kind: perfmon.OptionEdgeDetect},
			},
		},
		{
			text: "L3_ACCESS:CPMC0:TID=0x3:NID=1:INVERT", name: "L3_ACCESS", counter: "CPMC0",
			class: perfmon.ClassCacheTile, id: 0x04, umask: 0xFF,
			options: []perfmon.Option{
				{Kind: perfmon.OptionThreadFilter, Value: 3},
				{Kind: perfmon.OptionNodeFilter, Value: 1},
				{Kind: perfmon.OptionInvert},
			},
		},
		{
			text: "DRAM_CHANNEL_5:DFC2", name: "DRAM_CHANNEL_5", counter: "DFC2",
			class: perfmon.ClassUncore, id: 0x147, umask: 0x38,
		},
		{
			// Accepted and later dropped by the encoder.
			text: "CPU_CLOCKS_UNHALTED:PMC2:THRESHOLD=9", name: "CPU_CLOCKS_UNHALTED", counter: "PMC2",
			class: perfmon.ClassPerCore, id: 0x76,
			options: []perfmon.Option{{Kind: perfmon.OptionThreshold, Value: 9}},
		},
	}

	for _, test := range tests {
		t.Run(test.text, func(t *testing.T) {
			event, err := table.Parse(test.text)
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if event.Name != test.name || event.Handle.Name != test.counter {
				t.Errorf("event = %s on %s, want %s on %s", event.Name, event.Handle.Name, test.name, test.counter)
			}
			if event.Class.Kind() != test.class {
				t.Errorf("class = %s, want %s", event.Class.Kind(), test.class)
			}
			if event.Descriptor.ID != test.id || event.Descriptor.Umask != test.umask {
				t.Errorf("descriptor = %+v", event.Descriptor)
			}
			if !reflect.DeepEqual(event.Descriptor.Options, test.options) {
				t.Errorf("options = %+v, want %+v", event.Descriptor.Options, test.options)
			}
		})
	}
}

func TestParseEncodesThroughClass(t *testing.T) {
	event, err := Zen().Parse("L3_ACCESS:CPMC1:TID=0b0101")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	word := event.Class.Encode(event.Descriptor)
	if got := (word >> 56) & 0xF; got != 0b1010 {
		t.Errorf("thread mask bits = %#b, want 0b1010", got)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		text   string
		want   string
		target error
	}{
		{text: "RETIRED_INSTRUCTIONS", want: "want EVENT:COUNTER"},
		{text: ":PMC0", want: "want EVENT:COUNTER"},
		{text: "NOPE:PMC0", target: ErrUnknownEvent},
		{text: "RETIRED_INSTRUCTIONS:PMC9", target: ErrUnknownCounter},
		{text: "RETIRED_INSTRUCTIONS:CPMC0", want: "cannot run on cache counter"},
		{text: "L3_ACCESS:PMC0", want: "cannot run on pmc counter"},
		{text: "RETIRED_INSTRUCTIONS:PMC0:SPARKLE", want: "unknown option"},
		{text: "RETIRED_INSTRUCTIONS:PMC0:TID=1", want: "not supported on pmc"},
		{text: "L3_ACCESS:CPMC0:KERNEL", want: "not supported on cache"},
		{text: "DRAM_CHANNEL_0:DFC0:INVERT", want: "not supported on uncore"},
		{text: "RETIRED_INSTRUCTIONS:PMC0:THRESHOLD", want: "requires a value"},
		{text: "RETIRED_INSTRUCTIONS:PMC0:KERNEL=1", want: "takes no value"},
		{text: "RETIRED_INSTRUCTIONS:PMC0:THRESHOLD=x", want: "invalid value"},
		{text: "RETIRED_INSTRUCTIONS:PMC0:THRESHOLD=256", want: "exceeds"},
		{text: "L3_ACCESS:CPMC0:TID=0x10", want: "exceeds"},
	}
	table := Zen()
	for _, test := range tests {
		t.Run(test.text, func(t *testing.T) {
			_, err := table.Parse(test.text)
			if err == nil {
				t.Fatal("Parse succeeded")
			}
			if test.target != nil && !errors.Is(err, test.target) {
				t.Errorf("error = %v, want %v", err, test.target)
			}
			if test.want != "" && !strings.Contains(err.Error(), test.want) {
				t.Errorf("error = %v, want it to mention %q", err, test.want)
			}
		})
	}
}

func TestParseGroup(t *testing.T) {
	set, err := Zen().ParseGroup("mem", []string{
		"RETIRED_INSTRUCTIONS:PMC0",
		"CPU_CLOCKS_UNHALTED:PMC1",
		"DRAM_CHANNEL_0:DFC0",
		"DRAM_CHANNEL_1:DFC1",
	})
	if err != nil {
		t.Fatalf("ParseGroup: %v", err)
	}
	if set.Name != "mem" || len(set.Events) != 4 {
		t.Fatalf("set = %s with %d events", set.Name, len(set.Events))
	}
	want := perfmon.ClassSetOf(perfmon.ClassPerCore, perfmon.ClassUncore)
	if set.Active != want {
		t.Errorf("Active = %s, want %s", set.Active, want)
	}
}

func TestParseGroupErrors(t *testing.T) {
	table := Zen()
	if _, err := table.ParseGroup("empty", nil); err == nil {
		t.Error("empty group accepted")
	}
	_, err := table.ParseGroup("dup", []string{"RETIRED_INSTRUCTIONS:PMC0", "CPU_CLOCKS_UNHALTED:pmc0"})
	if err == nil || !strings.Contains(err.Error(), "counter PMC0 used by both") {
		t.Errorf("duplicate counter error = %v", err)
	}
	_, err = table.ParseGroup("bad", []string{"RETIRED_INSTRUCTIONS:PMC0", "NOPE:PMC1"})
	if !errors.Is(err, ErrUnknownEvent) || !strings.Contains(err.Error(), "group bad") {
		t.Errorf("error = %v, want unknown event within group bad", err)
	}
}
