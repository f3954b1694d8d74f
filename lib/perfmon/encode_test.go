// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package perfmon

import "testing"

func TestEncodePerCore(t *testing.T) {
	tests := []struct {
		name  string
		event EventDescriptor
		want  uint64
	}{
		{
			name:  "plain event sets extended bit",
			event: EventDescriptor{ID: 0xC0},
			want:  0x100C0,
		},
		{
			name:  "unit mask lands in bits 8-15",
			event: EventDescriptor{ID: 0x43, Umask: 0x7F},
			want:  0x17F43,
		},
		{
			name:  "event id above one byte packs high bits at 32",
			event: EventDescriptor{ID: 0x1C3, Umask: 0x0A},
			want:  1<<32 | 1<<16 | 0x0AC3,
		},
		{
			name: "edge and kernel",
			event: EventDescriptor{ID: 0xC0, Options: []Option{
				{Kind: OptionEdgeDetect},
				{Kind: OptionCountKernel},
			}},
			want: 0x100C0 | 1<<18 | 1<<17,
		},
		{
			name:  "invert",
			event: EventDescriptor{ID: 0x76, Options: []Option{{Kind: OptionInvert}}},
			want:  0x10076 | 1<<23,
		},
		{
			name: "filters are not per-core options",
			event: EventDescriptor{ID: 0x76, Options: []Option{
				{Kind: OptionThreadFilter, Value: 0x3},
				{Kind: OptionNodeFilter, Value: 0x1},
			}},
			want: 0x10076,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := PerCore.Encode(test.event)
			if got != test.want {
				t.Errorf("Encode() = %#x, want %#x", got, test.want)
			}
			if got&enableBit != 0 {
				t.Errorf("Encode() = %#x sets the enable bit", got)
			}
		})
	}
}

func TestEncodeThreshold(t *testing.T) {
	for _, class := range []RegisterClass{PerCore, SharedCacheTile} {
		for _, test := range []struct {
			value uint64
			want  uint64
		}{
			{value: 0, want: 0},
			{value: 1, want: 1},
			{value: 3, want: 3},
			{value: 4, want: 0},
			{value: 200, want: 0},
			// Only the low byte is considered.
			{value: 0x102, want: 2},
		} {
			event := EventDescriptor{ID: 0x04, Options: []Option{{Kind: OptionThreshold, Value: test.value}}}
			got := (class.Encode(event) >> 24) & 0xFF
			if got != test.want {
				t.Errorf("%s threshold %d: bits 24-31 = %d, want %d", class.Kind(), test.value, got, test.want)
			}
		}
	}
}

func TestEncodeSharedUncoreIgnoresOptions(t *testing.T) {
	event := EventDescriptor{ID: 0x107, Umask: 0x38, Options: []Option{
		{Kind: OptionEdgeDetect},
		{Kind: OptionCountKernel},
		{Kind: OptionInvert},
		{Kind: OptionThreshold, Value: 2},
		{Kind: OptionThreadFilter, Value: 1},
	}}
	want := uint64(1)<<32 | 0x38<<8 | 0x07
	if got := SharedUncore.Encode(event); got != want {
		t.Errorf("Encode() = %#x, want %#x", got, want)
	}
}

func TestEncodeSharedCacheTile(t *testing.T) {
	t.Run("thread filter is stored inverted", func(t *testing.T) {
		event := EventDescriptor{ID: 0x04, Umask: 0xFF, Options: []Option{{Kind: OptionThreadFilter, Value: 0b0101}}}
		word := SharedCacheTile.Encode(event)
		if got := (word >> 56) & 0xF; got != 0b1010 {
			t.Errorf("bits 56-59 = %#b, want 0b1010", got)
		}
		if got := word & 0xFFFF; got != 0xFF04 {
			t.Errorf("base = %#x, want 0xff04", got)
		}
	})

	t.Run("node filter is stored inverted", func(t *testing.T) {
		event := EventDescriptor{ID: 0x04, Options: []Option{{Kind: OptionNodeFilter, Value: 0b0011}}}
		word := SharedCacheTile.Encode(event)
		if got := (word >> 48) & 0xF; got != 0b1100 {
			t.Errorf("bits 48-51 = %#b, want 0b1100", got)
		}
		if got := (word >> 56) & 0xF; got != 0 {
			t.Errorf("node filter leaked into thread mask: %#b", got)
		}
	})

	t.Run("only the low nibble of a filter counts", func(t *testing.T) {
		event := EventDescriptor{ID: 0x04, Options: []Option{{Kind: OptionThreadFilter, Value: 0xF0}}}
		if got := (SharedCacheTile.Encode(event) >> 56) & 0xF; got != 0xF {
			t.Errorf("bits 56-59 = %#x, want 0xf", got)
		}
	})

	t.Run("no extended bit and no edge or kernel bits", func(t *testing.T) {
		event := EventDescriptor{ID: 0x04, Options: []Option{
			{Kind: OptionEdgeDetect},
			{Kind: OptionCountKernel},
			{Kind: OptionInvert},
		}}
		want := uint64(0x04 | 1<<23)
		if got := SharedCacheTile.Encode(event); got != want {
			t.Errorf("Encode() = %#x, want %#x", got, want)
		}
	})
}

func TestEncodeDeterministic(t *testing.T) {
	events := []EventDescriptor{
		{ID: 0xC0},
		{ID: 0x1C3, Umask: 0x0A, Options: []Option{{Kind: OptionEdgeDetect}, {Kind: OptionThreshold, Value: 2}}},
		{ID: 0x04, Umask: 0xFF, Options: []Option{{Kind: OptionThreadFilter, Value: 5}, {Kind: OptionNodeFilter, Value: 9}}},
	}
	for _, class := range []RegisterClass{PerCore, SharedUncore, SharedCacheTile} {
		for _, event := range events {
			first := class.Encode(event)
			second := class.Encode(event)
			if first != second {
				t.Errorf("%s: Encode(%+v) gave %#x then %#x", class.Kind(), event, first, second)
			}
		}
	}
}

func TestClassScopes(t *testing.T) {
	if _, shared := PerCore.Scope(); shared {
		t.Error("PerCore reports a shared scope")
	}
	if scope, shared := SharedUncore.Scope(); !shared || scope != ScopeSocket {
		t.Errorf("SharedUncore.Scope() = %v, %v; want socket, true", scope, shared)
	}
	if scope, shared := SharedCacheTile.Scope(); !shared || scope != ScopeCacheTile {
		t.Errorf("SharedCacheTile.Scope() = %v, %v; want cache-tile, true", scope, shared)
	}
}

func TestClassSet(t *testing.T) {
	set := ClassSetOf(ClassPerCore, ClassCacheTile)
	if !set.Contains(ClassPerCore) || !set.Contains(ClassCacheTile) {
		t.Errorf("%s is missing a member", set)
	}
	if set.Contains(ClassUncore) {
		t.Errorf("%s contains uncore", set)
	}
	if got := set.String(); got != "pmc|cache" {
		t.Errorf("String() = %q, want pmc|cache", got)
	}
	for kind := ClassKind(0); kind < classCount; kind++ {
		if !AllClasses.Contains(kind) {
			t.Errorf("AllClasses is missing %s", kind)
		}
	}
	if ClassSet(0).String() != "none" {
		t.Errorf("empty set String() = %q", ClassSet(0).String())
	}
}
