// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package perfmon

import "testing"

func TestObserveDetectsWraparound(t *testing.T) {
	state := CounterState{Value: 0xFFFFFFFF}
	state.observe(0x10, 32)

	if state.Overflows != 1 {
		t.Errorf("Overflows = %d, want 1", state.Overflows)
	}
	if state.Value != 0x10 {
		t.Errorf("Value = %#x, want 0x10", state.Value)
	}
}

func TestObserveMonotonicNoOverflow(t *testing.T) {
	var state CounterState
	for _, raw := range []uint64{0, 5, 5, 100, 1 << 40} {
		state.observe(raw, 48)
	}
	if state.Overflows != 0 {
		t.Errorf("Overflows = %d, want 0", state.Overflows)
	}
	if state.Value != 1<<40 {
		t.Errorf("Value = %#x, want %#x", state.Value, uint64(1)<<40)
	}
}

func TestObserveMasksExcessBits(t *testing.T) {
	var state CounterState
	state.observe(0xAB_0000_0005, 32)
	if state.Value != 5 {
		t.Errorf("Value = %#x, want 0x5", state.Value)
	}
	if state.Raw != 0xAB_0000_0005 {
		t.Errorf("Raw = %#x, want unmasked read", state.Raw)
	}

	// The comparison uses the unmasked read against the masked value:
	// 0x1_0000_0003 is larger than 5 even though its low 32 bits are not.
	state.observe(0x1_0000_0003, 32)
	if state.Overflows != 0 {
		t.Errorf("Overflows = %d, want 0", state.Overflows)
	}
	if state.Value != 3 {
		t.Errorf("Value = %#x, want 0x3", state.Value)
	}
}

func TestObserveCountsEachWrap(t *testing.T) {
	var state CounterState
	for _, raw := range []uint64{0xF0, 0x10, 0xF0, 0x10, 0x20} {
		state.observe(raw, 8)
	}
	if state.Overflows != 2 {
		t.Errorf("Overflows = %d, want 2", state.Overflows)
	}
	if got := state.Total(8); got != 2<<8+0x20 {
		t.Errorf("Total() = %#x, want %#x", got, 2<<8+0x20)
	}
}

func TestMaskWidth(t *testing.T) {
	tests := []struct {
		value uint64
		width uint
		want  uint64
	}{
		{0xFFFF_FFFF_FFFF_FFFF, 48, 0xFFFF_FFFF_FFFF},
		{0xFFFF_FFFF_FFFF_FFFF, 64, 0xFFFF_FFFF_FFFF_FFFF},
		{0xFFFF_FFFF_FFFF_FFFF, 0, 0xFFFF_FFFF_FFFF_FFFF},
		{0x1234, 8, 0x34},
		{0x1234, 1, 0},
	}
	for _, test := range tests {
		if got := maskWidth(test.value, test.width); got != test.want {
			t.Errorf("maskWidth(%#x, %d) = %#x, want %#x", test.value, test.width, got, test.want)
		}
	}
}
