// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package msr

import (
	"errors"
	"testing"
)

func TestMemoryCountsTraffic(t *testing.T) {
	memory := NewMemory()

	if value, err := memory.Read(0, 0x10); err != nil || value != 0 {
		t.Fatalf("Read of unwritten register = %d, %v", value, err)
	}
	memory.Write(0, 0x10, 5)
	memory.Write(0, 0x10, 6)
	memory.Write(1, 0x10, 7)
	memory.Set(0, 0x20, 8)

	if got := memory.Writes(0, 0x10); got != 2 {
		t.Errorf("Writes(0, 0x10) = %d, want 2", got)
	}
	if got := memory.TotalWrites(0); got != 2 {
		t.Errorf("TotalWrites(0) = %d, want 2 (Set is not counted)", got)
	}
	if got := memory.Reads(0, 0x10); got != 1 {
		t.Errorf("Reads(0, 0x10) = %d, want 1", got)
	}
	if memory.Value(0, 0x10) != 6 || memory.Value(1, 0x10) != 7 || memory.Value(0, 0x20) != 8 {
		t.Error("stored values are wrong")
	}
}

func TestMemoryFailure(t *testing.T) {
	memory := NewMemory()
	failure := errors.New("eio")
	memory.Fail(2, 0x30, failure)

	if _, err := memory.Read(2, 0x30); err != failure {
		t.Errorf("Read error = %v, want injected error", err)
	}
	if err := memory.Write(2, 0x30, 1); err != failure {
		t.Errorf("Write error = %v, want injected error", err)
	}
	if memory.Writes(2, 0x30) != 0 || memory.Reads(2, 0x30) != 0 {
		t.Error("failed accesses were counted")
	}

	memory.Fail(2, 0x30, nil)
	if err := memory.Write(2, 0x30, 1); err != nil {
		t.Errorf("Write after clearing failure: %v", err)
	}
}

func TestMemoryReadHook(t *testing.T) {
	memory := NewMemory()
	memory.Set(0, 0x40, 100)
	memory.OnRead(func(cpu int, register uint32, value uint64) uint64 {
		return value + uint64(cpu) + 1
	})
	if value, _ := memory.Read(3, 0x40); value != 4 {
		t.Errorf("hooked read on cpu 3 = %d, want 4", value)
	}
	if value, _ := memory.Read(0, 0x40); value != 101 {
		t.Errorf("hooked read on cpu 0 = %d, want 101", value)
	}
}
