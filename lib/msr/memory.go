// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package msr

import (
	"fmt"
	"sync"
)

// Memory is an in-memory register file. Unwritten registers read as
// zero. Every access is counted so callers can assert how much register
// traffic an operation produced. Safe for concurrent use.
type Memory struct {
	mutex     sync.Mutex
	registers map[location]uint64
	reads     map[location]int
	writes    map[location]int
	failures  map[location]error
	readHook  func(cpu int, register uint32, value uint64) uint64
}

type location struct {
	cpu      int
	register uint32
}

// NewMemory returns an empty register file.
func NewMemory() *Memory {
	return &Memory{
		registers: make(map[location]uint64),
		reads:     make(map[location]int),
		writes:    make(map[location]int),
		failures:  make(map[location]error),
	}
}

// Read returns the stored value of register on cpu, after passing it
// through the read hook if one is installed.
func (m *Memory) Read(cpu int, register uint32) (uint64, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	key := location{cpu, register}
	if err := m.failures[key]; err != nil {
		return 0, err
	}
	m.reads[key]++
	value := m.registers[key]
	if m.readHook != nil {
		value = m.readHook(cpu, register, value)
	}
	return value, nil
}

// Write stores value into register on cpu.
func (m *Memory) Write(cpu int, register uint32, value uint64) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	key := location{cpu, register}
	if err := m.failures[key]; err != nil {
		return err
	}
	m.writes[key]++
	m.registers[key] = value
	return nil
}

// Set stores value without counting a write.
func (m *Memory) Set(cpu int, register uint32, value uint64) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.registers[location{cpu, register}] = value
}

// Value returns the stored value without counting a read.
func (m *Memory) Value(cpu int, register uint32) uint64 {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.registers[location{cpu, register}]
}

// Reads returns how many successful reads register on cpu has seen.
func (m *Memory) Reads(cpu int, register uint32) int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.reads[location{cpu, register}]
}

// Writes returns how many successful writes register on cpu has seen.
func (m *Memory) Writes(cpu int, register uint32) int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.writes[location{cpu, register}]
}

// TotalWrites returns the number of successful writes across all
// registers of cpu.
func (m *Memory) TotalWrites(cpu int) int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	total := 0
	for key, count := range m.writes {
		if key.cpu == cpu {
			total += count
		}
	}
	return total
}

// Fail makes every access to register on cpu return err. A nil err
// clears the failure.
func (m *Memory) Fail(cpu int, register uint32, err error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	key := location{cpu, register}
	if err == nil {
		delete(m.failures, key)
		return
	}
	m.failures[key] = err
}

// OnRead installs a hook that rewrites values as they are read. The
// dry-run mode of bureau-perfmon uses it to make counter registers
// advance between reads.
func (m *Memory) OnRead(hook func(cpu int, register uint32, value uint64) uint64) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.readHook = hook
}

// String summarizes the register file for test failure messages.
func (m *Memory) String() string {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return fmt.Sprintf("msr.Memory{%d registers, %d written}", len(m.registers), len(m.writes))
}
