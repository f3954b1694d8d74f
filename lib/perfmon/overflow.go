// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package perfmon

import "fmt"

// Status is the lifecycle state of one (unit, event) pair.
type Status uint8

const (
	Uninitialized Status = iota
	Configured
	Started
	Stopped
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Configured:
		return "configured"
	case Started:
		return "started"
	case Stopped:
		return "stopped"
	default:
		return fmt.Sprintf("status(%d)", uint8(s))
	}
}

// CounterState is the bookkeeping for one event on one unit.
type CounterState struct {
	Status Status

	// Config is the configuration word computed at setup. For
	// non-owners of a shared class it is recorded but never written.
	Config uint64

	// Raw is the last value read from the counter register, before
	// masking.
	Raw uint64

	// Value is Raw masked to the counter's declared width.
	Value uint64

	// Overflows counts detected wraparounds.
	Overflows uint64
}

// observe folds a fresh counter read into the state. The comparison
// uses the unmasked read against the previously masked value; the
// mask applies to what is stored for the next call.
func (c *CounterState) observe(raw uint64, width uint) {
	if raw < c.Value {
		c.Overflows++
	}
	c.Raw = raw
	c.Value = maskWidth(raw, width)
}

// Total returns the logical count including wraparounds:
// Overflows * 2^width + Value. Wraps silently at 64 bits.
func (c CounterState) Total(width uint) uint64 {
	if width == 0 || width >= 64 {
		return c.Value
	}
	return c.Overflows<<width + c.Value
}

// maskWidth keeps the low width bits of value. Widths of 0 or 64 and
// above keep everything.
func maskWidth(value uint64, width uint) uint64 {
	if width == 0 || width >= 64 {
		return value
	}
	return value & (1<<width - 1)
}
