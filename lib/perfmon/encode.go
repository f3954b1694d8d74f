// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package perfmon

import "fmt"

// OptionKind names a modifier applied to an event's configuration word.
type OptionKind uint8

const (
	// OptionEdgeDetect counts rising edges instead of cycles in which
	// the condition holds.
	OptionEdgeDetect OptionKind = iota + 1

	// OptionCountKernel counts events while in kernel mode.
	OptionCountKernel

	// OptionInvert inverts the threshold comparison.
	OptionInvert

	// OptionThreshold sets the counter mask. Value 0–255, but only
	// values below 4 are encoded.
	OptionThreshold

	// OptionThreadFilter selects hardware threads on an L3 counter.
	// 4-bit mask.
	OptionThreadFilter

	// OptionNodeFilter selects L3 slices on an L3 counter. 4-bit mask.
	OptionNodeFilter
)

var optionNames = map[OptionKind]string{
	OptionEdgeDetect:   "EDGEDETECT",
	OptionCountKernel:  "KERNEL",
	OptionInvert:       "INVERT",
	OptionThreshold:    "THRESHOLD",
	OptionThreadFilter: "TID",
	OptionNodeFilter:   "NID",
}

// String returns the option name as written in event strings.
func (k OptionKind) String() string {
	if name, ok := optionNames[k]; ok {
		return name
	}
	return fmt.Sprintf("option(%d)", uint8(k))
}

// Option is a (kind, value) pair. Flag options ignore Value.
type Option struct {
	Kind  OptionKind
	Value uint64
}

// EventDescriptor identifies a hardware event. ID is the full
// architectural event code, which may exceed one byte.
type EventDescriptor struct {
	ID      uint16
	Umask   uint8
	Options []Option
}

// Configuration word bits.
const (
	bitUnitMask = 8
	bitOS       = 17
	bitEdge     = 18
	bitEnable   = 22
	bitInvert   = 23
	bitCountMsk = 24
	bitEventHi  = 32
	bitNodeMask = 48
	bitThreadMk = 56

	// enableBit starts and stops counting. It is set in start and
	// cleared in stop by read-modify-write, never by the encoder.
	enableBit uint64 = 1 << bitEnable

	// extendedEventBit is always set in per-core configuration words.
	extendedEventBit uint64 = 1 << 16

	// maxThreshold is the exclusive limit of encodable thresholds.
	maxThreshold = 4
)

// baseWord packs the event id and unit mask. The low byte of the id
// lands in bits 0–7, the remaining high bits from bit 32 upward.
func baseWord(event EventDescriptor) uint64 {
	word := uint64(event.ID>>8) << bitEventHi
	word |= uint64(event.Umask) << bitUnitMask
	word |= uint64(event.ID & 0xFF)
	return word
}

// thresholdBits returns the counter-mask field for value, or zero when
// the value is out of the encodable range. Out-of-range thresholds are
// dropped silently.
func thresholdBits(value uint64) uint64 {
	value &= 0xFF
	if value >= maxThreshold {
		return 0
	}
	return value << bitCountMsk
}

// invertedNibble returns the complement of the low four bits of value,
// shifted to position. The L3 filters select everything not excluded,
// so the hardware expects the mask inverted.
func invertedNibble(value uint64, position uint) uint64 {
	return (^value & 0xF) << position
}
