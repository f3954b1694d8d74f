// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package perfmon

import (
	"fmt"
	"strings"
)

// ClassKind enumerates the register classes.
type ClassKind uint8

const (
	ClassPerCore ClassKind = iota
	ClassUncore
	ClassCacheTile

	classCount
)

// String returns the class name.
func (k ClassKind) String() string {
	switch k {
	case ClassPerCore:
		return "pmc"
	case ClassUncore:
		return "uncore"
	case ClassCacheTile:
		return "cache"
	default:
		return fmt.Sprintf("class(%d)", uint8(k))
	}
}

// RegisterClass determines how an event is encoded and which shared
// scope, if any, governs writes to its registers. The set of classes is
// closed: [PerCore], [SharedUncore], and [SharedCacheTile].
type RegisterClass interface {
	// Kind identifies the class for active-set tests.
	Kind() ClassKind

	// Encode returns the configuration word for event. The enable bit
	// is never set. Encode is pure.
	Encode(event EventDescriptor) uint64

	// Scope returns the ownership scope guarding the class. The
	// boolean is false for classes any unit may write.
	Scope() (Scope, bool)

	sealed()
}

// Register classes. They carry no state so one value of each is shared.
var (
	PerCore         RegisterClass = perCore{}
	SharedUncore    RegisterClass = sharedUncore{}
	SharedCacheTile RegisterClass = sharedCacheTile{}
)

// ClassOf returns the class for kind.
func ClassOf(kind ClassKind) (RegisterClass, error) {
	switch kind {
	case ClassPerCore:
		return PerCore, nil
	case ClassUncore:
		return SharedUncore, nil
	case ClassCacheTile:
		return SharedCacheTile, nil
	default:
		return nil, fmt.Errorf("perfmon: unknown register class %d", uint8(kind))
	}
}

type perCore struct{}

func (perCore) Kind() ClassKind      { return ClassPerCore }
func (perCore) Scope() (Scope, bool) { return 0, false }
func (perCore) sealed()              {}

func (perCore) Encode(event EventDescriptor) uint64 {
	word := extendedEventBit | baseWord(event)
	for _, option := range event.Options {
		switch option.Kind {
		case OptionEdgeDetect:
			word |= 1 << bitEdge
		case OptionCountKernel:
			word |= 1 << bitOS
		case OptionInvert:
			word |= 1 << bitInvert
		case OptionThreshold:
			word |= thresholdBits(option.Value)
		}
	}
	return word
}

// The data-fabric counters take no option bits.
type sharedUncore struct{}

func (sharedUncore) Kind() ClassKind                     { return ClassUncore }
func (sharedUncore) Scope() (Scope, bool)                { return ScopeSocket, true }
func (sharedUncore) Encode(event EventDescriptor) uint64 { return baseWord(event) }
func (sharedUncore) sealed()                             {}

type sharedCacheTile struct{}

func (sharedCacheTile) Kind() ClassKind      { return ClassCacheTile }
func (sharedCacheTile) Scope() (Scope, bool) { return ScopeCacheTile, true }
func (sharedCacheTile) sealed()              {}

func (sharedCacheTile) Encode(event EventDescriptor) uint64 {
	word := baseWord(event)
	for _, option := range event.Options {
		switch option.Kind {
		case OptionInvert:
			word |= 1 << bitInvert
		case OptionThreshold:
			word |= thresholdBits(option.Value)
		case OptionThreadFilter:
			word |= invertedNibble(option.Value, bitThreadMk)
		case OptionNodeFilter:
			word |= invertedNibble(option.Value, bitNodeMask)
		}
	}
	return word
}

// ClassSet is a set of register classes. It is the active-set predicate:
// lifecycle operations skip events whose class is not in the set.
type ClassSet uint8

// AllClasses contains every register class.
const AllClasses ClassSet = 1<<classCount - 1

// ClassSetOf returns a set containing kinds.
func ClassSetOf(kinds ...ClassKind) ClassSet {
	var set ClassSet
	for _, kind := range kinds {
		set = set.With(kind)
	}
	return set
}

// With returns the set with kind added.
func (s ClassSet) With(kind ClassKind) ClassSet {
	if kind >= classCount {
		return s
	}
	return s | 1<<kind
}

// Contains reports whether kind is in the set.
func (s ClassSet) Contains(kind ClassKind) bool {
	return kind < classCount && s&(1<<kind) != 0
}

// String lists the classes in the set, e.g. "pmc|cache".
func (s ClassSet) String() string {
	var names []string
	for kind := ClassKind(0); kind < classCount; kind++ {
		if s.Contains(kind) {
			names = append(names, kind.String())
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "|")
}
