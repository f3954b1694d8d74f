// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package record

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/zeebo/blake3"

	"github.com/bureau-foundation/perfmon/lib/perfmon"
)

// Fingerprint is the BLAKE3 keyed hash of a group's event list.
type Fingerprint [32]byte

// String returns the fingerprint as lowercase hex.
func (f Fingerprint) String() string { return hex.EncodeToString(f[:]) }

// groupDomainKey keys group fingerprints. Changing it changes every
// fingerprint.
var groupDomainKey = [32]byte{
	'b', 'u', 'r', 'e', 'a', 'u', '.', 'p', 'e', 'r', 'f', 'm', 'o', 'n', '.',
	'g', 'r', 'o', 'u', 'p', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// Header opens a sample stream.
type Header struct {
	// Version is the version of the binary that wrote the stream.
	Version string `cbor:"1,keyasint"`

	// Started is the wall-clock start time in Unix nanoseconds.
	Started int64 `cbor:"2,keyasint"`

	// Interval is the sampling interval in nanoseconds.
	Interval int64 `cbor:"3,keyasint"`

	// RotateAfter is the number of samples each group collects
	// between multiplexing rotations.
	RotateAfter int `cbor:"4,keyasint"`

	CPUs   []int   `cbor:"5,keyasint"`
	Groups []Group `cbor:"6,keyasint"`
}

// Group describes one event group in the header.
type Group struct {
	Name        string        `cbor:"1,keyasint"`
	Fingerprint Fingerprint   `cbor:"2,keyasint"`
	Events      []GroupMember `cbor:"3,keyasint"`
}

// GroupMember is one event of a group as programmed into hardware.
type GroupMember struct {
	Name    string `cbor:"1,keyasint"`
	Counter string `cbor:"2,keyasint"`
	Class   string `cbor:"3,keyasint"`

	// Config is the configuration word without the enable bit.
	Config uint64 `cbor:"4,keyasint"`
	Width  uint   `cbor:"5,keyasint"`
}

// Sample is one reading of a group on one CPU.
type Sample struct {
	CPU   int    `cbor:"1,keyasint"`
	Group string `cbor:"2,keyasint"`

	// Sequence counts ticks on this CPU, starting at zero.
	Sequence uint64 `cbor:"3,keyasint"`

	// Time is the wall-clock sample time in Unix nanoseconds.
	Time   int64         `cbor:"4,keyasint"`
	Events []EventSample `cbor:"5,keyasint"`
}

// EventSample is one counter reading.
type EventSample struct {
	Name      string `cbor:"1,keyasint"`
	Value     uint64 `cbor:"2,keyasint"`
	Raw       uint64 `cbor:"3,keyasint"`
	Overflows uint64 `cbor:"4,keyasint"`

	// Total is the overflow-extended count.
	Total uint64 `cbor:"5,keyasint"`

	// Skipped is set when this CPU does not own the counter's shared
	// register and did not read it.
	Skipped bool `cbor:"6,keyasint,omitempty"`
}

// DescribeGroup builds the header entry for set, including its
// fingerprint.
func DescribeGroup(set *perfmon.EventSet) (Group, error) {
	group := Group{Name: set.Name}
	for _, event := range set.Events {
		group.Events = append(group.Events, GroupMember{
			Name:    event.Name,
			Counter: event.Handle.Name,
			Class:   event.Class.Kind().String(),
			Config:  event.Class.Encode(event.Descriptor),
			Width:   event.Handle.Width,
		})
	}
	fingerprint, err := fingerprintMembers(group.Events)
	if err != nil {
		return Group{}, fmt.Errorf("fingerprinting group %s: %w", set.Name, err)
	}
	group.Fingerprint = fingerprint
	return group, nil
}

// fingerprintMembers hashes the deterministic CBOR encoding of members.
// The group name is not part of the hash: renaming a group does not
// change what it measures.
func fingerprintMembers(members []GroupMember) (Fingerprint, error) {
	encoded, err := encMode.Marshal(members)
	if err != nil {
		return Fingerprint{}, err
	}
	hasher, err := blake3.NewKeyed(groupDomainKey[:])
	if err != nil {
		panic("record: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write(encoded)
	var fingerprint Fingerprint
	copy(fingerprint[:], hasher.Sum(nil))
	return fingerprint, nil
}

// NewSample builds a sample from an agent's counter states for set.
// skipped reports, per event, that the CPU did not own the register.
func NewSample(cpu int, set *perfmon.EventSet, sequence uint64, at time.Time, states []perfmon.CounterState, skipped func(perfmon.Event) bool) Sample {
	sample := Sample{
		CPU:      cpu,
		Group:    set.Name,
		Sequence: sequence,
		Time:     at.UnixNano(),
		Events:   make([]EventSample, 0, len(set.Events)),
	}
	for i, event := range set.Events {
		var state perfmon.CounterState
		if i < len(states) {
			state = states[i]
		}
		sample.Events = append(sample.Events, EventSample{
			Name:      event.Name,
			Value:     state.Value,
			Raw:       state.Raw,
			Overflows: state.Overflows,
			Total:     state.Total(event.Handle.Width),
			Skipped:   skipped != nil && skipped(event),
		})
	}
	return sample
}
