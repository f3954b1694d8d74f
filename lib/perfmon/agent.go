// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package perfmon

import "log/slog"

// Agent drives the counters of one execution unit. It keeps that unit's
// configuration cache and counter states. An Agent is confined to a
// single goroutine; agents of different units run independently.
type Agent struct {
	driver *Driver
	unit   Unit
	logger *slog.Logger

	// configCache maps a configuration-register address to the last
	// word setup wrote there. A missing entry reads as zero.
	configCache map[uint32]uint64

	counters map[*EventSet][]CounterState
}

// Unit returns the unit this agent drives.
func (a *Agent) Unit() Unit { return a.unit }

// Counters returns a copy of the counter states for set, one per event.
// Events never set up report Uninitialized.
func (a *Agent) Counters(set *EventSet) []CounterState {
	states := make([]CounterState, len(set.Events))
	copy(states, a.counters[set])
	return states
}

// Forget drops the bookkeeping for set. Hardware is not touched; call
// Finalize first.
func (a *Agent) Forget(set *EventSet) {
	delete(a.counters, set)
}

// states returns the mutable state slice for set, growing it if the set
// gained events since the last call.
func (a *Agent) states(set *EventSet) []CounterState {
	states := a.counters[set]
	if len(states) < len(set.Events) {
		grown := make([]CounterState, len(set.Events))
		copy(grown, states)
		states = grown
		a.counters[set] = states
	}
	return states
}

// Owns reports whether this unit may write the registers of class.
// Per-core registers are always writable; shared classes require
// ownership of the class's scope.
func (a *Agent) Owns(class RegisterClass) bool {
	scope, shared := class.Scope()
	if !shared {
		return true
	}
	return a.driver.ownership.IsOwner(scope, a.unit.scopeID(scope), a.unit.Index)
}

// Setup computes the configuration word of every active event and
// marks it Configured. The word is recorded for every unit; it is
// written to hardware only when the unit may write the class and the
// word differs from the last one written to that register.
//
// A Started event stays Started: its new word is written with the
// enable bit kept set, so a later Stop still disables it.
func (a *Agent) Setup(set *EventSet) error {
	states := a.states(set)
	for i := range set.Events {
		event := &set.Events[i]
		state := &states[i]
		if !set.Active.Contains(event.Class.Kind()) {
			continue
		}
		word := event.Class.Encode(event.Descriptor)
		running := state.Status == Started
		if a.Owns(event.Class) && a.configCache[event.Handle.Config] != word {
			written := word
			if running {
				written |= enableBit
			}
			if err := a.write(event.Handle.Config, written, "setup"); err != nil {
				return err
			}
			a.configCache[event.Handle.Config] = word
		}
		state.Config = word
		if !running {
			state.Status = Configured
		}
	}
	return nil
}

// Start zeroes and enables the counter of every active event that is
// Configured or Stopped. Non-owners of a shared class record the
// transition without touching hardware.
func (a *Agent) Start(set *EventSet) error {
	states := a.states(set)
	for i := range set.Events {
		event := &set.Events[i]
		state := &states[i]
		if !set.Active.Contains(event.Class.Kind()) {
			continue
		}
		if state.Status != Configured && state.Status != Stopped {
			continue
		}
		state.Raw, state.Value, state.Overflows = 0, 0, 0
		if a.Owns(event.Class) {
			if err := a.write(event.Handle.Counter, 0, "reset counter"); err != nil {
				return err
			}
			flags, err := a.read(event.Handle.Config)
			if err != nil {
				return err
			}
			if err := a.write(event.Handle.Config, flags|enableBit, "start"); err != nil {
				return err
			}
		}
		state.Status = Started
	}
	return nil
}

// Sample reads the counter of every active Started or Stopped event
// without stopping it and updates the overflow accounting.
func (a *Agent) Sample(set *EventSet) error {
	states := a.states(set)
	for i := range set.Events {
		event := &set.Events[i]
		state := &states[i]
		if !set.Active.Contains(event.Class.Kind()) {
			continue
		}
		if state.Status != Started && state.Status != Stopped {
			continue
		}
		if !a.Owns(event.Class) {
			continue
		}
		raw, err := a.read(event.Handle.Counter)
		if err != nil {
			return err
		}
		state.observe(raw, event.Handle.Width)
	}
	return nil
}

// Stop disables the counter of every active Started event and takes a
// final reading. Events that were never started are left alone.
func (a *Agent) Stop(set *EventSet) error {
	states := a.states(set)
	for i := range set.Events {
		event := &set.Events[i]
		state := &states[i]
		if !set.Active.Contains(event.Class.Kind()) {
			continue
		}
		if state.Status != Started {
			continue
		}
		if a.Owns(event.Class) {
			flags, err := a.read(event.Handle.Config)
			if err != nil {
				return err
			}
			if err := a.write(event.Handle.Config, flags&^enableBit, "stop"); err != nil {
				return err
			}
			raw, err := a.read(event.Handle.Counter)
			if err != nil {
				return err
			}
			state.observe(raw, event.Handle.Width)
		}
		state.Status = Stopped
	}
	return nil
}

// Finalize clears the configuration and counter registers of every
// active event that is not Uninitialized and resets its state. Calling
// it again is a no-op.
func (a *Agent) Finalize(set *EventSet) error {
	states := a.states(set)
	for i := range set.Events {
		event := &set.Events[i]
		state := &states[i]
		if !set.Active.Contains(event.Class.Kind()) {
			continue
		}
		if state.Status == Uninitialized {
			continue
		}
		if a.Owns(event.Class) {
			if err := a.write(event.Handle.Config, 0, "clear config"); err != nil {
				return err
			}
			a.configCache[event.Handle.Config] = 0
			if err := a.write(event.Handle.Counter, 0, "clear counter"); err != nil {
				return err
			}
		}
		// Non-owners reset too; they never wrote hardware to clear.
		*state = CounterState{}
	}
	return nil
}

func (a *Agent) read(register uint32) (uint64, error) {
	value, err := a.driver.access.Read(a.unit.CPU, register)
	if err != nil {
		return 0, err
	}
	a.logger.Debug("register read", "register", hex(uint64(register)), "value", hex(value))
	return value, nil
}

func (a *Agent) write(register uint32, value uint64, operation string) error {
	a.logger.Debug("register write",
		"operation", operation,
		"register", hex(uint64(register)),
		"value", hex(value),
	)
	return a.driver.access.Write(a.unit.CPU, register, value)
}
