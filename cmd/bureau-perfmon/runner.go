// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bureau-foundation/perfmon/lib/perfmon"
	"github.com/bureau-foundation/perfmon/lib/record"
)

// SampleWriter receives samples from every CPU worker concurrently.
type SampleWriter interface {
	WriteSample(sample record.Sample) error
}

// Runner multiplexes event groups onto the counters of every unit in
// the driver's arena.
type Runner struct {
	Driver *perfmon.Driver

	// Groups are measured in rotation order.
	Groups []*perfmon.EventSet

	// RotateAfter is the number of samples each group collects before
	// the next group is programmed.
	RotateAfter int

	Writer SampleWriter
	Logger *slog.Logger
}

// worker owns one agent. It receives ticks from the coordinator and
// closes done when it returns.
type worker struct {
	agent *perfmon.Agent
	ticks chan time.Time
	done  chan struct{}
	err   error
}

// Run initializes every unit, then samples on each value received from
// ticks until ticks is closed or ctx is cancelled. Every group is
// finalized on every unit before Run returns.
//
// Units are initialized in arena order, so the lowest-numbered CPU of
// each socket and cache tile owns its shared registers.
func (r *Runner) Run(ctx context.Context, ticks <-chan time.Time) error {
	if len(r.Groups) == 0 {
		return errors.New("no event groups")
	}
	logger := r.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	rotateAfter := r.RotateAfter
	if rotateAfter < 1 {
		rotateAfter = 1
	}

	arena := r.Driver.Arena()
	workers := make([]*worker, arena.Len())
	for i := range workers {
		agent, err := r.Driver.Init(perfmon.UnitIndex(i))
		if err != nil {
			return fmt.Errorf("initializing unit %d: %w", i, err)
		}
		workers[i] = &worker{
			agent: agent,
			ticks: make(chan time.Time),
			done:  make(chan struct{}),
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	for _, w := range workers {
		wg.Add(1)
		go func(w *worker) {
			defer wg.Done()
			defer close(w.done)
			w.err = r.work(w, rotateAfter, logger.With("cpu", w.agent.Unit().CPU))
			if w.err != nil {
				cancel()
			}
		}(w)
	}

	r.dispatch(ctx, ticks, workers)

	for _, w := range workers {
		close(w.ticks)
	}
	wg.Wait()

	var errs []error
	for _, w := range workers {
		if w.err != nil {
			errs = append(errs, fmt.Errorf("cpu %d: %w", w.agent.Unit().CPU, w.err))
		}
	}
	return errors.Join(errs...)
}

// dispatch forwards each tick to every worker. A worker that has
// already exited is skipped.
func (r *Runner) dispatch(ctx context.Context, ticks <-chan time.Time, workers []*worker) {
	for {
		var at time.Time
		select {
		case <-ctx.Done():
			return
		case tick, ok := <-ticks:
			if !ok {
				return
			}
			at = tick
		}
		for _, w := range workers {
			select {
			case w.ticks <- at:
			case <-w.done:
			case <-ctx.Done():
				return
			}
		}
	}
}

// work runs the lifecycle of one unit: program the first group, sample
// it on every tick, rotate to the next group every rotateAfter samples,
// and finalize every group when ticks stop.
func (r *Runner) work(w *worker, rotateAfter int, logger *slog.Logger) (err error) {
	agent := w.agent
	defer func() {
		if finalizeErr := r.finalize(agent); finalizeErr != nil {
			err = errors.Join(err, finalizeErr)
		}
	}()

	current := 0
	if err := r.program(agent, r.Groups[current]); err != nil {
		return err
	}
	logger.Debug("counting", "group", r.Groups[current].Name)

	var sequence uint64
	collected := 0
	for at := range w.ticks {
		set := r.Groups[current]
		if err := agent.Sample(set); err != nil {
			return fmt.Errorf("sampling group %s: %w", set.Name, err)
		}
		sample := record.NewSample(agent.Unit().CPU, set, sequence, at, agent.Counters(set),
			func(event perfmon.Event) bool { return !agent.Owns(event.Class) })
		if err := r.Writer.WriteSample(sample); err != nil {
			return err
		}
		sequence++
		collected++

		if collected < rotateAfter || len(r.Groups) == 1 {
			continue
		}
		collected = 0
		if err := agent.Stop(set); err != nil {
			return fmt.Errorf("stopping group %s: %w", set.Name, err)
		}
		current = (current + 1) % len(r.Groups)
		if err := r.program(agent, r.Groups[current]); err != nil {
			return err
		}
		logger.Debug("rotated", "from", set.Name, "to", r.Groups[current].Name)
	}
	return nil
}

// program sets up and starts set on agent.
func (r *Runner) program(agent *perfmon.Agent, set *perfmon.EventSet) error {
	if err := agent.Setup(set); err != nil {
		return fmt.Errorf("setting up group %s: %w", set.Name, err)
	}
	if err := agent.Start(set); err != nil {
		return fmt.Errorf("starting group %s: %w", set.Name, err)
	}
	return nil
}

// finalize stops and releases every group. It attempts every group
// even when one fails.
func (r *Runner) finalize(agent *perfmon.Agent) error {
	var errs []error
	for _, set := range r.Groups {
		if err := agent.Stop(set); err != nil {
			errs = append(errs, fmt.Errorf("stopping group %s: %w", set.Name, err))
		}
		if err := agent.Finalize(set); err != nil {
			errs = append(errs, fmt.Errorf("finalizing group %s: %w", set.Name, err))
		}
	}
	return errors.Join(errs...)
}
