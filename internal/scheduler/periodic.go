// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Online Cinema Contributors

// Package scheduler runs maintenance tasks on a fixed interval.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/samber/oops"

	"github.com/onlinecinema/accounts/pkg/errutil"
)

// Task is one unit of periodic work.
type Task func(ctx context.Context) error

// Periodic runs a Task once on Start and then every interval until Stop.
// Runs never overlap; a tick that arrives during a run is dropped.
type Periodic struct {
	name     string
	interval time.Duration
	task     Task
	logger   *slog.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
}

// NewPeriodic creates a Periodic. interval must be positive.
func NewPeriodic(name string, interval time.Duration, task Task, logger *slog.Logger) (*Periodic, error) {
	if interval <= 0 {
		return nil, oops.Code("SCHEDULER_INVALID_INTERVAL").With("task", name).Errorf("interval must be positive, got %s", interval)
	}
	if task == nil {
		return nil, oops.Code("SCHEDULER_INVALID_TASK").With("task", name).Errorf("task is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Periodic{name: name, interval: interval, task: task, logger: logger}, nil
}

// Start launches the loop. The loop ends when ctx is done or Stop is called.
func (p *Periodic) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return oops.Code("SCHEDULER_RUNNING").With("task", p.name).Errorf("periodic task already started")
	}
	p.started = true

	ctx, p.cancel = context.WithCancel(ctx)
	p.wg.Add(1)
	go p.run(ctx)

	p.logger.Info("periodic task started", "task", p.name, "interval", p.interval.String())
	return nil
}

// Stop cancels the loop and waits for an in-flight run to return.
func (p *Periodic) Stop() {
	p.mu.Lock()
	cancel := p.cancel
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	p.wg.Wait()
}

func (p *Periodic) run(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.runOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.runOnce(ctx)
		}
	}
}

func (p *Periodic) runOnce(ctx context.Context) {
	if err := p.task(ctx); err != nil && ctx.Err() == nil {
		errutil.LogErrorContext(ctx, p.logger, "periodic task failed", err)
	}
}
