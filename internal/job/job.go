// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaConv - 媒体文件格式转换服务
//
// Package job tracks submitted conversions and fans their progress out
// to subscribers.

package job

import (
	"sync"

	"mediaconv/internal/convert"
	"mediaconv/internal/process"
)

// Job states
const (
	StatePending  = "pending"
	StateRunning  = "running"
	StateDone     = "done"
	StateFailed   = "failed"
	StateCanceled = "canceled"
)

// subscriber channels are buffered; a slow consumer drops events
// instead of stalling the conversion.
const subscriberBuffer = 100

// Job is one submitted conversion. The request is immutable after
// submission; state, progress and outcome evolve as the run proceeds.
type Job struct {
	ID        string
	Request   convert.Request
	CreatedAt int64

	mu         sync.RWMutex
	state      string
	progress   int
	outcome    *convert.Outcome
	finishedAt int64
	canceling  bool
	runner     convert.Runner
	run        int
	subs       map[int]chan convert.Event
	nextSub    int
	closed     bool
}

// State returns the lifecycle state
func (j *Job) State() string {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.state
}

// Progress returns the last reported percentage (0-100)
func (j *Job) Progress() int {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.progress
}

// Outcome returns the terminal outcome, or nil while running
func (j *Job) Outcome() *convert.Outcome {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.outcome
}

// FinishedAt returns the completion timestamp, or zero while running
func (j *Job) FinishedAt() int64 {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.finishedAt
}

// IsTerminal reports whether the job reached a terminal state
func (j *Job) IsTerminal() bool {
	switch j.State() {
	case StateDone, StateFailed, StateCanceled:
		return true
	}
	return false
}

// Status returns the supervised process status (resource usage etc.)
func (j *Job) Status() process.Status {
	j.mu.RLock()
	runner := j.runner
	j.mu.RUnlock()
	if runner == nil {
		return process.Status{State: process.StateCreated}
	}
	return runner.Status()
}

// Log returns the retained encoder diagnostic lines
func (j *Job) Log() []process.Line {
	j.mu.RLock()
	runner := j.runner
	j.mu.RUnlock()
	if runner == nil {
		return nil
	}
	return runner.Log()
}

func (j *Job) setProgress(percent int) {
	j.mu.Lock()
	if percent > j.progress {
		j.progress = percent
	}
	j.mu.Unlock()
}

func (j *Job) finish(outcome *convert.Outcome, finishedAt int64) string {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.outcome = outcome
	j.finishedAt = finishedAt
	switch {
	case outcome.Success:
		j.state = StateDone
	case j.canceling:
		j.state = StateCanceled
	default:
		j.state = StateFailed
	}
	return j.state
}

// subscribe registers an event channel. Late subscribers first receive
// a snapshot of the current progress (and outcome, if terminal).
func (j *Job) subscribe() (<-chan convert.Event, func()) {
	ch := make(chan convert.Event, subscriberBuffer)

	j.mu.Lock()
	if j.progress > 0 {
		ch <- convert.Event{Percent: j.progress}
	}
	if j.outcome != nil {
		ch <- convert.Event{Percent: j.progress, Outcome: j.outcome}
	}
	if j.closed {
		close(ch)
		j.mu.Unlock()
		return ch, func() {}
	}

	id := j.nextSub
	j.nextSub++
	j.subs[id] = ch
	j.mu.Unlock()

	cancel := func() {
		j.mu.Lock()
		if ch, ok := j.subs[id]; ok {
			delete(j.subs, id)
			close(ch)
		}
		j.mu.Unlock()
	}
	return ch, cancel
}

// broadcast fans an event out to the subscribers. Events from a pump of
// an earlier run (a restart happened in between) are dropped.
func (j *Job) broadcast(gen int, ev convert.Event) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	if gen != j.run {
		return
	}
	for _, ch := range j.subs {
		select {
		case ch <- ev:
		default:
			// 订阅者太慢，丢弃事件
		}
	}
}

// closeSubs ends the fan-out. A stale pump must not close the channels
// of a restarted run, so the generation has to match.
func (j *Job) closeSubs(gen int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if gen != j.run {
		return
	}
	j.closed = true
	for id, ch := range j.subs {
		delete(j.subs, id)
		close(ch)
	}
}
