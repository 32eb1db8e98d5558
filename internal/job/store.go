// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaConv - 媒体文件格式转换服务

package job

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"mediaconv/internal/convert"
	"mediaconv/internal/logger"
	"mediaconv/internal/metrics"

	"github.com/lithammer/shortuuid/v4"
)

// Engine is the part of the ffmpeg layer the store needs
type Engine interface {
	NewRunner(log logger.Logger) convert.Runner
	ValidateInput(path string) bool
	ValidateOutput(path string) bool
}

// Store manages jobs in memory. Submitted jobs start immediately; each
// job runs its conversion on a dedicated goroutine.
type Store interface {
	Add(req convert.Request) (*Job, error)
	Get(id string) (*Job, error)
	List() []*Job
	Delete(id string) error
	Cancel(id string) error
	Restart(id string) error
	Subscribe(id string) (<-chan convert.Event, func(), error)
}

type store struct {
	engine Engine
	logger logger.Logger
	jobs   map[string]*Job
	mu     sync.RWMutex
}

// NewStore creates a job store
func NewStore(engine Engine, log logger.Logger) Store {
	if log == nil {
		log = logger.Nop()
	}
	return &store{
		engine: engine,
		logger: log,
		jobs:   make(map[string]*Job),
	}
}

func (s *store) Add(req convert.Request) (*Job, error) {
	if req.Input == "" || req.Output == "" || req.Format == "" {
		return nil, ErrInvalidRequest
	}

	// Reject requests the resolver can't handle before anything starts
	if _, err := convert.Resolve(req); err != nil {
		return nil, err
	}

	if !s.engine.ValidateInput(req.Input) {
		return nil, ErrInvalidInputPath
	}
	if !s.engine.ValidateOutput(req.Output) {
		return nil, ErrInvalidOutputPath
	}

	j := &Job{
		ID:        shortuuid.New(),
		Request:   req,
		CreatedAt: time.Now().Unix(),
		state:     StatePending,
		subs:      make(map[int]chan convert.Event),
		runner:    s.engine.NewRunner(s.logger),
	}

	s.mu.Lock()
	s.jobs[j.ID] = j
	s.mu.Unlock()

	s.start(j)

	return j, nil
}

// start flips the job to running and pumps runner events into it. Each
// run gets its own generation so a late pump of a previous run can't
// disturb the fan-out of a restarted one.
func (s *store) start(j *Job) {
	j.mu.Lock()
	j.state = StateRunning
	j.run++
	gen := j.run
	runner := j.runner
	j.mu.Unlock()

	s.logger.Info("job %s: converting %s -> %s", j.ID, j.Request.Input, j.Request.Output)

	go s.pump(j, gen, runner.Convert(j.Request))
}

func (s *store) pump(j *Job, gen int, events <-chan convert.Event) {
	metrics.ConversionsActive.Inc()
	defer metrics.ConversionsActive.Dec()

	for ev := range events {
		if ev.Outcome == nil {
			j.setProgress(ev.Percent)
		} else {
			state := j.finish(ev.Outcome, time.Now().Unix())
			metrics.ConversionsTotal.WithLabelValues(state).Inc()
			s.logger.Info("job %s: %s (%s)", j.ID, state, ev.Outcome.Message)
		}
		j.broadcast(gen, ev)
	}

	j.closeSubs(gen)
}

func (s *store) Get(id string) (*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	j, ok := s.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return j, nil
}

func (s *store) List() []*Job {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, j)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].CreatedAt < out[k].CreatedAt })
	return out
}

func (s *store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[id]
	if !ok {
		return ErrNotFound
	}
	if !j.IsTerminal() {
		return ErrJobRunning
	}

	delete(s.jobs, id)
	return nil
}

func (s *store) Cancel(id string) error {
	j, err := s.Get(id)
	if err != nil {
		return err
	}
	if j.IsTerminal() {
		return ErrJobNotRunning
	}

	j.mu.Lock()
	j.canceling = true
	runner := j.runner
	j.mu.Unlock()

	if err := runner.Stop(); err != nil {
		return fmt.Errorf("cancel job %s: %w", id, err)
	}
	return nil
}

// Restart re-runs the same request with a fresh runner. Only jobs in a
// terminal state can be restarted.
func (s *store) Restart(id string) error {
	j, err := s.Get(id)
	if err != nil {
		return err
	}
	if !j.IsTerminal() {
		return ErrJobRunning
	}

	j.mu.Lock()
	j.progress = 0
	j.outcome = nil
	j.canceling = false
	j.closed = false
	j.finishedAt = 0
	j.runner = s.engine.NewRunner(s.logger)
	j.mu.Unlock()

	s.start(j)
	return nil
}

func (s *store) Subscribe(id string) (<-chan convert.Event, func(), error) {
	j, err := s.Get(id)
	if err != nil {
		return nil, nil, err
	}
	events, cancel := j.subscribe()
	return events, cancel, nil
}
