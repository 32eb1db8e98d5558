// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaConv - 媒体文件格式转换服务

package convert

import (
	"errors"
	"fmt"
	"sync"

	"mediaconv/internal/logger"
	"mediaconv/internal/process"
)

// Prober returns the total duration of a media file in seconds
type Prober interface {
	Duration(path string) (float64, error)
}

// LaunchFunc starts the external encoder process. The binary is filled
// in by the launcher, the runner provides args, parser and callbacks.
type LaunchFunc func(config process.Config) (process.Process, error)

// Runner performs a single conversion. The returned event channel
// carries zero or more progress updates followed by exactly one
// terminal outcome; afterwards the channel is closed. Errors never
// escape the runner, they surface as a failure outcome.
type Runner interface {
	Convert(req Request) <-chan Event
	Stop() error
	Status() process.Status
	Log() []process.Line
}

// RunnerConfig for a runner
type RunnerConfig struct {
	Prober   Prober
	Launch   LaunchFunc
	LogLines int
	Logger   logger.Logger
}

type runner struct {
	prober   Prober
	launch   LaunchFunc
	logLines int
	logger   logger.Logger

	mu            sync.Mutex
	started       bool
	stopRequested bool
	proc          process.Process
	parser        *progressParser
}

// NewRunner creates a one-shot conversion runner
func NewRunner(config RunnerConfig) Runner {
	r := &runner{
		prober:   config.Prober,
		launch:   config.Launch,
		logLines: config.LogLines,
		logger:   config.Logger,
	}
	if r.logger == nil {
		r.logger = logger.Nop()
	}
	return r
}

func (r *runner) Convert(req Request) <-chan Event {
	events := make(chan Event, 16)
	go r.run(req, events)
	return events
}

// run executes the whole conversion on its own goroutine and reports
// everything, including failures, through the event channel.
func (r *runner) run(req Request, events chan Event) {
	defer close(events)

	fail := func(err error) {
		r.logger.Error("conversion of %s failed: %v", req.Input, err)
		events <- Event{Outcome: &Outcome{Success: false, Message: err.Error()}}
	}

	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		fail(ErrRunnerBusy)
		return
	}
	r.started = true
	r.mu.Unlock()

	args, err := Resolve(req)
	if err != nil {
		fail(err)
		return
	}

	duration, err := r.prober.Duration(req.Input)
	if err != nil {
		fail(fmt.Errorf("probe failed: %w", err))
		return
	}
	if duration <= 0 {
		fail(fmt.Errorf("probe failed: no duration found for %s", req.Input))
		return
	}

	// a cancel may have arrived while the probe was still running
	r.mu.Lock()
	stopped := r.stopRequested
	r.mu.Unlock()
	if stopped {
		fail(errors.New("conversion canceled"))
		return
	}

	parser := newProgressParser(duration, r.logLines, func(percent int) {
		events <- Event{Percent: percent}
	})

	done := make(chan struct{})
	proc, err := r.launch(process.Config{
		Args:   args.CreateCommand(req.Input, req.Output),
		Parser: parser,
		Logger: wrapLogger(r.logger),
		OnExit: func() { close(done) },
	})
	if err != nil {
		fail(err)
		return
	}

	r.mu.Lock()
	r.proc = proc
	r.parser = parser
	stopped = r.stopRequested
	r.mu.Unlock()
	if stopped {
		fail(errors.New("conversion canceled"))
		return
	}

	r.logger.Info("converting %s -> %s (%s, %.1fs)", req.Input, req.Output, req.Format, duration)

	if err := proc.Start(); err != nil {
		fail(err)
		return
	}
	<-done

	switch proc.Status().State {
	case process.StateFinished:
		r.logger.Info("conversion of %s finished", req.Input)
		events <- Event{Percent: parser.Percent(), Outcome: &Outcome{Success: true, Message: "Conversion successful"}}
	case process.StateKilled:
		fail(errors.New("conversion canceled"))
	default:
		message := parser.LastLog()
		if message == "" {
			message = "encoder exited abnormally"
		}
		fail(errors.New(message))
	}
}

// Stop cancels the conversion. If the encoder is already running it is
// killed; a stop during the preflight probe prevents the launch. The
// terminal outcome still arrives through the event channel.
func (r *runner) Stop() error {
	r.mu.Lock()
	r.stopRequested = true
	proc := r.proc
	r.mu.Unlock()
	if proc == nil {
		return nil
	}
	return proc.Stop(false)
}

func (r *runner) Status() process.Status {
	r.mu.Lock()
	proc := r.proc
	r.mu.Unlock()
	if proc == nil {
		return process.Status{State: process.StateCreated}
	}
	return proc.Status()
}

func (r *runner) Log() []process.Line {
	r.mu.Lock()
	parser := r.parser
	r.mu.Unlock()
	if parser == nil {
		return nil
	}
	return parser.Log()
}

func wrapLogger(l logger.Logger) process.Logger {
	return &loggerWrapper{logger: l}
}

type loggerWrapper struct {
	logger logger.Logger
}

func (w *loggerWrapper) Info(format string, args ...interface{}) {
	w.logger.Info(format, args...)
}

func (w *loggerWrapper) Error(format string, args ...interface{}) {
	w.logger.Error(format, args...)
}

func (w *loggerWrapper) Debug(format string, args ...interface{}) {
	w.logger.Debug(format, args...)
}
