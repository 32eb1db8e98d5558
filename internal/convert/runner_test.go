// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaConv - 媒体文件格式转换服务

package convert_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mediaconv/internal/convert"
	"mediaconv/internal/process"
)

type fakeProber struct {
	duration float64
	err      error
	called   bool
}

func (p *fakeProber) Duration(path string) (float64, error) {
	p.called = true
	return p.duration, p.err
}

// fakeProcess feeds canned diagnostic lines into the runner's parser
// and then reports the configured exit state.
type fakeProcess struct {
	config    process.Config
	lines     []string
	exitState string

	mu      sync.Mutex
	stopped bool
	stopCh  chan struct{}
	once    sync.Once
}

func (p *fakeProcess) Start() error {
	go func() {
		for _, line := range p.lines {
			p.config.Parser.Parse(line)
		}
		if p.stopCh != nil {
			<-p.stopCh
		}
		p.config.OnExit()
	}()
	return nil
}

func (p *fakeProcess) Stop(wait bool) error {
	p.mu.Lock()
	p.stopped = true
	p.exitState = process.StateKilled
	p.mu.Unlock()
	p.once.Do(func() {
		if p.stopCh != nil {
			close(p.stopCh)
		}
	})
	return nil
}

func (p *fakeProcess) Status() process.Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return process.Status{State: p.exitState}
}

func (p *fakeProcess) IsRunning() bool { return false }

// launchFake wires a fakeProcess into the runner; the returned pointer
// lets tests inspect it afterwards.
func launchFake(proc *fakeProcess) (convert.LaunchFunc, *bool) {
	launched := false
	return func(config process.Config) (process.Process, error) {
		launched = true
		proc.config = config
		return proc, nil
	}, &launched
}

func collect(t *testing.T, events <-chan convert.Event) ([]int, *convert.Outcome) {
	t.Helper()

	var progress []int
	var outcome *convert.Outcome
	for ev := range events {
		if ev.Outcome == nil {
			require.Nil(t, outcome, "progress after terminal outcome")
			progress = append(progress, ev.Percent)
			continue
		}
		require.Nil(t, outcome, "more than one terminal outcome")
		outcome = ev.Outcome
	}
	require.NotNil(t, outcome, "stream ended without a terminal outcome")
	return progress, outcome
}

func TestRunnerSuccess(t *testing.T) {
	proc := &fakeProcess{
		lines: []string{
			"Input #0, avi, from 'in.avi':",
			"out_time_ms=50000000",
			"progress=end",
		},
		exitState: process.StateFinished,
	}
	launch, launched := launchFake(proc)

	runner := convert.NewRunner(convert.RunnerConfig{
		Prober: &fakeProber{duration: 100},
		Launch: launch,
	})

	progress, outcome := collect(t, runner.Convert(convert.Request{
		Input:  "in.avi",
		Output: "out.mp4",
		Format: "mp4",
	}))

	assert.True(t, *launched)
	assert.Equal(t, []int{50}, progress)
	require.True(t, outcome.Success)
	assert.Equal(t, "Conversion successful", outcome.Message)
}

func TestRunnerProgressNonDecreasing(t *testing.T) {
	proc := &fakeProcess{
		lines: []string{
			"out_time_ms=10000000",
			"out_time_ms=30000000",
			"out_time_ms=30000000",
			"out_time_ms=80000000",
			"out_time_ms=250000000",
		},
		exitState: process.StateFinished,
	}
	launch, _ := launchFake(proc)

	runner := convert.NewRunner(convert.RunnerConfig{
		Prober: &fakeProber{duration: 200},
		Launch: launch,
	})

	progress, outcome := collect(t, runner.Convert(convert.Request{
		Input:  "in.avi",
		Output: "out.webm",
		Format: "webm",
	}))

	assert.Equal(t, []int{5, 15, 40, 100}, progress)
	for i := 1; i < len(progress); i++ {
		assert.GreaterOrEqual(t, progress[i], progress[i-1])
	}
	assert.LessOrEqual(t, progress[len(progress)-1], 100)
	assert.True(t, outcome.Success)
}

func TestRunnerUnsupportedFormat(t *testing.T) {
	prober := &fakeProber{duration: 100}
	launch, launched := launchFake(&fakeProcess{exitState: process.StateFinished})

	runner := convert.NewRunner(convert.RunnerConfig{Prober: prober, Launch: launch})

	progress, outcome := collect(t, runner.Convert(convert.Request{
		Input:  "in.avi",
		Output: "out.xyz",
		Format: "xyz",
	}))

	assert.Empty(t, progress)
	require.False(t, outcome.Success)
	assert.Contains(t, outcome.Message, "unsupported output format")

	// Resolution fails before any I/O happens
	assert.False(t, prober.called)
	assert.False(t, *launched)
}

func TestRunnerProbeFailure(t *testing.T) {
	launch, launched := launchFake(&fakeProcess{exitState: process.StateFinished})

	runner := convert.NewRunner(convert.RunnerConfig{
		Prober: &fakeProber{err: errors.New("no such file: in.avi")},
		Launch: launch,
	})

	_, outcome := collect(t, runner.Convert(convert.Request{
		Input:  "in.avi",
		Output: "out.mp4",
		Format: "mp4",
	}))

	require.False(t, outcome.Success)
	assert.Contains(t, outcome.Message, "probe failed")
	assert.Contains(t, outcome.Message, "no such file: in.avi")
	assert.False(t, *launched)
}

func TestRunnerZeroDuration(t *testing.T) {
	launch, launched := launchFake(&fakeProcess{exitState: process.StateFinished})

	runner := convert.NewRunner(convert.RunnerConfig{
		Prober: &fakeProber{duration: 0},
		Launch: launch,
	})

	_, outcome := collect(t, runner.Convert(convert.Request{
		Input:  "in.avi",
		Output: "out.mp4",
		Format: "mp4",
	}))

	require.False(t, outcome.Success)
	assert.Contains(t, outcome.Message, "probe failed")
	assert.False(t, *launched)
}

func TestRunnerLaunchFailure(t *testing.T) {
	runner := convert.NewRunner(convert.RunnerConfig{
		Prober: &fakeProber{duration: 100},
		Launch: func(config process.Config) (process.Process, error) {
			return nil, errors.New("no valid binary given")
		},
	})

	_, outcome := collect(t, runner.Convert(convert.Request{
		Input:  "in.avi",
		Output: "out.mp4",
		Format: "mp4",
	}))

	require.False(t, outcome.Success)
	assert.Contains(t, outcome.Message, "no valid binary given")
}

func TestRunnerEncoderFailure(t *testing.T) {
	proc := &fakeProcess{
		lines: []string{
			"out_time_ms=10000000",
			"Conversion failed!",
			"encoder exited with code 1",
		},
		exitState: process.StateFailed,
	}
	launch, _ := launchFake(proc)

	runner := convert.NewRunner(convert.RunnerConfig{
		Prober: &fakeProber{duration: 100},
		Launch: launch,
	})

	progress, outcome := collect(t, runner.Convert(convert.Request{
		Input:  "in.avi",
		Output: "out.mp4",
		Format: "mp4",
	}))

	assert.Equal(t, []int{10}, progress)
	require.False(t, outcome.Success)
	assert.Equal(t, "encoder exited with code 1", outcome.Message)
}

func TestRunnerCancel(t *testing.T) {
	proc := &fakeProcess{
		lines:     []string{"out_time_ms=20000000"},
		exitState: process.StateRunning,
		stopCh:    make(chan struct{}),
	}
	launch, _ := launchFake(proc)

	runner := convert.NewRunner(convert.RunnerConfig{
		Prober: &fakeProber{duration: 100},
		Launch: launch,
	})

	events := runner.Convert(convert.Request{
		Input:  "in.avi",
		Output: "out.mp4",
		Format: "mp4",
	})

	// first event is the progress update, then cancel
	ev := <-events
	require.Nil(t, ev.Outcome)
	assert.Equal(t, 20, ev.Percent)

	require.NoError(t, runner.Stop())

	select {
	case ev = <-events:
	case <-time.After(time.Second):
		t.Fatal("no terminal outcome after cancel")
	}
	require.NotNil(t, ev.Outcome)
	assert.False(t, ev.Outcome.Success)
	assert.Equal(t, "conversion canceled", ev.Outcome.Message)

	_, open := <-events
	assert.False(t, open, "channel should be closed after the terminal outcome")
}

// blockingProber parks inside Duration until released, signalling entry
// through the started channel.
type blockingProber struct {
	duration float64
	started  chan struct{}
	release  chan struct{}
}

func (p *blockingProber) Duration(path string) (float64, error) {
	close(p.started)
	<-p.release
	return p.duration, nil
}

func TestRunnerCancelDuringProbe(t *testing.T) {
	prober := &blockingProber{
		duration: 100,
		started:  make(chan struct{}),
		release:  make(chan struct{}),
	}
	launch, launched := launchFake(&fakeProcess{exitState: process.StateFinished})

	runner := convert.NewRunner(convert.RunnerConfig{
		Prober: prober,
		Launch: launch,
	})

	events := runner.Convert(convert.Request{
		Input:  "in.avi",
		Output: "out.mp4",
		Format: "mp4",
	})

	// cancel while the probe is still in flight, then let it return
	<-prober.started
	require.NoError(t, runner.Stop())
	close(prober.release)

	progress, outcome := collect(t, events)

	assert.Empty(t, progress)
	require.False(t, outcome.Success)
	assert.Equal(t, "conversion canceled", outcome.Message)
	assert.False(t, *launched, "encoder must not launch after a cancel")
}

func TestRunnerSingleUse(t *testing.T) {
	proc := &fakeProcess{exitState: process.StateFinished}
	launch, _ := launchFake(proc)

	runner := convert.NewRunner(convert.RunnerConfig{
		Prober: &fakeProber{duration: 100},
		Launch: launch,
	})

	req := convert.Request{Input: "in.avi", Output: "out.mp4", Format: "mp4"}

	_, first := collect(t, runner.Convert(req))
	require.True(t, first.Success)

	_, second := collect(t, runner.Convert(req))
	require.False(t, second.Success)
	assert.Contains(t, second.Message, "one conversion per runner")
}
