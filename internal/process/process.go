// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaConv - 媒体文件格式转换服务
//
// Package process wraps exec.Cmd for supervising a single encoder run.

package process

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"sync"
	"syscall"
	"time"
	"unicode/utf8"
)

// Process supervises one external encoder run. A process is one-shot:
// once it reaches a terminal state it cannot be started again.
type Process interface {
	Status() Status
	Start() error
	Stop(wait bool) error
	IsRunning() bool
}

// Config for a process
type Config struct {
	Binary        string
	Args          []string
	Parser        Parser
	OnStart       func()
	OnExit        func()
	OnStateChange func(from, to string)
	Logger        Logger
}

// Status of a process
type Status struct {
	State    string
	Duration time.Duration
	Time     time.Time
	CPU      float64
	Memory   uint64
}

// Logger interface
type Logger interface {
	Info(format string, args ...interface{})
	Error(format string, args ...interface{})
	Debug(format string, args ...interface{})
}

// Process states. created -> starting -> running -> finished|failed|killed,
// with finishing as the transient state while a stop is in flight.
const (
	StateCreated   = "created"
	StateStarting  = "starting"
	StateRunning   = "running"
	StateFinishing = "finishing"
	StateFinished  = "finished"
	StateFailed    = "failed"
	StateKilled    = "killed"
)

type stateType string

func (s stateType) String() string { return string(s) }

func (s stateType) IsRunning() bool {
	return s == StateStarting || s == StateRunning || s == StateFinishing
}

func (s stateType) IsTerminal() bool {
	return s == StateFinished || s == StateFailed || s == StateKilled
}

type process struct {
	binary string
	args   []string
	cmd    *exec.Cmd
	stderr io.ReadCloser

	state struct {
		state stateType
		time  time.Time
		lock  sync.Mutex
	}

	stopping struct {
		requested bool
		lock      sync.Mutex
	}

	killTimer     *time.Timer
	killTimerLock sync.Mutex

	parser    Parser
	logger    Logger
	sampler   Sampler
	callbacks struct {
		onStart       func()
		onExit        func()
		onStateChange func(from, to string)
		lock          sync.Mutex
	}
}

// New creates a new process
func New(config Config) (Process, error) {
	p := &process{
		binary:  config.Binary,
		args:    config.Args,
		parser:  config.Parser,
		logger:  config.Logger,
		sampler: NewSysSampler(),
	}

	if len(p.binary) == 0 {
		return nil, fmt.Errorf("no valid binary given")
	}

	if p.parser == nil {
		p.parser = &nullParser{}
	}

	if p.logger == nil {
		p.logger = &nopProcessLogger{}
	}

	p.state.state = StateCreated
	p.state.time = time.Now()
	p.callbacks.onStart = config.OnStart
	p.callbacks.onExit = config.OnExit
	p.callbacks.onStateChange = config.OnStateChange

	return p, nil
}

func (p *process) setState(state stateType) error {
	p.state.lock.Lock()

	prev := p.state.state
	valid := false

	switch prev {
	case StateCreated:
		valid = state == StateStarting
	case StateStarting:
		valid = state == StateRunning || state == StateFailed
	case StateRunning:
		valid = state == StateFinishing || state.IsTerminal()
	case StateFinishing:
		valid = state.IsTerminal()
	}

	if !valid {
		p.state.lock.Unlock()
		return fmt.Errorf("can't change from %s to %s", prev, state)
	}

	p.state.state = state
	p.state.time = time.Now()
	p.state.lock.Unlock()

	p.logger.Debug("state %s -> %s", prev, state)
	if p.callbacks.onStateChange != nil {
		p.callbacks.onStateChange(prev.String(), state.String())
	}
	return nil
}

func (p *process) getState() stateType {
	p.state.lock.Lock()
	defer p.state.lock.Unlock()
	return p.state.state
}

func (p *process) Status() Status {
	cpu, rss := p.sampler.Current()

	p.state.lock.Lock()
	state := p.state.state
	stateTime := p.state.time
	p.state.lock.Unlock()

	return Status{
		State:    state.String(),
		Duration: time.Since(stateTime),
		Time:     stateTime,
		CPU:      cpu,
		Memory:   rss,
	}
}

func (p *process) IsRunning() bool {
	return p.getState().IsRunning()
}

func (p *process) Start() error {
	if err := p.setState(StateStarting); err != nil {
		return err
	}

	var err error
	p.cmd = exec.Command(p.binary, p.args...)
	p.cmd.Env = []string{}

	p.stderr, err = p.cmd.StderrPipe()
	if err != nil {
		p.parser.Parse(err.Error())
		p.setState(StateFailed)
		return err
	}

	if err := p.cmd.Start(); err != nil {
		p.parser.Parse(err.Error())
		p.setState(StateFailed)
		return err
	}

	p.sampler.Start(p.cmd.Process.Pid)
	p.setState(StateRunning)

	if p.callbacks.onStart != nil {
		go p.callbacks.onStart()
	}

	go p.reader()

	return nil
}

func (p *process) Stop(wait bool) error {
	if !p.IsRunning() {
		return nil
	}
	if p.getState() == StateFinishing {
		return nil
	}

	p.stopping.lock.Lock()
	p.stopping.requested = true
	p.stopping.lock.Unlock()

	p.setState(StateFinishing)

	wg := sync.WaitGroup{}
	if wait {
		wg.Add(1)
		p.callbacks.lock.Lock()
		cb := p.callbacks.onExit
		p.callbacks.onExit = func() {
			if cb != nil {
				cb()
			}
			wg.Done()
		}
		p.callbacks.lock.Unlock()
	}

	var err error
	if runtime.GOOS == "windows" {
		err = p.cmd.Process.Kill()
	} else {
		err = p.cmd.Process.Signal(os.Interrupt)
		if err != nil {
			err = p.cmd.Process.Kill()
		} else {
			p.killTimerLock.Lock()
			p.killTimer = time.AfterFunc(5*time.Second, func() {
				p.cmd.Process.Kill()
			})
			p.killTimerLock.Unlock()
		}
	}

	if err == nil && wait {
		wg.Wait()
	}

	if err != nil {
		p.parser.Parse(err.Error())
	}
	return err
}

func (p *process) wasStopRequested() bool {
	p.stopping.lock.Lock()
	defer p.stopping.lock.Unlock()
	return p.stopping.requested
}

// reader 逐行读取 stderr 直到流结束，再等待进程退出
func (p *process) reader() {
	scanner := bufio.NewScanner(p.stderr)
	scanner.Split(scanLine)

	for scanner.Scan() {
		p.parser.Parse(scanner.Text())
	}

	p.waiter()
}

func (p *process) waiter() {
	if err := p.cmd.Wait(); err != nil {
		if exiterr, ok := err.(*exec.ExitError); ok {
			status := exiterr.Sys().(syscall.WaitStatus)
			if status.Exited() && !p.wasStopRequested() {
				p.parser.Parse(fmt.Sprintf("encoder exited with code %d", status.ExitStatus()))
				p.setState(StateFailed)
			} else {
				p.setState(StateKilled)
			}
		} else {
			p.setState(StateKilled)
		}
	} else if p.wasStopRequested() {
		p.setState(StateKilled)
	} else {
		p.setState(StateFinished)
	}

	p.sampler.Stop()

	p.killTimerLock.Lock()
	if p.killTimer != nil {
		p.killTimer.Stop()
		p.killTimer = nil
	}
	p.killTimerLock.Unlock()

	p.callbacks.lock.Lock()
	onExit := p.callbacks.onExit
	p.callbacks.lock.Unlock()
	if onExit != nil {
		onExit()
	}
}

// scanLine splits on both \n and \r, because FFmpeg rewrites its
// statistics line with carriage returns.
func scanLine(data []byte, atEOF bool) (advance int, token []byte, err error) {
	start := 0
	for start < len(data) {
		r, w := utf8.DecodeRune(data[start:])
		if r != '\n' && r != '\r' {
			break
		}
		start += w
	}

	for i := start; i < len(data); {
		r, w := utf8.DecodeRune(data[i:])
		if r == '\n' || r == '\r' {
			return i + w, data[start:i], nil
		}
		i += w
	}

	if atEOF && len(data) > start {
		return len(data), data[start:], nil
	}
	return start, nil, nil
}

type nullParser struct{}

func (p *nullParser) Parse(line string) {}
func (p *nullParser) ResetLog()         {}
func (p *nullParser) Log() []Line       { return nil }

type nopProcessLogger struct{}

func (l *nopProcessLogger) Info(format string, args ...interface{})  {}
func (l *nopProcessLogger) Error(format string, args ...interface{}) {}
func (l *nopProcessLogger) Debug(format string, args ...interface{}) {}
