// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaConv - 媒体文件格式转换服务
//
// Package ffmpeg ties together binary discovery, capability probing and
// conversion runner construction.

package ffmpeg

import (
	"fmt"
	"os/exec"
	"sync"

	"mediaconv/internal/convert"
	"mediaconv/internal/ffmpeg/skills"
	"mediaconv/internal/logger"
	"mediaconv/internal/process"
)

// FFmpeg manages the ffmpeg/ffprobe binaries and their capabilities
type FFmpeg interface {
	NewRunner(log logger.Logger) convert.Runner
	Prober() convert.Prober
	ValidateInput(path string) bool
	ValidateOutput(path string) bool
	Skills() skills.Skills
	ReloadSkills() error
	Binary() string
}

// Config for FFmpeg
type Config struct {
	Binary          string
	ProbeBinary     string
	MaxLogLines     int
	ValidatorInput  Validator
	ValidatorOutput Validator
}

type ffmpeg struct {
	binary       string
	probeBinary  string
	prober       convert.Prober
	validatorIn  Validator
	validatorOut Validator
	skills       skills.Skills
	logLines     int
	skillsLock   sync.RWMutex
}

// New creates FFmpeg. Both binaries are resolved through the PATH and
// the installed capabilities are probed once.
func New(config Config) (FFmpeg, error) {
	binary, err := exec.LookPath(config.Binary)
	if err != nil {
		return nil, fmt.Errorf("invalid ffmpeg binary: %w", err)
	}
	probeBinary, err := exec.LookPath(config.ProbeBinary)
	if err != nil {
		return nil, fmt.Errorf("invalid ffprobe binary: %w", err)
	}

	f := &ffmpeg{
		binary:      binary,
		probeBinary: probeBinary,
		logLines:    config.MaxLogLines,
	}

	if f.logLines <= 0 {
		f.logLines = 100
	}

	if config.ValidatorInput != nil {
		f.validatorIn = config.ValidatorInput
	} else {
		f.validatorIn, _ = NewValidator(nil, nil)
	}
	if config.ValidatorOutput != nil {
		f.validatorOut = config.ValidatorOutput
	} else {
		f.validatorOut, _ = NewValidator(nil, nil)
	}

	f.prober = NewProber(probeBinary)

	s, err := skills.New(binary)
	if err != nil {
		return nil, fmt.Errorf("invalid ffmpeg: %w", err)
	}
	f.skills = s

	return f, nil
}

// NewRunner creates a conversion runner bound to the discovered binaries
func (f *ffmpeg) NewRunner(log logger.Logger) convert.Runner {
	return convert.NewRunner(convert.RunnerConfig{
		Prober:   f.prober,
		LogLines: f.logLines,
		Logger:   log,
		Launch: func(config process.Config) (process.Process, error) {
			config.Binary = f.binary
			return process.New(config)
		},
	})
}

func (f *ffmpeg) Prober() convert.Prober {
	return f.prober
}

func (f *ffmpeg) ValidateInput(path string) bool {
	return f.validatorIn.IsValid(path)
}

func (f *ffmpeg) ValidateOutput(path string) bool {
	return f.validatorOut.IsValid(path)
}

func (f *ffmpeg) Skills() skills.Skills {
	f.skillsLock.RLock()
	defer f.skillsLock.RUnlock()
	return f.skills
}

func (f *ffmpeg) ReloadSkills() error {
	s, err := skills.New(f.binary)
	if err != nil {
		return fmt.Errorf("reload skills: %w", err)
	}
	f.skillsLock.Lock()
	f.skills = s
	f.skillsLock.Unlock()
	return nil
}

func (f *ffmpeg) Binary() string {
	return f.binary
}
