// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaConv - 媒体文件格式转换服务
//
// Package watch submits conversions for media files dropped into a
// watched directory.

package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rjeczalik/notify"

	"mediaconv/internal/convert"
	"mediaconv/internal/job"
	"mediaconv/internal/logger"
	"mediaconv/internal/metrics"
)

// 默认识别的输入扩展名
var defaultExtensions = []string{
	".mp4", ".avi", ".mkv", ".webm", ".mov", ".flv",
	".mp3", ".wav", ".flac", ".ogg", ".aac", ".m4a", ".wmv", ".ts",
}

// Submitter is the part of the job store the watcher needs
type Submitter interface {
	Add(req convert.Request) (*job.Job, error)
}

// Config for the watch service
type Config struct {
	Dir          string
	OutputDir    string
	Format       string
	Extensions   []string
	HoldDuration time.Duration
	VideoBitrate string
	AudioBitrate string
	Resolution   string
}

// Service watches a directory and auto-submits conversions
type Service interface {
	Run(ctx context.Context) error
}

type service struct {
	config Config
	store  Submitter
	logger logger.Logger

	mu        sync.Mutex
	holding   map[string]*time.Timer
	submitted map[string]bool
}

// New creates a watch service
func New(config Config, store Submitter, log logger.Logger) (Service, error) {
	if config.Dir == "" {
		return nil, fmt.Errorf("watch: no directory configured")
	}
	if !convert.IsSupportedFormat(config.Format) {
		return nil, fmt.Errorf("watch: %w: %q", convert.ErrUnsupportedFormat, config.Format)
	}
	if config.OutputDir == "" {
		config.OutputDir = config.Dir
	}
	if len(config.Extensions) == 0 {
		config.Extensions = defaultExtensions
	}
	if config.HoldDuration <= 0 {
		config.HoldDuration = 5 * time.Second
	}
	if log == nil {
		log = logger.Nop()
	}

	return &service{
		config:    config,
		store:     store,
		logger:    log,
		holding:   make(map[string]*time.Timer),
		submitted: make(map[string]bool),
	}, nil
}

// Run listens for file system events until the context is canceled.
// Files already present are picked up by an initial scan; new files are
// held for a debounce period so half-written files are not converted.
func (s *service) Run(ctx context.Context) error {
	events := make(chan notify.EventInfo, 16)
	if err := notify.Watch(s.config.Dir, events, notify.Create, notify.Write, notify.Rename); err != nil {
		return fmt.Errorf("watch %s: %w", s.config.Dir, err)
	}
	defer notify.Stop(events)
	defer s.clearHoldTimers()

	s.logger.Info("watching %s (target format %s)", s.config.Dir, s.config.Format)

	s.scan()

	for {
		select {
		case ev := <-events:
			s.hold(ev.Path())
		case <-ctx.Done():
			return nil
		}
	}
}

// scan picks up candidate files already sitting in the watched directory
func (s *service) scan() {
	entries, err := os.ReadDir(s.config.Dir)
	if err != nil {
		s.logger.Error("scan %s: %v", s.config.Dir, err)
		return
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		s.hold(filepath.Join(s.config.Dir, entry.Name()))
	}
}

// hold schedules (or reschedules) the debounce timer for a path
func (s *service) hold(path string) {
	if !s.candidate(path) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.submitted[path] {
		return
	}
	if timer, ok := s.holding[path]; ok {
		timer.Stop()
	}
	s.holding[path] = time.AfterFunc(s.config.HoldDuration, func() {
		s.submit(path)
	})
}

func (s *service) submit(path string) {
	s.mu.Lock()
	delete(s.holding, path)
	if s.submitted[path] {
		s.mu.Unlock()
		return
	}
	s.submitted[path] = true
	s.mu.Unlock()

	req := convert.Request{
		Input:        path,
		Output:       s.outputPath(path),
		Format:       s.config.Format,
		AudioBitrate: s.config.AudioBitrate,
	}
	if convert.IsVideoFormat(s.config.Format) {
		req.VideoBitrate = s.config.VideoBitrate
		req.Resolution = s.config.Resolution
	}

	j, err := s.store.Add(req)
	if err != nil {
		s.logger.Error("submit %s: %v", path, err)
		return
	}

	metrics.WatchSubmissionsTotal.Inc()
	s.logger.Info("submitted %s as job %s", path, j.ID)
}

// candidate reports whether the path is a convertible input file
func (s *service) candidate(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "."+s.config.Format {
		// 已经是目标格式
		return false
	}
	for _, e := range s.config.Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// outputPath maps an input path into the output directory with the
// target format's extension
func (s *service) outputPath(input string) string {
	base := filepath.Base(input)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(s.config.OutputDir, stem+"."+s.config.Format)
}

func (s *service) clearHoldTimers() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for path, timer := range s.holding {
		timer.Stop()
		delete(s.holding, path)
	}
}
