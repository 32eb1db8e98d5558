// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaConv - 媒体文件格式转换服务

package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mediaconv/internal/config"
)

func TestDefault(t *testing.T) {
	cfg := config.Default()

	assert.Equal(t, ":8080", cfg.Server.Bind)
	assert.Equal(t, "ffmpeg", cfg.FFmpeg.Path)
	assert.Equal(t, "ffprobe", cfg.FFmpeg.ProbePath)
	assert.Equal(t, 100, cfg.FFmpeg.MaxLogLines)
	assert.Empty(t, cfg.Watch.Dir)
	assert.Equal(t, "mp4", cfg.Watch.Format)
	assert.Equal(t, "5M", cfg.Defaults.VideoBitrate)
	assert.Equal(t, "192k", cfg.Defaults.AudioBitrate)
	assert.Equal(t, "1280x720", cfg.Defaults.Resolution)
}

func TestLoadMissingFileIsDefault(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestLoadBackfillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
server:
  bind: ":9090"
watch:
  dir: /media/incoming
  format: mkv
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Bind)
	assert.Equal(t, "/media/incoming", cfg.Watch.Dir)
	assert.Equal(t, "mkv", cfg.Watch.Format)

	// 未设置的字段回填默认值
	assert.Equal(t, "ffmpeg", cfg.FFmpeg.Path)
	assert.Equal(t, "ffprobe", cfg.FFmpeg.ProbePath)
	assert.Equal(t, 5, cfg.Watch.HoldSeconds)
	assert.Equal(t, "192k", cfg.Defaults.AudioBitrate)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [broken"), 0o644))

	_, err := config.Load(path)
	assert.Error(t, err)
}

func TestLoadFullConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
server:
  bind: ":8081"
ffmpeg:
  path: /usr/local/bin/ffmpeg
  probe_path: /usr/local/bin/ffprobe
  max_log_lines: 50
  input_allow:
    - "^/media/"
watch:
  dir: /media/in
  output_dir: /media/out
  format: webm
  hold_seconds: 10
defaults:
  video_bitrate: 2M
  audio_bitrate: 128k
  resolution: 1920x1080
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/usr/local/bin/ffmpeg", cfg.FFmpeg.Path)
	assert.Equal(t, 50, cfg.FFmpeg.MaxLogLines)
	assert.Equal(t, []string{"^/media/"}, cfg.FFmpeg.InputAllow)
	assert.Equal(t, "/media/out", cfg.Watch.OutputDir)
	assert.Equal(t, 10, cfg.Watch.HoldSeconds)
	assert.Equal(t, "2M", cfg.Defaults.VideoBitrate)
	assert.Equal(t, "1920x1080", cfg.Defaults.Resolution)
}
