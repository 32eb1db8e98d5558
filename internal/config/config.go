// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaConv - 媒体文件格式转换服务

package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"mediaconv/internal/convert"
)

// Config 应用配置
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	FFmpeg   FFmpegConfig   `yaml:"ffmpeg"`
	Watch    WatchConfig    `yaml:"watch"`
	Defaults DefaultsConfig `yaml:"defaults"`
}

// ServerConfig 服务配置
type ServerConfig struct {
	Bind string `yaml:"bind"`
}

// FFmpegConfig FFmpeg 配置
type FFmpegConfig struct {
	Path        string   `yaml:"path"`
	ProbePath   string   `yaml:"probe_path"`
	MaxLogLines int      `yaml:"max_log_lines"`
	InputAllow  []string `yaml:"input_allow"`
	InputBlock  []string `yaml:"input_block"`
	OutputAllow []string `yaml:"output_allow"`
	OutputBlock []string `yaml:"output_block"`
}

// WatchConfig 监视目录配置，Dir 为空时不启用
type WatchConfig struct {
	Dir         string `yaml:"dir"`
	OutputDir   string `yaml:"output_dir"`
	Format      string `yaml:"format"`
	HoldSeconds int    `yaml:"hold_seconds"`
}

// DefaultsConfig 转换参数默认值
type DefaultsConfig struct {
	VideoBitrate string `yaml:"video_bitrate"`
	AudioBitrate string `yaml:"audio_bitrate"`
	Resolution   string `yaml:"resolution"`
}

// Default 返回默认配置
func Default() *Config {
	return &Config{
		Server: ServerConfig{Bind: ":8080"},
		FFmpeg: FFmpegConfig{
			Path:        "ffmpeg",
			ProbePath:   "ffprobe",
			MaxLogLines: 100,
		},
		Watch: WatchConfig{
			Format:      "mp4",
			HoldSeconds: 5,
		},
		Defaults: DefaultsConfig{
			VideoBitrate: convert.DefaultVideoBitrate,
			AudioBitrate: convert.DefaultAudioBitrate,
			Resolution:   convert.DefaultResolution,
		},
	}
}

// Load 从 YAML 文件加载配置，缺失字段回填默认值
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	// 填充空值
	def := Default()
	if cfg.Server.Bind == "" {
		cfg.Server.Bind = def.Server.Bind
	}
	if cfg.FFmpeg.Path == "" {
		cfg.FFmpeg.Path = def.FFmpeg.Path
	}
	if cfg.FFmpeg.ProbePath == "" {
		cfg.FFmpeg.ProbePath = def.FFmpeg.ProbePath
	}
	if cfg.FFmpeg.MaxLogLines <= 0 {
		cfg.FFmpeg.MaxLogLines = def.FFmpeg.MaxLogLines
	}
	if cfg.Watch.Format == "" {
		cfg.Watch.Format = def.Watch.Format
	}
	if cfg.Watch.HoldSeconds <= 0 {
		cfg.Watch.HoldSeconds = def.Watch.HoldSeconds
	}
	if cfg.Defaults.VideoBitrate == "" {
		cfg.Defaults.VideoBitrate = def.Defaults.VideoBitrate
	}
	if cfg.Defaults.AudioBitrate == "" {
		cfg.Defaults.AudioBitrate = def.Defaults.AudioBitrate
	}
	if cfg.Defaults.Resolution == "" {
		cfg.Defaults.Resolution = def.Defaults.Resolution
	}

	return cfg, nil
}
