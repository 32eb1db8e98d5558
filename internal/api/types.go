// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaConv - 媒体文件格式转换服务

package api

import "mediaconv/internal/convert"

// ConversionRequest for POST /api/v1/conversions
type ConversionRequest struct {
	Input        string `json:"input" binding:"required"`
	Output       string `json:"output" binding:"required"`
	Format       string `json:"format" binding:"required"`
	VideoBitrate string `json:"video_bitrate"`
	AudioBitrate string `json:"audio_bitrate"`
	Resolution   string `json:"resolution"`
}

// Conversion represents a job in API responses
type Conversion struct {
	ID         string             `json:"id"`
	Request    convert.Request    `json:"request"`
	CreatedAt  int64              `json:"created_at"`
	FinishedAt int64              `json:"finished_at,omitempty"`
	State      *ConversionState   `json:"state,omitempty"`
	Report     *ConversionReport  `json:"report,omitempty"`
}

// ConversionState for API
type ConversionState struct {
	State    string           `json:"state"`
	Progress int              `json:"progress"`
	Outcome  *convert.Outcome `json:"outcome,omitempty"`
	Runtime  int64            `json:"runtime_seconds"`
	Memory   uint64           `json:"memory_bytes"`
	CPU      float64          `json:"cpu_usage"`
}

// ConversionReport carries the retained encoder log
type ConversionReport struct {
	Log [][2]string `json:"log"`
}

// CommandRequest for cancel/restart
type CommandRequest struct {
	Command string `json:"command" binding:"required"`
}

// FormatsResponse lists the supported target formats and picker options
type FormatsResponse struct {
	Video    []string       `json:"video"`
	Audio    []string       `json:"audio"`
	Options  FormatOptions  `json:"options"`
	Defaults FormatDefaults `json:"defaults"`
}

// FormatOptions are the picker option lists
type FormatOptions struct {
	VideoBitrates []string `json:"video_bitrates"`
	AudioBitrates []string `json:"audio_bitrates"`
	Resolutions   []string `json:"resolutions"`
}

// FormatDefaults are the preselected picker options
type FormatDefaults struct {
	VideoBitrate string `json:"video_bitrate"`
	AudioBitrate string `json:"audio_bitrate"`
	Resolution   string `json:"resolution"`
}

// SkillsResponse for API
type SkillsResponse struct {
	FFmpeg struct {
		Version       string `json:"version"`
		Compiler      string `json:"compiler"`
		Configuration string `json:"configuration"`
	} `json:"ffmpeg"`

	Codecs struct {
		Audio []SkillsCodec `json:"audio"`
		Video []SkillsCodec `json:"video"`
	} `json:"codecs"`

	Muxers []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"muxers"`
}

// SkillsCodec for API
type SkillsCodec struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Encoders []string `json:"encoders"`
	Decoders []string `json:"decoders"`
}

// ErrorResponse for API errors
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}
