// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaConv - 媒体文件格式转换服务
//
// Package convert maps conversion requests onto FFmpeg encoder arguments
// and drives a single conversion run, reporting progress as events.

package convert

// Request describes one conversion. A request is immutable once it has
// been handed to a Runner.
type Request struct {
	Input        string `json:"input" yaml:"input"`
	Output       string `json:"output" yaml:"output"`
	Format       string `json:"format" yaml:"format"`
	VideoBitrate string `json:"video_bitrate,omitempty" yaml:"video_bitrate"`
	AudioBitrate string `json:"audio_bitrate,omitempty" yaml:"audio_bitrate"`
	Resolution   string `json:"resolution,omitempty" yaml:"resolution"`
}

// Outcome is the terminal result of a conversion. Exactly one outcome is
// produced per request.
type Outcome struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Event is either a progress update (Outcome nil) or the terminal
// outcome. A run emits zero or more progress events with non-decreasing
// percentages, then exactly one outcome event, then the channel closes.
type Event struct {
	Percent int      `json:"percent"`
	Outcome *Outcome `json:"outcome,omitempty"`
}

// VideoFormats are the target formats that carry a video stream.
var VideoFormats = []string{"mp4", "avi", "mkv", "webm", "mov", "flv"}

// AudioFormats are the audio-only target formats.
var AudioFormats = []string{"mp3", "wav", "flac", "ogg", "aac"}

// Picker option lists, matching the choices the converter offers clients.
var (
	VideoBitrates = []string{"500k", "1M", "2M", "5M", "10M", "20M"}
	AudioBitrates = []string{"64k", "128k", "192k", "256k", "320k"}
	Resolutions   = []string{"640x480", "1280x720", "1920x1080", "3840x2160"}
)

// Default picker selections.
const (
	DefaultVideoBitrate = "5M"
	DefaultAudioBitrate = "192k"
	DefaultResolution   = "1280x720"
)

// IsVideoFormat reports whether format carries a video stream
func IsVideoFormat(format string) bool {
	for _, f := range VideoFormats {
		if f == format {
			return true
		}
	}
	return false
}

// IsAudioFormat reports whether format is audio-only
func IsAudioFormat(format string) bool {
	for _, f := range AudioFormats {
		if f == format {
			return true
		}
	}
	return false
}

// IsSupportedFormat reports whether format is a known target format
func IsSupportedFormat(format string) bool {
	return IsVideoFormat(format) || IsAudioFormat(format)
}
