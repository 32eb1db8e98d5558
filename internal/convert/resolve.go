// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaConv - 媒体文件格式转换服务

package convert

import (
	"fmt"
	"strconv"
	"strings"
)

// Arguments is the resolved encoder argument set for one request
type Arguments struct {
	VideoCodec   string
	AudioCodec   string
	VideoBitrate string
	AudioBitrate string
	ScaleFilter  string
}

// Resolve maps a request onto concrete encoder arguments. Pure and
// deterministic, no I/O. Video-only options (bitrate, resolution) are
// silently dropped for audio-only formats rather than rejected.
func Resolve(req Request) (Arguments, error) {
	args := Arguments{}

	switch {
	case IsVideoFormat(req.Format):
		args.VideoCodec = "libx264"
		args.AudioCodec = "aac"
		if req.VideoBitrate != "" {
			args.VideoBitrate = req.VideoBitrate
		}
		if req.Resolution != "" {
			width, height, err := ParseResolution(req.Resolution)
			if err != nil {
				return Arguments{}, err
			}
			args.ScaleFilter = fmt.Sprintf("scale=%d:%d", width, height)
		}
	case IsAudioFormat(req.Format):
		// wav 和 flac 走容器默认编码器
		switch req.Format {
		case "mp3":
			args.AudioCodec = "libmp3lame"
		case "ogg":
			args.AudioCodec = "libvorbis"
		case "aac":
			args.AudioCodec = "aac"
		}
	default:
		return Arguments{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, req.Format)
	}

	if req.AudioBitrate != "" {
		args.AudioBitrate = req.AudioBitrate
	}

	return args, nil
}

// ParseResolution parses a "WIDTHxHEIGHT" string
func ParseResolution(resolution string) (width, height int, err error) {
	parts := strings.Split(resolution, "x")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidResolution, resolution)
	}
	width, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidResolution, resolution)
	}
	height, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidResolution, resolution)
	}
	return width, height, nil
}

// CreateCommand builds the FFmpeg args for the resolved argument set
func (a Arguments) CreateCommand(input, output string) []string {
	cmd := []string{"-i", input}
	if a.VideoCodec != "" {
		cmd = append(cmd, "-c:v", a.VideoCodec)
	}
	if a.AudioCodec != "" {
		cmd = append(cmd, "-c:a", a.AudioCodec)
	}
	if a.VideoBitrate != "" {
		cmd = append(cmd, "-b:v", a.VideoBitrate)
	}
	if a.AudioBitrate != "" {
		cmd = append(cmd, "-b:a", a.AudioBitrate)
	}
	if a.ScaleFilter != "" {
		cmd = append(cmd, "-vf", a.ScaleFilter)
	}
	cmd = append(cmd, "-progress", "pipe:2", "-nostats", "-y", output)
	return cmd
}
