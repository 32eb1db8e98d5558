// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaConv - 媒体文件格式转换服务

package ffmpeg

import (
	"fmt"
	"strconv"

	floostack "github.com/floostack/transcoder/ffmpeg"
)

// Metadata is the media information extracted from an input file
type Metadata struct {
	DurationSeconds float64 `json:"duration_seconds"`
	FormatName      string  `json:"format_name"`
	Width           int     `json:"width,omitempty"`
	Height          int     `json:"height,omitempty"`
	VideoCodec      string  `json:"video_codec,omitempty"`
	AudioCodec      string  `json:"audio_codec,omitempty"`
}

// Prober reads media metadata via ffprobe
type Prober interface {
	Probe(path string) (Metadata, error)
	Duration(path string) (float64, error)
}

type prober struct {
	ffprobe string
}

// NewProber creates a Prober bound to an ffprobe binary
func NewProber(ffprobeBin string) Prober {
	return &prober{ffprobe: ffprobeBin}
}

func (p *prober) Probe(path string) (Metadata, error) {
	cfg := floostack.Config{FfprobeBinPath: p.ffprobe}
	raw, err := floostack.New(&cfg).Input(path).GetMetadata()
	if err != nil {
		return Metadata{}, fmt.Errorf("ffprobe on %s: %w", path, err)
	}

	meta := Metadata{FormatName: raw.GetFormat().GetFormatName()}

	duration, err := strconv.ParseFloat(raw.GetFormat().GetDuration(), 64)
	if err != nil {
		return Metadata{}, fmt.Errorf("no usable duration for %s: %w", path, err)
	}
	meta.DurationSeconds = duration

	for _, stream := range raw.GetStreams() {
		switch stream.GetCodecType() {
		case "video":
			if meta.VideoCodec == "" {
				meta.VideoCodec = stream.GetCodecName()
				meta.Width = stream.GetWidth()
				meta.Height = stream.GetHeight()
			}
		case "audio":
			if meta.AudioCodec == "" {
				meta.AudioCodec = stream.GetCodecName()
			}
		}
	}

	return meta, nil
}

// Duration implements convert.Prober
func (p *prober) Duration(path string) (float64, error) {
	meta, err := p.Probe(path)
	if err != nil {
		return 0, err
	}
	return meta.DurationSeconds, nil
}
