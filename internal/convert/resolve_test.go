// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaConv - 媒体文件格式转换服务

package convert_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mediaconv/internal/convert"
)

func TestResolveVideoFormats(t *testing.T) {
	for _, format := range convert.VideoFormats {
		args, err := convert.Resolve(convert.Request{
			Input:  "in.avi",
			Output: "out." + format,
			Format: format,
		})
		require.NoError(t, err, format)
		assert.Equal(t, "libx264", args.VideoCodec, format)
		assert.Equal(t, "aac", args.AudioCodec, format)
		assert.Empty(t, args.ScaleFilter, format)
	}
}

func TestResolveAudioFormats(t *testing.T) {
	expected := map[string]string{
		"mp3":  "libmp3lame",
		"ogg":  "libvorbis",
		"aac":  "aac",
		"wav":  "",
		"flac": "",
	}

	for _, format := range convert.AudioFormats {
		args, err := convert.Resolve(convert.Request{
			Input:  "in.mp4",
			Output: "out." + format,
			Format: format,
		})
		require.NoError(t, err, format)
		assert.Equal(t, expected[format], args.AudioCodec, format)
		assert.Empty(t, args.VideoCodec, format)
	}
}

func TestResolveVideoOptionsIgnoredForAudio(t *testing.T) {
	// Video-only options on an audio format are a no-op, not an error
	args, err := convert.Resolve(convert.Request{
		Input:        "in.mp4",
		Output:       "out.mp3",
		Format:       "mp3",
		VideoBitrate: "5M",
		Resolution:   "1280x720",
	})
	require.NoError(t, err)
	assert.Empty(t, args.VideoCodec)
	assert.Empty(t, args.VideoBitrate)
	assert.Empty(t, args.ScaleFilter)
}

func TestResolveAudioBitrateAlwaysIncluded(t *testing.T) {
	for _, format := range []string{"mp4", "mp3"} {
		args, err := convert.Resolve(convert.Request{
			Input:        "in.avi",
			Output:       "out." + format,
			Format:       format,
			AudioBitrate: "192k",
		})
		require.NoError(t, err, format)
		assert.Equal(t, "192k", args.AudioBitrate, format)
	}
}

func TestResolveScaleFilter(t *testing.T) {
	args, err := convert.Resolve(convert.Request{
		Input:      "in.avi",
		Output:     "out.mp4",
		Format:     "mp4",
		Resolution: "1280x720",
	})
	require.NoError(t, err)
	assert.Equal(t, "scale=1280:720", args.ScaleFilter)
}

func TestResolveVideoBitrate(t *testing.T) {
	args, err := convert.Resolve(convert.Request{
		Input:        "in.avi",
		Output:       "out.mkv",
		Format:       "mkv",
		VideoBitrate: "2M",
	})
	require.NoError(t, err)
	assert.Equal(t, "2M", args.VideoBitrate)
}

func TestResolveUnsupportedFormat(t *testing.T) {
	_, err := convert.Resolve(convert.Request{
		Input:  "in.avi",
		Output: "out.xyz",
		Format: "xyz",
	})
	require.ErrorIs(t, err, convert.ErrUnsupportedFormat)
}

func TestResolveInvalidResolution(t *testing.T) {
	for _, resolution := range []string{"1280", "widexhigh", "1280x720x2", ""} {
		if resolution == "" {
			continue
		}
		_, err := convert.Resolve(convert.Request{
			Input:      "in.avi",
			Output:     "out.mp4",
			Format:     "mp4",
			Resolution: resolution,
		})
		assert.ErrorIs(t, err, convert.ErrInvalidResolution, resolution)
	}
}

func TestResolveDeterministic(t *testing.T) {
	req := convert.Request{
		Input:        "in.avi",
		Output:       "out.webm",
		Format:       "webm",
		VideoBitrate: "1M",
		AudioBitrate: "128k",
		Resolution:   "640x480",
	}
	first, err := convert.Resolve(req)
	require.NoError(t, err)
	second, err := convert.Resolve(req)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCreateCommand(t *testing.T) {
	args, err := convert.Resolve(convert.Request{
		Input:        "in.avi",
		Output:       "out.mp4",
		Format:       "mp4",
		VideoBitrate: "5M",
		AudioBitrate: "192k",
		Resolution:   "1920x1080",
	})
	require.NoError(t, err)

	cmd := args.CreateCommand("in.avi", "out.mp4")
	assert.Equal(t, []string{
		"-i", "in.avi",
		"-c:v", "libx264",
		"-c:a", "aac",
		"-b:v", "5M",
		"-b:a", "192k",
		"-vf", "scale=1920:1080",
		"-progress", "pipe:2", "-nostats", "-y",
		"out.mp4",
	}, cmd)
}

func TestCreateCommandAudioOnly(t *testing.T) {
	args, err := convert.Resolve(convert.Request{Input: "in.mp4", Output: "out.flac", Format: "flac"})
	require.NoError(t, err)

	cmd := args.CreateCommand("in.mp4", "out.flac")
	assert.Equal(t, []string{"-i", "in.mp4", "-progress", "pipe:2", "-nostats", "-y", "out.flac"}, cmd)
	assert.NotContains(t, cmd, "-c:v")
	assert.NotContains(t, cmd, "-vf")
}
