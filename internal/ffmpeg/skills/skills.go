// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaConv - 媒体文件格式转换服务
//
// Package skills detects the capabilities of an installed FFmpeg.

package skills

import (
	"bufio"
	"bytes"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
)

// Codec represents a codec with its encoders and decoders
type Codec struct {
	Id       string
	Name     string
	Encoders []string
	Decoders []string
}

// Muxer represents an output container format
type Muxer struct {
	Id   string
	Name string
}

// Library represents a linked av library
type Library struct {
	Name     string
	Compiled string
	Linked   string
}

type ffmpegInfo struct {
	Version       string
	Compiler      string
	Configuration string
	Libraries     []Library
}

// Skills are the detected capabilities of FFmpeg
type Skills struct {
	FFmpeg ffmpegInfo
	Codecs struct {
		Audio []Codec
		Video []Codec
	}
	Muxers []Muxer
}

// New probes the binary once and returns its capabilities
func New(binary string) (Skills, error) {
	s := Skills{}

	ff, err := getVersion(binary)
	if ff.Version == "" || err != nil {
		if err != nil {
			return Skills{}, fmt.Errorf("can't parse ffmpeg version: %w", err)
		}
		return Skills{}, fmt.Errorf("can't parse ffmpeg version")
	}
	s.FFmpeg = ff

	s.Codecs = getCodecs(binary)
	s.Muxers = getMuxers(binary)

	return s, nil
}

// HasEncoder reports whether any known codec provides the encoder
func (s Skills) HasEncoder(encoder string) bool {
	for _, group := range [][]Codec{s.Codecs.Audio, s.Codecs.Video} {
		for _, c := range group {
			for _, e := range c.Encoders {
				if e == encoder {
					return true
				}
			}
		}
	}
	return false
}

// HasMuxer reports whether the container format can be written
func (s Skills) HasMuxer(id string) bool {
	for _, m := range s.Muxers {
		if m.Id == id {
			return true
		}
	}
	return false
}

func getVersion(binary string) (ffmpegInfo, error) {
	cmd := exec.Command(binary, "-version")
	cmd.Env = []string{}
	out, err := cmd.CombinedOutput()
	if err != nil {
		return ffmpegInfo{}, err
	}
	return parseVersion(out), nil
}

func parseVersion(data []byte) ffmpegInfo {
	f := ffmpegInfo{}
	reVersion := regexp.MustCompile(`^ffmpeg version ([0-9]+\.[0-9]+(\.[0-9]+)?)`)
	reCompiler := regexp.MustCompile(`(?m)^\s*built with (.*)$`)
	reConfiguration := regexp.MustCompile(`(?m)^\s*configuration: (.*)$`)
	reLibrary := regexp.MustCompile(`(?m)^\s*(lib(?:[a-z]+))\s+([0-9]+\.\s*[0-9]+\.\s*[0-9]+) /\s+([0-9]+\.\s*[0-9]+\.\s*[0-9]+)`)

	if m := reVersion.FindSubmatch(data); m != nil {
		f.Version = string(m[1])
		if len(m[2]) == 0 {
			f.Version += ".0"
		}
	}
	if m := reCompiler.FindSubmatch(data); m != nil {
		f.Compiler = string(m[1])
	}
	if m := reConfiguration.FindSubmatch(data); m != nil {
		f.Configuration = string(m[1])
	}
	for _, m := range reLibrary.FindAllSubmatch(data, -1) {
		f.Libraries = append(f.Libraries, Library{
			Name:     string(m[1]),
			Compiled: string(m[2]),
			Linked:   string(m[3]),
		})
	}
	return f
}

func getCodecs(binary string) struct {
	Audio []Codec
	Video []Codec
} {
	cmd := exec.Command(binary, "-codecs")
	cmd.Env = []string{}
	stdout, _ := cmd.Output()
	return parseCodecs(stdout)
}

func parseCodecs(data []byte) struct {
	Audio []Codec
	Video []Codec
} {
	codecs := struct {
		Audio []Codec
		Video []Codec
	}{}
	re := regexp.MustCompile(`^\s([D.])([E.])([VAS]).{3} ([0-9A-Za-z_]+)\s+(.*?)(?:\(decoders:([^\)]+)\))?\s?(?:\(encoders:([^\)]+)\))?$`)
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := scanner.Text()
		m := re.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		c := Codec{Id: m[4], Name: strings.TrimSpace(m[5])}
		if m[1] == "D" {
			if len(m[6]) == 0 {
				c.Decoders = []string{m[4]}
			} else {
				c.Decoders = strings.Split(strings.TrimSpace(m[6]), " ")
			}
		}
		if m[2] == "E" {
			if len(m[7]) == 0 {
				c.Encoders = []string{m[4]}
			} else {
				c.Encoders = strings.Split(strings.TrimSpace(m[7]), " ")
			}
		}
		switch m[3] {
		case "V":
			codecs.Video = append(codecs.Video, c)
		case "A":
			codecs.Audio = append(codecs.Audio, c)
		}
	}
	return codecs
}

func getMuxers(binary string) []Muxer {
	cmd := exec.Command(binary, "-muxers")
	cmd.Env = []string{}
	stdout, _ := cmd.Output()
	return parseMuxers(stdout)
}

func parseMuxers(data []byte) []Muxer {
	var muxers []Muxer
	re := regexp.MustCompile(`^\s*E\s+([0-9A-Za-z_,]+)\s+(.*)$`)
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := scanner.Text()
		m := re.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		// 一行可能列出多个逗号分隔的 ID
		for _, id := range strings.Split(m[1], ",") {
			muxers = append(muxers, Muxer{Id: id, Name: strings.TrimSpace(m[2])})
		}
	}
	return muxers
}
