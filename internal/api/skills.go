// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaConv - 媒体文件格式转换服务

package api

import "mediaconv/internal/ffmpeg/skills"

func skillsToAPI(s skills.Skills) SkillsResponse {
	resp := SkillsResponse{}

	resp.FFmpeg.Version = s.FFmpeg.Version
	resp.FFmpeg.Compiler = s.FFmpeg.Compiler
	resp.FFmpeg.Configuration = s.FFmpeg.Configuration

	resp.Codecs.Audio = make([]SkillsCodec, len(s.Codecs.Audio))
	for i, c := range s.Codecs.Audio {
		resp.Codecs.Audio[i] = SkillsCodec{ID: c.Id, Name: c.Name, Encoders: c.Encoders, Decoders: c.Decoders}
	}
	resp.Codecs.Video = make([]SkillsCodec, len(s.Codecs.Video))
	for i, c := range s.Codecs.Video {
		resp.Codecs.Video[i] = SkillsCodec{ID: c.Id, Name: c.Name, Encoders: c.Encoders, Decoders: c.Decoders}
	}

	resp.Muxers = make([]struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}, len(s.Muxers))
	for i, m := range s.Muxers {
		resp.Muxers[i] = struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		}{m.Id, m.Name}
	}

	return resp
}
