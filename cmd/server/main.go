// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaConv - 媒体文件格式转换服务

package main

import (
	"context"
	"flag"
	"log"
	"time"

	"mediaconv/internal/api"
	"mediaconv/internal/config"
	"mediaconv/internal/convert"
	"mediaconv/internal/ffmpeg"
	"mediaconv/internal/job"
	"mediaconv/internal/logger"
	"mediaconv/internal/metrics"
	"mediaconv/internal/watch"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	bind := flag.String("bind", "", "Bind address (overrides config)")
	ffmpegBin := flag.String("ffmpeg", "", "FFmpeg binary path (overrides config)")
	ffprobeBin := flag.String("ffprobe", "", "FFprobe binary path (overrides config)")
	watchDir := flag.String("watch", "", "Watch directory (overrides config)")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatalf("Load config: %v", err)
		}
	}

	if *bind != "" {
		cfg.Server.Bind = *bind
	}
	if *ffmpegBin != "" {
		cfg.FFmpeg.Path = *ffmpegBin
	}
	if *ffprobeBin != "" {
		cfg.FFmpeg.ProbePath = *ffprobeBin
	}
	if *watchDir != "" {
		cfg.Watch.Dir = *watchDir
	}

	logg := logger.New("mediaconv")

	validatorIn, err := ffmpeg.NewValidator(cfg.FFmpeg.InputAllow, cfg.FFmpeg.InputBlock)
	if err != nil {
		log.Fatalf("Input validator: %v", err)
	}
	validatorOut, err := ffmpeg.NewValidator(cfg.FFmpeg.OutputAllow, cfg.FFmpeg.OutputBlock)
	if err != nil {
		log.Fatalf("Output validator: %v", err)
	}

	ff, err := ffmpeg.New(ffmpeg.Config{
		Binary:          cfg.FFmpeg.Path,
		ProbeBinary:     cfg.FFmpeg.ProbePath,
		MaxLogLines:     cfg.FFmpeg.MaxLogLines,
		ValidatorInput:  validatorIn,
		ValidatorOutput: validatorOut,
	})
	if err != nil {
		log.Fatalf("FFmpeg init: %v", err)
	}

	metrics.Init()

	// 提前提示缺失的编码器/容器，转换时会直接失败
	skills := ff.Skills()
	for _, encoder := range []string{"libx264", "aac", "libmp3lame", "libvorbis"} {
		if !skills.HasEncoder(encoder) {
			logg.Error("installed ffmpeg has no %s encoder, conversions needing it will fail", encoder)
		}
	}
	// 容器 ID 和扩展名不完全一致
	muxerIDs := map[string]string{"mkv": "matroska", "aac": "adts"}
	for _, format := range append(convert.VideoFormats, convert.AudioFormats...) {
		id := format
		if mapped, ok := muxerIDs[format]; ok {
			id = mapped
		}
		if !skills.HasMuxer(id) {
			logg.Error("installed ffmpeg can't mux %s", format)
		}
	}

	store := job.NewStore(ff, logg)

	if cfg.Watch.Dir != "" {
		watcher, err := watch.New(watch.Config{
			Dir:          cfg.Watch.Dir,
			OutputDir:    cfg.Watch.OutputDir,
			Format:       cfg.Watch.Format,
			HoldDuration: time.Duration(cfg.Watch.HoldSeconds) * time.Second,
			VideoBitrate: cfg.Defaults.VideoBitrate,
			AudioBitrate: cfg.Defaults.AudioBitrate,
			Resolution:   cfg.Defaults.Resolution,
		}, store, logger.New("watch"))
		if err != nil {
			log.Fatalf("Watch init: %v", err)
		}
		go func() {
			if err := watcher.Run(context.Background()); err != nil {
				logg.Error("watch service: %v", err)
			}
		}()
	}

	handler := api.NewHandler(store, ff)
	router := api.Router(handler)

	log.Printf("MediaConv listening on %s (ffmpeg %s)", cfg.Server.Bind, ff.Skills().FFmpeg.Version)
	if err := router.Run(cfg.Server.Bind); err != nil {
		log.Fatalf("Server: %v", err)
	}
}
