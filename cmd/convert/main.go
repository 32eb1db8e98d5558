// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaConv - 媒体文件格式转换服务
//
// One-shot conversion CLI: converts a single file and prints progress.

package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"mediaconv/internal/convert"
	"mediaconv/internal/ffmpeg"
	"mediaconv/internal/logger"
)

func main() {
	input := flag.String("i", "", "Input file")
	output := flag.String("o", "", "Output file")
	format := flag.String("f", "", "Target format (e.g. mp4, mp3)")
	videoBitrate := flag.String("vb", "", "Video bitrate (e.g. 5M)")
	audioBitrate := flag.String("ab", "", "Audio bitrate (e.g. 192k)")
	resolution := flag.String("res", "", "Resolution (e.g. 1280x720)")
	ffmpegBin := flag.String("ffmpeg", "ffmpeg", "FFmpeg binary path")
	ffprobeBin := flag.String("ffprobe", "ffprobe", "FFprobe binary path")
	quiet := flag.Bool("q", false, "Suppress progress output")
	flag.Parse()

	if *input == "" || *output == "" || *format == "" {
		flag.Usage()
		os.Exit(2)
	}

	ff, err := ffmpeg.New(ffmpeg.Config{
		Binary:      *ffmpegBin,
		ProbeBinary: *ffprobeBin,
	})
	if err != nil {
		log.Fatalf("FFmpeg init: %v", err)
	}

	runner := ff.NewRunner(logger.Nop())

	events := runner.Convert(convert.Request{
		Input:        *input,
		Output:       *output,
		Format:       *format,
		VideoBitrate: *videoBitrate,
		AudioBitrate: *audioBitrate,
		Resolution:   *resolution,
	})

	for ev := range events {
		if ev.Outcome == nil {
			if !*quiet {
				fmt.Printf("\rprogress: %3d%%", ev.Percent)
			}
			continue
		}
		if !*quiet {
			fmt.Println()
		}
		if !ev.Outcome.Success {
			log.Fatalf("conversion failed: %s", ev.Outcome.Message)
		}
		fmt.Println(ev.Outcome.Message)
	}
}
