// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaConv - 媒体文件格式转换服务

package job

import "errors"

var (
	ErrNotFound          = errors.New("job not found")
	ErrInvalidRequest    = errors.New("invalid request: input, output and format are required")
	ErrInvalidInputPath  = errors.New("invalid input path")
	ErrInvalidOutputPath = errors.New("invalid output path")
	ErrJobRunning        = errors.New("job is still running")
	ErrJobNotRunning     = errors.New("job is not running")
)
