// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaConv - 媒体文件格式转换服务

package convert

import "errors"

var (
	ErrUnsupportedFormat = errors.New("unsupported output format")
	ErrInvalidResolution = errors.New("invalid resolution, expected WIDTHxHEIGHT")
	ErrRunnerBusy        = errors.New("runner already consumed, one conversion per runner")
)
