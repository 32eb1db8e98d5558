// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaConv - 媒体文件格式转换服务

package ffmpeg

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// Validator decides whether a file path is eligible as conversion input
// or output. Block expressions win over allow expressions; with no allow
// expressions every non-blocked path passes. Empty paths never pass.
type Validator interface {
	IsValid(path string) bool
}

type validator struct {
	allow []*regexp.Regexp
	block []*regexp.Regexp
}

// NewValidator compiles the allow and block expression lists. Empty
// expressions are skipped.
func NewValidator(allow, block []string) (Validator, error) {
	allowRe, err := compileList("allow", allow)
	if err != nil {
		return nil, err
	}
	blockRe, err := compileList("block", block)
	if err != nil {
		return nil, err
	}
	return &validator{allow: allowRe, block: blockRe}, nil
}

func compileList(kind string, expressions []string) ([]*regexp.Regexp, error) {
	var compiled []*regexp.Regexp
	for _, exp := range expressions {
		exp = strings.TrimSpace(exp)
		if exp == "" {
			continue
		}
		re, err := regexp.Compile(exp)
		if err != nil {
			return nil, fmt.Errorf("invalid %s expression '%s': %w", kind, exp, err)
		}
		compiled = append(compiled, re)
	}
	return compiled, nil
}

func (v *validator) IsValid(path string) bool {
	if path == "" {
		return false
	}

	// 规则作用于规范化后的路径，避免 ../ 绕过
	path = filepath.Clean(path)

	for _, e := range v.block {
		if e.MatchString(path) {
			return false
		}
	}
	if len(v.allow) == 0 {
		return true
	}
	for _, e := range v.allow {
		if e.MatchString(path) {
			return true
		}
	}
	return false
}
