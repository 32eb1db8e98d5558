// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaConv - 媒体文件格式转换服务

package convert

import (
	"container/ring"
	"strconv"
	"strings"
	"sync"
	"time"

	"mediaconv/internal/process"
)

// progressParser implements process.Parser for the -progress key=value
// stream. Lines carrying the elapsed-time marker are converted into a
// 0-100 percentage; everything else is retained in a bounded run log.
type progressParser struct {
	duration   float64
	onProgress func(percent int)

	log      *ring.Ring
	logLines int
	percent  int
	lastLog  string
	lock     sync.Mutex
}

// progress 流的键只记录一次意义不大，日志里跳过这些高频键
var progressKeys = map[string]bool{
	"frame":      true,
	"fps":        true,
	"stream_0_0_q": true,
	"bitrate":    true,
	"total_size": true,
	"out_time_us": true,
	"out_time_ms": true,
	"out_time":   true,
	"dup_frames": true,
	"drop_frames": true,
	"speed":      true,
	"progress":   true,
}

func newProgressParser(duration float64, logLines int, onProgress func(percent int)) *progressParser {
	if logLines <= 0 {
		logLines = 100
	}
	return &progressParser{
		duration:   duration,
		onProgress: onProgress,
		log:        ring.New(logLines),
		logLines:   logLines,
	}
}

func (p *progressParser) Parse(line string) {
	key, value, isPair := splitPair(line)

	if isPair && key == "out_time_ms" {
		// out_time_ms 实为微秒
		us, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return
		}
		seconds := float64(us) / 1000000.0
		percent := int(seconds / p.duration * 100)
		if percent > 100 {
			percent = 100
		}

		p.lock.Lock()
		emit := percent > p.percent
		if emit {
			p.percent = percent
		}
		p.lock.Unlock()

		if emit && p.onProgress != nil {
			p.onProgress(percent)
		}
		return
	}

	if isPair && progressKeys[key] {
		return
	}

	p.lock.Lock()
	p.log.Value = process.Line{Timestamp: time.Now(), Data: line}
	p.log = p.log.Next()
	p.lastLog = line
	p.lock.Unlock()
}

// splitPair splits a diagnostic line into a key=value pair. Lines not
// matching that shape report isPair false.
func splitPair(line string) (key, value string, isPair bool) {
	parts := strings.SplitN(line, "=", 2)
	if len(parts) != 2 {
		return "", "", false
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), true
}

// Percent returns the highest percentage seen so far
func (p *progressParser) Percent() int {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.percent
}

// LastLog returns the most recent non-progress diagnostic line
func (p *progressParser) LastLog() string {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.lastLog
}

func (p *progressParser) ResetLog() {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.log = ring.New(p.logLines)
	p.lastLog = ""
}

func (p *progressParser) Log() []process.Line {
	var out []process.Line
	p.lock.Lock()
	p.log.Do(func(v interface{}) {
		if v != nil {
			out = append(out, v.(process.Line))
		}
	})
	p.lock.Unlock()
	return out
}
