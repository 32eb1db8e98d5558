// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaConv - 媒体文件格式转换服务

package process

import (
	"bufio"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scanAll(t *testing.T, input string) []string {
	t.Helper()

	scanner := bufio.NewScanner(strings.NewReader(input))
	scanner.Split(scanLine)

	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	require.NoError(t, scanner.Err())
	return lines
}

func TestScanLineNewlines(t *testing.T) {
	lines := scanAll(t, "one\ntwo\nthree\n")
	assert.Equal(t, []string{"one", "two", "three"}, lines)
}

func TestScanLineCarriageReturns(t *testing.T) {
	// FFmpeg rewrites its stats line with \r instead of \n
	lines := scanAll(t, "frame=1\rframe=2\rframe=3\n")
	assert.Equal(t, []string{"frame=1", "frame=2", "frame=3"}, lines)
}

func TestScanLineMixed(t *testing.T) {
	lines := scanAll(t, "header\nframe=1\r\nframe=2\rtail")
	assert.Equal(t, []string{"header", "frame=1", "frame=2", "tail"}, lines)
}

func TestScanLineSkipsEmptyLines(t *testing.T) {
	lines := scanAll(t, "\n\r\none\n\n\ntwo")
	assert.Equal(t, []string{"one", "two"}, lines)
}

func TestNewRequiresBinary(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)

	p, err := New(Config{Binary: "ffmpeg"})
	require.NoError(t, err)
	assert.Equal(t, StateCreated, p.Status().State)
	assert.False(t, p.IsRunning())
}

func TestStateTransitions(t *testing.T) {
	newProc := func(t *testing.T) *process {
		proc, err := New(Config{Binary: "ffmpeg"})
		require.NoError(t, err)
		return proc.(*process)
	}

	t.Run("normal run", func(t *testing.T) {
		p := newProc(t)
		require.NoError(t, p.setState(StateStarting))
		require.NoError(t, p.setState(StateRunning))
		require.NoError(t, p.setState(StateFinished))
	})

	t.Run("failed start", func(t *testing.T) {
		p := newProc(t)
		require.NoError(t, p.setState(StateStarting))
		require.NoError(t, p.setState(StateFailed))
	})

	t.Run("stop while running", func(t *testing.T) {
		p := newProc(t)
		require.NoError(t, p.setState(StateStarting))
		require.NoError(t, p.setState(StateRunning))
		require.NoError(t, p.setState(StateFinishing))
		require.NoError(t, p.setState(StateKilled))
	})

	t.Run("terminal states are final", func(t *testing.T) {
		p := newProc(t)
		require.NoError(t, p.setState(StateStarting))
		require.NoError(t, p.setState(StateRunning))
		require.NoError(t, p.setState(StateFinished))
		assert.Error(t, p.setState(StateStarting))
		assert.Error(t, p.setState(StateRunning))
	})

	t.Run("cannot skip starting", func(t *testing.T) {
		p := newProc(t)
		assert.Error(t, p.setState(StateRunning))
		assert.Error(t, p.setState(StateFinished))
	})
}

func TestStateChangeCallback(t *testing.T) {
	var changes [][2]string
	proc, err := New(Config{
		Binary: "ffmpeg",
		OnStateChange: func(from, to string) {
			changes = append(changes, [2]string{from, to})
		},
	})
	require.NoError(t, err)
	p := proc.(*process)

	require.NoError(t, p.setState(StateStarting))
	require.NoError(t, p.setState(StateRunning))
	require.NoError(t, p.setState(StateFinished))

	assert.Equal(t, [][2]string{
		{StateCreated, StateStarting},
		{StateStarting, StateRunning},
		{StateRunning, StateFinished},
	}, changes)
}
