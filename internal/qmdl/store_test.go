// SPDX-License-Identifier: AGPL-3.0-or-later
// cellwatch - on-device cellular traffic observer and IMSI-catcher detector
// Copyright (C) 2026 cellwatch contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// The source code is available at <https://github.com/cellwatch/cellwatch>

package qmdl

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/cellwatch/cellwatch/internal/clock"
	"github.com/cellwatch/cellwatch/internal/config"
	"github.com/cellwatch/cellwatch/internal/diagio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	cfg := config.Default().QMDL
	cfg.StorePath = t.TempDir()
	cfg.IndexSampleBytes = 1 // sample the index on every frame

	s, err := Open(cfg, clock.New(clock.EpochQualcommBaseline, 0), nil, "test")
	require.NoError(t, err)
	s.freeSpace = func(string) (uint64, error) { return 1 << 40, nil }
	return s
}

// logFrame builds the verified payload of a one-message log container.
func logFrame(t *testing.T, ts int64, body ...byte) diagio.RawFrame {
	t.Helper()
	itemLen := len(body) + 10
	payload := []byte{0x10, 0x01, 0x00, byte(itemLen), byte(itemLen >> 8), 0xC0, 0xB0}
	for i := 0; i < 8; i++ {
		payload = append(payload, byte(ts>>(8*i)))
	}
	payload = append(payload, body...)
	return diagio.RawFrame{Payload: payload, Timestamp: ts}
}

func currentWriter(t *testing.T, s *Store) *Writer {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	require.NotNil(t, s.current)
	return s.current
}

func TestStartStopRecordingLifecycle(t *testing.T) {
	t.Parallel()
	s := testStore(t)
	ctx := context.Background()

	id, err := s.StartRecording(ctx)
	require.NoError(t, err)

	_, active := s.CurrentID()
	assert.True(t, active)
	_, err = s.StartRecording(ctx)
	assert.ErrorIs(t, err, ErrRecordingActive)

	w := currentWriter(t, s)
	require.NoError(t, w.WriteFrame(logFrame(t, 100, 0xAA)))

	require.NoError(t, s.StopRecording(ctx))
	_, active = s.CurrentID()
	assert.False(t, active)

	e, err := s.Entry(id)
	require.NoError(t, err)
	assert.Equal(t, StateClosed, e.State)
	assert.Positive(t, e.SizeBytes)

	assert.ErrorIs(t, s.StopRecording(ctx), ErrNoActiveRecording)
}

func TestStartRecordingRefusedOnLowDiskSpace(t *testing.T) {
	t.Parallel()
	s := testStore(t)
	s.freeSpace = func(string) (uint64, error) { return 1 << 20, nil } // 1 MB free

	_, err := s.StartRecording(context.Background())
	assert.ErrorIs(t, err, ErrLowDiskSpace)
}

func TestCheckDiskSpaceStopsRecording(t *testing.T) {
	t.Parallel()
	s := testStore(t)
	ctx := context.Background()

	_, err := s.StartRecording(ctx)
	require.NoError(t, err)

	s.freeSpace = func(string) (uint64, error) { return 1 << 20, nil }
	s.CheckDiskSpace(ctx)

	_, active := s.CurrentID()
	assert.False(t, active)
}

// A reader over a still-open chunk sees a strict prefix of the writer's
// committed bytes, ending on a frame boundary.
func TestWriterReaderNonInterference(t *testing.T) {
	t.Parallel()
	s := testStore(t)
	ctx := context.Background()

	id, err := s.StartRecording(ctx)
	require.NoError(t, err)
	w := currentWriter(t, s)

	require.NoError(t, w.WriteFrame(logFrame(t, 1, 0x01)))
	require.NoError(t, w.WriteFrame(logFrame(t, 2, 0x02)))

	r, err := s.OpenChunkReader(id)
	require.NoError(t, err)
	defer r.Close()

	first, err := io.ReadAll(r)
	require.NoError(t, err)

	// Everything committed so far parses back as whole frames.
	sc := NewFrameScanner(bytes.NewReader(first))
	var seen []int64
	for {
		msgs, err := sc.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		seen = append(seen, msgs[0].Timestamp)
	}
	assert.Equal(t, []int64{1, 2}, seen)

	// More frames land after the first read; the same reader (already at
	// EOF against the old mark) picks up exactly the new committed bytes.
	require.NoError(t, w.WriteFrame(logFrame(t, 3, 0x03)))
	rest, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.NotEmpty(t, rest)

	sc = NewFrameScanner(bytes.NewReader(append(first, rest...)))
	seen = nil
	for {
		msgs, err := sc.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		seen = append(seen, msgs[0].Timestamp)
	}
	assert.Equal(t, []int64{1, 2, 3}, seen)

	require.NoError(t, s.StopRecording(ctx))
}

func TestDeleteRecording(t *testing.T) {
	t.Parallel()
	s := testStore(t)
	ctx := context.Background()

	id, err := s.StartRecording(ctx)
	require.NoError(t, err)

	assert.ErrorIs(t, s.DeleteRecording(id), ErrRecordingInProgress)
	require.NoError(t, s.StopRecording(ctx))

	require.NoError(t, s.DeleteRecording(id))
	_, err = s.Entry(id)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.DeleteRecording(id), ErrNotFound)
}

func TestOpenMarksCrashedRecordingsClosed(t *testing.T) {
	t.Parallel()
	cfg := config.Default().QMDL
	cfg.StorePath = t.TempDir()
	clk := clock.New(clock.EpochQualcommBaseline, 0)

	s, err := Open(cfg, clk, nil, "test")
	require.NoError(t, err)
	s.freeSpace = func(string) (uint64, error) { return 1 << 40, nil }

	id, err := s.StartRecording(context.Background())
	require.NoError(t, err)

	// Simulate a crash: reopen the same directory without stopping.
	s2, err := Open(cfg, clk, nil, "test")
	require.NoError(t, err)

	e, err := s2.Entry(id)
	require.NoError(t, err)
	assert.Equal(t, StateClosedWithError, e.State)
	_, active := s2.CurrentID()
	assert.False(t, active)
}

func TestRunWriterRotatesOnSizeCeiling(t *testing.T) {
	t.Parallel()
	cfg := config.Default().QMDL
	cfg.StorePath = t.TempDir()
	cfg.MaxChunkSizeMB = 1
	cfg.IndexSampleBytes = 1 << 16

	s, err := Open(cfg, clock.New(clock.EpochQualcommBaseline, 0), nil, "test")
	require.NoError(t, err)
	s.freeSpace = func(string) (uint64, error) { return 1 << 40, nil }

	ctx, cancel := context.WithCancel(context.Background())
	first, err := s.StartRecording(ctx)
	require.NoError(t, err)

	frames := make(chan diagio.RawFrame, 16)
	done := make(chan error, 1)
	go func() { done <- s.RunWriter(ctx, frames) }()

	// ~1.5 MB of frames forces at least one rotation past the 1 MB cap.
	body := make([]byte, 32<<10)
	for i := int64(1); i <= 48; i++ {
		frames <- logFrame(t, i, body...)
	}
	require.Eventually(t, func() bool {
		id, active := s.CurrentID()
		return active && id != first
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	e, err := s.Entry(first)
	require.NoError(t, err)
	assert.Equal(t, StateClosed, e.State)
}

