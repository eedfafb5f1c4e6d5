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
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cellwatch/cellwatch/internal/clock"
	"github.com/cellwatch/cellwatch/internal/config"
	"github.com/cellwatch/cellwatch/internal/diagio"
	"github.com/cellwatch/cellwatch/internal/metrics"
	"github.com/puzpuzpuz/xsync/v4"
	"go.opentelemetry.io/otel"
)

var (
	// ErrNotFound indicates no manifest entry exists for the id.
	ErrNotFound = errors.New("qmdl: recording not found")
	// ErrRecordingActive indicates StartRecording was called while a chunk is open.
	ErrRecordingActive = errors.New("qmdl: a recording is already active")
	// ErrNoActiveRecording indicates StopRecording was called with no open chunk.
	ErrNoActiveRecording = errors.New("qmdl: no active recording")
	// ErrRecordingInProgress indicates DeleteRecording targeted the open chunk.
	ErrRecordingInProgress = errors.New("qmdl: recording is in progress")
	// ErrLowDiskSpace indicates the disk-space policy refused to open a new chunk.
	ErrLowDiskSpace = errors.New("qmdl: not enough disk space to start recording")
)

// openChunk is the registry record readers resolve a live chunk through.
type openChunk struct {
	hwm *atomic.Uint64
}

// Store owns the manifest and the chunk files of one QMDL directory.
// Manifest mutations take the store's coarse exclusive lock; reads
// take a snapshot. The open-chunk registry is a lock-free concurrent map
// so short-lived reader tasks never contend with the writer path.
type Store struct {
	dir     string
	cfg     config.QMDL
	clk     *clock.Clock
	m       *metrics.Metrics
	version string

	mu       sync.Mutex
	manifest Manifest
	current  *Writer

	open      *xsync.Map[string, *openChunk]
	freeSpace freeSpaceFunc
}

// Open loads (or initialises) a store directory. Entries left in the
// "recording" state by a crashed process are marked closed-with-error:
// their bytes are intact up to the last committed frame, but the writer
// that owned them is gone.
func Open(cfg config.QMDL, clk *clock.Clock, m *metrics.Metrics, version string) (*Store, error) {
	if err := os.MkdirAll(cfg.StorePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create qmdl store directory: %w", err)
	}
	manifest, err := loadManifest(cfg.StorePath)
	if err != nil {
		return nil, err
	}

	dirty := false
	for i := range manifest.Entries {
		if manifest.Entries[i].State == StateRecording {
			manifest.Entries[i].State = StateClosedWithError
			dirty = true
		}
	}
	if manifest.CurrentID != nil {
		manifest.CurrentID = nil
		dirty = true
	}
	if dirty {
		if err := manifest.save(cfg.StorePath); err != nil {
			return nil, err
		}
	}

	return &Store{
		dir:       cfg.StorePath,
		cfg:       cfg,
		clk:       clk,
		m:         m,
		version:   version,
		manifest:  manifest,
		open:      xsync.NewMap[string, *openChunk](),
		freeSpace: statfsFreeSpace,
	}, nil
}

// chunkPath and indexPath name the on-disk files for one recording id.
func (s *Store) chunkPath(id string) string { return filepath.Join(s.dir, id+".qmdl") }
func (s *Store) indexPath(id string) string { return filepath.Join(s.dir, id+".idx") }

// ReportPath names the NDJSON analysis report for one recording id.
func (s *Store) ReportPath(id string) string { return filepath.Join(s.dir, id+".ndjson") }

// Entries returns a snapshot of the manifest.
func (s *Store) Entries() []ManifestEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ManifestEntry(nil), s.manifest.Entries...)
}

// CurrentID returns the id of the open recording, if any.
func (s *Store) CurrentID() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.manifest.CurrentID == nil {
		return "", false
	}
	return *s.manifest.CurrentID, true
}

// Entry returns a copy of one manifest entry.
func (s *Store) Entry(id string) (ManifestEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.manifest.entry(id)
	if e == nil {
		return ManifestEntry{}, ErrNotFound
	}
	return *e, nil
}

// StartRecording opens a new chunk, refusing below the
// min-space-to-start threshold. The recording id is the unix-seconds
// string of the start instant.
func (s *Store) StartRecording(ctx context.Context) (string, error) {
	_, span := otel.Tracer("cellwatch").Start(ctx, "Store.StartRecording")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil {
		return "", ErrRecordingActive
	}

	if free, err := s.freeSpace(s.dir); err == nil {
		if int64(free>>20) < s.cfg.DiskSpace.MinToStartRecordingMB {
			if s.m != nil {
				s.m.RecordDiskSpaceRefusal("start")
			}
			return "", ErrLowDiskSpace
		}
	} else {
		slog.Warn("qmdl: could not determine free disk space", "error", err)
	}

	now := s.clk.Now()
	id := strconv.FormatInt(now.Unix(), 10)
	for s.manifest.entry(id) != nil {
		// Two recordings inside one second; nudge forward.
		now = now.Add(time.Second)
		id = strconv.FormatInt(now.Unix(), 10)
	}

	chunk, err := os.OpenFile(s.chunkPath(id), os.O_CREATE|os.O_WRONLY|os.O_APPEND|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to create chunk: %w", err)
	}
	index, err := os.OpenFile(s.indexPath(id), os.O_CREATE|os.O_WRONLY|os.O_APPEND|os.O_EXCL, 0o644)
	if err != nil {
		chunk.Close()
		return "", fmt.Errorf("failed to create index: %w", err)
	}

	oc := &openChunk{hwm: &atomic.Uint64{}}
	s.current = &Writer{
		id:               id,
		chunk:            chunk,
		index:            index,
		hwm:              oc.hwm,
		start:            now,
		indexSampleBytes: s.cfg.IndexSampleBytes,
		onFrame:          s.touch,
	}
	s.open.Store(id, oc)

	s.manifest.Entries = append(s.manifest.Entries, ManifestEntry{
		ID:               id,
		StartTime:        now,
		LastMessageTime:  now,
		RayhunterVersion: s.version,
		SystemOS:         runtime.GOOS,
		Arch:             runtime.GOARCH,
		State:            StateRecording,
	})
	s.manifest.CurrentID = &id
	if err := s.manifest.save(s.dir); err != nil {
		return "", err
	}
	if s.m != nil {
		s.m.OpenChunksGauge.Inc()
	}
	slog.Info("qmdl: recording started", "id", id)
	return id, nil
}

// touch is the writer's per-frame manifest callback: last_message_time
// and size advance in memory on every frame and are persisted by
// StopRecording/rotation, so a crash costs at most one chunk's worth of
// freshness -- which crash recovery already marks closed-with-error.
func (s *Store) touch(id string, ts int64, size int64, wrote int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e := s.manifest.entry(id); e != nil {
		e.LastMessageTime = s.clk.Time(ts)
		e.SizeBytes = size
	}
	if s.m != nil {
		s.m.ChunkBytesWrittenTotal.Add(float64(wrote))
	}
}

// StopRecording closes the current chunk cleanly and freezes its
// manifest entry.
func (s *Store) StopRecording(ctx context.Context) error {
	return s.closeCurrent(ctx, StateClosed)
}

func (s *Store) closeCurrent(ctx context.Context, state RecordingState) error {
	_, span := otel.Tracer("cellwatch").Start(ctx, "Store.StopRecording")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return ErrNoActiveRecording
	}

	w := s.current
	closeErr := w.Close()
	if e := s.manifest.entry(w.id); e != nil {
		e.State = state
		if closeErr != nil {
			e.State = StateClosedWithError
		}
		e.SizeBytes = w.Size()
	}
	s.manifest.CurrentID = nil
	s.current = nil
	if s.m != nil {
		s.m.OpenChunksGauge.Dec()
	}
	if err := s.manifest.save(s.dir); err != nil {
		return errors.Join(closeErr, err)
	}
	slog.Info("qmdl: recording stopped", "id", w.id, "size_bytes", w.Size())
	return closeErr
}

// DeleteRecording removes a closed chunk, its index, and any report.
func (s *Store) DeleteRecording(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.manifest.entry(id)
	if e == nil {
		return ErrNotFound
	}
	if s.manifest.CurrentID != nil && *s.manifest.CurrentID == id {
		return ErrRecordingInProgress
	}

	for _, path := range []string{s.chunkPath(id), s.indexPath(id), s.ReportPath(id)} {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to delete recording %s: %w", id, err)
		}
	}
	s.open.Delete(id)

	entries := s.manifest.Entries[:0]
	for _, entry := range s.manifest.Entries {
		if entry.ID != id {
			entries = append(entries, entry)
		}
	}
	s.manifest.Entries = entries
	return s.manifest.save(s.dir)
}

// OpenChunkReader returns a reader over a recording's committed bytes.
// For a live chunk the reader follows the writer's high-water mark; for
// a closed chunk the mark is pinned at the file size.
func (s *Store) OpenChunkReader(id string) (io.ReadCloser, error) {
	if oc, ok := s.open.Load(id); ok {
		return openChunkReader(s.chunkPath(id), oc.hwm)
	}

	s.mu.Lock()
	e := s.manifest.entry(id)
	s.mu.Unlock()
	if e == nil {
		return nil, ErrNotFound
	}

	st, err := os.Stat(s.chunkPath(id))
	if err != nil {
		return nil, fmt.Errorf("failed to stat chunk: %w", err)
	}
	hwm := &atomic.Uint64{}
	hwm.Store(uint64(st.Size()))
	return openChunkReader(s.chunkPath(id), hwm)
}

// RunWriter is the writer task: it consumes the transport's raw
// fan-out and appends every frame to the current chunk, rotating on the
// configured size and time ceilings. Frames arriving while no recording
// is active are dropped -- recording is an operator decision, not an
// implicit side effect of traffic.
func (s *Store) RunWriter(ctx context.Context, frames <-chan diagio.RawFrame) error {
	for {
		select {
		case <-ctx.Done():
			return s.shutdownWriter(ctx)
		case f, ok := <-frames:
			if !ok {
				return s.shutdownWriter(ctx)
			}
			if err := s.writeFrame(ctx, f); err != nil {
				// Storage errors close the chunk and stop recording; the
				// transport and pipeline continue, so the writer task
				// keeps draining.
				slog.Error("qmdl: write failed, recording closed with error", "error", err)
			}
		}
	}
}

func (s *Store) writeFrame(ctx context.Context, f diagio.RawFrame) error {
	s.mu.Lock()
	w := s.current
	s.mu.Unlock()
	if w == nil {
		return nil
	}

	if err := w.WriteFrame(f); err != nil {
		if errors.Is(err, ErrWriterClosed) {
			// StopRecording raced this frame; the frame predates the stop
			// and is dropped with the recording already closed cleanly.
			return nil
		}
		return errors.Join(err, s.closeCurrent(ctx, StateClosedWithError))
	}

	if s.rotationDue(w) {
		slog.Info("qmdl: rotating chunk", "id", w.id)
		if err := s.closeCurrent(ctx, StateClosed); err != nil {
			return err
		}
		if _, err := s.StartRecording(ctx); err != nil {
			return fmt.Errorf("failed to open next chunk: %w", err)
		}
	}
	return nil
}

func (s *Store) rotationDue(w *Writer) bool {
	if s.cfg.MaxChunkSizeMB > 0 && w.Size() >= s.cfg.MaxChunkSizeMB<<20 {
		return true
	}
	if s.cfg.MaxChunkDuration > 0 && s.clk.Now().Sub(w.start) >= s.cfg.MaxChunkDuration {
		return true
	}
	return false
}

func (s *Store) shutdownWriter(ctx context.Context) error {
	err := s.closeCurrent(ctx, StateClosed)
	if errors.Is(err, ErrNoActiveRecording) {
		return nil
	}
	return err
}

// CheckDiskSpace enforces the min-space-to-continue threshold; wired to
// the process scheduler for a periodic sweep. Below the threshold the
// current recording stops cleanly and a warning surfaces upward.
func (s *Store) CheckDiskSpace(ctx context.Context) {
	s.mu.Lock()
	recording := s.current != nil
	s.mu.Unlock()
	if !recording {
		return
	}

	free, err := s.freeSpace(s.dir)
	if err != nil {
		slog.Warn("qmdl: could not determine free disk space", "error", err)
		return
	}
	if int64(free>>20) >= s.cfg.DiskSpace.MinToContinueRecordingMB {
		return
	}

	slog.Warn("qmdl: disk space below continue threshold, stopping recording",
		"free_mb", free>>20, "threshold_mb", s.cfg.DiskSpace.MinToContinueRecordingMB)
	if s.m != nil {
		s.m.RecordDiskSpaceRefusal("continue")
	}
	if err := s.StopRecording(ctx); err != nil && !errors.Is(err, ErrNoActiveRecording) {
		slog.Error("qmdl: failed to stop recording on low disk space", "error", err)
	}
}
