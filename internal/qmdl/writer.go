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
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cellwatch/cellwatch/internal/diagio"
)

// ErrWriterClosed is returned from WriteFrame after Close.
var ErrWriterClosed = errors.New("qmdl: writer closed")

// Writer appends frames to one chunk; each chunk has exactly one. It
// never rewrites or truncates; the published high-water mark advances
// only after a whole frame has been written, so tail-following readers
// never observe torn frames.
type Writer struct {
	id    string
	chunk *os.File
	index *os.File
	hwm   *atomic.Uint64
	start time.Time

	mu              sync.Mutex
	closed          bool
	size            int64
	bytesSinceIndex int64
	lastIndexAt     time.Time

	indexSampleBytes int64
	onFrame          func(id string, ts int64, size int64, wrote int)
}

// indexSampleInterval is the wall-clock half of the index cadence: one
// sample per N bytes or per second, whichever comes first.
const indexSampleInterval = time.Second

// WriteFrame re-frames one verified payload and appends it to the chunk,
// advancing the high-water mark at the frame boundary and sampling the
// index at the configured cadence. The write+index sequence holds the
// writer's append lock for the whole frame write + index update.
func (w *Writer) WriteFrame(f diagio.RawFrame) error {
	size, wrote, err := w.appendLocked(f)
	if err != nil {
		return err
	}
	// The manifest callback runs outside the append lock: it takes the
	// store's manifest lock, which is also held around Writer.Close.
	if w.onFrame != nil {
		w.onFrame(w.id, f.Timestamp, size, wrote)
	}
	return nil
}

func (w *Writer) appendLocked(f diagio.RawFrame) (size int64, wrote int, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return 0, 0, ErrWriterClosed
	}

	framed := diagio.Frame(diagio.AppendCRC(append([]byte(nil), f.Payload...)))
	offset := w.size
	n, err := w.chunk.Write(framed)
	if err != nil {
		// A partial append leaves bytes past the high-water mark; they
		// are invisible to every reader and harmless to a future scan.
		return 0, 0, fmt.Errorf("failed to append frame: %w", err)
	}
	w.size += int64(n)
	w.bytesSinceIndex += int64(n)
	w.hwm.Store(uint64(w.size))

	now := time.Now()
	if w.bytesSinceIndex >= w.indexSampleBytes || now.Sub(w.lastIndexAt) >= indexSampleInterval {
		entry := IndexEntry{Offset: uint64(offset), TS: uint64(f.Timestamp)}.marshal()
		if _, err := w.index.Write(entry[:]); err != nil {
			return 0, 0, fmt.Errorf("failed to append index entry: %w", err)
		}
		w.bytesSinceIndex = 0
		w.lastIndexAt = now
	}
	return w.size, n, nil
}

// Size is the committed chunk size in bytes.
func (w *Writer) Size() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.size
}

// Close fsyncs and closes the chunk and index files. It is safe to call
// more than once.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true

	var errs []error
	if err := w.chunk.Sync(); err != nil {
		errs = append(errs, fmt.Errorf("failed to sync chunk: %w", err))
	}
	if err := w.chunk.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close chunk: %w", err))
	}
	if err := w.index.Sync(); err != nil {
		errs = append(errs, fmt.Errorf("failed to sync index: %w", err))
	}
	if err := w.index.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close index: %w", err))
	}
	return errors.Join(errs...)
}
