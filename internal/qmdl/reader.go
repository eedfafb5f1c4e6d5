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
	"fmt"
	"io"
	"os"
	"sync/atomic"
)

// Reader streams one chunk up to the writer's published high-water
// mark; bytes past the mark are invisible. It holds its own
// file handle -- readers are tail-followers, never sharers of the
// writer's buffer -- and any number may coexist with the writer. Read
// returns io.EOF at the high-water mark; re-opening against the same
// growing chunk resumes from the start with the then-current mark.
type Reader struct {
	f   *os.File
	hwm *atomic.Uint64
	off int64
}

func openChunkReader(path string, hwm *atomic.Uint64) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open chunk: %w", err)
	}
	return &Reader{f: f, hwm: hwm}, nil
}

func (r *Reader) Read(p []byte) (int, error) {
	limit := int64(r.hwm.Load())
	if r.off >= limit {
		return 0, io.EOF
	}
	if max := limit - r.off; int64(len(p)) > max {
		p = p[:max]
	}
	n, err := r.f.ReadAt(p, r.off)
	r.off += int64(n)
	if err == io.EOF && r.off < limit {
		// The writer published a mark past the bytes the filesystem
		// shows us; treat as a short read, not end of stream.
		err = nil
	}
	return n, err
}

func (r *Reader) Close() error {
	return r.f.Close()
}
