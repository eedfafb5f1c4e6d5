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
	"io"
	"os"
)

// IndexEntry is one sample point of the sparse byte-offset to timestamp
// seek table: a little-endian u64 pair per record.
type IndexEntry struct {
	Offset uint64
	TS     uint64
}

const indexEntrySize = 16

func (e IndexEntry) marshal() [indexEntrySize]byte {
	var b [indexEntrySize]byte
	for i := 0; i < 8; i++ {
		b[i] = byte(e.Offset >> (8 * i))
		b[8+i] = byte(e.TS >> (8 * i))
	}
	return b
}

func unmarshalIndexEntry(b []byte) IndexEntry {
	var e IndexEntry
	for i := 0; i < 8; i++ {
		e.Offset |= uint64(b[i]) << (8 * i)
		e.TS |= uint64(b[8+i]) << (8 * i)
	}
	return e
}

// ErrCorruptIndex indicates the index file's size is not a whole number
// of records; the caller recovers by rebuilding from a chunk scan.
var ErrCorruptIndex = errors.New("qmdl: corrupt index file")

// ReadIndex loads a chunk's seek table.
func ReadIndex(path string) ([]IndexEntry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read index: %w", err)
	}
	if len(raw)%indexEntrySize != 0 {
		return nil, ErrCorruptIndex
	}
	entries := make([]IndexEntry, 0, len(raw)/indexEntrySize)
	for off := 0; off < len(raw); off += indexEntrySize {
		entries = append(entries, unmarshalIndexEntry(raw[off:off+indexEntrySize]))
	}
	return entries, nil
}

// RebuildIndex recovers a chunk's seek table by a full scan: every
// frame boundary becomes an entry, which is denser than
// the writer's sampled cadence but satisfies the same monotonicity
// contract.
func RebuildIndex(chunkPath string) ([]IndexEntry, error) {
	f, err := os.Open(chunkPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open chunk for index rebuild: %w", err)
	}
	defer f.Close()

	var entries []IndexEntry
	sc := NewFrameScanner(f)
	for {
		msgs, err := sc.Next()
		if errors.Is(err, io.EOF) {
			return entries, nil
		}
		if err != nil {
			return nil, err
		}
		entries = append(entries, IndexEntry{
			Offset: uint64(sc.LastFrameOffset()),
			TS:     uint64(msgs[0].Timestamp),
		})
	}
}
