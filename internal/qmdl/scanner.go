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
	"bufio"
	"io"

	"github.com/cellwatch/cellwatch/internal/diagio"
)

// FrameScanner re-parses a chunk stream: the on-disk format is the same
// terminator-delimited, escaped, CRC-trailed framing as the wire, so any
// consumer -- the PCAP view, a re-analysis, an index rebuild -- walks it
// with the transport's own unframing primitives.
type FrameScanner struct {
	br         *bufio.Reader
	offset     int64
	lastOffset int64
}

// NewFrameScanner wraps r, which must be positioned at a frame boundary.
func NewFrameScanner(r io.Reader) *FrameScanner {
	return &FrameScanner{br: bufio.NewReaderSize(r, 1<<16)}
}

// LastFrameOffset is the byte offset of the frame the most recent Next
// call returned.
func (s *FrameScanner) LastFrameOffset() int64 {
	return s.lastOffset
}

// Next returns the log messages of the next frame. Frames that fail
// unescaping or CRC verification are skipped, mirroring the transport's
// recoverable-error policy; io.EOF signals a clean end of the committed
// bytes.
func (s *FrameScanner) Next() ([]diagio.LogMessage, error) {
	for {
		start := s.offset
		raw, err := s.br.ReadBytes(0x7E)
		if err != nil {
			if err == io.EOF && len(raw) == 0 {
				return nil, io.EOF
			}
			if err == io.EOF {
				// A trailing partial frame: the writer advances its
				// high-water mark only at frame boundaries, so this is
				// end-of-stream, not corruption.
				return nil, io.EOF
			}
			return nil, err
		}
		s.offset += int64(len(raw))

		unescaped, err := diagio.Unescape(raw[:len(raw)-1])
		if err != nil {
			continue
		}
		payload, ok := diagio.VerifyCRC(unescaped)
		if !ok {
			continue
		}
		msgs, err := diagio.ParseLogContainer(payload)
		if err != nil || len(msgs) == 0 {
			continue
		}
		s.lastOffset = start
		return msgs, nil
	}
}
