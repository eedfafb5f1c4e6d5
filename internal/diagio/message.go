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

package diagio

import "errors"

// logOpcode is the diag command code a frame's payload must lead with
// to be a log container: a message count followed by per-message
// length/code/timestamp headers.
const logOpcode byte = 0x10

// ErrTruncatedContainer is a Transport-recoverable error: a frame claimed
// to be a log container but was shorter than its own declared sub-message
// headers.
var ErrTruncatedContainer = errors.New("diagio: truncated log container")

// LogMessage is one decoded diagnostic record: a 16-bit log code, an
// absolute baseband-tick timestamp, and an opaque payload. Flows through
// the demultiplexer exactly once.
type LogMessage struct {
	Code      uint16
	Timestamp int64 // raw 1.25ms baseband ticks
	Payload   []byte
}

// ParseLogContainer splits one CRC-verified, unescaped frame payload into
// the LogMessages it bundles. A payload whose leading opcode isn't
// logOpcode yields (nil, nil): not every frame on the wire is a log
// container (control-dialog acknowledgements share the same framing), and
// that's not an error at this layer.
func ParseLogContainer(payload []byte) ([]LogMessage, error) {
	if len(payload) < 1 || payload[0] != logOpcode {
		return nil, nil
	}
	if len(payload) < 3 {
		return nil, ErrTruncatedContainer
	}
	count := int(payload[1]) | int(payload[2])<<8
	off := 3
	msgs := make([]LogMessage, 0, count)
	const subHeaderLen = 12 // length(2) + code(2) + timestamp(8)
	for i := 0; i < count; i++ {
		if len(payload)-off < 2 {
			return nil, ErrTruncatedContainer
		}
		itemLen := int(payload[off]) | int(payload[off+1])<<8
		off += 2
		if itemLen < subHeaderLen-2 || len(payload)-off < itemLen {
			return nil, ErrTruncatedContainer
		}
		code := uint16(payload[off]) | uint16(payload[off+1])<<8
		ts := int64(0)
		for b := 0; b < 8; b++ {
			ts |= int64(payload[off+2+b]) << (8 * b)
		}
		payloadStart := off + 10
		payloadEnd := off + itemLen
		msgs = append(msgs, LogMessage{
			Code:      code,
			Timestamp: ts,
			Payload:   append(make([]byte, 0, payloadEnd-payloadStart), payload[payloadStart:payloadEnd]...),
		})
		off += itemLen
	}
	return msgs, nil
}
