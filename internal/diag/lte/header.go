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

// Package lte decodes LTE RRC (TS 36.331) and NAS EMM (TS 24.301)
// over-the-air log payloads into the handful of fields the built-in
// analyzers need: channel type, PER-framed message type, and the
// specific per-message fields (identity type, ciphering algorithm,
// redirect target, SIB scheduling/priority lists). No suitable ASN.1 PER
// decoder exists for these message sets, so the extractions are
// hand-written with pkg/bitreader.
package lte

import "errors"

// ErrUnknownHeaderVersion is returned when the payload's header version
// byte isn't in headerLayouts.
var ErrUnknownHeaderVersion = errors.New("lte: unknown header version")

// ErrTruncatedHeader is returned when the payload is shorter than the
// header layout it claims to use.
var ErrTruncatedHeader = errors.New("lte: truncated header")

// headerLayout is a (header_len, channel_offset, pdu_offset) triple,
// keyed by the firmware-specific header version byte.
type headerLayout struct {
	headerLen     int
	channelOffset int
	pduOffset     int
}

// headerLayouts enumerates every modem firmware header layout this
// decoder supports. Versions not listed here yield
// ErrUnknownHeaderVersion rather than a guessed layout; the caller
// records a skip reason instead of aborting.
var headerLayouts = map[byte]headerLayout{
	0x01: {headerLen: 4, channelOffset: 1, pduOffset: 4},
	0x02: {headerLen: 6, channelOffset: 1, pduOffset: 6},
}

// Header is the result of decoding a log payload's fixed-format header.
type Header struct {
	Channel byte
	PDU     []byte
}

// DecodeHeader extracts the channel byte and PDU slice from payload,
// using the per-version layout table. payload[0] is the header version.
func DecodeHeader(payload []byte) (Header, error) {
	if len(payload) < 1 {
		return Header{}, ErrTruncatedHeader
	}
	layout, ok := headerLayouts[payload[0]]
	if !ok {
		return Header{}, ErrUnknownHeaderVersion
	}
	if len(payload) < layout.headerLen {
		return Header{}, ErrTruncatedHeader
	}
	return Header{
		Channel: payload[layout.channelOffset],
		PDU:     payload[layout.pduOffset:],
	}, nil
}
