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

// Package gsm decodes GSM RR signalling log payloads. As with
// internal/diag/wcdma, no built-in analyzer inspects GSM traffic today;
// a 2G cell is only ever an *indicator* a GSMRR IE records as opaque
// bytes, because the built-in downgrade heuristics look for the
// LTE/WCDMA side redirecting *to* GERAN, not for GSM RR content itself.
package gsm

import "errors"

// ErrUnknownHeaderVersion is returned when the payload's header version
// byte isn't in headerLayouts.
var ErrUnknownHeaderVersion = errors.New("gsm: unknown header version")

// ErrTruncatedHeader is returned when the payload is shorter than the
// header layout it claims to use.
var ErrTruncatedHeader = errors.New("gsm: truncated header")

type headerLayout struct {
	headerLen int
	pduOffset int
}

var headerLayouts = map[byte]headerLayout{
	0x01: {headerLen: 2, pduOffset: 2},
}

// Decode extracts the RR PDU from a GSM RR log payload. payload[0] is the
// header version.
func Decode(payload []byte) ([]byte, error) {
	if len(payload) < 1 {
		return nil, ErrTruncatedHeader
	}
	layout, ok := headerLayouts[payload[0]]
	if !ok {
		return nil, ErrUnknownHeaderVersion
	}
	if len(payload) < layout.headerLen {
		return nil, ErrTruncatedHeader
	}
	return payload[layout.pduOffset:], nil
}
