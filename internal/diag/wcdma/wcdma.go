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

// Package wcdma decodes WCDMA (TS 25.331) RRC signalling log payloads.
// No built-in analyzer inspects WCDMA traffic today, so unlike
// internal/diag/lte this decoder only strips the fixed-format header and
// hands back the opaque PDU -- still following the same per-version
// header-layout table shape so a future analyzer can be added without
// touching the demultiplexer.
package wcdma

import "errors"

// ErrUnknownHeaderVersion is returned when the payload's header version
// byte isn't in headerLayouts.
var ErrUnknownHeaderVersion = errors.New("wcdma: unknown header version")

// ErrTruncatedHeader is returned when the payload is shorter than the
// header layout it claims to use.
var ErrTruncatedHeader = errors.New("wcdma: truncated header")

type headerLayout struct {
	headerLen int
	pduOffset int
}

// headerLayouts mirrors internal/diag/lte's per-firmware-version table;
// WCDMA RRC OTA records carry no distinguished channel byte the built-in
// analyzers need, so only pduOffset is tracked.
var headerLayouts = map[byte]headerLayout{
	0x01: {headerLen: 3, pduOffset: 3},
	0x02: {headerLen: 4, pduOffset: 4},
}

// Decode extracts the RRC PDU from a WCDMA RRC OTA log payload.
// payload[0] is the header version.
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
