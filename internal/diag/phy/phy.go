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

// Package phy decodes the physical-layer serving-cell measurement
// record: a (main_version, subpacket_version)-keyed field-offset table
// for PCI, EARFCN, and the raw 12-bit RSRP code. Unknown version pairs
// fall back to the most conservative layout rather than failing; the
// measurement feed is best-effort context for the analyzers, not a
// correctness-critical decode.
package phy

import "errors"

// ErrTruncated is returned when the payload is shorter than the layout's
// highest field offset requires.
var ErrTruncated = errors.New("phy: truncated measurement record")

// Measurement is one decoded serving-cell measurement.
type Measurement struct {
	PCI     uint16
	EARFCN  uint32
	RSRPDBm float64
}

// layout is the field-offset table for one (main, subpacket) version
// pair. EARFCN widened from u16 to u32 between firmware generations, so
// the width is part of the layout.
type layout struct {
	pciOffset    int
	earfcnOffset int
	earfcnWidth  int
	rsrpOffset   int
}

type versionKey struct {
	main      byte
	subpacket byte
}

// layouts enumerates the supported version pairs. The v1 layout is the
// oldest and shortest; it doubles as the conservative fallback for
// version pairs not listed here.
var layouts = map[versionKey]layout{
	{main: 0x01, subpacket: 0x01}: {pciOffset: 4, earfcnOffset: 6, earfcnWidth: 2, rsrpOffset: 8},
	{main: 0x02, subpacket: 0x01}: {pciOffset: 4, earfcnOffset: 6, earfcnWidth: 4, rsrpOffset: 10},
	{main: 0x02, subpacket: 0x02}: {pciOffset: 8, earfcnOffset: 10, earfcnWidth: 4, rsrpOffset: 14},
}

var conservativeLayout = layouts[versionKey{main: 0x01, subpacket: 0x01}]

// RSRPDBm converts the raw 12-bit RSRP code to dBm. Full float64
// precision is retained here; clamping to an 8-bit signed range happens
// only at the GSMTAP export boundary.
func RSRPDBm(raw uint16) float64 {
	return -180.0 + float64(raw&0x0FFF)*0.0625
}

// Decode parses a serving-cell measurement payload. payload[0] is the
// main version and payload[1] the subpacket version.
func Decode(payload []byte) (Measurement, error) {
	if len(payload) < 2 {
		return Measurement{}, ErrTruncated
	}
	l, ok := layouts[versionKey{main: payload[0], subpacket: payload[1]}]
	if !ok {
		l = conservativeLayout
	}
	if len(payload) < l.rsrpOffset+2 {
		return Measurement{}, ErrTruncated
	}

	m := Measurement{
		PCI: uint16(payload[l.pciOffset]) | uint16(payload[l.pciOffset+1])<<8,
	}
	switch l.earfcnWidth {
	case 2:
		m.EARFCN = uint32(payload[l.earfcnOffset]) | uint32(payload[l.earfcnOffset+1])<<8
	case 4:
		m.EARFCN = uint32(payload[l.earfcnOffset]) |
			uint32(payload[l.earfcnOffset+1])<<8 |
			uint32(payload[l.earfcnOffset+2])<<16 |
			uint32(payload[l.earfcnOffset+3])<<24
	}
	raw := uint16(payload[l.rsrpOffset]) | uint16(payload[l.rsrpOffset+1])<<8
	m.RSRPDBm = RSRPDBm(raw)
	return m, nil
}
