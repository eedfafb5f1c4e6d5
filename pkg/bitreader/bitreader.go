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

// Package bitreader is a small MSB-first bit cursor over a byte slice, used
// by the PER-framed decoders in internal/diag/lte to pull
// individual fields out of a 3GPP ASN.1 PER-encoded octet string.
package bitreader

import "errors"

// ErrTruncated is returned when a read runs past the end of the backing
// byte slice.
var ErrTruncated = errors.New("bitreader: truncated input")

// Reader is a MSB-first bit cursor, the bit-level analogue of the manual
// byte shift-and-mask used for fixed headers elsewhere in this codebase.
type Reader struct {
	data   []byte
	bitPos int
}

// New returns a Reader positioned at the first bit of data.
func New(data []byte) *Reader {
	return &Reader{data: data}
}

// Len returns the number of bits remaining.
func (r *Reader) Len() int {
	remaining := len(r.data)*8 - r.bitPos
	if remaining < 0 {
		return 0
	}
	return remaining
}

// ReadBit reads a single bit.
func (r *Reader) ReadBit() (bool, error) {
	byteIdx := r.bitPos / 8
	if byteIdx >= len(r.data) {
		return false, ErrTruncated
	}
	shift := 7 - uint(r.bitPos%8)
	bit := (r.data[byteIdx]>>shift)&0x1 == 1
	r.bitPos++
	return bit, nil
}

// ReadBits reads n bits (0 <= n <= 64), MSB first, and returns them
// right-aligned in the returned uint64.
func (r *Reader) ReadBits(n int) (uint64, error) {
	if n < 0 || n > 64 {
		return 0, errors.New("bitreader: n out of range")
	}
	if r.Len() < n {
		return 0, ErrTruncated
	}
	var v uint64
	for i := 0; i < n; i++ {
		bit, err := r.ReadBit()
		if err != nil {
			return 0, err
		}
		v <<= 1
		if bit {
			v |= 1
		}
	}
	return v, nil
}

// ReadByte reads the next byte-aligned byte. Callers must Align() first if
// the cursor isn't already on a byte boundary.
func (r *Reader) ReadByte() (byte, error) {
	v, err := r.ReadBits(8)
	return byte(v), err
}

// Align advances the cursor to the next byte boundary.
func (r *Reader) Align() {
	if rem := r.bitPos % 8; rem != 0 {
		r.bitPos += 8 - rem
	}
}

// BytePos returns the current byte-aligned offset, valid only if the
// cursor is currently aligned.
func (r *Reader) BytePos() int {
	return r.bitPos / 8
}
