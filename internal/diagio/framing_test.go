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

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// For any byte sequence b, unframe(frame(b)) == b and CRC verification
// passes.
func TestFramingRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", []byte{}},
		{"no special bytes", []byte{0x01, 0x02, 0x03}},
		{"contains terminator", []byte{0x01, frameTerminator, 0x03}},
		{"contains escape", []byte{0x01, frameEscape, 0x03}},
		{"contains both", []byte{frameEscape, frameTerminator, frameEscape, frameEscape}},
		{"all terminators", []byte{frameTerminator, frameTerminator, frameTerminator}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withCRC := AppendCRC(append([]byte(nil), tt.data...))
			wire := Frame(withCRC)

			require.Equal(t, frameTerminator, wire[len(wire)-1])
			escaped := wire[:len(wire)-1]

			unescaped, err := Unescape(escaped)
			require.NoError(t, err)

			payload, ok := VerifyCRC(unescaped)
			require.True(t, ok)
			require.Equal(t, tt.data, payload)
		})
	}
}

// The unescaper must reject 0x7D not followed by 0x5D|0x5E.
func TestUnescapeRejectsDanglingEscape(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"trailing escape", []byte{0x01, frameEscape}},
		{"escape followed by arbitrary byte", []byte{frameEscape, 0x00}},
		{"escape followed by another escape marker", []byte{frameEscape, frameEscape, frameEscape}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Unescape(tt.data)
			require.ErrorIs(t, err, ErrInvalidEscape)
		})
	}
}

func TestVerifyCRCDetectsCorruption(t *testing.T) {
	payload := []byte("hello world")
	withCRC := AppendCRC(append([]byte(nil), payload...))
	withCRC[0] ^= 0xFF // corrupt the payload, leaving the trailer intact

	_, ok := VerifyCRC(withCRC)
	require.False(t, ok)
}

func TestVerifyCRCTooShort(t *testing.T) {
	_, ok := VerifyCRC([]byte{0x01})
	require.False(t, ok)
}
