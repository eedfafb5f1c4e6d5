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

package bitreader_test

import (
	"testing"

	"github.com/cellwatch/cellwatch/pkg/bitreader"
	"github.com/stretchr/testify/require"
)

func TestReadBits(t *testing.T) {
	// 0b10110010 0b11110000
	r := bitreader.New([]byte{0xB2, 0xF0})

	v, err := r.ReadBits(3)
	require.NoError(t, err)
	require.Equal(t, uint64(0b101), v)

	v, err = r.ReadBits(5)
	require.NoError(t, err)
	require.Equal(t, uint64(0b10010), v)

	v, err = r.ReadBits(8)
	require.NoError(t, err)
	require.Equal(t, uint64(0xF0), v)
}

func TestReadBitSequential(t *testing.T) {
	r := bitreader.New([]byte{0x80})
	bit, err := r.ReadBit()
	require.NoError(t, err)
	require.True(t, bit)

	for i := 0; i < 7; i++ {
		bit, err = r.ReadBit()
		require.NoError(t, err)
		require.False(t, bit)
	}
}

func TestReadBitsTruncated(t *testing.T) {
	r := bitreader.New([]byte{0xFF})
	_, err := r.ReadBits(9)
	require.ErrorIs(t, err, bitreader.ErrTruncated)
}

func TestAlignAndBytePos(t *testing.T) {
	r := bitreader.New([]byte{0xFF, 0xAA})
	_, err := r.ReadBits(3)
	require.NoError(t, err)
	r.Align()
	require.Equal(t, 1, r.BytePos())

	b, err := r.ReadByte()
	require.NoError(t, err)
	require.Equal(t, byte(0xAA), b)
}

func TestLen(t *testing.T) {
	r := bitreader.New([]byte{0x00, 0x00})
	require.Equal(t, 16, r.Len())
	_, err := r.ReadBits(10)
	require.NoError(t, err)
	require.Equal(t, 6, r.Len())
}
