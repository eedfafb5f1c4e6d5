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

func buildContainer(t *testing.T, msgs []LogMessage) []byte {
	t.Helper()
	payload := []byte{logOpcode, byte(len(msgs)), byte(len(msgs) >> 8)}
	for _, m := range msgs {
		item := make([]byte, 0, 10+len(m.Payload))
		item = append(item, byte(m.Code), byte(m.Code>>8))
		for b := 0; b < 8; b++ {
			item = append(item, byte(m.Timestamp>>(8*b)))
		}
		item = append(item, m.Payload...)
		payload = append(payload, byte(len(item)), byte(len(item)>>8))
		payload = append(payload, item...)
	}
	return payload
}

func TestParseLogContainerRoundTrip(t *testing.T) {
	want := []LogMessage{
		{Code: 0xB0C0, Timestamp: 123456, Payload: []byte{0x01, 0x02, 0x03}},
		{Code: 0x11EB, Timestamp: 123999, Payload: []byte{}},
	}
	got, err := ParseLogContainer(buildContainer(t, want))
	require.NoError(t, err)
	require.Len(t, got, len(want))
	for i := range want {
		require.Equal(t, want[i].Code, got[i].Code)
		require.Equal(t, want[i].Timestamp, got[i].Timestamp)
		require.Equal(t, want[i].Payload, got[i].Payload)
	}
}

func TestParseLogContainerNotALogFrame(t *testing.T) {
	got, err := ParseLogContainer([]byte{0x99, 0x00, 0x00})
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestParseLogContainerTruncated(t *testing.T) {
	full := buildContainer(t, []LogMessage{{Code: 1, Timestamp: 1, Payload: []byte{0xAA, 0xBB}}})
	_, err := ParseLogContainer(full[:len(full)-1])
	require.ErrorIs(t, err, ErrTruncatedContainer)
}
