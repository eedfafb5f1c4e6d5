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

package pcapgen_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/cellwatch/cellwatch/internal/clock"
	"github.com/cellwatch/cellwatch/internal/diagio"
	"github.com/cellwatch/cellwatch/internal/pcapgen"
	"github.com/google/gopacket/pcapgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chunkBytes builds an on-disk chunk: each message re-framed exactly the
// way the raw-log writer stores it.
func chunkBytes(t *testing.T, msgs []diagio.LogMessage) []byte {
	t.Helper()
	var out []byte
	for _, m := range msgs {
		itemLen := len(m.Payload) + 10
		payload := []byte{0x10, 0x01, 0x00, byte(itemLen), byte(itemLen >> 8), byte(m.Code), byte(m.Code >> 8)}
		for i := 0; i < 8; i++ {
			payload = append(payload, byte(m.Timestamp>>(8*i)))
		}
		payload = append(payload, m.Payload...)
		out = append(out, diagio.Frame(diagio.AppendCRC(payload))...)
	}
	return out
}

func measPayload(pci uint16, earfcn uint16, rawRSRP uint16) []byte {
	return []byte{
		0x01, 0x01, 0x00, 0x00,
		byte(pci), byte(pci >> 8),
		byte(earfcn), byte(earfcn >> 8),
		byte(rawRSRP), byte(rawRSRP >> 8),
	}
}

func TestViewSynthesisesGSMTAPRecords(t *testing.T) {
	t.Parallel()

	rrcPDU := []byte{0x01, 0x00} // SecurityModeCommand, EEA0
	chunk := chunkBytes(t, []diagio.LogMessage{
		{
			Code:      uint16(diagio.LogCodeLteMl1ServingMeas),
			Timestamp: 100,
			Payload:   measPayload(446, 975, 0x0B20), // -2.0 dBm
		},
		{
			Code:      uint16(diagio.LogCodeLteRRCOTA),
			Timestamp: 200,
			Payload:   append([]byte{0x01, 0x02, 0x00, 0x00}, rrcPDU...),
		},
	})

	clk := clock.New(clock.EpochQualcommBaseline, 0)
	v := pcapgen.NewView(io.NopCloser(bytes.NewReader(chunk)), clk)
	out, err := io.ReadAll(v)
	require.NoError(t, err)
	require.NoError(t, v.Close())

	r, err := pcapgo.NewReader(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, pcapgen.LinkType, r.LinkType())

	// The measurement IE has no capture representation; only the RRC
	// message becomes a record.
	data, ci, err := r.ReadPacketData()
	require.NoError(t, err)
	assert.Equal(t, len(data), ci.CaptureLength)
	assert.True(t, ci.Timestamp.Equal(clk.Time(200)))

	// IP(20) + UDP(8) headers, then the 16-byte GSMTAP header, then the
	// inner PDU.
	require.GreaterOrEqual(t, len(data), 44)
	ipudp, gsmtap, inner := data[:28], data[28:44], data[44:]

	// UDP ports hold GSMTAP's assigned 4729.
	assert.Equal(t, byte(pcapgen.GSMTAPPort>>8), ipudp[20])
	assert.Equal(t, byte(pcapgen.GSMTAPPort&0xFF), ipudp[21])

	assert.Equal(t, byte(0x02), gsmtap[0]) // version
	assert.Equal(t, byte(4), gsmtap[1])    // header length in words
	assert.Equal(t, byte(0x0D), gsmtap[2]) // LTE RRC
	// ARFCN from the cached EARFCN, signal from the cached RSRP clamped
	// to i8: -2.0 dBm -> 0xFE.
	assert.Equal(t, uint16(975), uint16(gsmtap[4])<<8|uint16(gsmtap[5]))
	assert.Equal(t, byte(0xFE), gsmtap[6])

	assert.Equal(t, rrcPDU, inner)

	_, _, err = r.ReadPacketData()
	assert.ErrorIs(t, err, io.EOF)
}

func TestViewSkipsUndecodableFrames(t *testing.T) {
	t.Parallel()

	chunk := chunkBytes(t, []diagio.LogMessage{
		{
			// Unknown header version: skipped by the demux, so no record.
			Code:      uint16(diagio.LogCodeLteRRCOTA),
			Timestamp: 1,
			Payload:   []byte{0x7F, 0x00, 0x00, 0x00},
		},
		{
			// Unregistered code: no capture representation.
			Code:      0x1234,
			Timestamp: 2,
			Payload:   []byte{0xAA},
		},
	})

	v := pcapgen.NewView(io.NopCloser(bytes.NewReader(chunk)), clock.New(clock.EpochQualcommBaseline, 0))
	out, err := io.ReadAll(v)
	require.NoError(t, err)

	r, err := pcapgo.NewReader(bytes.NewReader(out))
	require.NoError(t, err)
	_, _, err = r.ReadPacketData()
	assert.ErrorIs(t, err, io.EOF)
}

func TestViewEmptyChunkIsHeaderOnly(t *testing.T) {
	t.Parallel()
	v := pcapgen.NewView(io.NopCloser(bytes.NewReader(nil)), clock.New(clock.EpochQualcommBaseline, 0))
	out, err := io.ReadAll(v)
	require.NoError(t, err)

	// Classic pcap file header only: 24 bytes.
	assert.Len(t, out, 24)
	r, err := pcapgo.NewReader(bytes.NewReader(out))
	require.NoError(t, err)
	_, _, err = r.ReadPacketData()
	assert.ErrorIs(t, err, io.EOF)
}
