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

// Package pcapgen synthesises the packet-capture view: each recognised
// IE's inner PDU wrapped in a GSMTAP header, behind an
// IP/UDP placeholder, in a classic pcap stream. gopacket serialises the
// IP/UDP layers; the GSMTAP header has no gopacket layer in the
// ecosystem, so it is packed by hand right after them.
package pcapgen

import (
	"encoding/binary"

	"github.com/cellwatch/cellwatch/internal/diag"
)

// GSMTAPPort is GSMTAP's assigned UDP port.
const GSMTAPPort = 4729

const (
	gsmtapVersion   = 0x02
	gsmtapHeaderLen = 16 // bytes; encoded on the wire in 32-bit words
)

// GSMTAP payload types.
const (
	gsmtapTypeUM      = 0x01
	gsmtapTypeUMTSRRC = 0x0C
	gsmtapTypeLTERRC  = 0x0D
	gsmtapTypeLTENAS  = 0x12
)

// GSMTAP LTE RRC subtypes (channel of the inner message).
const (
	gsmtapLTERRCSubDLDCCH    = 0x00
	gsmtapLTERRCSubULDCCH    = 0x01
	gsmtapLTERRCSubDLCCCH    = 0x02
	gsmtapLTERRCSubULCCCH    = 0x03
	gsmtapLTERRCSubPCCH      = 0x04
	gsmtapLTERRCSubBCCHDLSCH = 0x05
)

// gsmtapHeader is the fixed 16-byte GSMTAP v2 header.
type gsmtapHeader struct {
	payloadType byte
	timeslot    byte
	arfcn       uint16
	signalDBm   int8
	snr         int8
	frameNumber uint32
	subType     byte
	antenna     byte
	subSlot     byte
}

func (h gsmtapHeader) marshal() []byte {
	b := make([]byte, gsmtapHeaderLen)
	b[0] = gsmtapVersion
	b[1] = gsmtapHeaderLen / 4
	b[2] = h.payloadType
	b[3] = h.timeslot
	binary.BigEndian.PutUint16(b[4:6], h.arfcn)
	b[6] = byte(h.signalDBm)
	b[7] = byte(h.snr)
	binary.BigEndian.PutUint32(b[8:12], h.frameNumber)
	b[12] = h.subType
	b[13] = h.antenna
	b[14] = h.subSlot
	return b
}

// gsmtapFor maps one container to a GSMTAP header and inner PDU. The
// second result is false for IEs with no capture representation
// (measurements, unregistered codes, skipped messages); IP traffic is
// handled separately since it already is an IP packet.
func gsmtapFor(c diag.Container) (gsmtapHeader, []byte, bool) {
	h := gsmtapHeader{}
	if c.Meas.Valid {
		// The ARFCN field is GSMTAP's 14-bit channel number; signal is
		// the cached RSRP clamped to the header's i8.
		h.arfcn = uint16(c.Meas.EARFCN) & 0x3FFF
		h.signalDBm = diag.ClampRSRPDBm(c.Meas.RSRPDBm)
	}

	switch ie := c.IE.(type) {
	case diag.LteRrcOTA:
		h.payloadType = gsmtapTypeLTERRC
		h.subType = lteRRCSubType(ie.Channel)
		return h, ie.PDU, true
	case diag.NasEMMOTA:
		h.payloadType = gsmtapTypeLTENAS
		return h, ie.PDU, true
	case diag.WCDMARrcOTA:
		h.payloadType = gsmtapTypeUMTSRRC
		return h, ie.PDU, true
	case diag.GSMRR:
		h.payloadType = gsmtapTypeUM
		return h, ie.PDU, true
	default:
		return gsmtapHeader{}, nil, false
	}
}

func lteRRCSubType(ch diag.LteRRCChannel) byte {
	switch ch {
	case diag.LteChannelBCCH:
		return gsmtapLTERRCSubBCCHDLSCH
	case diag.LteChannelPCCH:
		return gsmtapLTERRCSubPCCH
	case diag.LteChannelCCCH:
		return gsmtapLTERRCSubDLCCCH
	default:
		return gsmtapLTERRCSubDLDCCH
	}
}
