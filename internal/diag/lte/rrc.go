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

package lte

import (
	"errors"

	"github.com/cellwatch/cellwatch/pkg/bitreader"
)

// ErrTruncatedPDU is returned when the RRC PDU is shorter than the
// message type it declares requires.
var ErrTruncatedPDU = errors.New("lte: truncated rrc pdu")

// RRC message type octets. Dedicated messages get a low value; System
// Information carries the SIB number in the low seven bits with the high
// bit set, so every broadcast SIB is representable without enumerating
// them all. Only the messages the built-in analyzers inspect get fields
// decoded; anything else decodes as an opaque message type rather than
// an error.
const (
	MsgSecurityModeCommand byte = 0x01
	MsgConnectionRelease   byte = 0x02

	msgSIBFlag byte = 0x80
)

// SIBMsgType returns the message-type octet for System Information
// carrying SIB number n.
func SIBMsgType(n byte) byte {
	return msgSIBFlag | (n & 0x7F)
}

// SIBNumber reports whether msgType is a System Information octet and,
// if so, which SIB number it carries.
func SIBNumber(msgType byte) (byte, bool) {
	if msgType&msgSIBFlag == 0 {
		return 0, false
	}
	return msgType & 0x7F, true
}

// RRC redirect/frequency RAT octets.
const (
	ratGERAN byte = 0x01
	ratUTRA  byte = 0x02
)

// RATGERAN and RATUTRA expose the raw RAT octets to package diag, which
// owns the RedirectTargetRAT enum mapping.
const (
	RATGERAN = ratGERAN
	RATUTRA  = ratUTRA
)

// FreqEntry is one inter-RAT frequency priority list entry (SIB6/SIB7).
type FreqEntry struct {
	ARFCN    uint16
	Priority byte
	RAT      byte
}

// RRCMessage is the decoded result of an LTE RRC PDU, carrying only the
// fields relevant to the built-in analyzers.
type RRCMessage struct {
	MessageType         byte
	SIB                 byte // SIB number when MessageType is System Information, else 0
	CipherAlgorithm     byte // SecurityModeCommand: 4-bit algorithm id, 0 = EEA0
	RedirectPresent     bool // ConnectionRelease
	RedirectRAT         byte
	ScheduledSIBs       []byte // SIB1: SIB numbers referenced by si-SchedulingInfo
	ServingCellPriority byte   // SIB1: cellReselectionPriority, 3 bits
	FreqEntries         []FreqEntry
}

// DecodeRRC parses an RRC PDU (the bytes after the header, per
// DecodeHeader) into an RRCMessage.
func DecodeRRC(pdu []byte) (RRCMessage, error) {
	if len(pdu) < 1 {
		return RRCMessage{}, ErrTruncatedPDU
	}
	msg := RRCMessage{MessageType: pdu[0]}
	body := pdu[1:]

	if sib, ok := SIBNumber(pdu[0]); ok {
		msg.SIB = sib
		return decodeSIB(msg, sib, body)
	}

	switch pdu[0] {
	case MsgSecurityModeCommand:
		if len(body) < 1 {
			return RRCMessage{}, ErrTruncatedPDU
		}
		r := bitreader.New(body[:1])
		algo, err := r.ReadBits(4)
		if err != nil {
			return RRCMessage{}, ErrTruncatedPDU
		}
		msg.CipherAlgorithm = byte(algo)

	case MsgConnectionRelease:
		if len(body) < 1 {
			return RRCMessage{}, ErrTruncatedPDU
		}
		r := bitreader.New(body[:1])
		present, err := r.ReadBit()
		if err != nil {
			return RRCMessage{}, ErrTruncatedPDU
		}
		rat, err := r.ReadBits(7)
		if err != nil {
			return RRCMessage{}, ErrTruncatedPDU
		}
		msg.RedirectPresent = present
		msg.RedirectRAT = byte(rat)
	}

	return msg, nil
}

func decodeSIB(msg RRCMessage, sib byte, body []byte) (RRCMessage, error) {
	switch sib {
	case 1:
		// si-SchedulingInfo list length, the scheduled SIB numbers, then
		// the serving cell's 3-bit cellReselectionPriority.
		if len(body) < 1 {
			return RRCMessage{}, ErrTruncatedPDU
		}
		n := int(body[0])
		if len(body) < 1+n+1 {
			return RRCMessage{}, ErrTruncatedPDU
		}
		msg.ScheduledSIBs = append([]byte(nil), body[1:1+n]...)
		r := bitreader.New(body[1+n : 1+n+1])
		prio, err := r.ReadBits(3)
		if err != nil {
			return RRCMessage{}, ErrTruncatedPDU
		}
		msg.ServingCellPriority = byte(prio)

	case 6, 7:
		// Inter-RAT frequency priority list: entry count, then per entry
		// a big-endian ARFCN and a packed priority(3)/RAT(2) byte.
		if len(body) < 1 {
			return RRCMessage{}, ErrTruncatedPDU
		}
		m := int(body[0])
		const entryLen = 3
		if len(body) < 1+m*entryLen {
			return RRCMessage{}, ErrTruncatedPDU
		}
		entries := make([]FreqEntry, 0, m)
		off := 1
		for i := 0; i < m; i++ {
			arfcn := uint16(body[off])<<8 | uint16(body[off+1])
			r := bitreader.New(body[off+2 : off+3])
			prio, err := r.ReadBits(3)
			if err != nil {
				return RRCMessage{}, ErrTruncatedPDU
			}
			rat, err := r.ReadBits(2)
			if err != nil {
				return RRCMessage{}, ErrTruncatedPDU
			}
			entries = append(entries, FreqEntry{ARFCN: arfcn, Priority: byte(prio), RAT: byte(rat)})
			off += entryLen
		}
		msg.FreqEntries = entries
	}

	return msg, nil
}
