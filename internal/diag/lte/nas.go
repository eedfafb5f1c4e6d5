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

import "github.com/cellwatch/cellwatch/pkg/bitreader"

// NAS EMM message type octets, TS 24.301 (scoped to what the built-in
// analyzers need).
const (
	nasAttachRequest        byte = 0x41
	nasIdentityRequest      byte = 0x55
	nasSecurityModeCommand  byte = 0x5D
	nasAuthenticationAccept byte = 0x93
)

// NAS identity-type octets, TS 24.301.
const (
	IdentityIMSI byte = 0x01
	IdentityIMEI byte = 0x02
	IdentityGUTI byte = 0x06
)

// NASMessage is the decoded result of a NAS EMM PDU, carrying only the
// fields the built-in analyzers inspect.
type NASMessage struct {
	MessageType     byte
	MobileIdentity  byte // AttachRequest: identity type used
	RequestedID     byte // IdentityRequest: identity type requested
	CipherAlgorithm byte // SecurityModeCommand: 4-bit algorithm id, 0 = EEA0
}

// DecodeNAS parses a NAS EMM PDU (the bytes after the header) into a
// NASMessage.
func DecodeNAS(pdu []byte) (NASMessage, error) {
	if len(pdu) < 1 {
		return NASMessage{}, ErrTruncatedPDU
	}
	msg := NASMessage{MessageType: pdu[0]}
	body := pdu[1:]

	switch pdu[0] {
	case nasAttachRequest:
		if len(body) < 1 {
			return NASMessage{}, ErrTruncatedPDU
		}
		msg.MobileIdentity = body[0]

	case nasIdentityRequest:
		if len(body) < 1 {
			return NASMessage{}, ErrTruncatedPDU
		}
		msg.RequestedID = body[0]

	case nasSecurityModeCommand:
		if len(body) < 1 {
			return NASMessage{}, ErrTruncatedPDU
		}
		r := bitreader.New(body[:1])
		algo, err := r.ReadBits(4)
		if err != nil {
			return NASMessage{}, ErrTruncatedPDU
		}
		msg.CipherAlgorithm = byte(algo)

	case nasAuthenticationAccept:
		// No further fields needed.
	}

	return msg, nil
}

// NAS message type constants exposed to package diag, which owns the
// NASMessageType enum mapping.
const (
	NASAttachRequest        = nasAttachRequest
	NASIdentityRequest      = nasIdentityRequest
	NASSecurityModeCommand  = nasSecurityModeCommand
	NASAuthenticationAccept = nasAuthenticationAccept
)
