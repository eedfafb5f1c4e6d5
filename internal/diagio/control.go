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
	"bufio"
	"context"

	"go.opentelemetry.io/otel"
)

// Control-dialog opcodes. Each request has exactly one expected
// response opcode; the dialog is deterministic, never fanning out to
// "whichever reply arrives first".
const (
	opLogOnDemand  byte = 0x4B // enable per-process log delivery
	opLogConfig    byte = 0x73 // SET_MASK log-code configuration
	opExtMsgConfig byte = 0x29 // extended-message class suppression
)

// logConfigSetMask is the log-config subcommand that installs a bitmask
// of enabled codes for one equipment-id partition.
const logConfigSetMask byte = 0x03

// runControlDialog drives the baseband through the deterministic
// three-step control dialog, then returns once the device is ready to
// be switched into streaming mode. Unknown/unsolicited frames seen
// between requests are discarded.
func runControlDialog(ctx context.Context, br *bufio.Reader, d *Device) error {
	ctx, span := otel.Tracer("cellwatch").Start(ctx, "Transport.ControlDialog")
	defer span.End()
	_ = ctx

	if err := request(br, d, opLogOnDemand, []byte{0x01}); err != nil {
		return err
	}

	partitions := partitionedLogCodes()
	for _, eq := range []equipmentID{equipmentLTE, equipmentWCDMA, equipmentGSM, equipmentOther} {
		codes, ok := partitions[eq]
		if !ok {
			continue
		}
		payload := buildSetMaskPayload(eq, codes)
		if err := request(br, d, opLogConfig, payload); err != nil {
			return err
		}
	}

	if err := request(br, d, opExtMsgConfig, []byte{0x00}); err != nil {
		return err
	}

	return nil
}

// buildSetMaskPayload packs one equipment-id partition's SET_MASK
// request: subcommand, equipment id, count, then each code as a
// little-endian uint16.
func buildSetMaskPayload(eq equipmentID, codes []LogCode) []byte {
	payload := make([]byte, 0, 4+2*len(codes))
	payload = append(payload, logConfigSetMask, byte(eq), byte(len(codes)), byte(len(codes)>>8))
	for _, c := range codes {
		payload = append(payload, byte(c), byte(c>>8))
	}
	return payload
}

// request writes one framed control request and blocks for its matching
// framed response, discarding any unsolicited frame seen first. The
// response's payload's leading opcode must echo the request's.
func request(br *bufio.Reader, d *Device, opcode byte, body []byte) error {
	req := append([]byte{opcode}, body...)
	wire := Frame(AppendCRC(req))
	n, err := d.Write(wire)
	if err != nil || n != len(wire) {
		return fatal(ErrShortWrite)
	}

	for {
		raw, err := readDelimited(br)
		if err != nil {
			return fatal(ErrUnexpectedEOF)
		}
		unescaped, err := Unescape(raw)
		if err != nil {
			// Recoverable: drop and keep waiting for our response.
			continue
		}
		payload, ok := VerifyCRC(unescaped)
		if !ok {
			continue
		}
		if len(payload) == 0 || payload[0] != opcode {
			// Unsolicited/unknown frame during the dialog: discard.
			continue
		}
		return nil
	}
}

// readDelimited reads bytes up to and including the next frameTerminator,
// returning the delimited content without the terminator itself.
func readDelimited(br *bufio.Reader) ([]byte, error) {
	raw, err := br.ReadBytes(frameTerminator)
	if err != nil {
		return nil, err
	}
	return raw[:len(raw)-1], nil
}
