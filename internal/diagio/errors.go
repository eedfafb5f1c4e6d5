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

import "errors"

var (
	// ErrOpenDevice indicates the diag character device could not be opened.
	ErrOpenDevice = errors.New("diagio: error opening diag device")
	// ErrShortWrite indicates a control-dialog request was not written in full.
	ErrShortWrite = errors.New("diagio: short write on control request")
	// ErrUnexpectedEOF indicates the diag device closed while streaming.
	ErrUnexpectedEOF = errors.New("diagio: unexpected eof on diag device")
	// ErrCRCStorm indicates more than maxConsecutiveCRCFailures frames in a
	// row failed CRC verification.
	ErrCRCStorm = errors.New("diagio: persistent crc failure storm")
	// ErrUnexpectedResponse indicates a control-dialog request received a
	// response with an opcode other than the one it expected.
	ErrUnexpectedResponse = errors.New("diagio: unexpected control response opcode")
)

// TransportError wraps a transport failure with the fatal/recoverable
// classification: device open failure, short writes, CRC storms, and
// unexpected EOF are fatal and end Transport.Run; a single
// CRC failure while streaming is recoverable and only increments
// Transport.Counters. A frame with an unexpected opcode during the
// control dialog is discarded; that discard is not counted.
type TransportError struct {
	Err   error
	Fatal bool
}

func (e *TransportError) Error() string {
	return e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsFatal reports whether e should tear down the pipeline.
func (e *TransportError) IsFatal() bool {
	return e.Fatal
}

func fatal(err error) *TransportError {
	return &TransportError{Err: err, Fatal: true}
}

func recoverable(err error) *TransportError {
	return &TransportError{Err: err, Fatal: false}
}
