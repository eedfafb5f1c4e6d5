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
	"errors"
	"io"
	"log/slog"
	"sync/atomic"

	"go.opentelemetry.io/otel"
)

// maxConsecutiveCRCFailures is the CRC-storm threshold: once more than
// this many frames in a row fail CRC verification, the transport
// considers the link unreliable and returns a fatal TransportError rather
// than looping forever on garbage.
const maxConsecutiveCRCFailures = 16

// Counters exposes the atomic recoverable-error counters a metrics
// collaborator reads; the transport is single-producer but these
// counters may be read from any goroutine.
type Counters struct {
	CRCErrors   atomic.Uint64
	UnknownCode atomic.Uint64
}

// RawFrame is one CRC-verified, unescaped frame payload (CRC trailer
// stripped) plus the timestamp of its first embedded log message. It is
// the unit the raw-log writer task persists: the writer re-frames
// it with Frame(AppendCRC(...)) so the on-disk chunk is a valid QMDL
// stream that readers re-split on the terminator byte.
type RawFrame struct {
	Payload   []byte
	Timestamp int64
}

// Transport owns the diag device exclusively and drives the control
// dialog, then the streaming read loop, emitting
// LogMessages onto a bounded channel. It is single-producer: only
// Transport.Run ever reads from the device.
type Transport struct {
	dev      *Device
	out      chan<- LogMessage
	raw      chan<- RawFrame
	Counters Counters
}

// NewTransport constructs a Transport that will emit onto out, with an
// optional second fan-out of whole frames onto raw for the raw-log
// writer task (nil disables it). Both must be bounded channels -- a
// stalled consumer deliberately blocks further diag reads rather than
// dropping records.
func NewTransport(dev *Device, out chan<- LogMessage, raw chan<- RawFrame) *Transport {
	return &Transport{dev: dev, out: out, raw: raw}
}

// Run drives the control dialog to completion, then reads frames from
// the diag device until ctx is cancelled or a fatal error occurs. It
// never retries past a fatal error: restarts are the operator's concern.
func (t *Transport) Run(ctx context.Context) error {
	ctx, span := otel.Tracer("cellwatch").Start(ctx, "Transport.Dial")
	defer span.End()

	br := bufio.NewReaderSize(t.dev, 1<<16)

	if err := runControlDialog(ctx, br, t.dev); err != nil {
		return err
	}

	return t.streamLoop(ctx, br)
}

func (t *Transport) streamLoop(ctx context.Context, br *bufio.Reader) error {
	ctx, span := otel.Tracer("cellwatch").Start(ctx, "Transport.ReadFrame")
	defer span.End()

	consecutiveCRCFailures := 0
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		raw, err := readDelimited(br)
		if err != nil {
			// A cancelled context closes the device out from under the
			// blocking read; that read error is the shutdown path, not a
			// baseband failure.
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, io.EOF) {
				return fatal(ErrUnexpectedEOF)
			}
			return fatal(err)
		}

		unescaped, err := Unescape(raw)
		if err != nil {
			slog.Warn("diagio: dropping frame with invalid escape sequence", "error", err)
			t.Counters.CRCErrors.Add(1)
			continue
		}

		payload, ok := VerifyCRC(unescaped)
		if !ok {
			t.Counters.CRCErrors.Add(1)
			consecutiveCRCFailures++
			if consecutiveCRCFailures > maxConsecutiveCRCFailures {
				return fatal(ErrCRCStorm)
			}
			continue
		}
		consecutiveCRCFailures = 0

		msgs, err := ParseLogContainer(payload)
		if err != nil {
			slog.Warn("diagio: dropping truncated log container", "error", err)
			continue
		}

		if t.raw != nil && len(msgs) > 0 {
			frame := RawFrame{
				Payload:   append([]byte(nil), payload...),
				Timestamp: msgs[0].Timestamp,
			}
			select {
			case t.raw <- frame:
			case <-ctx.Done():
				return nil
			}
		}

		for _, m := range msgs {
			select {
			case t.out <- m:
			case <-ctx.Done():
				return nil
			}
		}
	}
}
