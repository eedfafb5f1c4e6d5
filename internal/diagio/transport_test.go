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
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// pipeDevice is an io.ReadWriteCloser fake baseband, connected to the
// Transport under test over a pair of io.Pipes so the control dialog's
// request/response exchange can be driven from the test goroutine.
type pipeDevice struct {
	r *io.PipeReader // what the transport reads (baseband -> transport)
	w *io.PipeWriter // what the transport writes (transport -> baseband)
}

func (p *pipeDevice) Read(b []byte) (int, error)  { return p.r.Read(b) }
func (p *pipeDevice) Write(b []byte) (int, error) { return p.w.Write(b) }
func (p *pipeDevice) Close() error {
	p.r.Close()
	return p.w.Close()
}

// newFakeBaseband wires up a Transport whose Device is driven by a test
// goroutine acting as the baseband: it acknowledges every control request
// with an echo of the request's opcode, then streams the given containers.
func newFakeBaseband(t *testing.T, containers [][]LogMessage) (*Transport, chan LogMessage, chan RawFrame, *Device) {
	t.Helper()
	toTransport, fromBaseband := io.Pipe()
	toBaseband, fromTransport := io.Pipe()

	dev := NewDevice(&pipeDevice{r: toTransport, w: fromTransport})
	out := make(chan LogMessage, 64)
	raw := make(chan RawFrame, 64)
	tr := NewTransport(dev, out, raw)

	go func() {
		br := newLineReader(toBaseband)
		// Enable-log-delivery, each SET_MASK partition, ext-msg-config:
		// echo back every request's opcode as its acknowledgement.
		for i := 0; i < 6; i++ {
			reqFrame, err := br.ReadBytes(frameTerminator)
			if err != nil {
				return
			}
			unescaped, err := Unescape(reqFrame[:len(reqFrame)-1])
			if err != nil {
				continue
			}
			payload, ok := VerifyCRC(unescaped)
			if !ok || len(payload) == 0 {
				continue
			}
			ack := Frame(AppendCRC([]byte{payload[0]}))
			_, _ = fromBaseband.Write(ack)
		}

		for _, msgs := range containers {
			payload := buildContainer(t, msgs)
			_, _ = fromBaseband.Write(Frame(AppendCRC(payload)))
		}
		// Leave the pipe open; the test cancels the context instead of
		// relying on EOF.
	}()

	return tr, out, raw, dev
}

func newLineReader(r io.Reader) *bufReaderShim {
	return &bufReaderShim{r: r}
}

// bufReaderShim is a tiny ReadBytes-only helper so the fake baseband
// doesn't need to import bufio itself twice; it just delegates.
type bufReaderShim struct {
	r   io.Reader
	buf []byte
}

func (b *bufReaderShim) ReadBytes(delim byte) ([]byte, error) {
	for {
		for i, c := range b.buf {
			if c == delim {
				out := append([]byte(nil), b.buf[:i+1]...)
				b.buf = b.buf[i+1:]
				return out, nil
			}
		}
		chunk := make([]byte, 4096)
		n, err := b.r.Read(chunk)
		if n > 0 {
			b.buf = append(b.buf, chunk[:n]...)
		}
		if err != nil {
			return nil, err
		}
	}
}

func TestTransportControlDialogThenStreams(t *testing.T) {
	want := []LogMessage{{Code: 0xB0C0, Timestamp: 42, Payload: []byte{0x01, 0x02}}}
	tr, out, raw, dev := newFakeBaseband(t, [][]LogMessage{want})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- tr.Run(ctx) }()

	select {
	case got := <-out:
		require.Equal(t, want[0].Code, got.Code)
		require.Equal(t, want[0].Timestamp, got.Timestamp)
		require.Equal(t, want[0].Payload, got.Payload)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for streamed message")
	}

	// The same frame must fan out to the raw-log writer channel with the
	// first embedded message's timestamp.
	select {
	case frame := <-raw:
		require.Equal(t, want[0].Timestamp, frame.Timestamp)
		msgs, err := ParseLogContainer(frame.Payload)
		require.NoError(t, err)
		require.Len(t, msgs, 1)
		require.Equal(t, want[0].Payload, msgs[0].Payload)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for raw frame fan-out")
	}

	// Closing the device unblocks the streaming goroutine's in-flight
	// blocking read, the same way a real diag device disconnect would.
	_ = dev.Close()
	<-errCh
}
