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

package pcapgen

import (
	"bytes"
	"fmt"
	"io"
	"net"

	"github.com/cellwatch/cellwatch/internal/clock"
	"github.com/cellwatch/cellwatch/internal/diag"
	"github.com/cellwatch/cellwatch/internal/qmdl"
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

// LinkType is pcap data-link "user 0" (147), the GSMTAP-over-UDP variant
// downstream dissectors expect for this stream; raw-IP (101) is the
// rejected alternative.
const LinkType = layers.LinkType(147)

const snapLen = 1 << 16

// View presents a QMDL chunk -- including one still being written -- as
// a classic pcap stream. It is a pull reader: it tracks its own offset
// over the chunk reader (which itself respects the writer's high-water
// mark) and runs its own demux so each record's signal field comes from
// the measurement cache state as of that record, not a live global.
type View struct {
	src   io.ReadCloser
	sc    *qmdl.FrameScanner
	demux *diag.Demux
	clk   *clock.Clock

	buf    bytes.Buffer
	pw     *pcapgo.Writer
	opened bool
	done   bool
}

// NewView wraps a chunk reader. The caller owns closing the View, which
// closes src.
func NewView(src io.ReadCloser, clk *clock.Clock) *View {
	return &View{
		src:   src,
		sc:    qmdl.NewFrameScanner(src),
		demux: diag.NewDemux(),
		clk:   clk,
	}
}

func (v *View) Read(p []byte) (int, error) {
	for v.buf.Len() == 0 {
		if v.done {
			return 0, io.EOF
		}
		if err := v.fill(); err != nil {
			if err == io.EOF {
				v.done = true
				continue
			}
			return 0, err
		}
	}
	return v.buf.Read(p)
}

// fill appends at least the file header or one frame's records to the
// internal buffer.
func (v *View) fill() error {
	if !v.opened {
		v.pw = pcapgo.NewWriter(&v.buf)
		if err := v.pw.WriteFileHeader(snapLen, LinkType); err != nil {
			return fmt.Errorf("failed to write pcap file header: %w", err)
		}
		v.opened = true
		return nil
	}

	msgs, err := v.sc.Next()
	if err != nil {
		return err
	}
	for _, msg := range msgs {
		if err := v.writeRecord(v.demux.Decode(msg)); err != nil {
			return err
		}
	}
	return nil
}

func (v *View) writeRecord(c diag.Container) error {
	if c.Skipped() {
		return nil
	}

	var packet []byte
	if ip, ok := c.IE.(diag.IPTraffic); ok {
		// IP passthrough traffic already is an IP packet; it goes out
		// unwrapped under the same link type.
		packet = ip.Bytes
	} else {
		hdr, pdu, ok := gsmtapFor(c)
		if !ok {
			return nil
		}
		var err error
		packet, err = serializeGSMTAP(hdr, pdu)
		if err != nil {
			return err
		}
	}
	if len(packet) == 0 {
		return nil
	}

	ci := gopacket.CaptureInfo{
		Timestamp:     c.TS.Time(v.clk),
		CaptureLength: len(packet),
		Length:        len(packet),
	}
	if err := v.pw.WritePacket(ci, packet); err != nil {
		return fmt.Errorf("failed to write pcap record: %w", err)
	}
	return nil
}

// serializeGSMTAP builds the IP/UDP placeholder headers with gopacket
// and appends the hand-packed GSMTAP header plus inner PDU as payload.
func serializeGSMTAP(hdr gsmtapHeader, pdu []byte) ([]byte, error) {
	ip := &layers.IPv4{
		Version:  4,
		IHL:      5,
		TTL:      64,
		Protocol: layers.IPProtocolUDP,
		SrcIP:    net.IPv4(127, 0, 0, 1),
		DstIP:    net.IPv4(127, 0, 0, 1),
	}
	udp := &layers.UDP{
		SrcPort: GSMTAPPort,
		DstPort: GSMTAPPort,
	}
	if err := udp.SetNetworkLayerForChecksum(ip); err != nil {
		return nil, fmt.Errorf("failed to bind udp checksum layer: %w", err)
	}

	payload := append(hdr.marshal(), pdu...)
	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	if err := gopacket.SerializeLayers(buf, opts, ip, udp, gopacket.Payload(payload)); err != nil {
		return nil, fmt.Errorf("failed to serialize gsmtap packet: %w", err)
	}
	return buf.Bytes(), nil
}

// Close closes the underlying chunk reader.
func (v *View) Close() error {
	return v.src.Close()
}
