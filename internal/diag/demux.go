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

package diag

import (
	"errors"

	"github.com/cellwatch/cellwatch/internal/diag/gsm"
	"github.com/cellwatch/cellwatch/internal/diag/lte"
	"github.com/cellwatch/cellwatch/internal/diag/phy"
	"github.com/cellwatch/cellwatch/internal/diag/wcdma"
	"github.com/cellwatch/cellwatch/internal/diagio"
)

// Demux turns generic log messages into typed IEs. It owns the
// radio-measurement Cache and must only ever be driven from the pipeline
// goroutine: Decode mutates the cache in place with no synchronization.
type Demux struct {
	cache *Cache
}

// NewDemux returns a Demux with an empty measurement cache.
func NewDemux() *Demux {
	return &Demux{cache: NewCache()}
}

// Decode maps one log message to a Container. It never returns an
// error: unregistered codes become Unknown, and decoder failures become
// a Container carrying a SkipReason. Every Container is annotated with
// the cache snapshot current after this message.
func (d *Demux) Decode(msg diagio.LogMessage) Container {
	c := Container{TS: Timestamp(msg.Timestamp)}

	switch diagio.LogCode(msg.Code) {
	case diagio.LogCodeLteRRCOTA:
		c = d.decodeLteRRC(c, msg.Payload)
	case diagio.LogCodeLteNASEMMOTAIn:
		c = d.decodeLteNAS(c, msg.Payload, DirectionDownlink)
	case diagio.LogCodeLteNASEMMOTAOut:
		c = d.decodeLteNAS(c, msg.Payload, DirectionUplink)
	case diagio.LogCodeLteMl1ServingMeas:
		c = d.decodeServingMeas(c, msg.Payload)
	case diagio.LogCodeWCDMARRCOTA:
		pdu, err := wcdma.Decode(msg.Payload)
		if err != nil {
			c = skipContainer(c, err)
			break
		}
		c.IE = WCDMARrcOTA{PDU: append([]byte(nil), pdu...)}
	case diagio.LogCodeGSMRR:
		pdu, err := gsm.Decode(msg.Payload)
		if err != nil {
			c = skipContainer(c, err)
			break
		}
		c.IE = GSMRR{PDU: append([]byte(nil), pdu...)}
	case diagio.LogCodeIPTraffic:
		c = decodeIPTraffic(c, msg.Payload)
	default:
		c.IE = Unknown{Code: msg.Code, Bytes: msg.Payload}
	}

	c.Meas = d.cache.Snapshot()
	return c
}

func (d *Demux) decodeLteRRC(c Container, payload []byte) Container {
	hdr, err := lte.DecodeHeader(payload)
	if err != nil {
		return skipContainer(c, err)
	}
	m, err := lte.DecodeRRC(hdr.PDU)
	if err != nil {
		return skipContainer(c, err)
	}

	ie := LteRrcOTA{
		PDU:     append([]byte(nil), hdr.PDU...),
		Channel: lteChannel(hdr.Channel),
	}
	switch {
	case m.SIB != 0:
		ie.MessageType = RRCSystemInformation
		ie.SIBType = SIBType(m.SIB)
		for _, s := range m.ScheduledSIBs {
			ie.ScheduledSIBs = append(ie.ScheduledSIBs, SIBType(s))
		}
		ie.ServingCellPriority = m.ServingCellPriority
		for _, e := range m.FreqEntries {
			ie.InterRATFreqs = append(ie.InterRATFreqs, FreqPriorityEntry{
				ARFCN:    e.ARFCN,
				Priority: e.Priority,
				RAT:      redirectRAT(e.RAT),
			})
		}
	case m.MessageType == lte.MsgSecurityModeCommand:
		ie.MessageType = RRCSecurityModeCommand
		ie.CipherAlgorithm = cipherAlgorithm(m.CipherAlgorithm)
	case m.MessageType == lte.MsgConnectionRelease:
		ie.MessageType = RRCConnectionRelease
		if m.RedirectPresent {
			ie.RedirectTarget = redirectRAT(m.RedirectRAT)
		}
	default:
		ie.MessageType = RRCOther
	}
	c.IE = ie
	return c
}

func (d *Demux) decodeLteNAS(c Container, payload []byte, dir Direction) Container {
	hdr, err := lte.DecodeHeader(payload)
	if err != nil {
		return skipContainer(c, err)
	}
	m, err := lte.DecodeNAS(hdr.PDU)
	if err != nil {
		return skipContainer(c, err)
	}

	ie := NasEMMOTA{
		PDU:       append([]byte(nil), hdr.PDU...),
		Direction: dir,
	}
	switch m.MessageType {
	case lte.NASAttachRequest:
		ie.MessageType = NASAttachRequest
		ie.MobileIdentity = identityType(m.MobileIdentity)
	case lte.NASIdentityRequest:
		ie.MessageType = NASIdentityRequest
		ie.RequestedID = identityType(m.RequestedID)
	case lte.NASSecurityModeCommand:
		ie.MessageType = NASSecurityModeCommand
		ie.CipherAlgorithm = cipherAlgorithm(m.CipherAlgorithm)
	case lte.NASAuthenticationAccept:
		ie.MessageType = NASAuthenticationAccept
	default:
		ie.MessageType = NASOther
	}
	c.IE = ie
	return c
}

func (d *Demux) decodeServingMeas(c Container, payload []byte) Container {
	m, err := phy.Decode(payload)
	if err != nil {
		return skipContainer(c, err)
	}
	ie := LteServingCellMeas{PCI: m.PCI, EARFCN: m.EARFCN, RSRPDBm: m.RSRPDBm}
	d.cache.Update(ie)
	c.IE = ie
	return c
}

// decodeIPTraffic splits an IP-traffic passthrough payload: a direction
// byte followed by the raw IP bytes.
func decodeIPTraffic(c Container, payload []byte) Container {
	if len(payload) < 1 {
		s := SkipTruncatedPayload
		c.Skip = &s
		return c
	}
	dir := DirectionUplink
	if payload[0] != 0 {
		dir = DirectionDownlink
	}
	c.IE = IPTraffic{Bytes: append([]byte(nil), payload[1:]...), Direction: dir}
	return c
}

// skipContainer maps a decoder error to the shared SkipReason values.
func skipContainer(c Container, err error) Container {
	var s SkipReason
	switch {
	case errors.Is(err, lte.ErrUnknownHeaderVersion),
		errors.Is(err, wcdma.ErrUnknownHeaderVersion),
		errors.Is(err, gsm.ErrUnknownHeaderVersion):
		s = SkipUnknownHeaderVersion
	case errors.Is(err, lte.ErrTruncatedPDU):
		s = SkipTruncatedPDU
	case errors.Is(err, lte.ErrTruncatedHeader),
		errors.Is(err, wcdma.ErrTruncatedHeader),
		errors.Is(err, gsm.ErrTruncatedHeader),
		errors.Is(err, phy.ErrTruncated):
		s = SkipTruncatedPayload
	default:
		s = Skip(err.Error())
	}
	c.Skip = &s
	return c
}

func lteChannel(b byte) LteRRCChannel {
	switch b {
	case 0x00:
		return LteChannelBCCH
	case 0x01:
		return LteChannelPCCH
	case 0x02:
		return LteChannelDCCH
	case 0x03:
		return LteChannelCCCH
	default:
		return LteChannelUnknown
	}
}

func redirectRAT(b byte) RedirectTargetRAT {
	switch b {
	case lte.RATGERAN:
		return RedirectGERAN
	case lte.RATUTRA:
		return RedirectUTRA
	default:
		return RedirectOtherRAT
	}
}

func cipherAlgorithm(b byte) CipherAlgorithm {
	switch b {
	case 0x00:
		return CipherEEA0
	case 0x01:
		return CipherEEA1
	case 0x02:
		return CipherEEA2
	default:
		return CipherOther
	}
}

func identityType(b byte) IdentityType {
	switch b {
	case lte.IdentityIMSI:
		return IdentityIMSI
	case lte.IdentityIMEI:
		return IdentityIMEI
	case lte.IdentityGUTI:
		return IdentityGUTI
	default:
		return IdentityUnknown
	}
}
