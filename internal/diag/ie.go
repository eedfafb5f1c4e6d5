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

// Direction distinguishes uplink (UE -> network) from downlink messages,
// carried on NasEMMOTA and IPTraffic.
type Direction uint8

const (
	DirectionUplink Direction = iota
	DirectionDownlink
)

func (d Direction) String() string {
	if d == DirectionUplink {
		return "uplink"
	}
	return "downlink"
}

// IE is the closed set of Information Elements this core understands.
// It is implemented only by the variant structs in this file; the
// unexported marker method keeps the set closed to this package, so
// analyzers must type-switch rather than be generic over "message
// types".
type IE interface {
	isIE()
}

// LteRRCChannel identifies the logical channel an LteRrcOTA message was
// observed on.
type LteRRCChannel uint8

const (
	LteChannelBCCH LteRRCChannel = iota
	LteChannelPCCH
	LteChannelDCCH
	LteChannelCCCH
	LteChannelUnknown
)

// RRCMessageType is the subset of LTE RRC messages this core decodes
// deeply enough for the built-in analyzers; everything else decodes to
// RRCOther without further interpretation.
type RRCMessageType uint8

const (
	RRCOther RRCMessageType = iota
	RRCSecurityModeCommand
	RRCConnectionRelease
	RRCSystemInformation
)

// SIBType identifies which System Information Block an RRCSystemInformation
// LteRrcOTA carries.
type SIBType uint8

const (
	SIBUnknown SIBType = 0
	SIB1       SIBType = 1
	SIB3       SIBType = 3
	SIB5       SIBType = 5
	SIB6       SIBType = 6
	SIB7       SIBType = 7
)

// RedirectTargetRAT is the target RAT of an RRCConnectionRelease redirect.
type RedirectTargetRAT uint8

const (
	RedirectNone RedirectTargetRAT = iota
	RedirectGERAN
	RedirectUTRA
	RedirectOtherRAT
)

// CipherAlgorithm is the AS or NAS ciphering algorithm negotiated by a
// SecurityModeCommand. EEA0/EIA0-equivalent "null" values are what the
// Null Cipher analyzers look for.
type CipherAlgorithm uint8

const (
	CipherEEA0 CipherAlgorithm = iota // null cipher
	CipherEEA1
	CipherEEA2
	CipherOther
)

// FreqPriorityEntry is one entry of an inter-RAT frequency priority list
// carried in a SIB6/SIB7 (carrierFreqListGERAN / carrierFreqListUTRA-FDD).
type FreqPriorityEntry struct {
	ARFCN    uint16
	Priority uint8
	RAT      RedirectTargetRAT
}

// LteRrcOTA is a decoded LTE RRC over-the-air message (TS 36.331). PDU
// is the raw OTA octet string, retained for the packet-capture view.
type LteRrcOTA struct {
	PDU                 []byte
	Channel             LteRRCChannel
	MessageType         RRCMessageType
	CipherAlgorithm     CipherAlgorithm     // valid when MessageType == RRCSecurityModeCommand
	RedirectTarget      RedirectTargetRAT   // valid when MessageType == RRCConnectionRelease
	SIBType             SIBType             // valid when MessageType == RRCSystemInformation
	ScheduledSIBs       []SIBType           // valid for SIB1: SIB types its scheduling info references
	ServingCellPriority uint8               // valid for SIB1: current cell's cellReselectionPriority
	InterRATFreqs       []FreqPriorityEntry // valid for SIB6/SIB7
}

func (LteRrcOTA) isIE() {}

// NASMessageType is the subset of EMM messages this core decodes deeply.
type NASMessageType uint8

const (
	NASOther NASMessageType = iota
	NASAttachRequest
	NASIdentityRequest
	NASSecurityModeCommand
	NASAuthenticationAccept
)

// IdentityType is the mobile-identity kind carried in an Attach Request
// or requested by an Identity Request (TS 24.301).
type IdentityType uint8

const (
	IdentityUnknown IdentityType = iota
	IdentityIMSI
	IdentityGUTI
	IdentityIMEI
)

// NasEMMOTA is a decoded LTE NAS EMM over-the-air message. PDU is the
// raw OTA octet string, retained for the packet-capture view.
type NasEMMOTA struct {
	PDU             []byte
	Direction       Direction
	MessageType     NASMessageType
	MobileIdentity  IdentityType    // valid when MessageType == NASAttachRequest
	RequestedID     IdentityType    // valid when MessageType == NASIdentityRequest
	CipherAlgorithm CipherAlgorithm // valid when MessageType == NASSecurityModeCommand
}

func (NasEMMOTA) isIE() {}

// LteServingCellMeas is a decoded physical-layer serving-cell
// measurement record.
type LteServingCellMeas struct {
	PCI     uint16
	EARFCN  uint32
	RSRPDBm float64
}

func (LteServingCellMeas) isIE() {}

// WCDMARrcOTA is a decoded WCDMA (TS 25.331) RRC signalling message. No
// built-in analyzer inspects WCDMA traffic, so the PDU is carried opaque.
type WCDMARrcOTA struct {
	PDU []byte
}

func (WCDMARrcOTA) isIE() {}

// GSMRR is a decoded GSM RR signalling message, carried opaque for the
// same reason as WCDMARrcOTA.
type GSMRR struct {
	PDU []byte
}

func (GSMRR) isIE() {}

// IPTraffic is the IP-traffic passthrough log code: raw bytes with a
// direction, not further parsed.
type IPTraffic struct {
	Bytes     []byte
	Direction Direction
}

func (IPTraffic) isIE() {}

// Unknown is the catch-all for any log code not in the registered
// table; it never represents a decode error, only an uninteresting code.
type Unknown struct {
	Code  uint16
	Bytes []byte
}

func (Unknown) isIE() {}
