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

// LogCode is a 16-bit diagnostic log code. The closed table below is
// owned here, not in package diag, because the control dialog needs it
// to build the per-equipment-id bitmask requests; package diag imports
// these constants to build its decode-dispatch table.
type LogCode uint16

// Registered log codes of interest. Anything not in this list is still
// delivered (nothing in the control dialog suppresses unlisted codes
// outright) and decodes to diag.Unknown.
const (
	LogCodeLteRRCOTA        LogCode = 0xB0C0
	LogCodeLteNASEMMOTAIn   LogCode = 0xB0E2
	LogCodeLteNASEMMOTAOut  LogCode = 0xB0E3
	LogCodeLteMl1ServingMeas LogCode = 0xB193
	LogCodeWCDMARRCOTA      LogCode = 0x412F
	LogCodeGSMRR            LogCode = 0x512F
	LogCodeIPTraffic        LogCode = 0x11EB
)

// equipmentID groups registered codes the way the dialog partitions its
// SET_MASK requests: one request per equipment ID, each carrying only
// the codes belonging to that equipment's log-mask range.
type equipmentID uint8

const (
	equipmentLTE   equipmentID = 0x0B
	equipmentWCDMA equipmentID = 0x04
	equipmentGSM   equipmentID = 0x05
	equipmentOther equipmentID = 0x01
)

// logCodePartitions maps each registered code to the equipment-ID
// partition its SET_MASK request belongs to.
var logCodePartitions = map[LogCode]equipmentID{
	LogCodeLteRRCOTA:         equipmentLTE,
	LogCodeLteNASEMMOTAIn:    equipmentLTE,
	LogCodeLteNASEMMOTAOut:   equipmentLTE,
	LogCodeLteMl1ServingMeas: equipmentLTE,
	LogCodeWCDMARRCOTA:       equipmentWCDMA,
	LogCodeGSMRR:             equipmentGSM,
	LogCodeIPTraffic:         equipmentOther,
}

// partitionedLogCodes groups the registered table by equipment ID, in a
// stable order, for the control dialog to iterate over.
func partitionedLogCodes() map[equipmentID][]LogCode {
	out := make(map[equipmentID][]LogCode)
	for _, code := range []LogCode{
		LogCodeLteRRCOTA,
		LogCodeLteNASEMMOTAIn,
		LogCodeLteNASEMMOTAOut,
		LogCodeLteMl1ServingMeas,
		LogCodeWCDMARRCOTA,
		LogCodeGSMRR,
		LogCodeIPTraffic,
	} {
		eq := logCodePartitions[code]
		out[eq] = append(out[eq], code)
	}
	return out
}
