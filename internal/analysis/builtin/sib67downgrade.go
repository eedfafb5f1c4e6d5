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

package builtin

import (
	"fmt"

	"github.com/cellwatch/cellwatch/internal/analysis"
	"github.com/cellwatch/cellwatch/internal/diag"
)

// SIB67Downgrade flags a SIB6/SIB7 whose inter-RAT frequency list gives
// a 2G/3G carrier a cell-reselection priority strictly greater than the
// serving LTE cell's priority (learned from SIB1): idle UEs will obediently
// reselect down to the weaker RAT.
type SIB67Downgrade struct {
	servingPriority      uint8
	servingPriorityKnown bool
}

// NewSIB67Downgrade returns the analyzer; it stays silent until a SIB1
// establishes the serving cell's own priority.
func NewSIB67Downgrade() *SIB67Downgrade {
	return &SIB67Downgrade{}
}

func (a *SIB67Downgrade) Name() string { return "lte_sib6_7_downgrade" }

func (a *SIB67Downgrade) Description() string {
	return "Flags SIB6/SIB7 inter-RAT reselection priorities that outrank the serving LTE cell"
}

func (a *SIB67Downgrade) Version() int { return 1 }

func (a *SIB67Downgrade) Update(c diag.Container) *analysis.Event {
	rrc, ok := c.IE.(diag.LteRrcOTA)
	if !ok || rrc.MessageType != diag.RRCSystemInformation {
		return nil
	}

	switch rrc.SIBType {
	case diag.SIB1:
		a.servingPriority = rrc.ServingCellPriority
		a.servingPriorityKnown = true
		return nil
	case diag.SIB6, diag.SIB7:
		if !a.servingPriorityKnown {
			return nil
		}
		for _, f := range rrc.InterRATFreqs {
			if f.Priority > a.servingPriority {
				return &analysis.Event{
					Severity: analysis.SeverityMedium,
					Message: fmt.Sprintf(
						"SIB%d assigns inter-RAT ARFCN %d reselection priority %d above the serving cell's %d",
						rrc.SIBType, f.ARFCN, f.Priority, a.servingPriority),
				}
			}
		}
	}
	return nil
}
