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

// DefaultIncompleteSIBWindow is the default bound on how many subsequent
// RRC messages from the same cell may pass before a SIB3/SIB5 scheduled
// by SIB1 must have been observed.
const DefaultIncompleteSIBWindow = 100

// cellWatch tracks one cell's outstanding scheduled SIBs.
type cellWatch struct {
	awaiting  map[diag.SIBType]struct{}
	remaining int
}

// IncompleteSIB flags cells that broadcast a SIB1 scheduling SIB3/SIB5
// but never deliver them: simulators commonly transmit just enough
// system information to capture a UE and skip the rest. Cells are keyed
// by the cached serving-cell PCI.
type IncompleteSIB struct {
	window int
	cells  map[uint16]*cellWatch
}

// NewIncompleteSIB returns the analyzer with the given message window;
// window values below 1 use DefaultIncompleteSIBWindow.
func NewIncompleteSIB(window int) *IncompleteSIB {
	if window < 1 {
		window = DefaultIncompleteSIBWindow
	}
	return &IncompleteSIB{
		window: window,
		cells:  make(map[uint16]*cellWatch),
	}
}

func (a *IncompleteSIB) Name() string { return "incomplete_sib" }

func (a *IncompleteSIB) Description() string {
	return "Flags cells whose SIB1 schedules SIB3/SIB5 that never arrive within the configured message window"
}

func (a *IncompleteSIB) Version() int { return 1 }

func (a *IncompleteSIB) Update(c diag.Container) *analysis.Event {
	rrc, ok := c.IE.(diag.LteRrcOTA)
	if !ok {
		return nil
	}
	key := c.Meas.PCI

	if rrc.MessageType == diag.RRCSystemInformation && rrc.SIBType == diag.SIB1 {
		a.arm(key, rrc.ScheduledSIBs)
		return nil
	}

	w := a.cells[key]
	if w == nil {
		return nil
	}

	if rrc.MessageType == diag.RRCSystemInformation {
		delete(w.awaiting, rrc.SIBType)
		if len(w.awaiting) == 0 {
			delete(a.cells, key)
			return nil
		}
	}

	w.remaining--
	if w.remaining > 0 {
		return nil
	}

	missing := make([]diag.SIBType, 0, len(w.awaiting))
	for s := range w.awaiting {
		missing = append(missing, s)
	}
	delete(a.cells, key)
	return &analysis.Event{
		Severity: analysis.SeverityLow,
		Message: fmt.Sprintf(
			"cell %d scheduled %d SIB(s) in SIB1 that never arrived within %d messages",
			key, len(missing), a.window),
	}
}

// arm starts (or restarts) the watch for a cell from a fresh SIB1. Only
// SIB3 and SIB5 participate; a SIB1 scheduling neither clears any
// existing watch.
func (a *IncompleteSIB) arm(key uint16, scheduled []diag.SIBType) {
	awaiting := make(map[diag.SIBType]struct{})
	for _, s := range scheduled {
		if s == diag.SIB3 || s == diag.SIB5 {
			awaiting[s] = struct{}{}
		}
	}
	if len(awaiting) == 0 {
		delete(a.cells, key)
		return
	}
	a.cells[key] = &cellWatch{awaiting: awaiting, remaining: a.window}
}
