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
	"github.com/cellwatch/cellwatch/internal/analysis"
	"github.com/cellwatch/cellwatch/internal/diag"
)

// ConnectionRedirect2G flags an RRC Connection Release whose redirect IE
// targets GERAN: being pushed off LTE onto 2G strips the connection of
// mutual authentication and strong ciphering.
type ConnectionRedirect2G struct{}

// NewConnectionRedirect2G returns the (stateless) analyzer.
func NewConnectionRedirect2G() *ConnectionRedirect2G {
	return &ConnectionRedirect2G{}
}

func (a *ConnectionRedirect2G) Name() string { return "connection_redirect_2g_downgrade" }

func (a *ConnectionRedirect2G) Description() string {
	return "Flags RRC connection releases that redirect the UE to a 2G (GERAN) carrier"
}

func (a *ConnectionRedirect2G) Version() int { return 1 }

func (a *ConnectionRedirect2G) Update(c diag.Container) *analysis.Event {
	rrc, ok := c.IE.(diag.LteRrcOTA)
	if !ok || rrc.MessageType != diag.RRCConnectionRelease {
		return nil
	}
	if rrc.RedirectTarget != diag.RedirectGERAN {
		return nil
	}
	return &analysis.Event{
		Severity: analysis.SeverityMedium,
		Message:  "connection release redirected the UE to a 2G (GERAN) carrier",
	}
}
