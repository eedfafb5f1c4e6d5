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

// IMSIRequested flags a NAS Identity Request for the IMSI that was not
// preceded by an attach-request/authentication-accept pairing in the
// current UE session. A legitimate network only asks for the IMSI when
// it has no stored context for the GUTI; a cell-site simulator asks
// every UE, immediately.
type IMSIRequested struct {
	attachSeen bool
	authPaired bool
}

// NewIMSIRequested returns the analyzer with no session observed yet.
func NewIMSIRequested() *IMSIRequested {
	return &IMSIRequested{}
}

func (a *IMSIRequested) Name() string { return "imsi_requested" }

func (a *IMSIRequested) Description() string {
	return "Tracks NAS identity requests that demand the IMSI outside of a normal attach/authentication exchange"
}

func (a *IMSIRequested) Version() int { return 1 }

func (a *IMSIRequested) Update(c diag.Container) *analysis.Event {
	nas, ok := c.IE.(diag.NasEMMOTA)
	if !ok {
		return nil
	}

	switch nas.MessageType {
	case diag.NASAttachRequest:
		// A new attach starts a new session; any prior pairing is stale.
		a.attachSeen = true
		a.authPaired = false
	case diag.NASAuthenticationAccept:
		if a.attachSeen {
			a.authPaired = true
		}
	case diag.NASIdentityRequest:
		if nas.RequestedID != diag.IdentityIMSI {
			return nil
		}
		if a.attachSeen && a.authPaired {
			return nil
		}
		return &analysis.Event{
			Severity: analysis.SeverityHigh,
			Message:  "network requested IMSI without a completed attach/authentication exchange",
		}
	}
	return nil
}
