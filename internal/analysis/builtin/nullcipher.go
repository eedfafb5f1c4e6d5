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

// NullCipherAS flags an RRC SecurityModeCommand selecting EEA0: the
// network chose to leave the air interface unencrypted.
type NullCipherAS struct{}

// NewNullCipherAS returns the (stateless) analyzer.
func NewNullCipherAS() *NullCipherAS {
	return &NullCipherAS{}
}

func (a *NullCipherAS) Name() string { return "null_cipher_as" }

func (a *NullCipherAS) Description() string {
	return "Flags RRC security mode commands that select the EEA0 null cipher"
}

func (a *NullCipherAS) Version() int { return 1 }

func (a *NullCipherAS) Update(c diag.Container) *analysis.Event {
	rrc, ok := c.IE.(diag.LteRrcOTA)
	if !ok || rrc.MessageType != diag.RRCSecurityModeCommand {
		return nil
	}
	if rrc.CipherAlgorithm != diag.CipherEEA0 {
		return nil
	}
	return &analysis.Event{
		Severity: analysis.SeverityHigh,
		Message:  "RRC security mode command selected the EEA0 null cipher",
	}
}

// NullCipherNAS is the NAS-layer twin of NullCipherAS: a NAS
// SecurityModeCommand selecting EEA0.
type NullCipherNAS struct{}

// NewNullCipherNAS returns the (stateless) analyzer.
func NewNullCipherNAS() *NullCipherNAS {
	return &NullCipherNAS{}
}

func (a *NullCipherNAS) Name() string { return "null_cipher_nas" }

func (a *NullCipherNAS) Description() string {
	return "Flags NAS security mode commands that select the EEA0 null cipher"
}

func (a *NullCipherNAS) Version() int { return 1 }

func (a *NullCipherNAS) Update(c diag.Container) *analysis.Event {
	nas, ok := c.IE.(diag.NasEMMOTA)
	if !ok || nas.MessageType != diag.NASSecurityModeCommand {
		return nil
	}
	if nas.CipherAlgorithm != diag.CipherEEA0 {
		return nil
	}
	return &analysis.Event{
		Severity: analysis.SeverityHigh,
		Message:  "NAS security mode command selected the EEA0 null cipher",
	}
}
