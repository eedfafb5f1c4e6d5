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

// SkipReason is why a decoder declined to produce an IE: an unknown
// header version or a failed PER-style decode. It is a
// distinct type rather than a bare string so callers can't accidentally
// compare against ad hoc text, and it implements error so it composes
// with the rest of the codebase's fmt.Errorf("...: %w", err) style.
type SkipReason struct {
	reason string
}

// Skip constructs a SkipReason with a short human-readable explanation.
func Skip(reason string) SkipReason {
	return SkipReason{reason: reason}
}

func (s SkipReason) Error() string {
	return s.reason
}

// Common, reused skip reasons.
var (
	SkipUnknownHeaderVersion = Skip("unknown header version")
	SkipTruncatedPayload     = Skip("truncated payload")
	SkipTruncatedPDU         = Skip("truncated pdu")
)
