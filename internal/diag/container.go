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

// Container bundles one decoded IE with its timestamp and the
// radio-measurement snapshot cached at construction time. It is
// constructed once per message and dropped after dispatch; it never
// outlives a single pipeline iteration.
type Container struct {
	TS   Timestamp
	IE   IE
	Meas RadioMeasurement

	// Skip is non-nil when the demultiplexer could not decode the
	// message. When set, IE is nil and the pipeline
	// must not consult any analyzer for this container.
	Skip *SkipReason
}

// Skipped reports whether this container carries a skip reason.
func (c Container) Skipped() bool {
	return c.Skip != nil
}
