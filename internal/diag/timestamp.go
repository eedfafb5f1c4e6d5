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

// Package diag is the demultiplexer and decoder core: it turns a
// generic (log code, timestamp, payload) diagnostic message into a typed
// Information Element, and owns the pipeline-local radio-measurement
// cache.
package diag

import (
	"time"

	"github.com/cellwatch/cellwatch/internal/clock"
)

// Timestamp is a baseband tick count: 1.25ms units since a per-device
// epoch. It carries no wall-clock meaning on its own; convert with Time.
type Timestamp int64

// Time converts the tick count to wall-clock time using c.
func (t Timestamp) Time(c *clock.Clock) time.Time {
	return c.Time(int64(t))
}
