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

// Package clock converts baseband ticks to wall-clock time, applying an
// operator-settable signed offset. The tick-to-duration ratio is fixed
// at 1.25ms per tick; the epoch is a per-device constant, not something
// this package derives.
package clock

import "time"

// TickDuration is the wall-clock duration of a single baseband tick.
const TickDuration = 1250 * time.Microsecond

// EpochQualcommBaseline is the default baseband tick epoch used when a
// device-specific epoch hasn't been supplied. The epoch varies by
// firmware vendor and is not a general invariant; callers pass the right
// one to New.
var EpochQualcommBaseline = time.Date(2007, time.January, 6, 0, 0, 0, 0, time.UTC)

// Clock converts baseband tick counts into wall-clock time.Time values,
// applying a fixed per-device epoch plus an operator-settable offset.
type Clock struct {
	epoch  time.Time
	offset time.Duration
}

// New returns a Clock anchored at epoch with the given signed
// wall-clock offset in seconds.
func New(epoch time.Time, offsetSeconds int64) *Clock {
	return &Clock{
		epoch:  epoch,
		offset: time.Duration(offsetSeconds) * time.Second,
	}
}

// Time converts a raw 1.25ms tick count (diag.Timestamp) to wall-clock time.
func (c *Clock) Time(ticks int64) time.Time {
	return c.epoch.Add(time.Duration(ticks) * TickDuration).Add(c.offset)
}

// Now returns the current wall-clock time with the configured offset
// applied, used for entries not derived from a baseband tick (e.g.
// manifest start_time on chunk rotation).
func (c *Clock) Now() time.Time {
	return time.Now().Add(c.offset)
}
