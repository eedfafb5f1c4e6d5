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

package clock_test

import (
	"testing"
	"time"

	"github.com/cellwatch/cellwatch/internal/clock"
	"github.com/stretchr/testify/require"
)

func TestTimeAppliesTicksAndOffset(t *testing.T) {
	epoch := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	c := clock.New(epoch, 3600)

	got := c.Time(800) // 800 ticks * 1.25ms = 1s
	want := epoch.Add(time.Second).Add(time.Hour)
	require.True(t, got.Equal(want), "got %s want %s", got, want)
}

func TestTimeZeroTicksIsEpochPlusOffset(t *testing.T) {
	epoch := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	c := clock.New(epoch, -60)

	got := c.Time(0)
	want := epoch.Add(-60 * time.Second)
	require.True(t, got.Equal(want))
}

func TestNowAppliesOffset(t *testing.T) {
	c := clock.New(time.Now(), 10)
	before := time.Now().Add(10 * time.Second)
	got := c.Now()
	require.WithinDuration(t, before, got, time.Second)
}
