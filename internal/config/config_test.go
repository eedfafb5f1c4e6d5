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

package config_test

import (
	"testing"

	"github.com/cellwatch/cellwatch/internal/config"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValidates(t *testing.T) {
	cfg := config.Default()
	require.NoError(t, cfg.Validate())
}

func TestValidateRejectsBadLogLevel(t *testing.T) {
	cfg := config.Default()
	cfg.LogLevel = "chatty"
	require.ErrorIs(t, cfg.Validate(), config.ErrInvalidLogLevel)
}

func TestValidateRequiresDiagDevicePath(t *testing.T) {
	cfg := config.Default()
	cfg.DiagDevicePath = ""
	require.ErrorIs(t, cfg.Validate(), config.ErrDiagDevicePathRequired)
}

func TestValidateRejectsInvertedDiskSpaceThresholds(t *testing.T) {
	cfg := config.Default()
	cfg.QMDL.DiskSpace.MinToStartRecordingMB = 10
	cfg.QMDL.DiskSpace.MinToContinueRecordingMB = 20
	require.ErrorIs(t, cfg.Validate(), config.ErrInvalidDiskSpaceThresholds)
}

func TestValidateRejectsNonPositiveIncompleteSIBWindow(t *testing.T) {
	cfg := config.Default()
	cfg.IncompleteSIBWindow = 0
	require.ErrorIs(t, cfg.Validate(), config.ErrInvalidIncompleteSIBWindow)
}

func TestValidateRejectsBadMetricsConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Metrics.Enabled = true
	cfg.Metrics.Port = 0
	require.ErrorIs(t, cfg.Validate(), config.ErrInvalidMetricsPort)
}
