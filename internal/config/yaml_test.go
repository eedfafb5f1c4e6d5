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
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// The yaml tags are the config-file contract; this pins the option names
// of the recognised-option table so a rename doesn't slip through as a
// silently ignored key.
func TestConfigYAMLOptionNames(t *testing.T) {
	t.Parallel()

	const doc = `
log_level: debug
diag_device_path: /dev/diag
clock_offset_seconds: -3600
debug_mode: true
port: 9000
qmdl:
  store_path: /tmp/qmdl
  max_chunk_size_mb: 64
  disk_space:
    min_space_to_start_recording_mb: 128
    min_space_to_continue_recording_mb: 32
analyzers:
  imsi_requested: true
  connection_redirect_2g_downgrade: false
  lte_sib6_7_downgrade: true
  null_cipher_as: true
  null_cipher_nas: false
  incomplete_sib: true
incomplete_sib_window: 50
`

	var cfg config.Config
	require.NoError(t, yaml.Unmarshal([]byte(doc), &cfg))

	assert.Equal(t, config.LogLevelDebug, cfg.LogLevel)
	assert.Equal(t, "/dev/diag", cfg.DiagDevicePath)
	assert.Equal(t, int64(-3600), cfg.ClockOffsetSeconds)
	assert.True(t, cfg.DebugMode)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "/tmp/qmdl", cfg.QMDL.StorePath)
	assert.Equal(t, int64(64), cfg.QMDL.MaxChunkSizeMB)
	assert.Equal(t, int64(128), cfg.QMDL.DiskSpace.MinToStartRecordingMB)
	assert.Equal(t, int64(32), cfg.QMDL.DiskSpace.MinToContinueRecordingMB)
	assert.True(t, cfg.Analyzers.IMSIRequested)
	assert.False(t, cfg.Analyzers.ConnectionRedirect2G)
	assert.False(t, cfg.Analyzers.NullCipherNAS)
	assert.Equal(t, 50, cfg.IncompleteSIBWindow)
}
