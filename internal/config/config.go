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

// Package config defines the recognised configuration options and
// loads them the way cmd/root.go's configulator.FromContext flow expects:
// a tagged struct, bound from flags/env/YAML outside this package, with a
// Validate method invoked once the process has a complete Config.
package config

import "time"

// DeviceKind selects the on-device display/LED/button collaborator. The
// core never branches on it directly; it is forwarded opaquely to that
// collaborator.
type DeviceKind string

const (
	DeviceOrbic       DeviceKind = "orbic"
	DeviceTP          DeviceKind = "tplink_m7350"
	DeviceWingtech    DeviceKind = "wingtech_ct2mhs01"
	DeviceUnsupported DeviceKind = ""
)

// Analyzers toggles each built-in heuristic by name.
type Analyzers struct {
	IMSIRequested          bool `yaml:"imsi_requested" env:"ANALYZER_IMSI_REQUESTED"`
	ConnectionRedirect2G   bool `yaml:"connection_redirect_2g_downgrade" env:"ANALYZER_CONN_REDIRECT_2G"`
	LTESIB67Downgrade      bool `yaml:"lte_sib6_7_downgrade" env:"ANALYZER_SIB67_DOWNGRADE"`
	NullCipherAS           bool `yaml:"null_cipher_as" env:"ANALYZER_NULL_CIPHER_AS"`
	NullCipherNAS          bool `yaml:"null_cipher_nas" env:"ANALYZER_NULL_CIPHER_NAS"`
	IncompleteSIB          bool `yaml:"incomplete_sib" env:"ANALYZER_INCOMPLETE_SIB"`
}

// DiskSpace holds the free-space thresholds that gate recording.
type DiskSpace struct {
	MinToStartRecordingMB    int64 `yaml:"min_space_to_start_recording_mb" env:"MIN_SPACE_TO_START_RECORDING_MB"`
	MinToContinueRecordingMB int64 `yaml:"min_space_to_continue_recording_mb" env:"MIN_SPACE_TO_CONTINUE_RECORDING_MB"`
}

// QMDL configures the raw-log store.
type QMDL struct {
	StorePath        string        `yaml:"store_path" env:"QMDL_STORE_PATH"`
	MaxChunkSizeMB   int64         `yaml:"max_chunk_size_mb" env:"QMDL_MAX_CHUNK_SIZE_MB"`
	MaxChunkDuration time.Duration `yaml:"max_chunk_duration" env:"QMDL_MAX_CHUNK_DURATION"`
	IndexSampleBytes int64         `yaml:"index_sample_bytes" env:"QMDL_INDEX_SAMPLE_BYTES"`
	DiskSpace        DiskSpace     `yaml:"disk_space"`
}

// Metrics configures the Prometheus metrics server.
type Metrics struct {
	Enabled      bool   `yaml:"enabled" env:"METRICS_ENABLED"`
	Bind         string `yaml:"bind" env:"METRICS_BIND"`
	Port         int    `yaml:"port" env:"METRICS_PORT"`
	OTLPEndpoint string `yaml:"otlp_endpoint" env:"OTLP_ENDPOINT"`
}

// PProf configures the debug pprof server.
type PProf struct {
	Enabled bool   `yaml:"enabled" env:"PPROF_ENABLED"`
	Bind    string `yaml:"bind" env:"PPROF_BIND"`
	Port    int    `yaml:"port" env:"PPROF_PORT"`
}

// LogLevel is the slog level name, bound the same way cmd/root.go switches
// on config.LogLevel to pick a tint handler level.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// Config is the process-wide configuration. Fields belonging only to
// an external collaborator (display, notifier) are kept as opaque
// passthrough values the core never interprets.
type Config struct {
	LogLevel LogLevel `yaml:"log_level" env:"LOG_LEVEL"`

	// DiagDevicePath is the character device the transport opens.
	DiagDevicePath string `yaml:"diag_device_path" env:"DIAG_DEVICE_PATH"`

	// ClockOffsetSeconds is the operator-settable signed wall-clock
	// offset applied when converting baseband ticks.
	ClockOffsetSeconds int64 `yaml:"clock_offset_seconds" env:"CLOCK_OFFSET_SECONDS"`

	QMDL      QMDL      `yaml:"qmdl"`
	Analyzers Analyzers `yaml:"analyzers"`
	Metrics   Metrics   `yaml:"metrics"`
	PProf     PProf     `yaml:"pprof"`

	// IncompleteSIBWindow is the number of subsequent RRC messages from
	// the same cell the incompletesib analyzer waits for a scheduled
	// SIB3/SIB5 before flagging.
	IncompleteSIBWindow int `yaml:"incomplete_sib_window" env:"INCOMPLETE_SIB_WINDOW"`

	// Port is the HTTP collaborator's listen port, passed through
	// unexamined -- this core does not mount a router.
	Port int `yaml:"port" env:"PORT"`
	// DebugMode disables all write/delete control endpoints on the HTTP
	// collaborator.
	DebugMode bool `yaml:"debug_mode" env:"DEBUG_MODE"`

	// Device/UI/notifier passthrough fields: forwarded opaquely to
	// collaborators this core never interprets.
	Device             DeviceKind `yaml:"device" env:"DEVICE"`
	UILevel            int        `yaml:"ui_level" env:"UI_LEVEL"`
	ColorblindMode     bool       `yaml:"colorblind_mode" env:"COLORBLIND_MODE"`
	KeyInputMode       string     `yaml:"key_input_mode" env:"KEY_INPUT_MODE"`
	NtfyURL            string     `yaml:"ntfy_url" env:"NTFY_URL"`
	EnabledNotifications []string `yaml:"enabled_notifications"`
}

// Default returns sane defaults a fresh install can run with.
func Default() Config {
	return Config{
		LogLevel:       LogLevelInfo,
		DiagDevicePath: "/dev/diag",
		QMDL: QMDL{
			StorePath:        "/data/rayhunter/qmdl",
			MaxChunkSizeMB:   256,
			MaxChunkDuration: time.Hour,
			IndexSampleBytes: 1 << 16,
			DiskSpace: DiskSpace{
				MinToStartRecordingMB:    256,
				MinToContinueRecordingMB: 64,
			},
		},
		Analyzers: Analyzers{
			IMSIRequested:        true,
			ConnectionRedirect2G: true,
			LTESIB67Downgrade:    true,
			NullCipherAS:         true,
			NullCipherNAS:        true,
			IncompleteSIB:        true,
		},
		Metrics: Metrics{
			Enabled: true,
			Bind:    "127.0.0.1",
			Port:    9090,
		},
		PProf: PProf{
			Bind: "127.0.0.1",
			Port: 6060,
		},
		IncompleteSIBWindow: 100,
		Port:                8080,
	}
}
