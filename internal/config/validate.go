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

package config

import "errors"

var (
	// ErrInvalidLogLevel indicates that the provided log level is not valid.
	ErrInvalidLogLevel = errors.New("invalid log level provided")
	// ErrDiagDevicePathRequired indicates that no diagnostic device path was configured.
	ErrDiagDevicePathRequired = errors.New("diag device path is required")
	// ErrInvalidQMDLStorePath indicates that the QMDL store path is empty.
	ErrInvalidQMDLStorePath = errors.New("qmdl store path is required")
	// ErrInvalidQMDLChunkSize indicates the configured chunk size ceiling is not positive.
	ErrInvalidQMDLChunkSize = errors.New("qmdl max chunk size must be positive")
	// ErrInvalidDiskSpaceThresholds indicates the start/continue thresholds are inconsistent.
	ErrInvalidDiskSpaceThresholds = errors.New("min_space_to_continue_recording_mb must not exceed min_space_to_start_recording_mb")
	// ErrInvalidMetricsBindAddress indicates that the provided metrics server bind address is not valid.
	ErrInvalidMetricsBindAddress = errors.New("invalid metrics server bind address provided")
	// ErrInvalidMetricsPort indicates that the provided metrics server port is not valid.
	ErrInvalidMetricsPort = errors.New("invalid metrics server port provided")
	// ErrInvalidPProfBindAddress indicates that the provided pprof server bind address is not valid.
	ErrInvalidPProfBindAddress = errors.New("invalid pprof server bind address provided")
	// ErrInvalidPProfPort indicates that the provided pprof server port is not valid.
	ErrInvalidPProfPort = errors.New("invalid pprof server port provided")
	// ErrInvalidPort indicates that the provided HTTP collaborator port is not valid.
	ErrInvalidPort = errors.New("invalid port provided")
	// ErrInvalidIncompleteSIBWindow indicates the configured window bound is not positive.
	ErrInvalidIncompleteSIBWindow = errors.New("incomplete_sib_window must be positive")
)

// Validate validates the disk-space policy.
func (d DiskSpace) Validate() error {
	if d.MinToContinueRecordingMB > d.MinToStartRecordingMB {
		return ErrInvalidDiskSpaceThresholds
	}
	return nil
}

// Validate validates the QMDL store configuration.
func (q QMDL) Validate() error {
	if q.StorePath == "" {
		return ErrInvalidQMDLStorePath
	}
	if q.MaxChunkSizeMB <= 0 {
		return ErrInvalidQMDLChunkSize
	}
	return q.DiskSpace.Validate()
}

// Validate validates the Metrics configuration.
func (m Metrics) Validate() error {
	if !m.Enabled {
		return nil
	}
	if m.Bind == "" {
		return ErrInvalidMetricsBindAddress
	}
	if m.Port <= 0 || m.Port > 65535 {
		return ErrInvalidMetricsPort
	}
	return nil
}

// Validate validates the PProf configuration.
func (p PProf) Validate() error {
	if !p.Enabled {
		return nil
	}
	if p.Bind == "" {
		return ErrInvalidPProfBindAddress
	}
	if p.Port <= 0 || p.Port > 65535 {
		return ErrInvalidPProfPort
	}
	return nil
}

// Validate validates the full configuration, composing each section's own
// Validate the way cmd/root.go's Config.Validate historically did.
func (c Config) Validate() error {
	switch c.LogLevel {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
	default:
		return ErrInvalidLogLevel
	}

	if c.DiagDevicePath == "" {
		return ErrDiagDevicePathRequired
	}

	if c.Port <= 0 || c.Port > 65535 {
		return ErrInvalidPort
	}

	if c.IncompleteSIBWindow <= 0 {
		return ErrInvalidIncompleteSIBWindow
	}

	if err := c.QMDL.Validate(); err != nil {
		return err
	}

	if err := c.Metrics.Validate(); err != nil {
		return err
	}

	if err := c.PProf.Validate(); err != nil {
		return err
	}

	return nil
}
