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

package diagio

import (
	"io"
	"os"
)

// Device is the diag character device, wrapped behind an
// io.ReadWriteCloser the same way mmdvm.Server wraps a net.UDPConn behind
// a small struct with Start/Stop: the real implementation opens
// /dev/diag (or a device path from config), tests substitute an io.Pipe
// or bytes.Buffer-backed fake.
type Device struct {
	rwc io.ReadWriteCloser
}

// OpenDevice opens the character device at path as a Device.
func OpenDevice(path string) (*Device, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fatal(ErrOpenDevice)
	}
	return &Device{rwc: f}, nil
}

// NewDevice wraps an already-open io.ReadWriteCloser as a Device, used by
// tests and by any collaborator that already owns the file descriptor.
func NewDevice(rwc io.ReadWriteCloser) *Device {
	return &Device{rwc: rwc}
}

func (d *Device) Read(p []byte) (int, error) {
	return d.rwc.Read(p)
}

func (d *Device) Write(p []byte) (int, error) {
	return d.rwc.Write(p)
}

// Close closes the underlying device.
func (d *Device) Close() error {
	return d.rwc.Close()
}
