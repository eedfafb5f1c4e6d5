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

// RadioMeasurement is the latest cached serving-cell snapshot, annotated
// onto every Container.
type RadioMeasurement struct {
	PCI     uint16
	EARFCN  uint32
	RSRPDBm float64
	Valid   bool
}

// Cache holds the most recent radio measurement. It is owned
// exclusively by the pipeline goroutine: a plain struct, not protected
// by a mutex or atomic, and callers other than the pipeline must never
// touch it directly.
type Cache struct {
	current RadioMeasurement
}

// NewCache returns an empty cache (Valid == false until the first
// serving-cell measurement is observed).
func NewCache() *Cache {
	return &Cache{}
}

// Update records a new serving-cell measurement.
func (c *Cache) Update(m LteServingCellMeas) {
	c.current = RadioMeasurement{
		PCI:     m.PCI,
		EARFCN:  m.EARFCN,
		RSRPDBm: m.RSRPDBm,
		Valid:   true,
	}
}

// Snapshot returns the current cached measurement.
func (c *Cache) Snapshot() RadioMeasurement {
	return c.current
}

// ClampRSRPDBm clamps a dBm value to the representable range of an
// 8-bit signed integer, applied only at export boundaries (GSMTAP) --
// the cache and IE retain full float64 precision internally.
func ClampRSRPDBm(dbm float64) int8 {
	const min8, max8 = -128.0, 127.0
	if dbm < min8 {
		return -128
	}
	if dbm > max8 {
		return 127
	}
	return int8(dbm)
}
