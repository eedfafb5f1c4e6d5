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

// Package builtin holds the built-in cell-site-simulator heuristics.
// Each analyzer is a small deterministic state machine over the IE
// stream; none shares state with another, and cross-analyzer correlation
// would be a new composite analyzer, not a shared pointer.
package builtin

import (
	"github.com/cellwatch/cellwatch/internal/analysis"
	"github.com/cellwatch/cellwatch/internal/config"
)

// FromConfig builds the enabled analyzer set in the fixed registration
// order the report's slot layout depends on. Toggling an analyzer off
// removes its slot; reordering this list is a report format version
// bump.
func FromConfig(cfg config.Analyzers, incompleteSIBWindow int) []analysis.Analyzer {
	var out []analysis.Analyzer
	if cfg.IMSIRequested {
		out = append(out, NewIMSIRequested())
	}
	if cfg.ConnectionRedirect2G {
		out = append(out, NewConnectionRedirect2G())
	}
	if cfg.LTESIB67Downgrade {
		out = append(out, NewSIB67Downgrade())
	}
	if cfg.NullCipherAS {
		out = append(out, NewNullCipherAS())
	}
	if cfg.NullCipherNAS {
		out = append(out, NewNullCipherNAS())
	}
	if cfg.IncompleteSIB {
		out = append(out, NewIncompleteSIB(incompleteSIBWindow))
	}
	return out
}
