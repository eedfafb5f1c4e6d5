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

// Package analysis is the analyzer framework: a fixed ordered pipeline
// of stateful detectors over the IE stream, producing a report whose row
// shape is stable for the lifetime of the report.
package analysis

import (
	"encoding/json"
	"fmt"

	"github.com/cellwatch/cellwatch/internal/diag"
)

// Severity orders event findings from context to alarm.
type Severity uint8

const (
	SeverityInformational Severity = iota
	SeverityLow
	SeverityMedium
	SeverityHigh
)

func (s Severity) String() string {
	switch s {
	case SeverityInformational:
		return "Informational"
	case SeverityLow:
		return "Low"
	case SeverityMedium:
		return "Medium"
	case SeverityHigh:
		return "High"
	default:
		return fmt.Sprintf("Severity(%d)", uint8(s))
	}
}

// MarshalJSON encodes the severity as its name; the report stream is a
// human-adjacent contract and numeric enum values would leak Go ordering.
func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a severity name written by MarshalJSON.
func (s *Severity) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return err
	}
	switch name {
	case "Informational":
		*s = SeverityInformational
	case "Low":
		*s = SeverityLow
	case "Medium":
		*s = SeverityMedium
	case "High":
		*s = SeverityHigh
	default:
		return fmt.Errorf("analysis: unknown severity %q", name)
	}
	return nil
}

// Event is one finding emitted by an analyzer.
type Event struct {
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// Analyzer is a stateful detector. Update is called exactly once per
// IE in arrival order on the pipeline goroutine; it may mutate the
// analyzer's private state and must not block or suspend. Analyzers must
// be deterministic functions of the IE sequence they have observed.
type Analyzer interface {
	Name() string
	Description() string
	Version() int
	Update(c diag.Container) *Event
}
