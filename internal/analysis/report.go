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

package analysis

import (
	"encoding/json"
	"fmt"
	"io"
	"runtime"
	"sync"
	"time"

	"github.com/mitchellh/hashstructure/v2"
)

// ReportFormatVersion is the report stream's format version. Appending
// an analyzer does not bump it; reordering analyzers does.
const ReportFormatVersion = 2

// AnalyzerDescriptor names one analyzer in the metadata header, in the
// slot order events appear in rows.
type AnalyzerDescriptor struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Version     int    `json:"version"`
}

// RuntimeInfo records the producing process for the metadata header.
type RuntimeInfo struct {
	Version  string `json:"rayhunter_version"`
	SystemOS string `json:"system_os"`
	Arch     string `json:"arch"`
}

// ReportMetadata is the first record of every report stream.
type ReportMetadata struct {
	FormatVersion   int                  `json:"format_version"`
	Analyzers       []AnalyzerDescriptor `json:"analyzers"`
	AnalyzerSetHash uint64               `json:"analyzer_set_hash"`
	Runtime         RuntimeInfo          `json:"runtime"`
}

// NewReportMetadata builds the metadata record for an ordered analyzer
// set. AnalyzerSetHash is a structural fingerprint of the ordered
// (name, version) descriptor list: consumers compare it against a stored
// report's hash to decide whether a re-analysis is due without diffing
// the whole metadata record.
func NewReportMetadata(analyzers []Analyzer, version string) (ReportMetadata, error) {
	descs := make([]AnalyzerDescriptor, 0, len(analyzers))
	for _, a := range analyzers {
		descs = append(descs, AnalyzerDescriptor{
			Name:        a.Name(),
			Description: a.Description(),
			Version:     a.Version(),
		})
	}
	hash, err := hashstructure.Hash(descs, hashstructure.FormatV2, nil)
	if err != nil {
		return ReportMetadata{}, fmt.Errorf("failed to hash analyzer set: %w", err)
	}
	return ReportMetadata{
		FormatVersion:   ReportFormatVersion,
		Analyzers:       descs,
		AnalyzerSetHash: hash,
		Runtime: RuntimeInfo{
			Version:  version,
			SystemOS: runtime.GOOS,
			Arch:     runtime.GOARCH,
		},
	}, nil
}

// Row is one slice of the report stream: exactly one row per observed
// message, in arrival order. For an analyzed message Events has one
// slot per analyzer in metadata order (nil = no finding); for a skipped
// message Events is empty and SkippedMessageReason says why.
type Row struct {
	Timestamp            time.Time `json:"timestamp"`
	Events               []*Event  `json:"events"`
	SkippedMessageReason *string   `json:"skipped_message_reason"`
}

// Sink consumes a report stream: the metadata header once, then rows.
type Sink interface {
	WriteMetadata(md ReportMetadata) error
	WriteRow(row Row) error
}

// NDJSONSink writes a report as newline-delimited JSON: the first line is
// the ReportMetadata, each following line one Row. Writes are mutex-
// guarded so short-lived reader tasks re-serving a finished report never
// interleave with the pipeline appending to a live one.
type NDJSONSink struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewNDJSONSink returns a sink writing to w. json.Encoder terminates each
// value with a newline, which is exactly the framing the .ndjson contract
// wants; no marshaling framework is needed for one object per line.
func NewNDJSONSink(w io.Writer) *NDJSONSink {
	return &NDJSONSink{enc: json.NewEncoder(w)}
}

func (s *NDJSONSink) WriteMetadata(md ReportMetadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enc.Encode(md); err != nil {
		return fmt.Errorf("failed to encode report metadata: %w", err)
	}
	return nil
}

func (s *NDJSONSink) WriteRow(row Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if row.Events == nil {
		// A skipped row serialises as "events": [], not null;
		// consumers count skipped rows, they don't error on them.
		row.Events = []*Event{}
	}
	if err := s.enc.Encode(row); err != nil {
		return fmt.Errorf("failed to encode report row: %w", err)
	}
	return nil
}
