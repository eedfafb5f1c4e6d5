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

// Package qmdl is the raw-log store: a manifest of recordings,
// append-only chunk files of re-framed diagnostic records, a sparse
// (offset, timestamp) index per chunk, and a writer/reader concurrency
// contract built on a per-chunk high-water mark.
package qmdl

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// RecordingState is the lifecycle of one manifest entry.
type RecordingState string

const (
	StateRecording       RecordingState = "recording"
	StateClosed          RecordingState = "closed"
	StateClosedWithError RecordingState = "closed_with_error"
)

// ManifestEntry is the metadata for one recording. The field names are
// the on-disk contract manifest consumers parse.
type ManifestEntry struct {
	ID               string         `json:"id"`
	StartTime        time.Time      `json:"start_time"`
	LastMessageTime  time.Time      `json:"last_message_time"`
	SizeBytes        int64          `json:"size_bytes"`
	RayhunterVersion string         `json:"rayhunter_version"`
	SystemOS         string         `json:"system_os"`
	Arch             string         `json:"arch"`
	State            RecordingState `json:"state"`
}

// Manifest is the structured list of recordings plus an optional pointer
// to the entry currently being written.
type Manifest struct {
	Entries   []ManifestEntry `json:"entries"`
	CurrentID *string         `json:"current_id,omitempty"`
}

// entry returns a pointer into Entries for id, or nil.
func (m *Manifest) entry(id string) *ManifestEntry {
	for i := range m.Entries {
		if m.Entries[i].ID == id {
			return &m.Entries[i]
		}
	}
	return nil
}

const manifestName = "manifest.json"

// loadManifest reads the manifest file; a missing file is an empty
// manifest, not an error, so a fresh store directory just works.
func loadManifest(dir string) (Manifest, error) {
	raw, err := os.ReadFile(filepath.Join(dir, manifestName))
	if errors.Is(err, os.ErrNotExist) {
		return Manifest{}, nil
	}
	if err != nil {
		return Manifest{}, fmt.Errorf("failed to read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return Manifest{}, fmt.Errorf("failed to parse manifest: %w", err)
	}
	return m, nil
}

// save writes the manifest atomically: write-to-temp, fsync, rename. A
// crash mid-save leaves the previous manifest intact.
func (m Manifest) save(dir string) error {
	raw, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}

	tmp, err := os.CreateTemp(dir, manifestName+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create manifest temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write manifest temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync manifest temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close manifest temp file: %w", err)
	}
	if err := os.Rename(tmpName, filepath.Join(dir, manifestName)); err != nil {
		return fmt.Errorf("failed to replace manifest: %w", err)
	}
	return nil
}
