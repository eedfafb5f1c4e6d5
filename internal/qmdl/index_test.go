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

package qmdl

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Index entries are monotonic in both offset and timestamp, for the
// writer's sampled index and a rebuilt one alike.
func TestIndexMonotonicity(t *testing.T) {
	t.Parallel()
	s := testStore(t)
	ctx := context.Background()

	id, err := s.StartRecording(ctx)
	require.NoError(t, err)
	w := currentWriter(t, s)

	for ts := int64(1); ts <= 20; ts++ {
		require.NoError(t, w.WriteFrame(logFrame(t, ts*10, byte(ts))))
	}
	require.NoError(t, s.StopRecording(ctx))

	checkMonotonic := func(t *testing.T, entries []IndexEntry) {
		t.Helper()
		require.NotEmpty(t, entries)
		for i := 1; i < len(entries); i++ {
			assert.Less(t, entries[i-1].Offset, entries[i].Offset)
			assert.LessOrEqual(t, entries[i-1].TS, entries[i].TS)
		}
	}

	sampled, err := ReadIndex(s.indexPath(id))
	require.NoError(t, err)
	checkMonotonic(t, sampled)

	rebuilt, err := RebuildIndex(s.chunkPath(id))
	require.NoError(t, err)
	assert.Len(t, rebuilt, 20)
	checkMonotonic(t, rebuilt)

	// With a one-byte sample cadence the writer indexed every frame, so
	// the sampled table and the full rebuild agree exactly.
	if diff := cmp.Diff(sampled, rebuilt); diff != "" {
		t.Fatalf("index mismatch (-sampled +rebuilt):\n%s", diff)
	}
}

func TestReadIndexRejectsPartialRecords(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "x.idx")
	require.NoError(t, os.WriteFile(path, make([]byte, indexEntrySize+3), 0o644))

	_, err := ReadIndex(path)
	assert.ErrorIs(t, err, ErrCorruptIndex)
}

func TestIndexEntryRoundTrip(t *testing.T) {
	t.Parallel()
	want := IndexEntry{Offset: 0xDEADBEEF01, TS: 0x0102030405060708}
	b := want.marshal()
	assert.Equal(t, want, unmarshalIndexEntry(b[:]))
}

func TestManifestSaveLoadRoundTrip(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	id := "1700000000"
	m := Manifest{
		Entries: []ManifestEntry{{
			ID:               id,
			SizeBytes:        42,
			RayhunterVersion: "test",
			State:            StateClosed,
		}},
		CurrentID: &id,
	}
	require.NoError(t, m.save(dir))

	got, err := loadManifest(dir)
	require.NoError(t, err)
	require.Len(t, got.Entries, 1)
	assert.Equal(t, m.Entries[0].ID, got.Entries[0].ID)
	assert.Equal(t, m.Entries[0].SizeBytes, got.Entries[0].SizeBytes)
	require.NotNil(t, got.CurrentID)
	assert.Equal(t, id, *got.CurrentID)

	// A missing manifest is an empty store, not an error.
	empty, err := loadManifest(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, empty.Entries)
	assert.Nil(t, empty.CurrentID)
}
