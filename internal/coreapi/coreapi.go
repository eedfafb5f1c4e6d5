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

// Package coreapi is the control surface an external HTTP collaborator
// binds to, expressed as a Go interface plus a status taxonomy. Mounting routes is the external
// HTTP collaborator's job; this package never imports net/http, it only
// gives the collaborator everything needed to map each operation to the
// specified verb, path, and status code.
package coreapi

import (
	"context"
	"errors"
	"io"

	"github.com/cellwatch/cellwatch/internal/qmdl"
)

// Status classifies an operation outcome the way the HTTP collaborator
// is expected to report it.
type Status int

const (
	StatusOK Status = iota
	StatusAccepted
	StatusNotFound
	StatusUnavailable
	StatusForbidden
	StatusInternal
)

// HTTPCode returns the HTTP status code for this outcome.
func (s Status) HTTPCode() int {
	switch s {
	case StatusOK:
		return 200
	case StatusAccepted:
		return 202
	case StatusNotFound:
		return 404
	case StatusUnavailable:
		return 503
	case StatusForbidden:
		return 403
	default:
		return 500
	}
}

// ErrDebugMode indicates a write/delete operation was refused because
// the process runs with debug_mode set.
var ErrDebugMode = errors.New("coreapi: mutations disabled in debug mode")

// StatusOf maps an operation error to its Status. A nil error from a
// mutation is StatusAccepted; a nil error from a read is StatusOK --
// callers pick the success value, this function only classifies
// failures.
func StatusOf(err error) Status {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, qmdl.ErrNotFound):
		return StatusNotFound
	case errors.Is(err, qmdl.ErrNoActiveRecording), errors.Is(err, qmdl.ErrLowDiskSpace):
		return StatusUnavailable
	case errors.Is(err, qmdl.ErrRecordingActive), errors.Is(err, qmdl.ErrRecordingInProgress),
		errors.Is(err, ErrDebugMode):
		return StatusForbidden
	default:
		return StatusInternal
	}
}

// ManifestView is the response body of GET /api/qmdl-manifest.
type ManifestView struct {
	Entries []qmdl.ManifestEntry `json:"entries"`
	Current *qmdl.ManifestEntry  `json:"current_entry,omitempty"`
}

// AnalysisQueue is the response body of GET /api/analysis.
type AnalysisQueue struct {
	Queued   []string `json:"queued"`
	Running  *string  `json:"running"`
	Finished []string `json:"finished"`
}

// API is the operation set the HTTP collaborator binds to its routes:
//
//	GET   /api/qmdl-manifest           Manifest
//	GET   /api/qmdl/{id}               OpenQMDL
//	GET   /api/pcap/{id}               OpenPCAP
//	GET   /api/analysis-report/{id}    OpenReport
//	GET   /api/analysis                AnalysisStatus
//	POST  /api/analysis/{id}           EnqueueAnalysis
//	POST  /api/start-recording         StartRecording
//	POST  /api/stop-recording          StopRecording
//	POST  /api/delete-recording/{id}   DeleteRecording
//
// (GET /api/zip/{id} is OpenQMDL plus OpenPCAP archived by the
// collaborator.) Streams respect the writer's high-water mark and may
// serve a recording still being written.
type API interface {
	Manifest() ManifestView
	OpenQMDL(id string) (io.ReadCloser, error)
	OpenPCAP(id string) (io.ReadCloser, error)
	OpenReport(id string) (io.ReadCloser, error)
	AnalysisStatus() AnalysisQueue
	EnqueueAnalysis(id string) error
	StartRecording(ctx context.Context) error
	StopRecording(ctx context.Context) error
	DeleteRecording(id string) error
}
