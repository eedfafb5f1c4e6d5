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

// Package metrics exposes the process's Prometheus counters and gauges:
// transport CRC errors, skipped messages, analyzer rows and events,
// chunk bytes written, and disk-space refusals.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds every counter/gauge this process exports.
type Metrics struct {
	// Transport
	TransportCRCErrorsTotal      prometheus.Counter
	TransportRecoverableTotal    *prometheus.CounterVec
	TransportFramesDecodedTotal  prometheus.Counter

	// Demux/decode
	SkippedMessagesTotal *prometheus.CounterVec

	// Analyzer pipeline
	RowsEmittedTotal    prometheus.Counter
	AnalyzerEventsTotal *prometheus.CounterVec
	AnalyzerPanicsTotal *prometheus.CounterVec

	// Storage
	ChunkBytesWrittenTotal prometheus.Counter
	DiskSpaceRefusalsTotal *prometheus.CounterVec
	OpenChunksGauge        prometheus.Gauge
}

// NewMetrics constructs and registers every metric on the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		TransportCRCErrorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cellwatch_transport_crc_errors_total",
			Help: "Total number of frames dropped for CRC mismatch.",
		}),
		TransportRecoverableTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cellwatch_transport_recoverable_errors_total",
			Help: "Total number of recoverable transport errors, by kind.",
		}, []string{"kind"}),
		TransportFramesDecodedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cellwatch_transport_frames_decoded_total",
			Help: "Total number of frames successfully unframed and CRC-verified.",
		}),
		SkippedMessagesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cellwatch_skipped_messages_total",
			Help: "Total number of log messages that produced a SkippedMessageReason, by reason.",
		}, []string{"reason"}),
		RowsEmittedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cellwatch_rows_emitted_total",
			Help: "Total number of analysis rows emitted by the pipeline.",
		}),
		AnalyzerEventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cellwatch_analyzer_events_total",
			Help: "Total number of events emitted, by analyzer and severity.",
		}, []string{"analyzer", "severity"}),
		AnalyzerPanicsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cellwatch_analyzer_panics_total",
			Help: "Total number of analyzer panics recovered by the pipeline, by analyzer.",
		}, []string{"analyzer"}),
		ChunkBytesWrittenTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cellwatch_qmdl_bytes_written_total",
			Help: "Total number of raw frame bytes appended to QMDL chunks.",
		}),
		DiskSpaceRefusalsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cellwatch_disk_space_refusals_total",
			Help: "Total number of times the disk-space policy refused or stopped recording, by reason.",
		}, []string{"reason"}),
		OpenChunksGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cellwatch_qmdl_open_chunks",
			Help: "Number of QMDL chunks currently open for writing.",
		}),
	}
	m.register()
	return m
}

func (m *Metrics) register() {
	prometheus.MustRegister(
		m.TransportCRCErrorsTotal,
		m.TransportRecoverableTotal,
		m.TransportFramesDecodedTotal,
		m.SkippedMessagesTotal,
		m.RowsEmittedTotal,
		m.AnalyzerEventsTotal,
		m.AnalyzerPanicsTotal,
		m.ChunkBytesWrittenTotal,
		m.DiskSpaceRefusalsTotal,
		m.OpenChunksGauge,
	)
}

// RecordSkippedMessage increments the skipped-message counter for reason.
func (m *Metrics) RecordSkippedMessage(reason string) {
	m.SkippedMessagesTotal.WithLabelValues(reason).Inc()
}

// RecordAnalyzerEvent increments the per-analyzer/severity event counter.
func (m *Metrics) RecordAnalyzerEvent(analyzer, severity string) {
	m.AnalyzerEventsTotal.WithLabelValues(analyzer, severity).Inc()
}

// RecordAnalyzerPanic increments the per-analyzer panic counter.
func (m *Metrics) RecordAnalyzerPanic(analyzer string) {
	m.AnalyzerPanicsTotal.WithLabelValues(analyzer).Inc()
}

// RecordDiskSpaceRefusal increments the disk-space refusal counter for reason.
func (m *Metrics) RecordDiskSpaceRefusal(reason string) {
	m.DiskSpaceRefusalsTotal.WithLabelValues(reason).Inc()
}
