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

package coreapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/cellwatch/cellwatch/internal/analysis"
	"github.com/cellwatch/cellwatch/internal/clock"
	"github.com/cellwatch/cellwatch/internal/metrics"
	"github.com/cellwatch/cellwatch/internal/pcapgen"
	"github.com/cellwatch/cellwatch/internal/qmdl"
	"go.opentelemetry.io/otel"
)

// AnalyzerFactory builds a fresh analyzer set for one report run.
// Analyzers are stateful, so each (re-)analysis needs its own instances.
type AnalyzerFactory func() []analysis.Analyzer

// Service is the concrete API over a qmdl.Store, with a single-worker
// (re-)analysis queue. Mutations are refused wholesale in debug mode.
type Service struct {
	store        *qmdl.Store
	clk          *clock.Clock
	m            *metrics.Metrics
	version      string
	debugMode    bool
	newAnalyzers AnalyzerFactory

	queue *analysisQueue
}

// NewService wires the control surface over store.
func NewService(store *qmdl.Store, clk *clock.Clock, m *metrics.Metrics, factory AnalyzerFactory, version string, debugMode bool) *Service {
	return &Service{
		store:        store,
		clk:          clk,
		m:            m,
		version:      version,
		debugMode:    debugMode,
		newAnalyzers: factory,
		queue:        newAnalysisQueue(),
	}
}

func (s *Service) Manifest() ManifestView {
	view := ManifestView{Entries: s.store.Entries()}
	if id, ok := s.store.CurrentID(); ok {
		for i := range view.Entries {
			if view.Entries[i].ID == id {
				view.Current = &view.Entries[i]
			}
		}
	}
	return view
}

func (s *Service) OpenQMDL(id string) (io.ReadCloser, error) {
	return s.store.OpenChunkReader(id)
}

func (s *Service) OpenPCAP(id string) (io.ReadCloser, error) {
	r, err := s.store.OpenChunkReader(id)
	if err != nil {
		return nil, err
	}
	return pcapgen.NewView(r, s.clk), nil
}

func (s *Service) OpenReport(id string) (io.ReadCloser, error) {
	if _, err := s.store.Entry(id); err != nil {
		return nil, err
	}
	f, err := os.Open(s.store.ReportPath(id))
	if errors.Is(err, os.ErrNotExist) {
		return nil, qmdl.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open report: %w", err)
	}
	return f, nil
}

func (s *Service) AnalysisStatus() AnalysisQueue {
	return s.queue.snapshot()
}

func (s *Service) EnqueueAnalysis(id string) error {
	if _, err := s.store.Entry(id); err != nil {
		return err
	}
	s.queue.enqueue(id)
	return nil
}

func (s *Service) StartRecording(ctx context.Context) error {
	if s.debugMode {
		return ErrDebugMode
	}
	_, err := s.store.StartRecording(ctx)
	return err
}

func (s *Service) StopRecording(ctx context.Context) error {
	if s.debugMode {
		return ErrDebugMode
	}
	return s.store.StopRecording(ctx)
}

func (s *Service) DeleteRecording(id string) error {
	if s.debugMode {
		return ErrDebugMode
	}
	return s.store.DeleteRecording(id)
}

// RunAnalysisWorker processes the (re-)analysis queue one recording at a
// time until ctx is cancelled. A failed run logs and moves on; the queue
// never wedges on one bad recording.
func (s *Service) RunAnalysisWorker(ctx context.Context) error {
	for {
		id, ok := s.queue.next(ctx)
		if !ok {
			return nil
		}
		if err := s.analyze(ctx, id); err != nil {
			slog.Error("coreapi: analysis failed", "id", id, "error", err)
		}
		s.queue.finish(id)
	}
}

func (s *Service) analyze(ctx context.Context, id string) error {
	_, span := otel.Tracer("cellwatch").Start(ctx, "Service.Analyze")
	defer span.End()

	src, err := s.store.OpenChunkReader(id)
	if err != nil {
		return err
	}
	defer src.Close()

	out, err := os.Create(s.store.ReportPath(id))
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	defer out.Close()

	sink := analysis.NewNDJSONSink(out)
	pipeline := analysis.NewPipeline(s.newAnalyzers(), sink, s.clk, s.m)

	md, err := analysis.NewReportMetadata(pipeline.Analyzers(), s.version)
	if err != nil {
		return err
	}
	if err := sink.WriteMetadata(md); err != nil {
		return err
	}

	sc := qmdl.NewFrameScanner(src)
	for {
		msgs, err := sc.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		for _, msg := range msgs {
			if err := pipeline.Process(msg); err != nil {
				return err
			}
		}
	}
	if err := out.Sync(); err != nil {
		return fmt.Errorf("failed to sync report: %w", err)
	}
	slog.Info("coreapi: analysis complete", "id", id)
	return nil
}
