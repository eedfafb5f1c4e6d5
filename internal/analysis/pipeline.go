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
	"context"
	"fmt"
	"log/slog"

	"github.com/cellwatch/cellwatch/internal/clock"
	"github.com/cellwatch/cellwatch/internal/diag"
	"github.com/cellwatch/cellwatch/internal/diagio"
	"github.com/cellwatch/cellwatch/internal/metrics"
	"go.opentelemetry.io/otel"
)

// skipReasonUnregistered is the row reason for IEs the demux typed as
// Unknown: a code outside the registered table, not a decode failure.
const skipReasonUnregistered = "unregistered log code"

// Pipeline drives the ordered analyzer set over the decoded IE stream.
// It is single-threaded by contract: event ordering is part of the
// report's meaning, so analyzers are never parallelised.
type Pipeline struct {
	demux     *diag.Demux
	analyzers []Analyzer
	sink      Sink
	clk       *clock.Clock
	metrics   *metrics.Metrics
}

// NewPipeline builds a pipeline over the given ordered analyzers.
// metrics may be nil in tests.
func NewPipeline(analyzers []Analyzer, sink Sink, clk *clock.Clock, m *metrics.Metrics) *Pipeline {
	return &Pipeline{
		demux:     diag.NewDemux(),
		analyzers: analyzers,
		sink:      sink,
		clk:       clk,
		metrics:   m,
	}
}

// Analyzers returns the pipeline's ordered analyzer set, for metadata
// construction and control-surface reporting.
func (p *Pipeline) Analyzers() []Analyzer {
	return p.analyzers
}

// Run writes the metadata header, then consumes log messages until in
// closes or ctx is cancelled. It owns the demux (and with it the radio-
// measurement cache) for its whole lifetime.
func (p *Pipeline) Run(ctx context.Context, in <-chan diagio.LogMessage, version string) error {
	ctx, span := otel.Tracer("cellwatch").Start(ctx, "Pipeline.Run")
	defer span.End()

	md, err := NewReportMetadata(p.analyzers, version)
	if err != nil {
		return err
	}
	if err := p.sink.WriteMetadata(md); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-in:
			if !ok {
				return nil
			}
			if err := p.Process(msg); err != nil {
				return fmt.Errorf("failed to emit analysis row: %w", err)
			}
		}
	}
}

// Process decodes one log message, dispatches it, and emits its row.
func (p *Pipeline) Process(msg diagio.LogMessage) error {
	c := p.demux.Decode(msg)
	return p.sink.WriteRow(p.dispatch(c))
}

// dispatch runs the analyzer set over one container and builds its row.
func (p *Pipeline) dispatch(c diag.Container) Row {
	row := Row{Timestamp: c.TS.Time(p.clk)}

	// Skipped messages and unregistered codes short-circuit: the row is
	// emitted with empty events and analyzers never observe the IE.
	if reason, skipped := skipReason(c); skipped {
		row.Events = []*Event{}
		row.SkippedMessageReason = &reason
		if p.metrics != nil {
			p.metrics.RecordSkippedMessage(reason)
			p.metrics.RowsEmittedTotal.Inc()
		}
		return row
	}

	row.Events = make([]*Event, len(p.analyzers))
	for i, a := range p.analyzers {
		row.Events[i] = p.update(a, c)
		if row.Events[i] != nil && p.metrics != nil {
			p.metrics.RecordAnalyzerEvent(a.Name(), row.Events[i].Severity.String())
		}
	}
	if p.metrics != nil {
		p.metrics.RowsEmittedTotal.Inc()
	}
	return row
}

// update calls one analyzer, converting a panic into a synthetic
// Informational event on that analyzer's slot. The pipeline goroutine
// survives every analyzer bug.
func (p *Pipeline) update(a Analyzer, c diag.Container) (ev *Event) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("analysis: analyzer panicked", "analyzer", a.Name(), "panic", r)
			if p.metrics != nil {
				p.metrics.RecordAnalyzerPanic(a.Name())
			}
			ev = &Event{
				Severity: SeverityInformational,
				Message:  fmt.Sprintf("analyzer %q failed on this message", a.Name()),
			}
		}
	}()
	return a.Update(c)
}

func skipReason(c diag.Container) (string, bool) {
	if c.Skipped() {
		return c.Skip.Error(), true
	}
	if _, unknown := c.IE.(diag.Unknown); unknown {
		return skipReasonUnregistered, true
	}
	return "", false
}
