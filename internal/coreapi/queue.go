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
	"slices"
	"sync"
)

// analysisQueue is the FIFO behind POST /api/analysis/{id} and the
// GET /api/analysis view: queued ids, at most one running, finished ids
// in completion order. Re-enqueueing a queued or running id is a no-op;
// re-enqueueing a finished id removes it from finished and queues a
// fresh run.
type analysisQueue struct {
	mu       sync.Mutex
	queued   []string
	running  *string
	finished []string
	wake     chan struct{}
}

func newAnalysisQueue() *analysisQueue {
	return &analysisQueue{wake: make(chan struct{}, 1)}
}

func (q *analysisQueue) enqueue(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if slices.Contains(q.queued, id) || (q.running != nil && *q.running == id) {
		return
	}
	if i := slices.Index(q.finished, id); i >= 0 {
		q.finished = slices.Delete(q.finished, i, i+1)
	}
	q.queued = append(q.queued, id)

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// next blocks for the next queued id, marking it running. It returns
// false when ctx is cancelled.
func (q *analysisQueue) next(ctx context.Context) (string, bool) {
	for {
		q.mu.Lock()
		if len(q.queued) > 0 {
			id := q.queued[0]
			q.queued = q.queued[1:]
			q.running = &id
			q.mu.Unlock()
			return id, true
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return "", false
		case <-q.wake:
		}
	}
}

func (q *analysisQueue) finish(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.running = nil
	if !slices.Contains(q.finished, id) {
		q.finished = append(q.finished, id)
	}
}

func (q *analysisQueue) snapshot() AnalysisQueue {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := AnalysisQueue{
		Queued:   append([]string(nil), q.queued...),
		Finished: append([]string(nil), q.finished...),
	}
	if q.running != nil {
		id := *q.running
		out.Running = &id
	}
	return out
}
