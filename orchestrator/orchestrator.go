// Copyright 2024
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
)

// Task is one unit of work dispatched by the Orchestrator: a single
// security's details/actions/price-increment fetch, or one calendar date's
// grouped-daily reprice. Implementations must convert every internal
// failure into a Status plus error rather than panicking.
type Task interface {
	// Name identifies the task for logging, e.g. a symbol or a date.
	Name() string
	Run(ctx context.Context) (Status, error)
}

// Summary is the accounting the Orchestrator produces for one batch.
type Summary struct {
	RunID     uuid.UUID
	StartTime time.Time
	EndTime   time.Time
	Counts    map[Status]int
	Errors    *multierror.Error
}

// Orchestrator dispatches Tasks across a bounded pool of Workers goroutines.
// It owns no persistent state; it only holds the concurrency policy.
type Orchestrator struct {
	Workers int
}

// New builds an Orchestrator with the given worker-pool size. A
// non-positive size is clamped to 1: a pool of zero workers would never
// drain its queue.
func New(workers int) *Orchestrator {
	if workers < 1 {
		workers = 1
	}
	return &Orchestrator{Workers: workers}
}

// Run submits every task to the pool and blocks until all have completed or
// ctx is cancelled. Cancellation stops new tasks from starting, and every
// task that never starts is tallied as StatusError; tasks already running
// are allowed to finish (or to observe ctx themselves at their own
// suspension points, e.g. rate-limiter acquires).
func (o *Orchestrator) Run(ctx context.Context, tasks []Task) *Summary {
	summary := &Summary{
		RunID:     uuid.New(),
		StartTime: time.Now(),
		Counts:    make(map[Status]int),
	}

	logger := zerolog.Ctx(ctx).With().Str("RunID", summary.RunID.String()).Logger()

	taskCh := make(chan Task)
	var mu sync.Mutex
	var wg sync.WaitGroup

	total := len(tasks)
	completed := 0

	for i := 0; i < o.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range taskCh {
				if ctx.Err() != nil {
					mu.Lock()
					summary.Counts[StatusError]++
					completed++
					mu.Unlock()
					continue
				}

				status, err := task.Run(ctx)

				mu.Lock()
				summary.Counts[status]++
				completed++
				if err != nil {
					summary.Errors = multierror.Append(summary.Errors, err)
					logger.Error().Err(err).Str("Task", task.Name()).Str("Status", string(status)).Msg("task failed")
				}
				// progress heartbeat; informational only
				if completed%100 == 0 || completed == total {
					logger.Info().Int("Completed", completed).Int("Total", total).
						Int("Percent", completed*100/total).Msg("progress")
				}
				mu.Unlock()
			}
		}()
	}

feed:
	for i, task := range tasks {
		select {
		case taskCh <- task:
		case <-ctx.Done():
			mu.Lock()
			summary.Counts[StatusError] += len(tasks) - i
			completed += len(tasks) - i
			mu.Unlock()
			break feed
		}
	}
	close(taskCh)

	wg.Wait()
	summary.EndTime = time.Now()

	logger.Info().Interface("Counts", summary.Counts).
		Str("Duration", summary.EndTime.Sub(summary.StartTime).String()).
		Msg("run complete")

	return summary
}
