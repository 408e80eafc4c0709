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
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTask runs a function and reports whatever status/error it returns. It
// also tracks whether it observed ctx cancellation, for the cancellation
// test below.
type fakeTask struct {
	name   string
	status Status
	err    error
	delay  time.Duration
	ran    *atomic.Int32
}

func (f *fakeTask) Name() string { return f.name }

func (f *fakeTask) Run(ctx context.Context) (Status, error) {
	if f.ran != nil {
		f.ran.Add(1)
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return StatusError, ctx.Err()
		}
	}
	return f.status, f.err
}

func ctxWithLogger() context.Context {
	return zerolog.New(zerolog.Nop()).WithContext(context.Background())
}

func TestOrchestrator_TalliesStatusCounts(t *testing.T) {
	o := New(4)
	tasks := []Task{
		&fakeTask{name: "a", status: StatusSuccess},
		&fakeTask{name: "b", status: StatusSuccess},
		&fakeTask{name: "c", status: StatusSuccessNoData},
		&fakeTask{name: "d", status: StatusError, err: errors.New("boom")},
	}

	summary := o.Run(ctxWithLogger(), tasks)

	assert.Equal(t, 2, summary.Counts[StatusSuccess])
	assert.Equal(t, 1, summary.Counts[StatusSuccessNoData])
	assert.Equal(t, 1, summary.Counts[StatusError])
	require.NotNil(t, summary.Errors)
	assert.Len(t, summary.Errors.Errors, 1)
}

func TestOrchestrator_ClampsNonPositiveWorkers(t *testing.T) {
	o := New(0)
	assert.Equal(t, 1, o.Workers)

	o = New(-5)
	assert.Equal(t, 1, o.Workers)
}

func TestOrchestrator_RespectsWorkerBound(t *testing.T) {
	const workers = 2
	var inFlight atomic.Int32
	var maxSeen atomic.Int32
	o := New(workers)

	makeTask := func(name string) Task {
		return &fakeTask{name: name, status: StatusSuccess, delay: 30 * time.Millisecond}
	}

	tasks := make([]Task, 0, 6)
	for i := 0; i < 6; i++ {
		tasks = append(tasks, makeTask("t"))
	}

	wrapped := make([]Task, len(tasks))
	for i, task := range tasks {
		inner := task
		wrapped[i] = &countingTask{inner: inner, inFlight: &inFlight, maxSeen: &maxSeen}
	}

	o.Run(ctxWithLogger(), wrapped)
	assert.LessOrEqual(t, int(maxSeen.Load()), workers)
}

type countingTask struct {
	inner    Task
	inFlight *atomic.Int32
	maxSeen  *atomic.Int32
}

func (c *countingTask) Name() string { return c.inner.Name() }

func (c *countingTask) Run(ctx context.Context) (Status, error) {
	n := c.inFlight.Add(1)
	for {
		cur := c.maxSeen.Load()
		if n <= cur || c.maxSeen.CompareAndSwap(cur, n) {
			break
		}
	}
	defer c.inFlight.Add(-1)
	return c.inner.Run(ctx)
}

func TestOrchestrator_StopsSubmittingAfterCancel(t *testing.T) {
	o := New(1)
	ctx, cancel := context.WithCancel(ctxWithLogger())
	cancel()

	var ran atomic.Int32
	tasks := []Task{
		&fakeTask{name: "a", status: StatusSuccess, ran: &ran},
		&fakeTask{name: "b", status: StatusSuccess, ran: &ran},
	}

	summary := o.Run(ctx, tasks)
	assert.Equal(t, int32(0), ran.Load())
	assert.Equal(t, len(tasks), summary.Counts[StatusSuccess]+summary.Counts[StatusError])
}
