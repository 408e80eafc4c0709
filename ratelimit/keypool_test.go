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
package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewKeyPoolRejectsEmpty(t *testing.T) {
	_, err := NewKeyPool(nil, 2, time.Minute)
	assert.ErrorIs(t, err, ErrNoKeys)
}

// fakeClock lets tests control "now" deterministically instead of sleeping
// for real, since acquireEpsilon-scale sleeps are fine but a 60s admission
// window is not something a test suite should actually wait on.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// TestAdmissionWithinWindow: keys=[k1,k2], 2 requests per 60s window.
// Five immediate acquires should return k1,k2,k1,k2 then block until the
// window rolls over.
func TestAdmissionWithinWindow(t *testing.T) {
	pool, err := NewKeyPool([]string{"k1", "k2"}, 2, 60*time.Second)
	require.NoError(t, err)

	clock := &fakeClock{now: time.Unix(0, 0)}
	pool.clock = clock.Now

	got := make([]string, 0, 4)
	for i := 0; i < 4; i++ {
		key, wait, ok := pool.tryAcquire()
		require.True(t, ok, "expected immediate admission for request %d", i)
		require.Zero(t, wait)
		got = append(got, key)
	}
	assert.Equal(t, []string{"k1", "k2", "k1", "k2"}, got)

	// fifth request must block: no key is immediately available
	_, wait, ok := pool.tryAcquire()
	assert.False(t, ok)
	assert.Greater(t, wait, time.Duration(0))

	// advance the clock past the window and the oldest k1 admission frees up
	clock.Advance(60 * time.Second)
	key, _, ok := pool.tryAcquire()
	assert.True(t, ok)
	assert.Equal(t, "k1", key)
}

// TestInvariantSlidingWindowBound: across any window-length span,
// admissions for a given key never exceed the limit.
func TestInvariantSlidingWindowBound(t *testing.T) {
	pool, err := NewKeyPool([]string{"only"}, 3, 10*time.Second)
	require.NoError(t, err)

	clock := &fakeClock{now: time.Unix(0, 0)}
	pool.clock = clock.Now

	admissions := 0
	for i := 0; i < 3; i++ {
		_, _, ok := pool.tryAcquire()
		require.True(t, ok)
		admissions++
	}
	assert.Equal(t, 3, admissions)

	_, _, ok := pool.tryAcquire()
	assert.False(t, ok, "fourth admission inside the window must block")
}

func TestAcquireAbortsOnContextCancel(t *testing.T) {
	pool, err := NewKeyPool([]string{"k1"}, 1, time.Hour)
	require.NoError(t, err)

	_, err = pool.Acquire(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = pool.Acquire(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAcquireReturnsDifferentKeysConcurrently(t *testing.T) {
	pool, err := NewKeyPool([]string{"k1", "k2", "k3"}, 1, time.Hour)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]string, 3)
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			key, err := pool.Acquire(context.Background())
			require.NoError(t, err)
			results[idx] = key
		}(i)
	}
	wg.Wait()

	seen := map[string]bool{}
	for _, k := range results {
		seen[k] = true
	}
	assert.Len(t, seen, 3, "all three keys should have been admitted exactly once")
}
