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

// Package ratelimit multiplexes a pool of API keys against a shared sliding
// window rate budget. golang.org/x/time/rate models a single token bucket
// per limiter; it has no notion of a *pool* of independently-windowed keys,
// so the admission scheduler here is hand-rolled.
package ratelimit

import (
	"container/list"
	"context"
	"errors"
	"sync"
	"time"
)

// ErrNoKeys is returned by NewKeyPool when given an empty key list.
var ErrNoKeys = errors.New("ratelimit: key pool must not be empty")

const acquireEpsilon = 10 * time.Millisecond

// KeyPool admits callers against R requests per W duration, per key, across
// K keys. It is safe for concurrent use by multiple goroutines.
type KeyPool struct {
	mu      sync.Mutex
	keys    []string
	limit   int
	window  time.Duration
	history map[string]*list.List // oldest-first timestamps (monotonic)
	next    int                   // index the next scan starts from

	clock func() time.Time
}

// NewKeyPool builds a limiter admitting at most limit requests per window,
// per key, for the given keys.
func NewKeyPool(keys []string, limit int, window time.Duration) (*KeyPool, error) {
	if len(keys) == 0 {
		return nil, ErrNoKeys
	}

	history := make(map[string]*list.List, len(keys))
	cp := make([]string, len(keys))
	copy(cp, keys)
	for _, k := range cp {
		history[k] = list.New()
	}

	return &KeyPool{
		keys:    cp,
		limit:   limit,
		window:  window,
		history: history,
		clock:   time.Now,
	}, nil
}

// Acquire blocks until a key is immediately available, returning it. The
// admission moment is recorded against that key's history before Acquire
// returns. Acquire respects ctx cancellation even while sleeping between
// scans, so a global shutdown never hangs on a rate-limit wait.
func (p *KeyPool) Acquire(ctx context.Context) (string, error) {
	for {
		key, wait, ok := p.tryAcquire()
		if ok {
			return key, nil
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return "", ctx.Err()
		case <-timer.C:
		}
	}
}

// tryAcquire scans keys under a single short-held mutex, starting with the
// key after the one admitted last, so admissions rotate across the pool. If
// a key is immediately available it is admitted and returned. Otherwise it
// returns the minimum wait across all keys before the next one frees up.
func (p *KeyPool) tryAcquire() (key string, wait time.Duration, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.clock()

	for i := range p.keys {
		idx := (p.next + i) % len(p.keys)
		k := p.keys[idx]
		h := p.history[k]
		if h.Len() < p.limit {
			h.PushBack(now)
			p.next = (idx + 1) % len(p.keys)
			return k, 0, true
		}

		oldest := h.Front().Value.(time.Time)
		if now.Sub(oldest) >= p.window {
			h.Remove(h.Front())
			h.PushBack(now)
			p.next = (idx + 1) % len(p.keys)
			return k, 0, true
		}
	}

	minWait := time.Duration(-1)
	for _, k := range p.keys {
		oldest := p.history[k].Front().Value.(time.Time)
		remaining := p.window - now.Sub(oldest)
		if minWait < 0 || remaining < minWait {
			minWait = remaining
		}
	}

	if minWait < 0 {
		minWait = 0
	}

	return "", minWait + acquireEpsilon, false
}
