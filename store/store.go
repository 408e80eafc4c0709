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

// Package store is the transactional UPSERT layer. Every write path is
// idempotent under replay and follows the selective-field merge rule:
// a field absent from a patch is never written, so one vendor's columns
// never clobber another's.
package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxPool is the subset of *pgxpool.Pool the store depends on. Tests
// substitute a fake implementing this interface instead of a live database.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Store wraps a connection pool with the domain's upsert and candidate
// selection operations.
type Store struct {
	pool PgxPool
}

// New connects to dbURL and returns a ready Store. pool_pre_ping-equivalent
// behavior comes for free from pgxpool's own health checking.
func New(ctx context.Context, dbURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		return nil, fmt.Errorf("store: connecting to database: %w", err)
	}
	return &Store{pool: pool}, nil
}

// NewWithPool builds a Store around an already-constructed pool, primarily
// for tests.
func NewWithPool(pool PgxPool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool, if it supports closing.
func (s *Store) Close() {
	if closer, ok := s.pool.(interface{ Close() }); ok {
		closer.Close()
	}
}
