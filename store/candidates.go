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
package store

import (
	"context"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/pennysworth/marketdata/model"
)

// CandidateQuery narrows a CandidateSelector call. Symbols bypasses all
// freshness predicates (but never is_active); Limit caps the result set;
// zero Limit means unbounded.
type CandidateQuery struct {
	Market  model.Market
	Symbols []string
	Force   bool
	Limit   int
}

func (q CandidateQuery) hasMarket() bool { return q.Market != "" }

// DetailsCandidates implements the details-refresh predicate:
// is_active AND (info_last_updated_at IS NULL OR older than 30 days), unless
// Force or explicit Symbols are given.
func (s *Store) DetailsCandidates(ctx context.Context, q CandidateQuery) ([]model.Security, error) {
	return s.selectCandidates(ctx, "info_last_updated_at", "30 days", q)
}

// ActionsCandidates implements the actions-refresh predicate: same shape,
// 90-day threshold on actions_last_updated_at.
func (s *Store) ActionsCandidates(ctx context.Context, q CandidateQuery) ([]model.Security, error) {
	return s.selectCandidates(ctx, "actions_last_updated_at", "90 days", q)
}

// PriceIncrementCandidates implements the price-increment predicate:
// is_active AND (price_data_latest_date IS NULL OR older than 2 days).
func (s *Store) PriceIncrementCandidates(ctx context.Context, q CandidateQuery) ([]model.Security, error) {
	return s.selectCandidates(ctx, "price_data_latest_date", "2 days", q)
}

// FullRefreshCandidates implements the jittered auto-full-refresh predicate:
// is_active AND (full_data_last_updated_at IS NULL OR
// now > full_data_last_updated_at + full_refresh_interval days). Force and
// Symbols still apply; the interval itself is per-row, so this cannot be
// expressed with the shared fixed-threshold helper.
func (s *Store) FullRefreshCandidates(ctx context.Context, q CandidateQuery) ([]model.Security, error) {
	sql := `SELECT * FROM securities WHERE is_active = true`
	args := []any{}
	argN := 0

	nextArg := func(v any) string {
		argN++
		args = append(args, v)
		return fmt.Sprintf("$%d", argN)
	}

	if len(q.Symbols) > 0 {
		sql += " AND symbol = ANY(" + nextArg(q.Symbols) + ")"
	} else if !q.Force {
		sql += ` AND (full_data_last_updated_at IS NULL OR
			now() > full_data_last_updated_at + (full_refresh_interval || ' days')::interval)`
	}

	if q.hasMarket() {
		sql += " AND market = " + nextArg(string(q.Market))
	}

	sql += " ORDER BY full_data_last_updated_at ASC NULLS FIRST"

	if q.Limit > 0 {
		sql += " LIMIT " + nextArg(q.Limit)
	}

	var rows []model.Security
	if err := pgxscan.Select(ctx, s.pool, &rows, sql, args...); err != nil {
		return nil, err
	}
	return rows, nil
}

// selectCandidates builds the common "stamp NULL or stale" query shared by
// details, actions and price-increment selection.
func (s *Store) selectCandidates(ctx context.Context, stampCol, threshold string, q CandidateQuery) ([]model.Security, error) {
	sql := `SELECT * FROM securities WHERE is_active = true`
	args := []any{}
	argN := 0

	nextArg := func(v any) string {
		argN++
		args = append(args, v)
		return fmt.Sprintf("$%d", argN)
	}

	if len(q.Symbols) > 0 {
		sql += " AND symbol = ANY(" + nextArg(q.Symbols) + ")"
	} else if !q.Force {
		sql += fmt.Sprintf(" AND (%s IS NULL OR %s < now() - interval '%s')", stampCol, stampCol, threshold)
	}

	if q.hasMarket() {
		sql += " AND market = " + nextArg(string(q.Market))
	}

	sql += fmt.Sprintf(" ORDER BY %s ASC NULLS FIRST", stampCol)

	if q.Limit > 0 {
		sql += " LIMIT " + nextArg(q.Limit)
	}

	var rows []model.Security
	if err := pgxscan.Select(ctx, s.pool, &rows, sql, args...); err != nil {
		return nil, err
	}
	return rows, nil
}
