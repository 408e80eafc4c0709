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
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/pennysworth/marketdata/model"
)

// UpsertDailyPrices writes OHLCV rows, merging selectively on conflict:
// ON CONFLICT(security_id, date) updates the OHLCV/vwap/turnover/
// turnover_rate columns from the incoming row but leaves adj_factor alone
// so a later, independent reprice never clobbers it.
func (s *Store) UpsertDailyPrices(ctx context.Context, rows []model.DailyPrice) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("store: begin daily_prices tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const sql = `INSERT INTO daily_prices
		(security_id, date, open, high, low, close, volume, turnover, vwap, turnover_rate, adj_factor)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	ON CONFLICT (security_id, date) DO UPDATE SET
		open = EXCLUDED.open,
		high = EXCLUDED.high,
		low = EXCLUDED.low,
		close = EXCLUDED.close,
		volume = EXCLUDED.volume,
		turnover = COALESCE(EXCLUDED.turnover, daily_prices.turnover),
		vwap = COALESCE(EXCLUDED.vwap, daily_prices.vwap),
		turnover_rate = COALESCE(EXCLUDED.turnover_rate, daily_prices.turnover_rate)`

	for _, row := range rows {
		adj := row.AdjFactor
		if adj.IsZero() {
			adj = model.DefaultAdjFactor()
		}
		if _, err := tx.Exec(ctx, sql, row.SecurityID, row.Date, row.Open, row.High, row.Low, row.Close,
			row.Volume, row.Turnover, row.VWAP, row.TurnoverRate, adj); err != nil {
			return fmt.Errorf("store: upserting daily price for security %d on %s: %w", row.SecurityID, row.Date, err)
		}
	}

	return tx.Commit(ctx)
}

// LoadPricesForDate returns every existing daily_prices row for date,
// keyed by security_id -- the first pass of the grouped-daily
// reconciliation.
func (s *Store) LoadPricesForDate(ctx context.Context, date time.Time) (map[int64]model.DailyPrice, error) {
	var rows []model.DailyPrice
	if err := pgxscan.Select(ctx, s.pool, &rows, `SELECT * FROM daily_prices WHERE date = $1`, date); err != nil {
		return nil, err
	}

	out := make(map[int64]model.DailyPrice, len(rows))
	for _, r := range rows {
		out[r.SecurityID] = r
	}
	return out, nil
}

// BulkUpdatePrices commits a fully-loaded set of DailyPrice rows that were
// read, mutated in memory and are now written back in one transaction --
// the grouped-daily reprice path. Unlike UpsertDailyPrices it writes
// every OHLCV/vwap/turnover column verbatim (the caller already merged),
// and never touches turnover_rate or adj_factor.
func (s *Store) BulkUpdatePrices(ctx context.Context, rows []model.DailyPrice) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("store: begin bulk_update_prices tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const sql = `UPDATE daily_prices SET
		open = $3, high = $4, low = $5, close = $6, volume = $7, turnover = $8, vwap = $9
	WHERE security_id = $1 AND date = $2`

	for _, row := range rows {
		if _, err := tx.Exec(ctx, sql, row.SecurityID, row.Date, row.Open, row.High, row.Low, row.Close,
			row.Volume, row.Turnover, row.VWAP); err != nil {
			return fmt.Errorf("store: bulk updating price for security %d on %s: %w", row.SecurityID, row.Date, err)
		}
	}

	return tx.Commit(ctx)
}
