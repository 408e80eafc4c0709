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
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/pennysworth/marketdata/model"
)

// IsTradingDay reads the trading_calendars oracle. The core never writes
// this table; population is an external collaborator's job.
func (s *Store) IsTradingDay(ctx context.Context, market model.Market, date time.Time) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM trading_calendars WHERE market = $1 AND trade_date = $2)`,
		string(market), date).Scan(&exists)
	return exists, err
}

// TradingDays returns the calendar rows for market in [from, to]. An empty
// result may mean the oracle simply hasn't been populated for this market;
// callers decide whether to treat that as "no trading days" or "unknown".
func (s *Store) TradingDays(ctx context.Context, market model.Market, from, to time.Time) ([]model.TradingCalendarDay, error) {
	var rows []model.TradingCalendarDay
	err := pgxscan.Select(ctx, s.pool, &rows,
		`SELECT market, trade_date FROM trading_calendars
		WHERE market = $1 AND trade_date BETWEEN $2 AND $3
		ORDER BY trade_date`,
		string(market), from, to)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
