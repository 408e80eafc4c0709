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
package worker

import (
	"context"
	"time"

	"github.com/pennysworth/marketdata/model"
	"github.com/pennysworth/marketdata/orchestrator"
	"github.com/pennysworth/marketdata/store"
	"github.com/pennysworth/marketdata/vendorclient"
)

// GroupedDailyRepriceTask reconciles one trading day's worth of rows
// already written by PriceIncrementTask against a vendor's single grouped
// snapshot for that day, correcting any rows the per-symbol fetch raced.
// It touches only OHLCV/vwap/turnover; turnover_rate and adj_factor are
// left exactly as loaded.
type GroupedDailyRepriceTask struct {
	Store   *store.Store
	Fetcher vendorclient.GroupedDailyFetcher
	Date    time.Time

	// SymbolToSecurityID resolves a vendor symbol to the surrogate id the
	// existing daily_prices rows are keyed by. Symbols with no entry are
	// ignored -- the grouped feed may carry instruments outside the
	// tracked universe.
	SymbolToSecurityID map[string]int64
}

func (t *GroupedDailyRepriceTask) Name() string { return t.Date.Format("2006-01-02") }

// Run loads the day's existing rows, fetches the grouped snapshot, and
// persists the reconciled set.
func (t *GroupedDailyRepriceTask) Run(ctx context.Context) (orchestrator.Status, error) {
	existing, err := t.Store.LoadPricesForDate(ctx, t.Date)
	if err != nil {
		return orchestrator.StatusError, err
	}

	if len(existing) == 0 {
		return orchestrator.StatusSuccessNoData, nil
	}

	bars, err := t.Fetcher.FetchGroupedDaily(ctx, t.Date)
	if err != nil {
		return orchestrator.StatusError, err
	}

	if len(bars) == 0 {
		return orchestrator.StatusSuccessNoData, nil
	}

	updates := reconcileGroupedDaily(existing, bars, t.SymbolToSecurityID)

	if len(updates) == 0 {
		return orchestrator.StatusSuccessNoNewData, nil
	}

	if err := t.Store.BulkUpdatePrices(ctx, updates); err != nil {
		return orchestrator.StatusError, err
	}

	return orchestrator.StatusSuccess, nil
}

// reconcileGroupedDaily merges a grouped-daily vendor snapshot into the
// already-loaded rows for a date, mutating only OHLCV/vwap/turnover. Bars
// for symbols outside SymbolToSecurityID, or for securities with no
// existing row for the date, are ignored -- the grouped feed is a
// correction pass, not a discovery mechanism.
func reconcileGroupedDaily(existing map[int64]model.DailyPrice, bars []vendorclient.GroupedBar, symbolToSecurityID map[string]int64) []model.DailyPrice {
	updates := make([]model.DailyPrice, 0, len(bars))
	for _, bar := range bars {
		securityID, ok := symbolToSecurityID[bar.Symbol]
		if !ok {
			continue
		}
		row, ok := existing[securityID]
		if !ok {
			continue
		}

		row.Open = bar.Open
		row.High = bar.High
		row.Low = bar.Low
		row.Close = bar.Close
		row.Volume = bar.Volume
		row.Turnover = bar.Turnover
		row.VWAP = bar.VWAP
		// turnover_rate and adj_factor are intentionally left untouched

		updates = append(updates, row)
	}
	return updates
}
