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

// DefaultHistoryStart is the start of a full-history fetch for a security
// with no known list date.
var DefaultHistoryStart = time.Date(1990, time.January, 1, 0, 0, 0, 0, time.UTC)

// PriceIncrementTask fetches unadjusted daily OHLCV for one security,
// starting the day after its last known price date (or from its list date,
// else DefaultHistoryStart, on a full refresh or when it has no price
// history yet) through the current day.
type PriceIncrementTask struct {
	Store    *store.Store
	Fetcher  vendorclient.HistoricalPriceFetcher
	Security model.Security

	// Full forces a full-history refetch instead of an incremental one.
	Full bool

	// Now overrides the current time; nil means time.Now().
	Now func() time.Time
}

func (t *PriceIncrementTask) Name() string { return t.Security.Symbol }

func (t *PriceIncrementTask) now() time.Time {
	if t.Now != nil {
		return t.Now()
	}
	return time.Now()
}

// Run fetches [start, today] and persists whatever came back, advancing
// the freshness stamps.
func (t *PriceIncrementTask) Run(ctx context.Context) (orchestrator.Status, error) {
	today := t.now()

	// a full run is either explicitly requested, or implied by this
	// security never having a price row
	isFullRun := t.Full || t.Security.PriceDataLatestDate == nil

	start := t.startDate()
	if start.After(today) {
		return orchestrator.StatusSuccessUpToDate, nil
	}

	bars, err := t.Fetcher.FetchHistoricalPrices(ctx, t.Security.Symbol, start, today)
	if err != nil {
		return orchestrator.StatusError, err
	}

	if len(bars) == 0 {
		if !isFullRun {
			yesterday := today.AddDate(0, 0, -1)
			if err := t.Store.SetStamp(ctx, t.Security.ID, "price_data_latest_date", &yesterday); err != nil {
				return orchestrator.StatusError, err
			}
		}
		return orchestrator.StatusSuccessNoNewData, nil
	}

	rows, latest := buildDailyPriceRows(t.Security.ID, bars)

	if err := t.Store.UpsertDailyPrices(ctx, rows); err != nil {
		return orchestrator.StatusError, err
	}

	if err := t.Store.SetStamp(ctx, t.Security.ID, "price_data_latest_date", &latest); err != nil {
		return orchestrator.StatusError, err
	}

	if isFullRun {
		if err := t.Store.SetStamp(ctx, t.Security.ID, "full_data_last_updated_at", nil); err != nil {
			return orchestrator.StatusError, err
		}
	}

	return orchestrator.StatusSuccess, nil
}

// buildDailyPriceRows converts vendor-neutral bars into the rows
// UpsertDailyPrices expects, defaulting AdjFactor and tracking the latest
// date seen so the caller can advance price_data_latest_date.
func buildDailyPriceRows(securityID int64, bars []vendorclient.PriceBar) ([]model.DailyPrice, time.Time) {
	rows := make([]model.DailyPrice, 0, len(bars))
	latest := bars[0].Date
	for _, bar := range bars {
		rows = append(rows, model.DailyPrice{
			SecurityID:   securityID,
			Date:         bar.Date,
			Open:         bar.Open,
			High:         bar.High,
			Low:          bar.Low,
			Close:        bar.Close,
			Volume:       bar.Volume,
			Turnover:     bar.Turnover,
			VWAP:         bar.VWAP,
			TurnoverRate: bar.TurnoverRate,
			AdjFactor:    model.DefaultAdjFactor(),
		})
		if bar.Date.After(latest) {
			latest = bar.Date
		}
	}
	return rows, latest
}

func (t *PriceIncrementTask) startDate() time.Time {
	if !t.Full && t.Security.PriceDataLatestDate != nil {
		return t.Security.PriceDataLatestDate.AddDate(0, 0, 1)
	}
	if t.Security.ListDate != nil {
		return *t.Security.ListDate
	}
	return DefaultHistoryStart
}
