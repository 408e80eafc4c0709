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

	"github.com/shopspring/decimal"

	"github.com/pennysworth/marketdata/model"
	"github.com/pennysworth/marketdata/orchestrator"
	"github.com/pennysworth/marketdata/store"
	"github.com/pennysworth/marketdata/vendorclient"
)

// ActionsTask fetches and merges dividend and split history for one
// security.
type ActionsTask struct {
	Store     *store.Store
	Dividends vendorclient.DividendFetcher
	Splits    vendorclient.SplitFetcher
	Security  model.Security
}

func (t *ActionsTask) Name() string { return t.Security.Symbol }

// Run fetches both action types, backfills missing dividend currencies
// from the security's own currency, persists, and stamps.
func (t *ActionsTask) Run(ctx context.Context) (orchestrator.Status, error) {
	divs, err := t.Dividends.FetchDividends(ctx, t.Security.Symbol)
	if err != nil {
		return orchestrator.StatusError, err
	}

	splits, err := t.Splits.FetchSplits(ctx, t.Security.Symbol)
	if err != nil {
		return orchestrator.StatusError, err
	}

	applyCurrencyBackfill(divs, t.Security.Currency)

	modelDivs := toModelDividends(t.Security.ID, divs)
	modelSplits := toModelSplits(t.Security.ID, splits)

	if len(modelDivs) > 0 {
		if err := t.Store.UpsertDividends(ctx, t.Security.ID, modelDivs); err != nil {
			return orchestrator.StatusError, err
		}
	}

	if len(modelSplits) > 0 {
		if err := t.Store.UpsertSplits(ctx, t.Security.ID, modelSplits); err != nil {
			return orchestrator.StatusError, err
		}
	}

	// always stamp, even when both sets are empty, so freshness advances
	if err := t.Store.SetStamp(ctx, t.Security.ID, "actions_last_updated_at", nil); err != nil {
		return orchestrator.StatusError, err
	}

	if len(modelDivs) == 0 && len(modelSplits) == 0 {
		return orchestrator.StatusSuccessNoData, nil
	}
	return orchestrator.StatusSuccess, nil
}

// applyCurrencyBackfill fills a dividend's missing currency from the
// security's own currency. The upstream feed frequently omits currency on
// dividend rows even though the security record has one.
func applyCurrencyBackfill(divs []vendorclient.DividendRecord, securityCurrency *string) {
	if securityCurrency == nil {
		return
	}
	for i := range divs {
		if divs[i].Currency == "" {
			divs[i].Currency = *securityCurrency
		}
	}
}

func toModelDividends(securityID int64, records []vendorclient.DividendRecord) []model.StockDividend {
	out := make([]model.StockDividend, 0, len(records))
	for _, r := range records {
		if r.ExDividendDate == nil || r.CashAmount == nil {
			continue
		}
		out = append(out, model.StockDividend{
			SecurityID:      securityID,
			ExDividendDate:  *r.ExDividendDate,
			DeclarationDate: r.DeclarationDate,
			RecordDate:      r.RecordDate,
			PayDate:         r.PayDate,
			CashAmount:      *r.CashAmount,
			Currency:        r.Currency,
			Frequency:       r.Frequency,
		})
	}
	return out
}

func toModelSplits(securityID int64, records []vendorclient.SplitRecord) []model.StockSplit {
	out := make([]model.StockSplit, 0, len(records))
	for _, r := range records {
		if r.ExecutionDate == nil || r.SplitTo == nil {
			continue
		}
		split := model.StockSplit{
			SecurityID:      securityID,
			ExecutionDate:   *r.ExecutionDate,
			DeclarationDate: r.DeclarationDate,
			SplitTo:         *r.SplitTo,
			SplitFrom:       decimal.NewFromInt(1), // same default as the split_from column
		}
		if r.SplitFrom != nil {
			split.SplitFrom = *r.SplitFrom
		}
		out = append(out, split)
	}
	return out
}
