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
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pennysworth/marketdata/model"
	"github.com/pennysworth/marketdata/vendorclient"
)

// decimal.Decimal carries unexported big.Int state, so cmp needs a custom
// comparer for value equality.
var decimalComparer = cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) })

func TestReconcileGroupedDaily_UpdatesKnownSecurities(t *testing.T) {
	date := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	rate := decimal.NewFromFloat(0.015)
	existing := map[int64]model.DailyPrice{
		1: {SecurityID: 1, Date: date, Close: decimal.NewFromInt(9), TurnoverRate: &rate, AdjFactor: decimal.NewFromInt(1)},
	}
	bars := []vendorclient.GroupedBar{
		{Symbol: "AAPL", PriceBar: vendorclient.PriceBar{Date: date, Close: decimal.NewFromInt(10), Volume: 1000}},
	}
	symbolToID := map[string]int64{"AAPL": 1}

	updates := reconcileGroupedDaily(existing, bars, symbolToID)
	require.Len(t, updates, 1)

	// OHLCV taken from the bar; turnover_rate and adj_factor preserved from
	// the loaded row, untouched
	want := model.DailyPrice{
		SecurityID:   1,
		Date:         date,
		Close:        decimal.NewFromInt(10),
		Volume:       1000,
		TurnoverRate: &rate,
		AdjFactor:    decimal.NewFromInt(1),
	}
	if diff := cmp.Diff(want, updates[0], decimalComparer); diff != "" {
		t.Errorf("reconciled row mismatch (-want +got):\n%s", diff)
	}
}

func TestReconcileGroupedDaily_IgnoresUnknownSymbol(t *testing.T) {
	date := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	existing := map[int64]model.DailyPrice{1: {SecurityID: 1, Date: date}}
	bars := []vendorclient.GroupedBar{{Symbol: "UNLISTED"}}

	updates := reconcileGroupedDaily(existing, bars, map[string]int64{})
	assert.Empty(t, updates)
}

func TestReconcileGroupedDaily_IgnoresSecurityWithNoExistingRow(t *testing.T) {
	bars := []vendorclient.GroupedBar{{Symbol: "AAPL"}}
	updates := reconcileGroupedDaily(map[int64]model.DailyPrice{}, bars, map[string]int64{"AAPL": 1})
	assert.Empty(t, updates)
}
