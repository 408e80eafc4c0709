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
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DailyPrice is one row per (security, date). Pointer fields are optional
// and, on upsert, only written when present in the payload -- see
// store.Store.UpsertDailyPrices.
type DailyPrice struct {
	SecurityID int64     `db:"security_id"`
	Date       time.Time `db:"date"`

	Open  decimal.Decimal `db:"open"`
	High  decimal.Decimal `db:"high"`
	Low   decimal.Decimal `db:"low"`
	Close decimal.Decimal `db:"close"`

	Volume int64 `db:"volume"`

	Turnover     *decimal.Decimal `db:"turnover"`
	VWAP         *decimal.Decimal `db:"vwap"`
	TurnoverRate *decimal.Decimal `db:"turnover_rate"`
	AdjFactor    decimal.Decimal  `db:"adj_factor"`
}

// DefaultAdjFactor is persisted for every newly inserted price row. Computing
// non-trivial adjustment factors is deliberately not done here.
func DefaultAdjFactor() decimal.Decimal {
	return decimal.NewFromInt(1)
}
