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

// StockDividend is one row per (security, ex_dividend_date, cash_amount).
type StockDividend struct {
	SecurityID      int64           `db:"security_id"`
	ExDividendDate  time.Time       `db:"ex_dividend_date"`
	DeclarationDate *time.Time      `db:"declaration_date"`
	RecordDate      *time.Time      `db:"record_date"`
	PayDate         *time.Time      `db:"pay_date"`
	CashAmount      decimal.Decimal `db:"cash_amount"`
	Currency        string          `db:"currency"`
	Frequency       int             `db:"frequency"`
}

// StockSplit is one row per (security, execution_date).
type StockSplit struct {
	SecurityID      int64           `db:"security_id"`
	ExecutionDate   time.Time       `db:"execution_date"`
	DeclarationDate *time.Time      `db:"declaration_date"`
	SplitTo         decimal.Decimal `db:"split_to"`
	SplitFrom       decimal.Decimal `db:"split_from"`
}
