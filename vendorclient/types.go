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

// Package vendorclient defines the narrow per-capability interfaces external
// market-data vendors implement, and the vendor-neutral record shapes they
// return. Callers (worker) select a vendor by the capability they need
// rather than depending on one fat interface.
package vendorclient

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pennysworth/marketdata/model"
)

// ErrInvalidStatusCode is returned for any non-2xx/non-404 HTTP response
// from a vendor.
var ErrInvalidStatusCode = errors.New("vendorclient: invalid status code received")

// SecurityInfo is the vendor-neutral shape returned by
// SecurityInfoFetcher.FetchSecurityInfo. All fields are optional except
// Symbol; absent fields must not be written by the caller's selective
// merge (see store.Store.UpsertSecurity).
type SecurityInfo struct {
	Symbol         string
	Name           *string
	Exchange       *string
	Currency       *string
	Market         *model.Market
	Type           *model.AssetType
	ListDate       *time.Time
	DelistDate     *time.Time
	CIK            *string
	CompositeFigi  *string
	ShareClassFigi *string
	MarketCap      *decimal.Decimal
	Description    *string
	HomepageURL    *string
	Employees      *int
	SICCode        *string
	AddressLine1   *string
	City           *string
	State          *string
	PostalCode     *string
	LogoURL        *string
	IconURL        *string
	IsActive       *bool
}

// DividendRecord is a single dividend event as reported by a vendor.
type DividendRecord struct {
	ExDividendDate  *time.Time
	DeclarationDate *time.Time
	RecordDate      *time.Time
	PayDate         *time.Time
	CashAmount      *decimal.Decimal
	Currency        string
	Frequency       int
}

// SplitRecord is a single split event as reported by a vendor.
type SplitRecord struct {
	ExecutionDate   *time.Time
	DeclarationDate *time.Time
	SplitTo         *decimal.Decimal
	SplitFrom       *decimal.Decimal
}

// PriceBar is a single day of unadjusted OHLCV(+) data for one symbol.
type PriceBar struct {
	Date         time.Time
	Open         decimal.Decimal
	High         decimal.Decimal
	Low          decimal.Decimal
	Close        decimal.Decimal
	Volume       int64
	Turnover     *decimal.Decimal
	VWAP         *decimal.Decimal
	TurnoverRate *decimal.Decimal
}

// GroupedBar is one symbol's OHLCV for a single grouped-daily response.
type GroupedBar struct {
	Symbol string
	PriceBar
}

// SecurityInfoFetcher is implemented by vendors that can return company
// reference data for a single symbol.
type SecurityInfoFetcher interface {
	// FetchSecurityInfo returns nil, nil when the vendor reports the symbol
	// as not found (HTTP 404). Any other failure is returned as an error.
	FetchSecurityInfo(ctx context.Context, symbol string) (*SecurityInfo, error)
}

// DividendFetcher is implemented by vendors that can enumerate dividend
// history for a symbol. Records missing ExDividendDate or CashAmount are
// filtered by the implementation before they are returned.
type DividendFetcher interface {
	FetchDividends(ctx context.Context, symbol string) ([]DividendRecord, error)
}

// SplitFetcher is implemented by vendors that can enumerate split history
// for a symbol. Records missing ExecutionDate or SplitTo are filtered by the
// implementation before they are returned.
type SplitFetcher interface {
	FetchSplits(ctx context.Context, symbol string) ([]SplitRecord, error)
}

// HistoricalPriceFetcher is implemented by vendors that can return daily
// unadjusted OHLCV bars over a date range.
type HistoricalPriceFetcher interface {
	FetchHistoricalPrices(ctx context.Context, symbol string, start, end time.Time) ([]PriceBar, error)
}

// GroupedDailyFetcher is implemented by vendors that can return every
// instrument's OHLCV for a single trading date in one response. A 404 (or
// empty body) means the date was not a trading day and an empty, non-error
// result is returned.
type GroupedDailyFetcher interface {
	FetchGroupedDaily(ctx context.Context, date time.Time) ([]GroupedBar, error)
}

// MarketStatusFetcher is implemented by vendors that can report whether a
// market is currently open.
type MarketStatusFetcher interface {
	IsMarketOpen(ctx context.Context, market model.Market, at time.Time) (bool, error)
}

// Name is implemented by every vendor client for logging/selection.
type Named interface {
	Name() string
}
