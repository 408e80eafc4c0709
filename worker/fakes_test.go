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

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pennysworth/marketdata/vendorclient"
)

// fakePool is a minimal store.PgxPool substitute recording every Exec call.
// Query and Begin are deliberately unimplemented: no worker test here needs
// a transaction or a result set; branches that do are covered against a
// real database outside this package.
type fakePool struct {
	execs   []execCall
	execErr error
}

type execCall struct {
	sql  string
	args []any
}

func (f *fakePool) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execs = append(f.execs, execCall{sql: sql, args: args})
	return pgconn.CommandTag{}, f.execErr
}

func (f *fakePool) Query(_ context.Context, _ string, _ ...any) (pgx.Rows, error) {
	panic("fakePool: Query not implemented for this test")
}

func (f *fakePool) QueryRow(_ context.Context, _ string, _ ...any) pgx.Row {
	panic("fakePool: QueryRow not implemented for this test")
}

func (f *fakePool) Begin(_ context.Context) (pgx.Tx, error) {
	panic("fakePool: Begin not implemented for this test")
}

// fakeSecurityInfoFetcher stubs vendorclient.SecurityInfoFetcher.
type fakeSecurityInfoFetcher struct {
	info *vendorclient.SecurityInfo
	err  error
}

func (f *fakeSecurityInfoFetcher) FetchSecurityInfo(_ context.Context, _ string) (*vendorclient.SecurityInfo, error) {
	return f.info, f.err
}

// fakeDividendFetcher stubs vendorclient.DividendFetcher.
type fakeDividendFetcher struct {
	records []vendorclient.DividendRecord
	err     error
}

func (f *fakeDividendFetcher) FetchDividends(_ context.Context, _ string) ([]vendorclient.DividendRecord, error) {
	return f.records, f.err
}

// fakeSplitFetcher stubs vendorclient.SplitFetcher.
type fakeSplitFetcher struct {
	records []vendorclient.SplitRecord
	err     error
}

func (f *fakeSplitFetcher) FetchSplits(_ context.Context, _ string) ([]vendorclient.SplitRecord, error) {
	return f.records, f.err
}

// fakeHistoricalPriceFetcher stubs vendorclient.HistoricalPriceFetcher.
type fakeHistoricalPriceFetcher struct {
	bars []vendorclient.PriceBar
	err  error
}

func (f *fakeHistoricalPriceFetcher) FetchHistoricalPrices(_ context.Context, _ string, _, _ time.Time) ([]vendorclient.PriceBar, error) {
	return f.bars, f.err
}

// fakeGroupedDailyFetcher stubs vendorclient.GroupedDailyFetcher.
type fakeGroupedDailyFetcher struct {
	bars []vendorclient.GroupedBar
	err  error
}

func (f *fakeGroupedDailyFetcher) FetchGroupedDaily(_ context.Context, _ time.Time) ([]vendorclient.GroupedBar, error) {
	return f.bars, f.err
}
