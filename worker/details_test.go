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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pennysworth/marketdata/model"
	"github.com/pennysworth/marketdata/orchestrator"
	"github.com/pennysworth/marketdata/store"
	"github.com/pennysworth/marketdata/vendorclient"
)

func TestDetailsTask_NotFoundMarksInactive(t *testing.T) {
	pool := &fakePool{}
	task := &DetailsTask{
		Store:    store.NewWithPool(pool),
		Fetcher:  &fakeSecurityInfoFetcher{info: nil},
		Security: model.Security{ID: 7, Symbol: "DEFUNCT"},
	}

	status, err := task.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, orchestrator.StatusSuccessNoData, status)

	require.Len(t, pool.execs, 1)
	assert.Contains(t, pool.execs[0].sql, "is_active = $1")
	assert.Equal(t, []any{false, int64(7)}, pool.execs[0].args)
}

func TestDetailsTask_MergesVendorFields(t *testing.T) {
	pool := &fakePool{}
	name := "Apple Inc."
	exch := "NASDAQ"
	task := &DetailsTask{
		Store:    store.NewWithPool(pool),
		Fetcher:  &fakeSecurityInfoFetcher{info: &vendorclient.SecurityInfo{Symbol: "AAPL", Name: &name, Exchange: &exch}},
		Security: model.Security{ID: 7, Symbol: "AAPL"},
	}

	status, err := task.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, orchestrator.StatusSuccess, status)

	require.Len(t, pool.execs, 1)
	sql := pool.execs[0].sql
	assert.True(t, strings.Contains(sql, "exchange = $1") || strings.Contains(sql, "exchange = $2"))
	assert.Contains(t, sql, "info_last_updated_at = now()")
	assert.NotContains(t, sql, "symbol")
}

func TestDetailsTask_EnrichesFigiWhenMissing(t *testing.T) {
	pool := &fakePool{}
	task := &DetailsTask{
		Store:    store.NewWithPool(pool),
		Fetcher:  &fakeSecurityInfoFetcher{info: &vendorclient.SecurityInfo{Symbol: "AAPL"}},
		Security: model.Security{ID: 7, Symbol: "AAPL", CompositeFigi: nil},
		Figi:     figiResolverFunc(func(context.Context, string) (string, error) { return "BBG000B9XRY4", nil }),
	}

	status, err := task.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, orchestrator.StatusSuccess, status)

	require.Len(t, pool.execs, 1)
	assert.Contains(t, pool.execs[0].sql, "composite_figi")
	assert.Contains(t, pool.execs[0].args, "BBG000B9XRY4")
}

func TestDetailsTask_SkipsFigiWhenAlreadyKnown(t *testing.T) {
	pool := &fakePool{}
	figi := "BBG000B9XRY4"
	called := false
	task := &DetailsTask{
		Store:    store.NewWithPool(pool),
		Fetcher:  &fakeSecurityInfoFetcher{info: &vendorclient.SecurityInfo{Symbol: "AAPL"}},
		Security: model.Security{ID: 7, Symbol: "AAPL", CompositeFigi: &figi},
		Figi:     figiResolverFunc(func(context.Context, string) (string, error) { called = true; return "ignored", nil }),
	}

	_, err := task.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, called)
}

type figiResolverFunc func(ctx context.Context, symbol string) (string, error)

func (f figiResolverFunc) Resolve(ctx context.Context, symbol string) (string, error) { return f(ctx, symbol) }
