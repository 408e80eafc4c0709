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
package vendorclient

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

// EastMoney adapts East Money's public kline endpoint to
// HistoricalPriceFetcher. East Money is a single-key vendor: one IP, one
// quota, so the standard token-bucket limiter from golang.org/x/time/rate
// is sufficient here and a KeyPool would be overkill.
type EastMoney struct {
	client  *resty.Client
	limiter *rate.Limiter
	baseURL string
}

// NewEastMoney builds an EastMoney client that admits at most one request
// every minInterval.
func NewEastMoney(minInterval time.Duration, httpTimeout time.Duration) *EastMoney {
	client := resty.New().SetTimeout(httpTimeout)
	client.JSONMarshal = json.Marshal
	client.JSONUnmarshal = json.Unmarshal

	return &EastMoney{
		client:  client,
		limiter: rate.NewLimiter(rate.Every(minInterval), 1),
		baseURL: "https://push2his.eastmoney.com/api/qt/stock/kline/get",
	}
}

func (e *EastMoney) Name() string { return "eastmoney" }

type emKlineResponse struct {
	Data *emKlineData `json:"data"`
}

type emKlineData struct {
	Code   string   `json:"code"`
	Klines []string `json:"klines"`
}

// FetchHistoricalPrices implements HistoricalPriceFetcher. emCode is a
// market-prefixed code such as "105.NVDA" (105 = NASDAQ, 106 = NYSE).
// Each kline entry is a comma-joined row:
// date,open,close,high,low,volume,turnover,amplitude,change_pct,change,turnover_rate
func (e *EastMoney) FetchHistoricalPrices(ctx context.Context, emCode string, start, end time.Time) ([]PriceBar, error) {
	logger := zerolog.Ctx(ctx)

	if err := e.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var respContent emKlineResponse
	resp, err := e.client.R().SetContext(ctx).
		SetQueryParams(map[string]string{
			"secid":   emCode,
			"klt":     "101", // daily
			"fqt":     "0",   // unadjusted
			"beg":     start.Format("20060102"),
			"end":     end.Format("20060102"),
			"fields1": "f1,f2,f3,f4,f5",
			"fields2": "f51,f52,f53,f54,f55,f56,f57,f58,f59,f60,f61",
		}).
		SetResult(&respContent).
		Get(e.baseURL)
	if err != nil {
		return nil, err
	}

	if _, serr := checkStatus(logger, resp, e.baseURL); serr != nil {
		return nil, serr
	}

	if respContent.Data == nil {
		return nil, nil
	}

	out := make([]PriceBar, 0, len(respContent.Data.Klines))
	for _, row := range respContent.Data.Klines {
		bar, ok := parseEMKlineRow(row)
		if !ok {
			logger.Debug().Str("EMCode", emCode).Str("Row", row).Msg("skipped malformed eastmoney kline row")
			continue
		}
		out = append(out, bar)
	}

	return out, nil
}

// emCodeFetcher binds a single East Money security code to the
// HistoricalPriceFetcher interface, which is keyed by symbol everywhere
// else in vendorclient. PriceIncrementTask passes the security's own
// symbol as that key; East Money instead needs the market-prefixed code
// stashed on the security row, so the bound code wins and the passed
// symbol is ignored.
type emCodeFetcher struct {
	client *EastMoney
	emCode string
}

// ForEMCode adapts client to HistoricalPriceFetcher for one fixed security,
// identified by its East Money code rather than its trading symbol.
func (e *EastMoney) ForEMCode(emCode string) HistoricalPriceFetcher {
	return emCodeFetcher{client: e, emCode: emCode}
}

func (f emCodeFetcher) FetchHistoricalPrices(ctx context.Context, _ string, start, end time.Time) ([]PriceBar, error) {
	return f.client.FetchHistoricalPrices(ctx, f.emCode, start, end)
}

func parseEMKlineRow(row string) (PriceBar, bool) {
	fields := strings.Split(row, ",")
	if len(fields) < 7 {
		return PriceBar{}, false
	}

	date, err := time.Parse("2006-01-02", fields[0])
	if err != nil {
		return PriceBar{}, false
	}

	open, err1 := decimal.NewFromString(fields[1])
	closePrice, err2 := decimal.NewFromString(fields[2])
	high, err3 := decimal.NewFromString(fields[3])
	low, err4 := decimal.NewFromString(fields[4])
	volume, err5 := strconv.ParseInt(fields[5], 10, 64)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil || err5 != nil {
		return PriceBar{}, false
	}

	bar := PriceBar{
		Date:   date,
		Open:   open,
		High:   high,
		Low:    low,
		Close:  closePrice,
		Volume: volume,
	}

	if turnover, err := decimal.NewFromString(fields[6]); err == nil {
		bar.Turnover = &turnover
	}

	// turnover_rate (field index 10) is reported as a percentage by the
	// vendor; stored as a fraction in [0,1]
	if len(fields) > 10 {
		if rawRate, err := decimal.NewFromString(fields[10]); err == nil {
			pct := rawRate.Div(decimal.NewFromInt(100))
			bar.TurnoverRate = &pct
		}
	}

	return bar, true
}
