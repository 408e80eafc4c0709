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
package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/pennysworth/marketdata/figi"
	"github.com/pennysworth/marketdata/model"
	"github.com/pennysworth/marketdata/store"
	"github.com/pennysworth/marketdata/vendorclient"
)

// ErrMissingDatabaseURL is returned when DATABASE_URL isn't configured.
var ErrMissingDatabaseURL = errors.New("cmd: DATABASE_URL is not set")

// ErrMissingPolygonKeys is returned when a polygon-backed command is invoked
// without POLYGON_API_KEYS set.
var ErrMissingPolygonKeys = errors.New("cmd: POLYGON_API_KEYS is not set")

// signalContext returns a context cancelled on SIGINT/SIGTERM. Workers
// observe it at task boundaries and inside rate-limiter waits, so a shutdown
// request stops new work without hanging on an admission sleep.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// filterTradingDays drops dates the trading_calendars oracle knows were not
// trading days. When the oracle has no rows at all for the span (population
// is an external job and may not have run), the dates pass through
// unfiltered: the grouped-daily fetch itself treats a non-trading day as an
// empty, non-error response.
func filterTradingDays(ctx context.Context, st *store.Store, market model.Market, dates []time.Time) ([]time.Time, error) {
	if len(dates) == 0 {
		return dates, nil
	}

	days, err := st.TradingDays(ctx, market, dates[0], dates[len(dates)-1])
	if err != nil {
		return nil, err
	}
	if len(days) == 0 {
		return dates, nil
	}

	open := make(map[string]bool, len(days))
	for _, day := range days {
		open[day.TradeDate.Format("2006-01-02")] = true
	}

	out := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		if open[d.Format("2006-01-02")] {
			out = append(out, d)
		}
	}
	return out, nil
}

func openStore(ctx context.Context) (*store.Store, error) {
	dbURL := viper.GetString("DATABASE_URL")
	if dbURL == "" {
		return nil, ErrMissingDatabaseURL
	}
	return store.New(ctx, dbURL)
}

func polygonKeys() []string {
	raw := viper.GetString("POLYGON_API_KEYS")
	if raw == "" {
		return nil
	}
	keys := strings.Split(raw, ",")
	for i := range keys {
		keys[i] = strings.TrimSpace(keys[i])
	}
	return keys
}

// newPolygonClient builds the Polygon vendor client from POLYGON_API_KEYS,
// admitting 5 requests per key per minute -- the free tier's published
// limit; paid tiers override via POLYGON_RATE_LIMIT.
func newPolygonClient() (*vendorclient.Polygon, error) {
	keys := polygonKeys()
	if len(keys) == 0 {
		return nil, ErrMissingPolygonKeys
	}

	rateLimit := viper.GetInt("POLYGON_RATE_LIMIT")
	if rateLimit <= 0 {
		rateLimit = 5
	}

	return vendorclient.NewPolygon(keys, rateLimit, time.Minute, httpTimeout())
}

func newEastMoneyClient() *vendorclient.EastMoney {
	interval := viper.GetDuration("EASTMONEY_MIN_INTERVAL")
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	return vendorclient.NewEastMoney(interval, httpTimeout())
}

func newFigiClient() *figi.Client {
	return figi.NewClient(viper.GetString("OPENFIGI_API_KEY"))
}

func httpTimeout() time.Duration {
	d := viper.GetDuration("HTTP_TIMEOUT")
	if d <= 0 {
		return 10 * time.Second
	}
	return d
}

func workerCount(flagValue int) int {
	if flagValue > 0 {
		return flagValue
	}
	if v := viper.GetInt("DEFAULT_WORKERS"); v > 0 {
		return v
	}
	return 8
}

func fatal(err error, msg string) {
	log.Fatal().Err(err).Msg(msg)
}
