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
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/pennysworth/marketdata/model"
	"github.com/pennysworth/marketdata/orchestrator"
	"github.com/pennysworth/marketdata/worker"
)

var (
	polygonPricesStartDate string
	polygonPricesEndDate   string
	polygonPricesWorkers   int
)

const dateLayout = "2006-01-02"

// updatePolygonPricesCmd implements the grouped-daily reprice sweep: an
// authoritative, single-request-per-day correction pass over whatever the
// cheap incremental vendors already wrote.
var updatePolygonPricesCmd = &cobra.Command{
	Use:   "update_polygon_prices",
	Short: "Reconcile daily prices against Polygon's grouped-daily snapshot",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signalContext()
		defer stop()

		start, err := time.Parse(dateLayout, polygonPricesStartDate)
		if err != nil {
			fatal(err, "invalid --start-date")
		}
		end, err := time.Parse(dateLayout, polygonPricesEndDate)
		if err != nil {
			fatal(err, "invalid --end-date")
		}

		st, err := openStore(ctx)
		if err != nil {
			fatal(err, "could not open store")
		}
		defer st.Close()

		securities, err := st.ListActiveSecurities(ctx, model.MarketUS)
		if err != nil {
			fatal(err, "could not list active securities")
		}

		symbolToID := make(map[string]int64, len(securities))
		for _, sec := range securities {
			symbolToID[strings.ToLower(sec.Symbol)] = sec.ID
		}

		vendor, err := newPolygonClient()
		if err != nil {
			fatal(err, "could not build polygon client")
		}

		dates := make([]time.Time, 0)
		for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
			dates = append(dates, d)
		}
		dates, err = filterTradingDays(ctx, st, model.MarketUS, dates)
		if err != nil {
			fatal(err, "could not read trading calendar")
		}

		tasks := make([]orchestrator.Task, 0, len(dates))
		for _, d := range dates {
			tasks = append(tasks, &worker.GroupedDailyRepriceTask{
				Store:              st,
				Fetcher:            vendor,
				Date:               d,
				SymbolToSecurityID: symbolToID,
			})
		}

		summary := orchestrator.New(workerCount(polygonPricesWorkers)).Run(ctx, tasks)
		log.Info().Interface("Counts", summary.Counts).Msg("update_polygon_prices complete")
	},
}

func init() {
	rootCmd.AddCommand(updatePolygonPricesCmd)
	updatePolygonPricesCmd.Flags().StringVar(&polygonPricesStartDate, "start-date", "", "first date to reconcile, YYYY-MM-DD")
	updatePolygonPricesCmd.Flags().StringVar(&polygonPricesEndDate, "end-date", "", "last date to reconcile, YYYY-MM-DD")
	updatePolygonPricesCmd.Flags().IntVar(&polygonPricesWorkers, "workers", 0, "worker pool size")
	_ = updatePolygonPricesCmd.MarkFlagRequired("start-date")
	_ = updatePolygonPricesCmd.MarkFlagRequired("end-date")
}
