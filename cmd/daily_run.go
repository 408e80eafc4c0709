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
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pennysworth/marketdata/healthcheck"
	"github.com/pennysworth/marketdata/model"
	"github.com/pennysworth/marketdata/orchestrator"
	"github.com/pennysworth/marketdata/store"
	"github.com/pennysworth/marketdata/worker"
)

var (
	dailyRunMarket            string
	dailyRunSkipDetails       bool
	dailyRunSkipActions       bool
	dailyRunSkipEMPrices      bool
	dailyRunSkipPolygonPrices bool
)

// dailyRunCmd is the principal pipeline: details -> actions -> cheap
// incremental prices -> authoritative grouped-daily reprice, each step
// independently skippable. It never pre-validates candidates; every step
// reselects its own via the freshness predicates.
var dailyRunCmd = &cobra.Command{
	Use:   "daily_run",
	Short: "Run the full daily ingestion pipeline",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signalContext()
		defer stop()
		market := model.Market(dailyRunMarket)

		st, err := openStore(ctx)
		if err != nil {
			fatal(err, "could not open store")
		}
		defer st.Close()

		runErr := runDailyPipeline(ctx, st, market)
		if runErr != nil {
			log.Error().Err(runErr).Msg("daily_run encountered errors")
		}

		if pingURL := viper.GetString("HEALTHCHECK_PING_URL"); pingURL != "" {
			if err := healthcheck.Ping(pingURL, runErr == nil); err != nil {
				log.Warn().Err(err).Msg("could not ping healthcheck")
			}
		}

		if runErr != nil {
			fatal(runErr, "daily_run failed")
		}
		log.Info().Msg("daily_run complete")
	},
}

func runDailyPipeline(ctx context.Context, st *store.Store, market model.Market) error {
	workers := workerCount(0)

	if !dailyRunSkipDetails {
		if err := runDetailsStep(ctx, st, market, workers); err != nil {
			return err
		}
	}

	if !dailyRunSkipActions {
		if err := runActionsStep(ctx, st, market, workers); err != nil {
			return err
		}
	}

	if !dailyRunSkipEMPrices {
		if err := runEMPricesStep(ctx, st, market, workers); err != nil {
			return err
		}
	}

	if !dailyRunSkipPolygonPrices {
		if err := runPolygonPricesStep(ctx, st, workers); err != nil {
			return err
		}
	}

	return nil
}

func runDetailsStep(ctx context.Context, st *store.Store, market model.Market, workers int) error {
	candidates, err := st.DetailsCandidates(ctx, store.CandidateQuery{Market: market})
	if err != nil {
		return err
	}

	vendor, err := newPolygonClient()
	if err != nil {
		return err
	}
	figiClient := newFigiClient()

	tasks := make([]orchestrator.Task, 0, len(candidates))
	for _, sec := range candidates {
		tasks = append(tasks, &worker.DetailsTask{Store: st, Fetcher: vendor, Security: sec, Figi: figiClient})
	}

	summary := orchestrator.New(workers).Run(ctx, tasks)
	log.Info().Interface("Counts", summary.Counts).Msg("daily_run: details step complete")
	return nil
}

func runActionsStep(ctx context.Context, st *store.Store, market model.Market, workers int) error {
	candidates, err := st.ActionsCandidates(ctx, store.CandidateQuery{Market: market})
	if err != nil {
		return err
	}

	vendor, err := newPolygonClient()
	if err != nil {
		return err
	}

	tasks := make([]orchestrator.Task, 0, len(candidates))
	for _, sec := range candidates {
		tasks = append(tasks, &worker.ActionsTask{Store: st, Dividends: vendor, Splits: vendor, Security: sec})
	}

	summary := orchestrator.New(workers).Run(ctx, tasks)
	log.Info().Interface("Counts", summary.Counts).Msg("daily_run: actions step complete")
	return nil
}

// runEMPricesStep drives the cheap-vendor price-increment phase.
// Candidates come from two freshness predicates: the ordinary 2-day
// increment check, and the jittered auto-full-refresh election, so a
// security overdue for a complete history re-fetch gets one even though
// its price_data_latest_date is otherwise current.
func runEMPricesStep(ctx context.Context, st *store.Store, market model.Market, workers int) error {
	emMarket := market
	if emMarket == "" {
		emMarket = model.MarketCNA
	}

	incremental, err := st.PriceIncrementCandidates(ctx, store.CandidateQuery{Market: emMarket})
	if err != nil {
		return err
	}

	fullDue, err := st.FullRefreshCandidates(ctx, store.CandidateQuery{Market: emMarket})
	if err != nil {
		return err
	}
	fullSet := make(map[int64]bool, len(fullDue))
	for _, sec := range fullDue {
		fullSet[sec.ID] = true
	}

	vendor := newEastMoneyClient()

	seen := make(map[int64]bool, len(incremental))
	tasks := make([]orchestrator.Task, 0, len(incremental)+len(fullDue))
	for _, sec := range incremental {
		if sec.EMCode == nil {
			continue
		}
		seen[sec.ID] = true
		tasks = append(tasks, &worker.PriceIncrementTask{
			Store:    st,
			Fetcher:  vendor.ForEMCode(*sec.EMCode),
			Security: sec,
			Full:     fullSet[sec.ID],
		})
	}
	for _, sec := range fullDue {
		if seen[sec.ID] || sec.EMCode == nil {
			continue
		}
		tasks = append(tasks, &worker.PriceIncrementTask{
			Store:    st,
			Fetcher:  vendor.ForEMCode(*sec.EMCode),
			Security: sec,
			Full:     true,
		})
	}

	summary := orchestrator.New(workers).Run(ctx, tasks)
	log.Info().Interface("Counts", summary.Counts).Msg("daily_run: em prices step complete")
	return nil
}

// runPolygonPricesStep reconciles yesterday and the day before against
// Polygon's grouped-daily snapshot, giving the authoritative vendor two
// chances to correct a day before it rolls out of the reprice window.
func runPolygonPricesStep(ctx context.Context, st *store.Store, workers int) error {
	securities, err := st.ListActiveSecurities(ctx, model.MarketUS)
	if err != nil {
		return err
	}

	symbolToID := make(map[string]int64, len(securities))
	for _, sec := range securities {
		symbolToID[strings.ToLower(sec.Symbol)] = sec.ID
	}

	vendor, err := newPolygonClient()
	if err != nil {
		return err
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	dates, err := filterTradingDays(ctx, st, model.MarketUS,
		[]time.Time{today.AddDate(0, 0, -2), today.AddDate(0, 0, -1)})
	if err != nil {
		return err
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

	summary := orchestrator.New(workers).Run(ctx, tasks)
	log.Info().Interface("Counts", summary.Counts).Msg("daily_run: polygon prices step complete")
	return nil
}

func init() {
	rootCmd.AddCommand(dailyRunCmd)
	dailyRunCmd.Flags().StringVar(&dailyRunMarket, "market", "", "restrict to one market")
	dailyRunCmd.Flags().BoolVar(&dailyRunSkipDetails, "skip-details", false, "skip the details refresh step")
	dailyRunCmd.Flags().BoolVar(&dailyRunSkipActions, "skip-actions", false, "skip the actions refresh step")
	dailyRunCmd.Flags().BoolVar(&dailyRunSkipEMPrices, "skip-em-prices", false, "skip the East Money price increment step")
	dailyRunCmd.Flags().BoolVar(&dailyRunSkipPolygonPrices, "skip-polygon-prices", false, "skip the Polygon grouped-daily reprice step")
}
