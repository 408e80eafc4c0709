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
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/pennysworth/marketdata/model"
	"github.com/pennysworth/marketdata/orchestrator"
	"github.com/pennysworth/marketdata/store"
	"github.com/pennysworth/marketdata/worker"
)

var (
	emFullRefresh bool
	emMarket      string
	emLimit       int
	emWorkers     int
)

var updateEMPricesCmd = &cobra.Command{
	Use:   "update_em_prices [EM_CODE...]",
	Short: "Refresh East Money daily prices",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signalContext()
		defer stop()

		st, err := openStore(ctx)
		if err != nil {
			fatal(err, "could not open store")
		}
		defer st.Close()

		var candidates []model.Security
		if len(args) > 0 {
			for _, code := range args {
				sec, err := st.GetSecurityByEMCode(ctx, code)
				if err != nil {
					fatal(err, "could not look up em_code")
				}
				if sec == nil {
					log.Warn().Str("EMCode", code).Msg("no security with this em_code")
					continue
				}
				candidates = append(candidates, *sec)
			}
		} else {
			market := emMarket
			if market == "" {
				market = string(model.MarketCNA)
			}
			all, err := st.PriceIncrementCandidates(ctx, store.CandidateQuery{
				Market: model.Market(market), Force: emFullRefresh, Limit: emLimit,
			})
			if err != nil {
				fatal(err, "could not select em price candidates")
			}
			for _, sec := range all {
				if sec.EMCode != nil {
					candidates = append(candidates, sec)
				}
			}
		}

		vendor := newEastMoneyClient()

		tasks := make([]orchestrator.Task, 0, len(candidates))
		for _, sec := range candidates {
			if sec.EMCode == nil {
				continue
			}
			tasks = append(tasks, &worker.PriceIncrementTask{
				Store:    st,
				Fetcher:  vendor.ForEMCode(*sec.EMCode),
				Security: sec,
				Full:     emFullRefresh,
			})
		}

		summary := orchestrator.New(workerCount(emWorkers)).Run(ctx, tasks)
		log.Info().Interface("Counts", summary.Counts).Msg("update_em_prices complete")
	},
}

func init() {
	rootCmd.AddCommand(updateEMPricesCmd)
	updateEMPricesCmd.Flags().BoolVar(&emFullRefresh, "full-refresh", false, "refetch full history instead of incremental")
	updateEMPricesCmd.Flags().StringVar(&emMarket, "market", "", "restrict to one market (default CNA)")
	updateEMPricesCmd.Flags().IntVar(&emLimit, "limit", 0, "cap the number of candidates")
	updateEMPricesCmd.Flags().IntVar(&emWorkers, "workers", 0, "worker pool size")
}
