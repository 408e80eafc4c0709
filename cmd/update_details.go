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
	detailsAll     bool
	detailsMarket  string
	detailsForce   bool
	detailsLimit   int
	detailsWorkers int
)

var updateDetailsCmd = &cobra.Command{
	Use:   "update_details [SYMBOL...]",
	Short: "Refresh company reference data for securities",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signalContext()
		defer stop()

		if !detailsAll && len(args) == 0 {
			log.Fatal().Msg("specify SYMBOL arguments or --all")
		}

		st, err := openStore(ctx)
		if err != nil {
			fatal(err, "could not open store")
		}
		defer st.Close()

		candidates, err := st.DetailsCandidates(ctx, store.CandidateQuery{
			Market:  model.Market(detailsMarket),
			Symbols: args,
			Force:   detailsForce,
			Limit:   detailsLimit,
		})
		if err != nil {
			fatal(err, "could not select details candidates")
		}

		vendor, err := newPolygonClient()
		if err != nil {
			fatal(err, "could not build polygon client")
		}
		figiClient := newFigiClient()

		tasks := make([]orchestrator.Task, 0, len(candidates))
		for _, sec := range candidates {
			tasks = append(tasks, &worker.DetailsTask{Store: st, Fetcher: vendor, Security: sec, Figi: figiClient})
		}

		summary := orchestrator.New(workerCount(detailsWorkers)).Run(ctx, tasks)
		log.Info().Interface("Counts", summary.Counts).Msg("update_details complete")
	},
}

func init() {
	rootCmd.AddCommand(updateDetailsCmd)
	updateDetailsCmd.Flags().BoolVar(&detailsAll, "all", false, "refresh every stale candidate instead of named symbols")
	updateDetailsCmd.Flags().StringVar(&detailsMarket, "market", "", "restrict to one market")
	updateDetailsCmd.Flags().BoolVar(&detailsForce, "force", false, "ignore the freshness threshold")
	updateDetailsCmd.Flags().IntVar(&detailsLimit, "limit", 0, "cap the number of candidates")
	updateDetailsCmd.Flags().IntVar(&detailsWorkers, "workers", 0, "worker pool size")
}
