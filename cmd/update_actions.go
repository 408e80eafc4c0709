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
	actionsAll     bool
	actionsMarket  string
	actionsForce   bool
	actionsLimit   int
	actionsWorkers int
)

var updateActionsCmd = &cobra.Command{
	Use:   "update_actions [SYMBOL...]",
	Short: "Refresh dividend and split history for securities",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signalContext()
		defer stop()

		if !actionsAll && len(args) == 0 {
			log.Fatal().Msg("specify SYMBOL arguments or --all")
		}

		st, err := openStore(ctx)
		if err != nil {
			fatal(err, "could not open store")
		}
		defer st.Close()

		candidates, err := st.ActionsCandidates(ctx, store.CandidateQuery{
			Market:  model.Market(actionsMarket),
			Symbols: args,
			Force:   actionsForce,
			Limit:   actionsLimit,
		})
		if err != nil {
			fatal(err, "could not select actions candidates")
		}

		vendor, err := newPolygonClient()
		if err != nil {
			fatal(err, "could not build polygon client")
		}

		tasks := make([]orchestrator.Task, 0, len(candidates))
		for _, sec := range candidates {
			tasks = append(tasks, &worker.ActionsTask{Store: st, Dividends: vendor, Splits: vendor, Security: sec})
		}

		summary := orchestrator.New(workerCount(actionsWorkers)).Run(ctx, tasks)
		log.Info().Interface("Counts", summary.Counts).Msg("update_actions complete")
	},
}

func init() {
	rootCmd.AddCommand(updateActionsCmd)
	updateActionsCmd.Flags().BoolVar(&actionsAll, "all", false, "refresh every stale candidate instead of named symbols")
	updateActionsCmd.Flags().StringVar(&actionsMarket, "market", "", "restrict to one market")
	updateActionsCmd.Flags().BoolVar(&actionsForce, "force", false, "ignore the freshness threshold")
	updateActionsCmd.Flags().IntVar(&actionsLimit, "limit", 0, "cap the number of candidates")
	updateActionsCmd.Flags().IntVar(&actionsWorkers, "workers", 0, "worker pool size")
}
