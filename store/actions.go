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
package store

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/pennysworth/marketdata/model"
)

// UpsertDividends batch-inserts dividend records with ON CONFLICT DO NOTHING
// on (security_id, ex_dividend_date, cash_amount), so replaying the same
// fetch is a no-op. A bad row is logged with its payload and skipped via
// its own savepoint rather than aborting the whole batch.
func (s *Store) UpsertDividends(ctx context.Context, securityID int64, rows []model.StockDividend) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const sql = `INSERT INTO stock_dividends
		(security_id, ex_dividend_date, declaration_date, record_date, pay_date, cash_amount, currency, frequency)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (security_id, ex_dividend_date, cash_amount) DO NOTHING`

	logger := zerolog.Ctx(ctx)
	for _, row := range rows {
		sp, err := tx.Begin(ctx) // savepoint
		if err != nil {
			return err
		}
		if _, err := sp.Exec(ctx, sql, securityID, row.ExDividendDate, row.DeclarationDate, row.RecordDate,
			row.PayDate, row.CashAmount, row.Currency, row.Frequency); err != nil {
			logger.Error().Err(err).Int64("SecurityID", securityID).
				Interface("Dividend", row).Msg("rejected dividend row, continuing batch")
			_ = sp.Rollback(ctx)
			continue
		}
		if err := sp.Commit(ctx); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// UpsertSplits batch-inserts split records with ON CONFLICT DO NOTHING on
// (security_id, execution_date), with the same per-row savepoint isolation
// as UpsertDividends.
func (s *Store) UpsertSplits(ctx context.Context, securityID int64, rows []model.StockSplit) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const sql = `INSERT INTO stock_splits
		(security_id, execution_date, declaration_date, split_to, split_from)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (security_id, execution_date) DO NOTHING`

	logger := zerolog.Ctx(ctx)
	for _, row := range rows {
		sp, err := tx.Begin(ctx)
		if err != nil {
			return err
		}
		if _, err := sp.Exec(ctx, sql, securityID, row.ExecutionDate, row.DeclarationDate,
			row.SplitTo, row.SplitFrom); err != nil {
			logger.Error().Err(err).Int64("SecurityID", securityID).
				Interface("Split", row).Msg("rejected split row, continuing batch")
			_ = sp.Rollback(ctx)
			continue
		}
		if err := sp.Commit(ctx); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}
