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
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strings"

	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/pennysworth/marketdata/model"
)

// securityUpdatableColumns is the allow-list of columns UpsertSecurity may
// write on an update. id, symbol and em_code are deliberately excluded: they
// are never updatable through this path once a row exists.
var securityUpdatableColumns = map[string]bool{
	"name": true, "market": true, "type": true, "exchange": true,
	"currency": true, "sector": true, "industry": true, "cik": true,
	"composite_figi": true, "share_class_figi": true, "market_cap": true,
	"description": true, "homepage_url": true, "total_employees": true,
	"sic_code": true, "address_line1": true, "city": true, "state": true,
	"postal_code": true, "logo_url": true, "icon_url": true,
	"is_active": true, "list_date": true, "delist_date": true,
}

// ErrUnknownColumn is returned when a patch or SetStamp call names a column
// outside the relevant allow-list.
var ErrUnknownColumn = errors.New("store: column not in allow-list")

// SecurityPatch describes a selective-field merge for one Security row.
// ID == 0 means "insert"; Fields holds only the columns explicitly present
// in the incoming vendor record, keyed by database column name.
type SecurityPatch struct {
	ID     int64
	Symbol string
	Market model.Market
	Type   model.AssetType
	EMCode *string
	Fields map[string]any
}

// fullRefreshIntervalJitter draws the per-row full_refresh_interval from a
// uniform distribution over [25,40] days, spreading expensive full refreshes
// across the fleet instead of clustering them on one day.
func fullRefreshIntervalJitter() int {
	return 25 + rand.Intn(16)
}

// UpsertSecurity performs a selective-field merge: on
// insert it establishes identity (symbol, market, type, em_code) plus
// whatever Fields are given; on update it writes only Fields, bumping
// info_last_updated_at, and never touches id/symbol/em_code.
func (s *Store) UpsertSecurity(ctx context.Context, patch SecurityPatch) (int64, error) {
	for col := range patch.Fields {
		if !securityUpdatableColumns[col] {
			return 0, fmt.Errorf("%w: %s", ErrUnknownColumn, col)
		}
	}

	if patch.ID != 0 {
		return patch.ID, s.updateSecurity(ctx, patch)
	}
	return s.insertSecurity(ctx, patch)
}

func (s *Store) updateSecurity(ctx context.Context, patch SecurityPatch) error {
	if len(patch.Fields) == 0 {
		// nothing but the stamp bump
		_, err := s.pool.Exec(ctx, `UPDATE securities SET info_last_updated_at = now() WHERE id = $1`, patch.ID)
		return err
	}

	cols := make([]string, 0, len(patch.Fields))
	for col := range patch.Fields {
		cols = append(cols, col)
	}
	sort.Strings(cols) // deterministic SQL text, easier to log/debug

	setClauses := make([]string, 0, len(cols)+1)
	args := make([]any, 0, len(cols)+1)
	for i, col := range cols {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", col, i+1))
		args = append(args, patch.Fields[col])
	}
	setClauses = append(setClauses, "info_last_updated_at = now()")
	args = append(args, patch.ID)

	sql := fmt.Sprintf(`UPDATE securities SET %s WHERE id = $%d`, strings.Join(setClauses, ", "), len(args))
	_, err := s.pool.Exec(ctx, sql, args...)
	return err
}

// ErrEmptySymbol is returned when an insert patch has no symbol.
var ErrEmptySymbol = errors.New("store: security symbol must not be empty")

func (s *Store) insertSecurity(ctx context.Context, patch SecurityPatch) (int64, error) {
	if patch.Symbol == "" {
		return 0, ErrEmptySymbol
	}

	// symbols are stored lowercase; vendors report them in whatever case
	// their API uses
	cols := []string{"symbol", "market", "type", "em_code", "full_refresh_interval"}
	args := []any{strings.ToLower(patch.Symbol), string(patch.Market), string(patch.Type), patch.EMCode, fullRefreshIntervalJitter()}

	extraCols := make([]string, 0, len(patch.Fields))
	for col := range patch.Fields {
		extraCols = append(extraCols, col)
	}
	sort.Strings(extraCols)
	for _, col := range extraCols {
		cols = append(cols, col)
		args = append(args, patch.Fields[col])
	}

	placeholders := make([]string, len(args))
	for i := range args {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	sql := fmt.Sprintf(
		`INSERT INTO securities (%s, info_last_updated_at) VALUES (%s, now()) RETURNING id`,
		strings.Join(cols, ", "), strings.Join(placeholders, ", "))

	var id int64
	if err := s.pool.QueryRow(ctx, sql, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("store: inserting security %q: %w", patch.Symbol, err)
	}
	return id, nil
}

// GetSecurityByID fetches one row by surrogate id.
func (s *Store) GetSecurityByID(ctx context.Context, id int64) (*model.Security, error) {
	var sec model.Security
	err := pgxscan.Get(ctx, s.pool, &sec, `SELECT * FROM securities WHERE id = $1`, id)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &sec, nil
}

// GetSecurityBySymbol fetches one row by the (symbol, market, type) unique
// natural key.
func (s *Store) GetSecurityBySymbol(ctx context.Context, symbol string, market model.Market, typ model.AssetType) (*model.Security, error) {
	var sec model.Security
	err := pgxscan.Get(ctx, s.pool, &sec,
		`SELECT * FROM securities WHERE symbol = $1 AND market = $2 AND type = $3`,
		symbol, string(market), string(typ))
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &sec, nil
}

// ListActiveSecurities returns every active security, optionally narrowed to
// one market -- used to build the symbol->security_id map grouped-daily
// reprice needs before it can reconcile a vendor's single-shot snapshot.
func (s *Store) ListActiveSecurities(ctx context.Context, market model.Market) ([]model.Security, error) {
	sql := `SELECT * FROM securities WHERE is_active = true`
	args := []any{}
	if market != "" {
		sql += " AND market = $1"
		args = append(args, string(market))
	}

	var rows []model.Security
	if err := pgxscan.Select(ctx, s.pool, &rows, sql, args...); err != nil {
		return nil, err
	}
	return rows, nil
}

// GetSecurityByEMCode fetches one row by the East Money vendor identifier.
func (s *Store) GetSecurityByEMCode(ctx context.Context, emCode string) (*model.Security, error) {
	var sec model.Security
	err := pgxscan.Get(ctx, s.pool, &sec, `SELECT * FROM securities WHERE em_code = $1`, emCode)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &sec, nil
}
