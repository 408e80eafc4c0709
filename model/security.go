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

// Package model holds the canonical, vendor-neutral records the pipeline
// persists: securities, daily prices, and corporate actions.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// AssetType is the controlled vocabulary for tradeable instrument kinds.
// Kept as a string rather than a closed enum so new vendor values can pass
// through without a code change.
type AssetType string

const (
	AssetTypeStock      AssetType = "STOCK"
	AssetTypeETF        AssetType = "ETF"
	AssetTypeIndex      AssetType = "INDEX"
	AssetTypeADR        AssetType = "ADR"
	AssetTypeWarrant    AssetType = "WARRANT"
	AssetTypePreferred  AssetType = "PREFERRED"
	AssetTypeMutualFund AssetType = "MUTUAL_FUND"
	AssetTypeOTC        AssetType = "OTC"
	AssetTypeUnknown    AssetType = "UNKNOWN"
)

// Market is a free-form string market identifier (e.g. US, HK, CNA).
type Market string

const (
	MarketUS  Market = "US"
	MarketHK  Market = "HK"
	MarketCNA Market = "CNA"
)

// Security is one row per tradable instrument. Id is assigned by Store on
// insert and is the only stable identity used for conflict resolution by
// the selective-field merge (see store.Store.UpsertSecurity).
type Security struct {
	ID             int64   `db:"id"`
	Symbol         string  `db:"symbol"`
	EMCode         *string `db:"em_code"`
	CIK            *string `db:"cik"`
	CompositeFigi  *string `db:"composite_figi"`
	ShareClassFigi *string `db:"share_class_figi"`

	Name     *string   `db:"name"`
	Market   Market    `db:"market"`
	Type     AssetType `db:"type"`
	Exchange *string   `db:"exchange"`
	Currency *string   `db:"currency"`
	Sector   *string   `db:"sector"`
	Industry *string   `db:"industry"`

	MarketCap    *decimal.Decimal `db:"market_cap"`
	Description  *string          `db:"description"`
	HomepageURL  *string          `db:"homepage_url"`
	Employees    *int             `db:"total_employees"`
	SICCode      *string          `db:"sic_code"`
	AddressLine1 *string          `db:"address_line1"`
	City         *string          `db:"city"`
	State        *string          `db:"state"`
	PostalCode   *string          `db:"postal_code"`
	LogoURL      *string          `db:"logo_url"`
	IconURL      *string          `db:"icon_url"`

	IsActive   bool       `db:"is_active"`
	ListDate   *time.Time `db:"list_date"`
	DelistDate *time.Time `db:"delist_date"`

	InfoLastUpdatedAt     *time.Time `db:"info_last_updated_at"`
	ActionsLastUpdatedAt  *time.Time `db:"actions_last_updated_at"`
	PriceDataLatestDate   *time.Time `db:"price_data_latest_date"`
	FullDataLastUpdatedAt *time.Time `db:"full_data_last_updated_at"`
	FullRefreshInterval   int        `db:"full_refresh_interval"`
}

// NaturalKey is a stable string for map lookups (symbol scoped to market
// and type) when a surrogate id isn't yet known. The grouped-daily
// symbol->security_id map does not use it; that map is keyed by the
// lowercase symbol alone.
func (s *Security) NaturalKey() string {
	return string(s.Market) + ":" + string(s.Type) + ":" + s.Symbol
}
