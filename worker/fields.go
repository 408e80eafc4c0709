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

// Package worker executes the per-security fetch/normalize/persist/stamp
// sequences: details, actions, price-increment and grouped-daily reprice.
// Each task type implements orchestrator.Task.
package worker

import (
	"github.com/pennysworth/marketdata/vendorclient"
)

// fieldsFromSecurityInfo converts a vendor's SecurityInfo into the
// column-name-keyed map Store.UpsertSecurity expects, including only the
// fields the vendor actually populated -- the selective-field merge rule
// starts here, at the vendor boundary.
func fieldsFromSecurityInfo(info *vendorclient.SecurityInfo) map[string]any {
	fields := make(map[string]any, 20)

	if info.Name != nil {
		fields["name"] = *info.Name
	}
	if info.Exchange != nil {
		fields["exchange"] = *info.Exchange
	}
	if info.Currency != nil {
		fields["currency"] = *info.Currency
	}
	if info.Market != nil {
		fields["market"] = string(*info.Market)
	}
	if info.Type != nil {
		fields["type"] = string(*info.Type)
	}
	if info.ListDate != nil {
		fields["list_date"] = *info.ListDate
	}
	if info.DelistDate != nil {
		fields["delist_date"] = *info.DelistDate
	}
	if info.CIK != nil {
		fields["cik"] = *info.CIK
	}
	if info.CompositeFigi != nil {
		fields["composite_figi"] = *info.CompositeFigi
	}
	if info.ShareClassFigi != nil {
		fields["share_class_figi"] = *info.ShareClassFigi
	}
	if info.MarketCap != nil {
		fields["market_cap"] = *info.MarketCap
	}
	if info.Description != nil {
		fields["description"] = *info.Description
	}
	if info.HomepageURL != nil {
		fields["homepage_url"] = *info.HomepageURL
	}
	if info.Employees != nil {
		fields["total_employees"] = *info.Employees
	}
	if info.SICCode != nil {
		fields["sic_code"] = *info.SICCode
	}
	if info.AddressLine1 != nil {
		fields["address_line1"] = *info.AddressLine1
	}
	if info.City != nil {
		fields["city"] = *info.City
	}
	if info.State != nil {
		fields["state"] = *info.State
	}
	if info.PostalCode != nil {
		fields["postal_code"] = *info.PostalCode
	}
	if info.LogoURL != nil {
		fields["logo_url"] = *info.LogoURL
	}
	if info.IconURL != nil {
		fields["icon_url"] = *info.IconURL
	}
	if info.IsActive != nil {
		fields["is_active"] = *info.IsActive
	}

	return fields
}
