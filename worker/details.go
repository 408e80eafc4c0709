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
package worker

import (
	"context"

	"github.com/pennysworth/marketdata/model"
	"github.com/pennysworth/marketdata/orchestrator"
	"github.com/pennysworth/marketdata/store"
	"github.com/pennysworth/marketdata/vendorclient"
)

// FigiResolver resolves a composite FIGI for a freshly discovered security
// that doesn't have one yet. Implemented by an adapted figi package client.
type FigiResolver interface {
	Resolve(ctx context.Context, symbol string) (string, error)
}

// DetailsTask fetches and merges company reference data for one security.
type DetailsTask struct {
	Store    *store.Store
	Fetcher  vendorclient.SecurityInfoFetcher
	Security model.Security
	Figi     FigiResolver // nil disables FIGI enrichment
}

func (t *DetailsTask) Name() string { return t.Security.Symbol }

// Run fetches reference data for the security and merges whatever the
// vendor supplied. A vendor "not found" marks the security inactive.
func (t *DetailsTask) Run(ctx context.Context) (orchestrator.Status, error) {
	info, err := t.Fetcher.FetchSecurityInfo(ctx, t.Security.Symbol)
	if err != nil {
		return orchestrator.StatusError, err
	}

	if info == nil {
		if _, err := t.Store.UpsertSecurity(ctx, store.SecurityPatch{
			ID:     t.Security.ID,
			Fields: map[string]any{"is_active": false},
		}); err != nil {
			return orchestrator.StatusError, err
		}
		return orchestrator.StatusSuccessNoData, nil
	}

	fields := fieldsFromSecurityInfo(info)

	if t.Security.CompositeFigi == nil && t.Figi != nil {
		if figi, ferr := t.Figi.Resolve(ctx, t.Security.Symbol); ferr == nil && figi != "" {
			fields["composite_figi"] = figi
		}
	}

	if _, err := t.Store.UpsertSecurity(ctx, store.SecurityPatch{ID: t.Security.ID, Fields: fields}); err != nil {
		return orchestrator.StatusError, err
	}

	return orchestrator.StatusSuccess, nil
}
