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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pennysworth/marketdata/model"
)

// TestUpdateSecurity_SelectiveMerge: a patch naming only name/description
// must only ever reference those two columns plus the timestamp bump --
// never symbol or em_code.
func TestUpdateSecurity_SelectiveMerge(t *testing.T) {
	pool := &fakePool{}
	s := NewWithPool(pool)

	_, err := s.UpsertSecurity(context.Background(), SecurityPatch{
		ID: 7,
		Fields: map[string]any{
			"name":        "Apple",
			"description": "maker of iPhone",
		},
	})
	require.NoError(t, err)

	assert.Contains(t, pool.lastSQL, "description = $1")
	assert.Contains(t, pool.lastSQL, "name = $2")
	assert.Contains(t, pool.lastSQL, "info_last_updated_at = now()")
	assert.NotContains(t, pool.lastSQL, "symbol")
	assert.NotContains(t, pool.lastSQL, "em_code")
	assert.Equal(t, []any{"maker of iPhone", "Apple", int64(7)}, pool.lastArgs)
}

func TestUpdateSecurity_NoFieldsOnlyBumpsStamp(t *testing.T) {
	pool := &fakePool{}
	s := NewWithPool(pool)

	_, err := s.UpsertSecurity(context.Background(), SecurityPatch{ID: 42})
	require.NoError(t, err)

	assert.Contains(t, pool.lastSQL, "info_last_updated_at = now()")
	assert.Equal(t, []any{int64(42)}, pool.lastArgs)
}

func TestInsertSecurity_AssignsIDFromReturning(t *testing.T) {
	pool := &fakePool{
		scanDest: func(dest ...any) error {
			*(dest[0].(*int64)) = 99
			return nil
		},
	}
	s := NewWithPool(pool)

	id, err := s.UpsertSecurity(context.Background(), SecurityPatch{
		Symbol: "aapl",
		Market: model.MarketUS,
		Type:   model.AssetTypeStock,
		Fields: map[string]any{"name": "Apple Inc."},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(99), id)
	assert.True(t, strings.HasPrefix(pool.lastSQL, "INSERT INTO securities"))
	assert.Contains(t, pool.lastSQL, "RETURNING id")
}

func TestInsertSecurity_LowercasesSymbol(t *testing.T) {
	pool := &fakePool{
		scanDest: func(dest ...any) error {
			*(dest[0].(*int64)) = 1
			return nil
		},
	}
	s := NewWithPool(pool)

	_, err := s.UpsertSecurity(context.Background(), SecurityPatch{
		Symbol: "BRK.B",
		Market: model.MarketUS,
		Type:   model.AssetTypeStock,
	})
	require.NoError(t, err)
	assert.Equal(t, "brk.b", pool.lastArgs[0])
}

func TestInsertSecurity_RejectsEmptySymbol(t *testing.T) {
	s := NewWithPool(nil)
	_, err := s.UpsertSecurity(context.Background(), SecurityPatch{Market: model.MarketUS})
	assert.ErrorIs(t, err, ErrEmptySymbol)
}
