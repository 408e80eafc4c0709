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
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestFullRefreshIntervalJitter: the jittered interval is always an
// integer in [25,40], approximately uniform.
func TestFullRefreshIntervalJitter(t *testing.T) {
	seen := map[int]int{}
	for i := 0; i < 2000; i++ {
		v := fullRefreshIntervalJitter()
		assert.GreaterOrEqual(t, v, 25)
		assert.LessOrEqual(t, v, 40)
		seen[v]++
	}
	assert.Len(t, seen, 16, "all 16 integer values in [25,40] should appear over 2000 draws")
}

// TestUpsertSecurityRejectsUnknownColumn proves the allow-list guard fires
// before any SQL is built, so a typo'd or malicious column name never
// reaches the database layer. The pool is left nil deliberately: the
// rejection must happen before it would be touched.
func TestUpsertSecurityRejectsUnknownColumn(t *testing.T) {
	s := NewWithPool(nil)
	_, err := s.UpsertSecurity(context.Background(), SecurityPatch{
		ID:     7,
		Fields: map[string]any{"symbol": "nope"},
	})
	assert.ErrorIs(t, err, ErrUnknownColumn)
}

func TestSetStampRejectsUnknownField(t *testing.T) {
	s := NewWithPool(nil)
	err := s.SetStamp(context.Background(), 7, "is_active", nil)
	assert.ErrorIs(t, err, ErrUnknownColumn)
}
