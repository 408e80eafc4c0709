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
package vendorclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEastMoney(t *testing.T, url string) *EastMoney {
	t.Helper()
	e := NewEastMoney(time.Millisecond, 5*time.Second)
	e.baseURL = url
	return e
}

func TestEastMoneyFetchHistoricalPrices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "105.NVDA", r.URL.Query().Get("secid"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"code":"105.NVDA","klines":[
			"2024-01-02,48.15,47.49,49.00,47.00,480000000,23000000000,0,0,0,3.52",
			"2024-01-03,47.10,47.88,48.21,46.50,420000000,20000000000,0,0,0,3.10"
		]}}`))
	}))
	defer server.Close()

	e := newTestEastMoney(t, server.URL)
	bars, err := e.FetchHistoricalPrices(context.Background(), "105.NVDA",
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, bars, 2)

	assert.Equal(t, "47.49", bars[0].Close.String())
	require.NotNil(t, bars[0].TurnoverRate)
	assert.Equal(t, "0.0352", bars[0].TurnoverRate.String())
}

func TestEastMoneyFetchHistoricalPrices_EmptyData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":null}`))
	}))
	defer server.Close()

	e := newTestEastMoney(t, server.URL)
	bars, err := e.FetchHistoricalPrices(context.Background(), "105.NVDA",
		time.Now().AddDate(0, 0, -1), time.Now())
	require.NoError(t, err)
	assert.Nil(t, bars)
}

func TestParseEMKlineRow_MalformedSkipped(t *testing.T) {
	_, ok := parseEMKlineRow("not-enough-fields,1,2")
	assert.False(t, ok)
}

func TestParseEMKlineRow_Valid(t *testing.T) {
	bar, ok := parseEMKlineRow("2024-01-02,48.15,47.49,49.00,47.00,480000000,23000000000,0,0,0,3.52")
	require.True(t, ok)
	assert.Equal(t, "48.15", bar.Open.String())
	assert.Equal(t, int64(480000000), bar.Volume)
}
