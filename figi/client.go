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
package figi

import (
	"context"
	"errors"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	"golang.org/x/time/rate"
)

const mappingURL = "https://api.openfigi.com/v3/mapping"

// ErrNotFound is returned when OpenFIGI has no mapping for a symbol.
var ErrNotFound = errors.New("figi: no mapping found")

type mappingQuery struct {
	IDType                  string `json:"idType"`
	IDValue                 string `json:"idValue"`
	ExchangeCode            string `json:"exchCode"`
	MarketSectorDescription string `json:"marketSecDes"`
}

type mappingResult struct {
	Data []struct {
		FIGI          string `json:"figi"`
		CompositeFIGI string `json:"compositeFIGI"`
	} `json:"data"`
	Error string `json:"error"`
}

// Client resolves composite FIGIs one symbol at a time through the OpenFIGI
// mapping API, rate-limited to the anonymous tier (25 requests / 6 seconds)
// whether or not an API key is configured.
type Client struct {
	http    *resty.Client
	limiter *rate.Limiter
	apiKey  string
	cache   *Cache
}

// NewClient builds a Client. A non-empty apiKey is sent with every request;
// the client-side rate limit is the same with or without it.
func NewClient(apiKey string) *Client {
	client := resty.New().SetTimeout(10 * time.Second)
	client.JSONMarshal = json.Marshal
	client.JSONUnmarshal = json.Unmarshal

	return &Client{
		http:    client,
		limiter: rate.NewLimiter(rate.Every((6*time.Second)/25), 5),
		apiKey:  apiKey,
		cache:   NewCache(),
	}
}

// Resolve implements worker.FigiResolver: it looks up symbol's composite
// FIGI, assuming a US-listed common equity, and caches the result.
func (c *Client) Resolve(ctx context.Context, symbol string) (string, error) {
	if figi, ok := c.cache.Get(symbol); ok {
		return figi, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	query := []mappingQuery{{
		IDType:                  "TICKER",
		IDValue:                 symbol,
		ExchangeCode:            "US",
		MarketSectorDescription: "Equity",
	}}

	var results []mappingResult
	req := c.http.R().SetContext(ctx).SetBody(query).SetResult(&results)
	if c.apiKey != "" {
		req.SetHeader("X-OPENFIGI-APIKEY", c.apiKey)
	}

	resp, err := req.Post(mappingURL)
	if err != nil {
		return "", err
	}
	if resp.StatusCode() >= 300 {
		return "", errors.New("figi: openfigi returned status " + resp.Status())
	}
	if len(results) == 0 || len(results[0].Data) == 0 {
		return "", ErrNotFound
	}

	composite := results[0].Data[0].CompositeFIGI
	c.cache.Set(symbol, composite)
	return composite, nil
}
