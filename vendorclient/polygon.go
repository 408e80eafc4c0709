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
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/pennysworth/marketdata/model"
	"github.com/pennysworth/marketdata/ratelimit"
)

// Polygon adapts the Polygon.io Stocks API to the vendorclient capability
// interfaces. It satisfies SecurityInfoFetcher, DividendFetcher,
// SplitFetcher, HistoricalPriceFetcher, GroupedDailyFetcher and
// MarketStatusFetcher.
type Polygon struct {
	client  *resty.Client
	keys    *ratelimit.KeyPool
	baseURL string
}

// NewPolygon builds a Polygon client backed by a multi-key rate limiter
// admitting rateLimit requests per window, per key.
func NewPolygon(apiKeys []string, rateLimit int, window time.Duration, httpTimeout time.Duration) (*Polygon, error) {
	keys, err := ratelimit.NewKeyPool(apiKeys, rateLimit, window)
	if err != nil {
		return nil, err
	}

	client := resty.New().SetTimeout(httpTimeout)
	client.JSONMarshal = json.Marshal
	client.JSONUnmarshal = json.Unmarshal

	return &Polygon{
		client:  client,
		keys:    keys,
		baseURL: "https://api.polygon.io",
	}, nil
}

func (p *Polygon) Name() string { return "polygon" }

// acquire blocks for a rate-limit slot and stamps the returned key onto the
// request as the apiKey query parameter.
func (p *Polygon) acquire(ctx context.Context, req *resty.Request) error {
	key, err := p.keys.Acquire(ctx)
	if err != nil {
		return err
	}
	req.SetQueryParam("apiKey", key)
	return nil
}

// checkStatus classifies the HTTP response: 404 means "not found" (not an
// error), 429 is logged critical because it indicates the limiter disagrees
// with the vendor, and any other >=300 is an error.
func checkStatus(logger *zerolog.Logger, resp *resty.Response, url string) (notFound bool, err error) {
	switch {
	case resp.StatusCode() == http.StatusNotFound:
		return true, nil
	case resp.StatusCode() == http.StatusTooManyRequests:
		logger.WithLevel(zerolog.ErrorLevel).
			Str("URL", url).Msg("critical: polygon returned 429 -- rate limiter configuration disagrees with vendor")
		return false, fmt.Errorf("%w (429): %s", ErrInvalidStatusCode, url)
	case resp.StatusCode() >= 300:
		return false, fmt.Errorf("%w (%d): %s", ErrInvalidStatusCode, resp.StatusCode(), url)
	default:
		return false, nil
	}
}

type polygonTickerDetailResponse struct {
	Results *polygonTickerDetail `json:"results"`
}

type polygonTickerDetail struct {
	Ticker          string          `json:"ticker"`
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	CompositeFIGI   string          `json:"composite_figi"`
	ShareClassFIGI  string          `json:"share_class_figi"`
	PrimaryExchange string          `json:"primary_exchange"`
	Type            string          `json:"type"`
	Active          bool            `json:"active"`
	CIK             string          `json:"cik"`
	SIC             string          `json:"sic_code"`
	HomepageURL     string          `json:"homepage_url"`
	ListDate        string          `json:"list_date"`
	DelistedUTC     string          `json:"delisted_utc"`
	CurrencyName    string          `json:"currency_name"`
	MarketCap       float64         `json:"market_cap"`
	TotalEmployees  int             `json:"total_employees"`
	Address         polygonAddress  `json:"address"`
	Branding        polygonBranding `json:"branding"`
}

type polygonAddress struct {
	Address1   string `json:"address1"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
}

type polygonBranding struct {
	LogoURL string `json:"logo_url"`
	IconURL string `json:"icon_url"`
}

// FetchSecurityInfo implements SecurityInfoFetcher.
func (p *Polygon) FetchSecurityInfo(ctx context.Context, symbol string) (*SecurityInfo, error) {
	logger := zerolog.Ctx(ctx)
	url := fmt.Sprintf("%s/v3/reference/tickers/%s", p.baseURL, strings.ToUpper(symbol))

	req := p.client.R().SetContext(ctx)
	if err := p.acquire(ctx, req); err != nil {
		return nil, err
	}

	var respContent polygonTickerDetailResponse
	resp, err := req.SetResult(&respContent).Get(url)
	if err != nil {
		return nil, err
	}

	notFound, err := checkStatus(logger, resp, url)
	if notFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if respContent.Results == nil {
		return nil, nil
	}

	d := respContent.Results
	info := &SecurityInfo{
		Symbol:         symbol,
		Name:           strPtr(d.Name),
		CompositeFigi:  strPtrOrNil(d.CompositeFIGI),
		ShareClassFigi: strPtrOrNil(d.ShareClassFIGI),
		Exchange:       strPtrOrNil(d.PrimaryExchange),
		Currency:       strPtrOrNil(strings.ToUpper(d.CurrencyName)),
		CIK:            strPtrOrNil(d.CIK),
		Description:    strPtrOrNil(d.Description),
		HomepageURL:    strPtrOrNil(d.HomepageURL),
		SICCode:        strPtrOrNil(d.SIC),
		AddressLine1:   strPtrOrNil(d.Address.Address1),
		City:           strPtrOrNil(d.Address.City),
		State:          strPtrOrNil(d.Address.State),
		PostalCode:     strPtrOrNil(d.Address.PostalCode),
		LogoURL:        strPtrOrNil(d.Branding.LogoURL),
		IconURL:        strPtrOrNil(d.Branding.IconURL),
		IsActive:       boolPtr(d.Active),
	}

	if d.TotalEmployees > 0 {
		info.Employees = intPtr(d.TotalEmployees)
	}

	if d.MarketCap > 0 {
		mc := decimal.NewFromFloat(d.MarketCap)
		info.MarketCap = &mc
	}

	assetType := normalizeAssetType(d.Type)
	info.Type = &assetType

	if t, perr := time.Parse("2006-01-02", d.ListDate); perr == nil {
		info.ListDate = &t
	}

	if d.DelistedUTC != "" {
		datePart := strings.Split(d.DelistedUTC, "T")[0]
		if t, perr := time.Parse("2006-01-02", datePart); perr == nil {
			info.DelistDate = &t
		}
	}

	return info, nil
}

// normalizeAssetType maps Polygon's type codes to the project's controlled
// vocabulary. Unknown values pass through as-is and are logged here at
// debug level.
func normalizeAssetType(polygonType string) model.AssetType {
	switch polygonType {
	case "CS":
		return model.AssetTypeStock
	case "ETF", "ETN", "ETV":
		return model.AssetTypeETF
	case "ADRC":
		return model.AssetTypeADR
	case "PFD":
		return model.AssetTypePreferred
	case "WARRANT":
		return model.AssetTypeWarrant
	case "INDEX":
		return model.AssetTypeIndex
	case "":
		return model.AssetTypeUnknown
	default:
		log.Debug().Str("PolygonType", polygonType).Msg("unrecognized polygon asset type, passing through")
		return model.AssetType(polygonType)
	}
}

type polygonDividend struct {
	ExDividendDate  string  `json:"ex_dividend_date"`
	DeclarationDate string  `json:"declaration_date"`
	RecordDate      string  `json:"record_date"`
	PayDate         string  `json:"pay_date"`
	CashAmount      float64 `json:"cash_amount"`
	Currency        string  `json:"currency"`
	Frequency       int     `json:"frequency"`
}

type polygonDividendResponse struct {
	Results []polygonDividend `json:"results"`
	NextURL string            `json:"next_url"`
}

// FetchDividends implements DividendFetcher.
func (p *Polygon) FetchDividends(ctx context.Context, symbol string) ([]DividendRecord, error) {
	logger := zerolog.Ctx(ctx)
	url := fmt.Sprintf("%s/v3/reference/dividends", p.baseURL)

	out := make([]DividendRecord, 0, 16)

	for url != "" {
		req := p.client.R().SetContext(ctx)
		if err := p.acquire(ctx, req); err != nil {
			return nil, err
		}

		var respContent polygonDividendResponse
		var resp *resty.Response
		var err error
		if strings.Contains(url, "ticker=") || !strings.HasSuffix(url, "/dividends") {
			resp, err = req.SetResult(&respContent).Get(url)
		} else {
			resp, err = req.SetQueryParam("ticker", strings.ToUpper(symbol)).SetResult(&respContent).Get(url)
		}
		if err != nil {
			return nil, err
		}

		notFound, serr := checkStatus(logger, resp, url)
		if notFound {
			return out, nil
		}
		if serr != nil {
			return nil, serr
		}

		for _, d := range respContent.Results {
			rec := DividendRecord{
				Currency:  d.Currency,
				Frequency: d.Frequency,
			}

			if t, perr := time.Parse("2006-01-02", d.ExDividendDate); perr == nil {
				rec.ExDividendDate = &t
			}
			if t, perr := time.Parse("2006-01-02", d.DeclarationDate); perr == nil {
				rec.DeclarationDate = &t
			}
			if t, perr := time.Parse("2006-01-02", d.RecordDate); perr == nil {
				rec.RecordDate = &t
			}
			if t, perr := time.Parse("2006-01-02", d.PayDate); perr == nil {
				rec.PayDate = &t
			}
			if d.CashAmount > 0 {
				amt := decimal.NewFromFloat(d.CashAmount)
				rec.CashAmount = &amt
			}

			// records lacking ex_dividend_date or cash_amount are filtered
			if rec.ExDividendDate == nil || rec.CashAmount == nil {
				log.Debug().Str("Symbol", symbol).Msg("filtered dividend record missing required fields")
				continue
			}

			out = append(out, rec)
		}

		url = respContent.NextURL
	}

	return out, nil
}

type polygonSplit struct {
	ExecutionDate string  `json:"execution_date"`
	SplitFrom     float64 `json:"split_from"`
	SplitTo       float64 `json:"split_to"`
}

type polygonSplitResponse struct {
	Results []polygonSplit `json:"results"`
	NextURL string         `json:"next_url"`
}

// FetchSplits implements SplitFetcher.
func (p *Polygon) FetchSplits(ctx context.Context, symbol string) ([]SplitRecord, error) {
	logger := zerolog.Ctx(ctx)
	url := fmt.Sprintf("%s/v3/reference/splits", p.baseURL)

	out := make([]SplitRecord, 0, 8)

	for url != "" {
		req := p.client.R().SetContext(ctx)
		if err := p.acquire(ctx, req); err != nil {
			return nil, err
		}

		var respContent polygonSplitResponse
		var resp *resty.Response
		var err error
		if strings.HasSuffix(url, "/splits") {
			resp, err = req.SetQueryParam("ticker", strings.ToUpper(symbol)).SetResult(&respContent).Get(url)
		} else {
			resp, err = req.SetResult(&respContent).Get(url)
		}
		if err != nil {
			return nil, err
		}

		notFound, serr := checkStatus(logger, resp, url)
		if notFound {
			return out, nil
		}
		if serr != nil {
			return nil, serr
		}

		for _, s := range respContent.Results {
			rec := SplitRecord{}

			if t, perr := time.Parse("2006-01-02", s.ExecutionDate); perr == nil {
				rec.ExecutionDate = &t
			}
			if s.SplitTo > 0 {
				to := decimal.NewFromFloat(s.SplitTo)
				rec.SplitTo = &to
			}
			if s.SplitFrom > 0 {
				from := decimal.NewFromFloat(s.SplitFrom)
				rec.SplitFrom = &from
			}

			if rec.ExecutionDate == nil || rec.SplitTo == nil {
				log.Debug().Str("Symbol", symbol).Msg("filtered split record missing required fields")
				continue
			}

			out = append(out, rec)
		}

		url = respContent.NextURL
	}

	return out, nil
}

type polygonAgg struct {
	Timestamp int64   `json:"t"`
	Open      float64 `json:"o"`
	High      float64 `json:"h"`
	Low       float64 `json:"l"`
	Close     float64 `json:"c"`
	Volume    float64 `json:"v"`
	VWAP      float64 `json:"vw"`
	Symbol    string  `json:"T"`
}

type polygonAggsResponse struct {
	Results []polygonAgg `json:"results"`
	NextURL string       `json:"next_url"`
}

// FetchHistoricalPrices implements HistoricalPriceFetcher.
func (p *Polygon) FetchHistoricalPrices(ctx context.Context, symbol string, start, end time.Time) ([]PriceBar, error) {
	logger := zerolog.Ctx(ctx)
	url := fmt.Sprintf("%s/v2/aggs/ticker/%s/range/1/day/%s/%s", p.baseURL, strings.ToUpper(symbol),
		start.Format("2006-01-02"), end.Format("2006-01-02"))

	out := make([]PriceBar, 0, 256)

	for url != "" {
		req := p.client.R().SetContext(ctx)
		if err := p.acquire(ctx, req); err != nil {
			return nil, err
		}

		var respContent polygonAggsResponse
		var resp *resty.Response
		var err error
		if strings.Contains(url, "/range/") {
			resp, err = req.SetQueryParam("adjusted", "false").SetQueryParam("sort", "asc").
				SetQueryParam("limit", "50000").SetResult(&respContent).Get(url)
		} else {
			resp, err = req.SetResult(&respContent).Get(url)
		}
		if err != nil {
			return nil, err
		}

		notFound, serr := checkStatus(logger, resp, url)
		if notFound {
			return out, nil
		}
		if serr != nil {
			return nil, serr
		}

		for _, a := range respContent.Results {
			bar := PriceBar{
				Date:   time.UnixMilli(a.Timestamp).UTC(),
				Open:   decimal.NewFromFloat(a.Open),
				High:   decimal.NewFromFloat(a.High),
				Low:    decimal.NewFromFloat(a.Low),
				Close:  decimal.NewFromFloat(a.Close),
				Volume: int64(a.Volume),
			}
			if a.VWAP > 0 {
				vw := decimal.NewFromFloat(a.VWAP)
				bar.VWAP = &vw
				turnover := decimal.NewFromFloat(a.Volume * a.VWAP)
				bar.Turnover = &turnover
			}
			out = append(out, bar)
		}

		url = respContent.NextURL
	}

	return out, nil
}

// FetchGroupedDaily implements GroupedDailyFetcher.
func (p *Polygon) FetchGroupedDaily(ctx context.Context, date time.Time) ([]GroupedBar, error) {
	logger := zerolog.Ctx(ctx)
	url := fmt.Sprintf("%s/v2/aggs/grouped/locale/us/market/stocks/%s", p.baseURL, date.Format("2006-01-02"))

	req := p.client.R().SetContext(ctx)
	if err := p.acquire(ctx, req); err != nil {
		return nil, err
	}

	var respContent polygonAggsResponse
	resp, err := req.SetQueryParam("adjusted", "false").SetResult(&respContent).Get(url)
	if err != nil {
		return nil, err
	}

	notFound, serr := checkStatus(logger, resp, url)
	if notFound {
		// 404 means non-trading day
		return nil, nil
	}
	if serr != nil {
		return nil, serr
	}

	out := make([]GroupedBar, 0, len(respContent.Results))
	for _, a := range respContent.Results {
		if a.Symbol == "" {
			continue
		}

		bar := GroupedBar{
			Symbol: strings.ToLower(a.Symbol),
			PriceBar: PriceBar{
				Date:   date,
				Open:   decimal.NewFromFloat(a.Open),
				High:   decimal.NewFromFloat(a.High),
				Low:    decimal.NewFromFloat(a.Low),
				Close:  decimal.NewFromFloat(a.Close),
				Volume: int64(a.Volume),
			},
		}
		if a.VWAP > 0 {
			vw := decimal.NewFromFloat(a.VWAP)
			bar.VWAP = &vw
		}

		out = append(out, bar)
	}

	return out, nil
}

type polygonMarketStatusResponse struct {
	Market string `json:"market"`
}

// IsMarketOpen implements MarketStatusFetcher.
func (p *Polygon) IsMarketOpen(ctx context.Context, market model.Market, _ time.Time) (bool, error) {
	logger := zerolog.Ctx(ctx)
	url := fmt.Sprintf("%s/v1/marketstatus/now", p.baseURL)

	req := p.client.R().SetContext(ctx)
	if err := p.acquire(ctx, req); err != nil {
		return false, err
	}

	var respContent polygonMarketStatusResponse
	resp, err := req.SetResult(&respContent).Get(url)
	if err != nil {
		return false, err
	}

	if _, serr := checkStatus(logger, resp, url); serr != nil {
		return false, serr
	}

	return respContent.Market == "open", nil
}

func strPtr(s string) *string { return &s }

func strPtrOrNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
func boolPtr(b bool) *bool { return &b }

func intPtr(i int) *int { return &i }
