package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/guregu/null/v6"
	"github.com/hkipo-research/hkipo/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// JSONFetcher retrieves and decodes a JSON document
type JSONFetcher interface {
	FetchJSON(ctx context.Context, url string, target interface{}) error
}

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *chartError   `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Meta ChartMeta `json:"meta"`
}

type chartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// ChartMeta is the quote summary block of the chart API
type ChartMeta struct {
	Symbol               string     `json:"symbol"`
	Currency             string     `json:"currency"`
	RegularMarketPrice   null.Float `json:"regularMarketPrice"`
	PreviousClose        null.Float `json:"previousClose"`
	ChartPreviousClose   null.Float `json:"chartPreviousClose"`
	RegularMarketDayHigh null.Float `json:"regularMarketDayHigh"`
	RegularMarketDayLow  null.Float `json:"regularMarketDayLow"`
	FiftyTwoWeekHigh     null.Float `json:"fiftyTwoWeekHigh"`
	FiftyTwoWeekLow      null.Float `json:"fiftyTwoWeekLow"`
}

// MarketService reads index and share quotes from the chart API
type MarketService struct {
	fetcher  JSONFetcher
	chartURL string
}

// NewMarketService creates a market service for the given chart API base URL
func NewMarketService(fetcher JSONFetcher, chartURL string) *MarketService {
	return &MarketService{
		fetcher:  fetcher,
		chartURL: strings.TrimRight(chartURL, "/"),
	}
}

// ChartURL returns the chart endpoint of ticker
func (s *MarketService) ChartURL(ticker string) string {
	return s.chartURL + "/" + url.PathEscape(ticker)
}

// FetchQuote returns the quote summary of ticker
func (s *MarketService) FetchQuote(ctx context.Context, ticker string) (*ChartMeta, error) {
	var response chartResponse
	if err := s.fetcher.FetchJSON(ctx, s.ChartURL(ticker), &response); err != nil {
		return nil, err
	}
	if response.Chart.Error != nil {
		return nil, fmt.Errorf("chart API error for %s: %s %s", ticker, response.Chart.Error.Code, response.Chart.Error.Description)
	}
	if len(response.Chart.Result) == 0 {
		return nil, fmt.Errorf("chart API returned no result for %s", ticker)
	}
	return &response.Chart.Result[0].Meta, nil
}

// FetchIndexSnapshot returns today's move of an index, e.g. "^HSI"
func (s *MarketService) FetchIndexSnapshot(ctx context.Context, ticker string) (*models.MarketSentimentSnapshot, error) {
	meta, err := s.FetchQuote(ctx, ticker)
	if err != nil {
		return nil, err
	}

	snapshot := BuildSnapshot(strings.TrimPrefix(ticker, "^"), meta)
	logrus.WithFields(logrus.Fields{
		"component":  "MarketService",
		"index":      snapshot.Index,
		"change_pct": snapshot.ChangePct,
	}).Debug("Built index snapshot")
	return snapshot, nil
}

// FetchLastPrice returns the latest traded price of ticker
func (s *MarketService) FetchLastPrice(ctx context.Context, ticker string) (float64, error) {
	meta, err := s.FetchQuote(ctx, ticker)
	if err != nil {
		return 0, err
	}
	if !meta.RegularMarketPrice.Valid || meta.RegularMarketPrice.Float64 <= 0 {
		return 0, fmt.Errorf("no market price for %s", ticker)
	}
	return meta.RegularMarketPrice.Float64, nil
}

// BuildSnapshot derives the change figures and interpretation from a quote.
// Without a previous close the percentage change is 0.
func BuildSnapshot(index string, meta *ChartMeta) *models.MarketSentimentSnapshot {
	price := decimal.NewFromFloat(meta.RegularMarketPrice.ValueOrZero())
	previous := decimal.NewFromFloat(meta.PreviousClose.ValueOrZero())
	if !meta.PreviousClose.Valid {
		previous = decimal.NewFromFloat(meta.ChartPreviousClose.ValueOrZero())
	}

	changePct := decimal.Zero
	if !previous.IsZero() {
		changePct = price.Div(previous).Sub(decimal.NewFromInt(1)).Mul(decimal.NewFromInt(100)).Round(2)
	}

	label := InterpretIndexChange(changePct.InexactFloat64())
	return &models.MarketSentimentSnapshot{
		Index:              index,
		Price:              price.InexactFloat64(),
		PreviousClose:      previous.InexactFloat64(),
		Change:             price.Sub(previous).Round(2).InexactFloat64(),
		ChangePct:          changePct.InexactFloat64(),
		DayHigh:            meta.RegularMarketDayHigh,
		DayLow:             meta.RegularMarketDayLow,
		FiftyTwoWeekHigh:   meta.FiftyTwoWeekHigh,
		FiftyTwoWeekLow:    meta.FiftyTwoWeekLow,
		Interpretation:     label,
		InterpretationText: label.Description(),
	}
}
