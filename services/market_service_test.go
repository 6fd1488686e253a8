package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/guregu/null/v6"
	"github.com/hkipo-research/hkipo/models"
	"github.com/hkipo-research/hkipo/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newChartServer(t *testing.T) *httptest.Server {
	t.Helper()
	bodies := map[string]string{
		"^HSI": `{"chart":{"result":[{"meta":{"symbol":"^HSI","currency":"HKD",` +
			`"regularMarketPrice":100,"previousClose":95,"regularMarketDayHigh":101.5,"regularMarketDayLow":94.8}}],"error":null}}`,
		"601318.SS": `{"chart":{"result":[{"meta":{"symbol":"601318.SS","regularMarketPrice":52.3}}],"error":null}}`,
		"EMPTY":     `{"chart":{"result":[],"error":null}}`,
		"BAD":       `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`,
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := bodies[strings.TrimPrefix(r.URL.Path, "/chart/")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestMarketService(t *testing.T) *MarketService {
	server := newChartServer(t)
	options := shared.NewDefaultFetcherOptions("TestChartFetcher")
	options.MaxAttempts = 1
	options.RetryPause = 0
	return NewMarketService(shared.NewFetcher(options), server.URL+"/chart/")
}

func TestFetchIndexSnapshot(t *testing.T) {
	service := newTestMarketService(t)

	snapshot, err := service.FetchIndexSnapshot(context.Background(), "^HSI")

	require.NoError(t, err)
	assert.Equal(t, "HSI", snapshot.Index)
	assert.Equal(t, 100.0, snapshot.Price)
	assert.Equal(t, 95.0, snapshot.PreviousClose)
	assert.Equal(t, 5.0, snapshot.Change)
	assert.Equal(t, 5.26, snapshot.ChangePct)
	assert.Equal(t, null.FloatFrom(101.5), snapshot.DayHigh)
	assert.False(t, snapshot.FiftyTwoWeekHigh.Valid)
	assert.Equal(t, models.SentimentExtremeBullish, snapshot.Interpretation)
	assert.Equal(t, "大涨，市场极度乐观", snapshot.InterpretationText)
}

func TestFetchQuoteErrors(t *testing.T) {
	service := newTestMarketService(t)

	_, err := service.FetchQuote(context.Background(), "MISSING")
	assert.True(t, shared.IsTransportError(err))

	_, err = service.FetchQuote(context.Background(), "EMPTY")
	assert.ErrorContains(t, err, "no result")

	_, err = service.FetchQuote(context.Background(), "BAD")
	assert.ErrorContains(t, err, "No data found")
}

func TestFetchLastPrice(t *testing.T) {
	service := newTestMarketService(t)

	price, err := service.FetchLastPrice(context.Background(), "601318.SS")

	require.NoError(t, err)
	assert.Equal(t, 52.3, price)
}

func TestBuildSnapshotFallsBackToChartPreviousClose(t *testing.T) {
	snapshot := BuildSnapshot("HSI", &ChartMeta{
		RegularMarketPrice: null.FloatFrom(97),
		ChartPreviousClose: null.FloatFrom(100),
	})

	assert.Equal(t, -3.0, snapshot.ChangePct)
	assert.Equal(t, models.SentimentPanic, snapshot.Interpretation)
}

func TestBuildSnapshotWithoutPreviousClose(t *testing.T) {
	snapshot := BuildSnapshot("HSI", &ChartMeta{RegularMarketPrice: null.FloatFrom(97)})

	assert.Equal(t, 0.0, snapshot.ChangePct)
	assert.Equal(t, models.SentimentNeutral, snapshot.Interpretation)
}
