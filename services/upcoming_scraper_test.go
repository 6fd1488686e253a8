package services

import (
	"context"
	"testing"

	"github.com/guregu/null/v6"
	"github.com/hkipo-research/hkipo/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const upcomingPage = `<html><body>
<table class="ns2" id="tblGMUpcoming">
  <tr class="header"><th>名稱</th><th>行業</th><th>招股價</th><th>每手股數</th><th>入場費</th><th>截止日期</th><th>暗盤</th><th>上市日期</th></tr>
  <tr>
    <td class="txt_l"><a href="/tc/stocks/quote/detail-quote.aspx?symbol=03750">寧德時代</a><br/>03750.HK</td>
    <td>工業</td>
    <td>263.00</td>
    <td>100</td>
    <td>26,565.30</td>
    <td>2025/05/14</td>
    <td>2025/05/19</td>
    <td>2025/05/20</td>
  </tr>
  <tr>
    <td class="txt_l"><a href="#">短行</a>09999.HK</td>
    <td>N/A</td>
  </tr>
  <tr>
    <td class="txt_l"><a href="/tc/stocks/quote/detail-quote.aspx?symbol=02097">蜜雪冰城</a><br/>02097.HK</td>
    <td>消費</td>
    <td>N/A</td>
    <td>&nbsp;100</td>
    <td>20,605.83</td>
    <td>2025/02/26</td>
    <td>2025/02/28</td>
    <td>2025/03/03</td>
  </tr>
  <tr>
    <td class="txt_l">沒有代號</td><td></td><td></td><td></td><td></td><td></td><td></td><td></td>
  </tr>
</table>
</body></html>`

func newTestUpcomingScraper(fetcher PageFetcher) *UpcomingScraper {
	return NewUpcomingScraper(fetcher, "http://ipo.test/tc/", NewReconciler(DefaultAHRegistry()))
}

func TestParseUpcoming(t *testing.T) {
	scraper := newTestUpcomingScraper(newFakePageFetcher())

	listings := scraper.ParseUpcoming(upcomingPage)

	require.Len(t, listings, 2)

	catl := listings[0]
	assert.Equal(t, "03750", catl.Code)
	assert.Equal(t, "寧德時代", catl.Name)
	assert.Equal(t, "263.00", catl.PriceRange)
	assert.Equal(t, 100, catl.LotSize)
	assert.Equal(t, 26565.3, catl.EntryFee)
	assert.Equal(t, "2025-05-14", catl.Deadline)
	assert.Equal(t, "2025-05-20", catl.ListingDate)
	assert.True(t, catl.IsAHStock)
	assert.Equal(t, null.StringFrom("300750"), catl.AShareCode)

	mixue := listings[1]
	assert.Equal(t, "02097", mixue.Code)
	assert.Equal(t, "", mixue.PriceRange)
	assert.Equal(t, 100, mixue.LotSize)
	assert.False(t, mixue.IsAHStock)
	assert.False(t, mixue.AShareCode.Valid)

	metrics := scraper.Metrics()
	assert.Equal(t, 4, metrics.RowsSeen)
	assert.Equal(t, 2, metrics.RowsSkipped)
}

func TestParseUpcomingWithoutTableReturnsEmptyList(t *testing.T) {
	scraper := newTestUpcomingScraper(newFakePageFetcher())

	listings := scraper.ParseUpcoming("<html><body><p>維護中</p></body></html>")

	assert.NotNil(t, listings)
	assert.Empty(t, listings)
	assert.Equal(t, 1, scraper.Metrics().StructuralMisses)
}

func TestFetchUpcoming(t *testing.T) {
	fetcher := newFakePageFetcher()
	scraper := newTestUpcomingScraper(fetcher)
	fetcher.pages[scraper.URL()] = upcomingPage

	listings, err := scraper.FetchUpcoming(context.Background())

	require.NoError(t, err)
	assert.Len(t, listings, 2)
	assert.Equal(t, []string{"http://ipo.test/tc/upcomingipo.aspx"}, fetcher.calls)
}

func TestFetchUpcomingSurfacesTransportErrors(t *testing.T) {
	fetcher := newFakePageFetcher()
	scraper := newTestUpcomingScraper(fetcher)
	fetcher.errors[scraper.URL()] = transportFailure(scraper.URL())

	listings, err := scraper.FetchUpcoming(context.Background())

	assert.Nil(t, listings)
	assert.True(t, shared.IsTransportError(err))
}
