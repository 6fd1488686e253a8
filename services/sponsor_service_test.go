package services

import (
	"context"
	"testing"

	"github.com/guregu/null/v6"
	"github.com/hkipo-research/hkipo/models"
	"github.com/hkipo-research/hkipo/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sponsorPageURL = "http://ipo.test/sc/stocks/market/ipo/sponsor.aspx"

const sponsorSummaryPage = `<html><body>
<select name="ctl00$cp$ddlSponsor" id="cp_ddlSponsor">
  <option value="0">所有保荐人</option>
  <option value="101">中國國際金融香港證券有限公司</option>
  <option value="202">華泰金融控股(香港)有限公司</option>
  <option value="303">  海通國際資本有限公司 </option>
  <option value="101">中國國際金融香港證券有限公司</option>
</select>
<table id="tblSummary">
  <thead><tr><th>保荐人</th><th>数目</th></tr></thead>
  <tbody>
    <tr><td>中國國際金融香港證券有限公司</td><td>20</td><td>14</td><td>6</td><td>+12.5%</td><td>+30.1%</td><td>蜜雪冰城</td><td>+42.3%</td><td>某公司</td><td>-20.0%</td></tr>
    <tr><td>缺欄保荐人</td><td>3</td></tr>
    <tr><td>海通國際資本有限公司</td><td>0</td><td>0</td><td>0</td><td>N/A</td><td>N/A</td><td>N/A</td><td>N/A</td><td>N/A</td><td>N/A</td></tr>
  </tbody>
</table>
</body></html>`

const sponsorDetailPage = `<html><body>
<table id="tblData">
  <thead><tr><th>代号</th><th>名称</th><th>上市日期</th><th>招股价</th><th>上市价</th><th>首日表现</th></tr></thead>
  <tbody>
    <tr><td>01001</td><td>甲</td><td>2024/01/01</td><td>1.00</td><td>1.10</td><td>+10%</td></tr>
    <tr><td>01002</td><td>乙</td><td>2024/02/01</td><td>1.00</td><td>0.95</td><td>-5%</td></tr>
    <tr><td>01003</td><td>丙</td><td>2024/03/01</td><td>1.00</td><td>--</td><td>N/A</td></tr>
  </tbody>
</table>
</body></html>`

func newTestSponsorService(fetcher PageFetcher) *SponsorService {
	return NewSponsorService(fetcher, sponsorPageURL, NewReconciler(nil))
}

func TestParseSponsorSummary(t *testing.T) {
	service := newTestSponsorService(newFakePageFetcher())

	sponsors := service.ParseSponsorSummary(sponsorSummaryPage)

	require.Len(t, sponsors, 2)
	cicc := sponsors[0]
	assert.Equal(t, "中國國際金融香港證券有限公司", cicc.Name)
	assert.Equal(t, 20, cicc.IPOCount)
	assert.Equal(t, 14, cicc.UpCount)
	assert.Equal(t, 6, cicc.DownCount)
	assert.Equal(t, 70.0, cicc.WinRatePct)
	assert.Equal(t, null.FloatFrom(12.5), cicc.AvgFirstDayPct)
	assert.Equal(t, "蜜雪冰城", cicc.BestStock)
	assert.Equal(t, null.FloatFrom(-20), cicc.WorstReturn)

	empty := sponsors[1]
	assert.Equal(t, 0.0, empty.WinRatePct)
	assert.False(t, empty.AvgFirstDayPct.Valid)
	assert.Equal(t, 1, service.Metrics().RowsSkipped)
}

func TestParseSponsorSummaryWithoutTable(t *testing.T) {
	service := newTestSponsorService(newFakePageFetcher())

	sponsors := service.ParseSponsorSummary("<html><body></body></html>")

	assert.NotNil(t, sponsors)
	assert.Empty(t, sponsors)
}

func TestParseSponsorDirectorySkipsPlaceholderAndDuplicates(t *testing.T) {
	service := newTestSponsorService(newFakePageFetcher())

	entries := service.ParseSponsorDirectory(sponsorSummaryPage)

	assert.Equal(t, []models.SponsorDirectoryEntry{
		{Name: "中國國際金融香港證券有限公司", ID: "101"},
		{Name: "華泰金融控股(香港)有限公司", ID: "202"},
		{Name: "海通國際資本有限公司", ID: "303"},
	}, entries)
}

func TestParseSponsorDetailAggregatesListings(t *testing.T) {
	service := newTestSponsorService(newFakePageFetcher())

	record := service.ParseSponsorDetail(sponsorDetailPage)

	require.NotNil(t, record)
	assert.Equal(t, 3, record.IPOCount)
	assert.Equal(t, 1, record.UpCount)
	assert.Equal(t, 1, record.DownCount)
	assert.Equal(t, null.FloatFrom(2.5), record.AvgFirstDayPct)
	assert.Equal(t, 33.3, record.WinRatePct)
	assert.Equal(t, "N/A", record.BestStock)
	assert.False(t, record.AvgCumulativePct.Valid)
}

func TestParseSponsorDetailWithoutParsedValuesLeavesAverageUnknown(t *testing.T) {
	service := newTestSponsorService(newFakePageFetcher())

	record := service.ParseSponsorDetail(`<table id="tblData"><tbody><tr><td>01001</td><td>甲</td><td>-</td><td>-</td><td>-</td><td>N/A</td></tr></tbody></table>`)

	require.NotNil(t, record)
	assert.Equal(t, 1, record.IPOCount)
	assert.False(t, record.AvgFirstDayPct.Valid)
	assert.Nil(t, service.ParseSponsorDetail("<html></html>"))
}

func TestSearchSponsorPrefersSummaryTable(t *testing.T) {
	fetcher := newFakePageFetcher()
	fetcher.pages[sponsorPageURL] = sponsorSummaryPage
	service := newTestSponsorService(fetcher)

	sponsor, err := service.SearchSponsor(context.Background(), "中國國際金融")

	require.NoError(t, err)
	assert.Equal(t, "中國國際金融香港證券有限公司", sponsor.Name)
	assert.Equal(t, 70.0, sponsor.WinRatePct)
	assert.Equal(t, []string{sponsorPageURL}, fetcher.calls)
}

func TestSearchSponsorFallsBackToListingPage(t *testing.T) {
	fetcher := newFakePageFetcher()
	service := newTestSponsorService(fetcher)
	fetcher.pages[sponsorPageURL] = sponsorSummaryPage
	fetcher.pages[service.DetailURL("202")] = sponsorDetailPage

	sponsor, err := service.SearchSponsor(context.Background(), "华泰金融")

	require.NoError(t, err)
	assert.Equal(t, "華泰金融控股(香港)有限公司", sponsor.Name)
	assert.Equal(t, 3, sponsor.IPOCount)
	assert.Equal(t, 33.3, sponsor.WinRatePct)
}

func TestSearchSponsorReportsLookupMiss(t *testing.T) {
	fetcher := newFakePageFetcher()
	fetcher.pages[sponsorPageURL] = sponsorSummaryPage
	service := newTestSponsorService(fetcher)

	sponsor, err := service.SearchSponsor(context.Background(), "不存在")

	assert.Nil(t, sponsor)
	assert.True(t, shared.IsLookupMiss(err))
}

func TestSearchSponsorSurfacesListingFetchErrors(t *testing.T) {
	fetcher := newFakePageFetcher()
	fetcher.pages[sponsorPageURL] = sponsorSummaryPage
	service := newTestSponsorService(fetcher)

	sponsor, err := service.SearchSponsor(context.Background(), "华泰金融")

	assert.Nil(t, sponsor)
	assert.True(t, shared.IsTransportError(err))
	assert.False(t, shared.IsLookupMiss(err))
}

func TestSponsorDetailURL(t *testing.T) {
	service := newTestSponsorService(newFakePageFetcher())

	assert.Equal(t, sponsorPageURL+"?s=1&o=&s2=0&o2=0&f1=202&f2=&page=1", service.DetailURL("202"))
}
