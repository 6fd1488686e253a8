package services

import (
	"context"
	"html"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/guregu/null/v6"
	"github.com/hkipo-research/hkipo/models"
	"github.com/sirupsen/logrus"
)

const companyIntroMaxRunes = 200

// Company profile page
var (
	introPattern       = regexp.MustCompile(`(?s)<div class="summary[^"]*"[^>]*>(.*?)</div>`)
	cornerstonePattern = regexp.MustCompile(`<td class="col1 txt_l">([^<]+)</td>\s*<td class="col2 txt_l">([^<]+)</td>\s*<td class="col3 txt_r">([^<]+)</td>`)
	industryPattern    = regexp.MustCompile(`>行業</td>\s*<td[^>]*class="txt_r"[^>]*>([^<]+)`)
	listingDatePattern = regexp.MustCompile(`>上市日期</td>\s*<td[^>]*>([^<]+)`)
)

// Offering page
var (
	titlePattern          = regexp.MustCompile(`<div class="title">([^<(]+)`)
	lotSizePattern        = regexp.MustCompile(`>每手股數</td>\s*<td[^>]*class="font-num[^"]*"[^>]*>(\d+)`)
	offerPricePattern     = regexp.MustCompile(`>招股價</td>\s*<td[^>]*class="font-num[^"]*"[^>]*>([^<]+)`)
	marketCapPattern      = regexp.MustCompile(`>市值</td>\s*<td[^>]*class="font-num[^"]*"[^>]*>([^<]+)`)
	deadlinePattern       = regexp.MustCompile(`>截止日期</td>\s*<td[^>]*>([^<]+)`)
	totalSharesPattern    = regexp.MustCompile(`>全球發售股數[^<]*</td>\s*<td[^>]*>([0-9,]+)`)
	publicTranchePattern  = regexp.MustCompile(`>香港/公開發售股數<sup>\d+</sup></td>\s*<td[^>]*>([0-9,]+)\(([0-9.]+)%\)`)
	intlTranchePattern    = regexp.MustCompile(`>國際配售股數<sup>\d+</sup></td>\s*<td[^>]*>([0-9,]+)\(([0-9.]+)%\)`)
	sponsorRowPattern     = regexp.MustCompile(`(?s)>保薦人</td>\s*<td>(.+?)</tr>`)
	sponsorLinkPattern    = regexp.MustCompile(`sponsor[^>]*>([^<]+)</a>`)
	underwriterRowPattern = regexp.MustCompile(`(?s)>包銷商</td>\s*<td>(.+?)</tr>`)
	coordinatorRowPattern = regexp.MustCompile(`(?s)>全球協調人</td>\s*<td>(.+?)</tr>`)
	fundUsagePattern      = regexp.MustCompile(`y:(\d+),\s*name:'([^']+)'`)
	clawbackTablePattern  = regexp.MustCompile(`(?s)回撥比例.*?</table>`)
	clawbackRowPattern    = regexp.MustCompile(`<td[^>]*>([^<]*[≤<X][^<]*)</td>\s*<td[^>]*>(\d+)</td>`)
)

var greenshoeMarkers = []string{"超額配股權", "穩定價格"}

// DetailScraper assembles the full record of one offering from its company
// profile page and its offering page
type DetailScraper struct {
	fetcher    PageFetcher
	baseURL    string
	reconciler *Reconciler
	metrics    *ExtractionMetrics
}

// NewDetailScraper creates a scraper for {baseURL}/upcomingipo/...
func NewDetailScraper(fetcher PageFetcher, baseURL string, reconciler *Reconciler) *DetailScraper {
	return &DetailScraper{
		fetcher:    fetcher,
		baseURL:    strings.TrimRight(baseURL, "/"),
		reconciler: reconciler,
		metrics:    NewExtractionMetrics(),
	}
}

// Metrics returns the scraper's extraction counters
func (s *DetailScraper) Metrics() *ExtractionMetrics {
	return s.metrics
}

// ProfileURL returns the company profile page of code
func (s *DetailScraper) ProfileURL(code string) string {
	return s.baseURL + "/upcomingipo/company-profile?symbol=" + url.QueryEscape(code)
}

// OfferingURL returns the offering page of code
func (s *DetailScraper) OfferingURL(code string) string {
	return s.baseURL + "/upcomingipo/ipo-info?symbol=" + url.QueryEscape(code)
}

// FetchDetail returns whatever could be extracted for code. When only one of
// the two pages can be fetched the partial record is returned without error;
// when both fail the last fetch error is returned.
func (s *DetailScraper) FetchDetail(ctx context.Context, code string) (*models.IPODetail, error) {
	logger := logrus.WithFields(logrus.Fields{
		"component": "DetailScraper",
		"method":    "FetchDetail",
		"code":      code,
	})
	detail := models.NewIPODetail(code)

	profilePage, profileErr := s.fetcher.Fetch(ctx, s.ProfileURL(code))
	if profileErr != nil {
		logger.WithError(profileErr).Warn("Company profile page unavailable, continuing with offering page")
	} else {
		s.ParseProfilePage(profilePage, detail)
	}

	offeringPage, offeringErr := s.fetcher.Fetch(ctx, s.OfferingURL(code))
	if offeringErr != nil {
		if profileErr != nil {
			return nil, offeringErr
		}
		logger.WithError(offeringErr).Warn("Offering page unavailable, returning partial detail")
	} else {
		s.ParseOfferingPage(offeringPage, detail)
	}

	detail.PricingMechanism = InferPricingMechanism(detail)
	return detail, nil
}

// ParseProfilePage fills the fields found on the company profile page
func (s *DetailScraper) ParseProfilePage(page string, detail *models.IPODetail) {
	s.metrics.record(func(m *ExtractionMetrics) { m.PagesParsed++ })

	if intro, ok := submatch(introPattern, page); ok {
		text := strings.TrimSpace(html.UnescapeString(StripTags(intro, "")))
		detail.CompanyIntro = Truncate(text, companyIntroMaxRunes)
	} else {
		logFieldMiss(s.metrics, "DetailScraper", "company_intro")
	}

	for _, row := range cornerstonePattern.FindAllStringSubmatch(page, -1) {
		name := CleanCell(row[1])
		// the header row repeats the column title
		if name == "名稱" {
			continue
		}
		detail.CornerstoneInvestors = append(detail.CornerstoneInvestors, models.CornerstoneInvestor{
			Name:   name,
			Type:   CleanCell(row[2]),
			Amount: CleanCell(row[3]),
		})
	}

	if industry, ok := submatch(industryPattern, page); ok {
		detail.Industry = CleanCell(industry)
	} else {
		logFieldMiss(s.metrics, "DetailScraper", "industry")
	}

	if listingDate, ok := submatch(listingDatePattern, page); ok {
		detail.ListingDate = NormalizeDate(CleanCell(listingDate))
	}
}

// ParseOfferingPage fills the fields found on the offering page
func (s *DetailScraper) ParseOfferingPage(page string, detail *models.IPODetail) {
	s.metrics.record(func(m *ExtractionMetrics) { m.PagesParsed++ })

	if name, ok := submatch(titlePattern, page); ok {
		detail.Name = CleanCell(name)
	} else {
		logFieldMiss(s.metrics, "DetailScraper", "name")
	}
	if detail.Name != "" && s.reconciler != nil {
		if entry, ok := s.reconciler.MatchAHShare(detail.Name); ok {
			detail.IsAHStock = true
			detail.AShareCode = null.StringFrom(entry.AShareCode)
		}
	}

	if lotSize, ok := submatch(lotSizePattern, page); ok {
		detail.LotSize = ParseInt(lotSize)
	}
	if offerPrice, ok := submatch(offerPricePattern, page); ok {
		detail.PriceRange = strings.TrimSpace(strings.ReplaceAll(CleanCell(offerPrice), "N/A", ""))
	}
	if marketCap, ok := submatch(marketCapPattern, page); ok {
		detail.MarketCap = CleanCell(marketCap)
	}
	if deadline, ok := submatch(deadlinePattern, page); ok {
		detail.Deadline = NormalizeDate(CleanCell(deadline))
	}

	if totalShares, ok := submatch(totalSharesPattern, page); ok {
		detail.TotalShares = parseShareCount(totalShares)
	}
	if match := publicTranchePattern.FindStringSubmatch(page); match != nil {
		detail.PublicShares = parseShareCount(match[1])
		detail.PublicRatio = ParseDecimal(match[2])
	} else {
		logFieldMiss(s.metrics, "DetailScraper", "public_tranche")
	}
	if match := intlTranchePattern.FindStringSubmatch(page); match != nil {
		detail.IntlShares = parseShareCount(match[1])
		detail.IntlRatio = ParseDecimal(match[2])
	}

	for _, marker := range greenshoeMarkers {
		if strings.Contains(page, marker) {
			detail.HasGreenshoe = true
			break
		}
	}

	if row, ok := submatch(sponsorRowPattern, page); ok {
		for _, link := range sponsorLinkPattern.FindAllStringSubmatch(row, -1) {
			if sponsor := CleanCell(link[1]); sponsor != "" {
				detail.Sponsors = append(detail.Sponsors, sponsor)
			}
		}
	}
	if row, ok := submatch(underwriterRowPattern, page); ok {
		detail.Underwriters = splitTaggedList(row)
	}
	if row, ok := submatch(coordinatorRowPattern, page); ok {
		detail.GlobalCoordinators = splitTaggedList(row)
	}

	for _, item := range fundUsagePattern.FindAllStringSubmatch(page, -1) {
		ratio, _ := strconv.Atoi(item[1])
		detail.FundUsage = append(detail.FundUsage, models.FundUsage{
			Purpose: html.UnescapeString(item[2]),
			Ratio:   ratio,
		})
	}

	if section := clawbackTablePattern.FindString(page); section != "" {
		for _, band := range clawbackRowPattern.FindAllStringSubmatch(section, -1) {
			ratio, _ := strconv.Atoi(band[2])
			if ratio == 0 {
				continue
			}
			detail.Clawback = append(detail.Clawback, models.ClawbackBand{
				Condition: strings.TrimSpace(html.UnescapeString(band[1])),
				Ratio:     ratio,
			})
		}
	}
}

// InferPricingMechanism derives the allocation regime: a clawback table means
// mechanism A, a fixed public ratio without one means B, otherwise unknown.
func InferPricingMechanism(detail *models.IPODetail) models.PricingMechanism {
	if len(detail.Clawback) > 0 {
		return models.PricingMechanismA
	}
	if detail.PublicRatio.Valid {
		return models.PricingMechanismB
	}
	return models.PricingMechanismUnknown
}

// splitTaggedList turns a cell holding one name per tag into a list
func splitTaggedList(fragment string) []string {
	items := []string{}
	for _, line := range strings.Split(StripTags(fragment, "\n"), "\n") {
		if item := strings.TrimSpace(html.UnescapeString(line)); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func parseShareCount(text string) int64 {
	count, err := strconv.ParseInt(strings.ReplaceAll(strings.TrimSpace(text), ",", ""), 10, 64)
	if err != nil {
		return 0
	}
	return count
}
