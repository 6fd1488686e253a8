package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"github.com/guregu/null/v6"
	"github.com/hkipo-research/hkipo/models"
	"github.com/hkipo-research/hkipo/shared"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const (
	sponsorSummaryMinCells = 10
	sponsorDetailMinCells  = 6
	allSponsorsOption      = "所有保荐人"
	unknownStock           = "N/A"
)

// SponsorService reads sponsor track records from the sponsor statistics page
type SponsorService struct {
	fetcher    PageFetcher
	pageURL    string
	reconciler *Reconciler
	metrics    *ExtractionMetrics
}

// NewSponsorService creates a sponsor service for the given sponsor.aspx URL
func NewSponsorService(fetcher PageFetcher, pageURL string, reconciler *Reconciler) *SponsorService {
	return &SponsorService{
		fetcher:    fetcher,
		pageURL:    pageURL,
		reconciler: reconciler,
		metrics:    NewExtractionMetrics(),
	}
}

// Metrics returns the service's extraction counters
func (s *SponsorService) Metrics() *ExtractionMetrics {
	return s.metrics
}

// DetailURL returns the per-sponsor listing page
func (s *SponsorService) DetailURL(sponsorID string) string {
	return fmt.Sprintf("%s?s=1&o=&s2=0&o2=0&f1=%s&f2=&page=1", s.pageURL, url.QueryEscape(sponsorID))
}

// FetchSponsorSummary returns the sponsor summary table in page order
func (s *SponsorService) FetchSponsorSummary(ctx context.Context) ([]models.SponsorRecord, error) {
	page, err := s.fetcher.Fetch(ctx, s.pageURL)
	if err != nil {
		return nil, err
	}
	return s.ParseSponsorSummary(page), nil
}

// ParseSponsorSummary extracts the summary table of the sponsor page
func (s *SponsorService) ParseSponsorSummary(page string) []models.SponsorRecord {
	sponsors := []models.SponsorRecord{}
	s.metrics.record(func(m *ExtractionMetrics) { m.PagesParsed++ })

	table, found := s.tableElement(page, "table#tblSummary")
	if !found {
		logStructuralMiss(s.metrics, "SponsorService", s.pageURL, "table#tblSummary")
		return sponsors
	}

	table.ForEach("tbody tr", func(_ int, row *colly.HTMLElement) {
		s.metrics.record(func(m *ExtractionMetrics) { m.RowsSeen++ })

		cells := rowCells(row)
		if len(cells) < sponsorSummaryMinCells {
			s.metrics.record(func(m *ExtractionMetrics) { m.RowsSkipped++ })
			return
		}

		sponsor := models.SponsorRecord{
			Name:             cells[0],
			IPOCount:         ParseInt(cells[1]),
			UpCount:          ParseInt(cells[2]),
			DownCount:        ParseInt(cells[3]),
			AvgFirstDayPct:   ParsePct(cells[4]),
			AvgCumulativePct: ParsePct(cells[5]),
			BestStock:        cells[6],
			BestReturn:       ParsePct(cells[7]),
			WorstStock:       cells[8],
			WorstReturn:      ParsePct(cells[9]),
		}
		sponsor.RefreshWinRate()
		sponsors = append(sponsors, sponsor)
	})

	return sponsors
}

// FetchSponsorDirectory returns every sponsor listed in the page's sponsor filter
func (s *SponsorService) FetchSponsorDirectory(ctx context.Context) ([]models.SponsorDirectoryEntry, error) {
	page, err := s.fetcher.Fetch(ctx, s.pageURL)
	if err != nil {
		return nil, err
	}
	return s.ParseSponsorDirectory(page), nil
}

// ParseSponsorDirectory reads the sponsor filter options in page order
func (s *SponsorService) ParseSponsorDirectory(page string) []models.SponsorDirectoryEntry {
	entries := []models.SponsorDirectoryEntry{}

	document, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		logStructuralMiss(s.metrics, "SponsorService", s.pageURL, "select#cp_ddlSponsor")
		return entries
	}

	selectBox := document.Find("select#cp_ddlSponsor")
	if selectBox.Length() == 0 {
		logStructuralMiss(s.metrics, "SponsorService", s.pageURL, "select#cp_ddlSponsor")
		return entries
	}

	seen := map[string]bool{}
	selectBox.Find("option").Each(func(_ int, option *goquery.Selection) {
		id, _ := option.Attr("value")
		id = strings.TrimSpace(id)
		name := collapseText(option.Text())
		if id == "" || name == "" || name == allSponsorsOption || seen[name] {
			return
		}
		seen[name] = true
		entries = append(entries, models.SponsorDirectoryEntry{Name: name, ID: id})
	})

	return entries
}

// FetchSponsorDetail rebuilds a sponsor record from its per-sponsor listing
// page. A nil record without error means the page had no listing table.
func (s *SponsorService) FetchSponsorDetail(ctx context.Context, sponsorID string) (*models.SponsorRecord, error) {
	page, err := s.fetcher.Fetch(ctx, s.DetailURL(sponsorID))
	if err != nil {
		return nil, err
	}
	return s.ParseSponsorDetail(page), nil
}

// ParseSponsorDetail aggregates the per-sponsor listing table. Fields the page
// does not carry (cumulative return, best and worst stock) are left unknown.
func (s *SponsorService) ParseSponsorDetail(page string) *models.SponsorRecord {
	s.metrics.record(func(m *ExtractionMetrics) { m.PagesParsed++ })

	table, found := s.tableElement(page, "table#tblData")
	if !found || table.DOM.Find("tbody").Length() == 0 {
		logStructuralMiss(s.metrics, "SponsorService", s.pageURL, "table#tblData tbody")
		return nil
	}

	record := &models.SponsorRecord{
		BestStock:  unknownStock,
		WorstStock: unknownStock,
	}
	sum := decimal.Zero
	parsed := 0

	table.ForEach("tbody tr", func(_ int, row *colly.HTMLElement) {
		record.IPOCount++
		cells := rowCells(row)
		if len(cells) < sponsorDetailMinCells {
			return
		}
		firstDay := ParsePct(cells[5])
		if !firstDay.Valid {
			return
		}
		parsed++
		sum = sum.Add(decimal.NewFromFloat(firstDay.Float64))
		switch {
		case firstDay.Float64 > 0:
			record.UpCount++
		case firstDay.Float64 < 0:
			record.DownCount++
		}
	})

	if parsed > 0 {
		average := sum.Div(decimal.NewFromInt(int64(parsed))).Round(2)
		record.AvgFirstDayPct = null.FloatFrom(average.InexactFloat64())
	}
	record.RefreshWinRate()
	return record
}

// SearchSponsor resolves a sponsor name: the summary table first, then every
// matching entry of the sponsor filter, rebuilt from its listing page.
func (s *SponsorService) SearchSponsor(ctx context.Context, name string) (*models.SponsorRecord, error) {
	logger := logrus.WithFields(logrus.Fields{
		"component": "SponsorService",
		"method":    "SearchSponsor",
		"name":      name,
	})

	page, err := s.fetcher.Fetch(ctx, s.pageURL)
	if err != nil {
		return nil, err
	}

	if sponsor, ok := s.reconciler.MatchSponsor(name, s.ParseSponsorSummary(page)); ok {
		logger.WithField("matched", sponsor.Name).Debug("Sponsor found in summary table")
		return &sponsor, nil
	}

	var lastErr error
	for _, entry := range s.reconciler.MatchDirectory(name, s.ParseSponsorDirectory(page)) {
		record, err := s.FetchSponsorDetail(ctx, entry.ID)
		if err != nil {
			logger.WithError(err).WithField("sponsor_id", entry.ID).Warn("Sponsor listing page unavailable")
			lastErr = err
			continue
		}
		if record == nil {
			continue
		}
		record.Name = entry.Name
		logger.WithField("matched", entry.Name).Debug("Sponsor rebuilt from listing page")
		return record, nil
	}

	if lastErr != nil {
		return nil, lastErr
	}
	return nil, shared.NewServiceError(
		shared.ErrorCategoryLookupMiss,
		"SPONSOR_NOT_FOUND",
		fmt.Sprintf("sponsor %q not found", name),
		"SponsorService",
		"SearchSponsor",
		false,
		shared.ErrLookupMiss,
	)
}

// tableElement parses page and wraps the first match of selector as a colly element
func (s *SponsorService) tableElement(page, selector string) (*colly.HTMLElement, bool) {
	document, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil, false
	}
	table := document.Find(selector).First()
	if table.Length() == 0 {
		return nil, false
	}
	return colly.NewHTMLElementFromSelectionNode(&colly.Response{}, table, table.Get(0), 0), true
}

func rowCells(row *colly.HTMLElement) []string {
	var cells []string
	row.ForEach("td", func(_ int, cell *colly.HTMLElement) {
		cells = append(cells, collapseText(cell.Text))
	})
	return cells
}

func collapseText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
