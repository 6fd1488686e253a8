package services

import (
	"context"
	"regexp"
	"strings"

	"github.com/hkipo-research/hkipo/models"
	"github.com/sirupsen/logrus"
)

var (
	historyBodyPattern = regexp.MustCompile(`(?s)<table[^>]*class="ns2 dataTable"[^>]*>.*?<tbody[^>]*>(.*?)</tbody>`)
	historyRowPattern  = regexp.MustCompile(`(?s)<tr[^>]*>(.*?)</tr>`)
)

const historyMinCells = 12

// HistoryScraper extracts first-day outcomes of already listed offerings
type HistoryScraper struct {
	fetcher PageFetcher
	baseURL string
	metrics *ExtractionMetrics
}

// NewHistoryScraper creates a scraper for {baseURL}/listedipo.aspx
func NewHistoryScraper(fetcher PageFetcher, baseURL string) *HistoryScraper {
	return &HistoryScraper{
		fetcher: fetcher,
		baseURL: strings.TrimRight(baseURL, "/"),
		metrics: NewExtractionMetrics(),
	}
}

// Metrics returns the scraper's extraction counters
func (s *HistoryScraper) Metrics() *ExtractionMetrics {
	return s.metrics
}

// URL returns the page the scraper reads
func (s *HistoryScraper) URL() string {
	return s.baseURL + "/listedipo.aspx"
}

// FetchHistory returns at most limit records in page order. A limit below 1
// returns everything.
func (s *HistoryScraper) FetchHistory(ctx context.Context, limit int) ([]models.HistoricalIPORecord, error) {
	page, err := s.fetcher.Fetch(ctx, s.URL())
	if err != nil {
		return nil, err
	}

	records := s.ParseHistory(page)
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// ParseHistory extracts every record from the listed-offerings page
func (s *HistoryScraper) ParseHistory(page string) []models.HistoricalIPORecord {
	records := []models.HistoricalIPORecord{}
	s.metrics.record(func(m *ExtractionMetrics) { m.PagesParsed++ })

	body, found := submatch(historyBodyPattern, page)
	if !found {
		logStructuralMiss(s.metrics, "HistoryScraper", s.URL(), "table.ns2.dataTable tbody")
		return records
	}

	for _, rowMatch := range historyRowPattern.FindAllStringSubmatch(body, -1) {
		s.metrics.record(func(m *ExtractionMetrics) { m.RowsSeen++ })

		cells := splitCells(rowMatch[1])
		if len(cells) < historyMinCells {
			s.metrics.record(func(m *ExtractionMetrics) { m.RowsSkipped++ })
			continue
		}

		name, code, ok := nameAndCode(cells[1])
		if !ok {
			s.metrics.record(func(m *ExtractionMetrics) { m.RowsSkipped++ })
			continue
		}

		records = append(records, models.HistoricalIPORecord{
			Code:              code,
			Name:              name,
			ListingDate:       NormalizeDate(CleanCell(cells[2])),
			OfferPrice:        ParseDecimal(CleanCell(cells[5])),
			ListingPrice:      ParseDecimal(CleanCell(cells[6])),
			Oversubscription:  ParseDecimal(CleanCell(cells[7])),
			WinRatePct:        ParseDecimal(CleanCell(cells[9])),
			FirstDayChangePct: ParseSignedPct(CleanCell(cells[11])),
		})
	}

	logrus.WithFields(logrus.Fields{
		"component": "HistoryScraper",
		"records":   len(records),
	}).Debug("Parsed listed offerings")

	return records
}
