package services

import (
	"context"
	"regexp"
	"strings"

	"github.com/guregu/null/v6"
	"github.com/hkipo-research/hkipo/models"
	"github.com/sirupsen/logrus"
)

var (
	upcomingTablePattern = regexp.MustCompile(`(?s)<table[^>]*id="tblGMUpcoming"[^>]*>(.*?)</table>`)
	// Data rows open with the name cell; header and spacer rows do not.
	upcomingRowPattern = regexp.MustCompile(`(?s)<tr[^>]*>\s*(<td class="txt_l">.*?)</tr>`)
)

const upcomingMinCells = 8

// UpcomingScraper extracts the offerings currently open for subscription
type UpcomingScraper struct {
	fetcher    PageFetcher
	baseURL    string
	reconciler *Reconciler
	metrics    *ExtractionMetrics
}

// NewUpcomingScraper creates a scraper for {baseURL}/upcomingipo.aspx
func NewUpcomingScraper(fetcher PageFetcher, baseURL string, reconciler *Reconciler) *UpcomingScraper {
	return &UpcomingScraper{
		fetcher:    fetcher,
		baseURL:    strings.TrimRight(baseURL, "/"),
		reconciler: reconciler,
		metrics:    NewExtractionMetrics(),
	}
}

// Metrics returns the scraper's extraction counters
func (s *UpcomingScraper) Metrics() *ExtractionMetrics {
	return s.metrics
}

// URL returns the page the scraper reads
func (s *UpcomingScraper) URL() string {
	return s.baseURL + "/upcomingipo.aspx"
}

// FetchUpcoming returns the open offerings. Only a failed fetch is an error;
// layout drift yields an empty list.
func (s *UpcomingScraper) FetchUpcoming(ctx context.Context) ([]models.IPOListing, error) {
	page, err := s.fetcher.Fetch(ctx, s.URL())
	if err != nil {
		return nil, err
	}
	return s.ParseUpcoming(page), nil
}

// ParseUpcoming extracts listings from the upcoming-offerings page
func (s *UpcomingScraper) ParseUpcoming(page string) []models.IPOListing {
	listings := []models.IPOListing{}
	s.metrics.record(func(m *ExtractionMetrics) { m.PagesParsed++ })

	table, found := submatch(upcomingTablePattern, page)
	if !found {
		logStructuralMiss(s.metrics, "UpcomingScraper", s.URL(), "table#tblGMUpcoming")
		return listings
	}

	for _, rowMatch := range upcomingRowPattern.FindAllStringSubmatch(table, -1) {
		s.metrics.record(func(m *ExtractionMetrics) { m.RowsSeen++ })

		cells := splitCells(rowMatch[1])
		if len(cells) < upcomingMinCells {
			s.metrics.record(func(m *ExtractionMetrics) { m.RowsSkipped++ })
			continue
		}

		name, code, ok := nameAndCode(cells[0])
		if !ok {
			s.metrics.record(func(m *ExtractionMetrics) { m.RowsSkipped++ })
			continue
		}

		listing := models.IPOListing{
			Code:        code,
			Name:        name,
			PriceRange:  strings.TrimSpace(strings.ReplaceAll(CleanCell(cells[2]), "N/A", "")),
			LotSize:     int(ParseAmount(cells[3])),
			EntryFee:    ParseAmount(cells[4]),
			Deadline:    NormalizeDate(CleanCell(cells[5])),
			ListingDate: NormalizeDate(CleanCell(cells[7])),
		}
		s.applyDualListing(&listing)
		listings = append(listings, listing)
	}

	logrus.WithFields(logrus.Fields{
		"component": "UpcomingScraper",
		"listings":  len(listings),
	}).Debug("Parsed upcoming offerings")

	return listings
}

func (s *UpcomingScraper) applyDualListing(listing *models.IPOListing) {
	if s.reconciler == nil {
		return
	}
	if entry, ok := s.reconciler.MatchAHShare(listing.Name); ok {
		listing.IsAHStock = true
		listing.AShareCode = null.StringFrom(entry.AShareCode)
	}
}
