package services

import (
	"context"
	"fmt"
	"regexp"
	"sync"

	"github.com/hkipo-research/hkipo/shared"
	"github.com/sirupsen/logrus"
)

// PageFetcher retrieves a document as text
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// ResponseFetcher retrieves a document without classifying its HTTP status
type ResponseFetcher interface {
	Get(ctx context.Context, url string) (*shared.Response, error)
}

var (
	cellPattern       = regexp.MustCompile(`(?s)<td[^>]*>(.*?)</td>`)
	anchorTextPattern = regexp.MustCompile(`>([^<]+)</a>`)
	stockCodePattern  = regexp.MustCompile(`(\d{5})\.HK`)
)

// splitCells returns the inner markup of every <td> in a row fragment
func splitCells(row string) []string {
	matches := cellPattern.FindAllStringSubmatch(row, -1)
	cells := make([]string, 0, len(matches))
	for _, match := range matches {
		cells = append(cells, match[1])
	}
	return cells
}

// nameAndCode reads the anchor text and the "NNNNN.HK" code from a cell
func nameAndCode(cell string) (string, string, bool) {
	nameMatch := anchorTextPattern.FindStringSubmatch(cell)
	codeMatch := stockCodePattern.FindStringSubmatch(cell)
	if nameMatch == nil || codeMatch == nil {
		return "", "", false
	}
	return CleanCell(nameMatch[1]), codeMatch[1], true
}

// submatch returns the first capture group of pattern in text
func submatch(pattern *regexp.Regexp, text string) (string, bool) {
	match := pattern.FindStringSubmatch(text)
	if match == nil {
		return "", false
	}
	return match[1], true
}

// ExtractionMetrics counts how much of a page survived extraction
type ExtractionMetrics struct {
	PagesParsed      int
	StructuralMisses int
	RowsSeen         int
	RowsSkipped      int
	FieldMisses      int
	mutex            sync.Mutex
}

// NewExtractionMetrics creates a new metrics tracker
func NewExtractionMetrics() *ExtractionMetrics {
	return &ExtractionMetrics{}
}

func (m *ExtractionMetrics) record(update func(*ExtractionMetrics)) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	update(m)
}

// LogSummary logs a summary of extraction metrics
func (m *ExtractionMetrics) LogSummary(component string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	keptRate := 0.0
	if m.RowsSeen > 0 {
		keptRate = float64(m.RowsSeen-m.RowsSkipped) / float64(m.RowsSeen) * 100
	}

	logrus.WithFields(logrus.Fields{
		"component":         component,
		"pages_parsed":      m.PagesParsed,
		"structural_misses": m.StructuralMisses,
		"rows_seen":         m.RowsSeen,
		"rows_skipped":      m.RowsSkipped,
		"rows_kept_rate":    fmt.Sprintf("%.1f%%", keptRate),
		"field_misses":      m.FieldMisses,
	}).Debug("Extraction summary")
}

// logStructuralMiss records a missing page anchor; the caller returns an empty result
func logStructuralMiss(metrics *ExtractionMetrics, component, url, anchor string) {
	metrics.record(func(m *ExtractionMetrics) { m.StructuralMisses++ })
	logrus.WithFields(logrus.Fields{
		"component":      component,
		"url":            url,
		"anchor":         anchor,
		"error_category": shared.ErrorCategoryStructuralMiss,
	}).Warn("Page layout anchor not found, returning empty result")
}

// logFieldMiss records a field that fell back to its empty value
func logFieldMiss(metrics *ExtractionMetrics, component, field string) {
	metrics.record(func(m *ExtractionMetrics) { m.FieldMisses++ })
	logrus.WithFields(logrus.Fields{
		"component":      component,
		"field":          field,
		"error_category": shared.ErrorCategoryFieldParse,
	}).Debug("Field not found, using empty value")
}
