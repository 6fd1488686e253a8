package handlers

import (
	"context"
	"regexp"

	"github.com/gofiber/fiber/v2"
	"github.com/hkipo-research/hkipo/models"
)

var stockCodePattern = regexp.MustCompile(`^\d{1,5}$`)

// UpcomingSource lists the offerings open for subscription
type UpcomingSource interface {
	FetchUpcoming(ctx context.Context) ([]models.IPOListing, error)
}

// DetailSource returns the merged detail record of one offering
type DetailSource interface {
	FetchDetail(ctx context.Context, code string) (*models.IPODetail, error)
}

// HistorySource lists recently listed offerings
type HistorySource interface {
	FetchHistory(ctx context.Context, limit int) ([]models.HistoricalIPORecord, error)
}

// CalendarSource groups open offerings by subscription deadline
type CalendarSource interface {
	FetchCalendar(ctx context.Context) ([]models.CalendarRound, error)
}

// AHSource compares an H-share offer price with its A-share quote
type AHSource interface {
	CompareAH(ctx context.Context, code string) (*models.AHComparison, error)
}

// IPOHandler serves the offering endpoints
type IPOHandler struct {
	upcoming     UpcomingSource
	details      DetailSource
	history      HistorySource
	calendar     CalendarSource
	ah           AHSource
	historyLimit int
}

// NewIPOHandler creates an IPO handler; historyLimit applies when ?limit is absent
func NewIPOHandler(upcoming UpcomingSource, details DetailSource, history HistorySource, calendar CalendarSource, ah AHSource, historyLimit int) *IPOHandler {
	return &IPOHandler{
		upcoming:     upcoming,
		details:      details,
		history:      history,
		calendar:     calendar,
		ah:           ah,
		historyLimit: historyLimit,
	}
}

// GetUpcomingIPOs returns the offerings currently open for subscription
func (h *IPOHandler) GetUpcomingIPOs(c *fiber.Ctx) error {
	ipos, err := h.upcoming.FetchUpcoming(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return respondData(c, ipos)
}

// GetCalendar returns subscription rounds ordered by deadline
func (h *IPOHandler) GetCalendar(c *fiber.Ctx) error {
	rounds, err := h.calendar.FetchCalendar(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return respondData(c, rounds)
}

// GetHistory returns recently listed offerings, limited by ?limit
func (h *IPOHandler) GetHistory(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", h.historyLimit)
	if limit < 0 {
		return respondBadRequest(c, "limit must not be negative")
	}

	records, err := h.history.FetchHistory(c.UserContext(), limit)
	if err != nil {
		return respondError(c, err)
	}
	return respondData(c, records)
}

// GetIPOByCode returns the detail record of one offering
func (h *IPOHandler) GetIPOByCode(c *fiber.Ctx) error {
	code := c.Params("code")
	if !stockCodePattern.MatchString(code) {
		return respondBadRequest(c, "code must be a numeric stock code")
	}

	detail, err := h.details.FetchDetail(c.UserContext(), code)
	if err != nil {
		return respondError(c, err)
	}
	return respondData(c, detail)
}

// GetAHComparison returns the A+H premium of one offering
func (h *IPOHandler) GetAHComparison(c *fiber.Ctx) error {
	code := c.Params("code")
	if !stockCodePattern.MatchString(code) {
		return respondBadRequest(c, "code must be a numeric stock code")
	}

	comparison, err := h.ah.CompareAH(c.UserContext(), code)
	if err != nil {
		return respondError(c, err)
	}
	return respondData(c, comparison)
}
