package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/hkipo-research/hkipo/models"
)

// IndexSource returns today's move of a market index
type IndexSource interface {
	FetchIndexSnapshot(ctx context.Context, ticker string) (*models.MarketSentimentSnapshot, error)
}

// MarketHandler serves the market sentiment endpoint
type MarketHandler struct {
	index        IndexSource
	defaultIndex string
}

func NewMarketHandler(index IndexSource, defaultIndex string) *MarketHandler {
	return &MarketHandler{index: index, defaultIndex: defaultIndex}
}

// GetIndexSnapshot returns the index snapshot for ?ticker (the configured index by default)
func (h *MarketHandler) GetIndexSnapshot(c *fiber.Ctx) error {
	ticker := c.Query("ticker", h.defaultIndex)
	if ticker == "" {
		return respondBadRequest(c, "ticker is required")
	}

	snapshot, err := h.index.FetchIndexSnapshot(c.UserContext(), ticker)
	if err != nil {
		return respondError(c, err)
	}
	return respondData(c, snapshot)
}
