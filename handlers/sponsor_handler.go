package handlers

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/hkipo-research/hkipo/models"
)

// SponsorSource provides sponsor track records
type SponsorSource interface {
	FetchSponsorSummary(ctx context.Context) ([]models.SponsorRecord, error)
	SearchSponsor(ctx context.Context, name string) (*models.SponsorRecord, error)
}

// SponsorHandler serves the sponsor endpoints
type SponsorHandler struct {
	sponsors SponsorSource
}

func NewSponsorHandler(sponsors SponsorSource) *SponsorHandler {
	return &SponsorHandler{sponsors: sponsors}
}

// GetSponsors returns the sponsor ranking table
func (h *SponsorHandler) GetSponsors(c *fiber.Ctx) error {
	records, err := h.sponsors.FetchSponsorSummary(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return respondData(c, records)
}

// SearchSponsor returns the record of the sponsor matching ?name
func (h *SponsorHandler) SearchSponsor(c *fiber.Ctx) error {
	name := strings.TrimSpace(c.Query("name"))
	if name == "" {
		return respondBadRequest(c, "name is required")
	}

	record, err := h.sponsors.SearchSponsor(c.UserContext(), name)
	if err != nil {
		return respondError(c, err)
	}
	return respondData(c, record)
}
