package handlers

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/hkipo-research/hkipo/models"
)

// PostSource searches social-media posts about an offering
type PostSource interface {
	SearchPosts(ctx context.Context, topic string, limit int) ([]models.Tweet, error)
}

// SentimentHandler serves the social sentiment endpoint
type SentimentHandler struct {
	posts        PostSource
	defaultLimit int
}

func NewSentimentHandler(posts PostSource, defaultLimit int) *SentimentHandler {
	return &SentimentHandler{posts: posts, defaultLimit: defaultLimit}
}

// GetPosts returns the most engaged posts about ?name
func (h *SentimentHandler) GetPosts(c *fiber.Ctx) error {
	name := strings.TrimSpace(c.Query("name"))
	if name == "" {
		return respondBadRequest(c, "name is required")
	}
	limit := c.QueryInt("limit", h.defaultLimit)
	if limit < 1 {
		return respondBadRequest(c, "limit must be positive")
	}

	posts, err := h.posts.SearchPosts(c.UserContext(), name, limit)
	if err != nil {
		return respondError(c, err)
	}
	return respondData(c, posts)
}
