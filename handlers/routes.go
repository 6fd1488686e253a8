package handlers

import (
	"io"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/hkipo-research/hkipo/shared"
	"github.com/sirupsen/logrus"
)

// Handlers bundles every route handler of the API
type Handlers struct {
	IPO       *IPOHandler
	Market    *MarketHandler
	Sponsor   *SponsorHandler
	Sentiment *SentimentHandler
}

// NewApp builds the fiber application; access logs go to accessLog when it is non-nil
func NewApp(h Handlers, accessLog io.Writer) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "hkipo",
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	if accessLog != nil {
		app.Use(logger.New(logger.Config{Output: accessLog}))
	}
	app.Use(cors.New())

	RegisterRoutes(app, h)
	return app
}

// RegisterRoutes mounts the health check and the /api/v1 routes
func RegisterRoutes(app *fiber.App, h Handlers) {
	app.Get("/health", GetHealth)

	api := app.Group("/api/v1")

	// IPO Routes
	api.Get("/ipos", h.IPO.GetUpcomingIPOs)
	api.Get("/ipos/calendar", h.IPO.GetCalendar)
	api.Get("/ipos/history", h.IPO.GetHistory)
	api.Get("/ipos/:code/ah", h.IPO.GetAHComparison)
	api.Get("/ipos/:code", h.IPO.GetIPOByCode)

	// Market Routes
	api.Get("/market/index", h.Market.GetIndexSnapshot)

	// Sponsor Routes
	api.Get("/sponsors", h.Sponsor.GetSponsors)
	api.Get("/sponsors/search", h.Sponsor.SearchSponsor)

	// Sentiment Routes
	api.Get("/sentiment/tweets", h.Sentiment.GetPosts)
}

// GetHealth reports that the server is up
func GetHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "ok",
		"timestamp": time.Now().Unix(),
	})
}

func respondData(c *fiber.Ctx, data interface{}) error {
	return c.JSON(fiber.Map{
		"success": true,
		"data":    data,
	})
}

func respondBadRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"success": false,
		"error":   message,
	})
}

// respondError maps lookup misses to 404 and upstream failures to 502
func respondError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case shared.IsLookupMiss(err):
		status = fiber.StatusNotFound
	case shared.IsTransportError(err):
		status = fiber.StatusBadGateway
	}

	logrus.WithFields(logrus.Fields{
		"component": "API",
		"path":      c.Path(),
		"status":    status,
	}).WithError(err).Warn("Request failed")

	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"error":   err.Error(),
	})
}
