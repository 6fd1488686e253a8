package main

import (
	"github.com/hkipo-research/hkipo/config"
	"github.com/hkipo-research/hkipo/handlers"
	"github.com/hkipo-research/hkipo/services"
	"github.com/hkipo-research/hkipo/shared"
)

// application wires fetchers, extractors and services from the configuration
type application struct {
	cfg *config.Config

	pageFetcher    *shared.Fetcher
	sponsorFetcher *shared.Fetcher
	apiFetcher     *shared.Fetcher
	postFetcher    *shared.Fetcher

	reconciler *services.Reconciler
	upcoming   *services.UpcomingScraper
	details    *services.DetailScraper
	history    *services.HistoryScraper
	calendar   *services.CalendarService
	market     *services.MarketService
	ah         *services.AHService
	sponsors   *services.SponsorService
	search     *services.ScriptSearchUtility
	sentiment  *services.SentimentService
}

func newApplication(cfg *config.Config) *application {
	a := &application{
		cfg:            cfg,
		pageFetcher:    shared.NewFetcher(cfg.PageFetcherOptions()),
		sponsorFetcher: shared.NewFetcher(cfg.SponsorFetcherOptions()),
		apiFetcher:     shared.NewFetcher(cfg.APIFetcherOptions()),
		postFetcher:    shared.NewFetcher(cfg.PostFetcherOptions()),
		reconciler:     services.NewReconciler(services.DefaultAHRegistry()),
	}

	a.upcoming = services.NewUpcomingScraper(a.pageFetcher, cfg.IPOBaseURL, a.reconciler)
	a.details = services.NewDetailScraper(a.pageFetcher, cfg.IPOBaseURL, a.reconciler)
	a.history = services.NewHistoryScraper(a.pageFetcher, cfg.IPOBaseURL)
	a.calendar = services.NewCalendarService(a.upcoming)
	a.market = services.NewMarketService(a.apiFetcher, cfg.ChartAPIURL)
	a.ah = services.NewAHService(a.details, a.market, cfg.CNYHKDRate)
	a.sponsors = services.NewSponsorService(a.sponsorFetcher, cfg.SponsorURL, a.reconciler)
	a.search = services.NewScriptSearchUtility(cfg.SearchPython, cfg.SearchScript, cfg.SearchTimeout)
	a.sentiment = services.NewSentimentService(a.search, a.postFetcher, cfg.PostAPIURL)
	return a
}

// handlers returns the HTTP handlers backed by this application's services
func (a *application) handlers() handlers.Handlers {
	return handlers.Handlers{
		IPO:       handlers.NewIPOHandler(a.upcoming, a.details, a.history, a.calendar, a.ah, a.cfg.HistoryLimit),
		Market:    handlers.NewMarketHandler(a.market, a.cfg.IndexTicker),
		Sponsor:   handlers.NewSponsorHandler(a.sponsors),
		Sentiment: handlers.NewSentimentHandler(a.sentiment, a.cfg.TweetLimit),
	}
}

// logMetrics writes request and extraction counters at debug level
func (a *application) logMetrics() {
	for _, fetcher := range []*shared.Fetcher{a.pageFetcher, a.sponsorFetcher, a.apiFetcher, a.postFetcher} {
		if fetcher.Metrics().TotalRequests > 0 {
			fetcher.Metrics().LogSummary()
		}
	}
	a.upcoming.Metrics().LogSummary("UpcomingScraper")
	a.details.Metrics().LogSummary("DetailScraper")
	a.history.Metrics().LogSummary("HistoryScraper")
	a.sponsors.Metrics().LogSummary("SponsorService")
}
