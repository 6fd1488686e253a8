package services

import (
	"context"
	"net/http"

	"github.com/hkipo-research/hkipo/models"
	"github.com/hkipo-research/hkipo/shared"
)

// fakePageFetcher serves canned pages by URL; unknown URLs answer HTTP 404
type fakePageFetcher struct {
	pages  map[string]string
	errors map[string]error
	calls  []string
}

func newFakePageFetcher() *fakePageFetcher {
	return &fakePageFetcher{pages: map[string]string{}, errors: map[string]error{}}
}

func (f *fakePageFetcher) Fetch(_ context.Context, url string) (string, error) {
	f.calls = append(f.calls, url)
	if err, ok := f.errors[url]; ok {
		return "", err
	}
	page, ok := f.pages[url]
	if !ok {
		return "", &shared.HTTPStatusError{StatusCode: http.StatusNotFound, URL: url}
	}
	return page, nil
}

// fakeResponseFetcher serves canned responses by URL
type fakeResponseFetcher struct {
	responses map[string]*shared.Response
	calls     []string
}

func (f *fakeResponseFetcher) Get(_ context.Context, url string) (*shared.Response, error) {
	f.calls = append(f.calls, url)
	response, ok := f.responses[url]
	if !ok {
		return nil, shared.NewTransportError("fake", url, 1, context.DeadlineExceeded)
	}
	return response, nil
}

// fakeDetailSource returns a fixed detail record
type fakeDetailSource struct {
	detail *models.IPODetail
	err    error
}

func (f *fakeDetailSource) FetchDetail(_ context.Context, code string) (*models.IPODetail, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.detail, nil
}

// fakePriceSource returns a fixed quote and records the tickers asked for
type fakePriceSource struct {
	price   float64
	err     error
	tickers []string
}

func (f *fakePriceSource) FetchLastPrice(_ context.Context, ticker string) (float64, error) {
	f.tickers = append(f.tickers, ticker)
	return f.price, f.err
}

func transportFailure(url string) error {
	return shared.NewTransportError("fake", url, 3, context.DeadlineExceeded)
}
