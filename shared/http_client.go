package shared

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// DesktopUserAgent is sent on every upstream request
const DesktopUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// FetcherOptions configures a Fetcher
type FetcherOptions struct {
	Name            string
	Timeout         time.Duration
	MaxAttempts     int
	RetryPause      time.Duration
	PolitenessDelay time.Duration
	UserAgent       string
	Accept          string
	Transport       http.RoundTripper
}

// NewDefaultFetcherOptions returns the options used for HTML pages
func NewDefaultFetcherOptions(name string) FetcherOptions {
	return FetcherOptions{
		Name:        name,
		Timeout:     20 * time.Second,
		MaxAttempts: 3,
		RetryPause:  time.Second,
		UserAgent:   DesktopUserAgent,
		Accept:      "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
	}
}

// Response is a raw upstream response
type Response struct {
	StatusCode int
	Body       []byte
}

// Fetcher retrieves documents over HTTP GET and retries transient transport failures
// with a fixed pause. Status errors and malformed bodies are not retried.
type Fetcher struct {
	name        string
	client      *http.Client
	userAgent   string
	accept      string
	maxAttempts int
	retryPause  time.Duration
	limiter     *HTTPRequestRateLimiter
	metrics     *ServiceMetrics
	sleep       func(time.Duration)
}

// NewFetcher creates a fetcher, filling zero-valued options with defaults
func NewFetcher(options FetcherOptions) *Fetcher {
	defaults := NewDefaultFetcherOptions(options.Name)
	if options.Name == "" {
		options.Name = "Fetcher"
	}
	if options.Timeout <= 0 {
		options.Timeout = defaults.Timeout
	}
	if options.MaxAttempts <= 0 {
		options.MaxAttempts = defaults.MaxAttempts
	}
	if options.RetryPause < 0 {
		options.RetryPause = defaults.RetryPause
	}
	if options.UserAgent == "" {
		options.UserAgent = defaults.UserAgent
	}
	if options.Accept == "" {
		options.Accept = defaults.Accept
	}

	client := &http.Client{Timeout: options.Timeout}
	if options.Transport != nil {
		client.Transport = options.Transport
	}

	return &Fetcher{
		name:        options.Name,
		client:      client,
		userAgent:   options.UserAgent,
		accept:      options.Accept,
		maxAttempts: options.MaxAttempts,
		retryPause:  options.RetryPause,
		limiter:     NewHTTPRequestRateLimiter(options.PolitenessDelay),
		metrics:     NewServiceMetrics(options.Name),
		sleep:       time.Sleep,
	}
}

// Metrics returns the fetcher's request counters
func (f *Fetcher) Metrics() *ServiceMetrics {
	return f.metrics
}

// Fetch returns the body of url as text. Statuses of 400 and above fail with *HTTPStatusError.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	response, err := f.Get(ctx, url)
	if err != nil {
		return "", err
	}
	if response.StatusCode >= http.StatusBadRequest {
		return "", &HTTPStatusError{StatusCode: response.StatusCode, URL: url}
	}
	return string(response.Body), nil
}

// FetchJSON fetches url and decodes the body into target
func (f *Fetcher) FetchJSON(ctx context.Context, url string, target interface{}) error {
	body, err := f.Fetch(ctx, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(body), target); err != nil {
		return fmt.Errorf("decoding response from %s: %w", url, err)
	}
	return nil
}

// Get performs the request with retries and returns the response regardless of status
func (f *Fetcher) Get(ctx context.Context, url string) (*Response, error) {
	logger := logrus.WithFields(logrus.Fields{
		"component": f.name,
		"method":    "Get",
		"url":       url,
	})

	f.limiter.EnforceRateLimit()

	var lastErr error
	for attempt := 1; attempt <= f.maxAttempts; attempt++ {
		if attempt > 1 {
			logger.WithFields(logrus.Fields{
				"attempt": attempt,
				"pause":   f.retryPause,
			}).Debug("Retrying request after transient failure")
			f.metrics.IncrementCounter("retries")
			f.sleep(f.retryPause)
		}

		started := time.Now()
		response, err := f.do(ctx, url)
		f.metrics.RecordRequest(err == nil, time.Since(started))
		if err == nil {
			logger.WithFields(logrus.Fields{
				"attempt":     attempt,
				"status_code": response.StatusCode,
				"bytes":       len(response.Body),
			}).Debug("Request completed")
			return response, nil
		}

		lastErr = err
		if !IsTransientNetworkError(err) {
			logger.WithError(err).Debug("Request failed with non-retryable error")
			return nil, NewTransportError(f.name, url, attempt, err)
		}
		logger.WithError(err).WithField("attempt", attempt).Warn("Request failed with transient error")
	}

	logger.WithFields(logrus.Fields{
		"total_attempts": f.maxAttempts,
		"final_error":    lastErr,
	}).Error("Request failed after all retry attempts")

	return nil, NewTransportError(f.name, url, f.maxAttempts, lastErr)
}

func (f *Fetcher) do(ctx context.Context, url string) (*Response, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	request.Header.Set("User-Agent", f.userAgent)
	request.Header.Set("Accept", f.accept)
	request.Header.Set("Accept-Language", "zh-HK,zh;q=0.9,en;q=0.8")

	httpResponse, err := f.client.Do(request)
	if err != nil {
		return nil, err
	}
	defer httpResponse.Body.Close()

	body, err := io.ReadAll(httpResponse.Body)
	if err != nil {
		return nil, err
	}

	return &Response{StatusCode: httpResponse.StatusCode, Body: body}, nil
}
