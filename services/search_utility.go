package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"time"

	"github.com/hkipo-research/hkipo/shared"
	"github.com/sirupsen/logrus"
)

// SearchResult is one hit returned by the web search utility
type SearchResult struct {
	Title string `json:"title"`
	Href  string `json:"href"`
	Body  string `json:"body"`
}

// SearchUtility runs web searches
type SearchUtility interface {
	Available() bool
	Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error)
}

// ScriptSearchUtility shells out to the web-search helper script
type ScriptSearchUtility struct {
	python  string
	script  string
	timeout time.Duration
}

// NewScriptSearchUtility creates a search utility running `python script`
func NewScriptSearchUtility(python, script string, timeout time.Duration) *ScriptSearchUtility {
	if python == "" {
		python = "python3"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ScriptSearchUtility{python: python, script: script, timeout: timeout}
}

// Available reports whether the helper script is installed
func (u *ScriptSearchUtility) Available() bool {
	if u.script == "" {
		return false
	}
	info, err := os.Stat(u.script)
	return err == nil && !info.IsDir()
}

// Search runs one query and returns its hits
func (u *ScriptSearchUtility) Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error) {
	if !u.Available() {
		return nil, shared.ErrSearchUnavailable
	}

	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	command := exec.CommandContext(ctx, u.python, u.script, query,
		"--max-results", strconv.Itoa(maxResults),
		"--format", "json")
	var stderr bytes.Buffer
	command.Stderr = &stderr

	output, err := command.Output()
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"component": "ScriptSearchUtility",
			"query":     query,
			"stderr":    stderr.String(),
		}).WithError(err).Debug("Search script failed")
		return nil, shared.NewServiceError(shared.ErrorCategorySearch, "SEARCH_FAILED",
			fmt.Sprintf("search for %q failed", query), "ScriptSearchUtility", "Search", false, err)
	}

	return ParseSearchOutput(output)
}

// ParseSearchOutput decodes the JSON array in the script output. The script
// prints progress lines before the array, so decoding starts at the first "[".
func ParseSearchOutput(output []byte) ([]SearchResult, error) {
	start := bytes.IndexByte(output, '[')
	if start < 0 {
		return []SearchResult{}, nil
	}

	var results []SearchResult
	if err := json.NewDecoder(bytes.NewReader(output[start:])).Decode(&results); err != nil {
		return nil, fmt.Errorf("decoding search output: %w", err)
	}
	return results, nil
}
