package services

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/guregu/null/v6"
	"github.com/hkipo-research/hkipo/models"
	"github.com/sirupsen/logrus"
)

const searchResultsPerQuery = 10

var (
	postURLPattern = regexp.MustCompile(`(?:x\.com|twitter\.com)/([^/]+)/status/(\d+)`)

	reservedHandles = map[string]bool{
		"settings": true, "help": true, "i": true,
		"search": true, "explore": true, "home": true,
	}

	postQueryTemplates = []string{
		"%s 港股打新 site:x.com",
		"%s IPO 香港 site:x.com",
		"%s 新股 site:twitter.com",
	}

	relevanceKeywords = []string{"港股", "打新", "新股", "ipo"}
)

// collectorState names the phases of one SearchPosts call, for logging
type collectorState string

const (
	stateIdle       collectorState = "idle"
	stateQuerying   collectorState = "querying"
	stateExtracting collectorState = "extracting"
	stateFetching   collectorState = "fetching"
	stateFiltering  collectorState = "filtering"
	stateDone       collectorState = "done"
)

// PostRef identifies a post by author handle and numeric id
type PostRef struct {
	Handle string
	ID     string
}

type postAPIResponse struct {
	Code  int `json:"code"`
	Tweet *struct {
		Text      string   `json:"text"`
		URL       string   `json:"url"`
		CreatedAt string   `json:"created_at"`
		Likes     int      `json:"likes"`
		Retweets  int      `json:"retweets"`
		Views     null.Int `json:"views"`
		Author    struct {
			ScreenName string `json:"screen_name"`
			Name       string `json:"name"`
		} `json:"author"`
	} `json:"tweet"`
}

// SentimentService collects social-media posts about an offering
type SentimentService struct {
	search     SearchUtility
	posts      ResponseFetcher
	postAPIURL string
}

// NewSentimentService creates a collector using search for discovery and the
// post API at postAPIURL for metadata
func NewSentimentService(search SearchUtility, posts ResponseFetcher, postAPIURL string) *SentimentService {
	return &SentimentService{
		search:     search,
		posts:      posts,
		postAPIURL: strings.TrimRight(postAPIURL, "/"),
	}
}

// SearchPosts returns up to limit relevant posts about topic, most engaged first.
// A missing search utility yields an empty result, not an error.
func (s *SentimentService) SearchPosts(ctx context.Context, topic string, limit int) ([]models.Tweet, error) {
	logger := logrus.WithFields(logrus.Fields{
		"component": "SentimentService",
		"method":    "SearchPosts",
		"topic":     topic,
	})
	state := stateIdle
	transition := func(next collectorState) {
		logger.WithFields(logrus.Fields{"from": state, "to": next}).Debug("Collector state change")
		state = next
	}

	accepted := []models.Tweet{}
	if s.search == nil || !s.search.Available() || limit <= 0 {
		logger.Debug("Search utility unavailable, returning no posts")
		transition(stateDone)
		return accepted, nil
	}

	seen := map[string]bool{}
	for _, template := range postQueryTemplates {
		if len(accepted) >= limit {
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		transition(stateQuerying)
		query := fmt.Sprintf(template, topic)
		results, err := s.search.Search(ctx, query, searchResultsPerQuery)
		if err != nil {
			logger.WithError(err).WithField("query", query).Warn("Search query failed, skipping")
			continue
		}

		transition(stateExtracting)
		for _, ref := range ExtractPostRefs(results) {
			if seen[ref.ID] {
				continue
			}
			seen[ref.ID] = true

			transition(stateFetching)
			post, ok := s.fetchPost(ctx, ref)
			if !ok {
				continue
			}

			transition(stateFiltering)
			if IsRelevantPost(post.Text, topic) {
				accepted = append(accepted, post)
			}
		}
	}

	transition(stateDone)
	ranked := RankPosts(accepted, limit)
	logger.WithFields(logrus.Fields{
		"accepted": len(accepted),
		"returned": len(ranked),
	}).Debug("Collected posts")
	return ranked, nil
}

// ExtractPostRefs pulls post references out of search hits, skipping
// non-user pages such as /i/ or /search/
func ExtractPostRefs(results []SearchResult) []PostRef {
	refs := []PostRef{}
	for _, result := range results {
		match := postURLPattern.FindStringSubmatch(result.Href)
		if match == nil || reservedHandles[match[1]] {
			continue
		}
		refs = append(refs, PostRef{Handle: match[1], ID: match[2]})
	}
	return refs
}

// IsRelevantPost accepts posts naming the topic or any IPO keyword
func IsRelevantPost(text, topic string) bool {
	lowered := strings.ToLower(text)
	if topic != "" && strings.Contains(lowered, strings.ToLower(topic)) {
		return true
	}
	for _, keyword := range relevanceKeywords {
		if strings.Contains(lowered, keyword) {
			return true
		}
	}
	return false
}

// RankPosts orders posts by likes plus reposts (stable for ties) and keeps the first limit
func RankPosts(posts []models.Tweet, limit int) []models.Tweet {
	ranked := make([]models.Tweet, len(posts))
	copy(ranked, posts)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].EngagementScore() > ranked[j].EngagementScore()
	})
	if limit >= 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// fetchPost loads post metadata; any failure discards the candidate
func (s *SentimentService) fetchPost(ctx context.Context, ref PostRef) (models.Tweet, bool) {
	logger := logrus.WithFields(logrus.Fields{
		"component": "SentimentService",
		"handle":    ref.Handle,
		"post_id":   ref.ID,
	})

	response, err := s.posts.Get(ctx, fmt.Sprintf("%s/%s/status/%s", s.postAPIURL, ref.Handle, ref.ID))
	if err != nil {
		logger.WithError(err).Debug("Post metadata fetch failed")
		return models.Tweet{}, false
	}

	var payload postAPIResponse
	if err := json.Unmarshal(response.Body, &payload); err != nil {
		logger.WithError(err).Debug("Post metadata is not valid JSON")
		return models.Tweet{}, false
	}
	if payload.Code != 200 || payload.Tweet == nil || payload.Tweet.Text == "" {
		logger.WithField("code", payload.Code).Debug("Post not available")
		return models.Tweet{}, false
	}

	post := models.Tweet{
		Text:       payload.Tweet.Text,
		Author:     payload.Tweet.Author.ScreenName,
		AuthorName: payload.Tweet.Author.Name,
		Likes:      payload.Tweet.Likes,
		Retweets:   payload.Tweet.Retweets,
		CreatedAt:  payload.Tweet.CreatedAt,
		URL:        payload.Tweet.URL,
		Views:      payload.Tweet.Views,
	}
	if post.Author == "" {
		post.Author = ref.Handle
	}
	if post.URL == "" {
		post.URL = fmt.Sprintf("https://x.com/%s/status/%s", ref.Handle, ref.ID)
	}
	return post, true
}
