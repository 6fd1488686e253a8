package models

import "github.com/guregu/null/v6"

// Tweet is a social-media post about an offering
type Tweet struct {
	Text       string   `json:"text"`
	Author     string   `json:"author"`
	AuthorName string   `json:"author_name"`
	Likes      int      `json:"likes"`
	Retweets   int      `json:"retweets"`
	CreatedAt  string   `json:"created_at"`
	URL        string   `json:"url"`
	Views      null.Int `json:"views"`
}

// EngagementScore ranks posts; it is derived and never serialised
func (t Tweet) EngagementScore() int {
	return t.Likes + t.Retweets
}
