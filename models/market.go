package models

import "github.com/guregu/null/v6"

// SentimentLabel buckets a daily index move
type SentimentLabel string

const (
	SentimentExtremeBullish SentimentLabel = "extreme_bullish"
	SentimentBullish        SentimentLabel = "bullish"
	SentimentMildBullish    SentimentLabel = "mild_bullish"
	SentimentNeutral        SentimentLabel = "neutral"
	SentimentCautious       SentimentLabel = "cautious"
	SentimentPanic          SentimentLabel = "panic"
)

var sentimentDescriptions = map[SentimentLabel]string{
	SentimentExtremeBullish: "大涨，市场极度乐观",
	SentimentBullish:        "上涨，市场乐观",
	SentimentMildBullish:    "小涨，市场偏乐观",
	SentimentNeutral:        "平稳，市场中性",
	SentimentCautious:       "下跌，市场谨慎",
	SentimentPanic:          "大跌，市场恐慌",
}

// Description returns the human-readable Chinese text for the label
func (l SentimentLabel) Description() string {
	return sentimentDescriptions[l]
}

// MarketSentimentSnapshot is the daily state of a benchmark index
type MarketSentimentSnapshot struct {
	Index              string         `json:"index"`
	Price              float64        `json:"price"`
	PreviousClose      float64        `json:"previous_close"`
	Change             float64        `json:"change"`
	ChangePct          float64        `json:"change_pct"`
	DayHigh            null.Float     `json:"day_high"`
	DayLow             null.Float     `json:"day_low"`
	FiftyTwoWeekHigh   null.Float     `json:"fifty_two_week_high"`
	FiftyTwoWeekLow    null.Float     `json:"fifty_two_week_low"`
	Interpretation     SentimentLabel `json:"interpretation"`
	InterpretationText string         `json:"interpretation_text"`
}

// AHShareEntry is a company listed both in Hong Kong (H) and mainland China (A)
type AHShareEntry struct {
	HName      string `json:"h_name"`
	AName      string `json:"a_name"`
	AShareCode string `json:"a_share_code"`
	AExchange  string `json:"a_exchange"`
}

// AHComparison compares an H-share offer price with the mainland A-share quote.
// DiscountPct is negative when the H share is offered below the A-share price.
type AHComparison struct {
	Code           string      `json:"code"`
	Name           string      `json:"name"`
	IsAHStock      bool        `json:"is_ah_stock"`
	AShareCode     null.String `json:"a_share_code"`
	HSharePriceHKD null.Float  `json:"h_share_price_hkd"`
	ASharePriceCNY null.Float  `json:"a_share_price_cny"`
	ASharePriceHKD null.Float  `json:"a_share_price_hkd"`
	CNYHKDRate     float64     `json:"cny_hkd_rate"`
	DiscountPct    null.Float  `json:"discount_pct"`
	Message        string      `json:"message,omitempty"`
}
