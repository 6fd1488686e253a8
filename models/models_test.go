package models

import (
	"encoding/json"
	"testing"

	"github.com/guregu/null/v6"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeWinRate(t *testing.T) {
	assert.Equal(t, 70.0, ComputeWinRate(14, 20))
	assert.Equal(t, 0.0, ComputeWinRate(0, 0))
	assert.Equal(t, 33.3, ComputeWinRate(1, 3))
	assert.Equal(t, 100.0, ComputeWinRate(7, 7))
}

func TestComputeWinRateProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("win rate stays within 0..100 when up count never exceeds the IPO count", prop.ForAll(
		func(ipoCount, upShare int) bool {
			upCount := ipoCount * upShare / 100
			rate := ComputeWinRate(upCount, ipoCount)
			return rate >= 0 && rate <= 100
		},
		gen.IntRange(0, 500),
		gen.IntRange(0, 100),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestRefreshWinRate(t *testing.T) {
	record := SponsorRecord{IPOCount: 20, UpCount: 14}
	record.RefreshWinRate()
	assert.Equal(t, 70.0, record.WinRatePct)
}

func TestIPODetailSerialisesMissingSectionsAsEmpty(t *testing.T) {
	data, err := json.Marshal(NewIPODetail("01717"))
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, "01717", decoded["code"])
	assert.Nil(t, decoded["pricing_mechanism"])
	assert.Nil(t, decoded["a_share_code"])
	assert.Nil(t, decoded["public_ratio"])
	assert.Equal(t, []interface{}{}, decoded["sponsors"])
	assert.Equal(t, []interface{}{}, decoded["clawback"])
}

func TestPricingMechanismJSON(t *testing.T) {
	data, err := json.Marshal(PricingMechanismA)
	require.NoError(t, err)
	assert.Equal(t, `"A"`, string(data))

	data, err = json.Marshal(PricingMechanismUnknown)
	require.NoError(t, err)
	assert.Equal(t, `null`, string(data))
}

func TestSentimentLabelDescription(t *testing.T) {
	assert.Equal(t, "平稳，市场中性", SentimentNeutral.Description())
	assert.Equal(t, "大跌，市场恐慌", SentimentPanic.Description())
	assert.Empty(t, SentimentLabel("unknown").Description())
}

func TestTweetEngagementScoreIsNotSerialised(t *testing.T) {
	tweet := Tweet{Likes: 100, Retweets: 1, Views: null.IntFrom(5000)}
	assert.Equal(t, 101, tweet.EngagementScore())

	data, err := json.Marshal(tweet)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "engagement")
	assert.Contains(t, string(data), `"views":5000`)
}
