package services

import (
	"testing"

	"github.com/hkipo-research/hkipo/models"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchNameUsesContainmentInBothDirections(t *testing.T) {
	entries := []string{"香港交易所有限公司"}
	identity := func(s string) string { return s }

	match, ok := MatchName("香港交易所", entries, identity)
	require.True(t, ok)
	assert.Equal(t, "香港交易所有限公司", match)

	match, ok = MatchName("香港交易及結算所", []string{"交易"}, identity)
	require.True(t, ok)
	assert.Equal(t, "交易", match)
}

func TestMatchNameTiesResolveBySourceOrder(t *testing.T) {
	entries := []string{"中金公司", "中金香港證券有限公司", "中金"}
	match, ok := MatchName("中金", entries, func(s string) string { return s })

	require.True(t, ok)
	assert.Equal(t, "中金公司", match)
	assert.Equal(t, entries, MatchAllNames("中金", entries, func(s string) string { return s }))
}

func TestEmptyNamesNeverMatch(t *testing.T) {
	entries := []string{"", "有限公司", "華泰金融"}
	identity := func(s string) string { return s }

	_, ok := MatchName("", entries, identity)
	assert.False(t, ok)
	_, ok = MatchName("股份有限公司", entries, identity)
	assert.False(t, ok)

	match, ok := MatchName("华泰", entries, identity)
	require.True(t, ok)
	assert.Equal(t, "華泰金融", match)
}

func TestMatchNameProperties(t *testing.T) {
	names := []string{"中國平安", "招商銀行", "美的集團", "Haier Smart Home", "華泰證券"}
	suffixes := []string{"", "有限公司", "股份有限公司", " ", "有限责任公司"}

	properties := gopter.NewProperties(nil)

	properties.Property("a name matches any suffixed or script-converted variant of itself", prop.ForAll(
		func(nameIndex, suffixIndex int, simplify bool) bool {
			candidate := names[nameIndex]
			if simplify {
				candidate = ToSimplified(candidate)
			}
			entry := names[nameIndex] + suffixes[suffixIndex]
			_, forward := MatchName(candidate, []string{entry}, func(s string) string { return s })
			_, backward := MatchName(entry, []string{candidate}, func(s string) string { return s })
			return forward && backward
		},
		gen.IntRange(0, len(names)-1),
		gen.IntRange(0, len(suffixes)-1),
		gen.Bool(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestMatchAHShare(t *testing.T) {
	reconciler := NewReconciler(DefaultAHRegistry())

	entry, ok := reconciler.MatchAHShare("寧德時代新能源科技股份有限公司")
	require.True(t, ok)
	assert.Equal(t, "300750", entry.AShareCode)

	entry, ok = reconciler.MatchAHShare("中国平安")
	require.True(t, ok)
	assert.Equal(t, "601318", entry.AShareCode)

	_, ok = reconciler.MatchAHShare("蜜雪冰城股份有限公司")
	assert.False(t, ok)
}

func TestDefaultAHRegistryReturnsCopy(t *testing.T) {
	registry := DefaultAHRegistry()
	registry[0].AShareCode = "000000"

	assert.NotEqual(t, "000000", DefaultAHRegistry()[0].AShareCode)
}

func TestMatchSponsorAndDirectory(t *testing.T) {
	reconciler := NewReconciler(nil)
	sponsors := []models.SponsorRecord{
		{Name: "中国国际金融香港证券有限公司"},
		{Name: "华泰金融控股(香港)有限公司"},
	}

	match, ok := reconciler.MatchSponsor("中國國際金融", sponsors)
	require.True(t, ok)
	assert.Equal(t, "中国国际金融香港证券有限公司", match.Name)

	directory := []models.SponsorDirectoryEntry{
		{Name: "海通国际资本有限公司", ID: "1"},
		{Name: "海通国际融资有限公司", ID: "2"},
		{Name: "招银国际融资有限公司", ID: "3"},
	}
	matches := reconciler.MatchDirectory("海通国际", directory)
	assert.Equal(t, []models.SponsorDirectoryEntry{directory[0], directory[1]}, matches)
	assert.Empty(t, reconciler.MatchDirectory("不存在", directory))
}
