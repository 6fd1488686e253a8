package services

import (
	"strings"

	"github.com/hkipo-research/hkipo/models"
	"github.com/sirupsen/logrus"
)

// ahShareRegistry lists dual-listed companies. H names are given as they appear
// on the Hong Kong pages; matching goes through NormalizeCompanyName so either
// script works.
var ahShareRegistry = []models.AHShareEntry{
	{HName: "中國平安", AName: "中国平安", AShareCode: "601318", AExchange: "SH"},
	{HName: "招商銀行", AName: "招商银行", AShareCode: "600036", AExchange: "SH"},
	{HName: "工商銀行", AName: "工商银行", AShareCode: "601398", AExchange: "SH"},
	{HName: "建設銀行", AName: "建设银行", AShareCode: "601939", AExchange: "SH"},
	{HName: "中國銀行", AName: "中国银行", AShareCode: "601988", AExchange: "SH"},
	{HName: "農業銀行", AName: "农业银行", AShareCode: "601288", AExchange: "SH"},
	{HName: "交通銀行", AName: "交通银行", AShareCode: "601328", AExchange: "SH"},
	{HName: "中國人壽", AName: "中国人寿", AShareCode: "601628", AExchange: "SH"},
	{HName: "中國石油", AName: "中国石油", AShareCode: "601857", AExchange: "SH"},
	{HName: "中國石化", AName: "中国石化", AShareCode: "600028", AExchange: "SH"},
	{HName: "中國神華", AName: "中国神华", AShareCode: "601088", AExchange: "SH"},
	{HName: "中國中免", AName: "中国中免", AShareCode: "601888", AExchange: "SH"},
	{HName: "中信證券", AName: "中信证券", AShareCode: "600030", AExchange: "SH"},
	{HName: "紫金礦業", AName: "紫金矿业", AShareCode: "601899", AExchange: "SH"},
	{HName: "江西銅業", AName: "江西铜业", AShareCode: "600362", AExchange: "SH"},
	{HName: "海螺水泥", AName: "海螺水泥", AShareCode: "600585", AExchange: "SH"},
	{HName: "長城汽車", AName: "长城汽车", AShareCode: "601633", AExchange: "SH"},
	{HName: "藥明康德", AName: "药明康德", AShareCode: "603259", AExchange: "SH"},
	{HName: "恒瑞醫藥", AName: "恒瑞医药", AShareCode: "600276", AExchange: "SH"},
	{HName: "海天味業", AName: "海天味业", AShareCode: "603288", AExchange: "SH"},
	{HName: "三一重工", AName: "三一重工", AShareCode: "600031", AExchange: "SH"},
	{HName: "海爾智家", AName: "海尔智家", AShareCode: "600690", AExchange: "SH"},
	{HName: "福耀玻璃", AName: "福耀玻璃", AShareCode: "600660", AExchange: "SH"},
	{HName: "赤峰黃金", AName: "赤峰黄金", AShareCode: "600988", AExchange: "SH"},
	{HName: "青島啤酒", AName: "青岛啤酒", AShareCode: "600600", AExchange: "SH"},
	{HName: "兆易創新", AName: "兆易创新", AShareCode: "603986", AExchange: "SH"},
	{HName: "比亞迪", AName: "比亚迪", AShareCode: "002594", AExchange: "SZ"},
	{HName: "寧德時代", AName: "宁德时代", AShareCode: "300750", AExchange: "SZ"},
	{HName: "美的集團", AName: "美的集团", AShareCode: "000333", AExchange: "SZ"},
	{HName: "濰柴動力", AName: "潍柴动力", AShareCode: "000338", AExchange: "SZ"},
	{HName: "順豐控股", AName: "顺丰控股", AShareCode: "002352", AExchange: "SZ"},
	{HName: "中興通訊", AName: "中兴通讯", AShareCode: "000063", AExchange: "SZ"},
	{HName: "三花智控", AName: "三花智控", AShareCode: "002050", AExchange: "SZ"},
}

// DefaultAHRegistry returns a copy of the built-in dual-listing registry
func DefaultAHRegistry() []models.AHShareEntry {
	registry := make([]models.AHShareEntry, len(ahShareRegistry))
	copy(registry, ahShareRegistry)
	return registry
}

// namesMatch compares two normalized keys by containment in either direction.
// Empty keys never match.
func namesMatch(left, right string) bool {
	if left == "" || right == "" {
		return false
	}
	return strings.Contains(left, right) || strings.Contains(right, left)
}

// MatchName returns the first entry whose name matches candidate. Ties are
// resolved by the order of entries.
func MatchName[T any](candidate string, entries []T, nameOf func(T) string) (T, bool) {
	var zero T
	key := NormalizeCompanyName(candidate)
	if key == "" {
		return zero, false
	}
	for _, entry := range entries {
		if namesMatch(key, NormalizeCompanyName(nameOf(entry))) {
			return entry, true
		}
	}
	return zero, false
}

// MatchAllNames returns every matching entry in source order
func MatchAllNames[T any](candidate string, entries []T, nameOf func(T) string) []T {
	key := NormalizeCompanyName(candidate)
	var matches []T
	if key == "" {
		return matches
	}
	for _, entry := range entries {
		if namesMatch(key, NormalizeCompanyName(nameOf(entry))) {
			matches = append(matches, entry)
		}
	}
	return matches
}

// Reconciler resolves names from different pages to the same entity
type Reconciler struct {
	registry []models.AHShareEntry
}

// NewReconciler creates a reconciler over the given A+H registry
func NewReconciler(registry []models.AHShareEntry) *Reconciler {
	return &Reconciler{registry: registry}
}

// MatchAHShare looks a Hong Kong company name up in the dual-listing registry
func (r *Reconciler) MatchAHShare(name string) (models.AHShareEntry, bool) {
	key := NormalizeCompanyName(name)
	if key == "" {
		return models.AHShareEntry{}, false
	}
	for _, entry := range r.registry {
		if namesMatch(key, NormalizeCompanyName(entry.HName)) || namesMatch(key, NormalizeCompanyName(entry.AName)) {
			logrus.WithFields(logrus.Fields{
				"component":    "Reconciler",
				"name":         name,
				"a_share_code": entry.AShareCode,
			}).Debug("Matched dual-listed company")
			return entry, true
		}
	}
	return models.AHShareEntry{}, false
}

// MatchSponsor finds a sponsor in the summary table by name
func (r *Reconciler) MatchSponsor(name string, sponsors []models.SponsorRecord) (models.SponsorRecord, bool) {
	return MatchName(name, sponsors, func(s models.SponsorRecord) string { return s.Name })
}

// MatchDirectory returns the directory entries matching name, in source order
func (r *Reconciler) MatchDirectory(name string, directory []models.SponsorDirectoryEntry) []models.SponsorDirectoryEntry {
	return MatchAllNames(name, directory, func(e models.SponsorDirectoryEntry) string { return e.Name })
}
