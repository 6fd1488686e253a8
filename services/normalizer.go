package services

import (
	"html"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/guregu/null/v6"
	"github.com/hkipo-research/hkipo/models"
	"github.com/shopspring/decimal"
	"golang.org/x/text/width"
)

// traditionalToSimplified covers the characters that show up in company and
// sponsor names on the upstream pages. No value is also a key, so a single
// pass is idempotent.
var traditionalToSimplified = map[rune]rune{
	'證': '证', '國': '国', '際': '际', '銀': '银', '華': '华',
	'東': '东', '業': '业', '資': '资', '產': '产', '開': '开',
	'發': '发', '創': '创', '亞': '亚', '萬': '万', '廣': '广',
	'進': '进', '達': '达', '馬': '马', '財': '财', '貿': '贸',
	'實': '实', '電': '电', '訊': '讯', '對': '对', '環': '环',
	'聯': '联', '網': '网', '點': '点', '無': '无', '與': '与',
	'責': '责', '團': '团', '險': '险', '豐': '丰', '紅': '红',
	'時': '时', '寧': '宁', '車': '车', '機': '机', '礦': '矿',
	'藥': '药', '醫': '医', '療': '疗', '爾': '尔', '動': '动',
	'順': '顺', '長': '长', '鐵': '铁', '氣': '气', '運': '运',
	'輸': '输', '雲': '云', '飛': '飞', '樂': '乐', '龍': '龙',
	'鋼': '钢', '興': '兴', '寶': '宝', '陽': '阳', '億': '亿',
	'節': '节', '製': '制', '學': '学', '體': '体', '術': '术',
	'號': '号', '灣': '湾', '權': '权', '滙': '汇', '匯': '汇',
	'豊': '丰', '羅': '罗', '蘭': '兰', '歐': '欧', '傳': '传',
	'貨': '货', '來': '来', '設': '设', '計': '计', '農': '农',
	'蘇': '苏', '漢': '汉', '嶺': '岭', '鳳': '凤', '線': '线',
	'裝': '装', '備': '备', '維': '维', '護': '护', '灝': '灏',
	'壽': '寿', '濰': '潍', '黃': '黄', '銅': '铜', '島': '岛',
}

// Longest first: "股份有限公司" and "有限责任公司" both end in or contain shorter forms.
var companySuffixes = []string{"股份有限公司", "有限责任公司", "有限公司"}

var (
	htmlTagPattern     = regexp.MustCompile(`<[^>]+>`)
	whitespacePattern  = regexp.MustCompile(`\s+`)
	firstNumberPattern = regexp.MustCompile(`[0-9][0-9,]*(?:\.[0-9]+)?|\.[0-9]+`)
	signedPctPattern   = regexp.MustCompile(`([+-]?[0-9]+(?:\.[0-9]+)?)%`)
	nonNumericPattern  = regexp.MustCompile(`[^0-9.]`)
	priceBoundsPattern = regexp.MustCompile(`([0-9.]+)(?:-([0-9.]+))?`)
)

// ToSimplified maps traditional characters to their simplified forms
func ToSimplified(text string) string {
	return strings.Map(func(r rune) rune {
		if simplified, ok := traditionalToSimplified[r]; ok {
			return simplified
		}
		return r
	}, text)
}

// NormalizeCompanyName produces a matching key: full-width forms folded,
// traditional characters simplified, legal-form suffixes removed, trimmed and
// lower-cased. The result is only used for comparison, never displayed.
func NormalizeCompanyName(name string) string {
	key := name
	// Iterate to a fixed point so removing one suffix cannot expose another.
	// After the first pass only suffix removal changes the key, and it always
	// shortens it, so the loop terminates.
	for {
		next := normalizeOnce(key)
		if next == key {
			return key
		}
		key = next
	}
}

func normalizeOnce(name string) string {
	result := ToSimplified(width.Fold.String(name))
	for _, suffix := range companySuffixes {
		result = strings.ReplaceAll(result, suffix, "")
	}
	return strings.ToLower(strings.TrimSpace(result))
}

// ParseInt parses "1,234" style integers; anything unparseable is 0
func ParseInt(text string) int {
	cleaned := strings.TrimSpace(strings.ReplaceAll(width.Fold.String(text), ",", ""))
	value, err := strconv.Atoi(cleaned)
	if err != nil {
		return 0
	}
	return value
}

// ParsePct parses "+12.5%" or "-3.2%" into a signed number. Failure is an
// invalid value, which is distinct from a parsed 0%.
func ParsePct(text string) null.Float {
	cleaned := strings.ReplaceAll(width.Fold.String(text), "%", "")
	cleaned = strings.TrimSpace(strings.ReplaceAll(cleaned, "+", ""))
	return parseFinite(cleaned)
}

// ParseSignedPct finds the first number immediately followed by "%" in free text
func ParseSignedPct(text string) null.Float {
	match := signedPctPattern.FindStringSubmatch(width.Fold.String(text))
	if match == nil {
		return null.Float{}
	}
	return parseFinite(match[1])
}

// ParseDecimal finds the first unsigned number in free text, ignoring thousands separators
func ParseDecimal(text string) null.Float {
	match := firstNumberPattern.FindString(width.Fold.String(text))
	if match == "" {
		return null.Float{}
	}
	return parseFinite(strings.ReplaceAll(match, ",", ""))
}

// ParseAmount keeps only digits and dots and parses the result; 0 on failure
func ParseAmount(text string) float64 {
	digits := nonNumericPattern.ReplaceAllString(CleanCell(text), "")
	if digits == "" {
		return 0
	}
	amount, err := decimal.NewFromString(digits)
	if err != nil {
		// "1.2.3" style leftovers: fall back to the leading number
		return ParseDecimal(digits).ValueOrZero()
	}
	return amount.InexactFloat64()
}

// ParsePriceUpperBound returns the upper bound of "3.85-4.25", or the single price
func ParsePriceUpperBound(text string) float64 {
	match := priceBoundsPattern.FindStringSubmatch(text)
	if match == nil {
		return 0
	}
	bound := match[1]
	if match[2] != "" {
		bound = match[2]
	}
	value := parseFinite(bound)
	return value.ValueOrZero()
}

func parseFinite(text string) null.Float {
	if text == "" {
		return null.Float{}
	}
	value, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return null.Float{}
	}
	return null.FloatFrom(value)
}

// RoundTo rounds half away from zero to the given number of decimal places
func RoundTo(value float64, places int32) float64 {
	return decimal.NewFromFloat(value).Round(places).InexactFloat64()
}

// InterpretIndexChange buckets a daily percentage move of the benchmark index
func InterpretIndexChange(changePct float64) models.SentimentLabel {
	switch {
	case changePct > 3:
		return models.SentimentExtremeBullish
	case changePct > 1:
		return models.SentimentBullish
	case changePct > 0:
		return models.SentimentMildBullish
	case changePct > -1:
		return models.SentimentNeutral
	case changePct > -3:
		return models.SentimentCautious
	default:
		return models.SentimentPanic
	}
}

// StripTags replaces every markup tag with replacement
func StripTags(fragment, replacement string) string {
	return htmlTagPattern.ReplaceAllString(fragment, replacement)
}

// CleanCell turns a table cell fragment into display text
func CleanCell(fragment string) string {
	text := html.UnescapeString(StripTags(fragment, " "))
	text = strings.ReplaceAll(text, "\u00a0", " ")
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(text, " "))
}

// NormalizeDate rewrites "2024/03/01" as "2024-03-01"
func NormalizeDate(text string) string {
	return strings.ReplaceAll(strings.TrimSpace(text), "/", "-")
}

// Truncate cuts text to maxRunes characters, appending "..." when shortened
func Truncate(text string, maxRunes int) string {
	if utf8.RuneCountInString(text) <= maxRunes {
		return text
	}
	runes := []rune(text)
	return string(runes[:maxRunes]) + "..."
}
