package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/guregu/null/v6"
	"github.com/hkipo-research/hkipo/models"
	"github.com/mattn/go-runewidth"
)

const sponsorTableRows = 20

// writeJSON prints v as indented JSON, leaving CJK text and markup characters unescaped
func writeJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func writeSnapshotText(w io.Writer, s *models.MarketSentimentSnapshot) {
	fmt.Fprintf(w, "恒生指数 (%s): %.2f\n", s.Index, s.Price)
	fmt.Fprintf(w, "变动: %+.2f (%+.2f%%)\n", s.Change, s.ChangePct)
	fmt.Fprintf(w, "今日区间: %s - %s\n", formatFloat(s.DayLow, 2), formatFloat(s.DayHigh, 2))
	fmt.Fprintf(w, "52周区间: %s - %s\n", formatFloat(s.FiftyTwoWeekLow, 2), formatFloat(s.FiftyTwoWeekHigh, 2))
	fmt.Fprintf(w, "市场情绪: %s\n", s.InterpretationText)
}

// writeSponsorTable prints the first maxRows sponsors as a fixed-width table.
// Column widths are measured in terminal cells so CJK names line up.
func writeSponsorTable(w io.Writer, sponsors []models.SponsorRecord, maxRows int) {
	fmt.Fprintf(w, "%s %s %s %s %s %s\n",
		padRight("保荐人", 20),
		padLeft("IPO数", 6),
		padLeft("首日上涨", 8),
		padLeft("首日下跌", 8),
		padLeft("胜率", 8),
		padLeft("平均首日", 10))
	fmt.Fprintln(w, strings.Repeat("-", 70))

	for i, sponsor := range sponsors {
		if i >= maxRows {
			break
		}
		fmt.Fprintf(w, "%s %s %s %s %s %s\n",
			padRight(runewidth.Truncate(sponsor.Name, 20, "…"), 20),
			padLeft(strconv.Itoa(sponsor.IPOCount), 6),
			padLeft(strconv.Itoa(sponsor.UpCount), 8),
			padLeft(strconv.Itoa(sponsor.DownCount), 8),
			padLeft(fmt.Sprintf("%.1f%%", sponsor.WinRatePct), 8),
			padLeft(formatPct(sponsor.AvgFirstDayPct), 10))
	}
}

func writeSponsorText(w io.Writer, r *models.SponsorRecord) {
	fmt.Fprintf(w, "保荐人: %s\n", r.Name)
	fmt.Fprintf(w, "IPO 数量: %d\n", r.IPOCount)
	fmt.Fprintf(w, "首日上涨: %d (%.1f%%)\n", r.UpCount, r.WinRatePct)
	fmt.Fprintf(w, "首日下跌: %d\n", r.DownCount)
	fmt.Fprintf(w, "平均首日表现: %s\n", formatPct(r.AvgFirstDayPct))
	fmt.Fprintf(w, "平均累计表现: %s\n", formatPct(r.AvgCumulativePct))
	fmt.Fprintf(w, "最佳: %s\n", r.BestStock)
	fmt.Fprintf(w, "最差: %s\n", r.WorstStock)
}

func writePostsText(w io.Writer, posts []models.Tweet) {
	for i, post := range posts {
		fmt.Fprintf(w, "\n--- Tweet %d ---\n", i+1)
		fmt.Fprintf(w, "@%s (%s)\n", post.Author, post.AuthorName)
		views := "N/A"
		if post.Views.Valid {
			views = strconv.FormatInt(post.Views.Int64, 10)
		}
		fmt.Fprintf(w, "Likes: %d | Retweets: %d | Views: %s\n", post.Likes, post.Retweets, views)
		fmt.Fprintf(w, "Date: %s\n", post.CreatedAt)
		fmt.Fprintf(w, "URL: %s\n", post.URL)
		fmt.Fprintf(w, "\n%s\n", post.Text)
	}
}

func formatFloat(value null.Float, places int) string {
	if !value.Valid {
		return "N/A"
	}
	return strconv.FormatFloat(value.Float64, 'f', places, 64)
}

func formatPct(value null.Float) string {
	if !value.Valid {
		return "N/A"
	}
	return strconv.FormatFloat(value.Float64, 'f', -1, 64) + "%"
}

func padRight(text string, width int) string {
	return runewidth.FillRight(text, width)
}

func padLeft(text string, width int) string {
	return runewidth.FillLeft(text, width)
}
