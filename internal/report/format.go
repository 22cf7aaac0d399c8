// Package report renders evaluation results into Telegram digest messages.
package report

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/casawatch/triage-cli/internal/judge"
	"github.com/casawatch/triage-cli/internal/model"
)

// ItemSeparator delimits listing blocks inside a city message. Split only
// cuts at this boundary so a listing block is never torn across messages.
const ItemSeparator = "\n\n━━━━━━━━━━━━\n\n"

const (
	maxTitleLen   = 100
	maxSummaryLen = 80
)

// Spanish grouping turns 1250000 into 1.250.000.
var eurPrinter = message.NewPrinter(language.EuropeanSpanish)

var cityLabels = map[string]string{
	"barcelona": "Barcelona",
	"madrid":    "Madrid",
}

var titleCaser = cases.Title(language.Spanish)

var sourceLabels = map[string]string{
	"pisos.com": "pisos.com",
	"fotocasa":  "Fotocasa",
	"idealista": "Idealista",
}

// Digest is the rendered output of a run: one summary message plus one
// consolidated message per city.
type Digest struct {
	Summary string
	Cities  []CityMessage
}

// CityMessage carries the label separately so continuation chunks can
// repeat it.
type CityMessage struct {
	City    string
	Label   string
	Message string
}

// FormatDigest renders the SEND results of a run. Results are ranked by
// score then mean confidence, grouped by city. skipped counts listings the
// panel voted down.
func FormatDigest(results []model.BatchResult, listings map[string]model.Listing, panel []judge.Persona, skipped int, now time.Time) Digest {
	var toSend []model.BatchResult
	for _, r := range results {
		if r.Decision == model.DecisionSend {
			toSend = append(toSend, r)
		}
	}

	date := now.Format("2006-01-02")
	if len(toSend) == 0 {
		if skipped == 0 {
			return Digest{}
		}
		return Digest{Summary: fmt.Sprintf(
			"🏠 <b>Property Digest</b> — %s\n\nAll %d new listings were rejected by the panel. Nothing to show.",
			date, skipped,
		)}
	}

	sort.SliceStable(toSend, func(i, j int) bool {
		if toSend[i].Score != toSend[j].Score {
			return toSend[i].Score > toSend[j].Score
		}
		return toSend[i].MeanConfidence > toSend[j].MeanConfidence
	})

	byCity := make(map[string][]model.BatchResult)
	for _, r := range toSend {
		city := listings[r.ListingID].City
		if city == "" {
			city = "unknown"
		}
		byCity[city] = append(byCity[city], r)
	}

	cities := make([]string, 0, len(byCity))
	for c := range byCity {
		cities = append(cities, c)
	}
	sort.Strings(cities)

	counts := make([]string, 0, len(cities))
	for _, c := range cities {
		counts = append(counts, fmt.Sprintf("%s: %d", cityLabel(c), len(byCity[c])))
	}
	summary := fmt.Sprintf("🏠 <b>Property Digest</b> — %s\n📋 %d listings (%s)",
		date, len(toSend), strings.Join(counts, " | "))
	if skipped > 0 {
		summary += fmt.Sprintf("\n🗑 %d skipped", skipped)
	}

	d := Digest{Summary: summary}
	for _, city := range cities {
		rs := byCity[city]
		label := cityLabel(city)
		header := fmt.Sprintf("🇪🇸 <b>%s</b> — %d listings\n", label, len(rs))

		blocks := make([]string, 0, len(rs))
		for i, r := range rs {
			blocks = append(blocks, formatItem(listings[r.ListingID], r, panel, i+1))
		}

		d.Cities = append(d.Cities, CityMessage{
			City:    city,
			Label:   label,
			Message: header + strings.Join(blocks, ItemSeparator),
		})
	}
	return d
}

func cityLabel(city string) string {
	if label, ok := cityLabels[city]; ok {
		return label
	}
	return titleCaser.String(city)
}

func sourceLabel(source string) string {
	if label, ok := sourceLabels[source]; ok {
		return label
	}
	return source
}

func formatItem(l model.Listing, r model.BatchResult, panel []judge.Persona, num int) string {
	title := l.Title
	if title == "" {
		title = "Listing"
	}
	if runes := []rune(title); len(runes) > maxTitleLen {
		title = string(runes[:maxTitleLen])
	}

	ppm2 := 0
	if l.SizeM2 > 0 {
		ppm2 = int(math.Round(float64(l.Price) / l.SizeM2))
	}

	address := l.Address
	if address == "" {
		address = "N/A"
	}

	lines := []string{
		fmt.Sprintf("<b>%d. %s</b>", num, title),
		eurPrinter.Sprintf("💰 %d € · %.0f m² · %d rooms · %d €/m²", l.Price, l.SizeM2, l.Rooms, ppm2),
		fmt.Sprintf("📍 %s", address),
		fmt.Sprintf("🔗 <a href=\"%s\">%s</a>", l.URL, sourceLabel(l.Source)),
		fmt.Sprintf("%s (%d/%d)", voteBar(r.Votes, panel), r.Score, len(panel)*model.VerdictScore(model.VerdictAffirm)),
	}

	for _, p := range panel {
		vote, ok := r.Votes[p.Name]
		if !ok {
			continue
		}
		summary := vote.Summary
		if runes := []rune(summary); len(runes) > maxSummaryLen {
			summary = string(runes[:maxSummaryLen])
		}
		lines = append(lines, fmt.Sprintf("%s%s %s", p.Emoji, verdictEmoji(vote.Verdict), summary))
	}

	return strings.Join(lines, "\n")
}

func voteBar(votes map[string]model.Vote, panel []judge.Persona) string {
	var b strings.Builder
	for _, p := range panel {
		vote, ok := votes[p.Name]
		if !ok {
			b.WriteString("❓")
			continue
		}
		b.WriteString(verdictEmoji(vote.Verdict))
	}
	return b.String()
}

func verdictEmoji(v model.Verdict) string {
	switch v {
	case model.VerdictAffirm:
		return "✅"
	case model.VerdictReject:
		return "❌"
	default:
		return "❓"
	}
}
