package intake

import (
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/casawatch/triage-cli/internal/model"
)

// Filter selects which candidates go to the judge panel.
type Filter struct {
	// Recency drops listings scraped before now-Recency. Zero disables the
	// window. Listings without a scrape time are never dropped on recency.
	Recency time.Duration

	// Exclusions are case-insensitive substrings matched against address and
	// title. Matching listings are excluded without any evaluator cost.
	Exclusions []string

	// Now is overridable in tests. Defaults to time.Now.
	Now func() time.Time
}

// Select returns the candidates to evaluate plus the IDs excluded by the
// exclusion list. Excluded IDs are also added to evaluated so they never
// reappear in later runs. Already evaluated listings are dropped silently.
// Running Select again after results are merged yields an empty set.
func (f Filter) Select(listings []model.Listing, evaluated map[string]bool) (candidates []model.Listing, excludedIDs []string) {
	now := time.Now()
	if f.Now != nil {
		now = f.Now()
	}
	var cutoff time.Time
	if f.Recency > 0 {
		cutoff = now.Add(-f.Recency)
	}

	for _, l := range listings {
		id := l.ID()
		if evaluated[id] {
			continue
		}
		if !cutoff.IsZero() && !l.ScrapedAt.IsZero() && l.ScrapedAt.Before(cutoff) {
			continue
		}
		if zone := f.matchExclusion(l); zone != "" {
			zap.L().Info("listing excluded by zone filter",
				zap.String("listing_id", id),
				zap.String("match", zone),
				zap.String("address", l.Address))
			evaluated[id] = true
			excludedIDs = append(excludedIDs, id)
			continue
		}
		candidates = append(candidates, l)
	}
	return candidates, excludedIDs
}

func (f Filter) matchExclusion(l model.Listing) string {
	if len(f.Exclusions) == 0 {
		return ""
	}
	text := strings.ToLower(l.Address + " " + l.Title)
	for _, excl := range f.Exclusions {
		if excl == "" {
			continue
		}
		if strings.Contains(text, strings.ToLower(excl)) {
			return excl
		}
	}
	return ""
}
