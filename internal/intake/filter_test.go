package intake

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casawatch/triage-cli/internal/model"
)

var filterNow = time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return filterNow }

func TestSelect_DropsEvaluated(t *testing.T) {
	a := model.Listing{Source: "s", URL: "https://e.com/1", Title: "A"}
	b := model.Listing{Source: "s", URL: "https://e.com/2", Title: "B"}
	evaluated := map[string]bool{a.ID(): true}

	f := Filter{Now: fixedNow}
	candidates, excluded := f.Select([]model.Listing{a, b}, evaluated)
	require.Len(t, candidates, 1)
	assert.Equal(t, "B", candidates[0].Title)
	assert.Empty(t, excluded)
}

func TestSelect_RecencyWindow(t *testing.T) {
	fresh := model.Listing{Source: "s", URL: "https://e.com/1", ScrapedAt: filterNow.Add(-24 * time.Hour)}
	stale := model.Listing{Source: "s", URL: "https://e.com/2", ScrapedAt: filterNow.Add(-10 * 24 * time.Hour)}
	undated := model.Listing{Source: "s", URL: "https://e.com/3"}

	f := Filter{Recency: 4 * 24 * time.Hour, Now: fixedNow}
	candidates, _ := f.Select([]model.Listing{fresh, stale, undated}, map[string]bool{})

	require.Len(t, candidates, 2)
	assert.Equal(t, fresh.URL, candidates[0].URL)
	assert.Equal(t, undated.URL, candidates[1].URL, "missing scrape time never drops on recency")
}

func TestSelect_ZeroRecencyDisablesWindow(t *testing.T) {
	old := model.Listing{Source: "s", URL: "https://e.com/1", ScrapedAt: filterNow.Add(-365 * 24 * time.Hour)}

	f := Filter{Now: fixedNow}
	candidates, _ := f.Select([]model.Listing{old}, map[string]bool{})
	assert.Len(t, candidates, 1)
}

func TestSelect_ExclusionsMarkEvaluated(t *testing.T) {
	raval := model.Listing{Source: "s", URL: "https://e.com/1", Address: "Carrer de la Cera, El Raval", Title: "Piso"}
	eixample := model.Listing{Source: "s", URL: "https://e.com/2", Address: "Carrer de Mallorca, Eixample", Title: "Piso"}
	titleMatch := model.Listing{Source: "s", URL: "https://e.com/3", Address: "Calle sin zona", Title: "Oportunidad en RAVAL"}

	evaluated := map[string]bool{}
	f := Filter{Exclusions: []string{"raval"}, Now: fixedNow}
	candidates, excluded := f.Select([]model.Listing{raval, eixample, titleMatch}, evaluated)

	require.Len(t, candidates, 1)
	assert.Equal(t, eixample.URL, candidates[0].URL)

	// Excluded listings are marked evaluated without evaluator cost.
	require.Len(t, excluded, 2)
	assert.True(t, evaluated[raval.ID()])
	assert.True(t, evaluated[titleMatch.ID()])
}

func TestSelect_Idempotent(t *testing.T) {
	listings := []model.Listing{
		{Source: "s", URL: "https://e.com/1", Title: "A"},
		{Source: "s", URL: "https://e.com/2", Address: "El Raval", Title: "B"},
	}
	evaluated := map[string]bool{}
	f := Filter{Exclusions: []string{"raval"}, Now: fixedNow}

	first, _ := f.Select(listings, evaluated)
	require.Len(t, first, 1)

	// Simulate the evaluation pass marking survivors as done.
	for _, l := range first {
		evaluated[l.ID()] = true
	}

	second, excluded := f.Select(listings, evaluated)
	assert.Empty(t, second)
	assert.Empty(t, excluded)
}

func TestSelect_EmptyExclusionIgnored(t *testing.T) {
	l := model.Listing{Source: "s", URL: "https://e.com/1", Title: "A"}
	f := Filter{Exclusions: []string{""}, Now: fixedNow}
	candidates, excluded := f.Select([]model.Listing{l}, map[string]bool{})
	assert.Len(t, candidates, 1)
	assert.Empty(t, excluded)
}
