package judge

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/casawatch/triage-cli/internal/model"
)

const (
	itemSeparator      = "\n\n---\n\n"
	maxDescriptionLen  = 400
	schemaDirectiveTpl = `You are evaluating %d listings. Respond ONLY with a valid JSON array (no markdown fences).
Each element must have this exact format:

[
  {
    "listing_num": 1,
    "vote": "YES|NO|UNCERTAIN",
    "confidence": <0.0-1.0>,
    "summary": "1-2 sentence justification"
  },
  ...
]

Rules:
- Return exactly %d elements, one per listing, in order.
- Vote YES only if the listing clearly meets criteria with no red flags.
- Vote NO if there is a clear dealbreaker.
- Vote UNCERTAIN if key information is missing but no obvious dealbreakers.
- Be concise. Each summary should be 1-2 sentences max.`
)

// eurPrinter renders numbers with Spanish thousands separators (1.234.567).
var eurPrinter = message.NewPrinter(language.EuropeanSpanish)

// SchemaDirective returns the JSON reply contract for a batch of n listings.
func SchemaDirective(n int) string {
	return fmt.Sprintf(schemaDirectiveTpl, n, n)
}

// SystemPrompt composes a persona's full system prompt for a batch of n
// listings.
func SystemPrompt(p Persona, n int) string {
	return p.Instructions + "\n\n" + SchemaDirective(n)
}

// BatchPayload formats the listings as ordinal blocks for a single call.
func BatchPayload(listings []model.Listing) string {
	blocks := make([]string, len(listings))
	for i, l := range listings {
		blocks[i] = listingBlock(l, i+1)
	}
	return "## Listings to Evaluate\n\n" + strings.Join(blocks, itemSeparator)
}

func listingBlock(l model.Listing, num int) string {
	lines := []string{
		fmt.Sprintf("### Listing %d", num),
		"Title: " + orNA(l.Title),
		eurPrinter.Sprintf("Price: %d EUR", l.Price),
		fmt.Sprintf("Size: %g m²", l.SizeM2),
		fmt.Sprintf("Rooms: %d", l.Rooms),
		"Address: " + orNA(l.Address),
		"City: " + orNA(l.City),
		"Source: " + orNA(l.Source),
		"URL: " + l.URL,
	}

	if l.PricePerM2 > 0 {
		lines = append(lines, eurPrinter.Sprintf("Price/m²: %.0f EUR", l.PricePerM2))
	}
	if l.Floor != "" {
		lines = append(lines, "Floor: "+l.Floor)
	}
	if l.HasElevator != nil {
		val := "No"
		if *l.HasElevator {
			val = "Yes"
		}
		lines = append(lines, "Elevator: "+val)
	}
	if l.EnergyRating != "" {
		lines = append(lines, "Energy Certificate: "+l.EnergyRating)
	}
	if l.Bathrooms > 0 {
		lines = append(lines, fmt.Sprintf("Bathrooms: %d", l.Bathrooms))
	}
	if l.Description != "" {
		desc := l.Description
		if runes := []rune(desc); len(runes) > maxDescriptionLen {
			desc = string(runes[:maxDescriptionLen])
		}
		lines = append(lines, "Description: "+desc)
	}

	return strings.Join(lines, "\n")
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
