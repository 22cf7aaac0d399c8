package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode"
)

// Listing represents one property listing fetched from a source feed.
// Listings are created by the intake collaborator at fetch time and are
// read-only for every downstream component.
type Listing struct {
	Source       string    `json:"source"`
	URL          string    `json:"url"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	Address      string    `json:"address,omitempty"`
	City         string    `json:"city,omitempty"`
	Price        int       `json:"price"`
	SizeM2       float64   `json:"size_m2"`
	Rooms        int       `json:"rooms"`
	Bathrooms    int       `json:"bathrooms,omitempty"`
	Floor        string    `json:"floor,omitempty"`
	HasElevator  *bool     `json:"has_elevator,omitempty"`
	PricePerM2   float64   `json:"price_per_m2,omitempty"`
	EnergyRating string    `json:"energy_rating,omitempty"`
	ScrapedAt    time.Time `json:"scraped_at,omitempty"`
}

// ID returns the stable content-derived identity of the listing: the first
// 16 hex chars of SHA-256 over source + canonical URL. The same listing
// re-fetched on a later run always hashes to the same ID.
func (l Listing) ID() string {
	sum := sha256.Sum256([]byte(l.Source + "|" + canonicalURL(l.URL)))
	return hex.EncodeToString(sum[:])[:16]
}

// Fingerprint returns a cross-source near-duplicate key built from the
// normalized address plus price and size buckets. Two listings of the same
// property published on different portals land in the same bucket even when
// their URLs and exact prices differ slightly.
func (l Listing) Fingerprint() string {
	priceBucket := l.Price / 10_000
	sizeBucket := int(l.SizeM2) / 10
	return fmt.Sprintf("%s|p%d|s%d", normalizeAddress(l.Address), priceBucket, sizeBucket)
}

// canonicalURL lowercases the host and strips query, fragment and trailing
// slash so tracking parameters don't split identities.
func canonicalURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return strings.TrimRight(strings.TrimSpace(raw), "/")
	}
	u.Host = strings.ToLower(u.Host)
	u.RawQuery = ""
	u.Fragment = ""
	return strings.TrimRight(u.String(), "/")
}

// normalizeAddress lowercases, drops punctuation and collapses runs of
// whitespace so minor formatting differences between portals don't defeat
// the fingerprint.
func normalizeAddress(addr string) string {
	var b strings.Builder
	lastSpace := true
	for _, r := range strings.ToLower(addr) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastSpace = false
		case !lastSpace:
			b.WriteByte(' ')
			lastSpace = true
		}
	}
	return strings.TrimSpace(b.String())
}
