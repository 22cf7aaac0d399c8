package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestListingID_Deterministic(t *testing.T) {
	l := Listing{Source: "idealista", URL: "https://www.idealista.com/inmueble/12345/"}

	id1 := l.ID()
	id2 := l.ID()
	assert.Equal(t, id1, id2)
	assert.Len(t, id1, 16)
}

func TestListingID_CanonicalURL(t *testing.T) {
	base := Listing{Source: "idealista", URL: "https://www.idealista.com/inmueble/12345"}

	variants := []Listing{
		{Source: "idealista", URL: "https://WWW.IDEALISTA.COM/inmueble/12345"},
		{Source: "idealista", URL: "https://www.idealista.com/inmueble/12345/"},
		{Source: "idealista", URL: "https://www.idealista.com/inmueble/12345?utm_source=alert"},
		{Source: "idealista", URL: "https://www.idealista.com/inmueble/12345#photos"},
	}
	for _, v := range variants {
		assert.Equal(t, base.ID(), v.ID(), "URL %q should canonicalize to the same ID", v.URL)
	}
}

func TestListingID_SourceSeparatesIdentity(t *testing.T) {
	a := Listing{Source: "idealista", URL: "https://example.com/1"}
	b := Listing{Source: "fotocasa", URL: "https://example.com/1"}
	assert.NotEqual(t, a.ID(), b.ID())
}

func TestFingerprint_CrossSourceMatch(t *testing.T) {
	a := Listing{
		Source:  "idealista",
		URL:     "https://www.idealista.com/inmueble/1",
		Address: "Calle Mayor, 12",
		Price:   245_000,
		SizeM2:  82,
	}
	b := Listing{
		Source:  "fotocasa",
		URL:     "https://www.fotocasa.es/vivienda/99",
		Address: "calle mayor 12",
		Price:   249_000,
		SizeM2:  85,
	}

	assert.NotEqual(t, a.ID(), b.ID())
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
}

func TestFingerprint_DifferentBuckets(t *testing.T) {
	a := Listing{Address: "Calle Mayor 12", Price: 245_000, SizeM2: 82}
	b := Listing{Address: "Calle Mayor 12", Price: 310_000, SizeM2: 82}
	assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())
}

func TestNormalizeAddress(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Calle Mayor, 12", "calle mayor 12"},
		{"  AVDA.  de la   Constitución 3 ", "avda de la constitución 3"},
		{"c/ Alcalá 100, 2ºB", "c alcalá 100 2ºb"},
		{"", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, normalizeAddress(tc.in), "input %q", tc.in)
	}
}
