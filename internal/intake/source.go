// Package intake loads candidate listings from scraper feed files and
// filters them down to the set worth spending evaluator tokens on.
package intake

import (
	"context"
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/casawatch/triage-cli/internal/model"
)

// Source produces candidate listings.
type Source interface {
	Fetch(ctx context.Context) ([]model.Listing, error)
	Name() string
}

// FileSource reads a JSON array of listings written by the scraper.
type FileSource struct {
	Path string
}

// NewFileSource creates a source backed by a feed file.
func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

func (s *FileSource) Name() string { return s.Path }

func (s *FileSource) Fetch(_ context.Context) ([]model.Listing, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, eris.Wrapf(err, "intake: read feed %s", s.Path)
	}

	var listings []model.Listing
	if err := json.Unmarshal(data, &listings); err != nil {
		return nil, eris.Wrapf(err, "intake: parse feed %s", s.Path)
	}
	return listings, nil
}

// LoadAll fetches every source concurrently and concatenates the results in
// source order. A single failing source fails the load.
func LoadAll(ctx context.Context, sources []Source) ([]model.Listing, error) {
	results := make([][]model.Listing, len(sources))

	g, ctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		g.Go(func() error {
			listings, err := src.Fetch(ctx)
			if err != nil {
				return err
			}
			results[i] = listings
			zap.L().Debug("feed loaded",
				zap.String("source", src.Name()),
				zap.Int("listings", len(listings)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []model.Listing
	for _, r := range results {
		all = append(all, r...)
	}
	return all, nil
}

// MergeDuplicates collapses listings that share a fingerprint, keeping the
// first occurrence. Cross-portal republications of the same property only
// cost evaluator tokens once.
func MergeDuplicates(listings []model.Listing) []model.Listing {
	seen := make(map[string]string, len(listings))
	out := make([]model.Listing, 0, len(listings))

	for _, l := range listings {
		fp := l.Fingerprint()
		if first, ok := seen[fp]; ok {
			zap.L().Debug("merged duplicate listing",
				zap.String("kept", first),
				zap.String("dropped", l.ID()),
				zap.String("fingerprint", fp))
			continue
		}
		seen[fp] = l.ID()
		out = append(out, l)
	}
	return out
}
