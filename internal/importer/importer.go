// Package importer bulk-loads artists from (name, url) pairs with
// partial-success semantics.
package importer

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"hamusic/internal/catalog"
	"hamusic/internal/core"
	"hamusic/internal/youtube"
)

// Entry is one import request: an artist name and a YouTube URL.
type Entry struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Report lists the artists that were created and counts the entries skipped
// because their URL failed to resolve.
type Report struct {
	Added   []core.Artist `json:"added"`
	Skipped int           `json:"skipped"`
}

// Importer composes the resolver and the repository over a batch of entries.
type Importer struct {
	repo    *catalog.Repository
	youtube *youtube.Client
	logger  *zap.Logger
}

func NewImporter(repo *catalog.Repository, yt *youtube.Client, logger *zap.Logger) *Importer {
	return &Importer{
		repo:    repo,
		youtube: yt,
		logger:  logger,
	}
}

// Run processes every entry independently: resolution failures skip the entry
// with no partial record, successes get the next id off the in-memory running
// list so a batch stays internally consistent. The id index is written once,
// after the last entry. The repository lock is held for the whole batch.
//
// Upstream trouble is not a per-entry condition: a missing API credential or
// an unreachable API fails the whole batch so the caller sees an error
// instead of a report that silently skipped everything.
func (im *Importer) Run(ctx context.Context, entries []Entry) (*Report, error) {
	if err := im.youtube.CheckCredential(); err != nil {
		return nil, err
	}

	lock := im.repo.Locker()
	lock.Lock()
	defer lock.Unlock()

	ids, err := im.repo.ListIDs(ctx)
	if err != nil {
		return nil, err
	}

	report := &Report{Added: []core.Artist{}}
	for _, entry := range entries {
		resolved, err := im.youtube.ResolveURL(ctx, entry.URL)
		if err != nil {
			if errors.Is(err, core.ErrUpstreamUnavailable) {
				return nil, err
			}
			im.logger.Warn("Skipping unresolvable import entry",
				zap.String("name", entry.Name),
				zap.String("url", entry.URL),
				zap.Error(err))
			report.Skipped++
			continue
		}

		artist := &core.Artist{
			ID:     catalog.NextID(ids),
			Name:   entry.Name,
			Avatar: resolved.Thumbnail,
			Video:  core.UnresolvedVideo(entry.URL),
		}
		if err := im.repo.PutArtist(ctx, artist); err != nil {
			return nil, err
		}

		ids = append(ids, artist.ID)
		report.Added = append(report.Added, *artist)
	}

	if err := im.repo.SaveIDs(ctx, ids); err != nil {
		return nil, err
	}

	im.logger.Info("Bulk import finished",
		zap.Int("added", len(report.Added)),
		zap.Int("skipped", report.Skipped))
	return report, nil
}
