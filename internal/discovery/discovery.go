// Package discovery produces the resumable sequence of reporting years.
package discovery

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fedwatch/ptr-crawler/internal/store"
)

// ArchiveFetcher fetches one year's disclosure archive.
type ArchiveFetcher interface {
	YearArchive(ctx context.Context, year int) ([]byte, error)
}

// YearArchive pairs a reporting year with its raw archive bytes.
type YearArchive struct {
	Year    int
	Archive []byte
}

// Finder walks reporting years starting at the persisted checkpoint. The
// checkpoint year itself is re-fetched: consumers are idempotent, and
// re-indexing the last known year is what picks up filings added to it
// since the previous cycle. The first fetch failure is the authoritative
// "no more years" signal and ends the sequence, so a year that failed to
// fetch is never recorded as known.
type Finder struct {
	archives ArchiveFetcher
	store    store.Store
	logger   *zap.Logger

	next    int
	started bool
	done    bool
}

// NewFinder builds a Finder over the given archive source and checkpoint
// store.
func NewFinder(archives ArchiveFetcher, s store.Store, logger *zap.Logger) *Finder {
	return &Finder{archives: archives, store: s, logger: logger}
}

// Next yields the next existing year and its archive. The boolean is false
// once no further year exists. The error is non-nil only for checkpoint
// store failures; fetch failures terminate the sequence instead.
func (f *Finder) Next(ctx context.Context) (YearArchive, bool, error) {
	if f.done {
		return YearArchive{}, false, nil
	}
	if !f.started {
		year, err := f.store.LastKnownYear(ctx)
		if err != nil {
			return YearArchive{}, false, fmt.Errorf("read crawl checkpoint: %w", err)
		}
		f.next = year
		f.started = true
	}

	archive, err := f.archives.YearArchive(ctx, f.next)
	if err != nil {
		f.logger.Info("no archive for year, ending discovery",
			zap.Int("year", f.next),
			zap.Error(err),
		)
		f.done = true
		return YearArchive{}, false, nil
	}

	if err := f.store.RecordYear(ctx, f.next); err != nil {
		return YearArchive{}, false, err
	}

	result := YearArchive{Year: f.next, Archive: archive}
	f.next++
	return result, true, nil
}

// All drains the sequence. The pipeline indexes years through a worker pool
// rather than streaming, so discovery is materialized up front.
func (f *Finder) All(ctx context.Context) ([]YearArchive, error) {
	var years []YearArchive
	for {
		year, ok, err := f.Next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			return years, nil
		}
		years = append(years, year)
	}
}
