// Package crawler orchestrates one end-to-end crawl cycle.
package crawler

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/fedwatch/ptr-crawler/internal/discovery"
	"github.com/fedwatch/ptr-crawler/internal/index"
	"github.com/fedwatch/ptr-crawler/internal/pdftext"
	"github.com/fedwatch/ptr-crawler/internal/processor"
	"github.com/fedwatch/ptr-crawler/internal/registry"
	"github.com/fedwatch/ptr-crawler/internal/store"
	"github.com/fedwatch/ptr-crawler/internal/worker"
)

// Config sizes the two worker pools.
type Config struct {
	// YearWorkers bounds the indexing pool.
	YearWorkers int
	// MembersPerWorker batches the per-year member pool: one worker per
	// this many members.
	MembersPerWorker int
	// MaxMemberWorkers caps the member pool regardless of member count.
	MaxMemberWorkers int
}

// Crawler wires discovery, indexing, and document processing into one
// resumable cycle.
type Crawler struct {
	dial      store.Dialer
	archives  discovery.ArchiveFetcher
	documents processor.DocumentFetcher
	extractor pdftext.Extractor
	cfg       Config
	logger    *zap.Logger
}

// New builds a Crawler.
func New(
	dial store.Dialer,
	archives discovery.ArchiveFetcher,
	documents processor.DocumentFetcher,
	extractor pdftext.Extractor,
	cfg Config,
	logger *zap.Logger,
) *Crawler {
	return &Crawler{
		dial:      dial,
		archives:  archives,
		documents: documents,
		extractor: extractor,
		cfg:       cfg,
		logger:    logger,
	}
}

type yearResult struct {
	year    int
	members *registry.KnownHouseMembers
}

// Run executes one crawl cycle: discover new reporting years from the
// checkpoint, index each year through the year pool, then process every
// member's pending documents through a per-year member pool. Years and
// members are independent units of work on their own store connections; a
// failed year is logged and surfaced in the returned error without
// touching its siblings, and a failed member is logged only.
func (c *Crawler) Run(ctx context.Context) error {
	years, err := c.discoverYears(ctx)
	if err != nil {
		return err
	}
	if len(years) == 0 {
		c.logger.Info("no new reporting years discovered")
		return nil
	}

	results, indexErrs := c.indexYears(ctx, years)

	// Deliberate barrier: document processing starts only after every
	// year's index pass has settled.
	for _, result := range results {
		c.processYear(ctx, result)
	}

	return errors.Join(indexErrs...)
}

func (c *Crawler) discoverYears(ctx context.Context) ([]discovery.YearArchive, error) {
	conn, err := c.dial(ctx)
	if err != nil {
		return nil, fmt.Errorf("dial store for discovery: %w", err)
	}
	defer func() {
		if cerr := conn.Close(ctx); cerr != nil {
			c.logger.Warn("close discovery store connection", zap.Error(cerr))
		}
	}()

	years, err := discovery.NewFinder(c.archives, conn, c.logger).All(ctx)
	if err != nil {
		return nil, err
	}
	c.logger.Info("discovered reporting years", zap.Int("count", len(years)))
	return years, nil
}

func (c *Crawler) indexYears(ctx context.Context, years []discovery.YearArchive) ([]yearResult, []error) {
	indexer := index.New(c.dial, c.logger)

	results := make([]yearResult, len(years))
	tasks := make([]worker.Task, len(years))
	for i, year := range years {
		tasks[i] = func(ctx context.Context) error {
			members, err := indexer.IndexYear(ctx, year.Year, year.Archive)
			if err != nil {
				return err
			}
			results[i] = yearResult{year: year.Year, members: members}
			return nil
		}
	}

	outcomes := worker.Run(ctx, c.cfg.YearWorkers, tasks)

	var succeeded []yearResult
	var failed []error
	for i, err := range outcomes {
		if err != nil {
			c.logger.Error("year index pass failed", zap.Int("year", years[i].Year), zap.Error(err))
			failed = append(failed, err)
			continue
		}
		succeeded = append(succeeded, results[i])
	}
	return succeeded, failed
}

func (c *Crawler) processYear(ctx context.Context, result yearResult) {
	members := result.members.Members()
	if len(members) == 0 {
		return
	}
	c.logger.Info("parsing filings",
		zap.Int("year", result.year),
		zap.Int("members", len(members)),
	)

	proc := processor.New(c.dial, c.documents, c.extractor, c.logger)
	tasks := make([]worker.Task, len(members))
	for i, member := range members {
		tasks[i] = func(ctx context.Context) error {
			return proc.ProcessMember(ctx, result.year, member)
		}
	}

	size := worker.PoolSize(len(members), c.cfg.MembersPerWorker, c.cfg.MaxMemberWorkers)
	for i, err := range worker.Run(ctx, size, tasks) {
		if err != nil {
			c.logger.Error("member processing failed",
				zap.Int("year", result.year),
				zap.String("member_id", members[i].ID.String()),
				zap.Error(err),
			)
		}
	}
}
