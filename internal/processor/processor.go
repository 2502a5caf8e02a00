// Package processor turns pending filing documents into persisted reports.
package processor

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/fedwatch/ptr-crawler/internal/fetch"
	"github.com/fedwatch/ptr-crawler/internal/metrics"
	"github.com/fedwatch/ptr-crawler/internal/pdftext"
	"github.com/fedwatch/ptr-crawler/internal/ptr"
	"github.com/fedwatch/ptr-crawler/internal/store"
)

// DocumentFetcher fetches one filing PDF by document id, scoped by year.
type DocumentFetcher interface {
	Filing(ctx context.Context, year int, docID string) ([]byte, error)
}

// Processor works through one member's pending documents: fetch, extract,
// parse, persist, then commit the member's progress marker.
type Processor struct {
	dial      store.Dialer
	documents DocumentFetcher
	extractor pdftext.Extractor
	logger    *zap.Logger
}

// New builds a Processor. Each ProcessMember call dials its own store
// connection so member workers never share one.
func New(dial store.Dialer, documents DocumentFetcher, extractor pdftext.Extractor, logger *zap.Logger) *Processor {
	return &Processor{dial: dial, documents: documents, extractor: extractor, logger: logger}
}

// ProcessMember iterates a snapshot of the member's pending documents.
// Unavailable documents are skipped for this cycle and analog (image-only)
// filings stay pending until an OCR strategy exists; only fully parsed
// digital filings move to the parsed set. The member's updated state is
// persisted once at the end of the batch, so a crash loses at most this
// member's in-flight work.
func (p *Processor) ProcessMember(ctx context.Context, year int, member *ptr.HouseMember) error {
	logger := p.logger.With(
		zap.Int("year", year),
		zap.String("last_name", member.LastName),
		zap.String("first_name", member.FirstName),
	)

	conn, err := p.dial(ctx)
	if err != nil {
		return fmt.Errorf("dial store for member %s: %w", member.ID, err)
	}
	defer func() {
		if cerr := conn.Close(ctx); cerr != nil {
			logger.Warn("close store connection", zap.Error(cerr))
		}
	}()

	for _, docID := range member.PendingDocs() {
		if err := p.processDocument(ctx, conn, year, member, docID, logger); err != nil {
			return err
		}
	}

	logger.Info("processed member filings",
		zap.Int("parsed_docs", len(member.ParsedDocIDs)),
		zap.Int("pending_docs", len(member.NewDocIDs)),
	)

	if err := conn.UpdateParsedDocs(ctx, member); err != nil {
		return err
	}
	return nil
}

func (p *Processor) processDocument(
	ctx context.Context,
	conn store.Store,
	year int,
	member *ptr.HouseMember,
	docID string,
	logger *zap.Logger,
) error {
	logger = logger.With(zap.String("doc_id", docID))

	data, err := p.documents.Filing(ctx, year, docID)
	if err != nil {
		metrics.ObserveDocument(metrics.DocUnavailable)
		if !errors.Is(err, fetch.ErrNotAvailable) {
			metrics.ObserveFetchFailure("document")
		}
		logger.Warn("filing unavailable, skipping for this cycle", zap.Error(err))
		return nil
	}

	text, err := p.extractor.Text(data)
	if err != nil || text == "" {
		// Analog filing: image-only PDF with no extractable text. It
		// stays pending until an OCR strategy is implemented.
		metrics.ObserveDocument(metrics.DocAnalog)
		logger.Info("analog filing deferred", zap.Error(err))
		return nil
	}

	reports, skipped := ptr.ParseDigitalEntries(member.ID, docID, text)
	for _, skipErr := range skipped {
		metrics.ObserveReportSkipped(metrics.SkipUnparseable)
		logger.Warn("unparseable line item", zap.Error(skipErr))
	}

	for _, report := range reports {
		if err := p.insertReport(ctx, conn, member, report, logger); err != nil {
			return err
		}
	}

	member.MarkParsed(docID)
	metrics.ObserveDocument(metrics.DocDigital)
	return nil
}

// insertReport persists one line item with the conflict policy spelled out:
// a duplicate id means the report was persisted by an earlier run and is
// skipped; a missing member row means the owning member is mid-commit in a
// sibling worker, so the member is re-inserted (idempotently) and the
// report retried exactly once. A second failure is fatal for this report
// only. Any other store error aborts the member's unit of work.
func (p *Processor) insertReport(
	ctx context.Context,
	conn store.Store,
	member *ptr.HouseMember,
	report ptr.Report,
	logger *zap.Logger,
) error {
	err := conn.InsertReport(ctx, report)
	switch {
	case err == nil:
		metrics.ObserveReportInserted()
		return nil
	case errors.Is(err, store.ErrUniqueViolation):
		metrics.ObserveReportSkipped(metrics.SkipDuplicate)
		return nil
	case errors.Is(err, store.ErrForeignKeyViolation):
		// fall through to the retry below
	default:
		return fmt.Errorf("insert report %s: %w", report.ID, err)
	}

	if err := conn.InsertMember(ctx, member); err != nil && !errors.Is(err, store.ErrUniqueViolation) {
		return fmt.Errorf("re-insert member for report %s: %w", report.ID, err)
	}

	err = conn.InsertReport(ctx, report)
	switch {
	case err == nil:
		metrics.ObserveReportInserted()
	case errors.Is(err, store.ErrUniqueViolation):
		metrics.ObserveReportSkipped(metrics.SkipDuplicate)
	default:
		metrics.ObserveReportSkipped(metrics.SkipInsertFailed)
		logger.Error("report insert failed after member retry", zap.String("report_id", report.ID), zap.Error(err))
	}
	return nil
}
