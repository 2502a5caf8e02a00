// Package index parses a year's disclosure archive into pending work.
package index

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/fedwatch/ptr-crawler/internal/metrics"
	"github.com/fedwatch/ptr-crawler/internal/ptr"
	"github.com/fedwatch/ptr-crawler/internal/registry"
	"github.com/fedwatch/ptr-crawler/internal/store"
)

// filingTypePTR marks a disclosure-index record as a periodic transaction
// report.
const filingTypePTR = "P"

// indexDocument is the parsed <year>FD.xml. Record elements are collected
// regardless of their tag name; the clerk has used both Member and
// Disclosure over the years.
type indexDocument struct {
	XMLName xml.Name
	Records []indexRecord `xml:",any"`
}

type indexRecord struct {
	Last       string `xml:"Last"`
	First      string `xml:"First"`
	FilingType string `xml:"FilingType"`
	DocID      string `xml:"DocID"`
}

// Indexer turns one year's archive into a populated member registry with
// pending document ids enqueued per member.
type Indexer struct {
	dial   store.Dialer
	logger *zap.Logger
}

// New builds an Indexer. Each IndexYear call dials its own store connection
// so year workers never share one.
func New(dial store.Dialer, logger *zap.Logger) *Indexer {
	return &Indexer{dial: dial, logger: logger}
}

// IndexYear opens the year's archive, parses its disclosure index, creates
// previously unseen members, and enqueues each PTR document id on its
// owner. Failures are fatal for this year's pass only; other years run on
// their own connections and are unaffected.
func (ix *Indexer) IndexYear(ctx context.Context, year int, archive []byte) (*registry.KnownHouseMembers, error) {
	logger := ix.logger.With(zap.Int("year", year))
	logger.Info("indexing disclosure archive")

	records, err := parseIndex(year, archive)
	if err != nil {
		return nil, err
	}

	conn, err := ix.dial(ctx)
	if err != nil {
		return nil, fmt.Errorf("dial store for year %d: %w", year, err)
	}
	defer func() {
		if cerr := conn.Close(ctx); cerr != nil {
			logger.Warn("close store connection", zap.Error(cerr))
		}
	}()

	known, err := registry.Seed(ctx, conn, logger)
	if err != nil {
		return nil, err
	}

	enqueued := 0
	for _, record := range records {
		// Only periodic transaction reports feed the pipeline; annual
		// disclosures and records without a filing type are skipped.
		if record.FilingType != filingTypePTR {
			continue
		}
		if record.Last == "" || record.First == "" || record.DocID == "" {
			return nil, fmt.Errorf("year %d: PTR record missing name or doc id (last=%q first=%q doc=%q)",
				year, record.Last, record.First, record.DocID)
		}

		member, ok := known.Get(record.Last, record.First)
		if !ok {
			member = ptr.NewHouseMember(record.Last, record.First)
			if err := known.Register(ctx, conn, member); err != nil {
				return nil, fmt.Errorf("register member %s %s: %w", record.First, record.Last, err)
			}
			metrics.ObserveMemberDiscovered()
		}
		member.EnqueueDoc(record.DocID)
		enqueued++
	}

	metrics.ObserveYearIndexed()
	logger.Info("disclosure archive indexed",
		zap.Int("ptr_records", enqueued),
		zap.Int("known_members", known.Len()),
	)
	return known, nil
}

// parseIndex unpacks the archive and decodes the single expected
// disclosure-index document.
func parseIndex(year int, archive []byte) ([]indexRecord, error) {
	reader, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		return nil, fmt.Errorf("open archive for year %d: %w", year, err)
	}

	indexName := fmt.Sprintf("%dFD.xml", year)
	file, err := reader.Open(indexName)
	if err != nil {
		return nil, fmt.Errorf("archive for year %d has no %s: %w", year, indexName, err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", indexName, err)
	}

	var doc indexDocument
	if err := xml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", indexName, err)
	}
	return doc.Records, nil
}
