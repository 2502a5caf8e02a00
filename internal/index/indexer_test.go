package index

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fedwatch/ptr-crawler/internal/id"
	"github.com/fedwatch/ptr-crawler/internal/ptr"
	"github.com/fedwatch/ptr-crawler/internal/store/storetest"
)

func buildArchive(t *testing.T, year int, xmlBody string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	entry, err := zw.Create(fmt.Sprintf("%dFD.xml", year))
	require.NoError(t, err)
	_, err = entry.Write([]byte(xmlBody))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

const sampleIndexXML = `<?xml version="1.0" encoding="UTF-8"?>
<FinancialDisclosure>
  <Member>
    <Last>Doe</Last>
    <First>Jane</First>
    <FilingType>P</FilingType>
    <DocID>100001</DocID>
  </Member>
  <Member>
    <Last>Doe</Last>
    <First>Jane</First>
    <FilingType>P</FilingType>
    <DocID>100002</DocID>
  </Member>
  <Member>
    <Last>Khanna</Last>
    <First>Ro</First>
    <FilingType>O</FilingType>
    <DocID>200001</DocID>
  </Member>
  <Member>
    <Last>Pelosi</Last>
    <First>Nancy</First>
    <DocID>300001</DocID>
  </Member>
  <Member>
    <Last>Gottheimer</Last>
    <First>Josh</First>
    <FilingType>P</FilingType>
    <DocID>400001</DocID>
  </Member>
</FinancialDisclosure>`

func TestIndexYearEnqueuesPTRDocs(t *testing.T) {
	t.Parallel()

	backend := storetest.NewBackend()
	archive := buildArchive(t, 2020, sampleIndexXML)

	known, err := New(backend.Dialer(), zap.NewNop()).IndexYear(context.Background(), 2020, archive)
	require.NoError(t, err)

	// Annual-report and missing-FilingType records are not PTRs.
	require.Equal(t, 2, known.Len())
	require.Equal(t, 2, backend.MemberCount())

	doe, ok := known.Get("Doe", "Jane")
	require.True(t, ok)
	require.Equal(t, []string{"100001", "100002"}, doe.NewDocIDs)

	gottheimer, ok := known.Get("Gottheimer", "Josh")
	require.True(t, ok)
	require.Equal(t, []string{"400001"}, gottheimer.NewDocIDs)
}

func TestIndexYearIsIdempotent(t *testing.T) {
	t.Parallel()

	backend := storetest.NewBackend()
	archive := buildArchive(t, 2020, sampleIndexXML)
	indexer := New(backend.Dialer(), zap.NewNop())

	first, err := indexer.IndexYear(context.Background(), 2020, archive)
	require.NoError(t, err)
	membersAfterFirst := backend.MemberCount()

	second, err := indexer.IndexYear(context.Background(), 2020, archive)
	require.NoError(t, err)

	require.Equal(t, membersAfterFirst, backend.MemberCount())
	require.Equal(t, first.Len(), second.Len())

	doe1, _ := first.Get("Doe", "Jane")
	doe2, _ := second.Get("Doe", "Jane")
	require.Equal(t, doe1.NewDocIDs, doe2.NewDocIDs)
}

func TestIndexYearSkipsParsedDocs(t *testing.T) {
	t.Parallel()

	backend := storetest.NewBackend()
	parsed := ptr.NewHouseMember("Doe", "Jane")
	parsed.ParsedDocIDs = []string{"100001"}
	backend.SeedMember(parsed)

	archive := buildArchive(t, 2020, sampleIndexXML)
	known, err := New(backend.Dialer(), zap.NewNop()).IndexYear(context.Background(), 2020, archive)
	require.NoError(t, err)

	doe, ok := known.Get("Doe", "Jane")
	require.True(t, ok)
	require.Equal(t, []string{"100002"}, doe.NewDocIDs)
	require.Equal(t, id.MemberID("Doe", "Jane"), doe.ID)
}

func TestIndexYearRejectsMalformedPTRRecord(t *testing.T) {
	t.Parallel()

	backend := storetest.NewBackend()
	malformed := `<FinancialDisclosure>
  <Member>
    <Last>Doe</Last>
    <FilingType>P</FilingType>
    <DocID>100001</DocID>
  </Member>
</FinancialDisclosure>`
	archive := buildArchive(t, 2020, malformed)

	_, err := New(backend.Dialer(), zap.NewNop()).IndexYear(context.Background(), 2020, archive)
	require.ErrorContains(t, err, "missing name or doc id")
}

func TestIndexYearRejectsBadArchive(t *testing.T) {
	t.Parallel()

	backend := storetest.NewBackend()
	indexer := New(backend.Dialer(), zap.NewNop())

	_, err := indexer.IndexYear(context.Background(), 2020, []byte("not a zip"))
	require.ErrorContains(t, err, "open archive")

	// Right container, wrong index name.
	archive := buildArchive(t, 2021, sampleIndexXML)
	_, err = indexer.IndexYear(context.Background(), 2020, archive)
	require.ErrorContains(t, err, "2020FD.xml")
}
