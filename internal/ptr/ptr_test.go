package ptr

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fedwatch/ptr-crawler/internal/id"
)

func TestParseTransactionType(t *testing.T) {
	t.Parallel()

	require.Equal(t, Purchase, ParseTransactionType("P"))
	require.Equal(t, Sale, ParseTransactionType("S"))
	require.Equal(t, PartialSale, ParseTransactionType("S (partial)"))
	require.Equal(t, Exchange, ParseTransactionType("E"))
	require.Equal(t, TransactionType(""), ParseTransactionType("X"))
	require.Equal(t, TransactionType(""), ParseTransactionType(""))
}

func TestParseAmountBandLabels(t *testing.T) {
	t.Parallel()

	cases := map[string]AmountBand{
		"$1,001":      Band1KTo15K,
		"$15,001":     Band15KTo50K,
		"$50,001":     Band50KTo100K,
		"$25,000,001": Band25MTo50M,
		"Over":        BandOver,
		"Spouse/DC":   BandSpouseDC,
	}
	for raw, want := range cases {
		band, err := ParseAmountBand(raw)
		require.NoError(t, err, raw)
		require.Equal(t, want, band, raw)
	}
}

func TestParseAmountBandNumeric(t *testing.T) {
	t.Parallel()

	// Below the lowest bound still bands to A; the tie at an exact bound
	// stays in the matching tier because the comparison is strictly
	// less-than.
	cases := map[string]AmountBand{
		"$100.00":     Band1KTo15K,
		"$1,000":      Band1KTo15K,
		"$15,000":     Band15KTo50K,
		"$50,001":     Band50KTo100K,
		"$2,000,000":  Band1MTo5M,
		"$99,000,000": Band25MTo50M,
	}
	for raw, want := range cases {
		band, err := ParseAmountBand(raw)
		require.NoError(t, err, raw)
		require.Equal(t, want, band, raw)
	}
}

func TestParseAmountBandMonotonic(t *testing.T) {
	t.Parallel()

	amounts := []string{
		"$500", "$1,200", "$14,999", "$20,000", "$75,000", "$150,000",
		"$300,000", "$700,000", "$3,000,000", "$10,000,000", "$30,000,000",
	}
	var prev AmountBand
	for _, raw := range amounts {
		band, err := ParseAmountBand(raw)
		require.NoError(t, err, raw)
		if prev != "" {
			require.LessOrEqual(t, string(prev), string(band), raw)
		}
		prev = band
	}
}

func TestParseAmountBandRejectsGarbage(t *testing.T) {
	t.Parallel()

	_, err := ParseAmountBand("$lots")
	require.ErrorIs(t, err, ErrUnparseableAmount)
}

func TestParseFilingDate(t *testing.T) {
	t.Parallel()

	date, err := ParseFilingDate("01/15/2020")
	require.NoError(t, err)
	require.Equal(t, time.Date(2020, time.January, 15, 0, 0, 0, 0, time.UTC), date)

	date, err = ParseFilingDate("9/3/2021")
	require.NoError(t, err)
	require.Equal(t, time.Date(2021, time.September, 3, 0, 0, 0, 0, time.UTC), date)

	for _, raw := range []string{"2020-01-15", "01/15", "aa/bb/cccc", ""} {
		_, err := ParseFilingDate(raw)
		require.ErrorIs(t, err, ErrMalformedDate, raw)
	}
}

func TestEnqueueAndMarkParsed(t *testing.T) {
	t.Parallel()

	member := NewHouseMember("Doe", "Jane")
	member.ParsedDocIDs = []string{"100000"}

	member.EnqueueDoc("100000") // already parsed
	member.EnqueueDoc("100001")
	member.EnqueueDoc("100001") // already pending
	member.EnqueueDoc("100002")
	require.Equal(t, []string{"100001", "100002"}, member.NewDocIDs)

	member.MarkParsed("100001")
	require.Equal(t, []string{"100002"}, member.NewDocIDs)
	require.Equal(t, []string{"100000", "100001"}, member.ParsedDocIDs)

	// Re-marking is a no-op.
	member.MarkParsed("100001")
	require.Equal(t, []string{"100000", "100001"}, member.ParsedDocIDs)
}

func TestNewReportNormalizesFields(t *testing.T) {
	t.Parallel()

	memberID := id.MemberID("Doe", "Jane")
	report, err := NewReport(memberID, "100001", "Apple Inc.", "P", "01/15/2020", "01/20/2020", "$15,001", 0)
	require.NoError(t, err)
	require.Equal(t, "100001_0", report.ID)
	require.Equal(t, memberID, report.HouseMemberID)
	require.Equal(t, Purchase, report.TransactionType)
	require.Equal(t, Band15KTo50K, report.AmountBand)
}

const sampleFilingText = `FILER INFORMATION
SP Apple Inc. [AAPL] P 01/15/2020 01/20/2020 $15,001 - $50,000
Microsoft Corporation [MSFT] S (partial) 02/01/2020 02/03/2020 $1,001 - $15,000
Tesla Inc. E 03/10/2020 03/12/2020 $50,001 - $100,000
Some Municipal Bond S 04/01/2020 04/02/2020 Over $50,000,000
`

func TestParseDigitalEntries(t *testing.T) {
	t.Parallel()

	memberID := id.MemberID("Doe", "Jane")
	reports, skipped := ParseDigitalEntries(memberID, "100001", sampleFilingText)
	require.Empty(t, skipped)
	require.Len(t, reports, 4)

	require.Equal(t, "100001_0", reports[0].ID)
	require.Equal(t, "Apple Inc.", reports[0].Asset)
	require.Equal(t, Purchase, reports[0].TransactionType)
	require.Equal(t, Band15KTo50K, reports[0].AmountBand)

	require.Equal(t, "100001_1", reports[1].ID)
	require.Equal(t, PartialSale, reports[1].TransactionType)
	require.Equal(t, Band1KTo15K, reports[1].AmountBand)

	require.Equal(t, "100001_2", reports[2].ID)
	require.Equal(t, Exchange, reports[2].TransactionType)

	require.Equal(t, "100001_3", reports[3].ID)
	require.Equal(t, BandOver, reports[3].AmountBand)
}

func TestParseDigitalEntriesSkipsBadLines(t *testing.T) {
	t.Parallel()

	text := "Broken Asset P 01/15/2020 01/20/2020 $nonsense\n" +
		"Apple Inc. [AAPL] P 01/15/2020 01/20/2020 $15,001 - $50,000\n"

	reports, skipped := ParseDigitalEntries(id.MemberID("Doe", "Jane"), "100002", text)
	require.Len(t, skipped, 1)
	require.ErrorIs(t, skipped[0], ErrUnparseableAmount)
	require.Len(t, reports, 1)
	// The bad line still consumed a sequence slot so ids stay stable.
	require.Equal(t, "100002_1", reports[0].ID)
}

func TestParseDigitalEntriesNoMatches(t *testing.T) {
	t.Parallel()

	reports, skipped := ParseDigitalEntries(id.MemberID("Doe", "Jane"), "100003", "no trades here")
	require.Empty(t, reports)
	require.Empty(t, skipped)
}
