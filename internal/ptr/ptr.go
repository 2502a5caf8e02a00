// Package ptr models House periodic transaction reports and the codecs
// used to normalize them from raw filing text.
package ptr

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fedwatch/ptr-crawler/internal/id"
)

// Parse failures scoped to a single line item. Callers must drop the line,
// never the enclosing document.
var (
	ErrMalformedDate     = errors.New("malformed filing date")
	ErrUnparseableAmount = errors.New("unparseable amount")
)

// TransactionType is the disclosed trade direction code.
type TransactionType string

// Transaction types as they appear in the ptr.transaction_type column.
const (
	Purchase    TransactionType = "P"
	Sale        TransactionType = "S"
	PartialSale TransactionType = "PS"
	Exchange    TransactionType = "E"
)

// transactionTypes maps the raw filing codes to their normalized form.
// Anything else normalizes to the empty (invalid) type.
var transactionTypes = map[string]TransactionType{
	"P":           Purchase,
	"S":           Sale,
	"S (partial)": PartialSale,
	"E":           Exchange,
}

// ParseTransactionType normalizes a raw filing code. Unknown codes yield the
// empty type rather than an error; the rest of the line item is still usable.
func ParseTransactionType(raw string) TransactionType {
	return transactionTypes[raw]
}

// AmountBand is one of the eleven statutory disclosure buckets. Exact dollar
// figures are never stored; the filing format itself only discloses ranges.
type AmountBand string

// Bands A..I cover the numeric tiers, J is "Over $50,000,000",
// K is the spouse/dependent-child bucket.
const (
	Band1KTo15K    AmountBand = "A"
	Band15KTo50K   AmountBand = "B"
	Band50KTo100K  AmountBand = "C"
	Band100KTo250K AmountBand = "D"
	Band250KTo500K AmountBand = "E"
	Band500KTo1M   AmountBand = "F"
	Band1MTo5M     AmountBand = "G"
	Band5MTo25M    AmountBand = "H"
	Band25MTo50M   AmountBand = "I"
	BandOver       AmountBand = "J"
	BandSpouseDC   AmountBand = "K"
)

// amountLabels are the exact range labels printed on digital filings.
var amountLabels = map[string]AmountBand{
	"$1,001":      Band1KTo15K,
	"$15,001":     Band15KTo50K,
	"$50,001":     Band50KTo100K,
	"$100,001":    Band100KTo250K,
	"$250,001":    Band250KTo500K,
	"$500,001":    Band500KTo1M,
	"$1,000,001":  Band1MTo5M,
	"$5,000,001":  Band5MTo25M,
	"$25,000,001": Band25MTo50M,
	"Over":        BandOver,
	"Spouse/DC":   BandSpouseDC,
}

// amountTiers are the lower bounds of the numeric bands, ascending.
var amountTiers = []struct {
	bound int64
	band  AmountBand
}{
	{1_001, Band1KTo15K},
	{15_001, Band15KTo50K},
	{50_001, Band50KTo100K},
	{100_001, Band100KTo250K},
	{250_001, Band250KTo500K},
	{500_001, Band500KTo1M},
	{1_000_001, Band1MTo5M},
	{5_000_001, Band5MTo25M},
	{25_000_001, Band25MTo50M},
}

// ParseAmountBand maps a raw amount string to its disclosure band. Exact
// label matches win; otherwise the string is stripped of currency symbols,
// commas, and cents and banded into the smallest tier whose lower bound
// strictly exceeds the dollar amount. Amounts at or above the top numeric
// bound land in band I.
func ParseAmountBand(raw string) (AmountBand, error) {
	if band, ok := amountLabels[raw]; ok {
		return band, nil
	}

	cleaned := strings.TrimPrefix(raw, "$")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	if dot := strings.IndexByte(cleaned, '.'); dot >= 0 {
		cleaned = cleaned[:dot]
	}
	if cleaned == "" {
		cleaned = "0"
	}

	amount, err := strconv.ParseInt(cleaned, 10, 64)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrUnparseableAmount, raw)
	}

	band := amountTiers[len(amountTiers)-1].band
	for _, tier := range amountTiers {
		if amount < tier.bound {
			band = tier.band
			break
		}
	}
	return band, nil
}

// ParseFilingDate parses the mm/dd/yyyy dates used throughout House filings.
func ParseFilingDate(raw string) (time.Time, error) {
	parts := strings.Split(raw, "/")
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedDate, raw)
	}
	month, err := strconv.Atoi(parts[0])
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedDate, raw)
	}
	day, err := strconv.Atoi(parts[1])
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedDate, raw)
	}
	year, err := strconv.Atoi(parts[2])
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedDate, raw)
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), nil
}

// HouseMember is one filer. The id is derived from the name so independent
// workers compute the same id without coordinating, and ParsedDocIDs is the
// durable per-member progress marker. NewDocIDs only ever lives in memory
// for the duration of one crawl cycle.
type HouseMember struct {
	ID           uuid.UUID
	LastName     string
	FirstName    string
	ParsedDocIDs []string
	NewDocIDs    []string
}

// NewHouseMember builds a member with a deterministic id and no pending work.
func NewHouseMember(lastName, firstName string) *HouseMember {
	return &HouseMember{
		ID:        id.MemberID(lastName, firstName),
		LastName:  lastName,
		FirstName: firstName,
	}
}

// EnqueueDoc records a discovered document id unless it has already been
// parsed or is already pending. A doc id is never in both sets.
func (m *HouseMember) EnqueueDoc(docID string) {
	for _, seen := range m.ParsedDocIDs {
		if seen == docID {
			return
		}
	}
	for _, pending := range m.NewDocIDs {
		if pending == docID {
			return
		}
	}
	m.NewDocIDs = append(m.NewDocIDs, docID)
}

// MarkParsed moves a document from the pending set to the parsed set.
func (m *HouseMember) MarkParsed(docID string) {
	for i, pending := range m.NewDocIDs {
		if pending == docID {
			m.NewDocIDs = append(m.NewDocIDs[:i], m.NewDocIDs[i+1:]...)
			break
		}
	}
	for _, seen := range m.ParsedDocIDs {
		if seen == docID {
			return
		}
	}
	m.ParsedDocIDs = append(m.ParsedDocIDs, docID)
}

// PendingDocs returns a snapshot of the pending set, safe to range over
// while MarkParsed mutates the member.
func (m *HouseMember) PendingDocs() []string {
	snapshot := make([]string, len(m.NewDocIDs))
	copy(snapshot, m.NewDocIDs)
	return snapshot
}

// Report is one disclosed trade line item. Reports are append-only: inserted
// once while parsing a document, never updated or deleted.
type Report struct {
	ID               string
	HouseMemberID    uuid.UUID
	Asset            string
	TransactionType  TransactionType
	TransactionDate  time.Time
	NotificationDate time.Time
	AmountBand       AmountBand
}

// NewReport normalizes one regex-matched line item into a Report. The id is
// the owning document id plus a zero-based sequence counter, unique within
// the document without any database sequence.
func NewReport(memberID uuid.UUID, docID, asset, txType, txDate, notifDate, amount string, seq int) (Report, error) {
	transactionDate, err := ParseFilingDate(txDate)
	if err != nil {
		return Report{}, fmt.Errorf("transaction date: %w", err)
	}
	notificationDate, err := ParseFilingDate(notifDate)
	if err != nil {
		return Report{}, fmt.Errorf("notification date: %w", err)
	}
	band, err := ParseAmountBand(amount)
	if err != nil {
		return Report{}, err
	}
	return Report{
		ID:               fmt.Sprintf("%s_%d", docID, seq),
		HouseMemberID:    memberID,
		Asset:            asset,
		TransactionType:  ParseTransactionType(txType),
		TransactionDate:  transactionDate,
		NotificationDate: notificationDate,
		AmountBand:       band,
	}, nil
}

// digitalEntry matches one trade line in the text stream of a digital PTR:
// an optional two-character owner prefix, the asset description, an optional
// ticker in brackets, the type code, two mm/dd/yyyy dates, and the raw amount.
var digitalEntry = regexp.MustCompile(
	`(?m)^(?:.. )?(?P<asset>[^\[\n]+?)(?: | \[[^\]\n]*\] )` +
		`(?P<transaction_type>S ?\(partial\)|[PSE]) ` +
		`(?P<transaction_date>\d{1,2}/\d{1,2}/\d{4}) ` +
		`(?P<notification_date>\d{1,2}/\d{1,2}/\d{4}) ` +
		`(?P<amount>\$?[^- \n]+)`,
)

var (
	digitalAssetIdx  = digitalEntry.SubexpIndex("asset")
	digitalTypeIdx   = digitalEntry.SubexpIndex("transaction_type")
	digitalTxIdx     = digitalEntry.SubexpIndex("transaction_date")
	digitalNotifIdx  = digitalEntry.SubexpIndex("notification_date")
	digitalAmountIdx = digitalEntry.SubexpIndex("amount")
)

// ParseDigitalEntries scans extracted PDF text for trade line items and
// returns one Report per match, sequenced in document order. A line whose
// dates or amount fail to normalize is skipped; the error is reported
// through the skipped return value so callers can log it without aborting
// the document.
func ParseDigitalEntries(memberID uuid.UUID, docID, text string) (reports []Report, skipped []error) {
	seq := 0
	for _, match := range digitalEntry.FindAllStringSubmatch(text, -1) {
		report, err := NewReport(
			memberID,
			docID,
			match[digitalAssetIdx],
			match[digitalTypeIdx],
			match[digitalTxIdx],
			match[digitalNotifIdx],
			match[digitalAmountIdx],
			seq,
		)
		if err != nil {
			skipped = append(skipped, fmt.Errorf("entry %d in doc %s: %w", seq, docID, err))
			seq++
			continue
		}
		reports = append(reports, report)
		seq++
	}
	return reports, skipped
}
