// Package storetest provides an in-memory store.Store for pipeline tests.
package storetest

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/fedwatch/ptr-crawler/internal/ptr"
	"github.com/fedwatch/ptr-crawler/internal/store"
)

// Backend is the shared in-memory state behind fake connections, mirroring
// one Postgres instance observed by many worker-owned connections. Safe for
// concurrent use.
type Backend struct {
	mu      sync.Mutex
	members map[uuid.UUID]*ptr.HouseMember
	reports map[string]ptr.Report
	years   map[int]bool

	// MemberInserts counts InsertMember attempts, including conflicting ones.
	MemberInserts int
	// FailInsertReportOnce makes the next InsertReport return
	// ErrForeignKeyViolation even if the member row exists, to exercise
	// the retry path.
	FailInsertReportOnce bool
	// UpdateParsedDocsErr, when set, is returned by UpdateParsedDocs.
	UpdateParsedDocsErr error
}

// NewBackend returns an empty backend.
func NewBackend() *Backend {
	return &Backend{
		members: make(map[uuid.UUID]*ptr.HouseMember),
		reports: make(map[string]ptr.Report),
		years:   make(map[int]bool),
	}
}

// SeedMember stores a member row directly, bypassing conflict accounting.
func (b *Backend) SeedMember(member *ptr.HouseMember) {
	b.mu.Lock()
	defer b.mu.Unlock()
	clone := *member
	b.members[member.ID] = &clone
}

// SeedYear marks a year as already known.
func (b *Backend) SeedYear(year int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.years[year] = true
}

// Member returns the stored row for the given id.
func (b *Backend) Member(memberID uuid.UUID) (*ptr.HouseMember, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	member, ok := b.members[memberID]
	return member, ok
}

// MemberCount reports the number of member rows.
func (b *Backend) MemberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.members)
}

// Reports returns all stored reports keyed by id.
func (b *Backend) Reports() map[string]ptr.Report {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[string]ptr.Report, len(b.reports))
	for reportID, report := range b.reports {
		out[reportID] = report
	}
	return out
}

// Years returns the recorded known years.
func (b *Backend) Years() []int {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]int, 0, len(b.years))
	for year := range b.years {
		out = append(out, year)
	}
	return out
}

// Dialer returns a store.Dialer handing out connections to this backend.
func (b *Backend) Dialer() store.Dialer {
	return func(_ context.Context) (store.Store, error) {
		return &Conn{backend: b}, nil
	}
}

// Connect returns one fake connection to the backend.
func (b *Backend) Connect() *Conn {
	return &Conn{backend: b}
}

// Conn implements store.Store against a shared Backend.
type Conn struct {
	backend *Backend
}

var _ store.Store = (*Conn)(nil)

// ListMembers returns copies of all member rows.
func (c *Conn) ListMembers(_ context.Context) ([]*ptr.HouseMember, error) {
	c.backend.mu.Lock()
	defer c.backend.mu.Unlock()
	out := make([]*ptr.HouseMember, 0, len(c.backend.members))
	for _, member := range c.backend.members {
		clone := *member
		clone.ParsedDocIDs = append([]string(nil), member.ParsedDocIDs...)
		clone.NewDocIDs = nil
		out = append(out, &clone)
	}
	return out, nil
}

// InsertMember stores a member row, failing on duplicate ids.
func (c *Conn) InsertMember(_ context.Context, member *ptr.HouseMember) error {
	c.backend.mu.Lock()
	defer c.backend.mu.Unlock()
	c.backend.MemberInserts++
	if _, ok := c.backend.members[member.ID]; ok {
		return fmt.Errorf("insert member: %w", store.ErrUniqueViolation)
	}
	clone := *member
	c.backend.members[member.ID] = &clone
	return nil
}

// InsertReport stores a report row, enforcing the member foreign key and
// report id uniqueness.
func (c *Conn) InsertReport(_ context.Context, report ptr.Report) error {
	c.backend.mu.Lock()
	defer c.backend.mu.Unlock()
	if c.backend.FailInsertReportOnce {
		c.backend.FailInsertReportOnce = false
		return fmt.Errorf("insert report: %w", store.ErrForeignKeyViolation)
	}
	if _, ok := c.backend.members[report.HouseMemberID]; !ok {
		return fmt.Errorf("insert report: %w", store.ErrForeignKeyViolation)
	}
	if _, ok := c.backend.reports[report.ID]; ok {
		return fmt.Errorf("insert report: %w", store.ErrUniqueViolation)
	}
	c.backend.reports[report.ID] = report
	return nil
}

// UpdateParsedDocs overwrites the progress marker on the stored row.
func (c *Conn) UpdateParsedDocs(_ context.Context, member *ptr.HouseMember) error {
	c.backend.mu.Lock()
	defer c.backend.mu.Unlock()
	if err := c.backend.UpdateParsedDocsErr; err != nil {
		return err
	}
	stored, ok := c.backend.members[member.ID]
	if !ok {
		return store.ErrNotFound
	}
	stored.ParsedDocIDs = append([]string(nil), member.ParsedDocIDs...)
	return nil
}

// LastKnownYear returns the highest recorded year.
func (c *Conn) LastKnownYear(_ context.Context) (int, error) {
	c.backend.mu.Lock()
	defer c.backend.mu.Unlock()
	last := 0
	for year := range c.backend.years {
		if year > last {
			last = year
		}
	}
	if last == 0 {
		return 0, store.ErrNotFound
	}
	return last, nil
}

// RecordYear marks a year as known.
func (c *Conn) RecordYear(_ context.Context, year int) error {
	c.backend.mu.Lock()
	defer c.backend.mu.Unlock()
	c.backend.years[year] = true
	return nil
}

// Close is a no-op.
func (c *Conn) Close(_ context.Context) error {
	return nil
}
