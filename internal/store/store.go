// Package store declares the persistence contracts for the crawl pipeline.
// Implementations live in other packages; this package must not import
// database drivers or concrete clients.
package store

import (
	"context"
	"errors"

	"github.com/fedwatch/ptr-crawler/internal/ptr"
)

// Conflict outcomes surfaced as sentinel errors so callers can implement
// recovery policy explicitly with errors.Is rather than having it hidden
// inside the gateway.
var (
	// ErrUniqueViolation means the row already exists. Inserts are
	// idempotent under re-runs precisely because callers ignore it.
	ErrUniqueViolation = errors.New("unique violation")
	// ErrForeignKeyViolation means the referenced member row is not
	// committed yet. Expected under concurrency; the caller re-inserts
	// the member and retries exactly once.
	ErrForeignKeyViolation = errors.New("foreign key violation")
	// ErrNotFound signals that the requested record does not exist.
	ErrNotFound = errors.New("record not found")
)

// Store is one worker-owned connection to the persistent backend. Every
// worker dials its own Store and closes it at its batch boundary; a Store is
// never shared across workers.
type Store interface {
	// ListMembers loads every persisted House member, used to seed the
	// per-pass member registry.
	ListMembers(ctx context.Context) ([]*ptr.HouseMember, error)
	// InsertMember persists a new member row. Returns ErrUniqueViolation
	// if the derived id already exists.
	InsertMember(ctx context.Context, member *ptr.HouseMember) error
	// InsertReport appends one trade line item. Returns ErrUniqueViolation
	// for an already-inserted (doc, sequence) pair and
	// ErrForeignKeyViolation when the owning member is not yet visible.
	InsertReport(ctx context.Context, report ptr.Report) error
	// UpdateParsedDocs overwrites the member's durable progress marker.
	UpdateParsedDocs(ctx context.Context, member *ptr.HouseMember) error
	// LastKnownYear reads the crawl checkpoint: the most recent reporting
	// year known to exist.
	LastKnownYear(ctx context.Context) (int, error)
	// RecordYear marks a reporting year as known to exist. Recording an
	// already-known year is a no-op.
	RecordYear(ctx context.Context, year int) error
	// Close releases the underlying connection.
	Close(ctx context.Context) error
}

// Dialer opens a fresh Store. The pipeline hands one Dialer to every stage
// so each worker can own its connection lifecycle.
type Dialer func(ctx context.Context) (Store, error)
