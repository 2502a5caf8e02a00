// Package postgres provides the Postgres-backed persistence gateway.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/fedwatch/ptr-crawler/internal/ptr"
	"github.com/fedwatch/ptr-crawler/internal/store"
)

// SQLSTATE codes mapped onto the store's conflict sentinels.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

// querier is the subset of pgx.Conn the gateway needs, small enough for
// pgxmock to stand in during tests.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close(ctx context.Context) error
}

// Store implements store.Store over a single Postgres connection. Each
// worker dials its own Store; nothing here is safe for concurrent use.
type Store struct {
	conn querier
}

var _ store.Store = (*Store)(nil)

// Connect dials Postgres and returns a worker-owned Store.
func Connect(ctx context.Context, dsn string) (*Store, error) {
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &Store{conn: conn}, nil
}

// NewWithConn wraps an existing connection, mainly for tests.
func NewWithConn(conn querier) *Store {
	return &Store{conn: conn}
}

// Dialer returns a store.Dialer that opens a fresh connection per call.
func Dialer(dsn string) store.Dialer {
	return func(ctx context.Context) (store.Store, error) {
		return Connect(ctx, dsn)
	}
}

// Close releases the connection.
func (s *Store) Close(ctx context.Context) error {
	return s.conn.Close(ctx)
}

// ListMembers loads every persisted House member.
func (s *Store) ListMembers(ctx context.Context) ([]*ptr.HouseMember, error) {
	query := `
		SELECT id, last_name, first_name, parsed_doc_ids
		FROM house_members;
	`
	rows, err := s.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var members []*ptr.HouseMember
	for rows.Next() {
		var member ptr.HouseMember
		if err := rows.Scan(&member.ID, &member.LastName, &member.FirstName, &member.ParsedDocIDs); err != nil {
			return nil, fmt.Errorf("scan member row: %w", err)
		}
		members = append(members, &member)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate member rows: %w", err)
	}
	return members, nil
}

// InsertMember persists a new member row.
func (s *Store) InsertMember(ctx context.Context, member *ptr.HouseMember) error {
	query := `
		INSERT INTO house_members (id, last_name, first_name, parsed_doc_ids)
		VALUES ($1, $2, $3, $4);
	`
	_, err := s.conn.Exec(ctx, query, member.ID, member.LastName, member.FirstName, member.ParsedDocIDs)
	if err != nil {
		return fmt.Errorf("insert member %s %s: %w", member.FirstName, member.LastName, mapConflict(err))
	}
	return nil
}

// InsertReport appends one trade line item to the ptr ledger.
func (s *Store) InsertReport(ctx context.Context, report ptr.Report) error {
	query := `
		INSERT INTO ptr (id, house_member_id, asset, transaction_type,
			transaction_date, notification_date, amount_band)
		VALUES ($1, $2, $3, $4, $5, $6, $7);
	`
	_, err := s.conn.Exec(ctx, query,
		report.ID,
		report.HouseMemberID,
		report.Asset,
		string(report.TransactionType),
		report.TransactionDate,
		report.NotificationDate,
		string(report.AmountBand),
	)
	if err != nil {
		return fmt.Errorf("insert report %s: %w", report.ID, mapConflict(err))
	}
	return nil
}

// UpdateParsedDocs overwrites the member's durable progress marker.
func (s *Store) UpdateParsedDocs(ctx context.Context, member *ptr.HouseMember) error {
	query := `
		UPDATE house_members SET parsed_doc_ids = $1 WHERE id = $2;
	`
	_, err := s.conn.Exec(ctx, query, member.ParsedDocIDs, member.ID)
	if err != nil {
		return fmt.Errorf("update parsed docs for %s: %w", member.ID, err)
	}
	return nil
}

// LastKnownYear reads the crawl checkpoint. The first reporting year is
// seeded into known_years by the schema bootstrap, so an empty table means
// the store was never initialized.
func (s *Store) LastKnownYear(ctx context.Context) (int, error) {
	query := `
		SELECT year_id FROM known_years ORDER BY year_id DESC LIMIT 1;
	`
	var year int
	if err := s.conn.QueryRow(ctx, query).Scan(&year); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("last known year: %w", store.ErrNotFound)
		}
		return 0, fmt.Errorf("last known year: %w", err)
	}
	return year, nil
}

// RecordYear marks a reporting year as known to exist.
func (s *Store) RecordYear(ctx context.Context, year int) error {
	query := `
		INSERT INTO known_years (year_id) VALUES ($1)
		ON CONFLICT (year_id) DO NOTHING;
	`
	if _, err := s.conn.Exec(ctx, query, year); err != nil {
		return fmt.Errorf("record year %d: %w", year, err)
	}
	return nil
}

// mapConflict converts Postgres constraint failures into the store's
// sentinel errors so callers can branch with errors.Is.
func mapConflict(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case codeUniqueViolation:
		return fmt.Errorf("%w: %s", store.ErrUniqueViolation, pgErr.ConstraintName)
	case codeForeignKeyViolation:
		return fmt.Errorf("%w: %s", store.ErrForeignKeyViolation, pgErr.ConstraintName)
	default:
		return err
	}
}
