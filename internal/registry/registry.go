// Package registry caches the known House members for one indexing pass.
package registry

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fedwatch/ptr-crawler/internal/id"
	"github.com/fedwatch/ptr-crawler/internal/ptr"
	"github.com/fedwatch/ptr-crawler/internal/store"
)

// KnownHouseMembers answers "have we seen this person" without a store
// round trip per lookup. It is rebuilt from the store at the start of each
// year's indexing pass and discarded afterwards; it is owned by a single
// worker and is not safe for concurrent use.
type KnownHouseMembers struct {
	members map[uuid.UUID]*ptr.HouseMember
	logger  *zap.Logger
}

// Seed loads all persisted members into memory keyed by id. O(member count),
// paid once per year pass rather than once per document.
func Seed(ctx context.Context, s store.Store, logger *zap.Logger) (*KnownHouseMembers, error) {
	persisted, err := s.ListMembers(ctx)
	if err != nil {
		return nil, fmt.Errorf("seed member registry: %w", err)
	}
	members := make(map[uuid.UUID]*ptr.HouseMember, len(persisted))
	for _, member := range persisted {
		members[member.ID] = member
	}
	return &KnownHouseMembers{members: members, logger: logger}, nil
}

// Get looks a member up by the id derived from their name. No store access.
func (r *KnownHouseMembers) Get(lastName, firstName string) (*ptr.HouseMember, bool) {
	member, ok := r.members[id.MemberID(lastName, firstName)]
	return member, ok
}

// Register persists a newly observed member and adds them to the cache. A
// sibling worker in another year may have inserted the same member between
// our seed and now; that unique violation means the row is already correct
// and is ignored.
func (r *KnownHouseMembers) Register(ctx context.Context, s store.Store, member *ptr.HouseMember) error {
	if _, ok := r.members[member.ID]; ok {
		return nil
	}
	if err := s.InsertMember(ctx, member); err != nil {
		if !errors.Is(err, store.ErrUniqueViolation) {
			return err
		}
		r.logger.Debug("member already persisted by a sibling worker",
			zap.String("member_id", member.ID.String()),
			zap.String("last_name", member.LastName),
		)
	}
	r.members[member.ID] = member
	return nil
}

// Members returns the cached members in no particular order.
func (r *KnownHouseMembers) Members() []*ptr.HouseMember {
	out := make([]*ptr.HouseMember, 0, len(r.members))
	for _, member := range r.members {
		out = append(out, member)
	}
	return out
}

// Len reports the number of cached members.
func (r *KnownHouseMembers) Len() int {
	return len(r.members)
}
