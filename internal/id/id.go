// Package id provides deterministic identifier derivation.
package id

import (
	"crypto/md5"

	"github.com/google/uuid"
)

// MemberID derives the stable id for a House member from their name. The id
// is the MD5 digest of "<last>_<first>" read as a UUID, so any process can
// compute the same id for the same person without a round trip to the
// database. Names are used exactly as given; two spellings of the same
// person are two ids, and a full-name collision is accepted as the same
// person.
func MemberID(lastName, firstName string) uuid.UUID {
	sum := md5.Sum([]byte(lastName + "_" + firstName))
	id, err := uuid.FromBytes(sum[:])
	if err != nil {
		// md5.Sum always yields 16 bytes; FromBytes cannot fail on it.
		panic(err)
	}
	return id
}
