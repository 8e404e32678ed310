package txn

import (
	"context"
	"slices"

	"github.com/google/uuid"
)

// Locker serializes work on named keys. Acquire blocks until every key is
// held or ctx is done; release must be called exactly once.
type Locker interface {
	Acquire(ctx context.Context, keys ...string) (release func(), err error)
}

// StockKey names the lock for one (item, location) balance
func StockKey(itemID, locationID uuid.UUID) string {
	return "stock:" + itemID.String() + ":" + locationID.String()
}

// DocumentKey names the lock for one document
func DocumentKey(kind string, id uuid.UUID) string {
	return "doc:" + kind + ":" + id.String()
}

// SortedKeys de-duplicates and orders keys so concurrent callers always
// acquire them in the same order
func SortedKeys(keys []string) []string {
	out := slices.Clone(keys)
	slices.Sort(out)
	return slices.Compact(out)
}
