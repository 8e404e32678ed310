package txn

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestSortedKeys(t *testing.T) {
	keys := SortedKeys([]string{"b", "a", "b", "c", "a"})
	assert.Equal(t, []string{"a", "b", "c"}, keys)
}

func TestStockKey(t *testing.T) {
	item := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	loc := uuid.MustParse("22222222-2222-2222-2222-222222222222")
	assert.Equal(t, "stock:11111111-1111-1111-1111-111111111111:22222222-2222-2222-2222-222222222222", StockKey(item, loc))
	assert.NotEqual(t, StockKey(item, loc), StockKey(loc, item))
}
