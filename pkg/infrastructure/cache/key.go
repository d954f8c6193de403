package cache

import (
	"strconv"
	"strings"
)

// Collection tags every cache key with the data it was derived from.
// Invalidation works on these tags only.
type Collection string

const (
	CollectionInventory    Collection = "inventory"
	CollectionSearch       Collection = "search"
	CollectionLocations    Collection = "locations"
	CollectionExpiring     Collection = "expiring"
	CollectionExpired      Collection = "expired"
	CollectionLowStock     Collection = "lowStock"
	CollectionUsage        Collection = "usage"
	CollectionTransactions Collection = "transactions"
	CollectionUsers        Collection = "users"
	CollectionAccessLog    Collection = "accessLog"
)

// Collections invalidated by each kind of write
var (
	InventoryWrites = []Collection{
		CollectionInventory, CollectionSearch, CollectionLocations,
		CollectionExpiring, CollectionExpired, CollectionLowStock, CollectionUsage,
	}
	TransactionWrites = []Collection{CollectionTransactions, CollectionUsage}
	UserWrites        = []Collection{CollectionUsers}
	AccessLogWrites   = []Collection{CollectionAccessLog}
)

// Key identifies one cached query result
type Key struct {
	Collection Collection
	Variant    string
	Args       []string
}

// NewKey builds a key from a collection, a query variant and its arguments
func NewKey(c Collection, variant string, args ...string) Key {
	return Key{Collection: c, Variant: variant, Args: args}
}

// String renders the key deterministically. Arguments are quoted so distinct
// argument lists never collide.
func (k Key) String() string {
	var b strings.Builder
	b.WriteString(string(k.Collection))
	b.WriteByte('|')
	b.WriteString(k.Variant)
	for _, a := range k.Args {
		b.WriteByte('|')
		b.WriteString(strconv.Quote(a))
	}
	return b.String()
}

// Prefix is the collection tag of the key
func (k Key) Prefix() Collection {
	return k.Collection
}
