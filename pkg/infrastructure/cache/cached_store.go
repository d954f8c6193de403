package cache

import (
	"strconv"
	"strings"
	"time"

	"github.com/vsinha/rxstock/pkg/domain/entities"
	"github.com/vsinha/rxstock/pkg/domain/repositories"
)

// TTLs holds the lifetime of cached results per collection family
type TTLs struct {
	// Inventory covers the inventory collection and every view derived from
	// it alone: search, locations, expiring, expired, low stock.
	Inventory time.Duration
	// Transactions covers the transaction log and usage statistics.
	Transactions time.Duration
	Users        time.Duration
	AccessLog    time.Duration
}

// DefaultTTLs returns the standard lifetimes
func DefaultTTLs() TTLs {
	return TTLs{
		Inventory:    5 * time.Minute,
		Transactions: 2 * time.Minute,
		Users:        10 * time.Minute,
		AccessLog:    2 * time.Minute,
	}
}

// CachedStore serves reads of a PharmacyStore through a Cache. Writes go to
// the wrapped store and then invalidate the affected collections before
// returning.
type CachedStore struct {
	inner repositories.PharmacyStore
	cache *Cache
	ttl   TTLs
}

// Verify interface compliance
var _ repositories.PharmacyStore = (*CachedStore)(nil)

// NewCachedStore wraps inner. The cache lifecycle (Start/Stop) stays with the
// caller.
func NewCachedStore(inner repositories.PharmacyStore, c *Cache, ttl TTLs) *CachedStore {
	return &CachedStore{inner: inner, cache: c, ttl: ttl}
}

// Cache returns the underlying cache
func (s *CachedStore) Cache() *Cache {
	return s.cache
}

func cached[T any](s *CachedStore, key Key, ttl time.Duration, fetch func() (T, error), clone func(T) T) (T, error) {
	v, err := s.cache.GetOrFetch(key, ttl, func() (any, error) {
		return fetch()
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return clone(v.(T)), nil
}

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}

func cloneUsage(in *entities.UsageStats) *entities.UsageStats {
	if in == nil {
		return nil
	}
	out := *in
	out.DrugIDs = cloneSlice(in.DrugIDs)
	out.DailyUsage = cloneSlice(in.DailyUsage)
	return &out
}

// LoadInventory returns the inventory, cached
func (s *CachedStore) LoadInventory() ([]entities.InventoryItem, error) {
	return cached(s, NewKey(CollectionInventory, "all"), s.ttl.Inventory,
		s.inner.LoadInventory, cloneSlice[entities.InventoryItem])
}

// SaveInventory replaces the inventory and invalidates every inventory view
func (s *CachedStore) SaveInventory(items []entities.InventoryItem) error {
	defer s.cache.Invalidate(InventoryWrites...)
	return s.inner.SaveInventory(items)
}

// UpdateItem replaces one row and invalidates every inventory view
func (s *CachedStore) UpdateItem(item entities.InventoryItem) (bool, error) {
	defer s.cache.Invalidate(InventoryWrites...)
	return s.inner.UpdateItem(item)
}

// UpdateQuantity sets one row's quantity and invalidates every inventory view
func (s *CachedStore) UpdateQuantity(key entities.ItemKey, quantity int64) (bool, error) {
	defer s.cache.Invalidate(InventoryWrites...)
	return s.inner.UpdateQuantity(key, quantity)
}

// AdjustQuantity applies a delta to one row and invalidates every inventory
// view
func (s *CachedStore) AdjustQuantity(key entities.ItemKey, delta int64) (entities.InventoryItem, bool, error) {
	defer s.cache.Invalidate(InventoryWrites...)
	return s.inner.AdjustQuantity(key, delta)
}

// SearchByName runs a fuzzy name search, cached per query
func (s *CachedStore) SearchByName(query string) ([]entities.EnrichedItem, error) {
	key := NewKey(CollectionSearch, "name", strings.ToLower(strings.TrimSpace(query)))
	return cached(s, key, s.ttl.Inventory, func() ([]entities.EnrichedItem, error) {
		return s.inner.SearchByName(query)
	}, cloneSlice[entities.EnrichedItem])
}

// ByLocation lists rows at a location, cached per location text
func (s *CachedStore) ByLocation(location string) ([]entities.EnrichedItem, error) {
	key := NewKey(CollectionLocations, "rows", strings.ToLower(strings.TrimSpace(location)))
	return cached(s, key, s.ttl.Inventory, func() ([]entities.EnrichedItem, error) {
		return s.inner.ByLocation(location)
	}, cloneSlice[entities.EnrichedItem])
}

// LocationSummaries aggregates inventory per location, cached
func (s *CachedStore) LocationSummaries() ([]entities.LocationSummary, error) {
	return cached(s, NewKey(CollectionLocations, "summary"), s.ttl.Inventory,
		s.inner.LocationSummaries, cloneSlice[entities.LocationSummary])
}

// ExpiringWithin lists rows expiring within days, cached per day count
func (s *CachedStore) ExpiringWithin(days int) ([]entities.EnrichedItem, error) {
	key := NewKey(CollectionExpiring, "within", strconv.Itoa(days))
	return cached(s, key, s.ttl.Inventory, func() ([]entities.EnrichedItem, error) {
		return s.inner.ExpiringWithin(days)
	}, cloneSlice[entities.EnrichedItem])
}

// Expired lists expired rows, cached
func (s *CachedStore) Expired() ([]entities.EnrichedItem, error) {
	return cached(s, NewKey(CollectionExpired, "all"), s.ttl.Inventory,
		s.inner.Expired, cloneSlice[entities.EnrichedItem])
}

// LowStock lists rows below safety stock, cached
func (s *CachedStore) LowStock() ([]entities.EnrichedItem, error) {
	return cached(s, NewKey(CollectionLowStock, "all"), s.ttl.Inventory,
		s.inner.LowStock, cloneSlice[entities.EnrichedItem])
}

// UsageStats aggregates a drug's transactions, cached per drug and window
func (s *CachedStore) UsageStats(drugName string, windowDays int) (*entities.UsageStats, error) {
	key := NewKey(CollectionUsage, "stats", strings.ToLower(strings.TrimSpace(drugName)), strconv.Itoa(windowDays))
	return cached(s, key, s.ttl.Transactions, func() (*entities.UsageStats, error) {
		return s.inner.UsageStats(drugName, windowDays)
	}, cloneUsage)
}

// LoadUsers returns every account, cached
func (s *CachedStore) LoadUsers() ([]entities.UserAccount, error) {
	return cached(s, NewKey(CollectionUsers, "all"), s.ttl.Users,
		s.inner.LoadUsers, cloneSlice[entities.UserAccount])
}

// SaveUsers replaces the accounts and invalidates them
func (s *CachedStore) SaveUsers(users []entities.UserAccount) error {
	defer s.cache.Invalidate(UserWrites...)
	return s.inner.SaveUsers(users)
}

// UpdateUser replaces one account and invalidates the accounts
func (s *CachedStore) UpdateUser(user entities.UserAccount) (bool, error) {
	defer s.cache.Invalidate(UserWrites...)
	return s.inner.UpdateUser(user)
}

// UpdateUserFunc updates one account in place and invalidates the accounts
func (s *CachedStore) UpdateUserFunc(employeeID string, fn func(*entities.UserAccount) error) (bool, error) {
	defer s.cache.Invalidate(UserWrites...)
	return s.inner.UpdateUserFunc(employeeID, fn)
}

// LoadTransactions returns the transaction log, cached
func (s *CachedStore) LoadTransactions() ([]entities.Transaction, error) {
	return cached(s, NewKey(CollectionTransactions, "all"), s.ttl.Transactions,
		s.inner.LoadTransactions, cloneSlice[entities.Transaction])
}

// AppendTransaction appends to the log and invalidates it and usage statistics
func (s *CachedStore) AppendTransaction(txn entities.Transaction) error {
	defer s.cache.Invalidate(TransactionWrites...)
	return s.inner.AppendTransaction(txn)
}

// LoadAccessLog returns the access log, cached
func (s *CachedStore) LoadAccessLog() ([]entities.AccessLogEntry, error) {
	return cached(s, NewKey(CollectionAccessLog, "all"), s.ttl.AccessLog,
		s.inner.LoadAccessLog, cloneSlice[entities.AccessLogEntry])
}

// AppendAccessLog appends to the access log and invalidates it
func (s *CachedStore) AppendAccessLog(entry entities.AccessLogEntry) error {
	defer s.cache.Invalidate(AccessLogWrites...)
	return s.inner.AppendAccessLog(entry)
}
