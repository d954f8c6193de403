package memory

import (
	"fmt"
	"sync"
	"time"

	"github.com/vsinha/rxstock/pkg/domain/entities"
	"github.com/vsinha/rxstock/pkg/domain/repositories"
	"github.com/vsinha/rxstock/pkg/domain/services/stock"
)

// Store keeps all four collections in memory. It validates the same way the
// file store does and hands out copies, so it can stand in for it in tests
// and demos.
type Store struct {
	mutex        sync.RWMutex
	inventory    []entities.InventoryItem
	users        []entities.UserAccount
	transactions []entities.Transaction
	accessLog    []entities.AccessLogEntry
	now          func() time.Time
}

// NewStore creates an empty in-memory store
func NewStore() *Store {
	return &Store{now: time.Now}
}

// NewStoreWithClock creates an empty store whose derived views use now
func NewStoreWithClock(now func() time.Time) *Store {
	return &Store{now: now}
}

// Verify interface compliance
var _ repositories.PharmacyStore = (*Store)(nil)

func clone[T any](in []T) []T {
	out := make([]T, len(in))
	copy(out, in)
	return out
}

func validateAll[T any](collection string, recs []T, validate func(*T) error, key func(*T) string) error {
	seen := make(map[string]struct{}, len(recs))
	for i := range recs {
		if err := validate(&recs[i]); err != nil {
			return withCollection(err, collection)
		}
		k := key(&recs[i])
		if _, dup := seen[k]; dup {
			return &entities.ValidationError{Collection: collection, Reason: fmt.Sprintf("duplicate key %s", k)}
		}
		seen[k] = struct{}{}
	}
	return nil
}

func withCollection(err error, collection string) error {
	if ve, ok := err.(*entities.ValidationError); ok {
		ve.Collection = collection
		return ve
	}
	return err
}

func itemKey(i *entities.InventoryItem) string {
	return i.DrugID + "/" + i.Location + "/" + i.BatchLot
}

// LoadInventory returns a copy of the inventory
func (s *Store) LoadInventory() ([]entities.InventoryItem, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return clone(s.inventory), nil
}

// SaveInventory replaces the inventory
func (s *Store) SaveInventory(items []entities.InventoryItem) error {
	if err := validateAll("inventory", items, (*entities.InventoryItem).Validate, itemKey); err != nil {
		return err
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.inventory = clone(items)
	return nil
}

// UpdateItem replaces the row with the same key
func (s *Store) UpdateItem(item entities.InventoryItem) (bool, error) {
	if err := item.Validate(); err != nil {
		return false, withCollection(err, "inventory")
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()
	for i := range s.inventory {
		if s.inventory[i].Key() == item.Key() {
			s.inventory[i] = item
			return true, nil
		}
	}
	return false, nil
}

// UpdateQuantity sets the on-hand quantity of one row
func (s *Store) UpdateQuantity(key entities.ItemKey, quantity int64) (bool, error) {
	if quantity < 0 {
		return false, &entities.ValidationError{Collection: "inventory", Field: "quantity", Reason: "cannot be negative"}
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()
	for i := range s.inventory {
		if s.inventory[i].Key() == key {
			s.inventory[i].Quantity = quantity
			return true, nil
		}
	}
	return false, nil
}

// AdjustQuantity adds delta to one row's quantity under the store lock
func (s *Store) AdjustQuantity(key entities.ItemKey, delta int64) (entities.InventoryItem, bool, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	for i := range s.inventory {
		if s.inventory[i].Key() != key {
			continue
		}
		next, err := entities.ApplyDelta(s.inventory[i].Quantity, delta)
		if err != nil {
			return entities.InventoryItem{}, false, err
		}
		s.inventory[i].Quantity = next
		return s.inventory[i], true, nil
	}
	return entities.InventoryItem{}, false, nil
}

func (s *Store) SearchByName(query string) ([]entities.EnrichedItem, error) {
	items, _ := s.LoadInventory()
	return stock.Search(items, query, s.now()), nil
}

func (s *Store) ByLocation(location string) ([]entities.EnrichedItem, error) {
	items, _ := s.LoadInventory()
	return stock.AtLocation(items, location, s.now()), nil
}

func (s *Store) LocationSummaries() ([]entities.LocationSummary, error) {
	items, _ := s.LoadInventory()
	return stock.Summarize(items, s.now()), nil
}

func (s *Store) ExpiringWithin(days int) ([]entities.EnrichedItem, error) {
	items, _ := s.LoadInventory()
	return stock.ExpiringWithin(items, days, s.now()), nil
}

func (s *Store) Expired() ([]entities.EnrichedItem, error) {
	items, _ := s.LoadInventory()
	return stock.Expired(items, s.now()), nil
}

func (s *Store) LowStock() ([]entities.EnrichedItem, error) {
	items, _ := s.LoadInventory()
	return stock.LowStock(items, s.now()), nil
}

func (s *Store) UsageStats(drugName string, windowDays int) (*entities.UsageStats, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return stock.AggregateUsage(s.inventory, s.transactions, drugName, windowDays, s.now()), nil
}

// LoadUsers returns a copy of the accounts
func (s *Store) LoadUsers() ([]entities.UserAccount, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return clone(s.users), nil
}

// SaveUsers replaces the accounts
func (s *Store) SaveUsers(users []entities.UserAccount) error {
	key := func(u *entities.UserAccount) string { return u.EmployeeID }
	if err := validateAll("users", users, (*entities.UserAccount).Validate, key); err != nil {
		return err
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.users = clone(users)
	return nil
}

// UpdateUser replaces the account with the same employee id
func (s *Store) UpdateUser(user entities.UserAccount) (bool, error) {
	if err := user.Validate(); err != nil {
		return false, withCollection(err, "users")
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()
	for i := range s.users {
		if s.users[i].EmployeeID == user.EmployeeID {
			s.users[i] = user
			return true, nil
		}
	}
	return false, nil
}

// UpdateUserFunc applies fn to a copy of the account under the store lock
// and keeps the result only when fn succeeds and the account stays valid
func (s *Store) UpdateUserFunc(employeeID string, fn func(*entities.UserAccount) error) (bool, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	for i := range s.users {
		if s.users[i].EmployeeID != employeeID {
			continue
		}
		u := s.users[i]
		if err := fn(&u); err != nil {
			return false, err
		}
		if err := u.Validate(); err != nil {
			return false, withCollection(err, "users")
		}
		s.users[i] = u
		return true, nil
	}
	return false, nil
}

// LoadTransactions returns a copy of the transaction log
func (s *Store) LoadTransactions() ([]entities.Transaction, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return clone(s.transactions), nil
}

// AppendTransaction adds one transaction
func (s *Store) AppendTransaction(txn entities.Transaction) error {
	if err := txn.Validate(); err != nil {
		return withCollection(err, "transactions")
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.transactions = append(s.transactions, txn)
	return nil
}

// LoadAccessLog returns a copy of the access log
func (s *Store) LoadAccessLog() ([]entities.AccessLogEntry, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return clone(s.accessLog), nil
}

// AppendAccessLog adds one access log entry
func (s *Store) AppendAccessLog(entry entities.AccessLogEntry) error {
	if err := entry.Validate(); err != nil {
		return withCollection(err, "access_log")
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.accessLog = append(s.accessLog, entry)
	return nil
}
