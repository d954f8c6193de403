package cache

import (
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/rxstock/pkg/domain/entities"
	"github.com/vsinha/rxstock/pkg/domain/repositories"
	"github.com/vsinha/rxstock/pkg/infrastructure/repositories/csv"
)

var storeNow = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

// countingStore counts calls that reach the file store
type countingStore struct {
	repositories.PharmacyStore
	inventoryLoads atomic.Int32
	lowStockLoads  atomic.Int32
	usageLoads     atomic.Int32
	failInventory  atomic.Bool
}

func (s *countingStore) LoadInventory() ([]entities.InventoryItem, error) {
	s.inventoryLoads.Add(1)
	if s.failInventory.Load() {
		return nil, errors.New("read failed")
	}
	return s.PharmacyStore.LoadInventory()
}

func (s *countingStore) LowStock() ([]entities.EnrichedItem, error) {
	s.lowStockLoads.Add(1)
	return s.PharmacyStore.LowStock()
}

func (s *countingStore) UsageStats(drugName string, windowDays int) (*entities.UsageStats, error) {
	s.usageLoads.Add(1)
	return s.PharmacyStore.UsageStats(drugName, windowDays)
}

func seedItems() []entities.InventoryItem {
	expiry := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)
	return []entities.InventoryItem{
		{DrugID: "D001", Name: "Morphine Sulfate 10mg", Location: "ICU", Quantity: 2, ExpiryDate: expiry, BatchLot: "L1", SafetyStock: 10, AvgDailyUse: 1},
		{DrugID: "D003", Name: "Paracetamol 500mg", Location: "ER", Quantity: 100, ExpiryDate: expiry, BatchLot: "L5", SafetyStock: 20, AvgDailyUse: 5},
	}
}

func newCachedStore(t *testing.T) (*CachedStore, *countingStore) {
	t.Helper()
	file := csv.NewStore(filepath.Join(t.TempDir(), "data"), csv.WithClock(func() time.Time { return storeNow }))
	require.NoError(t, file.SaveInventory(seedItems()))
	counting := &countingStore{PharmacyStore: file}
	return NewCachedStore(counting, New(), DefaultTTLs()), counting
}

func TestCachedStore_ServesRepeatReadsFromCache(t *testing.T) {
	s, counting := newCachedStore(t)

	for i := 0; i < 3; i++ {
		items, err := s.LoadInventory()
		require.NoError(t, err)
		assert.Len(t, items, 2)
	}
	assert.Equal(t, int32(1), counting.inventoryLoads.Load())
}

func TestCachedStore_ReadAfterWriteSeesWrite(t *testing.T) {
	s, _ := newCachedStore(t)
	key := entities.ItemKey{DrugID: "D001", Location: "ICU", BatchLot: "L1"}

	low, err := s.LowStock()
	require.NoError(t, err)
	require.Len(t, low, 1)

	found, err := s.UpdateQuantity(key, 50)
	require.NoError(t, err)
	require.True(t, found)

	low, err = s.LowStock()
	require.NoError(t, err)
	assert.Empty(t, low)

	items, err := s.LoadInventory()
	require.NoError(t, err)
	assert.Equal(t, int64(50), items[0].Quantity)
}

func TestCachedStore_AdjustQuantityInvalidatesInventory(t *testing.T) {
	s, _ := newCachedStore(t)
	key := entities.ItemKey{DrugID: "D001", Location: "ICU", BatchLot: "L1"}

	low, err := s.LowStock()
	require.NoError(t, err)
	require.Len(t, low, 1)

	item, found, err := s.AdjustQuantity(key, 48)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, int64(50), item.Quantity)

	low, err = s.LowStock()
	require.NoError(t, err)
	assert.Empty(t, low)
}

func TestCachedStore_TransactionAppendKeepsInventoryCached(t *testing.T) {
	s, counting := newCachedStore(t)

	_, err := s.LowStock()
	require.NoError(t, err)
	stats, err := s.UsageStats("morphine", 7)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.TotalUsed)

	txn := entities.Transaction{TxnID: "T1", Timestamp: storeNow, UserID: "E1", DrugID: "D001", Action: entities.ActionUse, QtyChange: -2}
	require.NoError(t, s.AppendTransaction(txn))

	_, err = s.LowStock()
	require.NoError(t, err)
	stats, err = s.UsageStats("morphine", 7)
	require.NoError(t, err)

	assert.Equal(t, int32(1), counting.lowStockLoads.Load())
	assert.Equal(t, int32(2), counting.usageLoads.Load())
	assert.Equal(t, int64(2), stats.TotalUsed)
}

func TestCachedStore_ReturnsCopies(t *testing.T) {
	s, _ := newCachedStore(t)

	items, err := s.LoadInventory()
	require.NoError(t, err)
	items[0].Quantity = 9999
	items[0].Name = "tampered"

	again, err := s.LoadInventory()
	require.NoError(t, err)
	assert.Equal(t, int64(2), again[0].Quantity)
	assert.Equal(t, "Morphine Sulfate 10mg", again[0].Name)

	stats, err := s.UsageStats("morphine", 3)
	require.NoError(t, err)
	stats.DailyUsage[0] = 100
	stats, err = s.UsageStats("morphine", 3)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 0}, stats.DailyUsage)
}

func TestCachedStore_FailedReadIsNotCached(t *testing.T) {
	s, counting := newCachedStore(t)

	counting.failInventory.Store(true)
	_, err := s.LoadInventory()
	require.Error(t, err)
	assert.Equal(t, 0, s.Cache().Len())

	counting.failInventory.Store(false)
	items, err := s.LoadInventory()
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, int32(2), counting.inventoryLoads.Load())
}

func TestCachedStore_UserWritesInvalidateUsers(t *testing.T) {
	s, _ := newCachedStore(t)
	user := entities.UserAccount{EmployeeID: "E1", Name: "Ana", Role: entities.RoleNurse, Status: entities.AccountActive, CreatedAt: storeNow}
	require.NoError(t, s.SaveUsers([]entities.UserAccount{user}))

	users, err := s.LoadUsers()
	require.NoError(t, err)
	require.Len(t, users, 1)

	user.Status = entities.AccountBlacklisted
	found, err := s.UpdateUser(user)
	require.NoError(t, err)
	require.True(t, found)

	users, err = s.LoadUsers()
	require.NoError(t, err)
	assert.Equal(t, entities.AccountBlacklisted, users[0].Status)
}

func TestCachedStore_ConcurrentReadersObserveEveryWrite(t *testing.T) {
	s, _ := newCachedStore(t)
	key := entities.ItemKey{DrugID: "D003", Location: "ER", BatchLot: "L5"}

	stop := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
					_, _ = s.LoadInventory()
				}
			}
		}()
	}

	for q := int64(1); q <= 20; q++ {
		_, err := s.UpdateQuantity(key, q)
		require.NoError(t, err)
		items, err := s.LoadInventory()
		require.NoError(t, err)
		require.Equal(t, q, items[1].Quantity)
	}

	close(stop)
	wg.Wait()
}
