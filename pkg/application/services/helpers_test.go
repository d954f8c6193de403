package services

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vsinha/rxstock/pkg/domain/entities"
	"github.com/vsinha/rxstock/pkg/domain/repositories"
	"github.com/vsinha/rxstock/pkg/infrastructure/repositories/memory"
)

var testNow = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

// failingStore wraps a store, fails selected writes and can run another
// writer just before a read-modify-write reaches the store. Each Before hook
// fires once.
type failingStore struct {
	*memory.Store
	AppendTransactionFunc func(entities.Transaction) error
	BeforeAdjustQuantity  func()
	BeforeUpdateUser      func()
}

var _ repositories.PharmacyStore = (*failingStore)(nil)

func (f *failingStore) AppendTransaction(txn entities.Transaction) error {
	if f.AppendTransactionFunc != nil {
		return f.AppendTransactionFunc(txn)
	}
	return f.Store.AppendTransaction(txn)
}

func (f *failingStore) AdjustQuantity(key entities.ItemKey, delta int64) (entities.InventoryItem, bool, error) {
	if hook := f.BeforeAdjustQuantity; hook != nil {
		f.BeforeAdjustQuantity = nil
		hook()
	}
	return f.Store.AdjustQuantity(key, delta)
}

func (f *failingStore) UpdateUserFunc(employeeID string, fn func(*entities.UserAccount) error) (bool, error) {
	if hook := f.BeforeUpdateUser; hook != nil {
		f.BeforeUpdateUser = nil
		hook()
	}
	return f.Store.UpdateUserFunc(employeeID, fn)
}

var errDiskFull = errors.New("disk full")

func account(id string, role entities.Role, status entities.AccountStatus) entities.UserAccount {
	return entities.UserAccount{EmployeeID: id, Name: "Staff " + id, Role: role, Status: status, CreatedAt: testNow}
}

func seededStore(t *testing.T) *memory.Store {
	t.Helper()
	store := memory.NewStoreWithClock(fixedClock)
	require.NoError(t, store.SaveUsers([]entities.UserAccount{
		account("P1", entities.RolePharmacist, entities.AccountActive),
		account("N1", entities.RoleNurse, entities.AccountActive),
		account("B1", entities.RolePharmacist, entities.AccountBlacklisted),
		account("M1", entities.RoleMaster, entities.AccountActive),
	}))
	require.NoError(t, store.SaveInventory([]entities.InventoryItem{
		{DrugID: "D3", Name: "Paracetamol 500mg", Location: "Pharmacy-Main", Quantity: 40, ExpiryDate: testNow.AddDate(0, 6, 0), BatchLot: "L1", SafetyStock: 20, AvgDailyUse: 4},
		{DrugID: "D3", Name: "Paracetamol 500mg", Location: "ER", Quantity: 20, ExpiryDate: testNow.AddDate(0, 6, 0), BatchLot: "L2", SafetyStock: 10, AvgDailyUse: 6},
		{DrugID: "D3", Name: "Paracetamol 500mg", Location: "ICU", Quantity: 5, ExpiryDate: testNow.AddDate(0, 0, -3), BatchLot: "L0", SafetyStock: 0, AvgDailyUse: 1},
		{DrugID: "D9", Name: "Heparin 5000 IU", Location: "ICU", Quantity: 10, ExpiryDate: testNow.AddDate(1, 0, 0), BatchLot: "H1", SafetyStock: 5, AvgDailyUse: 2},
	}))
	return store
}
