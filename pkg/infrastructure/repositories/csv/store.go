package csv

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/vsinha/rxstock/pkg/domain/entities"
	"github.com/vsinha/rxstock/pkg/domain/repositories"
)

// Collection file names under the store root
const (
	InventoryFile    = "inventory.csv"
	UsersFile        = "users.csv"
	TransactionsFile = "transactions.csv"
	AccessLogFile    = "access_log.csv"
)

// tmpSuffix marks the sibling written before an atomic rename
const tmpSuffix = ".tmp"

// Store keeps the four collections as flat CSV files under one directory.
// Every read and write of a file runs under that file's lock. The store does
// no caching: each call re-reads from disk.
type Store struct {
	dir    string
	locks  *LockTable
	logger *slog.Logger
	now    func() time.Time
	rename func(oldpath, newpath string) error
}

// Option configures a Store
type Option func(*Store)

// WithLogger sets the logger used for debug output
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithClock sets the clock used by date-dependent views
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLockTable shares a lock table between stores rooted at the same files
func WithLockTable(t *LockTable) Option {
	return func(s *Store) { s.locks = t }
}

// NewStore creates a store rooted at dir. Nothing touches the disk until the
// first call.
func NewStore(dir string, opts ...Option) *Store {
	s := &Store{
		dir:    dir,
		locks:  NewLockTable(),
		logger: slog.Default(),
		now:    time.Now,
		rename: os.Rename,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Verify interface compliance
var _ repositories.PharmacyStore = (*Store)(nil)

// Dir returns the store root
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the full path of a collection file
func (s *Store) Path(file string) string {
	return filepath.Join(s.dir, file)
}

// EnsureDirectory creates the store root and its parents if missing
func (s *Store) EnsureDirectory() error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create data directory %s: %w", s.dir, err)
	}
	return nil
}

// LoadInventory returns every inventory row
func (s *Store) LoadInventory() ([]entities.InventoryItem, error) {
	return load(s, inventorySchema)
}

// SaveInventory atomically replaces the inventory file
func (s *Store) SaveInventory(items []entities.InventoryItem) error {
	return saveAll(s, inventorySchema, items)
}

// UpdateItem replaces the inventory row with the same key
func (s *Store) UpdateItem(item entities.InventoryItem) (bool, error) {
	if err := item.Validate(); err != nil {
		return false, withRow(err, inventorySchema.collection, 0)
	}
	key := item.Key()
	return update(s, inventorySchema, matchItem(key), func(i *entities.InventoryItem) error {
		*i = item
		return nil
	})
}

// UpdateQuantity sets the on-hand quantity of one inventory row
func (s *Store) UpdateQuantity(key entities.ItemKey, quantity int64) (bool, error) {
	if quantity < 0 {
		return false, &entities.ValidationError{
			Collection: inventorySchema.collection,
			Field:      "quantity",
			Reason:     "cannot be negative",
		}
	}
	return update(s, inventorySchema, matchItem(key), func(i *entities.InventoryItem) error {
		i.Quantity = quantity
		return nil
	})
}

// AdjustQuantity adds delta to the quantity of one inventory row inside the
// file's critical section and returns the updated row. A result below zero
// fails with entities.ErrNegativeQuantity and leaves the file untouched.
func (s *Store) AdjustQuantity(key entities.ItemKey, delta int64) (entities.InventoryItem, bool, error) {
	var updated entities.InventoryItem
	found, err := update(s, inventorySchema, matchItem(key), func(i *entities.InventoryItem) error {
		next, err := entities.ApplyDelta(i.Quantity, delta)
		if err != nil {
			return err
		}
		i.Quantity = next
		updated = *i
		return nil
	})
	return updated, found, err
}

// LoadUsers returns every staff account
func (s *Store) LoadUsers() ([]entities.UserAccount, error) {
	return load(s, userSchema)
}

// SaveUsers atomically replaces the users file
func (s *Store) SaveUsers(users []entities.UserAccount) error {
	return saveAll(s, userSchema, users)
}

// UpdateUser replaces the account with the same employee id
func (s *Store) UpdateUser(user entities.UserAccount) (bool, error) {
	if err := user.Validate(); err != nil {
		return false, withRow(err, userSchema.collection, 0)
	}
	return update(s, userSchema, matchUser(user.EmployeeID), func(u *entities.UserAccount) error {
		*u = user
		return nil
	})
}

// UpdateUserFunc applies fn to the account with the given employee id while
// holding the users file lock. An error from fn, or an account fn leaves
// invalid, aborts the write.
func (s *Store) UpdateUserFunc(employeeID string, fn func(*entities.UserAccount) error) (bool, error) {
	return update(s, userSchema, matchUser(employeeID), func(u *entities.UserAccount) error {
		if err := fn(u); err != nil {
			return err
		}
		if err := u.Validate(); err != nil {
			return withRow(err, userSchema.collection, 0)
		}
		return nil
	})
}

// LoadTransactions returns the transaction log in file order
func (s *Store) LoadTransactions() ([]entities.Transaction, error) {
	return load(s, transactionSchema)
}

// AppendTransaction adds one row to the transaction log
func (s *Store) AppendTransaction(txn entities.Transaction) error {
	return appendRecord(s, transactionSchema, txn)
}

// LoadAccessLog returns the access log in file order
func (s *Store) LoadAccessLog() ([]entities.AccessLogEntry, error) {
	return load(s, accessLogSchema)
}

// AppendAccessLog adds one row to the access log
func (s *Store) AppendAccessLog(entry entities.AccessLogEntry) error {
	return appendRecord(s, accessLogSchema, entry)
}

func load[T any](s *Store, sc schema[T]) ([]T, error) {
	var out []T
	err := s.locks.With(s.Path(sc.file), func() error {
		var err error
		out, err = loadUnlocked(s, sc)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func saveAll[T any](s *Store, sc schema[T], recs []T) error {
	return s.locks.With(s.Path(sc.file), func() error {
		return saveUnlocked(s, sc, recs)
	})
}

// update runs load, apply, save as one critical section on the file. An
// error from apply leaves the file as it was.
func update[T any](s *Store, sc schema[T], match func(*T) bool, apply func(*T) error) (bool, error) {
	found := false
	err := s.locks.With(s.Path(sc.file), func() error {
		recs, err := loadUnlocked(s, sc)
		if err != nil {
			return err
		}
		for i := range recs {
			if match(&recs[i]) {
				if err := apply(&recs[i]); err != nil {
					return err
				}
				found = true
				break
			}
		}
		if !found {
			return nil
		}
		return saveUnlocked(s, sc, recs)
	})
	if err != nil {
		return false, err
	}
	return found, nil
}

func matchItem(key entities.ItemKey) func(*entities.InventoryItem) bool {
	return func(i *entities.InventoryItem) bool { return i.Key() == key }
}

func matchUser(employeeID string) func(*entities.UserAccount) bool {
	return func(u *entities.UserAccount) bool { return u.EmployeeID == employeeID }
}

func loadUnlocked[T any](s *Store, sc schema[T]) ([]T, error) {
	path := s.Path(sc.file)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return []T{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		ve := &entities.ValidationError{Collection: sc.collection, Reason: err.Error()}
		var pe *csv.ParseError
		if errors.As(err, &pe) {
			ve.Row = pe.Line
			ve.Reason = pe.Err.Error()
		}
		return nil, ve
	}

	recs, err := decodeRecords(sc, records)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("loaded collection", "collection", sc.collection, "rows", len(recs))
	return recs, nil
}

func saveUnlocked[T any](s *Store, sc schema[T], recs []T) error {
	rows, err := encodeRecords(sc, recs)
	if err != nil {
		return err
	}
	if err := s.writeAtomic(s.Path(sc.file), rows); err != nil {
		return err
	}
	s.logger.Debug("saved collection", "collection", sc.collection, "rows", len(recs))
	return nil
}

func appendRecord[T any](s *Store, sc schema[T], rec T) error {
	if err := sc.validate(&rec); err != nil {
		return withRow(err, sc.collection, 0)
	}
	path := s.Path(sc.file)
	return s.locks.With(path, func() error {
		if err := s.appendRow(path, sc.header, sc.encode(rec)); err != nil {
			return err
		}
		s.logger.Debug("appended record", "collection", sc.collection)
		return nil
	})
}

// writeAtomic writes rows to a temporary sibling and renames it over path.
// Until the rename succeeds the original file is left as it was.
func (s *Store) writeAtomic(path string, rows [][]string) (err error) {
	if err := s.EnsureDirectory(); err != nil {
		return err
	}

	tmp := path + tmpSuffix
	defer func() {
		if err != nil {
			_ = os.Remove(tmp)
		}
	}()

	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("create %s: %w", tmp, err)
	}

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("sync %s: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp, err)
	}

	if err := s.rename(tmp, path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

// appendRow adds one row, writing the header first when the file is new or
// empty. Earlier complete rows are never rewritten.
func (s *Store) appendRow(path string, header, row []string) error {
	if err := s.EnsureDirectory(); err != nil {
		return err
	}

	needHeader := false
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		needHeader = true
	case err != nil:
		return fmt.Errorf("stat %s: %w", path, err)
	case info.Size() == 0:
		needHeader = true
	default:
		dropped, err := s.dropTornRow(path, info.Size())
		if err != nil {
			return err
		}
		needHeader = dropped
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}

	w := csv.NewWriter(f)
	if needHeader {
		_ = w.Write(header)
	}
	_ = w.Write(row)
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return fmt.Errorf("append %s: %w", path, err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("sync %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

// dropTornRow truncates a file that does not end in a newline back to its
// last complete line, discarding the partial row left by an interrupted
// append. It reports whether the file ended up empty.
func (s *Store) dropTornRow(path string, size int64) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, fmt.Errorf("open %s: %w", path, err)
	}
	last := make([]byte, 1)
	_, err = f.ReadAt(last, size-1)
	_ = f.Close()
	if err != nil {
		return false, fmt.Errorf("read %s: %w", path, err)
	}
	if last[0] == '\n' {
		return false, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", path, err)
	}
	keep := int64(bytes.LastIndexByte(data, '\n') + 1)
	if err := os.Truncate(path, keep); err != nil {
		return false, fmt.Errorf("truncate %s: %w", path, err)
	}
	s.logger.Warn("dropped torn row", "path", path, "bytes", size-keep)
	return keep == 0, nil
}
