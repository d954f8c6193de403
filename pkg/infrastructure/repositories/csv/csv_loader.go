package csv

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/vsinha/rxstock/pkg/domain/entities"
)

const (
	dateLayout      = "2006-01-02"
	timestampLayout = time.RFC3339Nano
)

// schema describes how one collection maps to delimited rows
type schema[T any] struct {
	collection string
	file       string
	header     []string
	// key identifies a record; nil for append-only logs where duplicates
	// are not checked.
	key      func(*T) string
	decode   func(record []string) (T, error)
	encode   func(T) []string
	validate func(*T) error
}

var inventorySchema = schema[entities.InventoryItem]{
	collection: "inventory",
	file:       InventoryFile,
	key: func(i *entities.InventoryItem) string {
		return i.DrugID + "\x00" + i.Location + "\x00" + i.BatchLot
	},
	header:   []string{"drug_id", "name", "location", "quantity", "expiry_date", "batch_lot", "safety_stock", "avg_daily_use"},
	decode:   parseInventoryItem,
	encode:   formatInventoryItem,
	validate: func(i *entities.InventoryItem) error { return i.Validate() },
}

var userSchema = schema[entities.UserAccount]{
	collection: "users",
	file:       UsersFile,
	key:        func(u *entities.UserAccount) string { return u.EmployeeID },
	header:     []string{"employee_id", "name", "role", "status", "password_hash", "group", "created_at", "last_login"},
	decode:     parseUser,
	encode:     formatUser,
	validate:   func(u *entities.UserAccount) error { return u.Validate() },
}

var transactionSchema = schema[entities.Transaction]{
	collection: "transactions",
	file:       TransactionsFile,
	header:     []string{"txn_id", "timestamp", "user_id", "drug_id", "action", "qty_change"},
	decode:     parseTransaction,
	encode:     formatTransaction,
	validate:   func(t *entities.Transaction) error { return t.Validate() },
}

var accessLogSchema = schema[entities.AccessLogEntry]{
	collection: "access_log",
	file:       AccessLogFile,
	header:     []string{"log_id", "timestamp", "employee_id", "action", "ip", "details"},
	decode:     parseAccessLogEntry,
	encode:     formatAccessLogEntry,
	validate:   func(e *entities.AccessLogEntry) error { return e.Validate() },
}

// decodeRecords turns raw rows into records. The first row must be the
// header. Any bad row aborts the whole decode.
func decodeRecords[T any](s schema[T], records [][]string) ([]T, error) {
	if len(records) == 0 {
		return []T{}, nil
	}

	if !validateHeader(records[0], s.header) {
		return nil, &entities.ValidationError{
			Collection: s.collection,
			Row:        1,
			Reason:     fmt.Sprintf("header mismatch: expected %v, got %v", s.header, records[0]),
		}
	}

	out := make([]T, 0, len(records)-1)
	seen := make(map[string]struct{}, len(records)-1)
	for i, record := range records[1:] {
		row := i + 2
		if len(record) != len(s.header) {
			return nil, &entities.ValidationError{
				Collection: s.collection,
				Row:        row,
				Reason:     fmt.Sprintf("expected %d columns, got %d", len(s.header), len(record)),
			}
		}

		rec, err := s.decode(record)
		if err == nil {
			err = s.validate(&rec)
		}
		if err != nil {
			return nil, withRow(err, s.collection, row)
		}
		if err := s.checkUnique(seen, &rec); err != nil {
			return nil, withRow(err, s.collection, row)
		}
		out = append(out, rec)
	}

	return out, nil
}

// encodeRecords validates every record and renders header plus rows
func encodeRecords[T any](s schema[T], recs []T) ([][]string, error) {
	rows := make([][]string, 0, len(recs)+1)
	rows = append(rows, s.header)
	seen := make(map[string]struct{}, len(recs))
	for i := range recs {
		if err := s.validate(&recs[i]); err != nil {
			return nil, withRow(err, s.collection, 0)
		}
		if err := s.checkUnique(seen, &recs[i]); err != nil {
			return nil, withRow(err, s.collection, 0)
		}
		rows = append(rows, s.encode(recs[i]))
	}
	return rows, nil
}

func (s schema[T]) checkUnique(seen map[string]struct{}, rec *T) error {
	if s.key == nil {
		return nil
	}
	k := s.key(rec)
	if _, dup := seen[k]; dup {
		return &entities.ValidationError{Reason: "duplicate key " + strings.ReplaceAll(k, "\x00", "/")}
	}
	seen[k] = struct{}{}
	return nil
}

func withRow(err error, collection string, row int) error {
	var ve *entities.ValidationError
	if errors.As(err, &ve) {
		ve.Collection = collection
		ve.Row = row
		return ve
	}
	return &entities.ValidationError{Collection: collection, Row: row, Reason: err.Error()}
}

func validateHeader(actual, expected []string) bool {
	if len(actual) != len(expected) {
		return false
	}

	for i, col := range expected {
		if strings.ToLower(strings.TrimSpace(actual[i])) != col {
			return false
		}
	}

	return true
}

func parseInventoryItem(record []string) (entities.InventoryItem, error) {
	quantity, err := parseInt("quantity", record[3])
	if err != nil {
		return entities.InventoryItem{}, err
	}

	expiry, err := parseExpiry(record[4])
	if err != nil {
		return entities.InventoryItem{}, err
	}

	safetyStock, err := parseInt("safety_stock", record[6])
	if err != nil {
		return entities.InventoryItem{}, err
	}

	avgDailyUse, err := strconv.ParseFloat(strings.TrimSpace(record[7]), 64)
	if err != nil || math.IsNaN(avgDailyUse) || math.IsInf(avgDailyUse, 0) {
		return entities.InventoryItem{}, fieldError("avg_daily_use", record[7], "not a number")
	}

	return entities.InventoryItem{
		DrugID:      record[0],
		Name:        record[1],
		Location:    record[2],
		Quantity:    quantity,
		ExpiryDate:  expiry,
		BatchLot:    record[5],
		SafetyStock: safetyStock,
		AvgDailyUse: avgDailyUse,
	}, nil
}

func formatInventoryItem(i entities.InventoryItem) []string {
	return []string{
		i.DrugID,
		i.Name,
		i.Location,
		strconv.FormatInt(i.Quantity, 10),
		formatExpiry(i.ExpiryDate),
		i.BatchLot,
		strconv.FormatInt(i.SafetyStock, 10),
		strconv.FormatFloat(i.AvgDailyUse, 'f', -1, 64),
	}
}

func parseUser(record []string) (entities.UserAccount, error) {
	role, err := entities.ParseRole(record[2])
	if err != nil {
		return entities.UserAccount{}, err
	}

	status, err := entities.ParseAccountStatus(record[3])
	if err != nil {
		return entities.UserAccount{}, err
	}

	createdAt, err := parseTimestamp("created_at", record[6])
	if err != nil {
		return entities.UserAccount{}, err
	}

	lastLogin, err := parseTimestamp("last_login", record[7])
	if err != nil {
		return entities.UserAccount{}, err
	}

	return entities.UserAccount{
		EmployeeID:   record[0],
		Name:         record[1],
		Role:         role,
		Status:       status,
		PasswordHash: record[4],
		Group:        record[5],
		CreatedAt:    createdAt,
		LastLogin:    lastLogin,
	}, nil
}

func formatUser(u entities.UserAccount) []string {
	return []string{
		u.EmployeeID,
		u.Name,
		string(u.Role),
		string(u.Status),
		u.PasswordHash,
		u.Group,
		formatTimestamp(u.CreatedAt),
		formatTimestamp(u.LastLogin),
	}
}

func parseTransaction(record []string) (entities.Transaction, error) {
	ts, err := parseTimestamp("timestamp", record[1])
	if err != nil {
		return entities.Transaction{}, err
	}

	action, err := entities.ParseAction(record[4])
	if err != nil {
		return entities.Transaction{}, err
	}

	qtyChange, err := parseInt("qty_change", record[5])
	if err != nil {
		return entities.Transaction{}, err
	}

	return entities.Transaction{
		TxnID:     record[0],
		Timestamp: ts,
		UserID:    record[2],
		DrugID:    record[3],
		Action:    action,
		QtyChange: qtyChange,
	}, nil
}

func formatTransaction(t entities.Transaction) []string {
	return []string{
		t.TxnID,
		formatTimestamp(t.Timestamp),
		t.UserID,
		t.DrugID,
		string(t.Action),
		strconv.FormatInt(t.QtyChange, 10),
	}
}

func parseAccessLogEntry(record []string) (entities.AccessLogEntry, error) {
	ts, err := parseTimestamp("timestamp", record[1])
	if err != nil {
		return entities.AccessLogEntry{}, err
	}

	return entities.AccessLogEntry{
		LogID:      record[0],
		Timestamp:  ts,
		EmployeeID: record[2],
		Action:     record[3],
		IP:         record[4],
		Details:    record[5],
	}, nil
}

func formatAccessLogEntry(e entities.AccessLogEntry) []string {
	return []string{
		e.LogID,
		formatTimestamp(e.Timestamp),
		e.EmployeeID,
		e.Action,
		e.IP,
		e.Details,
	}
}

// parseExpiry accepts a calendar date, or an RFC 3339 timestamp for expiries
// that carry a time of day
func parseExpiry(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if d, err := time.Parse(dateLayout, s); err == nil {
		return d, nil
	}
	ts, err := time.Parse(timestampLayout, s)
	if err != nil {
		return time.Time{}, fieldError("expiry_date", s, "expected YYYY-MM-DD or RFC 3339 timestamp")
	}
	return ts.UTC(), nil
}

// formatExpiry writes midnight UTC as a plain date and anything else as a
// full timestamp, so the stored instant survives a reload
func formatExpiry(t time.Time) string {
	u := t.UTC()
	if u.Equal(u.Truncate(24 * time.Hour)) {
		return u.Format(dateLayout)
	}
	return u.Format(timestampLayout)
}

func parseInt(field, s string) (int64, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fieldError(field, s, "not an integer")
	}
	return v, nil
}

// parseTimestamp accepts RFC 3339; an empty value is the zero time
func parseTimestamp(field, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	ts, err := time.Parse(timestampLayout, s)
	if err != nil {
		return time.Time{}, fieldError(field, s, "expected RFC 3339 timestamp")
	}
	return ts.UTC(), nil
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timestampLayout)
}

func fieldError(field, value, reason string) *entities.ValidationError {
	return &entities.ValidationError{Field: field, Value: value, Reason: reason}
}
