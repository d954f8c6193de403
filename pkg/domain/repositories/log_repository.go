package repositories

import "github.com/vsinha/rxstock/pkg/domain/entities"

// TransactionRepository provides access to the append-only transaction log
type TransactionRepository interface {
	LoadTransactions() ([]entities.Transaction, error)
	AppendTransaction(txn entities.Transaction) error
}

// AccessLogRepository provides access to the append-only access log
type AccessLogRepository interface {
	LoadAccessLog() ([]entities.AccessLogEntry, error)
	AppendAccessLog(entry entities.AccessLogEntry) error
}

// PharmacyStore is the full contract shared by the file store and its cache
type PharmacyStore interface {
	InventoryRepository
	InventoryQueries
	UserRepository
	TransactionRepository
	AccessLogRepository
}
