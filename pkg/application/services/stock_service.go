package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vsinha/rxstock/pkg/domain/entities"
	"github.com/vsinha/rxstock/pkg/domain/repositories"
)

// Movement is a stock change requested by a user. Quantity is a magnitude
// for USE, WASTE, TRANSFER and RECEIVE; ADJUST takes a signed delta.
type Movement struct {
	UserID   string
	Key      entities.ItemKey
	Action   entities.Action
	Quantity int64
	IP       string
}

// StockService records stock movements against the store
type StockService struct {
	store  repositories.PharmacyStore
	logger *slog.Logger
	now    func() time.Time
}

// NewStockService creates a stock service
func NewStockService(store repositories.PharmacyStore, logger *slog.Logger) *StockService {
	if logger == nil {
		logger = slog.Default()
	}
	return &StockService{store: store, logger: logger, now: time.Now}
}

// RecordMovement applies a movement: it checks the user may update stock,
// applies the signed change as one store read-modify-write that refuses to
// take the quantity below zero, and appends the transaction and an access log
// entry. When the transaction cannot be appended the change is reverted. It
// returns the updated row.
func (s *StockService) RecordMovement(ctx context.Context, m Movement) (*entities.InventoryItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.Quantity == 0 {
		return nil, ErrInvalidQuantity
	}
	if _, err := entities.ParseAction(string(m.Action)); err != nil {
		return nil, err
	}
	if _, err := authorize(s.store, m.UserID, entities.PermUpdate); err != nil {
		return nil, err
	}

	change := m.Action.SignedChange(m.Quantity)
	item, found, err := s.store.AdjustQuantity(m.Key, change)
	if errors.Is(err, entities.ErrNegativeQuantity) {
		return nil, fmt.Errorf("%w: %w", ErrInsufficientStock, err)
	}
	if err != nil {
		return nil, fmt.Errorf("update quantity: %w", err)
	}
	if !found {
		return nil, fmt.Errorf("%w: %s at %s lot %s", ErrItemNotFound, m.Key.DrugID, m.Key.Location, m.Key.BatchLot)
	}

	now := s.now()
	txn, err := entities.NewTransaction(now, m.UserID, m.Key.DrugID, m.Action, change)
	if err == nil {
		err = s.store.AppendTransaction(*txn)
	}
	if err != nil {
		// the row must not show a movement the log does not record
		if _, _, undoErr := s.store.AdjustQuantity(m.Key, -change); undoErr != nil {
			s.logger.Error("stock movement not reverted after failed transaction append",
				"drug_id", m.Key.DrugID, "location", m.Key.Location, "change", change, "error", undoErr)
			return nil, fmt.Errorf("append transaction: %w (revert failed: %v)", err, undoErr)
		}
		return nil, fmt.Errorf("append transaction: %w", err)
	}

	details := fmt.Sprintf("%s %s %d at %s", m.Action, m.Key.DrugID, change, m.Key.Location)
	entry := entities.NewAccessLogEntry(now, m.UserID, entities.AccessStockUpdated, m.IP, details)
	if err := s.store.AppendAccessLog(*entry); err != nil {
		s.logger.Warn("access log append failed", "error", err)
	}

	s.logger.Info("stock movement recorded",
		"drug_id", m.Key.DrugID, "location", m.Key.Location, "action", m.Action,
		"change", change, "quantity", item.Quantity, "txn_id", txn.TxnID)
	return &item, nil
}
