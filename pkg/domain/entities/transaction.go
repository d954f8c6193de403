package entities

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Action is the kind of stock movement a transaction records
type Action string

const (
	ActionUse      Action = "USE"
	ActionReceive  Action = "RECEIVE"
	ActionTransfer Action = "TRANSFER"
	ActionAdjust   Action = "ADJUST"
	ActionWaste    Action = "WASTE"
)

var actions = []Action{ActionUse, ActionReceive, ActionTransfer, ActionAdjust, ActionWaste}

// ParseAction matches an action name case-insensitively
func ParseAction(s string) (Action, error) {
	for _, a := range actions {
		if strings.EqualFold(string(a), strings.TrimSpace(s)) {
			return a, nil
		}
	}
	return "", invalid("action", s, "must be one of USE, RECEIVE, TRANSFER, ADJUST, WASTE")
}

// SignedChange applies the action's sign convention to a positive quantity.
// USE, WASTE and TRANSFER (out) reduce stock; RECEIVE adds; ADJUST keeps the
// caller's sign.
func (a Action) SignedChange(qty int64) int64 {
	switch a {
	case ActionUse, ActionWaste, ActionTransfer:
		if qty > 0 {
			return -qty
		}
	case ActionReceive:
		if qty < 0 {
			return -qty
		}
	}
	return qty
}

// Transaction is an append-only stock movement record
type Transaction struct {
	TxnID     string
	Timestamp time.Time
	UserID    string
	DrugID    string
	Action    Action
	QtyChange int64
}

// NewTransaction creates a validated transaction with a fresh id
func NewTransaction(ts time.Time, userID, drugID string, action Action, qtyChange int64) (*Transaction, error) {
	txn := &Transaction{
		TxnID:     uuid.NewString(),
		Timestamp: ts.UTC(),
		UserID:    userID,
		DrugID:    drugID,
		Action:    action,
		QtyChange: qtyChange,
	}
	if err := txn.Validate(); err != nil {
		return nil, err
	}
	return txn, nil
}

// Validate checks the transaction invariants
func (t *Transaction) Validate() error {
	if strings.TrimSpace(t.TxnID) == "" {
		return invalid("txn_id", "", "cannot be empty")
	}
	if t.Timestamp.IsZero() {
		return invalid("timestamp", "", "cannot be empty")
	}
	if strings.TrimSpace(t.DrugID) == "" {
		return invalid("drug_id", "", "cannot be empty")
	}
	if _, err := ParseAction(string(t.Action)); err != nil {
		return err
	}
	return nil
}

// Magnitude is the absolute quantity moved
func (t *Transaction) Magnitude() int64 {
	if t.QtyChange < 0 {
		return -t.QtyChange
	}
	return t.QtyChange
}
