package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event reasons published on the ledger bus.
const (
	ReasonTransactionWrite = "transaction_write"
	ReasonGoalTransfer     = "goal_transfer"
	ReasonRecalculate      = "recalculate"
)

// LedgerEvent asks the repair worker to reconverge balances after a
// write. AccountID may be empty, meaning every account of the user.
type LedgerEvent struct {
	UserID    string    `json:"user_id"`
	AccountID string    `json:"account_id,omitempty"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

func NewLedgerEvent(userID, accountID, reason string) *LedgerEvent {
	return &LedgerEvent{
		UserID:    userID,
		AccountID: accountID,
		Reason:    reason,
		Timestamp: time.Now().UTC(),
	}
}

func (e *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var e LedgerEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("unmarshal ledger event: %w", err)
	}
	if e.UserID == "" {
		return nil, fmt.Errorf("ledger event missing user_id")
	}
	return &e, nil
}
