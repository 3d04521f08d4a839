package amqp

import (
	"encoding/json"
	"time"
)

// Event kinds carried on the expense events queue.
const (
	EventExpenseRecorded = "expense.recorded"
	EventExpenseDeleted  = "expense.deleted"
)

// ExpenseEventMessage is a lightweight notification about a ledger change.
// It carries only the kind and the expense id; the worker fetches the full
// record from the database when it needs one.
type ExpenseEventMessage struct {
	Kind      string    `json:"kind"`
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewExpenseRecordedMessage(id int64) *ExpenseEventMessage {
	return &ExpenseEventMessage{Kind: EventExpenseRecorded, ID: id, Timestamp: time.Now()}
}

func NewExpenseDeletedMessage(id int64) *ExpenseEventMessage {
	return &ExpenseEventMessage{Kind: EventExpenseDeleted, ID: id, Timestamp: time.Now()}
}

// ToJSON converts the message to JSON bytes
func (m *ExpenseEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// FromJSON creates a message from JSON bytes
func ExpenseEventMessageFromJSON(data []byte) (*ExpenseEventMessage, error) {
	var msg ExpenseEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
