package amqp

import (
	"encoding/json"
	"time"
)

// Expense lifecycle events carried on the queue.
const (
	EventCreated = "created"
	EventDeleted = "deleted"
)

// ExpenseEventMessage is a lightweight notification that an expense
// changed. It carries only identifiers; the sync worker fetches the
// full expense from the database.
type ExpenseEventMessage struct {
	ExpenseID string    `json:"expense_id"`
	OwnerID   string    `json:"owner_id"`
	Event     string    `json:"event"`
	Timestamp time.Time `json:"timestamp"`
}

func NewExpenseEventMessage(expenseID, ownerID, event string) *ExpenseEventMessage {
	return &ExpenseEventMessage{
		ExpenseID: expenseID,
		OwnerID:   ownerID,
		Event:     event,
		Timestamp: time.Now(),
	}
}

func (m *ExpenseEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ExpenseEventMessageFromJSON(data []byte) (*ExpenseEventMessage, error) {
	var msg ExpenseEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
