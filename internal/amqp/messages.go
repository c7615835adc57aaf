package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventType names a domain event and doubles as the AMQP message type.
type EventType string

const (
	EventExpenseRecorded EventType = "expense.recorded"
	EventBudgetUpdated   EventType = "budget.updated"
	EventBudgetExceeded  EventType = "budget.exceeded"
)

// EventMessage is the JSON body of every published event. Amounts are
// decimal strings.
type EventMessage struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username"`
	ExpenseID int64     `json:"expense_id,omitempty"`
	Amount    string    `json:"amount,omitempty"`
	Category  string    `json:"category,omitempty"`
	Date      string    `json:"date,omitempty"`
	Total     string    `json:"total,omitempty"`
	Budget    string    `json:"budget,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewEventMessage creates a message with a fresh id and timestamp
func NewEventMessage(t EventType, userID int64, username string) *EventMessage {
	return &EventMessage{
		ID:        uuid.NewString(),
		Type:      t,
		UserID:    userID,
		Username:  username,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *EventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// EventMessageFromJSON decodes a message body
func EventMessageFromJSON(data []byte) (*EventMessage, error) {
	var msg EventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
