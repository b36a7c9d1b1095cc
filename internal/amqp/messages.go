package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// Action says what happened to a transaction.
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)

// TransactionEvent announces a change to one transaction. It carries only
// identifiers; consumers read the current state from the store.
type TransactionEvent struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Action    Action    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

func NewTransactionEvent(id, userID string, action Action) TransactionEvent {
	return TransactionEvent{
		ID:        id,
		UserID:    userID,
		Action:    action,
		Timestamp: time.Now().UTC(),
	}
}

func (e TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// TransactionEventFromJSON decodes an event and rejects ones missing an
// identifier or carrying an unknown action.
func TransactionEventFromJSON(data []byte) (TransactionEvent, error) {
	var ev TransactionEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return TransactionEvent{}, err
	}
	if ev.ID == "" || ev.UserID == "" {
		return TransactionEvent{}, fmt.Errorf("event missing id or user_id")
	}
	switch ev.Action {
	case ActionCreated, ActionUpdated, ActionDeleted:
	default:
		return TransactionEvent{}, fmt.Errorf("unknown action %q", ev.Action)
	}
	return ev, nil
}
