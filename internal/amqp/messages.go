package amqp

import (
	"encoding/json"
	"errors"
	"time"
)

// LedgerChangedMessage notifies the export worker that a session's ledger
// mutated. It carries only the session ID and record count; the worker
// loads the full snapshot from the store.
type LedgerChangedMessage struct {
	SessionID string    `json:"session_id"`
	Count     int       `json:"count"`
	Timestamp time.Time `json:"timestamp"`
}

// NewLedgerChangedMessage creates a change notification for a session.
func NewLedgerChangedMessage(sessionID string, count int) *LedgerChangedMessage {
	return &LedgerChangedMessage{
		SessionID: sessionID,
		Count:     count,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes.
func (m *LedgerChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerChangedMessageFromJSON creates a message from JSON bytes.
func LedgerChangedMessageFromJSON(data []byte) (*LedgerChangedMessage, error) {
	var msg LedgerChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.SessionID == "" {
		return nil, errors.New("missing session_id")
	}
	return &msg, nil
}
