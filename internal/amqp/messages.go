package amqp

import (
	"encoding/json"
	"time"
)

// LedgerChangedMessage signals that the ledger mutated and any derived
// report is stale. It carries only the change origin; the worker
// re-reads the full snapshot from the database.
type LedgerChangedMessage struct {
	Origin    string    `json:"origin"`
	Timestamp time.Time `json:"timestamp"`
}

const (
	OriginEntries  = "entries"
	OriginVehicles = "vehicles"
)

func NewLedgerChangedMessage(origin string) *LedgerChangedMessage {
	return &LedgerChangedMessage{
		Origin:    origin,
		Timestamp: time.Now(),
	}
}

func (m *LedgerChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func LedgerChangedMessageFromJSON(data []byte) (*LedgerChangedMessage, error) {
	var msg LedgerChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
