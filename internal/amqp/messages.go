package amqp

import (
	"encoding/json"
	"errors"
	"time"
)

// AuditMessage is the wire form of an admin activity event.
type AuditMessage struct {
	ID         string    `json:"id"`
	Action     string    `json:"action"`
	Resource   string    `json:"resource"`
	ResourceID string    `json:"resourceId,omitempty"`
	Actor      string    `json:"actor,omitempty"`
	Summary    string    `json:"summary,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

var errMissingID = errors.New("audit message has no id")

// ToJSON converts the message to JSON bytes
func (m *AuditMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// AuditMessageFromJSON decodes a message and rejects ones without an id or
// action, which the consumer could never store.
func AuditMessageFromJSON(data []byte) (*AuditMessage, error) {
	var msg AuditMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.ID == "" {
		return nil, errMissingID
	}
	if msg.Action == "" || msg.Resource == "" {
		return nil, errors.New("audit message needs action and resource")
	}
	return &msg, nil
}
