package amqp

import (
	"encoding/json"
	"errors"
	"time"
)

// Resources and actions carried by change messages.
const (
	ResourceTransactions = "money"
	ResourceCategories   = "category"

	ActionCreated = "created"
	ActionRefresh = "refresh"
)

// ChangeMessage announces that a resource behind the source API changed.
// Consumers reload rather than apply the change.
type ChangeMessage struct {
	Resource  string    `json:"resource"`
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

func NewChangeMessage(resource, action string) *ChangeMessage {
	return &ChangeMessage{
		Resource:  resource,
		Action:    action,
		Timestamp: time.Now().UTC(),
	}
}

func (m *ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ChangeMessageFromJSON decodes a message and rejects ones without a resource.
func ChangeMessageFromJSON(data []byte) (*ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Resource == "" {
		return nil, errors.New("change message without resource")
	}
	return &msg, nil
}
