package notify

import (
	"encoding/json"
	"time"
)

// Message is the envelope forwarded to the broker for every domain event.
type Message struct {
	Type       string    `json:"type"`
	UserId     int       `json:"userId"`
	OccurredAt time.Time `json:"occurredAt"`
	Payload    any       `json:"payload"`
}

func (m Message) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// MessageFromJSON is used by consumers and tests.
func MessageFromJSON(data []byte) (Message, json.RawMessage, error) {
	var envelope struct {
		Message
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return Message{}, nil, err
	}
	return envelope.Message, envelope.Payload, nil
}
