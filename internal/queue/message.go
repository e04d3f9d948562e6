package queue

import (
	"encoding/json"
	"time"
)

// MessageVersion is the current payload version.
const MessageVersion = 1

// Message is a queued generation request.
type Message struct {
	Key            string `json:"key"`
	UserID         string `json:"userId"`
	JobDescription string `json:"jobDescription"`
	Format         string `json:"format"`
	ModelID        string `json:"modelId,omitempty"`
	RequestID      string `json:"requestId,omitempty"`
	EnqueuedAt     string `json:"enqueuedAt"`
	Version        int    `json:"version"`
}

// EncodeMessage returns the JSON representation of a message.
func EncodeMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}

// DecodeMessage parses a JSON payload into a Message.
func DecodeMessage(payload []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Message{}, err
	}
	return msg, nil
}

// Age reports how long the message waited in the queue. Messages without a
// parseable EnqueuedAt report zero.
func (m Message) Age(now time.Time) time.Duration {
	at, err := time.Parse(time.RFC3339, m.EnqueuedAt)
	if err != nil || now.Before(at) {
		return 0
	}
	return now.Sub(at)
}
