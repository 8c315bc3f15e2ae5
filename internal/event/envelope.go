// Package event carries create/delete commands from the gateway to the backing
// services over a pluggable message transport.
package event

import (
	"encoding/json"
	"fmt"
	"time"
)

// Type is the command kind. There is no update: callers delete then create.
type Type string

const (
	Create Type = "CREATE"
	Delete Type = "DELETE"
)

// Command topics, one per entity type.
const (
	TopicProducts        = "products"
	TopicRecommendations = "recommendations"
	TopicReviews         = "reviews"
)

// Topics lists every command topic.
func Topics() []string {
	return []string{TopicProducts, TopicRecommendations, TopicReviews}
}

// DeadLetterTopic names the topic that receives commands a consumer could not apply.
func DeadLetterTopic(topic string) string {
	return topic + ".dlq"
}

// Envelope is the wire form of a command. Key is the product id the command
// is about; Data holds the entity for CREATE and is absent for DELETE.
type Envelope struct {
	Type      Type            `json:"eventType"`
	Key       int             `json:"key"`
	Data      json.RawMessage `json:"data,omitempty"`
	CreatedAt time.Time       `json:"eventCreatedAt"`
}

// NewCreate builds a CREATE envelope carrying data.
func NewCreate(key int, data any, now time.Time) (Envelope, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode %T: %w", data, err)
	}
	return Envelope{Type: Create, Key: key, Data: raw, CreatedAt: now.UTC()}, nil
}

// NewDelete builds a DELETE envelope for every entity under key.
func NewDelete(key int, now time.Time) Envelope {
	return Envelope{Type: Delete, Key: key, CreatedAt: now.UTC()}
}

// DecodeData unmarshals the payload of a CREATE envelope into v.
func (e Envelope) DecodeData(v any) error {
	if len(e.Data) == 0 {
		return fmt.Errorf("event %s for key %d has no data", e.Type, e.Key)
	}
	if err := json.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("decode %s data for key %d: %w", e.Type, e.Key, err)
	}
	return nil
}
