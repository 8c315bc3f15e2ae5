package event

import "context"

// Message is a transport record. Value holds an encoded Envelope on command
// topics and the original record bytes on dead-letter topics.
type Message struct {
	Topic   string            `json:"topic"`
	Key     string            `json:"key"`
	Value   []byte            `json:"value"`
	Headers map[string]string `json:"headers,omitempty"`
}

// Header names set on published messages.
const (
	HeaderEventID   = "event-id"
	HeaderEventType = "event-type"
	HeaderError     = "error"
	HeaderConsumer  = "consumer"
)

// MessageHandler processes one consumed message. A returned error is logged by
// the transport; the message is not redelivered.
type MessageHandler func(ctx context.Context, msg *Message) error

// Publisher hands a message to the transport. A nil return means the transport
// accepted the message, not that any consumer has applied it.
type Publisher interface {
	Publish(ctx context.Context, msg *Message) error
}

// Subscriber starts delivering messages from topic to h in the background and
// returns once the subscription is live. Delivery stops when ctx is cancelled.
// Subscribers sharing a group split the topic's messages between them.
type Subscriber interface {
	Subscribe(ctx context.Context, topic, group string, h MessageHandler) error
}

// Bus is a transport that can both publish and subscribe.
type Bus interface {
	Publisher
	Subscriber
	Close() error
}
