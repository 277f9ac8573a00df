// Package pubsub publishes compile events to long-lived HTTP subscribers.
package pubsub

import (
	"context"
	"encoding/json"
)

// Event is one published message. Version increases by one per topic.
type Event struct {
	Topic   string          `json:"topic"`
	Type    string          `json:"type"`
	Data    json.RawMessage `json:"data"`
	Version int             `json:"version"`
}

// Subscription receives the events of one topic until closed.
type Subscription interface {
	Topic() string
	Events() <-chan Event
	Close() error
}

// Publisher manages pub/sub subscriptions and event publishing
type Publisher interface {
	// Subscribe creates a new subscription to a topic.
	// Context cancellation will close the subscription.
	Subscribe(ctx context.Context, topic string) (Subscription, error)

	// Resume is Subscribe for a client that has seen events up to lastVersion.
	Resume(ctx context.Context, topic string, lastVersion int) (Subscription, error)

	Publish(topic string, eventType string, data any) error
	Close() error
}

// TopicCompile carries one event per finished compilation of a watched patch.
const TopicCompile = "compile"

// Event types published on TopicCompile.
const (
	EventCompiled = "compiled"
	EventFailed   = "failed"
)

// CompileStatus summarises a compilation for subscribers
type CompileStatus struct {
	CompileID string `json:"compileId"`
	Source    string `json:"source"`             // Patch file the code was compiled from
	Target    string `json:"target"`             // scripting or systems
	FailedIn  string `json:"failedIn,omitempty"` // Compiler state that failed
	Error     string `json:"error,omitempty"`
	Bytes     int    `json:"bytes"` // Size of the generated code
}

var _ Publisher = (*SSEPublisher)(nil)
