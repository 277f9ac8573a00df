package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/ritzau/patchc/pkg/logging"
)

// ErrClosed is returned by a publisher after Close.
var ErrClosed = errors.New("publisher is closed")

// subscriberQueue bounds the events waiting for a slow subscriber.
const subscriberQueue = 64

// TopicConfig configures buffering behavior for a topic
type TopicConfig struct {
	BufferSize int  // Number of events to buffer (0 = no buffering)
	ReplayAll  bool // If true, replay all buffered events; if false, only replay last event
}

type topic struct {
	config  TopicConfig
	version int
	history []Event
	subs    map[*sseSubscription]struct{}
}

// record appends event to the history, keeping the newest BufferSize events.
func (t *topic) record(event Event) {
	if t.config.BufferSize <= 0 {
		return
	}
	t.history = append(t.history, event)
	if over := len(t.history) - t.config.BufferSize; over > 0 {
		t.history = append(t.history[:0:0], t.history[over:]...)
	}
}

func (t *topic) replay() []Event {
	if len(t.history) == 0 || t.config.ReplayAll {
		return t.history
	}
	return t.history[len(t.history)-1:]
}

func (t *topic) since(version int) []Event {
	for i, event := range t.history {
		if event.Version > version {
			return t.history[i:]
		}
	}
	return nil
}

// SSEPublisher fans compile events out to Server-Sent Event streams.
type SSEPublisher struct {
	mu     sync.Mutex
	topics map[string]*topic
	closed bool
}

// NewSSEPublisher creates a new SSE-based publisher
func NewSSEPublisher() *SSEPublisher {
	return &SSEPublisher{topics: make(map[string]*topic)}
}

func (p *SSEPublisher) topic(name string) *topic {
	t, ok := p.topics[name]
	if !ok {
		t = &topic{subs: make(map[*sseSubscription]struct{})}
		p.topics[name] = t
	}
	return t
}

// ConfigureTopic sets buffering configuration for a topic
func (p *SSEPublisher) ConfigureTopic(name string, config TopicConfig) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topic(name).config = config
}

// Subscribe creates a subscription that first receives the buffered events
// selected by the topic's replay policy.
func (p *SSEPublisher) Subscribe(ctx context.Context, name string) (Subscription, error) {
	return p.subscribe(ctx, name, (*topic).replay)
}

// Resume creates a subscription that first receives every buffered event
// newer than lastVersion, as sent by a reconnecting EventSource in its
// Last-Event-ID header.
func (p *SSEPublisher) Resume(ctx context.Context, name string, lastVersion int) (Subscription, error) {
	return p.subscribe(ctx, name, func(t *topic) []Event { return t.since(lastVersion) })
}

func (p *SSEPublisher) subscribe(ctx context.Context, name string, backlog func(*topic) []Event) (Subscription, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, ErrClosed
	}

	t := p.topic(name)
	sub := &sseSubscription{
		topic:     name,
		events:    make(chan Event, subscriberQueue),
		publisher: p,
	}
	t.subs[sub] = struct{}{}

	replayed := 0
	for _, event := range backlog(t) {
		if !sub.offer(event) {
			break
		}
		replayed++
	}
	if replayed > 0 {
		logging.Debug("replayed events to new subscriber", "topic", name, "count", replayed)
	}

	go func() {
		<-ctx.Done()
		sub.Close()
	}()
	return sub, nil
}

// Publish sends an event to all subscribers of a topic. Subscribers whose
// queue is full miss the event.
func (p *SSEPublisher) Publish(name string, eventType string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}

	t := p.topic(name)
	t.version++
	event := Event{Topic: name, Type: eventType, Data: payload, Version: t.version}
	t.record(event)

	for sub := range t.subs {
		if !sub.offer(event) {
			logging.Warn("subscription queue full, dropping event", "topic", name, "version", event.Version)
		}
	}
	return nil
}

// Close shuts down the publisher and ends every subscription.
func (p *SSEPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	for _, t := range p.topics {
		for sub := range t.subs {
			close(sub.events)
		}
		t.subs = nil
	}
	return nil
}

// unsubscribe drops sub and closes its channel unless Close already did.
func (p *SSEPublisher) unsubscribe(sub *sseSubscription) {
	p.mu.Lock()
	defer p.mu.Unlock()
	t, ok := p.topics[sub.topic]
	if !ok {
		return
	}
	if _, ok := t.subs[sub]; !ok {
		return
	}
	delete(t.subs, sub)
	close(sub.events)
}

type sseSubscription struct {
	topic     string
	events    chan Event
	publisher *SSEPublisher
	once      sync.Once
}

// offer queues event without blocking. The publisher lock is held.
func (s *sseSubscription) offer(event Event) bool {
	select {
	case s.events <- event:
		return true
	default:
		return false
	}
}

func (s *sseSubscription) Topic() string {
	return s.topic
}

func (s *sseSubscription) Events() <-chan Event {
	return s.events
}

func (s *sseSubscription) Close() error {
	s.once.Do(func() { s.publisher.unsubscribe(s) })
	return nil
}

// WriteSSE writes event as one Server-Sent Events frame. The id line lets
// clients resume with Last-Event-ID.
func WriteSSE(w io.Writer, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	_, err = fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", event.Version, event.Type, payload)
	return err
}
