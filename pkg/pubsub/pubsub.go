// Package pubsub is the fan-out layer between the single replay loop and
// its subscribers. Channels are buffered and sends never block: a slow
// dashboard must not stall the tick loop, so the oldest undelivered value
// is dropped instead.
package pubsub

import "sync"

// Topic names shared by the engine and its consumers.
const (
	TopicTelemetry = "telemetry_update"
	TopicInsights  = "session_insights"
	TopicLaps      = "lap_completed"
)

const subscriberBuffer = 8

type PubSub[T any] struct {
	mu   sync.Mutex
	subs map[string][]chan T
}

func NewPubSub[T any]() *PubSub[T] {
	return &PubSub[T]{
		subs: make(map[string][]chan T),
	}
}

func (ps *PubSub[T]) Subscribe(topic string) <-chan T {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ch := make(chan T, subscriberBuffer)
	ps.subs[topic] = append(ps.subs[topic], ch)
	return ch
}

// Unsubscribe removes the channel from the topic and closes it. The channel
// must have come from Subscribe on the same topic.
func (ps *PubSub[T]) Unsubscribe(topic string, ch <-chan T) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	subs := ps.subs[topic]
	for i, sub := range subs {
		if sub == ch {
			ps.subs[topic] = append(subs[:i], subs[i+1:]...)
			close(sub)
			return
		}
	}
}

func (ps *PubSub[T]) Publish(topic string, data T) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	for _, ch := range ps.subs[topic] {
		select {
		case ch <- data:
		default:
			// subscriber is behind: make room, then deliver the fresh value
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- data:
			default:
			}
		}
	}
}

// Subscribers reports how many channels are attached to the topic.
func (ps *PubSub[T]) Subscribers(topic string) int {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return len(ps.subs[topic])
}
